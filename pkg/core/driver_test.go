package core

import "testing"

func TestPlatformInfo_String(t *testing.T) {
	tests := []struct {
		info PlatformInfo
		want string
	}{
		{
			PlatformInfo{Platform: "android", DeviceName: "emulator-5554", Endpoint: "http://127.0.0.1:4723"},
			"android/emulator-5554@http://127.0.0.1:4723",
		},
		{
			PlatformInfo{Platform: "android", DeviceName: "pixel", Endpoint: "http://hub", SessionID: "abc"},
			"android/pixel@http://hub (abc)",
		},
	}

	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
