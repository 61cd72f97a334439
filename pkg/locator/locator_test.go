package locator

import "testing"

const pageSource = `<?xml version="1.0" encoding="UTF-8"?>
<hierarchy rotation="0">
  <android.widget.FrameLayout bounds="[0,0][1080,2400]">
    <android.widget.TextView text="Settings" resource-id="android:id/title"/>
    <android.widget.Button text="OK" resource-id="com.example:id/ok" clickable="true"/>
    <android.widget.Button text="Cancel" resource-id="com.example:id/cancel" clickable="true"/>
  </android.widget.FrameLayout>
</hierarchy>`

func TestValidate(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"//android.widget.Button[@text='OK']", false},
		{"/hierarchy/*", false},
		{"//*[contains(@resource-id, 'ok')]", false},
		{"", true},
		{"   ", true},
		{"//button[", true},
		{"//*[@text='OK'", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := Validate(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"//android.widget.TextView[@text='Settings']", true},
		{"//android.widget.Button[@text='OK']", true},
		{"//android.widget.Button[@text='Delete']", false},
	}

	for _, tt := range tests {
		got, err := Match(pageSource, tt.expr)
		if err != nil {
			t.Fatalf("Match(%q) error: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	n, err := Count(pageSource, "//android.widget.Button")
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestMatch_Errors(t *testing.T) {
	if _, err := Match(pageSource, "//["); err == nil {
		t.Error("expected error for invalid xpath")
	}
	if _, err := Match("<hierarchy attr=", "//a"); err == nil {
		t.Error("expected error for malformed source")
	}
}
