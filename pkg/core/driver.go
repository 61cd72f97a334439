package core

import "time"

// WebDriver defines the remote session surface the device layer drives.
// Implementations: the Appium HTTP client and the recording mock.
// The device layer owns lifecycle, validation and diagnostics; a WebDriver
// only forwards single commands to the remote end.
type WebDriver interface {
	// Session
	Connect(capabilities map[string]interface{}) error
	Disconnect() error
	SessionID() string
	SetImplicitWait(timeout time.Duration) error

	// Elements
	FindElement(strategy, value string) (string, error)
	ClickElement(elementID string) error
	TapElement(elementID string) error
	LongPressElement(elementID string, d time.Duration) error
	SendElementKeys(elementID, text string) error

	// Input
	WindowSize() (width, height int, err error)
	PerformActions(sources []map[string]interface{}) error
	ReleaseActions() error
	PressKeyCode(keycode int) error
	Back() error

	// Page
	Source() (string, error)
	Screenshot() ([]byte, error)
}

// PlatformInfo contains device and platform details
type PlatformInfo struct {
	Platform   string `json:"platform"`            // android
	DeviceName string `json:"deviceName"`          // e.g. "emulator-5554"
	SessionID  string `json:"sessionId,omitempty"` // Remote session, empty when not connected
	Endpoint   string `json:"endpoint"`            // Remote endpoint URL
}

// String renders the info for log lines.
func (p PlatformInfo) String() string {
	s := p.Platform + "/" + p.DeviceName + "@" + p.Endpoint
	if p.SessionID != "" {
		s += " (" + p.SessionID + ")"
	}
	return s
}
