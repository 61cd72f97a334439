// Package mock provides a recording WebDriver for testing without a real device.
package mock

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/appium-extension/pkg/core"
	"github.com/devicelab-dev/appium-extension/pkg/driver/appium"
)

// Driver is a mock implementation of core.WebDriver for testing.
type Driver struct {
	// Configuration
	Config Config

	// Calls records every method invoked, in order.
	Calls []Call

	sessionID string
	elements  int
}

// Config configures mock driver behavior.
type Config struct {
	// Viewport reported by WindowSize
	Width  int
	Height int

	// Page served by Source and Screenshot
	Source     string
	Screenshot []byte

	// Errors makes the named method fail, e.g. {"FindElement": err}.
	Errors map[string]error

	// Sources, when set, is served by Source in order; the last entry repeats.
	Sources []string

	// SessionID to hand out on Connect
	SessionID string
}

// Call is one recorded method invocation.
type Call struct {
	Method string
	Args   []interface{}
}

var _ core.WebDriver = (*Driver)(nil)

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Width == 0 {
		cfg.Width = 1000
	}
	if cfg.Height == 0 {
		cfg.Height = 2000
	}
	if cfg.Source == "" {
		cfg.Source = `<hierarchy rotation="0"><android.widget.FrameLayout text=""/></hierarchy>`
	}
	if cfg.Screenshot == nil {
		cfg.Screenshot = []byte("\x89PNG\r\n\x1a\nmock")
	}
	if cfg.SessionID == "" {
		cfg.SessionID = "mock-session"
	}
	return &Driver{Config: cfg}
}

// NotFound returns the error a remote end sends for a missing element.
func NotFound(locator string) error {
	return &appium.WebDriverError{Status: 404, Code: appium.CodeNoSuchElement, Message: "no element for " + locator}
}

// Timeout returns the error a remote end sends when a wait expires.
func Timeout() error {
	return &appium.WebDriverError{Status: 500, Code: appium.CodeTimeout, Message: "wait timed out"}
}

func (d *Driver) record(method string, args ...interface{}) error {
	d.Calls = append(d.Calls, Call{Method: method, Args: args})
	if err, ok := d.Config.Errors[method]; ok {
		return err
	}
	return nil
}

// Count returns how many times method was called.
func (d *Driver) Count(method string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Last returns the most recent call to method, or nil.
func (d *Driver) Last(method string) *Call {
	for i := len(d.Calls) - 1; i >= 0; i-- {
		if d.Calls[i].Method == method {
			return &d.Calls[i]
		}
	}
	return nil
}

// Reset clears the call log.
func (d *Driver) Reset() {
	d.Calls = nil
}

func (d *Driver) Connect(capabilities map[string]interface{}) error {
	if err := d.record("Connect", capabilities); err != nil {
		return err
	}
	d.sessionID = d.Config.SessionID
	return nil
}

func (d *Driver) Disconnect() error {
	err := d.record("Disconnect")
	d.sessionID = ""
	return err
}

func (d *Driver) SessionID() string {
	return d.sessionID
}

func (d *Driver) SetImplicitWait(timeout time.Duration) error {
	return d.record("SetImplicitWait", timeout)
}

func (d *Driver) FindElement(strategy, value string) (string, error) {
	if err := d.record("FindElement", strategy, value); err != nil {
		return "", err
	}
	d.elements++
	return fmt.Sprintf("mock-element-%d", d.elements), nil
}

func (d *Driver) ClickElement(elementID string) error {
	return d.record("ClickElement", elementID)
}

func (d *Driver) TapElement(elementID string) error {
	return d.record("TapElement", elementID)
}

func (d *Driver) LongPressElement(elementID string, hold time.Duration) error {
	return d.record("LongPressElement", elementID, hold)
}

func (d *Driver) SendElementKeys(elementID, text string) error {
	return d.record("SendElementKeys", elementID, text)
}

func (d *Driver) WindowSize() (int, int, error) {
	if err := d.record("WindowSize"); err != nil {
		return 0, 0, err
	}
	return d.Config.Width, d.Config.Height, nil
}

func (d *Driver) PerformActions(sources []map[string]interface{}) error {
	return d.record("PerformActions", sources)
}

func (d *Driver) ReleaseActions() error {
	return d.record("ReleaseActions")
}

func (d *Driver) PressKeyCode(keycode int) error {
	return d.record("PressKeyCode", keycode)
}

func (d *Driver) Back() error {
	return d.record("Back")
}

func (d *Driver) Source() (string, error) {
	if err := d.record("Source"); err != nil {
		return "", err
	}
	if len(d.Config.Sources) > 0 {
		src := d.Config.Sources[0]
		if len(d.Config.Sources) > 1 {
			d.Config.Sources = d.Config.Sources[1:]
		}
		return src, nil
	}
	return d.Config.Source, nil
}

func (d *Driver) Screenshot() ([]byte, error) {
	if err := d.record("Screenshot"); err != nil {
		return nil, err
	}
	return d.Config.Screenshot, nil
}
