package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/devicelab-dev/appium-extension/pkg/config"
	"github.com/devicelab-dev/appium-extension/pkg/core"
	"github.com/devicelab-dev/appium-extension/pkg/diagnostics"
	"github.com/devicelab-dev/appium-extension/pkg/driver/appium"
	"github.com/devicelab-dev/appium-extension/pkg/gesture"
	"github.com/devicelab-dev/appium-extension/pkg/locator"
	"github.com/devicelab-dev/appium-extension/pkg/logger"
	"github.com/devicelab-dev/appium-extension/pkg/service"
)

// Operation names used in errors and log records.
const (
	OpTouch       = "Touch"
	OpDoubleTouch = "Double-touch"
	OpLongPress   = "Long-press"
	OpEnterText   = "Enter-text"
	OpGoToScreen  = "Go-to-screen"
	OpScroll      = "Scroll"
	OpSwipe       = "Swipe"
	OpPinchIn     = "Pinch-in"
	OpPinchOut    = "Pinch-out"
	OpRotate      = "Rotate"
	OpSavePage    = "Save-page"
	OpGoHome      = "Go-home"
	OpBack        = "Back"
	OpKeyEvent    = "Send-keyevent"
)

const screenPollInterval = 250 * time.Millisecond

// Android is a Device backed by an Appium UiAutomator2 session.
type Android struct {
	opts  options
	runID string
	log   *zap.Logger

	state    core.State
	cfg      *config.Config
	driver   core.WebDriver
	svc      service.Service
	capturer *diagnostics.Capturer
}

var _ Device = (*Android)(nil)

// NewAndroid creates an uninitialized Android device.
func NewAndroid(opts ...Option) *Android {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Android{
		opts:  o,
		runID: uuid.NewString(),
		state: core.StateUninitialized,
	}
	d.log = d.baseLogger()
	return d
}

func (d *Android) baseLogger() *zap.Logger {
	l := d.opts.log
	if l == nil {
		l = logger.L()
	}
	return l.Named("android").With(zap.String("run", d.runID))
}

// Initialize validates and stores the configuration. File logging is
// enabled here when the configuration asks for it.
func (d *Android) Initialize(cfg *config.Config) error {
	if d.state != core.StateUninitialized && d.state != core.StateConfigured {
		return core.InvalidStateError("initialize", d.state)
	}
	if cfg == nil {
		return core.ConfigurationError("configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.SaveLogOption && d.opts.log == nil {
		if err := logger.EnableFile(cfg.LogFile(logger.LogFileName), cfg.LogLevel); err != nil {
			return core.ConfigurationError("please check the 'log_level' value of configuration", err)
		}
	}

	d.cfg = cfg
	d.log = d.baseLogger().With(zap.String("device", cfg.DeviceName()))
	d.capturer = diagnostics.NewCapturer(cfg.SavePage, d.log).WithClock(d.opts.now)
	d.state = core.StateConfigured

	d.log.Debug("configured", zap.String("endpoint", cfg.Endpoint()))
	return nil
}

// Connect starts the local service and opens the remote session.
// On failure nothing is retained: the service is stopped and the state
// stays Configured.
func (d *Android) Connect(ctx context.Context) error {
	if d.state != core.StateConfigured {
		return core.InvalidStateError("connect", d.state)
	}

	driver := d.opts.dialer(d.cfg.Endpoint())
	svc := d.opts.newService(d.cfg, driver)

	if err := svc.Start(ctx); err != nil {
		_ = svc.Stop()
		return d.connectFailed(err)
	}
	if err := driver.Connect(d.cfg.CapabilitiesCopy()); err != nil {
		if stopErr := svc.Stop(); stopErr != nil {
			d.log.Warn("could not stop service", zap.Error(stopErr))
		}
		return d.connectFailed(err)
	}

	d.driver = driver
	d.svc = svc
	d.state = core.StateConnected
	d.log.Info(fmt.Sprintf("Connect the %s is success.", d.cfg.DeviceName()), zap.String("session", driver.SessionID()))
	return nil
}

func (d *Android) connectFailed(cause error) error {
	e := core.ConnectionError(d.cfg.DeviceName(), cause)
	d.log.Error(e.Message, zap.Error(cause))
	return e
}

// Finalize closes the session and stops the service. It may be called in
// any state and more than once.
func (d *Android) Finalize() error {
	if d.state.IsTerminal() {
		return nil
	}
	var err error
	if d.driver != nil {
		err = multierr.Append(err, d.driver.Disconnect())
		d.driver = nil
	}
	if d.svc != nil {
		err = multierr.Append(err, d.svc.Stop())
		d.svc = nil
	}
	if d.state == core.StateConnected {
		d.state = core.StateClosed
		d.log.Info("finalized")
	}
	if err != nil {
		d.log.Warn("finalize reported errors", zap.Error(err))
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// State returns the session state.
func (d *Android) State() core.State {
	return d.state
}

// Configuration returns the active configuration, nil before Initialize.
func (d *Android) Configuration() *config.Config {
	return d.cfg
}

// Driver returns the connected WebDriver, nil outside Connected.
func (d *Android) Driver() core.WebDriver {
	return d.driver
}

// Service returns the running local service, nil outside Connected.
func (d *Android) Service() service.Service {
	return d.svc
}

// RunID identifies this device instance in log records.
func (d *Android) RunID() string {
	return d.runID
}

// Info describes the device and its session.
func (d *Android) Info() core.PlatformInfo {
	info := core.PlatformInfo{Platform: "android"}
	if d.cfg != nil {
		if p := d.cfg.PlatformName(); p != "" {
			info.Platform = strings.ToLower(p)
		}
		info.DeviceName = d.cfg.DeviceName()
		info.Endpoint = d.cfg.Endpoint()
	}
	if d.driver != nil {
		info.SessionID = d.driver.SessionID()
	}
	return info
}

func (d *Android) requireConnected(op string) error {
	if d.state != core.StateConnected {
		return core.InvalidStateError(op, d.state)
	}
	return nil
}

// Diagnostics

// SavePage writes the current UI hierarchy and a screenshot under the
// configured save_page directory.
func (d *Android) SavePage() (core.PageArtifact, error) {
	if err := d.requireConnected(OpSavePage); err != nil {
		return core.PageArtifact{}, err
	}
	return d.capturer.Save(d.driver)
}

// capture saves the page for a failed operation. Its own failures are
// logged and never replace the operation's error.
func (d *Android) capture(op string) {
	if _, err := d.capturer.Save(d.driver); err != nil {
		d.log.Warn("could not save page", zap.String("op", op), zap.Error(err))
	}
}

// Elements

// Touch clicks the first element matching xpath.
func (d *Android) Touch(xpath string, timeout time.Duration) error {
	return d.interact(OpTouch, xpath, timeout, func(id string) error {
		return d.driver.ClickElement(id)
	})
}

// DoubleTouch taps the first element matching xpath twice.
func (d *Android) DoubleTouch(xpath string, timeout time.Duration) error {
	return d.interact(OpDoubleTouch, xpath, timeout, func(id string) error {
		if err := d.driver.TapElement(id); err != nil {
			return err
		}
		return d.driver.TapElement(id)
	})
}

// LongPress presses and holds the first element matching xpath.
func (d *Android) LongPress(xpath string, timeout time.Duration) error {
	return d.interact(OpLongPress, xpath, timeout, func(id string) error {
		return d.driver.LongPressElement(id, appium.DefaultLongPressDuration)
	})
}

// EnterText focuses the first element matching xpath and types text into it.
func (d *Android) EnterText(xpath, text string, timeout time.Duration) error {
	return d.interact(OpEnterText, xpath, timeout, func(id string) error {
		if err := d.driver.ClickElement(id); err != nil {
			return err
		}
		return d.driver.SendElementKeys(id, text)
	})
}

// GoToScreen touches clickXPath, then polls the page source until
// targetXPath matches or timeout elapses. It reports whether the target
// screen was reached.
func (d *Android) GoToScreen(clickXPath, targetXPath string, timeout time.Duration) (bool, error) {
	if err := checkLocator(OpGoToScreen, "target_screen_xpath", targetXPath); err != nil {
		return false, err
	}
	if err := d.Touch(clickXPath, timeout); err != nil {
		return false, err
	}

	deadline := d.opts.now().Add(timeout)
	for {
		source, err := d.driver.Source()
		if err != nil {
			return false, d.fail(OpGoToScreen, targetXPath, timeout, err)
		}
		found, err := locator.Match(source, targetXPath)
		if err != nil {
			d.log.Debug("page source is not parsable", zap.Error(err))
		}
		if found {
			d.log.Debug(fmt.Sprintf("%s the '%s' is success.", OpGoToScreen, targetXPath))
			return true, nil
		}
		if !d.opts.now().Before(deadline) {
			d.log.Info(fmt.Sprintf("could not reach the '%s' within %s sec", targetXPath, core.FormatSeconds(timeout)))
			return false, nil
		}
		d.opts.sleep(screenPollInterval)
	}
}

func checkLocator(op, param, xpath string) error {
	if err := locator.Validate(xpath); err != nil {
		return core.ValueError(op, param, err.Error())
	}
	return nil
}

func checkTimeout(op string, timeout time.Duration) error {
	if timeout < 0 {
		return core.ValueError(op, "timeout", "must be >= 0")
	}
	return nil
}

func (d *Android) interact(op, xpath string, timeout time.Duration, act func(id string) error) error {
	if err := checkLocator(op, "xpath", xpath); err != nil {
		return err
	}
	if err := checkTimeout(op, timeout); err != nil {
		return err
	}
	if err := d.requireConnected(op); err != nil {
		return err
	}

	err := d.driver.SetImplicitWait(timeout)
	if err == nil {
		var id string
		if id, err = d.driver.FindElement(locator.Strategy, xpath); err == nil {
			err = act(id)
		}
	}
	if err != nil {
		return d.fail(op, xpath, timeout, err)
	}

	d.log.Debug(fmt.Sprintf("%s the '%s' is success.", op, xpath))
	return nil
}

// fail captures the page, logs, and classifies an element failure.
func (d *Android) fail(op, xpath string, timeout time.Duration, cause error) error {
	d.capture(op)

	var e *core.Error
	switch {
	case appium.IsTimeout(cause):
		e = core.InteractionTimeoutError(op, xpath, timeout, cause)
	case appium.IsNoSuchElement(cause):
		e = core.InteractionError(op, xpath, cause).WithDetails(map[string]interface{}{"reason": appium.CodeNoSuchElement})
	default:
		e = core.InteractionError(op, xpath, cause)
	}
	d.log.Error(e.Message, zap.String("op", op), zap.String("locator", xpath), zap.Error(cause))
	return e
}

// Gestures

// Scroll drags vertically from the screen middle, times times.
// x is the horizontal position, gesture.Center for the middle.
func (d *Android) Scroll(dir gesture.Direction, times, x int) error {
	dir, err := gesture.ValidateScroll(dir, x)
	if err != nil {
		return valueError(OpScroll, err)
	}
	return d.perform(OpScroll, times, func(vp gesture.Viewport) (gesture.Gesture, error) {
		return gesture.Scroll(vp, dir, x)
	})
}

// Swipe drags horizontally from the screen middle, times times.
// y is the vertical position, gesture.Center for the middle.
func (d *Android) Swipe(dir gesture.Direction, times, y int) error {
	dir, err := gesture.ValidateSwipe(dir, y)
	if err != nil {
		return valueError(OpSwipe, err)
	}
	return d.perform(OpSwipe, times, func(vp gesture.Viewport) (gesture.Gesture, error) {
		return gesture.Swipe(vp, dir, y)
	})
}

// PinchIn moves two fingers toward the centre.
func (d *Android) PinchIn(times int) error {
	return d.perform(OpPinchIn, times, func(vp gesture.Viewport) (gesture.Gesture, error) {
		return gesture.PinchIn(vp), nil
	})
}

// PinchOut moves two fingers away from the centre.
func (d *Android) PinchOut(times int) error {
	return d.perform(OpPinchOut, times, func(vp gesture.Viewport) (gesture.Gesture, error) {
		return gesture.PinchOut(vp), nil
	})
}

// Rotate sweeps one finger by degree around a finger held at the centre.
func (d *Android) Rotate(degree int, dir gesture.Direction, times int) error {
	dir, err := gesture.ValidateRotate(degree, dir)
	if err != nil {
		return valueError(OpRotate, err)
	}
	return d.perform(OpRotate, times, func(vp gesture.Viewport) (gesture.Gesture, error) {
		return gesture.Rotate(vp, degree, dir)
	})
}

func valueError(op string, err error) error {
	var argErr *gesture.InvalidArgError
	if errors.As(err, &argErr) {
		return core.ValueError(op, argErr.Param, argErr.Msg)
	}
	return core.ValueError(op, "argument", err.Error())
}

// perform reads the viewport once and submits the built gesture times times.
func (d *Android) perform(op string, times int, build func(gesture.Viewport) (gesture.Gesture, error)) error {
	if err := gesture.ValidateTimes(times); err != nil {
		return valueError(op, err)
	}
	if err := d.requireConnected(op); err != nil {
		return err
	}

	w, h, err := d.driver.WindowSize()
	if err != nil {
		return d.gestureFailed(op, err)
	}
	vp := gesture.Viewport{Width: w, Height: h}
	if !vp.Valid() {
		return d.gestureFailed(op, fmt.Errorf("invalid viewport %dx%d", w, h))
	}

	g, err := build(vp)
	if err != nil {
		return d.gestureFailed(op, err)
	}
	actions := g.W3C()
	for i := 0; i < times; i++ {
		if err := d.driver.PerformActions(actions); err != nil {
			d.releasePointers(op)
			return d.gestureFailed(op, err)
		}
	}

	d.log.Debug(fmt.Sprintf("%s is success.", op), zap.Int("times", times), zap.Int("width", w), zap.Int("height", h))
	return nil
}

// releasePointers lifts any finger a rejected action chain left down.
func (d *Android) releasePointers(op string) {
	if err := d.driver.ReleaseActions(); err != nil {
		d.log.Warn("could not release actions", zap.String("op", op), zap.Error(err))
	}
}

func (d *Android) gestureFailed(op string, cause error) error {
	d.capture(op)
	e := core.InteractionError(op, "", cause)
	d.log.Error(e.Message, zap.String("op", op), zap.Error(cause))
	return e
}

// Navigation

// GoHome presses the Android home key. Driver errors are returned as is.
func (d *Android) GoHome() error {
	if err := d.requireConnected(OpGoHome); err != nil {
		return err
	}
	return d.driver.PressKeyCode(appium.KeyCodeHome)
}

// Back navigates back. Driver errors are returned as is.
func (d *Android) Back() error {
	if err := d.requireConnected(OpBack); err != nil {
		return err
	}
	return d.driver.Back()
}

// SendKeyEvent presses an Android key code. Driver errors are returned as is.
func (d *Android) SendKeyEvent(keycode int) error {
	if keycode < 0 {
		return core.ValueError(OpKeyEvent, "keycode", "must be >= 0")
	}
	if err := d.requireConnected(OpKeyEvent); err != nil {
		return err
	}
	return d.driver.PressKeyCode(keycode)
}
