// Package device provides the session lifecycle, element interaction and
// gesture API for one Appium-driven device.
package device

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/appium-extension/pkg/config"
	"github.com/devicelab-dev/appium-extension/pkg/core"
	"github.com/devicelab-dev/appium-extension/pkg/driver/appium"
	"github.com/devicelab-dev/appium-extension/pkg/gesture"
	"github.com/devicelab-dev/appium-extension/pkg/service"
)

// DefaultTimeout is the element wait used when callers have no preference.
const DefaultTimeout = time.Second

// Device is the capability set of one automated device.
// A Device is not safe for concurrent use.
type Device interface {
	// Lifecycle
	Initialize(cfg *config.Config) error
	Connect(ctx context.Context) error
	Finalize() error
	State() core.State

	// Diagnostics
	SavePage() (core.PageArtifact, error)

	// Elements
	Touch(xpath string, timeout time.Duration) error
	DoubleTouch(xpath string, timeout time.Duration) error
	LongPress(xpath string, timeout time.Duration) error
	EnterText(xpath, text string, timeout time.Duration) error
	GoToScreen(clickXPath, targetXPath string, timeout time.Duration) (bool, error)

	// Gestures
	Scroll(d gesture.Direction, times, x int) error
	Swipe(d gesture.Direction, times, y int) error
	PinchIn(times int) error
	PinchOut(times int) error
	Rotate(degree int, d gesture.Direction, times int) error

	// Navigation
	GoHome() error
	Back() error
	SendKeyEvent(keycode int) error
}

// Dialer creates the WebDriver for an endpoint.
type Dialer func(endpoint string) core.WebDriver

// ServiceFactory creates the local automation service for a session.
// driver is the WebDriver about to be connected, usable as a readiness probe.
type ServiceFactory func(cfg *config.Config, driver core.WebDriver) service.Service

// Option configures a device.
type Option func(*options)

type options struct {
	dialer     Dialer
	newService ServiceFactory
	log        *zap.Logger
	now        func() time.Time
	sleep      func(time.Duration)
}

// WithDialer overrides how the WebDriver is created.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithService overrides how the local automation service is created.
func WithService(f ServiceFactory) Option {
	return func(o *options) { o.newService = f }
}

// WithLogger sets the logger. Without it the global logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides the time source and sleeper used while polling.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(o *options) {
		o.now = now
		o.sleep = sleep
	}
}

func defaultOptions() options {
	return options{
		dialer: func(endpoint string) core.WebDriver {
			return appium.NewClient(endpoint)
		},
		newService: DefaultService,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

type statusChecker interface {
	Status() error
}

// DefaultService returns an external no-op service when the configuration
// says the server is managed elsewhere, and a spawned appium otherwise.
// Drivers with a Status method are used as the readiness probe.
func DefaultService(cfg *config.Config, driver core.WebDriver) service.Service {
	var status service.StatusFunc
	if sc, ok := driver.(statusChecker); ok {
		status = sc.Status
	}
	if cfg.Service.External {
		return &service.External{Status: status}
	}
	return service.NewAppium(service.Options{
		Binary:         cfg.ServiceBinary(),
		Args:           cfg.Service.Args,
		Endpoint:       cfg.Endpoint(),
		StartupTimeout: cfg.StartupTimeout(),
		Status:         status,
	})
}
