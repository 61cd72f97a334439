package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-extension/pkg/config"
	"github.com/devicelab-dev/appium-extension/pkg/device"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// newDevice creates the device a command runs against. Tests replace it.
var newDevice = func() device.Device {
	return device.NewAndroid()
}

// session is the connected device handed to a command action.
type session struct {
	ctx *cli.Context
	dev device.Device
	cfg *config.Config
}

// withDevice loads the configuration, connects, runs fn and always
// finalizes. A finalize error is reported only when fn succeeded.
func withDevice(c *cli.Context, fn func(s *session) error) (err error) {
	cfg, err := config.FromFile(configPath(c))
	if err != nil {
		return err
	}

	dev := newDevice()
	if err := dev.Initialize(cfg); err != nil {
		return err
	}
	defer func() {
		if ferr := dev.Finalize(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	printStep(c, fmt.Sprintf("Connecting to %s...", cfg.DeviceName()))
	if err := dev.Connect(c.Context); err != nil {
		return err
	}

	return fn(&session{ctx: c, dev: dev, cfg: cfg})
}

// timeout returns --timeout in seconds, or the configured default.
func (s *session) timeout() time.Duration {
	if s.ctx.IsSet("timeout") {
		return time.Duration(s.ctx.Float64("timeout") * float64(time.Second))
	}
	return s.cfg.ElementTimeout()
}

func (s *session) done(msg string) error {
	printSuccess(s.ctx, msg)
	return nil
}

// printStep prints a setup step with spinner-style prefix
func printStep(c *cli.Context, msg string) {
	fmt.Fprintf(c.App.Writer, "  %s⏳%s %s\n", color(colorCyan), color(colorReset), msg)
}

// printSuccess prints a success message
func printSuccess(c *cli.Context, msg string) {
	fmt.Fprintf(c.App.Writer, "  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

// printFailure prints a failure message
func printFailure(c *cli.Context, msg string) {
	fmt.Fprintf(c.App.Writer, "  %s✗%s %s\n", color(colorRed), color(colorReset), msg)
}

// arg returns positional argument i or a usage error naming it.
func arg(c *cli.Context, i int, name string) (string, error) {
	if c.NArg() <= i {
		return "", fmt.Errorf("missing argument <%s>\nUsage: %s %s", name, c.Command.HelpName, c.Command.ArgsUsage)
	}
	return c.Args().Get(i), nil
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	s, err := arg(c, i, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("argument <%s> must be an integer, got %q", name, s)
	}
	return n, nil
}
