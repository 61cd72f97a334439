package cli

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-extension/pkg/gesture"
	"github.com/devicelab-dev/appium-extension/pkg/script"
)

var (
	timeoutFlag = &cli.Float64Flag{
		Name:        "timeout",
		Aliases:     []string{"t"},
		Usage:       "Seconds to wait for the element",
		DefaultText: "implicit_wait_default",
	}
	timesFlag = &cli.IntFlag{
		Name:    "times",
		Aliases: []string{"n"},
		Usage:   "Number of repetitions",
		Value:   1,
	}
)

func commands() []*cli.Command {
	return []*cli.Command{
		elementCommand("touch", "Click the element matching an XPath", "touch"),
		elementCommand("double-touch", "Tap the element matching an XPath twice", "double-touch"),
		elementCommand("long-press", "Press and hold the element matching an XPath", "long-press"),
		enterTextCommand,
		goToScreenCommand,
		scrollCommand,
		swipeCommand,
		pinchCommand("pinch-in", "Move two fingers toward the screen centre"),
		pinchCommand("pinch-out", "Move two fingers away from the screen centre"),
		rotateCommand,
		homeCommand,
		backCommand,
		keyCommand,
		savePageCommand,
		runCommand,
	}
}

// Elements

func elementCommand(name, usage, verb string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<xpath>",
		Flags:     []cli.Flag{timeoutFlag},
		Action: func(c *cli.Context) error {
			xpath, err := arg(c, 0, "xpath")
			if err != nil {
				return err
			}
			return withDevice(c, func(s *session) error {
				var err error
				switch verb {
				case "touch":
					err = s.dev.Touch(xpath, s.timeout())
				case "double-touch":
					err = s.dev.DoubleTouch(xpath, s.timeout())
				case "long-press":
					err = s.dev.LongPress(xpath, s.timeout())
				}
				if err != nil {
					return err
				}
				return s.done(fmt.Sprintf("%s %s", name, xpath))
			})
		},
	}
}

var enterTextCommand = &cli.Command{
	Name:      "enter-text",
	Usage:     "Type text into the element matching an XPath",
	ArgsUsage: "<xpath> <text>",
	Flags:     []cli.Flag{timeoutFlag},
	Action: func(c *cli.Context) error {
		xpath, err := arg(c, 0, "xpath")
		if err != nil {
			return err
		}
		text, err := arg(c, 1, "text")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			if err := s.dev.EnterText(xpath, text, s.timeout()); err != nil {
				return err
			}
			return s.done(fmt.Sprintf("enter-text %s", xpath))
		})
	},
}

var goToScreenCommand = &cli.Command{
	Name:      "go-to-screen",
	Usage:     "Touch an element and wait until another one appears",
	ArgsUsage: "<click-xpath> <target-xpath>",
	Flags:     []cli.Flag{timeoutFlag},
	Action: func(c *cli.Context) error {
		click, err := arg(c, 0, "click-xpath")
		if err != nil {
			return err
		}
		target, err := arg(c, 1, "target-xpath")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			reached, err := s.dev.GoToScreen(click, target, s.timeout())
			if err != nil {
				return err
			}
			if !reached {
				printFailure(c, fmt.Sprintf("%s not reached", target))
				return fmt.Errorf("could not reach the '%s'", target)
			}
			return s.done(fmt.Sprintf("reached %s", target))
		})
	},
}

// Gestures

var scrollCommand = &cli.Command{
	Name:      "scroll",
	Usage:     "Drag vertically from the middle of the screen",
	ArgsUsage: "<up|down>",
	Flags: []cli.Flag{
		timesFlag,
		&cli.IntFlag{Name: "x", Usage: "Horizontal position in pixels", Value: gesture.Center, DefaultText: "centre"},
	},
	Action: func(c *cli.Context) error {
		dir, err := arg(c, 0, "direction")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			if err := s.dev.Scroll(gesture.Direction(dir), c.Int("times"), c.Int("x")); err != nil {
				return err
			}
			return s.done(fmt.Sprintf("scroll %s x%d", dir, c.Int("times")))
		})
	},
}

var swipeCommand = &cli.Command{
	Name:      "swipe",
	Usage:     "Drag horizontally from the middle of the screen",
	ArgsUsage: "<left|right>",
	Flags: []cli.Flag{
		timesFlag,
		&cli.IntFlag{Name: "y", Usage: "Vertical position in pixels", Value: gesture.Center, DefaultText: "centre"},
	},
	Action: func(c *cli.Context) error {
		dir, err := arg(c, 0, "direction")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			if err := s.dev.Swipe(gesture.Direction(dir), c.Int("times"), c.Int("y")); err != nil {
				return err
			}
			return s.done(fmt.Sprintf("swipe %s x%d", dir, c.Int("times")))
		})
	},
}

func pinchCommand(name, usage string) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{timesFlag},
		Action: func(c *cli.Context) error {
			return withDevice(c, func(s *session) error {
				var err error
				if name == "pinch-in" {
					err = s.dev.PinchIn(c.Int("times"))
				} else {
					err = s.dev.PinchOut(c.Int("times"))
				}
				if err != nil {
					return err
				}
				return s.done(fmt.Sprintf("%s x%d", name, c.Int("times")))
			})
		},
	}
}

var rotateCommand = &cli.Command{
	Name:      "rotate",
	Usage:     "Sweep one finger around another held at the centre",
	ArgsUsage: "<degree> <clockwise|counterclockwise>",
	Flags:     []cli.Flag{timesFlag},
	Action: func(c *cli.Context) error {
		degree, err := intArg(c, 0, "degree")
		if err != nil {
			return err
		}
		dir, err := arg(c, 1, "direction")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			if err := s.dev.Rotate(degree, gesture.Direction(dir), c.Int("times")); err != nil {
				return err
			}
			return s.done(fmt.Sprintf("rotate %d %s x%d", degree, dir, c.Int("times")))
		})
	},
}

// Navigation

var homeCommand = &cli.Command{
	Name:  "home",
	Usage: "Press the home key",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(s *session) error {
			if err := s.dev.GoHome(); err != nil {
				return err
			}
			return s.done("home")
		})
	},
}

var backCommand = &cli.Command{
	Name:  "back",
	Usage: "Navigate back",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(s *session) error {
			if err := s.dev.Back(); err != nil {
				return err
			}
			return s.done("back")
		})
	},
}

var keyCommand = &cli.Command{
	Name:      "key",
	Usage:     "Press an Android key code",
	ArgsUsage: "<keycode>",
	Action: func(c *cli.Context) error {
		code, err := intArg(c, 0, "keycode")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			if err := s.dev.SendKeyEvent(code); err != nil {
				return err
			}
			return s.done(fmt.Sprintf("key %d", code))
		})
	},
}

// Diagnostics

var savePageCommand = &cli.Command{
	Name:  "save-page",
	Usage: "Save the UI hierarchy and a screenshot",
	Action: func(c *cli.Context) error {
		return withDevice(c, func(s *session) error {
			art, err := s.dev.SavePage()
			if err != nil {
				return err
			}
			for _, a := range art.Attachments() {
				fmt.Fprintln(c.App.Writer, a.Path)
			}
			return nil
		})
	},
}

// Scripts

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run a JavaScript gesture script",
	ArgsUsage: "<script.js>",
	Description: `Runs a script with a global 'device' object bound to the session.
Values the script stores on 'output' are printed as JSON.

Examples:
  appium-ext run login.js
  appium-ext run login.js --var user=test --var pass=secret`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "var",
			Usage: "Script variable KEY=VALUE (repeatable)",
		},
	},
	Action: func(c *cli.Context) error {
		path, err := arg(c, 0, "script.js")
		if err != nil {
			return err
		}
		return withDevice(c, func(s *session) error {
			engine := script.New(s.dev, script.WithDefaultTimeout(s.cfg.ElementTimeout()))
			vars := make(map[string]interface{})
			for k, v := range parseVars(c.StringSlice("var")) {
				vars[k] = v
			}
			engine.SetVariables(vars)

			if err := engine.RunFile(path); err != nil {
				return err
			}

			if out := engine.GetOutput(); len(out) > 0 {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("encode output: %w", err)
				}
				fmt.Fprintln(c.App.Writer, string(data))
			}
			return s.done(path)
		})
	},
}

// parseVars splits KEY=VALUE pairs; entries without '=' are ignored.
func parseVars(vars []string) map[string]string {
	result := make(map[string]string)
	for _, v := range vars {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
