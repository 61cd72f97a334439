// Package cli provides the command-line interface for appium-extension.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/appium-extension/pkg/config"
	"github.com/devicelab-dev/appium-extension/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Device configuration file (.json, .yaml)",
		EnvVars: []string{"APPIUM_EXT_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Load environment variables from this file",
		Value: ".env",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"APPIUM_EXT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the command-line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "appium-ext",
		Usage:   "Drive an Android device through Appium",
		Version: Version,
		Description: `appium-ext opens an Appium session from a configuration file, runs one
operation and closes the session again.

Examples:
  appium-ext -c device.json touch "//*[@text='Login']"
  appium-ext -c device.yaml scroll up --times 3
  appium-ext run flows/login.js --var user=test`,
		Flags:    GlobalFlags,
		Before:   before,
		After:    after,
		Commands: commands(),
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func before(c *cli.Context) error {
	// A missing default .env is not an error
	if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	if c.Bool("no-ansi") {
		colorsEnabled = false
	}

	level := "info"
	if c.Bool("verbose") {
		level = "debug"
	}
	return logger.Init(logger.Options{Level: level, Console: c.App.ErrWriter})
}

func after(c *cli.Context) error {
	logger.Close()
	return nil
}

// configPath resolves --config, then APPIUM_EXT_CONFIG as set by the env
// file, then the home directory default.
func configPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	if p := os.Getenv("APPIUM_EXT_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath()
}
