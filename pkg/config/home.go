package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "APPIUM_EXT_HOME"

// DefaultFileName is looked up in the home directory when no config path is given.
const DefaultFileName = "appium-extension.json"

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns $APPIUM_EXT_HOME, or the working directory when unset.
// The result is resolved once per process.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = os.Getenv(envHome)
		if homeDir != "" {
			return
		}
		if cwd, err := os.Getwd(); err == nil {
			homeDir = cwd
			return
		}
		homeDir = "."
	})
	return homeDir
}

// DefaultPath returns <home>/appium-extension.json.
func DefaultPath() string {
	return filepath.Join(GetHome(), DefaultFileName)
}

// ResetHome clears the cached home directory. Tests only.
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
