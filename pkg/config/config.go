// Package config handles configuration for appium-extension.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/appium-extension/pkg/core"
)

// Defaults applied when the corresponding key is absent.
const (
	DefaultElementTimeout = time.Second
	DefaultStartupTimeout = 60 * time.Second
	DefaultServiceBinary  = "appium"
)

// Config represents a device configuration document.
// It is populated once by FromFile or FromMap and must be treated as read-only.
type Config struct {
	// Remote endpoint: either a full URL or address + port
	Server        string `json:"appium_server,omitempty" yaml:"appium_server,omitempty"`
	ServerAddress string `json:"appium_server_address,omitempty" yaml:"appium_server_address,omitempty"`
	ServerPort    int    `json:"appium_server_port,omitempty" yaml:"appium_server_port,omitempty"`

	// Session capabilities sent as alwaysMatch
	Capabilities map[string]interface{} `json:"capabilities" yaml:"capabilities"`

	// Diagnostics output directory
	SavePage string `json:"save_page" yaml:"save_page"`

	// Logging
	SaveLogOption bool   `json:"save_log_option" yaml:"save_log_option"`
	SaveLogPath   string `json:"save_log_path,omitempty" yaml:"save_log_path,omitempty"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	// Default element wait in seconds, used by the CLI and scripts
	ImplicitWaitDefault float64 `json:"implicit_wait_default,omitempty" yaml:"implicit_wait_default,omitempty"`

	// Local automation service
	Service ServiceConfig `json:"service" yaml:"service"`

	raw map[string]interface{}
}

// ServiceConfig controls the locally spawned automation service.
type ServiceConfig struct {
	External       bool     `json:"external" yaml:"external"`                                   // Do not spawn, server is managed elsewhere
	Binary         string   `json:"binary,omitempty" yaml:"binary,omitempty"`                   // Executable, default "appium"
	Args           []string `json:"args,omitempty" yaml:"args,omitempty"`                       // Extra arguments
	StartupTimeout float64  `json:"startup_timeout,omitempty" yaml:"startup_timeout,omitempty"` // Seconds
}

// FromFile loads configuration from a .json, .yaml or .yml document.
func FromFile(path string) (*Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, core.ConfigurationError(fmt.Sprintf("configuration file %q must be a .json, .yaml or .yml document", path), nil)
	}

	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, core.ConfigurationError(fmt.Sprintf("could not read configuration %q", path), err)
	}

	var m map[string]interface{}
	if ext == ".json" {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, core.ConfigurationError(fmt.Sprintf("could not parse configuration %q", path), err)
	}
	if m == nil {
		return nil, core.ConfigurationError(fmt.Sprintf("configuration %q is empty", path), nil)
	}

	return FromMap(m)
}

// FromMap builds a configuration from an in-memory mapping.
// The mapping is copied; later changes to m do not affect the result.
func FromMap(m map[string]interface{}) (*Config, error) {
	if m == nil {
		return nil, core.ConfigurationError("configuration is not a mapping", nil)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, core.ConfigurationError("configuration is not serializable", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, core.ConfigurationError("configuration has invalid value types", err)
	}
	cfg.raw = copyMap(m)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	if _, err := c.EndpointURL(); err != nil {
		return err
	}
	if len(c.Capabilities) == 0 {
		return core.ConfigurationError("please check the 'capabilities' value of configuration", nil)
	}
	if c.DeviceName() == "" {
		return core.ConfigurationError("please check the 'capabilities.deviceName' value of configuration", nil)
	}
	if c.SavePage == "" {
		return core.ConfigurationError("please check the 'save_page' value of configuration", nil)
	}
	if c.SaveLogOption {
		info, err := os.Stat(c.SaveLogPath)
		if err != nil || !info.IsDir() {
			return core.ConfigurationError("please check the 'save_log_path' value of configuration", err)
		}
	}
	if c.ImplicitWaitDefault < 0 {
		return core.ConfigurationError("please check the 'implicit_wait_default' value of configuration", nil)
	}
	if c.Service.StartupTimeout < 0 {
		return core.ConfigurationError("please check the 'service.startup_timeout' value of configuration", nil)
	}
	return nil
}

// Endpoint returns the remote endpoint as a string.
func (c *Config) Endpoint() string {
	if c.Server != "" {
		return strings.TrimSuffix(c.Server, "/")
	}
	if c.ServerAddress == "" || c.ServerPort == 0 {
		return ""
	}
	addr := strings.TrimSuffix(c.ServerAddress, "/")
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return addr + ":" + strconv.Itoa(c.ServerPort)
}

// EndpointURL parses the endpoint, failing when it is missing or has no host.
func (c *Config) EndpointURL() (*url.URL, error) {
	ep := c.Endpoint()
	if ep == "" {
		return nil, core.ConfigurationError("please check the 'appium_server' or 'appium_server_address'/'appium_server_port' values of configuration", nil)
	}
	u, err := url.Parse(ep)
	if err != nil || u.Host == "" {
		return nil, core.ConfigurationError(fmt.Sprintf("could not resolve endpoint %q", ep), err)
	}
	return u, nil
}

// DeviceName returns capabilities.deviceName (W3C prefixed or not).
func (c *Config) DeviceName() string {
	return c.capability("deviceName")
}

// PlatformName returns capabilities.platformName.
func (c *Config) PlatformName() string {
	return c.capability("platformName")
}

func (c *Config) capability(name string) string {
	for _, key := range []string{name, "appium:" + name} {
		if v, ok := c.Capabilities[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ElementTimeout returns the default element wait.
func (c *Config) ElementTimeout() time.Duration {
	if c.ImplicitWaitDefault == 0 {
		return DefaultElementTimeout
	}
	return time.Duration(c.ImplicitWaitDefault * float64(time.Second))
}

// StartupTimeout returns how long to wait for the local service.
func (c *Config) StartupTimeout() time.Duration {
	if c.Service.StartupTimeout == 0 {
		return DefaultStartupTimeout
	}
	return time.Duration(c.Service.StartupTimeout * float64(time.Second))
}

// ServiceBinary returns the executable used to start the local service.
func (c *Config) ServiceBinary() string {
	if c.Service.Binary == "" {
		return DefaultServiceBinary
	}
	return c.Service.Binary
}

// LogFile returns the log file path, or "" when file logging is off.
func (c *Config) LogFile(name string) string {
	if !c.SaveLogOption {
		return ""
	}
	return filepath.Join(c.SaveLogPath, name)
}

// CapabilitiesCopy returns a copy safe to hand to the driver.
func (c *Config) CapabilitiesCopy() map[string]interface{} {
	return copyMap(c.Capabilities)
}

// Map returns a copy of the mapping the configuration was built from.
func (c *Config) Map() map[string]interface{} {
	return copyMap(c.raw)
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
