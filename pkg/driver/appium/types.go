package appium

import (
	"errors"
	"fmt"
	"net"
	"strings"

	json "github.com/json-iterator/go"
)

// w3cElementKey identifies an element reference in W3C payloads.
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// W3C error codes the client distinguishes.
const (
	CodeNoSuchElement = "no such element"
	CodeTimeout       = "timeout"
	CodeInvalidSessID = "invalid session id"
	CodeUnknown       = "unknown error"
)

// NewSessionRequest is the body of POST /session.
type NewSessionRequest struct {
	Capabilities Capabilities `json:"capabilities"`
}

// Capabilities holds W3C capability matching sets.
type Capabilities struct {
	AlwaysMatch map[string]interface{}   `json:"alwaysMatch"`
	FirstMatch  []map[string]interface{} `json:"firstMatch,omitempty"`
}

// Standard W3C capability names, sent without a vendor prefix.
var standardCapabilities = map[string]bool{
	"browserName":               true,
	"browserVersion":            true,
	"platformName":              true,
	"acceptInsecureCerts":       true,
	"pageLoadStrategy":          true,
	"proxy":                     true,
	"setWindowRect":             true,
	"timeouts":                  true,
	"strictFileInteractability": true,
	"unhandledPromptBehavior":   true,
	"webSocketUrl":              true,
}

// W3CCapabilities returns a copy of caps with the appium: vendor prefix
// added to every non-standard key that lacks one.
func W3CCapabilities(caps map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(caps))
	for k, v := range caps {
		if standardCapabilities[k] || strings.Contains(k, ":") {
			out[k] = v
			continue
		}
		prefixed := "appium:" + k
		if _, exists := caps[prefixed]; exists {
			continue
		}
		out[prefixed] = v
	}
	return out
}

// WebDriverError is an error returned by the remote end.
type WebDriverError struct {
	Status  int
	Code    string
	Message string
}

func (e *WebDriverError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoSuchElement reports whether err is a remote "no such element" error.
func IsNoSuchElement(err error) bool {
	var wdErr *WebDriverError
	return errors.As(err, &wdErr) && wdErr.Code == CodeNoSuchElement
}

// IsTimeout reports whether err is a remote timeout or a transport timeout.
func IsTimeout(err error) bool {
	var wdErr *WebDriverError
	if errors.As(err, &wdErr) {
		return wdErr.Code == CodeTimeout
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// decodeError extracts the W3C error object from a response value.
// A non-2xx status without one is reported as an unknown error.
func decodeError(status int, value json.RawMessage) *WebDriverError {
	var ev errorValue
	_ = json.Unmarshal(value, &ev)
	if ev.Error == "" && status < 400 {
		return nil
	}
	if ev.Error == "" {
		ev.Error = CodeUnknown
	}
	return &WebDriverError{Status: status, Code: ev.Error, Message: ev.Message}
}

// Wire payloads

// envelope wraps every W3C response.
type envelope struct {
	Value json.RawMessage `json:"value"`
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type sessionValue struct {
	SessionID string `json:"sessionId"`
}

type statusValue struct {
	Ready   *bool  `json:"ready"`
	Message string `json:"message"`
}

type rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// elementRef accepts both the W3C key and the legacy JSONWP ELEMENT key.
type elementRef struct {
	W3C    string `json:"element-6066-11e4-a52e-4f735466cecf"`
	Legacy string `json:"ELEMENT"`
}

func (r elementRef) id() string {
	if r.W3C != "" {
		return r.W3C
	}
	return r.Legacy
}

type locateRequest struct {
	Using string `json:"using"`
	Value string `json:"value"`
}

type keysRequest struct {
	Text  string   `json:"text"`
	Value []string `json:"value"`
}

type actionsRequest struct {
	Actions []map[string]interface{} `json:"actions"`
}

type timeoutsRequest struct {
	Implicit int64 `json:"implicit"`
}

type keyCodeRequest struct {
	KeyCode int `json:"keycode"`
}
