// Package appium is a W3C WebDriver client for an Appium server.
package appium

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
)

// Android key codes used by navigation helpers.
const (
	KeyCodeHome = 3
	KeyCodeBack = 4
)

// DefaultLongPressDuration matches the Appium client's long_press default.
const DefaultLongPressDuration = 1000 * time.Millisecond

// tapHold is how long a single tap keeps the pointer down.
const tapHold = 50 * time.Millisecond

// Client speaks W3C WebDriver to one Appium endpoint and holds at most one session.
type Client struct {
	serverURL string
	sessionID string
	http      *http.Client
}

// NewClient creates a client for serverURL, e.g. http://127.0.0.1:4723.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http: &http.Client{
			// Screenshot and source can take minutes on slow emulators
			Timeout: 5 * time.Minute,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Session

// Connect opens a session. Non-standard capabilities get the appium: prefix.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	req := NewSessionRequest{
		Capabilities: Capabilities{AlwaysMatch: W3CCapabilities(capabilities)},
	}

	var sess sessionValue
	if err := c.post("/session", req, &sess); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if sess.SessionID == "" {
		return errors.New("failed to create session: no session id in response")
	}

	c.sessionID = sess.SessionID
	return nil
}

// Disconnect deletes the session. It is a no-op without a session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the active session id, "" when disconnected.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Status fails unless the server reports itself ready.
func (c *Client) Status() error {
	var st statusValue
	if err := c.get("/status", &st); err != nil {
		return err
	}
	if st.Ready != nil && !*st.Ready {
		return fmt.Errorf("server not ready: %s", st.Message)
	}
	return nil
}

// WindowSize returns the current viewport dimensions. Never cached.
func (c *Client) WindowSize() (int, int, error) {
	var r rect
	if err := c.get(c.sessionPath()+"/window/rect", &r); err != nil {
		return 0, 0, err
	}
	return int(r.Width), int(r.Height), nil
}

// SetImplicitWait bounds how long element lookups poll on the server.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	return c.post(c.sessionPath()+"/timeouts", timeoutsRequest{Implicit: timeout.Milliseconds()}, nil)
}

// Elements

// FindElement returns the id of the first element matching the locator.
func (c *Client) FindElement(strategy, value string) (string, error) {
	var ref elementRef
	if err := c.post(c.sessionPath()+"/element", locateRequest{Using: strategy, Value: value}, &ref); err != nil {
		return "", err
	}
	id := ref.id()
	if id == "" {
		return "", &WebDriverError{Code: CodeNoSuchElement, Message: "no element id in response"}
	}
	return id, nil
}

// ClickElement clicks an element.
func (c *Client) ClickElement(elementID string) error {
	return c.post(c.elementPath(elementID)+"/click", nil, nil)
}

// SendElementKeys types text into an element.
func (c *Client) SendElementKeys(elementID, text string) error {
	return c.post(c.elementPath(elementID)+"/value", keysRequest{Text: text, Value: strings.Split(text, "")}, nil)
}

// Actions

// PerformActions submits W3C input sources as one atomic action chain.
func (c *Client) PerformActions(sources []map[string]interface{}) error {
	return c.post(c.sessionPath()+"/actions", actionsRequest{Actions: sources}, nil)
}

// ReleaseActions releases any pressed pointers and keys.
func (c *Client) ReleaseActions() error {
	return c.delete(c.sessionPath() + "/actions")
}

// TapElement taps the centre of an element.
func (c *Client) TapElement(elementID string) error {
	return c.PerformActions(elementPress(elementID, tapHold))
}

// LongPressElement holds a touch on an element for hold before releasing.
func (c *Client) LongPressElement(elementID string, hold time.Duration) error {
	return c.PerformActions(elementPress(elementID, hold))
}

// elementPress is a one-finger press anchored on the element's centre.
func elementPress(elementID string, hold time.Duration) []map[string]interface{} {
	return []map[string]interface{}{{
		"type":       "pointer",
		"id":         "finger1",
		"parameters": map[string]interface{}{"pointerType": "touch"},
		"actions": []map[string]interface{}{
			{
				"type":     "pointerMove",
				"duration": 0,
				"x":        0,
				"y":        0,
				"origin":   map[string]interface{}{w3cElementKey: elementID},
			},
			{"type": "pointerDown", "button": 0},
			{"type": "pause", "duration": hold.Milliseconds()},
			{"type": "pointerUp", "button": 0},
		},
	}}
}

// Navigation

// Back navigates back.
func (c *Client) Back() error {
	return c.post(c.sessionPath()+"/back", nil, nil)
}

// PressKeyCode presses an Android key code.
func (c *Client) PressKeyCode(keycode int) error {
	return c.post(c.sessionPath()+"/appium/device/press_keycode", keyCodeRequest{KeyCode: keycode}, nil)
}

// Page

// Screenshot returns the current screen as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	var encoded string
	if err := c.get(c.sessionPath()+"/screenshot", &encoded); err != nil {
		return nil, err
	}
	if encoded == "" {
		return nil, errors.New("empty screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the UI hierarchy XML.
func (c *Client) Source() (string, error) {
	var src string
	if err := c.get(c.sessionPath()+"/source", &src); err != nil {
		return "", err
	}
	return src, nil
}

// Transport

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

// post sends body, or {} when nil since W3C commands require a JSON object.
func (c *Client) post(path string, body, out interface{}) error {
	if body == nil {
		body = struct{}{}
	}
	return c.do(http.MethodPost, path, body, out)
}

func (c *Client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

// do performs one command and decodes the response's value into out.
// Remote failures come back as *WebDriverError.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &WebDriverError{Status: resp.StatusCode, Code: CodeUnknown, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if wdErr := decodeError(resp.StatusCode, env.Value); wdErr != nil {
		return wdErr
	}

	if out == nil || len(env.Value) == 0 || string(env.Value) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
