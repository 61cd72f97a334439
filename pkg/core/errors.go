package core

import (
	"fmt"
	"strconv"
	"time"
)

// Error is the structured error returned by every device operation.
type Error struct {
	Kind    ErrorKind
	Code    string                 // Machine-readable code: interaction, interaction_timeout, etc.
	Op      string                 // Operation that failed: touch, scroll, connect...
	Locator string                 // XPath involved, if any
	Message string                 // Human-readable message
	Details map[string]interface{} // Additional context
	Cause   error                  // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind and code.
// This lets callers write errors.Is(err, core.ErrInteractionTimeout).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// WithCause returns a copy of the error with the given cause
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// WithMessage returns a copy of the error with a custom message
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// WithDetails returns a copy of the error with additional details
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := *e
	c.Details = merged
	return &c
}

// Sentinels for errors.Is. Returned errors carry more context but match these.
var (
	ErrConfiguration = &Error{
		Kind:    KindConfiguration,
		Code:    "configuration",
		Message: "configuration does not meet to initialize",
	}
	ErrConnection = &Error{
		Kind:    KindConnection,
		Code:    "connection",
		Message: "could not connect to automation server",
	}
	ErrInteraction = &Error{
		Kind:    KindInteraction,
		Code:    "interaction",
		Message: "interaction failed",
	}
	ErrInteractionTimeout = &Error{
		Kind:    KindTimeout,
		Code:    "interaction_timeout",
		Message: "element not found within timeout",
	}
	ErrInvalidValue = &Error{
		Kind:    KindValue,
		Code:    "invalid_value",
		Message: "invalid argument value",
	}
	ErrInvalidState = &Error{
		Kind:    KindState,
		Code:    "invalid_state",
		Message: "operation not allowed in current session state",
	}
)

// ConfigurationError reports a malformed or missing configuration.
func ConfigurationError(msg string, cause error) *Error {
	return ErrConfiguration.WithMessage(msg).WithCause(cause)
}

// ConnectionError reports that the remote session for device could not be opened.
func ConnectionError(device string, cause error) *Error {
	e := ErrConnection.WithMessage(fmt.Sprintf("connect the %s is failed", device)).WithCause(cause)
	e.Op = "connect"
	return e
}

// InteractionError reports a failed element or gesture action.
// locator may be empty for gestures.
func InteractionError(op, locator string, cause error) *Error {
	msg := fmt.Sprintf("%s is failed", op)
	if locator != "" {
		msg = fmt.Sprintf("%s the '%s' is failed", op, locator)
	}
	e := ErrInteraction.WithMessage(msg).WithCause(cause)
	e.Op = op
	e.Locator = locator
	return e
}

// InteractionTimeoutError reports that locator did not resolve within timeout.
func InteractionTimeoutError(op, locator string, timeout time.Duration, cause error) *Error {
	msg := fmt.Sprintf("could not find the '%s' within %s sec", locator, FormatSeconds(timeout))
	e := ErrInteractionTimeout.WithMessage(msg).WithCause(cause).
		WithDetails(map[string]interface{}{"timeout": timeout.Seconds()})
	e.Op = op
	e.Locator = locator
	return e
}

// ValueError reports an invalid argument detected before any remote call.
func ValueError(op, param, msg string) *Error {
	e := ErrInvalidValue.WithMessage(fmt.Sprintf("please check the '%s' value: %s", param, msg)).
		WithDetails(map[string]interface{}{"param": param})
	e.Op = op
	return e
}

// InvalidStateError reports an operation attempted outside its allowed state.
func InvalidStateError(op string, state State) *Error {
	e := ErrInvalidState.WithMessage(fmt.Sprintf("%s is not allowed while session is %s", op, state))
	e.Op = op
	return e
}

// FormatSeconds renders d as decimal seconds without trailing zeros ("0.5", "1", "2.25").
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
