package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Kind:    KindInteraction,
		Code:    "test_error",
		Message: "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{
		Kind:    KindInteraction,
		Message: "test message",
		Cause:   cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestError_WithCauseDoesNotMutate(t *testing.T) {
	cause := errors.New("custom cause")
	newErr := ErrInteraction.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if ErrInteraction.Cause != nil {
		t.Error("WithCause() modified sentinel")
	}
}

func TestError_WithDetails(t *testing.T) {
	original := &Error{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{"locator": "//a"})

	if newErr.Details["locator"] != "//a" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["locator"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestError_IsMatchesSentinelKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel *Error
		want     bool
	}{
		{"interaction", InteractionError("Touch", "//a", nil), ErrInteraction, true},
		{"timeout", InteractionTimeoutError("Touch", "//a", time.Second, nil), ErrInteractionTimeout, true},
		{"timeout is not interaction", InteractionTimeoutError("Touch", "//a", time.Second, nil), ErrInteraction, false},
		{"value", ValueError("scroll", "direction", "bad"), ErrInvalidValue, true},
		{"state", InvalidStateError("touch", StateConfigured), ErrInvalidState, true},
		{"config", ConfigurationError("bad", nil), ErrConfiguration, true},
		{"connection", ConnectionError("emulator-5554", nil), ErrConnection, true},
		{"same kind, different code", InteractionError("Touch", "//a", nil), &Error{Kind: KindInteraction, Code: "other"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.sentinel); got != tt.want {
				t.Errorf("errors.Is(%v, %s) = %v, want %v", tt.err, tt.sentinel.Code, got, tt.want)
			}
		})
	}
}

func TestError_ErrorsIsFindsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := InteractionError("Touch", "//a", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestInteractionError_NamesLocatorAndOp(t *testing.T) {
	err := InteractionError("Long-press", "//android.widget.Button", nil)

	if !strings.Contains(err.Error(), "//android.widget.Button") {
		t.Errorf("message %q should contain locator", err.Error())
	}
	if !strings.Contains(err.Error(), "Long-press") {
		t.Errorf("message %q should contain op", err.Error())
	}
	if err.Locator != "//android.widget.Button" || err.Op != "Long-press" {
		t.Errorf("Op/Locator = %q/%q", err.Op, err.Locator)
	}
}

func TestInteractionTimeoutError_NamesTimeout(t *testing.T) {
	err := InteractionTimeoutError("Touch", "//missing", 500*time.Millisecond, nil)

	if !strings.Contains(err.Error(), "0.5") {
		t.Errorf("message %q should contain timeout 0.5", err.Error())
	}
	if err.Details["timeout"] != 0.5 {
		t.Errorf("Details[timeout] = %v, want 0.5", err.Details["timeout"])
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[time.Duration]string{
		500 * time.Millisecond:  "0.5",
		time.Second:             "1",
		2250 * time.Millisecond: "2.25",
		0:                       "0",
	}
	for d, want := range tests {
		if got := FormatSeconds(d); got != want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", d, got, want)
		}
	}
}
