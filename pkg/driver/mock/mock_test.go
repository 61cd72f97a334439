package mock

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/appium-extension/pkg/driver/appium"
)

func TestNew_Defaults(t *testing.T) {
	d := New(Config{})

	w, h, err := d.WindowSize()
	if err != nil {
		t.Fatal(err)
	}
	if w != 1000 || h != 2000 {
		t.Errorf("WindowSize = %dx%d, want 1000x2000", w, h)
	}
	if d.SessionID() != "" {
		t.Error("session should be empty before Connect")
	}
	if err := d.Connect(nil); err != nil {
		t.Fatal(err)
	}
	if d.SessionID() != "mock-session" {
		t.Errorf("SessionID = %q", d.SessionID())
	}
}

func TestDriver_RecordsCalls(t *testing.T) {
	d := New(Config{})

	id, _ := d.FindElement("xpath", "//a")
	_ = d.ClickElement(id)
	_ = d.PressKeyCode(3)

	if len(d.Calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(d.Calls))
	}
	if d.Count("FindElement") != 1 {
		t.Errorf("FindElement count = %d", d.Count("FindElement"))
	}
	if last := d.Last("PressKeyCode"); last == nil || last.Args[0] != 3 {
		t.Errorf("last PressKeyCode = %+v", last)
	}
	if d.Last("Back") != nil {
		t.Error("Back was never called")
	}

	d.Reset()
	if len(d.Calls) != 0 {
		t.Error("Reset should clear calls")
	}
}

func TestDriver_ConfiguredErrors(t *testing.T) {
	d := New(Config{Errors: map[string]error{
		"FindElement": NotFound("//x"),
		"Source":      Timeout(),
	}})

	if _, err := d.FindElement("xpath", "//x"); !appium.IsNoSuchElement(err) {
		t.Errorf("FindElement err = %v, want no such element", err)
	}
	if _, err := d.Source(); !appium.IsTimeout(err) {
		t.Errorf("Source err = %v, want timeout", err)
	}
	if d.Count("FindElement") != 1 {
		t.Error("failed calls are still recorded")
	}

	boom := errors.New("boom")
	d.Config.Errors["Connect"] = boom
	if err := d.Connect(nil); !errors.Is(err, boom) {
		t.Errorf("Connect err = %v", err)
	}
	if d.SessionID() != "" {
		t.Error("failed Connect must not set a session")
	}
}

func TestDriver_SourcesSequence(t *testing.T) {
	d := New(Config{Sources: []string{"<a/>", "<b/>"}})

	for _, want := range []string{"<a/>", "<b/>", "<b/>"} {
		got, err := d.Source()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Source = %q, want %q", got, want)
		}
	}
}
