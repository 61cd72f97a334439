package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)
	var console bytes.Buffer

	if err := Init(Options{Level: "debug", File: path, Console: &console}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Info("connect the %s is success", "emulator-5554")
	Debug("touch the '%s' is success", "//a")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "connect the emulator-5554 is success") {
		t.Errorf("log file missing info record: %s", data)
	}
	if !strings.Contains(console.String(), "touch the '//a' is success") {
		t.Errorf("console missing debug record: %s", console.String())
	}
}

func TestInit_LevelFiltersDebug(t *testing.T) {
	var console bytes.Buffer
	if err := Init(Options{Level: "info", Console: &console}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	Debug("hidden")
	Warn("shown")

	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(console.String(), "shown") {
		t.Error("warn record should be written")
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Options{Level: "loud", Console: io.Discard}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSet_Restore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Set(zap.New(core))

	Error("boom %d", 1)
	restore()
	Error("after restore")

	if logs.Len() != 1 {
		t.Fatalf("observed %d records, want 1", logs.Len())
	}
	if logs.All()[0].Message != "boom 1" {
		t.Errorf("message = %q, want 'boom 1'", logs.All()[0].Message)
	}
}

func TestGetWriter_DiscardWithoutFile(t *testing.T) {
	if err := Init(Options{Console: io.Discard}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()

	if GetWriter() != io.Discard {
		t.Error("GetWriter() should be io.Discard when no file is configured")
	}
}

func TestEnableFile_KeepsConsoleSinkAndLevel(t *testing.T) {
	var console bytes.Buffer
	if err := Init(Options{Level: "info", Console: &console}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), LogFileName)
	if err := EnableFile(path, "debug"); err != nil {
		t.Fatalf("EnableFile failed: %v", err)
	}

	Info("connected")
	Debug("detail")
	Close()

	if !strings.Contains(console.String(), "connected") {
		t.Errorf("console lost after EnableFile: %q", console.String())
	}
	if strings.Contains(console.String(), "detail") {
		t.Error("console level changed by EnableFile")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "detail") {
		t.Errorf("file missing debug record: %s", data)
	}
}

func TestEnableFile_InvalidLevel(t *testing.T) {
	if err := EnableFile(filepath.Join(t.TempDir(), LogFileName), "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}
