package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/devicelab-dev/appium-extension/pkg/config"
	"github.com/devicelab-dev/appium-extension/pkg/core"
	"github.com/devicelab-dev/appium-extension/pkg/device"
	"github.com/devicelab-dev/appium-extension/pkg/driver/mock"
	"github.com/devicelab-dev/appium-extension/pkg/service"
)

func connectedDevice(t *testing.T, drv *mock.Driver) *device.Android {
	t.Helper()

	cfg, err := config.FromMap(map[string]interface{}{
		"appium_server": "http://127.0.0.1:4723",
		"capabilities":  map[string]interface{}{"platformName": "Android", "deviceName": "emulator-5554"},
		"save_page":     t.TempDir(),
		"service":       map[string]interface{}{"external": true},
	})
	require.NoError(t, err)

	dev := device.NewAndroid(
		device.WithLogger(zap.NewNop()),
		device.WithDialer(func(string) core.WebDriver { return drv }),
		device.WithService(func(*config.Config, core.WebDriver) service.Service { return &service.External{} }),
	)
	require.NoError(t, dev.Initialize(cfg))
	require.NoError(t, dev.Connect(context.Background()))
	drv.Reset()
	return dev
}

func TestEngine_DeviceCalls(t *testing.T) {
	drv := mock.New(mock.Config{})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()))

	err := e.RunScript("flow.js", `
		device.touch("//*[@text='Login']");
		device.doubleTouch("//a", 0.5);
		device.longPress("//b");
		device.enterText("//input", "secret");
		device.scroll("up", 2);
		device.swipe("left", 1, 300);
		device.pinchIn();
		device.pinchOut(2);
		device.rotate(90, "clockwise");
		device.home();
		device.back();
		device.keyEvent(66);
	`)
	require.NoError(t, err)

	assert.Equal(t, 2, drv.Count("ClickElement"), "touch plus enterText focus")
	assert.Equal(t, 2, drv.Count("TapElement"))
	assert.Equal(t, 1, drv.Count("LongPressElement"))
	assert.Equal(t, []interface{}{"mock-element-4", "secret"}, drv.Last("SendElementKeys").Args)
	// scroll x2, swipe, pinchIn, pinchOut x2, rotate
	assert.Equal(t, 7, drv.Count("PerformActions"))
	assert.Equal(t, 66, drv.Last("PressKeyCode").Args[0])
	assert.Equal(t, 1, drv.Count("Back"))
}

func TestEngine_Timeouts(t *testing.T) {
	drv := mock.New(mock.Config{})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()), WithDefaultTimeout(3*time.Second))

	require.NoError(t, e.RunScript("t.js", `device.touch("//a"); device.touch("//b", 0.25)`))

	var waits []interface{}
	for _, c := range drv.Calls {
		if c.Method == "SetImplicitWait" {
			waits = append(waits, c.Args[0])
		}
	}
	assert.Equal(t, []interface{}{3 * time.Second, 250 * time.Millisecond}, waits)
}

func TestEngine_DeviceErrorEscapes(t *testing.T) {
	drv := mock.New(mock.Config{Errors: map[string]error{"FindElement": mock.NotFound("//missing")}})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()))

	err := e.RunScript("fail.js", `device.touch("//missing")`)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInteraction)
	assert.Contains(t, err.Error(), "//missing")
}

func TestEngine_DeviceErrorCatchable(t *testing.T) {
	drv := mock.New(mock.Config{})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()))

	err := e.RunScript("catch.js", `
		try {
			device.scroll("sideways");
		} catch (err) {
			output.caught = String(err);
		}
	`)
	require.NoError(t, err)
	assert.Contains(t, e.GetOutput()["caught"], "direction")
	assert.Equal(t, 0, drv.Count("PerformActions"))
}

func TestEngine_GoToScreenAndSavePage(t *testing.T) {
	drv := mock.New(mock.Config{Source: `<hierarchy><node text="Settings"/></hierarchy>`})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()))

	err := e.RunScript("nav.js", `
		output.reached = device.goToScreen("//menu", "//node[@text='Settings']", 0);
		var page = device.savePage();
		output.png = page.screenshot;
		output.state = device.state;
	`)
	require.NoError(t, err)

	out := e.GetOutput()
	assert.Equal(t, true, out["reached"])
	assert.Equal(t, ".png", filepath.Ext(out["png"].(string)))
	assert.FileExists(t, out["png"].(string))
	assert.Equal(t, "connected", out["state"])
}

func TestEngine_ConsoleToLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	e := New(connectedDevice(t, mock.New(mock.Config{})), WithLogger(zap.New(obs)))

	require.NoError(t, e.RunScript("log.js", `console.log("hello", 42); console.error("bad")`))

	entries := logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "script" }).All()
	require.Len(t, entries, 3)
	assert.Equal(t, "hello 42", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "script finished", entries[2].Message)
}

func TestEngine_SleepAndVariables(t *testing.T) {
	var slept time.Duration
	e := New(connectedDevice(t, mock.New(mock.Config{})),
		WithLogger(zap.NewNop()),
		WithSleep(func(d time.Duration) { slept += d }))

	e.SetVariables(map[string]interface{}{"button": "//ok", "pause": 150})
	require.NoError(t, e.RunScript("v.js", `sleep(pause); output.target = button + "!"`))

	assert.Equal(t, 150*time.Millisecond, slept)
	assert.Equal(t, "//ok!", e.GetOutput()["target"])
}

func TestEngine_Eval(t *testing.T) {
	e := New(connectedDevice(t, mock.New(mock.Config{})), WithLogger(zap.NewNop()))

	v, err := e.Eval("1 + 2")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = e.Eval("(")
	assert.Error(t, err)
}

func TestEngine_RunFile(t *testing.T) {
	drv := mock.New(mock.Config{})
	e := New(connectedDevice(t, drv), WithLogger(zap.NewNop()))

	path := filepath.Join(t.TempDir(), "s.js")
	require.NoError(t, os.WriteFile(path, []byte(`device.home()`), 0o644))

	require.NoError(t, e.RunFile(path))
	assert.Equal(t, 3, drv.Last("PressKeyCode").Args[0])

	assert.Error(t, e.RunFile(filepath.Join(t.TempDir(), "absent.js")))

	err := e.RunScript("syntax.js", "device.touch(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JS runtime error")
}
