// Package script runs JavaScript gesture scripts against a device.
//
// A script sees a global `device` object:
//
//	device.touch("//*[@text='Login']")
//	device.scroll("up", 2)
//	if (!device.goToScreen("//*[@text='Menu']", "//*[@text='Settings']", 3)) {
//	    throw new Error("settings not reached")
//	}
//
// Timeouts are given in seconds. Device errors are thrown as JS exceptions.
package script

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devicelab-dev/appium-extension/pkg/core"
	"github.com/devicelab-dev/appium-extension/pkg/device"
	"github.com/devicelab-dev/appium-extension/pkg/gesture"
	"github.com/devicelab-dev/appium-extension/pkg/logger"
)

// Engine wraps a goja runtime bound to one device.
type Engine struct {
	runtime *goja.Runtime
	dev     device.Device
	log     *zap.Logger
	timeout time.Duration
	sleep   func(time.Duration)
	output  map[string]interface{}
	mu      sync.Mutex
}

// Option configures an engine.
type Option func(*Engine)

// WithLogger routes console output to l.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithDefaultTimeout sets the element wait used when a script omits one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithSleep overrides the sleeper behind sleep(ms).
func WithSleep(f func(time.Duration)) Option {
	return func(e *Engine) { e.sleep = f }
}

// New creates a new engine for dev.
func New(dev device.Device, opts ...Option) *Engine {
	e := &Engine{
		runtime: goja.New(),
		dev:     dev,
		timeout: device.DefaultTimeout,
		sleep:   time.Sleep,
		output:  make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.L()
	}
	e.log = e.log.Named("script")

	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()

	// Output object (values handed back to the caller)
	e.runtime.Set("output", e.output)

	e.runtime.Set("sleep", func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(0).ToInteger()
		if ms > 0 {
			e.sleep(time.Duration(ms) * time.Millisecond)
		}
		return goja.Undefined()
	})

	e.runtime.Set("device", e.deviceObject())
}

// setupConsole adds console.log, console.error, etc.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(level zapcore.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			msg := fmt.Sprintln(args...)
			msg = msg[:len(msg)-1]
			if ce := e.log.Check(level, msg); ce != nil {
				ce.Write()
			}
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(zapcore.InfoLevel))
	console.Set("debug", makeConsoleFunc(zapcore.DebugLevel))
	console.Set("warn", makeConsoleFunc(zapcore.WarnLevel))
	console.Set("error", makeConsoleFunc(zapcore.ErrorLevel))
	e.runtime.Set("console", console)
}

// deviceObject returns the device global object
func (e *Engine) deviceObject() *goja.Object {
	obj := e.runtime.NewObject()
	fn := func(name string, f func(call goja.FunctionCall) goja.Value) {
		obj.Set(name, f)
	}

	// Elements
	fn("touch", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.Touch(e.str(call, 0), e.seconds(call, 1)))
		return goja.Undefined()
	})
	fn("doubleTouch", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.DoubleTouch(e.str(call, 0), e.seconds(call, 1)))
		return goja.Undefined()
	})
	fn("longPress", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.LongPress(e.str(call, 0), e.seconds(call, 1)))
		return goja.Undefined()
	})
	fn("enterText", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.EnterText(e.str(call, 0), e.str(call, 1), e.seconds(call, 2)))
		return goja.Undefined()
	})
	fn("goToScreen", func(call goja.FunctionCall) goja.Value {
		ok, err := e.dev.GoToScreen(e.str(call, 0), e.str(call, 1), e.seconds(call, 2))
		e.check(err)
		return e.runtime.ToValue(ok)
	})

	// Gestures
	fn("scroll", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.Scroll(gesture.Direction(e.str(call, 0)), e.integer(call, 1, 1), e.integer(call, 2, gesture.Center)))
		return goja.Undefined()
	})
	fn("swipe", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.Swipe(gesture.Direction(e.str(call, 0)), e.integer(call, 1, 1), e.integer(call, 2, gesture.Center)))
		return goja.Undefined()
	})
	fn("pinchIn", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.PinchIn(e.integer(call, 0, 1)))
		return goja.Undefined()
	})
	fn("pinchOut", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.PinchOut(e.integer(call, 0, 1)))
		return goja.Undefined()
	})
	fn("rotate", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.Rotate(e.integer(call, 0, 0), gesture.Direction(e.str(call, 1)), e.integer(call, 2, 1)))
		return goja.Undefined()
	})

	// Navigation
	fn("home", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.GoHome())
		return goja.Undefined()
	})
	fn("back", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.Back())
		return goja.Undefined()
	})
	fn("keyEvent", func(call goja.FunctionCall) goja.Value {
		e.check(e.dev.SendKeyEvent(e.integer(call, 0, -1)))
		return goja.Undefined()
	})

	// Diagnostics
	fn("savePage", func(call goja.FunctionCall) goja.Value {
		art, err := e.dev.SavePage()
		e.check(err)
		return e.runtime.ToValue(map[string]interface{}{
			"stamp":      art.Stamp,
			"hierarchy":  art.Hierarchy.Path,
			"screenshot": art.Screenshot.Path,
		})
	})

	obj.DefineAccessorProperty("state", e.runtime.ToValue(func() string {
		return e.dev.State().String()
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	return obj
}

// check throws err into the script.
func (e *Engine) check(err error) {
	if err != nil {
		panic(e.runtime.NewGoError(err))
	}
}

func (e *Engine) str(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func (e *Engine) integer(call goja.FunctionCall, i, def int) int {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return int(v.ToInteger())
}

func (e *Engine) seconds(call goja.FunctionCall, i int) time.Duration {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return e.timeout
	}
	return time.Duration(v.ToFloat() * float64(time.Second))
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables
func (e *Engine) SetVariables(vars map[string]interface{}) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// GetOutput returns a copy of the output object (values set by scripts)
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	source := e.output
	if v := e.runtime.Get("output"); v != nil && !goja.IsUndefined(v) {
		if m, ok := v.Export().(map[string]interface{}); ok {
			source = m
		}
	}

	result := make(map[string]interface{}, len(source))
	for k, v := range source {
		result[k] = v
	}
	return result
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}

// RunScript runs a script. A device error escaping the script is returned
// as the *core.Error the device produced.
func (e *Engine) RunScript(name, script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	_, err := e.runtime.RunScript(name, script)
	if err != nil {
		if dErr := deviceError(err); dErr != nil {
			return dErr
		}
		return fmt.Errorf("JS runtime error: %w", err)
	}

	e.log.Debug("script finished", zap.String("script", name), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// RunFile reads and runs a script file.
func (e *Engine) RunFile(path string) error {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided script
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return e.RunScript(path, string(data))
}

func deviceError(err error) *core.Error {
	ex, ok := err.(*goja.Exception)
	if !ok {
		return nil
	}
	obj, ok := ex.Value().(*goja.Object)
	if !ok {
		return nil
	}
	v := obj.Get("value")
	if v == nil {
		return nil
	}
	if dErr, ok := v.Export().(*core.Error); ok {
		return dErr
	}
	return nil
}
