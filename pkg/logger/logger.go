// Package logger holds the process-wide zap logger used by appium-extension.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the file created inside the configured log directory.
const LogFileName = "appium-extension.log"

var (
	globalLogger = zap.NewNop()
	consoleCore  zapcore.Core // nil until Init
	logFile      *lumberjack.Logger
	mu           sync.Mutex
)

// Options controls logger initialization.
type Options struct {
	Level   string    // zap level name; defaults to debug
	File    string    // JSON log file path; empty disables file output
	Console io.Writer // console sink; defaults to stderr, io.Discard disables it
}

// Init initializes the global logger.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleCore = zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(console)), level)

	closeFile()
	if opts.File == "" {
		globalLogger = build(consoleCore)
		return nil
	}
	globalLogger = build(consoleCore, openFile(opts.File, level))
	return nil
}

// EnableFile adds a JSON file core at path to the current logger. The
// console sink and level chosen by Init are kept.
func EnableFile(path, level string) error {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}

	closeFile()
	file := openFile(path, lvl)
	if consoleCore == nil {
		globalLogger = build(file)
		return nil
	}
	globalLogger = build(consoleCore, file)
	return nil
}

func parseLevel(name string) (zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	if name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return level, fmt.Errorf("invalid log level %q: %w", name, err)
		}
	}
	return level, nil
}

// openFile must be called with mu held.
func openFile(path string, level zapcore.LevelEnabler) zapcore.Core {
	logFile = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
	}
	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(logFile), level)
}

func closeFile() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func build(cores ...zapcore.Core) *zap.Logger {
	return zap.New(zapcore.NewTee(cores...)).Named("appium-extension")
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	_ = globalLogger.Sync()
	closeFile()
}

// L returns the global logger. It is a no-op logger until Init is called.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Set replaces the global logger and returns a func restoring the previous one.
func Set(l *zap.Logger) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := globalLogger
	globalLogger = l
	return func() {
		mu.Lock()
		globalLogger = prev
		mu.Unlock()
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	L().Sugar().Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	L().Sugar().Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	L().Sugar().Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	L().Sugar().Warnf(format, v...)
}

// GetWriter returns the log file writer, for child processes such as the local service.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
