// Package service manages the local Appium server process.
package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/devicelab-dev/appium-extension/pkg/logger"
)

const pollInterval = 250 * time.Millisecond

// Service is a local automation service handle.
type Service interface {
	Start(ctx context.Context) error
	Stop() error
	Running() bool
}

// StatusFunc probes the server readiness endpoint.
type StatusFunc func() error

// Options configures an Appium service.
type Options struct {
	Binary         string
	Args           []string
	Endpoint       string
	StartupTimeout time.Duration
	Status         StatusFunc
	Output         io.Writer // Process stdout/stderr, defaults to logger.GetWriter()
	Logger         *zap.Logger
}

// Appium runs `appium` as a child process.
type Appium struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	proc *process
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error // set before done is closed
}

// NewAppium creates a service; nothing is started until Start.
func NewAppium(opts Options) *Appium {
	if opts.Output == nil {
		opts.Output = logger.GetWriter()
	}
	if opts.Logger == nil {
		opts.Logger = logger.L()
	}
	return &Appium{opts: opts, log: opts.Logger.Named("service")}
}

// Args returns the command line arguments passed to the binary.
// The address and port are taken from the endpoint so the client and the
// server agree.
func (a *Appium) Args() []string {
	var args []string
	if u, err := url.Parse(a.opts.Endpoint); err == nil && u.Host != "" {
		if host := u.Hostname(); host != "" {
			args = append(args, "--address", host)
		}
		if port := u.Port(); port != "" {
			args = append(args, "--port", port)
		}
		if u.Path != "" && u.Path != "/" {
			args = append(args, "--base-path", u.Path)
		}
	}
	return append(args, a.opts.Args...)
}

// Start launches the process and blocks until it answers the status probe.
func (a *Appium) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.proc != nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, a.opts.Binary, a.Args()...) //#nosec G204 -- binary comes from user configuration
	cmd.Stdout = a.opts.Output
	cmd.Stderr = a.opts.Output
	cmd.WaitDelay = 2 * time.Second // node children may hold the output pipe

	a.log.Info("starting appium", zap.String("binary", a.opts.Binary), zap.Strings("args", cmd.Args[1:]))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", a.opts.Binary, err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	a.proc = p

	if err := a.waitReady(ctx, p); err != nil {
		a.stopLocked()
		return err
	}

	a.log.Info("appium ready", zap.Int("pid", cmd.Process.Pid))
	return nil
}

func (a *Appium) waitReady(ctx context.Context, p *process) error {
	if a.opts.Status == nil {
		return nil
	}

	timeout := a.opts.StartupTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retries := uint64(timeout / pollInterval)
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(pollInterval), retries), ctx)

	probe := func() error {
		if p.exited() {
			return nil
		}
		return a.opts.Status()
	}
	err := backoff.Retry(probe, b)

	if p.exited() {
		return fmt.Errorf("%s exited before becoming ready: %v", a.opts.Binary, p.err)
	}
	if err != nil {
		return fmt.Errorf("%s did not become ready within %s: %w", a.opts.Binary, timeout, err)
	}
	return nil
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stop terminates the process. Safe to call more than once.
func (a *Appium) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

func (a *Appium) stopLocked() error {
	p := a.proc
	if p == nil {
		return nil
	}
	a.proc = nil

	if p.exited() {
		return nil
	}

	a.log.Info("stopping appium", zap.Int("pid", p.cmd.Process.Pid))
	if err := p.cmd.Process.Kill(); err != nil && !p.exited() {
		return fmt.Errorf("failed to stop %s: %w", a.opts.Binary, err)
	}
	<-p.done
	return nil
}

// Running reports whether the process has been started and not stopped.
func (a *Appium) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.proc != nil && !a.proc.exited()
}

// External is a no-op service for servers managed elsewhere.
// Start still waits for the status probe when one is set.
type External struct {
	Status  StatusFunc
	started bool
}

// Start verifies the external server answers.
func (e *External) Start(ctx context.Context) error {
	if e.Status != nil {
		if err := e.Status(); err != nil {
			return fmt.Errorf("appium server is not reachable: %w", err)
		}
	}
	e.started = true
	return nil
}

// Stop does nothing to the external process.
func (e *External) Stop() error {
	e.started = false
	return nil
}

// Running reports whether Start succeeded.
func (e *External) Running() bool {
	return e.started
}
