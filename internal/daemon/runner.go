// Package daemon runs the warpvpn daemon: it assembles the engine from the
// configuration and manages its lifecycle, including the exit once no
// schedule is left.
package daemon

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running daemon.
	ErrAlreadyRunning = errors.New("daemon is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped daemon.
	ErrNotRunning = errors.New("daemon is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// Config holds the configuration for the daemon runner.
type Config struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// A zero value means no timeout.
	ShutdownTimeout time.Duration

	// ExitWhenIdle stops the daemon once it has been idle for IdleGrace.
	ExitWhenIdle bool
	IdleGrace    time.Duration
}

// Dependencies holds the external dependencies for the daemon runner.
type Dependencies struct {
	// Serve blocks serving requests until ctx is done. If nil, Start only
	// waits for ctx.
	Serve func(ctx context.Context) error

	// ShutdownFunc is called during shutdown to clean up resources.
	ShutdownFunc func() error

	// IsIdle is consulted when the idle grace period ends. If nil, the
	// daemon is considered idle.
	IsIdle func() bool
}

// Runner manages the daemon lifecycle.
type Runner struct {
	config    *Config
	deps      *Dependencies
	running   bool
	mu        sync.Mutex
	cancel    context.CancelFunc
	idleTimer *time.Timer
}

// New creates a new daemon runner. Nil arguments get defaults.
func New(config *Config, deps *Dependencies) *Runner {
	if config == nil {
		config = &Config{}
	}
	if deps == nil {
		deps = &Dependencies{}
	}
	return &Runner{
		config: config,
		deps:   deps,
	}
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Start runs the daemon and blocks until the context is canceled, the
// daemon is shut down or Serve fails.
// Returns ErrAlreadyRunning if the daemon is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.mu.Unlock()

	var err error
	if r.deps.Serve != nil {
		err = r.deps.Serve(ctx)
	} else {
		<-ctx.Done()
	}

	r.cleanupOnStop()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// cleanupOnStop performs cleanup when the daemon stops.
func (r *Runner) cleanupOnStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	r.stopIdleTimer()
	if r.cancel != nil {
		r.cancel()
	}
}

// OnIdle reports that the engine has nothing left to do. With ExitWhenIdle
// the daemon stops after IdleGrace unless it became busy again.
func (r *Runner) OnIdle() {
	if !r.config.ExitWhenIdle {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idleTimer != nil {
		return
	}
	r.idleTimer = time.AfterFunc(r.config.IdleGrace, r.idleExpired)
}

func (r *Runner) idleExpired() {
	r.mu.Lock()
	r.idleTimer = nil
	r.mu.Unlock()
	if r.deps.IsIdle != nil && !r.deps.IsIdle() {
		return
	}
	_ = r.Shutdown()
}

// stopIdleTimer stops a pending idle exit. Caller must hold the mutex.
func (r *Runner) stopIdleTimer() {
	if r.idleTimer != nil {
		r.idleTimer.Stop()
		r.idleTimer = nil
	}
}

// Shutdown gracefully stops the daemon.
// Returns ErrNotRunning if the daemon is not running.
// Returns ErrShutdownTimeout if the shutdown function exceeds the configured timeout.
func (r *Runner) Shutdown() error {
	if err := r.validateRunning(); err != nil {
		return err
	}
	if err := r.executeShutdownFunc(); err != nil {
		return err
	}
	r.performShutdown()
	return nil
}

func (r *Runner) validateRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrNotRunning
	}
	return nil
}

// executeShutdownFunc runs the shutdown function with timeout if configured.
func (r *Runner) executeShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}

	if r.config.ShutdownTimeout > 0 {
		return r.executeWithTimeout(r.deps.ShutdownFunc, r.config.ShutdownTimeout)
	}

	// The shutdown must proceed regardless of cleanup errors.
	_ = r.deps.ShutdownFunc()
	return nil
}

// executeWithTimeout runs a function with a timeout.
func (r *Runner) executeWithTimeout(fn func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		r.forceStop()
		return ErrShutdownTimeout
	}
}

// forceStop forces the daemon to stop without waiting for cleanup.
func (r *Runner) forceStop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runner) performShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	r.stopIdleTimer()
	if r.cancel != nil {
		r.cancel()
	}
}

// IsRunning returns true if the daemon is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
