package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// startRunner starts r in the background and waits until it is running.
func startRunner(t *testing.T, r *Runner, ctx context.Context) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start(ctx)
	}()
	deadline := time.Now().Add(time.Second)
	for !r.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("runner did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return errCh
}

func waitStopped(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
		return nil
	}
}

func TestNewRunner_NilConfig(t *testing.T) {
	r := New(nil, nil)
	if r == nil || r.Config() == nil {
		t.Fatal("New() must apply defaults")
	}
	if r.Config().ExitWhenIdle {
		t.Error("idle exit must be off by default")
	}
}

func TestRunner_StartCallsServe(t *testing.T) {
	var served atomic.Bool
	r := New(nil, &Dependencies{
		Serve: func(ctx context.Context) error {
			served.Store(true)
			<-ctx.Done()
			return nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := startRunner(t, r, ctx)

	cancel()
	if err := waitStopped(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
	if !served.Load() {
		t.Error("Serve was not called")
	}
	if r.IsRunning() {
		t.Error("runner still running after Start returned")
	}
}

func TestRunner_ServeError(t *testing.T) {
	boom := errors.New("listen failed")
	r := New(nil, &Dependencies{
		Serve: func(context.Context) error { return boom },
	})
	if err := r.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() = %v, want %v", err, boom)
	}
}

func TestRunner_Start_ReturnsErrorIfAlreadyRunning(t *testing.T) {
	r := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startRunner(t, r, ctx)

	if err := r.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRunner_Shutdown(t *testing.T) {
	var cleaned atomic.Bool
	r := New(nil, &Dependencies{
		ShutdownFunc: func() error {
			cleaned.Store(true)
			return nil
		},
	})
	errCh := startRunner(t, r, context.Background())

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	waitStopped(t, errCh)
	if !cleaned.Load() {
		t.Error("ShutdownFunc was not called")
	}
	if err := r.Shutdown(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Shutdown() = %v, want ErrNotRunning", err)
	}
}

func TestRunner_Shutdown_WithTimeout(t *testing.T) {
	r := New(&Config{ShutdownTimeout: 20 * time.Millisecond}, &Dependencies{
		ShutdownFunc: func() error {
			time.Sleep(500 * time.Millisecond)
			return nil
		},
	})
	errCh := startRunner(t, r, context.Background())

	if err := r.Shutdown(); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Shutdown() = %v, want ErrShutdownTimeout", err)
	}
	waitStopped(t, errCh)
}

func TestRunner_ExecuteWithTimeout_ReturnsError(t *testing.T) {
	r := New(nil, nil)
	boom := errors.New("cleanup failed")
	if err := r.executeWithTimeout(func() error { return boom }, time.Second); !errors.Is(err, boom) {
		t.Fatalf("executeWithTimeout() = %v, want %v", err, boom)
	}
}

func TestRunner_OnIdle_ExitsAfterGrace(t *testing.T) {
	r := New(&Config{ExitWhenIdle: true, IdleGrace: 20 * time.Millisecond}, nil)
	errCh := startRunner(t, r, context.Background())

	r.OnIdle()
	r.OnIdle()
	if err := waitStopped(t, errCh); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
}

func TestRunner_OnIdle_BusyAgain(t *testing.T) {
	var checks atomic.Int32
	r := New(&Config{ExitWhenIdle: true, IdleGrace: 10 * time.Millisecond}, &Dependencies{
		IsIdle: func() bool {
			checks.Add(1)
			return false
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startRunner(t, r, ctx)

	r.OnIdle()
	time.Sleep(100 * time.Millisecond)
	if checks.Load() != 1 {
		t.Fatalf("expected one idle check, got %d", checks.Load())
	}
	if !r.IsRunning() {
		t.Fatal("busy daemon must keep running")
	}
}

func TestRunner_OnIdle_Disabled(t *testing.T) {
	r := New(&Config{IdleGrace: time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startRunner(t, r, ctx)

	r.OnIdle()
	time.Sleep(30 * time.Millisecond)
	if !r.IsRunning() {
		t.Fatal("idle exit is disabled")
	}
}
