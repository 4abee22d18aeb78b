package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

func newTestKV(t *testing.T) vpnsched.KV {
	t.Helper()
	kv, err := vpnsched.NewFileKV(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	return kv
}

// recorder collects fired timers.
type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) handle(_ context.Context, id string, kind vpnsched.TimerKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, string(kind)+":"+id)
}

func (r *recorder) count(entry string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fired {
		if f == entry {
			n++
		}
	}
	return n
}

func TestService_ArmAndFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := newTestKV(t)
	s := New(kv, logger.NewNopLogger())
	rec := &recorder{}
	s.Start(ctx, rec.handle)
	defer s.Stop()

	if err := s.Arm("s1", vpnsched.TimerConnect, time.Now().Add(100*time.Millisecond)); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if rec.count("connect:s1") != 1 {
		t.Fatalf("expected connect:s1 to fire once, got %v", rec.fired)
	}
	if _, ok := s.Armed("s1", vpnsched.TimerConnect); ok {
		t.Fatal("expected fired timer to be forgotten")
	}
	if got := New(kv, logger.NewNopLogger()).List(); len(got) != 0 {
		t.Fatalf("expected no persisted timers after delivery, got %v", got)
	}
}

func TestService_CancelBeforeFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(newTestKV(t), logger.NewNopLogger())
	rec := &recorder{}
	s.Start(ctx, rec.handle)
	defer s.Stop()

	s.Arm("s2", vpnsched.TimerDisconnect, time.Now().Add(300*time.Millisecond))
	time.Sleep(50 * time.Millisecond)
	if err := s.Cancel("s2", vpnsched.TimerDisconnect); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	if rec.count("disconnect:s2") != 0 {
		t.Fatal("expected disconnect:s2 NOT to fire after cancel")
	}
}

func TestService_CancelAbsentIsNoop(t *testing.T) {
	s := New(newTestKV(t), logger.NewNopLogger())
	if err := s.Cancel("missing", vpnsched.TimerConnect); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := s.Cancel("missing", vpnsched.TimerConnect); err != nil {
		t.Fatalf("expected nil error on repeat, got %v", err)
	}
}

func TestService_RearmReplaces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(newTestKV(t), logger.NewNopLogger())
	rec := &recorder{}
	s.Start(ctx, rec.handle)
	defer s.Stop()

	s.Arm("s3", vpnsched.TimerConnect, time.Now().Add(10*time.Second))
	s.Arm("s3", vpnsched.TimerConnect, time.Now().Add(100*time.Millisecond))
	if n := len(s.List()); n != 1 {
		t.Fatalf("expected one armed timer, got %d", n)
	}
	time.Sleep(300 * time.Millisecond)

	if rec.count("connect:s3") != 1 {
		t.Fatalf("expected exactly one delivery, got %v", rec.fired)
	}
}

func TestService_SurvivesRestart(t *testing.T) {
	kv := newTestKV(t)
	first := New(kv, logger.NewNopLogger())
	first.Arm("overdue", vpnsched.TimerConnect, time.Now().Add(-time.Minute))
	first.Arm("future", vpnsched.TimerDisconnect, time.Now().Add(time.Hour))

	second := New(kv, logger.NewNopLogger())
	if n := len(second.List()); n != 2 {
		t.Fatalf("expected 2 reloaded timers, got %d", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{}
	second.Start(ctx, rec.handle)
	defer second.Stop()
	time.Sleep(200 * time.Millisecond)

	if rec.count("connect:overdue") != 1 {
		t.Fatalf("expected overdue timer to fire on start, got %v", rec.fired)
	}
	if rec.count("disconnect:future") != 0 {
		t.Fatal("future timer must not fire yet")
	}
	if _, ok := second.Armed("future", vpnsched.TimerDisconnect); !ok {
		t.Fatal("future timer should still be armed")
	}
}

func TestService_StopKeepsTimers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(newTestKV(t), logger.NewNopLogger())
	rec := &recorder{}
	s.Start(ctx, rec.handle)
	if !s.Running() {
		t.Fatal("expected service to be running")
	}
	s.Arm("s4", vpnsched.TimerConnect, time.Now().Add(200*time.Millisecond))
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Fatal("expected service to be stopped")
	}

	time.Sleep(300 * time.Millisecond)
	if rec.count("connect:s4") != 0 {
		t.Fatal("stopped service must not deliver")
	}

	s.Start(ctx, rec.handle)
	defer s.Stop()
	time.Sleep(200 * time.Millisecond)
	if rec.count("connect:s4") != 1 {
		t.Fatalf("expected delivery after restart, got %v", rec.fired)
	}
}

func TestService_StopFromHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(newTestKV(t), logger.NewNopLogger())
	done := make(chan struct{})
	s.Start(ctx, func(context.Context, string, vpnsched.TimerKind) {
		s.Stop()
		close(done)
	})
	s.Arm("idle", vpnsched.TimerDisconnect, time.Now())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop from a handler deadlocked")
	}
	if s.Running() {
		t.Fatal("expected service to be stopped")
	}
}

func TestService_ShutdownViaContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(newTestKV(t), logger.NewNopLogger())
	rec := &recorder{}
	s.Start(ctx, rec.handle)
	s.Arm("s5", vpnsched.TimerConnect, time.Now().Add(300*time.Millisecond))

	cancel()
	time.Sleep(500 * time.Millisecond)
	if rec.count("connect:s5") != 0 {
		t.Fatal("expected no delivery after context cancel")
	}
}

func TestService_DiscardsCorruptState(t *testing.T) {
	kv := newTestKV(t)
	kv.Put(vpnsched.KeyTimers, []byte("garbage"))
	l := logger.NewMockLogger()

	s := New(kv, l)
	if n := len(s.List()); n != 0 {
		t.Fatalf("expected no timers, got %d", n)
	}
	if !l.Contains("discarding unreadable timers") {
		t.Fatalf("expected warning, got %v", l.Warnings())
	}
}

type failingKV struct {
	vpnsched.KV
}

func (failingKV) Put(string, []byte) error { return errors.New("disk full") }

func TestService_PersistFailure(t *testing.T) {
	s := New(failingKV{newTestKV(t)}, logger.NewNopLogger())
	err := s.Arm("s6", vpnsched.TimerConnect, time.Now().Add(time.Hour))
	if !errors.Is(err, ErrTimerUnavailable) {
		t.Fatalf("expected ErrTimerUnavailable, got %v", err)
	}
	if _, ok := s.Armed("s6", vpnsched.TimerConnect); !ok {
		t.Fatal("in-memory timer should still be armed")
	}
}
