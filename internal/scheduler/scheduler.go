package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

const maxSleepCap = 60 * time.Second

// Service arms, cancels and delivers persisted timers.
type Service struct {
	kv vpnsched.KV
	l  logger.Logger

	mu    sync.Mutex
	armed map[timerKey]time.Time
	loop  *loop
}

// loop is one Start..Stop run of the delivery goroutine.
type loop struct {
	addChan    chan timerEvent
	removeChan chan timerKey
	cancel     context.CancelFunc
	done       chan struct{}
}

// New creates a stopped Service and loads the timers persisted in kv.
// Unreadable timer state is logged and discarded.
func New(kv vpnsched.KV, l logger.Logger) *Service {
	s := &Service{
		kv:    kv,
		l:     l,
		armed: make(map[timerKey]time.Time),
	}
	b, ok, err := kv.Get(vpnsched.KeyTimers)
	switch {
	case err != nil:
		l.Error("timer service: %v", err)
	case ok && len(b) > 0:
		recs, err := vpnsched.DecodeTimers(b)
		if err != nil {
			l.Warning("timer service: discarding unreadable timers: %v", err)
			break
		}
		for _, r := range recs {
			s.armed[timerKey{r.ID, r.Kind}] = r.At
		}
	}
	return s
}

// Arm schedules delivery of (id, kind) at the given instant, replacing any
// timer already armed for the pair.
func (s *Service) Arm(id string, kind vpnsched.TimerKind, at time.Time) error {
	k := timerKey{id, kind}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed[k] = at
	err := s.persistLocked()
	// sent under mu so the loop sees arms and cancels in call order
	if lp := s.loop; lp != nil {
		select {
		case lp.addChan <- timerEvent{key: k, at: at}:
		case <-lp.done:
		}
	}
	return err
}

// Cancel disarms (id, kind). Canceling an absent timer is a no-op.
func (s *Service) Cancel(id string, kind vpnsched.TimerKind) error {
	k := timerKey{id, kind}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.armed[k]; !ok {
		return nil
	}
	delete(s.armed, k)
	err := s.persistLocked()
	if lp := s.loop; lp != nil {
		select {
		case lp.removeChan <- k:
		case <-lp.done:
		}
	}
	return err
}

// Armed returns the fire time of (id, kind) if it is armed.
func (s *Service) Armed(id string, kind vpnsched.TimerKind) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.armed[timerKey{id, kind}]
	return at, ok
}

// List returns every armed timer ordered by fire time.
func (s *Service) List() []vpnsched.TimerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() []vpnsched.TimerRecord {
	recs := make([]vpnsched.TimerRecord, 0, len(s.armed))
	for k, at := range s.armed {
		recs = append(recs, vpnsched.TimerRecord{ID: k.id, Kind: k.kind, At: at})
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].At.Equal(recs[j].At) {
			return recs[i].At.Before(recs[j].At)
		}
		if recs[i].ID != recs[j].ID {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].Kind < recs[j].Kind
	})
	return recs
}

func (s *Service) persistLocked() error {
	if err := s.kv.Put(vpnsched.KeyTimers, vpnsched.EncodeTimers(s.snapshotLocked())); err != nil {
		s.l.Error("timer service: persist: %v", err)
		return fmt.Errorf("%w: %v", ErrTimerUnavailable, err)
	}
	return nil
}

// Start begins delivering armed timers to h. Timers that came due while
// the service was stopped fire immediately. Calling Start on a running
// service is a no-op.
func (s *Service) Start(ctx context.Context, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loop != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	lp := &loop{
		addChan:    make(chan timerEvent, 64),
		removeChan: make(chan timerKey, 64),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	initial := make(timerHeap, 0, len(s.armed))
	for k, at := range s.armed {
		initial = append(initial, timerEvent{key: k, at: at})
	}
	s.loop = lp
	go s.run(ctx, lp, initial, h)
}

// Stop halts delivery and waits for the delivery goroutine to exit. Armed
// timers are kept and resume on the next Start. Handlers already running
// are not waited for, so Stop may be called from inside a Handler.
func (s *Service) Stop() {
	s.mu.Lock()
	lp := s.loop
	s.loop = nil
	s.mu.Unlock()
	if lp == nil {
		return
	}
	lp.cancel()
	<-lp.done
}

// Running reports whether the delivery goroutine is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop != nil
}

// run is the delivery goroutine. It owns the heap; Arm and Cancel reach it
// through the loop channels. It must never take s.mu.
func (s *Service) run(ctx context.Context, lp *loop, h timerHeap, handler Handler) {
	defer close(lp.done)
	heap.Init(&h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until(h[0].at)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	deliverCtx := context.WithoutCancel(ctx)
	timerCh := resetTimer()

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-lp.addChan:
			heapReplace(&h, e)
			timerCh = resetTimer()

		case k := <-lp.removeChan:
			heapRemove(&h, k)
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !h[0].at.After(now) {
				e := heapPop(&h)
				go s.deliver(deliverCtx, e, handler)
			}
			timerCh = resetTimer()
		}
	}
}

// deliver invokes the handler and then forgets the timer, unless it was
// re-armed for a different instant while the handler ran. A crash before
// the forget leaves the timer persisted, to be delivered again.
func (s *Service) deliver(ctx context.Context, e timerEvent, h Handler) {
	s.l.Info("timer fired: %s %s (due %s)", e.key.kind, e.key.id, e.at.UTC().Format(time.RFC3339))
	h(ctx, e.key.id, e.key.kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.armed[e.key]; ok && at.Equal(e.at) {
		delete(s.armed, e.key)
		_ = s.persistLocked()
	}
}
