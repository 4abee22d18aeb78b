// Package orchestrator drives the connect and disconnect lifecycle of
// scheduled tunnels. It owns no durable state of its own: every entry point
// takes one lock, reloads the schedule store and derives its decision from
// what it finds there, so a timer delivered to a freshly started process
// behaves exactly like one delivered to the process that armed it.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jpillora/backoff"
	"github.com/warpdl/warpvpn/internal/events"
	"github.com/warpdl/warpvpn/internal/scheduler"
	"github.com/warpdl/warpvpn/internal/transport"
	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// Timers is the deferred wake-up service. *scheduler.Service implements it.
type Timers interface {
	Arm(id string, kind vpnsched.TimerKind, at time.Time) error
	Cancel(id string, kind vpnsched.TimerKind) error
	Armed(id string, kind vpnsched.TimerKind) (time.Time, bool)
	List() []vpnsched.TimerRecord
	Start(ctx context.Context, h scheduler.Handler)
	Stop()
	Running() bool
}

// Publisher receives tunnel status events. *events.Bus implements it.
type Publisher interface {
	Publish(e events.Event)
}

const (
	// DefaultReadinessAttempts is how often a timer-driven connect checks
	// the store before it proceeds.
	DefaultReadinessAttempts = 3
	// DefaultReadinessDelay is the pause between readiness attempts.
	DefaultReadinessDelay = time.Second
)

// Config tunes the orchestrator. Zero values select the defaults.
type Config struct {
	// ReadinessAttempts is how often the store is checked for schedules
	// before a timer-driven connect proceeds anyway.
	ReadinessAttempts int
	// ReadinessDelay is the fixed pause between readiness attempts.
	ReadinessDelay time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// OnIdle is called, under the orchestrator lock, whenever the idle
	// check finds the store empty. It must not block.
	OnIdle func()
}

// Orchestrator is the scheduling engine.
type Orchestrator struct {
	store  *vpnsched.Store
	timers Timers
	tr     transport.Transport
	bus    Publisher
	l      logger.Logger
	cfg    Config

	mu      sync.Mutex
	base    context.Context
	session Session
}

// New creates an Orchestrator. Timer delivery starts with Resume or the
// first submitted schedule.
func New(store *vpnsched.Store, timers Timers, tr transport.Transport, bus Publisher, l logger.Logger, cfg Config) *Orchestrator {
	if cfg.ReadinessAttempts <= 0 {
		cfg.ReadinessAttempts = DefaultReadinessAttempts
	}
	if cfg.ReadinessDelay <= 0 {
		cfg.ReadinessDelay = DefaultReadinessDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Orchestrator{
		store:  store,
		timers: timers,
		tr:     tr,
		bus:    bus,
		l:      l,
		cfg:    cfg,
		base:   context.Background(),
	}
}

func (o *Orchestrator) now() time.Time { return o.cfg.Clock().UTC() }

// Resume binds the timer lifecycle to ctx. It starts timer delivery when
// the store holds schedules and otherwise runs the idle check. A stored
// schedule with neither timer armed, for example after a failed arm or a
// discarded timer state, goes through the Submit decision again. Call it
// once at daemon start.
func (o *Orchestrator) Resume(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.base = ctx
	list := o.store.List()
	if len(list) == 0 {
		o.l.Info("orchestrator: no stored schedules")
		o.idleCheckLocked()
		return
	}
	o.l.Info("orchestrator: resuming with %d stored schedule(s)", len(list))
	o.ensureRunningLocked()
	for _, s := range list {
		if o.hasTimerLocked(s.ID) {
			continue
		}
		o.l.Warning("orchestrator: schedule %s has no armed timer, re-running its decision", s.ID)
		o.decideLocked(ctx, s)
	}
}

func (o *Orchestrator) hasTimerLocked(id string) bool {
	if _, ok := o.timers.Armed(id, vpnsched.TimerConnect); ok {
		return true
	}
	_, ok := o.timers.Armed(id, vpnsched.TimerDisconnect)
	return ok
}

// Submit persists s and either runs the connect path now or arms a connect
// timer. Other stored schedules are canceled: only one window is ever
// outstanding. It reports whether the connect path ran.
func (o *Orchestrator) Submit(ctx context.Context, s *vpnsched.Schedule) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitLocked(ctx, s)
}

func (o *Orchestrator) submitLocked(ctx context.Context, s *vpnsched.Schedule) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	if err := o.store.Upsert(s); err != nil {
		return false, err
	}
	o.l.Info("orchestrator: schedule %s %s", s.ID, StatePending)
	o.cancelOthersLocked(s.ID)
	o.ensureRunningLocked()
	return o.decideLocked(ctx, s), nil
}

// decideLocked runs the connect path when s is due and otherwise arms its
// connect timer. It reports whether the connect path ran.
func (o *Orchestrator) decideLocked(ctx context.Context, s *vpnsched.Schedule) bool {
	now := o.now()
	if s.ShouldStartImmediately(now) {
		o.l.Info("orchestrator: schedule %s is due, connecting now", s.ID)
		o.connectLocked(ctx, s.ID)
		return true
	}

	at := s.ConnectAt
	if s.Recurring {
		at = s.NextConnectTime(now)
	}
	if err := o.timers.Arm(s.ID, vpnsched.TimerConnect, at); err != nil {
		// the schedule stays stored; Resume retries it
		o.l.Error("orchestrator: arming connect for %s: %v", s.ID, err)
		return false
	}
	o.l.Info("orchestrator: schedule %s %s for %s", s.ID, StateArmed, at.Format(time.RFC3339))
	return false
}

// OnTimer is the timer delivery handler. Timers for schedules no longer in
// the store are ignored, which makes duplicate deliveries harmless.
func (o *Orchestrator) OnTimer(ctx context.Context, id string, kind vpnsched.TimerKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch kind {
	case vpnsched.TimerConnect:
		o.awaitReadyLocked(ctx)
		if _, err := o.store.Get(id); err != nil {
			o.l.Info("orchestrator: connect timer for %s ignored: %v", id, err)
			o.idleCheckLocked()
			return
		}
		o.connectLocked(ctx, id)
	case vpnsched.TimerDisconnect:
		if _, err := o.store.Get(id); err != nil {
			o.l.Info("orchestrator: disconnect timer for %s ignored: %v", id, err)
			o.idleCheckLocked()
			return
		}
		o.disconnectLocked(ctx, id)
	default:
		o.l.Warning("orchestrator: unknown timer kind %q for %s", kind, id)
	}
}

// awaitReadyLocked gives a slow store a few chances to show schedules
// before a timer-driven connect looks its schedule up.
func (o *Orchestrator) awaitReadyLocked(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    o.cfg.ReadinessDelay,
		Max:    o.cfg.ReadinessDelay,
		Factor: 1,
	}
	for attempt := 1; attempt <= o.cfg.ReadinessAttempts; attempt++ {
		if len(o.store.List()) > 0 {
			return
		}
		if attempt == o.cfg.ReadinessAttempts {
			break
		}
		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			o.l.Warning("orchestrator: readiness wait interrupted, proceeding")
			return
		}
	}
	o.l.Warning("orchestrator: schedule store still empty after %d attempts, proceeding", o.cfg.ReadinessAttempts)
}

// connectLocked is the connect path for a stored schedule. A repeated
// delivery for the live session leaves the tunnel alone and only revisits
// the disconnect timer.
func (o *Orchestrator) connectLocked(ctx context.Context, id string) {
	if o.session.Up && o.session.ScheduleID == id {
		o.l.Info("orchestrator: tunnel for %s already up", id)
		if s, err := o.store.Get(id); err == nil {
			o.armDisconnectPolicyLocked(s)
		}
		return
	}
	if err := o.store.SetSuppressDisconnect(false); err != nil {
		o.l.Error("orchestrator: clearing suppress flag: %v", err)
	}
	o.publish(events.Connect, id, true)

	s, err := o.store.Get(id)
	if err != nil {
		o.l.Error("orchestrator: connect %s: %v", id, err)
		return
	}
	if err := s.Validate(); err != nil {
		o.l.Error("orchestrator: connect %s: %v", id, err)
		return
	}
	o.cancelOthersLocked(id)

	err = o.tr.Start(ctx, transport.TunnelRequest{
		ScheduleID: s.ID,
		Config:     s.Config,
		Name:       s.Name,
		Username:   s.Username,
		Password:   s.Password,
		BypassList: s.BypassList,
	})
	if err != nil {
		o.l.Error("orchestrator: starting tunnel for %s: %v", id, err)
	} else {
		o.session = Session{ScheduleID: id, ConnectedAt: o.now(), Up: true}
		o.l.Info("orchestrator: schedule %s %s", id, StateConnected)
	}
	o.armDisconnectPolicyLocked(s)
}

// armDisconnectPolicyLocked arms, skips or clears the disconnect timer of a
// connected schedule.
func (o *Orchestrator) armDisconnectPolicyLocked(s *vpnsched.Schedule) {
	id := s.ID
	now := o.now()
	if s.IsImmediateConnection(now) {
		return
	}
	if s.DisconnectAt.IsZero() {
		return
	}
	switch {
	case s.IsPreviousDayStart(now):
		o.l.Info("orchestrator: window of %s already elapsed, no disconnect armed", id)
		if err := o.timers.Cancel(id, vpnsched.TimerDisconnect); err != nil {
			o.l.Error("orchestrator: clearing stale disconnect for %s: %v", id, err)
		}
	case s.IsOvernightInProgress(now):
		o.armDisconnectLocked(s)
	case s.EndsBeforeStart():
		if !now.Before(s.ConnectAt) {
			o.armDisconnectLocked(s)
		}
	default:
		if s.DisconnectAt.After(now) {
			o.armDisconnectLocked(s)
		}
	}
}

func (o *Orchestrator) armDisconnectLocked(s *vpnsched.Schedule) {
	if err := o.timers.Arm(s.ID, vpnsched.TimerDisconnect, s.DisconnectAt); err != nil {
		o.l.Error("orchestrator: arming disconnect for %s: %v", s.ID, err)
		return
	}
	o.l.Info("orchestrator: schedule %s %s for %s", s.ID, StateDisconnectArmed, s.DisconnectAt.UTC().Format(time.RFC3339))
}

// disconnectLocked is the disconnect path of a fired disconnect timer.
func (o *Orchestrator) disconnectLocked(ctx context.Context, id string) {
	if err := o.store.SetSuppressDisconnect(true); err != nil {
		o.l.Error("orchestrator: setting suppress flag: %v", err)
	}
	o.publish(events.Disconnect, id, true)
	o.stopTunnelLocked(ctx)
	o.clearAllLocked()
	o.l.Info("orchestrator: schedule %s %s", id, StateRemoved)
	o.idleCheckLocked()
}

// Stop is the host-initiated disconnect. It tears the tunnel down, cancels
// every schedule and runs the idle check.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.session.ScheduleID
	o.stopTunnelLocked(ctx)
	if err := o.store.SetSuppressDisconnect(true); err != nil {
		o.l.Error("orchestrator: setting suppress flag: %v", err)
	}
	o.publish(events.Disconnect, id, false)
	o.clearAllLocked()
	o.idleCheckLocked()
}

func (o *Orchestrator) stopTunnelLocked(ctx context.Context) {
	if err := o.tr.Stop(ctx); err != nil && !errors.Is(err, transport.ErrNoSession) {
		o.l.Error("orchestrator: stopping tunnel: %v", err)
	}
	o.session = Session{}
}

// Cancel disarms both timers of id and removes it from the store. Canceling
// an unknown id only runs the idle check.
func (o *Orchestrator) Cancel(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	err := o.cancelLocked(id)
	o.idleCheckLocked()
	return err
}

func (o *Orchestrator) cancelLocked(id string) error {
	var result *multierror.Error
	for _, kind := range []vpnsched.TimerKind{vpnsched.TimerConnect, vpnsched.TimerDisconnect} {
		if err := o.timers.Cancel(id, kind); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := o.store.Remove(id); err != nil {
		result = multierror.Append(result, err)
	}
	o.l.Info("orchestrator: schedule %s %s", id, StateCanceled)
	return result.ErrorOrNil()
}

func (o *Orchestrator) cancelOthersLocked(keep string) {
	for _, s := range o.store.List() {
		if s.ID == keep {
			continue
		}
		if err := o.cancelLocked(s.ID); err != nil {
			o.l.Error("orchestrator: canceling competing schedule %s: %v", s.ID, err)
		}
	}
}

// clearAllLocked cancels every stored schedule and every armed timer, so
// nothing can reconnect after an explicit disconnect. Failures are logged
// and never stop the remaining steps.
func (o *Orchestrator) clearAllLocked() {
	var result *multierror.Error
	for _, s := range o.store.List() {
		if err := o.cancelLocked(s.ID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, t := range o.timers.List() {
		if err := o.timers.Cancel(t.ID, t.Kind); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := o.store.Clear(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		o.l.Error("orchestrator: cleanup: %v", err)
	}
}

// idleCheckLocked stops timer delivery once no schedule is left.
func (o *Orchestrator) idleCheckLocked() {
	if len(o.store.List()) > 0 {
		return
	}
	if o.timers.Running() {
		o.timers.Stop()
		o.l.Info("orchestrator: no schedules left, timer delivery stopped")
	}
	if o.cfg.OnIdle != nil {
		o.cfg.OnIdle()
	}
}

func (o *Orchestrator) ensureRunningLocked() {
	if !o.timers.Running() {
		o.timers.Start(o.base, o.OnTimer)
	}
}

func (o *Orchestrator) publish(t events.Type, id string, scheduled bool) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(events.Event{Type: t, At: o.now(), ScheduleID: id, Scheduled: scheduled})
}
