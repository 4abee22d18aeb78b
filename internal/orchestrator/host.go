package orchestrator

import (
	"context"
	"time"

	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// Request describes the tunnel a host asks for.
type Request struct {
	Config     string
	Name       string
	Username   string
	Password   string
	BypassList []string
	// Days makes the schedule recurring on the given weekdays.
	Days vpnsched.Days
	// Notification replaces the stored notification parameters when set.
	Notification *vpnsched.NotificationParams
}

func (r Request) schedule(connect, disconnect time.Time) *vpnsched.Schedule {
	s := vpnsched.NewSchedule(r.Config, r.Name, r.Username, r.Password, connect, disconnect, r.BypassList)
	if r.Days != 0 {
		s.Recurring = true
		s.RecurringDays = r.Days
	}
	return s
}

// StartImmediate drops every stored schedule and connects now. The
// resulting schedule stays stored until a manual stop.
func (o *Orchestrator) StartImmediate(ctx context.Context, r Request) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := r.schedule(time.Time{}, time.Time{})
	if err := s.Validate(); err != nil {
		return "", err
	}
	o.noteLocked(r)
	o.clearAllLocked()
	if _, err := o.submitLocked(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// StartScheduled submits a window given as instants. A missing start or
// end means an immediate connection. An end strictly before the start is
// moved to the next day.
func (o *Orchestrator) StartScheduled(ctx context.Context, r Request, start, end time.Time) (string, bool, error) {
	if start.IsZero() || end.IsZero() {
		id, err := o.StartImmediate(ctx, r)
		return id, true, err
	}
	s := r.schedule(start.UTC(), vpnsched.RollOverEnd(start, end).UTC())
	immediate, err := o.submitRequest(ctx, r, s)
	if err != nil {
		return "", false, err
	}
	return s.ID, immediate, nil
}

// StartScheduledAt submits a window given as UTC hour and minute of today.
// A negative connectHour means an immediate connection and a negative
// disconnectHour leaves the tunnel up until a manual stop.
func (o *Orchestrator) StartScheduledAt(ctx context.Context, r Request, connectHour, connectMinute, disconnectHour, disconnectMinute int) (string, bool, error) {
	if connectHour < 0 {
		id, err := o.StartImmediate(ctx, r)
		return id, true, err
	}
	connect, disconnect := vpnsched.ResolveWindow(o.now(), connectHour, connectMinute, disconnectHour, disconnectMinute)
	s := r.schedule(connect, disconnect)
	immediate, err := o.submitRequest(ctx, r, s)
	if err != nil {
		return "", false, err
	}
	return s.ID, immediate, nil
}

func (o *Orchestrator) submitRequest(ctx context.Context, r Request, s *vpnsched.Schedule) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := s.Validate(); err != nil {
		return false, err
	}
	o.noteLocked(r)
	return o.submitLocked(ctx, s)
}

// noteLocked stores the notification parameters carried by r.
func (o *Orchestrator) noteLocked(r Request) {
	if r.Notification == nil {
		return
	}
	if err := o.store.SetNotification(*r.Notification); err != nil {
		o.l.Error("orchestrator: storing notification params: %v", err)
	}
}

// Notification returns the stored notification parameters.
func (o *Orchestrator) Notification() vpnsched.NotificationParams {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.Notification()
}

// SuppressDisconnect reports whether the last disconnect came from the
// engine itself rather than from the tunnel going away.
func (o *Orchestrator) SuppressDisconnect() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.SuppressDisconnect()
}

// CancelSchedule cancels one schedule.
func (o *Orchestrator) CancelSchedule(ctx context.Context, id string) error {
	return o.Cancel(ctx, id)
}

// ListSchedules returns every stored schedule.
func (o *Orchestrator) ListSchedules() []*vpnsched.Schedule {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.List()
}

// GetActiveSchedule returns the schedule of the live session, or else the
// first stored schedule whose window contains now.
func (o *Orchestrator) GetActiveSchedule() *vpnsched.Schedule {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.store.List()
	if o.session.Up {
		for _, s := range list {
			if s.ID == o.session.ScheduleID {
				return s
			}
		}
	}
	now := o.now()
	for _, s := range list {
		if s.ShouldTriggerAt(now) {
			return s
		}
	}
	return nil
}

// HasActiveSchedule reports whether a tunnel is up or a stored window is
// open.
func (o *Orchestrator) HasActiveSchedule() bool {
	if o.GetActiveSchedule() != nil {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Up
}

// Session returns the current tunnel session.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Armed returns the armed connect and disconnect instants of id.
func (o *Orchestrator) Armed(id string) (connect, disconnect time.Time) {
	connect, _ = o.timers.Armed(id, vpnsched.TimerConnect)
	disconnect, _ = o.timers.Armed(id, vpnsched.TimerDisconnect)
	return connect, disconnect
}

// Now returns the orchestrator clock.
func (o *Orchestrator) Now() time.Time { return o.now() }
