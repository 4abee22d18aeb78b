package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// ErrInvalidParams is returned for malformed host requests.
var ErrInvalidParams = errors.New("orchestrator: invalid parameters")

func requestFrom(p common.ConnectParams, days string) (Request, error) {
	r := Request{
		Config:     p.Config,
		Name:       p.Name,
		Username:   p.Username,
		Password:   p.Password,
		BypassList: p.BypassList,
	}
	if n := p.Notification; n != nil {
		r.Notification = &vpnsched.NotificationParams{Title: n.Title, Text: n.Text, Icon: n.Icon, ID: n.Id}
	}
	if days != "" {
		d, err := vpnsched.ParseDays(days)
		if err != nil {
			return r, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		r.Days = d
	}
	return r, nil
}

func checkClock(c *common.ClockWindow) error {
	switch {
	case c.ConnectHour < -1 || c.ConnectHour > 23:
		return fmt.Errorf("%w: connect hour %d out of range", ErrInvalidParams, c.ConnectHour)
	case c.DisconnectHour < -1 || c.DisconnectHour > 23:
		return fmt.Errorf("%w: disconnect hour %d out of range", ErrInvalidParams, c.DisconnectHour)
	case c.ConnectMinute < 0 || c.ConnectMinute > 59:
		return fmt.Errorf("%w: connect minute %d out of range", ErrInvalidParams, c.ConnectMinute)
	case c.DisconnectMinute < 0 || c.DisconnectMinute > 59:
		return fmt.Errorf("%w: disconnect minute %d out of range", ErrInvalidParams, c.DisconnectMinute)
	}
	return nil
}

// Connect serves a wire connect request.
func (o *Orchestrator) Connect(ctx context.Context, p *common.ConnectParams) (*common.ScheduleResponse, error) {
	r, err := requestFrom(*p, "")
	if err != nil {
		return nil, err
	}
	id, err := o.StartImmediate(ctx, r)
	if err != nil {
		return nil, err
	}
	return &common.ScheduleResponse{ScheduleId: id, Immediate: true}, nil
}

// Schedule serves a wire schedule request. A clock window takes precedence
// over start/end instants.
func (o *Orchestrator) Schedule(ctx context.Context, p *common.ScheduleParams) (*common.ScheduleResponse, error) {
	r, err := requestFrom(p.ConnectParams, p.Days)
	if err != nil {
		return nil, err
	}
	var (
		id        string
		immediate bool
	)
	if c := p.Clock; c != nil {
		if err := checkClock(c); err != nil {
			return nil, err
		}
		id, immediate, err = o.StartScheduledAt(ctx, r, c.ConnectHour, c.ConnectMinute, c.DisconnectHour, c.DisconnectMinute)
	} else {
		id, immediate, err = o.StartScheduled(ctx, r, p.Start, p.End)
	}
	if err != nil {
		return nil, err
	}
	return &common.ScheduleResponse{ScheduleId: id, Immediate: immediate}, nil
}

// Info renders s for the wire, without the password.
func (o *Orchestrator) Info(s *vpnsched.Schedule) common.ScheduleInfo {
	now := o.now()
	info := common.ScheduleInfo{
		ScheduleId:   s.ID,
		Name:         s.Name,
		ConnectAt:    s.ConnectAt,
		DisconnectAt: s.DisconnectAt,
		Active:       s.Active,
		Recurring:    s.Recurring,
	}
	if s.Recurring {
		info.Days = s.RecurringDays.String()
		if expr, err := s.CronExpr(); err == nil {
			info.Cron = expr
		}
		if next, err := s.NextOccurrence(now); err == nil {
			info.NextConnect = next
		}
	} else if !s.ConnectAt.IsZero() && s.ConnectAt.After(now) {
		info.NextConnect = s.ConnectAt
	}
	info.ConnectArmed, info.DisconnectArmed = o.Armed(s.ID)
	if !info.ConnectArmed.IsZero() {
		// the armed timer is what will actually fire
		info.NextConnect = info.ConnectArmed
	}
	return info
}

// List returns every stored schedule in wire form.
func (o *Orchestrator) List() *common.ListResponse {
	list := o.ListSchedules()
	resp := &common.ListResponse{Schedules: make([]common.ScheduleInfo, 0, len(list))}
	for _, s := range list {
		resp.Schedules = append(resp.Schedules, o.Info(s))
	}
	return resp
}

// Active reports the active schedule and the tunnel session.
func (o *Orchestrator) Active() *common.ActiveResponse {
	sess := o.Session()
	resp := &common.ActiveResponse{
		Session: common.SessionInfo{
			Up:          sess.Up,
			ScheduleId:  sess.ScheduleID,
			ConnectedAt: sess.ConnectedAt,
		},
	}
	if s := o.GetActiveSchedule(); s != nil {
		info := o.Info(s)
		resp.Schedule = &info
		resp.Active = true
		resp.Report = s.Describe(o.now())
	}
	resp.Active = resp.Active || sess.Up
	resp.SuppressDisconnect = o.SuppressDisconnect()
	n := o.Notification()
	resp.Notification = common.NotificationInfo{Title: n.Title, Text: n.Text, Icon: n.Icon, Id: n.ID}
	return resp
}
