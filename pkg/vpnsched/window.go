package vpnsched

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// TriggerTolerance is how far from the recurring connect time a trigger
// check may be and still fire.
const TriggerTolerance = 60 * time.Second

// millis maps an instant to unix milliseconds with the zero time as 0.
// Classification predicates compare instants in this space so "unset"
// behaves as the epoch.
func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// MinuteOfDay returns hour*60+minute of t in UTC.
func MinuteOfDay(t time.Time) int {
	t = t.UTC()
	return t.Hour()*60 + t.Minute()
}

// IsOvernightWindow reports whether the window wraps midnight by
// time-of-day, i.e. the connect minute is at or after the disconnect minute.
// This is the test used by the trigger and disconnect predicates.
func (s *Schedule) IsOvernightWindow() bool {
	return MinuteOfDay(s.ConnectAt) >= MinuteOfDay(s.DisconnectAt)
}

// EndsBeforeStart reports whether the disconnect instant is strictly before
// the connect instant. Unlike IsOvernightWindow it compares absolute
// instants and is used when deciding whether to arm a disconnect timer.
func (s *Schedule) EndsBeforeStart() bool {
	return millis(s.DisconnectAt) < millis(s.ConnectAt)
}

// ShouldTriggerAt reports whether the tunnel should be up at now.
func (s *Schedule) ShouldTriggerAt(now time.Time) bool {
	if !s.Active {
		return false
	}
	if s.Recurring {
		now = now.UTC()
		if !s.RecurringDays.Has(now.Weekday()) {
			return false
		}
		d := now.Sub(s.ConnectAt)
		if d < 0 {
			d = -d
		}
		return d <= TriggerTolerance
	}
	return s.IsWithinWindow(now)
}

// IsWithinWindow reports whether now's minute-of-day falls inside the
// connect/disconnect window, both ends inclusive.
func (s *Schedule) IsWithinWindow(now time.Time) bool {
	start, end, cur := MinuteOfDay(s.ConnectAt), MinuteOfDay(s.DisconnectAt), MinuteOfDay(now)
	if start < end {
		return cur >= start && cur <= end
	}
	return cur >= start || cur <= end
}

// ShouldDisconnectAt reports whether the window has ended at now.
func (s *Schedule) ShouldDisconnectAt(now time.Time) bool {
	if !s.Active {
		return false
	}
	start, end, cur := MinuteOfDay(s.ConnectAt), MinuteOfDay(s.DisconnectAt), MinuteOfDay(now)
	if start < end {
		return cur >= end
	}
	return cur >= end && cur < start
}

// IsStartTime reports an exact hour and minute match with the connect time.
func (s *Schedule) IsStartTime(now time.Time) bool {
	return MinuteOfDay(now) == MinuteOfDay(s.ConnectAt)
}

// IsEndTime is overnight-aware and matches ShouldDisconnectAt.
func (s *Schedule) IsEndTime(now time.Time) bool {
	return s.ShouldDisconnectAt(now)
}

// IsImmediateConnection reports a schedule that should connect now and
// only stop on request.
func (s *Schedule) IsImmediateConnection(now time.Time) bool {
	c, d, n := millis(s.ConnectAt), millis(s.DisconnectAt), millis(now)
	return (c <= 0 || c <= n) && d <= 0
}

// IsPreviousDayStart reports a window that has fully elapsed.
func (s *Schedule) IsPreviousDayStart(now time.Time) bool {
	c, d, n := millis(s.ConnectAt), millis(s.DisconnectAt), millis(now)
	return c < n && d < n
}

// IsOvernightInProgress reports a window that started before now and ends
// after it.
func (s *Schedule) IsOvernightInProgress(now time.Time) bool {
	c, d, n := millis(s.ConnectAt), millis(s.DisconnectAt), millis(now)
	return c < n && d > n
}

// ShouldStartImmediately reports whether Submit runs the connect path
// synchronously instead of arming a connect timer. An unset connect time
// is treated as midnight tomorrow for the elapsed-instant clause.
func (s *Schedule) ShouldStartImmediately(now time.Time) bool {
	if s.IsImmediateConnection(now) || s.IsPreviousDayStart(now) || s.IsOvernightInProgress(now) {
		return true
	}
	c, n := millis(s.ConnectAt), millis(now)
	return c <= n && !(c == 0 && n > 0)
}

// NextConnectTime returns the next instant a recurring schedule should
// connect. Non-recurring schedules and schedules whose connect time is still
// ahead return ConnectAt. When no masked weekday within seven days of
// ConnectAt lies after now, ConnectAt is returned unchanged.
func (s *Schedule) NextConnectTime(now time.Time) time.Time {
	if !s.Recurring || millis(s.ConnectAt) > millis(now) {
		return s.ConnectAt
	}
	base := s.ConnectAt.UTC()
	for i := 0; i < 7; i++ {
		next := base.AddDate(0, 0, i)
		if s.RecurringDays.Has(next.Weekday()) && next.After(now) {
			return next
		}
	}
	return s.ConnectAt
}

// CronExpr renders a recurring schedule as a five-field cron expression.
func (s *Schedule) CronExpr() (string, error) {
	if !s.Recurring || s.RecurringDays == 0 {
		return "", errors.New("vpnsched: schedule is not recurring")
	}
	var days []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.RecurringDays.Has(d) {
			days = append(days, fmt.Sprint(int(d)))
		}
	}
	c := s.ConnectAt.UTC()
	expr := fmt.Sprintf("%d %d * * %s", c.Minute(), c.Hour(), strings.Join(days, ","))
	if !gronx.IsValid(expr) {
		return "", fmt.Errorf("vpnsched: invalid cron expression %q", expr)
	}
	return expr, nil
}

// NextOccurrence returns the next cron tick of a recurring schedule
// strictly after ref.
func (s *Schedule) NextOccurrence(ref time.Time) (time.Time, error) {
	expr, err := s.CronExpr()
	if err != nil {
		return time.Time{}, err
	}
	return gronx.NextTickAfter(expr, ref.UTC(), false)
}

// ResolveWindow turns hour/minute pairs into today's UTC instants. When the
// disconnect instant is at or before the connect instant it moves to the
// next day. A negative disconnect hour leaves the disconnect unset.
func ResolveWindow(now time.Time, connectHour, connectMinute, disconnectHour, disconnectMinute int) (connect, disconnect time.Time) {
	y, m, d := now.UTC().Date()
	connect = time.Date(y, m, d, connectHour, connectMinute, 0, 0, time.UTC)
	if disconnectHour < 0 {
		return connect, time.Time{}
	}
	disconnect = time.Date(y, m, d, disconnectHour, disconnectMinute, 0, 0, time.UTC)
	if !disconnect.After(connect) {
		disconnect = disconnect.AddDate(0, 0, 1)
	}
	return connect, disconnect
}

// RollOverEnd moves an explicit end instant that lies strictly before the
// start to the next day. Equal instants are left alone, unlike
// ResolveWindow.
func RollOverEnd(start, end time.Time) time.Time {
	if !end.IsZero() && millis(end) < millis(start) {
		return end.AddDate(0, 0, 1)
	}
	return end
}
