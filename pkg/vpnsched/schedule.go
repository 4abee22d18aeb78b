// Package vpnsched holds the persisted VPN schedule model, the time window
// evaluator that classifies a schedule against the current instant, and the
// schedule store with its persistent key/value backends.
//
// All instants are UTC. The zero time.Time plays the role of the "0" instant:
// an unset connect time means "now", an unset disconnect time means "manual
// stop only".
package vpnsched

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrConfigInvalid is returned when a schedule carries a blank tunnel config.
	ErrConfigInvalid = errors.New("vpnsched: tunnel config is blank")
	// ErrScheduleNotFound is returned when an id is not present in the store.
	ErrScheduleNotFound = errors.New("vpnsched: schedule not found")
	// ErrPersistence wraps read/write/serialization failures of the store.
	ErrPersistence = errors.New("vpnsched: persistence failure")
)

// Days is a weekday bitmask. Bit n is set for time.Weekday(n), so Sunday
// is bit 0 and Saturday bit 6.
type Days uint8

const (
	Sunday Days = 1 << iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday

	Weekdays = Monday | Tuesday | Wednesday | Thursday | Friday
	Weekend  = Saturday | Sunday
	EveryDay = Weekdays | Weekend
)

var dayNames = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// DayOf returns the mask bit for a weekday.
func DayOf(d time.Weekday) Days {
	return 1 << uint(d)
}

// Has reports whether d is set in the mask.
func (m Days) Has(d time.Weekday) bool {
	return m&DayOf(d) != 0
}

// String renders the mask as a comma separated list, e.g. "mon,wed".
func (m Days) String() string {
	var parts []string
	for i, n := range dayNames {
		if m&(1<<uint(i)) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, ",")
}

// ParseDays parses "mon,tue,..." (also "weekdays", "weekend", "daily").
func ParseDays(s string) (Days, error) {
	var m Days
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "":
			continue
		case "weekdays":
			m |= Weekdays
			continue
		case "weekend":
			m |= Weekend
			continue
		case "daily", "all":
			m |= EveryDay
			continue
		}
		found := false
		for i, n := range dayNames {
			if len(f) >= 3 && strings.HasPrefix(f, n) {
				m |= 1 << uint(i)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("invalid day %q, expected one of %s", f, strings.Join(dayNames[:], ", "))
		}
	}
	if m == 0 {
		return 0, errors.New("at least one day is required")
	}
	return m, nil
}

// Schedule is a persisted request to bring a tunnel up at ConnectAt and,
// optionally, down at DisconnectAt.
type Schedule struct {
	// ID is generated at creation and never changes.
	ID string
	// Config is the opaque tunnel configuration. Required.
	Config string
	// Name is the tunnel profile name shown to the user.
	Name string
	// Username for tunnel authentication.
	Username string
	// Password for tunnel authentication. Never logged.
	Password string
	// ConnectAt is the UTC instant the tunnel should come up.
	ConnectAt time.Time
	// DisconnectAt is the UTC instant the tunnel should go down.
	// The zero value means manual stop only.
	DisconnectAt time.Time
	// Active gates all trigger evaluation. Inactive schedules never fire.
	Active bool
	// Recurring schedules repeat on RecurringDays at ConnectAt's time of day.
	Recurring bool
	// RecurringDays is meaningful only when Recurring is set.
	RecurringDays Days
	// BypassList holds identifiers excluded from the tunnel.
	BypassList []string
}

// NewSchedule creates an active one-time schedule with a fresh id.
func NewSchedule(config, name, username, password string, connectAt, disconnectAt time.Time, bypass []string) *Schedule {
	return &Schedule{
		ID:           uuid.NewString(),
		Config:       config,
		Name:         name,
		Username:     username,
		Password:     password,
		ConnectAt:    utc(connectAt),
		DisconnectAt: utc(disconnectAt),
		Active:       true,
		BypassList:   append([]string(nil), bypass...),
	}
}

// Validate checks the fields the connect path depends on.
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Config) == "" {
		return ErrConfigInvalid
	}
	if s.Recurring && s.RecurringDays == 0 {
		return errors.New("vpnsched: recurring schedule without days")
	}
	return nil
}

// Clone returns a deep copy.
func (s *Schedule) Clone() *Schedule {
	c := *s
	c.BypassList = append([]string(nil), s.BypassList...)
	return &c
}

// String renders the schedule for logs. The password is redacted.
func (s *Schedule) String() string {
	pw := ""
	if s.Password != "" {
		pw = "***"
	}
	return fmt.Sprintf("schedule{id=%s name=%q user=%q password=%q connect=%s disconnect=%s active=%t recurring=%t days=%s bypass=%d}",
		s.ID, s.Name, s.Username, pw,
		formatInstant(s.ConnectAt), formatInstant(s.DisconnectAt),
		s.Active, s.Recurring, s.RecurringDays, len(s.BypassList))
}

// Describe returns the multi-line diagnostic report of how the schedule
// classifies at now.
func (s *Schedule) Describe(now time.Time) string {
	var b strings.Builder
	b.WriteString("Schedule Validation:\n")
	fmt.Fprintf(&b, "- Connect Time: %s\n", formatInstant(s.ConnectAt))
	fmt.Fprintf(&b, "- Disconnect Time: %s\n", formatInstant(s.DisconnectAt))
	fmt.Fprintf(&b, "- Current Time: %s\n", formatInstant(now))
	fmt.Fprintf(&b, "- Is Immediate: %t\n", s.IsImmediateConnection(now))
	fmt.Fprintf(&b, "- Is Previous Day Start: %t\n", s.IsPreviousDayStart(now))
	fmt.Fprintf(&b, "- Is Overnight: %t\n", s.EndsBeforeStart())
	fmt.Fprintf(&b, "- Should Start Immediately: %t\n", s.ShouldStartImmediately(now))
	fmt.Fprintf(&b, "- Should Trigger Now: %t\n", s.ShouldTriggerAt(now))
	fmt.Fprintf(&b, "- Should Disconnect Now: %t\n", s.ShouldDisconnectAt(now))
	fmt.Fprintf(&b, "- Is Start Time: %t\n", s.IsStartTime(now))
	fmt.Fprintf(&b, "- Is End Time: %t\n", s.IsEndTime(now))
	return b.String()
}

func formatInstant(t time.Time) string {
	if millis(t) <= 0 {
		return "unset"
	}
	return t.UTC().Format(time.RFC3339)
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
