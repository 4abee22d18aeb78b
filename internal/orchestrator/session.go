package orchestrator

import "time"

// State is a schedule lifecycle state. It only appears in logs; the store
// and the armed timers are the real record of where a schedule is.
type State string

const (
	StatePending         State = "pending"
	StateArmed           State = "armed"
	StateConnected       State = "connected"
	StateDisconnectArmed State = "disconnect-armed"
	StateRemoved         State = "removed"
	StateCanceled        State = "canceled"
)

// Session is the tunnel the orchestrator last brought up. It is owned by
// the Orchestrator and only read or written under its lock.
type Session struct {
	ScheduleID  string
	ConnectedAt time.Time
	Up          bool
}
