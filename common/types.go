package common

import "time"

// NotificationInfo is the status notification a host shows while the
// engine runs. The daemon stores it and hands it back in ActiveResponse.
type NotificationInfo struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Icon  string `json:"icon,omitempty"`
	Id    int64  `json:"id"`
}

// ConnectParams requests an immediate tunnel with no scheduled disconnect.
type ConnectParams struct {
	Config     string   `json:"config"`
	Name       string   `json:"name"`
	Username   string   `json:"username,omitempty"`
	Password   string   `json:"password,omitempty"`
	BypassList []string `json:"bypass_list,omitempty"`
	// Notification replaces the stored notification parameters when set.
	Notification *NotificationInfo `json:"notification,omitempty"`
}

// ClockWindow is a window given as UTC hour and minute of today. A negative
// ConnectHour means connect immediately.
type ClockWindow struct {
	ConnectHour      int `json:"connect_hour"`
	ConnectMinute    int `json:"connect_minute"`
	DisconnectHour   int `json:"disconnect_hour"`
	DisconnectMinute int `json:"disconnect_minute"`
}

// ScheduleParams requests a scheduled tunnel. Either Start/End or Clock
// must be set. Days turns the schedule recurring ("mon,wed", "weekdays").
type ScheduleParams struct {
	ConnectParams
	Start time.Time    `json:"start,omitzero"`
	End   time.Time    `json:"end,omitzero"`
	Clock *ClockWindow `json:"clock,omitempty"`
	Days  string       `json:"days,omitempty"`
}

type ScheduleResponse struct {
	ScheduleId string `json:"schedule_id"`
	// Immediate is set when the window was already open and the tunnel
	// was started right away.
	Immediate bool `json:"immediate,omitempty"`
}

type CancelParams struct {
	ScheduleId string `json:"schedule_id"`
}

// ScheduleInfo describes a stored schedule. It never carries the password.
type ScheduleInfo struct {
	ScheduleId   string    `json:"schedule_id"`
	Name         string    `json:"name"`
	ConnectAt    time.Time `json:"connect_at,omitzero"`
	DisconnectAt time.Time `json:"disconnect_at,omitzero"`
	Active       bool      `json:"active"`
	Recurring    bool      `json:"recurring,omitempty"`
	Days         string    `json:"days,omitempty"`
	Cron         string    `json:"cron,omitempty"`
	NextConnect  time.Time `json:"next_connect,omitzero"`
	// ConnectArmed and DisconnectArmed are the armed timer instants.
	ConnectArmed    time.Time `json:"connect_armed,omitzero"`
	DisconnectArmed time.Time `json:"disconnect_armed,omitzero"`
}

type ListResponse struct {
	Schedules []ScheduleInfo `json:"schedules"`
}

type SessionInfo struct {
	Up          bool      `json:"up"`
	ScheduleId  string    `json:"schedule_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
}

type ActiveResponse struct {
	Active   bool          `json:"active"`
	Schedule *ScheduleInfo `json:"schedule,omitempty"`
	Session  SessionInfo   `json:"session"`
	// SuppressDisconnect is set after a scheduled or manual disconnect and
	// cleared by the next connect.
	SuppressDisconnect bool             `json:"suppress_disconnect"`
	Notification       NotificationInfo `json:"notification"`
	// Report is the window evaluation of the active schedule at the time
	// of the request.
	Report string `json:"report,omitempty"`
}

// EventResponse is pushed to watchers as an UPDATE_EVENT.
type EventResponse struct {
	Action     EventAction `json:"action"`
	ScheduleId string      `json:"schedule_id,omitempty"`
	Scheduled  bool        `json:"scheduled"`
	At         time.Time   `json:"at"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"build_type,omitempty"`
}
