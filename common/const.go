package common

type UpdateType string

const (
	UPDATE_CONNECT  UpdateType = "connect"
	UPDATE_SCHEDULE UpdateType = "schedule"
	UPDATE_STOP     UpdateType = "stop"
	UPDATE_CANCEL   UpdateType = "cancel"
	UPDATE_LIST     UpdateType = "list"
	UPDATE_ACTIVE   UpdateType = "active"
	UPDATE_WATCH    UpdateType = "watch"
	UPDATE_VERSION  UpdateType = "version"
	// UPDATE_EVENT is pushed to watchers on every tunnel status change.
	UPDATE_EVENT UpdateType = "event"
)

// EventAction is the status change carried by an UPDATE_EVENT.
type EventAction string

const (
	EventConnect    EventAction = "connect"
	EventDisconnect EventAction = "disconnect"
)
