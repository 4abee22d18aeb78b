package warpcli

import (
	"encoding/json"

	"github.com/warpdl/warpvpn/common"
)

// Handler defines the interface for processing daemon updates.
type Handler interface {
	Handle(json.RawMessage) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(json.RawMessage) error

func (f HandlerFunc) Handle(m json.RawMessage) error { return f(m) }

// NewEventHandler creates a handler for tunnel status events. An empty
// action receives every event.
func NewEventHandler(action common.EventAction, callback func(*common.EventResponse) error) *EventHandler {
	return &EventHandler{
		Action:   action,
		Callback: callback,
	}
}

// EventHandler filters UPDATE_EVENT messages by action.
type EventHandler struct {
	Action   common.EventAction
	Callback func(*common.EventResponse) error
}

func (h *EventHandler) Handle(m json.RawMessage) error {
	var v common.EventResponse
	if err := json.Unmarshal(m, &v); err != nil {
		return err
	}
	if h.Action != "" && v.Action != h.Action {
		return nil
	}
	return h.Callback(&v)
}
