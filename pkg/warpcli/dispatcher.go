package warpcli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warpdl/warpvpn/common"
)

// ErrDisconnect may be returned by a handler to stop Listen cleanly.
var ErrDisconnect = errors.New("disconnect")

type Dispatcher struct {
	Handlers map[common.UpdateType][]Handler
}

func (d *Dispatcher) AddHandler(utype common.UpdateType, h Handler) {
	d.Handlers[utype] = append(d.Handlers[utype], h)
}

func (d *Dispatcher) RemoveHandler(utype common.UpdateType) {
	delete(d.Handlers, utype)
}

func (d *Dispatcher) process(buf []byte) error {
	var res Response
	if err := json.Unmarshal(buf, &res); err != nil {
		return fmt.Errorf("failed to parse (%s): '%s'", err.Error(), string(buf))
	}
	if !res.Ok {
		return errors.New(res.Error)
	}
	if res.Update == nil {
		return nil
	}
	return d.dispatch(res.Update)
}

func (d *Dispatcher) dispatch(u *Update) error {
	handlers, ok := d.Handlers[u.Type]
	if !ok {
		return fmt.Errorf("no handler for update %q", u.Type)
	}
	for _, h := range handlers {
		if err := h.Handle(u.Message); err != nil {
			return err
		}
	}
	return nil
}
