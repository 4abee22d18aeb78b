package server

import (
	"context"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/events"
)

func eventResponse(e events.Event) *common.EventResponse {
	action := common.EventConnect
	if e.Type == events.Disconnect {
		action = common.EventDisconnect
	}
	return &common.EventResponse{
		Action:     action,
		ScheduleId: e.ScheduleID,
		Scheduled:  e.Scheduled,
		At:         e.At,
	}
}

// Forward relays bus events to socket watchers and websocket clients
// until ctx is done or ch is closed.
func (s *Server) Forward(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.publish(e)
		}
	}
}

func (s *Server) publish(e events.Event) {
	s.pool.Broadcast(MakeResult(common.UPDATE_EVENT, eventResponse(e)))
	if s.ws == nil {
		return
	}
	n := s.ws.Notifier()
	if n == nil {
		return
	}
	method := NotifyConnect
	if e.Type == events.Disconnect {
		method = NotifyDisconnect
	}
	n.Broadcast(method, &TunnelNotification{
		ScheduleID: e.ScheduleID,
		Scheduled:  e.Scheduled,
		At:         e.At.UnixMilli(),
	})
}
