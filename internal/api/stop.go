package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/server"
)

func (s *Api) stopHandler(ctx context.Context, _ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	s.engine.Stop(ctx)
	return common.UPDATE_STOP, nil, nil
}

// cancelHandler cancels one schedule. Unknown ids succeed.
func (s *Api) cancelHandler(ctx context.Context, _ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.CancelParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_CANCEL, nil, err
	}
	if m.ScheduleId == "" {
		return common.UPDATE_CANCEL, nil, errors.New("schedule_id is required")
	}
	if err := s.engine.CancelSchedule(ctx, m.ScheduleId); err != nil {
		return common.UPDATE_CANCEL, nil, err
	}
	return common.UPDATE_CANCEL, nil, nil
}
