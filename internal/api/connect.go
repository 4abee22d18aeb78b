package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/server"
)

var errConfigRequired = errors.New("config is required")

func (s *Api) connectHandler(ctx context.Context, _ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ConnectParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_CONNECT, nil, err
	}
	if strings.TrimSpace(m.Config) == "" {
		return common.UPDATE_CONNECT, nil, errConfigRequired
	}
	resp, err := s.engine.Connect(ctx, &m)
	if err != nil {
		return common.UPDATE_CONNECT, nil, err
	}
	s.log.Info("connect requested for %q, schedule %s", m.Name, resp.ScheduleId)
	return common.UPDATE_CONNECT, resp, nil
}

func (s *Api) scheduleHandler(ctx context.Context, _ *server.SyncConn, _ *server.Pool, body json.RawMessage) (common.UpdateType, any, error) {
	var m common.ScheduleParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.UPDATE_SCHEDULE, nil, err
	}
	if strings.TrimSpace(m.Config) == "" {
		return common.UPDATE_SCHEDULE, nil, errConfigRequired
	}
	resp, err := s.engine.Schedule(ctx, &m)
	if err != nil {
		return common.UPDATE_SCHEDULE, nil, err
	}
	s.log.Info("schedule %s submitted for %q (immediate=%t)", resp.ScheduleId, m.Name, resp.Immediate)
	return common.UPDATE_SCHEDULE, resp, nil
}
