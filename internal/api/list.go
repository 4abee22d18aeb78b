package api

import (
	"context"
	"encoding/json"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/server"
)

func (s *Api) listHandler(_ context.Context, _ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_LIST, s.engine.List(), nil
}

func (s *Api) activeHandler(_ context.Context, _ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_ACTIVE, s.engine.Active(), nil
}
