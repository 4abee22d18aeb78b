package api

import (
	"context"
	"encoding/json"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/server"
)

// watchHandler subscribes the connection to event updates. The current
// state is returned so the watcher starts from a known point.
func (s *Api) watchHandler(_ context.Context, sconn *server.SyncConn, pool *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	pool.Watch(sconn)
	return common.UPDATE_WATCH, s.engine.Active(), nil
}
