package server

import (
	"context"
	"encoding/json"

	"github.com/warpdl/warpvpn/common"
)

// HandlerFunc handles one socket request. It receives the connection the
// request arrived on, the watcher pool and the raw message body, and
// returns the update type and payload of the response.
type HandlerFunc func(
	ctx context.Context,
	conn *SyncConn,
	pool *Pool,
	body json.RawMessage,
) (
	common.UpdateType,
	any,
	error,
)
