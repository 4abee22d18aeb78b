package api

import (
	"context"
	"encoding/json"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/server"
)

func (s *Api) versionHandler(_ context.Context, _ *server.SyncConn, _ *server.Pool, _ json.RawMessage) (common.UpdateType, any, error) {
	return common.UPDATE_VERSION, &common.VersionResponse{
		Version:   s.version,
		Commit:    s.commit,
		BuildType: s.buildType,
	}, nil
}
