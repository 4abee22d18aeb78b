// Package api implements the socket protocol methods on top of the
// orchestrator.
package api

import (
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/orchestrator"
	"github.com/warpdl/warpvpn/internal/server"
	"github.com/warpdl/warpvpn/pkg/logger"
)

type Api struct {
	log       logger.Logger
	engine    *orchestrator.Orchestrator
	version   string
	commit    string
	buildType string
}

func NewApi(l logger.Logger, o *orchestrator.Orchestrator, version, commit, buildType string) *Api {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Api{
		log:       l,
		engine:    o,
		version:   version,
		commit:    commit,
		buildType: buildType,
	}
}

func (s *Api) RegisterHandlers(server *server.Server) {
	server.RegisterHandler(common.UPDATE_CONNECT, s.connectHandler)
	server.RegisterHandler(common.UPDATE_SCHEDULE, s.scheduleHandler)
	server.RegisterHandler(common.UPDATE_STOP, s.stopHandler)
	server.RegisterHandler(common.UPDATE_CANCEL, s.cancelHandler)
	server.RegisterHandler(common.UPDATE_LIST, s.listHandler)
	server.RegisterHandler(common.UPDATE_ACTIVE, s.activeHandler)
	server.RegisterHandler(common.UPDATE_WATCH, s.watchHandler)
	server.RegisterHandler(common.UPDATE_VERSION, s.versionHandler)
}
