package server

import (
	"context"
	"errors"
	"strings"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/orchestrator"
	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// Custom JSON-RPC error codes for schedule operations.
const (
	codeScheduleNotFound = jrpc2.Code(-32001)
	codeConfigInvalid    = jrpc2.Code(-32002)
	codeInvalidParams    = jrpc2.Code(-32602)
)

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // Auth token (required -- empty means RPC disabled)
	ListenAll bool   // If true, bind to 0.0.0.0 instead of 127.0.0.1
	Port      int
	Version   string
	Commit    string
	BuildType string
}

// RPCServer manages the JSON-RPC 2.0 bridge and method handlers.
type RPCServer struct {
	methods   handler.Map
	bridge    jhttp.Bridge
	notifier  *RPCNotifier
	secret    string
	version   string
	commit    string
	buildType string
	engine    *orchestrator.Orchestrator
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// NewRPCServer creates a new RPCServer with method handlers and HTTP bridge.
func NewRPCServer(cfg *RPCConfig, o *orchestrator.Orchestrator, l logger.Logger) *RPCServer {
	rs := &RPCServer{
		notifier:  NewRPCNotifier(l),
		secret:    cfg.Secret,
		version:   cfg.Version,
		commit:    cfg.Commit,
		buildType: cfg.BuildType,
		engine:    o,
	}

	rs.methods = handler.Map{
		"system.getVersion": handler.New(rs.systemGetVersion),
		"vpn.connect":       handler.New(rs.vpnConnect),
		"vpn.schedule":      handler.New(rs.vpnSchedule),
		"vpn.stop":          handler.New(rs.vpnStop),
		"vpn.cancel":        handler.New(rs.vpnCancel),
		"vpn.list":          handler.New(rs.vpnList),
		"vpn.active":        handler.New(rs.vpnActive),
	}

	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// rpcError maps engine errors to JSON-RPC error codes.
func rpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vpnsched.ErrScheduleNotFound):
		return &jrpc2.Error{Code: codeScheduleNotFound, Message: err.Error()}
	case errors.Is(err, vpnsched.ErrConfigInvalid):
		return &jrpc2.Error{Code: codeConfigInvalid, Message: err.Error()}
	case errors.Is(err, orchestrator.ErrInvalidParams):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return err
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{
		Version:   rs.version,
		Commit:    rs.commit,
		BuildType: rs.buildType,
	}, nil
}

func (rs *RPCServer) vpnConnect(ctx context.Context, p *common.ConnectParams) (*common.ScheduleResponse, error) {
	if p == nil || strings.TrimSpace(p.Config) == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: config"}
	}
	resp, err := rs.engine.Connect(ctx, p)
	return resp, rpcError(err)
}

func (rs *RPCServer) vpnSchedule(ctx context.Context, p *common.ScheduleParams) (*common.ScheduleResponse, error) {
	if p == nil || strings.TrimSpace(p.Config) == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: config"}
	}
	resp, err := rs.engine.Schedule(ctx, p)
	return resp, rpcError(err)
}

func (rs *RPCServer) vpnStop(ctx context.Context) (*EmptyResult, error) {
	rs.engine.Stop(ctx)
	return &EmptyResult{}, nil
}

// vpnCancel is idempotent: canceling an unknown id succeeds.
func (rs *RPCServer) vpnCancel(ctx context.Context, p *common.CancelParams) (*EmptyResult, error) {
	if p == nil || p.ScheduleId == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: schedule_id"}
	}
	if err := rs.engine.CancelSchedule(ctx, p.ScheduleId); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) vpnList(_ context.Context) (*common.ListResponse, error) {
	return rs.engine.List(), nil
}

func (rs *RPCServer) vpnActive(_ context.Context) (*common.ActiveResponse, error) {
	return rs.engine.Active(), nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
