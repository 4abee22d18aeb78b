package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/warpdl/warpvpn/internal/api"
	"github.com/warpdl/warpvpn/internal/config"
	"github.com/warpdl/warpvpn/internal/events"
	"github.com/warpdl/warpvpn/internal/orchestrator"
	"github.com/warpdl/warpvpn/internal/scheduler"
	"github.com/warpdl/warpvpn/internal/server"
	"github.com/warpdl/warpvpn/internal/transport"
	"github.com/warpdl/warpvpn/pkg/credman"
	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildType string
}

// Components holds every daemon component, wired together.
type Components struct {
	KV        vpnsched.KV
	Store     *vpnsched.Store
	Timers    *scheduler.Service
	Transport transport.Transport
	Bus       *events.Bus
	Engine    *orchestrator.Orchestrator
	Api       *api.Api
	Server    *server.Server
	Runner    *Runner
	log       logger.Logger
}

// Sealers are swapped in tests to keep the OS keyring out of them.
var newSealer = func(dir string, l logger.Logger) (vpnsched.Sealer, error) {
	return credman.NewSealer(dir, l)
}

func openKV(cfg *config.Config) (vpnsched.KV, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return vpnsched.NewFileKV(afero.NewOsFs(), cfg.Store.Path)
	default:
		return vpnsched.OpenSQLite(cfg.Store.Path)
	}
}

// Build initializes all daemon components from cfg. On error, any
// partially initialized component is released before returning.
func Build(cfg *config.Config, l logger.Logger, info BuildInfo) (*Components, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	kv, err := openKV(cfg)
	if err != nil {
		l.Error("Store initialization failed: %v", err)
		return nil, err
	}
	sealer, err := newSealer(cfg.Dir, l)
	if err != nil {
		l.Error("Credential sealer initialization failed: %v", err)
		_ = kv.Close()
		return nil, err
	}
	tr, err := transport.New(cfg.Transport.Kind, cfg.Transport.Binary, cfg.Transport.Args, l)
	if err != nil {
		l.Error("Transport initialization failed: %v", err)
		_ = kv.Close()
		return nil, err
	}

	c := &Components{
		KV:        kv,
		Store:     vpnsched.NewStore(kv, sealer, l),
		Timers:    scheduler.New(kv, l),
		Transport: tr,
		Bus:       events.NewBus(l),
		log:       l,
	}
	c.Runner = New(&Config{
		ShutdownTimeout: 10 * time.Second,
		ExitWhenIdle:    cfg.ExitWhenIdle,
		IdleGrace:       cfg.IdleGrace,
	}, &Dependencies{
		Serve:  c.serve,
		IsIdle: c.isIdle,
	})
	c.Engine = orchestrator.New(c.Store, c.Timers, tr, c.Bus, l, orchestrator.Config{
		ReadinessAttempts: cfg.Readiness.Attempts,
		ReadinessDelay:    cfg.Readiness.Delay,
		OnIdle:            c.Runner.OnIdle,
	})

	var web *server.WebServer
	if cfg.RPC.Secret != "" {
		web = server.NewWebServer(l, c.Engine, &server.RPCConfig{
			Secret:    cfg.RPC.Secret,
			ListenAll: cfg.RPC.ListenAll,
			Port:      cfg.RPC.Port,
			Version:   info.Version,
			Commit:    info.Commit,
			BuildType: info.BuildType,
		})
	}
	c.Server = server.NewServer(l, cfg.TCPPort, web)
	c.Api = api.NewApi(l, c.Engine, info.Version, info.Commit, info.BuildType)
	c.Api.RegisterHandlers(c.Server)
	return c, nil
}

// serve resumes the engine and serves the socket protocol until ctx is
// done.
func (c *Components) serve(ctx context.Context) error {
	ch, unsubscribe := c.Bus.Subscribe(64)
	defer unsubscribe()
	go c.Server.Forward(ctx, ch)
	c.Engine.Resume(ctx)
	return c.Server.Start(ctx)
}

func (c *Components) isIdle() bool {
	return len(c.Engine.ListSchedules()) == 0 && !c.Engine.Session().Up
}

// Close stops timer delivery, tears down a live tunnel and closes the
// store. Stored schedules survive for the next start.
func (c *Components) Close() error {
	c.log.Info("Shutting down daemon...")
	c.Timers.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var result *multierror.Error
	if err := c.Transport.Stop(ctx); err != nil && !errors.Is(err, transport.ErrNoSession) {
		result = multierror.Append(result, fmt.Errorf("stop tunnel: %w", err))
	}
	if err := c.KV.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close store: %w", err))
	}
	c.log.Info("Daemon stopped")
	return result.ErrorOrNil()
}
