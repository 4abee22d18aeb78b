package cmd

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/urfave/cli"
	"github.com/warpdl/warpvpn/cmd/common"
	vpncommon "github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/config"
	daemonpkg "github.com/warpdl/warpvpn/internal/daemon"
	"github.com/warpdl/warpvpn/pkg/logger"
)

// loadDaemonConfig resolves the config directory, loads the configuration
// and exports the socket settings so the server side reads the same values
// as a client started from this environment.
func loadDaemonConfig() (*config.Config, error) {
	dir, err := config.ResolveDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if cfg.SocketPath != "" {
		_ = os.Setenv(vpncommon.SocketPathEnv, cfg.SocketPath)
	}
	return cfg, nil
}

// daemonLogger logs to the console and, when log_file is set, to that file.
func daemonLogger(cfg *config.Config) (logger.Logger, error) {
	console := logger.NewStandardLogger(log.Default())
	if cfg.LogFile == "" {
		return console, nil
	}
	file, err := logger.NewFileLogger(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	return logger.NewMultiLogger(console, file), nil
}

func buildInfo() daemonpkg.BuildInfo {
	return daemonpkg.BuildInfo{
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	}
}

// runDaemon builds the components and hands their runner to run. The pid
// file lives for the duration of run.
func runDaemon(cfg *config.Config, l logger.Logger, run func(*daemonpkg.Runner) error) error {
	c, err := daemonpkg.Build(cfg, l, buildInfo())
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			l.Error("Daemon cleanup failed: %v", err)
		}
	}()
	if err := WritePidFile(cfg.Dir); err != nil {
		l.Warning("Failed to write PID file: %v", err)
	}
	defer func() { _ = RemovePidFile(cfg.Dir) }()
	return run(c.Runner)
}

// runConsole runs until SIGINT, SIGTERM or the idle exit.
func runConsole(r *daemonpkg.Runner) error {
	ctx, stop := setupShutdownHandler()
	defer stop()
	err := r.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func daemon(ctx *cli.Context) error {
	cfg, err := loadDaemonConfig()
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	l, err := daemonLogger(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "logger", err)
		return nil
	}
	defer l.Close()
	if err := runDaemon(cfg, l, runConsole); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "run", err)
	}
	return nil
}
