//go:build windows

package cmd

import (
	"log"

	"github.com/urfave/cli"
	"github.com/warpdl/warpvpn/cmd/common"
	daemonpkg "github.com/warpdl/warpvpn/internal/daemon"
	"github.com/warpdl/warpvpn/internal/service"
	"github.com/warpdl/warpvpn/pkg/logger"
	"golang.org/x/sys/windows/svc"
)

func getDaemonAction() cli.ActionFunc {
	return daemonWindows
}

func getPlatformCommands() []cli.Command {
	return nil
}

// daemonWindows runs under the SCM when started as a service and as a
// console daemon otherwise.
func daemonWindows(ctx *cli.Context) error {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return err
	}
	if !isService {
		return daemon(ctx)
	}
	cfg, err := loadDaemonConfig()
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	var l logger.Logger = logger.NewStandardLogger(log.Default())
	if eventLog, err := logger.NewEventLogger(service.DefaultName); err == nil {
		l = logger.NewMultiLogger(l, eventLog)
	}
	defer l.Close()
	return runDaemon(cfg, l, func(r *daemonpkg.Runner) error {
		return service.Run(service.DefaultName, r, l)
	})
}
