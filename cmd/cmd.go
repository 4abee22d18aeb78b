// Package cmd implements the warpvpn command line.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/warpvpn/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "warpvpn",
		HelpName:              "warpvpn",
		Usage:                 "Scheduled VPN tunnels.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "warpvpn <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: append([]cli.Command{
			{
				Name:   "daemon",
				Usage:  "runs the scheduling daemon",
				Action: getDaemonAction(),
			},
			{
				Name:               "connect",
				Aliases:            []string{"c"},
				Usage:              "brings the tunnel up now",
				Description:        ConnectDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             connect,
				Flags:              connectFlags,
			},
			{
				Name:               "schedule",
				Aliases:            []string{"s"},
				Usage:              "schedules a tunnel window",
				Description:        ScheduleDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             schedule,
				Flags:              scheduleFlags,
			},
			{
				Name:               "stop",
				Usage:              "tears the tunnel down and clears every schedule",
				Description:        StopDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             stop,
			},
			{
				Name:               "cancel",
				Usage:              "cancels one schedule",
				UsageText:          "warpvpn cancel <schedule id>",
				Description:        CancelDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             cancel,
			},
			{
				Name:               "list",
				Aliases:            []string{"l"},
				Usage:              "lists stored schedules",
				Description:        ListDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             list,
			},
			{
				Name:               "active",
				Aliases:            []string{"a"},
				Usage:              "shows the active schedule and the tunnel state",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				OnUsageError:       common.UsageErrorCallback,
				Action:             active,
				Flags:              activeFlags,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "prints tunnel status changes as they happen",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
			},
			{
				Name:   "stop-daemon",
				Usage:  "stops the running daemon",
				Action: stopDaemon,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of warpvpn",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		}, getPlatformCommands()...),
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
