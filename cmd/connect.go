package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpvpn/cmd/common"
	"github.com/warpdl/warpvpn/common"
)

var (
	vpnConfigPath string
	vpnName       string
	vpnUsername   string
	vpnPassword   string
	notifyTitle   string
	notifyText    string

	errConfigRequired = errors.New("--config is required")
)

func tunnelFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:        "config, f",
			Usage:       "path of the tunnel client configuration file",
			Destination: &vpnConfigPath,
		},
		cli.StringFlag{
			Name:        "name, n",
			Usage:       "profile name shown in listings (default: config file name)",
			Destination: &vpnName,
		},
		cli.StringFlag{
			Name:        "username, u",
			Usage:       "tunnel username",
			Destination: &vpnUsername,
		},
		cli.StringFlag{
			Name:        "password, p",
			Usage:       "tunnel password, prefer the environment variable",
			EnvVar:      "WARPVPN_PASSWORD",
			Destination: &vpnPassword,
		},
		cli.StringSliceFlag{
			Name:  "bypass, b",
			Usage: "host or network routed outside the tunnel, repeatable or comma separated",
		},
		cli.StringFlag{
			Name:        "notify-title",
			Usage:       "title of the status notification",
			Destination: &notifyTitle,
		},
		cli.StringFlag{
			Name:        "notify-text",
			Usage:       "text of the status notification",
			Destination: &notifyText,
		},
	}
}

var connectFlags = tunnelFlags()

// connectParams builds the tunnel request from the command flags.
func connectParams(ctx *cli.Context) (*common.ConnectParams, error) {
	if vpnConfigPath == "" {
		return nil, errConfigRequired
	}
	b, err := os.ReadFile(vpnConfigPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	name := vpnName
	if name == "" {
		base := filepath.Base(vpnConfigPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	var bypass []string
	for _, v := range ctx.StringSlice("bypass") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				bypass = append(bypass, h)
			}
		}
	}
	p := &common.ConnectParams{
		Config:     string(b),
		Name:       name,
		Username:   vpnUsername,
		Password:   vpnPassword,
		BypassList: bypass,
	}
	if notifyTitle != "" || notifyText != "" {
		p.Notification = &common.NotificationInfo{Title: notifyTitle, Text: notifyText, Id: 1001}
	}
	return p, nil
}

func connect(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	p, err := connectParams(ctx)
	if err != nil {
		return cmdcommon.PrintErrWithCmdHelp(ctx, err)
	}
	client, err := newClient()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "connect", "new_client", err)
		return nil
	}
	defer client.Close()
	resp, err := client.Connect(p)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "connect", "connect", err)
		return nil
	}
	fmt.Printf("Tunnel %q is up (schedule %s).\n", p.Name, resp.ScheduleId)
	return nil
}
