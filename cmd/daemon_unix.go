//go:build !windows

package cmd

import "github.com/urfave/cli"

func getDaemonAction() cli.ActionFunc {
	return daemon
}

// getPlatformCommands returns platform specific commands. There are none
// outside Windows.
func getPlatformCommands() []cli.Command {
	return nil
}
