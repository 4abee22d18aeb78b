package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpvpn/cmd/common"
	"github.com/warpdl/warpvpn/common"
)

const timeLayout = "Mon 02 Jan 15:04"

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fitName(name string, n int) string {
	if len(name) > n {
		name = name[:n-2] + ".."
	}
	return cmdcommon.Beaut(name, n)
}

func scheduleState(s *common.ScheduleInfo) string {
	switch {
	case s.Active:
		return "active"
	case !s.ConnectArmed.IsZero():
		return "armed"
	default:
		return "stored"
	}
}

// formatSchedules renders schedules as the list table.
func formatSchedules(schedules []common.ScheduleInfo) string {
	var b strings.Builder
	b.WriteString("Here are your schedules:\n\n")
	b.WriteString("-------------------------------------------------------------------------\n")
	b.WriteString("|   Id   |      Name      |     Connect      |    Disconnect    | State |\n")
	b.WriteString("|--------|----------------|------------------|------------------|-------|\n")
	for i := range schedules {
		s := &schedules[i]
		fmt.Fprintf(&b, "|%-8s|%s|%-18s|%-18s|%-7s|\n",
			shortID(s.ScheduleId),
			fitName(s.Name, 16),
			cmdcommon.Beaut(fmtTime(s.ConnectAt), 18),
			cmdcommon.Beaut(fmtTime(s.DisconnectAt), 18),
			scheduleState(s),
		)
		if s.Recurring {
			fmt.Fprintf(&b, "|        | repeats %s (%s), next %s\n", s.Days, s.Cron, fmtTime(s.NextConnect))
		}
	}
	b.WriteString("-------------------------------------------------------------------------\n")
	return b.String()
}

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	defer client.Close()
	l, err := client.List()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "list", "get_list", err)
		return nil
	}
	if len(l.Schedules) == 0 {
		fmt.Println("warpvpn: no schedules found")
		return nil
	}
	fmt.Print(formatSchedules(l.Schedules))
	return nil
}

// formatActive describes the active schedule and the tunnel session.
func formatActive(a *common.ActiveResponse) string {
	var b strings.Builder
	if a.Session.Up {
		fmt.Fprintf(&b, "Tunnel: up since %s", fmtTime(a.Session.ConnectedAt))
		if a.Session.ScheduleId != "" {
			fmt.Fprintf(&b, " (schedule %s)", shortID(a.Session.ScheduleId))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Tunnel: down\n")
	}
	s := a.Schedule
	if s == nil {
		b.WriteString("No active schedule.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Schedule: %s %q\n", s.ScheduleId, s.Name)
	fmt.Fprintf(&b, "  connect:    %s\n", fmtTime(s.ConnectAt))
	fmt.Fprintf(&b, "  disconnect: %s\n", fmtTime(s.DisconnectAt))
	if s.Recurring {
		fmt.Fprintf(&b, "  repeats:    %s, next %s\n", s.Days, fmtTime(s.NextConnect))
	}
	return b.String()
}

// formatDetails renders the daemon-side state behind the active report.
func formatDetails(a *common.ActiveResponse) string {
	var b strings.Builder
	n := a.Notification
	fmt.Fprintf(&b, "Notification: %q %q (id %d)\n", n.Title, n.Text, n.Id)
	fmt.Fprintf(&b, "Disconnect notice suppressed: %t\n", a.SuppressDisconnect)
	if a.Report != "" {
		b.WriteString(a.Report)
	}
	return b.String()
}

var (
	showProgress bool
	showDetails  bool

	activeFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "progress, p",
			Usage:       "follow the open window with a progress bar until it closes",
			Destination: &showProgress,
		},
		cli.BoolFlag{
			Name:        "details, d",
			Usage:       "also print the window evaluation of the active schedule",
			Destination: &showDetails,
		},
	}
)

func active(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "active", "new_client", err)
		return nil
	}
	defer client.Close()
	if !showProgress {
		a, err := client.Active()
		if err != nil {
			cmdcommon.PrintRuntimeErr(ctx, "active", "get_active", err)
			return nil
		}
		fmt.Print(formatActive(a))
		if showDetails {
			fmt.Print(formatDetails(a))
		}
		return nil
	}
	if err := followWindow(client); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "active", "progress", err)
	}
	return nil
}
