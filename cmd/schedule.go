package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"
	cmdcommon "github.com/warpdl/warpvpn/cmd/common"
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

var (
	windowStart string
	windowEnd   string
	clockAt     string
	clockUntil  string
	windowDays  string

	scheduleFlags = append(tunnelFlags(),
		cli.StringFlag{
			Name:        "start",
			Usage:       "window start as an RFC3339 instant",
			Destination: &windowStart,
		},
		cli.StringFlag{
			Name:        "end",
			Usage:       "window end as an RFC3339 instant, empty for no disconnect",
			Destination: &windowEnd,
		},
		cli.StringFlag{
			Name:        "at",
			Usage:       "connect at HH:MM UTC, empty to connect now",
			Destination: &clockAt,
		},
		cli.StringFlag{
			Name:        "until",
			Usage:       "disconnect at HH:MM UTC, empty for no disconnect",
			Destination: &clockUntil,
		},
		cli.StringFlag{
			Name:        "days, d",
			Usage:       "repeat on these days: mon,wed or weekdays, weekend, daily",
			Destination: &windowDays,
		},
	)
)

// parseClock parses "HH:MM" in 24 hour form.
func parseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour, err = strconv.Atoi(h); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	if minute, err = strconv.Atoi(m); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// windowParams turns the window flags into a schedule request without the
// tunnel fields.
func windowParams(start, end, at, until, days string) (*common.ScheduleParams, error) {
	p := &common.ScheduleParams{Days: days}
	if days != "" {
		if _, err := vpnsched.ParseDays(days); err != nil {
			return nil, err
		}
	}
	switch {
	case at != "" || until != "":
		if start != "" || end != "" {
			return nil, errors.New("--at/--until cannot be combined with --start/--end")
		}
		c := common.ClockWindow{ConnectHour: -1, DisconnectHour: -1}
		var err error
		if at != "" {
			if c.ConnectHour, c.ConnectMinute, err = parseClock(at); err != nil {
				return nil, err
			}
		}
		if until != "" {
			if c.DisconnectHour, c.DisconnectMinute, err = parseClock(until); err != nil {
				return nil, err
			}
		}
		p.Clock = &c
	case start != "":
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		p.Start = t
		if end != "" {
			if p.End, err = time.Parse(time.RFC3339, end); err != nil {
				return nil, fmt.Errorf("invalid --end: %w", err)
			}
		}
	default:
		return nil, errors.New("either --start or --at/--until is required")
	}
	return p, nil
}

func schedule(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	w, err := windowParams(windowStart, windowEnd, clockAt, clockUntil, windowDays)
	if err != nil {
		return cmdcommon.PrintErrWithCmdHelp(ctx, err)
	}
	p, err := connectParams(ctx)
	if err != nil {
		return cmdcommon.PrintErrWithCmdHelp(ctx, err)
	}
	client, err := newClient()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "schedule", "new_client", err)
		return nil
	}
	defer client.Close()

	var resp *common.ScheduleResponse
	if w.Clock != nil {
		resp, err = client.ScheduleClock(*p, *w.Clock, w.Days)
	} else {
		resp, err = client.Schedule(*p, w.Start, w.End, w.Days)
	}
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "schedule", "schedule", err)
		return nil
	}
	if resp.Immediate {
		fmt.Printf("Window is open, tunnel %q is up (schedule %s).\n", p.Name, resp.ScheduleId)
		return nil
	}
	fmt.Printf("Tunnel %q scheduled (schedule %s).\n", p.Name, resp.ScheduleId)
	return nil
}
