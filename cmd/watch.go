package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	cmdcommon "github.com/warpdl/warpvpn/cmd/common"
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/warpcli"
)

func formatEvent(e *common.EventResponse) string {
	origin := "manual"
	if e.Scheduled {
		origin = "scheduled"
	}
	id := shortID(e.ScheduleId)
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("[%s] %-10s schedule %s (%s)", e.At.Local().Format("15:04:05"), e.Action, id, origin)
}

// listenUntilInterrupted runs client.Listen, disconnecting on SIGINT or
// SIGTERM.
func listenUntilInterrupted(client *warpcli.Client) error {
	sctx, stop := setupShutdownHandler()
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sctx.Done():
			client.Disconnect()
		case <-done:
		}
	}()
	return client.Listen()
}

func watch(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "watch", "new_client", err)
		return nil
	}
	defer client.Close()
	a, err := client.Watch()
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "watch", "watch", err)
		return nil
	}
	fmt.Print(formatActive(a))
	client.AddHandler(common.UPDATE_EVENT, warpcli.NewEventHandler("", func(e *common.EventResponse) error {
		fmt.Println(formatEvent(e))
		return nil
	}))
	if err := listenUntilInterrupted(client); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "watch", "listen", err)
	}
	return nil
}

// windowElapsed returns the elapsed seconds of [start, end) at now, clamped
// to the window.
func windowElapsed(start, end, now time.Time) int64 {
	switch {
	case now.Before(start):
		return 0
	case !now.Before(end):
		return int64(end.Sub(start) / time.Second)
	}
	return int64(now.Sub(start) / time.Second)
}

// followWindow draws the open window of the active schedule until the
// tunnel goes down.
func followWindow(client *warpcli.Client) error {
	a, err := client.Watch()
	if err != nil {
		return err
	}
	s := a.Schedule
	if s == nil || !a.Session.Up || s.DisconnectAt.IsZero() {
		fmt.Print(formatActive(a))
		return nil
	}
	start := s.ConnectAt
	if start.IsZero() {
		start = a.Session.ConnectedAt
	}
	end := s.DisconnectAt

	p := mpb.New(mpb.WithWidth(64), mpb.WithRefreshRate(250*time.Millisecond))
	bar := cmdcommon.InitWindowBar(p, s.Name+" ", end.Sub(start))
	bar.SetCurrent(windowElapsed(start, end, time.Now()))

	stopTicker := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				bar.SetCurrent(windowElapsed(start, end, now))
			case <-stopTicker:
				return
			}
		}
	}()
	client.AddHandler(common.UPDATE_EVENT, warpcli.NewEventHandler(common.EventDisconnect, func(*common.EventResponse) error {
		return warpcli.ErrDisconnect
	}))
	err = listenUntilInterrupted(client)
	close(stopTicker)
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()
	return err
}
