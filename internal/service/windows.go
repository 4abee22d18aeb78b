//go:build windows

package service

import (
	"context"
	"time"

	"github.com/warpdl/warpvpn/pkg/logger"
	"golang.org/x/sys/windows/svc"
)

// DefaultName is the service name registered with the SCM.
const DefaultName = "WarpVPN"

const acceptedCommands = svc.AcceptStop | svc.AcceptShutdown

// stopWait bounds how long a stop request waits for the runner to return.
var stopWait = 15 * time.Second

// Runner is the daemon lifecycle driven by the SCM.
type Runner interface {
	Start(ctx context.Context) error
	Shutdown() error
	IsRunning() bool
}

// Handler implements svc.Handler over a Runner.
type Handler struct {
	runner Runner
	log    logger.Logger
}

func NewHandler(runner Runner, l logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Handler{runner: runner, log: l}
}

// Run blocks serving SCM requests for the named service.
func Run(name string, runner Runner, l logger.Logger) error {
	return svc.Run(name, NewHandler(runner, l))
}

// Execute follows StartPending, Running, StopPending, Stopped. The daemon
// reads its configuration from files, so service arguments are ignored.
func (h *Handler) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	status <- svc.Status{State: svc.StartPending}
	h.log.Info("WarpVPN service starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.runner.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			h.log.Error("Failed to start WarpVPN service: %v", err)
			status <- svc.Status{State: svc.Stopped}
			return false, 1
		}
		status <- svc.Status{State: svc.Stopped}
		return false, 0
	case <-time.After(50 * time.Millisecond):
	}

	status <- svc.Status{State: svc.Running, Accepts: acceptedCommands}
	h.log.Info("WarpVPN service started")

	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return false, 0
			}
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				return h.stop(status, cancel, done)
			}
		case err := <-done:
			// idle exit or serve failure
			status <- svc.Status{State: svc.Stopped}
			if err != nil && ctx.Err() == nil {
				h.log.Error("WarpVPN daemon stopped: %v", err)
				return false, 1
			}
			return false, 0
		}
	}
}

func (h *Handler) stop(status chan<- svc.Status, cancel context.CancelFunc, done <-chan error) (bool, uint32) {
	h.log.Info("WarpVPN service stopping...")
	status <- svc.Status{State: svc.StopPending}

	err := h.runner.Shutdown()
	cancel()
	select {
	case <-done:
	case <-time.After(stopWait):
		h.log.Warning("WarpVPN daemon did not stop within %v", stopWait)
	}
	status <- svc.Status{State: svc.Stopped}
	if err != nil {
		h.log.Error("Error during service shutdown: %v", err)
		return false, 1
	}
	h.log.Info("WarpVPN service stopped")
	return false, 0
}
