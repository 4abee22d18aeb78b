package transport

import (
	"context"
	"sync"

	"github.com/warpdl/warpvpn/pkg/logger"
)

// Noop tracks tunnel state without touching the network. It backs dry
// runs (transport.kind: noop) and tests.
type Noop struct {
	mu     sync.Mutex
	l      logger.Logger
	up     bool
	starts []TunnelRequest
	stops  int

	// StartErr, when set, is returned by every Start.
	StartErr error
	// StopErr, when set, is returned by every Stop.
	StopErr error
}

func NewNoop(l logger.Logger) *Noop {
	return &Noop{l: l}
}

func (n *Noop) Start(_ context.Context, req TunnelRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.starts = append(n.starts, req)
	if n.StartErr != nil {
		return n.StartErr
	}
	n.up = true
	n.l.Info("noop transport: tunnel %q up (bypass %d)", req.Name, len(req.BypassList))
	return nil
}

func (n *Noop) Stop(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stops++
	if n.StopErr != nil {
		return n.StopErr
	}
	if !n.up {
		return ErrNoSession
	}
	n.up = false
	n.l.Info("noop transport: tunnel down")
	return nil
}

// Up reports whether a tunnel is up.
func (n *Noop) Up() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.up
}

// Starts returns every Start request received.
func (n *Noop) Starts() []TunnelRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]TunnelRequest(nil), n.starts...)
}

// Stops returns the number of Stop calls received.
func (n *Noop) Stops() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stops
}

var _ Transport = (*Noop)(nil)
