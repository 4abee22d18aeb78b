// Package transport brings the VPN tunnel up and down. The scheduling
// engine only decides when; implementations here decide how.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/warpdl/warpvpn/pkg/logger"
)

var (
	// ErrNoSession is returned by Stop when no tunnel is up. Callers
	// treat it as success.
	ErrNoSession = errors.New("transport: no active session")
	// ErrTransport wraps start failures.
	ErrTransport = errors.New("transport: tunnel failure")
)

// TunnelRequest is everything needed to bring a tunnel up.
type TunnelRequest struct {
	ScheduleID string
	Config     string
	Name       string
	Username   string
	// Password is sensitive and must never be logged.
	Password   string
	BypassList []string
}

// Transport is the tunnel backend.
type Transport interface {
	// Start brings the tunnel up, replacing any tunnel already up.
	Start(ctx context.Context, req TunnelRequest) error
	// Stop tears the tunnel down. It returns ErrNoSession when nothing
	// is up.
	Stop(ctx context.Context) error
}

// New builds the transport named by kind ("exec" or "noop").
func New(kind, binary string, args []string, l logger.Logger) (Transport, error) {
	switch kind {
	case "", "exec":
		if binary == "" {
			binary = "openvpn"
		}
		return NewExec(binary, args, l), nil
	case "noop":
		return NewNoop(l), nil
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", kind)
	}
}
