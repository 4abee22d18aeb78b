//go:build windows

package warpcli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/warpdl/warpvpn/common"
)

// dialPipeFunc is swapped by tests.
var dialPipeFunc = func(path string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, path)
}

// dial connects over the named pipe, falling back to TCP.
func dial() (net.Conn, error) {
	if forceTCP() {
		return dialFunc("tcp", tcpAddress())
	}
	path := pipePath()
	debugLog("Attempting connection via named pipe at %s", path)
	conn, pipeErr := dialPipeFunc(path, common.DefaultDialTimeout)
	if pipeErr == nil {
		return conn, nil
	}
	debugLog("Named pipe connection failed: %v, falling back to TCP", pipeErr)
	conn, err := dialFunc("tcp", tcpAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: named pipe error: %v; tcp error: %w", pipeErr, err)
	}
	return conn, nil
}
