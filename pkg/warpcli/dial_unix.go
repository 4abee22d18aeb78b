//go:build !windows

package warpcli

import (
	"fmt"
	"net"
)

// dial connects over the unix socket, falling back to TCP.
func dial() (net.Conn, error) {
	if forceTCP() {
		debugLog("Connecting via TCP to %s", tcpAddress())
		return dialFunc("tcp", tcpAddress())
	}
	debugLog("Attempting connection via Unix socket at %s", socketPath())
	conn, unixErr := dialFunc("unix", socketPath())
	if unixErr == nil {
		return conn, nil
	}
	debugLog("Unix socket connection failed: %v, falling back to TCP", unixErr)
	conn, err := dialFunc("tcp", tcpAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: unix socket error: %v; tcp error: %w", unixErr, err)
	}
	debugLog("Connected via TCP fallback to %s", tcpAddress())
	return conn, nil
}
