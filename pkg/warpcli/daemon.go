package warpcli

import (
	"fmt"
	"net"
	"os"
	"time"
)

// NoSpawnEnv stops NewClient from starting a daemon when none answers.
const NoSpawnEnv = "WARPVPN_NO_SPAWN"

const (
	daemonStartTimeout = 3 * time.Second
	socketPollInterval = 50 * time.Millisecond
)

var spawnFunc = spawnDaemon

// ensureDaemon dials the daemon, spawning it first if nothing answers.
func ensureDaemon() (net.Conn, error) {
	conn, err := dial()
	if err == nil {
		return conn, nil
	}
	if os.Getenv(NoSpawnEnv) != "" {
		return nil, err
	}
	debugLog("daemon not reachable (%v), spawning it", err)
	if err := spawnFunc(); err != nil {
		return nil, err
	}
	return waitForDaemon(daemonStartTimeout)
}

// waitForDaemon polls until a dial succeeds or timeout expires.
func waitForDaemon(timeout time.Duration) (net.Conn, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if conn, err := dial(); err == nil {
			return conn, nil
		}
		time.Sleep(socketPollInterval)
	}
	return nil, fmt.Errorf("daemon failed to start within %v", timeout)
}
