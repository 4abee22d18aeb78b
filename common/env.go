// Package common provides shared types and constants used across the
// warpvpn client-server communication layer.
package common

import "time"

// Environment variable names for configuration.
const (
	// SocketPathEnv is the environment variable for custom socket path.
	SocketPathEnv = "WARPVPN_SOCKET_PATH"

	// TCPPortEnv is the environment variable for custom TCP port.
	TCPPortEnv = "WARPVPN_TCP_PORT"

	// ForceTCPEnv is the environment variable to force TCP connections.
	ForceTCPEnv = "WARPVPN_FORCE_TCP"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "WARPVPN_DEBUG"

	// PipeNameEnv overrides the Windows named pipe name.
	PipeNameEnv = "WARPVPN_PIPE_NAME"

	// ConfigDirEnv overrides the directory holding the config file,
	// the state database and the credentials key.
	ConfigDirEnv = "WARPVPN_CONFIG_DIR"

	// BypassEnv carries the comma separated bypass list to the tunnel
	// client process.
	BypassEnv = "WARPVPN_BYPASS"

	// ProfileEnv carries the tunnel profile name to the tunnel client
	// process.
	ProfileEnv = "WARPVPN_PROFILE"
)

const (
	// TCPHost is the loopback address used by the TCP fallback.
	TCPHost = "127.0.0.1"
	// DefaultTCPPort is the TCP fallback port when TCPPortEnv is unset.
	DefaultTCPPort = 3850
	// DefaultRPCPort is the JSON-RPC HTTP port.
	DefaultRPCPort = 3851
	// MaxMessageSize caps a single framed socket message.
	MaxMessageSize = 4 << 20
	// DefaultDialTimeout bounds client connection attempts.
	DefaultDialTimeout = 3 * time.Second
)
