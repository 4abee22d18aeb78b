package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/warpdl/warpvpn/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "warpvpn.sock")
}

// forceTCP reports whether WARPVPN_FORCE_TCP asks for the TCP listener.
func forceTCP() bool {
	switch strings.ToLower(os.Getenv(common.ForceTCPEnv)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
