//go:build windows

package server

import (
	"github.com/warpdl/warpvpn/common"
)

// pipePath returns the named pipe the daemon listens on.
func pipePath() string {
	return common.PipePath()
}
