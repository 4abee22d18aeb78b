//go:build windows

package warpcli

import "github.com/warpdl/warpvpn/common"

func pipePath() string {
	return common.PipePath()
}
