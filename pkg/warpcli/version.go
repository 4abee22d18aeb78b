package warpcli

import (
	"fmt"
	"os"
)

// VersionCheckEnv suppresses version mismatch warnings when set.
const VersionCheckEnv = "WARPVPN_SUPPRESS_VERSION_CHECK"

// CheckVersionMismatch warns on stderr when the daemon runs a different
// version than expectedVersion. It never fails the caller.
func (c *Client) CheckVersionMismatch(expectedVersion string) {
	if expectedVersion == "" || os.Getenv(VersionCheckEnv) != "" {
		return
	}
	daemonVersion, err := c.GetDaemonVersion()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not verify daemon version: %v\n", err)
		return
	}
	if daemonVersion.Version != expectedVersion {
		fmt.Fprintf(os.Stderr, "Warning: CLI version (%s) differs from daemon version (%s)\n",
			expectedVersion, daemonVersion.Version)
		fmt.Fprintf(os.Stderr, "Run 'warpvpn stop-daemon' to restart the daemon with the new version.\n")
	}
}
