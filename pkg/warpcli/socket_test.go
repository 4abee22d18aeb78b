package warpcli

import (
	"testing"

	"github.com/warpdl/warpvpn/common"
)

func TestTCPPort(t *testing.T) {
	tests := map[string]int{
		"":      common.DefaultTCPPort,
		"4000":  4000,
		"0":     common.DefaultTCPPort,
		"70000": common.DefaultTCPPort,
		"abc":   common.DefaultTCPPort,
	}
	for env, want := range tests {
		t.Run("port="+env, func(t *testing.T) {
			t.Setenv(common.TCPPortEnv, env)
			if got := tcpPort(); got != want {
				t.Fatalf("tcpPort() = %d, want %d", got, want)
			}
		})
	}
}

func TestForceTCP(t *testing.T) {
	for env, want := range map[string]bool{"": false, "1": true, "TRUE": true, "yes": true, "0": false} {
		t.Setenv(common.ForceTCPEnv, env)
		if got := forceTCP(); got != want {
			t.Errorf("forceTCP() with %q = %v, want %v", env, got, want)
		}
	}
}

func TestTCPAddress(t *testing.T) {
	t.Setenv(common.TCPPortEnv, "4100")
	if got := tcpAddress(); got != "127.0.0.1:4100" {
		t.Fatalf("tcpAddress() = %q", got)
	}
}
