package warpcli

import (
	"net"
	"testing"

	"github.com/warpdl/warpvpn/common"
)

func TestGetDaemonVersion(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	client := NewClientForTesting(c1)
	defer client.Close()

	go func() {
		req := readRequest(t, c2)
		if req.Method != common.UPDATE_VERSION {
			t.Errorf("unexpected method %q", req.Method)
		}
		reply(t, c2, okUpdate(common.UPDATE_VERSION, `{"version":"1.2.0","commit":"abc","build_type":"release"}`))
	}()
	v, err := client.GetDaemonVersion()
	if err != nil {
		t.Fatalf("GetDaemonVersion: %v", err)
	}
	if v.Version != "1.2.0" || v.BuildType != "release" {
		t.Fatalf("unexpected version %+v", v)
	}
}

func TestCheckVersionMismatch_Suppressed(t *testing.T) {
	c1, c2 := net.Pipe()
	c2.Close()
	client := NewClientForTesting(c1)
	defer client.Close()

	t.Setenv(VersionCheckEnv, "1")
	// the closed peer would fail any request
	client.CheckVersionMismatch("1.0.0")
	client.CheckVersionMismatch("")
}

func TestCheckVersionMismatch_Queries(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	client := NewClientForTesting(c1)
	defer client.Close()
	t.Setenv(VersionCheckEnv, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		readRequest(t, c2)
		reply(t, c2, okUpdate(common.UPDATE_VERSION, `{"version":"2.0.0"}`))
	}()
	client.CheckVersionMismatch("1.0.0")
	<-done
}
