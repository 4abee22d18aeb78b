//go:build !windows

package transport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpdl/warpvpn/pkg/logger"
)

func shellExec(t *testing.T, script string) *Exec {
	t.Helper()
	e := NewExec("sh", []string{"-c", script, PlaceholderConfig, PlaceholderAuth}, logger.NewNopLogger())
	e.StartGrace = 200 * time.Millisecond
	e.StopTimeout = 2 * time.Second
	return e
}

func TestExec_StartWritesPrivateFiles(t *testing.T) {
	out := t.TempDir()
	e := shellExec(t, `cp "$0" "$OUT/config"; cp "$1" "$OUT/auth"; echo "$WARPVPN_BYPASS" > "$OUT/bypass"; exec sleep 30`)
	t.Setenv("OUT", out)

	err := e.Start(context.Background(), TunnelRequest{
		Config:     "remote vpn.example 1194",
		Name:       "office",
		Username:   "alice",
		Password:   "hunter2",
		BypassList: []string{"10.0.0.0/8", "bank.example"},
	})
	require.NoError(t, err)
	assert.True(t, e.Up())

	cfg, err := os.ReadFile(filepath.Join(out, "config"))
	require.NoError(t, err)
	assert.Equal(t, "remote vpn.example 1194", string(cfg))
	auth, err := os.ReadFile(filepath.Join(out, "auth"))
	require.NoError(t, err)
	assert.Equal(t, "alice\nhunter2\n", string(auth))
	bypass, err := os.ReadFile(filepath.Join(out, "bypass"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8,bank.example", strings.TrimSpace(string(bypass)))

	require.NoError(t, e.Stop(context.Background()))
	assert.False(t, e.Up())
	assert.ErrorIs(t, e.Stop(context.Background()), ErrNoSession)
}

func TestExec_EarlyExitIsTransportError(t *testing.T) {
	e := shellExec(t, "exit 3")
	err := e.Start(context.Background(), TunnelRequest{Config: "cfg"})
	assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
	assert.False(t, e.Up())
}

func TestExec_MissingBinary(t *testing.T) {
	e := NewExec(filepath.Join(t.TempDir(), "no-such-client"), nil, logger.NewNopLogger())
	err := e.Start(context.Background(), TunnelRequest{Config: "cfg"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestExec_StartReplacesRunningTunnel(t *testing.T) {
	e := shellExec(t, "exec sleep 30")
	require.NoError(t, e.Start(context.Background(), TunnelRequest{Config: "a"}))
	first := e.proc
	require.NoError(t, e.Start(context.Background(), TunnelRequest{Config: "b"}))
	select {
	case <-first.done:
	case <-time.After(time.Second):
		t.Fatal("previous tunnel process still running")
	}
	require.NoError(t, e.Stop(context.Background()))
}

func TestExec_ExpandArgs(t *testing.T) {
	e := NewExec("openvpn", nil, logger.NewNopLogger())
	assert.Equal(t, []string{"--config", "/c", "--auth-user-pass", "/a"}, e.expandArgs("/c", "/a"))
	assert.Equal(t, []string{"--config", "/c"}, e.expandArgs("/c", ""))
}
