package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/logger"
)

// Argument placeholders substituted in Exec.Args.
const (
	PlaceholderConfig = "{config}"
	PlaceholderAuth   = "{auth}"
)

// DefaultArgs runs an OpenVPN-compatible client.
var DefaultArgs = []string{"--config", PlaceholderConfig, "--auth-user-pass", PlaceholderAuth}

// Exec runs an external tunnel client. The config is written to a private
// temp directory together with a 0600 auth file holding the credentials.
// The bypass list reaches the client through the WARPVPN_BYPASS env var.
type Exec struct {
	Binary string
	Args   []string
	// StartGrace is how long Start waits for an early exit before
	// reporting the tunnel as up.
	StartGrace time.Duration
	// StopTimeout bounds the wait for a graceful exit before killing.
	StopTimeout time.Duration

	l logger.Logger

	mu   sync.Mutex
	proc *process
}

type process struct {
	cmd  *exec.Cmd
	dir  string
	done chan struct{}
	err  error
}

// NewExec creates an Exec transport running binary with args. Empty args
// select DefaultArgs.
func NewExec(binary string, args []string, l logger.Logger) *Exec {
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &Exec{
		Binary:      binary,
		Args:        args,
		StartGrace:  500 * time.Millisecond,
		StopTimeout: 5 * time.Second,
		l:           l,
	}
}

func (e *Exec) Start(ctx context.Context, req TunnelRequest) error {
	if err := e.Stop(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		e.l.Warning("exec transport: stopping previous tunnel: %v", err)
	}

	dir, err := os.MkdirTemp("", "warpvpn-")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	configPath := filepath.Join(dir, "tunnel.conf")
	if err := os.WriteFile(configPath, []byte(req.Config), 0600); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("%w: write config: %v", ErrTransport, err)
	}
	authPath := ""
	if req.Username != "" || req.Password != "" {
		authPath = filepath.Join(dir, "auth.txt")
		if err := os.WriteFile(authPath, []byte(req.Username+"\n"+req.Password+"\n"), 0600); err != nil {
			os.RemoveAll(dir)
			return fmt.Errorf("%w: write credentials: %v", ErrTransport, err)
		}
	}

	cmd := exec.Command(e.Binary, e.expandArgs(configPath, authPath)...)
	cmd.Env = append(os.Environ(),
		common.BypassEnv+"="+strings.Join(req.BypassList, ","),
		common.ProfileEnv+"="+req.Name,
	)
	out := logger.ToStdLogger(e.l).Writer()
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Start(); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}

	p := &process{cmd: cmd, dir: dir, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		os.RemoveAll(dir)
		close(p.done)
	}()

	select {
	case <-p.done:
		return fmt.Errorf("%w: %s exited during startup: %v", ErrTransport, e.Binary, p.err)
	case <-time.After(e.StartGrace):
	case <-ctx.Done():
		p.cmd.Process.Kill()
		<-p.done
		return ctx.Err()
	}

	e.mu.Lock()
	e.proc = p
	e.mu.Unlock()
	e.l.Info("exec transport: tunnel %q up (pid %d, bypass %d)", req.Name, cmd.Process.Pid, len(req.BypassList))
	return nil
}

// expandArgs substitutes placeholders. Without credentials the auth
// placeholder and the flag before it are dropped.
func (e *Exec) expandArgs(configPath, authPath string) []string {
	args := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		switch a {
		case PlaceholderConfig:
			args = append(args, configPath)
		case PlaceholderAuth:
			if authPath == "" {
				if n := len(args); n > 0 && strings.HasPrefix(args[n-1], "-") {
					args = args[:n-1]
				}
				continue
			}
			args = append(args, authPath)
		default:
			args = append(args, a)
		}
	}
	return args
}

func (e *Exec) Stop(ctx context.Context) error {
	e.mu.Lock()
	p := e.proc
	e.proc = nil
	e.mu.Unlock()
	if p == nil {
		return ErrNoSession
	}
	select {
	case <-p.done:
		return ErrNoSession
	default:
	}

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		// no interrupt on windows
		p.cmd.Process.Kill()
	}
	timer := time.NewTimer(e.StopTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		p.cmd.Process.Kill()
		<-p.done
	case <-ctx.Done():
		p.cmd.Process.Kill()
		<-p.done
	}
	e.l.Info("exec transport: tunnel down")
	return nil
}

// Up reports whether the client process is running.
func (e *Exec) Up() bool {
	e.mu.Lock()
	p := e.proc
	e.mu.Unlock()
	if p == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

var _ Transport = (*Exec)(nil)
