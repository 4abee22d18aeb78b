package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/internal/orchestrator"
	"github.com/warpdl/warpvpn/pkg/logger"
)

// WebServer hosts the JSON-RPC endpoint: plain HTTP on /jsonrpc and a
// push-capable websocket on /jsonrpc/ws. Both require the bearer secret.
type WebServer struct {
	port      int
	listenAll bool
	l         logger.Logger
	rpc       *RPCServer
	server    *http.Server
	mu        sync.Mutex
}

// NewWebServer returns a web server for cfg. RPC stays disabled when cfg
// is nil or carries no secret.
func NewWebServer(l logger.Logger, o *orchestrator.Orchestrator, cfg *RPCConfig) *WebServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	ws := &WebServer{l: l}
	if cfg != nil {
		ws.port = cfg.Port
		ws.listenAll = cfg.ListenAll
		if cfg.Secret != "" {
			ws.rpc = NewRPCServer(cfg, o, l)
		}
	}
	return ws
}

// Enabled reports whether the JSON-RPC endpoint is served.
func (s *WebServer) Enabled() bool { return s.rpc != nil }

// Notifier returns the websocket push notifier, or nil when RPC is
// disabled.
func (s *WebServer) Notifier() *RPCNotifier {
	if s.rpc == nil {
		return nil
	}
	return s.rpc.notifier
}

func (s *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.l.Error("websocket accept: %v", err)
		return
	}
	conn.SetReadLimit(common.MaxMessageSize)
	srv := jrpc2.NewServer(s.rpc.methods, &jrpc2.ServerOptions{AllowPush: true})
	s.rpc.notifier.Register(srv)
	defer s.rpc.notifier.Unregister(srv)
	srv.Start(&wsChannel{conn: conn, ctx: r.Context()})
	_ = srv.Wait()
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	if s.rpc == nil {
		mux.HandleFunc("/", http.NotFound)
		return mux
	}
	mux.Handle("/jsonrpc", requireToken(s.rpc.secret, s.rpc.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(s.rpc.secret, http.HandlerFunc(s.handleWebSocket)))
	return mux
}

func (s *WebServer) addr() string {
	if s.listenAll {
		return fmt.Sprintf(":%d", s.port)
	}
	return fmt.Sprintf("%s:%d", common.TCPHost, s.port)
}

// Start serves until Shutdown. It returns immediately when RPC is
// disabled.
func (s *WebServer) Start() error {
	if s.rpc == nil {
		return nil
	}
	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: s.handler(),
	}
	srv := s.server
	s.mu.Unlock()

	s.l.Info("JSON-RPC listening on %s", srv.Addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rpc != nil {
		s.rpc.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
