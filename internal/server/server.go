package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/logger"
)

// Server serves the framed socket protocol used by the CLI. Requests are
// dispatched to registered handlers; watcher connections are kept in the
// pool and receive event updates.
type Server struct {
	log      logger.Logger
	pool     *Pool
	ws       *WebServer
	handler  map[common.UpdateType]HandlerFunc
	port     int
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a Server. port is the TCP fallback port. ws may be nil
// when the JSON-RPC endpoint is disabled.
func NewServer(l logger.Logger, port int, ws *WebServer) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{
		log:     l,
		pool:    NewPool(l),
		handler: make(map[common.UpdateType]HandlerFunc),
		port:    port,
		ws:      ws,
	}
}

// RegisterHandler binds method to handler.
func (s *Server) RegisterHandler(method common.UpdateType, handler HandlerFunc) {
	s.handler[method] = handler
}

// Pool returns the watcher pool.
func (s *Server) Pool() *Pool { return s.pool }

// Start listens and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.ws != nil {
		go func() {
			if err := s.ws.Start(); err != nil {
				s.log.Error("web server: %v", err)
			}
		}()
	}

	l, err := s.createListener()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.log.Info("listening on %s", l.Addr())

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("error accepting: %v", err)
			continue
		}
		go s.handleConnection(ctx, conn)
	}
}

// Shutdown closes the listener, stops the web server and removes the
// socket file.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("error closing listener: %v", err)
		}
		s.listener = nil
	}

	if s.ws != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.ws.Shutdown(shutdownCtx); err != nil {
			s.log.Error("error shutting down web server: %v", err)
		}
	}

	if err := cleanupSocket(); err != nil {
		s.log.Error("error removing socket file: %v", err)
	}
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	sconn := NewSyncConn(conn)
	defer func() {
		s.pool.Remove(sconn)
		_ = conn.Close()
	}()
	for {
		buf, err := sconn.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Error("error reading: %v", err)
			}
			return
		}
		if err := s.handlerWrapper(ctx, sconn, buf); err != nil {
			s.log.Error("error handling: %v", err)
			return
		}
	}
}

func (s *Server) handlerWrapper(ctx context.Context, sconn *SyncConn, b []byte) error {
	req, err := ParseRequest(b)
	if err != nil {
		return fmt.Errorf("error parsing request: %w", err)
	}
	rHandler, ok := s.handler[req.Method]
	if !ok {
		if err := sconn.Write(CreateError("unknown method: " + string(req.Method))); err != nil {
			return fmt.Errorf("error writing response: %w", err)
		}
		return nil
	}
	utype, msg, err := rHandler(ctx, sconn, s.pool, req.Message)
	if err != nil {
		if err := sconn.Write(InitError(err)); err != nil {
			return fmt.Errorf("error writing response: %w", err)
		}
		return nil
	}
	if err := sconn.Write(MakeResult(utype, msg)); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}
