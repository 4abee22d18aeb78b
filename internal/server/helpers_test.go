package server

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/spf13/afero"
	"github.com/warpdl/warpvpn/internal/events"
	"github.com/warpdl/warpvpn/internal/orchestrator"
	"github.com/warpdl/warpvpn/internal/scheduler"
	"github.com/warpdl/warpvpn/internal/transport"
	"github.com/warpdl/warpvpn/pkg/logger"
	"github.com/warpdl/warpvpn/pkg/vpnsched"
)

type testEngine struct {
	o   *orchestrator.Orchestrator
	tr  *transport.Noop
	bus *events.Bus
}

// newTestEngine builds an orchestrator on an in-memory store, the real
// timer service and the noop transport.
func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	kv, err := vpnsched.NewFileKV(afero.NewMemMapFs(), "/state")
	if err != nil {
		t.Fatalf("NewFileKV: %v", err)
	}
	l := logger.NewNopLogger()
	timers := scheduler.New(kv, l)
	t.Cleanup(timers.Stop)
	e := &testEngine{
		tr:  transport.NewNoop(l),
		bus: events.NewBus(l),
	}
	store := vpnsched.NewStore(kv, nil, l)
	e.o = orchestrator.New(store, timers, e.tr, e.bus, l, orchestrator.Config{})
	e.o.Resume(context.Background())
	return e
}

// roundTrip sends req over a pipe to s.handlerWrapper and decodes the
// response.
func roundTrip(t *testing.T, s *Server, req Request) Response {
	t.Helper()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	go func() {
		_ = s.handlerWrapper(context.Background(), NewSyncConn(c1), b)
	}()
	respBytes, err := NewSyncConn(c2).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return resp
}
