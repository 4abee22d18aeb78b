package server

import (
	"sync"

	"github.com/warpdl/warpvpn/pkg/logger"
)

// Pool holds the connections that asked to watch tunnel events.
type Pool struct {
	mu       sync.RWMutex
	watchers map[*SyncConn]struct{}
	l        logger.Logger
}

func NewPool(l logger.Logger) *Pool {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Pool{
		watchers: make(map[*SyncConn]struct{}),
		l:        l,
	}
}

// Watch adds conn to the broadcast set. Adding it twice is a no-op.
func (p *Pool) Watch(conn *SyncConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchers[conn] = struct{}{}
}

// Remove drops conn from the broadcast set without closing it.
func (p *Pool) Remove(conn *SyncConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.watchers, conn)
}

// Broadcast writes data to every watcher and returns how many received it.
// Watchers that fail are closed and dropped.
func (p *Pool) Broadcast(data []byte) int {
	p.mu.RLock()
	conns := make([]*SyncConn, 0, len(p.watchers))
	for c := range p.watchers {
		conns = append(conns, c)
	}
	p.mu.RUnlock()

	var failed []*SyncConn
	for _, c := range conns {
		if err := c.Write(data); err != nil {
			p.l.Warning("watcher write failed: %v", err)
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		p.mu.Lock()
		for _, c := range failed {
			delete(p.watchers, c)
			_ = c.Conn.Close()
		}
		p.mu.Unlock()
	}
	return len(conns) - len(failed)
}

func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.watchers)
}
