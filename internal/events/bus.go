// Package events is the in-process bus the orchestrator publishes tunnel
// status changes on. Subscribers are the socket watchers and the JSON-RPC
// push notifier.
package events

import (
	"sync"
	"time"

	"github.com/warpdl/warpvpn/pkg/logger"
)

// Type is the kind of status change.
type Type string

const (
	Connect    Type = "connect"
	Disconnect Type = "disconnect"
)

// Event is a single status change.
type Event struct {
	Type Type      `json:"type"`
	At   time.Time `json:"at"`
	// ScheduleID is the schedule that caused the change, if any.
	ScheduleID string `json:"schedule_id,omitempty"`
	// Scheduled distinguishes a scheduler-driven disconnect from a
	// manual one.
	Scheduled bool `json:"scheduled"`
}

// Bus fans events out to subscribers without blocking the publisher. A
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	l      logger.Logger
}

// NewBus creates a Bus with no subscribers.
func NewBus(l logger.Logger) *Bus {
	return &Bus{
		subs: make(map[uint64]chan Event),
		l:    l,
	}
}

// Publish delivers e to every subscriber. A zero At is set to now.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.l.Warning("event bus: subscriber %d is slow, dropped %s event", id, e.Type)
		}
	}
}

// Subscribe registers a subscriber with the given channel buffer. The
// returned cancel func unregisters it and closes the channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Count returns the number of subscribers.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
