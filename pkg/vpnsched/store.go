package vpnsched

import (
	"fmt"
	"sync"

	"github.com/warpdl/warpvpn/pkg/logger"
)

// Store is CRUD over the persisted schedule set. It holds no business
// logic and no cached state: every call reads through to the KV.
type Store struct {
	mu     sync.Mutex
	kv     KV
	sealer Sealer
	l      logger.Logger
}

// NewStore creates a Store over kv. sealer may be nil, in which case
// passwords are persisted as given.
func NewStore(kv KV, sealer Sealer, l logger.Logger) *Store {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Store{kv: kv, sealer: sealer, l: l}
}

// KV returns the backing persistent store.
func (s *Store) KV() KV { return s.kv }

// List returns every stored schedule. Read and decode failures are logged
// and yield an empty list.
func (s *Store) List() []*Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() []*Schedule {
	b, ok, err := s.kv.Get(KeySchedules)
	if err != nil {
		s.l.Error("schedule store: %v", err)
		return []*Schedule{}
	}
	if !ok || len(b) == 0 {
		return []*Schedule{}
	}
	list, err := DecodeSchedules(b, s.sealer)
	if err != nil {
		s.l.Warning("schedule store: discarding unreadable schedules: %v", err)
		return []*Schedule{}
	}
	return list
}

func (s *Store) save(list []*Schedule) error {
	b, err := EncodeSchedules(list, s.sealer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return s.kv.Put(KeySchedules, b)
}

// Get returns the schedule with id or ErrScheduleNotFound.
func (s *Store) Get(id string) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.load() {
		if sc.ID == id {
			return sc, nil
		}
	}
	return nil, ErrScheduleNotFound
}

// Upsert replaces the schedule with the same id or appends it.
func (s *Store) Upsert(sc *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load()
	replaced := false
	for i, old := range list {
		if old.ID == sc.ID {
			list[i] = sc.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, sc.Clone())
	}
	return s.save(list)
}

// Remove deletes id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load()
	out := list[:0]
	for _, sc := range list {
		if sc.ID != id {
			out = append(out, sc)
		}
	}
	if len(out) == len(list) {
		return nil
	}
	return s.save(out)
}

// Clear removes every schedule.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(nil)
}

// SuppressDisconnect reports the persisted suppress-disconnect flag.
func (s *Store) SuppressDisconnect() bool {
	b, ok, err := s.kv.Get(KeySuppressDisconnect)
	if err != nil {
		s.l.Error("schedule store: %v", err)
		return false
	}
	return ok && len(b) == 1 && b[0] == 1
}

// SetSuppressDisconnect persists the suppress-disconnect flag.
func (s *Store) SetSuppressDisconnect(v bool) error {
	var b byte
	if v {
		b = 1
	}
	return s.kv.Put(KeySuppressDisconnect, []byte{b})
}

// Notification returns the stored notification parameters, or
// DefaultNotification when none are stored or they cannot be read.
func (s *Store) Notification() NotificationParams {
	b, ok, err := s.kv.Get(KeyNotification)
	if err != nil || !ok {
		return DefaultNotification
	}
	p, err := decodeNotification(b)
	if err != nil {
		s.l.Warning("schedule store: discarding unreadable notification params: %v", err)
		return DefaultNotification
	}
	return p
}

// SetNotification persists the notification parameters.
func (s *Store) SetNotification(p NotificationParams) error {
	return s.kv.Put(KeyNotification, encodeNotification(p))
}
