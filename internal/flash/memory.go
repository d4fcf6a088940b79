package flash

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	msg     Message
	expires time.Time
}

// MemoryStore keeps messages in process. Suitable for a single instance.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memEntry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Put(_ context.Context, sid string, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[sid] = memEntry{msg: m, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, sid string) (Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if !ok {
		return Message{}, false, nil
	}
	delete(s.entries, sid)
	if !s.now().Before(e.expires) {
		return Message{}, false, nil
	}
	return e.msg, true, nil
}

// sweep drops expired entries. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for sid, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, sid)
		}
	}
}
