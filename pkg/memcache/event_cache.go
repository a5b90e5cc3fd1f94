// pkg/memcache/event_cache.go
package memcache

import (
	"sync"
	"time"
)

// EventCache remembers recently processed webhook event ids so redeliveries
// can be acknowledged without a DB round trip. The persisted dedupe table is
// still authoritative; this only serves as a fast path for hot replays.
type EventCache interface {
	MarkSeen(eventID string, ttl time.Duration)

	// Seen reports whether eventID was marked within its TTL.
	Seen(eventID string) bool
}

type entry struct {
	expiresAt time.Time
}

type EventIDCache struct {
	mu   sync.RWMutex
	data map[string]entry
}

func NewEventIDCache() *EventIDCache {
	return &EventIDCache{
		data: make(map[string]entry),
	}
}

func (s *EventIDCache) MarkSeen(eventID string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[eventID] = entry{expiresAt: time.Now().Add(ttl)}

	// Opportunistic sweep so the map does not grow without bound.
	if len(s.data) > 4096 {
		now := time.Now()
		for k, e := range s.data {
			if now.After(e.expiresAt) {
				delete(s.data, k)
			}
		}
	}
}

func (s *EventIDCache) Seen(eventID string) bool {
	s.mu.RLock()
	e, ok := s.data[eventID]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.data, eventID)
		s.mu.Unlock()
		return false
	}
	return true
}
