package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps flashes in process memory; entries expire after ttl.
type MemoryStore struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Push(_ context.Context, sid string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []Message
	if v, ok := s.cache.Get(sid); ok {
		pending = v.([]Message)
	}
	next := make([]Message, 0, len(pending)+1)
	next = append(next, pending...)
	s.cache.SetDefault(sid, append(next, msg))
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, sid string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(sid)
	if !ok {
		return nil, nil
	}
	s.cache.Delete(sid)
	return v.([]Message), nil
}
