package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/yourorg/libralend/pkg/cache"
)

// MemoryStore keeps sessions in a TTL cache inside the process
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-process session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New()}
}

func (s *MemoryStore) Put(_ context.Context, token string, session *Session, ttl time.Duration) error {
	s.cache.Set(token, session, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	value, ok := s.cache.Get(token)
	if !ok {
		return nil, ErrInvalidSession
	}
	session, ok := value.(*Session)
	if !ok {
		return nil, fmt.Errorf("unexpected session entry type: %w", ErrInvalidSession)
	}
	return session, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.cache.Delete(token)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
