package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	domain "github.com/pactguard/pactguard/internal/domain/session"
)

// MemoryStore keeps the latest analysis per session in a bounded LRU with a
// TTL. Safe for concurrent use; each key is its own slot.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](capacity, nil, ttl)}
}

func (m *MemoryStore) Put(_ context.Context, sessionID string, payload []byte) error {
	m.cache.Add(sessionID, append([]byte(nil), payload...))
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) ([]byte, error) {
	v, ok := m.cache.Get(sessionID)
	if !ok {
		return nil, domain.ErrEmpty
	}
	return append([]byte(nil), v...), nil
}
