package session

import (
	"context"
	"sync"
	"time"
)

// Store tracks live session ids so a signed token can be revoked before it expires.
type Store interface {
	Create(ctx context.Context, id string, employeeID int64, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, id string, _ int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, expires := range m.sessions {
		if !now.Before(expires) {
			delete(m.sessions, key)
		}
	}
	m.sessions[id] = now.Add(ttl)
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expires, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expires) {
		delete(m.sessions, id)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
