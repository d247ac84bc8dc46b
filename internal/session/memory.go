package session

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"
)

type memoryEntry struct {
	values  map[string]json.RawMessage
	expires time.Time
}

// MemoryStore keeps sessions in process memory. Entries expire after ttl.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	return maps.Clone(e.values), nil
}

// Save implements Store. Saving refreshes the expiry.
func (m *MemoryStore) Save(_ context.Context, id string, values map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{values: maps.Clone(values), expires: m.now().Add(m.ttl)}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
