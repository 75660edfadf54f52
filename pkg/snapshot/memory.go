package snapshot

import (
	"context"
	"sync"
	"time"

	"oneramp-rates/pkg/types"
)

// MemoryStore is an in-process snapshot store
type MemoryStore struct {
	mu           sync.RWMutex
	latest       map[string]memoryEntry
	history      map[string][]types.SnapshotRecord
	ttl          time.Duration
	historyLimit int
	now          func() time.Time
}

type memoryEntry struct {
	value     types.ExchangeRateSnapshot
	expiresAt time.Time
}

// NewMemoryStore creates a memory store with the given TTL
func NewMemoryStore(ttl time.Duration, historyLimit int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &MemoryStore{
		latest:       make(map[string]memoryEntry),
		history:      make(map[string][]types.SnapshotRecord),
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Get returns the latest unexpired snapshot for pair
func (m *MemoryStore) Get(_ context.Context, pair string) (*types.ExchangeRateSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.latest[pair]
	if !exists || m.now().After(entry.expiresAt) {
		return nil, nil
	}

	snap := entry.value
	return &snap, nil
}

// Put stores snap as the latest for pair and appends it to history
func (m *MemoryStore) Put(_ context.Context, pair string, snap types.ExchangeRateSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latest[pair] = memoryEntry{
		value:     snap,
		expiresAt: m.now().Add(m.ttl),
	}

	h := append(m.history[pair], newRecord(pair, snap))
	if len(h) > m.historyLimit {
		h = h[len(h)-m.historyLimit:]
	}
	m.history[pair] = h
	return nil
}

// History returns up to limit records, newest first
func (m *MemoryStore) History(_ context.Context, pair string, limit int) ([]types.SnapshotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[pair]
	n := clampLimit(limit, len(h))
	out := make([]types.SnapshotRecord, 0, n)
	for i := len(h) - 1; i >= len(h)-n; i-- {
		out = append(out, h[i])
	}
	return out, nil
}
