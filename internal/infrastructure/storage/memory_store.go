package storage

import (
	"sync"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// MemoryStore is the in-memory fallback used when the durable store is
// unavailable. Same contract, no persistence across restarts.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]domain.HistoryEntry
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[int64]domain.HistoryEntry)}
}

// Put implements ports.EntryStore.
func (m *MemoryStore) Put(entry domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.Timestamp]; exists {
		return &domain.DuplicateKeyError{Timestamp: entry.Timestamp}
	}
	m.entries[entry.Timestamp] = entry
	return nil
}

// Get implements ports.EntryStore.
func (m *MemoryStore) Get(timestamp int64) (domain.HistoryEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[timestamp]
	return entry, ok, nil
}

// All implements ports.EntryStore; order is unspecified, the history
// service sorts.
func (m *MemoryStore) All() ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]domain.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete implements ports.EntryStore.
func (m *MemoryStore) Delete(timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, timestamp)
	return nil
}

var _ ports.EntryStore = (*MemoryStore)(nil)
