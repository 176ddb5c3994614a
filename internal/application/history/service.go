// Package history implements the interaction log: a durable keyed store of
// prompt/response exchanges with an in-memory mirror, single-slot undo, and
// CSV export.
package history

import (
	"errors"
	"sort"
	"sync"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// DeleteObserver is invoked synchronously at the start of every delete,
// before the removal is visible to any reader. The service mutex is not
// held during the call, so observers may read the log. The navigation
// controller registers one to clear a selection pointing at the doomed
// entry.
type DeleteObserver func(timestamp int64)

// Service owns the exchange log. Writes are persist-first, mirror-second:
// a persist failure aborts the mirror update, so the durable log and the
// mirror never disagree.
type Service struct {
	Store  ports.EntryStore
	Logger ports.Logger

	mu        sync.Mutex
	mirror    map[int64]domain.HistoryEntry
	undo      *domain.HistoryEntry
	observers []DeleteObserver
}

// NewService builds the service and hydrates the in-memory mirror from the
// durable store.
func NewService(store ports.EntryStore, log ports.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("history.Service requires an entry store")
	}
	entries, err := store.All()
	if err != nil {
		return nil, err
	}
	mirror := make(map[int64]domain.HistoryEntry, len(entries))
	for _, e := range entries {
		mirror[e.Timestamp] = e
	}
	return &Service{Store: store, Logger: log, mirror: mirror}, nil
}

// Subscribe registers a delete observer.
func (s *Service) Subscribe(obs DeleteObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Add persists entry under its caller-supplied timestamp key. A colliding
// timestamp fails with DuplicateKey and leaves both the store and the
// mirror untouched.
func (s *Service) Add(entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(entry)
}

func (s *Service) addLocked(entry domain.HistoryEntry) error {
	if _, exists := s.mirror[entry.Timestamp]; exists {
		err := &domain.DuplicateKeyError{Timestamp: entry.Timestamp}
		s.logDuplicate(err)
		return err
	}
	if err := s.Store.Put(entry); err != nil {
		if domain.IsDuplicateKey(err) {
			s.logDuplicate(err)
		}
		return err
	}
	s.mirror[entry.Timestamp] = entry
	return nil
}

// Delete removes the entry from the durable log and the mirror, and parks
// it in the single-slot undo buffer, overwriting any previous occupant.
// Deleting an absent timestamp is a no-op. Observers are notified with the
// mutex released, before the removal becomes visible, so an observer that
// calls back into the log cannot deadlock against it.
func (s *Service) Delete(timestamp int64) error {
	s.mu.Lock()
	entry, exists := s.mirror[timestamp]
	if !exists {
		s.mu.Unlock()
		return nil
	}
	observers := make([]DeleteObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	// The entry is still visible at this point.
	for _, obs := range observers {
		obs(timestamp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, present := s.mirror[timestamp]; !present {
		return nil
	}
	if err := s.Store.Delete(timestamp); err != nil {
		return err
	}
	delete(s.mirror, timestamp)
	s.undo = &entry
	return nil
}

// UndoLast restores the most recently deleted entry through the same path
// as Add. A no-op when the buffer is empty. If an entry with the buffered
// timestamp was independently re-added in the meantime, the DuplicateKey
// is surfaced, not swallowed.
func (s *Service) UndoLast() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.undo == nil {
		return nil
	}
	if err := s.addLocked(*s.undo); err != nil {
		return err
	}
	s.undo = nil
	return nil
}

// CanUndo reports whether the undo buffer holds a deleted entry.
func (s *Service) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo != nil
}

// Get looks up a single entry by timestamp.
func (s *Service) Get(timestamp int64) (domain.HistoryEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.mirror[timestamp]
	return entry, ok
}

// List returns all entries ordered by timestamp descending (most recent
// first). Timestamps are unique, so no secondary sort key is needed.
func (s *Service) List() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.HistoryEntry, 0, len(s.mirror))
	for _, e := range s.mirror {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries
}

// Len reports the number of stored entries.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mirror)
}

func (s *Service) logDuplicate(err error) {
	if s.Logger != nil {
		s.Logger.Error("duplicate history key", err, nil)
	}
}
