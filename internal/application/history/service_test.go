package history

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/deepchat/internal/application/navigation"
	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/pkg/logger"
)

func newTestService(t *testing.T, store *stubStore) *Service {
	t.Helper()
	svc, err := NewService(store, logger.NewStd(false))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func testEntry(ts int64) domain.HistoryEntry {
	return domain.HistoryEntry{
		Timestamp:       ts,
		ModelID:         domain.ModelDeepseekChat,
		Prompt:          "prompt",
		Response:        "response",
		DurationSeconds: 1.5,
	}
}

func TestAddAndListNewestFirst(t *testing.T) {
	svc := newTestService(t, newStubStore())

	for _, ts := range []int64{2000, 1000, 3000} {
		if err := svc.Add(testEntry(ts)); err != nil {
			t.Fatalf("Add(%d) error = %v", ts, err)
		}
	}

	want := []domain.HistoryEntry{testEntry(3000), testEntry(2000), testEntry(1000)}
	if diff := cmp.Diff(want, svc.List()); diff != "" {
		t.Fatalf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestAddDuplicateTimestampRejected(t *testing.T) {
	svc := newTestService(t, newStubStore())

	if err := svc.Add(testEntry(1000)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	other := testEntry(1000)
	other.Prompt = "different"

	err := svc.Add(other)
	if !domain.IsDuplicateKey(err) {
		t.Fatalf("Add() error = %v, want DuplicateKeyError", err)
	}
	got, ok := svc.Get(1000)
	if !ok || got.Prompt != "prompt" {
		t.Fatalf("original entry was disturbed: %+v, ok=%v", got, ok)
	}
}

func TestPersistFailureLeavesMirrorUntouched(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	store.putErr = domain.ErrStorageUnavailable

	err := svc.Add(testEntry(1000))
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Add() error = %v, want ErrStorageUnavailable", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("Len() = %d after failed persist, want 0", svc.Len())
	}
	if _, ok := svc.Get(1000); ok {
		t.Fatal("mirror holds entry whose persist failed")
	}
}

func TestDeleteThenUndoRestoresExactEntry(t *testing.T) {
	svc := newTestService(t, newStubStore())

	entry := testEntry(1000)
	entry.Response = "the exact response\nwith, punctuation"
	if err := svc.Add(entry); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := svc.Delete(1000); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := svc.Get(1000); ok {
		t.Fatal("entry still present after delete")
	}
	if !svc.CanUndo() {
		t.Fatal("CanUndo() = false after delete")
	}

	if err := svc.UndoLast(); err != nil {
		t.Fatalf("UndoLast() error = %v", err)
	}
	got, ok := svc.Get(1000)
	if !ok {
		t.Fatal("entry missing after undo")
	}
	if diff := cmp.Diff(entry, got); diff != "" {
		t.Fatalf("restored entry mismatch (-want +got):\n%s", diff)
	}
	if svc.CanUndo() {
		t.Fatal("undo buffer should be empty after a successful restore")
	}
}

func TestUndoBufferHoldsOnlyLastDeletion(t *testing.T) {
	svc := newTestService(t, newStubStore())

	for _, ts := range []int64{1000, 2000} {
		if err := svc.Add(testEntry(ts)); err != nil {
			t.Fatalf("Add(%d) error = %v", ts, err)
		}
	}
	if err := svc.Delete(1000); err != nil {
		t.Fatalf("Delete(1000) error = %v", err)
	}
	if err := svc.Delete(2000); err != nil {
		t.Fatalf("Delete(2000) error = %v", err)
	}

	if err := svc.UndoLast(); err != nil {
		t.Fatalf("UndoLast() error = %v", err)
	}
	if _, ok := svc.Get(2000); !ok {
		t.Fatal("most recent deletion was not restored")
	}
	if _, ok := svc.Get(1000); ok {
		t.Fatal("older deletion unexpectedly restored")
	}
	// The buffer held one slot; a second undo has nothing left to restore.
	if err := svc.UndoLast(); err != nil {
		t.Fatalf("UndoLast() on empty buffer error = %v", err)
	}
	if _, ok := svc.Get(1000); ok {
		t.Fatal("second undo restored a discarded entry")
	}
}

func TestUndoEmptyBufferIsNoop(t *testing.T) {
	svc := newTestService(t, newStubStore())
	if svc.CanUndo() {
		t.Fatal("CanUndo() = true on a fresh service")
	}
	if err := svc.UndoLast(); err != nil {
		t.Fatalf("UndoLast() error = %v", err)
	}
}

func TestUndoSurfacesDuplicateWhenKeyReused(t *testing.T) {
	svc := newTestService(t, newStubStore())

	if err := svc.Add(testEntry(1000)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := svc.Delete(1000); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// The key is reused before the undo fires.
	if err := svc.Add(testEntry(1000)); err != nil {
		t.Fatalf("re-Add() error = %v", err)
	}

	err := svc.UndoLast()
	if !domain.IsDuplicateKey(err) {
		t.Fatalf("UndoLast() error = %v, want DuplicateKeyError", err)
	}
}

func TestDeleteAbsentTimestampIsNoop(t *testing.T) {
	svc := newTestService(t, newStubStore())
	if err := svc.Delete(9999); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if svc.CanUndo() {
		t.Fatal("no-op delete must not fill the undo buffer")
	}
}

func TestDeleteNotifiesObservers(t *testing.T) {
	svc := newTestService(t, newStubStore())
	if err := svc.Add(testEntry(1000)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	var seen []int64
	svc.Subscribe(func(ts int64) { seen = append(seen, ts) })

	if err := svc.Delete(1000); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(seen) != 1 || seen[0] != 1000 {
		t.Fatalf("observer saw %v, want [1000]", seen)
	}

	// No notification for a no-op delete.
	if err := svc.Delete(1000); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("observer saw %v after no-op delete, want one event", seen)
	}
}

func TestConcurrentDeleteAndNavigation(t *testing.T) {
	svc := newTestService(t, newStubStore())
	nav := navigation.NewController(svc)
	svc.Subscribe(nav.HandleDeleted)

	const n = 200
	for i := int64(1); i <= n; i++ {
		if err := svc.Add(testEntry(i * 1000)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := int64(1); i <= n; i++ {
				if err := svc.Delete(i * 1000); err != nil {
					t.Errorf("Delete(%d) error = %v", i*1000, err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 2*n; i++ {
				nav.Previous()
				nav.Next()
			}
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent delete and navigation did not finish")
	}

	if svc.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after deleting everything", svc.Len())
	}
	nav.Previous()
	if got := nav.State(); got.SelectedTimestamp != nil || got.ViewMode != domain.ViewModeCompose {
		t.Fatalf("State() = %+v, want compose on an empty log", got)
	}
}

func TestNewServiceHydratesFromStore(t *testing.T) {
	store := newStubStore()
	if err := store.Put(testEntry(1000)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(testEntry(2000)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	svc := newTestService(t, store)
	if svc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", svc.Len())
	}
	if _, ok := svc.Get(1000); !ok {
		t.Fatal("hydrated service is missing a stored entry")
	}
}

// stubStore is a map-backed EntryStore with injectable failures.
type stubStore struct {
	entries map[int64]domain.HistoryEntry
	putErr  error
	delErr  error
}

func newStubStore() *stubStore {
	return &stubStore{entries: make(map[int64]domain.HistoryEntry)}
}

func (s *stubStore) Put(entry domain.HistoryEntry) error {
	if s.putErr != nil {
		return s.putErr
	}
	if _, exists := s.entries[entry.Timestamp]; exists {
		return &domain.DuplicateKeyError{Timestamp: entry.Timestamp}
	}
	s.entries[entry.Timestamp] = entry
	return nil
}

func (s *stubStore) Get(timestamp int64) (domain.HistoryEntry, bool, error) {
	entry, ok := s.entries[timestamp]
	return entry, ok, nil
}

func (s *stubStore) All() ([]domain.HistoryEntry, error) {
	out := make([]domain.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (s *stubStore) Delete(timestamp int64) error {
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.entries, timestamp)
	return nil
}
