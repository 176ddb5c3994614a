package navigation

import (
	"testing"

	"github.com/doeshing/deepchat/internal/domain"
)

// listerStub serves a fixed entry slice, newest first.
type listerStub struct {
	entries []domain.HistoryEntry
}

func (l *listerStub) List() []domain.HistoryEntry { return l.entries }

func entriesAt(timestamps ...int64) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, domain.HistoryEntry{Timestamp: ts})
	}
	return out
}

func wantSelected(t *testing.T, c *Controller, ts int64) {
	t.Helper()
	state := c.State()
	if state.ViewMode != domain.ViewModeRecall {
		t.Fatalf("ViewMode = %q, want recall", state.ViewMode)
	}
	if state.SelectedTimestamp == nil || *state.SelectedTimestamp != ts {
		t.Fatalf("SelectedTimestamp = %v, want %d", state.SelectedTimestamp, ts)
	}
}

func wantCompose(t *testing.T, c *Controller) {
	t.Helper()
	state := c.State()
	if state.ViewMode != domain.ViewModeCompose {
		t.Fatalf("ViewMode = %q, want compose", state.ViewMode)
	}
	if state.SelectedTimestamp != nil {
		t.Fatalf("SelectedTimestamp = %d, want nil", *state.SelectedTimestamp)
	}
}

func TestWalkOlderThenNewerThroughLog(t *testing.T) {
	// Newest first: t3 > t2 > t1.
	lister := &listerStub{entries: entriesAt(3000, 2000, 1000)}
	c := NewController(lister)

	wantCompose(t, c)

	c.Previous()
	wantSelected(t, c, 3000)
	c.Previous()
	wantSelected(t, c, 2000)
	c.Previous()
	wantSelected(t, c, 1000)

	// Oldest entry clamps.
	c.Previous()
	wantSelected(t, c, 1000)

	c.Next()
	wantSelected(t, c, 2000)
	c.Next()
	wantSelected(t, c, 3000)

	// Newer than the newest entry is the export highlight, which reports
	// as compose.
	c.Next()
	if !c.ExportFocused() {
		t.Fatal("ExportFocused() = false after stepping past the newest entry")
	}
	wantCompose(t, c)

	// A further Next stays put.
	c.Next()
	if !c.ExportFocused() {
		t.Fatal("ExportFocused() = false after a second Next")
	}

	// Previous from the highlight returns to the newest real entry.
	c.Previous()
	wantSelected(t, c, 3000)
	if c.ExportFocused() {
		t.Fatal("ExportFocused() = true while an entry is selected")
	}
}

func TestPreviousOnEmptyLogStaysInCompose(t *testing.T) {
	c := NewController(&listerStub{})
	c.Previous()
	wantCompose(t, c)
	if c.ExportFocused() {
		t.Fatal("ExportFocused() = true on an empty log")
	}
}

func TestNextFromComposeIsNoop(t *testing.T) {
	c := NewController(&listerStub{entries: entriesAt(1000)})
	c.Next()
	wantCompose(t, c)
	if c.ExportFocused() {
		t.Fatal("Next from compose must not reach the export highlight")
	}
}

func TestSelectRecallsDirectly(t *testing.T) {
	c := NewController(&listerStub{entries: entriesAt(3000, 2000, 1000)})

	if !c.Select(2000) {
		t.Fatal("Select(2000) = false for an existing entry")
	}
	wantSelected(t, c, 2000)

	if c.Select(9999) {
		t.Fatal("Select(9999) = true for a missing entry")
	}
	wantSelected(t, c, 2000)
}

func TestComposeClearsSelection(t *testing.T) {
	c := NewController(&listerStub{entries: entriesAt(1000)})
	c.Previous()
	wantSelected(t, c, 1000)

	c.Compose()
	wantCompose(t, c)
}

func TestDeletedSelectionFallsBackToCompose(t *testing.T) {
	lister := &listerStub{entries: entriesAt(3000, 2000, 1000)}
	c := NewController(lister)

	c.Previous()
	c.Previous()
	wantSelected(t, c, 2000)

	lister.entries = entriesAt(3000, 1000)
	c.HandleDeleted(2000)
	wantCompose(t, c)
}

func TestDeletingUnselectedEntryKeepsSelection(t *testing.T) {
	lister := &listerStub{entries: entriesAt(3000, 2000, 1000)}
	c := NewController(lister)

	c.Previous()
	wantSelected(t, c, 3000)

	lister.entries = entriesAt(3000, 1000)
	c.HandleDeleted(2000)
	wantSelected(t, c, 3000)
}

func TestVanishedSelectionRestartsAtNewest(t *testing.T) {
	lister := &listerStub{entries: entriesAt(3000, 2000, 1000)}
	c := NewController(lister)

	c.Previous()
	c.Previous()
	wantSelected(t, c, 2000)

	// The selected entry disappears without a delete notification, as when
	// another process compacts the log.
	lister.entries = entriesAt(3000, 1000)
	c.Previous()
	wantSelected(t, c, 3000)
}
