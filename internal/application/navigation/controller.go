// Package navigation maps directional input onto the history log: a small
// state machine tracking which stored exchange, if any, is recalled in the
// view. It is independent of any rendering surface.
package navigation

import (
	"sync"

	"github.com/doeshing/deepchat/internal/domain"
)

// EntryLister is the slice of the history service the controller needs.
type EntryLister interface {
	List() []domain.HistoryEntry
}

type position int

const (
	posCompose position = iota
	posRecall
	// posExportFocus is the transient highlight on the export affordance,
	// reached by stepping newer than the newest entry. It is not part of
	// NavigationState proper.
	posExportFocus
)

// Controller drives the selected-entry state machine. The controller holds
// only the selected timestamp, never a copy of the entry, so the displayed
// and stored content cannot diverge.
type Controller struct {
	entries EntryLister

	mu       sync.Mutex
	pos      position
	selected int64
}

// NewController builds a controller in the compose state.
func NewController(entries EntryLister) *Controller {
	return &Controller{entries: entries, pos: posCompose}
}

// State reports the externally visible navigation state. The export
// sentinel reports as compose with no selection; use ExportFocused to
// render its highlight.
func (c *Controller) State() domain.NavigationState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos != posRecall {
		return domain.NavigationState{ViewMode: domain.ViewModeCompose}
	}
	ts := c.selected
	return domain.NavigationState{SelectedTimestamp: &ts, ViewMode: domain.ViewModeRecall}
}

// ExportFocused reports whether the export affordance holds the transient
// highlight.
func (c *Controller) ExportFocused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos == posExportFocus
}

// Previous steps one entry older. From compose it enters recall at the most
// recent entry; from the export sentinel it returns to the newest real
// entry; at the oldest entry it clamps rather than wrapping.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.entries.List()
	if len(entries) == 0 {
		c.pos = posCompose
		return
	}

	switch c.pos {
	case posCompose, posExportFocus:
		c.pos = posRecall
		c.selected = entries[0].Timestamp
	case posRecall:
		idx := indexOf(entries, c.selected)
		if idx < 0 {
			// Selection vanished out from under us; restart at the newest.
			c.selected = entries[0].Timestamp
			return
		}
		if idx+1 < len(entries) {
			c.selected = entries[idx+1].Timestamp
		}
	}
}

// Next steps one entry newer. From the newest entry it moves to the export
// sentinel; a further Next is a no-op, as is Next from compose.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos != posRecall {
		return
	}

	entries := c.entries.List()
	idx := indexOf(entries, c.selected)
	if idx <= 0 {
		c.pos = posExportFocus
		c.selected = 0
		return
	}
	c.selected = entries[idx-1].Timestamp
}

// Select recalls the entry at ts directly, overriding any pending sentinel
// highlight. Returns false if no such entry exists.
func (c *Controller) Select(ts int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if indexOf(c.entries.List(), ts) < 0 {
		return false
	}
	c.pos = posRecall
	c.selected = ts
	return true
}

// Compose forces the compose state and clears any selection, independent of
// the current state.
func (c *Controller) Compose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = posCompose
	c.selected = 0
}

// HandleDeleted is registered as a history delete observer. If the doomed
// timestamp is currently selected, the controller transitions to compose
// synchronously, before the deletion becomes visible to any reader.
func (c *Controller) HandleDeleted(ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos == posRecall && c.selected == ts {
		c.pos = posCompose
		c.selected = 0
	}
}

func indexOf(entries []domain.HistoryEntry, ts int64) int {
	for i, e := range entries {
		if e.Timestamp == ts {
			return i
		}
	}
	return -1
}
