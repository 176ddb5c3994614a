package domain

import "time"

// HistoryEntry is one durably recorded prompt/response exchange. The
// timestamp (unix milliseconds at request start) is the primary key and the
// natural sort key, descending. Entries are never mutated after creation.
type HistoryEntry struct {
	Timestamp       int64   `json:"timestamp"`
	ModelID         string  `json:"model"`
	Prompt          string  `json:"prompt"`
	Response        string  `json:"response"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Time returns the entry's creation time.
func (e HistoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// ViewMode distinguishes composing a new prompt from recalling a stored one.
type ViewMode string

const (
	ViewModeCompose ViewMode = "compose"
	ViewModeRecall  ViewMode = "recall"
)

// NavigationState is the externally visible position of the history
// navigator. SelectedTimestamp is nil exactly when ViewMode is compose.
type NavigationState struct {
	SelectedTimestamp *int64
	ViewMode          ViewMode
}
