// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces allow the application to remain independent of
// specific implementations like databases, HTTP clients, or CLI frameworks.
package ports

import (
	"context"

	"github.com/doeshing/deepchat/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.deepchat/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// FragmentStream is a lazy, finite, non-restartable sequence of response
// fragments. Recv blocks until the next fragment arrives and returns io.EOF
// on clean end of stream; any other error means the stream failed and no
// further fragments will be delivered. Close releases upstream resources
// promptly and is safe to call at any point, including mid-stream
// abandonment.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// Provider is one backend's implementation of the streaming completion
// contract. Providers perform network I/O only and share no mutable state
// beyond their own connection handles.
type Provider interface {
	Name() string
	Stream(ctx context.Context, prompt string) (FragmentStream, error)
}

// ProviderFactory resolves the adapter serving a descriptor id.
type ProviderFactory interface {
	ForModel(id string) (Provider, error)
}

// EntryStore is the durable keyed store behind the history service. Keys
// are entry timestamps; the backing technology is swappable (SQLite in the
// default wiring, in-memory when storage is unavailable).
type EntryStore interface {
	Put(entry domain.HistoryEntry) error
	Get(timestamp int64) (domain.HistoryEntry, bool, error)
	All() ([]domain.HistoryEntry, error)
	Delete(timestamp int64) error
}

// LocalCatalog exposes the local model host's catalog operations used by
// the bootstrapper and by health checks.
type LocalCatalog interface {
	// Has reports whether the named model is present in the local catalog.
	Has(ctx context.Context, model string) (bool, error)
	// Pull fetches the named model artifact into the local catalog.
	Pull(ctx context.Context, model string) error
}

// FragmentSink receives relayed fragments for display. Each WriteFragment
// call is one discrete resumption; Done marks clean end of stream.
type FragmentSink interface {
	WriteFragment(text string)
	Done()
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external
// services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
