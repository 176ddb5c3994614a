package ai

import (
	"context"
	"sync"
	"time"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// Phase is the bootstrapper's lifecycle position for one model.
type Phase string

const (
	PhaseAbsent    Phase = "absent"
	PhaseFetching  Phase = "fetching"
	PhaseVerifying Phase = "verifying"
	PhaseReady     Phase = "ready"
	PhaseFailed    Phase = "failed"
)

// defaultBackoff is the fixed inter-attempt delay tolerating transient
// network or registry failures.
const defaultBackoff = 30 * time.Second

const defaultMaxAttempts = 3

// Bootstrapper ensures a local model artifact is present before first use.
// Fetch attempts are bounded; exhausting them parks the model in the
// terminal Failed phase and reports ModelUnavailable without crashing the
// host, so the other providers keep serving. The catalog probe stays
// re-derivable at any time for external health checks.
type Bootstrapper struct {
	Catalog     ports.LocalCatalog
	Logger      ports.Logger
	MaxAttempts int
	Backoff     time.Duration

	mu     sync.Mutex
	models map[string]*bootstrapState
}

type bootstrapState struct {
	phase Phase
	err   error
	done  chan struct{}
}

// NewBootstrapper builds a bootstrapper with the given retry policy; zero
// values take the defaults (3 attempts, 30s backoff).
func NewBootstrapper(catalog ports.LocalCatalog, log ports.Logger, maxAttempts int, backoff time.Duration) *Bootstrapper {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Bootstrapper{
		Catalog:     catalog,
		Logger:      log,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		models:      make(map[string]*bootstrapState),
	}
}

// Phase reports the current lifecycle position for model.
func (b *Bootstrapper) Phase(model string) Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.models[model]; ok {
		return st.phase
	}
	return PhaseAbsent
}

// EnsureReady blocks until model is resident in the local catalog.
// Idempotent: returns immediately once Ready. Concurrent callers for the
// same model wait on a single in-flight bootstrap rather than racing pulls.
func (b *Bootstrapper) EnsureReady(ctx context.Context, model string) error {
	b.mu.Lock()
	st, ok := b.models[model]
	if !ok {
		st = &bootstrapState{phase: PhaseAbsent, done: make(chan struct{})}
		b.models[model] = st
		go b.run(model, st)
	}
	switch st.phase {
	case PhaseReady:
		b.mu.Unlock()
		return nil
	case PhaseFailed:
		err := st.err
		b.mu.Unlock()
		return err
	}
	done := st.done
	b.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if st.phase == PhaseReady {
		return nil
	}
	return st.err
}

// run executes the fetch/verify loop in a dedicated worker so that waiters
// can apply their own cancellation without tearing the bootstrap down.
func (b *Bootstrapper) run(model string, st *bootstrapState) {
	defer close(st.done)

	ctx := context.Background()

	// Already resident from an earlier session.
	b.setPhase(st, PhaseVerifying)
	if present, err := b.Catalog.Has(ctx, model); err == nil && present {
		b.setPhase(st, PhaseReady)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		b.setPhase(st, PhaseFetching)
		b.logInfo("fetching local model", map[string]interface{}{
			"model":   model,
			"attempt": attempt,
		})

		if err := b.Catalog.Pull(ctx, model); err != nil {
			lastErr = err
		}

		b.setPhase(st, PhaseVerifying)
		present, err := b.Catalog.Has(ctx, model)
		if err != nil {
			lastErr = err
		} else if present {
			b.setPhase(st, PhaseReady)
			return
		}

		b.setPhase(st, PhaseAbsent)
		if attempt < b.MaxAttempts {
			time.Sleep(b.Backoff)
		}
	}

	failure := &domain.ModelUnavailableError{Model: model, Cause: lastErr}
	b.mu.Lock()
	st.phase = PhaseFailed
	st.err = failure
	b.mu.Unlock()
	if b.Logger != nil {
		b.Logger.Error("local model bootstrap failed", failure, map[string]interface{}{
			"model":    model,
			"attempts": b.MaxAttempts,
		})
	}
}

func (b *Bootstrapper) setPhase(st *bootstrapState, phase Phase) {
	b.mu.Lock()
	st.phase = phase
	b.mu.Unlock()
}

func (b *Bootstrapper) logInfo(msg string, fields map[string]interface{}) {
	if b.Logger != nil {
		b.Logger.Info(msg, fields)
	}
}
