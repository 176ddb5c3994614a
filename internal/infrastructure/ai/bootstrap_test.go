package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/pkg/logger"
)

// catalogStub is an in-memory LocalCatalog with injectable pull failures.
type catalogStub struct {
	mu        sync.Mutex
	present   map[string]bool
	pullErr   error
	pullCount int
	pullGate  chan struct{}
}

func newCatalogStub() *catalogStub {
	return &catalogStub{present: make(map[string]bool)}
}

func (c *catalogStub) Has(_ context.Context, model string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present[model], nil
}

func (c *catalogStub) Pull(ctx context.Context, model string) error {
	c.mu.Lock()
	c.pullCount++
	err := c.pullErr
	gate := c.pullGate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.present[model] = true
	c.mu.Unlock()
	return nil
}

func (c *catalogStub) pulls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pullCount
}

func TestEnsureReadySkipsPullWhenAlreadyPresent(t *testing.T) {
	catalog := newCatalogStub()
	catalog.present["deepseek-r1"] = true
	b := NewBootstrapper(catalog, logger.NewStd(false), 3, time.Millisecond)

	if err := b.EnsureReady(context.Background(), "deepseek-r1"); err != nil {
		t.Fatalf("EnsureReady() error = %v", err)
	}
	if got := b.Phase("deepseek-r1"); got != PhaseReady {
		t.Fatalf("Phase() = %q, want %q", got, PhaseReady)
	}
	if catalog.pulls() != 0 {
		t.Fatalf("pulled %d times for a resident model, want 0", catalog.pulls())
	}
}

func TestEnsureReadyPullsOnceAndBecomesIdempotent(t *testing.T) {
	catalog := newCatalogStub()
	b := NewBootstrapper(catalog, logger.NewStd(false), 3, time.Millisecond)

	if err := b.EnsureReady(context.Background(), "deepseek-r1"); err != nil {
		t.Fatalf("EnsureReady() error = %v", err)
	}
	if err := b.EnsureReady(context.Background(), "deepseek-r1"); err != nil {
		t.Fatalf("second EnsureReady() error = %v", err)
	}
	if catalog.pulls() != 1 {
		t.Fatalf("pulled %d times, want exactly 1", catalog.pulls())
	}
	if got := b.Phase("deepseek-r1"); got != PhaseReady {
		t.Fatalf("Phase() = %q, want %q", got, PhaseReady)
	}
}

func TestBootstrapExhaustsAttemptsAndParksFailed(t *testing.T) {
	catalog := newCatalogStub()
	catalog.pullErr = context.DeadlineExceeded
	b := NewBootstrapper(catalog, logger.NewStd(false), 3, time.Millisecond)

	err := b.EnsureReady(context.Background(), "deepseek-r1")
	if !domain.IsModelUnavailable(err) {
		t.Fatalf("EnsureReady() error = %v, want ModelUnavailableError", err)
	}
	if catalog.pulls() != 3 {
		t.Fatalf("pulled %d times, want 3 bounded attempts", catalog.pulls())
	}
	if got := b.Phase("deepseek-r1"); got != PhaseFailed {
		t.Fatalf("Phase() = %q, want %q", got, PhaseFailed)
	}

	// Failed is sticky: another caller gets the same answer without new
	// fetch attempts.
	err = b.EnsureReady(context.Background(), "deepseek-r1")
	if !domain.IsModelUnavailable(err) {
		t.Fatalf("repeat EnsureReady() error = %v, want ModelUnavailableError", err)
	}
	if catalog.pulls() != 3 {
		t.Fatalf("pulled %d times after terminal failure, want still 3", catalog.pulls())
	}
}

func TestConcurrentWaitersShareOneBootstrap(t *testing.T) {
	catalog := newCatalogStub()
	catalog.pullGate = make(chan struct{})
	b := NewBootstrapper(catalog, logger.NewStd(false), 3, time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.EnsureReady(context.Background(), "deepseek-r1")
		}(i)
	}

	// Let the waiters queue up, then release the single pull.
	time.Sleep(20 * time.Millisecond)
	close(catalog.pullGate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("waiter %d error = %v", i, err)
		}
	}
	if catalog.pulls() != 1 {
		t.Fatalf("pulled %d times for concurrent waiters, want 1", catalog.pulls())
	}
}

func TestWaiterCancellationDoesNotAbortBootstrap(t *testing.T) {
	catalog := newCatalogStub()
	catalog.pullGate = make(chan struct{})
	b := NewBootstrapper(catalog, logger.NewStd(false), 3, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.EnsureReady(ctx, "deepseek-r1"); err != context.Canceled {
		t.Fatalf("EnsureReady() error = %v, want context.Canceled", err)
	}

	// The bootstrap itself keeps running and can still complete for a
	// patient caller.
	close(catalog.pullGate)
	if err := b.EnsureReady(context.Background(), "deepseek-r1"); err != nil {
		t.Fatalf("EnsureReady() after waiter cancellation error = %v", err)
	}
}

func TestPhaseAbsentForUnknownModel(t *testing.T) {
	b := NewBootstrapper(newCatalogStub(), logger.NewStd(false), 3, time.Millisecond)
	if got := b.Phase("never-requested"); got != PhaseAbsent {
		t.Fatalf("Phase() = %q, want %q", got, PhaseAbsent)
	}
}
