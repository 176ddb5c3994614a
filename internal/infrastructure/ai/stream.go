package ai

import (
	"context"
	"io"
	"sync"

	"github.com/doeshing/deepchat/internal/ports"
)

// pipeStream adapts a producer goroutine reading the wire into the
// pull-based FragmentStream contract. The producer pushes fragments through
// a buffered channel; the consumer pulls one at a time, so a slow reader
// never blocks unrelated work and a fast producer never floods memory
// beyond the channel buffer.
type pipeStream struct {
	frames chan string
	cancel context.CancelFunc

	mu      sync.Mutex
	failure error
	closed  bool
	quit    chan struct{}
}

func newPipeStream(cancel context.CancelFunc) *pipeStream {
	return &pipeStream{
		frames: make(chan string, 64),
		cancel: cancel,
		quit:   make(chan struct{}),
	}
}

// emit hands a fragment to the consumer. Returns false once the consumer
// has abandoned the stream; the producer should stop promptly.
func (p *pipeStream) emit(fragment string) bool {
	select {
	case p.frames <- fragment:
		return true
	case <-p.quit:
		return false
	}
}

// finish ends the stream. A nil err is a clean end (Recv will report
// io.EOF); anything else is surfaced from the next Recv.
func (p *pipeStream) finish(err error) {
	p.mu.Lock()
	if p.failure == nil {
		p.failure = err
	}
	p.mu.Unlock()
	close(p.frames)
}

// Recv implements ports.FragmentStream.
func (p *pipeStream) Recv() (string, error) {
	fragment, ok := <-p.frames
	if ok {
		return fragment, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	return "", io.EOF
}

// Close implements ports.FragmentStream. It cancels the upstream request so
// the adapter releases its connection promptly; safe to call at any point
// and more than once.
func (p *pipeStream) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.quit)
	}
	p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

var _ ports.FragmentStream = (*pipeStream)(nil)
