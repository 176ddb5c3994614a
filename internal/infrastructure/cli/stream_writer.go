package cli

import (
	"fmt"
	"io"
)

// streamWriter relays response fragments to the terminal as they arrive.
// onFirst fires once, before the first fragment is printed, so callers can
// stop a spinner that would otherwise collide with the output.
type streamWriter struct {
	out     io.Writer
	onFirst func()
	started bool
}

func newStreamWriter(out io.Writer, onFirst func()) *streamWriter {
	return &streamWriter{out: out, onFirst: onFirst}
}

func (s *streamWriter) WriteFragment(text string) {
	if !s.started {
		s.started = true
		if s.onFirst != nil {
			s.onFirst()
		}
	}
	fmt.Fprint(s.out, text)
}

func (s *streamWriter) Done() {
	if s.onFirst != nil && !s.started {
		s.onFirst()
	}
	fmt.Fprintln(s.out)
}
