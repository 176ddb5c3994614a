package cli

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// Renderer turns markdown responses into styled terminal text. Rendering is
// treated as a trusted boundary: on any renderer failure the raw markdown
// is shown instead.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer builds a renderer. Rendering only engages when enabled and
// stdout is a terminal; otherwise Render passes text through untouched.
func NewRenderer(enabled bool) *Renderer {
	if !enabled || !stdoutIsTerminal() {
		return &Renderer{}
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{term: term}
}

// Render returns the styled form of markdown, or the input itself when
// styling is disabled or fails.
func (r *Renderer) Render(markdown string) string {
	if r.term == nil {
		return markdown
	}
	styled, err := r.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return styled
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
