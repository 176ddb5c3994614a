package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/deepchat/internal/app"
	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/version"
)

const sessionHelp = `Commands:
  /model <id>     switch the active model
  /models         list available models
  /prev           recall the previous (older) exchange
  /next           step toward newer exchanges
  /new            return to the compose view
  /delete         delete the recalled exchange
  /undo           restore the last deleted exchange
  /export <path>  write the full history to a CSV file
  /about          show version information
  /help           show this help
  /quit           exit`

// newChatCommand creates the interactive chat session command.
func newChatCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat session",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := newSession(container, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			return session.run(cmd.Context())
		},
	}
}

// session binds the chat, gateway, history and navigation services to a
// line-oriented terminal loop.
type session struct {
	container *app.Container
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	renderer  *Renderer
}

func newSession(container *app.Container, in io.Reader, out, errOut io.Writer) *session {
	return &session{
		container: container,
		in:        in,
		out:       out,
		errOut:    errOut,
		renderer:  NewRenderer(container.Config.Preferences.RenderMarkdown),
	}
}

func (s *session) run(ctx context.Context) error {
	s.printBanner()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		s.printPrompt()
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.dispatch(ctx, line); quit {
				return nil
			}
			continue
		}
		s.submit(ctx, line)
	}
}

func (s *session) printBanner() {
	fmt.Fprintf(s.out, "deepchat (model: %s). Type /help for commands.\n", s.container.Gateway.ActiveModel())
	if s.container.StorageDegraded {
		fmt.Fprintln(s.out, "Note: history storage is unavailable; this session will not be saved.")
	}
}

func (s *session) printPrompt() {
	nav := s.container.Navigator
	if nav.ExportFocused() {
		fmt.Fprintln(s.out, "[Export history to CSV]  /export <path> to save, /prev to go back")
		return
	}
	state := nav.State()
	if state.ViewMode == domain.ViewModeRecall && state.SelectedTimestamp != nil {
		fmt.Fprintf(s.out, "(recall) > ")
		return
	}
	fmt.Fprintf(s.out, "> ")
}

// dispatch handles a slash command. It returns true when the session
// should end.
func (s *session) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true
	case "/help":
		fmt.Fprintln(s.out, sessionHelp)
	case "/model":
		s.switchModel(args)
	case "/models":
		s.listModels()
	case "/prev", "/p":
		s.container.Navigator.Previous()
		s.showSelection()
	case "/next", "/n":
		s.container.Navigator.Next()
		s.showSelection()
	case "/new":
		s.container.Navigator.Compose()
	case "/delete":
		s.deleteSelected()
	case "/undo":
		s.undoDelete()
	case "/export":
		s.export(args)
	case "/about":
		s.about()
	default:
		fmt.Fprintf(s.errOut, "Unknown command %s. Type /help for commands.\n", cmd)
	}
	return false
}

func (s *session) submit(ctx context.Context, prompt string) {
	spinner := NewSpinner(s.errOut, "thinking")
	spinner.Start()
	sink := newStreamWriter(s.out, spinner.Stop)

	_, err := s.container.Chat.Submit(ctx, prompt, sink)
	spinner.Stop()
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	// A new exchange always lands the view back on the composer.
	s.container.Navigator.Compose()
}

func (s *session) switchModel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.errOut, "Usage: /model <id>")
		return
	}
	if err := s.container.Gateway.SelectModel(args[0]); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Active model is now %s.\n", args[0])
}

func (s *session) listModels() {
	active := s.container.Gateway.ActiveModel()
	for _, desc := range s.container.Gateway.Descriptors() {
		marker := " "
		if desc.ID == active {
			marker = "*"
		}
		fmt.Fprintf(s.out, " %s %-22s %s\n", marker, desc.ID, desc.DisplayName)
	}
}

// showSelection renders the recalled exchange, or the compose/export hint
// when no entry is selected.
func (s *session) showSelection() {
	nav := s.container.Navigator
	if nav.ExportFocused() {
		fmt.Fprintln(s.out, "[Export history to CSV]  /export <path> to save, /prev to go back")
		return
	}
	state := nav.State()
	if state.SelectedTimestamp == nil {
		fmt.Fprintln(s.out, "(compose view)")
		return
	}
	entry, ok := s.container.History.Get(*state.SelectedTimestamp)
	if !ok {
		// The entry vanished between selection and display; fall back.
		nav.Compose()
		fmt.Fprintln(s.out, "(compose view)")
		return
	}
	s.renderEntry(entry)
}

func (s *session) renderEntry(entry domain.HistoryEntry) {
	when := entry.Time()
	fmt.Fprintf(s.out, "\n%s  %s  (%s, %ss)\n",
		humanize.Time(when),
		entry.ModelID,
		when.Local().Format(time.RFC1123),
		strconv.FormatFloat(entry.DurationSeconds, 'f', 1, 64),
	)
	fmt.Fprintf(s.out, "You: %s\n\n", entry.Prompt)
	fmt.Fprintln(s.out, s.renderer.Render(entry.Response))
}

func (s *session) deleteSelected() {
	state := s.container.Navigator.State()
	if state.SelectedTimestamp == nil {
		fmt.Fprintln(s.errOut, "Nothing recalled. Use /prev to select an exchange first.")
		return
	}
	if err := s.container.History.Delete(*state.SelectedTimestamp); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Deleted. /undo restores it.")
}

func (s *session) undoDelete() {
	if !s.container.History.CanUndo() {
		fmt.Fprintln(s.out, "Nothing to restore.")
		return
	}
	if err := s.container.History.UndoLast(); err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			fmt.Fprintln(s.errOut, "Error: history storage is unavailable.")
			return
		}
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Restored.")
}

func (s *session) export(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.errOut, "Usage: /export <path>")
		return
	}
	file, err := os.Create(args[0])
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	defer file.Close()

	if err := s.container.History.ExportCSV(file); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Exported %d exchanges to %s.\n", s.container.History.Len(), args[0])
}

func (s *session) about() {
	info := version.About()
	fmt.Fprintf(s.out, "deepchat %s by %s\nReleased %s, %s license\n",
		info.Version, info.Author, info.ReleaseDate, info.License)
}
