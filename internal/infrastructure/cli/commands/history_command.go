package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/deepchat/internal/app"
)

const msgNoHistoryRecorded = "No history recorded yet."

// NewHistoryCommand creates the history command with all subcommands.
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored exchanges",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryShowCommand(container),
		newHistoryExportCommand(container),
		newHistoryDeleteCommand(container),
		newHistoryUndoCommand(container),
	)

	return historyCmd
}

// newHistoryListCommand creates the 'history list' subcommand
func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored exchanges, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listHistoryEntries(cmd.OutOrStdout(), container, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show")
	return cmd
}

// newHistoryShowCommand creates the 'history show' subcommand
func newHistoryShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <timestamp>",
		Short: "Print one exchange in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistoryEntry(cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newHistoryExportCommand creates the 'history export' subcommand
func newHistoryExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export the full history to a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHistory(cmd.OutOrStdout(), container, args[0])
		},
	}
}

// newHistoryDeleteCommand creates the 'history delete' subcommand
func newHistoryDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <timestamp>",
		Short: "Delete one exchange",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}
			if err := container.History.Delete(ts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted. 'deepchat history undo' restores it.")
			return nil
		},
	}
}

// newHistoryUndoCommand creates the 'history undo' subcommand
func newHistoryUndoCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the most recently deleted exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !container.History.CanUndo() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to restore.")
				return nil
			}
			if err := container.History.UndoLast(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Restored.")
			return nil
		},
	}
}

// listHistoryEntries prints a compact table of recent exchanges.
func listHistoryEntries(out io.Writer, container *app.Container, limit int) error {
	entries := container.History.List()
	if len(entries) == 0 {
		fmt.Fprintln(out, msgNoHistoryRecorded)
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for _, entry := range entries {
		fmt.Fprintf(out, "%d  %-14s %-20s %-8s %s\n",
			entry.Timestamp,
			humanize.Time(entry.Time()),
			entry.ModelID,
			humanize.Bytes(uint64(len(entry.Response))),
			truncatePrompt(entry.Prompt, 60),
		)
	}
	return nil
}

func showHistoryEntry(out io.Writer, container *app.Container, rawTS string) error {
	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", rawTS, err)
	}
	entry, ok := container.History.Get(ts)
	if !ok {
		return fmt.Errorf("no exchange recorded at %d", ts)
	}

	fmt.Fprintf(out, "When:     %s (%s)\n", entry.Time().Local(), humanize.Time(entry.Time()))
	fmt.Fprintf(out, "Model:    %s\n", entry.ModelID)
	fmt.Fprintf(out, "Duration: %.1fs\n\n", entry.DurationSeconds)
	fmt.Fprintf(out, "Prompt:\n%s\n\nResponse:\n%s\n", entry.Prompt, entry.Response)
	return nil
}

func exportHistory(out io.Writer, container *app.Container, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := container.History.ExportCSV(file); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d exchanges to %s.\n", container.History.Len(), path)
	return nil
}

func truncatePrompt(prompt string, max int) string {
	prompt = strings.ReplaceAll(prompt, "\n", " ")
	runes := []rune(prompt)
	if len(runes) <= max {
		return prompt
	}
	return string(runes[:max-3]) + "..."
}
