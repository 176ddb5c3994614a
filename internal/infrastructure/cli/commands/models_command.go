// Package commands contains the non-interactive cobra subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/deepchat/internal/app"
	"github.com/doeshing/deepchat/internal/domain"
)

// NewModelsCommand creates the models command with all subcommands.
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and select chat models",
	}

	modelsCmd.AddCommand(
		newModelsListCommand(container),
		newModelsUseCommand(container),
		newModelsPullCommand(container),
	)

	return modelsCmd
}

// newModelsListCommand creates the 'models list' subcommand
func newModelsListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newModelsUseCommand creates the 'models use' subcommand
func newModelsUseCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Set the active model for this invocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Gateway.SelectModel(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active model is now %s.\n", args[0])
			return nil
		},
	}
}

// newModelsPullCommand creates the 'models pull' subcommand, which fetches
// the weights behind a local model ahead of first use.
func newModelsPullCommand(container *app.Container) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "pull <id>",
		Short: "Download the weights for a locally served model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return pullLocalModel(ctx, cmd.OutOrStdout(), container, args[0])
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Minute, "Abort the download after this duration")
	return cmd
}

// listModels prints the descriptor table with the active model marked and,
// for locally served models, whether the weights are present.
func listModels(ctx context.Context, out io.Writer, container *app.Container) error {
	active := container.Gateway.ActiveModel()
	for _, desc := range container.Gateway.Descriptors() {
		marker := " "
		if desc.ID == active {
			marker = "*"
		}
		note := ""
		if endpoint, ok := container.Config.EndpointFor(desc.ID); ok && endpoint.Kind == domain.ProviderKindOllama {
			note = localCatalogNote(ctx, container, endpoint.WireModel)
		}
		fmt.Fprintf(out, " %s %-22s %s%s\n", marker, desc.ID, desc.DisplayName, note)
	}
	return nil
}

func localCatalogNote(ctx context.Context, container *app.Container, wireModel string) string {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	present, err := container.Factory.Catalog().Has(probeCtx, wireModel)
	switch {
	case err != nil:
		return "  [local: unreachable]"
	case present:
		return "  [local: ready]"
	default:
		return "  [local: not downloaded]"
	}
}

func pullLocalModel(ctx context.Context, out io.Writer, container *app.Container, id string) error {
	endpoint, ok := container.Config.EndpointFor(id)
	if !ok {
		return &domain.UnknownModelError{ID: id}
	}
	if endpoint.Kind != domain.ProviderKindOllama {
		return fmt.Errorf("model %s is hosted remotely and has nothing to pull", id)
	}

	fmt.Fprintf(out, "Pulling %s...\n", endpoint.WireModel)
	if err := container.Factory.Catalog().Pull(ctx, endpoint.WireModel); err != nil {
		return err
	}
	fmt.Fprintf(out, "Model %s is ready.\n", id)
	return nil
}
