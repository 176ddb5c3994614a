package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/deepchat/internal/app"
	"github.com/doeshing/deepchat/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. Running deepchat with no
// arguments opens the interactive chat session.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	chatCmd := newChatCommand(container)

	root := &cobra.Command{
		Use:   "deepchat",
		Short: "DeepChat - multi-provider AI chat",
		Long:  "DeepChat streams chat completions from hosted and local DeepSeek-family models and keeps a browsable local history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			chatCmd.SetArgs(args)
			return chatCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(chatCmd)
	root.AddCommand(newAskCommand(container))
	root.AddCommand(commands.NewModelsCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, nil
}

// newAskCommand creates the one-shot 'ask' command.
func newAskCommand(container *app.Container) *cobra.Command {
	var (
		model   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a single prompt and print the streamed response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			modelID := model
			if modelID == "" {
				modelID = container.Gateway.ActiveModel()
			}

			out := cmd.OutOrStdout()
			spinner := NewSpinner(cmd.ErrOrStderr(), "thinking")
			spinner.Start()
			sink := newStreamWriter(out, spinner.Stop)

			_, err := container.Chat.SubmitModel(ctx, strings.Join(args, " "), modelID, sink)
			spinner.Stop()
			return err
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model to query (default: active model)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the request after this duration")
	return cmd
}
