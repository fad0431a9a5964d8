package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harun/recall/internal/config"
	"github.com/harun/recall/internal/tracing"
	"github.com/harun/recall/pkg/model"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// demoPrompts are sent, in order, on config.DefaultThreadID when recall
// runs without a subcommand.
var demoPrompts = []string{
	"what is the weather in sf",
	"tell me more",
	"what did i ask before",
}

// completerFactory builds the model client for a configuration.
type completerFactory func(ctx context.Context, cfg config.ModelConfig) (model.Completer, error)

// rootOptions holds global flag values shared by every subcommand.
type rootOptions struct {
	configPath   string
	logLevel     string
	metricsAddr  string
	newCompleter completerFactory
}

func defaultCompleter(ctx context.Context, cfg config.ModelConfig) (model.Completer, error) {
	return model.New(ctx, model.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
}

// NewRootCmd builds the recall command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultCompleter)
}

func newRootCmd(factory completerFactory) *cobra.Command {
	opts := &rootOptions{newCompleter: factory}

	cmd := &cobra.Command{
		Use:   "recall",
		Short: "Recall - conversational turns with per-thread memory",
		Long: `Recall sends prompts to a hosted language model and keeps the
conversation of every thread, so later turns see what was said before.

Without a subcommand it runs three turns on the thread "` + config.DefaultThreadID + `"
and prints each reply on its own line.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.recall/recall.json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(
		newChatCmd(opts),
		newHistoryCmd(opts),
		newThreadsCmd(opts),
		newConfigureCmd(opts),
	)

	return cmd
}

// Execute runs the command tree until completion or SIGINT/SIGTERM.
// This is called by main.main().
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tracing.ShutdownOpenTelemetry(shutdownCtx)

	return err
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

func runDemo(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, opts, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, prompt := range demoPrompts {
		reply, err := a.runTurn(ctx, config.DefaultThreadID, prompt)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
	}
	return nil
}
