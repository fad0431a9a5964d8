package cli

import (
	"fmt"

	"github.com/harun/recall/internal/config"
	"github.com/spf13/cobra"
)

func newConfigureCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Run interactive configuration wizard",
		Long: `Run an interactive configuration wizard to set up Recall.
The wizard will guide you through choosing a model provider, API key and thread storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wizard := config.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())

			cfg, err := wizard.Run()
			if err != nil {
				return fmt.Errorf("configuration failed: %w", err)
			}

			loader := config.NewLoader(opts.configPath)
			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration saved to: %s\n", loader.GetConfigPath())
			return nil
		},
	}
}
