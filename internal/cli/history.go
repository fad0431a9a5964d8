package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		threadID string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored transcript of a thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			msgs, err := a.store.Load(cmd.Context(), threadID)
			if err != nil {
				return fmt.Errorf("failed to load thread: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(msgs)
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "thread ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print messages as JSON")
	_ = cmd.MarkFlagRequired("thread")

	return cmd
}
