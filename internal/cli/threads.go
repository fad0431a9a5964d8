package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newThreadsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List known thread IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			ids, err := a.store.Threads(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
