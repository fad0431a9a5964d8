package cli

import (
	"bufio"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively on a thread",
		Long: `Read prompts from stdin, one per line, and print each reply.
Without --thread a new thread is started; pass an existing ID to continue it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, threadID)
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "thread ID to continue (default: a new random ID)")

	return cmd
}

func runChat(cmd *cobra.Command, opts *rootOptions, threadID string) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if threadID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate thread id: %w", err)
		}
		threadID = id
	}

	a, err := newApp(ctx, opts, errOut, true)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(errOut, "Thread %s (Ctrl-D to quit)\n", threadID)

	// stdin is read in its own goroutine so Ctrl-C can interrupt a pending read
	var scanErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	for {
		fmt.Fprint(errOut, "you> ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(errOut)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(errOut)
			if scanErr != nil {
				return fmt.Errorf("failed to read input: %w", scanErr)
			}
			return nil
		}

		prompt := strings.TrimSpace(line)
		if prompt == "" {
			continue
		}

		reply, err := a.runTurn(ctx, threadID, prompt)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}
