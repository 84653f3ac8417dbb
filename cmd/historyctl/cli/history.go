package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

var ErrInvalidOutputFormat = errors.New("invalid output format")

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show all recorded versions of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := oneOfOutput(output); err != nil {
				return err
			}

			return opts.withBackend(cmd.Context(), func(b *backend) error {
				records, err := b.taskHistory.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return newPrinter(cmd.OutOrStdout()).Records(records, output == logFormatJSON)
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&output, "output", "o", logFormatText, "output format (text|json)")
	cmd.AddCommand(newHistoryAtCommand(opts, &output))

	return cmd
}

func newHistoryAtCommand(opts *rootOptions, output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "at <task-id> <rfc3339-time>",
		Short: "Show the version of a task that was valid at the given time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := oneOfOutput(*output); err != nil {
				return err
			}

			at, err := time.Parse(time.RFC3339Nano, args[1])
			if err != nil {
				return fmt.Errorf("parsing time %q: %w", args[1], err)
			}

			return opts.withBackend(cmd.Context(), func(b *backend) error {
				record, err := b.taskHistory.VersionAt(cmd.Context(), args[0], at)
				if err != nil {
					return err
				}

				return newPrinter(cmd.OutOrStdout()).Records(versionhistory.HistoryRecords{record}, *output == logFormatJSON)
			})
		},
	}
}

func oneOfOutput(output string) error {
	if output == logFormatText || output == logFormatJSON {
		return nil
	}

	return errors.Join(ErrInvalidOutputFormat, fmt.Errorf("got %q, want text or json", output))
}
