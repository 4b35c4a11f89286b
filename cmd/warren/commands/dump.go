package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/warren/internal/dump"
	"github.com/dyluth/warren/internal/filter"
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/resolver"
	"github.com/dyluth/warren/internal/watch"
	"github.com/spf13/cobra"
)

type dumpOptions struct {
	output      string
	wait        time.Duration
	match       string
	typeGlob    string
	hidePrivate bool
}

func newDumpCommand(s *session) *cobra.Command {
	opts := &dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump [BOARD]",
		Short: "Show saved board snapshots",
		Long: `Show saved board snapshots.

Without arguments, lists every board saved for the instance.
With a board name, prints the entries of its snapshot.

Examples:
  # List saved boards
  warren dump

  # Print one board as JSON
  warren dump navigate -o json

  # Board names may be abbreviated to a unique prefix
  warren dump nav --type 'float*'

  # Wait up to 10s for a board to be saved
  warren dump navigate --wait 10s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, s, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "default", "Output format (default or json)")
	cmd.Flags().DurationVar(&opts.wait, "wait", 0, "Wait up to this long for the board to be saved")
	cmd.Flags().StringVar(&opts.match, "match", "", "Only show entries whose name matches a glob pattern")
	cmd.Flags().StringVar(&opts.typeGlob, "type", "", "Only show entries whose type matches a glob pattern")
	cmd.Flags().BoolVar(&opts.hidePrivate, "hide-private", false, "Hide entries whose name starts with an underscore")
	return cmd
}

func runDump(cmd *cobra.Command, s *session, args []string, opts *dumpOptions) error {
	ctx := cmd.Context()

	format, err := dump.ParseOutputFormat(opts.output)
	if err != nil {
		return printer.Error("invalid output format", err.Error(),
			[]string{"Use -o default or -o json"})
	}
	criteria := &filter.Criteria{
		NameGlob:    opts.match,
		TypeGlob:    opts.typeGlob,
		HidePrivate: opts.hidePrivate,
	}
	if err := criteria.Validate(); err != nil {
		return printer.Error("invalid filter", err.Error(),
			[]string{"Patterns use shell glob syntax, e.g. --match 'nav_*'"})
	}
	if opts.wait > 0 && len(args) == 0 {
		return printer.Error("--wait requires a board name", "Only a single board can be awaited.",
			[]string{"warren dump BOARD --wait 10s"})
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if len(args) == 0 {
		if err := dump.ListBoards(ctx, client, format, cmd.OutOrStdout()); err != nil {
			return printer.Error("failed to list boards", err.Error(), nil)
		}
		return nil
	}

	board := args[0]
	if opts.wait > 0 {
		records, err := watch.PollForBoard(ctx, client, board, opts.wait)
		if err != nil {
			return printer.ErrorWithContext("board not available", err.Error(),
				map[string]string{"Board": board, "Instance": client.InstanceName()}, nil)
		}
		return dump.WriteRecords(cmd.OutOrStdout(), board, filter.Apply(criteria, records), format)
	}

	resolved, err := resolver.ResolveBoard(ctx, client, board)
	if err != nil {
		var ambiguous *resolver.AmbiguousError
		switch {
		case resolver.IsNotFoundError(err):
			return boardNotFound(board, client.InstanceName())
		case errors.As(err, &ambiguous):
			return printer.Error("ambiguous board name", resolver.FormatAmbiguousError(ambiguous), nil)
		default:
			return printer.Error("failed to dump board", err.Error(), nil)
		}
	}

	if err := dump.GetBoard(ctx, client, resolved, criteria, format, cmd.OutOrStdout()); err != nil {
		if dump.IsNotFound(err) {
			return boardNotFound(resolved, client.InstanceName())
		}
		return printer.Error("failed to dump board", err.Error(), nil)
	}
	return nil
}

func boardNotFound(board, instanceName string) error {
	return printer.ErrorWithContext(
		fmt.Sprintf("board '%s' not found", board),
		"No snapshot was saved for this board.",
		map[string]string{"Instance": instanceName},
		[]string{
			"List saved boards:\n  warren dump",
			"Save boards from a board file:\n  warren load FILE --push",
		},
	)
}
