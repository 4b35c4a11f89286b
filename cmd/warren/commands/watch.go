package commands

import (
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCommand(s *session) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream snapshot events of the instance",
		Long: `Stream an event every time a board snapshot is saved.

Runs until interrupted.

Examples:
  warren watch
  warren watch -o json | jq .board`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := watch.OutputFormat(output)
			if format != watch.OutputFormatDefault && format != watch.OutputFormatJSON {
				return printer.Error("invalid output format",
					"unsupported output format: "+output,
					[]string{"Use -o default or -o json"})
			}

			ctx := cmd.Context()
			client, err := s.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := watch.StreamSnapshots(ctx, client, format, cmd.OutOrStdout()); err != nil {
				return printer.Error("watch failed", err.Error(), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "default", "Output format (default or json)")
	return cmd
}
