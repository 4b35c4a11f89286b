package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/warren/internal/config"
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/dyluth/warren/pkg/snapshotstore"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

// maxPushers bounds the concurrent snapshot transfers of one load.
const maxPushers = 4

type loadOptions struct {
	push  bool
	pull  bool
	quiet bool
}

func newLoadCommand(s *session) *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Build the blackboards described by a board file",
		Long: `Build the scope tree described by a board file and print every board.

The file declares scopes, their parent, remappings and typed entries.
With --pull, saved snapshots of each scope are imported before printing.
With --push, every board is exported and saved to Redis.

Examples:
  # Check a board file
  warren load warren.yml

  # Restore saved state, then save it back
  warren load warren.yml --pull --push`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, s, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.push, "push", false, "Save every board snapshot to Redis")
	cmd.Flags().BoolVar(&opts.pull, "pull", false, "Import saved snapshots before printing")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print board contents")
	return cmd
}

func runLoad(cmd *cobra.Command, s *session, path string, opts *loadOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Load(path)
	if err != nil {
		return printer.Error(
			"invalid board file",
			err.Error(),
			[]string{"Check the file against the board format:\n  version: \"1.0\"\n  scopes:\n    - name: root"},
		)
	}

	tree, err := config.Build(cfg, blackboard.WithObserver(s.observer()))
	if err != nil {
		return printer.ErrorWithContext("failed to build boards", err.Error(),
			map[string]string{"File": path}, nil)
	}
	s.logger.Debug("boards built", "file", path, "boards", len(tree.Names()))

	codecs := blackboard.NewCodecs()

	if opts.pull || opts.push {
		client, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if opts.pull {
			if err := pullBoards(ctx, client, tree, codecs); err != nil {
				return err
			}
		}

		if !opts.quiet {
			printBoards(cmd, tree)
		}

		if opts.push {
			if err := pushBoards(ctx, client, tree, codecs); err != nil {
				return printer.ErrorWithContext("failed to push boards", err.Error(),
					map[string]string{"Instance": client.InstanceName()}, nil)
			}
			printer.Success("Pushed %d %s to instance '%s'\n",
				len(tree.Names()), boardsWord(len(tree.Names())), client.InstanceName())
		}
		return nil
	}

	if !opts.quiet {
		printBoards(cmd, tree)
	}
	printer.Success("Built %d %s from %s\n", len(tree.Names()), boardsWord(len(tree.Names())), path)
	return nil
}

// pullBoards imports saved snapshots in scope order so parents are restored
// before the subtrees writing through to them. Boards never saved are skipped.
func pullBoards(ctx context.Context, client *snapshotstore.Client, tree *config.Tree, codecs *blackboard.Codecs) error {
	for _, name := range tree.Names() {
		bb, _ := tree.Board(name)
		err := snapshotstore.Pull(ctx, client, name, bb, codecs)
		switch {
		case err == nil:
			printer.Step("Restored board '%s'\n", name)
		case snapshotstore.IsNotFound(err):
			printer.Detail("No snapshot saved for board '%s'\n", name)
		case blackboard.IsTypeMismatch(err):
			printer.Warning("Board '%s' restored partially: %v\n", name, err)
		default:
			return printer.ErrorWithContext("failed to pull snapshot", err.Error(),
				map[string]string{"Board": name, "Instance": client.InstanceName()}, nil)
		}
	}
	return nil
}

func pushBoards(ctx context.Context, client *snapshotstore.Client, tree *config.Tree, codecs *blackboard.Codecs) error {
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(maxPushers)
	for _, name := range tree.Names() {
		bb, _ := tree.Board(name)
		p.Go(func(ctx context.Context) error {
			if err := snapshotstore.Push(ctx, client, name, bb, codecs); err != nil {
				return fmt.Errorf("board '%s': %w", name, err)
			}
			return nil
		})
	}
	return p.Wait()
}

func printBoards(cmd *cobra.Command, tree *config.Tree) {
	for _, name := range tree.Names() {
		bb, _ := tree.Board(name)
		printer.Info("board '%s'\n", name)
		bb.DebugMessage(cmd.OutOrStdout())
	}
}

func boardsWord(n int) string {
	if n == 1 {
		return "board"
	}
	return "boards"
}
