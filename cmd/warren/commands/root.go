package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/settings"
	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/dyluth/warren/pkg/snapshotstore"
	"github.com/spf13/cobra"
)

var versionString = "dev"

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// Execute builds the command tree and runs it with ctx.
// This is called by main.main().
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// session carries what PersistentPreRunE resolved for the running command.
type session struct {
	settings *settings.Settings
	logger   *slog.Logger
}

// observer returns the blackboard observer matching the verbosity.
func (s *session) observer() blackboard.Observer {
	if !s.settings.Verbose {
		return blackboard.NoOpObserver{}
	}
	return blackboard.NewSlogObserver(s.logger)
}

// connect opens a snapshot client and verifies Redis connectivity.
func (s *session) connect(ctx context.Context) (*snapshotstore.Client, error) {
	opts, err := s.settings.RedisOptions()
	if err != nil {
		return nil, err
	}

	client, err := snapshotstore.NewClient(opts, s.settings.Instance)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		s.logger.Debug("redis ping failed", "error", err)
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", s.settings.RedisURL),
			map[string]string{"Instance": s.settings.Instance},
			[]string{
				"Start a Redis server:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Point warren at another server:\n  warren --redis-url redis://host:6379 ...",
			},
		)
	}
	return client, nil
}

// NewRootCommand creates the warren command tree.
func NewRootCommand() *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:   "warren",
		Short: "Warren - typed, scoped blackboards for concurrent components",
		Long: `Warren builds typed blackboards from a board description file and
exchanges their snapshots through Redis.

Every name on a blackboard keeps the type it was first declared with.
Subtree scopes forward selected names to their parent scope.`,
		Version: versionString,
		// Prevent silent success when unknown flags are passed to root command
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

			v := settings.New()
			if err := settings.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			loaded, err := settings.Load(v)
			if err != nil {
				return printer.Error("invalid settings", err.Error(),
					[]string{"Check --redis-url, --name and the WARREN_* environment variables"})
			}

			level := slog.LevelWarn
			if loaded.Verbose {
				level = slog.LevelDebug
			}
			s.settings = loaded
			s.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
		// Enable strict flag parsing - unknown flags will cause an error
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		// We print formatted colored errors directly in the printer package
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	settings.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newLoadCommand(s),
		newDumpCommand(s),
		newWatchCommand(s),
	)
	return rootCmd
}
