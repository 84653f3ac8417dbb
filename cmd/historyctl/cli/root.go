package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Dependencies are the process-level collaborators of the commands. Zero values select the defaults.
type Dependencies struct {
	// Now is the clock for new task timestamps and deletions, time.Now by default.
	Now func() time.Time

	// NewID generates task IDs, UUIDv7 by default.
	NewID func() (string, error)
}

// rootOptions holds the state shared by all commands.
type rootOptions struct {
	deps       Dependencies
	viper      *viper.Viper
	configFile string
	config     Config
	logger     *slog.Logger
}

// NewRootCommand creates the historyctl root command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	opts := &rootOptions{deps: deps, viper: newViper()}

	cmd := &cobra.Command{
		Use:           "historyctl",
		Short:         "Manage tasks and read their version history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := readConfigFile(opts.viper, opts.configFile); err != nil {
				return err
			}

			cfg, err := loadConfig(opts.viper)
			if err != nil {
				return err
			}

			opts.config = cfg
			opts.logger = newLogger(cfg, cmd.ErrOrStderr())

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./historyctl.yaml)")
	flags.String("backend", backendSQLite, "database backend (sqlite|postgres)")
	flags.String("sqlite-path", defaultSQLite, "path of the SQLite database file")
	flags.String("postgres-dsn", defaultPostgres, "PostgreSQL connection string")
	flags.String("postgres-adapter", adapterPGXPool, "PostgreSQL adapter (pgx.pool|sql.db|sqlx.db)")
	flags.String("history-table", defaultHistory, "name of the history table")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.String("log-format", logFormatText, "log format (text|json)")

	for key, flag := range map[string]string{
		keyBackend:         "backend",
		keySQLitePath:      "sqlite-path",
		keyPostgresDSN:     "postgres-dsn",
		keyPostgresAdapter: "postgres-adapter",
		keyHistoryTable:    "history-table",
		keyLogLevel:        "log-level",
		keyLogFormat:       "log-format",
	} {
		_ = opts.viper.BindPFlag(key, flags.Lookup(flag)) // only fails for a nil flag
	}

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTaskCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

// withBackend opens the configured backend for the duration of fn.
func (opts *rootOptions) withBackend(ctx context.Context, fn func(b *backend) error) error {
	b, err := openBackend(ctx, opts.config, opts.deps, opts.logger)
	if err != nil {
		return err
	}
	defer b.close()

	return fn(b)
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the history and tasks tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd.Context(), func(b *backend) error {
				if err := b.migrate(cmd.Context()); err != nil {
					return err
				}

				opts.logger.Info("schema migrated", "backend", opts.config.Backend)
				newPrinter(cmd.OutOrStdout()).Println("schema is up to date")

				return nil
			})
		},
	}
}
