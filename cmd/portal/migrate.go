package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/conference-portal/internal/config"
	"github.com/example/conference-portal/internal/logging"
	"github.com/example/conference-portal/internal/persistence/sqlite"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.NewJSON(opts.stderr, opts.logLevel(cfg.LogLevel))

			store, err := openStore(cfg.DatabaseURL, logger)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			lite, ok := store.(*sqlite.Storage)
			if !ok {
				fmt.Fprintln(opts.stdout, "schema up to date")
				return nil
			}
			status, err := lite.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "schema version %s (%d applied, %d pending)\n", status.CurrentVersion, len(status.Applied), len(status.Pending))
			return nil
		},
	}
}
