package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/sparkboard/internal/persistence/sqlite/migration"
)

// statusReporter is implemented by stores that track applied migrations locally.
type statusReporter interface {
	MigrationStatus(ctx context.Context) (migration.Status, error)
}

func newMigrateCommand() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			if !statusOnly {
				if err := s.Migrate(ctx); err != nil {
					return err
				}
				logger.InfoContext(ctx, "database migrations applied", "driver", cfg.DatabaseDriver)
			}

			reporter, ok := s.(statusReporter)
			if !ok {
				if statusOnly {
					return errors.New("migrate: --status is only supported by the sqlite driver")
				}
				return nil
			}
			status, err := reporter.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "report applied and pending migrations without applying them")
	return cmd
}

func printStatus(w io.Writer, status migration.Status) {
	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(w, "current version: %s\n", current)
	for _, applied := range status.AppliedMigrations {
		fmt.Fprintf(w, "applied  %s  %s\n", applied.Version, applied.AppliedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	for _, pending := range status.PendingMigrations {
		fmt.Fprintf(w, "pending  %s  %s\n", pending.Version, pending.Description)
	}
}
