package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vitals-monitor/internal/infra"
	"vitals-monitor/internal/infrastructure/repository/postgres"
)

var errNoDatabase = errors.New("no database configured: set DB_DSN or DB_HOST")

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the diagnosis archive migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := collectOverrides(cmd)
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger := setupBase(cmd.ErrOrStderr(), overrides)
			defer logger.Sync()
			return migrate(ctx, cfg, logger)
		},
	}
}

func migrate(ctx context.Context, cfg infra.Config, logger *infra.Logger) error {
	if !cfg.DatabaseConfigured() {
		return errNoDatabase
	}

	dsn, err := postgres.BuildDatabaseDSN(cfg)
	if err != nil {
		return fmt.Errorf("failed to build database DSN: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, databaseWaitTimeout)
	defer cancel()
	if err := postgres.WaitForDatabase(waitCtx, cfg, logger); err != nil {
		return fmt.Errorf("database connectivity check failed: %w", err)
	}

	// Open applies every embedded migration before returning.
	repo, err := postgres.Open(ctx, dsn, logger)
	if err != nil {
		return err
	}
	logger.Println(ctx, "migrations applied")
	return repo.Close()
}
