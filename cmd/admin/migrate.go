package main

import (
	"context"
	"fmt"

	"github.com/edualert/edualert/internal/infrastructure/persistence/postgres"
)

// migrate applies every pending schema migration in version order.
func (cli *commandLine) migrate(ctx context.Context) error {
	if err := postgres.NewMigrator(cli.conn).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	cli.log.Info("schema is up to date")
	return nil
}

// rollback reverts the most recently applied migration.
func (cli *commandLine) rollback(ctx context.Context) error {
	if err := postgres.NewMigrator(cli.conn).Rollback(ctx); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	cli.log.Info("latest migration reverted")
	return nil
}
