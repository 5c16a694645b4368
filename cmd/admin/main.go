// Package main is the EduAlert one-shot administration tool.
//
// It covers the operations that do not belong in the long-running worker:
// applying or rolling back schema migrations, creating the first
// administrator profile, and forcing a single run of a named periodic pass
// against the live database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/edualert/edualert/config"
	"github.com/edualert/edualert/internal/infrastructure/persistence/postgres"
)

var errUsage = errors.New("usage printed")

func main() {
	if err := run(os.Args); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolSettings{
		MaxConns:     int32(cfg.Database.MaxOpenConns),
		MinConns:     int32(cfg.Database.MaxIdleConns),
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	cli := &commandLine{cfg: cfg, conn: dbConn, log: log}
	return cli.run(ctx, args)
}

// commandLine dispatches the admin subcommands.
type commandLine struct {
	cfg  *config.Config
	conn *postgres.Connection
	log  *slog.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage: edualert-admin COMMAND [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate                        apply pending schema migrations")
	fmt.Println("  rollback                       revert the most recent migration")
	fmt.Println("  create-admin -email E -name N  create an administrator profile (password prompted)")
	fmt.Println("  run-job NAME [-school-unit ID] run one periodic pass now")
	fmt.Println("  list-jobs                      list the runnable pass names")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errUsage
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx)
	case "rollback":
		return cli.rollback(ctx)
	case "create-admin":
		return cli.createAdmin(ctx, args[2:])
	case "run-job":
		return cli.runJob(ctx, args[2:])
	case "list-jobs":
		cli.listJobs()
		return nil
	default:
		cli.printUsage()
		return errUsage
	}
}
