// Command migrate is a standalone schema-migration tool for a corefx-backed
// service's reldb-owned Postgres database, grounded on the teacher's
// internal/infrastructure/migrations CLI but trimmed to the operations
// spec.md §4.4's schema-bootstrap concern actually needs: up/down/status/
// version/create/redo against goose-format SQL files, with no backup
// scheduling or pre/post-migration health gating (see DESIGN.md for why
// those two teacher subsystems were left out of this framework's scope).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/corefx/fwconfig"
	"github.com/vitaliisemenov/corefx/reldb"
)

func main() {
	var (
		dbURL    string
		dir      string
		client   *reldb.Client
		migrator *reldb.Migrator
	)

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and inspect reldb schema migrations",
		Long:  "A tool for managing the schema migrations of a corefx reldb-backed Postgres database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := reldb.New(context.Background(), fwconfig.DBModuleConfig{URL: dbURL}, nil)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			m, err := reldb.NewMigrator(c, dir, nil)
			if err != nil {
				c.Close()
				return fmt.Errorf("building migrator: %w", err)
			}
			client, migrator = c, m
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if migrator != nil {
				_ = migrator.Close()
			}
			if client != nil {
				client.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbURL, "db-url", os.Getenv("MIGRATION_DSN"), "postgres connection URL (defaults to $MIGRATION_DSN)")
	root.PersistentFlags().StringVar(&dir, "dir", "migrations", "directory containing goose-format SQL migration files")

	root.AddCommand(
		upCommand(&migrator),
		downCommand(&migrator),
		statusCommand(&migrator),
		versionCommand(&migrator),
		createCommand(&migrator),
		redoCommand(&migrator),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func upCommand(m **reldb.Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "up [version]",
		Short: "Apply migrations",
		Long:  "Apply all pending migrations, or up to a specific version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 0 {
				return (*m).Up(ctx)
			}
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version number: %w", err)
			}
			return (*m).UpTo(ctx, version)
		},
	}
}

func downCommand(m **reldb.Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "down [version]",
		Short: "Roll back migrations",
		Long:  "Roll back the most recent migration, or down to a specific version",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 0 {
				return (*m).Down(ctx)
			}
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version number: %w", err)
			}
			return (*m).DownTo(ctx, version)
		},
	}
}

func statusCommand(m **reldb.Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*m).Status(context.Background())
		},
	}
}

func versionCommand(m **reldb.Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := (*m).Version(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("current migration version: %d\n", version)
			return nil
		},
	}
}

func createCommand(m **reldb.Migrator) *cobra.Command {
	var migrationType string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new migration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*m).Create(args[0], migrationType)
		},
	}
	cmd.Flags().StringVar(&migrationType, "type", "sql", "migration file type (sql or go)")
	return cmd
}

func redoCommand(m **reldb.Migrator) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Roll back and reapply the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*m).Redo(context.Background())
		},
	}
}
