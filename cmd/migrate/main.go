package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"crateapi/internal/app"
	"crateapi/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the corpus schema to Postgres",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadEnvFiles()
			if dsn == "" {
				dsn = databaseDSN()
			}
		},
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN (default $DB_DSN)")

	withDB := func(fn func(db *sql.DB, dir string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			pool, err := pgxpool.New(context.Background(), dsn)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", app.RedactDSN(dsn), err)
			}
			defer pool.Close()

			db := stdlib.OpenDBFromPool(pool)
			defer db.Close()

			goose.SetBaseFS(nil)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			return fn(db, migrationsDir())
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(db *sql.DB, dir string) error {
				if err := goose.Up(db, dir); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				logging.Info().Str("dir", dir).Msg("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: withDB(func(db *sql.DB, dir string) error {
				if err := goose.Down(db, dir); err != nil {
					return fmt.Errorf("roll back migration: %w", err)
				}
				logging.Info().Str("dir", dir).Msg("migration rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			RunE: withDB(func(db *sql.DB, dir string) error {
				return goose.Status(db, dir)
			}),
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new SQL migration file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := goose.Create(nil, migrationsDir(), args[0], "sql"); err != nil {
					return fmt.Errorf("create migration: %w", err)
				}
				return nil
			},
		},
	)
	return root
}
