package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dir, dbURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: "Run database migrations from the migrations/ directory.\n\n" +
			"Environment:\n  DATABASE_URL  PostgreSQL connection string (required)",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "migrations directory")
	cmd.PersistentFlags().StringVar(&dbURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")

	open := func() (*migrate.Migrate, error) {
		url, err := requireValue(dbURL, "DATABASE_URL")
		if err != nil {
			return nil, err
		}
		m, err := migrate.New("file://"+dir, url)
		if err != nil {
			return nil, fmt.Errorf("migration init failed: %w", err)
		}
		return m, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer m.Close()
				return report(cmd, m, m.Up())
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one step by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps must be a positive number, got %q", args[0])
					}
					steps = n
				}
				m, err := open()
				if err != nil {
					return err
				}
				defer m.Close()
				return report(cmd, m, m.Steps(-steps))
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer m.Close()
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("reading version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

func report(cmd *cobra.Command, m *migrate.Migrate, err error) error {
	out := cmd.OutOrStdout()
	if errors.Is(err, migrate.ErrNoChange) {
		v, _, _ := m.Version()
		fmt.Fprintf(out, "no new migrations (current version: %d)\n", v)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	v, dirty, _ := m.Version()
	fmt.Fprintf(out, "migrations applied (version: %d, dirty: %v)\n", v, dirty)
	return nil
}
