package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/grocer/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB, driver string) error {
			if err := database.Up(db, driver); err != nil {
				return err
			}
			return printVersion(cmd, db, driver)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB, driver string) error {
			if err := database.Down(db, driver); err != nil {
				return err
			}
			return printVersion(cmd, db, driver)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(database.Status)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// withDB connects without migrating. Migrations only need the database
// settings, so the auth secret is not required here.
func withDB(fn func(db *sql.DB, driver string) error) error {
	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, cfg.Database.DriverName())
}

func printVersion(cmd *cobra.Command, db *sql.DB, driver string) error {
	version, err := database.Version(db, driver)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
