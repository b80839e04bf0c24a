package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-analyst/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the card cache schema",
}

func withMigrations(fn func(*storage.MigrationManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := cfg.DBPath()
	if err != nil {
		return err
	}
	mm, err := storage.NewMigrationManager(path)
	if err != nil {
		return err
	}
	defer func() { _ = mm.Close() }()
	return fn(mm)
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			if err := mm.Up(); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			if err := mm.Down(); err != nil {
				return err
			}
			fmt.Println("Migrations rolled back")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			version, dirty, err := mm.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Println("No migrations applied")
				return nil
			}
			fmt.Printf("Version %d (dirty: %v)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
