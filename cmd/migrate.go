package cmd

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/chitfund-portal/internal/database"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations (db/migrations)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to open DB: %v\n", err)
	}
	if db == nil {
		return errors.New("migrate: the memory driver has no schema")
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, migrateRollback); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	return nil
}
