package database

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/frahmantamala/chitfund-portal/db"
	"github.com/frahmantamala/chitfund-portal/internal"
)

const migrationTable = "schema_migrations"

func dialect(driver string) (string, error) {
	switch driver {
	case internal.DriverPostgres:
		return "postgres", nil
	case internal.DriverSQLite:
		return "sqlite3", nil
	}
	return "", fmt.Errorf("no migrations for driver %q", driver)
}

// Migrate applies the embedded migrations, or rolls back the latest one.
func Migrate(ctx context.Context, d *DB, rollback bool) error {
	dia, err := dialect(d.Driver)
	if err != nil {
		return err
	}

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName(migrationTable)
	if err := goose.SetDialect(dia); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if rollback {
		if err := goose.DownContext(ctx, d.SQL.DB, db.MigrationsDir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	}
	if err := goose.UpContext(ctx, d.SQL.DB, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
