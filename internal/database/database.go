package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/chitfund-portal/internal"
)

// DB bundles the two handles used by repositories: gorm for access requests
// and sqlx for the security archive. Both share one pool.
type DB struct {
	Driver string
	Gorm   *gorm.DB
	SQL    *sqlx.DB
}

// Open connects to the configured database. It returns nil for the memory
// driver.
func Open(ctx context.Context, cfg internal.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case internal.DriverMemory, "":
		return nil, nil
	case internal.DriverPostgres:
		return openPostgres(ctx, cfg)
	case internal.DriverSQLite:
		return openSQLite(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func openPostgres(ctx context.Context, cfg internal.DatabaseConfig) (*DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.ConnectContext(ctx, driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	applyPool(dbConn, cfg)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), gormConfig())
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DB{Driver: internal.DriverPostgres, Gorm: gdb, SQL: dbConn}, nil
}

func openSQLite(ctx context.Context, cfg internal.DatabaseConfig) (*DB, error) {
	source := cfg.Source
	if source == "" {
		source = "./data/chitfund.db"
	}
	if !strings.HasPrefix(source, ":memory:") && !strings.HasPrefix(source, "file:") {
		if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(source), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return &DB{Driver: internal.DriverSQLite, Gorm: gdb, SQL: sqlx.NewDb(sqlDB, "sqlite3")}, nil
}

func applyPool(db *sqlx.DB, cfg internal.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)}
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SQL.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SQL.Close()
}
