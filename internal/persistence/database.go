package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/config"
)

// Database bundles the open handles for the configured driver.
type Database struct {
	Driver string
	// SQL is always set. For postgres it is a database/sql view of Pool.
	SQL  *sql.DB
	Pool *pgxpool.Pool

	pg *Postgres
}

// Open connects to the configured store.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Database, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &Database{
			Driver: config.DriverPostgres,
			SQL:    stdlib.OpenDBFromPool(pg.PoolHandle()),
			Pool:   pg.PoolHandle(),
			pg:     pg,
		}, nil
	case config.DriverSQLite, "":
		db, err := OpenSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return &Database{Driver: config.DriverSQLite, SQL: db}, nil
	}
	return nil, errors.New("unsupported database driver: " + cfg.Database.Driver)
}

// Ping verifies the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.SQL == nil {
		return errors.New("database not configured")
	}
	if d.Pool != nil {
		return d.Pool.Ping(ctx)
	}
	return d.SQL.PingContext(ctx)
}

// Close releases every handle.
func (d *Database) Close() {
	if d == nil {
		return
	}
	if d.SQL != nil {
		_ = d.SQL.Close()
	}
	d.pg.Close()
}
