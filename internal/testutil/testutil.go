package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/persistence"
)

// PostgresDSNEnv names the variable that enables Postgres-backed tests.
const PostgresDSNEnv = "FIXPOINT_TEST_POSTGRES_DSN"

// OpenSQLite opens a migrated in-memory database private to the test.
// The database is closed through t.Cleanup.
func OpenSQLite(t *testing.T) *persistence.Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite},
		SQLite:   config.SQLiteConfig{Path: "file:" + name + "?mode=memory&cache=shared"},
	}
	return open(t, cfg)
}

// OpenPostgres opens and migrates the database named by FIXPOINT_TEST_POSTGRES_DSN,
// skipping the test when it is unset. Tables are emptied before use.
func OpenPostgres(t *testing.T) *persistence.Database {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverPostgres},
		Postgres: config.PostgresConfig{DSN: dsn, MaxConns: 4},
	}
	db := open(t, cfg)
	if _, err := db.SQL.Exec(`TRUNCATE IncidenteHistorial, Incidente, Usuarios RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func open(t *testing.T, cfg *config.Config) *persistence.Database {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(db.Close)
	if err := persistence.RunMigrations(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
