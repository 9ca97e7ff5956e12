package persistence

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/fixpoint/internal/config"
)

func openMemory(t *testing.T) *Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite},
		SQLite:   config.SQLiteConfig{Path: "file:" + name + "?mode=memory&cache=shared"},
	}
	db, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestMigrator_UpDownStatus(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	m, err := NewMigrator(db.SQL, db.Driver, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.True(t, st.Applied, st.Path)
	}

	// tables exist
	_, err = db.SQL.ExecContext(ctx, `INSERT INTO Usuarios (Usuario, Nombre, Contrasena, Tipo) VALUES ('a', 'A', 'p', 'comun')`)
	require.NoError(t, err)

	require.NoError(t, m.Down(ctx, 1))
	version, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// re-applying is idempotent for already applied versions
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx))
}

func TestSchema_EnforcesTechnicianInvariant(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, RunMigrations(ctx, db, zap.NewNop()))

	_, err := db.SQL.ExecContext(ctx, `INSERT INTO Incidente (nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo)
		VALUES ('u', 'a', 'd', 'Asignado', NULL, 'E1')`)
	assert.Error(t, err, "assigned incident without technician must be rejected")

	_, err = db.SQL.ExecContext(ctx, `INSERT INTO Incidente (nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo)
		VALUES ('u', 'a', 'd', 'Sin atender', NULL, 'E1')`)
	assert.NoError(t, err)

	_, err = db.SQL.ExecContext(ctx, `INSERT INTO Incidente (nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo)
		VALUES ('u', 'a', 'd', 'Cerrado', NULL, 'E1')`)
	assert.Error(t, err, "unknown status must be rejected")
}

func TestNewMigrator_UnknownDriver(t *testing.T) {
	db := openMemory(t)
	_, err := NewMigrator(db.SQL, "oracle", zap.NewNop())
	assert.Error(t, err)
}

func TestDatabase_Ping(t *testing.T) {
	db := openMemory(t)
	assert.NoError(t, db.Ping(context.Background()))

	var nilDB *Database
	assert.Error(t, nilDB.Ping(context.Background()))
}
