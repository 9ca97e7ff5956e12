package repository

import (
	"github.com/spec-kit/fixpoint/internal/config"
	"github.com/spec-kit/fixpoint/internal/persistence"
)

// Set groups the repositories for one store.
type Set struct {
	Users     UserRepository
	Incidents IncidentRepository
	History   IncidentHistoryRepository
}

// NewSet picks the implementation matching the database driver.
func NewSet(db *persistence.Database) Set {
	if db.Driver == config.DriverPostgres {
		return Set{
			Users:     NewUserRepository(db.Pool),
			Incidents: NewIncidentRepository(db.Pool),
			History:   NewIncidentHistoryRepository(db.Pool),
		}
	}
	return Set{
		Users:     NewSQLiteUserRepository(db.SQL),
		Incidents: NewSQLiteIncidentRepository(db.SQL),
		History:   NewSQLiteIncidentHistoryRepository(db.SQL),
	}
}
