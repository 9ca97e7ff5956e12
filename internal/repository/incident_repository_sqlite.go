package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spec-kit/fixpoint/internal/domain"
)

type sqliteIncidentRepository struct {
	db *sql.DB
}

// NewSQLiteIncidentRepository instantiates the local store repository.
func NewSQLiteIncidentRepository(db *sql.DB) IncidentRepository {
	return &sqliteIncidentRepository{db: db}
}

func (r *sqliteIncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO Incidente (nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?)
        RETURNING codigo`
	now := time.Now().UTC()
	incident.CreatedAt, incident.UpdatedAt = now, now
	return r.db.QueryRowContext(ctx, query,
		incident.Reporter,
		incident.Area,
		incident.Description,
		string(incident.Status),
		incident.TechnicianID,
		incident.EquipmentCode,
		now,
		now,
	).Scan(&incident.ID)
}

func (r *sqliteIncidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	const query = `SELECT ` + incidentColumns + ` FROM Incidente WHERE codigo=?`
	return scanSQLIncident(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteIncidentRepository) List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	clause, args := filter.where(questionPlaceholder)
	query := fmt.Sprintf(`SELECT %s FROM Incidente WHERE %s ORDER BY codigo ASC`, incidentColumns, clause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Incident
	for rows.Next() {
		incident, err := scanSQLIncident(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *incident)
	}
	return result, rows.Err()
}

func (r *sqliteIncidentRepository) Transition(ctx context.Context, id int64, from []domain.IncidentStatus, change IncidentChange) (*domain.Incident, error) {
	query := transitionQuery(questionPlaceholder, from)
	res, err := r.db.ExecContext(ctx, query, transitionArgs(id, change, from, time.Now().UTC())...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func scanSQLIncident(row sqlRow) (*domain.Incident, error) {
	var (
		incident   domain.Incident
		status     string
		technician sql.NullInt64
	)
	if err := row.Scan(
		&incident.ID,
		&incident.Reporter,
		&incident.Area,
		&incident.Description,
		&status,
		&technician,
		&incident.EquipmentCode,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	); err != nil {
		return nil, err
	}
	incident.Status = domain.IncidentStatus(status)
	incident.TechnicianID = int64Ptr(technician)
	return &incident, nil
}
