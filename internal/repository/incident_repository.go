package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	// Transition applies change only while the row is in one of the from
	// statuses. It returns a no-rows error when nothing matched.
	Transition(ctx context.Context, id int64, from []domain.IncidentStatus, change IncidentChange) (*domain.Incident, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates the Postgres repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO Incidente (nombreUsuario, area_de_usuario, descripcion, estado, codigotecnico, codigoEquipo)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING codigo, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		incident.Reporter,
		incident.Area,
		incident.Description,
		string(incident.Status),
		incident.TechnicianID,
		incident.EquipmentCode,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	const query = `SELECT ` + incidentColumns + ` FROM Incidente WHERE codigo=$1`
	return scanIncident(r.pool.QueryRow(ctx, query, id))
}

func (r *incidentRepository) List(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	clause, args := filter.where(dollarPlaceholder)
	query := fmt.Sprintf(`SELECT %s FROM Incidente WHERE %s ORDER BY codigo ASC`, incidentColumns, clause)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *incident)
	}
	return result, rows.Err()
}

func (r *incidentRepository) Transition(ctx context.Context, id int64, from []domain.IncidentStatus, change IncidentChange) (*domain.Incident, error) {
	query := transitionQuery(dollarPlaceholder, from) + ` RETURNING ` + incidentColumns
	return scanIncident(r.pool.QueryRow(ctx, query, transitionArgs(id, change, from, time.Now().UTC())...))
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		incident domain.Incident
		status   string
	)
	if err := row.Scan(
		&incident.ID,
		&incident.Reporter,
		&incident.Area,
		&incident.Description,
		&status,
		&incident.TechnicianID,
		&incident.EquipmentCode,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	); err != nil {
		return nil, err
	}
	incident.Status = domain.IncidentStatus(status)
	return &incident, nil
}
