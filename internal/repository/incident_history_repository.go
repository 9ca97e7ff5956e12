package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// IncidentHistoryRepository stores audit entries.
type IncidentHistoryRepository interface {
	Create(ctx context.Context, history *domain.IncidentHistory) error
	ListByIncident(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error)
}

const historyColumns = `codigo, codigoIncidente, codigoActor, estadoAnterior, estadoNuevo, codigotecnico, created_at`

type incidentHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentHistoryRepository builds the Postgres repository.
func NewIncidentHistoryRepository(pool *pgxpool.Pool) IncidentHistoryRepository {
	return &incidentHistoryRepository{pool: pool}
}

func (r *incidentHistoryRepository) Create(ctx context.Context, history *domain.IncidentHistory) error {
	const query = `
        INSERT INTO IncidenteHistorial (codigoIncidente, codigoActor, estadoAnterior, estadoNuevo, codigotecnico)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING codigo, created_at`
	return r.pool.QueryRow(ctx, query,
		history.IncidentID,
		history.ActorID,
		statusPtrArg(history.FromStatus),
		string(history.ToStatus),
		history.TechnicianID,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *incidentHistoryRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error) {
	const query = `SELECT ` + historyColumns + ` FROM IncidenteHistorial WHERE codigoIncidente=$1 ORDER BY codigo ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IncidentHistory
	for rows.Next() {
		var (
			history domain.IncidentHistory
			from    *string
			to      string
		)
		if err := rows.Scan(
			&history.ID,
			&history.IncidentID,
			&history.ActorID,
			&from,
			&to,
			&history.TechnicianID,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.FromStatus = statusFromPtr(from)
		history.ToStatus = domain.IncidentStatus(to)
		result = append(result, history)
	}
	return result, rows.Err()
}

type sqliteIncidentHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteIncidentHistoryRepository builds the local store repository.
func NewSQLiteIncidentHistoryRepository(db *sql.DB) IncidentHistoryRepository {
	return &sqliteIncidentHistoryRepository{db: db}
}

func (r *sqliteIncidentHistoryRepository) Create(ctx context.Context, history *domain.IncidentHistory) error {
	const query = `
        INSERT INTO IncidenteHistorial (codigoIncidente, codigoActor, estadoAnterior, estadoNuevo, codigotecnico, created_at)
        VALUES (?,?,?,?,?,?)
        RETURNING codigo`
	history.CreatedAt = time.Now().UTC()
	return r.db.QueryRowContext(ctx, query,
		history.IncidentID,
		history.ActorID,
		statusPtrArg(history.FromStatus),
		string(history.ToStatus),
		history.TechnicianID,
		history.CreatedAt,
	).Scan(&history.ID)
}

func (r *sqliteIncidentHistoryRepository) ListByIncident(ctx context.Context, incidentID int64) ([]domain.IncidentHistory, error) {
	const query = `SELECT ` + historyColumns + ` FROM IncidenteHistorial WHERE codigoIncidente=? ORDER BY codigo ASC`
	rows, err := r.db.QueryContext(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IncidentHistory
	for rows.Next() {
		var (
			history    domain.IncidentHistory
			actor      sql.NullInt64
			from       sql.NullString
			to         string
			technician sql.NullInt64
		)
		if err := rows.Scan(
			&history.ID,
			&history.IncidentID,
			&actor,
			&from,
			&to,
			&technician,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ActorID = int64Ptr(actor)
		if from.Valid {
			history.FromStatus = statusFromPtr(&from.String)
		}
		history.ToStatus = domain.IncidentStatus(to)
		history.TechnicianID = int64Ptr(technician)
		result = append(result, history)
	}
	return result, rows.Err()
}

func statusPtrArg(s *domain.IncidentStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func statusFromPtr(s *string) *domain.IncidentStatus {
	if s == nil {
		return nil
	}
	v := domain.IncidentStatus(*s)
	return &v
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
