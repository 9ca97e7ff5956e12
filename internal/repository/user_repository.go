package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/fixpoint/internal/domain"
)

// UserRepository defines persistence access for accounts.
// Lookups of a missing row return an error satisfying errorutil.IsNoRows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByCredentials(ctx context.Context, username, password string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context) (int, error)
}

const userColumns = `Codigo, Usuario, Nombre, Contrasena, Tipo`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO Usuarios (Usuario, Nombre, Contrasena, Tipo)
        VALUES ($1, $2, $3, $4)
        RETURNING Codigo`

	return r.pool.QueryRow(ctx, query,
		user.Username,
		user.DisplayName,
		user.Password,
		user.Role,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Codigo=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Usuario=$1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *userRepository) FindByCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Usuario=$1 AND Contrasena=$2`
	return scanUser(r.pool.QueryRow(ctx, query, username, password))
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Tipo=$1 ORDER BY Codigo ASC`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM Usuarios`).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Password,
		&user.Role,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
