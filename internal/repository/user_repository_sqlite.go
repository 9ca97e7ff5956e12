package repository

import (
	"context"
	"database/sql"

	"github.com/spec-kit/fixpoint/internal/domain"
)

type sqliteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository returns a database/sql implementation for the local store.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO Usuarios (Usuario, Nombre, Contrasena, Tipo)
        VALUES (?, ?, ?, ?)
        RETURNING Codigo`

	return r.db.QueryRowContext(ctx, query,
		user.Username,
		user.DisplayName,
		user.Password,
		string(user.Role),
	).Scan(&user.ID)
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Codigo=?`
	return scanSQLUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Usuario=?`
	return scanSQLUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *sqliteUserRepository) FindByCredentials(ctx context.Context, username, password string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Usuario=? AND Contrasena=?`
	return scanSQLUser(r.db.QueryRowContext(ctx, query, username, password))
}

func (r *sqliteUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM Usuarios WHERE Tipo=? ORDER BY Codigo ASC`
	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanSQLUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *sqliteUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Usuarios`).Scan(&n)
	return n, err
}

type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLUser(row sqlRow) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Password,
		&role,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}
