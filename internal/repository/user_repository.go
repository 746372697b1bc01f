package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/reclamos-service/internal/domain"
)

const uniqueViolation = "23505"

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, nombre, apellido, telefono, email, password_hash, role, COALESCE(area, ''),
               account_status, email_confirmed_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (nombre, apellido, telefono, email, password_hash, role, area, account_status, email_confirmed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Nombre,
		user.Apellido,
		user.Telefono,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullableArea(user.Area),
		user.AccountStatus,
		user.EmailConfirmedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET nombre=$1, apellido=$2, telefono=$3, password_hash=$4, role=$5, area=$6,
            account_status=$7, email_confirmed_at=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Nombre,
		user.Apellido,
		user.Telefono,
		user.PasswordHash,
		user.Role,
		nullableArea(user.Area),
		user.AccountStatus,
		user.EmailConfirmedAt,
		user.ID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, email ASC`
	rows, err := r.pool.Query(ctx, query)
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

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		area string
	)
	if err := row.Scan(
		&user.ID,
		&user.Nombre,
		&user.Apellido,
		&user.Telefono,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&area,
		&user.AccountStatus,
		&user.EmailConfirmedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Area = domain.Area(area)
	return &user, nil
}

func nullableArea(area domain.Area) *string {
	if area == "" {
		return nil
	}
	s := string(area)
	return &s
}
