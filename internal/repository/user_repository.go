package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workspace-service/internal/domain"
)

// UserRepository defines persistence access for user accounts.
//
// GetByID omits the credential columns; the WithSecret variants load
// them and exist only for verification steps. Find* methods report
// absence as (nil, nil); Get* methods return pgx.ErrNoRows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmailOrUserName(ctx context.Context, email, userName string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDWithSecret(ctx context.Context, id string) (*domain.User, error)
	GetByEmailWithSecret(ctx context.Context, email string) (*domain.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) error
	SetPassword(ctx context.Context, id, passwordHash string) error
}

type userRepository struct {
	pool PgxPool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool PgxPool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (user_name, full_name, email, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.UserName,
		user.FullName,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapUniqueViolation(err)
}

func (r *userRepository) FindByEmailOrUserName(ctx context.Context, email, userName string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, full_name, email, created_at, updated_at
        FROM users WHERE email=$1 OR user_name=$2
        LIMIT 1`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, email, userName).Scan(
		&user.ID,
		&user.UserName,
		&user.FullName,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, full_name, email, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.UserName,
		&user.FullName,
		&user.Email,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDWithSecret(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, full_name, email, password_hash, refresh_token, created_at, updated_at
        FROM users WHERE id=$1`
	return r.scanWithSecret(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmailWithSecret(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, full_name, email, password_hash, refresh_token, created_at, updated_at
        FROM users WHERE email=$1`
	return r.scanWithSecret(r.pool.QueryRow(ctx, query, email))
}

// SetRefreshToken overwrites the single refresh-token slot. Passing
// nil clears it.
func (r *userRepository) SetRefreshToken(ctx context.Context, id string, token *string) error {
	const query = `
        UPDATE users SET refresh_token=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetPassword replaces the password hash and clears the stored refresh
// token in the same statement, forcing re-authentication.
func (r *userRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	const query = `
        UPDATE users SET password_hash=$1, refresh_token=NULL, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanWithSecret(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
