package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and
// pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Duplicate-key sentinels. The store enforces uniqueness with unique
// indexes, so a check-then-insert race still surfaces as one of these
// instead of a second row.
var (
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUserName = errors.New("duplicate user name")
	ErrDuplicateSlug     = errors.New("duplicate slug")
)

const uniqueViolationCode = "23505"

// mapUniqueViolation translates a Postgres unique violation into the
// sentinel for the constraint that fired.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return ErrDuplicateEmail
	case "users_user_name_key":
		return ErrDuplicateUserName
	case "workspaces_slug_key":
		return ErrDuplicateSlug
	}
	return err
}
