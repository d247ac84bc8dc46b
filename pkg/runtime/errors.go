// Package runtime provides the connection pool and error taxonomy of the ORM layer.
package runtime

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the ORM translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrForeignKeyViolation is returned when a foreign key constraint is violated.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrCheckViolation is returned when a CHECK constraint is violated.
	ErrCheckViolation = errors.New("check constraint violation")

	// ErrNoConnection is returned when no database connection is available.
	ErrNoConnection = errors.New("no database connection")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session already closed")
)

// QueryError represents a query execution error.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel errors against the PostgreSQL error code of the wrapped error.
func (e *QueryError) Is(target error) bool {
	switch target {
	case ErrDuplicateKey:
		return SQLState(e.Err) == codeUniqueViolation
	case ErrForeignKeyViolation:
		return SQLState(e.Err) == codeForeignKeyViolation
	case ErrCheckViolation:
		return SQLState(e.Err) == codeCheckViolation
	case ErrNotFound:
		return errors.Is(e.Err, pgx.ErrNoRows)
	}
	return false
}

// Constraint returns the violated constraint name, if any.
func (e *QueryError) Constraint() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// SQLState returns the PostgreSQL error code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MigrationError represents a schema bootstrap failure on one table.
type MigrationError struct {
	Table   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error (table %s): %s: %v", e.Table, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// WrapQuery attaches sql to err unless err is nil or already a *QueryError.
// Errors surfaced while iterating rows (RETURNING after a constraint violation)
// reach callers through this path.
func WrapQuery(sql string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Query: sql, Err: err}
}
