// Package database provides request-scoped database sessions.
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// Beginner starts transactions. *runtime.DB satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Session is a unit of work. The transaction is started on first use, so a
// request that never touches the database never takes a connection.
//
// A Session is not safe for concurrent use; it belongs to one request.
type Session struct {
	db     Beginner
	tx     pgx.Tx
	closed bool
}

func newSession(db Beginner) *Session {
	return &Session{db: db}
}

func (s *Session) begin(ctx context.Context) (pgx.Tx, error) {
	if s.closed {
		return nil, runtime.ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return tx, nil
}

// Exec executes a statement inside the session transaction.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, runtime.WrapQuery(sql, err)
	}
	return tag.RowsAffected(), nil
}

// Query runs a query inside the session transaction.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, runtime.WrapQuery(sql, err)
	}
	return rows, nil
}

// QueryRow runs a single-row query inside the session transaction.
func (s *Session) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	tx, err := s.begin(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return tx.QueryRow(ctx, sql, args...)
}

// Commit commits the open transaction, if any. A failed commit is rolled back
// and the session can start a new transaction afterwards.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return runtime.ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		rbErr := tx.Rollback(ctx)
		if rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// Rollback discards the open transaction, if any.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Close rolls back anything uncommitted and releases the session. Safe to call
// more than once.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Rollback(ctx)
}

// InTransaction reports whether the session holds an open transaction.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
