package migration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// DefaultLockID is the advisory lock key held while a plan executes.
const DefaultLockID int64 = 7_251_004_311

// Conn is the connection surface the executor needs. *runtime.DB satisfies it.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Executor runs migration plans inside a single transaction.
type Executor struct {
	conn   Conn
	lockID int64
}

// NewExecutor creates a new migration executor.
func NewExecutor(conn Conn) *Executor {
	return &Executor{
		conn:   conn,
		lockID: DefaultLockID,
	}
}

// WithLockID sets a custom advisory lock ID.
func (e *Executor) WithLockID(lockID int64) *Executor {
	e.lockID = lockID
	return e
}

// Up creates every table of the plan. Existing tables are left untouched.
func (e *Executor) Up(ctx context.Context, plan *Plan) error {
	return e.WithTransaction(ctx, func(tx pgx.Tx) error {
		return e.run(ctx, tx, plan, plan.Up)
	})
}

// Down drops every table of the plan, dependents first.
func (e *Executor) Down(ctx context.Context, plan *Plan) error {
	return e.WithTransaction(ctx, func(tx pgx.Tx) error {
		return e.run(ctx, tx, plan, plan.Down)
	})
}

// Reset drops and recreates every table of the plan atomically.
func (e *Executor) Reset(ctx context.Context, plan *Plan) error {
	return e.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := e.run(ctx, tx, plan, plan.Down); err != nil {
			return err
		}
		return e.run(ctx, tx, plan, plan.Up)
	})
}

// Status reports which tables of the plan exist.
func (e *Executor) Status(ctx context.Context, plan *Plan) ([]TableStatus, error) {
	statuses := make([]TableStatus, 0, len(plan.Tables))
	for _, table := range plan.Tables {
		var exists bool
		err := e.conn.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table.Name).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table.Name, err)
		}
		statuses = append(statuses, TableStatus{Table: table.Name, Exists: exists})
	}
	return statuses, nil
}

// WithTransaction executes fn within a transaction holding the migration lock.
func (e *Executor) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := e.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", e.lockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

func (e *Executor) run(ctx context.Context, tx pgx.Tx, plan *Plan, statements []string) error {
	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return &runtime.MigrationError{
				Table:   tableOf(plan, stmt),
				Message: fmt.Sprintf("statement %d failed", i+1),
				Err:     err,
			}
		}
	}
	return nil
}

// tableOf returns the table a statement of the plan targets.
func tableOf(plan *Plan, stmt string) string {
	return plan.owners[stmt]
}
