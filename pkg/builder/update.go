package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/runtime"
)

// Set sets a column value for the UPDATE. Columns are emitted in call order;
// setting the same column twice keeps the last value.
func (q *UpdateQuery[T]) Set(column string, value any) *UpdateQuery[T] {
	for i := range q.sets {
		if q.sets[i].column == column {
			q.sets[i].value = value
			return q
		}
	}
	q.sets = append(q.sets, assignment{column: column, value: value})
	return q
}

// Where adds a WHERE condition.
func (q *UpdateQuery[T]) Where(condition Condition) *UpdateQuery[T] {
	q.where = append(q.where, condition)
	return q
}

// And adds an AND condition.
func (q *UpdateQuery[T]) And(condition Condition) *UpdateQuery[T] {
	condition.Logic = LogicAnd
	return q.Where(condition)
}

// Returning specifies columns to return after update.
func (q *UpdateQuery[T]) Returning(columns ...string) *UpdateQuery[T] {
	q.returning = columns
	return q
}

// ToSQL generates the UPDATE SQL and arguments.
func (q *UpdateQuery[T]) ToSQL() (string, []any, error) {
	if q.err != nil {
		return "", nil, fmt.Errorf("table metadata not available: %w", q.err)
	}
	if len(q.sets) == 0 {
		return "", nil, fmt.Errorf("no columns to update")
	}

	var sql strings.Builder
	args := make([]any, 0, len(q.sets)+len(q.where))
	paramNum := 1

	sql.WriteString("UPDATE ")
	sql.WriteString(q.table.Name)
	sql.WriteString(" SET ")

	setClauses := make([]string, len(q.sets))
	for i, set := range q.sets {
		setClauses[i] = fmt.Sprintf("%s = $%d", set.column, paramNum)
		args = append(args, set.value)
		paramNum++
	}
	sql.WriteString(strings.Join(setClauses, ", "))

	whereSQL, whereArgs, err := NewWhereBuilderWithStart(paramNum, q.where...).Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build WHERE clause: %w", err)
	}
	if whereSQL != "" {
		sql.WriteString(" ")
		sql.WriteString(whereSQL)
		args = append(args, whereArgs...)
	}

	if len(q.returning) > 0 {
		sql.WriteString(" RETURNING ")
		sql.WriteString(strings.Join(q.returning, ", "))
	}

	return sql.String(), args, nil
}

// Exec executes the UPDATE query and returns the number of affected rows.
func (q *UpdateQuery[T]) Exec(ctx context.Context) (int64, error) {
	q.returning = nil
	sql, args, err := q.ToSQL()
	if err != nil {
		return 0, err
	}
	n, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, runtime.WrapQuery(sql, err)
	}
	return n, nil
}

// ExecReturning executes the UPDATE and returns the updated rows.
func (q *UpdateQuery[T]) ExecReturning(ctx context.Context) ([]T, error) {
	if len(q.returning) == 0 {
		q.Returning("*")
	}

	sql, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, runtime.WrapQuery(sql, err)
	}
	results, err := collectRows[T](rows, q.table)
	if err != nil {
		return nil, runtime.WrapQuery(sql, err)
	}
	return results, nil
}
