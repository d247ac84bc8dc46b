// Package builder provides a type-safe query builder for PostgreSQL.
package builder

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Querier is the execution surface shared by a pooled connection and a transaction.
// *runtime.DB and database sessions both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Query represents a generic database query.
type Query interface {
	// ToSQL generates the SQL query and parameter values.
	ToSQL() (sql string, args []any, err error)
}

// SelectQuery represents a SELECT query with type safety.
type SelectQuery[T any] struct {
	db      Querier
	table   *schema.TableMetadata
	err     error
	columns []string
	where   []Condition
	orderBy []OrderBy
	limit   *int
	offset  *int
}

// InsertQuery represents an INSERT query.
type InsertQuery[T any] struct {
	db        Querier
	table     *schema.TableMetadata
	err       error
	values    []T
	returning []string
}

// UpdateQuery represents an UPDATE query.
type UpdateQuery[T any] struct {
	db        Querier
	table     *schema.TableMetadata
	err       error
	sets      []assignment
	where     []Condition
	returning []string
}

// DeleteQuery represents a DELETE query.
type DeleteQuery[T any] struct {
	db        Querier
	table     *schema.TableMetadata
	err       error
	where     []Condition
	returning []string
}

type assignment struct {
	column string
	value  any
}

// Condition represents a WHERE condition.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Logic    LogicOperator
	Not      bool
	Group    []Condition
}

// OrderBy represents an ORDER BY clause.
type OrderBy struct {
	Column    string
	Direction OrderDirection
}

// Operator represents a comparison operator.
type Operator string

const (
	OpEqual              Operator = "="
	OpNotEqual           Operator = "!="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT IN"
	OpAny                Operator = "= ANY"
	OpLike               Operator = "LIKE"
	OpILike              Operator = "ILIKE"
	OpIsNull             Operator = "IS NULL"
	OpIsNotNull          Operator = "IS NOT NULL"
	OpBetween            Operator = "BETWEEN"
	OpArrayOverlap       Operator = "&&"
)

// LogicOperator represents a logical operator (AND/OR).
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// OrderDirection represents the sort direction.
type OrderDirection string

const (
	Asc  OrderDirection = "ASC"
	Desc OrderDirection = "DESC"
)
