package builder

import (
	"fmt"
	"strings"
)

// WhereBuilder helps build WHERE clauses.
type WhereBuilder struct {
	conditions []Condition
	paramStart int
}

// NewWhereBuilder creates a WhereBuilder whose placeholders start at $1.
func NewWhereBuilder(conditions ...Condition) *WhereBuilder {
	return NewWhereBuilderWithStart(1, conditions...)
}

// NewWhereBuilderWithStart creates a WhereBuilder with a starting parameter number.
func NewWhereBuilderWithStart(paramStart int, conditions ...Condition) *WhereBuilder {
	return &WhereBuilder{
		conditions: conditions,
		paramStart: paramStart,
	}
}

// Build generates the WHERE clause SQL and arguments.
func (w *WhereBuilder) Build() (string, []any, error) {
	if len(w.conditions) == 0 {
		return "", nil, nil
	}

	sql, args, err := w.buildConditions(w.conditions, w.paramStart)
	if err != nil {
		return "", nil, err
	}
	return "WHERE " + sql, args, nil
}

// buildConditions recursively builds conditions.
func (w *WhereBuilder) buildConditions(conditions []Condition, paramStart int) (string, []any, error) {
	var parts []string
	var args []any
	paramNum := paramStart

	for i, cond := range conditions {
		var condSQL string
		var condArgs []any
		var err error

		if len(cond.Group) > 0 {
			condSQL, condArgs, err = w.buildConditions(cond.Group, paramNum)
			condSQL = "(" + condSQL + ")"
		} else {
			condSQL, condArgs, err = w.buildCondition(cond, paramNum)
		}
		if err != nil {
			return "", nil, err
		}

		if cond.Not {
			condSQL = "NOT (" + condSQL + ")"
		}
		if i > 0 {
			logic := cond.Logic
			if logic == "" {
				logic = LogicAnd
			}
			parts = append(parts, string(logic))
		}

		parts = append(parts, condSQL)
		args = append(args, condArgs...)
		paramNum += len(condArgs)
	}

	return strings.Join(parts, " "), args, nil
}

// buildCondition builds a single condition.
func (w *WhereBuilder) buildCondition(cond Condition, paramNum int) (string, []any, error) {
	column := cond.Column

	switch cond.Operator {
	case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpLike, OpILike, OpArrayOverlap:
		return fmt.Sprintf("%s %s $%d", column, cond.Operator, paramNum), []any{cond.Value}, nil

	case OpAny:
		return fmt.Sprintf("%s = ANY($%d)", column, paramNum), []any{cond.Value}, nil

	case OpIn, OpNotIn:
		values, ok := cond.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("IN/NOT IN operator requires []any value")
		}
		// An empty list matches nothing (IN) or everything (NOT IN).
		if len(values) == 0 {
			if cond.Operator == OpIn {
				return "FALSE", nil, nil
			}
			return "TRUE", nil, nil
		}

		placeholders := make([]string, len(values))
		for i := range values {
			placeholders[i] = fmt.Sprintf("$%d", paramNum+i)
		}
		return fmt.Sprintf("%s %s (%s)", column, cond.Operator, strings.Join(placeholders, ", ")), values, nil

	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", column, cond.Operator), nil, nil

	case OpBetween:
		values, ok := cond.Value.([]any)
		if !ok || len(values) != 2 {
			return "", nil, fmt.Errorf("BETWEEN operator requires [min, max] array")
		}
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", column, paramNum, paramNum+1), values, nil

	default:
		return "", nil, fmt.Errorf("unknown operator: %s", cond.Operator)
	}
}

// Eq creates an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpEqual, Value: value, Logic: LogicAnd}
}

// NotEq creates a not-equal condition.
func NotEq(column string, value any) Condition {
	return Condition{Column: column, Operator: OpNotEqual, Value: value, Logic: LogicAnd}
}

// Gt creates a greater-than condition.
func Gt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterThan, Value: value, Logic: LogicAnd}
}

// Gte creates a greater-than-or-equal condition.
func Gte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpGreaterThanOrEqual, Value: value, Logic: LogicAnd}
}

// Lt creates a less-than condition.
func Lt(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessThan, Value: value, Logic: LogicAnd}
}

// Lte creates a less-than-or-equal condition.
func Lte(column string, value any) Condition {
	return Condition{Column: column, Operator: OpLessThanOrEqual, Value: value, Logic: LogicAnd}
}

// In creates an IN condition with one placeholder per value.
func In(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpIn, Value: values, Logic: LogicAnd}
}

// NotIn creates a NOT IN condition.
func NotIn(column string, values ...any) Condition {
	return Condition{Column: column, Operator: OpNotIn, Value: values, Logic: LogicAnd}
}

// Any creates a "column = ANY($n)" condition binding a whole slice as one array parameter.
func Any(column string, slice any) Condition {
	return Condition{Column: column, Operator: OpAny, Value: slice, Logic: LogicAnd}
}

// ILike creates an ILIKE condition (case-insensitive).
func ILike(column string, pattern string) Condition {
	return Condition{Column: column, Operator: OpILike, Value: pattern, Logic: LogicAnd}
}

// IsNull creates an IS NULL condition.
func IsNull(column string) Condition {
	return Condition{Column: column, Operator: OpIsNull, Logic: LogicAnd}
}

// Between creates a BETWEEN condition.
func Between(column string, min, max any) Condition {
	return Condition{Column: column, Operator: OpBetween, Value: []any{min, max}, Logic: LogicAnd}
}

// ArrayOverlap checks if the array expression shares an element with value.
func ArrayOverlap(column string, value any) Condition {
	return Condition{Column: column, Operator: OpArrayOverlap, Value: value, Logic: LogicAnd}
}

// Or sets the logic operator to OR for the condition.
func Or(cond Condition) Condition {
	cond.Logic = LogicOr
	return cond
}

// Not negates a condition.
func Not(cond Condition) Condition {
	cond.Not = true
	return cond
}

// Group creates a parenthesized group of conditions.
func Group(conditions ...Condition) Condition {
	return Condition{Group: conditions, Logic: LogicAnd}
}
