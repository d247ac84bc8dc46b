package schema

import (
	"reflect"
	"time"
)

// TypeMapper handles mapping between Go types and PostgreSQL types.
type TypeMapper struct {
	customMappings map[reflect.Type]string
}

// NewTypeMapper creates a new TypeMapper instance.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{
		customMappings: make(map[reflect.Type]string),
	}
}

// DefaultTypeMapper is used by parsers created with NewParser.
var DefaultTypeMapper = NewTypeMapper()

// RegisterType registers a custom type mapping.
func (tm *TypeMapper) RegisterType(goType reflect.Type, pgType string) {
	tm.customMappings[goType] = pgType
}

// GoTypeToPostgreSQL maps a Go type to its PostgreSQL equivalent.
// Returns "" when the column must declare its type in the tag.
func (tm *TypeMapper) GoTypeToPostgreSQL(t reflect.Type) string {
	if pgType, ok := tm.customMappings[t]; ok {
		return pgType
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == reflect.TypeOf(time.Time{}) {
		return "timestamptz"
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return "smallint"
	case reflect.Int32, reflect.Int, reflect.Uint16:
		return "integer"
	case reflect.Int64, reflect.Uint32, reflect.Uint64:
		return "bigint"
	case reflect.Float32:
		return "real"
	case reflect.Float64:
		return "double precision"
	case reflect.String:
		return "text"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "bytea"
		}
		if elem := tm.GoTypeToPostgreSQL(t.Elem()); elem != "" {
			return elem + "[]"
		}
	}

	return ""
}

// IsNullable checks if a Go type can hold NULL.
func IsNullable(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer
}
