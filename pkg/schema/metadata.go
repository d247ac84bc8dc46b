// Package schema turns tagged Go structs into table metadata.
package schema

import "reflect"

// TableMetadata describes one table derived from a Go struct.
type TableMetadata struct {
	Name        string
	GoType      reflect.Type
	Columns     []ColumnMetadata
	PrimaryKey  *PrimaryKeyMetadata
	ForeignKeys []ForeignKeyMetadata
	Indexes     []IndexMetadata
	Constraints []ConstraintMetadata
}

// ColumnMetadata describes one column.
type ColumnMetadata struct {
	Name          string
	GoField       string
	GoType        reflect.Type
	SQLType       string
	Nullable      bool
	Default       *string
	Unique        bool
	AutoIncrement bool
	Position      int
}

// PrimaryKeyMetadata describes a (possibly composite) primary key.
type PrimaryKeyMetadata struct {
	Name    string
	Columns []string
}

// ForeignKeyMetadata describes a foreign key constraint.
type ForeignKeyMetadata struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferenceAction
	OnUpdate          ReferenceAction
}

// IndexMetadata describes a non-unique secondary index.
type IndexMetadata struct {
	Name    string
	Columns []string
}

// ConstraintType is the kind of a table constraint.
type ConstraintType string

const (
	// CheckConstraint is a CHECK constraint.
	CheckConstraint ConstraintType = "CHECK"
	// UniqueConstraint is a multi-column UNIQUE constraint.
	UniqueConstraint ConstraintType = "UNIQUE"
)

// ConstraintMetadata describes a CHECK or multi-column UNIQUE constraint.
type ConstraintMetadata struct {
	Name       string
	Type       ConstraintType
	Columns    []string
	Expression string
}

// ReferenceAction is the ON DELETE / ON UPDATE behavior of a foreign key.
type ReferenceAction string

const (
	NoAction   ReferenceAction = "NO ACTION"
	Restrict   ReferenceAction = "RESTRICT"
	Cascade    ReferenceAction = "CASCADE"
	SetNull    ReferenceAction = "SET NULL"
	SetDefault ReferenceAction = "SET DEFAULT"
)

// IsPrimaryKey reports whether column is part of the primary key.
func (t *TableMetadata) IsPrimaryKey(column string) bool {
	if t.PrimaryKey == nil {
		return false
	}
	for _, c := range t.PrimaryKey.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Column returns the column with the given name, or nil.
func (t *TableMetadata) Column(name string) *ColumnMetadata {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in declaration order.
func (t *TableMetadata) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// References returns the distinct tables this table points at through foreign keys.
func (t *TableMetadata) References() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		refs = append(refs, fk.ReferencedTable)
	}
	return refs
}
