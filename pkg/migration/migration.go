// Package migration bootstraps the database schema from registered table metadata.
package migration

import (
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// Plan is an ordered set of statements that creates or drops a group of tables.
type Plan struct {
	Tables []*schema.TableMetadata // Tables in dependency order (referenced tables first)
	Up     []string                // CREATE TABLE / CREATE INDEX statements
	Down   []string                // DROP TABLE statements, dependents first

	owners map[string]string
}

// HasChanges reports whether the plan has anything to execute.
func (p *Plan) HasChanges() bool {
	return len(p.Up) > 0 || len(p.Down) > 0
}

// TableNames returns the table names in creation order.
func (p *Plan) TableNames() []string {
	names := make([]string, len(p.Tables))
	for i, t := range p.Tables {
		names[i] = t.Name
	}
	return names
}

// TableStatus reports whether a table of the plan exists in the database.
type TableStatus struct {
	Table  string
	Exists bool
}
