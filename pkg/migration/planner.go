package migration

import (
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

// PlannerOptions configures statement generation.
type PlannerOptions struct {
	// IfNotExists adds IF NOT EXISTS / IF EXISTS so statements can be replayed.
	IfNotExists bool
}

// Planner generates DDL for a set of tables.
type Planner struct {
	options PlannerOptions
}

// NewPlanner creates a planner that emits idempotent statements.
func NewPlanner() *Planner {
	return &Planner{
		options: PlannerOptions{IfNotExists: true},
	}
}

// NewPlannerWithOptions creates a planner with custom options.
func NewPlannerWithOptions(opts PlannerOptions) *Planner {
	return &Planner{options: opts}
}

// Plan orders tables so that every referenced table is created first and
// dropped last, and renders the statements for both directions.
func (p *Planner) Plan(tables []*schema.TableMetadata) (*Plan, error) {
	ordered, err := sortByDependencies(tables)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Tables: ordered, owners: make(map[string]string)}
	add := func(list *[]string, table, stmt string) {
		*list = append(*list, stmt)
		plan.owners[stmt] = table
	}
	for _, table := range ordered {
		add(&plan.Up, table.Name, p.generateCreateTable(table))
		for _, idx := range table.Indexes {
			add(&plan.Up, table.Name, p.generateCreateIndex(table.Name, idx))
		}
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		add(&plan.Down, ordered[i].Name, p.generateDropTable(ordered[i].Name))
	}
	return plan, nil
}

// sortByDependencies returns tables in foreign-key order. Ties keep the input
// order sorted by name so the output is stable.
func sortByDependencies(tables []*schema.TableMetadata) ([]*schema.TableMetadata, error) {
	byName := make(map[string]*schema.TableMetadata, len(tables))
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("table %s listed twice", t.Name)
		}
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	slices.Sort(names)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(tables))
	ordered := make([]*schema.TableMetadata, 0, len(tables))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("foreign key cycle: %s", strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting
		table := byName[name]
		for _, ref := range table.References() {
			// References outside the set are assumed to exist already.
			if _, ok := byName[ref]; !ok {
				continue
			}
			if err := visit(ref, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		ordered = append(ordered, table)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// generateCreateTable generates a CREATE TABLE statement.
func (p *Planner) generateCreateTable(table *schema.TableMetadata) string {
	var parts []string

	var singlePKColumn string
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) == 1 {
		singlePKColumn = table.PrimaryKey.Columns[0]
	}

	for _, col := range table.Columns {
		colDef := p.generateColumnDefinition(col)
		if col.Name == singlePKColumn {
			colDef += " PRIMARY KEY"
		}
		parts = append(parts, "    "+colDef)
	}

	// Composite keys get a named table constraint.
	if table.PrimaryKey != nil && len(table.PrimaryKey.Columns) > 1 {
		parts = append(parts, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			table.PrimaryKey.Name, strings.Join(table.PrimaryKey.Columns, ", ")))
	}

	for _, fk := range table.ForeignKeys {
		parts = append(parts, "    "+p.generateForeignKeyDefinition(fk))
	}

	for _, c := range table.Constraints {
		switch c.Type {
		case schema.CheckConstraint:
			parts = append(parts, fmt.Sprintf("    CONSTRAINT %s CHECK (%s)", c.Name, c.Expression))
		case schema.UniqueConstraint:
			parts = append(parts, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)", c.Name, strings.Join(c.Columns, ", ")))
		}
	}

	createClause := "CREATE TABLE"
	if p.options.IfNotExists {
		createClause = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (\n%s\n)", createClause, table.Name, strings.Join(parts, ",\n"))
}

// generateColumnDefinition generates a column definition.
func (p *Planner) generateColumnDefinition(col schema.ColumnMetadata) string {
	parts := []string{col.Name, col.SQLType}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", *col.Default)
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

// generateForeignKeyDefinition generates a foreign key constraint.
func (p *Planner) generateForeignKeyDefinition(fk schema.ForeignKeyMetadata) string {
	parts := []string{
		fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", fk.Name, strings.Join(fk.Columns, ", ")),
		fmt.Sprintf("REFERENCES %s (%s)", fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", ")),
	}
	if fk.OnDelete != schema.NoAction && fk.OnDelete != "" {
		parts = append(parts, "ON DELETE "+string(fk.OnDelete))
	}
	if fk.OnUpdate != schema.NoAction && fk.OnUpdate != "" {
		parts = append(parts, "ON UPDATE "+string(fk.OnUpdate))
	}
	return strings.Join(parts, " ")
}

// generateCreateIndex generates a CREATE INDEX statement.
func (p *Planner) generateCreateIndex(tableName string, idx schema.IndexMetadata) string {
	clause := "CREATE INDEX"
	if p.options.IfNotExists {
		clause = "CREATE INDEX IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s ON %s (%s)", clause, idx.Name, tableName, strings.Join(idx.Columns, ", "))
}

// generateDropTable generates a DROP TABLE statement.
func (p *Planner) generateDropTable(tableName string) string {
	if p.options.IfNotExists {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", tableName)
	}
	return fmt.Sprintf("DROP TABLE %s CASCADE", tableName)
}

