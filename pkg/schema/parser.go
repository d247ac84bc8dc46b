package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const (
	// StructTagKey is the key used in struct tags (e.g., `po:"..."`).
	StructTagKey = "po"
)

// Parser parses struct definitions to extract table metadata.
type Parser struct {
	typeMapper *TypeMapper
	cache      map[reflect.Type]*TableMetadata
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		typeMapper: DefaultTypeMapper,
		cache:      make(map[reflect.Type]*TableMetadata),
	}
}

var (
	tableNamesMu     sync.RWMutex
	customTableNames = make(map[string]string) // struct name -> table name
)

// RegisterTableName registers a custom table name for a struct type.
// Models call it from init so the name is known before the first query.
//
//	func init() {
//	    schema.RegisterTableName("Product", "store")
//	}
func RegisterTableName(structName, tableName string) {
	tableNamesMu.Lock()
	defer tableNamesMu.Unlock()
	customTableNames[structName] = tableName
}

// Parse extracts TableMetadata from a Go struct type.
func (p *Parser) Parse(modelType reflect.Type) (*TableMetadata, error) {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}
	if cached, ok := p.cache[modelType]; ok {
		return cached, nil
	}

	table := &TableMetadata{
		Name:    tableName(modelType),
		GoType:  modelType,
		Columns: make([]ColumnMetadata, 0, modelType.NumField()),
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagValue := field.Tag.Get(StructTagKey)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		opts, err := parseTag(tagValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tag for field %s: %w", field.Name, err)
		}

		column := p.createColumnMetadata(field, opts, i)
		if opts.Has("primaryKey") {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &PrimaryKeyMetadata{
					Name:    table.Name + "_pkey",
					Columns: []string{column.Name},
				}
			} else {
				table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, column.Name)
			}
		}

		if ref := opts.Get("fk"); ref != "" {
			fk, err := parseForeignKey(table.Name, column.Name, ref, opts)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			table.ForeignKeys = append(table.ForeignKeys, fk)
		}

		if opts.Has("index") {
			table.Indexes = append(table.Indexes, IndexMetadata{
				Name:    fmt.Sprintf("idx_%s_%s", table.Name, column.Name),
				Columns: []string{column.Name},
			})
		}

		if expr := opts.Get("check"); expr != "" {
			table.Constraints = append(table.Constraints, ConstraintMetadata{
				Name:       fmt.Sprintf("%s_%s_check", table.Name, column.Name),
				Type:       CheckConstraint,
				Columns:    []string{column.Name},
				Expression: expr,
			})
		}

		table.Columns = append(table.Columns, column)
	}

	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("model %s has no %q tagged fields", modelType.Name(), StructTagKey)
	}

	p.cache[modelType] = table
	return table, nil
}

// tableName resolves the table name: registered name first, snake_case of the struct name otherwise.
func tableName(modelType reflect.Type) string {
	tableNamesMu.RLock()
	name, ok := customTableNames[modelType.Name()]
	tableNamesMu.RUnlock()
	if ok {
		return name
	}
	return toSnakeCase(modelType.Name())
}

// createColumnMetadata creates a ColumnMetadata from a struct field.
func (p *Parser) createColumnMetadata(field reflect.StructField, opts *TagOptions, position int) ColumnMetadata {
	column := ColumnMetadata{
		Name:     opts.Name,
		GoField:  field.Name,
		GoType:   field.Type,
		Position: position,
	}

	if sqlType := opts.GetSQLType(); sqlType != "" {
		column.SQLType = sqlType
	} else {
		column.SQLType = p.typeMapper.GoTypeToPostgreSQL(field.Type)
	}

	column.AutoIncrement = opts.Has("serial") || opts.Has("bigserial") || opts.Has("autoIncrement")
	if opts.Has("autoIncrement") && !opts.Has("serial") && !opts.Has("bigserial") {
		if column.SQLType == "bigint" {
			column.SQLType = "bigserial"
		} else {
			column.SQLType = "serial"
		}
	}

	column.Nullable = !opts.Has("notNull") && !opts.Has("primaryKey")
	if IsNullable(field.Type) {
		column.Nullable = true
	}

	if defaultVal := opts.Get("default"); defaultVal != "" {
		column.Default = &defaultVal
	}
	column.Unique = opts.Has("unique")

	return column
}

// parseForeignKey parses "table.column" or "table(column)" references.
func parseForeignKey(table, column, ref string, opts *TagOptions) (ForeignKeyMetadata, error) {
	var refTable, refColumn string
	if strings.Contains(ref, ".") {
		parts := strings.SplitN(ref, ".", 2)
		refTable, refColumn = parts[0], parts[1]
	} else if idx := strings.Index(ref, "("); idx > 0 && strings.HasSuffix(ref, ")") {
		refTable, refColumn = ref[:idx], ref[idx+1:len(ref)-1]
	}
	if refTable == "" || refColumn == "" {
		return ForeignKeyMetadata{}, fmt.Errorf("invalid foreign key reference %q", ref)
	}

	return ForeignKeyMetadata{
		Name:              fmt.Sprintf("fk_%s_%s_%s", table, column, refTable),
		Columns:           []string{column},
		ReferencedTable:   refTable,
		ReferencedColumns: []string{refColumn},
		OnDelete:          parseReferenceAction(opts.Get("onDelete")),
		OnUpdate:          parseReferenceAction(opts.Get("onUpdate")),
	}, nil
}

// TagOptions represents parsed tag options.
type TagOptions struct {
	Name    string            // Column name (first element)
	Options map[string]string // Other options
}

// parseTag parses a struct tag value into TagOptions.
// Format: "column_name,option1,option2(value),option3"
func parseTag(tag string) (*TagOptions, error) {
	parts := splitTag(tag)
	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("empty tag value")
	}
	opts := &TagOptions{
		Name:    parts[0],
		Options: make(map[string]string),
	}
	for _, opt := range parts[1:] {
		if idx := strings.Index(opt, "("); idx != -1 {
			if !strings.HasSuffix(opt, ")") {
				return nil, fmt.Errorf("invalid option format: %s", opt)
			}
			opts.Options[opt[:idx]] = opt[idx+1 : len(opt)-1]
			continue
		}
		opts.Options[opt] = ""
	}
	return opts, nil
}

// Has checks if an option exists.
func (t *TagOptions) Has(key string) bool {
	_, ok := t.Options[key]
	return ok
}

// Get returns the value of an option.
func (t *TagOptions) Get(key string) string {
	return t.Options[key]
}

// GetSQLType returns the SQL type named in the tag, if any.
func (t *TagOptions) GetSQLType() string {
	pgTypes := []string{
		"varchar", "text", "char",
		"smallint", "integer", "bigint", "serial", "bigserial",
		"numeric", "decimal", "real", "double precision",
		"boolean",
		"date", "timestamp", "timestamptz",
		"uuid", "jsonb", "bytea",
	}
	for _, pgType := range pgTypes {
		if t.Has(pgType) {
			if value := t.Get(pgType); value != "" {
				return fmt.Sprintf("%s(%s)", pgType, value)
			}
			return pgType
		}
	}
	return ""
}

// splitTag splits a tag value by commas, handling nested parentheses.
func splitTag(tag string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range tag {
		switch ch {
		case '(':
			depth++
			current.WriteRune(ch)
		case ')':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, strings.TrimSpace(current.String()))
	}
	return parts
}

// toSnakeCase converts a string from PascalCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && ch >= 'A' && ch <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(ch)
	}
	return strings.ToLower(result.String())
}

// parseReferenceAction converts a tag value to a ReferenceAction.
func parseReferenceAction(action string) ReferenceAction {
	switch strings.ToUpper(strings.TrimSpace(action)) {
	case "CASCADE":
		return Cascade
	case "RESTRICT":
		return Restrict
	case "SETNULL", "SET NULL":
		return SetNull
	case "SETDEFAULT", "SET DEFAULT":
		return SetDefault
	default:
		return NoAction
	}
}
