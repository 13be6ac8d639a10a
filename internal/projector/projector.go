// Package projector turns one table's metadata and its column-inclusion spec into the flat schema
// fragment exported for that table: exposed columns with their semantic types and the primary key.
package projector

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"

	"github.com/tordrt/syncschema/internal/schema"
)

// Casing is the naming policy applied to every exposed column name
type Casing string

const (
	CasingNone  Casing = "none"
	CasingSnake Casing = "snake_case"
)

// ParseCasing validates a casing name; the empty string means none
func ParseCasing(s string) (Casing, error) {
	switch Casing(s) {
	case "", CasingNone:
		return CasingNone, nil
	case CasingSnake:
		return CasingSnake, nil
	default:
		return "", fmt.Errorf("unknown casing %q (must be %q or %q)", s, CasingNone, CasingSnake)
	}
}

// Apply renames a column according to the policy
func (c Casing) Apply(name string) string {
	if c == CasingSnake {
		return strcase.ToSnake(name)
	}
	return name
}

// ApplyAll renames every column in names
func (c Casing) ApplyAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = c.Apply(n)
	}
	return out
}

// Inclusion selects the exported columns of a table, keyed by database column name
type Inclusion map[string]bool

// ErrConfig is matched by every ConfigError
var ErrConfig = errors.New("invalid export configuration")

// ConfigError reports an inclusion spec that does not fit the table it selects from
type ConfigError struct {
	Table  string
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("table %s, column %s: %s", e.Table, e.Column, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// TableSchema is the projected, relationship-free schema of one table
type TableSchema struct {
	TableName  string
	Columns    map[string]ColumnType
	PrimaryKey []string
}

// Project builds the schema fragment for table. Only columns marked true in include are exposed.
// Every primary key column must be included.
func Project(table schema.Table, include Inclusion, casing Casing) (*TableSchema, error) {
	if len(table.PrimaryKey) == 0 {
		return nil, &ConfigError{Table: table.Name, Reason: "table has no primary key"}
	}

	names := make([]string, 0, len(include))
	for name := range include {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make(map[string]ColumnType, len(names))
	exposedFrom := make(map[string]string, len(names))

	for _, name := range names {
		col := table.Column(name)
		if col == nil {
			return nil, &ConfigError{Table: table.Name, Column: name, Reason: "column does not exist"}
		}
		if !include[name] {
			continue
		}

		exposed := casing.Apply(name)
		if other, dup := exposedFrom[exposed]; dup {
			return nil, &ConfigError{
				Table:  table.Name,
				Column: name,
				Reason: fmt.Sprintf("exposed name %q collides with column %s", exposed, other),
			}
		}
		exposedFrom[exposed] = name

		columns[exposed] = ColumnType{
			Type:     TypeOf(col.Type),
			Optional: col.Nullable,
		}
	}

	for _, pk := range table.PrimaryKey {
		if !include[pk] {
			return nil, &ConfigError{Table: table.Name, Column: pk, Reason: "primary key column must be included"}
		}
	}

	return &TableSchema{
		TableName:  table.Name,
		Columns:    columns,
		PrimaryKey: casing.ApplyAll(table.PrimaryKey),
	}, nil
}
