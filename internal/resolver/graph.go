package resolver

import (
	"sort"

	"github.com/tordrt/syncschema/internal/projector"
)

// Graph is the exported sync schema
type Graph struct {
	Version int
	Tables  map[string]*TableSchema
}

// TableSchema is one exported table. Relationships is nil when the table has none.
type TableSchema struct {
	TableName     string
	Columns       map[string]projector.ColumnType
	PrimaryKey    []string
	Relationships map[string]Relationship
}

// Relationship links exposed columns of the owning table to exposed columns of the destination.
// DestSchema is evaluated on demand so relationships may form cycles.
type Relationship struct {
	SourceField []string
	DestField   []string
	DestSchema  func() *TableSchema
}

// Dest returns the destination table schema
func (r Relationship) Dest() *TableSchema {
	if r.DestSchema == nil {
		return nil
	}
	return r.DestSchema()
}

// TableNames returns the exported table names in sorted order
func (g *Graph) TableNames() []string {
	names := make([]string, 0, len(g.Tables))
	for name := range g.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ColumnNames returns the exposed column names in sorted order
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RelationshipNames returns the relationship names in sorted order
func (t *TableSchema) RelationshipNames() []string {
	names := make([]string, 0, len(t.Relationships))
	for name := range t.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
