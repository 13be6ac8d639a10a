package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/syncschema/internal/projector"
	"github.com/tordrt/syncschema/internal/resolver"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes a schema graph, whole or one table at a time
type Formatter interface {
	Format(g *resolver.Graph) error
	FormatTable(t *resolver.TableSchema) error
}

// New returns the formatter for format writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatYAML:
		return NewYAMLFormatter(w), nil
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'json', 'yaml', 'text' or 'markdown')", format)
	}
}

// Document is the serialisable form of a graph. Destination accessors become table names.
type Document struct {
	Version int                 `json:"version" yaml:"version"`
	Tables  map[string]TableDoc `json:"tables" yaml:"tables"`
}

// TableDoc is the serialisable form of one table
type TableDoc struct {
	TableName     string                          `json:"tableName" yaml:"tableName"`
	Columns       map[string]projector.ColumnType `json:"columns" yaml:"columns"`
	PrimaryKey    []string                        `json:"primaryKey" yaml:"primaryKey"`
	Relationships map[string]RelationshipDoc      `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// RelationshipDoc is the serialisable form of one relationship
type RelationshipDoc struct {
	SourceField []string `json:"sourceField" yaml:"sourceField"`
	DestField   []string `json:"destField" yaml:"destField"`
	DestSchema  string   `json:"destSchema" yaml:"destSchema"`
}

// NewDocument converts g, following every destination accessor once
func NewDocument(g *resolver.Graph) Document {
	doc := Document{
		Version: g.Version,
		Tables:  make(map[string]TableDoc, len(g.Tables)),
	}
	for name, t := range g.Tables {
		doc.Tables[name] = NewTableDoc(t)
	}
	return doc
}

// NewTableDoc converts a single table
func NewTableDoc(t *resolver.TableSchema) TableDoc {
	doc := TableDoc{
		TableName:  t.TableName,
		Columns:    t.Columns,
		PrimaryKey: t.PrimaryKey,
	}
	if len(t.Relationships) > 0 {
		doc.Relationships = make(map[string]RelationshipDoc, len(t.Relationships))
		for name, rel := range t.Relationships {
			doc.Relationships[name] = RelationshipDoc{
				SourceField: rel.SourceField,
				DestField:   rel.DestField,
				DestSchema:  destName(rel),
			}
		}
	}
	return doc
}

func destName(rel resolver.Relationship) string {
	if dest := rel.Dest(); dest != nil {
		return dest.TableName
	}
	return ""
}

func isPrimaryKey(t *resolver.TableSchema, column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}
