package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/syncschema/internal/resolver"
)

// MarkdownFormatter formats the graph as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the graph in markdown format
func (f *MarkdownFormatter) Format(g *resolver.Graph) error {
	_, _ = fmt.Fprintln(f.writer, "# Sync Schema")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "Version: %d\n\n", g.Version)

	for _, name := range g.TableNames() {
		if err := f.FormatTable(g.Tables[name]); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable formats a single table (also used by the multifile formatter)
func (f *MarkdownFormatter) FormatTable(t *resolver.TableSchema) error {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", t.TableName)

	f.formatColumns(t)
	f.formatRelationships(t)

	return nil
}

func (f *MarkdownFormatter) formatColumns(t *resolver.TableSchema) {
	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, name := range t.ColumnNames() {
		col := t.Columns[name]

		var constraints []string
		if isPrimaryKey(t, name) {
			constraints = append(constraints, "PK")
		}
		if col.Optional {
			constraints = append(constraints, "optional")
		}

		if len(constraints) > 0 {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", name, col.Type, strings.Join(constraints, ", "))
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", name, col.Type)
		}
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatRelationships(t *resolver.TableSchema) {
	if len(t.Relationships) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "### Relationships")
	_, _ = fmt.Fprintln(f.writer)
	for _, name := range t.RelationshipNames() {
		rel := t.Relationships[name]
		_, _ = fmt.Fprintf(f.writer, "- **%s:** (%s) → %s.(%s)\n",
			name,
			strings.Join(rel.SourceField, ", "),
			destName(rel),
			strings.Join(rel.DestField, ", "))
	}
	_, _ = fmt.Fprintln(f.writer)
}
