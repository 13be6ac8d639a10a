package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tordrt/syncschema/internal/resolver"
)

// TextFormatter formats the graph as plain text tables
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the graph in text format
func (f *TextFormatter) Format(g *resolver.Graph) error {
	_, _ = fmt.Fprintf(f.writer, "SCHEMA VERSION %d\n", g.Version)

	for _, name := range g.TableNames() {
		_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		if err := f.FormatTable(g.Tables[name]); err != nil {
			return err
		}
	}
	return nil
}

// FormatTable writes one table with its columns and relationships
func (f *TextFormatter) FormatTable(t *resolver.TableSchema) error {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s (PK: %s)\n", t.TableName, strings.Join(t.PrimaryKey, ", "))

	cols := table.NewWriter()
	cols.SetOutputMirror(f.writer)
	cols.SetStyle(table.StyleLight)
	cols.AppendHeader(table.Row{"Column", "Type", "Optional"})
	for _, name := range t.ColumnNames() {
		col := t.Columns[name]
		cols.AppendRow(table.Row{name, string(col.Type), col.Optional})
	}
	cols.Render()

	if len(t.Relationships) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "RELATIONSHIPS")
	rels := table.NewWriter()
	rels.SetOutputMirror(f.writer)
	rels.SetStyle(table.StyleLight)
	rels.AppendHeader(table.Row{"Name", "Source", "Destination"})
	for _, name := range t.RelationshipNames() {
		rel := t.Relationships[name]
		rels.AppendRow(table.Row{
			name,
			strings.Join(rel.SourceField, ", "),
			fmt.Sprintf("%s(%s)", destName(rel), strings.Join(rel.DestField, ", ")),
		})
	}
	rels.Render()

	return nil
}
