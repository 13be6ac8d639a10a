package formatter

import (
	"encoding/json"
	"io"

	"github.com/tordrt/syncschema/internal/resolver"
)

// JSONFormatter writes the graph as indented JSON
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// Format writes the whole graph
func (f *JSONFormatter) Format(g *resolver.Graph) error {
	return f.encode(NewDocument(g))
}

// FormatTable writes a single table
func (f *JSONFormatter) FormatTable(t *resolver.TableSchema) error {
	return f.encode(NewTableDoc(t))
}

func (f *JSONFormatter) encode(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
