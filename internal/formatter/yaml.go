package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/syncschema/internal/resolver"
)

// YAMLFormatter writes the graph as YAML
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the whole graph
func (f *YAMLFormatter) Format(g *resolver.Graph) error {
	return f.encode(NewDocument(g))
}

// FormatTable writes a single table
func (f *YAMLFormatter) FormatTable(t *resolver.TableSchema) error {
	return f.encode(NewTableDoc(t))
}

func (f *YAMLFormatter) encode(v any) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
