package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/syncschema/internal/resolver"
)

// MultiFileFormatter writes the graph to a directory: an overview plus one file per table
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the graph to multiple files
func (f *MultiFileFormatter) Format(g *resolver.Graph) error {
	if _, err := New(f.OutputFormat, io.Discard); err != nil {
		return err
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(g); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, name := range g.TableNames() {
		if err := f.writeTableFile(g.Tables[name], g); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", name, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(g *resolver.Graph) error {
	file, err := os.Create(filepath.Join(f.OutputDir, "_overview"+f.getFileExtension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	switch f.OutputFormat {
	case FormatMarkdown:
		f.writeMarkdownOverview(file, g)
	case FormatText:
		f.writeTextOverview(file, g)
	default:
		formatter, err := New(f.OutputFormat, file)
		if err != nil {
			return err
		}
		return encodeStructured(formatter, newOverview(g))
	}
	return nil
}

// Overview is the structured overview written for json and yaml output
type Overview struct {
	Version int             `json:"version" yaml:"version"`
	Tables  []OverviewTable `json:"tables" yaml:"tables"`
}

// OverviewTable names one exported table and the tables it relates to
type OverviewTable struct {
	Name      string   `json:"name" yaml:"name"`
	RelatesTo []string `json:"relatesTo,omitempty" yaml:"relatesTo,omitempty"`
}

func newOverview(g *resolver.Graph) Overview {
	o := Overview{Version: g.Version, Tables: []OverviewTable{}}
	for _, name := range g.TableNames() {
		o.Tables = append(o.Tables, OverviewTable{
			Name:      name,
			RelatesTo: relationshipTargets(g.Tables[name]),
		})
	}
	return o
}

func (f *MultiFileFormatter) writeMarkdownOverview(w io.Writer, g *resolver.Graph) {
	_, _ = fmt.Fprintf(w, "# Sync Schema Overview\n\n")
	_, _ = fmt.Fprintf(w, "Version: %d\n\n", g.Version)
	_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", f.getFileExtension())
	_, _ = fmt.Fprintf(w, "## Tables\n\n")

	for _, name := range g.TableNames() {
		_, _ = fmt.Fprintf(w, "- **%s**", name)
		if targets := relationshipTargets(g.Tables[name]); len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (relates to: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}

func (f *MultiFileFormatter) writeTextOverview(w io.Writer, g *resolver.Graph) {
	_, _ = fmt.Fprintf(w, "SCHEMA OVERVIEW (version %d)\n", g.Version)
	_, _ = fmt.Fprintf(w, "Each table has a file: <table_name>%s\n\n", f.getFileExtension())

	for _, name := range g.TableNames() {
		_, _ = fmt.Fprintf(w, "%s", name)
		if targets := relationshipTargets(g.Tables[name]); len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (relates to: %s)", strings.Join(targets, ","))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}

func (f *MultiFileFormatter) writeTableFile(t *resolver.TableSchema, g *resolver.Graph) error {
	file, err := os.Create(filepath.Join(f.OutputDir, t.TableName+f.getFileExtension()))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	formatter, err := New(f.OutputFormat, file)
	if err != nil {
		return err
	}
	if err := formatter.FormatTable(t); err != nil {
		return err
	}

	if f.OutputFormat != FormatMarkdown {
		return nil
	}

	incoming := findIncomingRelationships(t.TableName, g)
	if len(incoming) > 0 {
		_, _ = fmt.Fprintf(file, "### Referenced by\n\n")
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(file, "- %s.%s (%s) → (%s)\n",
				rel.SourceTable, rel.Name,
				strings.Join(rel.SourceField, ", "),
				strings.Join(rel.DestField, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

// IncomingRelationship is a relationship of another table whose destination is this table
type IncomingRelationship struct {
	SourceTable string
	Name        string
	SourceField []string
	DestField   []string
}

// findIncomingRelationships finds every relationship pointing at tableName, ordered by source table and name
func findIncomingRelationships(tableName string, g *resolver.Graph) []IncomingRelationship {
	var incoming []IncomingRelationship

	for _, source := range g.TableNames() {
		t := g.Tables[source]
		for _, name := range t.RelationshipNames() {
			rel := t.Relationships[name]
			if destName(rel) == tableName {
				incoming = append(incoming, IncomingRelationship{
					SourceTable: source,
					Name:        name,
					SourceField: rel.SourceField,
					DestField:   rel.DestField,
				})
			}
		}
	}

	return incoming
}

// relationshipTargets lists the distinct destination tables of t
func relationshipTargets(t *resolver.TableSchema) []string {
	seen := map[string]bool{}
	var targets []string
	for _, rel := range t.Relationships {
		name := destName(rel)
		if !seen[name] {
			seen[name] = true
			targets = append(targets, name)
		}
	}
	sort.Strings(targets)
	return targets
}

func encodeStructured(formatter Formatter, v any) error {
	switch fm := formatter.(type) {
	case *JSONFormatter:
		return fm.encode(v)
	case *YAMLFormatter:
		return fm.encode(v)
	default:
		return fmt.Errorf("structured overview not supported by %T", formatter)
	}
}

func (f *MultiFileFormatter) getFileExtension() string {
	switch f.OutputFormat {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}
