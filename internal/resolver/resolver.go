// Package resolver builds the sync schema graph from database metadata, relation declarations and
// the export config. It infers relationship columns, projects each exported table, then links
// relationships to their destination tables.
package resolver

import (
	"log/slog"

	"github.com/tordrt/syncschema/internal/config"
	"github.com/tordrt/syncschema/internal/projector"
	"github.com/tordrt/syncschema/internal/relations"
	"github.com/tordrt/syncschema/internal/schema"
)

// Options tune a Build
type Options struct {
	// Logger receives debug records for each inference decision; nil discards them
	Logger *slog.Logger
}

// baseTable is a projected table with its relations not yet linked
type baseTable struct {
	*projector.TableSchema
	relations []Relation
}

// Build produces the graph. It either returns a complete graph or an error, never a partial result.
func Build(s *schema.Schema, decls []relations.Declaration, cfg *config.Export, opts *Options) (*Graph, error) {
	logger := slog.New(slog.DiscardHandler)
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	resolved, err := Resolve(s, decls, logger)
	if err != nil {
		return nil, err
	}

	base, err := project(s, resolved, cfg)
	if err != nil {
		return nil, err
	}

	return link(base, cfg, logger), nil
}

// project builds the base table for every exported table
func project(s *schema.Schema, resolved map[string][]Relation, cfg *config.Export) (map[string]*baseTable, error) {
	base := make(map[string]*baseTable)

	for _, name := range cfg.TableNames() {
		table := s.Table(name)
		if table == nil {
			return nil, &projector.ConfigError{Table: name, Reason: "table does not exist"}
		}

		ts, err := projector.Project(*table, cfg.Tables[name], cfg.Casing)
		if err != nil {
			return nil, err
		}

		base[name] = &baseTable{TableSchema: ts, relations: resolved[name]}
	}

	return base, nil
}

// link attaches relationships whose destination is exported. The destination accessor reads the
// finished table map, so it resolves regardless of the order tables were linked in.
func link(base map[string]*baseTable, cfg *config.Export, logger *slog.Logger) *Graph {
	graph := &Graph{
		Version: cfg.Version,
		Tables:  make(map[string]*TableSchema, len(base)),
	}

	for name, b := range base {
		ts := &TableSchema{
			TableName:  b.TableName,
			Columns:    b.Columns,
			PrimaryKey: b.PrimaryKey,
		}

		for _, rel := range b.relations {
			if _, ok := base[rel.DestTable]; !ok {
				logger.Debug("dropping relationship to table that is not exported",
					"table", name,
					"field", rel.Name,
					"dest", rel.DestTable,
				)
				continue
			}

			if ts.Relationships == nil {
				ts.Relationships = make(map[string]Relationship)
			}
			dest := rel.DestTable
			ts.Relationships[rel.Name] = Relationship{
				SourceField: cfg.Casing.ApplyAll(rel.SourceFields),
				DestField:   cfg.Casing.ApplyAll(rel.DestFields),
				DestSchema: func() *TableSchema {
					return graph.Tables[dest]
				},
			}
		}

		graph.Tables[name] = ts
	}

	return graph
}
