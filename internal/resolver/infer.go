package resolver

import (
	"log/slog"

	"github.com/tordrt/syncschema/internal/relations"
	"github.com/tordrt/syncschema/internal/schema"
)

// Rule identifies how a relation's column lists were obtained
type Rule int

const (
	RuleExplicit Rule = iota + 1
	RuleNamedPair
	RuleForeignKey
)

func (r Rule) String() string {
	switch r {
	case RuleExplicit:
		return "explicit"
	case RuleNamedPair:
		return "named-pair"
	case RuleForeignKey:
		return "foreign-key"
	default:
		return "unknown"
	}
}

// Relation is a declared relation with its column lists resolved, before casing and graph closure.
// SourceFields and DestFields are database column names.
type Relation struct {
	Name         string
	Kind         relations.Kind
	SourceTable  string
	DestTable    string
	SourceFields []string
	DestFields   []string
	Rule         Rule
}

// Resolve evaluates every declaration and infers the column lists of each relation.
// The result maps source table to its relations, ordered by relation name.
func Resolve(s *schema.Schema, decls []relations.Declaration, logger *slog.Logger) (map[string][]Relation, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	groups, err := relations.EvaluateAll(decls)
	if err != nil {
		return nil, err
	}

	r := &inferrer{schema: s, groups: groups}
	resolved := make(map[string][]Relation, len(groups))

	for _, g := range groups {
		for _, f := range g.Fields {
			rel, err := r.infer(f)
			if err != nil {
				return nil, err
			}
			logger.Debug("resolved relation",
				"table", rel.SourceTable,
				"field", rel.Name,
				"kind", rel.Kind.String(),
				"dest", rel.DestTable,
				"rule", rel.Rule.String(),
			)
			resolved[g.Table] = append(resolved[g.Table], rel)
		}
	}

	return resolved, nil
}

type inferrer struct {
	schema *schema.Schema
	groups []relations.Group
}

func (r *inferrer) infer(f relations.Field) (Relation, error) {
	spec := f.Spec
	rel := Relation{
		Name:        f.Name,
		Kind:        spec.Kind,
		SourceTable: spec.SourceTable,
		DestTable:   spec.ReferencedTable,
	}

	switch {
	case spec.HasExplicitFields():
		rel.SourceFields = clone(spec.Fields)
		rel.DestFields = clone(spec.References)
		rel.Rule = RuleExplicit
		return rel, nil

	case spec.RelationName != "":
		inverse, ok := r.namedInverse(spec)
		if !ok {
			return Relation{}, unresolvable(f, LookupNamed)
		}
		rel.SourceFields = clone(inverse.References)
		rel.DestFields = clone(inverse.Fields)
		rel.Rule = RuleNamedPair
		return rel, nil

	default:
		src, dst, ok := r.foreignKey(spec)
		if !ok {
			return Relation{}, unresolvable(f, LookupForeignKey)
		}
		rel.SourceFields = src
		rel.DestFields = dst
		rel.Rule = RuleForeignKey
		return rel, nil
	}
}

// namedInverse finds the ToOne spec declared on the referenced table that carries the same relation
// name and an explicit field mapping. Declarations are scanned in order; the first match wins.
func (r *inferrer) namedInverse(spec relations.Spec) (relations.Spec, bool) {
	for _, g := range r.groups {
		if g.Table != spec.ReferencedTable {
			continue
		}
		for _, f := range g.Fields {
			other := f.Spec
			if other.Kind == relations.ToOne && other.RelationName == spec.RelationName && other.HasExplicitFields() {
				return other, true
			}
		}
	}
	return relations.Spec{}, false
}

// foreignKey infers column lists from constraints. A ToOne first looks at the source table's own
// constraints that reference the destination. Both kinds then fall back to constraints declared on the
// referenced table that point back at the source table.
func (r *inferrer) foreignKey(spec relations.Spec) (src, dst []string, ok bool) {
	if spec.Kind == relations.ToOne {
		if own := r.schema.Table(spec.SourceTable); own != nil {
			if fks := own.ForeignKeysTo(spec.ReferencedTable); len(fks) > 0 {
				return clone(fks[0].Columns), clone(fks[0].ReferencedColumns), true
			}
		}
	}

	ref := r.schema.Table(spec.ReferencedTable)
	if ref == nil {
		return nil, nil, false
	}
	fks := ref.ForeignKeysTo(spec.SourceTable)
	if len(fks) == 0 {
		return nil, nil, false
	}
	return clone(fks[0].ReferencedColumns), clone(fks[0].Columns), true
}

func unresolvable(f relations.Field, lookup Lookup) error {
	return &UnresolvableRelationError{
		SourceTable:     f.Spec.SourceTable,
		Field:           f.Name,
		Kind:            f.Spec.Kind,
		ReferencedTable: f.Spec.ReferencedTable,
		RelationName:    f.Spec.RelationName,
		Lookup:          lookup,
	}
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
