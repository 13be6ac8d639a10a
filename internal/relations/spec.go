// Package relations models user-authored relation declarations: per source table, a named set of
// ToOne/ToMany specs built through constructor helpers bound to that table.
package relations

import (
	"fmt"
	"sort"
)

// Kind tags a relation spec as pointing at one or many destination rows
type Kind int

const (
	ToOne Kind = iota + 1
	ToMany
)

func (k Kind) String() string {
	switch k {
	case ToOne:
		return "ToOne"
	case ToMany:
		return "ToMany"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Spec is a single relation declared on a source table
type Spec struct {
	Kind            Kind
	SourceTable     string
	ReferencedTable string

	// Fields and References are the explicit local/referenced column mapping.
	// Only honoured on ToOne specs.
	Fields     []string
	References []string

	// RelationName pairs this spec with its inverse declared on the other table
	RelationName string
}

// HasExplicitFields reports whether a usable explicit column mapping is present
func (s Spec) HasExplicitFields() bool {
	return s.Kind == ToOne && len(s.Fields) > 0 && len(s.References) > 0
}

// Option customises a spec built by Helpers
type Option func(*Spec)

// On sets the explicit field mapping: fields on the source table, references on the destination table
func On(fields, references []string) Option {
	return func(s *Spec) {
		s.Fields = append([]string(nil), fields...)
		s.References = append([]string(nil), references...)
	}
}

// Named sets the relation name used for named-pair inference
func Named(name string) Option {
	return func(s *Spec) {
		s.RelationName = name
	}
}

// Helpers builds specs whose source table is fixed.
// It is handed to a declaration callback, one instance per source table.
type Helpers struct {
	table string
}

// NewHelpers returns the constructor set for specs declared on table
func NewHelpers(table string) *Helpers {
	return &Helpers{table: table}
}

// One declares a relation to a single row of table
func (h *Helpers) One(table string, opts ...Option) Spec {
	return h.build(ToOne, table, opts)
}

// Many declares a relation to many rows of table
func (h *Helpers) Many(table string, opts ...Option) Spec {
	return h.build(ToMany, table, opts)
}

func (h *Helpers) build(kind Kind, table string, opts []Option) Spec {
	s := Spec{
		Kind:            kind,
		SourceTable:     h.table,
		ReferencedTable: table,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Declaration is the relation group of one source table
type Declaration struct {
	Table  string
	Define func(h *Helpers) map[string]Spec
}

// Field is an evaluated spec together with the relation (field) name it was declared under
type Field struct {
	Name string
	Spec Spec
}

// Evaluate runs the declaration callback and returns its specs ordered by field name
func (d Declaration) Evaluate() ([]Field, error) {
	if d.Define == nil {
		return nil, fmt.Errorf("relations for %s: no declaration function", d.Table)
	}

	specs := d.Define(NewHelpers(d.Table))

	fields := make([]Field, 0, len(specs))
	for name, spec := range specs {
		if spec.SourceTable != d.Table {
			return nil, fmt.Errorf("relations for %s: field %q was built for table %q", d.Table, name, spec.SourceTable)
		}
		if spec.ReferencedTable == "" {
			return nil, fmt.Errorf("relations for %s: field %q has no referenced table", d.Table, name)
		}
		if len(spec.Fields) != len(spec.References) {
			return nil, fmt.Errorf("relations for %s: field %q maps %d fields to %d references",
				d.Table, name, len(spec.Fields), len(spec.References))
		}
		fields = append(fields, Field{Name: name, Spec: spec})
	}

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})

	return fields, nil
}

// Group is the evaluated form of a Declaration
type Group struct {
	Table  string
	Fields []Field
}

// EvaluateAll evaluates every declaration, preserving declaration order
func EvaluateAll(decls []Declaration) ([]Group, error) {
	groups := make([]Group, 0, len(decls))
	for _, d := range decls {
		fields, err := d.Evaluate()
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{Table: d.Table, Fields: fields})
	}
	return groups, nil
}
