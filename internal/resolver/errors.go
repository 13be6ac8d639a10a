package resolver

import (
	"errors"
	"fmt"

	"github.com/tordrt/syncschema/internal/relations"
)

// ErrUnresolvableRelation is matched by every UnresolvableRelationError
var ErrUnresolvableRelation = errors.New("unresolvable relationship")

// Lookup names the inference path that was tried for a relation without explicit fields
type Lookup string

const (
	LookupNamed      Lookup = "named relation"
	LookupForeignKey Lookup = "foreign key"
)

// UnresolvableRelationError is returned when no inference rule yields column lists for a declared relation
type UnresolvableRelationError struct {
	SourceTable     string
	Field           string
	Kind            relations.Kind
	ReferencedTable string
	RelationName    string
	Lookup          Lookup
}

func (e *UnresolvableRelationError) Error() string {
	hint := ""
	if e.Lookup == LookupNamed {
		hint = fmt.Sprintf(" for named relation %q", e.RelationName)
	}
	return fmt.Sprintf("no relationship found for: %s (%s from %s to %s). Did you forget to define foreign keys%s?",
		e.Field, e.Kind, e.SourceTable, e.ReferencedTable, hint)
}

func (e *UnresolvableRelationError) Is(target error) bool {
	return target == ErrUnresolvableRelation
}
