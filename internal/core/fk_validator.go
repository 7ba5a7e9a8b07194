package core

import "github.com/nmemory-go/txcore/internal/catalog"

// ForeignKeyValidator checks the FK-valid invariant: every non-null foreign
// key on an entity about to be inserted or updated must resolve to an
// existing primary-side row. It never mutates anything. The command paths
// do not use this type: InsertPath calls the free ValidateRelations before
// touching any index, and UpdatePath validates after re-keying, relying on
// its log scope to undo the mutation on a violation.
type ForeignKeyValidator struct {
	introspector *RelationIntrospector
}

// NewForeignKeyValidator binds a validator to a schema.
func NewForeignKeyValidator(schema *catalog.Schema) *ForeignKeyValidator {
	return &ForeignKeyValidator{introspector: NewRelationIntrospector(schema)}
}

// Validate checks entity against every relation in which table is the
// foreign side. Returns the first *catalog.ForeignKeyViolation found, or
// nil.
func (v *ForeignKeyValidator) Validate(table catalog.Table, entity catalog.Entity) error {
	for _, r := range v.introspector.TableRelations(table, false, true) {
		if err := r.ValidateEntity(entity); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAll runs Validate over a flat sequence of entities being
// inserted together, stopping at the first violation.
func (v *ForeignKeyValidator) ValidateAll(table catalog.Table, entities []catalog.Entity) error {
	for _, e := range entities {
		if err := v.Validate(table, e); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRelations checks every entity in entities against every relation
// in relations, the flat-sequence overload, used where the caller has not
// already bucketed entities by the relation that selected them. Like
// ValidateByRelation it needs no schema binding.
func ValidateRelations(relations []catalog.Relation, entities []catalog.Entity) error {
	for _, r := range relations {
		for _, e := range entities {
			if err := r.ValidateEntity(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateByRelation checks each relation only against its own bucket of
// entities (as produced by FindReferringEntities), the map overload used
// by DeletePath and UpdatePath when re-checking referrers, where a relation
// must only validate the entities it itself selected. It needs no schema
// binding, so it is a free function rather than a ForeignKeyValidator
// method.
func ValidateByRelation(byRelation map[catalog.Relation][]catalog.Entity) error {
	for r, entities := range byRelation {
		for _, e := range entities {
			if err := r.ValidateEntity(e); err != nil {
				return err
			}
		}
	}
	return nil
}
