package core

import "github.com/nmemory-go/txcore/internal/catalog"

// RelationIntrospector answers "which relations touch this set of
// indexes" for a schema, the same question LockPlanner, ForeignKeyValidator
// and the three command paths each ask with a different index set (a
// table's whole index list for a fresh insert, just the indexes an update
// actually changes, a table's primary index alone for cascade discovery).
type RelationIntrospector struct {
	schema *catalog.Schema
}

// NewRelationIntrospector binds an introspector to a schema.
func NewRelationIntrospector(schema *catalog.Schema) *RelationIntrospector {
	return &RelationIntrospector{schema: schema}
}

// FindRelations returns the relations touching any index in indexes, in
// first-discovery order with duplicates removed. includeReferring selects
// relations where indexes appear on the primary side (other tables refer
// through them); includeReferred selects relations where indexes appear on
// the foreign side (their table refers to some other table through them).
func (ri *RelationIntrospector) FindRelations(indexes []catalog.Index, includeReferring, includeReferred bool) []catalog.Relation {
	seen := make(map[catalog.Relation]bool)
	var out []catalog.Relation

	add := func(rs []catalog.Relation) {
		for _, r := range rs {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}

	for _, idx := range indexes {
		if includeReferring {
			add(ri.schema.ReferringRelations(idx))
		}
		if includeReferred {
			add(ri.schema.ReferredRelations(idx))
		}
	}
	return out
}

// TableRelations is FindRelations over table's indexes, used wherever a
// command has not narrowed itself to a subset of indexes. Referring
// relations are looked up through table's primary index only; referred
// relations through every index of table.
func (ri *RelationIntrospector) TableRelations(table catalog.Table, includeReferring, includeReferred bool) []catalog.Relation {
	var indexes []catalog.Index
	if includeReferring {
		indexes = append(indexes, table.PrimaryIndex())
	}
	if includeReferred {
		indexes = append(indexes, table.Indexes()...)
	}
	return ri.FindRelations(indexes, includeReferring, includeReferred)
}

// ReferringTables returns the distinct table names that hold a foreign key
// pointing at table, in first-discovery order.
func (ri *RelationIntrospector) ReferringTables(table catalog.Table) []string {
	relations := ri.TableRelations(table, true, false)
	seen := make(map[string]bool)
	var out []string
	for _, r := range relations {
		name := r.ForeignTable()
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// FindReferringEntities buckets, for each relation in relations, the
// foreign entities currently pointing at any entity in victims, the
// map-by-relation form ForeignKeyValidator's second overload and
// DeletePath/UpdatePath's referrer re-validation consume.
func FindReferringEntities(victims []catalog.Entity, relations []catalog.Relation) map[catalog.Relation][]catalog.Entity {
	out := make(map[catalog.Relation][]catalog.Entity, len(relations))
	for _, r := range relations {
		out[r] = r.GetReferringEntities(victims)
	}
	return out
}
