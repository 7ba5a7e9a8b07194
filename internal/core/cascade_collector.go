package core

import "github.com/nmemory-go/txcore/internal/catalog"

// CascadeCollector walks the schema's relation graph to find every table
// whose rows must be deleted as a side effect of deleting rows from some
// root table. It only follows relations marked CascadedDeletion; a
// relation without that flag stops the walk along that edge (its referring
// rows are instead subject to foreign-key validation, not deletion).
//
// The walk recurses on the CHILD table discovered at each step, not on the
// root table again. A relation graph root -> a -> b must visit b's own
// referrers, not re-scan root's. A visited-set keyed by table name bounds
// the walk on schemas with cycles (a table that, through some chain,
// cascades back to itself).
type CascadeCollector struct {
	introspector *RelationIntrospector
	schema       *catalog.Schema
}

// NewCascadeCollector binds a collector to a schema.
func NewCascadeCollector(schema *catalog.Schema) *CascadeCollector {
	return &CascadeCollector{introspector: NewRelationIntrospector(schema), schema: schema}
}

// CascadePlan is one step of a collected cascade: the table whose rows
// must be deleted, and the relation whose ValidateEntity/GetReferringEntities
// a deleter uses to find which of its rows are affected.
type CascadePlan struct {
	Table    catalog.Table
	Relation catalog.Relation
}

// GetCascadedTables returns every table reachable from root by following
// CascadedDeletion relations, in discovery order, each paired with the
// relation that led to it.
func (c *CascadeCollector) GetCascadedTables(root catalog.Table) []CascadePlan {
	visited := map[string]bool{root.Name(): true}
	var out []CascadePlan
	c.collect(root, visited, &out)
	return out
}

func (c *CascadeCollector) collect(table catalog.Table, visited map[string]bool, out *[]CascadePlan) {
	relations := c.introspector.TableRelations(table, true, false)
	for _, r := range relations {
		if !r.CascadedDeletion() {
			continue
		}
		childName := r.ForeignTable()
		child, ok := c.schema.Table(childName)
		if !ok {
			continue
		}
		*out = append(*out, CascadePlan{Table: child, Relation: r})
		if visited[childName] {
			continue
		}
		visited[childName] = true
		c.collect(child, visited, out)
	}
}
