package catalog

import "fmt"

// Schema is the process-lifetime registry of tables and relations. It is
// built once when the database is configured (outside this package's
// concern, see the database façade) and thereafter only read by the
// execution core. Grounded on the teacher's SchemaManager/CatalogManager,
// collapsed into one registry since our tables are typed Go structs rather
// than column lists assembled at runtime.
type Schema struct {
	tables    map[string]Table
	relations []Relation
}

// NewSchema creates an empty schema registry.
func NewSchema() *Schema {
	return &Schema{tables: make(map[string]Table)}
}

// RegisterTable adds a table to the schema. It is an error to register the
// same table name twice.
func (s *Schema) RegisterTable(t Table) error {
	if _, exists := s.tables[t.Name()]; exists {
		return fmt.Errorf("catalog: table %s already registered", t.Name())
	}
	s.tables[t.Name()] = t
	return nil
}

// RegisterRelation adds a foreign-key relation to the schema.
func (s *Schema) RegisterRelation(r Relation) {
	s.relations = append(s.relations, r)
}

// Table looks up a registered table by name.
func (s *Schema) Table(name string) (Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns every registered table. Order is unspecified.
func (s *Schema) Tables() []Table {
	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}

// Relations returns every registered relation, in registration order.
func (s *Schema) Relations() []Relation {
	return s.relations
}

// ReferringRelations returns relations in which idx is the primary side
// (i.e. other tables refer to it through idx).
func (s *Schema) ReferringRelations(idx Index) []Relation {
	var out []Relation
	for _, r := range s.relations {
		if r.PrimaryIndex() == idx {
			out = append(out, r)
		}
	}
	return out
}

// ReferredRelations returns relations in which idx is the foreign side
// (i.e. idx's table refers to some other table through it).
func (s *Schema) ReferredRelations(idx Index) []Relation {
	var out []Relation
	for _, r := range s.relations {
		if r.ForeignIndex() == idx {
			out = append(out, r)
		}
	}
	return out
}
