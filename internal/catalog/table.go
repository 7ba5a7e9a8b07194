package catalog

import "fmt"

// FieldConstraint validates or fills in one aspect of an entity: a not-null
// check, a uniqueness precondition that is cheaper to reject before
// touching any index, a default-value filler, or an auto-increment/ID
// generator. Apply may mutate e in place (generators/defaults) and returns
// a non-nil error to reject the entity outright.
type FieldConstraint struct {
	Field string
	Apply func(e Entity) error
}

// ConstraintSet is a table's ordered list of field constraints, applied in
// registration order. Grounded on the teacher's SchemaManager.constraints
// bookkeeping, generalized from a validate-only list to one that may also
// mutate (fill-in) the entity, per spec §4.9 step 2.
type ConstraintSet struct {
	table       string
	constraints []FieldConstraint
}

// NewConstraintSet creates an empty constraint set for the named table.
func NewConstraintSet(table string) *ConstraintSet {
	return &ConstraintSet{table: table}
}

// Add registers a constraint.
func (cs *ConstraintSet) Add(c FieldConstraint) {
	cs.constraints = append(cs.constraints, c)
}

// Apply runs every registered constraint against e in order, stopping at
// the first failure. A failure is reported as a *ConstraintViolation so
// InsertPath/UpdatePath can classify it without inspecting the cause.
func (cs *ConstraintSet) Apply(e Entity) error {
	for _, c := range cs.constraints {
		if err := c.Apply(e); err != nil {
			return &ConstraintViolation{Table: cs.table, Field: c.Field, Cause: err}
		}
	}
	return nil
}

// Table is the type-erased contract the execution core programs against.
// Concrete tables are created once at schema time (see Table_[T]) and live
// for the process; the core never constructs or drops one.
type Table interface {
	Name() string
	Indexes() []Index
	PrimaryIndex() Index
	Constraints() *ConstraintSet
	Cloner() Cloner
}

// Table_ is the generic, strongly-typed table implementation. The name
// carries a trailing underscore to avoid colliding with the Table
// interface. Callers that need the typed view hold a *Table_[T] directly
// (as returned by RegisterTable); the core only ever sees the Table
// interface it satisfies.
type Table_[T any] struct {
	name        string
	indexes     []Index
	primary     Index
	constraints *ConstraintSet
	cloner      Cloner
}

// RegisterTable creates a new typed table. primary must also appear in
// indexes. cloner is the injectable per-type cloner used by UpdatePath to
// snapshot and restore entities.
func RegisterTable[T any](name string, primary Index, indexes []Index, cloner ClonerFor[T]) *Table_[T] {
	return &Table_[T]{
		name:        name,
		indexes:     indexes,
		primary:     primary,
		constraints: NewConstraintSet(name),
		cloner:      cloner,
	}
}

func (t *Table_[T]) Name() string               { return t.name }
func (t *Table_[T]) Indexes() []Index           { return t.indexes }
func (t *Table_[T]) PrimaryIndex() Index        { return t.primary }
func (t *Table_[T]) Constraints() *ConstraintSet { return t.constraints }
func (t *Table_[T]) Cloner() Cloner             { return t.cloner }

// AddConstraint is a convenience wrapper so schema setup code can write
// table.AddConstraint(...) instead of table.Constraints().Add(...).
func (t *Table_[T]) AddConstraint(c FieldConstraint) {
	t.constraints.Add(c)
}

func (t *Table_[T]) String() string {
	return fmt.Sprintf("Table{%s, %d indexes}", t.name, len(t.indexes))
}
