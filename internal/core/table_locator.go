package core

// TableLocator is the smallest component in the core: given a plan, it
// names the tables a command must involve before any locking or relation
// work begins. Every other component downstream of Plan.Tables() starts
// from this list.
type TableLocator struct{}

// NewTableLocator constructs a TableLocator. It carries no state; the
// type exists so the rest of the core can depend on an interface-shaped
// component the way the others do, and because a locator grounded on a
// schema (rather than Plan.Tables() alone) is a natural place to add
// schema-aware table resolution later.
func NewTableLocator() *TableLocator {
	return &TableLocator{}
}

// FindAffectedTables returns the table names p reads or writes, exactly as
// reported by the plan. The locator does no deduplication or validation of
// its own; LockPlanner and RelationIntrospector are responsible for what
// they do with a possibly-overlapping list.
func (TableLocator) FindAffectedTables(p Plan) []string {
	return p.Tables()
}
