package catalog

// Entity is a type-erased handle to a stored record. Concretely it is
// always a pointer to the table's declared struct type (*T); the core never
// interprets its fields directly, only through the Table/Index/Relation
// vtables registered at schema time. This mirrors the teacher's use of
// interface{} for tuple values, generalized from columns to whole records.
type Entity = interface{}

// Cloner copies the persisted fields of src into dst, or allocates a fresh
// clone of src. It is the injectable per-type cloner called out as an
// external collaborator: the core never clones by reflection, it only
// calls into Cloner at the moments it needs a snapshot (before an update),
// a restore (log-scope rollback), or a defensive copy to hand back to a
// query caller.
type Cloner interface {
	Clone(dst, src Entity)
	// CloneNew allocates a fresh entity and copies src's fields into it,
	// reporting false if src is not this cloner's entity type. QueryRunner
	// uses the ok result to decide whether a query's result table matches
	// a plan's element type without needing to know that type itself.
	CloneNew(src Entity) (Entity, bool)
}

// ClonerFor adapts a generically-typed clone function into the type-erased
// Cloner the core consumes. Schema setup code registers one of these per
// table; the core itself never sees T.
type ClonerFor[T any] struct {
	Copy func(dst, src *T)
}

// Clone implements Cloner.
func (c ClonerFor[T]) Clone(dst, src Entity) {
	c.Copy(dst.(*T), src.(*T))
}

// CloneNew implements Cloner.
func (c ClonerFor[T]) CloneNew(src Entity) (Entity, bool) {
	s, ok := src.(*T)
	if !ok {
		return nil, false
	}
	dst := new(T)
	c.Copy(dst, s)
	return dst, true
}

// Updater carries the set of fields a mutating command intends to change
// (Changes) and the per-entity mutation function (Apply). Changes drives
// UpdatePath's affected-index computation; it must list every field the
// Apply function may touch.
type Updater interface {
	Changes() []string
	Apply(e Entity) (Entity, error)
}

// UpdaterFor adapts a generically-typed updater into the type-erased form.
// Apply may return the same pointer (fields mutated in place) or a fresh
// instance; UpdatePath treats both the same way.
type UpdaterFor[T any] struct {
	ChangedFields []string
	Mutate        func(*T) (*T, error)
}

// Changes implements Updater.
func (u UpdaterFor[T]) Changes() []string { return u.ChangedFields }

// Apply implements Updater.
func (u UpdaterFor[T]) Apply(e Entity) (Entity, error) {
	next, err := u.Mutate(e.(*T))
	if err != nil {
		return nil, err
	}
	return next, nil
}
