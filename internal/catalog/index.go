package catalog

import "fmt"

// IndexKind mirrors the teacher's IndexType enum, trimmed to the shapes the
// in-memory core actually needs.
type IndexKind int

const (
	// BTreeIndexKind orders entries by key; the in-memory default below
	// does not exploit the ordering, but the kind is preserved so a real
	// index implementation can be swapped in without touching the core.
	BTreeIndexKind IndexKind = iota
	HashIndexKind
)

// KeyInfo describes which fields of an entity an index is keyed on. The
// core uses EntityKeyMembers purely to decide, during an update, whether a
// given index is "affected" by the updater's declared Changes. It never
// interprets the field names itself.
type KeyInfo struct {
	EntityKeyMembers []string
}

// Index is the type-erased contract the execution core programs against.
// Out of scope per the spec: the index's internal data structure. The core
// only ever calls Insert/Delete and, for query support, Lookup.
//
// Contract: Insert(e) makes e findable under KeyOf(e) as of the call; the
// caller must not mutate e's key members between an Insert and the
// matching Delete without treating it as delete-then-insert. Behaviour is
// undefined otherwise (see core.IndexMaintainer.ApplyUpdate for how
// UpdatePath honors this).
type Index interface {
	Name() string
	TableName() string
	Unique() bool
	IsPrimary() bool
	KeyInfo() KeyInfo
	KeyOf(e Entity) Key
	Insert(e Entity) error
	Delete(e Entity) error
	Lookup(key Key) []Entity
}

// MemIndex is the default in-memory index: a hash map from Key to the
// entities currently holding it. Grounded on the teacher's IndexCatalogEntry
// bookkeeping and on the index-manager lookups seen across the retrieval
// pack (single-column and composite unique checks keyed by fmt-rendered
// tuples). Unique indexes enforce at most one entity per key; non-unique
// indexes keep a bucket.
type MemIndex[T any] struct {
	name      string
	tableName string
	unique    bool
	primary   bool
	kind      IndexKind
	keyOf     func(*T) Key
	keyInfo   KeyInfo

	buckets map[Key][]*T
}

// NewMemIndex builds a MemIndex. keyOf projects an entity's current field
// values into a Key; keyMembers names the fields that projection reads, for
// RelationIntrospector/UpdatePath bookkeeping only.
func NewMemIndex[T any](name, tableName string, unique, primary bool, kind IndexKind, keyMembers []string, keyOf func(*T) Key) *MemIndex[T] {
	return &MemIndex[T]{
		name:      name,
		tableName: tableName,
		unique:    unique,
		primary:   primary,
		kind:      kind,
		keyOf:     keyOf,
		keyInfo:   KeyInfo{EntityKeyMembers: keyMembers},
		buckets:   make(map[Key][]*T),
	}
}

func (idx *MemIndex[T]) Name() string      { return idx.name }
func (idx *MemIndex[T]) TableName() string { return idx.tableName }
func (idx *MemIndex[T]) Unique() bool      { return idx.unique }
func (idx *MemIndex[T]) IsPrimary() bool   { return idx.primary }
func (idx *MemIndex[T]) KeyInfo() KeyInfo  { return idx.keyInfo }

// KeyOf implements Index.
func (idx *MemIndex[T]) KeyOf(e Entity) Key {
	return idx.keyOf(e.(*T))
}

// Insert implements Index. Unique violations are reported as
// *UniqueConstraintViolation so InsertPath/UpdatePath can classify them.
func (idx *MemIndex[T]) Insert(e Entity) error {
	t := e.(*T)
	key := idx.keyOf(t)
	existing := idx.buckets[key]
	if idx.unique && len(existing) > 0 && existing[0] != t {
		return &UniqueConstraintViolation{Index: idx.name, Table: idx.tableName, Key: key}
	}
	for _, cur := range existing {
		if cur == t {
			return nil // already present under this key, idempotent
		}
	}
	idx.buckets[key] = append(existing, t)
	return nil
}

// Delete implements Index. Deleting an entity not present under its current
// key is a no-op, matching the teacher's lock-release idempotence style.
func (idx *MemIndex[T]) Delete(e Entity) error {
	t := e.(*T)
	key := idx.keyOf(t)
	bucket := idx.buckets[key]
	for i, cur := range bucket {
		if cur == t {
			idx.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			if len(idx.buckets[key]) == 0 {
				delete(idx.buckets, key)
			}
			return nil
		}
	}
	return nil
}

// Lookup implements Index.
func (idx *MemIndex[T]) Lookup(key Key) []Entity {
	bucket := idx.buckets[key]
	out := make([]Entity, len(bucket))
	for i, t := range bucket {
		out[i] = t
	}
	return out
}

// All returns every entity currently indexed, in unspecified order. Used by
// the full-scan plans of the demo and the tests, and by tests asserting
// index coherence.
func (idx *MemIndex[T]) All() []*T {
	out := make([]*T, 0)
	for _, bucket := range idx.buckets {
		out = append(out, bucket...)
	}
	return out
}

func (idx *MemIndex[T]) String() string {
	return fmt.Sprintf("Index{%s.%s unique=%v primary=%v}", idx.tableName, idx.name, idx.unique, idx.primary)
}
