package core

import (
	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/txlog"
)

// IndexMaintainer keeps a table's indexes coherent with its base data. It
// is the only component that calls Index.Insert/Delete directly; every
// mutation it makes is paired with an entry in the command's log scope so
// a later rollback can undo it.
type IndexMaintainer struct{}

// NewIndexMaintainer constructs an IndexMaintainer. It carries no state.
func NewIndexMaintainer() *IndexMaintainer {
	return &IndexMaintainer{}
}

// ApplyInsertIndexes inserts entity into every index in indexes, recording
// an undo for each in scope. It stops at the first error (typically a
// UniqueConstraintViolation); indexes already inserted into by this call
// remain recorded in scope, so the command path's own rollback on error
// still removes them.
func (IndexMaintainer) ApplyInsertIndexes(scope *txlog.Scope, indexes []catalog.Index, entity catalog.Entity) error {
	for _, idx := range indexes {
		if err := idx.Insert(entity); err != nil {
			return err
		}
		scope.WriteIndexInsert(idx, entity)
	}
	return nil
}

// ApplyDeleteIndexes removes entity from every index in indexes, recording
// an undo for each in scope.
func (IndexMaintainer) ApplyDeleteIndexes(scope *txlog.Scope, indexes []catalog.Index, entity catalog.Entity) error {
	for _, idx := range indexes {
		if err := idx.Delete(entity); err != nil {
			return err
		}
		scope.WriteIndexDelete(idx, entity)
	}
	return nil
}

// ApplyInsert inserts entity into every index of table.
func (m IndexMaintainer) ApplyInsert(scope *txlog.Scope, table catalog.Table, entity catalog.Entity) error {
	return m.ApplyInsertIndexes(scope, table.Indexes(), entity)
}

// ApplyDelete removes entity from every index of table.
func (m IndexMaintainer) ApplyDelete(scope *txlog.Scope, table catalog.Table, entity catalog.Entity) error {
	return m.ApplyDeleteIndexes(scope, table.Indexes(), entity)
}

// ApplyUpdate removes the old keyed position of entity from every index in
// affectedIndexes, mutates entity via apply, then reinserts it into just
// those indexes, the delete-before-modify-before-reinsert sequence
// UpdatePath requires so that an index keyed on a changed field never
// observes entity under a stale key. Indexes whose key members are
// untouched by the update are never visited, matching the affected-indexes
// computation UpdatePath performs from the updater's declared changes.
// snapshot must be a clone of entity taken before apply runs; it is recorded
// in scope as the entity's undo. On failure ApplyUpdate returns the error
// without restoring anything itself: entity keeps whatever apply did to it,
// and the scope's Close restores its fields and index entries.
func (m IndexMaintainer) ApplyUpdate(scope *txlog.Scope, cloner catalog.Cloner, affectedIndexes []catalog.Index, entity, snapshot catalog.Entity, apply func(catalog.Entity) error) error {
	if err := m.ApplyDeleteIndexes(scope, affectedIndexes, entity); err != nil {
		return err
	}
	scope.WriteEntityUpdate(cloner, entity, snapshot)
	if err := apply(entity); err != nil {
		return err
	}
	return m.ApplyInsertIndexes(scope, affectedIndexes, entity)
}
