package core

import (
	"context"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/txlog"
)

// affectedIndexes returns the subset of table's indexes whose key members
// overlap updater's declared changes, the only indexes an update actually
// needs to re-key. An updater that never touches any key member of any
// index (a pure payload-field update) yields an empty list, and
// ExecuteUpdater skips the delete/reinsert dance entirely for those rows.
func affectedIndexes(table catalog.Table, updater catalog.Updater) []catalog.Index {
	changed := make(map[string]bool, len(updater.Changes()))
	for _, f := range updater.Changes() {
		changed[f] = true
	}
	var out []catalog.Index
	for _, idx := range table.Indexes() {
		for _, member := range idx.KeyInfo().EntityKeyMembers {
			if changed[member] {
				out = append(out, idx)
				break
			}
		}
	}
	return out
}

// ExecuteUpdater runs UpdatePath: select victims with plan, then for each
// one, remove it from every index the update actually re-keys, apply
// updater's mutation, and reinsert it, in that order, never the reverse,
// so an index keyed on a field the updater changes is never searched under
// a stale key while the same call is still in flight. Before the key
// changes, UpdatePath records which other rows currently refer to the
// victim; after the key changes, it re-validates each of those referrers
// and fails the whole batch if any of them no longer resolves, preserving
// the FK-valid invariant on the referring side as well as the updated
// side.
func ExecuteUpdater[T any](ctx context.Context, db *Database, txn *Transaction, tableName string, plan SequencePlan[*T], updater catalog.Updater) (int, error) {
	table, err := FindTable[T](db, tableName)
	if err != nil {
		return 0, newPathError("UpdatePath", "table lookup failed", err)
	}

	lp := NewLockPlanner()
	if err := lp.AcquireWrite(txn, table.Name()); err != nil {
		return 0, newPathError("UpdatePath", "failed to acquire write lock", err)
	}

	victims, err := executeLiveSequence(ctx, db, txn, plan)
	if err != nil {
		return 0, newPathError("UpdatePath", "victim selection failed", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	affected := affectedIndexes(table, updater)
	introspector := NewRelationIntrospector(db.Schema)
	relations := introspector.FindRelations(affected, true, true)
	if err := lp.LockRelated(txn, relations, map[string]bool{table.Name(): true}); err != nil {
		return 0, newPathError("UpdatePath", "failed to acquire related locks", err)
	}

	var referringRelations, referredRelations []catalog.Relation
	for _, r := range relations {
		for _, idx := range affected {
			if r.PrimaryIndex() == idx {
				referringRelations = append(referringRelations, r)
			}
			if r.ForeignIndex() == idx {
				referredRelations = append(referredRelations, r)
			}
		}
	}

	cloner := table.Cloner()
	maintainer := NewIndexMaintainer()
	scope := txlog.NewScope(db.Logger)
	defer scope.Close()

	// Captured before any victim is mutated: the referrers depend on keys
	// that have not changed yet.
	erased := make([]catalog.Entity, len(victims))
	for i, v := range victims {
		erased[i] = v
	}
	oldReferrers := FindReferringEntities(erased, referringRelations)

	for _, v := range victims {
		select {
		case <-ctx.Done():
			return 0, newPathError("UpdatePath", "cancelled", ctx.Err())
		default:
		}
		entity := catalog.Entity(v)
		snapshot, _ := cloner.CloneNew(entity)

		apply := func(e catalog.Entity) error {
			next, err := updater.Apply(e)
			if err != nil {
				return err
			}
			if err := table.Constraints().Apply(next); err != nil {
				return err
			}
			// Apply may return a freshly allocated instance rather than
			// mutating e in place; copy its fields onto e so the pointer
			// identity the indexes already hold carries the new values.
			if next != e {
				cloner.Clone(e, next)
			}
			return nil
		}
		if err := maintainer.ApplyUpdate(scope, cloner, affected, entity, snapshot, apply); err != nil {
			return 0, newPathError("UpdatePath", "index update failed", err)
		}

		for _, r := range referredRelations {
			if err := r.ValidateEntity(entity); err != nil {
				return 0, newPathError("UpdatePath", "foreign key violation", err)
			}
		}
	}

	if err := ValidateByRelation(oldReferrers); err != nil {
		return 0, newPathError("UpdatePath", "update would orphan a referring row", err)
	}

	scope.Complete()
	return len(victims), nil
}
