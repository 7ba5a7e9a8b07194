package core

import (
	"context"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/txlog"
)

// ExecuteDelete runs DeletePath: select victims with plan, then delete
// them and every row that cascades from them. The base table's write lock
// is acquired before any cascade-table lock or the plan itself runs;
// this ordering is preserved even though acquiring cascade locks first
// would look more "correct" on paper, because a plan that reads its own
// base table (a self-referential victim query) relies on the base lock
// already being held by the time it runs.
func ExecuteDelete[T any](ctx context.Context, db *Database, txn *Transaction, tableName string, plan SequencePlan[*T]) (int, error) {
	table, err := FindTable[T](db, tableName)
	if err != nil {
		return 0, newPathError("DeletePath", "table lookup failed", err)
	}

	lp := NewLockPlanner()
	if err := lp.AcquireWrite(txn, table.Name()); err != nil {
		return 0, newPathError("DeletePath", "failed to acquire write lock", err)
	}

	victims, err := executeLiveSequence(ctx, db, txn, plan)
	if err != nil {
		return 0, newPathError("DeletePath", "victim selection failed", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	collector := NewCascadeCollector(db.Schema)
	cascaded := collector.GetCascadedTables(table)
	locked := map[string]bool{table.Name(): true}
	allIndexes := append([]catalog.Index{}, table.Indexes()...)
	for _, c := range cascaded {
		if !locked[c.Table.Name()] {
			if err := lp.AcquireWrite(txn, c.Table.Name()); err != nil {
				return 0, newPathError("DeletePath", "failed to acquire cascade write lock", err)
			}
			locked[c.Table.Name()] = true
			allIndexes = append(allIndexes, c.Table.Indexes()...)
		}
	}

	introspector := NewRelationIntrospector(db.Schema)
	relations := introspector.FindRelations(allIndexes, true, false)
	if err := lp.LockRelated(txn, relations, locked); err != nil {
		return 0, newPathError("DeletePath", "failed to acquire related locks", err)
	}

	erased := make([]catalog.Entity, len(victims))
	for i, v := range victims {
		erased[i] = v
	}

	scope := txlog.NewScope(db.Logger)
	defer scope.Close()

	d := &cascadeDeleter{
		db:           db,
		introspector: NewRelationIntrospector(db.Schema),
		maintainer:   NewIndexMaintainer(),
		scope:        scope,
	}
	if err := d.deleteEntities(ctx, table, erased); err != nil {
		return 0, newPathError("DeletePath", "delete failed", err)
	}

	scope.Complete()
	return len(victims), nil
}

// cascadeDeleter is the recursive cascade-delete capability: given a table
// and the entities about to be removed from it, it first disposes of every
// referrer reachable through a CascadedDeletion relation (recursing on the
// referring table, never the table it started from), rejects the delete
// outright if a non-cascading relation still has referrers pointing at a
// victim, and only then removes the victims themselves from every index of
// their own table.
type cascadeDeleter struct {
	db           *Database
	introspector *RelationIntrospector
	maintainer   *IndexMaintainer
	scope        *txlog.Scope
}

func (d *cascadeDeleter) deleteEntities(ctx context.Context, table catalog.Table, entities []catalog.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Freeze, before any delete at this level runs, which foreign rows
	// currently point at entities: one map built up front rather than a
	// live re-query per relation, so a row that two referring relations
	// both reach (one cascading, one not) is checked against the set that
	// existed when these victims were identified, not against whatever the
	// cascade recursion below happens to have already removed.
	relations := d.introspector.TableRelations(table, true, false)
	byRelation := FindReferringEntities(entities, relations)

	for _, r := range relations {
		referrers := byRelation[r]
		if len(referrers) == 0 || !r.CascadedDeletion() {
			continue
		}
		childTable, ok := d.db.Schema.Table(r.ForeignTable())
		if !ok {
			continue
		}
		if err := d.deleteEntities(ctx, childTable, referrers); err != nil {
			return err
		}
	}

	for _, r := range relations {
		if r.CascadedDeletion() {
			continue
		}
		referrers := byRelation[r]
		if len(referrers) == 0 {
			continue
		}
		return &catalog.ForeignKeyViolation{Relation: r.Name(), Table: r.ForeignTable(), Entity: referrers[0]}
	}

	for _, e := range entities {
		if err := d.maintainer.ApplyDelete(d.scope, table, e); err != nil {
			return err
		}
	}
	return nil
}
