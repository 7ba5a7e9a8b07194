package core

import (
	"context"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/txlog"
)

// ExecuteInsert runs InsertPath for a batch of entities against one table:
// take the table's write lock and Related locks on every table it holds a
// foreign key into, validate constraints and referential integrity, then
// apply every entity to every index of the table inside a single log
// scope. A failure partway through the batch rolls back the whole batch,
// not just the failing entity. InsertPath offers no partial-success mode.
func ExecuteInsert[T any](ctx context.Context, db *Database, txn *Transaction, tableName string, entities []*T) error {
	table, err := FindTable[T](db, tableName)
	if err != nil {
		return newPathError("InsertPath", "table lookup failed", err)
	}
	erased := make([]catalog.Entity, len(entities))
	for i, e := range entities {
		erased[i] = e
	}
	return insertEntities(ctx, db, txn, table, erased)
}

func insertEntities(ctx context.Context, db *Database, txn *Transaction, table catalog.Table, entities []catalog.Entity) error {
	introspector := NewRelationIntrospector(db.Schema)
	relations := introspector.TableRelations(table, false, true)

	lp := NewLockPlanner()
	if err := lp.AcquireWrite(txn, table.Name()); err != nil {
		return newPathError("InsertPath", "failed to acquire write lock", err)
	}
	if err := lp.LockRelated(txn, relations, map[string]bool{table.Name(): true}); err != nil {
		return newPathError("InsertPath", "failed to acquire related locks", err)
	}

	for _, e := range entities {
		if err := table.Constraints().Apply(e); err != nil {
			return newPathError("InsertPath", "constraint violation", err)
		}
		if err := ValidateRelations(relations, []catalog.Entity{e}); err != nil {
			return newPathError("InsertPath", "foreign key violation", err)
		}
	}

	scope := txlog.NewScope(db.Logger)
	defer scope.Close()

	maintainer := NewIndexMaintainer()
	for _, e := range entities {
		select {
		case <-ctx.Done():
			return newPathError("InsertPath", "cancelled", ctx.Err())
		default:
		}
		if err := maintainer.ApplyInsert(scope, table, e); err != nil {
			return newPathError("InsertPath", "index insert failed", err)
		}
	}

	scope.Complete()
	return nil
}
