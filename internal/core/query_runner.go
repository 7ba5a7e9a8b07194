package core

import "context"

// QueryRunner is the read path every other command path's victim-selection
// step shares: acquire Shared locks on the tables a plan names, run the
// plan, and, when the plan's result type matches a registered table's
// entity type, hand back clones instead of the live, index-resident
// pointers. DeletePath and UpdatePath select victims through
// executeLiveSequence, which returns uncloned results; QueryRunner itself
// has no mutating counterpart.
type QueryRunner struct {
	lockPlanner *LockPlanner
	locator     *TableLocator
}

// NewQueryRunner constructs a QueryRunner. db is not retained.
func NewQueryRunner(db *Database) *QueryRunner {
	return &QueryRunner{lockPlanner: NewLockPlanner(), locator: NewTableLocator()}
}

func (qr *QueryRunner) lockTables(ctx context.Context, txn *Transaction, tables []string) error {
	for _, t := range tables {
		if err := qr.lockPlanner.AcquireRead(ctx, txn, t); err != nil {
			return err
		}
	}
	return nil
}

// unlockTables drops the Shared locks lockTables took, once a read's
// results have been drained. Shared locks are scope-bound rather than
// transaction-bound (see Transaction.releaseRead), so every lockTables call
// site is paired with one of these rather than leaving the lock held until
// commit/abort.
func (qr *QueryRunner) unlockTables(txn *Transaction, tables []string) {
	for _, t := range tables {
		_ = qr.lockPlanner.ReleaseRead(txn, t)
	}
}

// executeLiveSequence runs plan under txn's locks (whatever locks the
// caller already holds plus Shared on any table the plan additionally
// names) and returns its results uncloned. DeletePath and UpdatePath use
// this instead of ExecuteQuery to select victims: they need the index's
// own live pointers, not defensive copies, because they are about to
// delete or mutate through exactly those pointers.
func executeLiveSequence[T any](ctx context.Context, db *Database, txn *Transaction, plan SequencePlan[T]) ([]T, error) {
	qr := NewQueryRunner(db)
	tables := qr.locator.FindAffectedTables(plan)
	if err := qr.lockTables(ctx, txn, tables); err != nil {
		return nil, newPathError("QueryRunner", "failed to acquire read locks", err)
	}
	results, err := plan.Execute(ctx)
	qr.unlockTables(txn, tables)
	if err != nil {
		return nil, newPathError("QueryRunner", "plan execution failed", err)
	}
	return results, nil
}

// ExecuteQuery runs a sequence plan under txn's Shared locks and returns
// its results. If plan names exactly one table and that table's entity
// type matches T, every result is a fresh clone rather than the index's
// own pointer, so callers cannot observe or corrupt live state through
// such a result. Results of a plan naming several tables are returned
// uncloned.
func ExecuteQuery[T any](ctx context.Context, db *Database, txn *Transaction, plan SequencePlan[T]) ([]T, error) {
	qr := NewQueryRunner(db)
	tables := qr.locator.FindAffectedTables(plan)
	if err := qr.lockTables(ctx, txn, tables); err != nil {
		return nil, newPathError("QueryRunner", "failed to acquire read locks", err)
	}

	results, err := plan.Execute(ctx)
	qr.unlockTables(txn, tables)
	if err != nil {
		return nil, newPathError("QueryRunner", "plan execution failed", err)
	}

	if len(tables) != 1 || len(results) == 0 {
		return results, nil
	}
	table, ok := db.Schema.Table(tables[0])
	if !ok {
		return results, nil
	}
	cloner := table.Cloner()

	cloned := make([]T, len(results))
	for i, r := range results {
		c, ok := cloner.CloneNew(r)
		if !ok {
			// Not this table's entity type (a projection/DTO query), hand
			// results back unmodified.
			return results, nil
		}
		cloned[i] = c.(T)
	}
	return cloned, nil
}

// ExecuteScalarQuery runs a scalar plan under txn's Shared locks. The same
// single-table entity-clone rule as ExecuteQuery applies when the scalar's
// type is itself an entity (a find-one lookup); counts and existence
// checks simply pass through.
func ExecuteScalarQuery[T any](ctx context.Context, db *Database, txn *Transaction, plan ScalarPlan[T]) (T, error) {
	var zero T
	qr := NewQueryRunner(db)
	tables := qr.locator.FindAffectedTables(plan)
	if err := qr.lockTables(ctx, txn, tables); err != nil {
		return zero, newPathError("QueryRunner", "failed to acquire read locks", err)
	}

	result, err := plan.Execute(ctx)
	qr.unlockTables(txn, tables)
	if err != nil {
		return zero, newPathError("QueryRunner", "plan execution failed", err)
	}

	if len(tables) != 1 {
		return result, nil
	}
	table, ok := db.Schema.Table(tables[0])
	if !ok {
		return result, nil
	}
	c, ok := table.Cloner().CloneNew(result)
	if !ok {
		return result, nil
	}
	typed, ok := c.(T)
	if !ok {
		return result, nil
	}
	return typed, nil
}
