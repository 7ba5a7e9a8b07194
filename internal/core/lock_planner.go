package core

import (
	"context"

	"github.com/nmemory-go/txcore/internal/catalog"
)

// LockPlanner is the component every command path requests its locks
// through, so lock acquisition order is uniform across insert, delete,
// update and query. It delegates to the Transaction, which calls the
// concurrency manager.
type LockPlanner struct{}

// NewLockPlanner constructs a LockPlanner. It carries no state.
func NewLockPlanner() *LockPlanner {
	return &LockPlanner{}
}

// AcquireRead takes a Shared lock on table for txn.
func (LockPlanner) AcquireRead(ctx context.Context, txn *Transaction, table string) error {
	return txn.acquireRead(ctx, table)
}

// ReleaseRead drops txn's Shared lock on table. Shared locks are scope-bound
// rather than transaction-bound: QueryRunner calls this once a read's
// results are drained, instead of holding the lock until commit/abort the
// way write and related locks are.
func (LockPlanner) ReleaseRead(txn *Transaction, table string) error {
	return txn.releaseRead(table)
}

// AcquireWrite takes an Exclusive lock on table for txn. Write locks are
// transaction-scoped: once taken they are held until commit or rollback,
// never released early, so a transaction can never observe its own write
// being partially visible to a concurrent reader.
func (LockPlanner) AcquireWrite(txn *Transaction, table string) error {
	return txn.acquireWrite(table)
}

// AcquireRelated takes the weaker Related lock on table for txn, used for
// tables a write is structurally involved with (through a relation) but
// does not itself mutate.
func (LockPlanner) AcquireRelated(txn *Transaction, table string) error {
	return txn.acquireRelated(table)
}

// LockRelated acquires Related locks on every table named by relations:
// each relation's foreign table and primary table, except those in
// except, deduplicated. This is the core's one non-base-table locking
// step; every command path calls it after taking its own write lock(s) and
// passes the relations it already had to compute for validation anyway.
func (LockPlanner) LockRelated(txn *Transaction, relations []catalog.Relation, except map[string]bool) error {
	locked := make(map[string]bool)
	for _, r := range relations {
		for _, name := range []string{r.ForeignTable(), r.PrimaryTable()} {
			if except[name] || locked[name] {
				continue
			}
			if err := txn.acquireRelated(name); err != nil {
				return err
			}
			locked[name] = true
		}
	}
	return nil
}
