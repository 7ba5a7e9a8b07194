package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nmemory-go/txcore/internal/locking"
)

// IsolationLevel names the isolation the transaction manager enforces.
// The command paths only ever produce one real behavior: lock-based
// serializable execution. A transaction still records the level a
// caller asked for, the way the teacher's executor did, so callers that
// inspect it see what they requested.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ_UNCOMMITTED"
	case ReadCommitted:
		return "READ_COMMITTED"
	case RepeatableRead:
		return "REPEATABLE_READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "UNKNOWN"
	}
}

// TransactionState is the lifecycle state of a Transaction.
type TransactionState int

const (
	TxnActive TransactionState = iota
	TxnCommitted
	TxnAborted
)

func (s TransactionState) String() string {
	switch s {
	case TxnActive:
		return "ACTIVE"
	case TxnCommitted:
		return "COMMITTED"
	case TxnAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Transaction is the unit every command path runs under. It owns no data of
// its own; it is the identity the lock manager schedules against and the
// boundary at which held locks are released. Every mutating command opens
// its own AtomicLogScope (txlog.Scope) rather than the transaction owning
// one; a single transaction issuing several commands gets independent
// undo buffers per command, matching the one-scope-per-command shape in
// the component design.
type Transaction struct {
	ID             uint64
	State          TransactionState
	IsolationLevel IsolationLevel
	StartTime      time.Time
	EndTime        time.Time

	db *Database

	// writeLocked and relatedLocked record which tables this transaction
	// currently holds Exclusive/Related locks on, so command paths can
	// skip a redundant acquire (see locking.Manager's own reentrancy
	// handling) and so diagnostics can report what a stuck transaction
	// holds.
	mutex         sync.Mutex
	writeLocked   map[string]bool
	relatedLocked map[string]bool
}

// TransactionManager hands out transaction IDs and tracks which
// transactions are active. Grounded on the teacher's TransactionExecutor,
// narrowed to exactly what the command paths need: begin, commit, abort.
// Query planning, WAL writing and savepoints are out of scope here; this
// store never persists and plans are opaque.
type TransactionManager struct {
	db *Database

	mutex  sync.Mutex
	nextID uint64
	active map[uint64]*Transaction

	defaultIsolation IsolationLevel
}

// NewTransactionManager creates a manager bound to db's concurrency
// manager.
func NewTransactionManager(db *Database) *TransactionManager {
	return &TransactionManager{
		db:               db,
		nextID:           1,
		active:           make(map[uint64]*Transaction),
		defaultIsolation: Serializable,
	}
}

// Begin starts a new transaction at the given isolation level.
// IsolationLevel below Serializable is accepted for API compatibility but
// has no weaker-locking fast path: the lock planner always takes the locks
// Serializable execution requires, so every transaction actually runs
// serializable regardless of what it asked for.
func (tm *TransactionManager) Begin(level IsolationLevel) *Transaction {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	id := tm.nextID
	tm.nextID++

	txn := &Transaction{
		ID:             id,
		State:          TxnActive,
		IsolationLevel: level,
		StartTime:      time.Now(),
		db:             tm.db,
		writeLocked:    make(map[string]bool),
		relatedLocked:  make(map[string]bool),
	}
	tm.active[id] = txn
	return txn
}

// BeginDefault starts a transaction at the manager's default isolation
// level (Serializable).
func (tm *TransactionManager) BeginDefault() *Transaction {
	return tm.Begin(tm.defaultIsolation)
}

// Commit ends txn successfully, releasing every lock it holds. Command
// paths have already completed and closed their own log scopes by the time
// Commit is called; there is nothing left to flush since this store never
// persists.
func (tm *TransactionManager) Commit(txn *Transaction) error {
	return tm.end(txn, TxnCommitted)
}

// Rollback ends txn unsuccessfully. Any command whose log scope is still
// open gets its mutations undone when that scope is closed by the command
// path itself; Rollback's job is only to release the transaction's locks
// once every command has unwound.
func (tm *TransactionManager) Rollback(txn *Transaction) error {
	return tm.end(txn, TxnAborted)
}

func (tm *TransactionManager) end(txn *Transaction, final TransactionState) error {
	tm.mutex.Lock()
	_, ok := tm.active[txn.ID]
	if !ok {
		tm.mutex.Unlock()
		return fmt.Errorf("core: %w: %d", ErrTxnNotFound, txn.ID)
	}
	delete(tm.active, txn.ID)
	tm.mutex.Unlock()

	txn.mutex.Lock()
	if txn.State != TxnActive {
		txn.mutex.Unlock()
		return fmt.Errorf("core: %w: %d", ErrTxnNotActive, txn.ID)
	}
	txn.State = final
	txn.EndTime = time.Now()
	txn.mutex.Unlock()

	tm.db.Concurrency.ReleaseAll(txn.ID)
	return nil
}

// Get looks up an active transaction by ID.
func (tm *TransactionManager) Get(id uint64) (*Transaction, error) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	txn, ok := tm.active[id]
	if !ok {
		return nil, fmt.Errorf("core: %w: %d", ErrTxnNotFound, id)
	}
	return txn, nil
}

// Active lists the IDs of every currently active transaction.
func (tm *TransactionManager) Active() []uint64 {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	ids := make([]uint64, 0, len(tm.active))
	for id := range tm.active {
		ids = append(ids, id)
	}
	return ids
}

// acquireWrite takes an Exclusive lock on table for txn, recording it so
// later calls in the same transaction are cheap no-ops and so the
// transaction can report what it holds.
func (txn *Transaction) acquireWrite(table string) error {
	txn.mutex.Lock()
	already := txn.writeLocked[table]
	txn.mutex.Unlock()
	if already {
		return nil
	}
	if err := txn.db.Concurrency.AcquireWrite(txn.ID, table); err != nil {
		return err
	}
	txn.mutex.Lock()
	txn.writeLocked[table] = true
	txn.mutex.Unlock()
	return nil
}

// acquireRead takes a Shared lock on table for txn. Read locks are not
// recorded on the transaction the way write locks are: QueryRunner treats
// them as scope-bound and releases them itself when a read completes,
// rather than holding them for the whole transaction.
func (txn *Transaction) acquireRead(ctx context.Context, table string) error {
	return txn.db.Concurrency.AcquireRead(txn.ID, table)
}

// releaseRead drops txn's Shared lock on table once a read has drained,
// unless table is already held under the transaction-scoped Exclusive
// mode: acquireRead never records a separate Shared entry in that case
// (locking.Manager folds it into the Exclusive hold), so there is nothing
// to release, and calling through to the manager would only report a
// spurious "lock not held" error. A Related hold does not absorb a Shared
// request, so under one the Shared entry is released as usual.
func (txn *Transaction) releaseRead(table string) error {
	txn.mutex.Lock()
	impliedByStronger := txn.writeLocked[table]
	txn.mutex.Unlock()
	if impliedByStronger {
		return nil
	}
	return txn.db.Concurrency.ReleaseRead(txn.ID, table)
}

// acquireRelated takes a Related lock on table for txn, recording it the
// same way acquireWrite does.
func (txn *Transaction) acquireRelated(table string) error {
	txn.mutex.Lock()
	already := txn.relatedLocked[table] || txn.writeLocked[table]
	txn.mutex.Unlock()
	if already {
		return nil
	}
	if err := txn.db.Concurrency.AcquireRelated(txn.ID, table); err != nil {
		return err
	}
	txn.mutex.Lock()
	txn.relatedLocked[table] = true
	txn.mutex.Unlock()
	return nil
}
