// Package locking implements the concurrency manager the execution core
// delegates all lock scheduling to. Grounded on the teacher's
// executor.LockManager: the lock-compatibility matrix and wait-for-graph
// cycle detection are carried over near verbatim, generalized from
// page/row granularity (irrelevant once the index's internal storage is
// out of scope) down to the one granularity the core needs: whole tables.
package locking

import (
	"fmt"
	"sync"
	"time"
)

// Mode is the lock mode requested on a table.
type Mode int

const (
	// Shared is taken for reads; compatible with other Shared and Related holders.
	Shared Mode = iota
	// Exclusive is taken for writes; incompatible with every other mode.
	Exclusive
	// Related is the weaker "structurally involved" lock acquire_related
	// takes on tables reachable via a relation but not themselves the
	// write target: shared-intent semantics, compatible with Shared and
	// other Related holders, incompatible with Exclusive.
	Related
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "SHARED"
	case Exclusive:
		return "EXCLUSIVE"
	case Related:
		return "RELATED"
	default:
		return "UNKNOWN"
	}
}

// compatible reports whether a holder in mode `held` blocks a new request
// in mode `want` from a different transaction.
func compatible(held, want Mode) bool {
	if held == Exclusive || want == Exclusive {
		return false
	}
	return true // Shared/Related/Shared, Shared/Related, Related/Related all compose
}

type lockEntry struct {
	txnID uint64
	mode  Mode
}

type tableLocks struct {
	holders []lockEntry
	mutex   sync.Mutex
}

// Manager is the concurrency manager. One Manager instance is shared by
// every transaction against a database.
type Manager struct {
	mutex  sync.Mutex
	tables map[string]*tableLocks

	waitFor *waitForGraph

	lockTimeout   time.Duration
	pollInterval  time.Duration
}

// NewManager creates a concurrency manager. lockTimeout bounds how long an
// Acquire* call will wait before returning ErrTimeout.
func NewManager(lockTimeout time.Duration) *Manager {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &Manager{
		tables:       make(map[string]*tableLocks),
		waitFor:      newWaitForGraph(),
		lockTimeout:  lockTimeout,
		pollInterval: time.Millisecond,
	}
}

func (m *Manager) tableLocksFor(name string) *tableLocks {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	tl, ok := m.tables[name]
	if !ok {
		tl = &tableLocks{}
		m.tables[name] = tl
	}
	return tl
}

// acquire is the common path for AcquireRead/AcquireWrite/AcquireRelated.
// Reacquiring the same (txnID, mode) pair, or a pair already implied by a
// stronger mode the same transaction holds, is a no-op, which is what
// makes DeletePath's reentrant read against an already write-locked table
// safe.
func (m *Manager) acquire(txnID uint64, table string, mode Mode) error {
	tl := m.tableLocksFor(table)
	deadline := time.Now().Add(m.lockTimeout)

	for {
		tl.mutex.Lock()

		blocker, blocked := m.findBlocker(tl, txnID, mode)
		if !blocked {
			if !hasEntry(tl.holders, txnID, mode) && !impliedByStrongerHold(tl.holders, txnID, mode) {
				tl.holders = append(tl.holders, lockEntry{txnID: txnID, mode: mode})
			}
			tl.mutex.Unlock()
			m.waitFor.removeWaiter(txnID)
			return nil
		}

		m.waitFor.addEdge(txnID, blocker)
		if cyclic, _ := m.waitFor.detectCycle(); cyclic {
			m.waitFor.removeWaiter(txnID)
			tl.mutex.Unlock()
			return ErrDeadlock
		}
		tl.mutex.Unlock()

		if time.Now().After(deadline) {
			m.waitFor.removeWaiter(txnID)
			return ErrTimeout
		}
		time.Sleep(m.pollInterval)
	}
}

func hasEntry(holders []lockEntry, txnID uint64, mode Mode) bool {
	for _, h := range holders {
		if h.txnID == txnID && h.mode == mode {
			return true
		}
	}
	return false
}

// impliedByStrongerHold returns true if the transaction already holds
// Exclusive and is now asking for Shared/Related on the same table, no
// need to record the weaker mode too.
func impliedByStrongerHold(holders []lockEntry, txnID uint64, mode Mode) bool {
	if mode == Exclusive {
		return false
	}
	for _, h := range holders {
		if h.txnID == txnID && h.mode == Exclusive {
			return true
		}
	}
	return false
}

// findBlocker returns a transaction ID currently holding an incompatible
// lock on tl, if any (false if the request can be granted now).
func (m *Manager) findBlocker(tl *tableLocks, txnID uint64, mode Mode) (uint64, bool) {
	for _, h := range tl.holders {
		if h.txnID == txnID {
			continue
		}
		if !compatible(h.mode, mode) {
			return h.txnID, true
		}
	}
	return 0, false
}

// AcquireRead acquires a shared (read) lock on table for txnID.
func (m *Manager) AcquireRead(txnID uint64, table string) error {
	return m.acquire(txnID, table, Shared)
}

// AcquireWrite acquires an exclusive (write) lock on table for txnID.
func (m *Manager) AcquireWrite(txnID uint64, table string) error {
	return m.acquire(txnID, table, Exclusive)
}

// AcquireRelated acquires the weaker "structurally involved" lock used for
// tables reachable through a relation but not themselves the command's
// target.
func (m *Manager) AcquireRelated(txnID uint64, table string) error {
	return m.acquire(txnID, table, Related)
}

// release drops every entry held by txnID in the given mode on table.
func (m *Manager) release(txnID uint64, table string, mode Mode) error {
	tl := m.tableLocksFor(table)
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	kept := tl.holders[:0]
	found := false
	for _, h := range tl.holders {
		if h.txnID == txnID && h.mode == mode {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	tl.holders = kept
	if !found {
		return fmt.Errorf("locking: transaction %d does not hold %s lock on %s", txnID, mode, table)
	}
	return nil
}

// ReleaseRead releases txnID's shared lock on table. Used only by
// read-only command paths, which are scope-bound (released when the drain
// completes) rather than transaction-bound.
func (m *Manager) ReleaseRead(txnID uint64, table string) error {
	return m.release(txnID, table, Shared)
}

// ReleaseWrite releases txnID's exclusive lock on table. Mutating command
// paths never call this directly; write locks are transaction-bound and
// are dropped in bulk by ReleaseAll at commit/abort.
func (m *Manager) ReleaseWrite(txnID uint64, table string) error {
	return m.release(txnID, table, Exclusive)
}

// ReleaseAll drops every lock txnID holds, across every table. Called once
// at transaction commit or abort.
func (m *Manager) ReleaseAll(txnID uint64) {
	m.mutex.Lock()
	tables := make([]*tableLocks, 0, len(m.tables))
	for _, tl := range m.tables {
		tables = append(tables, tl)
	}
	m.mutex.Unlock()

	for _, tl := range tables {
		tl.mutex.Lock()
		kept := tl.holders[:0]
		for _, h := range tl.holders {
			if h.txnID != txnID {
				kept = append(kept, h)
			}
		}
		tl.holders = kept
		tl.mutex.Unlock()
	}
	m.waitFor.removeWaiter(txnID)
}
