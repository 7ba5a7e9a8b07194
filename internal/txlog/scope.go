// Package txlog implements AtomicLogScope, the per-command undo buffer
// every mutating command path opens before touching an index. It is the
// spec's answer to atomicity: instead of replaying a write-ahead log at
// recovery time (out of scope, this store never persists), the scope
// records the inverse of each mutation as it happens and replays the
// inverses LIFO if the command never reaches Complete().
//
// Grounded on the teacher's TransactionExecutor savepoint/rollback
// scaffolding (which left WAL replay as a TODO) and on the copy-on-write
// undo buffers seen across the retrieval pack (row-level COW snapshots,
// write-transaction op buffers) all converge on the same shape: buffer
// the inverse, discard on success, replay on failure.
package txlog

import (
	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/rs/zerolog"
)

// inverseAction is one entry in the undo buffer.
type inverseAction interface {
	undo() error
}

type indexInsertUndo struct {
	index  catalog.Index
	entity catalog.Entity
}

func (a indexInsertUndo) undo() error { return a.index.Delete(a.entity) }

type indexDeleteUndo struct {
	index  catalog.Index
	entity catalog.Entity
}

func (a indexDeleteUndo) undo() error { return a.index.Insert(a.entity) }

type entityUpdateUndo struct {
	cloner     catalog.Cloner
	liveEntity catalog.Entity
	snapshot   catalog.Entity
}

func (a entityUpdateUndo) undo() error {
	a.cloner.Clone(a.liveEntity, a.snapshot)
	return nil
}

// Scope is a bounded-size undo buffer spanning one command. Open it at the
// start of a mutating command (under the write locks it will need, see
// locking.Manager), feed it an inverse for every mutation, and Close it:
// Complete() first makes Close a no-op; otherwise Close replays every
// inverse in reverse order and swallows secondary failures (logged, not
// propagated, so the command's original error is what the caller sees).
type Scope struct {
	log       zerolog.Logger
	actions   []inverseAction
	completed bool
}

// NewScope opens a fresh, empty log scope. log may be the zero value
// (zerolog.Logger{}), which discards output.
func NewScope(log zerolog.Logger) *Scope {
	return &Scope{log: log}
}

// WriteIndexInsert records that entity was just inserted into index; its
// undo is a delete.
func (s *Scope) WriteIndexInsert(index catalog.Index, entity catalog.Entity) {
	s.actions = append(s.actions, indexInsertUndo{index: index, entity: entity})
}

// WriteIndexDelete records that entity was just deleted from index; its
// undo is a re-insert.
func (s *Scope) WriteIndexDelete(index catalog.Index, entity catalog.Entity) {
	s.actions = append(s.actions, indexDeleteUndo{index: index, entity: entity})
}

// WriteEntityUpdate records that live was just mutated in place; its undo
// copies snapshot's fields back over it via cloner.
func (s *Scope) WriteEntityUpdate(cloner catalog.Cloner, live, snapshot catalog.Entity) {
	s.actions = append(s.actions, entityUpdateUndo{cloner: cloner, liveEntity: live, snapshot: snapshot})
}

// Complete marks the scope successful. After Complete, Close discards the
// buffer instead of replaying it.
func (s *Scope) Complete() {
	s.completed = true
}

// Completed reports whether Complete has been called.
func (s *Scope) Completed() bool {
	return s.completed
}

// Close ends the scope. If the scope was never completed it replays every
// recorded inverse in LIFO order, restoring pre-scope state provided no
// other transaction mutated the same indexes meanwhile, guaranteed by the
// write locks the command path holds for the scope's whole lifetime. A
// failure partway through rollback is logged and rollback continues; it is
// never re-raised, so it cannot mask the original error that caused the
// rollback.
func (s *Scope) Close() {
	if s.completed {
		return
	}
	for i := len(s.actions) - 1; i >= 0; i-- {
		if err := s.actions[i].undo(); err != nil {
			s.log.Warn().Err(err).Int("position", i).Msg("log scope rollback: inverse action failed, continuing")
		}
	}
	s.actions = nil
}
