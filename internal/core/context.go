package core

import (
	"context"
	"time"
)

// ExecutionContext bundles the ambient state of a command beyond its plan:
// cancellation, a deadline, and the transaction it runs under. The command
// paths in this package do not take an ExecutionContext; they receive the
// context.Context and *Transaction as separate arguments. Grounded on the
// teacher's executor.ExecutionContext, stripped of
// the memory-accounting and buffer-pool fields; storage and buffer
// management are an external collaborator's concern here, not this
// package's.
type ExecutionContext struct {
	ctx       context.Context
	txn       *Transaction
	startTime time.Time
}

// NewExecutionContext wraps ctx for a single command running under txn.
func NewExecutionContext(ctx context.Context, txn *Transaction) *ExecutionContext {
	return &ExecutionContext{ctx: ctx, txn: txn, startTime: time.Now()}
}

// Context returns the underlying cancellation/deadline context.
func (ec *ExecutionContext) Context() context.Context {
	return ec.ctx
}

// Transaction returns the transaction the command is running under.
func (ec *ExecutionContext) Transaction() *Transaction {
	return ec.txn
}

// Elapsed returns the time since the command began.
func (ec *ExecutionContext) Elapsed() time.Duration {
	return time.Since(ec.startTime)
}

// Done reports whether the context has been cancelled or its deadline
// exceeded.
func (ec *ExecutionContext) Done() bool {
	select {
	case <-ec.ctx.Done():
		return true
	default:
		return false
	}
}

// Err returns the context's error if Done, otherwise nil.
func (ec *ExecutionContext) Err() error {
	return ec.ctx.Err()
}
