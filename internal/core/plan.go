// Package core implements the command execution core: locking, log-scoped
// atomicity, index maintenance, foreign-key validation and the three
// mutating command paths (insert/delete/update), plus the read-only query
// path they all share. It is the direct descendant of the teacher's
// executor package, rebuilt around typed entity tables instead of SQL
// tuples. The Volcano-style operator tree that used to live here is gone;
// plans arrive pre-built and opaque, produced by a query planner this
// package never sees.
package core

import "context"

// Plan is the common surface every execution plan exposes to the core: the
// set of table names it will read. TableLocator uses it to decide which
// tables a command must lock; it never inspects a plan's actual query
// logic.
type Plan interface {
	Tables() []string
}

// ScalarPlan produces a single value, e.g. a count or an existence check.
type ScalarPlan[T any] interface {
	Plan
	Execute(ctx context.Context) (T, error)
}

// SequencePlan produces a sequence of entities or projected values. Insert
// never uses one; Delete and Update use it to pick victims; read-only
// queries use it for multi-row results.
type SequencePlan[T any] interface {
	Plan
	Execute(ctx context.Context) ([]T, error)
}
