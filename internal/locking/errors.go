package locking

import "errors"

// ErrTimeout is returned by an Acquire* call that could not obtain the lock
// within the manager's configured lock timeout.
var ErrTimeout = errors.New("locking: acquire timed out")

// ErrDeadlock is returned when granting a lock would complete a cycle in
// the wait-for graph. The caller transaction should abort and may retry.
var ErrDeadlock = errors.New("locking: deadlock detected")
