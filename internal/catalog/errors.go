package catalog

import "fmt"

// ConstraintViolation is raised when a table's field constraints reject an
// entity. InsertPath raises it before any index mutation; UpdatePath raises
// it after removing the entity from its affected indexes, and its log scope
// undoes that removal. Either way no state change remains.
type ConstraintViolation struct {
	Table string
	Field string
	Cause error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation on %s.%s: %v", e.Table, e.Field, e.Cause)
}

func (e *ConstraintViolation) Unwrap() error { return e.Cause }

// UniqueConstraintViolation is raised when an index rejects an insert
// because the key is already held by a different entity.
type UniqueConstraintViolation struct {
	Index string
	Table string
	Key   Key
}

func (e *UniqueConstraintViolation) Error() string {
	return fmt.Sprintf("unique constraint violation on %s (index %s): duplicate key %q", e.Table, e.Index, string(e.Key))
}

// ForeignKeyViolation is raised when a relation's entity validation fails:
// either the foreign side points at a primary that does not exist, or a
// referring entity would be left dangling by a delete/update.
type ForeignKeyViolation struct {
	Relation string
	Table    string
	Entity   Entity
}

func (e *ForeignKeyViolation) Error() string {
	return fmt.Sprintf("foreign key violation on relation %s (table %s)", e.Relation, e.Table)
}

// UserError wraps an arbitrary error raised from an Updater.Apply or a
// plan's Execute. It is handled identically to ConstraintViolation: the
// enclosing log scope unwinds and the error propagates unchanged.
type UserError struct {
	Cause error
}

func (e *UserError) Error() string { return e.Cause.Error() }
func (e *UserError) Unwrap() error { return e.Cause }
