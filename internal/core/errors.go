package core

import (
	"errors"
	"fmt"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/locking"
)

// Sentinel errors the command paths can return directly. ErrTimeout and
// ErrDeadlock are re-exported from locking so callers never need to import
// that package just to compare errors.
var (
	ErrTimeout       = locking.ErrTimeout
	ErrDeadlock      = locking.ErrDeadlock
	ErrTxnNotFound   = errors.New("core: transaction not found")
	ErrTxnNotActive  = errors.New("core: transaction is not active")
	ErrTableNotFound = errors.New("core: table not registered")
)

// ConstraintViolation, UniqueConstraintViolation, ForeignKeyViolation and
// UserError are catalog types; re-exported here so callers of this package
// reference one error taxonomy instead of two.
type (
	ConstraintViolation       = catalog.ConstraintViolation
	UniqueConstraintViolation = catalog.UniqueConstraintViolation
	ForeignKeyViolation       = catalog.ForeignKeyViolation
	UserError                 = catalog.UserError
)

// PathError wraps an error with the command path that produced it
// (InsertPath, DeletePath, UpdatePath, QueryRunner), the way the teacher's
// ExecutionError tagged failures with their originating operator.
type PathError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PathError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *PathError) Unwrap() error {
	return e.Cause
}

func newPathError(path, message string, cause error) *PathError {
	return &PathError{Path: path, Message: message, Cause: cause}
}
