package core

import (
	"fmt"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/locking"
	"github.com/rs/zerolog"
)

// Database is the core's view of the surrounding engine: a schema registry,
// the concurrency manager every lock planner call delegates to, and the
// logger every mutating command's log scope reports rollback activity
// through. The public database façade / schema-builder layer that
// constructs one is out of scope for this package; Database is the narrow
// slice of it the command paths actually consume.
type Database struct {
	Schema      *catalog.Schema
	Concurrency *locking.Manager
	Logger      zerolog.Logger
}

// NewDatabase wires a schema registry to a concurrency manager, logging
// through log (the zero value discards output).
func NewDatabase(schema *catalog.Schema, concurrency *locking.Manager, log zerolog.Logger) *Database {
	return &Database{Schema: schema, Concurrency: concurrency, Logger: log}
}

// FindTable resolves a table by name and asserts it is the typed table for
// T, mirroring the external Tables.FindTable<T>() collaborator from spec
// §6. It is the one place the core's otherwise type-erased table model
// reconnects with a caller's concrete entity type.
func FindTable[T any](db *Database, name string) (*catalog.Table_[T], error) {
	t, ok := db.Schema.Table(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	typed, ok := t.(*catalog.Table_[T])
	if !ok {
		return nil, fmt.Errorf("core: table %s is not a table of the requested entity type", name)
	}
	return typed, nil
}

// IsEntityType reports whether name names a table whose entity type is T.
// QueryRunner does not call it; it decides whether to clone query results
// through the table's Cloner.CloneNew instead.
func IsEntityType[T any](db *Database, name string) bool {
	_, err := FindTable[T](db, name)
	return err == nil
}
