// Package catalog defines the typed data model the execution core operates
// over: entities, tables, indexes and the foreign-key relations between
// tables. It is the Go analogue of a schema registry, built once when the
// database is configured, then consulted (never mutated) by the command
// execution core.
package catalog

import (
	"fmt"
	"strings"
)

// Key is the projected, encoded form of an entity's index key members. Two
// entities collide in an index if and only if their Keys are equal.
type Key string

const keyPartSeparator = "\x1f"

// EncodeKey projects a tuple of field values into a comparable Key. Values
// are rendered with fmt so any comparable column type (int, string, time,
// custom Stringer) produces a stable encoding.
func EncodeKey(values ...interface{}) Key {
	if len(values) == 1 {
		return Key(fmt.Sprintf("%v", values[0]))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return Key(strings.Join(parts, keyPartSeparator))
}
