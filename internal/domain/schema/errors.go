package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier means the supplied column name fails the naming
	// pattern; rejected before any mutation.
	ErrInvalidIdentifier = errors.New("invalid column name: use only letters, numbers, and underscores")

	// ErrDuplicateColumn means the column name is already present in the
	// metadata store.
	ErrDuplicateColumn = errors.New("column already exists")

	// ErrProtectedColumn means the caller tried to hide or remove an
	// essential column.
	ErrProtectedColumn = errors.New("column is essential and cannot be hidden or removed")

	// ErrColumnNotFound means the referenced column has no descriptor.
	ErrColumnNotFound = errors.New("column not found")
)

// SchemaError wraps a failed physical DDL statement. It is surfaced as-is:
// no retry, and metadata already applied stays applied.
type SchemaError struct {
	Op     string // "add" or "drop"
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s column %q: %v", e.Op, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
