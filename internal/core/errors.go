package core

import (
	"errors"
	"fmt"
)

var (
	// ErrBookNotFound is returned when no row matches the requested key.
	ErrBookNotFound = errors.New("book not found")

	// ErrDuplicateISBN is returned when an insert or update would violate
	// the unique index on the isbn column.
	ErrDuplicateISBN = errors.New("duplicate isbn")

	// ErrMissingColumn is returned when a required column is empty or
	// absent. All book columns are NOT NULL.
	ErrMissingColumn = errors.New("missing required column")

	// ErrUnknownColumn is returned when an operation references a column
	// that is not part of the book table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrClosed is returned by operations on a closed client or store.
	ErrClosed = errors.New("store is closed")
)

// MissingColumnError wraps ErrMissingColumn with the column name.
func MissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

// UnknownColumnError wraps ErrUnknownColumn with the column name.
func UnknownColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
}
