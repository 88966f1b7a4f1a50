package table

import (
	"errors"
	"fmt"
)

// Sentinel errors for table construction and lookup.
var (
	// ErrColumnNotFound indicates a lookup of a column the table does not have.
	ErrColumnNotFound = errors.New("column not found")

	// ErrLengthMismatch indicates columns of different lengths in one table.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrMixedKinds indicates a column holding values of incompatible kinds.
	ErrMixedKinds = errors.New("mixed column kinds")

	// ErrDuplicateColumn indicates two columns with the same name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrUnsupportedValue indicates a cell value that is not a scalar.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// ColumnError reports a missing column together with the columns that exist.
type ColumnError struct {
	// Column is the requested column name.
	Column string

	// Available lists the table's column names in order.
	Available []string

	// Hint is an optional suggestion appended to the message.
	Hint string
}

// Error returns the message naming the column and the available ones.
func (e *ColumnError) Error() string {
	msg := fmt.Sprintf("Column '%s' not in table. Available: %v", e.Column, e.Available)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// Unwrap returns ErrColumnNotFound.
func (e *ColumnError) Unwrap() error {
	return ErrColumnNotFound
}

func (t *Table) missing(name string) error {
	return &ColumnError{Column: name, Available: t.Names()}
}
