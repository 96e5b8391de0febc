package models

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural marks an extracted table whose shape cannot be used.
	ErrStructural = errors.New("unexpected table structure")
	// ErrParse marks a source document that cannot be parsed as a table.
	ErrParse = errors.New("malformed pdf")
	// ErrMetadataNotFound marks a document whose pages lack the marker line.
	ErrMetadataNotFound = errors.New("metadata line not found")
	// ErrTransport marks a network or storage failure.
	ErrTransport = errors.New("transport failure")
	// ErrNotFound marks a missing blob.
	ErrNotFound = errors.New("not found")
)

// StructuralError reports a column missing after transposition.
type StructuralError struct {
	Column string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%v: %q column is missing", ErrStructural, e.Column)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }
