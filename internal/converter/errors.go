package converter

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound indicates the source file is missing or unreadable.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedRow indicates a row that cannot be parsed, such as a quoted
	// field left open at end of file.
	ErrMalformedRow = errors.New("malformed row")

	// ErrDestinationUnwritable indicates the destination could not be written.
	ErrDestinationUnwritable = errors.New("destination unwritable")
)

// Error records a failed conversion step. It matches both its Kind sentinel
// and the underlying cause with errors.Is.
type Error struct {
	Op   string // "read", "parse" or "write"
	Path string
	Line int // source line, 0 when not applicable
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s %s: line %d: %v: %v", e.Op, e.Path, e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func sourceError(path string, err error) *Error {
	return &Error{Op: "read", Path: path, Kind: ErrSourceNotFound, Err: err}
}

func rowError(path string, line int, err error) *Error {
	return &Error{Op: "parse", Path: path, Line: line, Kind: ErrMalformedRow, Err: err}
}

func destinationError(path string, err error) *Error {
	return &Error{Op: "write", Path: path, Kind: ErrDestinationUnwritable, Err: err}
}
