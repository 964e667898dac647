package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflictOnMatch is returned when a name-based match is ambiguous.
	ErrConflictOnMatch = errors.New("ambiguous match")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	// ErrReadOnlyMode is returned by write operations in demo mode.
	ErrReadOnlyMode = errors.New("read-only mode")
)

const (
	KindDatabase = "database"
	KindTable    = "table"
	KindField    = "field"
	KindLink     = "link"
)

// EntityError pins a failure to one submitted entity. Index is the
// position in the submitted list; for fields TableIndex is the position of
// the owning table.
type EntityError struct {
	Kind       string
	Index      int
	TableIndex int
	Err        error
}

func (e *EntityError) Error() string {
	if e.Kind == KindField {
		return fmt.Sprintf("%s %d of table %d: %v", e.Kind, e.Index, e.TableIndex, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
