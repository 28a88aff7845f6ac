package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a point lookup by primary key finds nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConstraintViolation is returned when a write collides with a unique index.
	// The enclosing transaction is rolled back.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable is returned when the database file cannot be opened or
	// a transaction cannot commit for environmental reasons. Safe to retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnknownIndex is returned when a query names an index the collection does not declare.
	ErrUnknownIndex = errors.New("unknown index")
)

// ValidationError reports caller-supplied data that fails a repository rule.
// It is raised before the engine is called.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError is a shorthand used by the repositories.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// translateError maps gorm and sqlite errors onto the package sentinels.
// Errors that already carry a sentinel are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		switch sqliteErr.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr,
			sqlite3.ErrFull, sqlite3.ErrReadonly, sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrPerm:
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return err
}
