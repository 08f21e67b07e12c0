package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNilEntity is returned when a nil entity is passed to a write.
	ErrNilEntity = errors.New("entity must not be nil")

	// ErrInvalidPage is returned for a page index or size below one.
	ErrInvalidPage = errors.New("page index and page size must be greater than zero")

	// ErrInvalidField is returned when a filter or sort names a field that
	// is not a plain identifier.
	ErrInvalidField = errors.New("invalid field name")

	// ErrInvalidFilter is returned for malformed filter values, such as a
	// non-slice operand for In.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrStale is returned when an update matches no stored entity, meaning
	// it was deleted or its key changed since it was read. It classifies as
	// ErrorConcurrency.
	ErrStale = errors.New("update matched no stored entity")

	// ErrNoID is returned when an entity's key cannot be determined.
	ErrNoID = errors.New("entity has no identifier")

	// ErrClosed is returned by a unit of work after Close.
	ErrClosed = errors.New("unit of work is closed")

	// ErrNotRegistered is returned by Manager.Get for an unknown name.
	ErrNotRegistered = errors.New("no unit of work registered")

	// ErrReadOnly is returned by ReadOnly for writes while read-only mode
	// is active.
	ErrReadOnly = errors.New("operation denied: application is in read-only mode for data consistency")
)

// ErrorType classifies a backend failure.
type ErrorType int

const (
	ErrorUnknown ErrorType = iota
	ErrorAdd
	ErrorUpdate
	ErrorDelete
	ErrorQuery
	ErrorSaveChanges
	ErrorConcurrency
	ErrorConstraintViolation
)

func (t ErrorType) String() string {
	switch t {
	case ErrorAdd:
		return "add"
	case ErrorUpdate:
		return "update"
	case ErrorDelete:
		return "delete"
	case ErrorQuery:
		return "query"
	case ErrorSaveChanges:
		return "save changes"
	case ErrorConcurrency:
		return "concurrency"
	case ErrorConstraintViolation:
		return "constraint violation"
	default:
		return "unknown"
	}
}

// Error wraps a failure raised by a backend library.
type Error struct {
	Type ErrorType
	// Entity is the Go type name of the entity involved.
	Entity string
	// Operation is the repository method that failed, e.g. "AddRange".
	Operation string
	Err       error
}

// NewError builds an Error. It returns nil when err is nil.
func NewError(t ErrorType, entity, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Type: t, Entity: entity, Operation: operation, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("repository %s %s failed (%s)", e.Operation, e.Entity, e.Type)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TypeOf reports the ErrorType of the first *Error in err's chain, or
// ErrorUnknown.
func TypeOf(err error) ErrorType {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Type
	}
	return ErrorUnknown
}

// IsConcurrency reports whether err is a concurrency conflict.
func IsConcurrency(err error) bool {
	return TypeOf(err) == ErrorConcurrency
}

// IsConstraintViolation reports whether err is a constraint violation.
func IsConstraintViolation(err error) bool {
	return TypeOf(err) == ErrorConstraintViolation
}

func invalidPage(pageIndex, pageSize int) error {
	return fmt.Errorf("%w: page %d, size %d", ErrInvalidPage, pageIndex, pageSize)
}
