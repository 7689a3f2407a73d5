package ordering

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindValidation marks missing or malformed input.
	KindValidation Kind = iota + 1
	// KindReference marks a reference to a product or user that does not exist.
	KindReference
	// KindNotFound marks an order that does not exist.
	KindNotFound
	// KindPersistence marks a document store failure.
	KindPersistence
	// KindCascade marks an order that was deleted while some of its line
	// items could not be.
	KindCascade
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindReference:
		return "reference"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindCascade:
		return "cascade"
	default:
		return "unknown"
	}
}

// Error is the single failure type surfaced by the workflow.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// Failed lists line item ids left behind by a cascade delete.
	Failed []string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, treating foreign errors as persistence
// failures.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindPersistence
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func referenceError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindReference, Msg: fmt.Sprintf(format, args...)}
}

func persistenceError(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPersistence, Msg: fmt.Sprintf(format, args...), Err: err}
}
