package artifact

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the core unwraps to exactly one of
// these, so callers branch with errors.Is.
var (
	// ErrValidation marks malformed input: bad ID format, unknown status,
	// illegal status transition.
	ErrValidation = errors.New("validation error")
	// ErrSecurity marks unsafe input that could escape the .arch/ tree.
	// It is never coerced into a valid value.
	ErrSecurity = errors.New("security error")
	// ErrNotFound marks a referenced artifact that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks an unexpected filesystem failure.
	ErrStorage = errors.New("storage error")
	// ErrSerialization marks a corrupt artifact file.
	ErrSerialization = errors.New("serialization error")
)

// Error carries the kind, the failing operation and the artifact ID.
type Error struct {
	Kind error
	Op   string
	ID   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NotFound builds an ErrNotFound error for the artifact ID.
func NotFound(op, id string) error {
	return &Error{Kind: ErrNotFound, Op: op, ID: id, Err: fmt.Errorf("artifact %q not found", id)}
}

// KindOf returns the taxonomy kind of err, or nil if err is not one of ours.
func KindOf(err error) error {
	for _, k := range []error{ErrSecurity, ErrValidation, ErrNotFound, ErrSerialization, ErrStorage} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
