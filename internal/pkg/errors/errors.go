package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrInvalidArgument is a validation failure on a scalar argument.
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", ErrValidation)
	// ErrStorage marks an I/O failure of the photo byte store. Retryable.
	ErrStorage = errors.New("storage error")
	// ErrPermission marks an ownership mismatch.
	ErrPermission = errors.New("permission denied")
	// ErrConcurrencyConflict marks lock or version contention on a per-user update.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Error carries the failed operation alongside one of the sentinels above.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprint(e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Op: op, Err: fmt.Errorf(format, args...)}
}

func InvalidArgument(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

func Storage(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}

func Permission(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrPermission, Op: op, Err: fmt.Errorf(format, args...)}
}

func Conflict(op string, err error) error {
	return &Error{Kind: ErrConcurrencyConflict, Op: op, Err: err}
}

// IsRetryable reports whether the caller may retry the whole operation after backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrConcurrencyConflict)
}
