package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrIndexAccess     = errors.New("index access failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownStrategy = errors.New("unknown search strategy")
	ErrUnknownWeight   = errors.New("unknown weighting function")
	ErrTimeout         = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// InvalidArgument reports a malformed search request.
func InvalidArgument(format string, args ...any) *AppError {
	return Newf(ErrInvalidArgument, http.StatusBadRequest, format, args...)
}

// IndexAccessError records a failed call into a posting source or a
// weighting function that queried it. errors.Is matches ErrIndexAccess.
type IndexAccessError struct {
	Op    string
	Field string
	Term  string
	Err   error
}

func (e *IndexAccessError) Error() string {
	if e.Term == "" {
		return fmt.Sprintf("index access: %s field %q: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("index access: %s %s:%s: %v", e.Op, e.Field, e.Term, e.Err)
}

func (e *IndexAccessError) Unwrap() error {
	return e.Err
}

func (e *IndexAccessError) Is(target error) bool {
	return target == ErrIndexAccess
}

// IndexAccess wraps err as an IndexAccessError. Errors that already carry
// ErrIndexAccess are returned unchanged so the innermost operation is kept.
func IndexAccess(op, field, term string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIndexAccess) {
		return err
	}
	return &IndexAccessError{Op: op, Field: field, Term: term, Err: err}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrUnknownStrategy), errors.Is(err, ErrUnknownWeight):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrIndexAccess):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
