package backend

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Normalized backend errors. Every failed call is reported as one of these.
var (
	ErrInvalidArgument = errors.New("INVALID_ARGUMENT")
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrUnauthenticated = errors.New("UNAUTHENTICATED")
	ErrUnavailable     = errors.New("UNAVAILABLE")
	ErrInternal        = errors.New("INTERNAL")

	// ErrIncomplete marks a successful response that omitted a field the
	// gateway's contract requires.
	ErrIncomplete = errors.New("INCOMPLETE")
)

// StatusMapping is the deterministic gRPC code table. Codes that are not
// listed map to ErrInternal.
var StatusMapping = map[codes.Code]error{
	codes.InvalidArgument:    ErrInvalidArgument,
	codes.FailedPrecondition: ErrInvalidArgument,
	codes.AlreadyExists:      ErrInvalidArgument,
	codes.OutOfRange:         ErrInvalidArgument,
	codes.NotFound:           ErrNotFound,
	codes.Unauthenticated:    ErrUnauthenticated,
	codes.PermissionDenied:   ErrUnauthenticated,
	codes.Unavailable:        ErrUnavailable,
	codes.DeadlineExceeded:   ErrUnavailable,
	codes.Canceled:           ErrUnavailable,
}

// CallError wraps a failed backend call with the original status for logs.
type CallError struct {
	Code   error // Normalized code
	Method string
	Status *status.Status
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%v (%s: %s: %s)", e.Code, e.Method, e.Status.Code(), e.Status.Message())
}

func (e *CallError) Unwrap() error {
	return e.Code
}

// Normalize maps the error returned by a backend call to a *CallError.
func Normalize(method string, err error) error {
	if err == nil {
		return nil
	}

	var callErr *CallError
	if errors.As(err, &callErr) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		st = status.FromContextError(err)
	}

	code, known := StatusMapping[st.Code()]
	if !known {
		code = ErrInternal
	}

	return &CallError{
		Code:   code,
		Method: method,
		Status: st,
	}
}

// ContractError reports a backend response that lacks a required field.
type ContractError struct {
	Method string
	Field  string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%v: %s response omitted %s", ErrIncomplete, e.Method, e.Field)
}

func (e *ContractError) Unwrap() error {
	return ErrIncomplete
}

// Require dereferences a field the gateway cannot do without.
func Require[T any](v *T, method, field string) (T, error) {
	if v == nil {
		var zero T
		return zero, &ContractError{Method: method, Field: field}
	}
	return *v, nil
}

// String returns a pointer to s, for populating optional request fields.
func String(s string) *string {
	return &s
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
