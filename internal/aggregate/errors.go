package aggregate

import (
	"errors"
	"fmt"
)

// ErrUnresolved indicates that a record referenced an entity the backend did
// not return. It is a consistency fault, reported to clients as Internal.
var ErrUnresolved = errors.New("UNRESOLVED_REFERENCE")

// JoinError describes the reference that failed to resolve.
type JoinError struct {
	Entity   string // Referencing record kind, e.g. "source"
	EntityID string
	Ref      string // Referenced kind, e.g. "user"
	RefID    string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%v: %s %q references %s %q which the backend did not return",
		ErrUnresolved, e.Entity, e.EntityID, e.Ref, e.RefID)
}

func (e *JoinError) Unwrap() error {
	return ErrUnresolved
}

// StepError identifies the pipeline step that failed.
type StepError struct {
	Pipeline string
	Step     int
	Method   string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %d (%s): %v", e.Pipeline, e.Step, e.Method, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
