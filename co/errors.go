package co

import (
	"errors"
	"fmt"
)

var (
	ErrDeadParent      = errors.New("cannot start child routine on dead parent")
	ErrDeadRoutine     = errors.New("cannot enable updates on dead routine")
	ErrAlreadyAttached = errors.New("routine is already attached")
	ErrKilled          = errors.New("routine was already killed")
	ErrInvalidYield    = errors.New("invalid yield value")
)

// UsageError reports caller misuse. It is raised with panic and never
// swallowed by hook guards.
type UsageError struct {
	Op      string
	Routine *Routine
	Err     error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("co: %s %s: %v", e.Op, e.Routine, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func misuse(op string, r *Routine, err error) {
	panic(&UsageError{Op: op, Routine: r, Err: err})
}

// HookError wraps an error returned, or a panic raised, by a behaviour hook.
type HookError struct {
	Hook    string
	Routine *Routine
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("co: %s hook of %s: %v", e.Hook, e.Routine, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives every fault the scheduler contains: hook errors,
// recovered hook panics and invalid yields.
type ErrorHandler func(r *Routine, err error)
