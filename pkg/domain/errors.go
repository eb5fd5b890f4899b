package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReceiver is returned when a call names a capability that is not registered.
	ErrUnknownReceiver = errors.New("unknown receiver")

	// ErrUnknownOperation is returned when a capability does not expose the named operation.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrArity is returned when an operation receives the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrInvalidArgument is returned when an argument has an unusable type or value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyRunning is returned by Start when the loop is already running.
	ErrAlreadyRunning = errors.New("interaction loop already running")

	// ErrNotRunning is returned when an operation needs a running loop.
	ErrNotRunning = errors.New("interaction loop not running")
)

// ParseError describes a rule block that was dropped while parsing.
type ParseError struct {
	Block  int    // zero-based position of the block in the source
	Source string // raw text of the block
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rule %d %q: %v", e.Block, e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EvaluationError describes a failure evaluating a single expression.
type EvaluationError struct {
	Expr Expression
	Err  error
}

func (e *EvaluationError) Error() string {
	if e.Expr == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("evaluate %s: %v", e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
