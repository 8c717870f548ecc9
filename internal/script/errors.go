package script

import (
	"errors"
	"fmt"
)

// Errors returned by script loading and playback.
var (
	// ErrEmptyScript is returned when the input holds no document.
	ErrEmptyScript = errors.New("empty script")

	// ErrInvalidStep is returned when a step holds no action, more than
	// one, or bad arguments.
	ErrInvalidStep = errors.New("invalid step")

	// ErrExpectation is returned when an expect step does not match.
	ErrExpectation = errors.New("expectation failed")

	// ErrNoLua is returned by a lua step when no Lua registry is set.
	ErrNoLua = errors.New("no lua registry")
)

// StepError reports the step that failed. Index is 0-based within its
// list; nested group failures wrap another StepError.
type StepError struct {
	Index int
	Kind  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("step %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
