package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStep is returned for a step index outside 0..6
	ErrInvalidStep = errors.New("invalid step")
)

// ValidationError reports the first unmet requirement of a step
type ValidationError struct {
	Step    StepKind
	Message string
}

// Error implements error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Step.Index(), e.Step, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(step StepKind, message string) *ValidationError {
	return &ValidationError{Step: step, Message: message}
}
