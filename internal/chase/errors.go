package chase

import (
	"errors"
	"fmt"
)

var (
	// ErrDomainViolation indicates integration produced a non-finite position or velocity.
	ErrDomainViolation = errors.New("chase: non-finite entity state")

	// ErrConfiguration indicates scenario parameters that cannot be satisfied.
	ErrConfiguration = errors.New("chase: invalid scenario configuration")

	// ErrIndex indicates an agent or entity ID outside the roster.
	ErrIndex = errors.New("chase: entity id out of range")

	// ErrDimensionMismatch indicates actions or state that do not match the roster.
	ErrDimensionMismatch = errors.New("chase: dimension mismatch between input and roster")
)

// StepError carries the tick and entity at which a step failed.
type StepError struct {
	Tick     int
	EntityID int
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("tick %d (entity %d): %v", e.Tick, e.EntityID, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
