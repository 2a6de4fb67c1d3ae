package utest

import (
	"errors"
	"fmt"
)

// Standard errors returned by Harness.Run and its collaborators.
var (
	// ErrHarnessBusy is returned by Run when a run is already in progress.
	ErrHarnessBusy = errors.New("utest: harness is already running")

	// ErrNoSpecification is returned by Run when the specification has no cases.
	ErrNoSpecification = errors.New("utest: specification has no cases")

	// ErrSchedulerInit is returned when the scheduler fails to initialize.
	ErrSchedulerInit = errors.New("utest: scheduler initialization failed")

	// ErrContradiction is returned when a Control combines incompatible
	// repeat/timeout modifiers (e.g. Immediate + Await).
	ErrContradiction = errors.New("utest: contradictory control value")
)

// WrapError wraps cause with a message, preserving it for errors.Is/errors.As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
