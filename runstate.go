package utest

import "github.com/ARMmbed/utest-go/scheduler"

// Phase is the case runner's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTestSetup
	PhaseCaseSetup
	PhaseCaseBody
	PhaseAwaiting
	PhaseCaseTeardown
	PhaseTestTeardown
	PhaseAborted
	PhaseDone
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTestSetup:
		return "test_setup"
	case PhaseCaseSetup:
		return "case_setup"
	case PhaseCaseBody:
		return "case_body"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseCaseTeardown:
		return "case_teardown"
	case PhaseTestTeardown:
		return "test_teardown"
	case PhaseAborted:
		return "aborted"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// runState is the single-instance record for the duration of one Run
// call. It is mutated only from the scheduler's goroutine.
type runState struct {
	spec *Specification

	caseIndex int

	// curCase/curResolved cache the case currently in flight, set at case
	// setup entry and held until its teardown completes.
	curCase     *Case
	curResolved resolvedCase

	// awaitingControl is the Control that caused entry into PhaseAwaiting,
	// consulted by both validate-driven and timeout-driven completion.
	awaitingControl Control

	casePassed int
	caseFailed int

	testPassed int
	testFailed int

	callCount uint32

	pendingTimeoutHandle scheduler.Handle
	hasPendingTimeout    bool

	expectedValidations int
	validatedSoFar      int

	// premature validation credit: validations received while not in
	// PhaseAwaiting, to be offset against expectedValidations on the
	// next await.
	prematureCredit int

	controlOverride    Control
	hasControlOverride bool

	// iterationFailed tracks whether raiseFailureInternal was called
	// during the iteration currently in flight, reset at each body
	// invocation.
	iterationFailed bool

	currentFailure Failure
	phase          Phase

	// terminalFailure is the failure the whole run terminates with
	// (surfaced to TestTeardown); ReasonNone on a clean completion.
	terminalFailure Failure
}

// resetCaseTallies resets per-case counters, e.g. at case setup or at a
// RepeatAll re-entry.
func (rs *runState) resetCaseTallies() {
	rs.casePassed = 0
	rs.caseFailed = 0
	rs.currentFailure = Failure{}
}
