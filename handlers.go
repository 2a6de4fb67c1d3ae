package utest

// Handler function shapes invoked at each harness lifecycle point.
type (
	// TestSetupHandler is invoked once before the first case. Returning
	// StatusAbort fails the whole run with ReasonTestSetup.
	TestSetupHandler func(numberOfCases int) Status

	// TestTeardownHandler is invoked once after the last case (or on
	// abort) with the cumulative pass/fail tallies and the failure that
	// triggered teardown (ReasonNone if the run completed cleanly).
	TestTeardownHandler func(passed, failed int, failure Failure)

	// CaseSetupHandler is invoked before each case's body. Returning
	// StatusAbort skips to CaseTeardown with ReasonCaseSetup.
	CaseSetupHandler func(c *Case, indexOfCase int) Status

	// CaseTeardownHandler is invoked exactly once per case after its body
	// (and any repeats/awaits) complete. The returned CaseTeardownResult
	// may select the next case via a relative index jump.
	CaseTeardownHandler func(c *Case, passed, failed int, failure Failure) CaseTeardownResult

	// CaseFailureHandler is invoked whenever a failure is raised during a
	// case. Its Status decides in-case recovery: StatusContinue keeps
	// running the case, StatusAbort jumps to CaseTeardown, StatusIgnore
	// treats the failure as non-fatal (but still classified).
	CaseFailureHandler func(c *Case, failure Failure) Status

	// CaseBodyHandler is a plain case body, run exactly once (treated as
	// implicit Control Next()).
	CaseBodyHandler func()

	// CaseControlBodyHandler is a repeatable case body. callCount starts
	// at 1 and increments on every invocation of this case (including
	// repeats).
	CaseControlBodyHandler func(callCount uint32) Control
)

// CaseTeardownResult is returned by a CaseTeardownHandler.
type CaseTeardownResult struct {
	// Status: StatusAbort indicates teardown itself failed
	// (ReasonCaseTeardown is merged and the run aborts after this case).
	Status Status
	// NextIndexDelta is a signed relative jump to the next case index:
	// +1 = next (what defaultTeardownResult and an ignored teardown
	// handler use), +2 = skip one, 0 = repeat the current case; the zero
	// value CaseTeardownResult therefore repeats the current case. An
	// out-of-range jump terminates the run.
	NextIndexDelta int
}

// defaultTeardownResult is what an unset/default teardown handler
// effectively returns: continue, advance by one.
func defaultTeardownResult() CaseTeardownResult {
	return CaseTeardownResult{Status: StatusContinue, NextIndexDelta: 1}
}

// handlerKind tags a handler reference (the *Ref types below), replacing
// the source's implicit null/sentinel-pointer trick with an explicit
// tagged union: Default ("use the specification's defaults table"),
// Ignore ("skip this step entirely"), or a concrete Func.
type handlerKind int

const (
	handlerDefault handlerKind = iota
	handlerIgnore
	handlerFunc
)

// TestSetupRef, TestTeardownRef, etc. are the five handler-reference
// types used by Case/Specification construction. Each wraps one handler
// shape plus its kind tag.
type TestSetupRef struct {
	kind handlerKind
	fn   TestSetupHandler
}

type TestTeardownRef struct {
	kind handlerKind
	fn   TestTeardownHandler
}

type CaseSetupRef struct {
	kind handlerKind
	fn   CaseSetupHandler
}

type CaseTeardownRef struct {
	kind handlerKind
	fn   CaseTeardownHandler
}

type CaseFailureRef struct {
	kind handlerKind
	fn   CaseFailureHandler
}

// DefaultTestSetup, DefaultTestTeardown, DefaultCaseSetup,
// DefaultCaseTeardown and DefaultCaseFailure return the "use the
// defaults table" sentinel for each of the five handler reference types.
func DefaultTestSetup() TestSetupRef       { return TestSetupRef{kind: handlerDefault} }
func DefaultTestTeardown() TestTeardownRef { return TestTeardownRef{kind: handlerDefault} }
func DefaultCaseSetup() CaseSetupRef       { return CaseSetupRef{kind: handlerDefault} }
func DefaultCaseTeardown() CaseTeardownRef { return CaseTeardownRef{kind: handlerDefault} }
func DefaultCaseFailure() CaseFailureRef   { return CaseFailureRef{kind: handlerDefault} }

// IgnoreTestSetup, IgnoreTestTeardown, IgnoreCaseSetup,
// IgnoreCaseTeardown and IgnoreCaseFailure return the "no-op, skip this
// step" sentinel for each of the five handler reference types.
func IgnoreTestSetup() TestSetupRef       { return TestSetupRef{kind: handlerIgnore} }
func IgnoreTestTeardown() TestTeardownRef { return TestTeardownRef{kind: handlerIgnore} }
func IgnoreCaseSetup() CaseSetupRef       { return CaseSetupRef{kind: handlerIgnore} }
func IgnoreCaseTeardown() CaseTeardownRef { return CaseTeardownRef{kind: handlerIgnore} }
func IgnoreCaseFailure() CaseFailureRef   { return CaseFailureRef{kind: handlerIgnore} }

// WithTestSetup wraps a concrete TestSetupHandler.
func WithTestSetup(fn TestSetupHandler) TestSetupRef { return TestSetupRef{kind: handlerFunc, fn: fn} }

// WithTestTeardown wraps a concrete TestTeardownHandler.
func WithTestTeardown(fn TestTeardownHandler) TestTeardownRef {
	return TestTeardownRef{kind: handlerFunc, fn: fn}
}

// WithCaseSetup wraps a concrete CaseSetupHandler.
func WithCaseSetup(fn CaseSetupHandler) CaseSetupRef { return CaseSetupRef{kind: handlerFunc, fn: fn} }

// WithCaseTeardown wraps a concrete CaseTeardownHandler.
func WithCaseTeardown(fn CaseTeardownHandler) CaseTeardownRef {
	return CaseTeardownRef{kind: handlerFunc, fn: fn}
}

// WithCaseFailure wraps a concrete CaseFailureHandler.
func WithCaseFailure(fn CaseFailureHandler) CaseFailureRef {
	return CaseFailureRef{kind: handlerFunc, fn: fn}
}

// Handlers is the defaults table: five callbacks resolved against
// whenever a Case leaves a handler unset (handlerDefault).
type Handlers struct {
	TestSetup    TestSetupHandler
	TestTeardown TestTeardownHandler
	CaseSetup    CaseSetupHandler
	CaseTeardown CaseTeardownHandler
	CaseFailure  CaseFailureHandler
}

// resolveTestSetup resolves ref against the defaults table, returning
// nil for an Ignore reference (meaning "skip this step entirely").
func (h Handlers) resolveTestSetup(ref TestSetupRef) TestSetupHandler {
	switch ref.kind {
	case handlerIgnore:
		return nil
	case handlerFunc:
		return ref.fn
	default:
		return h.TestSetup
	}
}

func (h Handlers) resolveTestTeardown(ref TestTeardownRef) TestTeardownHandler {
	switch ref.kind {
	case handlerIgnore:
		return nil
	case handlerFunc:
		return ref.fn
	default:
		return h.TestTeardown
	}
}

func (h Handlers) resolveCaseSetup(ref CaseSetupRef) CaseSetupHandler {
	switch ref.kind {
	case handlerIgnore:
		return nil
	case handlerFunc:
		return ref.fn
	default:
		return h.CaseSetup
	}
}

func (h Handlers) resolveCaseTeardown(ref CaseTeardownRef) CaseTeardownHandler {
	switch ref.kind {
	case handlerIgnore:
		return nil
	case handlerFunc:
		return ref.fn
	default:
		return h.CaseTeardown
	}
}

func (h Handlers) resolveCaseFailure(ref CaseFailureRef) CaseFailureHandler {
	switch ref.kind {
	case handlerIgnore:
		return nil
	case handlerFunc:
		return ref.fn
	default:
		return h.CaseFailure
	}
}
