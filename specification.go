package utest

// Specification is an ordered, immutable sequence of cases plus
// test-level handlers and a defaults table. Each case's unset handlers
// are resolved against Defaults at construction.
type Specification struct {
	Cases        []*Case
	TestSetup    TestSetupRef
	TestTeardown TestTeardownRef
	Defaults     Handlers

	resolved []resolvedCase
}

// resolvedCase caches a case's handlers resolved against the defaults
// table, computed once so Run never re-resolves mid-execution.
type resolvedCase struct {
	setup    CaseSetupHandler
	teardown CaseTeardownHandler
	failure  CaseFailureHandler
}

// SpecOption configures a Specification at construction time.
type SpecOption func(*Specification)

// WithTestSetupHandler overrides the specification's test setup handler.
func WithTestSetupHandler(ref TestSetupRef) SpecOption {
	return func(s *Specification) { s.TestSetup = ref }
}

// WithTestTeardownHandler overrides the specification's test teardown handler.
func WithTestTeardownHandler(ref TestTeardownRef) SpecOption {
	return func(s *Specification) { s.TestTeardown = ref }
}

// WithDefaults overrides the specification's defaults table (e.g. to
// VerboseContinueHandlers, GreenteaAbortHandlers, etc).
func WithDefaults(h Handlers) SpecOption {
	return func(s *Specification) { s.Defaults = h }
}

// NewSpecification builds a Specification from an ordered case list and
// resolves every case's handlers against the defaults table immediately.
func NewSpecification(cases []*Case, opts ...SpecOption) *Specification {
	s := &Specification{
		Cases:        cases,
		TestSetup:    DefaultTestSetup(),
		TestTeardown: DefaultTestTeardown(),
		Defaults:     VerboseContinueHandlers,
	}
	for _, o := range opts {
		o(s)
	}
	s.resolved = make([]resolvedCase, len(cases))
	for i, c := range cases {
		s.resolved[i] = resolvedCase{
			setup:    s.Defaults.resolveCaseSetup(c.Setup),
			teardown: s.Defaults.resolveCaseTeardown(c.Teardown),
			failure:  s.Defaults.resolveCaseFailure(c.Failure),
		}
	}
	return s
}

// Len returns the number of cases.
func (s *Specification) Len() int { return len(s.Cases) }

// resolvedTestSetup/resolvedTestTeardown resolve the test-level handler
// references against the defaults table.
func (s *Specification) resolvedTestSetup() TestSetupHandler {
	return s.Defaults.resolveTestSetup(s.TestSetup)
}

func (s *Specification) resolvedTestTeardown() TestTeardownHandler {
	return s.Defaults.resolveTestTeardown(s.TestTeardown)
}
