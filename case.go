package utest

// bodyKind tags which shape of body a Case carries.
type bodyKind int

const (
	bodyIgnore bodyKind = iota
	bodyPlain
	bodyControl
)

// Case is an immutable, named test unit: a description, a body (plain or
// control-returning, or the ignore sentinel), and setup/teardown/failure
// handler references resolved against a Specification's defaults table
// at run start.
//
// DefaultTimeoutMs is -1 for a synchronous case (no asynchronous await
// permitted) or >= 0 for an async-capable case.
type Case struct {
	Description string

	kind        bodyKind
	plainBody   CaseBodyHandler
	controlBody CaseControlBodyHandler

	Setup    CaseSetupRef
	Teardown CaseTeardownRef
	Failure  CaseFailureRef

	DefaultTimeoutMs int32
}

// IsEmpty reports whether this case's body is the ignore sentinel: it is
// classified EmptyCase at setup and proceeds directly to teardown.
func (c *Case) IsEmpty() bool { return c.kind == bodyIgnore }

// IsAsync reports whether the case may legally enter Awaiting.
func (c *Case) IsAsync() bool { return c.DefaultTimeoutMs >= 0 }

// NewCase builds a synchronous case (DefaultTimeoutMs = -1) running once
// per the body's return-on-body-kind rule. Passing a nil body marks the
// case as empty (the ignore sentinel).
func NewCase(description string, body any, opts ...CaseOption) *Case {
	c := &Case{
		Description:      description,
		DefaultTimeoutMs: -1,
		Setup:            DefaultCaseSetup(),
		Teardown:         DefaultCaseTeardown(),
		Failure:          DefaultCaseFailure(),
	}
	setCaseBody(c, body)
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewAsyncCase builds an async-capable case with the given default
// timeout, mirroring the source's AsyncCase convenience constructor.
func NewAsyncCase(description string, body any, timeoutMs uint32, opts ...CaseOption) *Case {
	c := NewCase(description, body, opts...)
	c.DefaultTimeoutMs = int32(timeoutMs)
	return c
}

func setCaseBody(c *Case, body any) {
	switch fn := body.(type) {
	case nil:
		c.kind = bodyIgnore
	case CaseBodyHandler:
		c.kind = bodyPlain
		c.plainBody = fn
	case func():
		c.kind = bodyPlain
		c.plainBody = fn
	case CaseControlBodyHandler:
		c.kind = bodyControl
		c.controlBody = fn
	case func(uint32) Control:
		c.kind = bodyControl
		c.controlBody = fn
	default:
		panic("utest: NewCase body must be nil, func(), or func(uint32) Control")
	}
}

// CaseOption configures a Case at construction time.
type CaseOption func(*Case)

// WithCaseSetupHandler overrides the case's setup handler reference.
func WithCaseSetupHandler(ref CaseSetupRef) CaseOption {
	return func(c *Case) { c.Setup = ref }
}

// WithCaseTeardownHandler overrides the case's teardown handler reference.
func WithCaseTeardownHandler(ref CaseTeardownRef) CaseOption {
	return func(c *Case) { c.Teardown = ref }
}

// WithCaseFailureHandler overrides the case's failure handler reference.
func WithCaseFailureHandler(ref CaseFailureRef) CaseOption {
	return func(c *Case) { c.Failure = ref }
}
