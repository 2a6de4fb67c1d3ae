package utest

import (
	"testing"
	"time"

	"github.com/ARMmbed/utest-go/scheduler"
	"github.com/stretchr/testify/require"
)

// postCountingScheduler wraps a real scheduler.Loop and counts Post
// calls, for asserting that each case-body repeat is driven by a
// separate posted callback rather than direct recursion.
type postCountingScheduler struct {
	inner scheduler.Scheduler
	posts int
}

func newPostCountingScheduler() *postCountingScheduler {
	return &postCountingScheduler{inner: scheduler.New()}
}

func (s *postCountingScheduler) Init() error { return s.inner.Init() }
func (s *postCountingScheduler) Post(task scheduler.Task, delay time.Duration) (scheduler.Handle, error) {
	s.posts++
	return s.inner.Post(task, delay)
}
func (s *postCountingScheduler) Cancel(h scheduler.Handle) error { return s.inner.Cancel(h) }
func (s *postCountingScheduler) Run() error                      { return s.inner.Run() }
func (s *postCountingScheduler) Stop()                           { s.inner.Stop() }

func TestHarness_FailContinuesCase(t *testing.T) {
	var h *Harness
	var secondCallCount uint32
	c := NewCase("assert-continue", func(callCount uint32) Control {
		secondCallCount = callCount
		if callCount == 1 {
			status := h.Fail(ReasonUnknown)
			require.Equal(t, StatusContinue, status)
			return Repeat(RepeatHandlerOnly)
		}
		return Next()
	})
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))
	h = NewHarness()
	require.NoError(t, h.Run(spec))

	require.Equal(t, uint32(2), secondCallCount)
	require.True(t, capture.failure.Reason.Has(ReasonAssertion))
	require.True(t, capture.failure.Reason.Has(ReasonUnknown))
	require.Equal(t, LocationCaseHandler, capture.failure.Location)
}

func TestHarness_FailAbortsCase(t *testing.T) {
	var h *Harness
	abortingHandlers := func() Handlers {
		d := silentDefaults()
		d.CaseFailure = func(c *Case, f Failure) Status { return StatusAbort }
		return d
	}()
	var bodyRanTwice bool
	c := NewCase("assert-abort", func(callCount uint32) Control {
		if callCount > 1 {
			bodyRanTwice = true
		}
		h.Fail(ReasonUnknown)
		return Repeat(RepeatHandlerOnly)
	})
	capture := &teardownCapture{}
	d := abortingHandlers
	d.TestTeardown = func(passed, failed int, failure Failure) {
		capture.passed, capture.failed, capture.failure, capture.called = passed, failed, failure, true
	}
	spec := NewSpecification([]*Case{c}, WithDefaults(d))
	h = NewHarness()
	require.NoError(t, h.Run(spec))

	require.False(t, bodyRanTwice, "StatusAbort from the failure handler must jump straight to teardown")
	require.True(t, capture.failure.Reason.Has(ReasonAssertion))
}

func TestHarness_RepeatHandlerOnlyPostsEachContinuation(t *testing.T) {
	const n = 5
	var casePassed int
	c := NewCase("repeat-handler-only-posted", func(callCount uint32) Control {
		if callCount < n {
			return Repeat(RepeatHandlerOnly)
		}
		return Next()
	}, WithCaseTeardownHandler(WithCaseTeardown(func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
		casePassed = passed
		return defaultTeardownResult()
	})))
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	h := NewHarness()
	sched := newPostCountingScheduler()
	require.NoError(t, h.Run(spec, WithScheduler(sched)))

	require.Equal(t, n, casePassed)
	// one post for the initial case entry, one per repeat (n-1), and one
	// to advance to the next (nonexistent) case from caseTeardown: each
	// continuation is a posted callback, never a direct recursive call.
	require.Equal(t, n+1, sched.posts)
}

func TestHarness_RepeatAllPostsEachContinuation(t *testing.T) {
	const n = 4
	var setupCalls int
	c := NewCase("repeat-all-posted", func(callCount uint32) Control {
		if callCount < n {
			return Repeat(RepeatAll)
		}
		return Next()
	}, WithCaseSetupHandler(WithCaseSetup(func(c *Case, i int) Status {
		setupCalls++
		return StatusContinue
	})))
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	h := NewHarness()
	sched := newPostCountingScheduler()
	require.NoError(t, h.Run(spec, WithScheduler(sched)))

	require.Equal(t, n, setupCalls)
	require.Equal(t, n+1, sched.posts)
}

func TestHarness_IgnoredFailureDoesNotCountAsTestFailure(t *testing.T) {
	var h *Harness
	ignoring := silentDefaults()
	ignoring.CaseFailure = func(c *Case, f Failure) Status { return StatusIgnore }
	c := NewCase("ignored", func() {
		h.Fail(ReasonUnknown)
	})
	capture := &teardownCapture{}
	d := ignoring
	d.TestTeardown = func(passed, failed int, failure Failure) {
		capture.passed, capture.failed, capture.failure, capture.called = passed, failed, failure, true
	}
	spec := NewSpecification([]*Case{c}, WithDefaults(d))
	h = NewHarness()
	require.NoError(t, h.Run(spec))

	require.True(t, capture.failure.Ignored())
	require.Equal(t, 1, capture.passed, "an ignored failure still counts its case as passed at test level")
	require.Equal(t, 0, capture.failed)
}
