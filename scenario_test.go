package utest

import (
	"bytes"
	"testing"
	"time"

	"github.com/ARMmbed/utest-go/reporter"
	"github.com/stretchr/testify/require"
)

// Literal end-to-end scenarios and the named invariants from the
// harness's testable-properties section, each checked directly against
// a running Harness rather than against individual mechanics.

func TestScenario_BasicRepeatSixInvocations(t *testing.T) {
	var callCounts []uint32
	c := NewCase("repeat", func(k uint32) Control {
		callCounts = append(callCounts, k)
		if k <= 5 {
			return Repeat(RepeatHandlerOnly)
		}
		return Next()
	})
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	h := NewHarness()
	require.NoError(t, h.Run(spec))

	require.Equal(t, []uint32{1, 2, 3, 4, 5, 6}, callCounts)
	require.Equal(t, 1, capture.passed)
	require.Equal(t, 0, capture.failed)
}

func TestScenario_AsyncSuccessValidatesBeforeTimeout(t *testing.T) {
	h := NewHarness()
	c := NewAsyncCase("async", func(callCount uint32) Control {
		go func() {
			time.Sleep(100 * time.Millisecond)
			h.Validate()
		}()
		return Timeout(200)
	}, 0)
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	require.NoError(t, h.Run(spec))

	require.Equal(t, 1, capture.passed)
	require.False(t, capture.failure.Reason.Has(ReasonTimeout))
}

func TestScenario_AsyncFailureValidatesAfterTimeout(t *testing.T) {
	h := NewHarness()
	c := NewAsyncCase("async-late", func(callCount uint32) Control {
		go func() {
			time.Sleep(300 * time.Millisecond)
			h.Validate()
		}()
		return Timeout(200)
	}, 0)

	var buf bytes.Buffer
	d := NewVerboseContinueHandlers(reporter.NewStdoutSink(&buf))
	capture := &teardownCapture{}
	d.TestTeardown = func(passed, failed int, failure Failure) {
		capture.passed, capture.failed, capture.failure, capture.called = passed, failed, failure, true
	}
	spec := NewSpecification([]*Case{c}, WithDefaults(d))

	require.NoError(t, h.Run(spec))

	require.Equal(t, 0, capture.passed)
	require.Equal(t, 1, capture.failed)
	require.True(t, capture.failure.Reason.Has(ReasonTimeout))
	require.Equal(t, LocationCaseHandler, capture.failure.Location)
	require.Contains(t, buf.String(), "reason 'timeout'")
}

func TestScenario_OrderedSelectionNonSequentialDispatch(t *testing.T) {
	var order []string
	jump := func(name string, delta int) *Case {
		return NewCase(name, func() { order = append(order, name) },
			WithCaseTeardownHandler(WithCaseTeardown(func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
				return CaseTeardownResult{Status: StatusContinue, NextIndexDelta: delta}
			})))
	}
	// index 0 ("a") -> +2 -> index 2 ("c") -> -1 -> index 1 ("b") -> +2 -> out of range, done.
	cases := []*Case{jump("a", 2), jump("b", 2), jump("c", -1)}
	capture := &teardownCapture{}
	spec := NewSpecification(cases, WithDefaults(withCapturedTeardown(capture)))

	h := NewHarness()
	require.NoError(t, h.Run(spec))

	require.Equal(t, []string{"a", "c", "b"}, order, "relative jumps must drive a non-source-order dispatch sequence")
	require.Equal(t, 3, capture.passed, "every case still runs exactly once despite the reordering")
}

func TestScenario_PrematureValidationSkipsAwaitEntirely(t *testing.T) {
	h := NewHarness()
	var casePassed int
	c := NewAsyncCase("premature-single", func(callCount uint32) Control {
		h.Validate()
		return Await()
	}, 0, WithCaseTeardownHandler(WithCaseTeardown(func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
		casePassed = passed
		return defaultTeardownResult()
	})))
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	start := time.Now()
	require.NoError(t, h.Run(spec))
	elapsed := time.Since(start)

	require.Equal(t, 1, casePassed)
	require.True(t, capture.failure.IsNone())
	require.Less(t, elapsed, 50*time.Millisecond, "a body that validates before awaiting must never actually block")
}

func TestScenario_MultiplePrematureValidationsInterleavedWithAssertions(t *testing.T) {
	h := NewHarness()
	var casePassed int
	var failStatuses []Status
	c := NewAsyncCase("premature-multi", func(callCount uint32) Control {
		failStatuses = append(failStatuses, h.Fail(ReasonIgnored)) // harmless marker assertion, ignored by handler below
		h.Validate()
		h.Validate()
		failStatuses = append(failStatuses, h.Fail(ReasonIgnored))
		h.Validate()
		h.Validate()
		return Timeout(5000)
	}, 0,
		WithCaseFailureHandler(WithCaseFailure(func(c *Case, f Failure) Status { return StatusIgnore })),
		WithCaseTeardownHandler(WithCaseTeardown(func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
			casePassed = passed
			return defaultTeardownResult()
		})),
	)
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{c}, WithDefaults(withCapturedTeardown(capture)))

	start := time.Now()
	require.NoError(t, h.Run(spec))
	elapsed := time.Since(start)

	require.Equal(t, 1, casePassed)
	require.Less(t, elapsed, 200*time.Millisecond, "four premature validations must satisfy the single await without waiting out the 5s timeout")
	for _, s := range failStatuses {
		require.Equal(t, StatusIgnore, s)
	}
}

func TestInvariant_SetupTeardownPairing(t *testing.T) {
	var setupCalls, teardownCalls int
	c := NewCase("paired", func() {},
		WithCaseSetupHandler(WithCaseSetup(func(c *Case, i int) Status { setupCalls++; return StatusContinue })),
		WithCaseTeardownHandler(WithCaseTeardown(func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
			teardownCalls++
			return defaultTeardownResult()
		})),
	)
	spec := NewSpecification([]*Case{c}, WithDefaults(silentDefaults()))
	h := NewHarness()
	require.NoError(t, h.Run(spec))
	require.Equal(t, setupCalls, teardownCalls)
	require.Equal(t, 1, setupCalls)
}

func TestInvariant_CallCountIsOneBased(t *testing.T) {
	var seen []uint32
	c := NewCase("counted", func(k uint32) Control {
		seen = append(seen, k)
		if k < 3 {
			return Repeat(RepeatHandlerOnly)
		}
		return Next()
	})
	spec := NewSpecification([]*Case{c}, WithDefaults(silentDefaults()))
	h := NewHarness()
	require.NoError(t, h.Run(spec))
	require.Equal(t, []uint32{1, 2, 3}, seen)
}

func TestInvariant_PassedPlusFailedEqualsCasesRun(t *testing.T) {
	ok := NewCase("ok", func() {})
	bad := NewCase("bad", func() {
		// no handler returns Fail; case setup aborts instead so the case
		// still counts as "run" (setup was invoked) but fails.
	}, WithCaseSetupHandler(WithCaseSetup(func(c *Case, i int) Status { return StatusAbort })))
	capture := &teardownCapture{}
	spec := NewSpecification([]*Case{ok, bad}, WithDefaults(withCapturedTeardown(capture)))
	h := NewHarness()
	require.NoError(t, h.Run(spec))
	require.Equal(t, 2, capture.passed+capture.failed)
}

func TestInvariant_IgnoredFailureNeverIncrementsTestFailed(t *testing.T) {
	ignoring := silentDefaults()
	ignoring.CaseFailure = func(c *Case, f Failure) Status { return StatusIgnore }
	var h *Harness
	c := NewCase("ignored-inv", func() { h.Fail(ReasonUnknown) })
	capture := &teardownCapture{}
	d := ignoring
	d.TestTeardown = func(passed, failed int, failure Failure) {
		capture.passed, capture.failed, capture.failure = passed, failed, failure
	}
	spec := NewSpecification([]*Case{c}, WithDefaults(d))
	h = NewHarness()
	require.NoError(t, h.Run(spec))
	require.True(t, capture.failure.Ignored())
	require.Equal(t, 0, capture.failed)
}
