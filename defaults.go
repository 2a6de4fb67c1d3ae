package utest

import "github.com/ARMmbed/utest-go/reporter"

// Default handler sets, grounded line-for-line on
// _examples/original_source/source/default_handlers.cpp.

func verboseTestFailureLine(sink reporter.Sink, f Failure) {
	sink.Line(">>> failure with reason '%s' during '%s'\n", f.Reason, f.Location)
}

func verboseTestSetup(sink reporter.Sink) TestSetupHandler {
	return func(numberOfCases int) Status {
		sink.Line(">>> Running %d test cases...\n", numberOfCases)
		return StatusContinue
	}
}

func verboseTestTeardown(sink reporter.Sink) TestTeardownHandler {
	return func(passed, failed int, failure Failure) {
		sink.Line("\n>>> Test cases: %d passed, %d failed", passed, failed)
		if failure.Reason == ReasonNone {
			sink.Line("\n")
		} else {
			sink.Line(" with reason '%s'\n", failure.Reason)
		}
		if failed > 0 {
			sink.Line(">>> TESTS FAILED!\n")
		}
	}
}

func verboseCaseSetup(sink reporter.Sink) CaseSetupHandler {
	return func(c *Case, indexOfCase int) Status {
		sink.Line("\n>>> Running case #%d: '%s'...\n", indexOfCase+1, c.Description)
		return StatusContinue
	}
}

func verboseCaseTeardown(sink reporter.Sink) CaseTeardownHandler {
	return func(c *Case, passed, failed int, failure Failure) CaseTeardownResult {
		sink.Line(">>> '%s': %d passed, %d failed", c.Description, passed, failed)
		if failure.Reason == ReasonNone {
			sink.Line("\n")
		} else {
			sink.Line(" with reason '%s'\n", failure.Reason)
		}
		return defaultTeardownResult()
	}
}

func verboseCaseFailure(sink reporter.Sink) CaseFailureHandler {
	return func(c *Case, failure Failure) Status {
		if !failure.Reason.Has(ReasonAssertion) {
			verboseTestFailureLine(sink, failure)
		}
		if failure.Reason.Any(ReasonTestTeardown | ReasonCaseTeardown) {
			return StatusAbort
		}
		if failure.Reason.Has(ReasonIgnored) {
			return StatusIgnore
		}
		return StatusContinue
	}
}

// NewVerboseContinueHandlers builds the default handler set that reports
// progress to sink and continues past per-case failures.
func NewVerboseContinueHandlers(sink reporter.Sink) Handlers {
	return Handlers{
		TestSetup:    verboseTestSetup(sink),
		TestTeardown: verboseTestTeardown(sink),
		CaseSetup:    verboseCaseSetup(sink),
		CaseTeardown: verboseCaseTeardown(sink),
		CaseFailure:  verboseCaseFailure(sink),
	}
}

// hostTestTeardown wraps verboseTestTeardown, additionally emitting the
// host-test coordination sentinel when the run ended on a fatal,
// test-level failure (TestSetup/TestTeardown), per
// _examples/original_source/test/greentea/main.cpp.
func hostTestTeardown(host *reporter.HostSink) TestTeardownHandler {
	inner := verboseTestTeardown(host)
	return func(passed, failed int, failure Failure) {
		inner(passed, failed, failure)
		if failure.Reason.Any(ReasonTestSetup | ReasonTestTeardown) {
			host.Fatal()
		}
	}
}

// NewGreenteaContinueHandlers builds the handler set used for
// host-coordinated ("greentea") test runs that continue past per-case
// failures, but halt with the host fatal sentinel on a test-level
// failure, grounded on default_handlers.cpp's test_failure_handler.
func NewGreenteaContinueHandlers(sink reporter.Sink) Handlers {
	host := reporter.NewHostSink(sink)
	return Handlers{
		TestSetup:    verboseTestSetup(host),
		TestTeardown: hostTestTeardown(host),
		CaseSetup:    verboseCaseSetup(host),
		CaseTeardown: verboseCaseTeardown(host),
		CaseFailure:  verboseCaseFailure(host),
	}
}

// NewGreenteaAbortHandlers builds the handler set that reports progress
// and returns StatusAbort from the case failure handler on every
// non-ignored failure. That ends the failing case and skips to its
// teardown; the remaining cases of the specification still run.
func NewGreenteaAbortHandlers(sink reporter.Sink) Handlers {
	h := NewGreenteaContinueHandlers(sink)
	host := reporter.NewHostSink(sink)
	h.CaseFailure = func(c *Case, failure Failure) Status {
		if !failure.Reason.Has(ReasonAssertion) {
			verboseTestFailureLine(host, failure)
		}
		if failure.Reason.Has(ReasonIgnored) {
			return StatusIgnore
		}
		return StatusAbort
	}
	return h
}

// NewSelftestHandlers builds the handler set this module's own internal
// tests use: an assertion prints the failure line and the host sentinel,
// then returns StatusAbort, which ends the failing case and skips to its
// teardown (the source hangs the process instead). The remaining cases
// of the specification still run.
func NewSelftestHandlers(sink reporter.Sink) Handlers {
	host := reporter.NewHostSink(sink)
	h := NewVerboseContinueHandlers(host)
	h.CaseFailure = func(c *Case, failure Failure) Status {
		fatal := failure.Location == LocationTestSetup ||
			failure.Location == LocationTestTeardown ||
			failure.Reason.Has(ReasonAssertion)
		if fatal {
			verboseTestFailureLine(host, failure)
		}
		if failure.Reason.Has(ReasonAssertion) {
			host.Fatal()
			return StatusAbort
		}
		return verboseCaseFailure(host)(c, failure)
	}
	return h
}

// Package-level convenience instances writing to os.Stdout, mirroring
// the source's global handlers_t constants.
var (
	VerboseContinueHandlers  = NewVerboseContinueHandlers(reporter.NewStdoutSink(nil))
	GreenteaAbortHandlers    = NewGreenteaAbortHandlers(reporter.NewStdoutSink(nil))
	GreenteaContinueHandlers = NewGreenteaContinueHandlers(reporter.NewStdoutSink(nil))
	SelftestHandlers         = NewSelftestHandlers(reporter.NewStdoutSink(nil))
)
