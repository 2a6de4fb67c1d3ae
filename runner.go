package utest

// This file implements the case runner: the per-case state machine
// driven entirely by callbacks posted through h.sched, following the
// transition diagram Idle -> CaseSetup -> CaseBody -> [Awaiting] ->
// CaseTeardown -> (next case | Aborted | Done).

// runNextCase enters the case at rs.caseIndex, or finishes the run if the
// index has run off either end of the specification.
func (h *Harness) runNextCase() {
	rs := h.rs
	if rs.caseIndex < 0 || rs.caseIndex >= rs.spec.Len() {
		h.finishTest(rs.terminalFailure)
		return
	}
	rs.resetCaseTallies()
	rs.callCount = 0
	c := rs.spec.Cases[rs.caseIndex]
	rs.curCase = c
	rs.curResolved = rs.spec.resolved[rs.caseIndex]
	h.enterCaseSetup(c, rs.curResolved)
}

// enterCaseSetup runs (or re-runs, for RepeatAll) a case's setup handler.
func (h *Harness) enterCaseSetup(c *Case, resolved resolvedCase) {
	rs := h.rs
	rs.phase = PhaseCaseSetup

	if c.IsEmpty() {
		h.raiseFailureInternal(ReasonEmptyCase|ReasonCases, LocationCaseSetup)
		h.caseTeardown()
		return
	}

	status := StatusContinue
	if resolved.setup != nil {
		status = resolved.setup(c, rs.caseIndex)
	}
	if status == StatusAbort {
		h.raiseFailureInternal(ReasonCaseSetup, LocationCaseSetup)
		h.caseTeardown()
		return
	}

	rs.phase = PhaseCaseBody
	h.invokeBody()
}

// invokeBody runs the case body exactly once, incrementing callCount for
// this invocation (the first call and every repeat), then applies the
// body-return decision algorithm.
func (h *Harness) invokeBody() {
	rs := h.rs
	c := rs.curCase
	rs.callCount++
	rs.iterationFailed = false

	var ctrl Control
	switch c.kind {
	case bodyPlain:
		c.plainBody()
		ctrl = Next()
	case bodyControl:
		ctrl = c.controlBody(rs.callCount)
	}

	// A synchronous Fail() call during the body can already have aborted
	// straight to CaseTeardown (or beyond); in that case the body's
	// returned Control is stale and must not drive another decision.
	if rs.phase != PhaseCaseBody {
		return
	}
	h.afterBody(ctrl)
}

// afterBody decides what happens after a case body (or a timeout/await
// completion) returns a Control: repeat, advance to await, or finish.
func (h *Harness) afterBody(ctrl Control) {
	rs := h.rs
	c := rs.curCase

	needsAwait := ctrl.Timeout == TimeoutAwait || ctrl.Timeout == TimeoutAwaitMs || ctrl.Timeout == TimeoutNone

	if needsAwait {
		if !c.IsAsync() {
			h.raiseFailureInternal(ReasonCaseHandler|ReasonUnknown, LocationCaseHandler)
			h.caseTeardown()
			return
		}

		needed := 1
		if rs.prematureCredit > 0 {
			consume := rs.prematureCredit
			if consume > needed {
				consume = needed
			}
			needed -= consume
			rs.prematureCredit -= consume
		}
		rs.expectedValidations = needed
		rs.validatedSoFar = 0
		rs.awaitingControl = ctrl

		if needed <= 0 {
			h.finalizeIteration(ctrl)
			return
		}

		rs.phase = PhaseAwaiting
		if d, scheduled := ctrl.awaitDuration(); scheduled {
			handle, err := h.sched.Post(func() { h.timeoutBranch() }, d)
			if err == nil {
				rs.pendingTimeoutHandle = handle
				rs.hasPendingTimeout = true
			}
		}
		return
	}

	h.finalizeIteration(ctrl)
}

// finalizeIteration is the "PostAwait" step: it runs whether the
// iteration completed synchronously (no await needed) or via a satisfied
// validate callback, folding in any control override and deciding
// whether to repeat or proceed to teardown.
func (h *Harness) finalizeIteration(ctrl Control) {
	rs := h.rs
	c := rs.curCase

	if rs.hasControlOverride {
		merged, err := ctrl.With(rs.controlOverride)
		rs.hasControlOverride = false
		rs.controlOverride = Control{}
		if err != nil {
			h.raiseFailureInternal(ReasonCaseHandler|ReasonUnknown, LocationCaseHandler)
			h.caseTeardown()
			return
		}
		ctrl = merged
	}

	if !rs.iterationFailed {
		rs.casePassed++
	}

	if ctrl.Repeat.repeats() && !ctrl.Repeat.onTimeout() {
		// Posted through the scheduler (delay 0) rather than called
		// directly: a body that repeats N times must not build an N-deep
		// call stack, and posting gives other scheduler work (a racing
		// Validate/Stop) a chance to interleave between iterations.
		if ctrl.Repeat.repeatsSetup() {
			rs.resetCaseTallies()
			resolved := rs.curResolved
			_, _ = h.sched.Post(func() { h.enterCaseSetup(c, resolved) }, 0)
		} else {
			rs.phase = PhaseCaseBody
			_, _ = h.sched.Post(func() { h.invokeBody() }, 0)
		}
		return
	}

	h.caseTeardown()
}

// timeoutBranch fires when a scheduled AwaitMs deadline elapses before a
// matching validate callback arrived.
func (h *Harness) timeoutBranch() {
	rs := h.rs
	if rs.phase != PhaseAwaiting {
		// A validate callback already resolved this await and moved on;
		// this firing lost the race against Cancel.
		return
	}
	rs.hasPendingTimeout = false

	ctrl := rs.awaitingControl
	if ctrl.Repeat.onTimeout() {
		if ctrl.Repeat.repeatsSetup() {
			rs.resetCaseTallies()
			h.enterCaseSetup(rs.curCase, rs.curResolved)
		} else {
			rs.phase = PhaseCaseBody
			h.invokeBody()
		}
		return
	}

	h.raiseFailureInternal(ReasonTimeout, LocationCaseHandler)
	h.caseTeardown()
}

// cancelPendingTimeout cancels any outstanding AwaitMs deadline; a no-op
// if none was scheduled (TimeoutAwait/TimeoutNone wait forever).
func (h *Harness) cancelPendingTimeout() {
	rs := h.rs
	if rs.hasPendingTimeout {
		_ = h.sched.Cancel(rs.pendingTimeoutHandle)
		rs.hasPendingTimeout = false
	}
}

// Validate is the callback an asynchronous operation invokes to signal
// that one expected validation has arrived. An optional override Control
// is merged (latest-wins) into the case's final repeat/timeout decision.
//
// A validation arriving before the case is Awaiting (e.g. the body
// itself called Validate synchronously before returning an await
// Control) is credited against the next await's expected count instead
// of being lost.
func (h *Harness) Validate(override ...Control) {
	if !h.onSchedulerThread() {
		ov := override
		_, _ = h.sched.Post(func() { h.Validate(ov...) }, 0)
		return
	}

	rs := h.rs
	if len(override) > 0 {
		if rs.hasControlOverride {
			merged, err := rs.controlOverride.With(override[0])
			if err == nil {
				rs.controlOverride = merged
			}
		} else {
			rs.controlOverride = override[0]
			rs.hasControlOverride = true
		}
	}

	if rs.phase != PhaseAwaiting {
		rs.prematureCredit++
		return
	}

	h.cancelPendingTimeout()
	rs.validatedSoFar++
	if rs.validatedSoFar >= rs.expectedValidations {
		ctrl := rs.awaitingControl
		h.finalizeIteration(ctrl)
	}
}

// Fail raises a failure on behalf of an external assertion, always
// merging ReasonAssertion in with reason. The current phase selects the
// Location it is classified under. Returns the failure handler's
// decision (Continue/Abort/Ignore); Abort jumps straight to teardown,
// unless the case is already in teardown. Called off the scheduler
// goroutine, Fail posts the failure to the scheduler and returns
// StatusContinue without waiting for the handler's decision.
func (h *Harness) Fail(reason Reason) Status {
	if !h.onSchedulerThread() {
		_, _ = h.sched.Post(func() { h.Fail(reason | ReasonAssertion) }, 0)
		return StatusContinue
	}

	loc := h.currentLocation()
	status := h.raiseFailureInternal(reason|ReasonAssertion, loc)
	if status == StatusAbort && h.rs.phase != PhaseCaseTeardown {
		h.caseTeardown()
	}
	return status
}

// currentLocation maps the runner's phase onto a Location for a failure
// raised right now.
func (h *Harness) currentLocation() Location {
	switch h.rs.phase {
	case PhaseCaseSetup:
		return LocationCaseSetup
	case PhaseCaseBody, PhaseAwaiting:
		return LocationCaseHandler
	case PhaseCaseTeardown:
		return LocationCaseTeardown
	default:
		return LocationUnknownHandler
	}
}

// raiseFailureInternal merges reason/location into the current failure,
// invokes the case failure handler, and applies its StatusIgnore
// decision. It does not itself transition phase; callers decide what an
// Abort means in their context.
func (h *Harness) raiseFailureInternal(reason Reason, location Location) Status {
	rs := h.rs
	rs.currentFailure = rs.currentFailure.Merge(reason, location)
	rs.caseFailed++
	rs.iterationFailed = true

	status := StatusContinue
	if rs.curResolved.failure != nil {
		status = rs.curResolved.failure(rs.curCase, rs.currentFailure)
	}
	if status == StatusIgnore {
		rs.caseFailed--
		rs.iterationFailed = false
		rs.currentFailure = rs.currentFailure.WithIgnored()
	}
	return status
}

// caseTeardown invokes the case's teardown handler exactly once, applies
// its Abort/relative-jump decision, and rolls the case's outcome into
// the test-level tallies.
func (h *Harness) caseTeardown() {
	rs := h.rs
	rs.phase = PhaseCaseTeardown
	h.cancelPendingTimeout()

	c := rs.curCase
	result := defaultTeardownResult()
	if rs.curResolved.teardown != nil {
		result = rs.curResolved.teardown(c, rs.casePassed, rs.caseFailed, rs.currentFailure)
	}

	if result.Status == StatusAbort {
		rs.currentFailure = rs.currentFailure.Merge(ReasonCaseTeardown, LocationCaseTeardown)
		rs.testFailed++
		rs.phase = PhaseAborted
		rs.terminalFailure = rs.currentFailure
		_, _ = h.sched.Post(func() { h.finishTest(rs.terminalFailure) }, 0)
		return
	}

	if rs.currentFailure.IsNone() {
		rs.testPassed++
	} else {
		rs.terminalFailure = rs.terminalFailure.Merge(rs.currentFailure.Reason, rs.currentFailure.Location)
		if rs.currentFailure.Ignored() {
			rs.testPassed++
		} else {
			rs.testFailed++
		}
	}

	rs.caseIndex += result.NextIndexDelta
	_, _ = h.sched.Post(func() { h.runNextCase() }, 0)
}

// finishTest invokes the test teardown handler with final tallies and
// stops the scheduler, ending Run.
func (h *Harness) finishTest(failure Failure) {
	rs := h.rs
	rs.phase = PhaseTestTeardown

	if rs.testFailed > 0 {
		failure = failure.Merge(ReasonCases, LocationNone)
	}

	if fn := rs.spec.resolvedTestTeardown(); fn != nil {
		fn(rs.testPassed, rs.testFailed, failure)
	}

	rs.phase = PhaseDone
	h.sched.Stop()
}
