package utest

import "time"

// RepeatMode selects how a case body is repeated after it returns.
type RepeatMode int

const (
	// RepeatNone means no explicit repeat preference was given; the
	// default (advance) applies unless overridden by validate_callback.
	RepeatNone RepeatMode = iota
	// RepeatHandlerOnly reruns only the body, preserving pass/fail tallies
	// and setup state.
	RepeatHandlerOnly
	// RepeatAll reruns setup then body; pass/fail tallies reset.
	RepeatAll
	// RepeatHandlerOnlyOnTimeout reruns only the body, but only when the
	// await times out; a successful validation advances as normal.
	RepeatHandlerOnlyOnTimeout
	// RepeatAllOnTimeout reruns setup then body, but only on timeout.
	RepeatAllOnTimeout
	// RepeatCancel explicitly cancels any outstanding repeat, equivalent
	// to Next.
	RepeatCancel
)

// onTimeout reports whether this mode only repeats when the await times out.
func (m RepeatMode) onTimeout() bool {
	return m == RepeatHandlerOnlyOnTimeout || m == RepeatAllOnTimeout
}

// repeatsSetup reports whether this mode reruns case setup (vs. body only).
func (m RepeatMode) repeatsSetup() bool {
	return m == RepeatAll || m == RepeatAllOnTimeout
}

// repeats reports whether this mode causes another body invocation at all.
func (m RepeatMode) repeats() bool {
	switch m {
	case RepeatHandlerOnly, RepeatAll, RepeatHandlerOnlyOnTimeout, RepeatAllOnTimeout:
		return true
	default:
		return false
	}
}

// TimeoutKind selects whether/how a case body awaits an asynchronous
// validation before the case is considered complete.
type TimeoutKind int

const (
	// TimeoutInherit is the zero value: no await is entered, so the
	// iteration completes as soon as the body returns, whether or not the
	// case is async-capable.
	TimeoutInherit TimeoutKind = iota
	// TimeoutImmediate asserts the case completes synchronously: no await
	// is entered, even if the case is async-capable.
	TimeoutImmediate
	// TimeoutAwait awaits exactly one validation, indefinitely.
	TimeoutAwait
	// TimeoutAwaitMs awaits exactly one validation within a bound.
	TimeoutAwaitMs
	// TimeoutNone awaits indefinitely and asserts no expiration is ever
	// scheduled (distinct from TimeoutAwait only in emphasis/semantics
	// at the call site; both behave identically in the runner).
	TimeoutNone
)

// Control is the value returned by a case body (or implied for plain
// bodies) that decides what the case runner does next: repeat the body
// or case, and whether/how to await an asynchronous validation.
//
// Control is immutable; use With to compose repeat and timeout
// modifiers. Composing contradictory modifiers (e.g. TimeoutImmediate
// with TimeoutAwait) is rejected by With, returning ErrContradiction.
type Control struct {
	Repeat    RepeatMode
	Timeout   TimeoutKind
	TimeoutMs uint32
}

// Next advances to the next case body invocation decision: for a plain
// handler this is implicit; for a control handler, returning Next ends
// the case (goes to teardown) with no repeat and no await.
func Next() Control { return Control{} }

// Repeat builds a Control that repeats per mode with no await.
func Repeat(mode RepeatMode) Control { return Control{Repeat: mode} }

// Timeout builds a Control that awaits one validation within ms.
func Timeout(ms uint32) Control { return Control{Timeout: TimeoutAwaitMs, TimeoutMs: ms} }

// Await builds a Control that awaits one validation indefinitely.
func Await() Control { return Control{Timeout: TimeoutAwait} }

// NoTimeoutControl builds a Control asserting a synchronous case must
// not wait (timeout absent).
func NoTimeoutControl() Control { return Control{Timeout: TimeoutImmediate} }

// With composes repeat and timeout modifiers from other into c, e.g.
// Repeat(RepeatAll).With(Timeout(200)) yields "repeat-all + 200ms
// timeout". Returns ErrContradiction if the combination is invalid
// (Immediate combined with any Await/AwaitMs/NoTimeout).
func (c Control) With(other Control) (Control, error) {
	out := c
	if other.Repeat != RepeatNone {
		out.Repeat = other.Repeat
	}
	if other.Timeout != TimeoutInherit {
		out.Timeout = other.Timeout
		out.TimeoutMs = other.TimeoutMs
	}
	awaits := func(k TimeoutKind) bool {
		return k == TimeoutAwait || k == TimeoutAwaitMs || k == TimeoutNone
	}
	if (c.Timeout == TimeoutImmediate && awaits(other.Timeout)) ||
		(awaits(c.Timeout) && other.Timeout == TimeoutImmediate) {
		return Control{}, ErrContradiction
	}
	return out, nil
}

// awaitDuration returns the duration to schedule a timeout callback for,
// and whether a timeout should be scheduled at all (false for
// TimeoutAwait/TimeoutNone, which wait forever with no expiration).
func (c Control) awaitDuration() (d time.Duration, scheduled bool) {
	if c.Timeout == TimeoutAwaitMs {
		return time.Duration(c.TimeoutMs) * time.Millisecond, true
	}
	return 0, false
}
