// Package utest is an asynchronous test harness: it sequences a fixed
// list of test cases through a uniform lifecycle (setup, body, optional
// asynchronous validation, teardown, failure reporting), coordinated by
// a single-threaded cooperative scheduler, with per-case timeouts,
// repeat policies and deferred callback validation.
//
// It is a Go-native rework of ARMmbed/utest, generalizing the repeat and
// timeout controls a case body may return and replacing the source's
// static global harness with an instantiable Harness value.
package utest

import (
	"fmt"
	"sync/atomic"

	"github.com/ARMmbed/utest-go/scheduler"
)

// Harness is the test-level state machine: it owns the scheduler
// lifecycle, drives the case runner over a Specification, and guards
// against concurrent Run calls.
type Harness struct {
	busy  atomic.Bool
	sched scheduler.Scheduler
	rs    *runState
}

// HarnessOption configures a Harness Run call.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	scheduler scheduler.Scheduler
}

// WithScheduler overrides the Scheduler used for this Run call. The
// default is a fresh scheduler.Loop.
func WithScheduler(s scheduler.Scheduler) HarnessOption {
	return func(c *harnessConfig) { c.scheduler = s }
}

// NewHarness builds a reusable Harness. A single Harness rejects
// concurrent Run calls but may be reused sequentially.
func NewHarness() *Harness {
	return &Harness{}
}

// IsBusy reports whether a Run call is currently in progress.
func (h *Harness) IsBusy() bool { return h.busy.Load() }

// Run is the harness's single entry point. It:
//  1. rejects a concurrent Run with ErrHarnessBusy,
//  2. initializes the scheduler,
//  3. invokes the test setup handler (aborting the run on StatusAbort),
//  4. posts the first case's entry,
//  5. blocks in the scheduler until the run completes,
//  6. invokes the test teardown handler before returning.
func (h *Harness) Run(spec *Specification, opts ...HarnessOption) error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrHarnessBusy
	}
	defer h.busy.Store(false)

	if spec == nil || spec.Len() == 0 {
		return ErrNoSpecification
	}

	cfg := &harnessConfig{}
	for _, o := range opts {
		o(cfg)
	}
	sched := cfg.scheduler
	if sched == nil {
		sched = scheduler.New()
	}
	if err := sched.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrSchedulerInit, err)
	}
	h.sched = sched
	h.rs = &runState{spec: spec, phase: PhaseTestSetup}

	setupFn := spec.resolvedTestSetup()
	status := StatusContinue
	if setupFn != nil {
		status = setupFn(spec.Len())
	}
	if status == StatusAbort {
		h.finishTest(Failure{Reason: ReasonTestSetup, Location: LocationTestSetup})
		return nil
	}

	if _, err := sched.Post(func() { h.runNextCase() }, 0); err != nil {
		return WrapError("posting first case", err)
	}
	return sched.Run()
}

// onSchedulerThread reports whether the calling goroutine is the one
// driving h.sched, when the scheduler exposes that information (the
// default scheduler.Loop does). Other Scheduler implementations are
// assumed single-threaded by contract and always report true.
func (h *Harness) onSchedulerThread() bool {
	type threadChecker interface{ OnSchedulerThread() bool }
	if tc, ok := h.sched.(threadChecker); ok {
		return tc.OnSchedulerThread()
	}
	return true
}
