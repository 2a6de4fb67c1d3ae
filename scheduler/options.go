package scheduler

import "time"

// loopOptions holds configuration for Loop creation, grounded on the
// teacher eventloop package's loopOptions/LoopOption shape.
type loopOptions struct {
	tickBudget int
	now        func() time.Time
	logger     Logger
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions)
}

type loopOptionFunc func(*loopOptions)

func (f loopOptionFunc) applyLoop(o *loopOptions) { f(o) }

// WithTickBudget bounds how many ready callbacks Run drains per pass
// through the external queue before yielding to timers again. Zero (the
// default) means unbounded.
func WithTickBudget(n int) LoopOption {
	return loopOptionFunc(func(o *loopOptions) { o.tickBudget = n })
}

// WithNow overrides the clock Run uses to evaluate timer deadlines.
// Intended for deterministic tests; production callers should leave this
// unset (defaults to time.Now).
func WithNow(now func() time.Time) LoopOption {
	return loopOptionFunc(func(o *loopOptions) { o.now = now })
}

// WithLogger configures the structured logger Run reports timer and
// task-panic diagnostics through. A nil logger (the default) discards
// everything, grounded on eventloop's WithLogger(nil)-is-accepted
// contract.
func WithLogger(logger Logger) LoopOption {
	return loopOptionFunc(func(o *loopOptions) {
		if logger == nil {
			logger = noOpLogger{}
		}
		o.logger = logger
	})
}

func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{now: time.Now, logger: noOpLogger{}}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.applyLoop(cfg)
	}
	return cfg
}
