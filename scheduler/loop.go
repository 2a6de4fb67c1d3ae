package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// state is the Loop's lifecycle phase machine, trimmed to the states a
// single-threaded FIFO dispatcher actually needs.
type state uint32

const (
	stateAwake state = iota
	stateRunning
	stateTerminating
	stateTerminated
)

// Loop is the default Scheduler implementation: a single-goroutine FIFO
// dispatcher over an external task queue plus a container/heap-ordered
// timer queue. It has no I/O polling or fast-path concerns of its own
// since this harness never waits on file descriptors.
type Loop struct {
	opts *loopOptions

	st atomic.Uint32

	// external queue: goja-style swap-on-drain, grounded on the
	// teacher's auxJobs/auxJobsSpare pattern (loop.go's comment block on
	// ChunkedIngress's predecessor design).
	mu      sync.Mutex
	pending []Task
	spare   []Task

	timers *timerQueue
	seq    atomic.Uint64

	nextHandle atomic.Uint64

	wake chan struct{}

	loopGoroutineID atomic.Uint64
}

// New constructs a Loop. Init must still be called before Run.
func New(opts ...LoopOption) *Loop {
	return &Loop{
		opts:   resolveLoopOptions(opts),
		timers: newTimerQueue(),
		wake:   make(chan struct{}, 1),
	}
}

// Init satisfies Scheduler. It is idempotent before the loop has run.
func (l *Loop) Init() error {
	if state(l.st.Load()) == stateTerminated {
		return ErrTerminated
	}
	return nil
}

// Post implements Scheduler. It is safe to call from any goroutine.
func (l *Loop) Post(task Task, delay time.Duration) (Handle, error) {
	if state(l.st.Load()) == stateTerminated {
		return 0, ErrTerminated
	}
	h := Handle(l.nextHandle.Add(1))
	if delay <= 0 {
		l.mu.Lock()
		l.pending = append(l.pending, task)
		l.mu.Unlock()
		l.doWake()
		return h, nil
	}
	entry := &timerEntry{
		when: l.opts.now().Add(delay),
		seq:  l.seq.Add(1),
		h:    h,
		task: task,
	}
	l.mu.Lock()
	l.timers.push(entry)
	l.mu.Unlock()
	l.logTimerScheduled(h, delay)
	l.doWake()
	return h, nil
}

// Cancel implements Scheduler.
func (l *Loop) Cancel(h Handle) error {
	l.mu.Lock()
	canceled := l.timers.cancel(h)
	l.mu.Unlock()
	if canceled {
		l.logTimerCanceled(h)
	}
	return nil
}

// Stop implements Scheduler.
func (l *Loop) Stop() {
	for {
		cur := state(l.st.Load())
		if cur == stateTerminated || cur == stateTerminating {
			return
		}
		if l.st.CompareAndSwap(uint32(cur), uint32(stateTerminating)) {
			l.doWake()
			return
		}
	}
}

// Run implements Scheduler: it blocks, draining timers (earliest
// deadline first) and external tasks (FIFO, post order) until Stop is
// called.
func (l *Loop) Run() error {
	if !l.st.CompareAndSwap(uint32(stateAwake), uint32(stateRunning)) {
		return ErrAlreadyRunning
	}
	l.loopGoroutineID.Store(getGoroutineID())
	defer l.loopGoroutineID.Store(0)
	defer l.st.Store(uint32(stateTerminated))

	for state(l.st.Load()) != stateTerminating {
		l.runDueTimers()
		if l.drainOnce() {
			continue
		}
		if state(l.st.Load()) == stateTerminating {
			break
		}
		l.sleepUntilWork()
	}
	// No final drain: callbacks still queued once the stop is observed
	// (including any posted by the callback that called Stop) never run.
	return nil
}

// runDueTimers fires every timer whose deadline has passed, in deadline
// order (ties broken by post order).
func (l *Loop) runDueTimers() {
	for {
		l.mu.Lock()
		e := l.timers.popReady(l.opts.now())
		l.mu.Unlock()
		if e == nil {
			return
		}
		l.logTimerFired(e.h)
		l.safeExecute(e.task)
	}
}

// drainOnce executes one batch of pending external tasks (FIFO), and
// reports whether any were run.
func (l *Loop) drainOnce() bool {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return false
	}
	batch := l.pending
	if l.spare == nil {
		l.spare = make([]Task, 0, len(batch))
	}
	l.pending, l.spare = l.spare[:0], batch
	l.mu.Unlock()

	budget := l.opts.tickBudget
	for i, task := range l.spare {
		if budget > 0 && i >= budget {
			// Re-queue the remainder ahead of anything submitted meanwhile.
			l.mu.Lock()
			l.pending = append(append([]Task{}, l.spare[i:]...), l.pending...)
			l.mu.Unlock()
			break
		}
		l.safeExecute(task)
	}
	return true
}

// sleepUntilWork blocks until either a wakeup is signaled or the next
// timer deadline arrives, whichever is sooner.
func (l *Loop) sleepUntilWork() {
	l.mu.Lock()
	deadline, ok := l.timers.nextDeadline()
	l.mu.Unlock()
	if !ok {
		<-l.wake
		return
	}
	d := deadline.Sub(l.opts.now())
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-l.wake:
	case <-timer.C:
	}
}

func (l *Loop) doWake() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute runs task, recovering a panic into a logged, dropped-on-
// the-floor event rather than crashing the single loop goroutine —
// callers that want failures surfaced to a test must do so via their
// own recover inside task, same contract the harness runner relies on.
func (l *Loop) safeExecute(task Task) {
	if task == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logTaskPanicked(r)
		}
	}()
	task()
}

// OnSchedulerThread reports whether the calling goroutine is the one
// currently executing Run, backing the goroutine-affinity guard callers
// use to confirm they're posting from inside a running loop.
func (l *Loop) OnSchedulerThread() bool {
	id := l.loopGoroutineID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// getGoroutineID returns the current goroutine's ID, grounded on the
// teacher eventloop.getGoroutineID's runtime.Stack-parsing idiom.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
