package duet

import "sync/atomic"

// runDepth counts the calls to Run in progress anywhere in the process,
// nested or concurrent. Only the call that raises it from zero installs the
// process-wide signal handler, so a nested Run never fights the outer one
// over os/signal.Notify.
var runDepth atomic.Int32

// Run is the blocking entry point into duet: it builds a fresh Scheduler,
// runs fn as that scheduler's root task, and ticks the scheduler until fn
// (and everything it transitively spawned) has finished. Between ticks it
// blocks on the scheduler's ReadyChan rather than spinning, so a root task
// that is only waiting on a timer (Sleep) or external I/O costs no CPU
// while idle. Once the root task is done, any task still active -- left
// running by a scope the root never waited out, or racing a deadline --
// is interrupted with ErrSchedulerShutdown and drained before Run returns.
//
// Run is reentrant: fn, or anything it calls, may itself call Run again
// (e.g. from a callback invoked by a non-duet library). Each nested Run
// gets its own Scheduler, so the two never share ready queues or tasks; the
// inner Run simply blocks the outer task's goroutine until it returns,
// exactly like any other blocking call.
func Run[T any](fn func(*Task) (T, error), opts ...RunOption) (T, error) {
	s := NewScheduler(opts...)

	if runDepth.Add(1) == 1 {
		s.initSignals()
		defer s.cleanupSignals()
	}
	defer runDepth.Add(-1)

	root, outcome := RootTask(s, fn)

	for !root.Done() {
		<-s.ReadyChan()
		s.Tick()
	}
	s.shutdown()
	return outcome()
}

// NewScheduler constructs a Scheduler without running it. Most callers want
// Run instead; NewScheduler and RootTask exist for external drivers (see
// duet/bridge) that need to interleave Tick calls with their own event
// loop instead of blocking until the root task finishes.
func NewScheduler(opts ...RunOption) *Scheduler {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newSchedulerWithMetrics(cfg.metrics)
}

// RootTask spawns fn as s's root task and returns it along with a function
// that reports fn's result once the task is done. It never blocks or ticks
// s itself -- the caller drives s with Tick, typically in response to
// s.ReadyChan().
func RootTask[T any](s *Scheduler, fn func(*Task) (T, error)) (*Task, func() (T, error)) {
	var (
		result T
		fnErr  error
	)
	t := s.spawn(func(rt *Task) (any, error) {
		result, fnErr = fn(rt)
		return result, fnErr
	}, nil, nil)
	return t, func() (T, error) { return result, fnErr }
}

// Sync runs fn to completion exactly like Run, but discards its result,
// returning only the error -- the common case for a program's outermost
// call when fn's return value is unused. It mirrors the Python original's
// duet.sync, kept here as a thin convenience over Run.
func Sync(fn func(*Task) error, opts ...RunOption) error {
	_, err := Run(func(t *Task) (struct{}, error) {
		return struct{}{}, fn(t)
	}, opts...)
	return err
}
