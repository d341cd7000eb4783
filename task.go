package duet

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type taskState int32

const (
	taskReady taskState = iota
	taskRunning
	taskWaiting
	taskDone
)

// pendingInterrupt records an interrupt queued for delivery at a task's next
// await point.
type pendingInterrupt struct {
	source *Task
	err    error
}

// Task is one suspendable computation managed by a Scheduler. Its body runs
// on a dedicated goroutine that is handed control by the scheduler's Tick
// loop and blocks between hand-offs, so that exactly one task body executes
// at a time -- see scheduler.go's advanceTask.
type Task struct {
	id        uint64
	scheduler *Scheduler
	scope     *Scope // owning scope; nil only for the root task of Run.
	ctx       *asyncContext

	startCh  chan struct{}  // closed once, by the scheduler, to let the body begin running.
	stepCh   chan taskStep  // body -> scheduler: "I suspended" or "I finished".
	resumeCh chan resumeVal // scheduler -> body: unblocks the current Await.

	mu            sync.Mutex
	state         taskState
	started       bool
	interruptible bool
	pending       *pendingInterrupt
	awaitWake     func() // set while suspended; invoked to mark the task ready.

	done   bool
	result any
	err    error

	doneFuture *Future[struct{}]
}

type taskStep struct {
	suspended bool
	result    any
	err       error
}

type resumeVal struct {
	interrupted bool
	err         error
}

var taskIDs atomic.Uint64

func newTask(s *Scheduler, scope *Scope, ctx *asyncContext) *Task {
	return &Task{
		id:            taskIDs.Add(1),
		scheduler:     s,
		scope:         scope,
		ctx:           ctx,
		startCh:       make(chan struct{}),
		stepCh:        make(chan taskStep),
		resumeCh:      make(chan resumeVal),
		state:         taskReady,
		interruptible: true,
		doneFuture:    NewFuture[struct{}](),
	}
}

// ID returns a scheduler-unique, monotonically increasing task identifier,
// useful for logging and for distinguishing tasks in tests.
func (t *Task) ID() uint64 { return t.id }

// Scheduler returns the Scheduler that owns t.
func (t *Task) Scheduler() *Scheduler { return t.scheduler }

// Result returns t's terminal result and error. It must only be called
// once t.Done() is true.
func (t *Task) Result() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Done reports whether t has finished (successfully, with an error, or via
// an interrupt that propagated out of its body).
func (t *Task) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// SetInterruptible toggles whether t accepts interrupt delivery. While
// false, posted interrupts are queued rather than delivered; flipping back
// to true immediately marks t ready if an interrupt is queued and t is
// currently waiting.
func (t *Task) SetInterruptible(v bool) {
	t.mu.Lock()
	t.interruptible = v
	pending := t.pending
	state := t.state
	wake := t.awaitWake
	t.mu.Unlock()

	if v && pending != nil && state == taskWaiting && wake != nil {
		wake()
	}
}

// Interruptible reports whether t currently accepts interrupt delivery.
func (t *Task) Interruptible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interruptible
}

// interrupt posts err, attributed to source, for delivery at t's next await
// point. A pending interrupt is dropped unless source dominates the
// existing one (see scopeDominates); while t is not interruptible, the
// interrupt is recorded but not delivered until SetInterruptible(true).
func (t *Task) interrupt(source *Task, err error) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	if t.pending != nil && !scopeDominates(source, t.pending.source) {
		t.mu.Unlock()
		return
	}
	t.pending = &pendingInterrupt{source: source, err: err}
	interruptible := t.interruptible
	state := t.state
	wake := t.awaitWake
	t.mu.Unlock()

	if interruptible && state == taskWaiting && wake != nil {
		wake()
	}
}

// consumePendingInterrupt clears and returns t's queued interrupt if one is
// present and t is currently interruptible.
func (t *Task) consumePendingInterrupt() (error, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil || !t.interruptible {
		return nil, false
	}
	err := t.pending.err
	t.pending = nil
	return err, true
}

// scopeDominates reports whether an interrupt attributed to candidate
// should replace one already attributed to incumbent: an interrupt from an
// ancestor scope's main task supersedes one from a descendant. A nil
// incumbent is always dominated (nothing to protect); a nil candidate never
// dominates.
func scopeDominates(candidate, incumbent *Task) bool {
	if incumbent == nil {
		return true
	}
	if candidate == nil {
		return false
	}
	return scopeDepth(candidate.scope) <= scopeDepth(incumbent.scope)
}

func scopeDepth(s *Scope) int {
	depth := 0
	for s != nil {
		depth++
		s = s.parent
	}
	return depth
}

// Await suspends t until f is settled, returning f's value and error. If f
// is already settled, Await returns immediately without yielding control to
// the scheduler. If an interrupt is pending for t and t is interruptible,
// Await returns the interrupt's error instead of awaiting f at all -- this
// is "the current await point" where interrupt delivery happens.
func Await[T any](t *Task, f *Future[T]) (T, error) {
	var zero T

	if err, ok := t.consumePendingInterrupt(); ok {
		return zero, err
	}

	if f.IsDone() {
		return f.outcome()
	}

	var once sync.Once
	wake := func() { once.Do(func() { t.scheduler.markReady(t) }) }

	t.mu.Lock()
	t.awaitWake = wake
	t.state = taskWaiting
	t.mu.Unlock()

	f.AddDoneCallback(wake)

	t.stepCh <- taskStep{suspended: true}
	rv := <-t.resumeCh

	t.mu.Lock()
	t.awaitWake = nil
	t.mu.Unlock()

	if rv.interrupted {
		return zero, rv.err
	}
	return f.outcome()
}

// Yield suspends t for exactly one round trip through the ready queue and
// then resumes, regardless of whether there is anything to wait for. It
// differs from Await(t, f) on an already-done f, which returns without ever
// suspending: Yield always hands control back to the scheduler at least
// once, so any sibling already sitting ahead of t on the ready queue gets a
// chance to run before t continues. Limiter.Available uses this to keep an
// upstream iterator from ever running arbitrarily far ahead of a slower
// downstream consumer, even when the limiter has capacity right away.
func (t *Task) Yield() error {
	if err, ok := t.consumePendingInterrupt(); ok {
		return err
	}

	t.mu.Lock()
	t.state = taskWaiting
	t.mu.Unlock()

	t.scheduler.markReady(t)

	t.stepCh <- taskStep{suspended: true}
	rv := <-t.resumeCh

	if rv.interrupted {
		return rv.err
	}
	return nil
}

// run executes body on a dedicated goroutine, handing the scheduler back
// control at every suspension point and finally reporting the terminal
// result or a recovered panic (wrapped in ErrTaskPanicked) on stepCh. A
// scope-spawned child's body already recovers its own panics (see
// Scope.Spawn) so its scope bookkeeping still runs; this recover is the
// backstop for a root task, which has no scope to report to.
func (t *Task) run(body func(*Task) (any, error)) {
	go func() {
		<-t.startCh

		var (
			result any
			err    error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
				}
			}()
			result, err = body(t)
		}()

		t.stepCh <- taskStep{suspended: false, result: result, err: err}
	}()
}
