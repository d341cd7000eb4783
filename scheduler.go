package duet

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/duet-go/duet/metrics"
)

// Scheduler owns a ready queue of Tasks and advances them one at a time in
// strict FIFO order. Scheduler instances are never shared across Run
// invocations: each call to Run constructs a fresh Scheduler, which is what
// makes reentrant, nested calls to Run safe without any locking between
// them -- see run.go.
//
// Unlike the Python original, this implementation has no notion of a
// globally tracked "current task": every task body and every helper in this
// package receives its *Task explicitly as a parameter, which is the Go
// idiom for what would otherwise require goroutine-local storage.
type Scheduler struct {
	mu     sync.Mutex
	active map[*Task]struct{}
	queue  []*Task

	readyMu     sync.Mutex
	readyCh     chan struct{}
	readyClosed bool

	sigCh chan os.Signal

	spawned  metrics.Counter
	finished metrics.Counter
	inFlight metrics.UpDownCounter
	tickTime metrics.Histogram
}

func newScheduler() *Scheduler {
	return newSchedulerWithMetrics(metrics.NewNoopProvider())
}

func newSchedulerWithMetrics(p metrics.Provider) *Scheduler {
	if p == nil {
		p = metrics.NewNoopProvider()
	}
	return &Scheduler{
		active:   make(map[*Task]struct{}),
		readyCh:  make(chan struct{}),
		spawned:  p.Counter("duet.tasks.spawned", metrics.WithUnit("1")),
		finished: p.Counter("duet.tasks.finished", metrics.WithUnit("1")),
		inFlight: p.UpDownCounter("duet.tasks.active", metrics.WithUnit("1")),
		tickTime: p.Histogram("duet.tick.duration", metrics.WithUnit("s")),
	}
}

// spawn creates a new Task running body, adds it to the active set, and
// enqueues it for its first advance.
func (s *Scheduler) spawn(body func(*Task) (any, error), scope *Scope, ctx *asyncContext) *Task {
	t := newTask(s, scope, ctx)

	s.mu.Lock()
	s.active[t] = struct{}{}
	s.mu.Unlock()
	s.spawned.Add(1)
	s.inFlight.Add(1)

	t.run(body)
	s.enqueueReady(t)
	return t
}

// Tick drains the ready queue once, in FIFO order. Tasks that become ready
// during this drain (because a future they awaited completed synchronously,
// or an interrupt was posted) are appended to the same queue and are
// advanced within this same Tick call.
func (s *Scheduler) Tick() {
	start := time.Now()
	for {
		t := s.dequeue()
		if t == nil {
			break
		}
		s.advanceTask(t)
	}
	s.resetReadyIfEmpty()
	s.tickTime.Record(time.Since(start).Seconds())
}

func (s *Scheduler) dequeue() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	return t
}

// advanceTask resumes t exactly once: either starting its body for the
// first time, or delivering the outcome of its current await (a future's
// result, or a pending interrupt), then blocks until t suspends again or
// finishes. This is the single point where the scheduler's "only one task
// runs at a time" invariant is enforced: advanceTask does not return until
// t has yielded control back.
func (s *Scheduler) advanceTask(t *Task) {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.state = taskRunning

	started := t.started
	t.started = true

	// A task that has not started yet keeps its pending interrupt: its body
	// picks it up at its first Await or Yield.
	var rv resumeVal
	if started && t.pending != nil && t.interruptible {
		rv = resumeVal{interrupted: true, err: t.pending.err}
		t.pending = nil
	}
	t.mu.Unlock()

	if !started {
		close(t.startCh)
	} else {
		t.resumeCh <- rv
	}

	step := <-t.stepCh

	if step.suspended {
		// Task.Await already recorded state = taskWaiting before sending
		// this step, so there is nothing left to update here.
		return
	}

	t.mu.Lock()
	t.state = taskDone
	t.done = true
	t.result = step.result
	t.err = step.err
	t.mu.Unlock()

	s.onTaskDone(t)
}

func (s *Scheduler) onTaskDone(t *Task) {
	s.mu.Lock()
	delete(s.active, t)
	s.mu.Unlock()
	s.finished.Add(1)
	s.inFlight.Add(-1)
	t.doneFuture.TrySetValue(struct{}{})
}

// markReady transitions t from waiting to ready and enqueues it. It is a
// no-op if t is not currently waiting, which makes it safe to call more
// than once for the same suspension (Await dedupes with a sync.Once, but
// markReady's own state check is a second, independent guard).
func (s *Scheduler) markReady(t *Task) {
	t.mu.Lock()
	if t.state != taskWaiting {
		t.mu.Unlock()
		return
	}
	t.state = taskReady
	t.mu.Unlock()
	s.enqueueReady(t)
}

func (s *Scheduler) enqueueReady(t *Task) {
	s.mu.Lock()
	s.queue = append(s.queue, t)
	s.mu.Unlock()
	s.signalReady()
}

// ActiveTasks returns every task that has not yet finished.
func (s *Scheduler) ActiveTasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, 0, len(s.active))
	for t := range s.active {
		out = append(out, t)
	}
	return out
}

// ReadyChan returns a channel that is closed whenever the ready queue is
// non-empty. An external driver (see duet/bridge) waits on this channel,
// then calls Tick. The channel is replaced with a fresh, open one once the
// queue drains to empty.
func (s *Scheduler) ReadyChan() <-chan struct{} {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	return s.readyCh
}

// Flush ensures ReadyChan is observed as terminal, even absent a ready
// task. It is safe to call from any goroutine, and is idempotent. External
// drivers call it from a timer to guarantee forward progress when nothing
// else would otherwise wake them.
func (s *Scheduler) Flush() {
	s.signalReady()
}

func (s *Scheduler) signalReady() {
	s.readyMu.Lock()
	if !s.readyClosed {
		s.readyClosed = true
		close(s.readyCh)
	}
	s.readyMu.Unlock()
}

func (s *Scheduler) resetReadyIfEmpty() {
	s.mu.Lock()
	empty := len(s.queue) == 0
	s.mu.Unlock()
	if !empty {
		return
	}
	s.readyMu.Lock()
	if s.readyClosed {
		s.readyCh = make(chan struct{})
		s.readyClosed = false
	}
	s.readyMu.Unlock()
}

// shutdown interrupts every still-active task with ErrSchedulerShutdown and
// ticks until they have all finished or stopped responding to interrupts.
// It mirrors the exactly-once, ordered shutdown discipline of the teacher
// package's lifecycleCoordinator (lifecycle.go), adapted here to a ticking
// scheduler instead of channel-closing goroutines.
func (s *Scheduler) shutdown() {
	for _, t := range s.ActiveTasks() {
		t.interrupt(nil, ErrSchedulerShutdown)
	}
	for len(s.ActiveTasks()) > 0 {
		select {
		case <-s.ReadyChan():
			s.Tick()
		default:
			// Nothing ready and tasks remain: they are deferring interrupts
			// (interruptible == false) or awaiting a future nothing will
			// ever settle. Force one more pass to avoid spinning hot.
			s.Tick()
			return
		}
	}
}

// initSignals installs a handler translating SIGINT/SIGTERM into an
// interrupt on every active task, so a user can regain control of a program
// stuck inside Run. It is only ever called by the outermost Run invocation
// (see run.go); nested, reentrant Run calls never touch process-wide signal
// state.
func (s *Scheduler) initSignals() {
	s.sigCh = make(chan os.Signal, 1)
	signal.Notify(s.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.sigCh
		if !ok {
			return
		}
		for _, t := range s.ActiveTasks() {
			t.interrupt(nil, &signalError{sig: sig})
		}
		s.Flush()
	}()
}

// cleanupSignals removes the signal handler installed by initSignals.
func (s *Scheduler) cleanupSignals() {
	if s.sigCh == nil {
		return
	}
	signal.Stop(s.sigCh)
	close(s.sigCh)
}

type signalError struct{ sig os.Signal }

func (e *signalError) Error() string { return "duet: received signal " + e.sig.String() }
