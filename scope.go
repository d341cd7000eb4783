package duet

import (
	"fmt"
	"sync"
	"time"

	"github.com/duet-go/duet/pool"
)

// taskSlicePool recycles the []*Task buffers Scope uses to snapshot its
// remaining children on every await-point check, so a scope with many
// short-lived children and many await rounds doesn't reallocate one on
// every round.
var taskSlicePool = pool.NewDynamic(func() interface{} {
	s := make([]*Task, 0, 8)
	return &s
})

func getTaskSlice() *[]*Task {
	p := taskSlicePool.Get().(*[]*Task)
	*p = (*p)[:0]
	return p
}

func putTaskSlice(p *[]*Task) {
	taskSlicePool.Put(p)
}

// Scope bounds the lifetime of tasks spawned in the background. It is
// opened with WithScope, WithTimeoutScope, or WithDeadlineScope and closes
// only once its block body and every task spawned inside it have finished.
//
// This is the structural equivalent of a "nursery" (as in the trio
// library): the block cannot return until everything it started has
// stopped, and a failure anywhere -- the block itself, a child, or a
// deadline -- interrupts everything else still running before the failure
// is reported to the caller.
type Scope struct {
	mainTask  *Task
	scheduler *Scheduler
	parent    *Scope

	mu        sync.Mutex
	children  map[*Task]struct{}
	cancelled bool
}

// Spawn starts fn as a background task owned by sc. The task runs until it
// returns, is interrupted, or the scope itself is cancelled or times out.
func (sc *Scope) Spawn(fn func(*Task) error) {
	var child *Task
	wrapped := func(ct *Task) (result any, err error) {
		// Recover here, not just in Task.run: a panic that unwinds past
		// this point without being caught would skip deleting child from
		// sc.children and skip posting the interrupt to mainTask below,
		// so the scope would never learn the child failed.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
			sc.mu.Lock()
			delete(sc.children, child)
			sc.mu.Unlock()
			if err != nil {
				sc.mainTask.interrupt(sc.mainTask, err)
			}
		}()
		err = fn(ct)
		return nil, err
	}
	child = sc.scheduler.spawn(wrapped, sc, sc.mainTask.ctx)
	sc.mu.Lock()
	sc.children[child] = struct{}{}
	sc.mu.Unlock()
}

// Cancel interrupts every child task and the scope's main task with
// ErrCancelled. Cancellation is not forced: a task may observe ErrCancelled
// at an await point, handle it, and continue running.
func (sc *Scope) Cancel() {
	sc.cancelWith(ErrCancelled)
}

func (sc *Scope) cancelWith(err error) {
	sc.mu.Lock()
	sc.cancelled = true
	sc.mu.Unlock()
	sc.interruptRemaining(err)
	sc.mainTask.interrupt(sc.mainTask, err)
}

func (sc *Scope) interruptRemaining(err error) {
	buf := getTaskSlice()
	defer putTaskSlice(buf)

	sc.mu.Lock()
	for c := range sc.children {
		*buf = append(*buf, c)
	}
	sc.mu.Unlock()
	for _, c := range *buf {
		if !c.Done() {
			c.interrupt(sc.mainTask, err)
		}
	}
}

// waitChildren blocks until sc.children is empty, or an error is observed
// at the main task's next await point (either because a child propagated
// its failure, or an ancestor/timeout interrupt arrived).
func (sc *Scope) waitChildren(t *Task) error {
	for {
		buf := getTaskSlice()
		sc.mu.Lock()
		for c := range sc.children {
			*buf = append(*buf, c)
		}
		sc.mu.Unlock()
		remaining := *buf
		empty := len(remaining) == 0
		err := (error)(nil)
		if !empty {
			err = awaitAnyDone(t, remaining)
		}
		putTaskSlice(buf)
		if empty {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// awaitAnyDone suspends t until at least one of tasks has finished.
func awaitAnyDone(t *Task, tasks []*Task) error {
	for _, c := range tasks {
		if c.Done() {
			return nil
		}
	}
	combo := NewFuture[struct{}]()
	for _, c := range tasks {
		c.doneFuture.AddDoneCallback(func() { combo.TrySetValue(struct{}{}) })
	}
	_, err := Await(t, combo)
	return err
}

// WithScope opens a scope around fn and runs the exit algorithm described
// in the package documentation: wait for every spawned child to finish; if
// the body or any child failed, interrupt the rest (ignoring further
// interrupts while doing so) and re-raise the triggering error once
// cleanup is complete.
func WithScope[T any](t *Task, fn func(*Task, *Scope) (T, error)) (T, error) {
	return runScope(t, nil, fn)
}

// WithTimeoutScope is WithScope with a relative deadline: if the body and
// its children have not all finished within d, the scope is cancelled with
// ErrTimeout.
func WithTimeoutScope[T any](t *Task, d time.Duration, fn func(*Task, *Scope) (T, error)) (T, error) {
	return runScope(t, &d, fn)
}

// WithDeadlineScope is WithScope with an absolute deadline.
func WithDeadlineScope[T any](t *Task, deadline time.Time, fn func(*Task, *Scope) (T, error)) (T, error) {
	d := time.Until(deadline)
	return runScope(t, &d, fn)
}

func runScope[T any](t *Task, timeout *time.Duration, fn func(*Task, *Scope) (T, error)) (T, error) {
	sc := &Scope{
		mainTask:  t,
		scheduler: t.scheduler,
		parent:    t.scope,
		children:  make(map[*Task]struct{}),
	}

	if timeout != nil {
		timer := time.AfterFunc(*timeout, func() {
			sc.cancelWith(ErrTimeout)
			sc.scheduler.Flush()
		})
		defer timer.Stop()
	}

	result, bodyErr := fn(t, sc)

	triggerErr := bodyErr
	if triggerErr == nil {
		triggerErr = sc.waitChildren(t)
	}

	if triggerErr != nil {
		sc.interruptRemaining(triggerErr)
		t.SetInterruptible(false)
		sc.drainChildrenIgnoringErrors(t)
		t.SetInterruptible(true)
		var zero T
		return zero, triggerErr
	}

	return result, nil
}

// drainChildrenIgnoringErrors waits out every remaining child while the
// main task is non-interruptible, so a second, later-arriving interrupt
// cannot preempt cleanup (spec step 3: "ignoring further interrupts").
func (sc *Scope) drainChildrenIgnoringErrors(t *Task) {
	for {
		buf := getTaskSlice()
		sc.mu.Lock()
		for c := range sc.children {
			*buf = append(*buf, c)
		}
		sc.mu.Unlock()
		remaining := *buf
		empty := len(remaining) == 0
		if !empty {
			_ = awaitAnyDone(t, remaining) // interruptible == false: Await never returns an interrupt error here.
		}
		putTaskSlice(buf)
		if empty {
			return
		}
	}
}
