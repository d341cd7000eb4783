package duet

import "sync"

// futureState tracks the lifecycle of a Future's outcome.
type futureState int

const (
	futureUnset futureState = iota
	futureValue
	futureError
	futureCancelled
)

// Future is a one-shot value/error cell that may be settled from any
// goroutine and awaited by a Task. Its outcome transitions from unset to a
// terminal state exactly once; further Try* calls after that are no-ops.
//
// Futures are the only primitive in this package that may safely cross
// goroutine boundaries: everything else (Scheduler, Scope, Task) is owned
// by the goroutine that created it.
type Future[T any] struct {
	mu        sync.Mutex
	state     futureState
	value     T
	err       error
	callbacks []func()
}

// NewFuture returns a new, unset Future.
func NewFuture[T any]() *Future[T] { return &Future[T]{} }

// CompletedFuture returns a Future already settled with value v.
func CompletedFuture[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.TrySetValue(v)
	return f
}

// FailedFuture returns a Future already settled with err.
func FailedFuture[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.TrySetError(err)
	return f
}

// TrySetValue settles f with v and returns true, unless f is already
// terminal, in which case it is a no-op and returns false.
func (f *Future[T]) TrySetValue(v T) bool {
	return f.trySettle(futureValue, v, nil)
}

// TrySetError settles f with err and returns true, unless f is already
// terminal, in which case it is a no-op and returns false.
func (f *Future[T]) TrySetError(err error) bool {
	var zero T
	return f.trySettle(futureError, zero, err)
}

// Cancel settles f as cancelled and returns true, unless f is already
// terminal. A Task awaiting a cancelled Future observes ErrCancelled.
func (f *Future[T]) Cancel() bool {
	var zero T
	return f.trySettle(futureCancelled, zero, ErrCancelled)
}

func (f *Future[T]) trySettle(state futureState, v T, err error) bool {
	f.mu.Lock()
	if f.state != futureUnset {
		f.mu.Unlock()
		return false
	}
	f.state = state
	f.value = v
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	// Callbacks run synchronously on the setter's goroutine, in registration
	// order, and must only ever do cheap scheduler bookkeeping (never run
	// user code) -- see Await in task.go.
	for _, cb := range cbs {
		cb()
	}
	return true
}

// IsDone reports whether f has reached a terminal state.
func (f *Future[T]) IsDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != futureUnset
}

// Value returns f's settled value and whether f was settled with a value
// (as opposed to an error, cancellation, or not yet being done).
func (f *Future[T]) Value() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.state == futureValue
}

// Err returns f's settled error, or nil if f completed with a value or is
// not yet done.
func (f *Future[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// AddDoneCallback invokes cb once f becomes terminal. If f is already
// terminal, cb runs immediately on the calling goroutine.
func (f *Future[T]) AddDoneCallback(cb func()) {
	f.mu.Lock()
	if f.state != futureUnset {
		f.mu.Unlock()
		cb()
		return
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

// outcome returns f's value and error as seen by Await; it must be called
// only once f.IsDone() is true.
func (f *Future[T]) outcome() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}
