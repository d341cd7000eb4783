package duet

import "fmt"

// Awaitable is anything that can produce a Future[T] of its eventual
// result. Task itself does not implement Awaitable directly -- callers use
// Await(t, f) against a *Future[T] -- but combinators that accept either a
// task or a plain value use this to stay agnostic about which they got.
type Awaitable[T any] interface {
	Future() *Future[T]
}

// AwaitableFunc adapts a plain function into an Awaitable by running it on
// a freshly spawned task and exposing that task's completion as a
// Future[T]. It is the Go analogue of the Python original's
// awaitable_func: a way to schedule ordinary functions as concurrent work
// without changing their signature to take a *Task.
//
// The returned Awaitable's Future only settles once fn has actually run to
// completion under the given scope's scheduler; spawning happens lazily,
// the first time Future is called.
type AwaitableFunc[T any] struct {
	scope *Scope
	fn    func() (T, error)

	spawned bool
	future  *Future[T]
}

// NewAwaitableFunc wraps fn so it runs as a task spawned in sc the first
// time its Future is requested.
func NewAwaitableFunc[T any](sc *Scope, fn func() (T, error)) *AwaitableFunc[T] {
	return &AwaitableFunc[T]{scope: sc, fn: fn}
}

// Future returns the Future[T] that will settle with fn's result, spawning
// the underlying task on first call.
func (a *AwaitableFunc[T]) Future() *Future[T] {
	if a.spawned {
		return a.future
	}
	a.spawned = true
	a.future = NewFuture[T]()

	fn, future := a.fn, a.future
	a.scope.Spawn(func(ct *Task) error {
		v, err := fn()
		if err != nil {
			future.TrySetError(err)
			return err
		}
		future.TrySetValue(v)
		return nil
	})
	return a.future
}

// AwaitValue is a convenience for the common case of awaiting an
// Awaitable's Future in one call: AwaitValue(t, a) is equivalent to
// Await(t, a.Future()).
func AwaitValue[T any](t *Task, a Awaitable[T]) (T, error) {
	return Await(t, a.Future())
}

// ToAwaitable adapts value to a Future[T], the Go analogue of the Python
// original's awaitable(value). A *Future[T] or an Awaitable[T] is passed
// through (unwrapped via Future); any other value of type T is wrapped in
// an already-completed Future. This covers the ordinary case of adapting a
// value received through an any-typed boundary -- a combinator fed by
// reflection, a plugin callback, a value decoded off the wire -- where the
// caller only knows the element type T at the call site, not at the point
// where the value originated.
//
// It fails with ErrNotAwaitable when value is none of these: the "awaiting
// a non-awaitable" misuse case. Passing a T directly never takes this path;
// it is reached only when value's dynamic type doesn't match T or either
// awaitable shape.
func ToAwaitable[T any](value any) (*Future[T], error) {
	switch v := value.(type) {
	case *Future[T]:
		return v, nil
	case Awaitable[T]:
		return v.Future(), nil
	case T:
		return CompletedFuture(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotAwaitable, value)
	}
}
