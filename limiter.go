package duet

import (
	"sync"
)

// Limiter is a fair, FIFO-ordered gate on concurrent access to a resource
// or code section. A capacity <= 0 means unbounded (IsAvailable is always
// true and Acquire never blocks).
//
//	limiter := duet.NewLimiter(10)
//	slot, err := limiter.Acquire(t)
//	if err != nil { return err }
//	defer slot.Release()
//	// at most 10 callers are ever between Acquire and Release at once.
type Limiter struct {
	mu               sync.Mutex
	capacity         int
	count            int
	waiters          []*Future[struct{}]
	availableWaiters []*Future[struct{}]
}

// NewLimiter returns a Limiter with the given capacity. capacity <= 0 means
// unbounded.
func NewLimiter(capacity int) *Limiter {
	return &Limiter{capacity: capacity}
}

// SetCapacity changes the limiter's capacity. If the new capacity is lower
// than the current holder count, the invariant is restored passively: no
// new waiter is admitted until enough Release calls bring count down to the
// new capacity. FIFO order of waiters already queued is preserved across
// the resize.
func (l *Limiter) SetCapacity(capacity int) error {
	if capacity < 0 {
		return ErrInvalidCapacity
	}
	l.mu.Lock()
	l.capacity = capacity
	l.mu.Unlock()
	return nil
}

// IsAvailable reports whether the limiter currently has capacity for one
// more holder.
func (l *Limiter) IsAvailable() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isAvailableLocked()
}

func (l *Limiter) isAvailableLocked() bool {
	return l.capacity <= 0 || l.count < l.capacity
}

// Slot represents a held unit of a Limiter's capacity. It must be released
// exactly once.
type Slot struct {
	release func()
	mu      sync.Mutex
	called  bool
}

// Release returns the slot to its limiter. Releasing an already-released
// slot returns ErrSlotAlreadyReleased instead of releasing again.
func (s *Slot) Release() error {
	s.mu.Lock()
	if s.called {
		s.mu.Unlock()
		return ErrSlotAlreadyReleased
	}
	s.called = true
	s.mu.Unlock()
	s.release()
	return nil
}

// Acquire waits until the limiter has capacity, then admits the caller and
// returns a Slot that must be released exactly once. Waiters are admitted
// in strict arrival order.
func (l *Limiter) Acquire(t *Task) (*Slot, error) {
	l.mu.Lock()
	if l.isAvailableLocked() {
		l.count++
		l.mu.Unlock()
		return &Slot{release: l.release}, nil
	}
	f := NewFuture[struct{}]()
	l.waiters = append(l.waiters, f)
	l.mu.Unlock()

	if _, err := Await(t, f); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.count++
	l.mu.Unlock()
	return &Slot{release: l.release}, nil
}

func (l *Limiter) release() {
	l.mu.Lock()
	l.count--
	var head *Future[struct{}]
	if len(l.waiters) > 0 && l.isAvailableLocked() {
		head, l.waiters = l.waiters[0], l.waiters[1:]
	}
	avail := l.availableWaiters
	l.availableWaiters = nil
	l.mu.Unlock()

	// Admit the head FIFO waiter before broadcasting to availability
	// waiters, matching the order observed in the Python original's
	// Limiter._release.
	if head != nil {
		head.TrySetValue(struct{}{})
	}
	for _, f := range avail {
		f.TrySetValue(struct{}{})
	}
}

// Available suspends t until the limiter is not full to capacity. It always
// yields control at least once via Task.Yield, even if the limiter is
// available right away, so that a Throttle-driven producer never races
// arbitrarily far ahead of a slower consumer.
func (l *Limiter) Available(t *Task) error {
	if err := t.Yield(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.isAvailableLocked() {
		l.mu.Unlock()
		return nil
	}
	f := NewFuture[struct{}]()
	l.availableWaiters = append(l.availableWaiters, f)
	l.mu.Unlock()

	_, err := Await(t, f)
	return err
}

// Throttle calls yield(item) for each item produced by next, gated by
// Available so a producer iterating ahead of a slower consumer is held
// back without actually acquiring a slot. next should return (item, true)
// for each successive item and (zero, false) once exhausted.
func Throttle[T any](t *Task, l *Limiter, next func() (T, bool), yield func(T) error) error {
	for {
		v, ok := next()
		if !ok {
			return nil
		}
		if err := l.Available(t); err != nil {
			return err
		}
		if err := yield(v); err != nil {
			return err
		}
	}
}
