package duet

import "errors"

// Namespace prefixes every sentinel error this package defines, so that a
// bare error message printed without %w context is still traceable to duet.
const Namespace = "duet"

var (
	// ErrCancelled is the error delivered to a Task awaiting a cancelled
	// Future, and raised by a Scope whose Cancel method was called.
	ErrCancelled = errors.New(Namespace + ": cancelled")

	// ErrTimeout is raised by a TimeoutScope/DeadlineScope whose deadline
	// elapsed before its body and children finished.
	ErrTimeout = errors.New(Namespace + ": deadline exceeded")

	// ErrSchedulerShutdown is the interrupt error delivered to every still-active
	// task once Run's root task is done (see Scheduler.shutdown).
	ErrSchedulerShutdown = errors.New(Namespace + ": scheduler shut down")

	// ErrSlotAlreadyReleased is returned by Slot.Release when called more than
	// once for the same acquired slot.
	ErrSlotAlreadyReleased = errors.New(Namespace + ": slot already released")

	// ErrNotAwaitable is returned by ToAwaitable when a value cannot be
	// adapted into a Future-returning computation.
	ErrNotAwaitable = errors.New(Namespace + ": value is not awaitable")

	// ErrInvalidCapacity is returned by Limiter.SetCapacity for a negative
	// capacity. SetCapacity(0) makes the limiter unbounded; NewLimiter, by
	// contrast, treats any capacity <= 0, negative included, as unbounded.
	ErrInvalidCapacity = errors.New(Namespace + ": limiter capacity must be >= 0")

	// ErrTaskPanicked wraps a recovered panic from a Task body so it surfaces
	// through the same error-propagation path as any other Task failure.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")
)
