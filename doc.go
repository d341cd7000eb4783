// Package duet runs asynchronous computations using Futures.
//
// A Task is a computation that can suspend at explicit await points on a
// Future and be resumed later when that Future completes. While one Task
// is suspended, others can run. Unlike a general async I/O runtime, duet
// does not provide I/O itself: Futures are completed by whatever external
// collaborator produces the value (a goroutine, a thread pool, a foreign
// event loop, a timer). duet only manages which Task runs next.
//
// Two properties set this scheduler apart from a typical cooperative
// runtime:
//
//   - Reentrancy: Run may be called from inside a Task of an already
//     running, outer invocation of Run. The inner call gets its own
//     Scheduler and completes independently, which makes it possible to
//     migrate synchronous code to asynchronous code incrementally.
//   - Manual stepping: Scheduler.Tick advances the scheduler exactly one
//     pass over its ready queue, so a foreign event loop (a GUI loop, an
//     asyncio loop, a generator-shaped consumer) can interleave duet's
//     work with its own.
//
// # Structured concurrency
//
// Tasks are always spawned inside a Scope, opened with WithScope,
// WithTimeoutScope, or WithDeadlineScope. A Scope does not return control to its
// caller until every Task spawned inside it has finished; if the scope
// block itself fails, or any spawned Task fails, or a deadline elapses,
// every other Task in the scope is interrupted and the scope re-raises
// the triggering error once cleanup completes.
//
// # Concurrency limiting and ordered fan-out
//
// Limiter provides a fair, FIFO-ordered bounded-concurrency gate. Pmap and
// Pstarmap build an ordered-results fan-out combinator on top of a Scope
// and a Limiter: results come back in input order regardless of which call
// finishes first.
//
// # Subpackages
//
//   - duet/metrics: an optional, pluggable instrumentation surface. The
//     scheduler reports to a no-op Provider unless one is attached with
//     WithMetrics: spawning and finishing a task update counters, and each
//     Tick records its duration.
//   - duet/bridge: the foreign-event-loop and GUI-timer-driven
//     collaborators this package treats as external (see package docs);
//     built entirely on the public API of this package.
package duet
