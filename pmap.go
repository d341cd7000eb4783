package duet

// Pmap applies fn to every element of items concurrently, bounded by limit
// (<= 0 means unbounded), and returns results in the same order as items --
// regardless of which call to fn finishes first. Internally it spawns one
// child task per item inside a scope, and each child writes its result
// straight into the output slot of its item's index, so completion order
// never affects the result order.
//
// If fn returns an error for any item, Pmap cancels the remaining items'
// tasks and returns that error; results for items that had not yet
// completed are zero-valued.
func Pmap[In, Out any](t *Task, limit int, items []In, fn func(*Task, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out, nil
	}

	limiter := NewLimiter(limit)

	_, err := WithScope(t, func(t *Task, sc *Scope) (struct{}, error) {
		for i, item := range items {
			i, item := i, item
			sc.Spawn(func(ct *Task) error {
				slot, err := limiter.Acquire(ct)
				if err != nil {
					return err
				}
				defer slot.Release()

				result, err := fn(ct, item)
				if err != nil {
					return err
				}
				out[i] = result
				return nil
			})
		}
		return struct{}{}, nil
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

// PmapPair is one two-argument input to Pstarmap, letting callers supply
// pre-split argument tuples without a reflection-based variadic spread.
type PmapPair[A, B any] struct {
	First  A
	Second B
}

// Pstarmap is Pmap for functions of two arguments, analogous to the Python
// original's pstarmap_async: each element of pairs is unpacked into fn's two
// parameters instead of passed as a single struct.
func Pstarmap[A, B, Out any](t *Task, limit int, pairs []PmapPair[A, B], fn func(*Task, A, B) (Out, error)) ([]Out, error) {
	return Pmap(t, limit, pairs, func(ct *Task, p PmapPair[A, B]) (Out, error) {
		return fn(ct, p.First, p.Second)
	})
}

// PmapResult pairs an input item's original index with fn's outcome, used by
// PmapStream to report results as an in-order stream rather than a single
// slice returned at the end.
type PmapResult[Out any] struct {
	Index int
	Value Out
	Err   error
}

// PmapStream is like Pmap, but instead of returning a single slice once
// every item has finished, it calls emit once per item, strictly in input
// order, as soon as that item's result (or error) becomes available. This
// mirrors the teacher package's preserve-order streaming combinators
// (run_stream.go/map_stream.go), adapted to duet's cooperative scheduler
// instead of unbuffered worker channels.
//
// emit is called from the child task whose completion made results
// releasable, and receives that child's *Task, so it may call Await on it.
// If emit returns an error, remaining items are cancelled and PmapStream
// returns that error.
func PmapStream[In, Out any](t *Task, limit int, items []In, fn func(*Task, In) (Out, error), emit func(*Task, PmapResult[Out]) error) error {
	if len(items) == 0 {
		return nil
	}

	limiter := NewLimiter(limit)
	buf := newOrderedBuffer[Out](len(items))

	_, err := WithScope(t, func(t *Task, sc *Scope) (struct{}, error) {
		for i, item := range items {
			i, item := i, item
			sc.Spawn(func(ct *Task) error {
				slot, err := limiter.Acquire(ct)
				if err != nil {
					return err
				}
				defer slot.Release()

				value, err := fn(ct, item)

				ready := buf.complete(i, value, err)
				for _, r := range ready {
					if emitErr := emit(ct, r); emitErr != nil {
						return emitErr
					}
				}
				return err
			})
		}
		return struct{}{}, nil
	})
	return err
}

// orderedBuffer collects out-of-order completions by index and releases
// them to the caller in strict index order once every predecessor has
// arrived -- the same buffering discipline as the teacher package's
// reorderer.go, restated here for PmapResult instead of a worker envelope.
type orderedBuffer[Out any] struct {
	pending map[int]PmapResult[Out]
	next    int
}

func newOrderedBuffer[Out any](n int) *orderedBuffer[Out] {
	return &orderedBuffer[Out]{pending: make(map[int]PmapResult[Out], n)}
}

// complete records the result for index i and returns every result, in
// order, that is now ready to be released (i.e. index == next and every
// contiguous successor already buffered).
//
// Callers serialize access to complete themselves: in PmapStream every call
// happens from a task body running under the single-threaded scheduler, so
// no separate lock is needed here.
func (b *orderedBuffer[Out]) complete(i int, v Out, err error) []PmapResult[Out] {
	b.pending[i] = PmapResult[Out]{Index: i, Value: v, Err: err}

	var ready []PmapResult[Out]
	for {
		r, ok := b.pending[b.next]
		if !ok {
			break
		}
		ready = append(ready, r)
		delete(b.pending, b.next)
		b.next++
	}
	return ready
}
