package duet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiter_UnboundedNeverBlocks(t *testing.T) {
	_, err := Run(func(rt *Task) (struct{}, error) {
		l := NewLimiter(0)
		slot, err := l.Acquire(rt)
		require.NoError(t, err)
		require.True(t, l.IsAvailable())
		return struct{}{}, slot.Release()
	})
	require.NoError(t, err)
}

func TestLimiter_BoundedTracksConcurrentHolders(t *testing.T) {
	var current, peak int

	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			const capacity = 2
			l := NewLimiter(capacity)
			release := NewFuture[struct{}]()
			bothHeld := NewFuture[struct{}]()

			for i := 0; i < 6; i++ {
				sc.Spawn(func(ct *Task) error {
					slot, err := l.Acquire(ct)
					if err != nil {
						return err
					}
					current++
					if current > peak {
						peak = current
					}
					if current == capacity {
						bothHeld.TrySetValue(struct{}{})
					}
					_, _ = Await(ct, release)
					current--
					return slot.Release()
				})
			}

			// Block rt until exactly `capacity` children are holding a
			// slot concurrently, then release them all: peak can never
			// exceed capacity, since the limiter would have suspended
			// the (capacity+1)th acquirer instead of admitting it.
			if _, err := Await(rt, bothHeld); err != nil {
				return struct{}{}, err
			}
			release.TrySetValue(struct{}{})
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, 2, peak)
}

func TestLimiter_DoubleReleaseErrors(t *testing.T) {
	_, err := Run(func(rt *Task) (struct{}, error) {
		l := NewLimiter(1)
		slot, err := l.Acquire(rt)
		require.NoError(t, err)
		require.NoError(t, slot.Release())
		require.ErrorIs(t, slot.Release(), ErrSlotAlreadyReleased)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func TestLimiter_SetCapacityRejectsNegative(t *testing.T) {
	l := NewLimiter(1)
	require.ErrorIs(t, l.SetCapacity(-1), ErrInvalidCapacity)
}

func TestLimiter_ThrottleYieldsEvenWhenNeverFull(t *testing.T) {
	var order []string

	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			l := NewLimiter(0) // always available: exercises the forced-yield path.
			producerDone := NewFuture[struct{}]()
			consumerDone := NewFuture[struct{}]()

			sc.Spawn(func(ct *Task) error {
				i := 0
				next := func() (int, bool) {
					if i >= 3 {
						return 0, false
					}
					i++
					return i, true
				}
				err := Throttle(ct, l, next, func(int) error {
					order = append(order, "producer")
					return nil
				})
				producerDone.TrySetValue(struct{}{})
				return err
			})

			sc.Spawn(func(ct *Task) error {
				for i := 0; i < 3; i++ {
					if err := ct.Yield(); err != nil {
						return err
					}
					order = append(order, "consumer")
				}
				consumerDone.TrySetValue(struct{}{})
				return nil
			})

			if _, err := Await(rt, producerDone); err != nil {
				return struct{}{}, err
			}
			if _, err := Await(rt, consumerDone); err != nil {
				return struct{}{}, err
			}
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
	// If Available failed to suspend, the producer would drain all three
	// items before the consumer task ever ran, yielding all-producer then
	// all-consumer. A forced yield instead round-robins the two tasks.
	require.Equal(t, []string{"producer", "consumer", "producer", "consumer", "producer", "consumer"}, order)
}

func TestLimiter_FIFOOrder(t *testing.T) {
	var order []int
	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			l := NewLimiter(1)
			holder, err := l.Acquire(rt)
			require.NoError(t, err)

			arrived := make([]*Future[struct{}], 3)
			for i := range arrived {
				arrived[i] = NewFuture[struct{}]()
			}

			for i := 0; i < 3; i++ {
				i := i
				sc.Spawn(func(ct *Task) error {
					arrived[i].TrySetValue(struct{}{})
					slot, err := l.Acquire(ct)
					if err != nil {
						return err
					}
					order = append(order, i)
					return slot.Release()
				})
			}

			for _, f := range arrived {
				if _, err := Await(rt, f); err != nil {
					return struct{}{}, err
				}
			}
			return struct{}{}, holder.Release()
		})
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, order)
}
