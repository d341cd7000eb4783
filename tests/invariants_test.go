package tests

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duet-go/duet"
)

func TestScheduler_OnlyOneTaskRunsAtATime(t *testing.T) {
	var running int
	var maxRunning int

	_, err := duet.Run(func(rt *duet.Task) (struct{}, error) {
		return duet.WithScope(rt, func(rt *duet.Task, sc *duet.Scope) (struct{}, error) {
			for i := 0; i < 20; i++ {
				sc.Spawn(func(ct *duet.Task) error {
					running++
					if running > maxRunning {
						maxRunning = running
					}
					f := duet.CompletedFuture(struct{}{})
					if _, err := duet.Await(ct, f); err != nil {
						return err
					}
					running--
					return nil
				})
			}
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, maxRunning, "exactly one task body must execute at a time")
}

func TestCancellationDuringEnqueue(t *testing.T) {
	// A task cancels a sibling's scope while that sibling is still
	// registering a new child; the new child must still observe the
	// cancellation rather than running unbounded.
	var childRan, childInterrupted bool

	_, err := duet.Run(func(rt *duet.Task) (struct{}, error) {
		return duet.WithScope(rt, func(rt *duet.Task, outer *duet.Scope) (struct{}, error) {
			innerStarted := duet.NewFuture[*duet.Scope]()

			outer.Spawn(func(b *duet.Task) error {
				_, err := duet.WithScope(b, func(b *duet.Task, inner *duet.Scope) (struct{}, error) {
					innerStarted.TrySetValue(inner)
					inner.Spawn(func(c *duet.Task) error {
						childRan = true
						blocker := duet.NewFuture[struct{}]()
						_, err := duet.Await(c, blocker)
						childInterrupted = err != nil
						return err
					})
					blocker := duet.NewFuture[struct{}]()
					_, err := duet.Await(b, blocker)
					return struct{}{}, err
				})
				return err
			})

			outer.Spawn(func(c *duet.Task) error {
				inner, err := duet.Await(c, innerStarted)
				if err != nil {
					return err
				}
				inner.Cancel()
				return nil
			})

			return struct{}{}, nil
		})
	})
	// The inner scope's cancellation becomes its WithScope's returned
	// error, which child A returns as its own task error, which in turn
	// interrupts the outer scope -- cancellation started two scopes deep
	// surfaces all the way out.
	require.ErrorIs(t, err, duet.ErrCancelled)
	require.True(t, childRan)
	require.True(t, childInterrupted)
}

func TestReentrantRun(t *testing.T) {
	outerResult, err := duet.Run(func(rt *duet.Task) (int, error) {
		innerResult, innerErr := duet.Run(func(it *duet.Task) (int, error) {
			return 100, nil
		})
		if innerErr != nil {
			return 0, innerErr
		}
		return innerResult + 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, 101, outerResult)
}

func TestPmapFailurePropagation(t *testing.T) {
	boom := errors.New("pmap item failed")
	_, err := duet.Run(func(rt *duet.Task) ([]int, error) {
		return duet.Pmap(rt, 2, []int{1, 2, 3, 4}, func(ct *duet.Task, n int) (int, error) {
			if n == 2 {
				return 0, boom
			}
			return duet.Await(ct, duet.NewFuture[int]()) // blocks unless interrupted
		})
	})
	require.ErrorIs(t, err, boom)
}

func TestLimiterFIFOUnderContention(t *testing.T) {
	var order []int
	_, err := duet.Run(func(rt *duet.Task) (struct{}, error) {
		return duet.WithScope(rt, func(rt *duet.Task, sc *duet.Scope) (struct{}, error) {
			l := duet.NewLimiter(1)
			holder, err := l.Acquire(rt)
			require.NoError(t, err)

			arrived := make([]*duet.Future[struct{}], 5)
			for i := range arrived {
				arrived[i] = duet.NewFuture[struct{}]()
			}
			for i := 0; i < 5; i++ {
				i := i
				sc.Spawn(func(ct *duet.Task) error {
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
				if _, err := duet.Await(rt, f); err != nil {
					return struct{}{}, err
				}
			}
			return struct{}{}, holder.Release()
		})
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTimeoutScopeDeadline(t *testing.T) {
	start := time.Now()
	_, err := duet.Run(func(rt *duet.Task) (struct{}, error) {
		return duet.WithDeadlineScope(rt, time.Now().Add(15*time.Millisecond), func(rt *duet.Task, sc *duet.Scope) (struct{}, error) {
			sc.Spawn(func(ct *duet.Task) error {
				return duet.Sleep(ct, time.Hour)
			})
			return struct{}{}, nil
		})
	})
	require.ErrorIs(t, err, duet.ErrTimeout)
	require.Less(t, time.Since(start), time.Second)
}
