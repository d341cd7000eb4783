package duet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopeWithLimiter_BoundsConcurrency(t *testing.T) {
	var current, peak int
	const capacity = 2

	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			lsc := NewScopeWithLimiter(sc, capacity)
			release := NewFuture[struct{}]()
			bothHeld := NewFuture[struct{}]()

			for i := 0; i < 6; i++ {
				lsc.Spawn(func(ct *Task) error {
					current++
					if current > peak {
						peak = current
					}
					if current == capacity {
						bothHeld.TrySetValue(struct{}{})
					}
					_, err := Await(ct, release)
					current--
					return err
				})
			}

			if _, err := Await(rt, bothHeld); err != nil {
				return struct{}{}, err
			}
			release.TrySetValue(struct{}{})
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, capacity, peak)
}

func TestScopeWithLimiter_PmapAsyncReturnsOneResultPerItem(t *testing.T) {
	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			lsc := NewScopeWithLimiter(sc, 0)
			out, err := lsc.PmapAsync(rt, []any{1, 2, 3}, func(ct *Task, v any) (any, error) {
				return v.(int) * 2, nil
			})
			require.NoError(t, err)
			require.Len(t, out, 3)
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
}

func TestScopeWithLimiter_Accessors(t *testing.T) {
	_, err := Run(func(rt *Task) (struct{}, error) {
		return WithScope(rt, func(rt *Task, sc *Scope) (struct{}, error) {
			lsc := NewScopeWithLimiter(sc, 3)
			require.Same(t, sc, lsc.Scope())
			require.True(t, lsc.Limiter().IsAvailable())
			return struct{}{}, nil
		})
	})
	require.NoError(t, err)
}
