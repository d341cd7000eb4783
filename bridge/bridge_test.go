package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duet-go/duet"
)

func TestRunOnLoop_ReturnsResult(t *testing.T) {
	v, err := RunOnLoop(context.Background(), TimerDriver{}, func(t *duet.Task) (int, error) {
		return duet.Await(t, duet.CompletedFuture(42))
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRunOnLoop_WaitsForSpawnedWork(t *testing.T) {
	v, err := RunOnLoop(context.Background(), TimerDriver{}, func(t *duet.Task) (string, error) {
		return duet.WithScope(t, func(t *duet.Task, sc *duet.Scope) (string, error) {
			result := duet.NewFuture[string]()
			sc.Spawn(func(ct *duet.Task) error {
				if err := duet.Sleep(ct, 5*time.Millisecond); err != nil {
					return err
				}
				result.TrySetValue("done")
				return nil
			})
			return duet.Await(t, result)
		})
	}, WithFlushInterval(1))
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestSyncWrap(t *testing.T) {
	v, err := SyncWrap(context.Background(), func(t *duet.Task) (int, error) {
		return duet.Await(t, duet.CompletedFuture(9))
	})
	require.NoError(t, err)
	require.Equal(t, 9, v)
}

func TestConfig_RejectsZeroFlushInterval(t *testing.T) {
	_, err := buildConfig([]Option{WithFlushInterval(0)})
	require.ErrorIs(t, err, errFlushIntervalZero)
}

func TestZapLogger_NilIsNoop(t *testing.T) {
	l := NewZapLogger(nil)
	l.Debug("no panic expected")
	l.Error("no panic expected", F("k", "v"))
}
