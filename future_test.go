package duet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuture_SettleOnce(t *testing.T) {
	f := NewFuture[int]()
	require.False(t, f.IsDone())

	require.True(t, f.TrySetValue(42))
	require.False(t, f.TrySetValue(7), "second settle must be a no-op")

	v, ok := f.Value()
	require.True(t, ok)
	require.Equal(t, 42, v)
	require.NoError(t, f.Err())
}

func TestFuture_TrySetError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFuture[string]()
	require.True(t, f.TrySetError(boom))

	_, ok := f.Value()
	require.False(t, ok)
	require.Equal(t, boom, f.Err())
}

func TestFuture_Cancel(t *testing.T) {
	f := NewFuture[struct{}]()
	require.True(t, f.Cancel())
	require.ErrorIs(t, f.Err(), ErrCancelled)
	require.False(t, f.TrySetValue(struct{}{}))
}

func TestFuture_AddDoneCallback_AlreadyDone(t *testing.T) {
	f := CompletedFuture(9)
	called := false
	f.AddDoneCallback(func() { called = true })
	require.True(t, called, "callback must fire immediately for an already-settled future")
}

func TestFuture_AddDoneCallback_FiresOnSettle(t *testing.T) {
	f := NewFuture[int]()
	var got int
	f.AddDoneCallback(func() {
		v, _ := f.Value()
		got = v
	})
	f.TrySetValue(5)
	require.Equal(t, 5, got)
}

func TestFuture_AddDoneCallback_MultipleCallbacksInOrder(t *testing.T) {
	f := NewFuture[struct{}]()
	var order []int
	f.AddDoneCallback(func() { order = append(order, 1) })
	f.AddDoneCallback(func() { order = append(order, 2) })
	f.TrySetValue(struct{}{})
	require.Equal(t, []int{1, 2}, order)
}
