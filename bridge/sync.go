package bridge

import (
	"context"

	"github.com/duet-go/duet"
)

// SyncWrap adapts a duet-shaped function into an ordinary blocking Go
// function, for callers that have no interest in duet's Task/Scheduler
// machinery and just want to call fn and get a result back. It runs fn to
// completion on a private Scheduler driven by TimerDriver and returns once
// fn (and anything it spawned) has finished.
func SyncWrap[T any](ctx context.Context, fn func(*duet.Task) (T, error), opts ...Option) (T, error) {
	return RunOnLoop(ctx, TimerDriver{}, fn, opts...)
}
