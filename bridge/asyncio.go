package bridge

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/duet-go/duet"
)

// LoopDriver is the subset of an external event loop's API this package
// needs to interleave duet's Scheduler with that loop: a way to schedule a
// one-shot callback after a delay. asyncio's loop.call_later and a Qt
// QTimer both satisfy this shape, which is why the Python original's
// AsyncioRunner and interop/qt5.py share the same polling structure.
type LoopDriver interface {
	// CallLater arranges for fn to run after d elapses, unless the
	// returned cancel function is called first.
	CallLater(d time.Duration, fn func()) (cancel func())
}

// RunOnLoop runs fn as a duet root task driven by loop's timer instead of
// duet's own ticking: whenever the scheduler signals it has ready work (or
// the flush interval elapses, guarding against a missed wakeup), RunOnLoop
// calls Tick once and reschedules itself. It returns fn's result once the
// root task, and everything it spawned, has finished.
//
// This is the same three-step loop as the Python original's
// AsyncioRunner.run: wait for scheduler.ready_future (here, ReadyChan),
// tick, and arm a flush timer as a backstop against ready-signal races.
func RunOnLoop[T any](ctx context.Context, loop LoopDriver, fn func(*duet.Task) (T, error), opts ...Option) (T, error) {
	var zero T
	cfg, err := buildConfig(opts)
	if err != nil {
		return zero, err
	}

	s := duet.NewScheduler()
	root, outcome := duet.RootTask(s, fn)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		flush := time.Duration(cfg.FlushInterval) * time.Second
		for !root.Done() {
			cancelFlush := loop.CallLater(flush, s.Flush)
			select {
			case <-gctx.Done():
				cancelFlush()
				return gctx.Err()
			case <-s.ReadyChan():
			}
			cancelFlush()

			s.Tick()

			cfg.Logger.Debug("duet bridge tick", F("active", len(s.ActiveTasks())))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !root.Done() {
		cfg.Logger.Error("duet bridge aborted", F("error", err))
		return zero, err
	}

	return outcome()
}
