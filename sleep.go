package duet

import "time"

// Sleep suspends t for at least d, or until an interrupt (cancellation, a
// timeout from an enclosing scope, or shutdown) arrives first, whichever
// happens first. It never busy-polls: the delay is driven by a single
// time.AfterFunc firing directly into the suspended future.
func Sleep(t *Task, d time.Duration) error {
	f := NewFuture[struct{}]()
	timer := time.AfterFunc(d, func() {
		f.TrySetValue(struct{}{})
		t.scheduler.Flush()
	})
	defer timer.Stop()

	_, err := Await(t, f)
	return err
}
