package bridge

import "time"

// TimerDriver implements LoopDriver on top of the stdlib's time.AfterFunc,
// for embedding duet in a host that has no event loop of its own to
// delegate to (e.g. a GUI toolkit binding that only exposes a single-shot
// timer widget, the role duet/interop/qt5.py plays in the Python original).
type TimerDriver struct{}

// CallLater schedules fn to run after d using time.AfterFunc.
func (TimerDriver) CallLater(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
