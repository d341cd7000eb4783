// Package bridge adapts duet's cooperative Scheduler to external event
// sources that duet does not and should not know about: an asyncio-style
// event loop, a GUI toolkit's timer, or a plain blocking call that needs to
// interoperate with code written against duet. None of this is exercised
// by the core scheduler; it exists purely to let a duet.Scheduler share a
// process with something else that also wants to drive its own loop.
package bridge

// Config holds bridge driver configuration.
type Config struct {
	// FlushInterval bounds how long a driver will wait for the scheduler's
	// ready signal before polling it anyway. This guards against the
	// scheduler missing a wakeup because of a timer or interrupt race, the
	// same guarantee the Python original's AsyncioRunner gets from
	// loop.call_later(flush_timeout, scheduler.flush).
	// Default: 1 second.
	FlushInterval uint

	// Logger receives structured scheduling events from the bridge. A nil
	// Logger (the default) discards them.
	Logger Logger
}

// defaultConfig centralizes Config defaults, applied by every constructor
// in this package that accepts options.
func defaultConfig() Config {
	return Config{
		FlushInterval: 1,
		Logger:        nil,
	}
}

// validateConfig performs lightweight invariant checks.
func validateConfig(cfg *Config) error {
	if cfg.FlushInterval == 0 {
		return errFlushIntervalZero
	}
	return nil
}
