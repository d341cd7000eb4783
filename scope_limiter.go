package duet

// ScopeWithLimiter bundles a Scope and a Limiter, the combination the Python
// original calls LimitedScope: every child spawned through it first acquires
// a limiter slot and releases it on completion, so "spawn arbitrarily many
// children" and "bound how many run concurrently" don't have to be threaded
// through by hand at every call site.
type ScopeWithLimiter struct {
	scope   *Scope
	limiter *Limiter
}

// NewScopeWithLimiter wraps an existing scope with a concurrency limit.
// limit <= 0 means unbounded, same convention as NewLimiter.
func NewScopeWithLimiter(sc *Scope, limit int) *ScopeWithLimiter {
	return &ScopeWithLimiter{scope: sc, limiter: NewLimiter(limit)}
}

// Spawn runs fn in a new child task, gated by the limiter: fn only starts
// once a slot is available, and the slot is released when fn returns
// (including on panic or interrupt, via the same recovery path as Scope.Spawn).
func (lsc *ScopeWithLimiter) Spawn(fn func(*Task) error) {
	lsc.scope.Spawn(func(ct *Task) error {
		slot, err := lsc.limiter.Acquire(ct)
		if err != nil {
			return err
		}
		defer slot.Release()
		return fn(ct)
	})
}

// Limiter exposes the underlying limiter, e.g. for Throttle or Available
// checks against the same capacity this scope's children are gated by.
func (lsc *ScopeWithLimiter) Limiter() *Limiter { return lsc.limiter }

// Scope exposes the underlying scope, e.g. for Cancel.
func (lsc *ScopeWithLimiter) Scope() *Scope { return lsc.scope }

// PmapAsync is Pmap scoped to lsc's own limiter and scope instead of
// constructing fresh ones, so repeated calls against the same
// ScopeWithLimiter share one concurrency budget across all of them.
func (lsc *ScopeWithLimiter) PmapAsync(t *Task, items []any, fn func(*Task, any) (any, error)) ([]any, error) {
	out := make([]any, len(items))
	if len(items) == 0 {
		return out, nil
	}
	done := make([]*Future[struct{}], len(items))
	for i, item := range items {
		i, item := i, item
		done[i] = NewFuture[struct{}]()
		lsc.Spawn(func(ct *Task) error {
			defer done[i].TrySetValue(struct{}{})
			result, err := fn(ct, item)
			if err != nil {
				return err
			}
			out[i] = result
			return nil
		})
	}
	for _, f := range done {
		if _, err := Await(t, f); err != nil {
			return out, err
		}
	}
	return out, nil
}
