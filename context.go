package duet

// asyncContext is a persistent (immutable, cheaply forked) association list
// of ambient per-invocation bindings. A Task's context is captured by value
// (as a pointer to an immutable node) at spawn time, so a parent rebinding a
// key afterwards never affects children already spawned, and a child
// rebinding a key never affects its parent or siblings -- see Task.WithValue.
type asyncContext struct {
	parent *asyncContext
	key    any
	val    any
}

func (c *asyncContext) value(key any) (any, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.key == key {
			return cur.val, true
		}
	}
	return nil, false
}

func (c *asyncContext) withValue(key, val any) *asyncContext {
	return &asyncContext{parent: c, key: key, val: val}
}

// Value looks up key in t's ambient context, walking up through the
// bindings inherited from the scope t was spawned in.
func (t *Task) Value(key any) (any, bool) {
	return t.ctx.value(key)
}

// WithValue rebinds key to val in t's own ambient context. The rebinding is
// local to t: it is visible to t for the rest of its execution and to any
// task t spawns afterwards, but not to t's parent or to tasks already
// spawned before the call.
func (t *Task) WithValue(key, val any) {
	t.ctx = t.ctx.withValue(key, val)
}
