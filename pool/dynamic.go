package pool

import "sync"

// NewDynamic returns a dynamic-size pool of arbitrary reusable values: a
// sync.Pool returned behind the Pool interface, so callers depend on the
// interface rather than sync.Pool directly.
//
// Scopes with many short-lived children reuse a NewDynamic pool of []*Task
// buffers (see scope.go) to avoid reallocating a slice on every await-point
// check of "which children are still running".
func NewDynamic(newFn func() interface{}) Pool {
	return &sync.Pool{New: newFn}
}
