package pool

// Pool is an interface that defines methods on a pool of reusable values.
type Pool interface {
	// Get returns a value from the pool, allocating a new one if empty.
	Get() interface{}

	// Put returns a value back to the pool.
	Put(interface{})
}
