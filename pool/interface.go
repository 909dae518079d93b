package pool

// Poolable describes instances managed by a pool. Reset is invoked every time
// an instance is given back and must restore it to a reusable state.
type Poolable interface {
	Reset()
}

// Factory creates new pooled instances on demand. Create may fail; the
// failure is surfaced to the caller of Get or TryGet as-is.
type Factory[T Poolable] interface {
	Create() (T, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc[T Poolable] func() (T, error)

// Create implements Factory.
func (f FactoryFunc[T]) Create() (T, error) { return f() }
