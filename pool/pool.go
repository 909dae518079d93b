// Package pool provides bounded object pooling primitives for simpool.
package pool

import (
	"strings"

	"github.com/coachpo/simpool/errs"
)

const defaultPoolName = "pool"

type settings struct {
	name           string
	startSize      int
	maxAllocations int
}

// Option configures pool construction.
type Option func(*settings)

// WithName assigns the pool name used in errors, logs, and metric labels.
func WithName(name string) Option {
	name = strings.TrimSpace(name)
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithStartSize eagerly allocates the given number of instances at
// construction. Values above the allocation ceiling are clamped to it.
func WithStartSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.startSize = n
		}
	}
}

// WithMaxAllocations bounds the total number of instances the pool may ever
// create through its factory. Non-positive values mean unbounded.
func WithMaxAllocations(n int) Option {
	return func(s *settings) {
		s.maxAllocations = n
	}
}

// Stats carries cumulative counters for one pool.
type Stats struct {
	Gets        int64 `json:"gets"`
	Creates     int64 `json:"creates"`
	Exhaustions int64 `json:"exhaustions"`
	Overfills   int64 `json:"overfills"`
}

// Pool hands out reusable instances of T, recycling them on return and
// optionally bounding the total allocation count. Instances are served in
// FIFO order: the oldest returned instance is handed out first.
//
// Pool performs no internal locking and is NOT safe for concurrent use; wrap
// it in SyncPool when multiple goroutines share it.
type Pool[T Poolable] struct {
	name      string
	factory   Factory[T]
	available []T
	allocated int
	// max is the allocation ceiling; zero means unbounded.
	max   int
	stats Stats
}

// New constructs a pool backed by the provided factory. WithStartSize
// instances are created eagerly; a failing factory aborts construction and
// the factory error is returned unchanged.
func New[T Poolable](factory Factory[T], opts ...Option) (*Pool[T], error) {
	cfg := settings{name: defaultPoolName, startSize: 0, maxAllocations: 0}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if factory == nil {
		return nil, errs.New(cfg.name, errs.CodeInvalid, errs.WithMessage("factory required"))
	}

	max := cfg.maxAllocations
	if max < 0 {
		max = 0
	}
	start := cfg.startSize
	if max > 0 && start > max {
		start = max
	}

	p := &Pool[T]{
		name:      cfg.name,
		factory:   factory,
		available: nil,
		allocated: 0,
		max:       max,
		stats:     Stats{},
	}
	if start > 0 {
		p.available = make([]T, 0, start)
	}
	for i := 0; i < start; i++ {
		obj, err := factory.Create()
		if err != nil {
			return nil, err
		}
		p.available = append(p.available, obj)
		p.allocated++
	}
	return p, nil
}

// Get returns an available instance, creating one through the factory when
// the queue is empty and the allocation ceiling has not been reached. When
// the pool is exhausted it fails with an errs envelope carrying
// errs.CodeExhausted. Factory failures are returned unchanged.
func (p *Pool[T]) Get() (T, error) {
	if obj, ok := p.dequeue(); ok {
		p.stats.Gets++
		return obj, nil
	}
	if p.max == 0 || p.allocated < p.max {
		obj, err := p.factory.Create()
		if err != nil {
			var zero T
			return zero, err
		}
		p.allocated++
		p.stats.Gets++
		p.stats.Creates++
		return obj, nil
	}
	p.stats.Exhaustions++
	var zero T
	return zero, errs.New(p.name, errs.CodeExhausted,
		errs.WithMessage("no instance available"),
		errs.WithRemediation("give an instance back or raise the allocation ceiling"))
}

// TryGet behaves like Get but reports exhaustion as (zero, false, nil)
// instead of an error, letting callers poll without error-based control
// flow. Factory failures are still returned.
func (p *Pool[T]) TryGet() (T, bool, error) {
	if obj, ok := p.dequeue(); ok {
		p.stats.Gets++
		return obj, true, nil
	}
	if p.max == 0 || p.allocated < p.max {
		obj, err := p.factory.Create()
		if err != nil {
			var zero T
			return zero, false, err
		}
		p.allocated++
		p.stats.Gets++
		p.stats.Creates++
		return obj, true, nil
	}
	p.stats.Exhaustions++
	var zero T
	return zero, false, nil
}

// Give resets the instance and appends it to the available queue. The pool
// does not track ownership: instances allocated elsewhere, or the same
// instance given twice, are accepted and can overfill the pool past its
// allocation ceiling. This is a deliberate escape hatch, not a defect.
func (p *Pool[T]) Give(obj T) {
	obj.Reset()
	p.available = append(p.available, obj)
	if len(p.available) > p.allocated {
		p.stats.Overfills++
	}
}

// Name returns the pool name.
func (p *Pool[T]) Name() string { return p.name }

// Allocated returns the number of instances created through the factory.
// It only ever grows; giving instances back does not decrement it.
func (p *Pool[T]) Allocated() int { return p.allocated }

// Available returns the number of instances currently queued in the pool.
func (p *Pool[T]) Available() int { return len(p.available) }

// MaxAllocations returns the allocation ceiling, zero meaning unbounded.
func (p *Pool[T]) MaxAllocations() int { return p.max }

// Stats returns a copy of the cumulative pool counters.
func (p *Pool[T]) Stats() Stats { return p.stats }

func (p *Pool[T]) dequeue() (T, bool) {
	if len(p.available) == 0 {
		var zero T
		return zero, false
	}
	obj := p.available[0]
	var zero T
	p.available[0] = zero
	p.available = p.available[1:]
	return obj, true
}
