package pool

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/coachpo/simpool/errs"
	"github.com/coachpo/simpool/observability"
)

// exhaustion warnings are throttled so hot polling loops cannot flood logs.
var exhaustionWarnRate = rate.Every(time.Second)

// SyncPool wraps Pool with mutual exclusion, making the same Get/TryGet/Give
// surface safe for concurrent use. It reports pool activity through the
// global observability hooks.
type SyncPool[T Poolable] struct {
	mu          sync.Mutex
	inner       *Pool[T]
	warnLimiter *rate.Limiter
	reported    Stats
}

// NewSync constructs a concurrency-safe pool with the same construction
// semantics as New.
func NewSync[T Poolable](factory Factory[T], opts ...Option) (*SyncPool[T], error) {
	inner, err := New(factory, opts...)
	if err != nil {
		return nil, err
	}
	sp := new(SyncPool[T])
	sp.inner = inner
	sp.warnLimiter = rate.NewLimiter(exhaustionWarnRate, 1)
	return sp, nil
}

// Get returns an available instance, creating one under the allocation
// ceiling, or fails with errs.CodeExhausted.
func (p *SyncPool[T]) Get() (T, error) {
	p.mu.Lock()
	obj, err := p.inner.Get()
	p.report()
	p.mu.Unlock()
	if err != nil {
		if errs.IsExhausted(err) {
			p.warnExhausted(err)
		}
		return obj, err
	}
	observability.Telemetry().IncCounter("simpool_gets_total", 1, p.labels())
	return obj, nil
}

// TryGet behaves like Get but reports exhaustion as a false ok instead of an
// error.
func (p *SyncPool[T]) TryGet() (T, bool, error) {
	p.mu.Lock()
	obj, ok, err := p.inner.TryGet()
	p.report()
	p.mu.Unlock()
	if ok {
		observability.Telemetry().IncCounter("simpool_gets_total", 1, p.labels())
	}
	return obj, ok, err
}

// Give resets the instance and returns it to the pool. Ownership is not
// tracked; overfilling is permitted exactly as with Pool.
func (p *SyncPool[T]) Give(obj T) {
	p.mu.Lock()
	p.inner.Give(obj)
	p.report()
	p.mu.Unlock()
	observability.Telemetry().IncCounter("simpool_gives_total", 1, p.labels())
}

// Name returns the pool name.
func (p *SyncPool[T]) Name() string { return p.inner.Name() }

// Allocated returns the number of instances created through the factory.
func (p *SyncPool[T]) Allocated() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.Allocated()
}

// Available returns the number of instances currently queued in the pool.
func (p *SyncPool[T]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.Available()
}

// MaxAllocations returns the allocation ceiling, zero meaning unbounded.
func (p *SyncPool[T]) MaxAllocations() int { return p.inner.MaxAllocations() }

// Stats returns a copy of the cumulative pool counters.
func (p *SyncPool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.Stats()
}

func (p *SyncPool[T]) labels() map[string]string {
	return map[string]string{"pool": p.inner.Name()}
}

// report publishes queue depth gauges and any counter increments since the
// previous call; callers must hold the mutex.
func (p *SyncPool[T]) report() {
	metrics := observability.Telemetry()
	metrics.SetGauge("simpool_available", float64(p.inner.Available()), p.labels())
	metrics.SetGauge("simpool_allocated", float64(p.inner.Allocated()), p.labels())
	stats := p.inner.Stats()
	if d := stats.Creates - p.reported.Creates; d > 0 {
		metrics.IncCounter("simpool_creates_total", float64(d), p.labels())
	}
	if d := stats.Overfills - p.reported.Overfills; d > 0 {
		metrics.IncCounter("simpool_overfills_total", float64(d), p.labels())
	}
	p.reported = stats
}

func (p *SyncPool[T]) warnExhausted(err error) {
	if !p.warnLimiter.Allow() {
		return
	}
	observability.Log().Warn("pool exhausted",
		observability.Field{Key: "pool", Value: p.inner.Name()},
		observability.Field{Key: "error", Value: err.Error()},
	)
	observability.Telemetry().IncCounter("simpool_exhaustions_total", 1, p.labels())
}
