package observability

import "sync"

// Metrics provides counters, gauges, and histogram recording primitives.
type Metrics interface {
	IncCounter(name string, value float64, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

var defaultMetrics Metrics = noopMetrics{}

// SetMetrics overrides the global metrics implementation used by the library.
func SetMetrics(metrics Metrics) {
	if metrics == nil {
		defaultMetrics = noopMetrics{}
		return
	}
	defaultMetrics = metrics
}

// Telemetry returns the current global metrics collector.
func Telemetry() Metrics {
	return defaultMetrics
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, float64, map[string]string)       {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (noopMetrics) SetGauge(string, float64, map[string]string)         {}

// PoolMetricsSnapshot captures pool-focused runtime counters keyed by pool name.
type PoolMetricsSnapshot struct {
	Gets        map[string]int64 `json:"gets"`
	Creates     map[string]int64 `json:"creates"`
	Exhaustions map[string]int64 `json:"exhaustions"`
	Overfills   map[string]int64 `json:"overfills"`
	Available   map[string]int   `json:"available"`
	Allocated   map[string]int   `json:"allocated"`
}

// RuntimeMetrics accumulates pool metrics in-memory for periodic export. It
// implements Metrics, so it can be installed through SetMetrics to collect
// everything the pools publish.
type RuntimeMetrics struct {
	mu    sync.Mutex
	pools PoolMetricsSnapshot
}

var _ Metrics = (*RuntimeMetrics)(nil)

// NewRuntimeMetrics constructs a metrics accumulator with empty maps.
func NewRuntimeMetrics() *RuntimeMetrics {
	metrics := new(RuntimeMetrics)
	metrics.pools = PoolMetricsSnapshot{
		Gets:        make(map[string]int64),
		Creates:     make(map[string]int64),
		Exhaustions: make(map[string]int64),
		Overfills:   make(map[string]int64),
		Available:   make(map[string]int),
		Allocated:   make(map[string]int),
	}
	return metrics
}

// RecordGet increments the served-instance counter for a pool.
func (m *RuntimeMetrics) RecordGet(pool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools.Gets[pool]++
}

// RecordCreate increments the factory-allocation counter for a pool.
func (m *RuntimeMetrics) RecordCreate(pool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools.Creates[pool]++
}

// RecordExhaustion increments the ceiling-hit counter for a pool.
func (m *RuntimeMetrics) RecordExhaustion(pool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools.Exhaustions[pool]++
}

// RecordOverfill increments the overfill counter for a pool.
func (m *RuntimeMetrics) RecordOverfill(pool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools.Overfills[pool]++
}

// RecordDepth tracks the latest available and allocated counts for a pool.
func (m *RuntimeMetrics) RecordDepth(pool string, available, allocated int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools.Available[pool] = available
	m.pools.Allocated[pool] = allocated
}

// IncCounter folds the library's counter series into the per-pool
// accumulator. Counter names outside the pool set are ignored.
func (m *RuntimeMetrics) IncCounter(name string, value float64, labels map[string]string) {
	pool := labels["pool"]
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case "simpool_gets_total":
		m.pools.Gets[pool] += int64(value)
	case "simpool_creates_total":
		m.pools.Creates[pool] += int64(value)
	case "simpool_exhaustions_total":
		m.pools.Exhaustions[pool] += int64(value)
	case "simpool_overfills_total":
		m.pools.Overfills[pool] += int64(value)
	}
}

// ObserveHistogram satisfies Metrics; the accumulator keeps counters and
// depth gauges only.
func (m *RuntimeMetrics) ObserveHistogram(string, float64, map[string]string) {}

// SetGauge tracks the latest depth gauges per pool.
func (m *RuntimeMetrics) SetGauge(name string, value float64, labels map[string]string) {
	pool := labels["pool"]
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case "simpool_available":
		m.pools.Available[pool] = int(value)
	case "simpool_allocated":
		m.pools.Allocated[pool] = int(value)
	}
}

// Snapshot copies the current pool metrics state for reporting.
func (m *RuntimeMetrics) Snapshot() PoolMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := PoolMetricsSnapshot{
		Gets:        make(map[string]int64, len(m.pools.Gets)),
		Creates:     make(map[string]int64, len(m.pools.Creates)),
		Exhaustions: make(map[string]int64, len(m.pools.Exhaustions)),
		Overfills:   make(map[string]int64, len(m.pools.Overfills)),
		Available:   make(map[string]int, len(m.pools.Available)),
		Allocated:   make(map[string]int, len(m.pools.Allocated)),
	}
	for k, v := range m.pools.Gets {
		snapshot.Gets[k] = v
	}
	for k, v := range m.pools.Creates {
		snapshot.Creates[k] = v
	}
	for k, v := range m.pools.Exhaustions {
		snapshot.Exhaustions[k] = v
	}
	for k, v := range m.pools.Overfills {
		snapshot.Overfills[k] = v
	}
	for k, v := range m.pools.Available {
		snapshot.Available[k] = v
	}
	for k, v := range m.pools.Allocated {
		snapshot.Allocated[k] = v
	}
	return snapshot
}
