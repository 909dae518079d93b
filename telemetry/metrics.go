package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	apimetric "go.opentelemetry.io/otel/metric"

	"github.com/coachpo/simpool/observability"
)

const meterName = "github.com/coachpo/simpool"

// Metrics bridges the observability.Metrics interface onto OpenTelemetry
// instruments, caching instruments per metric name.
type Metrics struct {
	meter apimetric.Meter

	mu         sync.Mutex
	counters   map[string]apimetric.Float64Counter
	gauges     map[string]apimetric.Float64Gauge
	histograms map[string]apimetric.Float64Histogram
}

// NewMetrics constructs a Metrics bridge backed by the provided meter
// provider.
func NewMetrics(provider apimetric.MeterProvider) *Metrics {
	return &Metrics{
		meter:      provider.Meter(meterName),
		mu:         sync.Mutex{},
		counters:   make(map[string]apimetric.Float64Counter),
		gauges:     make(map[string]apimetric.Float64Gauge),
		histograms: make(map[string]apimetric.Float64Histogram),
	}
}

// IncCounter adds value to the named counter.
func (m *Metrics) IncCounter(name string, value float64, labels map[string]string) {
	counter, err := m.counter(name)
	if err != nil {
		return
	}
	counter.Add(context.Background(), value, apimetric.WithAttributes(attrs(labels)...))
}

// SetGauge records the latest value for the named gauge.
func (m *Metrics) SetGauge(name string, value float64, labels map[string]string) {
	gauge, err := m.gauge(name)
	if err != nil {
		return
	}
	gauge.Record(context.Background(), value, apimetric.WithAttributes(attrs(labels)...))
}

// ObserveHistogram records value into the named histogram.
func (m *Metrics) ObserveHistogram(name string, value float64, labels map[string]string) {
	histogram, err := m.histogram(name)
	if err != nil {
		return
	}
	histogram.Record(context.Background(), value, apimetric.WithAttributes(attrs(labels)...))
}

func (m *Metrics) counter(name string) (apimetric.Float64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, ok := m.counters[name]; ok {
		return counter, nil
	}
	counter, err := m.meter.Float64Counter(name)
	if err != nil {
		return nil, err
	}
	m.counters[name] = counter
	return counter, nil
}

func (m *Metrics) gauge(name string) (apimetric.Float64Gauge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gauge, ok := m.gauges[name]; ok {
		return gauge, nil
	}
	gauge, err := m.meter.Float64Gauge(name)
	if err != nil {
		return nil, err
	}
	m.gauges[name] = gauge
	return gauge, nil
}

func (m *Metrics) histogram(name string) (apimetric.Float64Histogram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if histogram, ok := m.histograms[name]; ok {
		return histogram, nil
	}
	histogram, err := m.meter.Float64Histogram(name)
	if err != nil {
		return nil, err
	}
	m.histograms[name] = histogram
	return histogram, nil
}

func attrs(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		out = append(out, attribute.String(k, v))
	}
	return out
}

var _ observability.Metrics = (*Metrics)(nil)
