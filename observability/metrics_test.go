package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestRuntimeMetricsAccumulatesAndSnapshots(t *testing.T) {
	m := NewRuntimeMetrics()
	m.RecordGet("frames")
	m.RecordGet("frames")
	m.RecordCreate("frames")
	m.RecordExhaustion("frames")
	m.RecordOverfill("frames")
	m.RecordDepth("frames", 3, 5)

	snap := m.Snapshot()
	if snap.Gets["frames"] != 2 {
		t.Fatalf("expected 2 gets, got %d", snap.Gets["frames"])
	}
	if snap.Creates["frames"] != 1 || snap.Exhaustions["frames"] != 1 || snap.Overfills["frames"] != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.Available["frames"] != 3 || snap.Allocated["frames"] != 5 {
		t.Fatalf("unexpected depth: %+v", snap)
	}

	// Snapshot must be a copy, not a view.
	snap.Gets["frames"] = 99
	if got := m.Snapshot().Gets["frames"]; got != 2 {
		t.Fatalf("expected snapshot isolation, got %d", got)
	}
}

func TestRuntimeMetricsServesAsGlobalCollector(t *testing.T) {
	m := NewRuntimeMetrics()
	SetMetrics(m)
	t.Cleanup(func() { SetMetrics(nil) })

	labels := map[string]string{"pool": "frames"}
	sink := Telemetry()
	sink.IncCounter("simpool_gets_total", 2, labels)
	sink.IncCounter("simpool_creates_total", 1, labels)
	sink.IncCounter("simpool_exhaustions_total", 1, labels)
	sink.IncCounter("simpool_overfills_total", 1, labels)
	sink.IncCounter("simpool_gives_total", 5, labels) // outside the snapshot set
	sink.ObserveHistogram("simpool_wait_seconds", 0.5, labels)
	sink.SetGauge("simpool_available", 3, labels)
	sink.SetGauge("simpool_allocated", 5, labels)

	snap := m.Snapshot()
	if snap.Gets["frames"] != 2 || snap.Creates["frames"] != 1 {
		t.Fatalf("unexpected get/create counters: %+v", snap)
	}
	if snap.Exhaustions["frames"] != 1 || snap.Overfills["frames"] != 1 {
		t.Fatalf("unexpected exhaustion/overfill counters: %+v", snap)
	}
	if snap.Available["frames"] != 3 || snap.Allocated["frames"] != 5 {
		t.Fatalf("unexpected depth: %+v", snap)
	}
}

func TestEncodeJSONSkipsHTMLEscapingAndTrailingNewline(t *testing.T) {
	data, err := EncodeJSON(map[string]string{"endpoint": "/pools?name=<frames>"})
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	if strings.Contains(string(data), "\\u003c") {
		t.Fatalf("expected no HTML escaping, got %s", data)
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		t.Fatalf("expected trailing newline to be trimmed")
	}
}

func TestWriteJSONSnapshot(t *testing.T) {
	m := NewRuntimeMetrics()
	m.RecordGet("frames")
	var buf bytes.Buffer
	if err := WriteJSON(&buf, m.Snapshot()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), "\"gets\":{\"frames\":1}") {
		t.Fatalf("unexpected payload: %s", buf.String())
	}
}

func TestSetLoggerAndMetricsNilRestoresNoop(t *testing.T) {
	SetLogger(nil)
	Log().Info("noop")
	SetMetrics(nil)
	Telemetry().IncCounter("noop", 1, nil)
}
