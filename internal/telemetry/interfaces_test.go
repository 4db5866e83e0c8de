package telemetry

import (
	"bytes"
	"log"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "arena")
		if got := buf.String(); got != "hello arena\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCountersAddAndStore(t *testing.T) {
	counters := NewCounters()
	counters.Add(MetricKills, 2)
	counters.Store(MetricKills, 5)
	counters.Add(MetricKills, 3)

	if got := counters.Get(MetricKills); got != 8 {
		t.Fatalf("expected kills=8, got %d", got)
	}

	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	if nilCounters.Get("ignored") != 0 {
		t.Fatalf("expected nil counters to read zero")
	}
}

func TestFanoutRecordsIntoEveryBackend(t *testing.T) {
	first := NewCounters()
	second := NewCounters()
	metrics := Fanout{first, nil, second}

	metrics.Add(MetricShotsFired, 4)
	metrics.Store(MetricActiveProjectiles, 9)

	for i, c := range []*Counters{first, second} {
		if c.Get(MetricShotsFired) != 4 || c.Get(MetricActiveProjectiles) != 9 {
			t.Fatalf("backend %d missed measurements: %v", i, c.Snapshot())
		}
	}
}

func TestOTelMetricsReusesInstruments(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	metrics := NewOTelMetrics(meter, "session-1", nil)

	metrics.Add(MetricTicks, 1)
	metrics.Add(MetricTicks, 1)
	metrics.Store(MetricActiveProjectiles, 3)

	if len(metrics.counters) != 1 {
		t.Fatalf("expected one cached counter, got %d", len(metrics.counters))
	}
	if len(metrics.gauges) != 1 {
		t.Fatalf("expected one cached gauge, got %d", len(metrics.gauges))
	}
}
