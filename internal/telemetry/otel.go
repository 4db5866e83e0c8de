package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "arena-shooter/core/internal/telemetry"

// OTelMetrics records measurements through OpenTelemetry instruments. Add
// feeds an Int64Counter and Store feeds an Int64Gauge, one per key.
type OTelMetrics struct {
	meter metric.Meter
	attrs metric.MeasurementOption
	log   Logger

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
	gauges   map[string]metric.Int64Gauge
}

// NewOTelMetrics wraps meter. A nil meter uses the global provider, which is a
// no-op until one is installed.
func NewOTelMetrics(meter metric.Meter, session string, logger Logger) *OTelMetrics {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	return &OTelMetrics{
		meter:    meter,
		attrs:    metric.WithAttributes(attribute.String("session", session)),
		log:      logger,
		counters: make(map[string]metric.Int64Counter),
		gauges:   make(map[string]metric.Int64Gauge),
	}
}

func (m *OTelMetrics) Add(key string, delta uint64) {
	counter, err := m.counter(key)
	if err != nil {
		m.report(err)
		return
	}
	counter.Add(context.Background(), int64(delta), m.attrs)
}

func (m *OTelMetrics) Store(key string, value uint64) {
	gauge, err := m.gauge(key)
	if err != nil {
		m.report(err)
		return
	}
	gauge.Record(context.Background(), int64(value), m.attrs)
}

func (m *OTelMetrics) counter(key string) (metric.Int64Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if counter, ok := m.counters[key]; ok {
		return counter, nil
	}
	counter, err := m.meter.Int64Counter(
		"arena."+key,
		metric.WithDescription(fmt.Sprintf("Total %s recorded by the simulation", key)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating counter %s: %w", key, err)
	}
	m.counters[key] = counter
	return counter, nil
}

func (m *OTelMetrics) gauge(key string) (metric.Int64Gauge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gauge, ok := m.gauges[key]; ok {
		return gauge, nil
	}
	gauge, err := m.meter.Int64Gauge(
		"arena."+key,
		metric.WithDescription(fmt.Sprintf("Current %s in the simulation", key)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gauge %s: %w", key, err)
	}
	m.gauges[key] = gauge
	return gauge, nil
}

func (m *OTelMetrics) report(err error) {
	if m.log != nil {
		m.log.Printf("telemetry: %v", err)
	}
}
