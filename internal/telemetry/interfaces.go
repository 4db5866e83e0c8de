package telemetry

import (
	"log"
	"sort"
	"sync"
)

// Logger exposes the logging capabilities required by simulation components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// Metrics exposes the counters and gauges recorded by the simulation.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// Counter keys recorded by the simulation.
const (
	MetricShotsFired          = "shots_fired"
	MetricProjectilesSpawned  = "projectiles_spawned"
	MetricProjectileHits      = "projectile_hits"
	MetricTileHits            = "tile_hits"
	MetricKills               = "kills"
	MetricPlayerDeaths        = "player_deaths"
	MetricJams                = "jams"
	MetricActiveReloadSuccess = "active_reload_success"
	MetricActiveReloadFailed  = "active_reload_failed"
	MetricLootDrops           = "loot_drops"
	MetricHookFailures        = "hook_failures"
	MetricPoolExhausted       = "pool_exhausted"
	MetricTicks               = "ticks"
	MetricTicksDropped        = "ticks_dropped"
	MetricActiveProjectiles   = "active_projectiles"
)

// Counters is an in-memory Metrics implementation.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]uint64)
	}
	c.values[key] += delta
}

func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]uint64)
	}
	c.values[key] = value
}

func (c *Counters) Get(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		copied[k] = v
	}
	return copied
}

// Keys lists recorded keys in sorted order.
func (c *Counters) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fanout records into every wrapped Metrics.
type Fanout []Metrics

func (f Fanout) Add(key string, delta uint64) {
	for _, m := range f {
		if m != nil {
			m.Add(key, delta)
		}
	}
}

func (f Fanout) Store(key string, value uint64) {
	for _, m := range f {
		if m != nil {
			m.Store(key, value)
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

// NopMetrics discards every measurement.
func NopMetrics() Metrics {
	return nopMetrics{}
}
