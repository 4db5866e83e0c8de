package logging

import (
	"context"
	"errors"
	"log"
	"math/bits"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

var ErrNoSinks = errors.New("logging: no sinks configured")

// Router stamps events on the publishing goroutine and hands a copy to one
// lane per sink. Each lane drains on its own goroutine, so a slow sink only
// ever loses its own events.
type Router struct {
	clock       Clock
	minSeverity Severity
	fields      map[string]any
	warnEvery   time.Duration
	fallback    *log.Logger

	mu     sync.RWMutex
	closed bool
	lanes  []*lane
	wg     sync.WaitGroup

	published atomic.Uint64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
	// Dropped counts queue overflows per sink name.
	Dropped map[string]uint64
}

func NewRouter(clock Clock, cfg Config, namedSinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	depth := cfg.BufferSize
	if depth <= 0 {
		depth = DefaultConfig().BufferSize
	}
	warnEvery := cfg.DropWarnInterval
	if warnEvery <= 0 {
		warnEvery = DefaultConfig().DropWarnInterval
	}
	r := &Router{
		clock:       clock,
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
		warnEvery:   warnEvery,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
	}
	for _, named := range namedSinks {
		if named.Sink == nil {
			continue
		}
		r.lanes = append(r.lanes, &lane{
			name:  named.Name,
			sink:  named.Sink,
			queue: make(chan Event, depth),
		})
	}
	if len(r.lanes) == 0 {
		return nil, ErrNoSinks
	}
	for _, l := range r.lanes {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			l.drain(r.fallback)
		}()
	}
	return r, nil
}

// Publish never blocks. Events below the minimum severity, untyped events and
// events published after Close are ignored.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || event.Severity < r.minSeverity {
		return
	}
	event = r.stamp(event)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.published.Add(1)
	for _, l := range r.lanes {
		if !l.offer(cloneForFields(event)) {
			r.warnDrop(l, event)
		}
	}
}

func (r *Router) stamp(event Event) Event {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	return mergeFields(event, r.fields)
}

func (r *Router) warnDrop(l *lane, event Event) {
	now := time.Now().UnixNano()
	last := l.lastWarn.Load()
	if now-last < r.warnEvery.Nanoseconds() || !l.lastWarn.CompareAndSwap(last, now) {
		return
	}
	r.fallback.Printf("sink %s queue full, dropped %d so far (latest type=%s tick=%d)", l.name, l.dropped.Load(), event.Type, event.Tick)
}

// Close stops accepting events, waits for every lane to drain and then closes
// the sinks. It is safe to call more than once.
func (r *Router) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for _, l := range r.lanes {
		close(l.queue)
	}
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	for _, l := range r.lanes {
		if err := l.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		EventsTotal: r.published.Load(),
		Dropped:     make(map[string]uint64, len(r.lanes)),
	}
	for _, l := range r.lanes {
		n := l.dropped.Load()
		stats.Dropped[l.name] = n
		stats.DroppedTotal += n
	}
	return stats
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, l := range r.lanes {
		if l.name == name {
			return l.sink
		}
	}
	return nil
}

type lane struct {
	name  string
	sink  Sink
	queue chan Event

	dropped  atomic.Uint64
	lastWarn atomic.Int64
	failures uint64
}

func (l *lane) offer(event Event) bool {
	select {
	case l.queue <- event:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

func (l *lane) drain(fallback *log.Logger) {
	for event := range l.queue {
		if err := l.sink.Write(event); err != nil {
			l.failures++
			// Report the 1st, 2nd, 4th, 8th... consecutive failure.
			if bits.OnesCount64(l.failures) == 1 {
				fallback.Printf("sink %s write failed (%d in a row): %v", l.name, l.failures, err)
			}
			continue
		}
		l.failures = 0
	}
}
