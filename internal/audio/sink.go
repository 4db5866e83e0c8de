// Package audio is the fire-and-forget sound output of the simulation.
package audio

import "sync"

//go:generate go tool mockgen -destination=./mocks/sink_mock.go -package=mocks . Sink

// Sink plays a sound by key. Implementations must not block the tick.
type Sink interface {
	Play(key string)
}

// Nop discards every sound.
type Nop struct{}

func (Nop) Play(string) {}

// Recorder keeps the keys it was asked to play, in order.
type Recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *Recorder) Play(key string) {
	if r == nil || key == "" {
		return
	}
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.keys = nil
	r.mu.Unlock()
}

// Fanout plays every key on each sink.
type Fanout []Sink

func (f Fanout) Play(key string) {
	for _, sink := range f {
		if sink != nil {
			sink.Play(key)
		}
	}
}
