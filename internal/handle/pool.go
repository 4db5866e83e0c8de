// Package handle implements fixed-capacity arenas addressed by generational
// handles. A handle stays valid only until its slot is released; reuse of the
// slot bumps the generation so stale handles resolve to "not found".
package handle

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolExhausted reports that every slot is live.
	ErrPoolExhausted = errors.New("handle: pool exhausted")
	// ErrStale reports a handle whose slot was released or reused.
	ErrStale = errors.New("handle: stale handle")
)

// Handle identifies a pool slot. The zero Handle is never valid.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.Generation == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "nil"
	}
	return fmt.Sprintf("%d.%d", h.Index, h.Generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Pool is a fixed-capacity arena of T.
type Pool[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// NewPool allocates capacity slots up front.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool[T]{
		slots: make([]slot[T], capacity),
		free:  make([]uint32, 0, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, uint32(i))
	}
	return p
}

// Alloc claims the lowest free slot and returns it zeroed.
func (p *Pool[T]) Alloc() (Handle, *T, error) {
	if len(p.free) == 0 {
		return Handle{}, nil, ErrPoolExhausted
	}
	index := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	s := &p.slots[index]
	var zero T
	s.value = zero
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.live = true
	p.live++
	return Handle{Index: index, Generation: s.generation}, &s.value, nil
}

// Get resolves h. It reports false for the zero handle, released slots and
// handles from an earlier generation.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	if h.IsZero() || int(h.Index) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.Index]
	if !s.live || s.generation != h.Generation {
		return nil, false
	}
	return &s.value, true
}

// Valid reports whether h resolves.
func (p *Pool[T]) Valid(h Handle) bool {
	_, ok := p.Get(h)
	return ok
}

// Release frees the slot behind h.
func (p *Pool[T]) Release(h Handle) error {
	if _, ok := p.Get(h); !ok {
		return ErrStale
	}
	p.slots[h.Index].live = false
	p.live--
	// Keep allocation order stable: lowest index is reused first.
	p.free = append(p.free, h.Index)
	for i := len(p.free) - 1; i > 0 && p.free[i] > p.free[i-1]; i-- {
		p.free[i], p.free[i-1] = p.free[i-1], p.free[i]
	}
	return nil
}

// Each visits live slots in index order until fn returns false. fn may release
// the visited handle.
func (p *Pool[T]) Each(fn func(Handle, *T) bool) {
	for i := range p.slots {
		s := &p.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{Index: uint32(i), Generation: s.generation}, &s.value) {
			return
		}
	}
}

// Handles snapshots the live handles in index order.
func (p *Pool[T]) Handles() []Handle {
	handles := make([]Handle, 0, p.live)
	p.Each(func(h Handle, _ *T) bool {
		handles = append(handles, h)
		return true
	})
	return handles
}

// Len reports the number of live slots.
func (p *Pool[T]) Len() int {
	return p.live
}

// Cap reports the fixed capacity.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}
