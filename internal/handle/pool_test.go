package handle

import (
	"errors"
	"testing"
)

type payload struct {
	value int
}

func TestPoolAllocGetRelease(t *testing.T) {
	pool := NewPool[payload](2)

	h, p, err := pool.Alloc()
	if err != nil {
		t.Fatalf("unexpected alloc error: %v", err)
	}
	p.value = 7

	got, ok := pool.Get(h)
	if !ok || got.value != 7 {
		t.Fatalf("expected to resolve handle %s with value 7, got %+v ok=%v", h, got, ok)
	}

	if err := pool.Release(h); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if _, ok := pool.Get(h); ok {
		t.Fatalf("expected released handle to miss")
	}
	if err := pool.Release(h); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale on double release, got %v", err)
	}
}

func TestPoolReuseBumpsGeneration(t *testing.T) {
	pool := NewPool[payload](1)

	first, _, _ := pool.Alloc()
	if err := pool.Release(first); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	second, p, err := pool.Alloc()
	if err != nil {
		t.Fatalf("realloc failed: %v", err)
	}
	if second.Index != first.Index {
		t.Fatalf("expected slot reuse, got index %d vs %d", second.Index, first.Index)
	}
	if second.Generation != first.Generation+1 {
		t.Fatalf("expected generation bump, got %d after %d", second.Generation, first.Generation)
	}
	if p.value != 0 {
		t.Fatalf("expected reused slot to be zeroed")
	}
	if _, ok := pool.Get(first); ok {
		t.Fatalf("stale handle resolved after slot reuse")
	}
}

func TestPoolExhaustion(t *testing.T) {
	pool := NewPool[payload](1)
	if _, _, err := pool.Alloc(); err != nil {
		t.Fatalf("first alloc failed: %v", err)
	}
	if _, _, err := pool.Alloc(); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestPoolZeroHandleNeverResolves(t *testing.T) {
	pool := NewPool[payload](1)
	pool.Alloc()
	if _, ok := pool.Get(Handle{}); ok {
		t.Fatalf("zero handle resolved")
	}
}

func TestPoolEachVisitsInIndexOrderAndReusesLowestSlot(t *testing.T) {
	pool := NewPool[payload](4)
	var handles []Handle
	for i := 0; i < 4; i++ {
		h, p, _ := pool.Alloc()
		p.value = i
		handles = append(handles, h)
	}
	pool.Release(handles[2])
	pool.Release(handles[1])

	var seen []int
	pool.Each(func(_ Handle, p *payload) bool {
		seen = append(seen, p.value)
		return true
	})
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 3 {
		t.Fatalf("unexpected iteration order: %v", seen)
	}

	h, _, _ := pool.Alloc()
	if h.Index != 1 {
		t.Fatalf("expected lowest free slot 1 to be reused, got %d", h.Index)
	}
	if pool.Len() != 3 || pool.Cap() != 4 {
		t.Fatalf("unexpected len/cap %d/%d", pool.Len(), pool.Cap())
	}
}
