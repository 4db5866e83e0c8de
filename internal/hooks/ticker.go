package hooks

import (
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
)

// DefaultIterationCap bounds scripted tick iterations per simulation tick.
const DefaultIterationCap = 4000

// Owner identifies one rate-limited on_tick schedule.
type Owner struct {
	Kind   defs.Kind
	Type   string
	Handle handle.Handle
}

// Ticker converts a definition's tick rate into a number of on_tick calls
// per simulation step. All owners draw from one shared budget per step.
type Ticker struct {
	cap     int
	budget  int
	capHit  bool
	accum   map[Owner]float64
	touched map[Owner]bool
}

func NewTicker(iterationCap int) *Ticker {
	if iterationCap <= 0 {
		iterationCap = DefaultIterationCap
	}
	return &Ticker{
		cap:     iterationCap,
		budget:  iterationCap,
		accum:   make(map[Owner]float64),
		touched: make(map[Owner]bool),
	}
}

// Begin resets the shared budget. Call once at the start of a step.
func (t *Ticker) Begin() {
	t.budget = t.cap
	t.capHit = false
	clear(t.touched)
}

// Run accumulates dt for owner and calls fn once per elapsed 1/rateHz.
// When the shared budget runs out the owner's backlog is discarded and
// capped is true.
func (t *Ticker) Run(owner Owner, rateHz, dt float64, fn func()) (ran int, capped bool) {
	t.touched[owner] = true
	if rateHz <= 0 || dt <= 0 {
		return 0, false
	}
	period := 1 / rateHz
	acc := t.accum[owner] + dt
	for acc >= period {
		if t.budget <= 0 {
			acc = 0
			capped = true
			t.capHit = true
			break
		}
		t.budget--
		acc -= period
		fn()
		ran++
	}
	t.accum[owner] = acc
	return ran, capped
}

// CapHit reports whether any owner hit the budget since Begin.
func (t *Ticker) CapHit() bool {
	return t.capHit
}

// End forgets owners that were not visited since Begin so despawned owners
// do not leak accumulators.
func (t *Ticker) End() {
	for owner := range t.accum {
		if !t.touched[owner] {
			delete(t.accum, owner)
		}
	}
}

func (t *Ticker) Pending(owner Owner) float64 {
	return t.accum[owner]
}
