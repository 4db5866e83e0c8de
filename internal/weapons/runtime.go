package weapons

import (
	"context"
	"math/rand"

	"arena-shooter/core/internal/audio"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
)

const (
	minWindowSize = 0.02
	maxWindowSize = 0.9
	// Timers below this are treated as elapsed.
	timerEpsilon = 1e-9
)

// Config holds the global weapon tuning shared by every definition.
type Config struct {
	BaseJamChance      float64
	MinSpreadDeg       float64
	MaxSpreadDeg       float64
	MaxRecoilSpreadDeg float64
	UnjamIncrement     float64
}

func DefaultConfig() Config {
	return Config{
		MaxSpreadDeg:       45,
		MaxRecoilSpreadDeg: 20,
		UnjamIncrement:     0.2,
	}
}

// Runtime carries the collaborators weapon operations report to. The RNG is
// the simulation's generator; weapon code never creates its own.
type Runtime struct {
	Config    Config
	RNG       *rand.Rand
	Hooks     *hooks.Registry
	Audio     audio.Sink
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// Holder describes the entity operating a weapon this tick.
type Holder struct {
	Entity     handle.Handle
	Kind       logging.EntityKind
	X, Y       float64
	Accuracy   float64
	MoveSpread float64
}

func (h Holder) ref() logging.EntityRef {
	return logging.EntityRef{ID: h.Entity.String(), Kind: h.Kind}
}

func (rt *Runtime) play(key string) {
	if rt.Audio != nil && key != "" {
		rt.Audio.Play(key)
	}
}

func (rt *Runtime) count(key string) {
	if rt.Metrics != nil {
		rt.Metrics.Add(key, 1)
	}
}

func (rt *Runtime) publisher() logging.Publisher {
	if rt.Publisher == nil {
		return logging.NopPublisher()
	}
	return rt.Publisher
}

func (rt *Runtime) hook(ctx context.Context, tick uint64, w Weapon, holder Holder, event hooks.Event) {
	if rt.Hooks == nil {
		return
	}
	rt.Hooks.Invoke(ctx, hooks.Call{
		Key:     hooks.Key{Kind: defs.KindWeapon, Type: w.Def.Type, Event: event},
		Tick:    tick,
		Owner:   holder.Entity,
		Subject: w.Handle,
	})
}

// uniform draws from [-span, span].
func (rt *Runtime) uniform(span float64) float64 {
	return (rt.RNG.Float64()*2 - 1) * span
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
