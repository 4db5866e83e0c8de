// Package hooks dispatches scripted callbacks attached to definitions.
//
// Callbacks are indexed by (definition kind, definition type, event) and run
// behind a recover boundary: a failing callback is logged and counted, and
// the tick carries on.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
	loggingsimulation "arena-shooter/core/logging/simulation"
)

// ErrHookPanic wraps a value recovered from a panicking callback.
var ErrHookPanic = errors.New("hooks: callback panicked")

type Event string

const (
	OnStep               Event = "on_step"
	OnTick               Event = "on_tick"
	OnJam                Event = "on_jam"
	OnPickup             Event = "on_pickup"
	OnDrop               Event = "on_drop"
	OnActiveReload       Event = "on_active_reload"
	OnFailedActiveReload Event = "on_failed_active_reload"
	OnTriedAfterFailedAR Event = "on_tried_after_failed_ar"
	OnDamage             Event = "on_damage"
	OnDeath              Event = "on_death"
	OnHPUnder50          Event = "on_hp_under_50"
	OnHPUnder25          Event = "on_hp_under_25"
	OnHPFull             Event = "on_hp_full"
	OnShieldUnder50      Event = "on_shield_under_50"
	OnShieldUnder25      Event = "on_shield_under_25"
	OnShieldFull         Event = "on_shield_full"
	OnPlatesLost         Event = "on_plates_lost"
	OnCollideTile        Event = "on_collide_tile"
	OnCrateOpen          Event = "on_crate_open"
	OnDash               Event = "on_dash"
	OnUse                Event = "on_use"
)

// Key addresses one callback.
type Key struct {
	Kind  defs.Kind
	Type  string
	Event Event
}

// Call is the argument passed to a callback. Owner is the entity involved,
// Subject the weapon or item the definition describes, Source the other
// party (attacker for damage events). Unused handles are zero.
type Call struct {
	Key
	Tick    uint64
	Owner   handle.Handle
	Subject handle.Handle
	Source  handle.Handle
	Amount  float64
}

// Callback returns an optional message; only on_use reads it.
type Callback func(ctx context.Context, call Call) (string, error)

type Deps struct {
	Logger    telemetry.Logger
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

type Registry struct {
	callbacks map[Key]Callback
	deps      Deps
}

func NewRegistry(deps Deps) *Registry {
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics()
	}
	return &Registry{callbacks: make(map[Key]Callback), deps: deps}
}

// Register binds cb to (kind, typ, event), replacing any previous binding.
// A nil cb removes the binding.
func (r *Registry) Register(kind defs.Kind, typ string, event Event, cb Callback) {
	key := Key{Kind: kind, Type: typ, Event: event}
	if cb == nil {
		delete(r.callbacks, key)
		return
	}
	r.callbacks[key] = cb
}

func (r *Registry) Has(kind defs.Kind, typ string, event Event) bool {
	if r == nil {
		return false
	}
	_, ok := r.callbacks[Key{Kind: kind, Type: typ, Event: event}]
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.callbacks)
}

// Invoke runs the callback bound to call.Key. It reports false when no
// callback is bound or the callback failed.
func (r *Registry) Invoke(ctx context.Context, call Call) (string, bool) {
	if r == nil {
		return "", false
	}
	cb, ok := r.callbacks[call.Key]
	if !ok {
		return "", false
	}
	result, err := run(ctx, cb, call)
	if err != nil {
		r.fail(ctx, call, err)
		return "", false
	}
	return result, true
}

func run(ctx context.Context, cb Callback, call Call) (result string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = ""
			err = fmt.Errorf("%w: %v", ErrHookPanic, recovered)
		}
	}()
	return cb(ctx, call)
}

func (r *Registry) fail(ctx context.Context, call Call, err error) {
	if r.deps.Logger != nil {
		r.deps.Logger.Printf("[hooks] %s %s %s failed: %v", call.Kind, call.Type, call.Event, err)
	}
	r.deps.Metrics.Add(telemetry.MetricHookFailures, 1)
	loggingsimulation.HookFailure(ctx, r.deps.Publisher, call.Tick, loggingsimulation.HookFailurePayload{
		Kind:  string(call.Kind),
		Type:  call.Type,
		Hook:  string(call.Event),
		Error: err.Error(),
	})
}
