package weapons

import (
	"context"
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/telemetry"
	loggingweapons "arena-shooter/core/logging/weapons"
)

// Trigger is the fire input for one tick. Aim is in radians.
type Trigger struct {
	Held    bool
	Pressed bool
	Aim     float64
}

// Pellet is one projectile direction produced by a shot.
type Pellet struct {
	Angle float64
	DirX  float64
	DirY  float64
}

// FireResult describes what happened on the trigger phase.
type FireResult struct {
	Fired   bool
	Jammed  bool
	Spread  float64
	Pellets []Pellet
}

// wantsToFire resolves the fire mode into a single fire request and arms
// bursts on a rising edge.
func wantsToFire(w Weapon, trig Trigger) bool {
	switch w.Def.FireMode {
	case defs.FireSingle:
		return trig.Pressed
	case defs.FireBurst:
		if trig.Pressed && w.State.BurstRemaining == 0 {
			w.State.BurstRemaining = max(w.Def.BurstCount, 1)
		}
		return w.State.BurstRemaining > 0
	default:
		return trig.Held
	}
}

// Spread is the effective deviation half-angle in degrees.
func (rt *Runtime) Spread(w Weapon, holder Holder) float64 {
	accuracy := holder.Accuracy
	if accuracy <= 0 {
		accuracy = 1
	}
	deviation := (w.Def.DeviationDeg + holder.MoveSpread + w.State.RecoilSpread) / accuracy
	return clamp(deviation, rt.Config.MinSpreadDeg, rt.Config.MaxSpreadDeg)
}

// Trigger runs trigger resolution, gating, spread, jam roll, recoil and
// cooldown for one tick.
func (rt *Runtime) Trigger(ctx context.Context, tick uint64, w Weapon, holder Holder, trig Trigger) FireResult {
	if !w.valid() {
		return FireResult{}
	}
	inst := w.State
	if !wantsToFire(w, trig) {
		return FireResult{}
	}

	if inst.Cooldown > timerEpsilon {
		return FireResult{}
	}
	if inst.Busy() || inst.Magazine <= 0 {
		inst.BurstRemaining = 0
		return FireResult{}
	}

	inst.Magazine--
	rt.count(telemetry.MetricShotsFired)
	rt.play(w.Def.FireSound)

	result := FireResult{Fired: true, Spread: rt.Spread(w, holder)}
	pellets := max(w.Def.Pellets, 1)
	result.Pellets = make([]Pellet, 0, pellets)
	for i := 0; i < pellets; i++ {
		angle := trig.Aim + rt.uniform(result.Spread)*math.Pi/180
		result.Pellets = append(result.Pellets, Pellet{Angle: angle, DirX: math.Cos(angle), DirY: math.Sin(angle)})
	}

	if rt.RNG.Float64() < rt.Config.BaseJamChance+w.Def.JamChance {
		rt.jam(ctx, tick, w, holder)
		result.Jammed = true
	}

	inst.RecoilSpread = math.Min(inst.RecoilSpread+w.Def.Recoil, rt.Config.MaxRecoilSpreadDeg)

	inst.Cooldown = 0
	if w.Def.RPM > 0 {
		inst.Cooldown = 60 / w.Def.RPM
	}
	if w.Def.FireMode == defs.FireBurst && inst.BurstRemaining > 0 {
		inst.BurstRemaining--
		if inst.BurstRemaining > 0 && w.Def.BurstRPM > 0 {
			inst.Cooldown = 60 / w.Def.BurstRPM
		}
	}
	return result
}

func (rt *Runtime) jam(ctx context.Context, tick uint64, w Weapon, holder Holder) {
	inst := w.State
	inst.Jammed = true
	inst.UnjamProgress = 0
	inst.BurstRemaining = 0
	rt.count(telemetry.MetricJams)
	rt.play(w.Def.JamSound)
	rt.hook(ctx, tick, w, holder, hooks.OnJam)
	loggingweapons.Jam(ctx, rt.publisher(), tick, holder.ref(), loggingweapons.WeaponPayload{
		Weapon:   w.Def.Type,
		Magazine: inst.Magazine,
		Reserve:  inst.Reserve,
	})
}
