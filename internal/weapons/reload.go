package weapons

import (
	"context"
	"math"

	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/telemetry"
	loggingweapons "arena-shooter/core/logging/weapons"
)

// ReloadOutcome is the result of a reload input or of passive progression.
type ReloadOutcome uint8

const (
	ReloadNone ReloadOutcome = iota
	ReloadStarted
	ReloadCompleted
	ActiveReloadSuccess
	ActiveReloadFailed
	ActiveReloadTriedAfterFailed
)

// Reload handles a reload-input rising edge. While reloading it plays the
// active-reload mini-game; otherwise it starts a reload when there is
// reserve ammo and room in the magazine. Jammed weapons ignore it.
func (rt *Runtime) Reload(ctx context.Context, tick uint64, w Weapon, holder Holder) ReloadOutcome {
	if !w.valid() {
		return ReloadNone
	}
	inst := w.State
	if inst.Jammed {
		return ReloadNone
	}
	if inst.Reloading {
		return rt.activeReload(ctx, tick, w, holder)
	}
	if inst.Reserve <= 0 || inst.Magazine >= w.Def.MagazineSize {
		return ReloadNone
	}
	rt.startReload(ctx, tick, w, holder)
	return ReloadStarted
}

func (rt *Runtime) activeReload(ctx context.Context, tick uint64, w Weapon, holder Holder) ReloadOutcome {
	inst := w.State
	switch {
	case inst.ARConsumed && inst.ARFailed:
		rt.hook(ctx, tick, w, holder, hooks.OnTriedAfterFailedAR)
		rt.publishActiveReload(ctx, tick, w, holder, loggingweapons.ActiveReloadAfterFailed)
		return ActiveReloadTriedAfterFailed
	case inst.ARConsumed:
		return ReloadNone
	case inst.Progress >= inst.WindowStart && inst.Progress <= inst.WindowEnd:
		inst.ARConsumed = true
		rt.publishActiveReload(ctx, tick, w, holder, loggingweapons.ActiveReloadSuccess)
		rt.completeReload(ctx, tick, w, holder)
		rt.count(telemetry.MetricActiveReloadSuccess)
		rt.hook(ctx, tick, w, holder, hooks.OnActiveReload)
		return ActiveReloadSuccess
	default:
		inst.ARConsumed = true
		inst.ARFailed = true
		rt.count(telemetry.MetricActiveReloadFailed)
		rt.hook(ctx, tick, w, holder, hooks.OnFailedActiveReload)
		rt.publishActiveReload(ctx, tick, w, holder, loggingweapons.ActiveReloadFailed)
		return ActiveReloadFailed
	}
}

// startReload empties the magazine and rolls a fresh active-reload window.
func (rt *Runtime) startReload(ctx context.Context, tick uint64, w Weapon, holder Holder) {
	inst := w.State
	inst.Magazine = 0
	inst.Reloading = true
	inst.Progress = 0
	inst.EjectRemaining = math.Max(w.Def.EjectTime, 0)
	inst.ReloadTotal = w.Def.ReloadTime
	inst.BurstRemaining = 0
	inst.ARConsumed = false
	inst.ARFailed = false

	window := w.Def.ActiveReload
	center := clamp(window.Pos+rt.uniform(window.PosVariance), 0, 1)
	size := clamp(window.Size+rt.uniform(window.SizeVariance), minWindowSize, maxWindowSize)
	inst.WindowStart = clamp(center-size/2, 0, 1)
	inst.WindowEnd = clamp(center+size/2, 0, 1)

	rt.play(w.Def.ReloadSound)
	loggingweapons.ReloadStarted(ctx, rt.publisher(), tick, holder.ref(), loggingweapons.ReloadPayload{
		Weapon:      w.Def.Type,
		WindowStart: inst.WindowStart,
		WindowEnd:   inst.WindowEnd,
		Magazine:    inst.Magazine,
		Reserve:     inst.Reserve,
	})
}

// completeReload moves rounds from reserve into the magazine and clears all
// reload and burst state.
func (rt *Runtime) completeReload(ctx context.Context, tick uint64, w Weapon, holder Holder) {
	inst := w.State
	take := min(max(w.Def.MagazineSize-inst.Magazine, 0), inst.Reserve)
	inst.Magazine += take
	inst.Reserve -= take
	inst.Reloading = false
	inst.Progress = 0
	inst.EjectRemaining = 0
	inst.BurstRemaining = 0

	loggingweapons.ReloadCompleted(ctx, rt.publisher(), tick, holder.ref(), loggingweapons.ReloadPayload{
		Weapon:   w.Def.Type,
		Magazine: inst.Magazine,
		Reserve:  inst.Reserve,
	})
}

// Progress advances the weapon's timers by dt: cooldown, recoil decay and
// passive reload progression. The eject timer drains before progress moves.
func (rt *Runtime) Progress(ctx context.Context, tick uint64, w Weapon, holder Holder, dt float64) ReloadOutcome {
	if !w.valid() || dt <= 0 {
		return ReloadNone
	}
	inst := w.State

	inst.Cooldown = math.Max(inst.Cooldown-dt, 0)
	if inst.Cooldown <= timerEpsilon {
		inst.Cooldown = 0
	}
	inst.RecoilSpread = math.Max(inst.RecoilSpread-w.Def.Control*dt, 0)

	if !inst.Reloading {
		return ReloadNone
	}
	if inst.EjectRemaining > 0 {
		inst.EjectRemaining = math.Max(inst.EjectRemaining-dt, 0)
		if inst.EjectRemaining <= timerEpsilon {
			inst.EjectRemaining = 0
		}
		return ReloadNone
	}
	if inst.ReloadTotal <= 0 {
		inst.Progress = 1
	} else {
		inst.Progress += dt / inst.ReloadTotal
	}
	if inst.Progress >= 1-timerEpsilon {
		rt.completeReload(ctx, tick, w, holder)
		return ReloadCompleted
	}
	return ReloadNone
}

// Unjam applies one "use" press to a jammed weapon. Clearing the jam starts
// a reload when reserve ammo remains. It reports whether the jam cleared.
func (rt *Runtime) Unjam(ctx context.Context, tick uint64, w Weapon, holder Holder) bool {
	if !w.valid() || !w.State.Jammed {
		return false
	}
	inst := w.State
	inst.UnjamProgress += rt.Config.UnjamIncrement
	if inst.UnjamProgress < 1-timerEpsilon {
		return false
	}
	inst.Jammed = false
	inst.UnjamProgress = 0

	outOfAmmo := inst.Reserve <= 0
	loggingweapons.Unjam(ctx, rt.publisher(), tick, holder.ref(), loggingweapons.UnjamPayload{
		Weapon:    w.Def.Type,
		OutOfAmmo: outOfAmmo,
	})
	if !outOfAmmo {
		rt.startReload(ctx, tick, w, holder)
	}
	return true
}

func (rt *Runtime) publishActiveReload(ctx context.Context, tick uint64, w Weapon, holder Holder, outcome string) {
	inst := w.State
	loggingweapons.ActiveReload(ctx, rt.publisher(), tick, holder.ref(), loggingweapons.ReloadPayload{
		Weapon:      w.Def.Type,
		WindowStart: inst.WindowStart,
		WindowEnd:   inst.WindowEnd,
		Progress:    inst.Progress,
		Outcome:     outcome,
		Magazine:    inst.Magazine,
		Reserve:     inst.Reserve,
	})
}
