package app

import (
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/sim"
)

const (
	engageRange  = 320
	strafePeriod = 90
	pickupEvery  = 20
	dashEvery    = 240
)

// pilot plays the demo player: it engages the nearest NPC, strafes, keeps
// its weapon running and heads for the exit once the stage is empty.
type pilot struct {
	sim  *sim.Simulation
	self handle.Handle

	exitX, exitY float64
	hasExit      bool
}

func newPilot(s *sim.Simulation, self handle.Handle) *pilot {
	p := &pilot{sim: s, self: self}
	p.exitX, p.exitY, p.hasExit = exitCenter(s.Grid())
	return p
}

func (p *pilot) inputs(tick uint64) map[handle.Handle]sim.Input {
	e, ok := p.sim.Entity(p.self)
	if !ok || !e.Active {
		return nil
	}
	in := sim.Input{
		AimX:   e.AimX,
		AimY:   e.AimY,
		Pickup: tick%pickupEvery == 0,
	}

	target, engaged := p.nearestNPC(e)
	switch {
	case engaged:
		in.AimX, in.AimY = target.X, target.Y
		dist := math.Hypot(target.X-e.X, target.Y-e.Y)
		if dist > engageRange {
			in.MoveX, in.MoveY = toward(e, target.X, target.Y)
		} else {
			in.MoveY = strafe(tick)
			p.operateWeapon(e, tick, &in)
		}
		in.Dash = tick%dashEvery == 0
	case p.hasExit:
		in.MoveX, in.MoveY = toward(e, p.exitX, p.exitY)
		in.Reload = tick%2 == 0
	}
	return map[handle.Handle]sim.Input{p.self: in}
}

// operateWeapon clears jams, reloads when empty, attempts the active reload
// window and otherwise fires.
func (p *pilot) operateWeapon(e *entity.Entity, tick uint64, in *sim.Input) {
	inst, ok := p.sim.Weapon(e.Weapon)
	if !ok {
		return
	}
	pulse := tick%2 == 0
	switch {
	case inst.Jammed:
		in.Use = pulse
	case inst.Reloading:
		in.Reload = !inst.ARConsumed && inst.Progress >= inst.WindowStart && inst.Progress <= inst.WindowEnd
	case inst.Magazine == 0:
		in.Reload = pulse
	default:
		def, ok := p.sim.Catalog().Weapon(inst.Type)
		in.Fire = pulse || (ok && def.FireMode == defs.FireAuto)
	}
}

func (p *pilot) nearestNPC(from *entity.Entity) (*entity.Entity, bool) {
	var best *entity.Entity
	bestDist := math.Inf(1)
	for _, h := range p.sim.Entities() {
		e, ok := p.sim.Entity(h)
		if !ok || !e.Active || e.Kind != entity.KindNPC {
			continue
		}
		if d := math.Hypot(e.X-from.X, e.Y-from.Y); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}

func toward(e *entity.Entity, x, y float64) (float64, float64) {
	dx, dy := x-e.X, y-e.Y
	length := math.Hypot(dx, dy)
	if length < 1 {
		return 0, 0
	}
	return dx / length, dy / length
}

func strafe(tick uint64) float64 {
	if (tick/strafePeriod)%2 == 0 {
		return 1
	}
	return -1
}
