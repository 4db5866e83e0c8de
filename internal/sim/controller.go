package sim

import (
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
)

// Controller produces an NPC's input for the current tick. Decide may read
// the simulation but must not mutate it.
type Controller interface {
	Decide(s *Simulation, self handle.Handle, e *entity.Entity) Input
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(s *Simulation, self handle.Handle, e *entity.Entity) Input

func (f ControllerFunc) Decide(s *Simulation, self handle.Handle, e *entity.Entity) Input {
	return f(s, self, e)
}

const defaultPreferredRange = 200

// ChaseController walks toward the nearest living player until it is inside
// its preferred range, then stands and shoots. Semi-automatic weapons are
// pulsed every other tick so each pull is a fresh press.
type ChaseController struct {
	// PreferredRange overrides the definition's range when positive.
	PreferredRange float64
}

func (c ChaseController) Decide(s *Simulation, self handle.Handle, e *entity.Entity) Input {
	target, ok := nearestPlayer(s, e)
	if !ok {
		return Input{AimX: e.AimX, AimY: e.AimY}
	}
	in := Input{AimX: target.X, AimY: target.Y}

	dx, dy := target.X-e.X, target.Y-e.Y
	dist := math.Hypot(dx, dy)
	if dist > c.rangeFor(e) && dist > 0 {
		in.MoveX, in.MoveY = dx/dist, dy/dist
		return in
	}

	pulse := s.Tick()%2 == 0
	w, ok := s.equipped(e)
	if !ok {
		return in
	}
	switch {
	case w.State.Jammed:
		in.Use = pulse
	case w.State.Magazine <= 0 && !w.State.Reloading:
		in.Reload = pulse
	case w.Def.FireMode == defs.FireAuto:
		in.Fire = true
	default:
		in.Fire = pulse
	}
	return in
}

func (c ChaseController) rangeFor(e *entity.Entity) float64 {
	if c.PreferredRange > 0 {
		return c.PreferredRange
	}
	if e.Def != nil && e.Def.PreferredRange > 0 {
		return e.Def.PreferredRange
	}
	return defaultPreferredRange
}

func nearestPlayer(s *Simulation, from *entity.Entity) (*entity.Entity, bool) {
	var best *entity.Entity
	bestDist := math.Inf(1)
	s.entities.Each(func(_ handle.Handle, e *entity.Entity) bool {
		if !e.Active || e.Kind != entity.KindPlayer {
			return true
		}
		if d := math.Hypot(e.X-from.X, e.Y-from.Y); d < bestDist {
			best, bestDist = e, d
		}
		return true
	})
	return best, best != nil
}
