package sim

import (
	"context"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	loggingsimulation "arena-shooter/core/logging/simulation"
)

// scriptedPhase runs on_step and rate-limited on_tick for every owner whose
// definition is scheduled in phase: active entities, their equipped weapon
// and the items in their inventory.
func (s *Simulation) scriptedPhase(ctx context.Context, phase defs.TickPhase) {
	s.entities.Each(func(h handle.Handle, e *entity.Entity) bool {
		if !e.Active {
			return true
		}
		s.runScripted(ctx, phase, hooks.Owner{Kind: defs.KindEntity, Type: e.Type, Handle: h}, h)
		if inst, ok := s.weapons.Get(e.Weapon); ok {
			s.runScripted(ctx, phase, hooks.Owner{Kind: defs.KindWeapon, Type: inst.Type, Handle: e.Weapon}, h)
		}
		for _, slot := range e.Inventory {
			if slot.Item != "" {
				s.runScripted(ctx, phase, hooks.Owner{Kind: defs.KindItem, Type: slot.Item, Handle: h}, h)
			}
		}
		return true
	})
}

func (s *Simulation) runScripted(ctx context.Context, phase defs.TickPhase, owner hooks.Owner, holder handle.Handle) {
	scripting, ok := s.catalog.Scripting(owner.Kind, owner.Type)
	if !ok || scripting.TickPhase != phase {
		return
	}
	var subject handle.Handle
	if owner.Handle != holder {
		subject = owner.Handle
	}
	s.invoke(ctx, owner.Kind, owner.Type, hooks.OnStep, holder, subject, handle.Handle{}, s.dt)

	alreadyCapped := s.ticker.CapHit()
	_, capped := s.ticker.Run(owner, scripting.TickRateHz, s.dt, func() {
		s.invoke(ctx, owner.Kind, owner.Type, hooks.OnTick, holder, subject, handle.Handle{}, 1/scripting.TickRateHz)
	})
	if capped && !alreadyCapped {
		s.report.HookCapHit = true
		if s.logger != nil {
			s.logger.Printf("[hooks] on_tick iteration cap %d reached at %s %s", s.cfg.Sim.HookIterationCap, owner.Kind, owner.Type)
		}
		loggingsimulation.HookCapReached(ctx, s.publisher, s.tick, loggingsimulation.HookCapPayload{
			Cap:   s.cfg.Sim.HookIterationCap,
			Owner: string(owner.Kind) + ":" + owner.Type,
		})
	}
}
