package sim

import (
	"context"
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/projectiles"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/internal/weapons"
	loggingsimulation "arena-shooter/core/logging/simulation"
)

// Step runs one fixed tick. inputs holds the player controls for this tick;
// NPCs are driven by their controllers. Entities missing from inputs idle.
func (s *Simulation) Step(ctx context.Context, inputs map[handle.Handle]Input) Report {
	s.tick++
	report := Report{Tick: s.tick}
	s.report = &report
	defer func() { s.report = nil }()
	s.sounds.Reset()
	s.ticker.Begin()

	intents := s.gatherIntents(inputs)
	s.scriptedPhase(ctx, defs.PhasePre)
	s.movementPhase(ctx, intents)
	s.timersPhase(ctx)
	s.pickupsPhase(ctx, intents)
	spawns := s.triggerPhase(ctx, intents)
	s.spawnPhase(ctx, spawns)
	hits, _ := s.projectiles.Step(ctx, s.tick, s.dt, s.targets())
	s.resolveHits(ctx, hits)
	s.scriptedPhase(ctx, defs.PhasePost)
	s.transitionPhase(ctx)

	s.ticker.End()
	report.Sounds = s.sounds.Keys()
	s.metrics.Add(telemetry.MetricTicks, 1)
	return report
}

// Advance feeds elapsed wall-clock seconds to the driver and steps once per
// whole tick, asking source for the inputs of each tick. Ticks past the
// catch-up cap are dropped and reported.
func (s *Simulation) Advance(ctx context.Context, elapsed float64, source InputSource) []Report {
	var reports []Report
	ran, dropped := s.driver.Advance(elapsed, func() {
		var inputs map[handle.Handle]Input
		if source != nil {
			inputs = source(s.tick + 1)
		}
		reports = append(reports, s.Step(ctx, inputs))
	})
	if dropped > 0 {
		s.metrics.Add(telemetry.MetricTicksDropped, uint64(dropped))
		if s.logger != nil {
			s.logger.Printf("[sim] catch-up cap reached: ran=%d dropped=%d", ran, dropped)
		}
		loggingsimulation.TickBacklogDropped(ctx, s.publisher, s.tick, loggingsimulation.TickBacklogPayload{
			Ran:     ran,
			Dropped: dropped,
		})
	}
	return reports
}

// gatherIntents snapshots this tick's input for every active entity in pool
// order and derives rising edges against the previous tick.
func (s *Simulation) gatherIntents(inputs map[handle.Handle]Input) []intent {
	var intents []intent
	s.entities.Each(func(h handle.Handle, e *entity.Entity) bool {
		if !e.Active {
			delete(s.previous, h)
			return true
		}
		var in Input
		if controller, ok := s.controllers[h]; ok {
			in = controller.Decide(s, h, e)
		} else {
			in = inputs[h]
		}
		intents = append(intents, intent{handle: h, input: in, pressed: edges(s.previous[h], in)})
		s.previous[h] = in
		return true
	})
	return intents
}

func (s *Simulation) movementPhase(ctx context.Context, intents []intent) {
	for _, it := range intents {
		e, ok := s.entities.Get(it.handle)
		if !ok || !e.Active {
			continue
		}
		e.AimX, e.AimY = it.input.AimX, it.input.AimY
		if e.Move(s.grid, it.input.motion(it.pressed), s.dt) {
			s.invoke(ctx, defs.KindEntity, e.Type, hooks.OnDash, it.handle, handle.Handle{}, handle.Handle{}, 0)
		}
	}
}

// timersPhase regenerates shields and advances the equipped weapon of every
// active entity.
func (s *Simulation) timersPhase(ctx context.Context) {
	s.entities.Each(func(h handle.Handle, e *entity.Entity) bool {
		if !e.Active {
			return true
		}
		e.RegenShield(s.dt)
		if w, ok := s.equipped(e); ok {
			s.arms.Progress(ctx, s.tick, w, s.holder(h, e), s.dt)
		}
		return true
	})
}

// triggerPhase resolves reload and fire inputs and returns the projectiles
// to spawn.
func (s *Simulation) triggerPhase(ctx context.Context, intents []intent) []projectiles.Spawn {
	var spawns []projectiles.Spawn
	for _, it := range intents {
		e, ok := s.entities.Get(it.handle)
		if !ok || !e.Active {
			continue
		}
		w, ok := s.equipped(e)
		if !ok {
			continue
		}
		holder := s.holder(it.handle, e)
		if it.pressed.Reload {
			outcome := s.arms.Reload(ctx, s.tick, w, holder)
			if outcome == weapons.ActiveReloadSuccess && e.Kind == entity.KindPlayer {
				s.report.Shake += activeReloadShake
			}
		}

		aim := math.Atan2(e.AimY-e.Y, e.AimX-e.X)
		result := s.arms.Trigger(ctx, s.tick, w, holder, weapons.Trigger{
			Held:    it.input.Fire,
			Pressed: it.pressed.Fire,
			Aim:     aim,
		})
		if !result.Fired {
			continue
		}
		s.report.Shots++
		ammo, _ := s.catalog.AmmoType(w.State.Ammo)
		for _, pellet := range result.Pellets {
			spawns = append(spawns, projectiles.Spawn{
				X:         e.X,
				Y:         e.Y,
				DirX:      pellet.DirX,
				DirY:      pellet.DirY,
				Owner:     it.handle,
				OwnerKind: e.Kind.LogKind(),
				Weapon:    w.Def,
				Ammo:      ammo,
			})
		}
	}
	return spawns
}

func (s *Simulation) spawnPhase(ctx context.Context, spawns []projectiles.Spawn) {
	for _, spawn := range spawns {
		if _, ok := s.projectiles.Spawn(ctx, s.tick, spawn); ok {
			s.report.Pellets++
		}
	}
}

// targets lists the active entities projectiles can hit, in pool order.
func (s *Simulation) targets() []projectiles.Target {
	var targets []projectiles.Target
	s.entities.Each(func(h handle.Handle, e *entity.Entity) bool {
		if e.Active {
			targets = append(targets, projectiles.Target{Handle: h, Kind: e.Kind.LogKind(), Box: e.Box()})
		}
		return true
	})
	return targets
}

// transitionPhase fires once, when no NPC is left standing and a living
// player stands on an exit tile.
func (s *Simulation) transitionPhase(ctx context.Context) {
	if s.transitioned {
		return
	}
	npcAlive := false
	var (
		player handle.Handle
		exit   stage.Tile
		found  bool
	)
	s.entities.Each(func(h handle.Handle, e *entity.Entity) bool {
		if !e.Active {
			return true
		}
		if e.Kind == entity.KindNPC {
			npcAlive = true
			return false
		}
		if !found {
			exit, found = s.grid.FirstFlagged(e.Box(), stage.Exit)
			player = h
		}
		return true
	})
	if npcAlive || !found {
		return
	}
	s.transitioned = true
	s.report.Transition = true
	e, _ := s.entities.Get(player)
	loggingsimulation.StageTransition(ctx, s.publisher, s.tick, e.Ref(player), loggingsimulation.StageTransitionPayload{
		TileX: exit.X,
		TileY: exit.Y,
	})
}

func (s *Simulation) equipped(e *entity.Entity) (weapons.Weapon, bool) {
	inst, ok := s.weapons.Get(e.Weapon)
	if !ok {
		return weapons.Weapon{}, false
	}
	def, ok := s.catalog.Weapon(inst.Type)
	if !ok {
		return weapons.Weapon{}, false
	}
	return weapons.Weapon{Handle: e.Weapon, State: inst, Def: def}, true
}

func (s *Simulation) holder(h handle.Handle, e *entity.Entity) weapons.Holder {
	return weapons.Holder{
		Entity:     h,
		Kind:       e.Kind.LogKind(),
		X:          e.X,
		Y:          e.Y,
		Accuracy:   e.Accuracy,
		MoveSpread: e.MoveSpread,
	}
}
