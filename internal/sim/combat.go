package sim

import (
	"context"

	"arena-shooter/core/internal/damage"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/projectiles"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
	loggingcombat "arena-shooter/core/logging/combat"
)

const hitShake = 2

// resolveHits applies the deferred hit list in recorded order. Targets that
// died earlier in the list are skipped.
func (s *Simulation) resolveHits(ctx context.Context, hits []projectiles.Hit) {
	for _, hit := range hits {
		target, ok := s.entities.Get(hit.Target)
		if !ok || !target.Active {
			continue
		}
		result := damage.Apply(&target.Vitals, damage.Input{
			Damage:     hit.Damage,
			ShieldMult: hit.ShieldMult,
			ArmorPen:   hit.ArmorPen,
		})
		target.Damaged()
		s.report.Hits++
		if target.Kind == entity.KindPlayer {
			s.report.Shake += hitShake
		}
		if target.Def != nil {
			s.play(target.Def.HitSound)
		}

		attacker := logging.EntityRef{ID: hit.Owner.String(), Kind: hit.OwnerKind}
		loggingcombat.Damage(ctx, s.publisher, s.tick, attacker, target.Ref(hit.Target), loggingcombat.DamagePayload{
			Weapon:          hit.Weapon,
			Ammo:            hit.Ammo,
			Raw:             hit.Raw,
			ShieldAbsorbed:  result.ShieldAbsorbed,
			PlateConsumed:   result.PlateConsumed,
			HealthLost:      result.HealthLost,
			TargetHealth:    target.Health,
			TargetShield:    target.Shield,
			DistanceFalloff: hit.Falloff,
		})
		s.invoke(ctx, defs.KindEntity, target.Type, hooks.OnDamage, hit.Target, hit.Projectile, hit.Owner, result.HealthLost)
		for _, crossing := range result.Crossings {
			s.invoke(ctx, defs.KindEntity, target.Type, crossing, hit.Target, handle.Handle{}, hit.Owner, 0)
			loggingcombat.Threshold(ctx, s.publisher, s.tick, target.Ref(hit.Target), loggingcombat.ThresholdPayload{Hook: string(crossing)})
		}
		if result.Killed {
			s.kill(ctx, hit, target)
		}
	}
}

// kill deactivates target and frees every weapon it carried. NPCs count
// toward their killer and roll loot; players leave nothing behind.
func (s *Simulation) kill(ctx context.Context, hit projectiles.Hit, target *entity.Entity) {
	target.Active = false
	target.VX, target.VY = 0, 0
	if target.Def != nil {
		s.play(target.Def.DeathSound)
	}
	s.invoke(ctx, defs.KindEntity, target.Type, hooks.OnDeath, hit.Target, handle.Handle{}, hit.Owner, 0)
	s.discardWeapons(target)

	var kills uint64
	if killer, ok := s.entities.Get(hit.Owner); ok {
		killer.Kills++
		kills = killer.Kills
	}
	attacker := logging.EntityRef{ID: hit.Owner.String(), Kind: hit.OwnerKind}
	loggingcombat.Defeat(ctx, s.publisher, s.tick, attacker, target.Ref(hit.Target), loggingcombat.DefeatPayload{
		Weapon: hit.Weapon,
		Kills:  kills,
	})

	if target.Kind == entity.KindPlayer {
		s.metrics.Add(telemetry.MetricPlayerDeaths, 1)
		s.report.Deaths++
		return
	}
	s.metrics.Add(telemetry.MetricKills, 1)
	s.report.Kills++
	if target.Def != nil {
		s.dropLoot(ctx, target.Ref(hit.Target), target.Def.Loot, target.X, target.Y)
	}
}
