package combat

import (
	"context"

	"arena-shooter/core/logging"
)

const (
	// EventDamage is emitted once per resolved hit.
	EventDamage logging.EventType = "combat.damage"
	// EventDefeat is emitted when an entity's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
	// EventThreshold is emitted when a health, shield or plate threshold is crossed.
	EventThreshold logging.EventType = "combat.threshold"
	// EventLootDrop is emitted when a defeated NPC or opened crate drops loot.
	EventLootDrop logging.EventType = "combat.loot_drop"
)

// DamagePayload breaks a hit down by absorption layer.
type DamagePayload struct {
	Weapon          string  `json:"weapon,omitempty"`
	Ammo            string  `json:"ammo,omitempty"`
	Raw             float64 `json:"raw"`
	ShieldAbsorbed  float64 `json:"shieldAbsorbed"`
	PlateConsumed   bool    `json:"plateConsumed"`
	HealthLost      float64 `json:"healthLost"`
	TargetHealth    float64 `json:"targetHealth"`
	TargetShield    float64 `json:"targetShield"`
	DistanceFalloff float64 `json:"falloff"`
}

type DefeatPayload struct {
	Weapon string `json:"weapon,omitempty"`
	Kills  uint64 `json:"kills"`
}

type ThresholdPayload struct {
	Hook string `json:"hook"`
}

type LootDropPayload struct {
	Category string  `json:"category"`
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

func Damage(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload DefeatPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func Threshold(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload ThresholdPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventThreshold,
		Tick:     tick,
		Actor:    target,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func LootDrop(ctx context.Context, pub logging.Publisher, tick uint64, source logging.EntityRef, payload LootDropPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLootDrop,
		Tick:     tick,
		Actor:    source,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
