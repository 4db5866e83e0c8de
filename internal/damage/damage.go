// Package damage resolves one hit against an entity's defensive layers.
//
// The layers apply in a fixed order: shield, then plates, then percentage
// armor, then health. Plates are binary: one plate cancels whatever damage
// is left after the shield, however large.
package damage

import (
	"math"

	"arena-shooter/core/internal/hooks"
)

// MaxArmorReduction caps percentage armor after penetration.
const MaxArmorReduction = 75

const epsilon = 1e-9

// Vitals are the mutable defensive stats of an entity.
type Vitals struct {
	Health    float64
	MaxHealth float64
	Shield    float64
	ShieldMax float64
	Armor     float64
	Plates    int
}

// Alive reports whether health is above zero.
func (v Vitals) Alive() bool {
	return v.Health > 0
}

// Input is a hit after range falloff. ArmorPen is a fraction in [0, 1].
type Input struct {
	Damage     float64
	ShieldMult float64
	ArmorPen   float64
}

// Result breaks a resolved hit down by layer.
type Result struct {
	Raw            float64
	ShieldAbsorbed float64
	// Carried is what remained after the shield, before plates and armor.
	Carried       float64
	PlateConsumed bool
	Reduction     float64
	HealthLost    float64
	Killed        bool
	Crossings     []hooks.Event
}

// Apply runs the pipeline against v and returns what each layer took.
func Apply(v *Vitals, in Input) Result {
	before := *v
	result := Result{Raw: math.Max(in.Damage, 0)}
	remaining := result.Raw

	if remaining > 0 && v.Shield > 0 {
		mult := in.ShieldMult
		if mult <= 0 {
			mult = 1
		}
		absorbed := math.Min(v.Shield, remaining*mult)
		v.Shield -= absorbed
		if v.Shield < epsilon {
			v.Shield = 0
		}
		result.ShieldAbsorbed = absorbed
		remaining = math.Max(remaining-absorbed, 0)
	}
	result.Carried = remaining

	if remaining > epsilon && v.Plates > 0 {
		v.Plates--
		result.PlateConsumed = true
		remaining = 0
	}

	if remaining > epsilon {
		result.Reduction = ArmorReduction(v.Armor, in.ArmorPen)
		final := math.Ceil(remaining * (1 - result.Reduction/100))
		lost := math.Min(final, math.Max(v.Health, 0))
		v.Health = math.Max(v.Health-final, 0)
		result.HealthLost = lost
	}

	result.Killed = before.Alive() && !v.Alive()
	result.Crossings = Crossings(before, *v)
	return result
}

// ArmorReduction returns the percentage of damage armor removes after
// penetration, clamped to [0, MaxArmorReduction].
func ArmorReduction(armor, armorPen float64) float64 {
	return math.Min(MaxArmorReduction, math.Max(0, armor-armorPen*100))
}

// Crossings lists the threshold hooks crossed between two snapshots: a
// ratio leaving 100%, dropping under 50% or under 25%, and the last plate
// being lost.
func Crossings(before, after Vitals) []hooks.Event {
	var events []hooks.Event
	events = appendRatioCrossings(events, before.Health, after.Health, before.MaxHealth,
		hooks.OnHPFull, hooks.OnHPUnder50, hooks.OnHPUnder25)
	events = appendRatioCrossings(events, before.Shield, after.Shield, before.ShieldMax,
		hooks.OnShieldFull, hooks.OnShieldUnder50, hooks.OnShieldUnder25)
	if before.Plates > 0 && after.Plates == 0 {
		events = append(events, hooks.OnPlatesLost)
	}
	return events
}

func appendRatioCrossings(events []hooks.Event, before, after, maxValue float64, full, under50, under25 hooks.Event) []hooks.Event {
	if maxValue <= 0 {
		return events
	}
	was, now := before/maxValue, after/maxValue
	if was >= 1-epsilon && now < 1-epsilon {
		events = append(events, full)
	}
	if was >= 0.5 && now < 0.5 {
		events = append(events, under50)
	}
	if was >= 0.25 && now < 0.25 {
		events = append(events, under25)
	}
	return events
}
