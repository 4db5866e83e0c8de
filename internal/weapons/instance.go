// Package weapons runs the per-tick state machine of equipped weapons:
// trigger resolution, fire gating, spread, jams, recoil, cooldowns and the
// reload / active-reload mini-game.
package weapons

import (
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/loot"
)

// Place says where a weapon instance currently lives.
type Place uint8

const (
	PlaceNone Place = iota
	PlaceEquipped
	PlaceInventory
	PlaceGround
)

func (p Place) String() string {
	switch p {
	case PlaceEquipped:
		return "equipped"
	case PlaceInventory:
		return "inventory"
	case PlaceGround:
		return "ground"
	default:
		return "none"
	}
}

// Owner is the single reference holding an instance. Holder is an entity
// handle for equipped and inventory weapons and a ground item handle for
// dropped ones.
type Owner struct {
	Place  Place
	Holder handle.Handle
}

// Instance is the mutable runtime state of one weapon.
type Instance struct {
	Type  string
	Ammo  string
	Owner Owner

	Magazine int
	Reserve  int

	Jammed        bool
	UnjamProgress float64

	Reloading      bool
	Progress       float64
	EjectRemaining float64
	ReloadTotal    float64
	WindowStart    float64
	WindowEnd      float64
	ARConsumed     bool
	ARFailed       bool

	RecoilSpread   float64
	BurstRemaining int
	Cooldown       float64
}

// New returns a loaded instance of def. The selected ammo is a weighted
// pick from the compatible list; an empty list leaves it blank.
func New(def *defs.WeaponDefinition, rng loot.Source) Instance {
	inst := Instance{
		Type:     def.Type,
		Magazine: max(def.MagazineSize, 0),
		Reserve:  max(def.ReserveMax, 0),
	}
	if ammo, ok := loot.Pick(rng, def.Ammo); ok {
		inst.Ammo = ammo
	}
	return inst
}

// Busy reports whether the weapon is blocked from firing by its own state.
func (i *Instance) Busy() bool {
	return i.Jammed || i.Reloading || i.EjectRemaining > 0
}

// AddReserve tops up reserve ammo without exceeding def.ReserveMax.
func (i *Instance) AddReserve(def *defs.WeaponDefinition, rounds int) int {
	if rounds <= 0 {
		return 0
	}
	room := def.ReserveMax - i.Reserve
	if room <= 0 {
		return 0
	}
	added := min(room, rounds)
	i.Reserve += added
	return added
}

// Weapon bundles an instance with its handle and definition for one call.
type Weapon struct {
	Handle handle.Handle
	State  *Instance
	Def    *defs.WeaponDefinition
}

func (w Weapon) valid() bool {
	return w.State != nil && w.Def != nil
}
