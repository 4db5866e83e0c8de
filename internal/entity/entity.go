// Package entity holds the players and NPCs of a session and the per-tick
// upkeep that touches only their own state: movement against the stage,
// dashing, move-induced spread and shield regeneration.
package entity

import (
	"math"

	"arena-shooter/core/internal/damage"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/logging"
)

type Kind uint8

const (
	KindPlayer Kind = iota + 1
	KindNPC
)

func (k Kind) LogKind() logging.EntityKind {
	switch k {
	case KindPlayer:
		return logging.EntityKindPlayer
	case KindNPC:
		return logging.EntityKindNPC
	default:
		return logging.EntityKindUnknown
	}
}

// Slot is one inventory cell: a weapon instance or an item type.
type Slot struct {
	Weapon handle.Handle
	Item   string
}

func (s Slot) Empty() bool {
	return s.Weapon.IsZero() && s.Item == ""
}

// Entity is a player or NPC.
type Entity struct {
	Kind   Kind
	Type   string
	Def    *defs.EntityDefinition
	Active bool

	X, Y     float64
	VX, VY   float64
	HalfSize float64
	AimX     float64
	AimY     float64

	damage.Vitals
	ShieldRegen      float64
	ShieldRegenDelay float64
	RegenCooldown    float64

	MoveSpeed  float64
	Accuracy   float64
	MoveSpread float64

	DashRemaining float64
	DashCooldown  float64
	DashX, DashY  float64

	Weapon    handle.Handle
	Inventory []Slot

	Kills uint64
}

// FromDefinition builds an active entity at (x, y) with full stats.
func FromDefinition(def *defs.EntityDefinition, kind Kind, x, y float64, inventorySlots int) Entity {
	return Entity{
		Kind:     kind,
		Type:     def.Type,
		Def:      def,
		Active:   true,
		X:        x,
		Y:        y,
		HalfSize: def.HalfSize,
		Vitals: damage.Vitals{
			Health:    def.MaxHealth,
			MaxHealth: def.MaxHealth,
			Shield:    def.ShieldMax,
			ShieldMax: def.ShieldMax,
			Armor:     def.Armor,
			Plates:    def.Plates,
		},
		ShieldRegen:      def.ShieldRegen,
		ShieldRegenDelay: def.ShieldRegenDelay,
		MoveSpeed:        def.MoveSpeed,
		Accuracy:         def.Accuracy,
		Inventory:        make([]Slot, max(inventorySlots, 0)),
	}
}

func (e *Entity) Box() stage.Box {
	return stage.BoxAt(e.X, e.Y, e.HalfSize, e.HalfSize)
}

// Ref identifies the entity in published events.
func (e *Entity) Ref(h handle.Handle) logging.EntityRef {
	return logging.EntityRef{ID: h.String(), Kind: e.Kind.LogKind()}
}

func (e *Entity) Dashing() bool {
	return e.DashRemaining > 0
}

// FreeSlot returns the index of the first empty inventory slot.
func (e *Entity) FreeSlot() (int, bool) {
	for i, slot := range e.Inventory {
		if slot.Empty() {
			return i, true
		}
	}
	return 0, false
}

// Motion is the movement part of an input snapshot. MoveX and MoveY are
// axis values in [-1, 1].
type Motion struct {
	MoveX float64
	MoveY float64
	Dash  bool
}

// Move integrates one tick of movement against entity-blocking tiles and
// reports whether a dash started this tick.
func (e *Entity) Move(grid *stage.Grid, m Motion, dt float64) bool {
	if !e.Active || dt <= 0 {
		return false
	}
	e.DashCooldown = math.Max(e.DashCooldown-dt, 0)

	dirX, dirY := m.MoveX, m.MoveY
	length := math.Hypot(dirX, dirY)
	if length > 0 {
		dirX /= length
		dirY /= length
	}

	dashed := false
	if m.Dash && length > 0 && !e.Dashing() && e.DashCooldown <= 0 && e.Def != nil && e.Def.DashDuration > 0 {
		e.DashRemaining = e.Def.DashDuration
		e.DashCooldown = e.Def.DashCooldown
		e.DashX, e.DashY = dirX, dirY
		dashed = true
	}

	if e.Dashing() {
		e.VX, e.VY = e.DashX*e.Def.DashSpeed, e.DashY*e.Def.DashSpeed
		e.DashRemaining = math.Max(e.DashRemaining-dt, 0)
	} else {
		e.VX, e.VY = dirX*e.MoveSpeed, dirY*e.MoveSpeed
	}

	e.updateMoveSpread(length > 0 || dashed, dt)

	if e.VX == 0 && e.VY == 0 {
		return dashed
	}
	box := e.Box()
	if grid != nil {
		box, _, _ = grid.MoveBox(box, e.VX*dt, e.VY*dt, stage.BlocksEntities)
	} else {
		box = box.Translate(e.VX*dt, e.VY*dt)
	}
	e.X, e.Y = box.Center()
	return dashed
}

// updateMoveSpread walks the spread toward its maximum while moving and back
// toward zero while still.
func (e *Entity) updateMoveSpread(moving bool, dt float64) {
	if e.Def == nil || e.Def.MoveSpreadRate <= 0 {
		return
	}
	step := e.Def.MoveSpreadRate * dt
	if moving {
		e.MoveSpread = math.Min(e.MoveSpread+step, e.Def.MoveSpreadMax)
		return
	}
	e.MoveSpread = math.Max(e.MoveSpread-step, 0)
}

// Damaged restarts the shield regeneration delay.
func (e *Entity) Damaged() {
	e.RegenCooldown = e.ShieldRegenDelay
}

// RegenShield refills the shield once the post-damage delay has elapsed.
func (e *Entity) RegenShield(dt float64) {
	if !e.Active || dt <= 0 || e.ShieldRegen <= 0 || e.Shield >= e.ShieldMax {
		return
	}
	if e.RegenCooldown > 0 {
		e.RegenCooldown -= dt
		if e.RegenCooldown > 0 {
			return
		}
		// Regen resumes with whatever time remains of this tick.
		dt = -e.RegenCooldown
		e.RegenCooldown = 0
	}
	e.Shield = math.Min(e.Shield+e.ShieldRegen*dt, e.ShieldMax)
}
