package sim

import (
	"context"
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/items"
	"arena-shooter/core/internal/loot"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/internal/weapons"
	"arena-shooter/core/logging"
	loggingcombat "arena-shooter/core/logging/combat"
	loggingweapons "arena-shooter/core/logging/weapons"
)

// Drops land on the nearest tile an entity could stand on.
const blocksItems = stage.BlocksEntities

func (s *Simulation) openSpot(x, y float64) (float64, float64) {
	tile := s.grid.TileAt(x, y)
	if !s.grid.Has(tile.X, tile.Y, blocksItems) {
		return x, y
	}
	if ox, oy, ok := s.grid.NearestOpen(x, y, blocksItems); ok {
		return ox, oy
	}
	return x, y
}

func notCrate(item *items.GroundItem) bool { return item.Kind != items.KindCrate }
func isCrate(item *items.GroundItem) bool { return item.Kind == items.KindCrate }

// pickupsPhase handles pick-up, drop and use edges in entity order.
func (s *Simulation) pickupsPhase(ctx context.Context, intents []intent) {
	for _, it := range intents {
		e, ok := s.entities.Get(it.handle)
		if !ok || !e.Active {
			continue
		}
		if it.pressed.Pickup {
			s.pickup(ctx, it.handle, e)
		}
		if it.pressed.Drop {
			s.dropEquipped(ctx, it.handle, e)
		}
		if it.pressed.Use {
			s.use(ctx, it.handle, e)
		}
	}
}

func (s *Simulation) pickup(ctx context.Context, h handle.Handle, e *entity.Entity) {
	gh, ok := s.ground.Nearest(e.X, e.Y, s.cfg.Items.PickupRadius, notCrate)
	if !ok {
		return
	}
	item, _ := s.ground.Get(gh)
	picked := *item

	var kind defs.Kind
	var subject handle.Handle
	switch picked.Kind {
	case items.KindWeapon:
		if !s.pickupWeapon(ctx, h, e, picked.Weapon) {
			return
		}
		kind, subject = defs.KindWeapon, picked.Weapon
	case items.KindPowerup:
		def, ok := s.catalog.Powerup(picked.Type)
		if !ok {
			return
		}
		s.applyPowerup(e, def)
		s.ground.Take(gh)
		s.play(def.Sound)
		kind = defs.KindPowerup
	case items.KindItem:
		slot, ok := e.FreeSlot()
		if !ok {
			return
		}
		e.Inventory[slot].Item = picked.Type
		s.ground.Take(gh)
		kind = defs.KindItem
	default:
		return
	}

	s.invoke(ctx, kind, picked.Type, hooks.OnPickup, h, subject, handle.Handle{}, 0)
	loggingweapons.Pickup(ctx, s.publisher, s.tick, e.Ref(h), loggingweapons.TransferPayload{
		Kind: picked.Kind.String(),
		Type: picked.Type,
		X:    picked.X,
		Y:    picked.Y,
	})
}

// pickupWeapon equips into empty hands, else stows, else swaps with the
// equipped weapon, which goes to the floor.
func (s *Simulation) pickupWeapon(ctx context.Context, h handle.Handle, e *entity.Entity, wh handle.Handle) bool {
	if e.Weapon.IsZero() {
		return s.moveWeapon(ctx, wh, weapons.PlaceEquipped, h, 0, 0) == nil
	}
	if _, free := e.FreeSlot(); free {
		return s.moveWeapon(ctx, wh, weapons.PlaceInventory, h, 0, 0) == nil
	}
	held := e.Weapon
	if err := s.moveWeapon(ctx, held, weapons.PlaceGround, handle.Handle{}, e.X, e.Y); err != nil {
		return false
	}
	if inst, ok := s.weapons.Get(held); ok {
		s.invoke(ctx, defs.KindWeapon, inst.Type, hooks.OnDrop, h, held, handle.Handle{}, 0)
	}
	return s.moveWeapon(ctx, wh, weapons.PlaceEquipped, h, 0, 0) == nil
}

func (s *Simulation) applyPowerup(e *entity.Entity, def *defs.PowerupDefinition) {
	e.Health = math.Min(e.Health+def.Health, e.MaxHealth)
	e.Shield = math.Min(e.Shield+def.Shield, e.ShieldMax)
	e.Plates += def.Plates
	if def.Ammo <= 0 {
		return
	}
	if inst, ok := s.weapons.Get(e.Weapon); ok {
		if wdef, ok := s.catalog.Weapon(inst.Type); ok {
			inst.AddReserve(wdef, def.Ammo)
		}
	}
}

// dropEquipped puts the equipped weapon on the floor and equips the first
// weapon from the inventory.
func (s *Simulation) dropEquipped(ctx context.Context, h handle.Handle, e *entity.Entity) {
	wh := e.Weapon
	inst, ok := s.weapons.Get(wh)
	if !ok {
		return
	}
	if err := s.moveWeapon(ctx, wh, weapons.PlaceGround, handle.Handle{}, e.X, e.Y); err != nil {
		return
	}
	s.invoke(ctx, defs.KindWeapon, inst.Type, hooks.OnDrop, h, wh, handle.Handle{}, 0)
	loggingweapons.Drop(ctx, s.publisher, s.tick, e.Ref(h), loggingweapons.TransferPayload{
		Kind: items.KindWeapon.String(),
		Type: inst.Type,
		X:    e.X,
		Y:    e.Y,
	})
	for _, slot := range e.Inventory {
		if !slot.Weapon.IsZero() {
			_ = s.moveWeapon(ctx, slot.Weapon, weapons.PlaceEquipped, h, 0, 0)
			return
		}
	}
}

// use clears a jam first, then opens a nearby crate, then runs the first
// inventory item with an on_use hook.
func (s *Simulation) use(ctx context.Context, h handle.Handle, e *entity.Entity) {
	if inst, ok := s.weapons.Get(e.Weapon); ok && inst.Jammed {
		if def, ok := s.catalog.Weapon(inst.Type); ok {
			s.arms.Unjam(ctx, s.tick, weapons.Weapon{Handle: e.Weapon, State: inst, Def: def}, s.holder(h, e))
		}
		return
	}
	if gh, ok := s.ground.Nearest(e.X, e.Y, s.cfg.Items.PickupRadius, isCrate); ok {
		s.openCrate(ctx, h, gh)
		return
	}
	for i, slot := range e.Inventory {
		if slot.Item == "" || !s.hooks.Has(defs.KindItem, slot.Item, hooks.OnUse) {
			continue
		}
		message, ok := s.invoke(ctx, defs.KindItem, slot.Item, hooks.OnUse, h, handle.Handle{}, handle.Handle{}, 0)
		if !ok {
			return
		}
		if message != "" {
			s.report.Messages = append(s.report.Messages, message)
		}
		loggingweapons.ItemUsed(ctx, s.publisher, s.tick, e.Ref(h), loggingweapons.ItemUsedPayload{Type: slot.Item, Message: message})
		if def, ok := s.catalog.Item(slot.Item); ok && def.Consumable {
			e.Inventory[i].Item = ""
		}
		return
	}
}

func (s *Simulation) openCrate(ctx context.Context, opener, gh handle.Handle) {
	crate, ok := s.ground.Take(gh)
	if !ok {
		return
	}
	def, ok := s.catalog.Item(crate.Type)
	if !ok {
		return
	}
	s.play(def.OpenSound)
	s.invoke(ctx, defs.KindItem, crate.Type, hooks.OnCrateOpen, opener, gh, handle.Handle{}, 0)
	s.dropLoot(ctx, logging.EntityRef{ID: gh.String(), Kind: logging.EntityKindItem}, def.Loot, crate.X, crate.Y)
}

// dropLoot rolls table and places the result at the nearest open tile.
func (s *Simulation) dropLoot(ctx context.Context, source logging.EntityRef, table loot.Table, x, y float64) {
	drop, ok := loot.Roll(s.rng, table)
	if !ok {
		return
	}
	kind, ok := items.KindFor(drop.Category)
	if !ok {
		return
	}
	x, y = s.openSpot(x, y)
	if _, err := s.PlaceItem(kind, drop.Type, x, y); err != nil {
		if s.logger != nil {
			s.logger.Printf("[sim] loot %s %q not placed: %v", drop.Category, drop.Type, err)
		}
		return
	}
	s.metrics.Add(telemetry.MetricLootDrops, 1)
	loggingcombat.LootDrop(ctx, s.publisher, s.tick, source, loggingcombat.LootDropPayload{
		Category: string(drop.Category),
		Type:     drop.Type,
		X:        x,
		Y:        y,
	})
}
