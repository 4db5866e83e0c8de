package sim

import (
	"context"
	"errors"
	"fmt"

	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/items"
	"arena-shooter/core/internal/weapons"
)

var (
	errHandsFull     = errors.New("sim: hands full")
	errInventoryFull = errors.New("sim: inventory full")
)

// moveWeapon is the only way a weapon instance changes owner. The new place
// is reserved first, then the previous reference is cleared, so an instance
// is never reachable from two places and a failed move changes nothing.
// holder is the entity for equipped and inventory moves; (x, y) is used for
// ground moves.
func (s *Simulation) moveWeapon(ctx context.Context, wh handle.Handle, place weapons.Place, holder handle.Handle, x, y float64) error {
	inst, ok := s.weapons.Get(wh)
	if !ok {
		return fmt.Errorf("move weapon %s: %w", wh, handle.ErrStale)
	}
	if inst.Owner.Place == place && inst.Owner.Holder == holder && place != weapons.PlaceGround {
		return nil
	}

	owner := weapons.Owner{Place: place, Holder: holder}
	switch place {
	case weapons.PlaceEquipped:
		e, ok := s.entities.Get(holder)
		if !ok {
			return fmt.Errorf("equip %s: %w", holder, handle.ErrStale)
		}
		if !e.Weapon.IsZero() && e.Weapon != wh {
			return errHandsFull
		}
		s.detachWeapon(wh, inst.Owner)
		e.Weapon = wh
	case weapons.PlaceInventory:
		e, ok := s.entities.Get(holder)
		if !ok {
			return fmt.Errorf("stow %s: %w", holder, handle.ErrStale)
		}
		slot, ok := e.FreeSlot()
		if !ok {
			return errInventoryFull
		}
		s.detachWeapon(wh, inst.Owner)
		e.Inventory[slot].Weapon = wh
	case weapons.PlaceGround:
		gx, gy := s.openSpot(x, y)
		gh, err := s.ground.Place(items.GroundItem{Kind: items.KindWeapon, Type: inst.Type, Weapon: wh, X: gx, Y: gy})
		if err != nil {
			s.poolExhausted(ctx, "ground", err)
			return err
		}
		s.detachWeapon(wh, inst.Owner)
		owner.Holder = gh
	default:
		s.detachWeapon(wh, inst.Owner)
	}
	inst.Owner = owner
	return nil
}

// detachWeapon clears the reference prev holds on wh.
func (s *Simulation) detachWeapon(wh handle.Handle, prev weapons.Owner) {
	switch prev.Place {
	case weapons.PlaceEquipped:
		if e, ok := s.entities.Get(prev.Holder); ok && e.Weapon == wh {
			e.Weapon = handle.Handle{}
		}
	case weapons.PlaceInventory:
		if e, ok := s.entities.Get(prev.Holder); ok {
			for i := range e.Inventory {
				if e.Inventory[i].Weapon == wh {
					e.Inventory[i].Weapon = handle.Handle{}
				}
			}
		}
	case weapons.PlaceGround:
		if item, ok := s.ground.Get(prev.Holder); ok && item.Weapon == wh {
			s.ground.Take(prev.Holder)
		}
	}
}

// discardWeapons frees the equipped and stowed weapons of e.
func (s *Simulation) discardWeapons(e *entity.Entity) {
	s.discardWeapon(e.Weapon)
	for _, slot := range e.Inventory {
		s.discardWeapon(slot.Weapon)
	}
}

// discardWeapon detaches wh from its owner and releases its slot.
func (s *Simulation) discardWeapon(wh handle.Handle) {
	inst, ok := s.weapons.Get(wh)
	if !ok {
		return
	}
	s.detachWeapon(wh, inst.Owner)
	_ = s.weapons.Release(wh)
}
