// Package items tracks what lies on the stage floor: dropped weapons,
// powerups, items and unopened crates.
package items

import (
	"math"

	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/loot"
)

type Kind uint8

const (
	KindWeapon Kind = iota + 1
	KindPowerup
	KindItem
	KindCrate
)

func (k Kind) String() string {
	switch k {
	case KindWeapon:
		return "weapon"
	case KindPowerup:
		return "powerup"
	case KindItem:
		return "item"
	case KindCrate:
		return "crate"
	default:
		return "unknown"
	}
}

// KindFor maps a loot category onto the ground item it produces.
func KindFor(category loot.Category) (Kind, bool) {
	switch category {
	case loot.CategoryGun:
		return KindWeapon, true
	case loot.CategoryPowerup:
		return KindPowerup, true
	case loot.CategoryItem:
		return KindItem, true
	default:
		return 0, false
	}
}

// GroundItem is one thing on the floor. Weapon is set only for KindWeapon
// and is the instance the ground item owns.
type GroundItem struct {
	Kind   Kind
	Type   string
	Weapon handle.Handle
	X, Y   float64
}

// Ground is the pool of ground items.
type Ground struct {
	pool *handle.Pool[GroundItem]
}

func NewGround(capacity int) *Ground {
	return &Ground{pool: handle.NewPool[GroundItem](capacity)}
}

// Place puts item on the floor. It fails when the pool is full.
func (g *Ground) Place(item GroundItem) (handle.Handle, error) {
	h, slot, err := g.pool.Alloc()
	if err != nil {
		return handle.Handle{}, err
	}
	*slot = item
	return h, nil
}

func (g *Ground) Get(h handle.Handle) (*GroundItem, bool) {
	return g.pool.Get(h)
}

// Take removes the item and returns a copy of it.
func (g *Ground) Take(h handle.Handle) (GroundItem, bool) {
	item, ok := g.pool.Get(h)
	if !ok {
		return GroundItem{}, false
	}
	taken := *item
	_ = g.pool.Release(h)
	return taken, true
}

func (g *Ground) Len() int {
	return g.pool.Len()
}

func (g *Ground) Each(fn func(handle.Handle, *GroundItem) bool) {
	g.pool.Each(fn)
}

// Nearest returns the closest item within radius of (x, y) accepted by keep.
// Ties go to the lower slot index.
func (g *Ground) Nearest(x, y, radius float64, keep func(*GroundItem) bool) (handle.Handle, bool) {
	best := handle.Handle{}
	bestDist := math.Inf(1)
	g.pool.Each(func(h handle.Handle, item *GroundItem) bool {
		if keep != nil && !keep(item) {
			return true
		}
		d := math.Hypot(item.X-x, item.Y-y)
		if d <= radius && d < bestDist {
			best, bestDist = h, d
		}
		return true
	})
	return best, !best.IsZero()
}
