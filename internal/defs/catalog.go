package defs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"arena-shooter/core/internal/loot"
)

// ErrUnknownDefinition reports a reference to a type the catalog lacks.
var ErrUnknownDefinition = errors.New("defs: unknown definition")

// Catalog is the on-disk definition file: one object per family keyed by
// type id.
type Catalog struct {
	Weapons  map[string]*WeaponDefinition  `json:"weapons,omitempty" jsonschema:"title=Weapons"`
	Ammo     map[string]*AmmoDefinition    `json:"ammo,omitempty" jsonschema:"title=Ammo"`
	Entities map[string]*EntityDefinition  `json:"entities,omitempty" jsonschema:"title=Entities"`
	Items    map[string]*ItemDefinition    `json:"items,omitempty" jsonschema:"title=Items,description=Consumables and crates"`
	Powerups map[string]*PowerupDefinition `json:"powerups,omitempty" jsonschema:"title=Powerups"`
}

// Load decodes, normalizes and validates a catalog.
func Load(r io.Reader) (*Catalog, error) {
	var catalog Catalog
	dec := json.NewDecoder(r)
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("defs: decode catalog: %w", err)
	}
	if err := catalog.Finalize(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("defs: open %s: %w", path, err)
	}
	defer f.Close()
	catalog, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Finalize stamps type ids from map keys, fills defaults and validates.
// Catalogs assembled in code must call it before use.
func (c *Catalog) Finalize() error {
	for id, def := range c.Weapons {
		if def == nil {
			delete(c.Weapons, id)
			continue
		}
		def.Type = id
		def.normalize()
	}
	for id, def := range c.Ammo {
		if def == nil {
			delete(c.Ammo, id)
			continue
		}
		def.Type = id
		def.normalize()
	}
	for id, def := range c.Entities {
		if def == nil {
			delete(c.Entities, id)
			continue
		}
		def.Type = id
		def.normalize()
	}
	for id, def := range c.Items {
		if def == nil {
			delete(c.Items, id)
			continue
		}
		def.Type = id
		def.normalize()
	}
	for id, def := range c.Powerups {
		if def == nil {
			delete(c.Powerups, id)
			continue
		}
		def.Type = id
	}
	return c.Validate()
}

// Validate reports every problem found, joined.
func (c *Catalog) Validate() error {
	var errs []error
	fail := func(kind Kind, id, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s %q: %s", kind, id, fmt.Sprintf(format, args...)))
	}

	for _, id := range sortedKeys(c.Weapons) {
		def := c.Weapons[id]
		if def.RPM <= 0 {
			fail(KindWeapon, id, "rpm must be positive")
		}
		if def.MagazineSize < 0 || def.ReserveMax < 0 {
			fail(KindWeapon, id, "negative ammo capacity")
		}
		switch def.FireMode {
		case FireAuto, FireSingle:
		case FireBurst:
			if def.BurstCount <= 0 {
				fail(KindWeapon, id, "burst mode needs burstCount > 0")
			}
		default:
			fail(KindWeapon, id, "unknown fire mode %q", def.FireMode)
		}
		if def.MagazineSize > 0 && len(def.Ammo) == 0 {
			fail(KindWeapon, id, "no compatible ammo")
		}
		for _, entry := range def.Ammo {
			ammo, ok := c.Ammo[entry.Type]
			if !ok {
				errs = append(errs, fmt.Errorf("%s %q: ammo %q: %w", KindWeapon, id, entry.Type, ErrUnknownDefinition))
				continue
			}
			if def.ProjectileSpeed <= 0 && ammo.Speed <= 0 {
				fail(KindWeapon, id, "ammo %q leaves projectiles without speed", entry.Type)
			}
		}
		if def.ProjectileSpeed <= 0 && len(def.Ammo) == 0 {
			fail(KindWeapon, id, "projectileSpeed must be positive")
		}
		if def.ActiveReload.Pos < 0 || def.ActiveReload.Pos > 1 || def.ActiveReload.Size < 0 || def.ActiveReload.Size > 1 {
			fail(KindWeapon, id, "active reload window outside [0,1]")
		}
	}

	for _, id := range sortedKeys(c.Ammo) {
		def := c.Ammo[id]
		if def.ArmorPen < 0 || def.ArmorPen > 1 {
			fail(KindAmmo, id, "armorPen must be a fraction")
		}
		if def.Pierce < 0 {
			fail(KindAmmo, id, "negative pierce")
		}
	}

	for _, id := range sortedKeys(c.Entities) {
		def := c.Entities[id]
		if def.MaxHealth <= 0 {
			fail(KindEntity, id, "maxHealth must be positive")
		}
		if def.HalfSize <= 0 {
			fail(KindEntity, id, "halfSize must be positive")
		}
		if def.Weapon != "" {
			if _, ok := c.Weapons[def.Weapon]; !ok {
				errs = append(errs, fmt.Errorf("%s %q: weapon %q: %w", KindEntity, id, def.Weapon, ErrUnknownDefinition))
			}
		}
		errs = append(errs, c.validateTable(KindEntity, id, def.Loot)...)
	}

	for _, id := range sortedKeys(c.Items) {
		def := c.Items[id]
		if def.Crate {
			errs = append(errs, c.validateTable(KindItem, id, def.Loot)...)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("defs: invalid catalog: %w", errors.Join(errs...))
}

func (c *Catalog) validateTable(kind Kind, owner string, table loot.Table) []error {
	var errs []error
	check := func(category loot.Category, present func(string) bool) {
		for _, entry := range table.Entries(category) {
			if !present(entry.Type) {
				errs = append(errs, fmt.Errorf("%s %q: loot %s %q: %w", kind, owner, category, entry.Type, ErrUnknownDefinition))
			}
		}
	}
	check(loot.CategoryGun, func(id string) bool { _, ok := c.Weapons[id]; return ok })
	check(loot.CategoryItem, func(id string) bool { _, ok := c.Items[id]; return ok })
	check(loot.CategoryPowerup, func(id string) bool { _, ok := c.Powerups[id]; return ok })
	for _, cw := range table.Categories {
		switch cw.Category {
		case loot.CategoryNone, loot.CategoryGun, loot.CategoryItem, loot.CategoryPowerup:
		default:
			errs = append(errs, fmt.Errorf("%s %q: unknown loot category %q", kind, owner, cw.Category))
		}
	}
	return errs
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Lookups. A nil catalog or a missing type both yield false.

func (c *Catalog) Weapon(id string) (*WeaponDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.Weapons[strings.TrimSpace(id)]
	return def, ok
}

func (c *Catalog) AmmoType(id string) (*AmmoDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.Ammo[strings.TrimSpace(id)]
	return def, ok
}

func (c *Catalog) Entity(id string) (*EntityDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.Entities[strings.TrimSpace(id)]
	return def, ok
}

func (c *Catalog) Item(id string) (*ItemDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.Items[strings.TrimSpace(id)]
	return def, ok
}

func (c *Catalog) Powerup(id string) (*PowerupDefinition, bool) {
	if c == nil {
		return nil, false
	}
	def, ok := c.Powerups[strings.TrimSpace(id)]
	return def, ok
}

// Scripting returns the tick schedule of any scriptable definition.
func (c *Catalog) Scripting(kind Kind, id string) (Scripting, bool) {
	switch kind {
	case KindWeapon:
		if def, ok := c.Weapon(id); ok {
			return def.Scripting, true
		}
	case KindAmmo:
		if def, ok := c.AmmoType(id); ok {
			return def.Scripting, true
		}
	case KindEntity:
		if def, ok := c.Entity(id); ok {
			return def.Scripting, true
		}
	case KindItem:
		if def, ok := c.Item(id); ok {
			return def.Scripting, true
		}
	}
	return Scripting{}, false
}
