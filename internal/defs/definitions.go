// Package defs holds the immutable, designer-authored definitions the
// simulation reads: weapons, ammo, entities, items and powerups.
package defs

import "arena-shooter/core/internal/loot"

// Kind names a definition family. Hooks are registered per kind.
type Kind string

const (
	KindWeapon  Kind = "weapon"
	KindAmmo    Kind = "ammo"
	KindEntity  Kind = "entity"
	KindItem    Kind = "item"
	KindPowerup Kind = "powerup"
)

type FireMode string

const (
	FireAuto   FireMode = "auto"
	FireSingle FireMode = "single"
	FireBurst  FireMode = "burst"
)

// TickPhase selects whether scripted ticks run before or after physics.
type TickPhase string

const (
	PhasePre  TickPhase = "pre"
	PhasePost TickPhase = "post"
)

// Scripting carries the per-definition scheduling of on_tick hooks.
type Scripting struct {
	TickRateHz float64   `json:"tickRateHz,omitempty" jsonschema:"minimum=0,description=Rate of on_tick calls; zero disables on_tick"`
	TickPhase  TickPhase `json:"tickPhase,omitempty" jsonschema:"enum=pre,enum=post,description=Run scripted ticks before or after physics"`
}

// ActiveReloadWindow configures where the active-reload window lands.
// Positions and sizes are fractions of reload progress.
type ActiveReloadWindow struct {
	Pos          float64 `json:"pos" jsonschema:"minimum=0,maximum=1"`
	PosVariance  float64 `json:"posVariance,omitempty" jsonschema:"minimum=0"`
	Size         float64 `json:"size" jsonschema:"minimum=0,maximum=1"`
	SizeVariance float64 `json:"sizeVariance,omitempty" jsonschema:"minimum=0"`
}

type WeaponDefinition struct {
	Type string `json:"-"`
	Scripting

	Damage       float64  `json:"damage" jsonschema:"minimum=0"`
	RPM          float64  `json:"rpm" jsonschema:"minimum=0,description=Rounds per minute"`
	Pellets      int      `json:"pellets,omitempty" jsonschema:"minimum=1"`
	DeviationDeg float64  `json:"deviationDeg" jsonschema:"minimum=0,description=Base spread half-angle in degrees"`
	Recoil       float64  `json:"recoil" jsonschema:"minimum=0,description=Spread degrees added per shot"`
	Control      float64  `json:"control" jsonschema:"minimum=0,description=Recoil decay in degrees per second"`
	FireMode     FireMode `json:"fireMode,omitempty" jsonschema:"enum=auto,enum=single,enum=burst"`
	BurstCount   int      `json:"burstCount,omitempty" jsonschema:"minimum=0"`
	BurstRPM     float64  `json:"burstRpm,omitempty" jsonschema:"minimum=0"`

	MagazineSize int                `json:"magazineSize" jsonschema:"minimum=0"`
	ReserveMax   int                `json:"reserveMax" jsonschema:"minimum=0"`
	ReloadTime   float64            `json:"reloadTime" jsonschema:"minimum=0"`
	EjectTime    float64            `json:"ejectTime,omitempty" jsonschema:"minimum=0"`
	ActiveReload ActiveReloadWindow `json:"activeReload"`
	JamChance    float64            `json:"jamChance,omitempty" jsonschema:"minimum=0,maximum=1"`
	Ammo         []loot.Entry       `json:"ammo" jsonschema:"description=Compatible ammo types with selection weights"`

	ProjectileSpeed    float64 `json:"projectileSpeed" jsonschema:"minimum=0"`
	ProjectileHalfSize float64 `json:"projectileHalfSize,omitempty" jsonschema:"minimum=0"`
	Range              float64 `json:"range,omitempty" jsonschema:"minimum=0"`

	FireSound   string `json:"fireSound,omitempty"`
	JamSound    string `json:"jamSound,omitempty"`
	ReloadSound string `json:"reloadSound,omitempty"`
}

// AmmoDefinition modifies the shots of any weapon that loads it. Speed,
// HalfSize and Range override the weapon's values when positive.
type AmmoDefinition struct {
	Type string `json:"-"`
	Scripting

	DamageMult     float64 `json:"damageMult" jsonschema:"minimum=0"`
	ArmorPen       float64 `json:"armorPen,omitempty" jsonschema:"minimum=0,maximum=1,description=Armor penetration as a fraction"`
	ShieldMult     float64 `json:"shieldMult,omitempty" jsonschema:"minimum=0"`
	Speed          float64 `json:"speed,omitempty" jsonschema:"minimum=0"`
	HalfSize       float64 `json:"halfSize,omitempty" jsonschema:"minimum=0"`
	Range          float64 `json:"range,omitempty" jsonschema:"minimum=0"`
	FalloffStart   float64 `json:"falloffStart,omitempty" jsonschema:"minimum=0"`
	FalloffEnd     float64 `json:"falloffEnd,omitempty" jsonschema:"minimum=0"`
	FalloffMinMult float64 `json:"falloffMinMult,omitempty" jsonschema:"minimum=0,maximum=1"`
	Pierce         int     `json:"pierce,omitempty" jsonschema:"minimum=0"`
}

type EntityDefinition struct {
	Type string `json:"-"`
	Scripting

	MaxHealth        float64 `json:"maxHealth" jsonschema:"minimum=0"`
	ShieldMax        float64 `json:"shieldMax,omitempty" jsonschema:"minimum=0"`
	ShieldRegen      float64 `json:"shieldRegen,omitempty" jsonschema:"minimum=0,description=Shield per second"`
	ShieldRegenDelay float64 `json:"shieldRegenDelay,omitempty" jsonschema:"minimum=0,description=Seconds after damage before regen resumes"`
	Armor            float64 `json:"armor,omitempty" jsonschema:"minimum=0,description=Armor percentage"`
	Plates           int     `json:"plates,omitempty" jsonschema:"minimum=0"`
	HalfSize         float64 `json:"halfSize" jsonschema:"minimum=0"`

	MoveSpeed      float64 `json:"moveSpeed" jsonschema:"minimum=0"`
	Accuracy       float64 `json:"accuracy,omitempty" jsonschema:"minimum=0"`
	MoveSpreadMax  float64 `json:"moveSpreadMax,omitempty" jsonschema:"minimum=0"`
	MoveSpreadRate float64 `json:"moveSpreadRate,omitempty" jsonschema:"minimum=0"`

	DashSpeed    float64 `json:"dashSpeed,omitempty" jsonschema:"minimum=0"`
	DashDuration float64 `json:"dashDuration,omitempty" jsonschema:"minimum=0"`
	DashCooldown float64 `json:"dashCooldown,omitempty" jsonschema:"minimum=0"`

	Weapon         string     `json:"weapon,omitempty" jsonschema:"description=Starting weapon type"`
	Loot           loot.Table `json:"loot,omitempty"`
	PreferredRange float64    `json:"preferredRange,omitempty" jsonschema:"minimum=0"`
	HitSound       string     `json:"hitSound,omitempty"`
	DeathSound     string     `json:"deathSound,omitempty"`
}

type ItemDefinition struct {
	Type string `json:"-"`
	Scripting

	Consumable bool       `json:"consumable,omitempty"`
	Crate      bool       `json:"crate,omitempty"`
	Loot       loot.Table `json:"loot,omitempty" jsonschema:"description=Crate contents"`
	OpenSound  string     `json:"openSound,omitempty"`
}

type PowerupDefinition struct {
	Type string `json:"-"`

	Health float64 `json:"health,omitempty" jsonschema:"minimum=0"`
	Shield float64 `json:"shield,omitempty" jsonschema:"minimum=0"`
	Plates int     `json:"plates,omitempty" jsonschema:"minimum=0"`
	Ammo   int     `json:"ammo,omitempty" jsonschema:"minimum=0,description=Reserve rounds for the equipped weapon"`
	Sound  string  `json:"sound,omitempty"`
}

func (d *WeaponDefinition) normalize() {
	if d.Pellets <= 0 {
		d.Pellets = 1
	}
	if d.FireMode == "" {
		d.FireMode = FireAuto
	}
	if d.FireMode == FireBurst && d.BurstRPM <= 0 {
		d.BurstRPM = d.RPM
	}
	if d.TickPhase == "" {
		d.TickPhase = PhasePost
	}
}

func (d *AmmoDefinition) normalize() {
	if d.DamageMult == 0 {
		d.DamageMult = 1
	}
	if d.ShieldMult == 0 {
		d.ShieldMult = 1
	}
	if d.FalloffEnd <= d.FalloffStart {
		d.FalloffMinMult = 1
	}
	if d.TickPhase == "" {
		d.TickPhase = PhasePost
	}
}

func (d *EntityDefinition) normalize() {
	if d.Accuracy <= 0 {
		d.Accuracy = 1
	}
	if d.TickPhase == "" {
		d.TickPhase = PhasePost
	}
}

func (d *ItemDefinition) normalize() {
	if d.TickPhase == "" {
		d.TickPhase = PhasePost
	}
}

// Falloff returns the range multiplier at distance travelled: 1 before
// FalloffStart, linear down to FalloffMinMult at FalloffEnd, flat beyond.
func (d *AmmoDefinition) Falloff(distance float64) float64 {
	if d == nil || d.FalloffEnd <= d.FalloffStart || distance <= d.FalloffStart {
		return 1
	}
	if distance >= d.FalloffEnd {
		return d.FalloffMinMult
	}
	t := (distance - d.FalloffStart) / (d.FalloffEnd - d.FalloffStart)
	return 1 + (d.FalloffMinMult-1)*t
}
