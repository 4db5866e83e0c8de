package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultSeed       = "arena"
	DefaultTickRateHz = 60
	FileName          = "arena"
	EnvPrefix         = "ARENA"
)

type SimConfig struct {
	TickRateHz       int    `json:"tickRateHz" mapstructure:"tickRateHz"`
	MaxCatchupTicks  int    `json:"maxCatchupTicks" mapstructure:"maxCatchupTicks"`
	PhysicsSteps     int    `json:"physicsSteps" mapstructure:"physicsSteps"`
	HookIterationCap int    `json:"hookIterationCap" mapstructure:"hookIterationCap"`
	Seed             string `json:"seed" mapstructure:"seed"`
}

type WeaponsConfig struct {
	BaseJamChance      float64 `json:"baseJamChance" mapstructure:"baseJamChance"`
	MinSpreadDeg       float64 `json:"minSpreadDeg" mapstructure:"minSpreadDeg"`
	MaxSpreadDeg       float64 `json:"maxSpreadDeg" mapstructure:"maxSpreadDeg"`
	MaxRecoilSpreadDeg float64 `json:"maxRecoilSpreadDeg" mapstructure:"maxRecoilSpreadDeg"`
	UnjamIncrement     float64 `json:"unjamIncrement" mapstructure:"unjamIncrement"`
}

type PoolsConfig struct {
	Entities    int `json:"entities" mapstructure:"entities"`
	Weapons     int `json:"weapons" mapstructure:"weapons"`
	Projectiles int `json:"projectiles" mapstructure:"projectiles"`
	GroundItems int `json:"groundItems" mapstructure:"groundItems"`
}

type ItemsConfig struct {
	PickupRadius   float64 `json:"pickupRadius" mapstructure:"pickupRadius"`
	InventorySlots int     `json:"inventorySlots" mapstructure:"inventorySlots"`
}

type LoggingConfig struct {
	MinSeverity string   `json:"minSeverity" mapstructure:"minSeverity"`
	Sinks       []string `json:"sinks" mapstructure:"sinks"`
	JSONPath    string   `json:"jsonPath" mapstructure:"jsonPath"`
	FeedAddr    string   `json:"feedAddr" mapstructure:"feedAddr"`
}

type TelemetryConfig struct {
	OTel bool `json:"otel" mapstructure:"otel"`
}

type AudioConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type CatalogConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// Config is the full runtime configuration of an arena session.
type Config struct {
	Sim       SimConfig       `json:"sim" mapstructure:"sim"`
	Weapons   WeaponsConfig   `json:"weapons" mapstructure:"weapons"`
	Pools     PoolsConfig     `json:"pools" mapstructure:"pools"`
	Items     ItemsConfig     `json:"items" mapstructure:"items"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
	Audio     AudioConfig     `json:"audio" mapstructure:"audio"`
	Catalog   CatalogConfig   `json:"catalog" mapstructure:"catalog"`
}

func DefaultConfig() Config {
	return Config{
		Sim: SimConfig{
			TickRateHz:       DefaultTickRateHz,
			MaxCatchupTicks:  5,
			PhysicsSteps:     4,
			HookIterationCap: 4000,
			Seed:             DefaultSeed,
		},
		Weapons: WeaponsConfig{
			BaseJamChance:      0,
			MinSpreadDeg:       0,
			MaxSpreadDeg:       45,
			MaxRecoilSpreadDeg: 20,
			UnjamIncrement:     0.2,
		},
		Pools: PoolsConfig{
			Entities:    256,
			Weapons:     512,
			Projectiles: 2048,
			GroundItems: 256,
		},
		Items: ItemsConfig{
			PickupRadius:   24,
			InventorySlots: 4,
		},
		Logging: LoggingConfig{
			MinSeverity: "info",
			Sinks:       []string{"console"},
		},
		Catalog: CatalogConfig{Path: "catalog.json"},
	}
}

func (cfg Config) normalized() Config {
	defaults := DefaultConfig()
	normalized := cfg

	normalized.Sim.Seed = strings.TrimSpace(normalized.Sim.Seed)
	if normalized.Sim.Seed == "" {
		normalized.Sim.Seed = DefaultSeed
	}
	if normalized.Sim.TickRateHz <= 0 {
		normalized.Sim.TickRateHz = defaults.Sim.TickRateHz
	}
	if normalized.Sim.MaxCatchupTicks <= 0 {
		normalized.Sim.MaxCatchupTicks = defaults.Sim.MaxCatchupTicks
	}
	if normalized.Sim.PhysicsSteps <= 0 {
		normalized.Sim.PhysicsSteps = defaults.Sim.PhysicsSteps
	}
	if normalized.Sim.HookIterationCap <= 0 {
		normalized.Sim.HookIterationCap = defaults.Sim.HookIterationCap
	}

	w := &normalized.Weapons
	w.BaseJamChance = clamp01(w.BaseJamChance)
	if w.MinSpreadDeg < 0 {
		w.MinSpreadDeg = 0
	}
	if w.MaxSpreadDeg <= 0 {
		w.MaxSpreadDeg = defaults.Weapons.MaxSpreadDeg
	}
	if w.MinSpreadDeg > w.MaxSpreadDeg {
		w.MinSpreadDeg = w.MaxSpreadDeg
	}
	if w.MaxRecoilSpreadDeg < 0 {
		w.MaxRecoilSpreadDeg = 0
	}
	if w.UnjamIncrement <= 0 {
		w.UnjamIncrement = defaults.Weapons.UnjamIncrement
	}

	p := &normalized.Pools
	if p.Entities <= 0 {
		p.Entities = defaults.Pools.Entities
	}
	if p.Weapons <= 0 {
		p.Weapons = defaults.Pools.Weapons
	}
	if p.Projectiles <= 0 {
		p.Projectiles = defaults.Pools.Projectiles
	}
	if p.GroundItems <= 0 {
		p.GroundItems = defaults.Pools.GroundItems
	}

	if normalized.Items.PickupRadius < 0 {
		normalized.Items.PickupRadius = 0
	}
	if normalized.Items.InventorySlots < 0 {
		normalized.Items.InventorySlots = 0
	}

	normalized.Logging.MinSeverity = strings.ToLower(strings.TrimSpace(normalized.Logging.MinSeverity))
	if normalized.Logging.MinSeverity == "" {
		normalized.Logging.MinSeverity = defaults.Logging.MinSeverity
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("sim.tickRateHz", d.Sim.TickRateHz)
	v.SetDefault("sim.maxCatchupTicks", d.Sim.MaxCatchupTicks)
	v.SetDefault("sim.physicsSteps", d.Sim.PhysicsSteps)
	v.SetDefault("sim.hookIterationCap", d.Sim.HookIterationCap)
	v.SetDefault("sim.seed", d.Sim.Seed)

	v.SetDefault("weapons.baseJamChance", d.Weapons.BaseJamChance)
	v.SetDefault("weapons.minSpreadDeg", d.Weapons.MinSpreadDeg)
	v.SetDefault("weapons.maxSpreadDeg", d.Weapons.MaxSpreadDeg)
	v.SetDefault("weapons.maxRecoilSpreadDeg", d.Weapons.MaxRecoilSpreadDeg)
	v.SetDefault("weapons.unjamIncrement", d.Weapons.UnjamIncrement)

	v.SetDefault("pools.entities", d.Pools.Entities)
	v.SetDefault("pools.weapons", d.Pools.Weapons)
	v.SetDefault("pools.projectiles", d.Pools.Projectiles)
	v.SetDefault("pools.groundItems", d.Pools.GroundItems)

	v.SetDefault("items.pickupRadius", d.Items.PickupRadius)
	v.SetDefault("items.inventorySlots", d.Items.InventorySlots)

	v.SetDefault("logging.minSeverity", d.Logging.MinSeverity)
	v.SetDefault("logging.sinks", d.Logging.Sinks)
	v.SetDefault("logging.jsonPath", "")
	v.SetDefault("logging.feedAddr", "")

	v.SetDefault("telemetry.otel", false)
	v.SetDefault("audio.enabled", false)
	v.SetDefault("catalog.path", d.Catalog.Path)
}

// Load reads arena.{json,yaml,toml} from configDir into the global viper
// instance. A missing file leaves the defaults in place; ARENA_* environment
// variables override both.
func Load(configDir string) (Config, error) {
	return LoadInto(viper.GetViper(), configDir)
}

// LoadInto is Load against a caller-owned viper instance.
func LoadInto(v *viper.Viper, configDir string) (Config, error) {
	setDefaults(v)

	v.SetConfigName(FileName)
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg.normalized(), nil
}

// TickSeconds is the fixed simulation step.
func (cfg Config) TickSeconds() float64 {
	rate := cfg.Sim.TickRateHz
	if rate <= 0 {
		rate = DefaultTickRateHz
	}
	return 1 / float64(rate)
}
