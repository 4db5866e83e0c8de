package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"sim": { "tickRateHz": 30, "seed": "replay-7" },
		"weapons": { "baseJamChance": 0.05 },
		"pools": { "projectiles": 64 },
		"logging": { "sinks": ["console", "json"], "jsonPath": "events.ndjson" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arena.json"), []byte(cfg), 0644))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 30, loaded.Sim.TickRateHz)
	assert.Equal(t, "replay-7", loaded.Sim.Seed)
	assert.InDelta(t, 0.05, loaded.Weapons.BaseJamChance, 1e-9)
	assert.Equal(t, 64, loaded.Pools.Projectiles)
	assert.Equal(t, []string{"console", "json"}, loaded.Logging.Sinks)
	assert.Equal(t, "events.ndjson", loaded.Logging.JSONPath)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5, loaded.Sim.MaxCatchupTicks)
	assert.Equal(t, 4000, loaded.Sim.HookIterationCap)
	assert.InDelta(t, 0.2, loaded.Weapons.UnjamIncrement, 1e-9)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	loaded, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arena.json"), []byte(`{"sim": `), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("ARENA_SIM_SEED", "from-env")
	t.Setenv("ARENA_SIM_MAXCATCHUPTICKS", "9")

	loaded, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.Sim.Seed)
	assert.Equal(t, 9, loaded.Sim.MaxCatchupTicks)
}

func TestNormalizedClampsInvalidValues(t *testing.T) {
	cfg := Config{
		Sim:     SimConfig{TickRateHz: -1, Seed: "   "},
		Weapons: WeaponsConfig{BaseJamChance: 3, MinSpreadDeg: 90, MaxSpreadDeg: 45},
		Items:   ItemsConfig{PickupRadius: -5, InventorySlots: -1},
	}.Normalized()

	assert.Equal(t, DefaultTickRateHz, cfg.Sim.TickRateHz)
	assert.Equal(t, DefaultSeed, cfg.Sim.Seed)
	assert.Equal(t, 1.0, cfg.Weapons.BaseJamChance)
	assert.Equal(t, 45.0, cfg.Weapons.MinSpreadDeg)
	assert.Equal(t, 0.0, cfg.Items.PickupRadius)
	assert.Equal(t, 0, cfg.Items.InventorySlots)
	assert.Equal(t, "info", cfg.Logging.MinSeverity)
	assert.InDelta(t, 1.0/60, cfg.TickSeconds(), 1e-12)
}
