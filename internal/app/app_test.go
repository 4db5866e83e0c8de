package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-shooter/core/internal/config"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/sim"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
)

func TestBundledAssetsLoad(t *testing.T) {
	catalog, err := loadCatalog("", nil)
	require.NoError(t, err)
	for _, id := range []string{"ranger", "grunt", "brute"} {
		_, ok := catalog.Entity(id)
		assert.True(t, ok, id)
	}

	grid, err := defaultGrid()
	require.NoError(t, err)
	assert.Equal(t, 40, grid.Width)
	assert.Equal(t, 16, grid.Height)
	x, y, ok := exitCenter(grid)
	require.True(t, ok)
	tile := grid.TileAt(x, y)
	assert.True(t, grid.Has(tile.X, tile.Y, stage.Exit))
}

func TestLoadCatalogMissingVersusMalformed(t *testing.T) {
	dir := t.TempDir()
	var notes []string
	logger := telemetry.LoggerFunc(func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	})

	catalog, err := loadCatalog(filepath.Join(dir, "missing.json"), logger)
	require.NoError(t, err)
	assert.NotNil(t, catalog)
	assert.Len(t, notes, 1)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"weapons": [`), 0o644))
	_, err = loadCatalog(broken, logger)
	assert.Error(t, err)
}

func newDemoSim(t *testing.T) *sim.Simulation {
	t.Helper()
	catalog, err := loadCatalog("", nil)
	require.NoError(t, err)
	grid, err := defaultGrid()
	require.NoError(t, err)
	s, err := sim.New(config.DefaultConfig(), catalog, grid, sim.Deps{})
	require.NoError(t, err)
	return s
}

func TestPopulateSpawnsEncounter(t *testing.T) {
	s := newDemoSim(t)
	player, err := populate(s)
	require.NoError(t, err)

	var npcs int
	for _, h := range s.Entities() {
		e, _ := s.Entity(h)
		if e.Kind == entity.KindNPC {
			npcs++
			assert.False(t, e.Weapon.IsZero(), "%s spawns armed", e.Type)
		}
	}
	assert.Equal(t, len(npcSpawns), npcs)
	e, ok := s.Entity(player)
	require.True(t, ok)
	assert.Equal(t, entity.KindPlayer, e.Kind)
	assert.Equal(t, len(crateSpawns), s.Ground().Len())
}

func TestPilotEngagesNearestNPC(t *testing.T) {
	s := newDemoSim(t)
	player, err := populate(s)
	require.NoError(t, err)
	p := newPilot(s, player)
	require.True(t, p.hasExit)

	self, _ := s.Entity(player)
	target, ok := p.nearestNPC(self)
	require.True(t, ok)

	in := p.inputs(1)[player]
	assert.Equal(t, target.X, in.AimX)
	assert.Equal(t, target.Y, in.AimY)

	// Out of range the pilot closes in instead of shooting.
	assert.False(t, in.Fire)
	assert.Positive(t, in.MoveX)

	for _, h := range s.Entities() {
		if e, _ := s.Entity(h); e.Kind == entity.KindNPC {
			e.Active = false
		}
	}
	in = p.inputs(3)[player]
	ex, ey := toward(self, p.exitX, p.exitY)
	assert.Equal(t, ex, in.MoveX)
	assert.Equal(t, ey, in.MoveY)
}

func TestPilotKeepsWeaponRunning(t *testing.T) {
	s := newDemoSim(t)
	player, err := populate(s)
	require.NoError(t, err)
	p := newPilot(s, player)
	self, _ := s.Entity(player)
	inst, ok := s.Weapon(self.Weapon)
	require.True(t, ok)

	var in sim.Input
	inst.Jammed = true
	p.operateWeapon(self, 2, &in)
	assert.True(t, in.Use)

	in = sim.Input{}
	inst.Jammed = false
	inst.Magazine = 0
	p.operateWeapon(self, 2, &in)
	assert.True(t, in.Reload)

	in = sim.Input{}
	inst.Magazine = 10
	def, _ := s.Catalog().Weapon(inst.Type)
	require.Equal(t, defs.FireAuto, def.FireMode)
	p.operateWeapon(self, 3, &in)
	assert.True(t, in.Fire, "automatic weapons are held")
}

func TestRunStopsAfterMaxTicks(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "events.jsonl")
	settings := fmt.Sprintf("logging:\n  sinks: [json]\n  jsonPath: %q\ncatalog:\n  path: %q\n",
		jsonPath, filepath.Join(dir, "missing.json"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName+".yaml"), []byte(settings), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	summary, err := Run(ctx, Options{
		ConfigDir: dir,
		Logger:    telemetry.LoggerFunc(t.Logf),
		MaxTicks:  30,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Ticks, uint64(30))
	assert.NotEqual(t, "", summary.Session.String())
	assert.FileExists(t, jsonPath)
	require.NoError(t, ctx.Err(), "the session ended on its own")
}
