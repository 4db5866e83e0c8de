package app

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/items"
	"arena-shooter/core/internal/sim"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
)

//go:embed assets/catalog.json
var bundledCatalog []byte

//go:embed assets/stage.txt
var bundledStage string

const stageTileSize = 24

// loadCatalog reads path, falling back to the bundled catalog when the file
// does not exist. A file that exists but fails to load is an error.
func loadCatalog(path string, logger telemetry.Logger) (*defs.Catalog, error) {
	if path != "" {
		catalog, err := defs.LoadFile(path)
		if err == nil {
			return catalog, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if logger != nil {
			logger.Printf("catalog %s not found, using bundled catalog", path)
		}
	}
	catalog, err := defs.Load(bytes.NewReader(bundledCatalog))
	if err != nil {
		return nil, fmt.Errorf("bundled catalog: %w", err)
	}
	return catalog, nil
}

func defaultGrid() (*stage.Grid, error) {
	rows := strings.Split(strings.TrimSpace(bundledStage), "\n")
	for i, row := range rows {
		rows[i] = strings.TrimRight(row, "\r")
	}
	return stage.Parse(rows, stageTileSize)
}

type placement struct {
	typ  string
	tile stage.Tile
}

var (
	playerSpawn = placement{"ranger", stage.Tile{X: 2, Y: 2}}
	npcSpawns   = []placement{
		{"grunt", stage.Tile{X: 20, Y: 2}},
		{"grunt", stage.Tile{X: 31, Y: 8}},
		{"grunt", stage.Tile{X: 12, Y: 12}},
		{"brute", stage.Tile{X: 28, Y: 12}},
	}
	crateSpawns = []placement{
		{"supply_crate", stage.Tile{X: 7, Y: 7}},
	}
)

// populate spawns the bundled encounter and returns the player handle.
func populate(s *sim.Simulation) (handle.Handle, error) {
	grid := s.Grid()
	x, y := grid.Center(playerSpawn.tile)
	player, err := s.SpawnPlayer(playerSpawn.typ, x, y)
	if err != nil {
		return handle.Handle{}, err
	}
	for _, npc := range npcSpawns {
		x, y := grid.Center(npc.tile)
		if _, err := s.SpawnNPC(npc.typ, x, y, nil); err != nil {
			return handle.Handle{}, err
		}
	}
	for _, crate := range crateSpawns {
		x, y := grid.Center(crate.tile)
		if _, err := s.PlaceItem(items.KindCrate, crate.typ, x, y); err != nil {
			if errors.Is(err, defs.ErrUnknownDefinition) {
				continue
			}
			return handle.Handle{}, err
		}
	}
	return player, nil
}

// exitCenter returns the centre of the first exit tile in row order.
func exitCenter(grid *stage.Grid) (float64, float64, bool) {
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if grid.Has(x, y, stage.Exit) {
				cx, cy := grid.Center(stage.Tile{X: x, Y: y})
				return cx, cy, true
			}
		}
	}
	return 0, 0, false
}
