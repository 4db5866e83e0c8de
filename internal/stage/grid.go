package stage

import (
	"fmt"
	"math"
)

// Flag is a per-tile bitset.
type Flag uint8

const (
	BlocksEntities Flag = 1 << iota
	BlocksProjectiles
	Exit
)

const (
	Wall  = BlocksEntities | BlocksProjectiles
	Pit   = BlocksEntities
	Grate = BlocksProjectiles
	Floor Flag = 0
)

// Tile identifies a grid cell.
type Tile struct {
	X int
	Y int
}

// Grid is a rectangular tile map stored row-major.
type Grid struct {
	Width    int
	Height   int
	TileSize float64
	tiles    []Flag
}

func New(width, height int, tileSize float64) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if tileSize <= 0 {
		tileSize = 1
	}
	return &Grid{Width: width, Height: height, TileSize: tileSize, tiles: make([]Flag, width*height)}
}

// Parse builds a grid from text rows: '#' wall, '~' pit, '|' grate, 'E' exit,
// anything else floor. Rows shorter than the widest row are padded with floor.
func Parse(rows []string, tileSize float64) (*Grid, error) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return nil, fmt.Errorf("stage: empty layout")
	}
	g := New(width, len(rows), tileSize)
	for y, row := range rows {
		for x, ch := range []byte(row) {
			switch ch {
			case '#':
				g.Set(x, y, Wall)
			case '~':
				g.Set(x, y, Pit)
			case '|':
				g.Set(x, y, Grate)
			case 'E':
				g.Set(x, y, Exit)
			}
		}
	}
	return g, nil
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

func (g *Grid) Set(x, y int, flags Flag) {
	if !g.inBounds(x, y) {
		return
	}
	g.tiles[y*g.Width+x] = flags
}

// At returns the flags of a cell. Out-of-bounds cells behave as walls.
func (g *Grid) At(x, y int) Flag {
	if !g.inBounds(x, y) {
		return Wall
	}
	return g.tiles[y*g.Width+x]
}

func (g *Grid) Has(x, y int, flag Flag) bool {
	return g.At(x, y)&flag != 0
}

// TileAt returns the cell containing a world position.
func (g *Grid) TileAt(x, y float64) Tile {
	return Tile{X: int(math.Floor(x / g.TileSize)), Y: int(math.Floor(y / g.TileSize))}
}

// Center returns the world-space midpoint of a cell.
func (g *Grid) Center(t Tile) (float64, float64) {
	return (float64(t.X) + 0.5) * g.TileSize, (float64(t.Y) + 0.5) * g.TileSize
}

// cells returns the inclusive cell range covered by box. Touching a cell edge
// from outside does not count as covering it.
func (g *Grid) cells(box Box) (minX, minY, maxX, maxY int) {
	const eps = 1e-9
	minX = int(math.Floor(box.MinX / g.TileSize))
	minY = int(math.Floor(box.MinY / g.TileSize))
	maxX = int(math.Floor((box.MaxX - eps) / g.TileSize))
	maxY = int(math.Floor((box.MaxY - eps) / g.TileSize))
	return minX, minY, max(minX, maxX), max(minY, maxY)
}

// AnyFlag reports whether any cell covered by box carries flag.
func (g *Grid) AnyFlag(box Box, flag Flag) bool {
	_, ok := g.FirstFlagged(box, flag)
	return ok
}

// FirstFlagged returns the first covered cell carrying flag in row-major order.
func (g *Grid) FirstFlagged(box Box, flag Flag) (Tile, bool) {
	minX, minY, maxX, maxY := g.cells(box)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if g.Has(x, y, flag) {
				return Tile{X: x, Y: y}, true
			}
		}
	}
	return Tile{}, false
}

// NearestOpen searches outward from the cell containing (x, y) and returns the
// centre of the closest in-bounds cell without flag.
func (g *Grid) NearestOpen(x, y float64, flag Flag) (float64, float64, bool) {
	start := g.TileAt(x, y)
	start.X = min(max(start.X, 0), g.Width-1)
	start.Y = min(max(start.Y, 0), g.Height-1)
	if !g.inBounds(start.X, start.Y) {
		return 0, 0, false
	}

	visited := make([]bool, g.Width*g.Height)
	queue := []Tile{start}
	visited[start.Y*g.Width+start.X] = true
	neighbours := [4]Tile{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !g.Has(current.X, current.Y, flag) {
			cx, cy := g.Center(current)
			return cx, cy, true
		}
		for _, d := range neighbours {
			next := Tile{X: current.X + d.X, Y: current.Y + d.Y}
			if !g.inBounds(next.X, next.Y) || visited[next.Y*g.Width+next.X] {
				continue
			}
			visited[next.Y*g.Width+next.X] = true
			queue = append(queue, next)
		}
	}
	return 0, 0, false
}
