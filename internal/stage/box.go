package stage

import "math"

// Box is an axis-aligned bounding box in world units.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// BoxAt builds a box from a centre and half extents.
func BoxAt(cx, cy, halfW, halfH float64) Box {
	return Box{MinX: cx - halfW, MinY: cy - halfH, MaxX: cx + halfW, MaxY: cy + halfH}
}

func (b Box) Translate(dx, dy float64) Box {
	return Box{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

func (b Box) Union(o Box) Box {
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Overlaps is strict: boxes that only share an edge do not overlap.
func (b Box) Overlaps(o Box) bool {
	return b.MinX < o.MaxX && b.MaxX > o.MinX && b.MinY < o.MaxY && b.MaxY > o.MinY
}

func (b Box) Center() (float64, float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}

const edgeEpsilon = 1e-9

// SweepX moves box horizontally by dx and stops flush against the first cell
// carrying flag. It returns the permitted displacement and the blocking cell.
func (g *Grid) SweepX(box Box, dx float64, flag Flag) (float64, Tile, bool) {
	if dx == 0 {
		return 0, Tile{}, false
	}
	_, minRow, _, maxRow := g.cells(box)
	ts := g.TileSize
	if dx > 0 {
		start := int(math.Floor((box.MaxX-edgeEpsilon)/ts)) + 1
		end := int(math.Floor((box.MaxX + dx - edgeEpsilon) / ts))
		for col := start; col <= end; col++ {
			for row := minRow; row <= maxRow; row++ {
				if g.Has(col, row, flag) {
					return math.Max(0, float64(col)*ts-box.MaxX), Tile{X: col, Y: row}, true
				}
			}
		}
		return dx, Tile{}, false
	}
	start := int(math.Floor(box.MinX/ts)) - 1
	end := int(math.Floor((box.MinX + dx) / ts))
	for col := start; col >= end; col-- {
		for row := minRow; row <= maxRow; row++ {
			if g.Has(col, row, flag) {
				return math.Min(0, float64(col+1)*ts-box.MinX), Tile{X: col, Y: row}, true
			}
		}
	}
	return dx, Tile{}, false
}

// SweepY is the vertical counterpart of SweepX.
func (g *Grid) SweepY(box Box, dy float64, flag Flag) (float64, Tile, bool) {
	if dy == 0 {
		return 0, Tile{}, false
	}
	minCol, _, maxCol, _ := g.cells(box)
	ts := g.TileSize
	if dy > 0 {
		start := int(math.Floor((box.MaxY-edgeEpsilon)/ts)) + 1
		end := int(math.Floor((box.MaxY + dy - edgeEpsilon) / ts))
		for row := start; row <= end; row++ {
			for col := minCol; col <= maxCol; col++ {
				if g.Has(col, row, flag) {
					return math.Max(0, float64(row)*ts-box.MaxY), Tile{X: col, Y: row}, true
				}
			}
		}
		return dy, Tile{}, false
	}
	start := int(math.Floor(box.MinY/ts)) - 1
	end := int(math.Floor((box.MinY + dy) / ts))
	for row := start; row >= end; row-- {
		for col := minCol; col <= maxCol; col++ {
			if g.Has(col, row, flag) {
				return math.Min(0, float64(row+1)*ts-box.MinY), Tile{X: col, Y: row}, true
			}
		}
	}
	return dy, Tile{}, false
}

// MoveBox resolves X then Y separately so a box pushed diagonally into a wall
// keeps sliding along it.
func (g *Grid) MoveBox(box Box, dx, dy float64, flag Flag) (Box, bool, bool) {
	allowedX, _, hitX := g.SweepX(box, dx, flag)
	box = box.Translate(allowedX, 0)
	allowedY, _, hitY := g.SweepY(box, dy, flag)
	box = box.Translate(0, allowedY)
	return box, hitX, hitY
}
