package stage

import (
	"math"
	"testing"
)

func mustParse(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g, err := Parse(rows, 10)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return g
}

func TestParseFlags(t *testing.T) {
	g := mustParse(t,
		"#~|E.",
	)
	cases := []struct {
		x    int
		want Flag
	}{
		{0, Wall}, {1, Pit}, {2, Grate}, {3, Exit}, {4, Floor},
	}
	for _, tc := range cases {
		if got := g.At(tc.x, 0); got != tc.want {
			t.Fatalf("cell %d: expected flags %b, got %b", tc.x, tc.want, got)
		}
	}
	if !g.Has(-1, 0, BlocksProjectiles) || !g.Has(5, 0, BlocksEntities) {
		t.Fatalf("expected out-of-bounds cells to block")
	}
}

func TestMoveBoxSlidesAlongWall(t *testing.T) {
	g := mustParse(t,
		".....",
		".....",
		"#####",
	)
	box := BoxAt(15, 15, 4, 4)
	moved, hitX, hitY := g.MoveBox(box, 3, 6, BlocksEntities)

	if hitX {
		t.Fatalf("did not expect a horizontal block")
	}
	if !hitY {
		t.Fatalf("expected the wall below to stop vertical motion")
	}
	if math.Abs(moved.MaxY-20) > 1e-9 {
		t.Fatalf("expected box flush against wall at y=20, got %.3f", moved.MaxY)
	}
	if math.Abs(moved.MinX-14) > 1e-9 {
		t.Fatalf("expected horizontal slide to x=14, got %.3f", moved.MinX)
	}
}

func TestSweepNegativeDirectionStopsAtCellEdge(t *testing.T) {
	g := mustParse(t, "#....")
	box := BoxAt(25, 5, 2, 2)
	allowed, tile, hit := g.SweepX(box, -20, BlocksProjectiles)
	if !hit || tile.X != 0 {
		t.Fatalf("expected hit on column 0, got hit=%v tile=%+v", hit, tile)
	}
	if math.Abs(allowed-(-13)) > 1e-9 {
		t.Fatalf("expected allowed displacement -13, got %.3f", allowed)
	}
}

func TestGrateBlocksProjectilesOnly(t *testing.T) {
	g := mustParse(t, "..|..")
	box := BoxAt(15, 5, 2, 2)
	if _, _, hit := g.SweepX(box, 10, BlocksEntities); hit {
		t.Fatalf("grate should not block entities")
	}
	if _, _, hit := g.SweepX(box, 10, BlocksProjectiles); !hit {
		t.Fatalf("grate should block projectiles")
	}
}

func TestNearestOpenSkipsBlockedCells(t *testing.T) {
	g := mustParse(t,
		"###",
		"##.",
		"###",
	)
	x, y, ok := g.NearestOpen(5, 5, BlocksEntities)
	if !ok {
		t.Fatalf("expected an open cell")
	}
	if x != 25 || y != 15 {
		t.Fatalf("expected centre of (2,1) = (25,15), got (%.1f,%.1f)", x, y)
	}

	closed := mustParse(t, "##")
	if _, _, ok := closed.NearestOpen(5, 5, BlocksEntities); ok {
		t.Fatalf("expected no open cell in a solid grid")
	}
}
