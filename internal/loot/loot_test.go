package loot

import (
	"math"
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestPickApproximatesWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	entries := []Entry{{Type: "A", Weight: 1}, {Type: "B", Weight: 3}}

	const trials = 40000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		kind, ok := Pick(rng, entries)
		if !ok {
			t.Fatalf("expected a pick on trial %d", i)
		}
		counts[kind]++
	}

	share := float64(counts["A"]) / trials
	if math.Abs(share-0.25) > 0.02 {
		t.Fatalf("expected A near 25%%, got %.3f (%v)", share, counts)
	}
}

func TestPickEmptyOrZeroWeightYieldsNoDrop(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := Pick(rng, nil); ok {
		t.Fatalf("empty list must not drop")
	}
	if _, ok := Pick(rng, []Entry{{Type: "A", Weight: 0}, {Type: "B", Weight: -2}}); ok {
		t.Fatalf("zero total weight must not drop")
	}
}

func TestPickBoundaryDrawsSelectFirstCumulativeMatch(t *testing.T) {
	entries := []Entry{{Type: "A", Weight: 1}, {Type: "B", Weight: 3}}
	cases := []struct {
		draw float64
		want string
	}{
		{0, "A"},
		{0.25, "A"},
		{0.2500001, "B"},
		{0.9999999, "B"},
	}
	for _, tc := range cases {
		got, _ := Pick(fixedSource(tc.draw), entries)
		if got != tc.want {
			t.Fatalf("draw %.7f: expected %s, got %s", tc.draw, tc.want, got)
		}
	}
}

func TestRollUsesCategoryThenEntry(t *testing.T) {
	table := Table{
		Categories: []CategoryWeight{{Category: CategoryNone, Weight: 1}, {Category: CategoryGun, Weight: 1}},
		Guns:       []Entry{{Type: "pistol", Weight: 1}},
	}

	if _, ok := Roll(fixedSource(0.1), table); ok {
		t.Fatalf("expected the none category to yield no drop")
	}
	drop, ok := Roll(fixedSource(0.9), table)
	if !ok || drop.Category != CategoryGun || drop.Type != "pistol" {
		t.Fatalf("expected pistol from gun table, got %+v ok=%v", drop, ok)
	}

	if _, ok := Roll(fixedSource(0.5), Table{}); ok {
		t.Fatalf("empty table must not drop")
	}
}

func TestPickNeverReturnsNonPositiveWeight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		entries := make([]Entry, n)
		for i := range entries {
			entries[i] = Entry{
				Type:   string(rune('a' + i)),
				Weight: rapid.Float64Range(-2, 5).Draw(t, "weight"),
			}
		}
		draw := rapid.Float64Range(0, 0.999999).Draw(t, "draw")

		kind, ok := Pick(fixedSource(draw), entries)
		total := 0.0
		for _, e := range entries {
			if e.Weight > 0 {
				total += e.Weight
			}
		}
		if total <= 0 {
			if ok {
				t.Fatalf("picked %q from a table with no positive weight", kind)
			}
			return
		}
		if !ok {
			t.Fatalf("expected a pick with total weight %.3f", total)
		}
		for _, e := range entries {
			if e.Type == kind && e.Weight <= 0 {
				t.Fatalf("picked non-positive entry %+v", e)
			}
		}
	})
}
