// Package loot implements weighted selection over drop tables.
package loot

// Source is the slice of *rand.Rand the picker needs.
type Source interface {
	Float64() float64
}

// Entry is one weighted candidate. Non-positive weights never win.
type Entry struct {
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Category names a drop table.
type Category string

const (
	CategoryNone    Category = "none"
	CategoryPowerup Category = "powerup"
	CategoryItem    Category = "item"
	CategoryGun     Category = "gun"
)

// CategoryWeight weights one category in the first roll.
type CategoryWeight struct {
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
}

// Table is a two-stage drop table: a category roll, then a weighted pick
// inside the chosen category.
type Table struct {
	Categories []CategoryWeight `json:"categories,omitempty"`
	Powerups   []Entry          `json:"powerups,omitempty"`
	Items      []Entry          `json:"items,omitempty"`
	Guns       []Entry          `json:"guns,omitempty"`
}

// Drop is the outcome of a successful roll.
type Drop struct {
	Category Category
	Type     string
}

// Pick draws uniform(0, total) and returns the first entry whose cumulative
// weight reaches the draw. An empty list or zero total yields false.
func Pick(rng Source, entries []Entry) (string, bool) {
	index, ok := pickIndex(rng, len(entries), func(i int) float64 { return entries[i].Weight })
	if !ok {
		return "", false
	}
	return entries[index].Type, true
}

func pickIndex(rng Source, n int, weight func(int) float64) (int, bool) {
	total := 0.0
	last := -1
	for i := 0; i < n; i++ {
		if w := weight(i); w > 0 {
			total += w
			last = i
		}
	}
	if total <= 0 || rng == nil {
		return 0, false
	}
	draw := rng.Float64() * total
	running := 0.0
	for i := 0; i < n; i++ {
		w := weight(i)
		if w <= 0 {
			continue
		}
		running += w
		if running >= draw {
			return i, true
		}
	}
	// Float rounding can leave the draw a hair above the running sum.
	return last, true
}

// Roll runs the category roll and then the pick inside that category.
func Roll(rng Source, table Table) (Drop, bool) {
	categories := table.Categories
	index, ok := pickIndex(rng, len(categories), func(i int) float64 { return categories[i].Weight })
	if !ok {
		return Drop{}, false
	}
	category := categories[index].Category
	kind, ok := Pick(rng, table.Entries(category))
	if !ok {
		return Drop{}, false
	}
	return Drop{Category: category, Type: kind}, true
}

// Entries returns the table for a category.
func (t Table) Entries(category Category) []Entry {
	switch category {
	case CategoryPowerup:
		return t.Powerups
	case CategoryItem:
		return t.Items
	case CategoryGun:
		return t.Guns
	default:
		return nil
	}
}

// Empty reports whether the table can never drop anything.
func (t Table) Empty() bool {
	return len(t.Powerups) == 0 && len(t.Items) == 0 && len(t.Guns) == 0
}
