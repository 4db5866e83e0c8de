package weapons

import (
	"context"
	"math/rand"
	"testing"

	"pgregory.net/rapid"

	"arena-shooter/core/internal/defs"
)

func TestAmmoStaysInBoundsUnderRandomInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		f.rt.RNG = rand.New(rand.NewSource(rapid.Int64().Draw(rt, "seed")))
		def := rifleDef()
		def.MagazineSize = rapid.IntRange(1, 40).Draw(rt, "magazine")
		def.ReserveMax = rapid.IntRange(0, 120).Draw(rt, "reserve")
		def.EjectTime = rapid.Float64Range(0, 0.5).Draw(rt, "eject")
		def.JamChance = rapid.Float64Range(0, 0.3).Draw(rt, "jam")
		def.FireMode = rapid.SampledFrom([]defs.FireMode{defs.FireAuto, defs.FireSingle, defs.FireBurst}).Draw(rt, "mode")
		def.BurstCount = 3
		def.BurstRPM = 1200
		f.rt.Config.UnjamIncrement = 0.5
		w := f.weapon(def)
		ctx := context.Background()

		steps := rapid.IntRange(1, 300).Draw(rt, "steps")
		for tick := 0; tick < steps; tick++ {
			switch rapid.IntRange(0, 3).Draw(rt, "action") {
			case 0:
				f.rt.Trigger(ctx, uint64(tick), w, f.holder, Trigger{Held: true, Pressed: rapid.Bool().Draw(rt, "edge")})
			case 1:
				f.rt.Reload(ctx, uint64(tick), w, f.holder)
			case 2:
				f.rt.Unjam(ctx, uint64(tick), w, f.holder)
			}
			f.rt.Progress(ctx, uint64(tick), w, f.holder, 1.0/60)

			inst := w.State
			if inst.Magazine < 0 || inst.Magazine > def.MagazineSize {
				rt.Fatalf("magazine %d outside [0, %d]", inst.Magazine, def.MagazineSize)
			}
			if inst.Reserve < 0 {
				rt.Fatalf("reserve went negative: %d", inst.Reserve)
			}
		}
	})
}

func TestReloadCompletionArithmetic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		def := rifleDef()
		def.MagazineSize = rapid.IntRange(1, 50).Draw(rt, "magazine")
		def.ReserveMax = 500
		w := f.weapon(def)
		w.State.Magazine = rapid.IntRange(0, def.MagazineSize-1).Draw(rt, "loaded")
		w.State.Reserve = rapid.IntRange(1, 200).Draw(rt, "reserve")
		reserve := w.State.Reserve
		ctx := context.Background()

		f.rt.Reload(ctx, 1, w, f.holder)
		if f.rt.Progress(ctx, 2, w, f.holder, def.ReloadTime) != ReloadCompleted {
			rt.Fatalf("expected completion after a full reload duration")
		}
		want := min(def.MagazineSize, reserve)
		if w.State.Reloading || w.State.Magazine != want || w.State.Reserve != reserve-want {
			rt.Fatalf("expected magazine %d reserve %d, got %+v", want, reserve-want, *w.State)
		}
	})
}
