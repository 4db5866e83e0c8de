package weapons

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"go.uber.org/mock/gomock"

	"arena-shooter/core/internal/audio/mocks"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/loot"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
	"arena-shooter/core/logging/sinks"
	loggingweapons "arena-shooter/core/logging/weapons"
)

type fixture struct {
	rt       *Runtime
	memory   *sinks.Memory
	counters *telemetry.Counters
	registry *hooks.Registry
	holder   Holder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	memory := sinks.NewMemory()
	counters := telemetry.NewCounters()
	registry := hooks.NewRegistry(hooks.Deps{Publisher: memory, Metrics: counters})
	return &fixture{
		rt: &Runtime{
			Config:    DefaultConfig(),
			RNG:       rand.New(rand.NewSource(7)),
			Hooks:     registry,
			Publisher: memory,
			Metrics:   counters,
		},
		memory:   memory,
		counters: counters,
		registry: registry,
		holder: Holder{
			Entity:   handle.Handle{Index: 0, Generation: 1},
			Kind:     logging.EntityKindPlayer,
			Accuracy: 1,
		},
	}
}

func rifleDef() *defs.WeaponDefinition {
	return &defs.WeaponDefinition{
		Type:         "rifle",
		Damage:       20,
		RPM:          600,
		Pellets:      1,
		DeviationDeg: 2,
		Recoil:       1.5,
		Control:      10,
		FireMode:     defs.FireAuto,
		MagazineSize: 30,
		ReserveMax:   90,
		ReloadTime:   1,
		ActiveReload: defs.ActiveReloadWindow{Pos: 0.5, Size: 0.2},
		Ammo:         []loot.Entry{{Type: "fmj", Weight: 1}},
		FireSound:    "rifle_fire",
		JamSound:     "jam",
	}
}

func (f *fixture) weapon(def *defs.WeaponDefinition) Weapon {
	inst := New(def, f.rt.RNG)
	return Weapon{Handle: handle.Handle{Index: 3, Generation: 1}, State: &inst, Def: def}
}

func TestNewLoadsMagazineAndPicksAmmo(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	if w.State.Magazine != 30 || w.State.Reserve != 90 {
		t.Fatalf("expected full magazine and reserve, got %d/%d", w.State.Magazine, w.State.Reserve)
	}
	if w.State.Ammo != "fmj" {
		t.Fatalf("expected fmj selected, got %q", w.State.Ammo)
	}
}

func TestAutoFiresWhileHeldAndRespectsCooldown(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	ctx := context.Background()
	held := Trigger{Held: true}

	if res := f.rt.Trigger(ctx, 1, w, f.holder, held); !res.Fired {
		t.Fatalf("expected first shot to fire")
	}
	if math.Abs(w.State.Cooldown-0.1) > 1e-9 {
		t.Fatalf("expected 60/rpm cooldown of 0.1, got %.4f", w.State.Cooldown)
	}
	if res := f.rt.Trigger(ctx, 1, w, f.holder, held); res.Fired {
		t.Fatalf("expected cooldown to gate the second shot")
	}
	if w.State.Magazine != 29 {
		t.Fatalf("gated shot must not consume ammo, magazine=%d", w.State.Magazine)
	}

	for i := 0; i < 6; i++ {
		f.rt.Progress(ctx, 2, w, f.holder, 1.0/60)
	}
	if res := f.rt.Trigger(ctx, 8, w, f.holder, held); !res.Fired {
		t.Fatalf("expected shot after cooldown elapsed (cooldown %.12f)", w.State.Cooldown)
	}
	if got := f.counters.Get(telemetry.MetricShotsFired); got != 2 {
		t.Fatalf("expected 2 shots counted, got %d", got)
	}
}

func TestSingleFiresOnlyOnRisingEdge(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.FireMode = defs.FireSingle
	w := f.weapon(def)
	ctx := context.Background()

	if res := f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true}); res.Fired {
		t.Fatalf("single mode must not fire on a held trigger")
	}
	if res := f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true, Pressed: true}); !res.Fired {
		t.Fatalf("single mode must fire on the rising edge")
	}
}

func TestBurstUsesBurstCadenceThenFullCooldown(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.FireMode = defs.FireBurst
	def.BurstCount = 3
	def.BurstRPM = 1200
	def.RPM = 60
	w := f.weapon(def)
	ctx := context.Background()

	fired := 0
	if f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true, Pressed: true}).Fired {
		fired++
	}
	if math.Abs(w.State.Cooldown-0.05) > 1e-9 || w.State.BurstRemaining != 2 {
		t.Fatalf("expected burst cadence 0.05 with 2 remaining, got %.3f/%d", w.State.Cooldown, w.State.BurstRemaining)
	}
	for i := 0; i < 4; i++ {
		f.rt.Progress(ctx, 2, w, f.holder, 0.05)
		// Releasing the trigger does not cancel an armed burst.
		if f.rt.Trigger(ctx, 2, w, f.holder, Trigger{}).Fired {
			fired++
		}
	}
	if fired != 3 {
		t.Fatalf("expected exactly 3 burst shots, got %d", fired)
	}
	if w.State.BurstRemaining != 0 {
		t.Fatalf("expected burst exhausted, remaining %d", w.State.BurstRemaining)
	}
	if w.State.Cooldown <= 0.5 {
		t.Fatalf("expected the last burst shot to set the 60/rpm cooldown, got %.3f", w.State.Cooldown)
	}
}

func TestGatingBlocksWithoutConsumingAmmo(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Instance)
	}{
		{"empty", func(i *Instance) { i.Magazine = 0 }},
		{"jammed", func(i *Instance) { i.Jammed = true }},
		{"reloading", func(i *Instance) { i.Reloading = true }},
		{"ejecting", func(i *Instance) { i.EjectRemaining = 0.3 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			def := rifleDef()
			def.FireMode = defs.FireBurst
			def.BurstCount = 3
			w := f.weapon(def)
			tc.setup(w.State)
			before := w.State.Magazine

			res := f.rt.Trigger(context.Background(), 1, w, f.holder, Trigger{Held: true, Pressed: true})
			if res.Fired {
				t.Fatalf("expected gate to block the shot")
			}
			if w.State.Magazine != before {
				t.Fatalf("blocked shot consumed ammo: %d -> %d", before, w.State.Magazine)
			}
			if w.State.BurstRemaining != 0 {
				t.Fatalf("expected blocked burst to be cancelled")
			}
		})
	}
}

func TestSpreadCombinesSourcesAndClamps(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	w.State.RecoilSpread = 4
	holder := f.holder
	holder.MoveSpread = 6
	holder.Accuracy = 2

	if got := f.rt.Spread(w, holder); math.Abs(got-6) > 1e-9 {
		t.Fatalf("expected (2+6+4)/2 = 6 degrees, got %.3f", got)
	}

	w.Def.DeviationDeg = 500
	if got := f.rt.Spread(w, holder); got != f.rt.Config.MaxSpreadDeg {
		t.Fatalf("expected clamp to %.1f, got %.3f", f.rt.Config.MaxSpreadDeg, got)
	}

	f.rt.Config.MinSpreadDeg = 3
	w.Def.DeviationDeg = 0
	w.State.RecoilSpread = 0
	holder.MoveSpread = 0
	if got := f.rt.Spread(w, holder); got != 3 {
		t.Fatalf("expected clamp to min 3, got %.3f", got)
	}
}

func TestPelletsDeviateIndependentlyWithinSpread(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.Pellets = 8
	def.DeviationDeg = 10
	w := f.weapon(def)
	aim := math.Pi / 4

	res := f.rt.Trigger(context.Background(), 1, w, f.holder, Trigger{Held: true, Aim: aim})
	if len(res.Pellets) != 8 {
		t.Fatalf("expected 8 pellets, got %d", len(res.Pellets))
	}
	if w.State.Magazine != 29 {
		t.Fatalf("a multi-pellet shot consumes one round, magazine=%d", w.State.Magazine)
	}
	distinct := map[float64]bool{}
	for _, p := range res.Pellets {
		offset := (p.Angle - aim) * 180 / math.Pi
		if math.Abs(offset) > res.Spread+1e-9 {
			t.Fatalf("pellet offset %.3f exceeds spread %.3f", offset, res.Spread)
		}
		if math.Abs(math.Hypot(p.DirX, p.DirY)-1) > 1e-9 {
			t.Fatalf("pellet direction not normalized: %+v", p)
		}
		distinct[p.Angle] = true
	}
	if len(distinct) < 2 {
		t.Fatalf("expected independent per-pellet deviation")
	}
}

func TestJamStopsFiringAndNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	gomock.InOrder(
		sink.EXPECT().Play("rifle_fire"),
		sink.EXPECT().Play("jam"),
	)

	f := newFixture(t)
	f.rt.Audio = sink
	def := rifleDef()
	def.JamChance = 1
	w := f.weapon(def)

	jamHooks := 0
	f.registry.Register(defs.KindWeapon, "rifle", hooks.OnJam, func(_ context.Context, call hooks.Call) (string, error) {
		jamHooks++
		if call.Subject != w.Handle || call.Owner != f.holder.Entity {
			t.Fatalf("unexpected hook call %+v", call)
		}
		return "", nil
	})

	ctx := context.Background()
	res := f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true})
	if !res.Fired || !res.Jammed {
		t.Fatalf("expected the shot to fire and jam, got %+v", res)
	}
	if !w.State.Jammed || w.State.Magazine != 29 {
		t.Fatalf("expected jammed weapon with 29 rounds, got jammed=%v mag=%d", w.State.Jammed, w.State.Magazine)
	}
	if jamHooks != 1 {
		t.Fatalf("expected on_jam once, got %d", jamHooks)
	}
	if len(f.memory.OfType(loggingweapons.EventJam)) != 1 {
		t.Fatalf("expected one jam event")
	}

	w.State.Cooldown = 0
	if f.rt.Trigger(ctx, 2, w, f.holder, Trigger{Held: true}).Fired {
		t.Fatalf("jammed weapon must not fire")
	}
}

func TestRecoilCapsAndDecays(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.Recoil = 15
	w := f.weapon(def)
	ctx := context.Background()

	f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true})
	w.State.Cooldown = 0
	f.rt.Trigger(ctx, 1, w, f.holder, Trigger{Held: true})
	if w.State.RecoilSpread != f.rt.Config.MaxRecoilSpreadDeg {
		t.Fatalf("expected recoil capped at %.1f, got %.3f", f.rt.Config.MaxRecoilSpreadDeg, w.State.RecoilSpread)
	}

	f.rt.Progress(ctx, 2, w, f.holder, 0.5)
	if math.Abs(w.State.RecoilSpread-15) > 1e-9 {
		t.Fatalf("expected 10 deg/s decay over 0.5s to leave 15, got %.3f", w.State.RecoilSpread)
	}
	f.rt.Progress(ctx, 3, w, f.holder, 10)
	if w.State.RecoilSpread != 0 {
		t.Fatalf("recoil must not decay below zero, got %.3f", w.State.RecoilSpread)
	}
}
