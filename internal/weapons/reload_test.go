package weapons

import (
	"context"
	"math"
	"testing"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/telemetry"
	loggingweapons "arena-shooter/core/logging/weapons"
)

func TestReloadStartEmptiesMagazineAndRollsWindow(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.EjectTime = 0.25
	def.ActiveReload = defs.ActiveReloadWindow{Pos: 0.5, PosVariance: 0.3, Size: 0.2, SizeVariance: 0.5}
	w := f.weapon(def)
	w.State.Magazine = 12
	w.State.BurstRemaining = 2

	if got := f.rt.Reload(context.Background(), 1, w, f.holder); got != ReloadStarted {
		t.Fatalf("expected reload to start, got %v", got)
	}
	inst := w.State
	if inst.Magazine != 0 || !inst.Reloading || inst.Progress != 0 {
		t.Fatalf("unexpected reload state: %+v", inst)
	}
	if inst.EjectRemaining != 0.25 || inst.ReloadTotal != 1 || inst.BurstRemaining != 0 {
		t.Fatalf("expected eject 0.25, total 1 and no burst, got %+v", inst)
	}
	if inst.WindowStart < 0 || inst.WindowEnd > 1 || inst.WindowEnd < inst.WindowStart {
		t.Fatalf("window out of bounds: [%.3f, %.3f]", inst.WindowStart, inst.WindowEnd)
	}
	if size := inst.WindowEnd - inst.WindowStart; size > maxWindowSize+1e-9 {
		t.Fatalf("window size %.3f exceeds cap", size)
	}
	if len(f.memory.OfType(loggingweapons.EventReloadStarted)) != 1 {
		t.Fatalf("expected one reload_started event")
	}
}

func TestReloadIgnoredWhenItCannotStart(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Instance)
	}{
		{"jammed", func(i *Instance) { i.Magazine = 3; i.Jammed = true }},
		{"no reserve", func(i *Instance) { i.Magazine = 3; i.Reserve = 0 }},
		{"full magazine", func(*Instance) {}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.weapon(rifleDef())
			tc.setup(w.State)
			before := *w.State

			if got := f.rt.Reload(context.Background(), 1, w, f.holder); got != ReloadNone {
				t.Fatalf("expected no-op, got %v", got)
			}
			if *w.State != before {
				t.Fatalf("state changed: %+v -> %+v", before, *w.State)
			}
		})
	}
}

func TestEjectDrainsBeforeProgress(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.EjectTime = 0.5
	w := f.weapon(def)
	w.State.Magazine = 0
	ctx := context.Background()

	f.rt.Reload(ctx, 1, w, f.holder)
	f.rt.Progress(ctx, 2, w, f.holder, 0.25)
	if w.State.Progress != 0 || math.Abs(w.State.EjectRemaining-0.25) > 1e-9 {
		t.Fatalf("expected eject to drain first, got progress %.3f eject %.3f", w.State.Progress, w.State.EjectRemaining)
	}
	f.rt.Progress(ctx, 3, w, f.holder, 0.25)
	if w.State.Progress != 0 || w.State.EjectRemaining != 0 {
		t.Fatalf("expected eject finished with no progress, got progress %.3f eject %.3f", w.State.Progress, w.State.EjectRemaining)
	}
	f.rt.Progress(ctx, 4, w, f.holder, 0.25)
	if math.Abs(w.State.Progress-0.25) > 1e-9 {
		t.Fatalf("expected progress 0.25 after eject, got %.3f", w.State.Progress)
	}
}

func TestPassiveReloadCompletesFromReserve(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	w.State.Magazine = 5
	w.State.Reserve = 10
	ctx := context.Background()

	f.rt.Reload(ctx, 1, w, f.holder)
	var outcome ReloadOutcome
	for i := 0; i < 4; i++ {
		outcome = f.rt.Progress(ctx, uint64(2+i), w, f.holder, 0.25)
	}
	if outcome != ReloadCompleted {
		t.Fatalf("expected completion on the fourth quarter, got %v", outcome)
	}
	if w.State.Reloading || w.State.Magazine != 10 || w.State.Reserve != 0 {
		t.Fatalf("expected magazine 10 reserve 0 not reloading, got %+v", *w.State)
	}
	if len(f.memory.OfType(loggingweapons.EventReloadCompleted)) != 1 {
		t.Fatalf("expected one reload_completed event")
	}
}

func TestActiveReloadSuccessInsideWindow(t *testing.T) {
	f := newFixture(t)
	def := rifleDef()
	def.ActiveReload = defs.ActiveReloadWindow{Pos: 0.5, Size: 0.2}
	w := f.weapon(def)
	w.State.Magazine = 0
	ctx := context.Background()

	hooked := 0
	f.registry.Register(defs.KindWeapon, "rifle", hooks.OnActiveReload, func(context.Context, hooks.Call) (string, error) {
		hooked++
		return "", nil
	})

	f.rt.Reload(ctx, 1, w, f.holder)
	if math.Abs(w.State.WindowStart-0.4) > 1e-9 || math.Abs(w.State.WindowEnd-0.6) > 1e-9 {
		t.Fatalf("expected window [0.4, 0.6], got [%.3f, %.3f]", w.State.WindowStart, w.State.WindowEnd)
	}
	f.rt.Progress(ctx, 2, w, f.holder, 0.5)

	if got := f.rt.Reload(ctx, 3, w, f.holder); got != ActiveReloadSuccess {
		t.Fatalf("expected success at progress 0.5, got %v", got)
	}
	if w.State.Reloading || w.State.Magazine != 30 || w.State.Reserve != 60 {
		t.Fatalf("expected instant refill, got %+v", *w.State)
	}
	if hooked != 1 {
		t.Fatalf("expected on_active_reload once, got %d", hooked)
	}
	if f.counters.Get(telemetry.MetricActiveReloadSuccess) != 1 {
		t.Fatalf("expected success counted")
	}
}

func TestActiveReloadFailureLocksAttempts(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	w.State.Magazine = 0
	ctx := context.Background()

	var seen []hooks.Event
	for _, event := range []hooks.Event{hooks.OnActiveReload, hooks.OnFailedActiveReload, hooks.OnTriedAfterFailedAR} {
		f.registry.Register(defs.KindWeapon, "rifle", event, func(_ context.Context, call hooks.Call) (string, error) {
			seen = append(seen, call.Event)
			return "", nil
		})
	}

	f.rt.Reload(ctx, 1, w, f.holder)
	f.rt.Progress(ctx, 2, w, f.holder, 0.1)
	if got := f.rt.Reload(ctx, 3, w, f.holder); got != ActiveReloadFailed {
		t.Fatalf("expected failure at progress 0.1, got %v", got)
	}
	f.rt.Progress(ctx, 4, w, f.holder, 0.4)
	if got := f.rt.Reload(ctx, 5, w, f.holder); got != ActiveReloadTriedAfterFailed {
		t.Fatalf("expected a press inside the window after failing to be ignored, got %v", got)
	}
	if !w.State.Reloading || w.State.Magazine != 0 {
		t.Fatalf("a locked attempt must have no mechanical effect, got %+v", *w.State)
	}
	if len(seen) != 2 || seen[0] != hooks.OnFailedActiveReload || seen[1] != hooks.OnTriedAfterFailedAR {
		t.Fatalf("unexpected hook sequence %v", seen)
	}

	var outcome ReloadOutcome
	for i := 0; i < 10 && outcome != ReloadCompleted; i++ {
		outcome = f.rt.Progress(ctx, uint64(6+i), w, f.holder, 0.1)
	}
	if outcome != ReloadCompleted || w.State.Magazine != 30 {
		t.Fatalf("expected passive completion after a failed attempt, got %+v", *w.State)
	}

	events := f.memory.OfType(loggingweapons.EventActiveReload)
	if len(events) != 2 {
		t.Fatalf("expected two active_reload events, got %d", len(events))
	}
	payload, ok := events[1].Payload.(loggingweapons.ReloadPayload)
	if !ok || payload.Outcome != loggingweapons.ActiveReloadAfterFailed {
		t.Fatalf("unexpected payload %+v", events[1].Payload)
	}
}

func TestUnjamClearsAfterFivePressesAndReloads(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	w.State.Jammed = true
	w.State.Magazine = 4
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if f.rt.Unjam(ctx, 1, w, f.holder) {
			t.Fatalf("press %d cleared the jam early", i+1)
		}
	}
	if !f.rt.Unjam(ctx, 1, w, f.holder) {
		t.Fatalf("expected fifth press to clear the jam")
	}
	if w.State.Jammed || w.State.UnjamProgress != 0 {
		t.Fatalf("expected jam state cleared, got %+v", *w.State)
	}
	if !w.State.Reloading || w.State.Magazine != 0 {
		t.Fatalf("expected a forced reload after unjam, got %+v", *w.State)
	}
}

func TestUnjamWithoutReserveReportsOutOfAmmo(t *testing.T) {
	f := newFixture(t)
	f.rt.Config.UnjamIncrement = 1
	w := f.weapon(rifleDef())
	w.State.Jammed = true
	w.State.Reserve = 0

	if !f.rt.Unjam(context.Background(), 1, w, f.holder) {
		t.Fatalf("expected the jam to clear")
	}
	if w.State.Reloading {
		t.Fatalf("no reload may start without reserve")
	}
	events := f.memory.OfType(loggingweapons.EventUnjam)
	if len(events) != 1 {
		t.Fatalf("expected one unjam event, got %d", len(events))
	}
	if payload := events[0].Payload.(loggingweapons.UnjamPayload); !payload.OutOfAmmo {
		t.Fatalf("expected out-of-ammo report, got %+v", payload)
	}
}

func TestUnjamIgnoredWhenNotJammed(t *testing.T) {
	f := newFixture(t)
	w := f.weapon(rifleDef())
	if f.rt.Unjam(context.Background(), 1, w, f.holder) || w.State.UnjamProgress != 0 {
		t.Fatalf("unjam must be a no-op on a working weapon")
	}
}
