// Package sim is the fixed-tick combat simulation. A Simulation owns every
// pool of a session and runs the ordered phase list once per Step.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"arena-shooter/core/internal/audio"
	"arena-shooter/core/internal/config"
	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/entity"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/items"
	"arena-shooter/core/internal/projectiles"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/internal/weapons"
	"arena-shooter/core/logging"
	loggingsimulation "arena-shooter/core/logging/simulation"
)

var (
	errNilCatalog = errors.New("sim: catalog is required")
	errNilGrid    = errors.New("sim: stage grid is required")
)

// Deps are the collaborators a Simulation reports to. Nil fields fall back
// to no-op implementations. A zero Session gets a fresh id.
type Deps struct {
	Session   uuid.UUID
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
	Audio     audio.Sink
	Hooks     *hooks.Registry
}

// Simulation is the explicit context every phase runs against.
type Simulation struct {
	cfg     config.Config
	catalog *defs.Catalog
	grid    *stage.Grid
	session uuid.UUID
	rng     *rand.Rand

	publisher logging.Publisher
	metrics   telemetry.Metrics
	logger    telemetry.Logger
	audio     audio.Sink
	sounds    *audio.Recorder
	hooks     *hooks.Registry
	ticker    *hooks.Ticker
	arms      *weapons.Runtime
	driver    *Driver

	entities    *handle.Pool[entity.Entity]
	weapons     *handle.Pool[weapons.Instance]
	projectiles *projectiles.Store
	ground      *items.Ground

	controllers map[handle.Handle]Controller
	previous    map[handle.Handle]Input

	tick         uint64
	dt           float64
	transitioned bool
	report       *Report
}

func New(cfg config.Config, catalog *defs.Catalog, grid *stage.Grid, deps Deps) (*Simulation, error) {
	if catalog == nil {
		return nil, errNilCatalog
	}
	if grid == nil {
		return nil, errNilGrid
	}
	cfg = cfg.Normalized()

	session := deps.Session
	if session == uuid.Nil {
		session = uuid.New()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	publisher = logging.WithFields(publisher, map[string]any{"session": session.String()})
	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	registry := deps.Hooks
	if registry == nil {
		registry = hooks.NewRegistry(hooks.Deps{Logger: deps.Logger, Publisher: publisher, Metrics: metrics})
	}
	sounds := &audio.Recorder{}
	var sink audio.Sink = sounds
	if deps.Audio != nil {
		sink = audio.Fanout{deps.Audio, sounds}
	}
	rng := NewDeterministicRNG(cfg.Sim.Seed, "combat")

	s := &Simulation{
		cfg:         cfg,
		catalog:     catalog,
		grid:        grid,
		session:     session,
		rng:         rng,
		publisher:   publisher,
		metrics:     metrics,
		logger:      deps.Logger,
		audio:       sink,
		sounds:      sounds,
		hooks:       registry,
		ticker:      hooks.NewTicker(cfg.Sim.HookIterationCap),
		driver:      NewDriver(cfg.TickSeconds(), cfg.Sim.MaxCatchupTicks),
		entities:    handle.NewPool[entity.Entity](cfg.Pools.Entities),
		weapons:     handle.NewPool[weapons.Instance](cfg.Pools.Weapons),
		ground:      items.NewGround(cfg.Pools.GroundItems),
		controllers: make(map[handle.Handle]Controller),
		previous:    make(map[handle.Handle]Input),
		dt:          cfg.TickSeconds(),
	}
	s.projectiles = projectiles.NewStore(cfg.Pools.Projectiles, projectiles.Deps{
		Grid:         grid,
		PhysicsSteps: cfg.Sim.PhysicsSteps,
		Hooks:        registry,
		Publisher:    publisher,
		Metrics:      metrics,
		Logger:       deps.Logger,
	})
	s.arms = &weapons.Runtime{
		Config: weapons.Config{
			BaseJamChance:      cfg.Weapons.BaseJamChance,
			MinSpreadDeg:       cfg.Weapons.MinSpreadDeg,
			MaxSpreadDeg:       cfg.Weapons.MaxSpreadDeg,
			MaxRecoilSpreadDeg: cfg.Weapons.MaxRecoilSpreadDeg,
			UnjamIncrement:     cfg.Weapons.UnjamIncrement,
		},
		RNG:       rng,
		Hooks:     registry,
		Audio:     sink,
		Publisher: publisher,
		Metrics:   metrics,
	}
	return s, nil
}

func (s *Simulation) Session() uuid.UUID { return s.session }
func (s *Simulation) Tick() uint64 { return s.tick }
func (s *Simulation) Grid() *stage.Grid { return s.grid }
func (s *Simulation) Catalog() *defs.Catalog { return s.catalog }
func (s *Simulation) Ground() *items.Ground { return s.ground }
func (s *Simulation) Hooks() *hooks.Registry { return s.hooks }
func (s *Simulation) Driver() *Driver { return s.driver }
func (s *Simulation) Transitioned() bool { return s.transitioned }
func (s *Simulation) Projectiles() *projectiles.Store {
	return s.projectiles
}

func (s *Simulation) Entity(h handle.Handle) (*entity.Entity, bool) {
	return s.entities.Get(h)
}

func (s *Simulation) Weapon(h handle.Handle) (*weapons.Instance, bool) {
	return s.weapons.Get(h)
}

// Entities lists live entity handles in slot order, dead ones included.
func (s *Simulation) Entities() []handle.Handle {
	return s.entities.Handles()
}

// SpawnPlayer places a player-controlled entity.
func (s *Simulation) SpawnPlayer(typ string, x, y float64) (handle.Handle, error) {
	return s.spawn(typ, entity.KindPlayer, x, y, nil)
}

// SpawnNPC places an NPC driven by controller. A nil controller uses
// ChaseController.
func (s *Simulation) SpawnNPC(typ string, x, y float64, controller Controller) (handle.Handle, error) {
	if controller == nil {
		controller = ChaseController{}
	}
	return s.spawn(typ, entity.KindNPC, x, y, controller)
}

func (s *Simulation) spawn(typ string, kind entity.Kind, x, y float64, controller Controller) (handle.Handle, error) {
	def, ok := s.catalog.Entity(typ)
	if !ok {
		return handle.Handle{}, fmt.Errorf("spawn %q: %w", typ, defs.ErrUnknownDefinition)
	}
	h, slot, err := s.entities.Alloc()
	if err != nil {
		s.poolExhausted(context.Background(), "entities", err)
		return handle.Handle{}, fmt.Errorf("spawn %q: %w", typ, err)
	}
	*slot = entity.FromDefinition(def, kind, x, y, s.cfg.Items.InventorySlots)
	if controller != nil {
		s.controllers[h] = controller
	}
	if def.Weapon == "" {
		return h, nil
	}
	wh, err := s.newWeapon(def.Weapon)
	if err == nil {
		if err = s.moveWeapon(context.Background(), wh, weapons.PlaceEquipped, h, x, y); err != nil {
			_ = s.weapons.Release(wh)
		}
	}
	if err != nil {
		// Roll the spawn back so no half-armed entity is left live.
		delete(s.controllers, h)
		_ = s.entities.Release(h)
		return handle.Handle{}, fmt.Errorf("spawn %q weapon: %w", typ, err)
	}
	return h, nil
}

// newWeapon allocates a loaded weapon instance with no owner yet.
func (s *Simulation) newWeapon(typ string) (handle.Handle, error) {
	def, ok := s.catalog.Weapon(typ)
	if !ok {
		return handle.Handle{}, fmt.Errorf("weapon %q: %w", typ, defs.ErrUnknownDefinition)
	}
	h, slot, err := s.weapons.Alloc()
	if err != nil {
		s.poolExhausted(context.Background(), "weapons", err)
		return handle.Handle{}, err
	}
	*slot = weapons.New(def, s.rng)
	return h, nil
}

// PlaceItem puts a ground item of the given kind at (x, y). Weapons get a
// fresh instance.
func (s *Simulation) PlaceItem(kind items.Kind, typ string, x, y float64) (handle.Handle, error) {
	switch kind {
	case items.KindWeapon:
		wh, err := s.newWeapon(typ)
		if err != nil {
			return handle.Handle{}, err
		}
		if err := s.moveWeapon(context.Background(), wh, weapons.PlaceGround, handle.Handle{}, x, y); err != nil {
			_ = s.weapons.Release(wh)
			return handle.Handle{}, err
		}
		inst, _ := s.weapons.Get(wh)
		return inst.Owner.Holder, nil
	case items.KindPowerup:
		if _, ok := s.catalog.Powerup(typ); !ok {
			return handle.Handle{}, fmt.Errorf("powerup %q: %w", typ, defs.ErrUnknownDefinition)
		}
	case items.KindItem, items.KindCrate:
		if _, ok := s.catalog.Item(typ); !ok {
			return handle.Handle{}, fmt.Errorf("item %q: %w", typ, defs.ErrUnknownDefinition)
		}
	default:
		return handle.Handle{}, fmt.Errorf("place %q: unknown kind %d", typ, kind)
	}
	h, err := s.ground.Place(items.GroundItem{Kind: kind, Type: typ, X: x, Y: y})
	if err != nil {
		s.poolExhausted(context.Background(), "ground", err)
		return handle.Handle{}, err
	}
	return h, nil
}

func (s *Simulation) poolExhausted(ctx context.Context, pool string, err error) {
	s.metrics.Add(telemetry.MetricPoolExhausted, 1)
	if s.logger != nil {
		s.logger.Printf("[sim] %s pool: %v", pool, err)
	}
	loggingsimulation.PoolExhausted(ctx, s.publisher, s.tick, loggingsimulation.PoolExhaustedPayload{Pool: pool})
}

func (s *Simulation) play(key string) {
	if key != "" {
		s.audio.Play(key)
	}
}

func (s *Simulation) invoke(ctx context.Context, kind defs.Kind, typ string, event hooks.Event, owner, subject, source handle.Handle, amount float64) (string, bool) {
	return s.hooks.Invoke(ctx, hooks.Call{
		Key:     hooks.Key{Kind: kind, Type: typ, Event: event},
		Tick:    s.tick,
		Owner:   owner,
		Subject: subject,
		Source:  source,
		Amount:  amount,
	})
}
