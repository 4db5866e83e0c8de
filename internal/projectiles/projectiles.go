// Package projectiles owns in-flight shots. Each step moves every projectile
// through the stage in sub-steps, resolving the X and Y axes separately, and
// collects entity hits into a list the damage pass consumes afterwards.
package projectiles

import (
	"context"
	"math"

	"arena-shooter/core/internal/defs"
	"arena-shooter/core/internal/handle"
	"arena-shooter/core/internal/hooks"
	"arena-shooter/core/internal/stage"
	"arena-shooter/core/internal/telemetry"
	"arena-shooter/core/logging"
	loggingsimulation "arena-shooter/core/logging/simulation"
)

const (
	DefaultPhysicsSteps = 4
	defaultHalfSize     = 2
)

// Projectile carries everything damage resolution needs, baked at spawn so
// later definition lookups cannot change a shot already in the air.
type Projectile struct {
	X, Y     float64
	VX, VY   float64
	HalfSize float64

	Owner     handle.Handle
	OwnerKind logging.EntityKind
	Weapon    string
	Ammo      string

	Damage     float64
	ArmorPen   float64
	ShieldMult float64
	Range      float64
	Distance   float64
	Pierce     int

	falloff *defs.AmmoDefinition
	hits    []handle.Handle
}

func (p *Projectile) Box() stage.Box {
	return stage.BoxAt(p.X, p.Y, p.HalfSize, p.HalfSize)
}

func (p *Projectile) alreadyHit(h handle.Handle) bool {
	for _, prior := range p.hits {
		if prior == h {
			return true
		}
	}
	return false
}

// Spawn describes one pellet leaving a weapon.
type Spawn struct {
	X, Y      float64
	DirX      float64
	DirY      float64
	Owner     handle.Handle
	OwnerKind logging.EntityKind
	Weapon    *defs.WeaponDefinition
	Ammo      *defs.AmmoDefinition
}

// Target is an entity a projectile may hit this step.
type Target struct {
	Handle handle.Handle
	Kind   logging.EntityKind
	Box    stage.Box
}

// Hit is a deferred entity hit. Damage already includes range falloff.
type Hit struct {
	Projectile handle.Handle
	Owner      handle.Handle
	OwnerKind  logging.EntityKind
	Target     handle.Handle
	TargetKind logging.EntityKind
	Weapon     string
	Ammo       string
	Raw        float64
	Falloff    float64
	Damage     float64
	ArmorPen   float64
	ShieldMult float64
	X, Y       float64
}

// TileHit reports a projectile stopped by the stage.
type TileHit struct {
	Projectile handle.Handle
	Tile       stage.Tile
	Weapon     string
	Ammo       string
}

type Deps struct {
	Grid         *stage.Grid
	PhysicsSteps int
	Hooks        *hooks.Registry
	Publisher    logging.Publisher
	Metrics      telemetry.Metrics
	Logger       telemetry.Logger
}

// Store is the projectile pool plus the collaborators stepping needs.
type Store struct {
	pool *handle.Pool[Projectile]
	deps Deps
}

func NewStore(capacity int, deps Deps) *Store {
	if deps.PhysicsSteps <= 0 {
		deps.PhysicsSteps = DefaultPhysicsSteps
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics()
	}
	return &Store{pool: handle.NewPool[Projectile](capacity), deps: deps}
}

func (s *Store) Get(h handle.Handle) (*Projectile, bool) {
	return s.pool.Get(h)
}

func (s *Store) Valid(h handle.Handle) bool {
	return s.pool.Valid(h)
}

func (s *Store) Len() int {
	return s.pool.Len()
}

func (s *Store) Handles() []handle.Handle {
	return s.pool.Handles()
}

// Spawn bakes a projectile from the weapon and ammo definitions. A full pool
// or a shot without speed or direction drops the request and reports false.
func (s *Store) Spawn(ctx context.Context, tick uint64, req Spawn) (handle.Handle, bool) {
	if req.Weapon == nil {
		return handle.Handle{}, false
	}
	h, p, err := s.pool.Alloc()
	if err != nil {
		s.deps.Metrics.Add(telemetry.MetricPoolExhausted, 1)
		if s.deps.Logger != nil {
			s.deps.Logger.Printf("[projectiles] spawn dropped: %v", err)
		}
		loggingsimulation.PoolExhausted(ctx, s.deps.Publisher, tick, loggingsimulation.PoolExhaustedPayload{Pool: "projectiles"})
		return handle.Handle{}, false
	}

	weapon, ammo := req.Weapon, req.Ammo
	speed := weapon.ProjectileSpeed
	halfSize := weapon.ProjectileHalfSize
	maxRange := weapon.Range
	damageMult, shieldMult := 1.0, 1.0
	*p = Projectile{
		X:         req.X,
		Y:         req.Y,
		Owner:     req.Owner,
		OwnerKind: req.OwnerKind,
		Weapon:    weapon.Type,
	}
	if ammo != nil {
		p.Ammo = ammo.Type
		p.ArmorPen = ammo.ArmorPen
		p.Pierce = max(ammo.Pierce, 0)
		p.falloff = ammo
		damageMult, shieldMult = ammo.DamageMult, ammo.ShieldMult
		if ammo.Speed > 0 {
			speed = ammo.Speed
		}
		if ammo.HalfSize > 0 {
			halfSize = ammo.HalfSize
		}
		if ammo.Range > 0 {
			maxRange = ammo.Range
		}
	}
	if halfSize <= 0 {
		halfSize = defaultHalfSize
	}
	length := math.Hypot(req.DirX, req.DirY)
	if length == 0 || speed <= 0 {
		// A shot that cannot move would never expire.
		_ = s.pool.Release(h)
		return handle.Handle{}, false
	}
	p.VX = req.DirX / length * speed
	p.VY = req.DirY / length * speed
	p.HalfSize = halfSize
	p.Range = maxRange
	p.Damage = weapon.Damage * damageMult
	p.ShieldMult = shieldMult

	s.deps.Metrics.Add(telemetry.MetricProjectilesSpawned, 1)
	return h, true
}

// Step advances every live projectile by dt and returns the entity hits in
// the order they happened. Projectiles that stop are released before Step
// returns.
func (s *Store) Step(ctx context.Context, tick uint64, dt float64, targets []Target) ([]Hit, []TileHit) {
	var hits []Hit
	var tileHits []TileHit
	if dt <= 0 {
		return nil, nil
	}
	sub := dt / float64(s.deps.PhysicsSteps)
	for _, h := range s.pool.Handles() {
		p, ok := s.pool.Get(h)
		if !ok {
			continue
		}
		var stopped bool
		for i := 0; i < s.deps.PhysicsSteps && !stopped; i++ {
			stopped = s.subStep(ctx, tick, h, p, sub, targets, &hits, &tileHits)
		}
		if stopped {
			_ = s.pool.Release(h)
		}
	}
	s.deps.Metrics.Store(telemetry.MetricActiveProjectiles, uint64(s.pool.Len()))
	return hits, tileHits
}

func (s *Store) subStep(ctx context.Context, tick uint64, h handle.Handle, p *Projectile, dt float64, targets []Target, hits *[]Hit, tileHits *[]TileHit) bool {
	if tile, inside := s.deps.Grid.FirstFlagged(p.Box(), stage.BlocksProjectiles); inside {
		s.collideTile(ctx, tick, h, p, tile, tileHits)
		return true
	}
	dx, dy := p.VX*dt, p.VY*dt
	expires := false
	if p.Range > 0 {
		remaining := p.Range - p.Distance
		travel := math.Hypot(dx, dy)
		if remaining <= 0 {
			return true
		}
		if travel >= remaining {
			scale := remaining / travel
			dx, dy = dx*scale, dy*scale
			expires = true
		}
	}

	for axis := 0; axis < 2; axis++ {
		var allowed float64
		var tile stage.Tile
		var blocked bool
		if axis == 0 {
			allowed, tile, blocked = s.deps.Grid.SweepX(p.Box(), dx, stage.BlocksProjectiles)
			p.X += allowed
		} else {
			allowed, tile, blocked = s.deps.Grid.SweepY(p.Box(), dy, stage.BlocksProjectiles)
			p.Y += allowed
		}
		p.Distance += math.Abs(allowed)
		if blocked {
			s.collideTile(ctx, tick, h, p, tile, tileHits)
			return true
		}
		if s.overlapTargets(h, p, targets, hits) {
			return true
		}
	}
	return expires
}

func (s *Store) collideTile(ctx context.Context, tick uint64, h handle.Handle, p *Projectile, tile stage.Tile, tileHits *[]TileHit) {
	s.deps.Metrics.Add(telemetry.MetricTileHits, 1)
	*tileHits = append(*tileHits, TileHit{Projectile: h, Tile: tile, Weapon: p.Weapon, Ammo: p.Ammo})
	call := hooks.Call{Tick: tick, Owner: p.Owner, Subject: h}
	call.Key = hooks.Key{Kind: defs.KindWeapon, Type: p.Weapon, Event: hooks.OnCollideTile}
	s.deps.Hooks.Invoke(ctx, call)
	if p.Ammo != "" {
		call.Key = hooks.Key{Kind: defs.KindAmmo, Type: p.Ammo, Event: hooks.OnCollideTile}
		s.deps.Hooks.Invoke(ctx, call)
	}
}

// overlapTargets records a hit for every target the projectile now overlaps,
// spending pierce on each one. It reports true once pierce is exhausted.
func (s *Store) overlapTargets(h handle.Handle, p *Projectile, targets []Target, hits *[]Hit) bool {
	box := p.Box()
	for _, target := range targets {
		if target.Handle == p.Owner || p.alreadyHit(target.Handle) || !box.Overlaps(target.Box) {
			continue
		}
		falloff := p.falloff.Falloff(p.Distance)
		*hits = append(*hits, Hit{
			Projectile: h,
			Owner:      p.Owner,
			OwnerKind:  p.OwnerKind,
			Target:     target.Handle,
			TargetKind: target.Kind,
			Weapon:     p.Weapon,
			Ammo:       p.Ammo,
			Raw:        p.Damage,
			Falloff:    falloff,
			Damage:     p.Damage * falloff,
			ArmorPen:   p.ArmorPen,
			ShieldMult: p.ShieldMult,
			X:          p.X,
			Y:          p.Y,
		})
		s.deps.Metrics.Add(telemetry.MetricProjectileHits, 1)
		p.hits = append(p.hits, target.Handle)
		if p.Pierce <= 0 {
			return true
		}
		p.Pierce--
	}
	return false
}
