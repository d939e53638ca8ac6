package game

import (
	"fmt"
)

// TestSim is a headless harness around Sim used by the tests and the batch
// CLI. It gives every run a deterministic seed, a structured event log, and
// direct placement of terrain and hulls without the level generator.
type TestSim struct {
	Sim *Sim

	cols, rows, cellSize int
	seed                 int64
	verbose              bool
	level                int
	perfOpts             *PerformanceOptions
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra   simOptionKind = iota // arena shape, seed, knobs; applied first
	simOptTerrain                      // cells and their paired entities
	simOptHull                         // tanks, applied once terrain exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithGridSize sets the arena dimensions in cells.
func WithGridSize(cols, rows int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cols = cols
		ts.rows = rows
	}}
}

// WithCellSize sets the cell edge length in pixels.
func WithCellSize(px int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cellSize = px
	}}
}

// WithSeed sets the master seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.seed = seed
	}}
}

// WithVerboseLog enables per-tick verbose event logging.
func WithVerboseLog(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.verbose = v
	}}
}

// WithPerformanceOptions overrides the default engine knobs.
func WithPerformanceOptions(o PerformanceOptions) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.perfOpts = &o
	}}
}

// WithGeneratedLevel runs the level generator instead of leaving the arena
// empty. Terrain and hull options still apply afterwards.
func WithGeneratedLevel(level int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.level = level
	}}
}

// WithWall sets one indestructible cell. Walls have no paired entity.
func WithWall(col, row int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) {
		ts.mustSetCell(col, row, CellWall)
	}}
}

// WithRockPile places a rock pile cell and its paired entity with the given
// health.
func WithRockPile(col, row, health int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) {
		ts.mustSetCell(col, row, CellRockPile)
		o := newObstacle(ts.Sim.Entities.NewID(), KindRockPile, ts.Sim.Grid, col, row)
		o.Obstacle.Health = health
		o.Obstacle.MaxHealth = health
		ts.Sim.Entities.Add(o)
	}}
}

// WithPetrolBarrel places a barrel cell and its paired entity with explicit
// blast parameters.
func WithPetrolBarrel(col, row, health int, blastRadius float64, blastDamage int) SimOption {
	return SimOption{simOptTerrain, func(ts *TestSim) {
		ts.mustSetCell(col, row, CellPetrolBarrel)
		o := newObstacle(ts.Sim.Entities.NewID(), KindPetrolBarrel, ts.Sim.Grid, col, row)
		o.Obstacle.Health = health
		o.Obstacle.MaxHealth = health
		o.Obstacle.BlastRadius = blastRadius
		o.Obstacle.BlastDamage = blastDamage
		ts.Sim.Entities.Add(o)
	}}
}

// WithPlayerTank places the player hull at a pixel position with a heading.
func WithPlayerTank(x, y, headingDeg float64) SimOption {
	return SimOption{simOptHull, func(ts *TestSim) {
		p := newPlayerTank(ts.Sim.Entities.NewID(), x, y)
		p.Tank.HeadingDeg = headingDeg
		ts.Sim.Entities.Add(p)
	}}
}

// WithEnemyTank places an enemy hull of the given tier.
func WithEnemyTank(x, y float64, tier int) SimOption {
	return SimOption{simOptHull, func(ts *TestSim) {
		ts.Sim.Entities.Add(newEnemyTank(ts.Sim.Entities.NewID(), x, y, tier))
	}}
}

// NewTestSim constructs a harness from the given options in three ordered
// passes:
//  1. Infrastructure (arena shape, seed, knobs, optional generated level)
//  2. Terrain (cells plus their paired entities)
//  3. Hulls
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		cols:     40,
		rows:     25,
		cellSize: 32,
		seed:     1,
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	ts.Sim = NewSim(ts.cols, ts.rows, ts.cellSize, ts.seed)
	ts.Sim.EventLog = NewSimLog(ts.verbose)
	if ts.perfOpts != nil {
		ts.Sim.SetPerformanceOptions(*ts.perfOpts)
	}
	if ts.level > 0 {
		ts.Sim.BuildLevel(ts.level)
	}

	for _, o := range opts {
		if o.kind == simOptTerrain {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptHull {
			o.fn(ts)
		}
	}
	ts.Sim.Spatial.Rebuild(ts.Sim.Entities.All())
	return ts
}

func (ts *TestSim) mustSetCell(col, row int, k CellKind) {
	if err := ts.Sim.Grid.SetCell(col, row, k); err != nil {
		panic(fmt.Sprintf("harness cell placement (%d,%d): %v", col, row, err))
	}
}

// InjectProjectile spawns a shell directly, bypassing any tank. The shell
// has no owner, so it can hit anything.
func (ts *TestSim) InjectProjectile(x, y, headingDeg float64, damage int) *Entity {
	p := &Entity{
		ID:         ts.Sim.Entities.NewID(),
		Kind:       KindProjectile,
		X:          x,
		Y:          y,
		HalfExtent: projectileHalfExtent,
		Active:     true,
		Projectile: &ProjectileState{
			HeadingDeg: headingDeg,
			Speed:      projectileSpeed,
			Damage:     damage,
		},
	}
	ts.Sim.Entities.Add(p)
	return p
}

// Player returns the live player hull, or nil.
func (ts *TestSim) Player() *Entity {
	return ts.Sim.Entities.Player()
}

// ObstacleAt returns the live obstacle entity paired with a cell, or nil.
func (ts *TestSim) ObstacleAt(col, row int) *Entity {
	for _, e := range ts.Sim.Entities.All() {
		if e.Active && isObstacleKind(e.Kind) && e.Obstacle.Col == col && e.Obstacle.Row == row {
			return e
		}
	}
	return nil
}

// RunTicks advances the simulation n ticks with no player input.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Sim.Tick(Intent{})
	}
}

// RunTicksIntent advances n ticks holding the same player intent.
func (ts *TestSim) RunTicksIntent(n int, in Intent) {
	for i := 0; i < n; i++ {
		ts.Sim.Tick(in)
	}
}

// RunUntil advances up to maxTicks, stopping early once predicate returns
// true. Returns the tick at which it was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Sim.Tick(Intent{})
		if predicate(ts) {
			return ts.Sim.CurrentTick()
		}
	}
	return -1
}

// SyncIssues cross-checks the grid against the entity store. An empty
// slice means the two views agree.
func (ts *TestSim) SyncIssues() []string {
	return destructiblePairIssues(ts.Sim.Grid, ts.Sim.Entities)
}
