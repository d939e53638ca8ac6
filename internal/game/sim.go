package game

import (
	"fmt"
	"time"

	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

// FireEvent records a shot leaving a barrel this tick, for effects, audio
// and the event log.
type FireEvent struct {
	EntityID     int
	ProjectileID int
	X, Y         float64
	HeadingDeg   float64
}

// Sim is the simulation context: every piece of shared state the tick
// pipeline mutates, carried explicitly so the destruction protocol has one
// auditable home and nothing hides in package globals. All phases of a tick
// run sequentially on the caller's goroutine.
type Sim struct {
	Grid      *GridMap
	Entities  *EntityStore
	Spatial   *SpatialGrid
	Resolver  *CollisionResolver
	AI        *AIController
	Validator *SpawnValidator
	Perf      *PerfMonitor

	// EventLog is optional: the test harness and batch CLI attach one, the
	// windowed game runs without.
	EventLog *SimLog

	// Fired is drained by the shell for muzzle flashes and audio cues; it
	// resets at the start of every tick like the resolver's sinks.
	Fired []FireEvent

	Level int
	Score int

	gen          *MapGenerator
	opts         PerformanceOptions
	seed         int64
	tick         int
	enemiesTotal int
	outcome      OutcomeReport

	snapshots snapshotPair

	// Scratch for the movement phase.
	moveBuf []*Entity
	intents []Intent
}

// NewSim builds an empty arena. Call BuildLevel (or the harness options) to
// populate it before ticking.
func NewSim(cols, rows, cellSize int, seed int64) *Sim {
	grid := NewGridMap(cols, rows, cellSize)
	store := NewEntityStore()
	spatial := NewSpatialGrid(grid.PixelW(), grid.PixelH())
	s := &Sim{
		Grid:      grid,
		Entities:  store,
		Spatial:   spatial,
		Resolver:  NewCollisionResolver(grid, store, spatial),
		AI:        NewAIController(grid, seed+aiSeedOffset),
		Validator: NewSpawnValidator(grid, seed+spawnSeedOffset),
		Perf:      NewPerfMonitor(),
		gen:       NewMapGenerator(seed + genSeedOffset),
		opts:      DefaultPerformanceOptions(),
		seed:      seed,
		Level:     1,
	}
	s.outcome = DetermineOutcome(store, 0)
	return s
}

// Subsystem random streams derive from one master seed so a whole run
// replays from a single number.
const (
	genSeedOffset   = 1
	spawnSeedOffset = 2
	aiSeedOffset    = 3
)

// CurrentTick returns the number of completed ticks.
func (s *Sim) CurrentTick() int {
	return s.tick
}

// Outcome returns the level resolution computed at the end of the last tick.
func (s *Sim) Outcome() LevelOutcome {
	return s.outcome.Outcome
}

// OutcomeDetail returns the full report behind Outcome.
func (s *Sim) OutcomeDetail() OutcomeReport {
	return s.outcome
}

// SetPerformanceOptions swaps the engine knobs, clamped to safe ranges.
// Takes effect on the next tick.
func (s *Sim) SetPerformanceOptions(o PerformanceOptions) {
	s.opts = o.sanitized()
}

// PerformanceOptions returns the knobs currently in force.
func (s *Sim) PerformanceOptions() PerformanceOptions {
	return s.opts
}

// GetPerformanceSummary exposes the rolling diagnostics snapshot.
func (s *Sim) GetPerformanceSummary() PerformanceSummary {
	return s.Perf.Summary(s.opts)
}

// Snapshot returns the latest published frame for rendering.
func (s *Sim) Snapshot() *FrameSnapshot {
	return s.snapshots.Latest()
}

// kindIDLabel gives log lines a stable short handle, usable even after the
// entity left the store.
func kindIDLabel(k EntityKind, id int) string {
	switch k {
	case KindPlayerTank:
		return fmt.Sprintf("P%d", id)
	case KindEnemyTank:
		return fmt.Sprintf("E%d", id)
	case KindProjectile:
		return fmt.Sprintf("S%d", id)
	default:
		return fmt.Sprintf("O%d", id)
	}
}

func entityLabel(e *Entity) string {
	return kindIDLabel(e.Kind, e.ID)
}

// logEvent writes to the attached event log, if any.
func (s *Sim) logEvent(entity, category, key, value string, numVal float64) {
	if s.EventLog == nil {
		return
	}
	s.EventLog.Add(s.tick, entity, category, key, value, numVal)
}

// Tick advances the simulation by exactly one fixed step. Phases run in
// strict order; a game-over or level-clear discovered mid-tick still
// finishes the whole pipeline so the cell/entity pair is consistent when
// the caller observes the outcome.
func (s *Sim) Tick(player Intent) {
	tickStart := time.Now()
	s.Fired = s.Fired[:0]
	s.Resolver.BeginTick()

	// 1. INTENT: player orders plus one AI decision per enemy hull.
	s.gatherIntents(player)

	// 2. INTEGRATE: turn, move and fire every tank.
	moveStart := time.Now()
	s.integrateTanks()
	moveDur := time.Since(moveStart)

	// 3. INDEX: rebuild the broad phase from post-movement positions.
	s.Spatial.Rebuild(s.Entities.All())

	// 4. COLLIDE: sweep projectiles, apply damage, sync destroyed pairs,
	//    chain explosions to a fixed point.
	collideStart := time.Now()
	s.Resolver.ResolveTick(s.opts)
	collideDur := time.Since(collideStart)

	// 5. BOOKKEEP: score, events, outcome.
	s.recordResolution()

	// 6. PRUNE: drop inactive entities before the next rebuild.
	pruned := s.Entities.Prune()

	// 7. SNAPSHOT: publish the finished frame for renderers.
	snapStart := time.Now()
	s.snapshots.publish(s)
	snapDur := time.Since(snapStart)

	s.tick++
	s.Perf.RecordTick(time.Since(tickStart), moveDur, collideDur, snapDur,
		s.Resolver.Stats(), s.Entities.ActiveTotal(), pruned, s.Spatial.Stats())
}

// gatherIntents collects the player's orders and asks the AI controller for
// every enemy's. A panicking controller costs that one tank, not the tick.
func (s *Sim) gatherIntents(player Intent) {
	ents := s.Entities.All()
	if cap(s.intents) < len(ents) {
		s.intents = make([]Intent, len(ents))
	}
	s.intents = s.intents[:len(ents)]

	playerTank := s.Entities.Player()
	for i, e := range ents {
		switch {
		case !e.Active || !isTankKind(e.Kind):
			s.intents[i] = Intent{}
		case e.Kind == KindPlayerTank:
			s.intents[i] = player
		default:
			s.intents[i] = s.safeDecide(e, playerTank)
		}
	}
}

// safeDecide contains a controller panic to the one entity that caused it.
func (s *Sim) safeDecide(e *Entity, player *Entity) (in Intent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Errorf("ai update panicked for entity %d, deactivating: %v", e.ID, r)
			s.logEvent(entityLabel(e), "ai", "panic", fmt.Sprint(r), 0)
			e.Active = false
			in = Intent{}
		}
	}()
	prev := e.Tank.AI.Mode
	in = s.AI.Decide(e, player)
	if mode := e.Tank.AI.Mode; mode != prev {
		s.logEvent(entityLabel(e), "ai", "mode_change",
			fmt.Sprintf("%s -> %s", prev, mode), 0)
	}
	return in
}

// integrateTanks applies each tank's intent: rotation first, then the
// translation attempt, then the trigger. A blocked move is dropped whole
// rather than slid, matching how the hulls feel to drive.
func (s *Sim) integrateTanks() {
	for i, e := range s.Entities.All() {
		if !e.Active || !isTankKind(e.Kind) {
			continue
		}
		in := s.intents[i]
		t := e.Tank

		if in.Turn != 0 {
			t.HeadingDeg += float64(in.Turn) * t.TurnRate
			for t.HeadingDeg < 0 {
				t.HeadingDeg += 360
			}
			for t.HeadingDeg >= 360 {
				t.HeadingDeg -= 360
			}
		}

		if in.Throttle != 0 {
			dx, dy := headingVec(t.HeadingDeg)
			dist := t.Speed
			if in.Throttle < 0 {
				dist = -t.Speed * tankReverseFactor
			}
			nx := e.X + dx*dist
			ny := e.Y + dy*dist
			if s.canOccupy(e, nx, ny) {
				e.X = nx
				e.Y = ny
			}
		}

		if t.CooldownTicks > 0 {
			t.CooldownTicks--
		}
		if in.Fire && t.CooldownTicks == 0 {
			s.fire(e)
		}
	}
}

// canOccupy checks a proposed tank position: the footprint must stay in the
// arena, clear of obstacle cells, and clear of other hulls. Footprint cells
// are probed through the shared position-to-cell conversion.
func (s *Sim) canOccupy(e *Entity, x, y float64) bool {
	he := e.HalfExtent
	if x-he < 0 || y-he < 0 || x+he > s.Grid.PixelW() || y+he > s.Grid.PixelH() {
		return false
	}
	// Corners and edge midpoints cover every cell a 1-cell hull can touch.
	probes := [8][2]float64{
		{x - he, y - he}, {x, y - he}, {x + he, y - he},
		{x - he, y}, {x + he, y},
		{x - he, y + he}, {x, y + he}, {x + he, y + he},
	}
	for _, p := range probes {
		col, row := s.Grid.CellAt(p[0], p[1])
		if s.Grid.IsObstacle(col, row) {
			return false
		}
	}

	// Hull-to-hull: query around the proposed position; the index is at
	// most one movement step stale, which the pad absorbs.
	s.moveBuf = s.moveBuf[:0]
	s.moveBuf = s.Spatial.CandidatesNear(x, y, he*2+tankSpeed, s.moveBuf)
	for _, o := range s.moveBuf {
		if o.ID == e.ID || !isTankKind(o.Kind) {
			continue
		}
		if abs(x-o.X) < he+o.HalfExtent && abs(y-o.Y) < he+o.HalfExtent {
			return false
		}
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// fire spawns a shell at the barrel tip and starts the cooldown.
func (s *Sim) fire(e *Entity) {
	p := newProjectile(s.Entities.NewID(), e)
	s.Entities.Add(p)
	e.Tank.CooldownTicks = tankFireCooldownTicks
	ev := FireEvent{
		EntityID:     e.ID,
		ProjectileID: p.ID,
		X:            p.X,
		Y:            p.Y,
		HeadingDeg:   e.Tank.HeadingDeg,
	}
	s.Fired = append(s.Fired, ev)
	s.logEvent(entityLabel(e), "projectile", "fired",
		fmt.Sprintf("%s heading %.0f", entityLabel(p), e.Tank.HeadingDeg), 0)
}

// recordResolution turns the resolver's sinks into score and log entries
// and re-evaluates the level outcome.
func (s *Sim) recordResolution() {
	if s.EventLog != nil {
		for _, h := range s.Resolver.Hits {
			switch h.Kind {
			case HitWall:
				s.logEvent(fmt.Sprintf("S%d", h.ProjectileID), "projectile", "hit_wall",
					fmt.Sprintf("cell (%d,%d)", h.Col, h.Row), h.T)
			case HitDestructible:
				s.logEvent(fmt.Sprintf("S%d", h.ProjectileID), "projectile", "hit_destructible",
					fmt.Sprintf("cell (%d,%d)", h.Col, h.Row), h.T)
			case HitEntity:
				s.logEvent(fmt.Sprintf("S%d", h.ProjectileID), "projectile", "hit_entity",
					fmt.Sprintf("entity %d", h.TargetID), h.T)
			}
		}
		for _, ev := range s.Resolver.Explosions {
			s.logEvent("--", "explosion", "blast",
				fmt.Sprintf("center (%.0f,%.0f) radius %.0f", ev.X, ev.Y, ev.Radius), ev.Radius)
		}
		if st := s.Resolver.Stats(); st.ChainCapDrops > 0 {
			s.logEvent("--", "explosion", "chain_capped",
				fmt.Sprintf("%d queued blasts dropped", st.ChainCapDrops), float64(st.ChainCapDrops))
		}
	}

	for _, d := range s.Resolver.Destructions {
		s.Score += scoreValue(d.Kind)
		value := fmt.Sprintf("at (%.0f,%.0f)", d.X, d.Y)
		if isObstacleKind(d.Kind) {
			value = fmt.Sprintf("cell (%d,%d) -> empty", d.Col, d.Row)
		}
		s.logEvent(kindIDLabel(d.Kind, d.EntityID), "destroy", d.Kind.String(), value, 0)
	}

	prev := s.outcome.Outcome
	s.outcome = DetermineOutcome(s.Entities, s.enemiesTotal)
	if s.outcome.Outcome != prev {
		s.logEvent("--", "level", "outcome", s.outcome.Description, float64(s.Level))
		logger.Log.Infof("level %d outcome: %s (enemies %d/%d)",
			s.Level, s.outcome.Description, s.outcome.EnemiesAlive, s.outcome.EnemiesTotal)
	}
}

// scoreValue is the bounty per destroyed entity kind.
func scoreValue(k EntityKind) int {
	switch k {
	case KindEnemyTank:
		return 100
	case KindPetrolBarrel:
		return 25
	case KindRockPile:
		return 10
	default:
		return 0
	}
}
