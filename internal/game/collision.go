package game

import (
	"math"

	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

// --- Hit results ---

// HitKind classifies what a projectile's swept path struck first.
type HitKind int

const (
	HitNone HitKind = iota
	HitWall
	HitDestructible
	HitEntity
)

func (h HitKind) String() string {
	switch h {
	case HitNone:
		return "none"
	case HitWall:
		return "wall"
	case HitDestructible:
		return "destructible"
	case HitEntity:
		return "entity"
	default:
		return "unknown"
	}
}

// Hit is the closed result of tracing one projectile for one tick. Exactly
// one of the four kinds applies; the switch in resolveProjectile is the only
// place that branches on it.
type Hit struct {
	Kind         HitKind
	ProjectileID int
	TargetID     int     // struck entity for HitDestructible / HitEntity
	Col, Row     int     // struck cell for HitWall / HitDestructible
	T            float64 // parametric position along the sub-step segment
	X, Y         float64 // impact point in world coordinates
}

// ExplosionEvent carries one pending blast through the chain queue.
type ExplosionEvent struct {
	SourceID int // barrel that blew up
	X, Y     float64
	Radius   float64
	Damage   int
}

// DestructionEvent records an entity leaving play this tick.
type DestructionEvent struct {
	EntityID int
	Kind     EntityKind
	Col, Row int
	X, Y     float64
}

// ResolveStats counts the tick's collision work for the performance monitor.
type ResolveStats struct {
	ProjectilesTraced int
	CollisionChecks   int // narrow-phase segment/box tests
	CellWalks         int // grid traversal steps
	Explosions        int // resolved explosion events
	ChainCapDrops     int // explosions discarded by the chain cap
}

// CollisionResolver runs the per-tick destruction protocol: projectile
// sweeps, damage application, the entity/cell dual-write, and explosion
// chains. It is the only code allowed to call SetCell outside map
// generation.
type CollisionResolver struct {
	grid    *GridMap
	store   *EntityStore
	spatial *SpatialGrid

	// Per-tick event sinks, drained by the sim after the pass.
	Hits         []Hit
	Destructions []DestructionEvent
	Explosions   []ExplosionEvent

	queue   []ExplosionEvent
	candBuf []*Entity
	stats   ResolveStats
}

// NewCollisionResolver wires the resolver to the shared simulation state.
func NewCollisionResolver(grid *GridMap, store *EntityStore, spatial *SpatialGrid) *CollisionResolver {
	return &CollisionResolver{
		grid:    grid,
		store:   store,
		spatial: spatial,
	}
}

// BeginTick clears the event sinks and counters from the previous tick.
func (cr *CollisionResolver) BeginTick() {
	cr.Hits = cr.Hits[:0]
	cr.Destructions = cr.Destructions[:0]
	cr.Explosions = cr.Explosions[:0]
	cr.queue = cr.queue[:0]
	cr.stats = ResolveStats{}
}

// Stats returns the counters accumulated since BeginTick.
func (cr *CollisionResolver) Stats() ResolveStats {
	return cr.stats
}

// EnqueueExplosion feeds an externally triggered blast into this tick's
// chain queue. Barrel destruction uses it internally.
func (cr *CollisionResolver) EnqueueExplosion(ev ExplosionEvent) {
	cr.queue = append(cr.queue, ev)
}

// ResolveTick traces every active projectile, applies hits, and drives any
// resulting explosion chain to a fixed point. Projectile motion happens here
// as the sweep itself; tanks are integrated before this pass.
func (cr *CollisionResolver) ResolveTick(opts PerformanceOptions) {
	arenaW, arenaH := cr.grid.PixelW(), cr.grid.PixelH()

	for _, e := range cr.store.All() {
		if !e.Active || e.Kind != KindProjectile {
			continue
		}
		p := e.Projectile
		p.AgeTicks++
		if p.AgeTicks > projectileLifetimeTick {
			e.Active = false
			continue
		}
		// Shells that fully left the arena fly on unhindered; cull them
		// once they are a bucket beyond the edge.
		if e.X < -spatialBucketSize || e.X > arenaW+spatialBucketSize ||
			e.Y < -spatialBucketSize || e.Y > arenaH+spatialBucketSize {
			e.Active = false
			continue
		}
		cr.resolveProjectile(e, opts)
		cr.stats.ProjectilesTraced++
	}

	cr.processExplosions(opts)
}

// resolveProjectile sweeps one shell across its tick's motion in sub-steps,
// stopping at the earliest hit. Deactivating the shell on any hit keeps it
// from striking multiple targets.
func (cr *CollisionResolver) resolveProjectile(e *Entity, opts PerformanceOptions) {
	p := e.Projectile
	dx, dy := headingVec(p.HeadingDeg)
	steps := opts.SubStepCount
	if steps < 1 {
		steps = 1
	}
	stepLen := p.Speed / float64(steps)

	for i := 0; i < steps; i++ {
		x0, y0 := e.X, e.Y
		x1 := x0 + dx*stepLen
		y1 := y0 + dy*stepLen

		hit := cr.traceSegment(e, x0, y0, x1, y1, opts)
		if hit.Kind == HitNone {
			e.X, e.Y = x1, y1
			continue
		}

		hit.ProjectileID = e.ID
		e.X, e.Y = hit.X, hit.Y
		e.Active = false
		cr.Hits = append(cr.Hits, hit)
		cr.applyHit(e, hit)
		return
	}
}

// traceSegment finds the earliest hit along one sub-step segment. Tank
// intersections and obstacle-cell crossings are compared by parametric
// position; an exact tie goes to the tank.
func (cr *CollisionResolver) traceSegment(e *Entity, x0, y0, x1, y1 float64, opts PerformanceOptions) Hit {
	p := e.Projectile

	// Narrow phase against tanks. Pad the broad-phase query by the largest
	// half extent so fast shells cannot slip past a hull between buckets.
	var tankHit *Entity
	tankT := math.MaxFloat64
	cands := cr.tankCandidates(x0, y0, x1, y1, opts)
	for _, c := range cands {
		if !isTankKind(c.Kind) || c.ID == p.OwnerID {
			continue
		}
		cr.stats.CollisionChecks++
		t, ok := segmentBoxEntry(x0, y0, x1, y1,
			c.X-c.HalfExtent-e.HalfExtent, c.Y-c.HalfExtent-e.HalfExtent,
			c.X+c.HalfExtent+e.HalfExtent, c.Y+c.HalfExtent+e.HalfExtent)
		if ok && t < tankT {
			tankT = t
			tankHit = c
		}
	}

	// Grid walk for obstacle cells.
	col, row, cellT, cellOK := cr.firstObstacleCell(x0, y0, x1, y1)

	switch {
	case tankHit == nil && !cellOK:
		return Hit{Kind: HitNone}
	case tankHit != nil && (!cellOK || tankT <= cellT):
		// Tank wins exact ties: the gameplay-critical target.
		return Hit{
			Kind:     HitEntity,
			TargetID: tankHit.ID,
			T:        tankT,
			X:        x0 + (x1-x0)*tankT,
			Y:        y0 + (y1-y0)*tankT,
		}
	default:
		kind := cr.grid.kindOrEmpty(col, row)
		hk := HitWall
		if cellIsDestructible(kind) {
			hk = HitDestructible
		}
		return Hit{
			Kind: hk,
			Col:  col,
			Row:  row,
			T:    cellT,
			X:    x0 + (x1-x0)*cellT,
			Y:    y0 + (y1-y0)*cellT,
		}
	}
}

// tankCandidates returns the broad-phase candidate set for one sub-step.
// With spatial partitioning disabled it degrades to the full active list,
// which the performance counters make visible.
func (cr *CollisionResolver) tankCandidates(x0, y0, x1, y1 float64, opts PerformanceOptions) []*Entity {
	cr.candBuf = cr.candBuf[:0]
	if !opts.SpatialPartitioning {
		for _, c := range cr.store.All() {
			if c.Active {
				cr.candBuf = append(cr.candBuf, c)
			}
		}
		return cr.candBuf
	}
	pad := tankHalfExtent + projectileHalfExtent
	cr.candBuf = cr.spatial.SegmentCandidates(x0, y0, x1, y1, pad, cr.candBuf)
	return cr.candBuf
}

// applyHit performs the per-hit resolution: wall stops, destructible damage
// with the dual-write on destruction, or tank damage.
func (cr *CollisionResolver) applyHit(proj *Entity, hit Hit) {
	switch hit.Kind {
	case HitWall:
		// Indestructible: the shell is spent, the map never changes.

	case HitDestructible:
		target := cr.obstacleAtCell(hit.Col, hit.Row)
		if target == nil {
			// Cell says destructible but no entity claims it. The pair is
			// managed by this resolver alone, so reaching here means a
			// protocol bug upstream; damage policy says no-op, not error.
			logger.Log.Warnf("destructible cell (%d,%d) has no obstacle entity", hit.Col, hit.Row)
			return
		}
		if target.TakeDamage(proj.Projectile.Damage) {
			cr.destroyObstacle(target)
		}

	case HitEntity:
		target := cr.store.ByID(hit.TargetID)
		if target == nil || !target.Active {
			return // already pruned this tick, no-op
		}
		if target.TakeDamage(proj.Projectile.Damage) {
			cr.destroyTank(target)
		}
	}
}

// obstacleAtCell locates the destructible-obstacle entity occupying a cell
// through the spatial index, so the lookup shares the same derived state as
// every other collision query.
func (cr *CollisionResolver) obstacleAtCell(col, row int) *Entity {
	cx, cy := cr.grid.CellCenter(col, row)
	cr.candBuf = cr.candBuf[:0]
	cr.candBuf = cr.spatial.CandidatesNear(cx, cy, float64(cr.grid.CellSize), cr.candBuf)
	for _, c := range cr.candBuf {
		if isObstacleKind(c.Kind) && c.Obstacle.Col == col && c.Obstacle.Row == row {
			return c
		}
	}
	return nil
}

// destroyObstacle is the single dual-write site: the entity deactivates and
// its cell empties inside one step, so no observer ever sees the pair
// disagree. Barrels additionally enqueue their blast.
func (cr *CollisionResolver) destroyObstacle(e *Entity) {
	ob := e.Obstacle
	e.Active = false
	if err := cr.grid.SetCell(ob.Col, ob.Row, CellEmpty); err != nil {
		// Obstacles are placed in-bounds at generation; this cannot fire
		// unless the pair was corrupted elsewhere.
		logger.Log.Errorf("destruction sync failed for entity %d at (%d,%d): %v", e.ID, ob.Col, ob.Row, err)
	}
	cr.Destructions = append(cr.Destructions, DestructionEvent{
		EntityID: e.ID, Kind: e.Kind, Col: ob.Col, Row: ob.Row, X: e.X, Y: e.Y,
	})
	if e.Kind == KindPetrolBarrel && ob.BlastRadius > 0 {
		cr.queue = append(cr.queue, ExplosionEvent{
			SourceID: e.ID,
			X:        e.X,
			Y:        e.Y,
			Radius:   ob.BlastRadius,
			Damage:   ob.BlastDamage,
		})
	}
}

// destroyTank deactivates a tank and records the event.
func (cr *CollisionResolver) destroyTank(e *Entity) {
	e.Active = false
	col, row := cr.grid.CellAt(e.X, e.Y)
	cr.Destructions = append(cr.Destructions, DestructionEvent{
		EntityID: e.ID, Kind: e.Kind, Col: col, Row: row, X: e.X, Y: e.Y,
	})
}

// processExplosions drives the blast queue to a fixed point within the
// tick. Chains terminate naturally when no new barrel dies, or forcibly at
// the iteration cap for pathological layouts.
func (cr *CollisionResolver) processExplosions(opts PerformanceOptions) {
	limit := opts.ExplosionChainCap
	if limit < 1 {
		limit = 1
	}
	iterations := 0
	for len(cr.queue) > 0 {
		if iterations >= limit {
			cr.stats.ChainCapDrops += len(cr.queue)
			logger.Log.Warnf("explosion chain cap %d reached, dropping %d queued blasts", limit, len(cr.queue))
			cr.queue = cr.queue[:0]
			return
		}
		ev := cr.queue[0]
		cr.queue = cr.queue[1:]
		iterations++
		cr.resolveExplosion(ev, opts)
	}
}

// resolveExplosion damages everything in blast range. Destroyed barrels
// re-enter the queue through destroyObstacle, which is what makes chains
// possible.
func (cr *CollisionResolver) resolveExplosion(ev ExplosionEvent, opts PerformanceOptions) {
	cr.Explosions = append(cr.Explosions, ev)
	cr.stats.Explosions++

	cr.candBuf = cr.candBuf[:0]
	if opts.SpatialPartitioning {
		cr.candBuf = cr.spatial.CandidatesNear(ev.X, ev.Y, ev.Radius, cr.candBuf)
	} else {
		for _, c := range cr.store.All() {
			if c.Active {
				cr.candBuf = append(cr.candBuf, c)
			}
		}
	}

	for _, c := range cr.candBuf {
		if !c.Active || c.Kind == KindProjectile {
			continue
		}
		cr.stats.CollisionChecks++
		dmg := blastDamage(ev.Damage, math.Hypot(c.X-ev.X, c.Y-ev.Y), ev.Radius)
		if dmg <= 0 {
			continue
		}
		if !c.TakeDamage(dmg) {
			continue
		}
		if isObstacleKind(c.Kind) {
			cr.destroyObstacle(c)
		} else {
			cr.destroyTank(c)
		}
	}
}

// blastDamage is flat inside the radius and zero at or beyond it, measured
// center to center.
func blastDamage(damage int, dist, radius float64) int {
	if radius <= 0 || dist >= radius {
		return 0
	}
	return damage
}

// segmentBoxEntry returns the parametric entry point of a segment into an
// axis-aligned box via the slab method. ok is false when the segment misses.
// A segment starting inside the box enters at t = 0.
func segmentBoxEntry(x0, y0, x1, y1, minX, minY, maxX, maxY float64) (float64, bool) {
	dx := x1 - x0
	dy := y1 - y0
	tMin, tMax := 0.0, 1.0

	if dx == 0 {
		if x0 < minX || x0 > maxX {
			return 0, false
		}
	} else {
		t1 := (minX - x0) / dx
		t2 := (maxX - x0) / dx
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	if dy == 0 {
		if y0 < minY || y0 > maxY {
			return 0, false
		}
	} else {
		t1 := (minY - y0) / dy
		t2 := (maxY - y0) / dy
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// firstObstacleCell walks the grid cells crossed by a segment in order and
// returns the first obstacle cell with its crossing parameter. Crossing at
// exactly t = 1 counts: a swept path that just reaches a wall edge is a hit.
func (cr *CollisionResolver) firstObstacleCell(x0, y0, x1, y1 float64) (col, row int, t float64, ok bool) {
	g := cr.grid
	cs := float64(g.CellSize)
	col, row = g.CellAt(x0, y0)
	if g.IsObstacle(col, row) {
		return col, row, 0, true
	}

	dx := x1 - x0
	dy := y1 - y0

	stepC, stepR := 0, 0
	tMaxX, tMaxY := math.MaxFloat64, math.MaxFloat64
	tDeltaX, tDeltaY := math.MaxFloat64, math.MaxFloat64

	if dx > 0 {
		stepC = 1
		tMaxX = ((float64(col)+1)*cs - x0) / dx
		tDeltaX = cs / dx
	} else if dx < 0 {
		stepC = -1
		tMaxX = (float64(col)*cs - x0) / dx
		tDeltaX = -cs / dx
	}
	if dy > 0 {
		stepR = 1
		tMaxY = ((float64(row)+1)*cs - y0) / dy
		tDeltaY = cs / dy
	} else if dy < 0 {
		stepR = -1
		tMaxY = (float64(row)*cs - y0) / dy
		tDeltaY = -cs / dy
	}

	for steps := 0; steps < 256; steps++ {
		var crossT float64
		if tMaxX <= tMaxY {
			crossT = tMaxX
			tMaxX += tDeltaX
			col += stepC
		} else {
			crossT = tMaxY
			tMaxY += tDeltaY
			row += stepR
		}
		if crossT > 1 {
			return 0, 0, 0, false
		}
		cr.stats.CellWalks++
		if g.IsObstacle(col, row) {
			return col, row, crossT, true
		}
	}
	return 0, 0, 0, false
}
