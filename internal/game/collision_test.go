package game

import "testing"

// A shell destroys a rock pile: the entity deactivates and its cell empties
// in the same resolution step, with no explosion.
func TestResolver_RockPileDestructionSyncsCell(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithRockPile(5, 5, 20),
	)
	shell := ts.InjectProjectile(176, 300, 0, 25) // below the pile, firing up

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.ObstacleAt(5, 5) == nil
	}, 30)
	if hitTick == -1 {
		t.Fatalf("expected the rock pile to fall within 30 ticks\n%s", ts.Sim.EventLog.Format())
	}

	k, err := ts.Sim.Grid.KindAt(5, 5)
	if err != nil {
		t.Fatalf("expected in-bounds read, got %v", err)
	}
	if k != CellEmpty {
		t.Fatalf("expected cell (5,5) empty after destruction, got %v", k)
	}
	if shell.Active {
		t.Fatal("expected the shell spent on impact")
	}
	if n := ts.Sim.EventLog.CountCategory("explosion", "blast"); n != 0 {
		t.Fatalf("expected no explosion from a rock pile, got %d", n)
	}
	if issues := ts.SyncIssues(); len(issues) != 0 {
		t.Fatalf("expected cell and entity state in sync, got %v", issues)
	}
	if ts.Sim.Score != 10 {
		t.Fatalf("expected score 10 for a rock pile, got %d", ts.Sim.Score)
	}
}

// A barrel's blast reaches the tank one cell over: flat damage inside the
// radius, exactly one explosion event.
func TestResolver_BarrelBlastDamagesNearbyTank(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPetrolBarrel(5, 5, 10, 64, 30),
		WithPlayerTank(208, 176, 0), // cell (6,5), 32px from the barrel
	)
	ts.InjectProjectile(50, 176, 90, 20) // from the left, firing right

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.ObstacleAt(5, 5) == nil
	}, 30)
	if hitTick == -1 {
		t.Fatalf("expected the barrel destroyed within 30 ticks\n%s", ts.Sim.EventLog.Format())
	}

	if k, _ := ts.Sim.Grid.KindAt(5, 5); k != CellEmpty {
		t.Fatalf("expected cell (5,5) empty, got %v", k)
	}
	player := ts.Player()
	if player == nil {
		t.Fatal("expected the player to survive the blast")
	}
	if player.Tank.Health != 70 {
		t.Fatalf("expected player at 70 hp after a 30 damage blast, got %d", player.Tank.Health)
	}
	if n := ts.Sim.EventLog.CountCategory("explosion", "blast"); n != 1 {
		t.Fatalf("expected exactly one explosion, got %d", n)
	}
	if issues := ts.SyncIssues(); len(issues) != 0 {
		t.Fatalf("expected cell and entity state in sync, got %v", issues)
	}
}

// Walls absorb any hit unchanged; the shell is simply spent.
func TestResolver_WallAbsorbsAnyDamage(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithWall(3, 3),
	)
	shell := ts.InjectProjectile(112, 300, 0, 1000)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return !shell.Active
	}, 30)
	if hitTick == -1 {
		t.Fatal("expected the shell to stop within 30 ticks")
	}

	if k, _ := ts.Sim.Grid.KindAt(3, 3); k != CellWall {
		t.Fatalf("expected the wall to stand, got %v", k)
	}
	if len(ts.Sim.Resolver.Hits) != 1 {
		t.Fatalf("expected one hit on the final tick, got %d", len(ts.Sim.Resolver.Hits))
	}
	if h := ts.Sim.Resolver.Hits[0]; h.Kind != HitWall || h.Col != 3 || h.Row != 3 {
		t.Fatalf("expected a wall hit at (3,3), got %v at (%d,%d)", h.Kind, h.Col, h.Row)
	}
	if n := ts.Sim.EventLog.CountCategory("destroy", ""); n != 0 {
		t.Fatalf("expected nothing destroyed, got %d destroy events", n)
	}
	if ts.Sim.Score != 0 {
		t.Fatalf("expected score 0, got %d", ts.Sim.Score)
	}
}

// Two barrels inside each other's blast radius chain within one tick.
func TestResolver_ChainedExplosionsResolveInOneTick(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPetrolBarrel(5, 5, 10, 64, 30),
		WithPetrolBarrel(6, 5, 10, 64, 30),
		WithPerformanceOptions(PerformanceOptions{SpatialPartitioning: true, ExplosionChainCap: 5, SubStepCount: 4}),
	)
	ts.InjectProjectile(176, 300, 0, 20)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.Sim.Entities.CountActive(KindPetrolBarrel) == 0
	}, 30)
	if hitTick == -1 {
		t.Fatalf("expected both barrels gone within 30 ticks\n%s", ts.Sim.EventLog.Format())
	}

	if k, _ := ts.Sim.Grid.KindAt(5, 5); k != CellEmpty {
		t.Fatalf("expected cell (5,5) empty, got %v", k)
	}
	if k, _ := ts.Sim.Grid.KindAt(6, 5); k != CellEmpty {
		t.Fatalf("expected cell (6,5) empty, got %v", k)
	}

	// Both blasts resolved on the hit tick, within the cap.
	st := ts.Sim.Resolver.Stats()
	if st.Explosions != 2 {
		t.Fatalf("expected 2 explosions in the chain, got %d", st.Explosions)
	}
	if st.ChainCapDrops != 0 {
		t.Fatalf("expected no dropped blasts under the cap, got %d", st.ChainCapDrops)
	}
	destroys := ts.Sim.EventLog.Filter("destroy", "petrol_barrel")
	if len(destroys) != 2 {
		t.Fatalf("expected 2 barrel destructions, got %d", len(destroys))
	}
	if destroys[0].Tick != destroys[1].Tick {
		t.Fatalf("expected the chain inside one tick, got ticks %d and %d", destroys[0].Tick, destroys[1].Tick)
	}
	if issues := ts.SyncIssues(); len(issues) != 0 {
		t.Fatalf("expected cell and entity state in sync, got %v", issues)
	}
}

// With the cap at 1 the second blast is dropped from the queue, but the
// barrel it came from is still destroyed and synced.
func TestResolver_ChainCapDropsQueuedBlasts(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPetrolBarrel(5, 5, 10, 64, 30),
		WithPetrolBarrel(6, 5, 10, 64, 30),
		WithPerformanceOptions(PerformanceOptions{SpatialPartitioning: true, ExplosionChainCap: 1, SubStepCount: 4}),
	)
	ts.InjectProjectile(176, 300, 0, 20)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.Sim.Entities.CountActive(KindPetrolBarrel) == 0
	}, 30)
	if hitTick == -1 {
		t.Fatal("expected both barrels gone within 30 ticks")
	}

	st := ts.Sim.Resolver.Stats()
	if st.Explosions != 1 {
		t.Fatalf("expected only the first blast resolved, got %d", st.Explosions)
	}
	if st.ChainCapDrops != 1 {
		t.Fatalf("expected 1 dropped blast, got %d", st.ChainCapDrops)
	}
	if n := ts.Sim.EventLog.CountCategory("explosion", "chain_capped"); n != 1 {
		t.Fatalf("expected a chain_capped event, got %d", n)
	}
	if issues := ts.SyncIssues(); len(issues) != 0 {
		t.Fatalf("expected the dropped blast's barrel still synced, got %v", issues)
	}
}

// When a shell reaches a tank and an obstacle cell at the same parametric
// position, the tank takes the hit.
func TestResolver_TankWinsExactTie(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithWall(5, 5),
		WithPlayerTank(180, 176, 0), // expanded hull edge exactly on the wall edge
	)
	shell := ts.InjectProjectile(100, 176, 90, 20)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return !shell.Active
	}, 30)
	if hitTick == -1 {
		t.Fatal("expected the shell to stop within 30 ticks")
	}

	player := ts.Player()
	if player == nil {
		t.Fatal("expected the player alive after one shell")
	}
	if player.Tank.Health != 80 {
		t.Fatalf("expected the tank to take the tie hit (80 hp), got %d", player.Tank.Health)
	}
	if k, _ := ts.Sim.Grid.KindAt(5, 5); k != CellWall {
		t.Fatalf("expected the wall untouched on a tie, got %v", k)
	}
	if len(ts.Sim.Resolver.Hits) != 1 || ts.Sim.Resolver.Hits[0].Kind != HitEntity {
		t.Fatalf("expected a single entity hit, got %+v", ts.Sim.Resolver.Hits)
	}
}

// A tick's swept path that exactly reaches a wall edge is a hit, not a miss.
func TestResolver_EdgeReachCountsAsHit(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithWall(5, 5),
		WithPerformanceOptions(PerformanceOptions{SpatialPartitioning: true, ExplosionChainCap: 8, SubStepCount: 1}),
	)
	// One tick of motion ends exactly on the cell boundary at x=160.
	shell := ts.InjectProjectile(150, 176, 90, 20)

	ts.RunTicks(1)
	if shell.Active {
		t.Fatal("expected an edge-reach hit on the first tick")
	}
	if len(ts.Sim.Resolver.Hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(ts.Sim.Resolver.Hits))
	}
	h := ts.Sim.Resolver.Hits[0]
	if h.Kind != HitWall || h.Col != 5 || h.Row != 5 {
		t.Fatalf("expected a wall hit at (5,5), got %v at (%d,%d)", h.Kind, h.Col, h.Row)
	}
	if h.T != 1.0 {
		t.Fatalf("expected the hit at the end of the sweep, got t=%v", h.T)
	}
}

// A shell several times faster than a cell still cannot pass a thin wall in
// a single unsliced sweep.
func TestResolver_FastShellCannotTunnel(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithWall(5, 5),
		WithPerformanceOptions(PerformanceOptions{SpatialPartitioning: true, ExplosionChainCap: 8, SubStepCount: 1}),
	)
	shell := &Entity{
		ID:         ts.Sim.Entities.NewID(),
		Kind:       KindProjectile,
		X:          60,
		Y:          176,
		HalfExtent: projectileHalfExtent,
		Active:     true,
		Projectile: &ProjectileState{HeadingDeg: 90, Speed: 200, Damage: 20},
	}
	ts.Sim.Entities.Add(shell)

	ts.RunTicks(1)
	if shell.Active {
		t.Fatal("expected the wall to stop a 200px/tick shell")
	}
	if len(ts.Sim.Resolver.Hits) != 1 || ts.Sim.Resolver.Hits[0].Kind != HitWall {
		t.Fatalf("expected a wall hit, got %+v", ts.Sim.Resolver.Hits)
	}
}

// The first target along the path consumes the shell; nothing behind it is
// touched.
func TestResolver_ProjectileStopsAtFirstTarget(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithRockPile(5, 5, 50),
		WithRockPile(6, 5, 50),
	)
	shell := ts.InjectProjectile(50, 176, 90, 1000)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return !shell.Active
	}, 30)
	if hitTick == -1 {
		t.Fatal("expected the shell spent within 30 ticks")
	}

	if ts.ObstacleAt(5, 5) != nil {
		t.Fatal("expected the first pile destroyed")
	}
	second := ts.ObstacleAt(6, 5)
	if second == nil {
		t.Fatal("expected the second pile untouched")
	}
	if second.Obstacle.Health != 50 {
		t.Fatalf("expected the second pile at full health, got %d", second.Obstacle.Health)
	}
	if k, _ := ts.Sim.Grid.KindAt(6, 5); k != CellRockPile {
		t.Fatalf("expected cell (6,5) still a rock pile, got %v", k)
	}
}

// A shell never hits the tank that fired it, even while leaving its hull.
func TestResolver_ShellIgnoresItsOwner(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPlayerTank(176, 176, 0),
	)
	player := ts.Player()
	owned := &Entity{
		ID:         ts.Sim.Entities.NewID(),
		Kind:       KindProjectile,
		X:          player.X,
		Y:          player.Y,
		HalfExtent: projectileHalfExtent,
		Active:     true,
		Projectile: &ProjectileState{HeadingDeg: 0, Speed: 10, Damage: 50, OwnerID: player.ID},
	}
	ts.Sim.Entities.Add(owned)

	ts.RunTicks(2)
	if player.Tank.Health != tankMaxHealth {
		t.Fatalf("expected the owner unharmed, got %d hp", player.Tank.Health)
	}
	if !owned.Active {
		t.Fatal("expected the owned shell still in flight")
	}

	// An ownerless shell in the same spot connects immediately.
	ts.InjectProjectile(player.X, player.Y, 0, 20)
	ts.RunTicks(1)
	if player.Tank.Health != tankMaxHealth-20 {
		t.Fatalf("expected 20 damage from the ownerless shell, got %d hp", player.Tank.Health)
	}
}

// Shells expire: on leaving the arena, and by age when too slow to leave.
func TestResolver_ShellCulling(t *testing.T) {
	ts := NewTestSim(WithGridSize(10, 10))
	escaping := ts.InjectProjectile(176, 176, 0, 20)

	gone := ts.RunUntil(func(ts *TestSim) bool {
		return !escaping.Active
	}, 60)
	if gone == -1 {
		t.Fatal("expected the escaping shell culled outside the arena")
	}
	if n := ts.Sim.EventLog.CountCategory("projectile", "hit_wall"); n != 0 {
		t.Fatalf("expected no hits on an empty arena, got %d", n)
	}

	crawler := &Entity{
		ID:         ts.Sim.Entities.NewID(),
		Kind:       KindProjectile,
		X:          176,
		Y:          176,
		HalfExtent: projectileHalfExtent,
		Active:     true,
		Projectile: &ProjectileState{HeadingDeg: 0, Speed: 0.1, Damage: 20},
	}
	ts.Sim.Entities.Add(crawler)
	ts.RunTicks(projectileLifetimeTick + 2)
	if crawler.Active {
		t.Fatal("expected the crawling shell to age out")
	}
}

// A blast big enough to kill the player flips the outcome to defeat in the
// same tick that completed the resolution.
func TestResolver_LethalBlastEndsLevel(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPetrolBarrel(5, 5, 10, 96, 200),
		WithPlayerTank(208, 176, 0),
	)
	ts.InjectProjectile(50, 176, 90, 20)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.Sim.Outcome() == OutcomeDefeat
	}, 30)
	if hitTick == -1 {
		t.Fatalf("expected defeat within 30 ticks\n%s", ts.Sim.EventLog.Format())
	}
	if ts.Player() != nil {
		t.Fatal("expected the player destroyed")
	}
	if k, _ := ts.Sim.Grid.KindAt(5, 5); k != CellEmpty {
		t.Fatalf("expected the barrel cell empty even on defeat, got %v", k)
	}
	if issues := ts.SyncIssues(); len(issues) != 0 {
		t.Fatalf("expected state in sync at level end, got %v", issues)
	}
}

// Disabling the spatial index switches the resolver to brute-force scans
// without changing any outcome.
func TestResolver_BruteForceMatchesPartitioned(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithPetrolBarrel(5, 5, 10, 64, 30),
		WithPlayerTank(208, 176, 0),
		WithPerformanceOptions(PerformanceOptions{SpatialPartitioning: false, ExplosionChainCap: 8, SubStepCount: 4}),
	)
	ts.InjectProjectile(50, 176, 90, 20)

	hitTick := ts.RunUntil(func(ts *TestSim) bool {
		return ts.ObstacleAt(5, 5) == nil
	}, 30)
	if hitTick == -1 {
		t.Fatal("expected the barrel destroyed within 30 ticks")
	}
	player := ts.Player()
	if player == nil || player.Tank.Health != 70 {
		t.Fatal("expected the same blast result without partitioning")
	}
}

func TestBlastDamage_RangeGate(t *testing.T) {
	if d := blastDamage(30, 0, 64); d != 30 {
		t.Fatalf("expected full damage at the center, got %d", d)
	}
	if d := blastDamage(30, 63.9, 64); d != 30 {
		t.Fatalf("expected full damage just inside the radius, got %d", d)
	}
	if d := blastDamage(30, 64, 64); d != 0 {
		t.Fatalf("expected no damage at the radius, got %d", d)
	}
	if d := blastDamage(30, 100, 64); d != 0 {
		t.Fatalf("expected no damage beyond the radius, got %d", d)
	}
	if d := blastDamage(30, 5, 0); d != 0 {
		t.Fatalf("expected no damage from a zero radius, got %d", d)
	}
}

func TestSegmentBoxEntry_EntryAndMiss(t *testing.T) {
	t1, ok := segmentBoxEntry(0, 5, 10, 5, 4, 0, 8, 10)
	if !ok || t1 != 0.4 {
		t.Fatalf("expected entry at t=0.4, got t=%v ok=%v", t1, ok)
	}
	if _, ok := segmentBoxEntry(0, 20, 10, 20, 4, 0, 8, 10); ok {
		t.Fatal("expected a miss on a parallel segment outside the box")
	}
	t0, ok := segmentBoxEntry(5, 5, 6, 5, 0, 0, 10, 10)
	if !ok || t0 != 0 {
		t.Fatalf("expected t=0 starting inside the box, got t=%v ok=%v", t0, ok)
	}
	if _, ok := segmentBoxEntry(20, 5, 30, 5, 4, 0, 8, 10); ok {
		t.Fatal("expected a miss moving away from the box")
	}
}
