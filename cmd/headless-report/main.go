package main

import (
	"flag"
	"fmt"

	"github.com/Garsondee/Iron-Rampage/internal/game"
	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

type runStats struct {
	runIndex int
	seed     int64

	ticksRun    int
	outcome     string
	outcomeTick int
	score       int

	shots            int
	wallHits         int
	destructibleHits int
	tankHits         int

	rocksDestroyed   int
	barrelsDestroyed int
	tanksDestroyed   int
	explosions       int
	chainDrops       int
	aiModeChanges    int
	spawnSkips       int

	syncIssues []string
	perf       game.PerformanceSummary
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var level int
	var noSpatial bool
	var chainCap int

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "tick budget per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "master seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "level-run", "scenario name (level-run, barrel-chain)")
	flag.IntVar(&level, "level", 3, "level to generate for the level-run scenario")
	flag.BoolVar(&noSpatial, "no-spatial", false, "disable the spatial index")
	flag.IntVar(&chainCap, "chain-cap", 8, "explosion chain cap")
	flag.Parse()

	logger.Init()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if scenario != "level-run" && scenario != "barrel-chain" {
		fmt.Printf("error: unsupported scenario %q (supported: level-run, barrel-chain)\n", scenario)
		return
	}

	opts := game.DefaultPerformanceOptions()
	opts.SpatialPartitioning = !noSpatial
	opts.ExplosionChainCap = chainCap

	fmt.Printf("=== Headless Battle Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d spatial=%t chain_cap=%d\n\n",
		scenario, runs, ticks, seedBase, seedStep, opts.SpatialPartitioning, opts.ExplosionChainCap)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		var stats runStats
		switch scenario {
		case "level-run":
			stats = runLevel(i+1, seed, ticks, level, opts)
		case "barrel-chain":
			stats = runBarrelChain(i+1, seed, ticks, opts)
		}
		all = append(all, stats)
		printRun(stats)
	}

	printAggregate(all)
}

// runLevel generates a real level and lets the AI hunt the stationary
// player until someone wins or the tick budget runs out.
func runLevel(runIndex int, seed int64, ticks, level int, opts game.PerformanceOptions) runStats {
	ts := game.NewTestSim(
		game.WithSeed(seed),
		game.WithGeneratedLevel(level),
		game.WithPerformanceOptions(opts),
	)
	end := ts.RunUntil(func(ts *game.TestSim) bool {
		return ts.Sim.Outcome() != game.OutcomeInProgress
	}, ticks)
	return collect(runIndex, seed, end, ts)
}

// runBarrelChain builds a tight barrel field and fires one shell into it,
// measuring how the chain resolves under the configured cap.
func runBarrelChain(runIndex int, seed int64, ticks int, opts game.PerformanceOptions) runStats {
	sim := []game.SimOption{
		game.WithGridSize(15, 15),
		game.WithSeed(seed),
		game.WithPerformanceOptions(opts),
	}
	// A diamond of barrels around the arena centre, each inside a
	// neighbour's blast radius. The southern barrel is cracked; the opening
	// shell sets it off and the blast walks outward from there.
	center := 7
	for _, d := range [][2]int{{0, 0}, {2, 0}, {-2, 0}, {0, -2}, {2, 2}, {-2, -2}, {2, -2}, {-2, 2}} {
		sim = append(sim, game.WithPetrolBarrel(center+d[0], center+d[1], 30, 96, 75))
	}
	sim = append(sim, game.WithPetrolBarrel(center, center+2, 10, 96, 75))
	ts := game.NewTestSim(sim...)
	ts.InjectProjectile(float64(center*32+16), 400, 0, 20) // fire upward into the field

	// Chains resolve inside the tick that starts them, so once the shell is
	// gone the field is settled. Barrels spared by a low cap stay standing.
	end := ts.RunUntil(func(ts *game.TestSim) bool {
		return ts.Sim.Entities.CountActive(game.KindProjectile) == 0
	}, ticks)
	return collect(runIndex, seed, end, ts)
}

func collect(runIndex int, seed int64, endTick int, ts *game.TestSim) runStats {
	log := ts.Sim.EventLog
	ticksRun := ts.Sim.CurrentTick()

	chainDrops := 0
	for _, e := range log.Filter("explosion", "chain_capped") {
		chainDrops += int(e.NumVal)
	}

	return runStats{
		runIndex:         runIndex,
		seed:             seed,
		ticksRun:         ticksRun,
		outcome:          ts.Sim.Outcome().String(),
		outcomeTick:      endTick,
		score:            ts.Sim.Score,
		shots:            log.CountCategory("projectile", "fired"),
		wallHits:         log.CountCategory("projectile", "hit_wall"),
		destructibleHits: log.CountCategory("projectile", "hit_destructible"),
		tankHits:         log.CountCategory("projectile", "hit_entity"),
		rocksDestroyed:   log.CountCategory("destroy", "rock_pile"),
		barrelsDestroyed: log.CountCategory("destroy", "petrol_barrel"),
		tanksDestroyed:   log.CountCategory("destroy", "enemy_tank"),
		explosions:       log.CountCategory("explosion", "blast"),
		chainDrops:       chainDrops,
		aiModeChanges:    log.CountCategory("ai", "mode_change"),
		spawnSkips:       log.CountCategory("spawn", "skipped"),
		syncIssues:       ts.SyncIssues(),
		perf:             ts.Sim.GetPerformanceSummary(),
	}
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("outcome=%s decided_at=%d ticks_run=%d score=%d\n",
		rs.outcome, rs.outcomeTick, rs.ticksRun, rs.score)
	fmt.Printf("projectiles: fired=%d wall_hits=%d destructible_hits=%d tank_hits=%d\n",
		rs.shots, rs.wallHits, rs.destructibleHits, rs.tankHits)
	fmt.Printf("destruction: rocks=%d barrels=%d tanks=%d explosions=%d chain_drops=%d\n",
		rs.rocksDestroyed, rs.barrelsDestroyed, rs.tanksDestroyed, rs.explosions, rs.chainDrops)
	fmt.Printf("ai_mode_changes=%d spawn_skips=%d\n", rs.aiModeChanges, rs.spawnSkips)
	fmt.Printf("perf: avg_tick=%.3fms max_tick=%.3fms tps=%.0f objects=%d checks=%d walks=%d\n",
		rs.perf.AvgTickMs, rs.perf.MaxTickMs, rs.perf.EffectiveTPS,
		rs.perf.ObjectCount, rs.perf.CollisionChecks, rs.perf.CellWalks)
	if len(rs.syncIssues) == 0 {
		fmt.Printf("pair_check: ok\n")
	} else {
		fmt.Printf("pair_check: %d ISSUES\n", len(rs.syncIssues))
		for _, is := range rs.syncIssues {
			fmt.Printf("  DESYNC: %s\n", is)
		}
	}
	fmt.Println()
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	totalShots := 0
	totalExplosions := 0
	totalChainDrops := 0
	totalScore := 0
	totalDesyncs := 0
	outcomes := map[string]int{}
	decided := make([]int, 0, len(all))

	for _, rs := range all {
		totalShots += rs.shots
		totalExplosions += rs.explosions
		totalChainDrops += rs.chainDrops
		totalScore += rs.score
		totalDesyncs += len(rs.syncIssues)
		outcomes[rs.outcome]++
		if rs.outcomeTick >= 0 {
			decided = append(decided, rs.outcomeTick)
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("outcomes:")
	for _, k := range []string{"victory", "defeat", "in_progress"} {
		if n := outcomes[k]; n > 0 {
			fmt.Printf(" %s=%d", k, n)
		}
	}
	fmt.Println()
	fmt.Printf("avg_per_run: shots=%.1f explosions=%.1f chain_drops=%.1f score=%.1f\n",
		avg(totalShots, len(all)), avg(totalExplosions, len(all)),
		avg(totalChainDrops, len(all)), avg(totalScore, len(all)))
	fmt.Printf("avg_decided_tick=%s\n", avgTickString(decided))
	if totalDesyncs == 0 {
		fmt.Println("pair_check: every run clean")
	} else {
		fmt.Printf("pair_check: %d desyncs across runs\n", totalDesyncs)
	}
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
