package game

import (
	"fmt"
	"strings"
	"time"
)

// PerformanceOptions are the engine knobs exposed to diagnostics tooling and
// the in-game toggles. Changes take effect on the next tick.
type PerformanceOptions struct {
	SpatialPartitioning bool // false = brute-force candidate scans
	ExplosionChainCap   int  // max explosion events resolved per tick
	SubStepCount        int  // projectile sweep slices per tick
}

// DefaultPerformanceOptions returns the shipping configuration.
func DefaultPerformanceOptions() PerformanceOptions {
	return PerformanceOptions{
		SpatialPartitioning: true,
		ExplosionChainCap:   8,
		SubStepCount:        4,
	}
}

// sanitized clamps the knobs to usable ranges so a bad config file cannot
// stall a tick or disable termination guarantees.
func (o PerformanceOptions) sanitized() PerformanceOptions {
	if o.ExplosionChainCap < 1 {
		o.ExplosionChainCap = 1
	}
	if o.ExplosionChainCap > 64 {
		o.ExplosionChainCap = 64
	}
	if o.SubStepCount < 1 {
		o.SubStepCount = 1
	}
	if o.SubStepCount > 16 {
		o.SubStepCount = 16
	}
	return o
}

const perfWindow = 60

// ringWindow is a fixed rolling window of millisecond samples.
type ringWindow struct {
	samples [perfWindow]float64
	n       int
	idx     int
}

func (rw *ringWindow) add(v float64) {
	rw.samples[rw.idx] = v
	rw.idx = (rw.idx + 1) % perfWindow
	if rw.n < perfWindow {
		rw.n++
	}
}

func (rw *ringWindow) mean() float64 {
	if rw.n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < rw.n; i++ {
		sum += rw.samples[i]
	}
	return sum / float64(rw.n)
}

func (rw *ringWindow) max() float64 {
	m := 0.0
	for i := 0; i < rw.n; i++ {
		if rw.samples[i] > m {
			m = rw.samples[i]
		}
	}
	return m
}

// PerfMonitor keeps the last second of per-tick timings and the most recent
// tick's work counters. The sim feeds it once per tick; it never touches
// simulation state.
type PerfMonitor struct {
	tickMs     ringWindow
	moveMs     ringWindow
	collideMs  ringWindow
	snapshotMs ringWindow

	objectCount int
	resolve     ResolveStats
	spatial     SpatialStats
	pruned      int
	ticks       uint64
}

// NewPerfMonitor creates an empty monitor.
func NewPerfMonitor() *PerfMonitor {
	return &PerfMonitor{}
}

// RecordTick stores one tick's phase timings and counters.
func (pm *PerfMonitor) RecordTick(tick, move, collide, snapshot time.Duration,
	resolve ResolveStats, objects, pruned int, spatial SpatialStats) {
	pm.tickMs.add(ms(tick))
	pm.moveMs.add(ms(move))
	pm.collideMs.add(ms(collide))
	pm.snapshotMs.add(ms(snapshot))
	pm.resolve = resolve
	pm.objectCount = objects
	pm.pruned = pruned
	pm.spatial = spatial
	pm.ticks++
}

func ms(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// PerformanceSummary is the diagnostics snapshot handed to callers. All
// timings are rolling means over the last 60 ticks unless named otherwise.
type PerformanceSummary struct {
	Ticks        uint64
	AvgTickMs    float64
	MaxTickMs    float64
	AvgMoveMs    float64
	AvgCollideMs float64
	AvgSnapMs    float64
	EffectiveTPS float64 // tick throughput the mean tick time could sustain

	ObjectCount     int
	PrunedLastTick  int
	CollisionChecks int
	CellWalks       int
	Explosions      int
	ChainCapDrops   int

	Spatial SpatialStats
	Options PerformanceOptions
}

// Summary builds the snapshot, stamping in the options currently in force.
func (pm *PerfMonitor) Summary(opts PerformanceOptions) PerformanceSummary {
	avgTick := pm.tickMs.mean()
	s := PerformanceSummary{
		Ticks:           pm.ticks,
		AvgTickMs:       avgTick,
		MaxTickMs:       pm.tickMs.max(),
		AvgMoveMs:       pm.moveMs.mean(),
		AvgCollideMs:    pm.collideMs.mean(),
		AvgSnapMs:       pm.snapshotMs.mean(),
		ObjectCount:     pm.objectCount,
		PrunedLastTick:  pm.pruned,
		CollisionChecks: pm.resolve.CollisionChecks,
		CellWalks:       pm.resolve.CellWalks,
		Explosions:      pm.resolve.Explosions,
		ChainCapDrops:   pm.resolve.ChainCapDrops,
		Spatial:         pm.spatial,
		Options:         opts,
	}
	if avgTick > 0 {
		s.EffectiveTPS = 1000.0 / avgTick
	}
	return s
}

// Format renders the summary as the block shown by the debug overlay and
// copied to the clipboard report.
func (s PerformanceSummary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Performance (tick %d) ---\n", s.Ticks)
	fmt.Fprintf(&b, "tick avg %.3f ms (max %.3f)  capacity %.0f tps\n", s.AvgTickMs, s.MaxTickMs, s.EffectiveTPS)
	fmt.Fprintf(&b, "phases: move %.3f ms, collide %.3f ms, snapshot %.3f ms\n", s.AvgMoveMs, s.AvgCollideMs, s.AvgSnapMs)
	fmt.Fprintf(&b, "objects %d (pruned %d)  checks %d  cell-walks %d\n", s.ObjectCount, s.PrunedLastTick, s.CollisionChecks, s.CellWalks)
	fmt.Fprintf(&b, "explosions %d  chain-drops %d\n", s.Explosions, s.ChainCapDrops)
	fmt.Fprintf(&b, "spatial: %d/%d buckets, max %d, avg %.2f, inserted %d\n",
		s.Spatial.OccupiedBuckets, s.Spatial.TotalBuckets, s.Spatial.MaxPerBucket,
		s.Spatial.AvgPerOccupied, s.Spatial.Inserted)
	fmt.Fprintf(&b, "options: partitioning=%v chainCap=%d subSteps=%d\n",
		s.Options.SpatialPartitioning, s.Options.ExplosionChainCap, s.Options.SubStepCount)
	return b.String()
}
