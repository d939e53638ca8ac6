package game

import (
	"math"
	"math/rand"
)

// --- AI tuning ---

const (
	aiBaseReactionTicks = 60   // tier 1 decision interval, shrinks with tier
	aiReactionPerTier   = 6    // ticks shaved per tier
	aiBaseSight         = 150.0
	aiSightPerTier      = 30.0
	aiBaseAccuracy      = 0.5 // fire-gate probability at tier 0
	aiAccuracyPerTier   = 0.1
	aiBaseAlignDeg      = 20.0 // fire only within this bearing of the target
	aiAlignPerTierDeg   = 2.0
	aiBaseAimErrorDeg   = 12.0 // aim wobble, approaches zero at high tier
	aiAimErrorPerTier   = 2.0

	aiMemoryTicks    = 180  // pursue a lost contact for 3 s
	aiEngageFraction = 0.66 // engage inside this fraction of sight range
	aiWanderMinTicks = 60
	aiWanderMaxTicks = 180
)

// AIMode is the high-level behaviour state of an enemy tank.
type AIMode int

const (
	AIIdle   AIMode = iota // wandering, no contact
	AIPursue               // closing on a known or remembered position
	AIEngage               // in range with line of sight, shooting
)

func (m AIMode) String() string {
	switch m {
	case AIIdle:
		return "idle"
	case AIPursue:
		return "pursue"
	case AIEngage:
		return "engage"
	default:
		return "unknown"
	}
}

// AIState is the per-enemy controller memory carried on the tank payload.
type AIState struct {
	Tier int
	Mode AIMode

	ReactionTicks int // minimum ticks between intent updates
	decisionTimer int

	SightRange  float64
	Accuracy    float64
	AlignDeg    float64
	AimErrorDeg float64

	// Contact memory: last place the player was seen.
	lastSeenX   float64
	lastSeenY   float64
	memoryTicks int

	wanderTicks int
	held        Intent // intent persists between decisions
}

// newAIState derives tier-scaled parameters. Tier is clamped by the caller.
func newAIState(tier int) *AIState {
	reaction := aiBaseReactionTicks - aiReactionPerTier*tier
	if reaction < 1 {
		reaction = 1
	}
	return &AIState{
		Tier:          tier,
		Mode:          AIIdle,
		ReactionTicks: reaction,
		SightRange:    aiBaseSight + aiSightPerTier*float64(tier),
		Accuracy:      aiBaseAccuracy + aiAccuracyPerTier*float64(tier),
		AlignDeg:      aiBaseAlignDeg - aiAlignPerTierDeg*float64(tier),
		AimErrorDeg:   aiBaseAimErrorDeg - aiAimErrorPerTier*float64(tier),
	}
}

// AIController turns battlefield observations into intents. It reads the
// grid for obstacle presence and line of sight but never mutates anything;
// the sim applies the returned intents exactly like player input.
type AIController struct {
	grid *GridMap
	rng  *rand.Rand
}

// NewAIController creates a controller with its own deterministic stream.
func NewAIController(grid *GridMap, seed int64) *AIController {
	return &AIController{
		grid: grid,
		rng:  rand.New(rand.NewSource(seed)), // #nosec G404 -- game only
	}
}

// Decide returns the intent for one enemy tank this tick. Between decisions
// the previous intent is held, which is what makes reaction latency felt:
// the tank keeps doing the old thing until its reflexes catch up.
func (ac *AIController) Decide(e *Entity, player *Entity) Intent {
	st := e.Tank.AI
	if st.memoryTicks > 0 {
		st.memoryTicks--
	}
	if st.decisionTimer > 0 {
		st.decisionTimer--
		ac.tickHeld(e, st)
		return st.held
	}
	st.decisionTimer = st.ReactionTicks

	seen := false
	var dist float64
	if player != nil && player.Active {
		dist = math.Hypot(player.X-e.X, player.Y-e.Y)
		seen = dist <= st.SightRange && ac.lineOfSight(e.X, e.Y, player.X, player.Y)
	}

	switch {
	case seen && dist <= st.SightRange*aiEngageFraction:
		st.Mode = AIEngage
		st.lastSeenX, st.lastSeenY = player.X, player.Y
		st.memoryTicks = aiMemoryTicks
		st.held = ac.engageIntent(e, st, player, dist)
	case seen:
		st.Mode = AIPursue
		st.lastSeenX, st.lastSeenY = player.X, player.Y
		st.memoryTicks = aiMemoryTicks
		st.held = ac.pursueIntent(e, st)
	case st.memoryTicks > 0:
		st.Mode = AIPursue
		st.held = ac.pursueIntent(e, st)
	default:
		st.Mode = AIIdle
		st.held = ac.idleIntent(e, st)
	}
	return st.held
}

// tickHeld keeps cheap reflexes running between decisions: wander legs
// expire and a held fire request never repeats for free.
func (ac *AIController) tickHeld(e *Entity, st *AIState) {
	st.held.Fire = false
	if st.Mode == AIIdle {
		st.wanderTicks--
		if st.wanderTicks <= 0 || ac.blockedAhead(e) {
			st.held = ac.idleIntent(e, st)
		}
	}
}

// engageIntent aims at the player with tier-scaled wobble and fires when the
// hull is aligned closely enough and the accuracy roll passes.
func (ac *AIController) engageIntent(e *Entity, st *AIState, player *Entity, dist float64) Intent {
	aim := headingToward(e.X, e.Y, player.X, player.Y)
	aim += (ac.rng.Float64()*2 - 1) * st.AimErrorDeg
	diff := angleDiff(e.Tank.HeadingDeg, aim)

	in := Intent{Turn: turnSign(diff)}
	if math.Abs(diff) <= st.AlignDeg && ac.rng.Float64() < st.Accuracy {
		in.Fire = true
	}
	// Close slowly while shooting unless already on top of the target.
	if dist > st.SightRange*0.33 && !ac.blockedAhead(e) {
		in.Throttle = 1
	}
	return in
}

// pursueIntent drives toward the last known player position.
func (ac *AIController) pursueIntent(e *Entity, st *AIState) Intent {
	want := headingToward(e.X, e.Y, st.lastSeenX, st.lastSeenY)
	diff := angleDiff(e.Tank.HeadingDeg, want)
	in := Intent{Turn: turnSign(diff)}
	if math.Abs(diff) < 45 && !ac.blockedAhead(e) {
		in.Throttle = 1
	}
	return in
}

// idleIntent starts a fresh wander leg on a random cardinal heading.
func (ac *AIController) idleIntent(e *Entity, st *AIState) Intent {
	headings := [4]float64{0, 90, 180, 270}
	want := headings[ac.rng.Intn(4)]
	if ac.blockedAhead(e) {
		// Reverse the leg rather than grinding into the obstacle.
		want = math.Mod(e.Tank.HeadingDeg+180, 360)
	}
	st.wanderTicks = aiWanderMinTicks + ac.rng.Intn(aiWanderMaxTicks-aiWanderMinTicks)
	diff := angleDiff(e.Tank.HeadingDeg, want)
	return Intent{Turn: turnSign(diff), Throttle: 1}
}

// blockedAhead probes one half cell past the hull on the current heading.
func (ac *AIController) blockedAhead(e *Entity) bool {
	dx, dy := headingVec(e.Tank.HeadingDeg)
	probe := e.HalfExtent + float64(ac.grid.CellSize)/2
	col, row := ac.grid.CellAt(e.X+dx*probe, e.Y+dy*probe)
	return ac.grid.IsObstacle(col, row)
}

// lineOfSight samples the segment every half cell; any obstacle cell blocks.
// Rock piles and barrels are hull height, so they hide tanks as well as
// walls do until someone shoots them away.
func (ac *AIController) lineOfSight(x0, y0, x1, y1 float64) bool {
	dist := math.Hypot(x1-x0, y1-y0)
	if dist == 0 {
		return true
	}
	step := float64(ac.grid.CellSize) / 2
	steps := int(dist/step) + 1
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		col, row := ac.grid.CellAt(x0+(x1-x0)*t, y0+(y1-y0)*t)
		if ac.grid.IsObstacle(col, row) {
			return false
		}
	}
	return true
}

// angleDiff returns the signed shortest rotation from heading a to b in
// degrees, in (-180, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

// turnSign collapses an angle difference to a turn order, with a small dead
// zone so hulls don't oscillate around the target bearing.
func turnSign(diff float64) int {
	switch {
	case diff > 1:
		return 1
	case diff < -1:
		return -1
	default:
		return 0
	}
}
