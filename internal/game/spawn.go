package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrNoValidSpawn reports that candidate sampling exhausted its attempt
// budget. Recoverable by contract: callers log and skip the entity, they
// never abort the level.
var ErrNoValidSpawn = errors.New("no valid spawn location found")

const (
	spawnDefaultAttempts = 50
	spawnObstacleBuffer  = 1.0 // clearance from obstacle cell centers, in cells
)

// KeepOut is an exclusion circle for spawn sampling, used to hold enemies
// away from the player and from each other.
type KeepOut struct {
	X, Y   float64
	Radius float64
}

// SpawnValidator samples and checks candidate spawn positions against the
// grid. It owns its random stream so level builds replay under one seed.
type SpawnValidator struct {
	grid *GridMap
	rng  *rand.Rand
}

// NewSpawnValidator creates a validator over the given grid.
func NewSpawnValidator(grid *GridMap, seed int64) *SpawnValidator {
	return &SpawnValidator{
		grid: grid,
		rng:  rand.New(rand.NewSource(seed)), // #nosec G404 -- game only
	}
}

// FindValidSpawnLocation samples random positions until one passes
// IsLocationValid, or fails with ErrNoValidSpawn after maxAttempts.
func (sv *SpawnValidator) FindValidSpawnLocation(halfExtent float64, maxAttempts int) (float64, float64, error) {
	return sv.FindSpawnAwayFrom(halfExtent, maxAttempts, nil)
}

// FindSpawnAwayFrom is FindValidSpawnLocation with exclusion circles.
func (sv *SpawnValidator) FindSpawnAwayFrom(halfExtent float64, maxAttempts int, keepOut []KeepOut) (float64, float64, error) {
	if maxAttempts <= 0 {
		maxAttempts = spawnDefaultAttempts
	}
	w, h := sv.grid.PixelW(), sv.grid.PixelH()
	for i := 0; i < maxAttempts; i++ {
		x := halfExtent + sv.rng.Float64()*(w-2*halfExtent)
		y := halfExtent + sv.rng.Float64()*(h-2*halfExtent)
		if !sv.IsLocationValid(x, y, halfExtent) {
			continue
		}
		if tooClose(x, y, keepOut) {
			continue
		}
		return x, y, nil
	}
	return 0, 0, fmt.Errorf("%w after %d attempts", ErrNoValidSpawn, maxAttempts)
}

func tooClose(x, y float64, keepOut []KeepOut) bool {
	for _, k := range keepOut {
		if math.Hypot(x-k.X, y-k.Y) < k.Radius {
			return true
		}
	}
	return false
}

// IsLocationValid accepts a center position whose full footprint is
// in-bounds and obstacle-free, with clearance from nearby obstacle cells and
// room to maneuver out again.
func (sv *SpawnValidator) IsLocationValid(x, y, halfExtent float64) bool {
	return sv.withinBounds(x, y, halfExtent) &&
		!sv.obstacleTooNear(x, y, halfExtent) &&
		sv.hasManeuveringSpace(x, y)
}

// withinBounds requires all four footprint corners inside the arena.
func (sv *SpawnValidator) withinBounds(x, y, halfExtent float64) bool {
	return x-halfExtent >= 0 && y-halfExtent >= 0 &&
		x+halfExtent <= sv.grid.PixelW() && y+halfExtent <= sv.grid.PixelH()
}

// obstacleTooNear scans the cells around the candidate and rejects it when
// any obstacle cell center is closer than the footprint plus buffer. This
// covers both "footprint overlaps an obstacle" and "spawned scraping a
// wall".
func (sv *SpawnValidator) obstacleTooNear(x, y, halfExtent float64) bool {
	cs := float64(sv.grid.CellSize)
	required := halfExtent + spawnObstacleBuffer*cs
	reach := int(math.Ceil(required/cs)) + 1

	col, row := sv.grid.CellAt(x, y)
	for r := row - reach; r <= row+reach; r++ {
		for c := col - reach; c <= col+reach; c++ {
			if !sv.grid.IsObstacle(c, r) {
				continue
			}
			cx, cy := sv.grid.CellCenter(c, r)
			if math.Hypot(x-cx, y-cy) < required {
				return true
			}
		}
	}
	return false
}

// hasManeuveringSpace requires at least two of the four cardinal neighbour
// cells to be open, so a fresh tank is never boxed in from the start.
func (sv *SpawnValidator) hasManeuveringSpace(x, y float64) bool {
	col, row := sv.grid.CellAt(x, y)
	clear := 0
	for _, d := range [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
		c, r := col+d[0], row+d[1]
		if sv.grid.InBounds(c, r) && !sv.grid.IsObstacle(c, r) {
			clear++
		}
	}
	return clear >= 2
}

// ValidateExistingSpawn reports why a fixed position is (or is not) a sound
// spawn point. Scenario tooling uses it to explain bad hand-placed layouts.
func (sv *SpawnValidator) ValidateExistingSpawn(x, y, halfExtent float64) []string {
	var issues []string
	if !sv.withinBounds(x, y, halfExtent) {
		issues = append(issues, "spawn_out_of_bounds")
	}
	col, row := sv.grid.CellAt(x, y)
	if sv.grid.IsObstacle(col, row) {
		issues = append(issues, "spawn_in_obstacle")
	}
	if !sv.hasManeuveringSpace(x, y) {
		issues = append(issues, "insufficient_maneuvering_space")
	}
	return issues
}
