package game

import (
	"fmt"
	"math/rand"

	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

// --- Difficulty scaling ---

const (
	levelMaxDifficulty = 5

	// Obstacle density per cell of interior area, scaled by difficulty.
	wallDensityPerCell   = 0.01
	rockDensityPerCell   = 0.02
	barrelDensityPerCell = 0.01
)

// difficultyForLevel clamps the map difficulty at the cap while levels keep
// counting up.
func difficultyForLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > levelMaxDifficulty {
		return levelMaxDifficulty
	}
	return level
}

// enemyCountForLevel grows one hull per level to a cap of six.
func enemyCountForLevel(level int) int {
	n := 1 + (level - 1)
	if n > 6 {
		n = 6
	}
	if n < 1 {
		n = 1
	}
	return n
}

// tierForDifficulty jitters the tier around the map difficulty: 20% one
// below, 50% at, 30% one above, clamped to the valid range.
func tierForDifficulty(difficulty int, rng *rand.Rand) int {
	tier := difficulty
	switch roll := rng.Float64(); {
	case roll < 0.2:
		tier--
	case roll >= 0.7:
		tier++
	}
	if tier < enemyTierMin {
		tier = enemyTierMin
	}
	if tier > enemyTierMax {
		tier = enemyTierMax
	}
	return tier
}

// playerKeepOutCells is how far, in cells, enemies must spawn from the
// player. Later levels tighten the ring so fights start sooner.
func playerKeepOutCells(level int) float64 {
	if level >= 5 {
		return 6
	}
	return 8
}

// tankKeepOutCells is the minimum spacing between enemy spawn points.
func tankKeepOutCells(level int) float64 {
	if level >= 3 {
		return 4
	}
	return 5
}

// --- Map generation ---

// MapGenerator writes obstacle layouts into an existing grid. Destructible
// placements go through the paired write path so every rock pile and barrel
// starts life with both its cell and its entity in agreement.
type MapGenerator struct {
	rng *rand.Rand
}

func NewMapGenerator(seed int64) *MapGenerator {
	// #nosec G404 -- game only
	return &MapGenerator{rng: rand.New(rand.NewSource(seed))}
}

// MapCensus reports what a generation pass actually placed.
type MapCensus struct {
	WallCells int
	RockPiles int
	Barrels   int
}

// Generate resets the grid to empty, raises the boundary wall, scatters
// wall clusters, then seeds destructibles with their paired entities.
func (mg *MapGenerator) Generate(g *GridMap, store *EntityStore, difficulty int) MapCensus {
	var census MapCensus
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			_ = g.SetCell(col, row, CellEmpty)
		}
	}
	for col := 0; col < g.Cols; col++ {
		_ = g.SetCell(col, 0, CellWall)
		_ = g.SetCell(col, g.Rows-1, CellWall)
	}
	for row := 0; row < g.Rows; row++ {
		_ = g.SetCell(0, row, CellWall)
		_ = g.SetCell(g.Cols-1, row, CellWall)
	}

	area := (g.Cols - 2) * (g.Rows - 2)
	census.WallCells = mg.placeWallClusters(g, int(float64(area)*wallDensityPerCell*float64(difficulty)))

	rocks := int(float64(area) * rockDensityPerCell * float64(difficulty))
	barrels := int(float64(area) * barrelDensityPerCell * float64(difficulty))
	census.RockPiles = mg.placeDestructibles(g, store, CellRockPile, rocks)
	census.Barrels = mg.placeDestructibles(g, store, CellPetrolBarrel, barrels)
	return census
}

// placeWallClusters drops point, line, L and U shaped formations until the
// target cell count is reached or attempts run out.
func (mg *MapGenerator) placeWallClusters(g *GridMap, target int) int {
	placed := 0
	for attempts := 0; placed < target && attempts < target*4+8; attempts++ {
		col := 1 + mg.rng.Intn(g.Cols-2)
		row := 1 + mg.rng.Intn(g.Rows-2)
		placed += mg.placeCluster(g, col, row)
	}
	return placed
}

// placeCluster stamps one formation anchored at (col,row) and returns how
// many wall cells it managed to place.
func (mg *MapGenerator) placeCluster(g *GridMap, col, row int) int {
	var cells [][2]int
	switch mg.rng.Intn(4) {
	case 0: // point blob
		for dr := 0; dr < 2; dr++ {
			for dc := 0; dc < 2; dc++ {
				if mg.rng.Float64() < 0.7 {
					cells = append(cells, [2]int{col + dc, row + dr})
				}
			}
		}
	case 1: // line
		length := 2 + mg.rng.Intn(3)
		dc, dr := 1, 0
		if mg.rng.Intn(2) == 0 {
			dc, dr = 0, 1
		}
		for i := 0; i < length; i++ {
			cells = append(cells, [2]int{col + dc*i, row + dr*i})
		}
	case 2: // L
		arm := 3
		for i := 0; i < arm; i++ {
			cells = append(cells, [2]int{col + i, row}, [2]int{col, row + i})
		}
	default: // U, open to the north
		for i := 0; i < 3; i++ {
			cells = append(cells, [2]int{col, row + i}, [2]int{col + 2, row + i})
		}
		cells = append(cells, [2]int{col + 1, row + 2})
	}

	placed := 0
	for _, c := range cells {
		if mg.canPlaceWall(g, c[0], c[1]) {
			_ = g.SetCell(c[0], c[1], CellWall)
			placed++
		}
	}
	return placed
}

// canPlaceWall keeps formations off the boundary ring and refuses any cell
// that would be left with fewer than two open cardinal neighbours, which is
// what stops the generator sealing corridors shut.
func (mg *MapGenerator) canPlaceWall(g *GridMap, col, row int) bool {
	if col < 1 || row < 1 || col >= g.Cols-1 || row >= g.Rows-1 {
		return false
	}
	if g.kindOrEmpty(col, row) != CellEmpty {
		return false
	}
	open := 0
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if g.kindOrEmpty(col+d[0], row+d[1]) == CellEmpty {
			open++
		}
	}
	return open >= 2
}

// placeDestructibles scatters count cells of the given kind onto random
// empty interior cells, creating the paired entity for each.
func (mg *MapGenerator) placeDestructibles(g *GridMap, store *EntityStore, kind CellKind, count int) int {
	var open [][2]int
	for row := 1; row < g.Rows-1; row++ {
		for col := 1; col < g.Cols-1; col++ {
			if g.kindOrEmpty(col, row) == CellEmpty {
				open = append(open, [2]int{col, row})
			}
		}
	}
	mg.rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	if count > len(open) {
		count = len(open)
	}

	entKind := KindRockPile
	if kind == CellPetrolBarrel {
		entKind = KindPetrolBarrel
	}
	placed := 0
	for i := 0; i < count; i++ {
		col, row := open[i][0], open[i][1]
		if err := g.SetCell(col, row, kind); err != nil {
			logger.Log.Errorf("map generation: %v", err)
			continue
		}
		store.Add(newObstacle(store.NewID(), entKind, g, col, row))
		placed++
	}
	return placed
}

// --- Level lifecycle ---

// LevelSetup reports what a level build produced, including spawns that had
// to be skipped.
type LevelSetup struct {
	Level          int
	Difficulty     int
	Census         MapCensus
	PlayerSpawned  bool
	EnemiesPlanned int
	EnemiesSpawned int
}

// BuildLevel tears the arena down and repopulates it for the given level.
// Callers invoke it between ticks, never during one, so the resolution in
// flight always completes against the old layout.
func (s *Sim) BuildLevel(level int) LevelSetup {
	s.Level = level
	s.tick = 0
	s.Entities.Clear()
	s.Resolver.BeginTick()
	s.Fired = s.Fired[:0]

	setup := LevelSetup{
		Level:      level,
		Difficulty: difficultyForLevel(level),
	}
	setup.Census = s.gen.Generate(s.Grid, s.Entities, setup.Difficulty)
	setup.PlayerSpawned = s.spawnPlayer()
	setup.EnemiesPlanned = enemyCountForLevel(level)
	setup.EnemiesSpawned = s.spawnEnemies(setup.EnemiesPlanned)
	s.enemiesTotal = setup.EnemiesSpawned

	s.Spatial.Rebuild(s.Entities.All())
	s.outcome = DetermineOutcome(s.Entities, s.enemiesTotal)
	s.snapshots.publish(s)

	s.logEvent("--", "level", "built",
		fmt.Sprintf("difficulty %d walls %d rocks %d barrels %d enemies %d/%d",
			setup.Difficulty, setup.Census.WallCells, setup.Census.RockPiles,
			setup.Census.Barrels, setup.EnemiesSpawned, setup.EnemiesPlanned), float64(level))
	logger.Log.Infof("level %d built: difficulty %d, %d enemies", level, setup.Difficulty, setup.EnemiesSpawned)
	return setup
}

// NextLevel advances after a victory.
func (s *Sim) NextLevel() LevelSetup {
	return s.BuildLevel(s.Level + 1)
}

// Restart rebuilds from the given level with the score wiped.
func (s *Sim) Restart(level int) LevelSetup {
	s.Score = 0
	return s.BuildLevel(level)
}

func (s *Sim) spawnPlayer() bool {
	x, y, err := s.Validator.FindValidSpawnLocation(tankHalfExtent, spawnDefaultAttempts)
	if err != nil {
		logger.Log.Errorf("player spawn failed on level %d: %v", s.Level, err)
		s.logEvent("--", "spawn", "skipped", "player: "+err.Error(), 0)
		return false
	}
	p := newPlayerTank(s.Entities.NewID(), x, y)
	s.Entities.Add(p)
	s.logEvent(entityLabel(p), "spawn", "player", fmt.Sprintf("at (%.0f,%.0f)", x, y), 0)
	return true
}

// spawnEnemies places up to count hulls, keeping each clear of the player
// and of hulls already placed. A spot that cannot be found skips that one
// enemy rather than failing the level build.
func (s *Sim) spawnEnemies(count int) int {
	cs := float64(s.Grid.CellSize)
	keepOut := make([]KeepOut, 0, count+1)
	if p := s.Entities.Player(); p != nil {
		keepOut = append(keepOut, KeepOut{X: p.X, Y: p.Y, Radius: playerKeepOutCells(s.Level) * cs})
	}

	spawned := 0
	for i := 0; i < count; i++ {
		x, y, err := s.Validator.FindSpawnAwayFrom(tankHalfExtent, spawnDefaultAttempts, keepOut)
		if err != nil {
			logger.Log.Warnf("enemy spawn %d/%d skipped on level %d: %v", i+1, count, s.Level, err)
			s.logEvent("--", "spawn", "skipped", fmt.Sprintf("enemy %d: %v", i+1, err), 0)
			continue
		}
		tier := tierForDifficulty(difficultyForLevel(s.Level), s.gen.rng)
		e := newEnemyTank(s.Entities.NewID(), x, y, tier)
		s.Entities.Add(e)
		keepOut = append(keepOut, KeepOut{X: x, Y: y, Radius: tankKeepOutCells(s.Level) * cs})
		s.logEvent(entityLabel(e), "spawn", "enemy",
			fmt.Sprintf("tier %d at (%.0f,%.0f)", tier, x, y), float64(tier))
		spawned++
	}
	return spawned
}
