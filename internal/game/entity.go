package game

import "math"

// --- Balance constants ---
// Reference stats at the 60 Hz tick rate. Speeds are world pixels per tick,
// headings are degrees with 0 = up and clockwise positive.

const (
	tankHalfExtent        = 16.0 // 32x32 hull
	tankMaxHealth         = 100
	tankSpeed             = 5.0
	tankTurnRate          = 3.0 // degrees per tick
	tankReverseFactor     = 0.5 // reverse moves at half speed
	tankFireCooldownTicks = 30  // 0.5 s between shots
	tankBarrelLength      = tankHalfExtent + 5

	projectileHalfExtent   = 4.0 // 8x8 shell
	projectileSpeed        = 10.0
	projectileDamage       = 20
	projectileLifetimeTick = 180 // 3 s, then culled

	rockPileMaxHealth = 50

	barrelMaxHealth   = 30
	barrelBlastRadius = 96.0 // 3 cells
	barrelBlastDamage = 75
)

// Enemy stats scale linearly with difficulty tier 1..5.
const (
	enemyTierMin = 1
	enemyTierMax = 5

	enemyBaseHealth    = 50
	enemyHealthPerTier = 10
	enemyBaseSpeed     = 3.0
	enemySpeedPerTier  = 0.5
)

// EntityKind discriminates the payload carried by an Entity.
type EntityKind uint8

const (
	KindPlayerTank EntityKind = iota
	KindEnemyTank
	KindProjectile
	KindRockPile
	KindPetrolBarrel
	entityKindCount // sentinel
)

func (k EntityKind) String() string {
	switch k {
	case KindPlayerTank:
		return "player_tank"
	case KindEnemyTank:
		return "enemy_tank"
	case KindProjectile:
		return "projectile"
	case KindRockPile:
		return "rock_pile"
	case KindPetrolBarrel:
		return "petrol_barrel"
	default:
		return "unknown"
	}
}

// isTankKind returns true for the two drivable kinds.
func isTankKind(k EntityKind) bool {
	return k == KindPlayerTank || k == KindEnemyTank
}

// isObstacleKind returns true for destructible obstacle kinds.
func isObstacleKind(k EntityKind) bool {
	return k == KindRockPile || k == KindPetrolBarrel
}

// obstacleCellKind maps a destructible obstacle kind to the cell kind that
// mirrors it in the grid.
func obstacleCellKind(k EntityKind) CellKind {
	switch k {
	case KindRockPile:
		return CellRockPile
	case KindPetrolBarrel:
		return CellPetrolBarrel
	default:
		return CellEmpty
	}
}

// TankState is the payload for player and enemy tanks.
type TankState struct {
	Health    int
	MaxHealth int
	Armor     int // flat per-hit reduction, 0 for stock hulls

	HeadingDeg float64 // turret and hull share one heading
	Speed      float64 // forward pixels per tick
	TurnRate   float64 // degrees per tick

	CooldownTicks int // ticks until the gun can fire again

	AI *AIState // nil for the player tank
}

// ProjectileState is the payload for shells in flight.
type ProjectileState struct {
	HeadingDeg float64
	Speed      float64
	Damage     int
	OwnerID    int // firing tank; a shell never hits its owner
	AgeTicks   int
}

// ObstacleState is the payload for destructible obstacles. Col/Row pin the
// occupied cell so the destruction step never re-derives it.
type ObstacleState struct {
	Health    int
	MaxHealth int
	Armor     int

	Col int
	Row int

	// Blast parameters; zero radius means the obstacle is inert.
	BlastRadius float64
	BlastDamage int
}

// Entity is the common simulation record. Exactly one payload pointer is
// non-nil, selected by Kind.
type Entity struct {
	ID         int
	Kind       EntityKind
	X, Y       float64 // center, continuous world coordinates
	HalfExtent float64 // half side of the square footprint
	Active     bool

	Tank       *TankState
	Projectile *ProjectileState
	Obstacle   *ObstacleState
}

// headingVec converts a heading in degrees (0 = up, clockwise) to a unit
// vector in screen space.
func headingVec(deg float64) (dx, dy float64) {
	rad := deg * math.Pi / 180
	return math.Sin(rad), -math.Cos(rad)
}

// headingToward returns the heading in degrees from (x,y) to (tx,ty).
func headingToward(x, y, tx, ty float64) float64 {
	deg := math.Atan2(tx-x, -(ty - y)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// newPlayerTank creates the player hull at (x, y) facing up.
func newPlayerTank(id int, x, y float64) *Entity {
	return &Entity{
		ID:         id,
		Kind:       KindPlayerTank,
		X:          x,
		Y:          y,
		HalfExtent: tankHalfExtent,
		Active:     true,
		Tank: &TankState{
			Health:    tankMaxHealth,
			MaxHealth: tankMaxHealth,
			Speed:     tankSpeed,
			TurnRate:  tankTurnRate,
		},
	}
}

// newEnemyTank creates an AI hull at (x, y) with tier-scaled stats.
func newEnemyTank(id int, x, y float64, tier int) *Entity {
	if tier < enemyTierMin {
		tier = enemyTierMin
	}
	if tier > enemyTierMax {
		tier = enemyTierMax
	}
	hp := enemyBaseHealth + enemyHealthPerTier*tier
	return &Entity{
		ID:         id,
		Kind:       KindEnemyTank,
		X:          x,
		Y:          y,
		HalfExtent: tankHalfExtent,
		Active:     true,
		Tank: &TankState{
			Health:     hp,
			MaxHealth:  hp,
			HeadingDeg: 180, // enemies spawn facing down toward the arena
			Speed:      enemyBaseSpeed + enemySpeedPerTier*float64(tier),
			TurnRate:   tankTurnRate,
			AI:         newAIState(tier),
		},
	}
}

// newProjectile creates a shell already clear of the owner's hull.
func newProjectile(id int, owner *Entity) *Entity {
	dx, dy := headingVec(owner.Tank.HeadingDeg)
	return &Entity{
		ID:         id,
		Kind:       KindProjectile,
		X:          owner.X + dx*tankBarrelLength,
		Y:          owner.Y + dy*tankBarrelLength,
		HalfExtent: projectileHalfExtent,
		Active:     true,
		Projectile: &ProjectileState{
			HeadingDeg: owner.Tank.HeadingDeg,
			Speed:      projectileSpeed,
			Damage:     projectileDamage,
			OwnerID:    owner.ID,
		},
	}
}

// newObstacle creates the entity half of a destructible cell pair, centered
// on (col, row). The caller writes the matching cell kind in the same step.
func newObstacle(id int, kind EntityKind, g *GridMap, col, row int) *Entity {
	x, y := g.CellCenter(col, row)
	ob := &ObstacleState{Col: col, Row: row}
	switch kind {
	case KindRockPile:
		ob.Health = rockPileMaxHealth
		ob.MaxHealth = rockPileMaxHealth
	case KindPetrolBarrel:
		ob.Health = barrelMaxHealth
		ob.MaxHealth = barrelMaxHealth
		ob.BlastRadius = barrelBlastRadius
		ob.BlastDamage = barrelBlastDamage
	}
	return &Entity{
		ID:         id,
		Kind:       kind,
		X:          x,
		Y:          y,
		HalfExtent: float64(g.CellSize) / 2,
		Active:     true,
		Obstacle:   ob,
	}
}

// Health returns current hit points for damageable kinds, 0 otherwise.
func (e *Entity) Health() int {
	switch {
	case e.Tank != nil:
		return e.Tank.Health
	case e.Obstacle != nil:
		return e.Obstacle.Health
	default:
		return 0
	}
}

// TakeDamage applies amount to a tank or obstacle and reports whether this
// call destroyed it (health was positive before, zero after). Hits on an
// already-destroyed or non-damageable entity are no-ops so the same target
// can absorb overlapping hits in one tick without double-counting.
func (e *Entity) TakeDamage(amount int) bool {
	if !e.Active || amount <= 0 {
		return false
	}
	var hp *int
	var armor int
	switch {
	case e.Tank != nil:
		hp = &e.Tank.Health
		armor = e.Tank.Armor
	case e.Obstacle != nil:
		hp = &e.Obstacle.Health
		armor = e.Obstacle.Armor
	default:
		return false
	}
	if *hp <= 0 {
		return false
	}
	eff := amount - armor
	if eff < 1 {
		eff = 1
	}
	*hp -= eff
	if *hp <= 0 {
		*hp = 0
		return true
	}
	return false
}

// bounds returns the entity's axis-aligned bounding box.
func (e *Entity) bounds() (minX, minY, maxX, maxY float64) {
	return e.X - e.HalfExtent, e.Y - e.HalfExtent, e.X + e.HalfExtent, e.Y + e.HalfExtent
}

// overlaps reports axis-aligned box overlap with another entity.
func (e *Entity) overlaps(o *Entity) bool {
	return math.Abs(e.X-o.X) < e.HalfExtent+o.HalfExtent &&
		math.Abs(e.Y-o.Y) < e.HalfExtent+o.HalfExtent
}

// EntityStore owns every entity lifetime. The grid only mirrors destructible
// presence; nothing else holds entity references across ticks.
type EntityStore struct {
	entities []*Entity
	byID     map[int]*Entity
	nextID   int
}

// NewEntityStore creates an empty store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		byID:   make(map[int]*Entity),
		nextID: 1,
	}
}

// NewID hands out the next entity id.
func (es *EntityStore) NewID() int {
	id := es.nextID
	es.nextID++
	return id
}

// Add registers an entity with the store.
func (es *EntityStore) Add(e *Entity) {
	es.entities = append(es.entities, e)
	es.byID[e.ID] = e
}

// ByID returns the entity with the given id, or nil once pruned. Callers
// treat nil as "target already gone", never as an error.
func (es *EntityStore) ByID(id int) *Entity {
	return es.byID[id]
}

// All returns the live entity slice. Do not hold it across a Prune.
func (es *EntityStore) All() []*Entity {
	return es.entities
}

// Player returns the active player tank, or nil after its destruction.
func (es *EntityStore) Player() *Entity {
	for _, e := range es.entities {
		if e.Kind == KindPlayerTank && e.Active {
			return e
		}
	}
	return nil
}

// CountActive returns the number of active entities of kind k.
func (es *EntityStore) CountActive(k EntityKind) int {
	n := 0
	for _, e := range es.entities {
		if e.Active && e.Kind == k {
			n++
		}
	}
	return n
}

// ActiveTotal returns the number of active entities of any kind.
func (es *EntityStore) ActiveTotal() int {
	n := 0
	for _, e := range es.entities {
		if e.Active {
			n++
		}
	}
	return n
}

// Prune drops every inactive entity before the next spatial rebuild and
// returns how many were removed.
func (es *EntityStore) Prune() int {
	kept := es.entities[:0]
	removed := 0
	for _, e := range es.entities {
		if e.Active {
			kept = append(kept, e)
		} else {
			delete(es.byID, e.ID)
			removed++
		}
	}
	es.entities = kept
	return removed
}

// Clear removes everything, keeping the id counter monotonic across levels.
func (es *EntityStore) Clear() {
	es.entities = es.entities[:0]
	es.byID = make(map[int]*Entity)
}
