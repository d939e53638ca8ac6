package game

// LevelOutcome is the resolution state of the current level.
type LevelOutcome int

const (
	OutcomeInProgress LevelOutcome = iota
	OutcomeVictory
	OutcomeDefeat
)

func (o LevelOutcome) String() string {
	switch o {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	default:
		return "unknown"
	}
}

// OutcomeReport carries the outcome with the numbers behind it, for the
// batch CLI and the end-of-level banner.
type OutcomeReport struct {
	Outcome      LevelOutcome
	PlayerAlive  bool
	EnemiesAlive int
	EnemiesTotal int
	Description  string
}

// DetermineOutcome inspects the entity store. Defeat beats victory when the
// last shot is mutual: losing the player ends the run regardless of what
// else died in the same tick.
func DetermineOutcome(es *EntityStore, enemiesTotal int) OutcomeReport {
	playerAlive := es.Player() != nil
	enemiesAlive := es.CountActive(KindEnemyTank)

	r := OutcomeReport{
		PlayerAlive:  playerAlive,
		EnemiesAlive: enemiesAlive,
		EnemiesTotal: enemiesTotal,
	}
	switch {
	case !playerAlive:
		r.Outcome = OutcomeDefeat
		r.Description = "defeat_player_destroyed"
	case enemiesAlive == 0:
		r.Outcome = OutcomeVictory
		r.Description = "victory_all_enemies_destroyed"
	default:
		r.Outcome = OutcomeInProgress
		r.Description = "in_progress"
	}
	return r
}
