package game

import (
	"math"
	"testing"
)

// decideN runs enough decisions to guarantee at least one fresh look at the
// current world state, and returns the last intent.
func decideN(ac *AIController, e, player *Entity, n int) Intent {
	var in Intent
	for i := 0; i < n; i++ {
		in = ac.Decide(e, player)
	}
	return in
}

func TestAIController_ModesByDistance(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 1) // sight 180, engage inside 118.8
	player := newPlayerTank(2, 400, 800)
	window := enemy.Tank.AI.ReactionTicks + 2

	decideN(ac, enemy, player, window)
	if enemy.Tank.AI.Mode != AIIdle {
		t.Fatalf("expected idle at 400px, got %v", enemy.Tank.AI.Mode)
	}

	player.X, player.Y = 400, 550 // 150px, inside sight but outside engage range
	decideN(ac, enemy, player, window)
	if enemy.Tank.AI.Mode != AIPursue {
		t.Fatalf("expected pursue at 150px, got %v", enemy.Tank.AI.Mode)
	}

	player.X, player.Y = 400, 480 // 80px
	decideN(ac, enemy, player, window)
	if enemy.Tank.AI.Mode != AIEngage {
		t.Fatalf("expected engage at 80px, got %v", enemy.Tank.AI.Mode)
	}
}

// Between decisions the previous intent is held: the tank does not react to
// the player until its reaction interval elapses.
func TestAIController_ReactionLatencyHoldsIntent(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 1)
	player := newPlayerTank(2, 400, 800) // out of sight

	ac.Decide(enemy, player) // first decision: idle, timer armed
	if enemy.Tank.AI.Mode != AIIdle {
		t.Fatalf("expected idle on first contactless decision, got %v", enemy.Tank.AI.Mode)
	}

	// The player appears close; the enemy must not notice until its
	// reaction interval has fully elapsed.
	player.X, player.Y = 400, 480
	for i := 0; i < enemy.Tank.AI.ReactionTicks; i++ {
		ac.Decide(enemy, player)
		if enemy.Tank.AI.Mode != AIIdle {
			t.Fatalf("expected the held intent through tick %d, got %v", i, enemy.Tank.AI.Mode)
		}
	}
	ac.Decide(enemy, player)
	if enemy.Tank.AI.Mode != AIEngage {
		t.Fatalf("expected engagement once reflexes caught up, got %v", enemy.Tank.AI.Mode)
	}
}

// Tier 5 has perfect trigger discipline: aligned and in range it fires on
// the decision tick, and never for free on held ticks.
func TestAIController_EngageFiresWhenAligned(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 5)
	enemy.Tank.HeadingDeg = 0 // already facing the player
	player := newPlayerTank(2, 400, 250)

	in := ac.Decide(enemy, player)
	if enemy.Tank.AI.Mode != AIEngage {
		t.Fatalf("expected engage at 150px for tier 5, got %v", enemy.Tank.AI.Mode)
	}
	if !in.Fire {
		t.Fatal("expected an aligned tier 5 tank to fire on its decision tick")
	}
	if in.Throttle != 1 {
		t.Fatalf("expected the tank to keep closing, got throttle %d", in.Throttle)
	}

	held := ac.Decide(enemy, player)
	if held.Fire {
		t.Fatal("expected no fire on a held tick")
	}
}

// A tank pointed away never fires no matter how many decisions pass; the
// alignment gate requires the hull to come around first.
func TestAIController_NoFireWhileMisaligned(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 5)
	enemy.Tank.HeadingDeg = 180 // facing away
	player := newPlayerTank(2, 400, 250)

	for i := 0; i < 200; i++ {
		if in := ac.Decide(enemy, player); in.Fire {
			t.Fatalf("expected no fire while 180 degrees off, got one at call %d", i)
		}
	}
}

// Destructible obstacles are hull height: any obstacle cell on the segment
// breaks line of sight.
func TestAIController_ObstaclesBlockSight(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	if err := g.SetCell(15, 12, CellRockPile); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 1) // row 12, left of the pile
	player := newPlayerTank(2, 560, 400)  // row 12, right of the pile
	window := enemy.Tank.AI.ReactionTicks + 2

	decideN(ac, enemy, player, window)
	if enemy.Tank.AI.Mode != AIIdle {
		t.Fatalf("expected the pile to hide the player, got %v", enemy.Tank.AI.Mode)
	}

	// Clearing the cell restores contact on the next decision.
	if err := g.SetCell(15, 12, CellEmpty); err != nil {
		t.Fatalf("expected clear to succeed, got %v", err)
	}
	decideN(ac, enemy, player, window)
	if enemy.Tank.AI.Mode != AIPursue {
		t.Fatalf("expected pursuit with the sightline open, got %v", enemy.Tank.AI.Mode)
	}
}

// Losing sight of the player degrades engage to pursue on remembered
// position, and eventually back to idle once the memory expires.
func TestAIController_ContactMemoryDecays(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 5)
	player := newPlayerTank(2, 400, 250)

	ac.Decide(enemy, player)
	if enemy.Tank.AI.Mode != AIEngage {
		t.Fatalf("expected engage on first sight, got %v", enemy.Tank.AI.Mode)
	}

	player.X, player.Y = 5000, 5000
	decideN(ac, enemy, player, enemy.Tank.AI.ReactionTicks+2)
	if enemy.Tank.AI.Mode != AIPursue {
		t.Fatalf("expected pursuit of the remembered position, got %v", enemy.Tank.AI.Mode)
	}

	decideN(ac, enemy, player, aiMemoryTicks+enemy.Tank.AI.ReactionTicks+2)
	if enemy.Tank.AI.Mode != AIIdle {
		t.Fatalf("expected idle once the contact memory expired, got %v", enemy.Tank.AI.Mode)
	}
}

// The controller only reads the world: positions, health and cells are
// exactly as it found them.
func TestAIController_DecideNeverMutatesWorld(t *testing.T) {
	g := NewGridMap(40, 25, 32)
	if err := g.SetCell(10, 10, CellWall); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}
	ac := NewAIController(g, 1)
	enemy := newEnemyTank(1, 400, 400, 3)
	player := newPlayerTank(2, 450, 400)

	ex, ey := enemy.X, enemy.Y
	px, py, php := player.X, player.Y, player.Tank.Health
	walls := g.CountKind(CellWall)

	decideN(ac, enemy, player, 300)

	if enemy.X != ex || enemy.Y != ey {
		t.Fatal("deciding must not move the enemy hull")
	}
	if player.X != px || player.Y != py || player.Tank.Health != php {
		t.Fatal("deciding must not touch the player")
	}
	if g.CountKind(CellWall) != walls {
		t.Fatal("deciding must not touch the grid")
	}
}

func TestAngleDiff_ShortestRotation(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{350, 10, 20},
		{10, 350, -20},
		{0, 180, 180},
		{0, 181, -179},
		{90, 90, 0},
	}
	for _, c := range cases {
		if got := angleDiff(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("expected angleDiff(%.0f,%.0f)=%.0f, got %.4f", c.a, c.b, c.want, got)
		}
	}
}

func TestTurnSign_DeadZone(t *testing.T) {
	if turnSign(0.5) != 0 || turnSign(-0.5) != 0 {
		t.Fatal("expected no turn inside the dead zone")
	}
	if turnSign(5) != 1 {
		t.Fatal("expected clockwise for a positive difference")
	}
	if turnSign(-5) != -1 {
		t.Fatal("expected counter-clockwise for a negative difference")
	}
}

func TestNewAIState_TierScaling(t *testing.T) {
	low := newAIState(1)
	high := newAIState(5)
	if low.ReactionTicks <= high.ReactionTicks {
		t.Fatalf("expected higher tiers to react faster, got %d vs %d", low.ReactionTicks, high.ReactionTicks)
	}
	if low.SightRange >= high.SightRange {
		t.Fatalf("expected higher tiers to see farther, got %.0f vs %.0f", low.SightRange, high.SightRange)
	}
	if low.Accuracy >= high.Accuracy {
		t.Fatalf("expected higher tiers to shoot better, got %.2f vs %.2f", low.Accuracy, high.Accuracy)
	}
	if high.AimErrorDeg >= low.AimErrorDeg {
		t.Fatalf("expected higher tiers to wobble less, got %.1f vs %.1f", high.AimErrorDeg, low.AimErrorDeg)
	}
}
