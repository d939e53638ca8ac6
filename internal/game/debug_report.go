package game

import (
	"fmt"
	"strings"
)

// reportLogTail is how many trailing event log lines the report keeps.
const reportLogTail = 40

// BuildDebugReport renders the full battle state as text: identity, outcome,
// performance, the entity and cell censuses, the pair check, and the tail of
// the event log when one is attached. The shell copies it to the clipboard,
// the batch CLI prints it.
func BuildDebugReport(s *Sim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Iron Rampage debug report ---\n")
	fmt.Fprintf(&b, "seed=%d level=%d tick=%d score=%d\n", s.seed, s.Level, s.CurrentTick(), s.Score)

	detail := s.OutcomeDetail()
	fmt.Fprintf(&b, "outcome=%s player_alive=%t enemies=%d/%d\n\n",
		detail.Outcome, detail.PlayerAlive, detail.EnemiesAlive, detail.EnemiesTotal)

	b.WriteString(s.GetPerformanceSummary().Format())
	b.WriteByte('\n')

	writeEntityCensus(&b, s)
	writeCellCensus(&b, s.Grid)

	b.WriteString("== pair check ==\n")
	issues := destructiblePairIssues(s.Grid, s.Entities)
	if len(issues) == 0 {
		b.WriteString("grid and entity store agree\n")
	} else {
		for _, is := range issues {
			fmt.Fprintf(&b, "DESYNC: %s\n", is)
		}
	}
	b.WriteByte('\n')

	if s.EventLog != nil {
		entries := s.EventLog.Entries()
		from := 0
		if len(entries) > reportLogTail {
			from = len(entries) - reportLogTail
			fmt.Fprintf(&b, "== event log (last %d of %d) ==\n", reportLogTail, len(entries))
		} else {
			fmt.Fprintf(&b, "== event log (%d entries) ==\n", len(entries))
		}
		for _, e := range entries[from:] {
			b.WriteString(e.String())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func writeEntityCensus(b *strings.Builder, s *Sim) {
	b.WriteString("== entities ==\n")
	fmt.Fprintf(b, "active=%d\n", s.Entities.ActiveTotal())

	for _, e := range s.Entities.All() {
		if !e.Active {
			continue
		}
		switch e.Kind {
		case KindPlayerTank:
			fmt.Fprintf(b, "%s pos=(%.1f,%.1f) heading=%.0f hp=%d/%d cooldown=%d\n",
				entityLabel(e), e.X, e.Y, e.Tank.HeadingDeg,
				e.Tank.Health, e.Tank.MaxHealth, e.Tank.CooldownTicks)
		case KindEnemyTank:
			mode := AIIdle
			if e.Tank.AI != nil {
				mode = e.Tank.AI.Mode
			}
			fmt.Fprintf(b, "%s tier=%d mode=%s pos=(%.1f,%.1f) heading=%.0f hp=%d/%d\n",
				entityLabel(e), enemyTier(e), mode, e.X, e.Y, e.Tank.HeadingDeg,
				e.Tank.Health, e.Tank.MaxHealth)
		}
	}

	var counts [entityKindCount]int
	for _, e := range s.Entities.All() {
		if e.Active {
			counts[e.Kind]++
		}
	}
	fmt.Fprintf(b, "projectiles=%d rock_piles=%d barrels=%d\n\n",
		counts[KindProjectile], counts[KindRockPile], counts[KindPetrolBarrel])
}

func enemyTier(e *Entity) int {
	if e.Tank != nil && e.Tank.AI != nil {
		return e.Tank.AI.Tier
	}
	return 0
}

func writeCellCensus(b *strings.Builder, g *GridMap) {
	b.WriteString("== cells ==\n")
	fmt.Fprintf(b, "arena=%dx%d cell=%dpx\n", g.Cols, g.Rows, g.CellSize)
	for k := CellKind(0); k < cellKindCount; k++ {
		fmt.Fprintf(b, "%-13s %d\n", k.String(), g.CountKind(k))
	}
	b.WriteByte('\n')
}

// destructiblePairIssues cross-checks the grid against the entity store.
// Every rock pile or barrel cell must carry exactly one live entity, and
// every live obstacle entity must sit on a cell of its kind. Empty result
// means the two views agree.
func destructiblePairIssues(g *GridMap, es *EntityStore) []string {
	var issues []string

	paired := make(map[[2]int]int)
	for _, e := range es.All() {
		if !e.Active || !isObstacleKind(e.Kind) {
			continue
		}
		col, row := e.Obstacle.Col, e.Obstacle.Row
		paired[[2]int{col, row}]++
		want := obstacleCellKind(e.Kind)
		if got := g.kindOrEmpty(col, row); got != want {
			issues = append(issues, fmt.Sprintf(
				"entity %d (%s) at cell (%d,%d) but cell is %s", e.ID, e.Kind, col, row, got))
		}
	}

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if !g.IsDestructible(col, row) {
				continue
			}
			switch n := paired[[2]int{col, row}]; {
			case n == 0:
				issues = append(issues, fmt.Sprintf(
					"destructible cell (%d,%d) %s has no paired entity", col, row, g.kindOrEmpty(col, row)))
			case n > 1:
				issues = append(issues, fmt.Sprintf(
					"destructible cell (%d,%d) has %d paired entities", col, row, n))
			}
		}
	}
	return issues
}
