package game

import (
	"strings"
	"testing"
)

func TestBuildDebugReport_SectionsPresent(t *testing.T) {
	ts := NewTestSim(
		WithSeed(9),
		WithRockPile(5, 5, 50),
		WithPlayerTank(200, 200, 0),
	)
	ts.RunTicks(2)

	report := BuildDebugReport(ts.Sim)
	for _, want := range []string{
		"Iron Rampage debug report",
		"seed=9",
		"== entities ==",
		"== cells ==",
		"== pair check ==",
		"grid and entity store agree",
		"== event log",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}

func TestBuildDebugReport_EntityCensusCounts(t *testing.T) {
	ts := NewTestSim(
		WithRockPile(5, 5, 50),
		WithRockPile(7, 5, 50),
		WithPetrolBarrel(9, 5, 30, 96, 75),
		WithPlayerTank(200, 300, 0),
	)
	ts.InjectProjectile(400, 400, 0, projectileDamage)

	report := BuildDebugReport(ts.Sim)
	if !strings.Contains(report, "projectiles=1 rock_piles=2 barrels=1") {
		t.Fatalf("expected the census to count every kind, got:\n%s", report)
	}
}

func TestBuildDebugReport_FlagsDesync(t *testing.T) {
	ts := NewTestSim(WithPlayerTank(200, 200, 0))
	// Write a destructible cell with no paired entity behind the sim's back.
	if err := ts.Sim.Grid.SetCell(3, 3, CellRockPile); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	report := BuildDebugReport(ts.Sim)
	if !strings.Contains(report, "DESYNC") {
		t.Fatalf("expected a DESYNC line, got:\n%s", report)
	}
	if !strings.Contains(report, "has no paired entity") {
		t.Fatalf("expected the unpaired cell to be named, got:\n%s", report)
	}
}

func TestDestructiblePairIssues_DoublePairing(t *testing.T) {
	ts := NewTestSim(
		WithRockPile(4, 4, 50),
		WithRockPile(4, 4, 50),
	)
	issues := destructiblePairIssues(ts.Sim.Grid, ts.Sim.Entities)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d: %v", len(issues), issues)
	}
	if !strings.Contains(issues[0], "2 paired entities") {
		t.Fatalf("expected double pairing to be reported, got %q", issues[0])
	}
}
