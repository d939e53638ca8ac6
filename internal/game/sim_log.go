package game

import (
	"fmt"
	"strings"
)

// SimLogEntry is one recorded event during a headless simulation run.
type SimLogEntry struct {
	Tick     int
	Entity   string  // label e.g. "P1", "E3", "O12", or "--" for global events
	Category string  // cell, damage, destroy, explosion, projectile, spawn, ai, level
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] O12  destroy   barrel            cell (5,5) -> empty
func (e SimLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-4s %-10s %-16s %s",
		e.Tick, e.Entity, e.Category, e.Key, e.Value)
}

// SimLog collects structured events during a headless simulation. It is
// unbounded and machine-readable; the scenario tests and the batch CLI
// assert against it.
type SimLog struct {
	entries []SimLogEntry
	verbose bool
}

// NewSimLog creates a SimLog. Verbose mode additionally records per-tick
// position and health detail entries.
func NewSimLog(verbose bool) *SimLog {
	return &SimLog{verbose: verbose}
}

// Add records a new entry.
func (sl *SimLog) Add(tick int, entity, category, key, value string, numVal float64) {
	sl.entries = append(sl.entries, SimLogEntry{
		Tick:     tick,
		Entity:   entity,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (sl *SimLog) AddVerbose(tick int, entity, category, key, value string, numVal float64) {
	if !sl.verbose {
		return
	}
	sl.Add(tick, entity, category, key, value, numVal)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []SimLogEntry {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterEntity returns entries for a specific entity label.
func (sl *SimLog) FilterEntity(label string) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Entity == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (sl *SimLog) FilterTickRange(fromTick, toTick int) []SimLogEntry {
	var out []SimLogEntry
	for _, e := range sl.entries {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (SimLogEntry, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return SimLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatRange returns a log string filtered to a tick range.
func (sl *SimLog) FormatRange(fromTick, toTick int) string {
	var sb strings.Builder
	for _, e := range sl.FilterTickRange(fromTick, toTick) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable state digest: alive hulls, cell
// census, and AI mode distribution.
func (sl *SimLog) Summary(tick int, sim *Sim) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d ---\n", tick)

	fmt.Fprintf(&sb, "Alive: player=%d enemies=%d projectiles=%d obstacles=%d\n",
		sim.Entities.CountActive(KindPlayerTank),
		sim.Entities.CountActive(KindEnemyTank),
		sim.Entities.CountActive(KindProjectile),
		sim.Entities.CountActive(KindRockPile)+sim.Entities.CountActive(KindPetrolBarrel))

	fmt.Fprintf(&sb, "Cells: wall=%d rock_pile=%d petrol_barrel=%d empty=%d\n",
		sim.Grid.CountKind(CellWall),
		sim.Grid.CountKind(CellRockPile),
		sim.Grid.CountKind(CellPetrolBarrel),
		sim.Grid.CountKind(CellEmpty))

	modes := map[AIMode]int{}
	for _, e := range sim.Entities.All() {
		if e.Active && e.Kind == KindEnemyTank && e.Tank.AI != nil {
			modes[e.Tank.AI.Mode]++
		}
	}
	if len(modes) > 0 {
		fmt.Fprintf(&sb, "AI modes: ")
		for _, m := range []AIMode{AIIdle, AIPursue, AIEngage} {
			if n := modes[m]; n > 0 {
				fmt.Fprintf(&sb, "%s=%d  ", m, n)
			}
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Outcome: %s\n", sim.Outcome())
	return sb.String()
}
