package game

import "sync/atomic"

// EntitySnapshot is a render-ready copy of one active entity.
type EntitySnapshot struct {
	ID         int
	Kind       EntityKind
	X, Y       float64
	HalfExtent float64
	HeadingDeg float64 // tanks and projectiles
	Health     int
	MaxHealth  int
	AIMode     AIMode // enemy tanks only
}

// FrameSnapshot is the finished, immutable state of one tick. Renderers draw
// from it and never touch live simulation state, so a draw that overlaps the
// next tick can never observe a half-resolved frame.
type FrameSnapshot struct {
	Tick     int
	Level    int
	Score    int
	Outcome  LevelOutcome
	Cols     int
	Rows     int
	CellSize int
	Cells    []CellKind
	Entities []EntitySnapshot
}

// snapshotPair double-buffers FrameSnapshots: the sim fills the back buffer
// at the end of each tick and publishes it atomically, alternating buffers
// so publication never waits on a reader.
type snapshotPair struct {
	bufs   [2]FrameSnapshot
	next   int
	latest atomic.Pointer[FrameSnapshot]
}

// publish copies the sim state into the back buffer and makes it current.
func (sp *snapshotPair) publish(s *Sim) {
	buf := &sp.bufs[sp.next]
	sp.next = 1 - sp.next

	buf.Tick = s.tick
	buf.Level = s.Level
	buf.Score = s.Score
	buf.Outcome = s.Outcome()
	buf.Cols = s.Grid.Cols
	buf.Rows = s.Grid.Rows
	buf.CellSize = s.Grid.CellSize
	buf.Cells = s.Grid.CopyCells(buf.Cells)

	buf.Entities = buf.Entities[:0]
	for _, e := range s.Entities.All() {
		if !e.Active {
			continue
		}
		es := EntitySnapshot{
			ID:         e.ID,
			Kind:       e.Kind,
			X:          e.X,
			Y:          e.Y,
			HalfExtent: e.HalfExtent,
		}
		switch {
		case e.Tank != nil:
			es.HeadingDeg = e.Tank.HeadingDeg
			es.Health = e.Tank.Health
			es.MaxHealth = e.Tank.MaxHealth
			if e.Tank.AI != nil {
				es.AIMode = e.Tank.AI.Mode
			}
		case e.Projectile != nil:
			es.HeadingDeg = e.Projectile.HeadingDeg
		case e.Obstacle != nil:
			es.Health = e.Obstacle.Health
			es.MaxHealth = e.Obstacle.MaxHealth
		}
		buf.Entities = append(buf.Entities, es)
	}

	sp.latest.Store(buf)
}

// Latest returns the most recently published snapshot, or nil before the
// first tick completes.
func (sp *snapshotPair) Latest() *FrameSnapshot {
	return sp.latest.Load()
}

// CellAtIndex reads a cell kind from the snapshot copy.
func (fs *FrameSnapshot) CellAtIndex(col, row int) CellKind {
	if col < 0 || col >= fs.Cols || row < 0 || row >= fs.Rows {
		return CellEmpty
	}
	return fs.Cells[row*fs.Cols+col]
}
