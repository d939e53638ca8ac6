package game

import (
	"errors"
	"math"
)

// ErrOutOfBounds reports a cell coordinate outside the grid. It is fatal
// during map generation; live collision queries never see it because the
// probe accessors treat out-of-bounds as open ground.
var ErrOutOfBounds = errors.New("cell coordinates out of bounds")

// CellKind identifies what occupies one grid cell.
type CellKind uint8

const (
	CellEmpty        CellKind = iota // open ground
	CellWall                         // indestructible wall
	CellRockPile                     // destructible, inert
	CellPetrolBarrel                 // destructible, explodes
	cellKindCount                    // sentinel
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellWall:
		return "wall"
	case CellRockPile:
		return "rock_pile"
	case CellPetrolBarrel:
		return "petrol_barrel"
	default:
		return "unknown"
	}
}

// cellIsObstacle returns true if the cell kind blocks movement and shots.
func cellIsObstacle(k CellKind) bool {
	switch k {
	case CellWall, CellRockPile, CellPetrolBarrel:
		return true
	default:
		return false
	}
}

// cellIsDestructible returns true if the cell kind can be shot away.
func cellIsDestructible(k CellKind) bool {
	switch k {
	case CellRockPile, CellPetrolBarrel:
		return true
	default:
		return false
	}
}

// GridMap is the authoritative per-cell battlefield state. Cell kinds mirror
// destructible-obstacle entities: a destructible kind and its entity form a
// pair that must change together inside one resolution step.
type GridMap struct {
	Cols     int
	Rows     int
	CellSize int
	cells    []CellKind // row-major: index = row*Cols + col
}

// NewGridMap creates an all-empty grid. cellSize is in world pixels.
func NewGridMap(cols, rows, cellSize int) *GridMap {
	return &GridMap{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		cells:    make([]CellKind, cols*rows),
	}
}

// InBounds returns true if (col, row) is within the grid.
func (g *GridMap) InBounds(col, row int) bool {
	return col >= 0 && col < g.Cols && row >= 0 && row < g.Rows
}

// KindAt returns the kind at (col, row), or ErrOutOfBounds outside the grid.
// Map generation and the destruction protocol use this strict form.
func (g *GridMap) KindAt(col, row int) (CellKind, error) {
	if !g.InBounds(col, row) {
		return CellEmpty, ErrOutOfBounds
	}
	return g.cells[row*g.Cols+col], nil
}

// SetCell mutates a single cell. Only map generation and the
// destruction-sync step may call it; anything else desynchronises the
// cell/entity pair.
func (g *GridMap) SetCell(col, row int, k CellKind) error {
	if !g.InBounds(col, row) {
		return ErrOutOfBounds
	}
	g.cells[row*g.Cols+col] = k
	return nil
}

// IsObstacle is the live collision probe: true for wall, rock pile and
// petrol barrel cells. Out-of-bounds reads as open so projectiles leaving
// the arena simply fly until culled.
func (g *GridMap) IsObstacle(col, row int) bool {
	if !g.InBounds(col, row) {
		return false
	}
	return cellIsObstacle(g.cells[row*g.Cols+col])
}

// IsDestructible returns true for rock pile and petrol barrel cells.
func (g *GridMap) IsDestructible(col, row int) bool {
	if !g.InBounds(col, row) {
		return false
	}
	return cellIsDestructible(g.cells[row*g.Cols+col])
}

// kindOrEmpty is the tolerant read used on hot paths.
func (g *GridMap) kindOrEmpty(col, row int) CellKind {
	if !g.InBounds(col, row) {
		return CellEmpty
	}
	return g.cells[row*g.Cols+col]
}

// CellAt converts a continuous world position to cell coordinates. Every
// position-to-cell conversion in the engine (movement probes, destruction
// sync, spawn validation, explosion lookups) must go through this one
// function; the conversion rule is not allowed to exist anywhere else.
func (g *GridMap) CellAt(x, y float64) (col, row int) {
	return int(math.Floor(x / float64(g.CellSize))), int(math.Floor(y / float64(g.CellSize)))
}

// CellCenter is the inverse mapping: the world position of a cell's center.
func (g *GridMap) CellCenter(col, row int) (x, y float64) {
	return (float64(col) + 0.5) * float64(g.CellSize), (float64(row) + 0.5) * float64(g.CellSize)
}

// PixelW returns the arena width in world pixels.
func (g *GridMap) PixelW() float64 {
	return float64(g.Cols * g.CellSize)
}

// PixelH returns the arena height in world pixels.
func (g *GridMap) PixelH() float64 {
	return float64(g.Rows * g.CellSize)
}

// CountKind returns how many cells currently hold kind k.
func (g *GridMap) CountKind(k CellKind) int {
	n := 0
	for _, c := range g.cells {
		if c == k {
			n++
		}
	}
	return n
}

// CopyCells appends a snapshot of the cell array into dst and returns it.
// The renderer reads the copy, never the live grid.
func (g *GridMap) CopyCells(dst []CellKind) []CellKind {
	dst = dst[:0]
	return append(dst, g.cells...)
}
