package game

import (
	"image/color"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

// borderWidth is the pixel gap between the window edge and the arena.
const borderWidth = 16

// hudScale is the integer upscale factor applied to all HUD text.
const hudScale = 2

// victoryLingerTicks is how long the cleared arena stays on screen before
// the next level builds.
const victoryLingerTicks = 120

// bannerTicks is how long the level banner stays up after a build.
const bannerTicks = 90

// Options configures the windowed shell. Zero values fall back to the
// standard arena.
type Options struct {
	Cols       int
	Rows       int
	CellSize   int
	StartLevel int
	Seed       int64
	Audio      SoundPlayer

	// Perf overrides the simulation tuning; nil keeps the defaults.
	Perf *PerformanceOptions
}

type Game struct {
	width  int
	height int
	offX   int
	offY   int

	sim        *Sim
	fx         *EffectSystem
	audio      SoundPlayer
	startLevel int

	// Offscreen buffer for the arena. HUD text renders at 1x into hudBuf and
	// blits at hudScale so it stays crisp.
	worldBuf *ebiten.Image
	hudBuf   *ebiten.Image

	prevKeys map[ebiten.Key]bool
	showHUD  bool
	showPerf bool

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds

	// Level transition timers, in frames.
	victoryWait int
	bannerWait  int

	// Deterministic ground colour patches, generated once.
	terrainPatches []terrainPatch

	clipboardNote string // transient HUD feedback after a report copy
	clipboardWait int
}

// terrainPatch is a subtle ground colour variation tile.
type terrainPatch struct {
	x, y  float32
	w, h  float32
	shade uint8
}

func New(o Options) *Game {
	if o.Cols <= 0 {
		o.Cols = 40
	}
	if o.Rows <= 0 {
		o.Rows = 25
	}
	if o.CellSize <= 0 {
		o.CellSize = 32
	}
	if o.StartLevel <= 0 {
		o.StartLevel = 1
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Audio == nil {
		o.Audio = NoopPlayer{}
	}

	sim := NewSim(o.Cols, o.Rows, o.CellSize, o.Seed)
	if o.Perf != nil {
		sim.SetPerformanceOptions(*o.Perf)
	}
	worldW := int(sim.Grid.PixelW())
	worldH := int(sim.Grid.PixelH())

	g := &Game{
		width:      borderWidth + worldW + borderWidth,
		height:     borderWidth + worldH + borderWidth + hudPanelHeight,
		offX:       borderWidth,
		offY:       borderWidth,
		sim:        sim,
		fx:         NewEffectSystem(),
		audio:      o.Audio,
		startLevel: o.StartLevel,
		prevKeys:   make(map[ebiten.Key]bool),
		showHUD:    true,
		simSpeed:   1.0,
	}
	g.worldBuf = ebiten.NewImage(worldW, worldH)
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.initTerrainPatches(worldW, worldH)

	g.sim.BuildLevel(o.StartLevel)
	g.bannerWait = bannerTicks
	logger.Log.Infof("windowed shell ready: %dx%d cells, seed %d", o.Cols, o.Rows, o.Seed)
	return g
}

// initTerrainPatches generates subtle dirt variation on the arena floor.
func (g *Game) initTerrainPatches(w, h int) {
	rng := rand.New(rand.NewSource(54321)) // #nosec G404 -- cosmetic only
	count := 160
	g.terrainPatches = make([]terrainPatch, 0, count)
	for i := 0; i < count; i++ {
		g.terrainPatches = append(g.terrainPatches, terrainPatch{
			x:     float32(rng.Intn(w)),
			y:     float32(rng.Intn(h)),
			w:     float32(20 + rng.Intn(70)),
			h:     float32(20 + rng.Intn(70)),
			shade: uint8(rng.Intn(11)),
		})
	}
}

func (g *Game) Update() error {
	// Input runs every frame regardless of sim speed.
	step := g.handleInput()

	if g.simSpeed <= 0 && !step {
		// Paused: effects keep fading so the freeze still reads as alive.
		g.fx.Update()
		return nil
	}

	if step {
		g.runTick()
		return nil
	}

	// For speeds > 1 run multiple sim ticks per frame, for speeds < 1
	// accumulate fractions.
	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		g.runTick()
	}
	return nil
}

// runTick advances the sim one step and feeds the frame systems from its
// event sinks.
func (g *Game) runTick() {
	switch g.sim.Outcome() {
	case OutcomeVictory:
		g.victoryWait++
		if g.victoryWait >= victoryLingerTicks {
			g.victoryWait = 0
			g.sim.NextLevel()
			g.fx.Clear()
			g.bannerWait = bannerTicks
		}
		// The cleared arena keeps simulating while it lingers; the player
		// can drive around the wreckage.
	case OutcomeDefeat:
		// Frozen until R restarts. Effects still fade.
		g.fx.Update()
		return
	}

	g.sim.Tick(g.playerIntent())
	g.fx.IngestTick(g.sim)
	g.fx.Update()

	if len(g.sim.Fired) > 0 {
		g.audio.PlayShot()
	}
	if len(g.sim.Resolver.Hits) > 0 {
		g.audio.PlayImpact()
	}
	if len(g.sim.Resolver.Explosions) > 0 {
		g.audio.PlayExplosion()
	}
	if len(g.sim.Resolver.Destructions) > 0 {
		g.audio.PlayDestruction()
	}

	if g.bannerWait > 0 {
		g.bannerWait--
	}
	if g.clipboardWait > 0 {
		g.clipboardWait--
	}
}

// playerIntent reads the held driving keys. Arrows and WASD are equivalent.
func (g *Game) playerIntent() Intent {
	var in Intent
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW) {
		in.Throttle = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS) {
		in.Throttle = -1
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD) {
		in.Turn = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA) {
		in.Turn = -1
	}
	in.Fire = ebiten.IsKeyPressed(ebiten.KeySpace)
	return in
}

// handleInput processes the edge-triggered control keys. Returns true when
// a paused single-step was requested.
func (g *Game) handleInput() bool {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}

	// P: pause/resume.
	if pressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}

	// ,/. step the speed ladder.
	speeds := []float64{0, 0.5, 1, 2, 4}
	if pressed(ebiten.KeyComma) {
		for i, s := range speeds {
			if s >= g.simSpeed && i > 0 {
				g.simSpeed = speeds[i-1]
				break
			}
		}
	}
	if pressed(ebiten.KeyPeriod) {
		for i, s := range speeds {
			if s <= g.simSpeed && i < len(speeds)-1 {
				if speeds[i+1] > g.simSpeed {
					g.simSpeed = speeds[i+1]
					break
				}
			}
		}
	}

	// N: single tick while paused.
	step := false
	if pressed(ebiten.KeyN) && g.simSpeed == 0 {
		step = true
	}

	// F1: toggle the spatial index, for eyeballing the cost difference on
	// the perf overlay.
	if pressed(ebiten.KeyF1) {
		opts := g.sim.PerformanceOptions()
		opts.SpatialPartitioning = !opts.SpatialPartitioning
		g.sim.SetPerformanceOptions(opts)
	}

	// F3: perf overlay.
	if pressed(ebiten.KeyF3) {
		g.showPerf = !g.showPerf
	}

	// H: HUD legend.
	if pressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}

	// C: copy the debug report to the clipboard.
	if pressed(ebiten.KeyC) {
		g.copyDebugReport()
	}

	// R: restart from the configured starting level.
	if pressed(ebiten.KeyR) {
		g.sim.Restart(g.startLevel)
		g.fx.Clear()
		g.victoryWait = 0
		g.bannerWait = bannerTicks
		if g.simSpeed == 0 {
			g.simSpeed = 1
		}
	}

	g.prevKeys = currentKeys
	return step
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 13, B: 11, A: 255})

	snap := g.sim.Snapshot()
	g.worldBuf.Clear()
	if snap != nil {
		g.drawWorld(g.worldBuf, snap)
	}
	g.fx.Draw(g.worldBuf, 0, 0)
	g.drawVignette(g.worldBuf)

	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.worldBuf, &blit)

	// Arena border frame.
	ox := float32(g.offX)
	oy := float32(g.offY)
	gw := float32(g.worldBuf.Bounds().Dx())
	gh := float32(g.worldBuf.Bounds().Dy())
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 90, G: 78, B: 54, A: 255}, false)
	vector.StrokeRect(screen, ox-3, oy-3, gw+6, gh+6, 1.0, color.RGBA{R: 55, G: 48, B: 34, A: 110}, false)

	g.drawHUD(screen, snap)
}

// drawWorld renders the arena from a published snapshot only, never from
// live sim state.
func (g *Game) drawWorld(screen *ebiten.Image, snap *FrameSnapshot) {
	w := float32(snap.Cols * snap.CellSize)
	h := float32(snap.Rows * snap.CellSize)
	vector.FillRect(screen, 0, 0, w, h, color.RGBA{R: 54, G: 48, B: 36, A: 255}, false)

	// Dirt variation patches.
	for _, tp := range g.terrainPatches {
		s := tp.shade
		vector.FillRect(screen, tp.x, tp.y, tp.w, tp.h,
			color.RGBA{R: 50 + s, G: 45 + s/2, B: 34 + s/3, A: 36}, false)
	}

	// Faint cell grid.
	cs := float32(snap.CellSize)
	gridCol := color.RGBA{R: 62, G: 55, B: 42, A: 255}
	for x := float32(0); x <= w; x += cs {
		vector.StrokeLine(screen, x, 0, x, h, 1.0, gridCol, false)
	}
	for y := float32(0); y <= h; y += cs {
		vector.StrokeLine(screen, 0, y, w, y, 1.0, gridCol, false)
	}

	// Wall cells. Destructibles render from their entity snapshots so the
	// sprite can show remaining health.
	for row := 0; row < snap.Rows; row++ {
		for col := 0; col < snap.Cols; col++ {
			if snap.CellAtIndex(col, row) != CellWall {
				continue
			}
			g.drawWallCell(screen, float32(col)*cs, float32(row)*cs, cs)
		}
	}

	for i := range snap.Entities {
		e := &snap.Entities[i]
		switch e.Kind {
		case KindRockPile:
			g.drawRockPile(screen, e, cs)
		case KindPetrolBarrel:
			g.drawBarrel(screen, e, cs)
		}
	}
	for i := range snap.Entities {
		e := &snap.Entities[i]
		switch e.Kind {
		case KindPlayerTank, KindEnemyTank:
			g.drawTank(screen, e)
		case KindProjectile:
			g.drawProjectile(screen, e)
		}
	}
}

func (g *Game) drawWallCell(screen *ebiten.Image, x, y, cs float32) {
	vector.FillRect(screen, x, y, cs, cs, color.RGBA{R: 96, G: 92, B: 86, A: 255}, false)
	// Top-left highlight, bottom-right shadow.
	vector.StrokeLine(screen, x, y, x+cs, y, 1.0, color.RGBA{R: 128, G: 124, B: 116, A: 220}, false)
	vector.StrokeLine(screen, x, y, x, y+cs, 1.0, color.RGBA{R: 118, G: 114, B: 106, A: 180}, false)
	vector.StrokeLine(screen, x, y+cs, x+cs, y+cs, 1.0, color.RGBA{R: 55, G: 52, B: 47, A: 220}, false)
	vector.StrokeLine(screen, x+cs, y, x+cs, y+cs, 1.0, color.RGBA{R: 55, G: 52, B: 47, A: 200}, false)
}

// healthFrac is the 0..1 remaining health used to fade damaged sprites.
func healthFrac(e *EntitySnapshot) float32 {
	if e.MaxHealth <= 0 {
		return 1
	}
	f := float32(e.Health) / float32(e.MaxHealth)
	if f < 0 {
		return 0
	}
	return f
}

func (g *Game) drawRockPile(screen *ebiten.Image, e *EntitySnapshot, cs float32) {
	cx := float32(e.X)
	cy := float32(e.Y)
	hf := healthFrac(e)
	base := color.RGBA{R: uint8(120 * hf) + 40, G: uint8(100 * hf) + 35, B: uint8(80 * hf) + 30, A: 255}
	// Three overlapping boulders, scale shrinking with damage.
	r := cs * 0.28 * (0.7 + 0.3*hf)
	vector.FillCircle(screen, cx-r*0.7, cy+r*0.4, r, base, false)
	vector.FillCircle(screen, cx+r*0.8, cy+r*0.5, r*0.85, base, false)
	vector.FillCircle(screen, cx, cy-r*0.5, r*0.9, base, false)
	vector.FillCircle(screen, cx-r*0.3, cy-r*0.8, r*0.35, color.RGBA{R: 170, G: 150, B: 125, A: 150}, false)
}

func (g *Game) drawBarrel(screen *ebiten.Image, e *EntitySnapshot, cs float32) {
	cx := float32(e.X)
	cy := float32(e.Y)
	hf := healthFrac(e)
	r := cs * 0.34
	body := color.RGBA{R: 170, G: uint8(50 * hf), B: 24, A: 255}
	vector.FillCircle(screen, cx, cy, r, body, false)
	vector.StrokeCircle(screen, cx, cy, r, 1.5, color.RGBA{R: 220, G: 120, B: 40, A: 200}, false)
	vector.StrokeCircle(screen, cx, cy, r*0.55, 1.0, color.RGBA{R: 225, G: 170, B: 60, A: 180}, false)
	// Hazard notch.
	vector.FillRect(screen, cx-2, cy-r*0.3, 4, r*0.6, color.RGBA{R: 240, G: 200, B: 70, A: 220}, false)
}

func (g *Game) drawTank(screen *ebiten.Image, e *EntitySnapshot) {
	he := float32(e.HalfExtent)
	x0 := float32(e.X) - he
	y0 := float32(e.Y) - he

	var body, trim color.RGBA
	if e.Kind == KindPlayerTank {
		body = color.RGBA{R: 66, G: 110, B: 58, A: 255}
		trim = color.RGBA{R: 110, G: 165, B: 96, A: 255}
	} else {
		body = color.RGBA{R: 122, G: 54, B: 44, A: 255}
		trim = color.RGBA{R: 180, G: 92, B: 72, A: 255}
	}

	// Hull with tread strips on the facing sides.
	vector.FillRect(screen, x0, y0, he*2, he*2, body, false)
	tread := color.RGBA{R: 30, G: 30, B: 28, A: 255}
	vector.FillRect(screen, x0, y0, 5, he*2, tread, false)
	vector.FillRect(screen, x0+he*2-5, y0, 5, he*2, tread, false)
	vector.StrokeRect(screen, x0, y0, he*2, he*2, 1.0, trim, false)

	// Turret and barrel along the heading.
	cx := float32(e.X)
	cy := float32(e.Y)
	dx, dy := headingVec(e.HeadingDeg)
	vector.FillCircle(screen, cx, cy, he*0.55, trim, false)
	vector.StrokeLine(screen, cx, cy,
		cx+float32(dx*tankBarrelLength), cy+float32(dy*tankBarrelLength),
		4, color.RGBA{R: 40, G: 40, B: 36, A: 255}, false)

	// Health bar above the hull.
	hf := healthFrac(e)
	barW := he * 2
	barY := y0 - 7
	vector.FillRect(screen, x0, barY, barW, 4, color.RGBA{R: 20, G: 20, B: 20, A: 200}, false)
	var hc color.RGBA
	switch {
	case hf > 0.6:
		hc = color.RGBA{R: 80, G: 200, B: 80, A: 230}
	case hf > 0.3:
		hc = color.RGBA{R: 220, G: 190, B: 60, A: 230}
	default:
		hc = color.RGBA{R: 220, G: 70, B: 50, A: 230}
	}
	vector.FillRect(screen, x0, barY, barW*hf, 4, hc, false)
}

func (g *Game) drawProjectile(screen *ebiten.Image, e *EntitySnapshot) {
	cx := float32(e.X)
	cy := float32(e.Y)
	dx, dy := headingVec(e.HeadingDeg)
	// Shell body plus a short motion streak behind it.
	vector.StrokeLine(screen,
		cx-float32(dx*10), cy-float32(dy*10), cx, cy,
		2, color.RGBA{R: 255, G: 210, B: 120, A: 120}, false)
	vector.FillCircle(screen, cx, cy, float32(e.HalfExtent), color.RGBA{R: 255, G: 235, B: 180, A: 255}, false)
}

// drawVignette darkens the arena edges.
func (g *Game) drawVignette(screen *ebiten.Image) {
	gw := float32(screen.Bounds().Dx())
	gh := float32(screen.Bounds().Dy())
	band := float32(60)
	dark := color.RGBA{R: 0, G: 0, B: 0, A: 36}
	vector.FillRect(screen, 0, 0, gw, band, dark, false)
	vector.FillRect(screen, 0, gh-band, gw, band, dark, false)
	vector.FillRect(screen, 0, 0, band, gh, dark, false)
	vector.FillRect(screen, gw-band, 0, band, gh, dark, false)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
