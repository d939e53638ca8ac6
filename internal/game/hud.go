package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Iron-Rampage/pkg/logger"
)

// hudPanelHeight is the status strip under the arena, in screen pixels.
const hudPanelHeight = 56

// hudFace is the bitmap face used for status text and banners.
var hudFace = text.NewGoXFace(basicfont.Face7x13)

// drawHUD renders the status strip, the optional key legend and perf
// overlay, and any active banner.
func (g *Game) drawHUD(screen *ebiten.Image, snap *FrameSnapshot) {
	g.drawStatusStrip(screen, snap)
	if g.showHUD {
		g.drawKeyLegend(screen)
	}
	if g.showPerf {
		g.drawPerfOverlay(screen)
	}
	g.drawBanner(screen, snap)

	if g.clipboardWait > 0 && g.clipboardNote != "" {
		g.drawCenteredText(screen, g.clipboardNote, float64(g.height)-18, 1.5,
			color.RGBA{R: 200, G: 220, B: 200, A: 255})
	}
}

// drawStatusStrip shows hull health, level, score and sim speed along the
// bottom of the window.
func (g *Game) drawStatusStrip(screen *ebiten.Image, snap *FrameSnapshot) {
	stripY := float32(g.height - hudPanelHeight)
	vector.FillRect(screen, 0, stripY, float32(g.width), hudPanelHeight,
		color.RGBA{R: 18, G: 17, B: 14, A: 255}, false)
	vector.StrokeLine(screen, 0, stripY, float32(g.width), stripY, 1.0,
		color.RGBA{R: 90, G: 78, B: 54, A: 200}, false)

	if snap == nil {
		return
	}

	hp, maxHP := 0, tankMaxHealth
	for i := range snap.Entities {
		if snap.Entities[i].Kind == KindPlayerTank {
			hp = snap.Entities[i].Health
			maxHP = snap.Entities[i].MaxHealth
			break
		}
	}

	// Health bar on the left.
	barX := float32(borderWidth)
	barY := stripY + 14
	barW := float32(180)
	vector.FillRect(screen, barX, barY, barW, 14, color.RGBA{R: 30, G: 28, B: 24, A: 255}, false)
	frac := float32(0)
	if maxHP > 0 {
		frac = float32(hp) / float32(maxHP)
	}
	hc := color.RGBA{R: 80, G: 200, B: 80, A: 255}
	if frac <= 0.3 {
		hc = color.RGBA{R: 220, G: 70, B: 50, A: 255}
	} else if frac <= 0.6 {
		hc = color.RGBA{R: 220, G: 190, B: 60, A: 255}
	}
	vector.FillRect(screen, barX, barY, barW*frac, 14, hc, false)
	vector.StrokeRect(screen, barX, barY, barW, 14, 1.0, color.RGBA{R: 120, G: 110, B: 90, A: 255}, false)

	speedStr := fmt.Sprintf("%gx", g.simSpeed)
	if g.simSpeed == 0 {
		speedStr = "PAUSED"
	}
	detail := g.sim.OutcomeDetail()
	line := fmt.Sprintf("HP %d/%d   LEVEL %d   SCORE %d   ENEMIES %d/%d   SPEED %s   T=%d",
		hp, maxHP, snap.Level, snap.Score,
		detail.EnemiesAlive, detail.EnemiesTotal, speedStr, snap.Tick)

	op := &text.DrawOptions{}
	op.GeoM.Scale(hudScale, hudScale)
	op.GeoM.Translate(float64(barX)+float64(barW)+16, float64(barY)-3)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 225, G: 215, B: 190, A: 255})
	text.Draw(screen, line, hudFace, op)
}

// drawKeyLegend renders the keyboard hints in the bottom-left corner above
// the status strip. Text goes into hudBuf at 1x and blits at hudScale.
func (g *Game) drawKeyLegend(screen *ebiten.Image) {
	lines := []string{
		"arrows/WASD drive  SPACE fire",
		"P pause  ,/. speed  N step",
		"F1 spatial  F3 perf  C report",
		"R restart  H hide help",
	}

	const lineH = 12
	const charW = 6
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(4)
	by := float32((g.height-hudPanelHeight)/hudScale) - boxH - 4

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 10, G: 9, B: 7, A: 210}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 100, G: 86, B: 60, A: 180}, false)
	vector.StrokeLine(g.hudBuf, bx+1, by+1, bx+boxW-1, by+1, 1.0, color.RGBA{R: 140, G: 120, B: 80, A: 80}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}

// drawPerfOverlay renders the rolling performance summary in the top-right
// corner.
func (g *Game) drawPerfOverlay(screen *ebiten.Image) {
	lines := strings.Split(strings.TrimRight(g.sim.GetPerformanceSummary().Format(), "\n"), "\n")

	const lineH = 12
	const charW = 6
	const padX = 5
	const padY = 4

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bufW := float32(g.width / hudScale)
	bx := bufW - boxW - 4
	by := float32(4)

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 8, G: 10, B: 8, A: 220}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1.0, color.RGBA{R: 70, G: 110, B: 70, A: 180}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(g.hudBuf, line, int(bx)+padX, int(by)+padY+i*lineH)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(hudScale), float64(hudScale))
	screen.DrawImage(g.hudBuf, opts)
}

// drawBanner shows the level announcement and the end-of-level states.
func (g *Game) drawBanner(screen *ebiten.Image, snap *FrameSnapshot) {
	if snap == nil {
		return
	}
	midY := float64(g.offY) + float64(g.worldBuf.Bounds().Dy())/2

	switch g.sim.Outcome() {
	case OutcomeDefeat:
		g.drawCenteredText(screen, "TANK DESTROYED", midY-30, 4,
			color.RGBA{R: 235, G: 80, B: 60, A: 255})
		g.drawCenteredText(screen, fmt.Sprintf("final score %d  -  press R to restart", snap.Score),
			midY+14, 2, color.RGBA{R: 220, G: 205, B: 180, A: 255})
		return
	case OutcomeVictory:
		g.drawCenteredText(screen, "AREA CLEAR", midY-30, 4,
			color.RGBA{R: 120, G: 220, B: 110, A: 255})
		return
	}

	if g.bannerWait > 0 {
		// Fade out over the banner window.
		a := uint8(255 * float64(g.bannerWait) / float64(bannerTicks))
		g.drawCenteredText(screen, fmt.Sprintf("LEVEL %d", snap.Level), midY-60, 4,
			color.RGBA{R: 230, G: 215, B: 170, A: a})
	}
}

// drawCenteredText draws one line horizontally centred at the given screen y.
func (g *Game) drawCenteredText(screen *ebiten.Image, s string, y, scale float64, col color.RGBA) {
	w, _ := text.Measure(s, hudFace, 0)
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(g.width)/2-w*scale/2, y)
	op.ColorScale.ScaleWithColor(col)
	text.Draw(screen, s, hudFace, op)
}

// copyDebugReport snapshots the full battle report onto the system
// clipboard for pasting into a bug thread.
func (g *Game) copyDebugReport() {
	report := BuildDebugReport(g.sim)
	if err := clipboard.WriteAll(report); err != nil {
		logger.Log.Warnf("clipboard copy failed: %v", err)
		g.clipboardNote = "clipboard copy failed"
	} else {
		logger.Log.Infof("debug report copied to clipboard (%d bytes)", len(report))
		g.clipboardNote = "debug report copied"
	}
	g.clipboardWait = 120
}
