package game

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// --- Effect constants ---

const (
	muzzleFlashLifetime = 5  // ticks a muzzle flash persists
	impactSparkLifetime = 8  // ticks an impact spark persists
	blastRingLifetime   = 20 // ticks an explosion ring takes to expand and fade
)

// MuzzleFlash is a short burst at a barrel tip, oriented along the shot.
type MuzzleFlash struct {
	x, y  float64
	angle float64 // heading in degrees, same convention as the hulls
	age   int
}

// ImpactSpark marks a projectile hit, wall and armor alike.
type ImpactSpark struct {
	x, y float64
	hot  bool // destructible or hull hits flare brighter than wall pings
	age  int
}

// BlastRing is an expanding circle that grows to the blast radius and fades.
type BlastRing struct {
	x, y   float64
	radius float64
	age    int
}

// EffectSystem owns every transient visual. It consumes the simulation's
// per-tick event sinks and renders from its own state, so the sim never
// learns the renderer exists.
type EffectSystem struct {
	flashes []*MuzzleFlash
	sparks  []*ImpactSpark
	rings   []*BlastRing
}

func NewEffectSystem() *EffectSystem {
	return &EffectSystem{}
}

// IngestTick converts one tick's worth of simulation events into effects.
// Call it after Sim.Tick and before the next one, while the sinks are live.
func (fx *EffectSystem) IngestTick(s *Sim) {
	for _, f := range s.Fired {
		fx.flashes = append(fx.flashes, &MuzzleFlash{x: f.X, y: f.Y, angle: f.HeadingDeg})
	}
	for _, h := range s.Resolver.Hits {
		fx.sparks = append(fx.sparks, &ImpactSpark{x: h.X, y: h.Y, hot: h.Kind != HitWall})
	}
	for _, ev := range s.Resolver.Explosions {
		fx.rings = append(fx.rings, &BlastRing{x: ev.X, y: ev.Y, radius: ev.Radius})
	}
}

// Update ages and prunes every effect.
func (fx *EffectSystem) Update() {
	keptF := fx.flashes[:0]
	for _, f := range fx.flashes {
		f.age++
		if f.age < muzzleFlashLifetime {
			keptF = append(keptF, f)
		}
	}
	fx.flashes = keptF

	keptS := fx.sparks[:0]
	for _, sp := range fx.sparks {
		sp.age++
		if sp.age < impactSparkLifetime {
			keptS = append(keptS, sp)
		}
	}
	fx.sparks = keptS

	keptR := fx.rings[:0]
	for _, r := range fx.rings {
		r.age++
		if r.age < blastRingLifetime {
			keptR = append(keptR, r)
		}
	}
	fx.rings = keptR
}

// Clear drops everything, used on level transitions.
func (fx *EffectSystem) Clear() {
	fx.flashes = fx.flashes[:0]
	fx.sparks = fx.sparks[:0]
	fx.rings = fx.rings[:0]
}

// Draw renders all live effects, offset by (offX, offY).
func (fx *EffectSystem) Draw(screen *ebiten.Image, offX, offY int) {
	ox, oy := float32(offX), float32(offY)

	for _, r := range fx.rings {
		progress := float64(r.age) / float64(blastRingLifetime)
		if progress > 1.0 {
			continue
		}
		// Radius eases out fast then coasts; alpha fades linearly.
		reach := float32(r.radius * math.Sqrt(progress))
		a := uint8(200 * (1.0 - progress))
		vector.StrokeCircle(screen, ox+float32(r.x), oy+float32(r.y), reach, 3,
			color.RGBA{R: 255, G: 160, B: 40, A: a}, false)
		// Hot core on the first few ticks.
		if r.age < 4 {
			vector.FillCircle(screen, ox+float32(r.x), oy+float32(r.y), reach*0.5,
				color.RGBA{R: 255, G: 230, B: 150, A: uint8(160 - 30*r.age)}, false)
		}
	}

	for _, sp := range fx.sparks {
		progress := float64(sp.age) / float64(impactSparkLifetime)
		a := uint8(220 * (1.0 - progress))
		size := float32(3.0 * (1.0 - progress*0.5))
		c := color.RGBA{R: 200, G: 200, B: 200, A: a}
		if sp.hot {
			c = color.RGBA{R: 255, G: 220, B: 120, A: a}
		}
		vector.FillCircle(screen, ox+float32(sp.x), oy+float32(sp.y), size, c, false)
	}

	for _, f := range fx.flashes {
		progress := float64(f.age) / float64(muzzleFlashLifetime)
		a := uint8(240 * (1.0 - progress))
		dx, dy := headingVec(f.angle)
		cx := ox + float32(f.x)
		cy := oy + float32(f.y)
		// Bright core plus a short jet along the firing direction.
		vector.FillCircle(screen, cx, cy, 3.5, color.RGBA{R: 255, G: 240, B: 180, A: a}, false)
		vector.StrokeLine(screen, cx, cy,
			cx+float32(dx*9), cy+float32(dy*9), 2,
			color.RGBA{R: 255, G: 200, B: 100, A: a}, false)
	}
}
