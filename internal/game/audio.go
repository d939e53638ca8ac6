package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const audioSampleRate beep.SampleRate = 44100

// SoundPlayer is the audio surface the shell drives. One call per event
// type per tick, however many events that tick produced.
type SoundPlayer interface {
	PlayShot()
	PlayImpact()
	PlayExplosion()
	PlayDestruction()
}

// NoopPlayer mutes everything. Headless runs and tests use it.
type NoopPlayer struct{}

func (NoopPlayer) PlayShot()        {}
func (NoopPlayer) PlayImpact()      {}
func (NoopPlayer) PlayExplosion()   {}
func (NoopPlayer) PlayDestruction() {}

// BeepPlayer synthesizes every effect at runtime, so there are no asset
// files to ship or load.
type BeepPlayer struct {
	rng *rand.Rand
}

// NewBeepPlayer initialises the speaker. A failed init (no audio device,
// CI container) is returned to the caller, who falls back to NoopPlayer.
func NewBeepPlayer() (*BeepPlayer, error) {
	if err := speaker.Init(audioSampleRate, audioSampleRate.N(50*time.Millisecond)); err != nil {
		return nil, err
	}
	// #nosec G404 -- noise source for synthesized audio
	return &BeepPlayer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
}

// PlayShot is a quick high-to-mid pitch drop, like a compressed thump.
func (p *BeepPlayer) PlayShot() {
	speaker.Play(&toneSweep{
		sr: audioSampleRate, fromHz: 660, toHz: 180,
		dur: audioSampleRate.N(70 * time.Millisecond), gain: 0.30,
	})
}

// PlayImpact is a short metallic noise tick.
func (p *BeepPlayer) PlayImpact() {
	speaker.Play(&noiseBurst{
		sr: audioSampleRate, seed: p.rng.Int63(),
		dur: audioSampleRate.N(45 * time.Millisecond), gain: 0.22, smooth: 0.35,
	})
}

// PlayExplosion layers a low sine rumble under a long smoothed noise tail.
func (p *BeepPlayer) PlayExplosion() {
	speaker.Play(beep.Mix(
		&toneSweep{
			sr: audioSampleRate, fromHz: 110, toHz: 40,
			dur: audioSampleRate.N(420 * time.Millisecond), gain: 0.35,
		},
		&noiseBurst{
			sr: audioSampleRate, seed: p.rng.Int63(),
			dur: audioSampleRate.N(380 * time.Millisecond), gain: 0.28, smooth: 0.85,
		},
	))
}

// PlayDestruction is a mid-band crunch for collapsing obstacles.
func (p *BeepPlayer) PlayDestruction() {
	speaker.Play(&noiseBurst{
		sr: audioSampleRate, seed: p.rng.Int63(),
		dur: audioSampleRate.N(140 * time.Millisecond), gain: 0.25, smooth: 0.6,
	})
}

// toneSweep streams a sine sweep from fromHz to toHz with an exponential
// decay envelope.
type toneSweep struct {
	sr     beep.SampleRate
	fromHz float64
	toHz   float64
	dur    int
	gain   float64

	pos   int
	phase float64
}

func (t *toneSweep) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.dur {
		return 0, false
	}
	n := 0
	for i := range samples {
		if t.pos >= t.dur {
			break
		}
		prog := float64(t.pos) / float64(t.dur)
		hz := t.fromHz + (t.toHz-t.fromHz)*prog
		t.phase += hz / float64(t.sr)
		env := math.Exp(-4 * prog)
		v := math.Sin(2*math.Pi*t.phase) * env * t.gain
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
		n++
	}
	return n, true
}

func (t *toneSweep) Err() error { return nil }

// noiseBurst streams white noise through a one-pole smoother, which turns
// hiss into rumble as smooth approaches 1.
type noiseBurst struct {
	sr     beep.SampleRate
	seed   int64
	dur    int
	gain   float64
	smooth float64

	pos  int
	rng  *rand.Rand
	prev float64
}

func (b *noiseBurst) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= b.dur {
		return 0, false
	}
	if b.rng == nil {
		// #nosec G404 -- noise source for synthesized audio
		b.rng = rand.New(rand.NewSource(b.seed))
	}
	n := 0
	for i := range samples {
		if b.pos >= b.dur {
			break
		}
		prog := float64(b.pos) / float64(b.dur)
		raw := b.rng.Float64()*2 - 1
		b.prev = b.prev*b.smooth + raw*(1-b.smooth)
		env := math.Exp(-3.5 * prog)
		v := b.prev * env * b.gain
		samples[i][0] = v
		samples[i][1] = v
		b.pos++
		n++
	}
	return n, true
}

func (b *noiseBurst) Err() error { return nil }
