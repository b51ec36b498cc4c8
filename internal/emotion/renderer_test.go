package emotion

import (
	"testing"

	"github.com/lumisonic/lumisonic/internal/canvas"
	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
)

const frameDT = 1.0 / 60.0

func seededRenderer(e Emotion) *Renderer {
	return New(Config{Emotion: e, SampleRate: 44_100, Seed: 1})
}

func flatFrame(size int, value float64) []float64 {
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

func TestSilenceStaysCalm(t *testing.T) {
	r := seededRenderer(Joy)
	p := params.Defaults()
	silence := flatFrame(64, 0)

	for i := 0; i < 120; i++ {
		f := r.Process(silence, frameDT, p)
		if f.RhythmTier != feature.TierNone {
			t.Fatalf("frame %d: silence classified as tier %d", i, f.RhythmTier)
		}
	}
	if n := r.ParticleCount(); n != 0 {
		t.Fatalf("silence spawned %d particles", n)
	}
}

func TestImpulseFiresBurstAndField(t *testing.T) {
	r := seededRenderer(Joy)
	p := params.Defaults()
	silence := flatFrame(64, 0)
	loud := flatFrame(64, 0.9)

	for i := 0; i < 60; i++ {
		r.Process(silence, frameDT, p)
	}
	f := r.Process(loud, frameDT, p)

	if f.RhythmTier != feature.TierHeavy {
		t.Fatalf("impulse classified as tier %d, want %d", f.RhythmTier, feature.TierHeavy)
	}
	if n := r.ParticleCount(); n < 40 {
		t.Fatalf("heavy impulse spawned only %d particles", n)
	}
	if r.resp.FieldStrength <= 0 {
		t.Fatalf("heavy impulse left the force field idle")
	}
	if r.particles.FieldCount() == 0 {
		t.Fatalf("heavy impulse spawned no transient field")
	}
}

func TestRenderedHuesStayInBand(t *testing.T) {
	p := params.Defaults()
	loud := flatFrame(64, 0.8)

	for _, e := range []Emotion{Anger, Anticipation, Joy, Disgust, Trust, Sadness, Surprise} {
		r := seededRenderer(e)
		for i := 0; i < 90; i++ {
			r.Process(loud, frameDT, p)
		}

		img := canvas.NewImage(160, 120)
		r.Render(img, p)

		band := e.HueBand()
		checked := 0
		for y := 0; y < img.H; y++ {
			for x := 0; x < img.W; x++ {
				h, s, v := img.At(x, y).ToHSV()
				if s < 0.3 || v < 0.25 {
					continue // background and faded pixels carry no reliable hue
				}
				checked++
				if !band.Contains(h) {
					t.Fatalf("%s: pixel (%d,%d) hue %.2f escapes band [%.1f, %.1f]",
						e, x, y, h, band.Min, band.Max)
				}
			}
		}
		if checked == 0 {
			t.Fatalf("%s: rendered nothing saturated enough to check", e)
		}
	}
}

func TestBarsRenderAndPeakHold(t *testing.T) {
	r := seededRenderer(Bars)
	p := params.Defaults()

	frame := make([]float64, 8)
	frame[0] = 0.9
	for i := 0; i < 60; i++ {
		r.Process(frame, frameDT, p)
	}
	peakBefore := r.peaks[0]

	// The signal drops; the peak marker falls no faster than FallSpeed.
	r.Process(make([]float64, 8), frameDT, p)
	fell := peakBefore - r.peaks[0]
	if fell <= 0 {
		t.Fatalf("peak did not fall after the signal dropped")
	}
	if maxFall := p.FallSpeed*frameDT + 1e-9; fell > maxFall {
		t.Fatalf("peak fell %f in one frame, more than fall speed allows (%f)", fell, maxFall)
	}

	img := canvas.NewImage(120, 120)
	r.Render(img, p)
	if countBright(img) == 0 {
		t.Fatalf("bars renderer painted nothing")
	}
}

func TestOrientationTransposesLayout(t *testing.T) {
	p := params.Defaults()

	frame := make([]float64, 8)
	frame[0] = 0.9

	render := func(mode params.DisplayMode) *canvas.Image {
		r := seededRenderer(Bars)
		q := p
		q.Mode = mode
		for i := 0; i < 60; i++ {
			r.Process(frame, frameDT, q)
		}
		img := canvas.NewImage(120, 120)
		r.Render(img, q)
		return img
	}

	tb := render(params.DisplayTopBottom)
	sd := render(params.DisplaySides)

	// Only bin 0 is hot: top-bottom puts its bar in the leftmost eighth of
	// the surface, sides transposes it into the topmost eighth.
	if n := countBrightIn(tb, 0, 0, 15, 120); n == 0 {
		t.Fatalf("top-bottom mode painted nothing in the first bar slot")
	}
	if n := countBrightIn(tb, 30, 0, 120, 120); n != 0 {
		t.Fatalf("top-bottom mode painted %d pixels outside the only hot bar", n)
	}
	if n := countBrightIn(sd, 0, 0, 120, 15); n == 0 {
		t.Fatalf("sides mode painted nothing in the transposed bar slot")
	}
	if n := countBrightIn(sd, 0, 30, 120, 120); n != 0 {
		t.Fatalf("sides mode painted %d pixels outside the transposed bar", n)
	}
}

func TestRainHitsLightTheWave(t *testing.T) {
	r := seededRenderer(Sadness)
	p := params.Defaults()
	loud := flatFrame(64, 0.9)

	lit := false
	for i := 0; i < 60*10 && !lit; i++ {
		r.Process(loud, frameDT, p)
		for _, pt := range r.wave.Points() {
			if pt.PulseIntensity > 0.01 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Fatalf("ten loud seconds produced no droplet-driven wave pulse")
	}
}

func TestRenderBeforeProcessIsSafe(t *testing.T) {
	p := params.Defaults()
	for _, e := range All() {
		img := canvas.NewImage(64, 48)
		seededRenderer(e).Render(img, p)
	}
}

func countBright(img *canvas.Image) int {
	return countBrightIn(img, 0, 0, img.W, img.H)
}

func countBrightIn(img *canvas.Image, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1 && y < img.H; y++ {
		for x := x0; x < x1 && x < img.W; x++ {
			if _, _, v := img.At(x, y).ToHSV(); v > 0.3 {
				n++
			}
		}
	}
	return n
}
