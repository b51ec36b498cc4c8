package emotion

import (
	"math"

	"github.com/lumisonic/lumisonic/internal/canvas"
	"github.com/lumisonic/lumisonic/internal/droplet"
	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
	"github.com/lumisonic/lumisonic/internal/particle"
	"github.com/lumisonic/lumisonic/internal/wave"
)

// Config creates a Renderer.
type Config struct {
	Emotion Emotion
	// SampleRate of the audio the spectra come from; used for Mel weighting.
	SampleRate float64
	// Seed makes every kernel deterministic. Zero picks arbitrary streams.
	Seed int64
}

// Renderer drives one emotion variant: it extracts features from spectrum
// frames, advances the variant's kernels, and paints the result. Process and
// Render are split so a frame can be simulated once and presented on any
// surface.
type Renderer struct {
	emotion Emotion
	comp    composition

	extractor *feature.Extractor
	rhythm    *feature.Rhythm
	particles *particle.Kernel
	wave      *wave.Kernel
	droplets  *droplet.Kernel
	colors    *ColorMapper

	smoothed []float64
	feats    feature.Features
	resp     feature.Response
	peaks    []float64 // bars-mode peak hold
}

// New builds the renderer for the configured emotion.
func New(cfg Config) *Renderer {
	comp := compositionFor(cfg.Emotion, cfg.Seed)

	rcfg := feature.DefaultRhythmConfig()
	rcfg.Seed = cfg.Seed

	r := &Renderer{
		emotion:   cfg.Emotion,
		comp:      comp,
		extractor: feature.NewExtractor(feature.Config{SampleRate: cfg.SampleRate}),
		rhythm:    feature.NewRhythm(rcfg),
		colors:    NewColorMapper(cfg.Emotion.HueBand()),
	}
	if comp.particleCfg != nil {
		r.particles = particle.NewKernel(*comp.particleCfg)
	}
	if comp.waveCfg != nil {
		r.wave = wave.NewKernel(*comp.waveCfg)
	}
	if comp.dropletCfg != nil {
		r.droplets = droplet.NewKernel(*comp.dropletCfg)
	}
	// Rain striking the surface lights up the waveform where it lands.
	if r.droplets != nil && r.wave != nil {
		r.droplets.OnHit = func(x, _ float64) {
			r.wave.TriggerPulse(x, 0.6)
		}
	}
	return r
}

// Emotion returns the variant this renderer draws.
func (r *Renderer) Emotion() Emotion { return r.emotion }

// Features returns the features of the most recent frame.
func (r *Renderer) Features() feature.Features { return r.feats }

// ParticleCount returns the live particle population, zero for variants
// without a particle kernel.
func (r *Renderer) ParticleCount() int {
	if r.particles == nil {
		return 0
	}
	return r.particles.Len()
}

// Process advances the simulation by one spectrum frame of dt seconds.
func (r *Renderer) Process(frame []float64, dt float64, p params.Spectrum) feature.Features {
	smoothed, f := r.extractor.ProcessFrame(frame, dt, p)
	resp := r.rhythm.Update(dt, f)

	burstX := 0.5
	if len(smoothed) > 0 {
		burstX = (float64(f.DominantBin) + 0.5) / float64(len(smoothed))
	}

	if r.particles != nil {
		r.particles.Generate(smoothed, f, p)
		if f.RhythmTier > feature.TierNone {
			r.particles.GenerateBurst(burstX, 0.5, f.TotalEnergy, f.VolumeChange, f.RhythmTier)
		}
		if f.RhythmTier >= feature.TierMedium {
			strength := 0.25*float64(f.RhythmTier) + resp.FieldStrength
			duration := 0.6 + 0.2*float64(f.RhythmTier)
			r.particles.SpawnField(r.comp.burstField, burstX, 0.5, r.comp.fieldRadius, strength, duration)
		}
		r.particles.Update(dt, r.rhythm, p)
	}

	if r.wave != nil {
		low, mid, high := feature.BandEnergies(smoothed)
		r.wave.Update(dt, low, mid, high, resp.Pulse+f.Volume)
		if f.RhythmTier >= feature.TierMedium {
			r.wave.TriggerPulse(burstX, clamp(f.VolumeChange*4, 0, 1))
		}
	}

	if r.droplets != nil {
		r.droplets.Generate(smoothed, f, p)
		r.droplets.Update(dt, r.rhythm, p)
	}

	if r.comp.bars {
		r.updatePeaks(smoothed, dt, p)
	}

	r.smoothed = smoothed
	r.feats = f
	r.resp = resp
	return f
}

// updatePeaks tracks a falling peak marker per bar. The fall speed comes
// straight from the shared parameters, floored at the minimum.
func (r *Renderer) updatePeaks(smoothed []float64, dt float64, p params.Spectrum) {
	if len(r.peaks) != len(smoothed) {
		r.peaks = make([]float64, len(smoothed))
	}
	fall := math.Max(p.FallSpeed, p.MinFallSpeed)
	for i, v := range smoothed {
		r.peaks[i] -= fall * dt
		if v > r.peaks[i] {
			r.peaks[i] = v
		}
		if r.peaks[i] < 0 {
			r.peaks[i] = 0
		}
	}
}

// Render paints the most recently processed frame.
func (r *Renderer) Render(dst canvas.Canvas, p params.Spectrum) {
	w, h := dst.Size()
	m := canvas.NewMapper(w, h, p.Mode == params.DisplaySides)

	top, bottom := r.backgroundColors()
	dst.Clear(top)
	dst.VerticalGradient(0, 0, float64(w), float64(h), top, bottom)

	if r.comp.bars {
		r.renderBars(dst, m)
		return
	}
	if r.droplets != nil {
		r.renderWater(dst, m)
	}
	if r.wave != nil {
		r.renderWave(dst, m)
	}
	if r.droplets != nil {
		r.renderDroplets(dst, m)
	}
	if r.particles != nil {
		r.renderParticles(dst, m)
	}
}

func (r *Renderer) backgroundColors() (top, bottom canvas.Color) {
	b := r.colors.Band()
	if b.Min == 0 && b.Max == 0 {
		return canvas.Color{R: 8, G: 8, B: 12, A: 255}, canvas.Color{R: 18, G: 18, B: 28, A: 255}
	}
	mid := (b.Min + b.Max) / 2
	return canvas.FromHSV(mid, 0.6, 0.04, 1), canvas.FromHSV(mid, 0.5, 0.1, 1)
}

func (r *Renderer) renderBars(dst canvas.Canvas, m canvas.Mapper) {
	n := len(r.smoothed)
	if n == 0 {
		return
	}
	slot := 1.0 / float64(n)
	for i, v := range r.smoothed {
		x0 := float64(i) * slot
		x1 := x0 + slot*0.82
		height := clamp(v, 0, 1) * 0.85

		progress := float64(i) / float64(n)
		c := r.colors.MapProgress(progress, 0.3+0.7*clamp(v, 0, 1))
		dst.FillPath([]canvas.Point{
			m.Pt(x0, 1),
			m.Pt(x1, 1),
			m.Pt(x1, 1-height),
			m.Pt(x0, 1-height),
		}, c)

		if peak := r.peaks[i] * 0.85; peak > 0.004 {
			pc := r.colors.MapProgress(progress, 1)
			a := m.Pt(x0, 1-peak)
			b := m.Pt(x1, 1-peak)
			dst.Line(a.X, a.Y, b.X, b.Y, 2, pc)
		}
	}
}

func (r *Renderer) renderWave(dst canvas.Canvas, m canvas.Mapper) {
	baseline := r.comp.waveBaseline
	if baseline <= 0 {
		baseline = 0.5
	}
	intensity := clamp(0.4+r.feats.Volume, 0, 1)
	c := r.colors.MapProgress(0.5, intensity)
	width := 2 + r.resp.Pulse*2
	r.wave.Draw(dst, m, baseline, width, c)

	// Pulsing nodes glow where rhythm or rain recently landed.
	pts := r.wave.Points()
	n := len(pts)
	for i := range pts {
		pi := pts[i].PulseIntensity
		if pi < 0.05 {
			continue
		}
		pos := float64(i) / float64(n-1)
		center := m.Pt(pos, baseline+pts[i].Offset)
		radius := m.MinScale(0.008) * (1 + clamp(pi, 0, 2))
		inner, outer := r.colors.GradientStops(pos, clamp(pi, 0, 1))
		dst.RadialGradient(center.X, center.Y, radius*2.5, inner, outer)
	}
}

func (r *Renderer) renderWater(dst canvas.Canvas, m canvas.Mapper) {
	wl := r.droplets.WaterLevel()
	a := m.Pt(0, wl)
	b := m.Pt(1, wl)
	dst.Line(a.X, a.Y, b.X, b.Y, 1.5, r.colors.MapProgress(0.3, 0.35).WithAlpha(0.5))

	for _, f := range r.droplets.FogPoints() {
		center := m.Pt(f.X, f.Y)
		inner, outer := r.colors.GradientStops(0.4, 0.3)
		dst.RadialGradient(center.X, center.Y, f.Size, inner.WithAlpha(0.18*f.Alpha), outer)
	}
}

func (r *Renderer) renderDroplets(dst canvas.Canvas, m canvas.Mapper) {
	for _, d := range r.droplets.Droplets() {
		head := m.Pt(d.X, d.Y)
		speed := math.Hypot(d.VX, d.VY)
		c := r.colors.MapProgress(d.X, clamp(0.5+speed, 0, 1))
		if speed < 1e-6 {
			dst.FillCircle(head.X, head.Y, d.Size/2, c)
			continue
		}
		// Teardrop: a line trailing opposite the velocity, elongated by the
		// stretch factor.
		length := d.Size * d.StretchFactor
		tail := canvas.Point{
			X: head.X - d.VX/speed*length,
			Y: head.Y - d.VY/speed*length,
		}
		dst.Line(tail.X, tail.Y, head.X, head.Y, d.Size*0.6, c)
	}

	for _, rp := range r.droplets.Ripples() {
		if rp.Progress < 0 {
			continue // staggered ring not born yet
		}
		center := m.Pt(rp.X, rp.Y)
		radius := m.MinScale(rp.MaxRadius * rp.Progress)
		c := r.colors.MapProgress(rp.X, 0.6).WithAlpha(1 - rp.Progress)
		dst.StrokeCircle(center.X, center.Y, radius, 1.5, c)
	}
}

func (r *Renderer) renderParticles(dst canvas.Canvas, m canvas.Mapper) {
	for _, pt := range r.particles.Particles() {
		center := m.Pt(pt.X, pt.Y)
		intensity := clamp(pt.Alpha, 0, 1)
		c := r.colors.MapProgress(pt.X, intensity).WithAlpha(pt.Alpha)

		switch pt.Kind {
		case particle.KindGlow:
			inner, outer := r.colors.GradientStops(pt.X, intensity)
			dst.RadialGradient(center.X, center.Y, pt.Size*2, inner.WithAlpha(pt.Alpha), outer)
		case particle.KindTrail:
			speed := math.Hypot(pt.VX, pt.VY)
			if speed < 1e-6 {
				dst.FillCircle(center.X, center.Y, pt.Size/2, c)
				break
			}
			length := pt.Size * 2.5
			tail := canvas.Point{
				X: center.X - pt.VX/speed*length,
				Y: center.Y - pt.VY/speed*length,
			}
			dst.Line(tail.X, tail.Y, center.X, center.Y, pt.Size*0.5, c)
		case particle.KindVocal:
			inner, outer := r.colors.GradientStops(pt.X, 1)
			dst.RadialGradient(center.X, center.Y, pt.Size*2.5, inner.WithAlpha(pt.Alpha), outer)
			dst.FillCircle(center.X, center.Y, pt.Size/2, c)
		case particle.KindShockwave:
			grow := 1 - clamp(pt.Lifespan/pt.MaxLifespan, 0, 1)
			radius := pt.Size * (0.5 + grow*3)
			dst.StrokeCircle(center.X, center.Y, radius, 2, c)
		default:
			dst.FillCircle(center.X, center.Y, pt.Size/2, c)
		}
	}
}
