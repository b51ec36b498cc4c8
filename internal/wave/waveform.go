// Package wave implements the control-point waveform kernel: a row of
// smoothed sample points distorted by band energies and Perlin turbulence,
// rendered as a C1-continuous quadratic Bezier curve.
package wave

import (
	"math"
	"math/rand"

	"github.com/lumisonic/lumisonic/internal/canvas"
	"github.com/lumisonic/lumisonic/internal/noise"
)

// MaxControlPoints caps the mesh resolution regardless of configuration.
const MaxControlPoints = 256

// ControlPoint holds the independently smoothed sub-terms of one sample
// along the waveform. Every term converges toward its own target so a band
// spike never causes a discontinuous jump.
type ControlPoint struct {
	base, baseTarget             float64
	turbulence, turbulenceTarget float64
	viscosity, viscosityTarget   float64
	corrosion, corrosionTarget   float64
	blob, blobTarget             float64

	// PulseIntensity decays multiplicatively and is boosted by nearby pulse
	// events; node-style renderers scale glow by it.
	PulseIntensity float64

	Offset float64 // composed result, normalized units
}

// Config tunes a waveform kernel.
type Config struct {
	PointCount int
	// Amplitude is the base sine amplitude in normalized units.
	Amplitude float64
	// Frequency is the number of base wave cycles across the surface.
	Frequency float64
	// TurbulenceScale stretches the Perlin domain along the surface.
	TurbulenceScale float64
	// CorrosionThreshold is the noise magnitude above which spikes appear.
	CorrosionThreshold float64
	// Rates are the exponential-approach speeds of each sub-term per second.
	TurbulenceRate float64
	ViscosityRate  float64
	CorrosionRate  float64
	BlobRate       float64
	// PulseDecay is the multiplicative pulse decay per second.
	PulseDecay float64
	Seed       int64
}

// DefaultConfig returns the tuning shared by most wave renderers.
func DefaultConfig() Config {
	return Config{
		PointCount:         96,
		Amplitude:          0.06,
		Frequency:          2.5,
		TurbulenceScale:    3.0,
		CorrosionThreshold: 0.45,
		TurbulenceRate:     6.0,
		ViscosityRate:      1.5,
		CorrosionRate:      10.0,
		BlobRate:           2.0,
		PulseDecay:         3.0,
	}
}

// Kernel owns one waveform mesh.
type Kernel struct {
	cfg    Config
	points []ControlPoint
	phase  float64
	time   float64

	blobCenter float64
	blobVel    float64

	noise *noise.Perlin
	rng   *rand.Rand

	samples []canvas.Point // scratch for Draw
}

// NewKernel builds a waveform kernel. Seed 0 picks an arbitrary noise field.
func NewKernel(cfg Config) *Kernel {
	if cfg.PointCount < 3 {
		cfg.PointCount = 3
	}
	if cfg.PointCount > MaxControlPoints {
		cfg.PointCount = MaxControlPoints
	}
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = 0.06
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 2.5
	}
	if cfg.TurbulenceScale <= 0 {
		cfg.TurbulenceScale = 3.0
	}
	if cfg.CorrosionThreshold <= 0 {
		cfg.CorrosionThreshold = 0.45
	}
	if cfg.TurbulenceRate <= 0 {
		cfg.TurbulenceRate = 6.0
	}
	if cfg.ViscosityRate <= 0 {
		cfg.ViscosityRate = 1.5
	}
	if cfg.CorrosionRate <= 0 {
		cfg.CorrosionRate = 10.0
	}
	if cfg.BlobRate <= 0 {
		cfg.BlobRate = 2.0
	}
	if cfg.PulseDecay <= 0 {
		cfg.PulseDecay = 3.0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Kernel{
		cfg:        cfg,
		points:     make([]ControlPoint, cfg.PointCount),
		blobCenter: rng.Float64(),
		blobVel:    0.08 + rng.Float64()*0.1,
		noise:      noise.New(seed),
		rng:        rng,
	}
}

// Points exposes the mesh for rendering and tests.
func (k *Kernel) Points() []ControlPoint {
	return k.points
}

// Update advances the mesh by dt seconds. Band energies steer the sub-terms:
// low drives the slow viscosity undulation, high drives corrosion spikes,
// mid drives the migrating Gaussian blob. distortion scales turbulence.
func (k *Kernel) Update(dt, low, mid, high, distortion float64) {
	k.time += dt
	k.phase += dt * (0.8 + low*1.5)

	k.advanceBlob(dt)

	n := len(k.points)
	pulseKeep := 1 - math.Min(1, k.cfg.PulseDecay*dt)

	for i := range k.points {
		pos := float64(i) / float64(n-1)
		pt := &k.points[i]

		pt.turbulenceTarget = k.noise.At(pos*k.cfg.TurbulenceScale, k.phase*0.3, k.time*0.25) *
			k.cfg.Amplitude * 1.5 * clamp(distortion, 0, 2)

		pt.viscosityTarget = math.Sin(pos*2*math.Pi+k.time*0.4) * low * k.cfg.Amplitude

		pt.corrosionTarget = k.corrosionSpike(pos, high)

		blobDist := pos - k.blobCenter
		pt.blobTarget = math.Exp(-blobDist*blobDist/(2*0.03)) * mid * k.cfg.Amplitude * 1.2

		pt.baseTarget = math.Sin(pos*2*math.Pi*k.cfg.Frequency+k.phase) *
			k.cfg.Amplitude * (0.4 + low + mid)

		pt.base = approach(pt.base, pt.baseTarget, k.cfg.TurbulenceRate, dt)
		pt.turbulence = approach(pt.turbulence, pt.turbulenceTarget, k.cfg.TurbulenceRate, dt)
		pt.viscosity = approach(pt.viscosity, pt.viscosityTarget, k.cfg.ViscosityRate, dt)
		pt.corrosion = approach(pt.corrosion, pt.corrosionTarget, k.cfg.CorrosionRate, dt)
		pt.blob = approach(pt.blob, pt.blobTarget, k.cfg.BlobRate, dt)

		pt.PulseIntensity *= pulseKeep

		pt.Offset = pt.base + pt.turbulence + pt.viscosity + pt.corrosion + pt.blob
	}
}

// TriggerPulse boosts the pulse intensity of nodes near the given normalized
// position, with a Gaussian falloff.
func (k *Kernel) TriggerPulse(pos, strength float64) {
	if strength <= 0 {
		return
	}
	n := len(k.points)
	for i := range k.points {
		p := float64(i) / float64(n-1)
		d := p - pos
		k.points[i].PulseIntensity += strength * math.Exp(-d*d/(2*0.01))
	}
}

// Draw strokes the waveform as a smooth quadratic path around the given
// normalized baseline.
func (k *Kernel) Draw(dst canvas.Canvas, m canvas.Mapper, baseline, width float64, c canvas.Color) {
	k.samples = k.samples[:0]
	n := len(k.points)
	for i := range k.points {
		pos := float64(i) / float64(n-1)
		k.samples = append(k.samples, m.Pt(pos, baseline+k.points[i].Offset))
	}
	dst.StrokePath(canvas.SmoothPath(k.samples, 4), width, c)
}

// corrosionSpike thresholds fast noise so spikes only punch through when the
// high band is hot.
func (k *Kernel) corrosionSpike(pos, high float64) float64 {
	if high <= 0 {
		return 0
	}
	v := k.noise.At(pos*8, k.time*2, 17.3)
	threshold := k.cfg.CorrosionThreshold * (1 - high*0.5)
	mag := math.Abs(v)
	if mag <= threshold {
		return 0
	}
	sign := 1.0
	if v < 0 {
		sign = -1
	}
	return sign * (mag - threshold) * high * k.cfg.Amplitude * 3
}

// advanceBlob migrates the Gaussian bump and bounces it off the edges.
func (k *Kernel) advanceBlob(dt float64) {
	k.blobCenter += k.blobVel * dt
	if k.blobCenter > 1 {
		k.blobCenter = 1
		k.blobVel = -math.Abs(k.blobVel)
	}
	if k.blobCenter < 0 {
		k.blobCenter = 0
		k.blobVel = math.Abs(k.blobVel)
	}
}

// approach converges current toward target, clamping rate*dt so a large
// frame delta can never overshoot past the target.
func approach(current, target, rate, dt float64) float64 {
	step := rate * dt
	if step > 1 {
		step = 1
	}
	return current + (target-current)*step
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
