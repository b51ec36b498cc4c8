// Package droplet implements the multi-layer rain kernel: gravity-driven
// droplets that stretch with speed, hit a water surface exactly once to
// spawn staggered concentric ripples, and an ambient fog layer that never
// fully empties.
package droplet

import (
	"math"
	"math/rand"

	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
)

// Droplet falls in normalized space until it crosses the water surface.
type Droplet struct {
	X, Y          float64
	VX, VY        float64
	Size          float64
	StretchFactor float64 // >1 elongates the teardrop shape
	HitWater      bool    // one-shot; set exactly once before removal
}

// Ripple expands from a water hit. Progress may start negative to stagger
// concentric rings; it is not drawn until progress reaches 0 and dies at 1.
type Ripple struct {
	X, Y      float64
	Progress  float64
	Duration  float64
	MaxRadius float64
}

// FogPoint is a slow ambient drifter whose alpha follows remaining lifespan.
type FogPoint struct {
	X, Y        float64
	VX, VY      float64
	Size        float64
	Alpha       float64
	Lifespan    float64
	MaxLifespan float64
}

// Config tunes the kernel.
type Config struct {
	MaxDroplets int
	MaxRipples  int
	MaxFog      int
	// FogFloor is the minimum ambient fog population; regeneration is forced
	// below it so the scene never goes fully empty.
	FogFloor int

	Gravity      float64 // normalized units per second^2
	Drag         float64 // proportional velocity loss per second
	WindStrength float64
	WindFreq     float64
	// WaterLevel is the normalized Y of the water surface.
	WaterLevel float64
	// RipplesPerHit concentric rings spawn per droplet hit.
	RipplesPerHit  int
	RippleDuration float64
	RippleStagger  float64 // negative-progress offset between rings
	SpawnChance    float64
	Seed           int64
}

// DefaultConfig returns the tuning used by the sadness-style renderers.
func DefaultConfig() Config {
	return Config{
		MaxDroplets:    90,
		MaxRipples:     48,
		MaxFog:         40,
		FogFloor:       12,
		Gravity:        0.9,
		Drag:           0.4,
		WindStrength:   0.12,
		WindFreq:       0.7,
		WaterLevel:     0.82,
		RipplesPerHit:  3,
		RippleDuration: 1.4,
		RippleStagger:  0.15,
		SpawnChance:    0.3,
	}
}

// Kernel owns the droplet, ripple and fog populations. Backing arrays are
// allocated once; removal is swap-and-pop, so steady state allocates
// nothing.
type Kernel struct {
	cfg      Config
	droplets []Droplet
	ripples  []Ripple
	fog      []FogPoint
	rng      *rand.Rand
	time     float64

	// OnHit, when set, fires exactly once per droplet as it crosses the
	// water surface, before the ripple set spawns.
	OnHit func(x, y float64)
}

// NewKernel builds a kernel with pre-allocated populations.
func NewKernel(cfg Config) *Kernel {
	if cfg.MaxDroplets <= 0 {
		cfg.MaxDroplets = 90
	}
	if cfg.MaxRipples <= 0 {
		cfg.MaxRipples = 48
	}
	if cfg.MaxFog <= 0 {
		cfg.MaxFog = 40
	}
	if cfg.FogFloor < 0 {
		cfg.FogFloor = 0
	}
	if cfg.FogFloor > cfg.MaxFog {
		cfg.FogFloor = cfg.MaxFog
	}
	if cfg.RipplesPerHit <= 0 {
		cfg.RipplesPerHit = 3
	}
	if cfg.RippleDuration <= 0 {
		cfg.RippleDuration = 1.4
	}
	if cfg.WaterLevel <= 0 || cfg.WaterLevel > 1 {
		cfg.WaterLevel = 0.82
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Kernel{
		cfg:      cfg,
		droplets: make([]Droplet, 0, cfg.MaxDroplets),
		ripples:  make([]Ripple, 0, cfg.MaxRipples),
		fog:      make([]FogPoint, 0, cfg.MaxFog),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Droplets returns the live droplets, valid until the next mutation.
func (k *Kernel) Droplets() []Droplet { return k.droplets }

// Ripples returns the live ripples.
func (k *Kernel) Ripples() []Ripple { return k.ripples }

// FogPoints returns the ambient fog layer.
func (k *Kernel) FogPoints() []FogPoint { return k.fog }

// WaterLevel returns the configured normalized water surface height.
func (k *Kernel) WaterLevel() float64 { return k.cfg.WaterLevel }

// Generate spawns droplets from energetic bins along the top edge. At the
// cap spawns are dropped.
func (k *Kernel) Generate(spectrum []float64, f feature.Features, p params.Spectrum) {
	n := len(spectrum)
	if n == 0 {
		return
	}
	boost := 1 + 0.6*float64(f.RhythmTier)
	for i, magnitude := range spectrum {
		if magnitude <= p.MinThreshold {
			continue
		}
		if len(k.droplets) >= k.cfg.MaxDroplets {
			return
		}
		if k.rng.Float64() >= k.cfg.SpawnChance*magnitude*boost {
			continue
		}
		k.droplets = append(k.droplets, Droplet{
			X:             (float64(i) + 0.5) / float64(n),
			Y:             -0.05 + k.rng.Float64()*0.05,
			VX:            (k.rng.Float64() - 0.5) * 0.05,
			VY:            0.05 + magnitude*0.2,
			Size:          2 + magnitude*5,
			StretchFactor: 1,
		})
	}
}

// Update advances all three populations by dt seconds.
func (k *Kernel) Update(dt float64, rhythm *feature.Rhythm, p params.Spectrum) {
	k.time += dt
	pulseMult := 1 + rhythm.State().Pulse*0.5

	for i := 0; i < len(k.droplets); {
		d := &k.droplets[i]

		d.VY += k.cfg.Gravity * dt
		keep := 1 - math.Min(1, k.cfg.Drag*dt)
		d.VX *= keep
		d.VY *= keep
		d.VX += math.Sin(k.time*k.cfg.WindFreq+d.Y*4) * k.cfg.WindStrength * dt

		d.X += d.VX * dt * pulseMult
		d.Y += d.VY * dt * pulseMult

		speed := math.Hypot(d.VX, d.VY)
		d.StretchFactor = 1 + speed*2.5

		if d.Y >= k.cfg.WaterLevel {
			d.HitWater = true
			if k.OnHit != nil {
				k.OnHit(d.X, k.cfg.WaterLevel)
			}
			k.spawnRippleSet(d.X)
			k.removeDroplet(i)
			continue
		}
		if d.X < -0.1 || d.X > 1.1 || d.Y < -0.2 {
			k.removeDroplet(i)
			continue
		}
		i++
	}

	for i := 0; i < len(k.ripples); {
		r := &k.ripples[i]
		r.Progress += dt / r.Duration
		if r.Progress >= 1 {
			k.removeRipple(i)
			continue
		}
		i++
	}

	k.updateFog(dt)
}

// spawnRippleSet adds the configured concentric rings with staggered
// negative starting progress, dropping rings past the cap.
func (k *Kernel) spawnRippleSet(x float64) {
	for i := 0; i < k.cfg.RipplesPerHit; i++ {
		if len(k.ripples) >= k.cfg.MaxRipples {
			return
		}
		k.ripples = append(k.ripples, Ripple{
			X:         x,
			Y:         k.cfg.WaterLevel,
			Progress:  -k.cfg.RippleStagger * float64(i),
			Duration:  k.cfg.RippleDuration,
			MaxRadius: 0.06 + k.rng.Float64()*0.05,
		})
	}
}

// updateFog drifts the ambient layer and force-regenerates below the floor.
func (k *Kernel) updateFog(dt float64) {
	for i := 0; i < len(k.fog); {
		f := &k.fog[i]
		f.Lifespan -= dt
		if f.Lifespan <= 0 {
			k.removeFog(i)
			continue
		}
		f.X += f.VX * dt
		f.Y += f.VY * dt
		if f.X < -0.1 {
			f.X = 1.1
		}
		if f.X > 1.1 {
			f.X = -0.1
		}
		f.Alpha = f.Lifespan / f.MaxLifespan
		i++
	}
	for len(k.fog) < k.cfg.FogFloor {
		k.spawnFog()
	}
}

func (k *Kernel) spawnFog() {
	life := 4 + k.rng.Float64()*6
	k.fog = append(k.fog, FogPoint{
		X:           k.rng.Float64(),
		Y:           k.cfg.WaterLevel - 0.25 + k.rng.Float64()*0.2,
		VX:          (k.rng.Float64() - 0.5) * 0.03,
		VY:          (k.rng.Float64() - 0.5) * 0.008,
		Size:        8 + k.rng.Float64()*14,
		Alpha:       1,
		Lifespan:    life,
		MaxLifespan: life,
	})
}

func (k *Kernel) removeDroplet(i int) {
	last := len(k.droplets) - 1
	k.droplets[i] = k.droplets[last]
	k.droplets = k.droplets[:last]
}

func (k *Kernel) removeRipple(i int) {
	last := len(k.ripples) - 1
	k.ripples[i] = k.ripples[last]
	k.ripples = k.ripples[:last]
}

func (k *Kernel) removeFog(i int) {
	last := len(k.fog) - 1
	k.fog[i] = k.fog[last]
	k.fog = k.fog[:last]
}
