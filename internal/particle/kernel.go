package particle

import (
	"math"
	"math/rand"

	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
)

// Particles leaving this margin around the unit square are recycled.
const (
	marginLow  = -0.1
	marginHigh = 1.1
)

// BurstTier describes one rhythm-intensity tier of radial bursts.
type BurstTier struct {
	CountMin int
	CountMax int
	Speed    float64 // normalized units per second
	Size     float64
	Lifespan float64 // seconds
	Spread   float64 // cone width in radians; narrower = more focused
}

// Config is the per-emotion tuning of a kernel.
type Config struct {
	MaxParticles int     // hard population cap, 60-300 across renderers
	SpawnChance  float64 // base Bernoulli probability per qualifying bin
	SpeedLimit   float64
	BaseLifespan float64
	BaseSize     float64 // pixels at render time
	RandomWalk   float64 // jitter magnitude, scaled by MelSensitivity
	Gravity      float64 // downward acceleration per second
	Buoyancy     float64 // upward acceleration per second
	MaxFields    int
	Tiers        [4]BurstTier
	Seed         int64
}

// DefaultConfig returns a mid-range tuning; emotion renderers override most
// fields.
func DefaultConfig() Config {
	return Config{
		MaxParticles: 150,
		SpawnChance:  0.35,
		SpeedLimit:   0.6,
		BaseLifespan: 2.2,
		BaseSize:     6,
		RandomWalk:   0.25,
		Buoyancy:     0.05,
		MaxFields:    8,
		Tiers: [4]BurstTier{
			{},
			{CountMin: 6, CountMax: 14, Speed: 0.25, Size: 4, Lifespan: 1.2, Spread: 2 * math.Pi},
			{CountMin: 18, CountMax: 32, Speed: 0.4, Size: 5, Lifespan: 1.6, Spread: math.Pi},
			{CountMin: 40, CountMax: 90, Speed: 0.6, Size: 7, Lifespan: 2.0, Spread: math.Pi / 3},
		},
	}
}

// Kernel owns one pooled particle population and its transient force fields.
type Kernel struct {
	cfg    Config
	pool   *Pool
	fields []ForceField
	rng    *rand.Rand
}

// NewKernel builds a kernel, pre-allocating its full population.
func NewKernel(cfg Config) *Kernel {
	if cfg.MaxParticles <= 0 {
		cfg.MaxParticles = 150
	}
	if cfg.SpeedLimit <= 0 {
		cfg.SpeedLimit = 0.6
	}
	if cfg.BaseLifespan <= 0 {
		cfg.BaseLifespan = 2.2
	}
	if cfg.BaseSize <= 0 {
		cfg.BaseSize = 6
	}
	if cfg.MaxFields <= 0 {
		cfg.MaxFields = 8
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Kernel{
		cfg:    cfg,
		pool:   NewPool(cfg.MaxParticles),
		fields: make([]ForceField, 0, cfg.MaxFields),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Len returns the live population.
func (k *Kernel) Len() int { return k.pool.Len() }

// Cap returns the population limit.
func (k *Kernel) Cap() int { return k.pool.Cap() }

// Particles returns the live slice, valid until the next mutation.
func (k *Kernel) Particles() []*Particle { return k.pool.Active() }

// FieldCount returns the number of live force fields.
func (k *Kernel) FieldCount() int { return len(k.fields) }

// Generate spawns particles from spectrum bins that clear the shared
// threshold. Each qualifying bin runs one Bernoulli trial whose probability
// grows with magnitude, rhythm tier and volume. At the cap the spawn is
// silently dropped.
func (k *Kernel) Generate(spectrum []float64, f feature.Features, p params.Spectrum) {
	n := len(spectrum)
	if n == 0 {
		return
	}

	rhythmBoost := 1 + 0.5*float64(f.RhythmTier)
	volumeBoost := 0.5 + f.Volume

	for i, magnitude := range spectrum {
		if magnitude <= p.MinThreshold {
			continue
		}
		chance := k.cfg.SpawnChance * magnitude * rhythmBoost * volumeBoost
		if k.rng.Float64() >= chance {
			continue
		}
		pt := k.pool.Acquire()
		if pt == nil {
			return // population at cap; drop, don't block
		}
		k.initFromBin(pt, i, n, magnitude, f, p)
	}
}

// initFromBin shapes a particle by which frequency third its bin falls in:
// low bins spawn large slow glows, high bins small fast trails.
func (k *Kernel) initFromBin(pt *Particle, bin, bins int, magnitude float64, f feature.Features, p params.Spectrum) {
	third := bins / 3
	if third < 1 {
		third = 1
	}

	sizeScale, speedScale := 1.0, 1.0
	kind := KindBasic
	switch {
	case bin < third:
		sizeScale, speedScale = 1.6, 0.4
		kind = KindGlow
	case bin >= 2*third:
		sizeScale, speedScale = 0.6, 1.5
		kind = KindTrail
	}

	// Concentrated energy near the dominant bin reads as a voice or solo
	// instrument; those particles get the solo response boost.
	if f.Concentration > 0.75 && abs(bin-f.DominantBin) <= 3 {
		kind = KindVocal
		sizeScale *= 1 + p.SoloResponseStrength*2
	}

	speed := k.cfg.SpeedLimit * speedScale * (0.3 + 0.5*magnitude)
	angle := -math.Pi/2 + (k.rng.Float64()-0.5)*math.Pi/3

	pt.X = (float64(bin) + 0.5) / float64(bins)
	pt.Y = 0.95 + k.rng.Float64()*0.05
	pt.VX = math.Cos(angle) * speed
	pt.VY = math.Sin(angle) * speed
	pt.Size = k.cfg.BaseSize * sizeScale * (0.7 + 0.6*magnitude)
	pt.Alpha = 1
	pt.MaxLifespan = k.cfg.BaseLifespan * (0.6 + 0.8*k.rng.Float64())
	pt.Lifespan = pt.MaxLifespan
	pt.Kind = kind
}

// Update integrates the population by dt seconds and recycles dead or
// out-of-margin particles.
func (k *Kernel) Update(dt float64, rhythm *feature.Rhythm, p params.Spectrum) {
	k.updateFields(dt)

	// Higher fall speed drains lifespans faster, floored by MinFallSpeed.
	fall := math.Max(p.FallSpeed, p.MinFallSpeed)
	lifeDecay := 1 + (fall-p.MinFallSpeed)*6

	pulse := rhythm.State().Pulse

	for i := 0; i < k.pool.Len(); {
		pt := k.pool.Active()[i]
		pt.Lifespan -= dt * lifeDecay
		if pt.Lifespan <= 0 {
			k.pool.Release(i)
			continue
		}

		vx, vy := pt.VX, pt.VY
		for fi := range k.fields {
			vx, vy = k.fields[fi].Apply(pt.X, pt.Y, vx, vy, dt)
		}
		vx, vy = rhythm.ApplyForceField(pt.X, pt.Y, vx, vy, dt)

		vy += (k.cfg.Gravity - k.cfg.Buoyancy) * dt
		if k.cfg.RandomWalk > 0 {
			walk := k.cfg.RandomWalk * p.MelSensitivity * dt
			vx += (k.rng.Float64()*2 - 1) * walk
			vy += (k.rng.Float64()*2 - 1) * walk
		}

		speed := math.Hypot(vx, vy)
		if speed > k.cfg.SpeedLimit && speed > 0 {
			scale := k.cfg.SpeedLimit / speed
			vx *= scale
			vy *= scale
		}

		motion := 1 + pulse*0.4
		pt.VX, pt.VY = vx, vy
		pt.X += vx * dt * motion
		pt.Y += vy * dt * motion

		if pt.X < marginLow || pt.X > marginHigh || pt.Y < marginLow || pt.Y > marginHigh {
			k.pool.Release(i)
			continue
		}

		pt.Alpha = fadeCurve(pt.Lifespan / pt.MaxLifespan)
		i++
	}
}

// fadeCurve holds alpha near the lifespan fraction through most of the life,
// then drops quadratically toward death. Continuous at the 0.7 knee.
func fadeCurve(fraction float64) float64 {
	fraction = clamp(fraction, 0, 1)
	if fraction > 0.7 {
		return fraction
	}
	return fraction * fraction / 0.7
}

// GenerateBurst spawns a radial one-shot eruption at (x, y) sized by the
// rhythm tier: higher tiers fire more, faster particles inside a narrower
// cone. Tier-3 bursts add 1-3 staggered shockwave particles faking a delayed
// secondary wave. Returns how many particles were actually spawned.
func (k *Kernel) GenerateBurst(x, y, energy, volumeChange float64, tier int) int {
	if tier <= feature.TierNone {
		return 0
	}
	if tier > feature.TierHeavy {
		tier = feature.TierHeavy
	}
	bt := k.cfg.Tiers[tier]
	if bt.CountMax < bt.CountMin {
		bt.CountMax = bt.CountMin
	}

	count := bt.CountMin
	if span := bt.CountMax - bt.CountMin; span > 0 {
		count += k.rng.Intn(span + 1)
	}
	count += int(math.Max(0, volumeChange) * 50)

	base := k.rng.Float64() * 2 * math.Pi
	spawned := 0
	for i := 0; i < count; i++ {
		pt := k.pool.Acquire()
		if pt == nil {
			break
		}
		angle := base + (k.rng.Float64()-0.5)*bt.Spread
		speed := bt.Speed * (0.6 + 0.8*k.rng.Float64()) * (0.5 + clamp(energy, 0, 1))

		pt.X = x
		pt.Y = y
		pt.VX = math.Cos(angle) * speed
		pt.VY = math.Sin(angle) * speed
		pt.Size = bt.Size * (0.7 + 0.6*k.rng.Float64())
		pt.Alpha = 1
		pt.MaxLifespan = bt.Lifespan * (0.7 + 0.6*k.rng.Float64())
		pt.Lifespan = pt.MaxLifespan
		pt.Kind = KindBasic
		spawned++
	}

	if tier == feature.TierHeavy {
		shocks := 1 + k.rng.Intn(3)
		for i := 0; i < shocks; i++ {
			pt := k.pool.Acquire()
			if pt == nil {
				break
			}
			pt.X = x
			pt.Y = y
			pt.Size = bt.Size * 3
			pt.Alpha = 1
			// Staggered lifespans fake a delayed secondary wavefront.
			pt.MaxLifespan = 0.3 + float64(i)*0.12
			pt.Lifespan = pt.MaxLifespan
			pt.Kind = KindShockwave
			spawned++
		}
	}
	return spawned
}

// SpawnField adds a transient force field, evicting the oldest when at the
// field cap.
func (k *Kernel) SpawnField(kind FieldKind, x, y, radius, strength, duration float64) {
	if duration <= 0 || radius <= 0 {
		return
	}
	if len(k.fields) >= k.cfg.MaxFields {
		copy(k.fields, k.fields[1:])
		k.fields = k.fields[:len(k.fields)-1]
	}
	k.fields = append(k.fields, ForceField{
		X: x, Y: y,
		Radius:      radius,
		Strength:    strength,
		Duration:    duration,
		MaxDuration: duration,
		Kind:        kind,
	})
}

func (k *Kernel) updateFields(dt float64) {
	live := k.fields[:0]
	for i := range k.fields {
		k.fields[i].Duration -= dt
		if k.fields[i].Alive() {
			live = append(live, k.fields[i])
		}
	}
	k.fields = live
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
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
