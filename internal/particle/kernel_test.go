package particle

import (
	"math"
	"testing"

	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
)

const frameDT = 1.0 / 60.0

func seededKernel(capacity int) *Kernel {
	cfg := DefaultConfig()
	cfg.MaxParticles = capacity
	cfg.Seed = 1
	return NewKernel(cfg)
}

func seededRhythm() *feature.Rhythm {
	cfg := feature.DefaultRhythmConfig()
	cfg.Seed = 1
	return feature.NewRhythm(cfg)
}

func hotFrame(size int) []float64 {
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = 1
	}
	return frame
}

func TestPoolSwapAndPop(t *testing.T) {
	p := NewPool(4)
	a := p.Acquire()
	b := p.Acquire()
	c := p.Acquire()
	if a == nil || b == nil || c == nil {
		t.Fatalf("pool refused acquires below cap")
	}
	if p.Len() != 3 {
		t.Fatalf("len=%d want 3", p.Len())
	}
	p.Release(0)
	if p.Len() != 2 {
		t.Fatalf("len=%d want 2 after release", p.Len())
	}
	for i, pt := range p.Active() {
		if pt.poolIndex != i {
			t.Fatalf("index handle desynced: slot %d says %d", i, pt.poolIndex)
		}
	}
	// Out-of-range releases are ignored.
	p.Release(-1)
	p.Release(99)
	if p.Len() != 2 {
		t.Fatalf("invalid release changed population")
	}
}

func TestPoolAcquireReturnsNilAtCap(t *testing.T) {
	p := NewPool(2)
	p.Acquire()
	p.Acquire()
	if p.Acquire() != nil {
		t.Fatalf("acquire past cap should return nil")
	}
}

func TestPopulationNeverExceedsCap(t *testing.T) {
	k := seededKernel(80)
	rhythm := seededRhythm()
	p := params.Defaults()
	frame := hotFrame(64)
	f := feature.Features{RhythmTier: feature.TierHeavy, Volume: 1, TotalEnergy: 1, Concentration: 0.2}

	for i := 0; i < 3000; i++ {
		k.Generate(frame, f, p)
		k.GenerateBurst(0.5, 0.5, 1, 0.3, feature.TierHeavy)
		k.Update(frameDT, rhythm, p)
		if k.Len() > k.Cap() {
			t.Fatalf("frame %d: population %d exceeded cap %d", i, k.Len(), k.Cap())
		}
	}
}

func TestSilenceDrainsPopulation(t *testing.T) {
	k := seededKernel(120)
	rhythm := seededRhythm()
	p := params.Defaults()
	k.GenerateBurst(0.5, 0.5, 1, 0.2, feature.TierHeavy)
	if k.Len() == 0 {
		t.Fatalf("burst spawned nothing")
	}

	for i := 0; i < 60*20; i++ { // 20 seconds of silence
		k.Update(frameDT, rhythm, p)
	}
	if k.Len() != 0 {
		t.Fatalf("population did not drain in silence: %d left", k.Len())
	}
}

func TestAlphaFadesTowardDeath(t *testing.T) {
	mid := fadeCurve(0.5)
	nearDeath := fadeCurve(0.01)
	if nearDeath >= mid {
		t.Fatalf("alpha near death (%f) should be below mid-life (%f)", nearDeath, mid)
	}
	// Continuity at the knee.
	if math.Abs(fadeCurve(0.7)-0.7) > 1e-9 {
		t.Fatalf("fade curve discontinuous at knee: %f", fadeCurve(0.7))
	}
	// Monotone over the whole range.
	prev := -1.0
	for f := 0.0; f <= 1.0; f += 0.01 {
		v := fadeCurve(f)
		if v < prev {
			t.Fatalf("fade curve not monotone at %f", f)
		}
		prev = v
	}
}

func TestBurstTierThreeBatchSize(t *testing.T) {
	p := params.Defaults()
	_ = p
	for trial := 0; trial < 50; trial++ {
		cfg := DefaultConfig()
		cfg.MaxParticles = 300
		cfg.Seed = int64(trial + 1)
		k := NewKernel(cfg)

		volumeChange := 0.2
		boost := int(volumeChange * 50)
		spawned := k.GenerateBurst(0.5, 0.5, 0.9, volumeChange, feature.TierHeavy)

		// Published tier-3 range plus the volume boost, plus 1-3 shockwaves.
		lo := cfg.Tiers[3].CountMin + boost + 1
		hi := cfg.Tiers[3].CountMax + boost + 3
		if spawned < lo || spawned > hi {
			t.Fatalf("trial %d: tier-3 burst spawned %d, want in [%d,%d]", trial, spawned, lo, hi)
		}
	}
}

func TestBurstTierZeroSpawnsNothing(t *testing.T) {
	k := seededKernel(100)
	if n := k.GenerateBurst(0.5, 0.5, 1, 0.5, feature.TierNone); n != 0 {
		t.Fatalf("tier 0 spawned %d", n)
	}
}

func TestBurstIncludesShockwavesAtTierThree(t *testing.T) {
	k := seededKernel(300)
	k.GenerateBurst(0.5, 0.5, 0.9, 0.2, feature.TierHeavy)
	shocks := 0
	for _, pt := range k.Particles() {
		if pt.Kind == KindShockwave {
			shocks++
		}
	}
	if shocks < 1 || shocks > 3 {
		t.Fatalf("tier-3 burst spawned %d shockwaves, want 1-3", shocks)
	}
}

func TestSpeedClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.MaxParticles = 50
	k := NewKernel(cfg)
	rhythm := seededRhythm()
	p := params.Defaults()

	k.GenerateBurst(0.5, 0.5, 1, 0.5, feature.TierHeavy)
	k.SpawnField(FieldRadial, 0.5, 0.5, 1.0, 50, 1.0)
	for i := 0; i < 30; i++ {
		k.Update(frameDT, rhythm, p)
	}
	for _, pt := range k.Particles() {
		if speed := math.Hypot(pt.VX, pt.VY); speed > cfg.SpeedLimit+1e-9 {
			t.Fatalf("speed %f exceeds limit %f", speed, cfg.SpeedLimit)
		}
	}
}

func TestOutOfMarginRecycled(t *testing.T) {
	k := seededKernel(10)
	rhythm := seededRhythm()
	p := params.Defaults()

	pt := k.pool.Acquire()
	pt.X, pt.Y = 0.5, 0.5
	pt.VX, pt.VY = 0, 0
	pt.MaxLifespan = 100
	pt.Lifespan = 100
	pt.X = 5 // force it far outside the margin
	k.Update(frameDT, rhythm, p)
	if k.Len() != 0 {
		t.Fatalf("out-of-margin particle survived")
	}
}

func TestForceFieldExpires(t *testing.T) {
	k := seededKernel(10)
	rhythm := seededRhythm()
	p := params.Defaults()
	k.SpawnField(FieldVortex, 0.5, 0.5, 0.5, 1, 0.2)
	if k.FieldCount() != 1 {
		t.Fatalf("field not registered")
	}
	for i := 0; i < 30; i++ {
		k.Update(frameDT, rhythm, p)
	}
	if k.FieldCount() != 0 {
		t.Fatalf("field outlived its duration")
	}
}

func TestFieldCapEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFields = 3
	cfg.Seed = 1
	k := NewKernel(cfg)
	for i := 0; i < 10; i++ {
		k.SpawnField(FieldPulse, 0.5, 0.5, 0.5, 1, 1)
	}
	if k.FieldCount() != 3 {
		t.Fatalf("field count %d want 3", k.FieldCount())
	}
}

func TestFieldApplyOnCenterNoNaN(t *testing.T) {
	f := ForceField{X: 0.5, Y: 0.5, Radius: 0.5, Strength: 1, Duration: 0.5, MaxDuration: 1}
	vx, vy := f.Apply(0.5, 0.5, 0, 0, frameDT)
	if math.IsNaN(vx) || math.IsNaN(vy) {
		t.Fatalf("on-center apply produced NaN")
	}
}

func TestFieldKindsBiasDifferently(t *testing.T) {
	mk := func(kind FieldKind) (float64, float64) {
		f := ForceField{X: 0.5, Y: 0.5, Radius: 1, Strength: 2, Duration: 0.7, MaxDuration: 1, Kind: kind}
		return f.Apply(0.8, 0.5, 0, 0, 0.1)
	}
	rx, ry := mk(FieldRadial)
	if rx <= 0 || math.Abs(ry) > 1e-9 {
		t.Fatalf("radial field should push straight outward, got (%f, %f)", rx, ry)
	}
	ax, _ := mk(FieldAttractor)
	if ax >= 0 {
		t.Fatalf("attractor should pull inward, got vx=%f", ax)
	}
	vx, vy := mk(FieldVortex)
	if math.Abs(vy) <= math.Abs(vx) {
		t.Fatalf("vortex should push tangentially, got (%f, %f)", vx, vy)
	}
	_, uy := mk(FieldUpward)
	if uy >= 0 {
		t.Fatalf("upward field should push toward negative y, got vy=%f", uy)
	}
}

func TestFrameRateIndependenceApproximate(t *testing.T) {
	run := func(dt float64, steps int) (meanY, meanAlpha float64, count int) {
		cfg := DefaultConfig()
		cfg.Seed = 7
		cfg.RandomWalk = 0 // keep the comparison deterministic
		cfg.MaxParticles = 300
		k := NewKernel(cfg)
		rcfg := feature.DefaultRhythmConfig()
		rcfg.Seed = 7
		rhythm := feature.NewRhythm(rcfg)
		p := params.Defaults()

		k.GenerateBurst(0.5, 0.5, 0.8, 0.2, feature.TierHeavy)
		for i := 0; i < steps; i++ {
			rhythm.Update(dt, feature.Features{})
			k.Update(dt, rhythm, p)
		}
		for _, pt := range k.Particles() {
			meanY += pt.Y
			meanAlpha += pt.Alpha
		}
		count = k.Len()
		if count > 0 {
			meanY /= float64(count)
			meanAlpha /= float64(count)
		}
		return
	}

	// Half a second keeps every particle alive at both rates, so the
	// comparison is purely about integration error.
	y60, a60, n60 := run(1.0/60, 30)
	y30, a30, n30 := run(1.0/30, 15)

	if n60 == 0 || n30 == 0 {
		t.Fatalf("burst populations empty: %d vs %d", n60, n30)
	}
	if relDiff(y60, y30) > 0.05 {
		t.Fatalf("mean Y diverged across frame rates: %f vs %f", y60, y30)
	}
	if relDiff(a60, a30) > 0.05 {
		t.Fatalf("mean alpha diverged across frame rates: %f vs %f", a60, a30)
	}
}

func relDiff(a, b float64) float64 {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}

func TestGenerateRespectsThreshold(t *testing.T) {
	k := seededKernel(100)
	p := params.Defaults()
	quiet := make([]float64, 64) // all below MinThreshold
	for i := range quiet {
		quiet[i] = p.MinThreshold / 2
	}
	k.Generate(quiet, feature.Features{Volume: 1, RhythmTier: feature.TierHeavy}, p)
	if k.Len() != 0 {
		t.Fatalf("sub-threshold bins spawned %d particles", k.Len())
	}
}

func TestGenerateShapesByFrequencyThird(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 3
	cfg.MaxParticles = 300
	cfg.SpawnChance = 1 // force every trial to succeed
	k := NewKernel(cfg)
	p := params.Defaults()
	f := feature.Features{Volume: 1, RhythmTier: feature.TierHeavy}

	k.Generate(hotFrame(30), f, p)
	if k.Len() == 0 {
		t.Fatalf("no particles spawned")
	}
	var lowSize, highSize float64
	var lows, highs int
	for _, pt := range k.Particles() {
		switch pt.Kind {
		case KindGlow:
			lowSize += pt.Size
			lows++
		case KindTrail:
			highSize += pt.Size
			highs++
		}
	}
	if lows == 0 || highs == 0 {
		t.Fatalf("expected both glow and trail particles, got %d/%d", lows, highs)
	}
	if lowSize/float64(lows) <= highSize/float64(highs) {
		t.Fatalf("low-frequency particles should be larger on average")
	}
}

func TestVocalKindOnConcentratedSpectrum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 5
	cfg.SpawnChance = 1
	cfg.MaxParticles = 300
	k := NewKernel(cfg)
	p := params.Defaults()

	frame := make([]float64, 30)
	frame[15] = 1
	f := feature.Features{Volume: 1, Concentration: 0.9, DominantBin: 15}
	k.Generate(frame, f, p)

	found := false
	for _, pt := range k.Particles() {
		if pt.Kind == KindVocal {
			found = true
		}
	}
	if !found {
		t.Fatalf("concentrated spectrum spawned no vocal particles")
	}
}
