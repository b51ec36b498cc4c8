package feature

import (
	"math"
	"testing"
)

func seededRhythm() *Rhythm {
	cfg := DefaultRhythmConfig()
	cfg.Seed = 1
	return NewRhythm(cfg)
}

func TestPulseSpikesAndDecaysToZero(t *testing.T) {
	r := seededRhythm()
	hit := Features{RhythmTier: TierHeavy, TotalEnergy: 0.9, Volume: 0.8}
	s := r.Update(frameDT, hit)
	if s.Pulse <= 0 {
		t.Fatalf("pulse did not rise on a heavy hit")
	}
	peak := s.Pulse

	for i := 0; i < 600; i++ {
		s = r.Update(frameDT, Features{})
	}
	if s.Pulse != 0 {
		t.Fatalf("pulse did not decay to zero, got %f", s.Pulse)
	}
	if peak <= 0 {
		t.Fatalf("peak pulse missing")
	}
}

func TestPulseAccumulatesAcrossHits(t *testing.T) {
	r := seededRhythm()
	one := r.Update(frameDT, Features{RhythmTier: TierLight}).Pulse
	two := r.Update(frameDT, Features{RhythmTier: TierLight}).Pulse
	if two <= one {
		t.Fatalf("second hit should add to the pulse: %f then %f", one, two)
	}
}

func TestFieldStrengthChasesDecayingTarget(t *testing.T) {
	r := seededRhythm()
	s := r.Update(frameDT, Features{RhythmTier: TierHeavy, TotalEnergy: 0.9})
	if s.FieldTarget <= 0 {
		t.Fatalf("target not set on hit")
	}
	if s.FieldStrength <= 0 {
		t.Fatalf("strength not rising toward target")
	}
	if s.FieldStrength > s.FieldTarget*2 {
		t.Fatalf("strength overshot: strength=%f target=%f", s.FieldStrength, s.FieldTarget)
	}

	for i := 0; i < 600; i++ {
		s = r.Update(frameDT, Features{})
	}
	if s.FieldTarget > 1e-6 || s.FieldStrength > 1e-4 {
		t.Fatalf("field did not fade: target=%f strength=%f", s.FieldTarget, s.FieldStrength)
	}
}

func TestLargeDeltaTimeDoesNotOvershoot(t *testing.T) {
	r := seededRhythm()
	r.Update(frameDT, Features{RhythmTier: TierHeavy, TotalEnergy: 1})
	// One pathological 2-second frame. rate*dt is clamped to 1, so strength
	// must land between its old value and the target, never beyond.
	before := r.State()
	after := r.Update(2.0, Features{})
	if after.FieldStrength < 0 {
		t.Fatalf("negative strength after large dt")
	}
	hi := math.Max(before.FieldStrength, before.FieldTarget)
	if after.FieldStrength > hi {
		t.Fatalf("strength %f overshot past %f", after.FieldStrength, hi)
	}
	if after.FieldTarget < 0 {
		t.Fatalf("negative target after large dt")
	}
}

func TestDirectionStaysWrapped(t *testing.T) {
	r := seededRhythm()
	for i := 0; i < 500; i++ {
		s := r.Update(frameDT, Features{RhythmTier: TierHeavy, TotalEnergy: 1})
		if s.FieldDirection < 0 || s.FieldDirection >= 2*math.Pi {
			t.Fatalf("direction %f escaped [0, 2pi)", s.FieldDirection)
		}
	}
}

func TestApplyForceFieldNoOpWhenIdle(t *testing.T) {
	r := seededRhythm()
	vx, vy := r.ApplyForceField(0.3, 0.7, 0.1, -0.2, frameDT)
	if vx != 0.1 || vy != -0.2 {
		t.Fatalf("idle field changed velocity: (%f, %f)", vx, vy)
	}
}

func TestApplyForceFieldBiasesVelocity(t *testing.T) {
	r := seededRhythm()
	r.Update(frameDT, Features{RhythmTier: TierHeavy, TotalEnergy: 1})
	vx, vy := r.ApplyForceField(0.25, 0.25, 0, 0, frameDT)
	if vx == 0 && vy == 0 {
		t.Fatalf("active field left velocity untouched")
	}
	if math.IsNaN(vx) || math.IsNaN(vy) {
		t.Fatalf("force field produced NaN velocity")
	}
}

func TestFlowFollowsActivity(t *testing.T) {
	r := seededRhythm()
	var s Response
	for i := 0; i < 120; i++ {
		s = r.Update(frameDT, Features{RhythmTier: TierMedium, Volume: 0.6})
	}
	busy := s.Flow
	for i := 0; i < 600; i++ {
		s = r.Update(frameDT, Features{})
	}
	if busy <= 0 {
		t.Fatalf("flow did not rise under activity")
	}
	if s.Flow >= busy {
		t.Fatalf("flow did not relax in silence: %f -> %f", busy, s.Flow)
	}
}
