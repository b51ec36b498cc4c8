package feature

import (
	"math"
	"math/rand"
)

// Response is the rhythm-derived state shared by every kernel of a renderer:
// a decaying pulse, a smoothly lagging global force field, and a flow
// coefficient biasing drift motion.
type Response struct {
	Pulse          float64
	FieldStrength  float64
	FieldTarget    float64
	FieldDirection float64 // radians, wrapped into [0, 2pi)
	Flow           float64
}

// RhythmConfig tunes the rhythm response envelope.
type RhythmConfig struct {
	PulseDecay     float64 // linear decay per second
	PulseGain      float64 // added per rhythm tier level
	TargetDecay    float64 // proportional target decay per second
	ChangeRate     float64 // strength-chases-target rate per second
	FlowRate       float64 // flow convergence rate per second
	CenterX        float64 // field center in normalized space
	CenterY        float64
	Seed           int64
}

// DefaultRhythmConfig returns the envelope used by most renderers.
func DefaultRhythmConfig() RhythmConfig {
	return RhythmConfig{
		PulseDecay:  1.6,
		PulseGain:   0.35,
		TargetDecay: 1.2,
		ChangeRate:  4.0,
		FlowRate:    2.5,
		CenterX:     0.5,
		CenterY:     0.5,
	}
}

// Rhythm derives the Response from classified features. It owns its state;
// one instance per renderer.
type Rhythm struct {
	cfg   RhythmConfig
	state Response
	rng   *rand.Rand
}

// NewRhythm creates a rhythm model. Seed 0 picks an arbitrary stream; tests
// pass a fixed seed for reproducible directions.
func NewRhythm(cfg RhythmConfig) *Rhythm {
	if cfg.PulseDecay <= 0 {
		cfg.PulseDecay = 1.6
	}
	if cfg.PulseGain <= 0 {
		cfg.PulseGain = 0.35
	}
	if cfg.TargetDecay <= 0 {
		cfg.TargetDecay = 1.2
	}
	if cfg.ChangeRate <= 0 {
		cfg.ChangeRate = 4.0
	}
	if cfg.FlowRate <= 0 {
		cfg.FlowRate = 2.5
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Rhythm{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// State returns the current response without advancing it.
func (r *Rhythm) State() Response {
	return r.state
}

// Update advances the envelope by dt seconds and folds in the frame's
// rhythm classification.
func (r *Rhythm) Update(dt float64, f Features) Response {
	s := &r.state

	// Sawtooth feel: impacts add, decay is linear.
	s.Pulse -= r.cfg.PulseDecay * dt
	if s.Pulse < 0 {
		s.Pulse = 0
	}

	if f.RhythmTier > TierNone {
		s.Pulse += r.cfg.PulseGain * float64(f.RhythmTier)

		// Stronger hits re-aim the field inside a wider cone.
		cone := (math.Pi / 6) * float64(f.RhythmTier)
		s.FieldDirection = wrapAngle(s.FieldDirection + (r.rng.Float64()*2-1)*cone)
		s.FieldTarget = math.Max(s.FieldTarget, 0.4*float64(f.RhythmTier)*math.Max(f.TotalEnergy, 0.05))
	}

	// Two-stage envelope: the target fades even while strength is still
	// catching up, which gives the attack/release feel with two variables.
	s.FieldTarget *= 1 - math.Min(1, r.cfg.TargetDecay*dt)
	if s.FieldTarget < 0 {
		s.FieldTarget = 0
	}
	s.FieldStrength += (s.FieldTarget - s.FieldStrength) * math.Min(1, r.cfg.ChangeRate*dt)
	if s.FieldStrength < 0 {
		s.FieldStrength = 0
	}

	flowTarget := clamp(0.3*float64(f.RhythmTier)+f.Volume, 0, 2)
	s.Flow += (flowTarget - s.Flow) * math.Min(1, r.cfg.FlowRate*dt)
	if s.Flow < 0 {
		s.Flow = 0
	}

	return *s
}

// ApplyForceField biases a velocity by the global field. The sin ring factor
// alternates attract/repel bands radiating from the field center, and the
// squared amplification makes strong hits disproportionately forceful. Both
// are tuned-by-feel art parameters, kept verbatim.
func (r *Rhythm) ApplyForceField(x, y, vx, vy, dt float64) (float64, float64) {
	s := r.state
	if s.FieldStrength <= 0 {
		return vx, vy
	}
	dist := math.Hypot(x-r.cfg.CenterX, y-r.cfg.CenterY)
	ring := math.Sin(2*math.Pi*dist)*0.5 + 0.5
	amp := 1 + s.FieldStrength*s.FieldStrength*2

	force := s.FieldStrength * ring * amp * dt
	vx += math.Cos(s.FieldDirection) * force
	vy += math.Sin(s.FieldDirection) * force
	return vx, vy
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
