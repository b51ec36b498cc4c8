package particle

import "math"

// FieldKind selects the velocity bias a force field applies.
type FieldKind int

const (
	FieldRadial FieldKind = iota
	FieldVortex
	FieldSpiral
	FieldPulse
	FieldAttractor
	FieldUpward
)

// minFieldDistance guards the direction normalization against a particle
// sitting exactly on the field center.
const minFieldDistance = 1e-6

// ForceField is a transient spatial influence created on rhythm events and
// discarded when its duration runs out. Strength rises then decays over the
// lifetime with a piecewise-linear envelope.
type ForceField struct {
	X, Y        float64
	Radius      float64
	Strength    float64
	Duration    float64 // seconds remaining
	MaxDuration float64
	Kind        FieldKind
}

// Alive reports whether the field still influences particles.
func (f *ForceField) Alive() bool {
	return f.Duration > 0
}

// envelope ramps 0->1 over the first 30% of the lifetime, then back to 0.
func (f *ForceField) envelope() float64 {
	if f.MaxDuration <= 0 {
		return 0
	}
	t := 1 - f.Duration/f.MaxDuration
	if t < 0 {
		t = 0
	}
	if t < 0.3 {
		return t / 0.3
	}
	return (1 - t) / 0.7
}

// Apply biases the velocity of a particle at (x, y) and returns the new
// velocity. The influence falls off linearly to the field radius.
func (f *ForceField) Apply(x, y, vx, vy, dt float64) (float64, float64) {
	dx := x - f.X
	dy := y - f.Y
	dist := math.Hypot(dx, dy)
	if f.Radius <= 0 || dist > f.Radius {
		return vx, vy
	}

	falloff := 1 - dist/f.Radius
	force := f.Strength * f.envelope() * falloff * dt
	if force == 0 {
		return vx, vy
	}

	if dist < minFieldDistance {
		// On-center particles get a pure upward nudge; any direction is as
		// good as another and normalizing would divide by zero.
		return vx, vy - force
	}
	nx := dx / dist
	ny := dy / dist

	switch f.Kind {
	case FieldRadial:
		vx += nx * force
		vy += ny * force
	case FieldVortex:
		vx += -ny * force
		vy += nx * force
	case FieldSpiral:
		vx += (nx*0.5 - ny) * force
		vy += (ny*0.5 + nx) * force
	case FieldPulse:
		ring := math.Sin(2*math.Pi*dist/f.Radius)*0.5 + 0.5
		vx += nx * force * ring
		vy += ny * force * ring
	case FieldAttractor:
		vx -= nx * force
		vy -= ny * force
	case FieldUpward:
		vy -= force
	}
	return vx, vy
}
