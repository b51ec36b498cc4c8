package app

import (
	"math"
	"math/rand"
)

// synthetic fabricates spectrum frames for -no-audio runs: a beating bass
// hump, a wandering melodic bump, and a little treble hiss. Enough structure
// to exercise every renderer without a microphone.
type synthetic struct {
	rng  *rand.Rand
	bins []float64

	time     float64
	nextBeat float64
	beatEnv  float64
	melody   float64
}

func newSynthetic(bins int, seed int64) *synthetic {
	if bins <= 0 {
		bins = 128
	}
	if seed == 0 {
		seed = rand.Int63()
	}
	return &synthetic{
		rng:  rand.New(rand.NewSource(seed)),
		bins: make([]float64, bins),
	}
}

// Frame advances the generator by dt seconds and returns the next spectrum.
// The returned slice is reused across calls.
func (s *synthetic) Frame(dt float64) []float64 {
	s.time += dt

	s.beatEnv -= 3 * dt
	if s.beatEnv < 0 {
		s.beatEnv = 0
	}
	if s.time >= s.nextBeat {
		s.beatEnv = 1
		s.nextBeat = s.time + 0.45 + s.rng.Float64()*0.25
	}

	// The melodic bump wanders slowly through the mid bins.
	s.melody = 0.35 + 0.2*math.Sin(s.time*0.6)

	n := len(s.bins)
	for i := range s.bins {
		pos := float64(i) / float64(n)

		bass := math.Exp(-pos*pos/0.015) * (0.3 + 0.65*s.beatEnv)
		d := pos - s.melody
		melody := math.Exp(-d*d/0.004) * 0.45 * (0.6 + 0.4*math.Sin(s.time*2.3))
		hiss := s.rng.Float64() * 0.05 * (0.4 + 0.6*s.beatEnv)

		v := bass + melody + hiss
		if v > 1 {
			v = 1
		}
		if v < 0 {
			v = 0
		}
		s.bins[i] = v
	}
	return s.bins
}
