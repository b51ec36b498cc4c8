// Package emotion composes the shared simulation kernels into the eight
// audio-reactive renderer variants and maps their output into each
// emotion's designated hue band.
package emotion

import (
	"github.com/lumisonic/lumisonic/internal/canvas"
)

// HueBand is the closed hue interval, in degrees, an emotion may paint in.
type HueBand struct {
	Min, Max float64
}

// Clamp forces a hue into the band.
func (b HueBand) Clamp(h float64) float64 {
	if b.Min == 0 && b.Max == 0 {
		return h
	}
	if h < b.Min {
		return b.Min
	}
	if h > b.Max {
		return b.Max
	}
	return h
}

// Contains reports whether the hue lies in the band. The tolerance absorbs
// 8-bit RGB quantization, which can shift a recovered hue by over a degree at
// moderate saturation.
func (b HueBand) Contains(h float64) bool {
	if b.Min == 0 && b.Max == 0 {
		return true
	}
	const tolerance = 1.5
	return h >= b.Min-tolerance && h <= b.Max+tolerance
}

// quantSteps is the memoization grid resolution per axis. Call sites reuse
// identical (progress, intensity) keys many times per frame, so lookups win
// over recomputation; the table is bounded at quantSteps^2 entries.
const quantSteps = 128

// ColorMapper maps normalized progress and intensity into an emotion's hue
// band. It is a pure function of its inputs and memoizes by quantized key.
type ColorMapper struct {
	band  HueBand
	cache map[uint32]canvas.Color
}

// NewColorMapper builds a mapper locked to the given band.
func NewColorMapper(band HueBand) *ColorMapper {
	return &ColorMapper{
		band:  band,
		cache: make(map[uint32]canvas.Color, 256),
	}
}

// Band returns the mapper's hue band.
func (m *ColorMapper) Band() HueBand {
	return m.band
}

// MapProgress maps progress (position within the band) and intensity
// (saturation/brightness drive) to a color. Inputs outside [0,1] are
// clamped.
func (m *ColorMapper) MapProgress(progress, intensity float64) canvas.Color {
	progress = clamp(progress, 0, 1)
	intensity = clamp(intensity, 0, 1)

	pq := uint32(progress * (quantSteps - 1))
	iq := uint32(intensity * (quantSteps - 1))
	key := pq<<8 | iq
	if c, ok := m.cache[key]; ok {
		return c
	}

	p := float64(pq) / (quantSteps - 1)
	in := float64(iq) / (quantSteps - 1)

	var hue float64
	if m.band.Min == 0 && m.band.Max == 0 {
		// Unconstrained mapper sweeps the full spectrum.
		hue = p * 360
	} else {
		hue = m.band.Clamp(m.band.Min + p*(m.band.Max-m.band.Min))
	}

	sat := 0.55 + 0.4*in
	val := 0.45 + 0.55*in
	c := canvas.FromHSV(hue, sat, val, 1)
	m.cache[key] = c
	return c
}

// GradientStops returns inner and outer colors for radial gradients at the
// given intensity.
func (m *ColorMapper) GradientStops(progress, intensity float64) (inner, outer canvas.Color) {
	inner = m.MapProgress(progress, intensity)
	outer = m.MapProgress(progress, intensity*0.4).WithAlpha(0)
	return inner, outer
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
