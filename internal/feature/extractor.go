// Package feature turns raw magnitude-spectrum frames into the smoothed
// perceptual quantities (volume, rhythm, dominant frequency, energy
// concentration) that drive every simulation kernel.
package feature

import (
	"math"

	"github.com/lumisonic/lumisonic/internal/params"
)

// Rhythm intensity tiers classified from the per-frame volume change.
const (
	TierNone   = 0
	TierLight  = 1
	TierMedium = 2
	TierHeavy  = 3
)

// Thresholds for the upper tiers. TierLight uses the dynamic,
// concentration-adjusted threshold instead.
const (
	tierHeavyThreshold  = 0.13
	tierMediumThreshold = 0.08
)

// Features is the per-frame output of the extractor. One instance per
// renderer; mutated once per frame, read by every kernel.
type Features struct {
	Volume            float64
	PreviousVolume    float64
	VolumeChange      float64
	RhythmPeak        bool
	RhythmTier        int
	DominantBin       int
	Concentration     float64 // [0,1]; high = tonal/narrowband
	TotalEnergy       float64
	AccumulatedEnergy float64
	DeltaTime         float64
}

// Config controls an Extractor.
type Config struct {
	// SampleRate of the audio the spectrum was computed from. Used to map
	// bin indices to frequencies for Mel weighting.
	SampleRate float64
	// BaseThreshold is the renderer-specific rhythm threshold before the
	// concentration adjustment. Zero means "use the shared MinThreshold".
	BaseThreshold float64
}

// Extractor keeps the previous smoothed frame and volume so deltas can be
// computed. It owns no goroutines and is not safe for concurrent use; each
// renderer holds its own instance.
type Extractor struct {
	cfg               Config
	smoothed          []float64
	weights           []float64
	weightSensitivity float64
	features          Features
}

// NewExtractor creates an extractor for spectra derived from audio at the
// configured sample rate.
func NewExtractor(cfg Config) *Extractor {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	return &Extractor{cfg: cfg}
}

// Features returns the most recent feature state.
func (e *Extractor) Features() Features {
	return e.features
}

// ProcessFrame smooths the raw frame in place against the retained state and
// classifies the result. The returned slice aliases internal state and is
// valid until the next call.
func (e *Extractor) ProcessFrame(raw []float64, dt float64, p params.Spectrum) ([]float64, Features) {
	if len(e.smoothed) != len(raw) {
		// Frame geometry changed; restart smoothing from neutral.
		e.smoothed = make([]float64, len(raw))
		e.features.PreviousVolume = 0
		e.ensureWeights(len(raw), p.MelSensitivity)
	}
	e.ensureWeights(len(raw), p.MelSensitivity)

	for i, v := range raw {
		v = clamp(v, 0, 1)
		e.smoothed[i] += (v - e.smoothed[i]) * p.SmoothingFactor
	}

	rawVolume := rms(e.smoothed)

	// Attacks are snappier than decays: rising volume is tracked at 2.5x the
	// shared smoothing factor, falling volume at 0.7x.
	prev := e.features.Volume
	factor := p.SmoothingFactor * 0.7
	if rawVolume > prev {
		factor = math.Min(1, p.SmoothingFactor*2.5)
	}
	volume := prev + (rawVolume-prev)*factor

	dominant, concentration := e.dominantAndConcentration()
	total := meanEnergy(e.smoothed)

	change := volume - prev
	dynamicThreshold := e.baseThreshold(p) * (1 - concentration*0.35)

	tier := TierNone
	switch {
	case change > tierHeavyThreshold:
		tier = TierHeavy
	case change > tierMediumThreshold:
		tier = TierMedium
	case change > dynamicThreshold:
		tier = TierLight
	}

	e.features = Features{
		Volume:            volume,
		PreviousVolume:    prev,
		VolumeChange:      change,
		RhythmPeak:        change > dynamicThreshold,
		RhythmTier:        tier,
		DominantBin:       dominant,
		Concentration:     concentration,
		TotalEnergy:       total,
		AccumulatedEnergy: e.features.AccumulatedEnergy + total*dt,
		DeltaTime:         dt,
	}
	return e.smoothed, e.features
}

func (e *Extractor) baseThreshold(p params.Spectrum) float64 {
	if e.cfg.BaseThreshold > 0 {
		return e.cfg.BaseThreshold
	}
	return p.MinThreshold
}

// dominantAndConcentration finds the Mel-weighted argmax bin and the share
// of weighted energy within +/-3 bins of it.
func (e *Extractor) dominantAndConcentration() (int, float64) {
	bins := e.smoothed
	if len(bins) <= 1 {
		return 0, 0
	}

	total := 0.0
	best := 0
	bestEnergy := -1.0
	for i, v := range bins {
		energy := v * e.weights[i]
		total += energy
		if energy > bestEnergy {
			bestEnergy = energy
			best = i
		}
	}
	if total <= 0 {
		return 0, 0
	}

	near := 0.0
	lo := max(0, best-3)
	hi := min(len(bins)-1, best+3)
	for i := lo; i <= hi; i++ {
		near += bins[i] * e.weights[i]
	}
	return best, clamp(near/total, 0, 1)
}

func (e *Extractor) ensureWeights(size int, sensitivity float64) {
	if len(e.weights) == size && e.weightSensitivity == sensitivity {
		return
	}
	if len(e.weights) != size {
		e.weights = make([]float64, size)
	}
	e.weightSensitivity = sensitivity
	binWidth := e.cfg.SampleRate / 2 / float64(max(size, 1))
	for i := range e.weights {
		freq := float64(i+1) * binWidth
		e.weights[i] = 1 + sensitivity*melScale(freq)/500
	}
}

// BandEnergies splits a spectrum into low/mid/high thirds and returns the
// mean magnitude of each band.
func BandEnergies(bins []float64) (low, mid, high float64) {
	n := len(bins)
	if n == 0 {
		return 0, 0, 0
	}
	third := n / 3
	if third < 1 {
		third = 1
	}
	var counts [3]int
	var sums [3]float64
	for i, v := range bins {
		band := i / third
		if band > 2 {
			band = 2
		}
		sums[band] += v
		counts[band]++
	}
	for b := range sums {
		if counts[b] > 0 {
			sums[b] /= float64(counts[b])
		}
	}
	return sums[0], sums[1], sums[2]
}

// melScale converts a frequency in Hz to the Mel scale.
func melScale(freq float64) float64 {
	if freq <= 0 {
		return 0
	}
	return 2595 * math.Log10(1+freq/700)
}

func rms(bins []float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range bins {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(bins)))
}

func meanEnergy(bins []float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range bins {
		sum += v
	}
	return sum / float64(len(bins))
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
