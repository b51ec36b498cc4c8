package params

import "sync/atomic"

// DisplayMode selects how the effect axis maps onto the output surface.
type DisplayMode int

const (
	// DisplayTopBottom splits the surface horizontally; effects flow along X.
	DisplayTopBottom DisplayMode = iota
	// DisplaySides splits the surface vertically; effects flow along Y.
	DisplaySides
)

func (m DisplayMode) String() string {
	if m == DisplaySides {
		return "sides"
	}
	return "top-bottom"
}

// ParseDisplayMode maps a user-facing name to a DisplayMode.
func ParseDisplayMode(name string) DisplayMode {
	switch name {
	case "sides", "left-right", "vertical":
		return DisplaySides
	default:
		return DisplayTopBottom
	}
}

// Spectrum holds the tunables every simulation component reads each frame.
// All fields are kept inside their declared ranges at the write site, so
// consumers never see out-of-range values.
type Spectrum struct {
	// SmoothingFactor is the per-bin exponential smoothing coefficient.
	SmoothingFactor float64 `json:"smoothingFactor"` // [0.1, 0.5]
	// MinThreshold is the base magnitude a bin must exceed to spawn particles
	// and the base for the dynamic rhythm threshold.
	MinThreshold float64 `json:"minThreshold"` // [0.01, 0.1]
	// FallSpeed controls how quickly visual energy drains between hits.
	FallSpeed float64 `json:"fallSpeed"` // [0.05, 0.2]
	// MinFallSpeed is the floor applied to FallSpeed-driven decay.
	MinFallSpeed float64 `json:"minFallSpeed"` // [0.01, 0.05]
	// MelSensitivity scales the Mel weighting of high bins and the particle
	// random-walk magnitude.
	MelSensitivity float64 `json:"melSensitivity"` // [0.2, 1.0]
	// SoloResponseStrength boosts response when energy sits in a narrow band
	// (voice, solo instrument).
	SoloResponseStrength float64 `json:"soloResponseStrength"` // [0.1, 0.3]
	// Mode selects the orientation contract.
	Mode DisplayMode `json:"displayMode"`
}

// Defaults returns the documented default tuning.
func Defaults() Spectrum {
	return Spectrum{
		SmoothingFactor:      0.28,
		MinThreshold:         0.05,
		FallSpeed:            0.08,
		MinFallSpeed:         0.02,
		MelSensitivity:       0.3,
		SoloResponseStrength: 0.15,
		Mode:                 DisplayTopBottom,
	}
}

// Clamped returns a copy with every field coerced into its declared range.
func (s Spectrum) Clamped() Spectrum {
	s.SmoothingFactor = clamp(s.SmoothingFactor, 0.1, 0.5)
	s.MinThreshold = clamp(s.MinThreshold, 0.01, 0.1)
	s.FallSpeed = clamp(s.FallSpeed, 0.05, 0.2)
	s.MinFallSpeed = clamp(s.MinFallSpeed, 0.01, 0.05)
	s.MelSensitivity = clamp(s.MelSensitivity, 0.2, 1.0)
	s.SoloResponseStrength = clamp(s.SoloResponseStrength, 0.1, 0.3)
	if s.Mode != DisplaySides {
		s.Mode = DisplayTopBottom
	}
	return s
}

// Store is the shared parameter cell: written rarely by the settings
// surface, snapshotted once per frame by the render loop. A whole-struct
// swap keeps logically related fields consistent within a frame.
type Store struct {
	cell atomic.Pointer[Spectrum]
}

// NewStore creates a Store seeded with the defaults.
func NewStore() *Store {
	st := &Store{}
	def := Defaults()
	st.cell.Store(&def)
	return st
}

// Snapshot returns the current parameters by value.
func (st *Store) Snapshot() Spectrum {
	return *st.cell.Load()
}

// Update clamps and publishes a new parameter set.
func (st *Store) Update(s Spectrum) {
	s = s.Clamped()
	st.cell.Store(&s)
}

// ResetToDefaults restores the documented defaults.
func (st *Store) ResetToDefaults() {
	def := Defaults()
	st.cell.Store(&def)
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
