package emotion

import (
	"math"

	"github.com/lumisonic/lumisonic/internal/droplet"
	"github.com/lumisonic/lumisonic/internal/particle"
	"github.com/lumisonic/lumisonic/internal/wave"
)

// Emotion selects a renderer variant. Bars is the neutral default.
type Emotion int

const (
	Bars Emotion = iota
	Anger
	Anticipation
	Joy
	Disgust
	Trust
	Sadness
	Surprise
)

var emotionNames = map[Emotion]string{
	Bars:         "bars",
	Anger:        "anger",
	Anticipation: "anticipation",
	Joy:          "joy",
	Disgust:      "disgust",
	Trust:        "trust",
	Sadness:      "sadness",
	Surprise:     "surprise",
}

func (e Emotion) String() string {
	if name, ok := emotionNames[e]; ok {
		return name
	}
	return "bars"
}

// ParseEmotion maps a user-facing name to an Emotion, defaulting to Bars.
func ParseEmotion(name string) Emotion {
	for e, n := range emotionNames {
		if n == name {
			return e
		}
	}
	return Bars
}

// All returns every renderer variant in display order.
func All() []Emotion {
	return []Emotion{Bars, Anger, Anticipation, Joy, Disgust, Trust, Sadness, Surprise}
}

// HueBand returns the emotion's designated hue interval. Bars is
// unconstrained and sweeps the full spectrum.
func (e Emotion) HueBand() HueBand {
	switch e {
	case Anger:
		return HueBand{Min: 0.01, Max: 20} // red
	case Anticipation:
		return HueBand{Min: 25, Max: 45} // orange
	case Joy:
		return HueBand{Min: 45, Max: 75} // yellow
	case Disgust:
		return HueBand{Min: 140, Max: 160} // cyan-green
	case Trust:
		return HueBand{Min: 180, Max: 210} // teal
	case Sadness:
		return HueBand{Min: 220, Max: 240} // blue
	case Surprise:
		return HueBand{Min: 280, Max: 310} // violet
	default:
		return HueBand{}
	}
}

// composition declares which kernels an emotion runs and how bursts behave.
// Each variant is tuning over the shared kernels, not its own code path.
type composition struct {
	particleCfg *particle.Config
	waveCfg     *wave.Config
	dropletCfg  *droplet.Config

	burstField  particle.FieldKind
	fieldRadius float64
	bars        bool

	waveBaseline float64
}

func compositionFor(e Emotion, seed int64) composition {
	switch e {
	case Anger:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 200
		pc.SpawnChance = 0.5
		pc.SpeedLimit = 0.9
		pc.BaseLifespan = 1.4
		pc.RandomWalk = 0.6
		pc.Buoyancy = 0.12
		pc.Seed = seed
		wc := wave.DefaultConfig()
		wc.Amplitude = 0.08
		wc.Frequency = 4
		wc.CorrosionThreshold = 0.3
		wc.Seed = seed
		return composition{
			particleCfg:  &pc,
			waveCfg:      &wc,
			burstField:   particle.FieldRadial,
			fieldRadius:  0.35,
			waveBaseline: 0.62,
		}

	case Anticipation:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 150
		pc.SpeedLimit = 0.5
		pc.BaseLifespan = 2.6
		pc.Seed = seed
		wc := wave.DefaultConfig()
		wc.Frequency = 3
		wc.Seed = seed
		return composition{
			particleCfg:  &pc,
			waveCfg:      &wc,
			burstField:   particle.FieldVortex,
			fieldRadius:  0.4,
			waveBaseline: 0.55,
		}

	case Joy:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 220
		pc.SpawnChance = 0.45
		pc.Buoyancy = 0.1
		pc.Seed = seed
		return composition{
			particleCfg: &pc,
			burstField:  particle.FieldUpward,
			fieldRadius: 0.45,
		}

	case Disgust:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 90
		pc.SpeedLimit = 0.25
		pc.BaseLifespan = 3.5
		pc.Seed = seed
		wc := wave.DefaultConfig()
		wc.Amplitude = 0.09
		wc.Frequency = 1.8
		wc.ViscosityRate = 0.8
		wc.Seed = seed
		return composition{
			particleCfg:  &pc,
			waveCfg:      &wc,
			burstField:   particle.FieldSpiral,
			fieldRadius:  0.3,
			waveBaseline: 0.5,
		}

	case Trust:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 60
		pc.SpawnChance = 0.15
		pc.SpeedLimit = 0.2
		pc.BaseLifespan = 4
		pc.Seed = seed
		wc := wave.DefaultConfig()
		wc.Amplitude = 0.05
		wc.Frequency = 1.5
		wc.TurbulenceScale = 1.5
		wc.Seed = seed
		return composition{
			particleCfg:  &pc,
			waveCfg:      &wc,
			burstField:   particle.FieldAttractor,
			fieldRadius:  0.5,
			waveBaseline: 0.5,
		}

	case Sadness:
		dc := droplet.DefaultConfig()
		dc.Seed = seed
		wc := wave.DefaultConfig()
		wc.Amplitude = 0.03
		wc.Frequency = 2
		wc.Seed = seed
		return composition{
			dropletCfg:   &dc,
			waveCfg:      &wc,
			waveBaseline: dc.WaterLevel,
		}

	case Surprise:
		pc := particle.DefaultConfig()
		pc.MaxParticles = 300
		pc.SpawnChance = 0.2
		pc.SpeedLimit = 1.1
		pc.BaseLifespan = 1.1
		pc.Tiers[1].CountMin, pc.Tiers[1].CountMax = 10, 20
		pc.Tiers[2].CountMin, pc.Tiers[2].CountMax = 30, 50
		pc.Tiers[3].CountMin, pc.Tiers[3].CountMax = 60, 110
		pc.Tiers[3].Spread = math.Pi / 4
		pc.Seed = seed
		return composition{
			particleCfg: &pc,
			burstField:  particle.FieldPulse,
			fieldRadius: 0.5,
		}

	default: // Bars
		return composition{bars: true}
	}
}
