package audio

import (
	"math"
	"sync/atomic"

	"github.com/mjibson/go-dsp/fft"
)

// Frame is one normalized magnitude spectrum, low to high frequency.
type Frame struct {
	Bins       []float64 // [0,1]
	SampleRate float64
	Seq        uint64
}

// Mailbox is the single-slot hand-off between the audio producer goroutine
// and the render loop. A publish replaces any unread frame, so the consumer
// always sees the latest complete spectrum and the producer never blocks.
type Mailbox struct {
	cell atomic.Pointer[Frame]
}

// Publish replaces the slot with f.
func (m *Mailbox) Publish(f *Frame) { m.cell.Store(f) }

// Latest returns the most recent frame, nil before the first publish.
func (m *Mailbox) Latest() *Frame { return m.cell.Load() }

// ProducerConfig tunes the spectrum producer.
type ProducerConfig struct {
	SampleRate float64
	// Bins is the output resolution; FFT magnitudes are averaged down to it.
	Bins int
	// MaxFFTSize caps the transform size; the actual size is the next power
	// of two of the sample count, at most this.
	MaxFFTSize int
}

// minGain floors the adaptive normalization so silence is not amplified
// into noise.
const minGain = 0.05

// Producer computes normalized magnitude frames from mono samples: Hann
// window, power-of-two FFT, per-bin averaging down to the configured
// resolution, and an adaptive gain that tracks the recent peak.
type Producer struct {
	cfg    ProducerConfig
	buffer []complex128
	window []float64
	gain   float64
	seq    uint64
}

// NewProducer creates a producer for audio at the given sample rate.
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	if cfg.Bins <= 0 {
		cfg.Bins = 128
	}
	if cfg.MaxFFTSize <= 0 {
		cfg.MaxFFTSize = 2048
	}
	return &Producer{cfg: cfg, gain: minGain}
}

// Process transforms one sample window into a frame. The returned frame owns
// its bins and may be handed to another goroutine.
func (p *Producer) Process(samples []float64) *Frame {
	p.seq++
	bins := make([]float64, p.cfg.Bins)
	frame := &Frame{Bins: bins, SampleRate: p.cfg.SampleRate, Seq: p.seq}
	if len(samples) == 0 {
		return frame
	}

	size := nextPow2(minInt(len(samples), p.cfg.MaxFFTSize))
	if size < 256 {
		size = 256
	}
	p.ensureWorkspace(size)

	for i := 0; i < size; i++ {
		if i < len(samples) {
			p.buffer[i] = complex(samples[i]*p.window[i], 0)
		} else {
			p.buffer[i] = 0
		}
	}

	res := fft.FFT(p.buffer)
	half := size / 2

	// Average raw magnitudes into the output resolution and track the frame
	// peak for the adaptive gain.
	peak := 0.0
	perBin := float64(half) / float64(p.cfg.Bins)
	for b := range bins {
		lo := int(float64(b) * perBin)
		hi := int(float64(b+1) * perBin)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > half {
			hi = half
		}
		sum := 0.0
		for k := lo; k < hi; k++ {
			sum += cmplxMag(res[k])
		}
		mag := sum / float64(hi-lo) * 2 / float64(size)
		bins[b] = mag
		if mag > peak {
			peak = mag
		}
	}

	// Slow-release peak tracker: loud passages set the scale, quiet ones let
	// it drift back down so the display stays lively.
	p.gain *= 0.995
	if peak > p.gain {
		p.gain = peak
	}
	if p.gain < minGain {
		p.gain = minGain
	}
	for b := range bins {
		v := bins[b] / p.gain
		if v > 1 {
			v = 1
		}
		bins[b] = v
	}
	return frame
}

func (p *Producer) ensureWorkspace(size int) {
	if len(p.buffer) == size {
		return
	}
	p.buffer = make([]complex128, size)
	p.window = make([]float64, size)
	for i := range p.window {
		p.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
}

func cmplxMag(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
