package audio

import (
	"math"
	"math/rand"
	"testing"
)

func TestProducerLocatesSinePeak(t *testing.T) {
	const (
		sampleRate = 44_100.0
		fftSize    = 2048
		fftBin     = 200
		outBins    = 128
	)
	freq := fftBin * sampleRate / fftSize

	samples := make([]float64, fftSize)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	p := NewProducer(ProducerConfig{SampleRate: sampleRate, Bins: outBins, MaxFFTSize: fftSize})
	frame := p.Process(samples)

	best := 0
	for i, v := range frame.Bins {
		if v > frame.Bins[best] {
			best = i
		}
	}
	want := fftBin * outBins / (fftSize / 2)
	if best != want {
		t.Fatalf("sine at FFT bin %d peaked at output bin %d, want %d", fftBin, best, want)
	}
	if frame.Bins[best] < 0.5 {
		t.Fatalf("full-scale sine peak normalized to %f, want near 1", frame.Bins[best])
	}
}

func TestProducerOutputBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = rng.Float64()*2 - 1
	}

	p := NewProducer(ProducerConfig{SampleRate: 44_100, Bins: 64})
	for frame := 0; frame < 20; frame++ {
		out := p.Process(samples)
		if len(out.Bins) != 64 {
			t.Fatalf("frame %d: got %d bins, want 64", frame, len(out.Bins))
		}
		for i, v := range out.Bins {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("frame %d bin %d out of range: %f", frame, i, v)
			}
		}
	}
}

func TestProducerSilenceIsZero(t *testing.T) {
	p := NewProducer(ProducerConfig{SampleRate: 44_100, Bins: 32})
	frame := p.Process(make([]float64, 2048))
	for i, v := range frame.Bins {
		if v != 0 {
			t.Fatalf("silent input produced bin %d = %f", i, v)
		}
	}
}

func TestProducerEmptyInput(t *testing.T) {
	p := NewProducer(ProducerConfig{SampleRate: 44_100, Bins: 32})
	frame := p.Process(nil)
	if len(frame.Bins) != 32 {
		t.Fatalf("empty input should still produce %d zero bins, got %d", 32, len(frame.Bins))
	}
}

func TestMailboxKeepsLatest(t *testing.T) {
	var m Mailbox
	if m.Latest() != nil {
		t.Fatalf("fresh mailbox should be empty")
	}
	m.Publish(&Frame{Seq: 1})
	m.Publish(&Frame{Seq: 2})
	if got := m.Latest(); got == nil || got.Seq != 2 {
		t.Fatalf("mailbox kept the wrong frame: %+v", got)
	}
	// Reading does not consume; the slot stays readable.
	if got := m.Latest(); got == nil || got.Seq != 2 {
		t.Fatalf("second read lost the frame: %+v", got)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 255: 256, 256: 256, 257: 512, 2048: 2048}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Fatalf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
