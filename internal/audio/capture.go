// Package audio owns the PortAudio capture stream and the FFT spectrum
// producer that turns raw samples into the normalized magnitude frames the
// simulation consumes.
package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const defaultWindowSize = 4096

// CaptureConfig controls how a capture stream is opened.
type CaptureConfig struct {
	// DeviceName is matched as a case-insensitive substring; empty picks the
	// best available input device.
	DeviceName string
	// WindowSize is the mono sample window retained for analysis.
	WindowSize int
	Channels   int
}

// Capture wraps a PortAudio input stream. The stream callback downmixes to
// mono and writes into a ring buffer; Samples copies the latest window out
// in chronological order.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo

	mu   sync.Mutex
	ring []float64
	head int
}

// NewCapture opens and starts a capture stream.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}

	device, err := selectInputDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	if cfg.Channels > device.MaxInputChannels {
		cfg.Channels = device.MaxInputChannels
	}

	c := &Capture{
		sampleRate: device.DefaultSampleRate,
		channels:   cfg.Channels,
		device:     device,
		ring:       make([]float64, cfg.WindowSize),
	}

	framesPerBuffer := cfg.WindowSize / 4
	if framesPerBuffer < 64 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, c.consume)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return c, nil
}

// Close stops and closes the stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isAlreadyStopped(err) {
		return err
	}
	return c.stream.Close()
}

// SampleRate returns the device sample rate the stream runs at.
func (c *Capture) SampleRate() float64 { return c.sampleRate }

// DeviceName returns the name of the captured device.
func (c *Capture) DeviceName() string {
	if c.device == nil {
		return ""
	}
	return c.device.Name
}

// Samples copies the latest window into dst, oldest sample first, growing
// dst as needed, and returns it.
func (c *Capture) Samples(dst []float64) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cap(dst) < len(c.ring) {
		dst = make([]float64, len(c.ring))
	}
	dst = dst[:len(c.ring)]
	n := copy(dst, c.ring[c.head:])
	copy(dst[n:], c.ring[:c.head])
	return dst
}

// consume is the stream callback. It must not block; the ring write is a
// short critical section.
func (c *Capture) consume(in []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channels <= 1 {
		for _, v := range in {
			c.push(float64(v))
		}
		return
	}
	frames := len(in) / c.channels
	for f := 0; f < frames; f++ {
		sum := 0.0
		base := f * c.channels
		for ch := 0; ch < c.channels; ch++ {
			sum += float64(in[base+ch])
		}
		c.push(sum / float64(c.channels))
	}
}

func (c *Capture) push(v float64) {
	c.ring[c.head] = v
	c.head++
	if c.head == len(c.ring) {
		c.head = 0
	}
}

// isAlreadyStopped matches the PortAudio error for stopping a stream twice,
// which happens when Close races shutdown.
func isAlreadyStopped(err error) bool {
	return err != nil && strings.Contains(err.Error(), "PaErrorCode -9986")
}
