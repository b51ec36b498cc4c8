// Package app ties capture, feature extraction, the emotion renderers and
// the presentation surfaces into the single-goroutine render loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/eiannone/keyboard"

	"github.com/lumisonic/lumisonic/internal/audio"
	"github.com/lumisonic/lumisonic/internal/canvas"
	"github.com/lumisonic/lumisonic/internal/emotion"
	"github.com/lumisonic/lumisonic/internal/feature"
	"github.com/lumisonic/lumisonic/internal/params"
	"github.com/lumisonic/lumisonic/internal/web"
)

// maxFrameDelta caps the wall-clock step so a stalled frame (debugger,
// suspend) does not slam the kernels with a huge dt.
const maxFrameDelta = 0.25

// Config configures the application runtime.
type Config struct {
	DeviceName string
	Width      int
	Height     int
	TargetFPS  float64
	// WindowSize is the audio analysis window in samples.
	WindowSize int
	// Bins is the spectrum resolution handed to the renderers.
	Bins         int
	DisableAudio bool
	Emotion      emotion.Emotion
	Mode         params.DisplayMode
	// CycleInterval switches to the next emotion periodically; zero disables.
	CycleInterval time.Duration
	// ListenAddr enables the settings/telemetry server when non-empty.
	ListenAddr string
	// Headless skips the window even when the SDL backend is compiled in.
	Headless bool
	Seed     int64
	Log      *log.Logger
}

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventNextEmotion
	inputEventResetParams
	inputEventToggleMode
)

// App owns the render loop and every long-lived resource behind it.
type App struct {
	cfg   Config
	store *params.Store
	log   *log.Logger

	renderer *emotion.Renderer

	capture  *audio.Capture
	producer *audio.Producer
	mailbox  audio.Mailbox
	synth    *synthetic

	img    *canvas.Image
	window *canvas.Window

	inputEvents chan inputEvent
	sampleRate  float64
	last        time.Time
	fps         float64

	telemetryMu sync.Mutex
	telemetry   web.Telemetry
}

// New constructs the application. It opens the audio device (unless audio is
// disabled) and the window (when the SDL backend is available).
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 60
	}
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 540
	}
	if cfg.Bins <= 0 {
		cfg.Bins = 128
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "[lumisonic] ", log.LstdFlags)
	}

	a := &App{
		cfg:        cfg,
		store:      params.NewStore(),
		log:        cfg.Log,
		img:        canvas.NewImage(cfg.Width, cfg.Height),
		sampleRate: 44_100,
	}

	s := a.store.Snapshot()
	s.Mode = cfg.Mode
	a.store.Update(s)

	if cfg.DisableAudio {
		a.synth = newSynthetic(cfg.Bins, cfg.Seed)
		a.log.Println("audio disabled, using synthetic spectrum")
	} else {
		capture, err := audio.NewCapture(audio.CaptureConfig{
			DeviceName: cfg.DeviceName,
			WindowSize: cfg.WindowSize,
			Channels:   2,
		})
		if err != nil {
			return nil, fmt.Errorf("audio capture: %w", err)
		}
		a.capture = capture
		a.sampleRate = capture.SampleRate()
		a.producer = audio.NewProducer(audio.ProducerConfig{
			SampleRate: capture.SampleRate(),
			Bins:       cfg.Bins,
		})
		a.log.Printf("audio capture started on %q @ %.0f Hz", capture.DeviceName(), capture.SampleRate())
	}

	a.renderer = a.newRenderer(cfg.Emotion)

	if !cfg.Headless && canvas.SupportsWindow() {
		window, err := canvas.NewWindow("lumisonic", cfg.Width, cfg.Height)
		if err != nil {
			return nil, fmt.Errorf("open window: %w", err)
		}
		a.window = window
	} else if !cfg.Headless {
		a.log.Println("no window backend compiled in, running headless")
	}

	a.last = time.Now()
	return a, nil
}

// Close releases the audio and window resources.
func (a *App) Close() error {
	if a.window != nil {
		_ = a.window.Close()
	}
	if a.capture != nil {
		return a.capture.Close()
	}
	return nil
}

// Run drives the loop until the context is canceled, the window is closed,
// or the quit key is pressed.
func (a *App) Run(ctx context.Context) error {
	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	a.startInputListener(inputCtx)

	if a.capture != nil {
		go a.produceSpectra(ctx)
	}
	if a.cfg.ListenAddr != "" {
		srv := web.NewServer(a.store, a, a.log)
		go func() {
			if err := srv.Start(ctx, a.cfg.ListenAddr); err != nil {
				a.log.Printf("settings server: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / a.cfg.TargetFPS))
	defer ticker.Stop()

	var cycle <-chan time.Time
	if a.cfg.CycleInterval > 0 {
		ct := time.NewTicker(a.cfg.CycleInterval)
		defer ct.Stop()
		cycle = ct.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cycle:
			a.nextEmotion()
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			switch evt {
			case inputEventQuit:
				return nil
			case inputEventNextEmotion:
				a.nextEmotion()
			case inputEventResetParams:
				a.store.ResetToDefaults()
				a.log.Println("parameters reset to defaults")
			case inputEventToggleMode:
				a.toggleMode()
			}
		case <-ticker.C:
			if err := a.step(); err != nil {
				if errors.Is(err, canvas.ErrWindowClosed) {
					return nil
				}
				return err
			}
		}
	}
}

// Telemetry implements web.Source; it is called from the server goroutine.
func (a *App) Telemetry() web.Telemetry {
	a.telemetryMu.Lock()
	defer a.telemetryMu.Unlock()
	return a.telemetry
}

// produceSpectra is the audio producer: it pulls the latest capture window,
// transforms it, and publishes through the mailbox. The render loop is never
// blocked; it simply reads the latest published frame.
func (a *App) produceSpectra(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var samples []float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			samples = a.capture.Samples(samples)
			a.mailbox.Publish(a.producer.Process(samples))
		}
	}
}

func (a *App) step() error {
	now := time.Now()
	dt := now.Sub(a.last).Seconds()
	a.last = now
	if dt <= 0 {
		dt = 1.0 / a.cfg.TargetFPS
	}
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	p := a.store.Snapshot()
	bins := a.currentFrame(dt)
	feats := a.renderer.Process(bins, dt, p)

	a.fps += (1.0/dt - a.fps) * 0.1
	a.publishTelemetry(feats)

	if a.window == nil {
		return nil
	}
	a.renderer.Render(a.img, p)
	return a.window.Present(a.img, a.statusLine(feats))
}

func (a *App) currentFrame(dt float64) []float64 {
	if a.synth != nil {
		return a.synth.Frame(dt)
	}
	if f := a.mailbox.Latest(); f != nil {
		return f.Bins
	}
	return make([]float64, a.cfg.Bins) // nothing captured yet
}

func (a *App) publishTelemetry(f feature.Features) {
	a.telemetryMu.Lock()
	a.telemetry = web.Telemetry{
		FPS:           a.fps,
		Emotion:       a.renderer.Emotion().String(),
		Volume:        f.Volume,
		VolumeChange:  f.VolumeChange,
		RhythmTier:    f.RhythmTier,
		DominantBin:   f.DominantBin,
		Concentration: f.Concentration,
		TotalEnergy:   f.TotalEnergy,
		Particles:     a.renderer.ParticleCount(),
	}
	a.telemetryMu.Unlock()
}

func (a *App) statusLine(f feature.Features) string {
	return fmt.Sprintf("lumisonic | %s | vol %.2f | tier %d | %d particles | %.0f fps",
		a.renderer.Emotion(), f.Volume, f.RhythmTier, a.renderer.ParticleCount(), a.fps)
}

func (a *App) newRenderer(e emotion.Emotion) *emotion.Renderer {
	return emotion.New(emotion.Config{
		Emotion:    e,
		SampleRate: a.sampleRate,
		Seed:       a.cfg.Seed,
	})
}

// nextEmotion swaps in a fresh renderer for the next variant. Scene state
// intentionally restarts; each emotion owns its own kernel populations.
func (a *App) nextEmotion() {
	all := emotion.All()
	cur := a.renderer.Emotion()
	next := all[0]
	for i, e := range all {
		if e == cur {
			next = all[(i+1)%len(all)]
			break
		}
	}
	a.renderer = a.newRenderer(next)
	a.log.Printf("emotion -> %s", next)
}

func (a *App) toggleMode() {
	s := a.store.Snapshot()
	if s.Mode == params.DisplaySides {
		s.Mode = params.DisplayTopBottom
	} else {
		s.Mode = params.DisplaySides
	}
	a.store.Update(s)
	a.log.Printf("display mode -> %s", s.Mode)
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() { _ = keyboard.Close() })
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() { _ = keyboard.Close() })
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || char == 'q' || char == 'Q':
				events <- inputEventQuit
				return
			case key == keyboard.KeySpace || char == 'e' || char == 'E':
				events <- inputEventNextEmotion
			case char == 'r' || char == 'R':
				events <- inputEventResetParams
			case char == 'o' || char == 'O':
				events <- inputEventToggleMode
			}
		}
	}()
}
