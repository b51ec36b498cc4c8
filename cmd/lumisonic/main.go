package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/lumisonic/lumisonic/internal/app"
	"github.com/lumisonic/lumisonic/internal/audio"
	"github.com/lumisonic/lumisonic/internal/emotion"
	"github.com/lumisonic/lumisonic/internal/params"
)

func main() {
	var (
		deviceName  = flag.String("audio-device", "", "PortAudio input device (substring match, empty = auto)")
		width       = flag.Int("width", 960, "Window width in pixels")
		height      = flag.Int("height", 540, "Window height in pixels")
		targetFPS   = flag.Float64("fps", 60, "Target frames per second")
		windowSize  = flag.Int("buffer-size", 4096, "Audio analysis window in samples")
		bins        = flag.Int("bins", 128, "Spectrum resolution handed to the renderers")
		noAudio     = flag.Bool("no-audio", false, "Run with a synthetic spectrum (no microphone)")
		emotionName = flag.String("emotion", "bars", "Renderer variant (bars|anger|anticipation|joy|disgust|trust|sadness|surprise)")
		displayMode = flag.String("display", "top-bottom", "Display orientation (top-bottom|sides)")
		cycleSecs   = flag.Float64("cycle", 0, "Auto-cycle emotions every N seconds (0 = off)")
		listenAddr  = flag.String("listen", "", "Settings/telemetry server address (e.g. :8080, empty = off)")
		headless    = flag.Bool("headless", false, "Run the simulation without opening a window")
		seed        = flag.Int64("seed", 0, "Deterministic seed for all kernels (0 = random)")
		listDevs    = flag.Bool("list-audio-devices", false, "List audio input devices and exit")
		debug       = flag.Bool("debug", false, "Verbose logging")
	)
	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}

	logger := log.New(os.Stderr, "[lumisonic] ", log.LstdFlags)
	if !*debug {
		logger.SetFlags(0)
	}

	needAudio := !*noAudio || *listDevs
	if needAudio {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
	}

	if *listDevs {
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		fmt.Println("audio input devices:")
		for _, dev := range devices {
			if dev.MaxInput == 0 {
				continue
			}
			marker := ""
			if dev.IsDefaultInput {
				marker = " (default)"
			}
			fmt.Printf("  %s [%s]%s  inputs:%d sample:%.0f Hz\n",
				dev.Name, dev.HostAPI, marker, dev.MaxInput, dev.DefaultSampleHz)
		}
		return
	}

	if fd := int(os.Stdout.Fd()); !term.IsTerminal(fd) {
		// Piped output: keep the log parseable.
		logger.SetPrefix("")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		DeviceName:    *deviceName,
		Width:         *width,
		Height:        *height,
		TargetFPS:     *targetFPS,
		WindowSize:    *windowSize,
		Bins:          *bins,
		DisableAudio:  *noAudio,
		Emotion:       emotion.ParseEmotion(*emotionName),
		Mode:          params.ParseDisplayMode(*displayMode),
		CycleInterval: time.Duration(*cycleSecs * float64(time.Second)),
		ListenAddr:    *listenAddr,
		Headless:      *headless,
		Seed:          *seed,
		Log:           logger,
	})
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}
}
