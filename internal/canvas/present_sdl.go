//go:build sdl

package canvas

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"
)

// ErrWindowClosed is returned by Present when the user closes the window.
var ErrWindowClosed = errors.New("canvas: window closed")

// Window presents rasterized frames through an SDL streaming texture.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	width    int
	height   int
	title    string
}

// NewWindow opens an SDL window sized to the rasterizer output.
func NewWindow(title string, width, height int) (*Window, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, err
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, err
	}
	_ = renderer.SetLogicalSize(int32(width), int32(height))
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height),
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, err
	}
	return &Window{
		window:   window,
		renderer: renderer,
		texture:  texture,
		width:    width,
		height:   height,
		title:    title,
	}, nil
}

// Present uploads the image and flips it to the screen. Returns
// ErrWindowClosed once a quit event has been received.
func (w *Window) Present(img *Image, status string) error {
	if img.W != w.width || img.H != w.height {
		return errors.New("canvas: image size does not match window")
	}
	if status != "" && status != w.title {
		_ = w.window.SetTitle(status)
		w.title = status
	}
	if err := w.texture.Update(nil, img.Pix, w.width*4); err != nil {
		return err
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return err
	}
	w.renderer.Present()

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch event.(type) {
		case *sdl.QuitEvent:
			return ErrWindowClosed
		}
	}
	return nil
}

// Close releases the SDL resources.
func (w *Window) Close() error {
	if w.texture != nil {
		w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsWindow reports whether the binary was built with the SDL backend.
func SupportsWindow() bool { return true }
