//go:build !sdl

package canvas

import "errors"

// ErrWindowClosed is returned by Present when the user closes the window.
var ErrWindowClosed = errors.New("canvas: window closed")

// Window is unavailable without the SDL backend.
type Window struct{}

// NewWindow fails unless the binary was built with -tags sdl.
func NewWindow(title string, width, height int) (*Window, error) {
	return nil, errors.New("canvas: SDL backend not enabled; rebuild with -tags sdl")
}

// Present is unreachable in stub builds.
func (w *Window) Present(img *Image, status string) error {
	return ErrWindowClosed
}

// Close is a no-op in stub builds.
func (w *Window) Close() error { return nil }

// SupportsWindow reports whether the binary was built with the SDL backend.
func SupportsWindow() bool { return false }
