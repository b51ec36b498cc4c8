// Package canvas provides the abstract 2-D drawing surface the emotion
// renderers target, a software rasterizer implementing it, and an optional
// SDL window for presenting rasterized frames.
package canvas

import "math"

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// WithAlpha returns the color with a replacement alpha.
func (c Color) WithAlpha(a float64) Color {
	c.A = uint8(clamp(a, 0, 1) * 255)
	return c
}

// FromHSV converts hue (degrees), saturation and value in [0,1] plus alpha
// into a Color. Inputs are clamped, hue wraps.
func FromHSV(h, s, v, a float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp(s, 0, 1)
	v = clamp(v, 0, 1)

	sector := h / 60
	i := math.Floor(sector)
	f := sector - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return Color{
		R: uint8(r*255 + 0.5),
		G: uint8(g*255 + 0.5),
		B: uint8(b*255 + 0.5),
		A: uint8(clamp(a, 0, 1)*255 + 0.5),
	}
}

// ToHSV returns hue in degrees and saturation/value in [0,1].
func (c Color) ToHSV() (h, s, v float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}
	if delta == 0 {
		return 0, s, v
	}
	switch maxC {
	case r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// Point is a position in pixel space.
type Point struct {
	X, Y float64
}

// Canvas is the immediate-mode drawing contract the simulation renders
// against. Implementations may rasterize, record, or forward draw calls.
type Canvas interface {
	Size() (width, height int)
	Clear(c Color)
	FillCircle(cx, cy, radius float64, c Color)
	// RadialGradient fills a circle fading from inner at the center to outer
	// at the rim. Radius is clamped to a small epsilon to keep the gradient
	// well defined.
	RadialGradient(cx, cy, radius float64, inner, outer Color)
	Line(x1, y1, x2, y2, width float64, c Color)
	StrokeCircle(cx, cy, radius, width float64, c Color)
	StrokePath(pts []Point, width float64, c Color)
	FillPath(pts []Point, c Color)
	// VerticalGradient fills the axis-aligned rectangle blending top to
	// bottom.
	VerticalGradient(x, y, w, h float64, top, bottom Color)
}

// QuadCurve flattens the quadratic Bezier (p0, ctrl, p1) into segments
// appended to dst. Control points are the neighbor midpoints scheme used by
// the waveform renderer, giving a C1-continuous curve.
func QuadCurve(dst []Point, p0, ctrl, p1 Point, segments int) []Point {
	if segments < 1 {
		segments = 1
	}
	for i := 1; i <= segments; i++ {
		t := float64(i) / float64(segments)
		mt := 1 - t
		x := mt*mt*p0.X + 2*mt*t*ctrl.X + t*t*p1.X
		y := mt*mt*p0.Y + 2*mt*t*ctrl.Y + t*t*p1.Y
		dst = append(dst, Point{X: x, Y: y})
	}
	return dst
}

// SmoothPath connects samples with quadratic segments whose endpoints are
// neighbor midpoints, avoiding the visible kinks of plain polylines at
// audio-reactive amplitudes.
func SmoothPath(samples []Point, segmentsPer int) []Point {
	if len(samples) < 3 {
		out := make([]Point, len(samples))
		copy(out, samples)
		return out
	}
	out := make([]Point, 0, (len(samples)-1)*segmentsPer+1)
	out = append(out, samples[0])

	prev := samples[0]
	for i := 1; i < len(samples)-1; i++ {
		mid := Point{
			X: (samples[i].X + samples[i+1].X) / 2,
			Y: (samples[i].Y + samples[i+1].Y) / 2,
		}
		out = QuadCurve(out, prev, samples[i], mid, segmentsPer)
		prev = mid
	}
	out = append(out, samples[len(samples)-1])
	return out
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
