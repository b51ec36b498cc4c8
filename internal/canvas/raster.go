package canvas

import (
	"math"
	"sort"
)

// gradientEpsilon is the smallest radius a radial gradient may have; smaller
// requests are clamped rather than rejected.
const gradientEpsilon = 1e-3

// Image is a software rasterizer over a packed RGBA buffer. It implements
// Canvas and can be presented through the SDL window or inspected in tests.
type Image struct {
	W, H int
	Pix  []byte // RGBA, W*4 pitch
}

// NewImage allocates a rasterizer of the given size.
func NewImage(w, h int) *Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Image{W: w, H: h, Pix: make([]byte, w*h*4)}
}

// Size implements Canvas.
func (img *Image) Size() (int, int) {
	return img.W, img.H
}

// Clear implements Canvas.
func (img *Image) Clear(c Color) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}

// At returns the pixel color at (x, y), zero outside the buffer.
func (img *Image) At(x, y int) Color {
	if x < 0 || y < 0 || x >= img.W || y >= img.H {
		return Color{}
	}
	i := (y*img.W + x) * 4
	return Color{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
}

// blend draws src over the destination pixel using its alpha.
func (img *Image) blend(x, y int, c Color) {
	if x < 0 || y < 0 || x >= img.W || y >= img.H || c.A == 0 {
		return
	}
	i := (y*img.W + x) * 4
	a := uint32(c.A)
	ia := 255 - a
	img.Pix[i+0] = uint8((uint32(c.R)*a + uint32(img.Pix[i+0])*ia) / 255)
	img.Pix[i+1] = uint8((uint32(c.G)*a + uint32(img.Pix[i+1])*ia) / 255)
	img.Pix[i+2] = uint8((uint32(c.B)*a + uint32(img.Pix[i+2])*ia) / 255)
	out := a + uint32(img.Pix[i+3])*ia/255
	if out > 255 {
		out = 255
	}
	img.Pix[i+3] = uint8(out)
}

// FillCircle implements Canvas.
func (img *Image) FillCircle(cx, cy, radius float64, c Color) {
	if radius <= 0 {
		return
	}
	x0, x1, y0, y1 := circleBounds(cx, cy, radius, img.W, img.H)
	r2 := radius * radius
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy <= r2 {
				img.blend(x, y, c)
			}
		}
	}
}

// RadialGradient implements Canvas.
func (img *Image) RadialGradient(cx, cy, radius float64, inner, outer Color) {
	if radius < gradientEpsilon {
		radius = gradientEpsilon
	}
	x0, x1, y0, y1 := circleBounds(cx, cy, radius, img.W, img.H)
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist > radius {
				continue
			}
			img.blend(x, y, lerpColor(inner, outer, dist/radius))
		}
	}
}

// Line implements Canvas.
func (img *Image) Line(x1, y1, x2, y2, width float64, c Color) {
	img.strokeSegment(Point{x1, y1}, Point{x2, y2}, width, c)
}

// StrokeCircle implements Canvas by rasterizing the ring directly.
func (img *Image) StrokeCircle(cx, cy, radius, width float64, c Color) {
	if radius <= 0 {
		return
	}
	if width <= 0 {
		width = 1
	}
	half := width / 2
	x0, x1, y0, y1 := circleBounds(cx, cy, radius+half, img.W, img.H)
	for y := y0; y <= y1; y++ {
		dy := float64(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dist := math.Sqrt(dx*dx + dy*dy)
			if math.Abs(dist-radius) <= half {
				img.blend(x, y, c)
			}
		}
	}
}

// StrokePath implements Canvas.
func (img *Image) StrokePath(pts []Point, width float64, c Color) {
	for i := 1; i < len(pts); i++ {
		img.strokeSegment(pts[i-1], pts[i], width, c)
	}
}

// FillPath implements Canvas using even-odd scanline filling.
func (img *Image) FillPath(pts []Point, c Color) {
	if len(pts) < 3 {
		return
	}
	minY := math.Inf(1)
	maxY := math.Inf(-1)
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	y0 := int(math.Max(0, math.Floor(minY)))
	y1 := int(math.Min(float64(img.H-1), math.Ceil(maxY)))

	var xs []float64
	for y := y0; y <= y1; y++ {
		scan := float64(y) + 0.5
		xs = xs[:0]
		j := len(pts) - 1
		for i := 0; i < len(pts); i++ {
			a, b := pts[j], pts[i]
			j = i
			if (a.Y <= scan) == (b.Y <= scan) {
				continue
			}
			t := (scan - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
		sort.Float64s(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			xa := int(math.Max(0, math.Ceil(xs[k]-0.5)))
			xb := int(math.Min(float64(img.W-1), math.Floor(xs[k+1]-0.5)))
			for x := xa; x <= xb; x++ {
				img.blend(x, y, c)
			}
		}
	}
}

// VerticalGradient implements Canvas.
func (img *Image) VerticalGradient(x, y, w, h float64, top, bottom Color) {
	if w <= 0 || h <= 0 {
		return
	}
	x0 := int(math.Max(0, math.Floor(x)))
	x1 := int(math.Min(float64(img.W-1), math.Ceil(x+w-1)))
	y0 := int(math.Max(0, math.Floor(y)))
	y1 := int(math.Min(float64(img.H-1), math.Ceil(y+h-1)))
	for yy := y0; yy <= y1; yy++ {
		t := 0.0
		if h > 1 {
			t = clamp((float64(yy)+0.5-y)/h, 0, 1)
		}
		c := lerpColor(top, bottom, t)
		for xx := x0; xx <= x1; xx++ {
			img.blend(xx, yy, c)
		}
	}
}

func (img *Image) strokeSegment(a, b Point, width float64, c Color) {
	if width <= 0 {
		width = 1
	}
	half := width / 2
	minX := int(math.Max(0, math.Floor(math.Min(a.X, b.X)-half-1)))
	maxX := int(math.Min(float64(img.W-1), math.Ceil(math.Max(a.X, b.X)+half+1)))
	minY := int(math.Max(0, math.Floor(math.Min(a.Y, b.Y)-half-1)))
	maxY := int(math.Min(float64(img.H-1), math.Ceil(math.Max(a.Y, b.Y)+half+1)))

	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			t := 0.0
			if lenSq > 0 {
				t = clamp(((px-a.X)*abx+(py-a.Y)*aby)/lenSq, 0, 1)
			}
			dx := px - (a.X + t*abx)
			dy := py - (a.Y + t*aby)
			if dx*dx+dy*dy <= half*half {
				img.blend(x, y, c)
			}
		}
	}
}

func circleBounds(cx, cy, r float64, w, h int) (x0, x1, y0, y1 int) {
	x0 = int(math.Max(0, math.Floor(cx-r)))
	x1 = int(math.Min(float64(w-1), math.Ceil(cx+r)))
	y0 = int(math.Max(0, math.Floor(cy-r)))
	y1 = int(math.Min(float64(h-1), math.Ceil(cy+r)))
	return
}

func lerpColor(a, b Color, t float64) Color {
	t = clamp(t, 0, 1)
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}
