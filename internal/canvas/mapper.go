package canvas

// Mapper projects normalized [0,1]x[0,1] simulation coordinates onto pixel
// space. The Sides orientation transposes the axes, so one simulation state
// serves both split-screen layouts without duplication.
type Mapper struct {
	W, H  float64
	Sides bool
}

// NewMapper builds a mapper for a surface of the given pixel size.
func NewMapper(width, height int, sides bool) Mapper {
	return Mapper{W: float64(width), H: float64(height), Sides: sides}
}

// Pt maps a normalized point to pixels.
func (m Mapper) Pt(nx, ny float64) Point {
	if m.Sides {
		nx, ny = ny, nx
	}
	return Point{X: nx * m.W, Y: ny * m.H}
}

// Scale maps a normalized length to pixels along the effect axis.
func (m Mapper) Scale(n float64) float64 {
	if m.Sides {
		return n * m.H
	}
	return n * m.W
}

// MinScale maps a normalized length using the smaller surface dimension,
// keeping circles round in either orientation.
func (m Mapper) MinScale(n float64) float64 {
	if m.W < m.H {
		return n * m.W
	}
	return n * m.H
}
