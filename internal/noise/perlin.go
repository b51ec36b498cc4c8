// Package noise implements classic improved 3-D Perlin noise used as the
// turbulence source for waveform and particle motion.
package noise

import "math/rand"

// Perlin is a seedable improved-noise generator. A given seed always yields
// the same permutation table, so sampled values are reproducible.
type Perlin struct {
	perm [512]int
}

// New builds a generator from the given seed.
func New(seed int64) *Perlin {
	p := &Perlin{}
	rng := rand.New(rand.NewSource(seed))

	var base [256]int
	for i := range base {
		base[i] = i
	}
	rng.Shuffle(len(base), func(i, j int) {
		base[i], base[j] = base[j], base[i]
	})
	for i := 0; i < 256; i++ {
		p.perm[i] = base[i]
		p.perm[i+256] = base[i]
	}
	return p
}

// At samples the noise field at (x, y, z). Output is in roughly [-1, 1].
func (p *Perlin) At(x, y, z float64) float64 {
	xi := fastFloor(x)
	yi := fastFloor(y)
	zi := fastFloor(z)

	xf := x - float64(xi)
	yf := y - float64(yi)
	zf := z - float64(zi)

	xi &= 255
	yi &= 255
	zi &= 255

	u := fade(xf)
	v := fade(yf)
	w := fade(zf)

	a := p.perm[xi] + yi
	aa := p.perm[a] + zi
	ab := p.perm[a+1] + zi
	b := p.perm[xi+1] + yi
	ba := p.perm[b] + zi
	bb := p.perm[b+1] + zi

	return lerp(w,
		lerp(v,
			lerp(u, grad(p.perm[aa], xf, yf, zf), grad(p.perm[ba], xf-1, yf, zf)),
			lerp(u, grad(p.perm[ab], xf, yf-1, zf), grad(p.perm[bb], xf-1, yf-1, zf))),
		lerp(v,
			lerp(u, grad(p.perm[aa+1], xf, yf, zf-1), grad(p.perm[ba+1], xf-1, yf, zf-1)),
			lerp(u, grad(p.perm[ab+1], xf, yf-1, zf-1), grad(p.perm[bb+1], xf-1, yf-1, zf-1))))
}

// At2 samples a 2-D slice of the field.
func (p *Perlin) At2(x, y float64) float64 {
	return p.At(x, y, 0)
}

// Fractal sums octaves of noise with halving amplitude and doubling
// frequency, normalized back into roughly [-1, 1].
func (p *Perlin) Fractal(x, y, z float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	amp := 0.5
	freq := 1.0
	total := 0.0
	sumAmp := 0.0
	for i := 0; i < octaves; i++ {
		total += p.At(x*freq, y*freq, z*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2.0
	}
	if sumAmp == 0 {
		return 0
	}
	return total / sumAmp
}

// fade is the improved-noise quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y, z float64) float64 {
	switch hash & 15 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x + z
	case 5:
		return -x + z
	case 6:
		return x - z
	case 7:
		return -x - z
	case 8:
		return y + z
	case 9:
		return -y + z
	case 10:
		return y - z
	case 11:
		return -y - z
	case 12:
		return y + x
	case 13:
		return -y + z
	case 14:
		return y - x
	default:
		return -y - z
	}
}

func fastFloor(v float64) int {
	i := int(v)
	if v < float64(i) {
		return i - 1
	}
	return i
}
