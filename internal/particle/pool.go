// Package particle implements the generic pooled particle kernel the emotion
// renderers instantiate with their own tuning: spectrum-gated spawning,
// dt-scaled integration under force fields, tiered rhythm bursts, and
// free-list recycling so steady-state play allocates nothing.
package particle

// Kind tags the visual variant of a particle.
type Kind int

const (
	KindBasic Kind = iota
	KindGlow
	KindTrail
	KindVocal
	KindShockwave
)

// Particle lives in normalized [0,1]x[0,1] space and is owned by exactly one
// kernel. Instances are pooled; never retain a pointer across frames.
type Particle struct {
	X, Y        float64
	VX, VY      float64
	Size        float64
	Alpha       float64 // [0,1]
	Lifespan    float64 // seconds remaining
	MaxLifespan float64
	Kind        Kind

	poolIndex int
}

// Pool is a fixed-capacity free list with swap-and-pop release. Index-based
// handles keep releases O(1) and the backing array stable, so a full
// generate/update/recycle cycle causes no heap churn.
type Pool struct {
	items  []*Particle
	active int
}

// NewPool pre-allocates size particles.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{items: make([]*Particle, size)}
	for i := range p.items {
		p.items[i] = &Particle{poolIndex: i}
	}
	return p
}

// Cap returns the hard population limit.
func (p *Pool) Cap() int {
	return len(p.items)
}

// Len returns the live population.
func (p *Pool) Len() int {
	return p.active
}

// Acquire returns a recycled particle, or nil when the population is at its
// cap. Callers treat nil as backpressure and drop the spawn.
func (p *Pool) Acquire() *Particle {
	if p.active >= len(p.items) {
		return nil
	}
	item := p.items[p.active]
	*item = Particle{poolIndex: p.active}
	p.active++
	return item
}

// Release returns the particle at the given live index to the free list.
func (p *Pool) Release(index int) {
	if index < 0 || index >= p.active {
		return
	}
	last := p.active - 1
	if index != last {
		p.items[index], p.items[last] = p.items[last], p.items[index]
		p.items[index].poolIndex = index
		p.items[last].poolIndex = last
	}
	p.active--
}

// Active returns the live slice, valid until the next Acquire or Release.
func (p *Pool) Active() []*Particle {
	return p.items[:p.active]
}

// Reset recycles every live particle.
func (p *Pool) Reset() {
	p.active = 0
}
