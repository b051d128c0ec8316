package templates

import (
	"image"
	"math/rand/v2"
	"sync"

	"github.com/menta2k/collage-maker/pkg/types"
)

// Picker draws distinct images from pools. A seeded picker samples at
// random but reproducibly; an ordered picker takes images front to back.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker returns a random picker seeded with seed
func NewPicker(seed uint64) *Picker {
	return &Picker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewOrderedPicker returns a picker that never shuffles
func NewOrderedPicker() *Picker {
	return &Picker{}
}

// Pick selects need[kind] images of every kind. The source pools are left
// untouched.
func (p *Picker) Pick(pools *Pools, need map[types.Kind]int) (*Pools, error) {
	if err := pools.Covers(need); err != nil {
		return nil, err
	}
	out := &Pools{}
	for _, kind := range []types.Kind{types.KindHorizontal, types.KindVertical, types.KindHero} {
		for _, img := range p.draw(pools.Of(kind), need[kind]) {
			out.Add(kind, img)
		}
	}
	return out, nil
}

// Pair draws two distinct images of kind, for splits
func (p *Picker) Pair(pools *Pools, kind types.Kind) (image.Image, image.Image, error) {
	picked, err := p.Pick(pools, map[types.Kind]int{kind: 2})
	if err != nil {
		return nil, nil, err
	}
	imgs := picked.Of(kind)
	return imgs[0], imgs[1], nil
}

// Shuffle permutes imgs in place. Ordered pickers leave them as they are.
func (p *Picker) Shuffle(imgs []image.Image) {
	if p.rng == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(imgs), func(i, j int) { imgs[i], imgs[j] = imgs[j], imgs[i] })
}

func (p *Picker) draw(from []image.Image, n int) []image.Image {
	if n <= 0 {
		return nil
	}
	if p.rng == nil {
		return from[:n:n]
	}

	p.mu.Lock()
	perm := p.rng.Perm(len(from))
	p.mu.Unlock()

	out := make([]image.Image, n)
	for i := range out {
		out[i] = from[perm[i]]
	}
	return out
}
