package metrics

import (
	"math"

	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

// Stability is the fraction of observed steps in which every particle was
// finite and within threshold of the origin.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sp *space.Space, t float64) {
	s.samples++
	store := sp.Store()
	for _, p := range store.Particles.Positions()[:store.Used(memory.KindParticles)] {
		d := float64(p.Vec3().Len())
		if math.IsNaN(d) || d > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
