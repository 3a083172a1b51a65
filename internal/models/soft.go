package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/compute"
)

// SolverTuner is implemented by builders that need solver settings the
// config left at zero.
type SolverTuner interface {
	TuneSolver(p *compute.Params)
}

// SoftBlock is a lattice of particles shaped by overlapping rigid clusters.
// Cluster and link distances are in multiples of Spacing. Neighbouring
// clusters share particles, and link springs connect particles closer than
// LinkRadius.
//
// Every particle belongs to at least one cluster as long as ClusterRadius is
// at least ClusterSpacing·√3/2.
type SoftBlock struct {
	Size    int
	Spacing float32
	Mass    float32
	Origin  mgl32.Vec3

	ClusterSpacing   float32
	ClusterRadius    float32
	ClusterStiffness float32
	LinkRadius       float32
	LinkStiffness    float32
	PlasticThreshold float32
	PlasticCreep     float32
}

func NewSoftBlock() *SoftBlock {
	return &SoftBlock{
		Size:             4,
		Spacing:          0.1,
		Mass:             1,
		Origin:           mgl32.Vec3{0, 2, 0},
		ClusterSpacing:   2,
		ClusterRadius:    1.8,
		ClusterStiffness: 0.5,
		LinkRadius:       1.01,
		LinkStiffness:    0.2,
	}
}

func (s *SoftBlock) Name() string { return "soft" }

func (s *SoftBlock) Configure(b *body.Body) {}

func (s *SoftBlock) TuneSolver(p *compute.Params) {
	if p.PlasticThreshold == 0 && p.PlasticCreep == 0 {
		p.PlasticThreshold = s.PlasticThreshold * s.Spacing
		p.PlasticCreep = s.PlasticCreep
	}
}

func (s *SoftBlock) Build() *body.Model {
	positions := lattice(s.Size, s.Spacing, s.Origin)
	m := &body.Model{
		Positions: positions,
		Masses:    uniformMasses(len(positions), s.Mass),
	}

	step := s.ClusterSpacing * s.Spacing
	radius := s.ClusterRadius * s.Spacing
	extent := float32(s.Size-1) * s.Spacing
	perAxis := 1
	if step > 0 {
		perAxis = int(extent/step+1e-4) + 1
	}
	for x := 0; x < perAxis; x++ {
		for y := 0; y < perAxis; y++ {
			for z := 0; z < perAxis; z++ {
				center := s.Origin.Add(mgl32.Vec3{float32(x) * step, float32(y) * step, float32(z) * step})
				var components []body.ParticleIndex
				for i, p := range positions {
					if p.Sub(center).Len() <= radius {
						components = append(components, body.ParticleIndex(i))
					}
				}
				if len(components) > 0 {
					m.Rigids = append(m.Rigids, body.Rigid{Stiffness: s.ClusterStiffness, Components: components})
				}
			}
		}
	}

	if s.LinkRadius > 0 {
		link := s.LinkRadius * s.Spacing
		for a := range positions {
			for b := a + 1; b < len(positions); b++ {
				if positions[b].Sub(positions[a]).Len() <= link {
					m.Springs = append(m.Springs, spring(positions, a, b, s.LinkStiffness))
				}
			}
		}
	}
	return m
}
