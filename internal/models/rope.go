package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// Rope is a chain of particles along +X with stretch and bend springs.
type Rope struct {
	Segments  int
	Spacing   float32
	Mass      float32
	Stiffness float32
	Origin    mgl32.Vec3
	// Pinned makes the first particle static.
	Pinned bool
}

func NewRope() *Rope {
	return &Rope{
		Segments:  16,
		Spacing:   0.1,
		Mass:      1,
		Stiffness: 1,
		Origin:    mgl32.Vec3{0, 2, 0},
		Pinned:    true,
	}
}

func (r *Rope) Name() string { return "rope" }

func (r *Rope) Configure(b *body.Body) {
	b.SetCollisionFlag(body.CollisionFlagSelfCollide, false)
}

func (r *Rope) Build() *body.Model {
	n := r.Segments + 1
	positions := make([]mgl32.Vec3, n)
	for i := range positions {
		positions[i] = r.Origin.Add(mgl32.Vec3{float32(i) * r.Spacing, 0, 0})
	}

	springs := make([]body.Spring, 0, 2*n)
	for i := 0; i+1 < n; i++ {
		springs = append(springs, spring(positions, i, i+1, r.Stiffness))
	}
	for i := 0; i+2 < n; i++ {
		springs = append(springs, spring(positions, i, i+2, r.Stiffness*0.5))
	}

	masses := uniformMasses(n, r.Mass)
	if r.Pinned {
		masses[0] = 0
	}
	return &body.Model{Positions: positions, Masses: masses, Springs: springs}
}
