package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// RigidBox is a cube of Size³ particles held together by one rigid cluster.
type RigidBox struct {
	Size      int
	Spacing   float32
	Mass      float32
	Stiffness float32
	Origin    mgl32.Vec3
}

func NewRigidBox() *RigidBox {
	return &RigidBox{
		Size:      3,
		Spacing:   0.2,
		Mass:      1,
		Stiffness: 1,
		Origin:    mgl32.Vec3{0, 3, 0},
	}
}

func (r *RigidBox) Name() string { return "rigid_box" }

func (r *RigidBox) Configure(b *body.Body) {}

func (r *RigidBox) Build() *body.Model {
	positions := lattice(r.Size, r.Spacing, r.Origin)
	components := make([]body.ParticleIndex, len(positions))
	for i := range components {
		components[i] = body.ParticleIndex(i)
	}
	return &body.Model{
		Positions: positions,
		Masses:    uniformMasses(len(positions), r.Mass),
		Rigids:    []body.Rigid{{Stiffness: r.Stiffness, Components: components}},
	}
}
