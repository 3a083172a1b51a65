package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// FluidBlock is a cube of free particles in the fluid phase.
type FluidBlock struct {
	Size    int
	Spacing float32
	Mass    float32
	Origin  mgl32.Vec3
}

func NewFluidBlock() *FluidBlock {
	return &FluidBlock{
		Size:    6,
		Spacing: 0.1,
		Mass:    0.1,
		Origin:  mgl32.Vec3{0, 1, 0},
	}
}

func (f *FluidBlock) Name() string { return "fluid" }

func (f *FluidBlock) Configure(b *body.Body) {
	b.SetCollisionFlag(body.CollisionFlagFluid, true)
	b.SetCollisionFlag(body.CollisionFlagSelfCollide, true)
}

func (f *FluidBlock) Build() *body.Model {
	positions := lattice(f.Size, f.Spacing, f.Origin)
	return &body.Model{Positions: positions, Masses: uniformMasses(len(positions), f.Mass)}
}
