package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// Cloth is a rectangular sheet in the XZ plane with stretch and shear
// springs and two triangles per cell.
type Cloth struct {
	Width, Depth int
	Spacing      float32
	Mass         float32
	Stiffness    float32
	Origin       mgl32.Vec3
	// PinCorners makes the two corners on the Z=0 edge static.
	PinCorners bool
}

func NewCloth() *Cloth {
	return &Cloth{
		Width:      10,
		Depth:      10,
		Spacing:    0.1,
		Mass:       0.2,
		Stiffness:  0.8,
		Origin:     mgl32.Vec3{0, 2, 0},
		PinCorners: true,
	}
}

func (c *Cloth) Name() string { return "cloth" }

func (c *Cloth) Configure(b *body.Body) {
	b.SetCollisionFlag(body.CollisionFlagSelfCollide, true)
}

func (c *Cloth) index(x, z int) int { return z*c.Width + x }

func (c *Cloth) Build() *body.Model {
	positions := make([]mgl32.Vec3, 0, c.Width*c.Depth)
	for z := 0; z < c.Depth; z++ {
		for x := 0; x < c.Width; x++ {
			positions = append(positions, c.Origin.Add(mgl32.Vec3{float32(x) * c.Spacing, 0, float32(z) * c.Spacing}))
		}
	}

	var springs []body.Spring
	var triangles []body.Triangle
	for z := 0; z < c.Depth; z++ {
		for x := 0; x < c.Width; x++ {
			i := c.index(x, z)
			if x+1 < c.Width {
				springs = append(springs, spring(positions, i, c.index(x+1, z), c.Stiffness))
			}
			if z+1 < c.Depth {
				springs = append(springs, spring(positions, i, c.index(x, z+1), c.Stiffness))
			}
			if x+1 < c.Width && z+1 < c.Depth {
				right, down, diag := c.index(x+1, z), c.index(x, z+1), c.index(x+1, z+1)
				springs = append(springs,
					spring(positions, i, diag, c.Stiffness*0.5),
					spring(positions, right, down, c.Stiffness*0.5),
				)
				triangles = append(triangles,
					body.Triangle{body.ParticleIndex(i), body.ParticleIndex(down), body.ParticleIndex(diag)},
					body.Triangle{body.ParticleIndex(i), body.ParticleIndex(diag), body.ParticleIndex(right)},
				)
			}
		}
	}

	masses := uniformMasses(len(positions), c.Mass)
	if c.PinCorners && len(masses) > 0 {
		masses[c.index(0, 0)] = 0
		masses[c.index(c.Width-1, 0)] = 0
	}
	return &body.Model{Positions: positions, Masses: masses, Springs: springs, Triangles: triangles}
}
