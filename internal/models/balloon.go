package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// Balloon is a closed UV sphere with springs along every edge and a pressure
// constraint over its surface.
type Balloon struct {
	Slices    int
	Stacks    int
	Radius    float32
	Mass      float32
	Stiffness float32
	Pressure  float32
	Origin    mgl32.Vec3
}

func NewBalloon() *Balloon {
	return &Balloon{
		Slices:    12,
		Stacks:    6,
		Radius:    0.5,
		Mass:      0.1,
		Stiffness: 0.5,
		Pressure:  1,
		Origin:    mgl32.Vec3{0, 2, 0},
	}
}

func (b *Balloon) Name() string { return "balloon" }

func (b *Balloon) Configure(bd *body.Body) {
	bd.SetCollisionFlag(body.CollisionFlagSelfCollide, false)
}

func (b *Balloon) Build() *body.Model {
	slices := max(b.Slices, 3)
	stacks := max(b.Stacks, 2)

	positions := []mgl32.Vec3{b.Origin.Add(mgl32.Vec3{0, b.Radius, 0})}
	for i := 1; i < stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			positions = append(positions, b.Origin.Add(mgl32.Vec3{
				b.Radius * float32(math.Sin(theta)*math.Cos(phi)),
				b.Radius * float32(math.Cos(theta)),
				b.Radius * float32(math.Sin(theta)*math.Sin(phi)),
			}))
		}
	}
	bottom := len(positions)
	positions = append(positions, b.Origin.Add(mgl32.Vec3{0, -b.Radius, 0}))

	ring := func(i, j int) body.ParticleIndex {
		return body.ParticleIndex(1 + (i-1)*slices + j%slices)
	}

	var triangles []body.Triangle
	for j := 0; j < slices; j++ {
		triangles = append(triangles, body.Triangle{0, ring(1, j+1), ring(1, j)})
	}
	for i := 1; i+1 < stacks; i++ {
		for j := 0; j < slices; j++ {
			a, bb := ring(i, j), ring(i, j+1)
			c, d := ring(i+1, j), ring(i+1, j+1)
			triangles = append(triangles, body.Triangle{a, bb, d}, body.Triangle{a, d, c})
		}
	}
	for j := 0; j < slices; j++ {
		triangles = append(triangles, body.Triangle{ring(stacks-1, j), ring(stacks-1, j+1), body.ParticleIndex(bottom)})
	}

	m := &body.Model{
		Positions: positions,
		Masses:    uniformMasses(len(positions), b.Mass),
		Triangles: triangles,
		Inflatable: &body.Inflatable{
			Pressure:        b.Pressure,
			ConstraintScale: 1,
		},
	}
	orient(m)
	m.Springs = edgeSprings(positions, triangles, b.Stiffness)
	return m
}

// orient flips every triangle when the mesh winds inward, so the enclosed
// volume is positive.
func orient(m *body.Model) {
	var v float32
	for _, t := range m.Triangles {
		p0, p1, p2 := m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]
		v += p0.Sub(m.Positions[0]).Dot(p1.Sub(m.Positions[0]).Cross(p2.Sub(m.Positions[0])))
	}
	if v >= 0 {
		return
	}
	for i, t := range m.Triangles {
		m.Triangles[i] = body.Triangle{t[0], t[2], t[1]}
	}
}
