// Package models builds the initial content of common particle bodies.
package models

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
)

// Builder produces a body model and the body settings it relies on.
type Builder interface {
	Name() string
	Build() *body.Model
	// Configure applies collision settings before the model is loaded.
	Configure(b *body.Body)
}

func uniformMasses(n int, mass float32) []float32 {
	masses := make([]float32, n)
	for i := range masses {
		masses[i] = mass
	}
	return masses
}

func spring(positions []mgl32.Vec3, a, b int, stiffness float32) body.Spring {
	return body.Spring{
		A:         body.ParticleIndex(a),
		B:         body.ParticleIndex(b),
		Length:    positions[b].Sub(positions[a]).Len(),
		Stiffness: stiffness,
	}
}

// edgeSprings connects every distinct triangle edge once.
func edgeSprings(positions []mgl32.Vec3, triangles []body.Triangle, stiffness float32) []body.Spring {
	seen := make(map[[2]body.ParticleIndex]bool)
	var springs []body.Spring
	for _, t := range triangles {
		for k := 0; k < 3; k++ {
			a, b := t[k], t[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			if seen[[2]body.ParticleIndex{a, b}] {
				continue
			}
			seen[[2]body.ParticleIndex{a, b}] = true
			springs = append(springs, spring(positions, int(a), int(b), stiffness))
		}
	}
	return springs
}

// lattice places n×n×n particles on a cubic grid starting at origin.
func lattice(n int, spacing float32, origin mgl32.Vec3) []mgl32.Vec3 {
	positions := make([]mgl32.Vec3, 0, n*n*n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				positions = append(positions, origin.Add(mgl32.Vec3{
					float32(x) * spacing,
					float32(y) * spacing,
					float32(z) * spacing,
				}))
			}
		}
	}
	return positions
}
