package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

type Metric interface {
	Name() string
	Observe(sp *space.Space, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(sp *space.Space, step int, t float64)
}

// Event mutates the space once simulated time reaches At.
type Event struct {
	At    float64
	Name  string
	Apply func(sp *space.Space) error
}

type Config struct {
	Dt       float64
	Duration float64
	// SampleEvery records a Sample every n steps; 0 records every step.
	SampleEvery   int
	ValidateState bool
}

// Sample summarizes the particle buffer at one instant.
type Sample struct {
	Time          float64
	Particles     int
	KineticEnergy float64
	Center        mgl32.Vec3
	MinHeight     float32
}

type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	Errors     []error
	Events     []string
	StepsTaken int
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim error at t=%.4f (step %d): %s", e.Time, e.Step, e.Message)
}

// Summarize measures every live particle of the space. Static particles
// count toward the center but carry no kinetic energy.
func Summarize(sp *space.Space, t float64) Sample {
	store := sp.Store()
	n := store.Used(memory.KindParticles)
	s := Sample{Time: t, Particles: n}
	if n == 0 {
		return s
	}

	positions := store.Particles.Positions()[:n]
	velocities := store.Particles.Velocities()[:n]
	s.MinHeight = float32(math.Inf(1))
	for i, p := range positions {
		s.Center = s.Center.Add(p.Vec3())
		if p[1] < s.MinHeight {
			s.MinHeight = p[1]
		}
		if p[3] > 0 {
			v := velocities[i]
			s.KineticEnergy += 0.5 * float64(v.Dot(v)/p[3])
		}
	}
	s.Center = s.Center.Mul(1 / float32(n))
	return s
}

// Valid reports whether every live particle has a finite position.
func Valid(sp *space.Space) bool {
	store := sp.Store()
	for _, p := range store.Particles.Positions()[:store.Used(memory.KindParticles)] {
		for _, c := range p {
			f := float64(c)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
	}
	return true
}
