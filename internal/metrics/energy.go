package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

// totalEnergy returns the kinetic and potential energy of every dynamic
// particle. Potential energy is measured against the plane through the
// origin perpendicular to gravity.
func totalEnergy(sp *space.Space, gravity mgl32.Vec3) (kinetic, potential float64) {
	store := sp.Store()
	n := store.Used(memory.KindParticles)
	positions := store.Particles.Positions()[:n]
	velocities := store.Particles.Velocities()[:n]
	for i, p := range positions {
		if p[3] == 0 {
			continue
		}
		mass := float64(1 / p[3])
		v := velocities[i]
		kinetic += 0.5 * mass * float64(v.Dot(v))
		potential -= mass * float64(gravity.Dot(p.Vec3()))
	}
	return kinetic, potential
}

// Energy is the mean kinetic energy over the run.
type Energy struct {
	name    string
	samples int
	total   float64
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(sp *space.Space, t float64) {
	ke, _ := totalEnergy(sp, mgl32.Vec3{})
	e.total += ke
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of total energy seen since the
// first observation.
type EnergyDrift struct {
	name          string
	gravity       mgl32.Vec3
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity mgl32.Vec3) *EnergyDrift {
	return &EnergyDrift{
		name:    "energy_drift",
		gravity: gravity,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(sp *space.Space, t float64) {
	ke, pe := totalEnergy(sp, e.gravity)
	energy := ke + pe

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
