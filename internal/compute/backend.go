package compute

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
)

// Plane is a collision primitive. Particles are kept on the side where
// Normal·x + Offset >= 0.
type Plane struct {
	Normal mgl32.Vec3
	Offset float32
	// Channels is the 8-bit mask matched against the top byte of a
	// particle's phase.
	Channels uint32
}

// Contact reports a particle pushed out of a primitive during a step.
// Particle is an absolute slot and Primitive indexes Frame.Primitives.
type Contact struct {
	Particle  int
	Primitive int
	Velocity  mgl32.Vec3
	Normal    mgl32.Vec3
}

// Frame is everything a backend reads and writes during one step.
type Frame struct {
	Store *memory.Store
	// RigidOffsets holds the absolute end of each rigid's component run,
	// preceded by a leading zero.
	RigidOffsets []int32
	Primitives   []Plane
}

type Backend interface {
	Name() string
	Available() bool
	Step(f *Frame, dt float32) []Contact
	Cleanup()
}

// AutoSelectBackend prefers the native solver and falls back to the CPU
// reference backend.
func AutoSelectBackend(p Params) Backend {
	flex := NewFlexBackend(p)
	if flex.Available() {
		return flex
	}
	return NewCPUBackend(p)
}

// ByName returns the backend registered under name, or nil.
func ByName(name string, p Params) Backend {
	switch name {
	case "", "auto":
		return AutoSelectBackend(p)
	case "cpu":
		return NewCPUBackend(p)
	case "flex":
		return NewFlexBackend(p)
	}
	return nil
}
