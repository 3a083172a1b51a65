package memory

import "github.com/go-gl/mathgl/mgl32"

// MakeParticle packs a position and a mass into the solver layout: xyz holds
// the position and w the inverse mass. Non-positive masses pack as zero
// inverse mass, which the solver treats as immovable.
func MakeParticle(pos mgl32.Vec3, mass float32) mgl32.Vec4 {
	var inv float32
	if mass > 0 {
		inv = 1 / mass
	}
	return pos.Vec4(inv)
}

func ExtractPosition(p mgl32.Vec4) mgl32.Vec3 { return p.Vec3() }

func ExtractMass(p mgl32.Vec4) float32 {
	if p[3] == 0 {
		return 0
	}
	return 1 / p[3]
}

// ParticlesMemory holds packed position+inverse-mass, velocity, normal and
// phase columns.
type ParticlesMemory struct {
	table
	positions  column[mgl32.Vec4]
	velocities column[mgl32.Vec3]
	normals    column[mgl32.Vec4]
	phases     column[int32]
}

func NewParticlesMemory() *ParticlesMemory {
	m := &ParticlesMemory{}
	m.cols = []columnOps{&m.positions, &m.velocities, &m.normals, &m.phases}
	return m
}

func (m *ParticlesMemory) Particle(c *Chunk, i int) mgl32.Vec4 {
	return m.positions[c.mustBufferIndex(i)]
}

func (m *ParticlesMemory) SetParticle(c *Chunk, i int, p mgl32.Vec4) {
	m.positions[c.mustBufferIndex(i)] = p
}

func (m *ParticlesMemory) Velocity(c *Chunk, i int) mgl32.Vec3 {
	return m.velocities[c.mustBufferIndex(i)]
}

func (m *ParticlesMemory) SetVelocity(c *Chunk, i int, v mgl32.Vec3) {
	m.velocities[c.mustBufferIndex(i)] = v
}

func (m *ParticlesMemory) Normal(c *Chunk, i int) mgl32.Vec4 {
	return m.normals[c.mustBufferIndex(i)]
}

func (m *ParticlesMemory) SetNormal(c *Chunk, i int, n mgl32.Vec4) {
	m.normals[c.mustBufferIndex(i)] = n
}

func (m *ParticlesMemory) Phase(c *Chunk, i int) int32 {
	return m.phases[c.mustBufferIndex(i)]
}

func (m *ParticlesMemory) SetPhase(c *Chunk, i int, phase int32) {
	m.phases[c.mustBufferIndex(i)] = phase
}

// Positions exposes the raw position+inverse-mass column in solver layout.
func (m *ParticlesMemory) Positions() []mgl32.Vec4  { return m.positions }
func (m *ParticlesMemory) Velocities() []mgl32.Vec3 { return m.velocities }
func (m *ParticlesMemory) Normals() []mgl32.Vec4    { return m.normals }
func (m *ParticlesMemory) Phases() []int32          { return m.phases }
