package memory

import "github.com/go-gl/mathgl/mgl32"

// RigidsMemory holds rigid clusters. A rigid's offset is the cumulative end
// of its component run inside the owning body's rigid-component chunk, so
// rigid r owns components [Offset(r-1), Offset(r)) with Offset(-1) == 0.
type RigidsMemory struct {
	table
	positions column[mgl32.Vec3]
	rotations column[mgl32.Quat]
	stiffness column[float32]
	offsets   column[int32]
}

func NewRigidsMemory() *RigidsMemory {
	m := &RigidsMemory{}
	m.cols = []columnOps{&m.positions, &m.rotations, &m.stiffness, &m.offsets}
	return m
}

func (m *RigidsMemory) Position(c *Chunk, i int) mgl32.Vec3 {
	return m.positions[c.mustBufferIndex(i)]
}

func (m *RigidsMemory) SetPosition(c *Chunk, i int, p mgl32.Vec3) {
	m.positions[c.mustBufferIndex(i)] = p
}

func (m *RigidsMemory) Rotation(c *Chunk, i int) mgl32.Quat {
	return m.rotations[c.mustBufferIndex(i)]
}

func (m *RigidsMemory) SetRotation(c *Chunk, i int, q mgl32.Quat) {
	m.rotations[c.mustBufferIndex(i)] = q
}

func (m *RigidsMemory) Stiffness(c *Chunk, i int) float32 {
	return m.stiffness[c.mustBufferIndex(i)]
}

func (m *RigidsMemory) SetStiffness(c *Chunk, i int, s float32) {
	m.stiffness[c.mustBufferIndex(i)] = s
}

func (m *RigidsMemory) Offset(c *Chunk, i int) int32 {
	return m.offsets[c.mustBufferIndex(i)]
}

func (m *RigidsMemory) SetOffset(c *Chunk, i int, offset int32) {
	m.offsets[c.mustBufferIndex(i)] = offset
}

func (m *RigidsMemory) Positions() []mgl32.Vec3 { return m.positions }
func (m *RigidsMemory) Rotations() []mgl32.Quat { return m.rotations }
func (m *RigidsMemory) Stiffnesses() []float32  { return m.stiffness }

// RigidComponentsMemory holds the membership of particles in rigid clusters:
// an absolute particle index and the rest offset from the cluster center.
type RigidComponentsMemory struct {
	table
	indices column[int32]
	rests   column[mgl32.Vec3]
}

func NewRigidComponentsMemory() *RigidComponentsMemory {
	m := &RigidComponentsMemory{}
	m.cols = []columnOps{&m.indices, &m.rests}
	return m
}

func (m *RigidComponentsMemory) Index(c *Chunk, i int) int32 {
	return m.indices[c.mustBufferIndex(i)]
}

func (m *RigidComponentsMemory) SetIndex(c *Chunk, i int, particle int32) {
	m.indices[c.mustBufferIndex(i)] = particle
}

func (m *RigidComponentsMemory) Rest(c *Chunk, i int) mgl32.Vec3 {
	return m.rests[c.mustBufferIndex(i)]
}

func (m *RigidComponentsMemory) SetRest(c *Chunk, i int, rest mgl32.Vec3) {
	m.rests[c.mustBufferIndex(i)] = rest
}

func (m *RigidComponentsMemory) Indices() []int32    { return m.indices }
func (m *RigidComponentsMemory) Rests() []mgl32.Vec3 { return m.rests }
