package body

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
)

// owns validates a body-local index and logs the violation when it is not
// owned. Callers abort without touching any state.
func (b *Body) owns(c *memory.Chunk, kind string, i int) bool {
	if b.store != nil && c.Contains(i) {
		return true
	}
	err := ErrNotOwner
	if b.store == nil {
		err = ErrNotAdmitted
	}
	b.log.Error(err, "rejected index", "kind", kind, "index", i, "count", c.Size())
	return false
}

func (b *Body) IsOwnerOfParticle(i ParticleIndex) bool {
	return b.chunks.Particles.Contains(int(i))
}

func (b *Body) IsOwnerOfSpring(i SpringIndex) bool {
	return b.chunks.Springs.Contains(int(i))
}

func (b *Body) IsOwnerOfTriangle(i TriangleIndex) bool {
	return b.chunks.Triangles.Contains(int(i))
}

func (b *Body) IsOwnerOfRigid(i RigidIndex) bool {
	return b.chunks.Rigids.Contains(int(i))
}

func (b *Body) IsOwnerOfRigidComponent(i RigidComponentIndex) bool {
	return b.chunks.RigidComponents.Contains(int(i))
}

func (b *Body) ParticleCount() int       { return b.chunks.Particles.Size() }
func (b *Body) SpringCount() int         { return b.chunks.Springs.Size() }
func (b *Body) TriangleCount() int       { return b.chunks.Triangles.Size() }
func (b *Body) RigidCount() int          { return b.chunks.Rigids.Size() }
func (b *Body) RigidComponentCount() int { return b.chunks.RigidComponents.Size() }

func (b *Body) SetParticlePositionMass(i ParticleIndex, pos mgl32.Vec3, mass float32) {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return
	}
	b.store.Particles.SetParticle(b.chunks.Particles, int(i), memory.MakeParticle(pos, mass))
	b.changed |= ChangedPositionMass
}

// SetParticlePosition keeps the particle's mass.
func (b *Body) SetParticlePosition(i ParticleIndex, pos mgl32.Vec3) {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return
	}
	p := b.store.Particles.Particle(b.chunks.Particles, int(i))
	b.store.Particles.SetParticle(b.chunks.Particles, int(i), pos.Vec4(p[3]))
	b.changed |= ChangedPositionMass
}

// SetParticleMass keeps the particle's position.
func (b *Body) SetParticleMass(i ParticleIndex, mass float32) {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return
	}
	p := b.store.Particles.Particle(b.chunks.Particles, int(i))
	b.store.Particles.SetParticle(b.chunks.Particles, int(i), memory.MakeParticle(p.Vec3(), mass))
	b.changed |= ChangedPositionMass
}

func (b *Body) ParticlePosition(i ParticleIndex) mgl32.Vec3 {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return mgl32.Vec3{}
	}
	return memory.ExtractPosition(b.store.Particles.Particle(b.chunks.Particles, int(i)))
}

func (b *Body) ParticleMass(i ParticleIndex) float32 {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return 0
	}
	return memory.ExtractMass(b.store.Particles.Particle(b.chunks.Particles, int(i)))
}

func (b *Body) ParticleVelocity(i ParticleIndex) mgl32.Vec3 {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return mgl32.Vec3{}
	}
	return b.store.Particles.Velocity(b.chunks.Particles, int(i))
}

func (b *Body) SetParticleVelocity(i ParticleIndex, v mgl32.Vec3) {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return
	}
	b.store.Particles.SetVelocity(b.chunks.Particles, int(i), v)
	b.changed |= ChangedVelocity
}

func (b *Body) ParticleNormal(i ParticleIndex) mgl32.Vec4 {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return mgl32.Vec4{}
	}
	return b.store.Particles.Normal(b.chunks.Particles, int(i))
}

// ResetSpring rewires spring s between two of the body's particles.
func (b *Body) ResetSpring(s SpringIndex, p0, p1 ParticleIndex, length, stiffness float32) {
	if !b.owns(b.chunks.Springs, "spring", int(s)) ||
		!b.owns(b.chunks.Particles, "particle", int(p0)) ||
		!b.owns(b.chunks.Particles, "particle", int(p1)) {
		return
	}
	springs := b.store.Springs
	springs.SetSpring(b.chunks.Springs, int(s), memory.Spring{
		int32(b.chunks.Particles.BufferIndex(int(p0))),
		int32(b.chunks.Particles.BufferIndex(int(p1))),
	})
	springs.SetLength(b.chunks.Springs, int(s), length)
	springs.SetStiffness(b.chunks.Springs, int(s), stiffness)
}

// Spring returns spring s with its endpoints as body-local indices.
func (b *Body) Spring(s SpringIndex) Spring {
	if !b.owns(b.chunks.Springs, "spring", int(s)) {
		return Spring{}
	}
	springs := b.store.Springs
	ends := springs.Spring(b.chunks.Springs, int(s))
	return Spring{
		A:         ParticleIndex(b.chunks.Particles.ChunkIndex(int(ends[0]))),
		B:         ParticleIndex(b.chunks.Particles.ChunkIndex(int(ends[1]))),
		Length:    springs.Length(b.chunks.Springs, int(s)),
		Stiffness: springs.Stiffness(b.chunks.Springs, int(s)),
	}
}

func (b *Body) SetTriangle(t TriangleIndex, tri Triangle) {
	if !b.owns(b.chunks.Triangles, "triangle", int(t)) {
		return
	}
	var abs memory.Triangle
	for k, p := range tri {
		if !b.owns(b.chunks.Particles, "particle", int(p)) {
			return
		}
		abs[k] = int32(b.chunks.Particles.BufferIndex(int(p)))
	}
	b.store.Triangles.SetTriangle(b.chunks.Triangles, int(t), abs)
}

// Triangle returns triangle t with its corners as body-local indices.
func (b *Body) Triangle(t TriangleIndex) Triangle {
	if !b.owns(b.chunks.Triangles, "triangle", int(t)) {
		return Triangle{}
	}
	abs := b.store.Triangles.Triangle(b.chunks.Triangles, int(t))
	var tri Triangle
	for k, p := range abs {
		tri[k] = ParticleIndex(b.chunks.Particles.ChunkIndex(int(p)))
	}
	return tri
}

func (b *Body) RigidPosition(r RigidIndex) mgl32.Vec3 {
	if !b.owns(b.chunks.Rigids, "rigid", int(r)) {
		return mgl32.Vec3{}
	}
	return b.store.Rigids.Position(b.chunks.Rigids, int(r))
}

func (b *Body) RigidRotation(r RigidIndex) mgl32.Quat {
	if !b.owns(b.chunks.Rigids, "rigid", int(r)) {
		return mgl32.QuatIdent()
	}
	return b.store.Rigids.Rotation(b.chunks.Rigids, int(r))
}

// RigidComponents returns the component run [start, end) of rigid r.
func (b *Body) RigidComponents(r RigidIndex) (start, end RigidComponentIndex) {
	if !b.owns(b.chunks.Rigids, "rigid", int(r)) {
		return 0, 0
	}
	return b.rigidRun(r)
}

func (b *Body) rigidRun(r RigidIndex) (start, end RigidComponentIndex) {
	rigids := b.store.Rigids
	if r > 0 {
		start = RigidComponentIndex(rigids.Offset(b.chunks.Rigids, int(r)-1))
	}
	end = RigidComponentIndex(rigids.Offset(b.chunks.Rigids, int(r)))
	return start, end
}

// RigidComponentParticle returns the body-local particle a component refers to.
func (b *Body) RigidComponentParticle(c RigidComponentIndex) ParticleIndex {
	if !b.owns(b.chunks.RigidComponents, "rigid_component", int(c)) {
		return -1
	}
	abs := b.store.RigidComponents.Index(b.chunks.RigidComponents, int(c))
	return ParticleIndex(b.chunks.Particles.ChunkIndex(int(abs)))
}

func (b *Body) RigidComponentRest(c RigidComponentIndex) mgl32.Vec3 {
	if !b.owns(b.chunks.RigidComponents, "rigid_component", int(c)) {
		return mgl32.Vec3{}
	}
	return b.store.RigidComponents.Rest(b.chunks.RigidComponents, int(c))
}
