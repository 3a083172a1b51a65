package body

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
)

// ReloadRigidsCOM recomputes every rigid of the body, last to first.
func (b *Body) ReloadRigidsCOM() {
	for r := b.RigidCount() - 1; r >= 0; r-- {
		b.ReloadRigidCOM(RigidIndex(r))
	}
}

// ReloadRigidCOM moves rigid r to the mean position of its component
// particles and recomputes each component's rest offset from that center.
//
// Rest offsets come from the current particle positions, not from an
// undeformed rest pose, so calling this on a deformed cluster bakes the
// deformation into the rest shape.
func (b *Body) ReloadRigidCOM(r RigidIndex) {
	if !b.owns(b.chunks.Rigids, "rigid", int(r)) {
		return
	}
	b.log.V(1).Info("recomputing rigid rest offsets from current particle positions", "rigid", int(r))

	start, end := b.rigidRun(r)
	if end <= start {
		return
	}

	particles := b.store.Particles
	comps := b.store.RigidComponents
	position := func(c RigidComponentIndex) (mgl32.Vec3, bool) {
		abs := comps.Index(b.chunks.RigidComponents, int(c))
		local := b.chunks.Particles.ChunkIndex(int(abs))
		if !b.chunks.Particles.Contains(local) {
			return mgl32.Vec3{}, false
		}
		return memory.ExtractPosition(particles.Particle(b.chunks.Particles, local)), true
	}

	var center mgl32.Vec3
	n := 0
	for c := start; c < end; c++ {
		if p, ok := position(c); ok {
			center = center.Add(p)
			n++
		}
	}
	if n == 0 {
		return
	}
	center = center.Mul(1 / float32(n))

	for c := start; c < end; c++ {
		if p, ok := position(c); ok {
			comps.SetRest(b.chunks.RigidComponents, int(c), p.Sub(center))
		}
	}

	b.store.Rigids.SetPosition(b.chunks.Rigids, int(r), center)
}

// ReloadInflatables points the body's inflatable at its current triangle
// range. It must run whenever the triangle chunk moved or changed size.
func (b *Body) ReloadInflatables() {
	if b.store == nil || b.chunks.Inflatables.Size() != 1 {
		return
	}
	inflatables := b.store.Inflatables
	if b.chunks.Triangles.Size() == 0 {
		inflatables.SetTriangleCount(b.chunks.Inflatables, 0, 0)
		return
	}
	inflatables.SetStartTriangleIndex(b.chunks.Inflatables, 0, int32(b.chunks.Triangles.BeginIndex()))
	inflatables.SetTriangleCount(b.chunks.Inflatables, 0, int32(b.TriangleCount()))
}

// SyncInflatable writes the body's pressure parameters into its descriptor.
func (b *Body) SyncInflatable() {
	if b.store == nil || b.chunks.Inflatables.Size() != 1 {
		return
	}
	inflatables := b.store.Inflatables
	inflatables.SetRestVolume(b.chunks.Inflatables, 0, b.restVolume)
	inflatables.SetPressure(b.chunks.Inflatables, 0, b.pressure)
	inflatables.SetConstraintScale(b.chunks.Inflatables, 0, b.constraintScale)
}

// SyncPhase writes the body's phase word into every particle it owns.
func (b *Body) SyncPhase() {
	if b.store == nil {
		return
	}
	phase := b.Phase()
	for i := 0; i < b.ParticleCount(); i++ {
		b.store.Particles.SetPhase(b.chunks.Particles, i, phase)
	}
}
