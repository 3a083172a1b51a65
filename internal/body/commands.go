package body

import "slices"

// DelayedCommands is the per-body outbox of removals. The space drains it
// once per step.
type DelayedCommands struct {
	ParticlesToRemove       []ParticleIndex
	SpringsToRemove         []SpringIndex
	TrianglesToRemove       []TriangleIndex
	RigidsToRemove          []RigidIndex
	RigidComponentsToRemove []RigidComponentIndex
}

func (d DelayedCommands) Empty() bool {
	return len(d.ParticlesToRemove) == 0 &&
		len(d.SpringsToRemove) == 0 &&
		len(d.TrianglesToRemove) == 0 &&
		len(d.RigidsToRemove) == 0 &&
		len(d.RigidComponentsToRemove) == 0
}

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func (b *Body) DelayedCommands() DelayedCommands { return b.delayed }

func (b *Body) ClearDelayedCommands() {
	b.delayed.ParticlesToRemove = b.delayed.ParticlesToRemove[:0]
	b.delayed.SpringsToRemove = b.delayed.SpringsToRemove[:0]
	b.delayed.TrianglesToRemove = b.delayed.TrianglesToRemove[:0]
	b.delayed.RigidsToRemove = b.delayed.RigidsToRemove[:0]
	b.delayed.RigidComponentsToRemove = b.delayed.RigidComponentsToRemove[:0]
}

func (b *Body) RemoveParticle(i ParticleIndex) {
	if !b.owns(b.chunks.Particles, "particle", int(i)) {
		return
	}
	b.delayed.ParticlesToRemove = appendUnique(b.delayed.ParticlesToRemove, i)
}

func (b *Body) RemoveSpring(i SpringIndex) {
	if !b.owns(b.chunks.Springs, "spring", int(i)) {
		return
	}
	b.delayed.SpringsToRemove = appendUnique(b.delayed.SpringsToRemove, i)
}

func (b *Body) RemoveTriangle(i TriangleIndex) {
	if !b.owns(b.chunks.Triangles, "triangle", int(i)) {
		return
	}
	b.delayed.TrianglesToRemove = appendUnique(b.delayed.TrianglesToRemove, i)
}

func (b *Body) RemoveRigid(i RigidIndex) {
	if !b.owns(b.chunks.Rigids, "rigid", int(i)) {
		return
	}
	b.delayed.RigidsToRemove = appendUnique(b.delayed.RigidsToRemove, i)
}

func (b *Body) RemoveRigidComponent(i RigidComponentIndex) {
	if !b.owns(b.chunks.RigidComponents, "rigid_component", int(i)) {
		return
	}
	b.delayed.RigidComponentsToRemove = appendUnique(b.delayed.RigidComponentsToRemove, i)
}
