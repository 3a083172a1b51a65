package space

import (
	"slices"

	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/memory"
)

// ExecuteDelayedCommands applies the removals queued on every body. Each
// element kind is drained for all bodies before the next kind, so removals
// triggered by a lost particle reference are applied in the same call.
//
// Index-change callbacks may remove bodies; a removed body is skipped for
// the rest of the call.
func (s *Space) ExecuteDelayedCommands() {
	bodies := slices.Clone(s.bodies)
	each := func(fn func(b *body.Body)) {
		for _, b := range bodies {
			if s.holds(b) {
				fn(b)
			}
		}
	}

	each(s.removeParticles)
	each(s.removeSprings)

	trianglesChanged := false
	each(func(b *body.Body) {
		if s.removeTriangles(b) {
			trianglesChanged = true
		}
	})
	if trianglesChanged {
		s.reloadInflatables()
	}

	each(s.removeRigids)
	each(func(b *body.Body) { b.ClearDelayedCommands() })
}

func locals[T ~int](indices []T) []int {
	out := make([]int, len(indices))
	for i, v := range indices {
		out[i] = int(v)
	}
	return out
}

func (s *Space) removeParticles(b *body.Body) {
	toRemove := b.DelayedCommands().ParticlesToRemove
	if len(toRemove) == 0 {
		return
	}
	before := b.ParticleCount()
	remap := s.store.Allocator(memory.KindParticles).RemoveIndices(b.Chunks().Particles, locals(toRemove))
	s.removed[memory.KindParticles] += uint64(before - b.ParticleCount())

	dangling := s.store.PatchParticleReferences(remap)
	defer s.flushParticleMoves()
	if dangling.Empty() {
		return
	}
	s.log.V(1).Info("removing elements that referenced removed particles", "body", b.Name(),
		"springs", len(dangling.Springs), "triangles", len(dangling.Triangles),
		"rigidComponents", len(dangling.RigidComponents))

	springs := s.store.Allocator(memory.KindSprings)
	for _, abs := range dangling.Springs {
		if c := springs.Owner(abs); c != nil {
			if owner := s.owners[c]; owner != nil {
				owner.RemoveSpring(body.SpringIndex(c.ChunkIndex(abs)))
			}
		}
	}
	triangles := s.store.Allocator(memory.KindTriangles)
	for _, abs := range dangling.Triangles {
		if c := triangles.Owner(abs); c != nil {
			if owner := s.owners[c]; owner != nil {
				owner.RemoveTriangle(body.TriangleIndex(c.ChunkIndex(abs)))
			}
		}
	}
	comps := s.store.Allocator(memory.KindRigidComponents)
	for _, abs := range dangling.RigidComponents {
		if c := comps.Owner(abs); c != nil {
			if owner := s.owners[c]; owner != nil {
				owner.RemoveRigidComponent(body.RigidComponentIndex(c.ChunkIndex(abs)))
			}
		}
	}
}

func (s *Space) removeSprings(b *body.Body) {
	toRemove := b.DelayedCommands().SpringsToRemove
	if len(toRemove) == 0 {
		return
	}
	remap := s.store.Allocator(memory.KindSprings).RemoveIndices(b.Chunks().Springs, locals(toRemove))
	s.removed[memory.KindSprings] += uint64(remap.Removed())
}

func (s *Space) removeTriangles(b *body.Body) bool {
	toRemove := b.DelayedCommands().TrianglesToRemove
	if len(toRemove) == 0 {
		return false
	}
	before := b.TriangleCount()
	s.store.Allocator(memory.KindTriangles).RemoveIndices(b.Chunks().Triangles, locals(toRemove))
	s.removed[memory.KindTriangles] += uint64(before - b.TriangleCount())
	return true
}

// removeRigids drops the queued rigids with their whole component run, then
// the queued components, and finally every rigid left without components.
// Offsets of the surviving rigids are rewritten to the compacted runs.
func (s *Space) removeRigids(b *body.Body) {
	cmds := b.DelayedCommands()
	if len(cmds.RigidsToRemove) == 0 && len(cmds.RigidComponentsToRemove) == 0 {
		return
	}
	chunks := b.Chunks()
	rigidCount := b.RigidCount()
	compCount := b.RigidComponentCount()

	dropRigid := make([]bool, rigidCount)
	for _, r := range cmds.RigidsToRemove {
		if int(r) >= 0 && int(r) < rigidCount {
			dropRigid[r] = true
		}
	}
	dropComp := make([]bool, compCount)
	for _, c := range cmds.RigidComponentsToRemove {
		if int(c) >= 0 && int(c) < compCount {
			dropComp[c] = true
		}
	}

	var offsets []int32
	var rigidsGone, compsGone []int
	kept := int32(0)
	for r := 0; r < rigidCount; r++ {
		start, end := b.RigidComponents(body.RigidIndex(r))
		survivors := int32(0)
		for c := start; c < end; c++ {
			if dropRigid[r] || dropComp[c] {
				dropComp[c] = true
				continue
			}
			survivors++
		}
		if survivors == 0 {
			rigidsGone = append(rigidsGone, r)
			continue
		}
		kept += survivors
		offsets = append(offsets, kept)
	}
	for c, gone := range dropComp {
		if gone {
			compsGone = append(compsGone, c)
		}
	}

	s.store.Allocator(memory.KindRigidComponents).RemoveIndices(chunks.RigidComponents, compsGone)
	s.store.Allocator(memory.KindRigids).RemoveIndices(chunks.Rigids, rigidsGone)
	for r, off := range offsets {
		s.store.Rigids.SetOffset(chunks.Rigids, r, off)
	}
	s.removed[memory.KindRigids] += uint64(len(rigidsGone))
	s.removed[memory.KindRigidComponents] += uint64(len(compsGone))
}
