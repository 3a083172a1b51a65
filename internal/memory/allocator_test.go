package memory

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func newParticleAllocator(capacity int) (*Allocator, *ParticlesMemory) {
	mem := NewParticlesMemory()
	return NewAllocator(KindParticles, mem, capacity, 2), mem
}

func fill(mem *ParticlesMemory, c *Chunk, base float32) {
	for i := 0; i < c.Size(); i++ {
		mem.SetParticle(c, i, mgl32.Vec4{base + float32(i), 0, 0, 1})
	}
}

func xs(mem *ParticlesMemory, c *Chunk) []float32 {
	out := make([]float32, c.Size())
	for i := range out {
		out[i] = mem.Particle(c, i)[0]
	}
	return out
}

func TestAllocate_Contiguous(t *testing.T) {
	a, _ := newParticleAllocator(4)

	c1 := a.Allocate(3)
	c2 := a.Allocate(2)

	if c1.BeginIndex() != 0 || c1.EndIndex() != 3 {
		t.Errorf("first chunk = %v, want particles[0,3)", c1)
	}
	if c2.BeginIndex() != 3 || c2.EndIndex() != 5 {
		t.Errorf("second chunk = %v, want particles[3,5)", c2)
	}
	if a.Used() != 5 {
		t.Errorf("Used() = %d, want 5", a.Used())
	}
	if a.Capacity() < 5 {
		t.Errorf("Capacity() = %d, want >= 5", a.Capacity())
	}
}

func TestAllocate_GrowthKeepsData(t *testing.T) {
	a, mem := newParticleAllocator(2)

	c1 := a.Allocate(2)
	fill(mem, c1, 10)

	c2 := a.Allocate(6)
	fill(mem, c2, 20)

	if diff := cmp.Diff([]float32{10, 11}, xs(mem, c1)); diff != "" {
		t.Errorf("first chunk changed after growth (-want +got):\n%s", diff)
	}
	if a.Capacity() < 8 {
		t.Errorf("Capacity() = %d, want >= 8", a.Capacity())
	}
}

func TestChunk_Boundaries(t *testing.T) {
	a, _ := newParticleAllocator(8)
	a.Allocate(2)
	c := a.Allocate(4)

	tests := []struct {
		local int
		want  bool
	}{
		{-1, false},
		{0, true},
		{3, true},
		{4, false},
	}

	for _, tt := range tests {
		if got := c.Contains(tt.local); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.local, got, tt.want)
		}
		if got := c.InRange(c.BufferIndex(tt.local)); got != tt.want {
			t.Errorf("InRange(BufferIndex(%d)) = %v, want %v", tt.local, got, tt.want)
		}
	}

	if c.ChunkIndex(c.BufferIndex(3)) != 3 {
		t.Error("ChunkIndex is not the inverse of BufferIndex")
	}

	var none *Chunk
	if none.Size() != 0 || none.Contains(0) {
		t.Error("nil chunk should be empty")
	}
}

func TestRemoveIndices_StableLeftShift(t *testing.T) {
	a, mem := newParticleAllocator(8)
	ca := a.Allocate(3)
	cb := a.Allocate(2)
	fill(mem, ca, 0)
	fill(mem, cb, 100)

	type move struct{ Old, New int }
	var moves []move
	a.SetMoveFunc(func(c *Chunk, oldLocal, newLocal int) {
		if c != ca {
			t.Errorf("move reported for %v, want %v", c, ca)
		}
		moves = append(moves, move{oldLocal, newLocal})
	})

	remap := a.RemoveIndices(ca, []int{1})

	if ca.Size() != 2 {
		t.Errorf("A size = %d, want 2", ca.Size())
	}
	if cb.BeginIndex() != 2 {
		t.Errorf("B begin = %d, want 2", cb.BeginIndex())
	}
	if diff := cmp.Diff([]float32{0, 2}, xs(mem, ca)); diff != "" {
		t.Errorf("A contents (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{100, 101}, xs(mem, cb)); diff != "" {
		t.Errorf("B contents (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Remap{0, -1, 1, 2, 3}, remap); diff != "" {
		t.Errorf("remap (-want +got):\n%s", diff)
	}
	if remap.Removed() != 1 {
		t.Errorf("remap.Removed() = %d, want 1", remap.Removed())
	}

	wantMoves := []move{{2, 1}}
	if diff := cmp.Diff(wantMoves, moves); diff != "" {
		t.Errorf("moves (-want +got):\n%s", diff)
	}
}

func TestRemoveIndices_IgnoresDuplicatesAndOutOfRange(t *testing.T) {
	a, _ := newParticleAllocator(8)
	c := a.Allocate(4)

	a.RemoveIndices(c, []int{3, 3, 7, -1})

	if c.Size() != 3 {
		t.Errorf("size = %d, want 3", c.Size())
	}
	if a.RemoveIndices(c, nil) != nil {
		t.Error("removing nothing should return a nil remap")
	}
}

func TestResize(t *testing.T) {
	a, mem := newParticleAllocator(4)
	ca := a.Allocate(2)
	cb := a.Allocate(2)
	fill(mem, ca, 0)
	fill(mem, cb, 10)

	remap := a.Resize(ca, 4)

	if cb.BeginIndex() != 4 {
		t.Errorf("B begin = %d, want 4", cb.BeginIndex())
	}
	if diff := cmp.Diff([]float32{0, 1, 0, 0}, xs(mem, ca)); diff != "" {
		t.Errorf("A contents (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float32{10, 11}, xs(mem, cb)); diff != "" {
		t.Errorf("B contents (-want +got):\n%s", diff)
	}
	if n, ok := remap.Index(2); !ok || n != 4 {
		t.Errorf("remap.Index(2) = %d, %v, want 4, true", n, ok)
	}

	a.Resize(ca, 1)
	if ca.Size() != 1 || cb.BeginIndex() != 1 {
		t.Errorf("after shrink A=%v B=%v", ca, cb)
	}
}

func TestFree_CompactsLaterChunks(t *testing.T) {
	a, mem := newParticleAllocator(8)
	ca := a.Allocate(2)
	cb := a.Allocate(3)
	cc := a.Allocate(1)
	fill(mem, cc, 50)

	remap := a.Free(cb)

	if !cb.Freed() || cb.Size() != 0 {
		t.Error("freed chunk should be marked and empty")
	}
	if cc.BeginIndex() != 2 {
		t.Errorf("C begin = %d, want 2", cc.BeginIndex())
	}
	if mem.Particle(cc, 0)[0] != 50 {
		t.Error("C data not moved with its chunk")
	}
	if _, ok := remap.Index(3); ok {
		t.Error("slot of freed chunk should not survive")
	}
	if a.Used() != 3 {
		t.Errorf("Used() = %d, want 3", a.Used())
	}
	if got := a.Chunks(); len(got) != 2 || got[0] != ca || got[1] != cc {
		t.Errorf("Chunks() = %v", got)
	}
	if a.Free(cb) != nil {
		t.Error("double free should be a no-op")
	}
}

func TestOwner(t *testing.T) {
	a, _ := newParticleAllocator(8)
	ca := a.Allocate(2)
	empty := a.Allocate(0)
	cb := a.Allocate(3)

	tests := []struct {
		abs  int
		want *Chunk
	}{
		{0, ca},
		{1, ca},
		{2, cb},
		{4, cb},
		{5, nil},
		{-1, nil},
	}
	for _, tt := range tests {
		if got := a.Owner(tt.abs); got != tt.want {
			t.Errorf("Owner(%d) = %v, want %v", tt.abs, got, tt.want)
		}
	}
	if empty.Size() != 0 {
		t.Error("zero-size chunk should stay empty")
	}
}

func TestRemap_Index(t *testing.T) {
	var identity Remap
	if n, ok := identity.Index(7); !ok || n != 7 {
		t.Errorf("nil remap Index(7) = %d, %v", n, ok)
	}

	r := Remap{0, -1, 1}
	if _, ok := r.Index(1); ok {
		t.Error("removed slot reported as surviving")
	}
	if n, ok := r.Index(9); !ok || n != 9 {
		t.Errorf("out of range Index(9) = %d, %v", n, ok)
	}
}
