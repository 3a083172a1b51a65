package memory

// Capacities sets the initial slot count of each buffer and the factor
// buffers grow by when an allocation does not fit.
type Capacities struct {
	Particles       int
	Springs         int
	Triangles       int
	Rigids          int
	RigidComponents int
	Inflatables     int
	Growth          float64
}

// Store aggregates the typed views of a space together with one allocator
// per buffer kind.
type Store struct {
	Particles       *ParticlesMemory
	Springs         *SpringsMemory
	Triangles       *TrianglesMemory
	Rigids          *RigidsMemory
	RigidComponents *RigidComponentsMemory
	Inflatables     *InflatablesMemory

	allocators [kindCount]*Allocator
}

func NewStore(caps Capacities) *Store {
	s := &Store{
		Particles:       NewParticlesMemory(),
		Springs:         NewSpringsMemory(),
		Triangles:       NewTrianglesMemory(),
		Rigids:          NewRigidsMemory(),
		RigidComponents: NewRigidComponentsMemory(),
		Inflatables:     NewInflatablesMemory(),
	}
	s.allocators[KindParticles] = NewAllocator(KindParticles, s.Particles, caps.Particles, caps.Growth)
	s.allocators[KindSprings] = NewAllocator(KindSprings, s.Springs, caps.Springs, caps.Growth)
	s.allocators[KindTriangles] = NewAllocator(KindTriangles, s.Triangles, caps.Triangles, caps.Growth)
	s.allocators[KindRigids] = NewAllocator(KindRigids, s.Rigids, caps.Rigids, caps.Growth)
	s.allocators[KindRigidComponents] = NewAllocator(KindRigidComponents, s.RigidComponents, caps.RigidComponents, caps.Growth)
	s.allocators[KindInflatables] = NewAllocator(KindInflatables, s.Inflatables, caps.Inflatables, caps.Growth)
	return s
}

func (s *Store) Allocator(k Kind) *Allocator { return s.allocators[k] }

// Used returns the number of packed slots in use for kind k.
func (s *Store) Used(k Kind) int { return s.allocators[k].Used() }

// Dangling lists absolute slots whose particle reference was removed by a
// compaction. The referenced indices are set to -1.
type Dangling struct {
	Springs         []int
	Triangles       []int
	RigidComponents []int
}

func (d Dangling) Empty() bool {
	return len(d.Springs) == 0 && len(d.Triangles) == 0 && len(d.RigidComponents) == 0
}

// PatchParticleReferences rewrites every absolute particle reference held by
// springs, triangles and rigid components according to r.
func (s *Store) PatchParticleReferences(r Remap) Dangling {
	var d Dangling
	if r == nil {
		return d
	}

	springs := s.Springs.springs[:s.Used(KindSprings)]
	for i := range springs {
		if patchAll(springs[i][:], r) {
			d.Springs = append(d.Springs, i)
		}
	}

	triangles := s.Triangles.triangles[:s.Used(KindTriangles)]
	for i := range triangles {
		if patchAll(triangles[i][:], r) {
			d.Triangles = append(d.Triangles, i)
		}
	}

	indices := s.RigidComponents.indices[:s.Used(KindRigidComponents)]
	for i := range indices {
		if patchAll(indices[i:i+1], r) {
			d.RigidComponents = append(d.RigidComponents, i)
		}
	}
	return d
}

// patchAll remaps refs in place and reports whether any of them was removed.
func patchAll(refs []int32, r Remap) bool {
	lost := false
	for j, ref := range refs {
		if ref < 0 {
			lost = true
			continue
		}
		n, ok := r.Index(ref)
		if !ok {
			lost = true
		}
		refs[j] = n
	}
	return lost
}
