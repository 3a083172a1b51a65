package space

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/compute"
	"github.com/san-kum/flexsim/internal/memory"
)

// Primitive is a collision shape registered with the space. Handle is what
// bodies receive in their contact callbacks.
type Primitive struct {
	Handle any
	Plane  compute.Plane
}

type Space struct {
	log     logr.Logger
	store   *memory.Store
	backend compute.Backend

	bodies     []*body.Body
	owners     map[*memory.Chunk]*body.Body
	primitives []Primitive

	steps   uint64
	removed map[memory.Kind]uint64

	// layout counts RemoveBody and LoadModel calls; buffered contacts are
	// stale once it moves.
	layout        uint64
	particleMoves []particleMove
}

type particleMove struct {
	chunk    *memory.Chunk
	from, to int
}

type Option func(*Space)

func WithLogger(l logr.Logger) Option {
	return func(s *Space) { s.log = l }
}

func WithBackend(b compute.Backend) Option {
	return func(s *Space) { s.backend = b }
}

func WithCapacities(c memory.Capacities) Option {
	return func(s *Space) { s.store = memory.NewStore(c) }
}

// New creates an empty space. Without WithBackend it steps with the CPU
// reference solver.
func New(opts ...Option) *Space {
	s := &Space{
		log:     logr.Discard(),
		owners:  make(map[*memory.Chunk]*body.Body),
		removed: make(map[memory.Kind]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memory.NewStore(memory.Capacities{Growth: memory.DefaultGrowthFactor})
	}
	if s.backend == nil {
		s.backend = compute.NewCPUBackend(compute.DefaultParams())
	}

	// Particle moves are held back until the buffers' cross-references are
	// patched, see flushParticleMoves.
	s.store.Allocator(memory.KindParticles).SetMoveFunc(func(c *memory.Chunk, oldLocal, newLocal int) {
		s.particleMoves = append(s.particleMoves, particleMove{chunk: c, from: oldLocal, to: newLocal})
	})
	s.store.Allocator(memory.KindSprings).SetMoveFunc(func(c *memory.Chunk, oldLocal, newLocal int) {
		if b := s.owners[c]; b != nil {
			b.SpringIndexChanged(body.SpringIndex(oldLocal), body.SpringIndex(newLocal))
		}
	})
	return s
}

func (s *Space) Store() *memory.Store       { return s.store }
func (s *Space) Backend() compute.Backend   { return s.backend }
func (s *Space) Steps() uint64              { return s.steps }
func (s *Space) Bodies() []*body.Body       { return slices.Clone(s.bodies) }
func (s *Space) Primitives() []Primitive    { return slices.Clone(s.primitives) }
func (s *Space) Contains(b *body.Body) bool { return slices.Contains(s.bodies, b) }

// Body returns the first body named name, or nil.
func (s *Space) Body(name string) *body.Body {
	for _, b := range s.bodies {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// AddBody admits b with an empty chunk of every kind.
func (s *Space) AddBody(b *body.Body) error {
	if b.Admitted() {
		return fmt.Errorf("%w: %s", ErrAlreadyAdmitted, b.Name())
	}

	var chunks body.Chunks
	for _, k := range memory.Kinds() {
		c := s.store.Allocator(k).Allocate(0)
		s.owners[c] = b
		switch k {
		case memory.KindParticles:
			chunks.Particles = c
		case memory.KindSprings:
			chunks.Springs = c
		case memory.KindTriangles:
			chunks.Triangles = c
		case memory.KindRigids:
			chunks.Rigids = c
		case memory.KindRigidComponents:
			chunks.RigidComponents = c
		case memory.KindInflatables:
			chunks.Inflatables = c
		}
	}
	b.Admit(s.store, chunks)
	s.bodies = append(s.bodies, b)
	s.log.V(1).Info("body admitted", "body", b.Name(), "bodies", len(s.bodies))
	return nil
}

// LoadModel sizes b's chunks to m and writes the model into them. Anything
// the body held before is replaced.
func (s *Space) LoadModel(b *body.Body, m *body.Model) error {
	if !s.Contains(b) {
		return fmt.Errorf("%w: %s", ErrNotMember, b.Name())
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("load %s: %w", b.Name(), err)
	}

	defer s.flushParticleMoves()
	chunks := b.Chunks()
	sizes := map[memory.Kind]int{
		memory.KindParticles:       len(m.Positions),
		memory.KindSprings:         len(m.Springs),
		memory.KindTriangles:       len(m.Triangles),
		memory.KindRigids:          len(m.Rigids),
		memory.KindRigidComponents: m.RigidComponentCount(),
		memory.KindInflatables:     m.InflatableCount(),
	}
	for _, k := range memory.Kinds() {
		remap := s.store.Allocator(k).Resize(chunks.Get(k), sizes[k])
		if k == memory.KindParticles {
			// Only b's own constraints can lose a reference here, and Load
			// rewrites all of them.
			s.store.PatchParticleReferences(remap)
		}
	}
	// Queued indices refer to the old model.
	b.ClearDelayedCommands()
	s.layout++
	s.reloadInflatables()

	if err := b.Load(m); err != nil {
		return fmt.Errorf("load %s: %w", b.Name(), err)
	}
	s.log.V(1).Info("model loaded", "body", b.Name(),
		"particles", len(m.Positions), "springs", len(m.Springs),
		"triangles", len(m.Triangles), "rigids", len(m.Rigids))
	return nil
}

// RemoveBody returns every chunk of b to the space and detaches it. Pending
// removals queued on b are discarded.
func (s *Space) RemoveBody(b *body.Body) error {
	k := slices.Index(s.bodies, b)
	if k < 0 {
		return fmt.Errorf("%w: %s", ErrNotMember, b.Name())
	}

	chunks := b.Chunks()
	for _, kind := range memory.Kinds() {
		c := chunks.Get(kind)
		s.removed[kind] += uint64(c.Size())
		remap := s.store.Allocator(kind).Free(c)
		if kind == memory.KindParticles {
			s.store.PatchParticleReferences(remap)
		}
		delete(s.owners, c)
	}

	s.bodies = slices.Delete(s.bodies, k, k+1)
	s.layout++
	b.Release()
	s.reloadInflatables()
	s.flushParticleMoves()
	s.log.V(1).Info("body removed", "body", b.Name(), "bodies", len(s.bodies))
	return nil
}

// AddPrimitive registers a collision plane and returns its index.
func (s *Space) AddPrimitive(handle any, plane compute.Plane) int {
	s.primitives = append(s.primitives, Primitive{Handle: handle, Plane: plane})
	return len(s.primitives) - 1
}

// RemovePrimitive drops every primitive registered with handle.
func (s *Space) RemovePrimitive(handle any) {
	s.primitives = slices.DeleteFunc(s.primitives, func(p Primitive) bool {
		return p.Handle == handle
	})
}

// Step advances the space by dt.
func (s *Space) Step(dt float32) error {
	if dt <= 0 {
		return &StepError{Step: s.steps, Dt: dt, Wrapped: ErrInvalidTimestep}
	}
	if s.backend == nil {
		return &StepError{Step: s.steps, Dt: dt, Wrapped: ErrNoBackend}
	}

	s.ExecuteDelayedCommands()
	s.syncBodies()

	frame := &compute.Frame{
		Store:        s.store,
		RigidOffsets: s.SolverRigidOffsets(),
		Primitives:   make([]compute.Plane, len(s.primitives)),
	}
	for i, p := range s.primitives {
		frame.Primitives[i] = p.Plane
	}
	contacts := s.backend.Step(frame, dt)
	s.dispatchContacts(contacts)

	// Sync callbacks may add or remove bodies.
	for _, b := range slices.Clone(s.bodies) {
		if !s.holds(b) {
			continue
		}
		b.DispatchSync()
		b.ClearChangedParams()
	}
	s.steps++
	return nil
}

// Close releases the backend.
func (s *Space) Close() {
	if s.backend != nil {
		s.backend.Cleanup()
	}
}

// SolverRigidOffsets converts every body's chunk-local rigid offsets into
// absolute component run ends, preceded by a leading zero.
func (s *Space) SolverRigidOffsets() []int32 {
	rigids := s.store.Allocator(memory.KindRigids)
	offsets := make([]int32, 1, rigids.Used()+1)
	for _, c := range rigids.Chunks() {
		b := s.owners[c]
		if b == nil {
			continue
		}
		begin := int32(b.Chunks().RigidComponents.BeginIndex())
		for r := 0; r < c.Size(); r++ {
			offsets = append(offsets, begin+s.store.Rigids.Offset(c, r))
		}
	}
	return offsets
}

// holds reports whether b is still admitted to this space. Loops that run
// user callbacks iterate over a copy of the body list and check it.
func (s *Space) holds(b *body.Body) bool {
	return b != nil && b.Admitted() && s.owners[b.Chunks().Particles] == b
}

// flushParticleMoves tells owners about particles that moved to a new local
// index. Callbacks run after cross-references in the buffers are patched.
func (s *Space) flushParticleMoves() {
	for len(s.particleMoves) > 0 {
		moves := s.particleMoves
		s.particleMoves = nil
		for _, m := range moves {
			if b := s.owners[m.chunk]; b != nil {
				b.ParticleIndexChanged(body.ParticleIndex(m.from), body.ParticleIndex(m.to))
			}
		}
	}
}

func (s *Space) syncBodies() {
	for _, b := range slices.Clone(s.bodies) {
		changed := b.ChangedParams()
		if changed&body.ChangedPhase != 0 {
			b.SyncPhase()
		}
		if changed&body.ChangedInflatable != 0 {
			b.SyncInflatable()
		}
	}
}

func (s *Space) dispatchContacts(contacts []compute.Contact) {
	particles := s.store.Allocator(memory.KindParticles)
	layout := s.layout
	for i, c := range contacts {
		if s.layout != layout {
			s.log.V(1).Info("dropping contacts after layout change", "dropped", len(contacts)-i)
			return
		}
		if c.Primitive < 0 || c.Primitive >= len(s.primitives) {
			continue
		}
		chunk := particles.Owner(c.Particle)
		if chunk == nil {
			continue
		}
		b := s.owners[chunk]
		if b == nil || !b.IsMonitoringPrimitivesContacts() {
			continue
		}
		b.DispatchPrimitiveContact(
			s.primitives[c.Primitive].Handle,
			body.ParticleIndex(chunk.ChunkIndex(c.Particle)),
			c.Velocity,
			c.Normal,
		)
	}
}

func (s *Space) reloadInflatables() {
	for _, b := range slices.Clone(s.bodies) {
		b.ReloadInflatables()
	}
}
