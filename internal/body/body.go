// Package body implements particle bodies: the index-stable handle through
// which soft bodies, cloth, rigid clusters and fluids read and mutate their
// slots in a space's shared buffers.
//
// A Body is created detached. A space admits it by assigning one chunk per
// buffer kind, and releases those chunks when the body leaves. Mutations of
// particle state are written through immediately; removals are queued and
// applied by the space at the next step boundary.
package body

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/memory"
)

type (
	ParticleIndex       int
	SpringIndex         int
	TriangleIndex       int
	RigidIndex          int
	RigidComponentIndex int
)

// ChangedParams flags body state the space must push to the solver.
type ChangedParams uint32

const (
	ChangedPhase ChangedParams = 1 << iota
	ChangedPositionMass
	ChangedVelocity
	ChangedInflatable
)

// Chunks holds the body's range in every shared buffer.
type Chunks struct {
	Particles       *memory.Chunk
	Springs         *memory.Chunk
	Triangles       *memory.Chunk
	Rigids          *memory.Chunk
	RigidComponents *memory.Chunk
	Inflatables     *memory.Chunk
}

// Get returns the chunk of kind k.
func (c Chunks) Get(k memory.Kind) *memory.Chunk {
	switch k {
	case memory.KindParticles:
		return c.Particles
	case memory.KindSprings:
		return c.Springs
	case memory.KindTriangles:
		return c.Triangles
	case memory.KindRigids:
		return c.Rigids
	case memory.KindRigidComponents:
		return c.RigidComponents
	case memory.KindInflatables:
		return c.Inflatables
	}
	return nil
}

type (
	// SyncFunc receives the body once per step after the solver ran.
	SyncFunc func(b *Body)
	// ParticleIndexChangedFunc is told when compaction moved a particle to a
	// new body-local index. Springs, triangles and rigid components already
	// point at the new slots when it runs.
	ParticleIndexChangedFunc func(oldIndex, newIndex ParticleIndex)
	// SpringIndexChangedFunc is told when compaction moved a spring.
	SpringIndexChangedFunc func(oldIndex, newIndex SpringIndex)
	// PrimitiveContactFunc receives contacts against collision primitives.
	PrimitiveContactFunc func(b *Body, c PrimitiveContact)
)

// PrimitiveContact describes one particle touching a collision primitive.
// Primitive is the handle the primitive was registered with.
type PrimitiveContact struct {
	Primitive any
	Particle  ParticleIndex
	Velocity  mgl32.Vec3
	Normal    mgl32.Vec3
}

type Body struct {
	name  string
	log   logr.Logger
	store *memory.Store

	chunks  Chunks
	changed ChangedParams
	delayed DelayedCommands

	collisionGroup         uint32
	collisionFlags         uint32
	collisionPrimitiveMask uint32

	restVolume      float32
	pressure        float32
	constraintScale float32

	monitorable        bool
	monitoringContacts bool

	onSync                 SyncFunc
	onParticleIndexChanged ParticleIndexChangedFunc
	onSpringIndexChanged   SpringIndexChangedFunc
	onPrimitiveContact     PrimitiveContactFunc
}

type Option func(*Body)

func WithLogger(l logr.Logger) Option {
	return func(b *Body) { b.log = l }
}

func New(name string, opts ...Option) *Body {
	b := &Body{
		name:                   name,
		log:                    logr.Discard(),
		collisionPrimitiveMask: PhaseShapeChannel0,
		pressure:               1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithValues("body", name)
	return b
}

func (b *Body) Name() string { return b.name }

func (b *Body) String() string {
	return fmt.Sprintf("body(%s)", b.name)
}

// Admit attaches the body to a space's buffers.
func (b *Body) Admit(store *memory.Store, chunks Chunks) {
	b.store = store
	b.chunks = chunks
}

// Release detaches the body from its space and drops all per-space state.
func (b *Body) Release() {
	b.store = nil
	b.chunks = Chunks{}
	b.changed = 0
	b.ClearDelayedCommands()
}

func (b *Body) Admitted() bool { return b.store != nil }

func (b *Body) Chunks() Chunks { return b.chunks }

func (b *Body) ChangedParams() ChangedParams { return b.changed }

func (b *Body) ClearChangedParams() { b.changed = 0 }

func (b *Body) SetSyncCallback(fn SyncFunc) { b.onSync = fn }

func (b *Body) SetParticleIndexChangedCallback(fn ParticleIndexChangedFunc) {
	b.onParticleIndexChanged = fn
}

func (b *Body) SetSpringIndexChangedCallback(fn SpringIndexChangedFunc) {
	b.onSpringIndexChanged = fn
}

func (b *Body) SetPrimitiveContactCallback(fn PrimitiveContactFunc) {
	b.onPrimitiveContact = fn
}

func (b *Body) DispatchSync() {
	if b.onSync == nil {
		return
	}
	b.onSync(b)
}

func (b *Body) ParticleIndexChanged(oldIndex, newIndex ParticleIndex) {
	if b.onParticleIndexChanged == nil {
		return
	}
	b.onParticleIndexChanged(oldIndex, newIndex)
}

func (b *Body) SpringIndexChanged(oldIndex, newIndex SpringIndex) {
	if b.onSpringIndexChanged == nil {
		return
	}
	b.onSpringIndexChanged(oldIndex, newIndex)
}

func (b *Body) DispatchPrimitiveContact(primitive any, particle ParticleIndex, velocity, normal mgl32.Vec3) {
	if b.onPrimitiveContact == nil {
		return
	}
	b.onPrimitiveContact(b, PrimitiveContact{
		Primitive: primitive,
		Particle:  particle,
		Velocity:  velocity,
		Normal:    normal,
	})
}

func (b *Body) SetMonitorable(monitorable bool) { b.monitorable = monitorable }
func (b *Body) IsMonitorable() bool             { return b.monitorable }

func (b *Body) SetMonitoringPrimitivesContacts(monitoring bool) {
	b.monitoringContacts = monitoring
}

func (b *Body) IsMonitoringPrimitivesContacts() bool { return b.monitoringContacts }

func (b *Body) SetRestVolume(v float32) {
	b.restVolume = v
	b.changed |= ChangedInflatable
}

func (b *Body) RestVolume() float32 { return b.restVolume }

func (b *Body) SetPressure(p float32) {
	b.pressure = p
	b.changed |= ChangedInflatable
}

func (b *Body) Pressure() float32 { return b.pressure }

func (b *Body) SetConstraintScale(s float32) {
	b.constraintScale = s
	b.changed |= ChangedInflatable
}

func (b *Body) ConstraintScale() float32 { return b.constraintScale }
