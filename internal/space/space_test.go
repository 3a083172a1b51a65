package space_test

import (
	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/compute"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/space"
)

// stubBackend leaves the buffers untouched and replays canned contacts.
type stubBackend struct {
	contacts []compute.Contact
	frames   []*compute.Frame
	cleaned  bool
}

func (b *stubBackend) Name() string    { return "stub" }
func (b *stubBackend) Available() bool { return true }
func (b *stubBackend) Cleanup()        { b.cleaned = true }

func (b *stubBackend) Step(f *compute.Frame, dt float32) []compute.Contact {
	b.frames = append(b.frames, f)
	return b.contacts
}

type particleMove struct{ Old, New body.ParticleIndex }
type springMove struct{ Old, New body.SpringIndex }

const dt = float32(1.0 / 60)

func line(n int, x0 float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = mgl32.Vec3{x0 + float32(i), 0, 0}
	}
	return out
}

func tetrahedron() *body.Model {
	return &body.Model{
		Positions:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Triangles:  []body.Triangle{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}},
		Inflatable: &body.Inflatable{Pressure: 1, ConstraintScale: 1},
	}
}

var _ = Describe("Space", func() {
	var (
		backend *stubBackend
		sp      *space.Space
	)

	newBody := func(name string, m *body.Model) *body.Body {
		b := body.New(name, body.WithLogger(GinkgoLogr))
		Expect(sp.AddBody(b)).To(Succeed())
		Expect(sp.LoadModel(b, m)).To(Succeed())
		return b
	}

	BeforeEach(func() {
		backend = &stubBackend{}
		sp = space.New(
			space.WithLogger(GinkgoLogr),
			space.WithBackend(backend),
			space.WithCapacities(memory.Capacities{Particles: 4, Springs: 2}),
		)
	})

	Describe("admission", func() {
		It("rejects a body admitted twice", func() {
			b := body.New("twice")
			Expect(sp.AddBody(b)).To(Succeed())
			Expect(sp.AddBody(b)).To(MatchError(space.ErrAlreadyAdmitted))
		})

		It("rejects models for foreign bodies", func() {
			b := body.New("foreign")
			Expect(sp.LoadModel(b, &body.Model{})).To(MatchError(space.ErrNotMember))
		})

		It("rejects invalid models", func() {
			b := body.New("broken")
			Expect(sp.AddBody(b)).To(Succeed())
			err := sp.LoadModel(b, &body.Model{
				Positions: line(2, 0),
				Springs:   []body.Spring{{A: 0, B: 5}},
			})
			Expect(err).To(MatchError(body.ErrInvalidModel))
		})

		It("grows buffers past their initial capacity", func() {
			b := newBody("big", &body.Model{Positions: line(10, 0)})
			Expect(b.ParticleCount()).To(Equal(10))
			Expect(sp.Store().Allocator(memory.KindParticles).Capacity()).To(BeNumerically(">=", 10))
			Expect(b.ParticlePosition(9)).To(Equal(mgl32.Vec3{9, 0, 0}))
		})

		It("finds bodies by name", func() {
			b := newBody("named", &body.Model{Positions: line(1, 0)})
			Expect(sp.Body("named")).To(BeIdenticalTo(b))
			Expect(sp.Body("missing")).To(BeNil())
		})
	})

	Describe("particle removal", func() {
		var a, b *body.Body
		var moves []particleMove

		BeforeEach(func() {
			moves = nil
			a = newBody("A", &body.Model{Positions: line(3, 0)})
			b = newBody("B", &body.Model{
				Positions: line(2, 10),
				Springs:   []body.Spring{{A: 0, B: 1, Length: 1, Stiffness: 1}},
			})
			a.SetParticleIndexChangedCallback(func(oldIndex, newIndex body.ParticleIndex) {
				moves = append(moves, particleMove{oldIndex, newIndex})
			})
		})

		It("compacts the owner and shifts later bodies", func() {
			a.RemoveParticle(1)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(a.ParticleCount()).To(Equal(2))
			Expect(a.ParticlePosition(0)).To(Equal(mgl32.Vec3{0, 0, 0}))
			Expect(a.ParticlePosition(1)).To(Equal(mgl32.Vec3{2, 0, 0}))
			Expect(moves).To(Equal([]particleMove{{2, 1}}))

			Expect(b.Chunks().Particles.BeginIndex()).To(Equal(2))
			Expect(b.ParticlePosition(0)).To(Equal(mgl32.Vec3{10, 0, 0}))
			Expect(b.ParticlePosition(1)).To(Equal(mgl32.Vec3{11, 0, 0}))
		})

		It("patches springs of other bodies to the moved slots", func() {
			a.RemoveParticle(1)
			sp.ExecuteDelayedCommands()

			Expect(sp.Store().Springs.Spring(b.Chunks().Springs, 0)).To(Equal(memory.Spring{2, 3}))
			Expect(b.Spring(0)).To(Equal(body.Spring{A: 0, B: 1, Length: 1, Stiffness: 1}))
		})

		It("reports moves after references are patched", func() {
			c := newBody("C", &body.Model{
				Positions: line(3, 20),
				Springs:   []body.Spring{{A: 1, B: 2, Length: 1, Stiffness: 1}},
			})
			var seen []body.Spring
			c.SetParticleIndexChangedCallback(func(oldIndex, newIndex body.ParticleIndex) {
				seen = append(seen, c.Spring(0))
			})

			c.RemoveParticle(0)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(seen).To(HaveLen(2))
			for _, s := range seen {
				Expect(s).To(Equal(body.Spring{A: 0, B: 1, Length: 1, Stiffness: 1}))
			}
		})

		It("clears the outbox", func() {
			a.RemoveParticle(0)
			sp.ExecuteDelayedCommands()
			Expect(a.DelayedCommands().Empty()).To(BeTrue())
		})

		It("removes springs that referenced a removed particle", func() {
			c := newBody("C", &body.Model{
				Positions: line(3, 20),
				Springs: []body.Spring{
					{A: 0, B: 1, Length: 1, Stiffness: 1},
					{A: 1, B: 2, Length: 2, Stiffness: 1},
					{A: 0, B: 2, Length: 3, Stiffness: 1},
				},
			})
			var springMoves []springMove
			c.SetSpringIndexChangedCallback(func(oldIndex, newIndex body.SpringIndex) {
				springMoves = append(springMoves, springMove{oldIndex, newIndex})
			})

			c.RemoveParticle(0)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(c.ParticleCount()).To(Equal(2))
			Expect(c.SpringCount()).To(Equal(1))
			Expect(c.Spring(0)).To(Equal(body.Spring{A: 0, B: 1, Length: 2, Stiffness: 1}))
			Expect(springMoves).To(Equal([]springMove{{1, 0}}))
			Expect(b.SpringCount()).To(Equal(1))
		})
	})

	Describe("triangle removal", func() {
		It("repoints inflatables of later bodies", func() {
			a := newBody("sheet", &body.Model{
				Positions: line(3, 0),
				Triangles: []body.Triangle{{0, 1, 2}},
			})
			balloon := newBody("balloon", tetrahedron())
			inflatables := sp.Store().Inflatables
			chunk := balloon.Chunks().Inflatables
			Expect(inflatables.StartTriangleIndex(chunk, 0)).To(BeEquivalentTo(1))

			a.RemoveTriangle(0)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(a.TriangleCount()).To(Equal(0))
			Expect(inflatables.StartTriangleIndex(chunk, 0)).To(BeEquivalentTo(0))
			Expect(inflatables.TriangleCount(chunk, 0)).To(BeEquivalentTo(4))
		})

		It("shrinks the inflatable with its mesh", func() {
			balloon := newBody("balloon", tetrahedron())
			balloon.RemoveTriangle(3)
			balloon.RemoveTriangle(0)
			Expect(sp.Step(dt)).To(Succeed())

			chunk := balloon.Chunks().Inflatables
			Expect(sp.Store().Inflatables.TriangleCount(chunk, 0)).To(BeEquivalentTo(2))
			Expect(balloon.Triangle(0)).To(Equal(body.Triangle{0, 1, 3}))
		})
	})

	Describe("rigid removal", func() {
		var r *body.Body

		BeforeEach(func() {
			newBody("filler", &body.Model{
				Positions: line(2, -10),
				Rigids:    []body.Rigid{{Stiffness: 1, Components: []body.ParticleIndex{0, 1}}},
			})
			r = newBody("rigid", &body.Model{
				Positions: line(6, 0),
				Rigids: []body.Rigid{
					{Stiffness: 1, Components: []body.ParticleIndex{0, 1}},
					{Stiffness: 0.5, Components: []body.ParticleIndex{2, 3}},
					{Stiffness: 1, Components: []body.ParticleIndex{4, 5}},
				},
			})
		})

		It("exposes absolute offsets to the solver", func() {
			Expect(sp.SolverRigidOffsets()).To(Equal([]int32{0, 2, 4, 6, 8}))
		})

		It("drops a rigid with its component run", func() {
			r.RemoveRigid(1)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(r.RigidCount()).To(Equal(2))
			Expect(r.RigidComponentCount()).To(Equal(4))
			start, end := r.RigidComponents(1)
			Expect([]body.RigidComponentIndex{start, end}).To(Equal([]body.RigidComponentIndex{2, 4}))
			Expect(r.RigidComponentParticle(2)).To(Equal(body.ParticleIndex(4)))
			Expect(sp.SolverRigidOffsets()).To(Equal([]int32{0, 2, 4, 6}))
			Expect(backend.frames[0].RigidOffsets).To(Equal([]int32{0, 2, 4, 6}))
		})

		It("drops a rigid whose components are all removed", func() {
			r.RemoveRigidComponent(0)
			r.RemoveRigidComponent(1)
			r.RemoveRigidComponent(2)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(r.RigidCount()).To(Equal(2))
			start, end := r.RigidComponents(0)
			Expect(end - start).To(BeEquivalentTo(1))
			Expect(r.RigidComponentParticle(0)).To(Equal(body.ParticleIndex(3)))
			Expect(sp.Store().Rigids.Stiffness(r.Chunks().Rigids, 0)).To(BeEquivalentTo(0.5))
		})

		It("discards removals queued before a model reload", func() {
			r.RemoveRigid(2)
			r.RemoveRigidComponent(5)
			r.RemoveParticle(4)
			Expect(sp.LoadModel(r, &body.Model{
				Positions: line(2, 0),
				Rigids:    []body.Rigid{{Stiffness: 1, Components: []body.ParticleIndex{0, 1}}},
			})).To(Succeed())
			Expect(r.DelayedCommands().Empty()).To(BeTrue())

			Expect(sp.Step(dt)).To(Succeed())
			Expect(r.ParticleCount()).To(Equal(2))
			Expect(r.RigidCount()).To(Equal(1))
			Expect(r.RigidComponentCount()).To(Equal(2))
			Expect(sp.SolverRigidOffsets()).To(Equal([]int32{0, 2, 4}))
		})

		It("removes components whose particle was removed", func() {
			r.RemoveParticle(0)
			Expect(sp.Step(dt)).To(Succeed())

			Expect(r.RigidComponentCount()).To(Equal(5))
			start, end := r.RigidComponents(0)
			Expect(end - start).To(BeEquivalentTo(1))
			Expect(r.RigidComponentParticle(0)).To(Equal(body.ParticleIndex(0)))
		})
	})

	Describe("body removal", func() {
		It("compacts buffers and detaches the body", func() {
			a := newBody("A", &body.Model{Positions: line(3, 0)})
			b := newBody("B", &body.Model{
				Positions: line(2, 10),
				Springs:   []body.Spring{{A: 0, B: 1, Length: 1, Stiffness: 1}},
			})
			a.RemoveParticle(0)

			Expect(sp.RemoveBody(a)).To(Succeed())
			Expect(a.Admitted()).To(BeFalse())
			Expect(a.DelayedCommands().Empty()).To(BeTrue())
			Expect(sp.Bodies()).To(ConsistOf(b))

			Expect(b.Chunks().Particles.BeginIndex()).To(Equal(0))
			Expect(sp.Store().Springs.Spring(b.Chunks().Springs, 0)).To(Equal(memory.Spring{0, 1}))
			Expect(sp.Store().Used(memory.KindParticles)).To(Equal(2))

			Expect(sp.RemoveBody(a)).To(MatchError(space.ErrNotMember))
			Expect(sp.AddBody(a)).To(Succeed())
		})
	})

	Describe("callbacks that remove bodies", func() {
		var a, b, c *body.Body

		BeforeEach(func() {
			a = newBody("A", &body.Model{Positions: line(2, 0)})
			b = newBody("B", &body.Model{Positions: line(2, 10)})
			c = newBody("C", &body.Model{Positions: line(2, 20)})
		})

		It("keeps stepping when a sync callback removes a later body", func() {
			a.SetSyncCallback(func(*body.Body) {
				Expect(sp.RemoveBody(c)).To(Succeed())
			})
			cSynced := false
			c.SetSyncCallback(func(*body.Body) { cSynced = true })
			bSynced := false
			b.SetSyncCallback(func(*body.Body) { bSynced = true })

			Expect(sp.Step(dt)).To(Succeed())
			Expect(sp.Bodies()).To(ConsistOf(a, b))
			Expect(bSynced).To(BeTrue())
			Expect(cSynced).To(BeFalse())
			Expect(c.Admitted()).To(BeFalse())
		})

		It("skips a body removed by an index-change callback", func() {
			a.SetParticleIndexChangedCallback(func(oldIndex, newIndex body.ParticleIndex) {
				if sp.Contains(c) {
					Expect(sp.RemoveBody(c)).To(Succeed())
				}
			})
			a.RemoveParticle(0)
			c.RemoveParticle(0)

			Expect(sp.Step(dt)).To(Succeed())
			Expect(a.ParticleCount()).To(Equal(1))
			Expect(sp.Bodies()).To(ConsistOf(a, b))
			Expect(b.ParticlePosition(0)).To(Equal(mgl32.Vec3{10, 0, 0}))
		})

		It("drops the remaining contacts when a contact callback removes a body", func() {
			a.SetMonitoringPrimitivesContacts(true)
			c.SetMonitoringPrimitivesContacts(true)
			a.SetPrimitiveContactCallback(func(*body.Body, body.PrimitiveContact) {
				Expect(sp.RemoveBody(b)).To(Succeed())
			})
			var cContacts int
			c.SetPrimitiveContactCallback(func(*body.Body, body.PrimitiveContact) { cContacts++ })

			sp.AddPrimitive("floor", compute.Plane{Normal: mgl32.Vec3{0, 1, 0}, Channels: 1})
			backend.contacts = []compute.Contact{{Particle: 0}, {Particle: 4}}

			Expect(sp.Step(dt)).To(Succeed())
			Expect(cContacts).To(BeZero())
			Expect(sp.Bodies()).To(ConsistOf(a, c))
		})
	})

	Describe("stepping", func() {
		It("rejects non-positive timesteps", func() {
			err := sp.Step(0)
			Expect(err).To(MatchError(space.ErrInvalidTimestep))
			var stepErr *space.StepError
			Expect(err).To(BeAssignableToTypeOf(stepErr))
		})

		It("syncs phases and clears changed params", func() {
			b := newBody("phase", &body.Model{Positions: line(2, 0)})
			syncs := 0
			b.SetSyncCallback(func(*body.Body) { syncs++ })
			b.SetCollisionGroup(4)

			Expect(sp.Step(dt)).To(Succeed())
			Expect(sp.Step(dt)).To(Succeed())

			Expect(syncs).To(Equal(2))
			Expect(b.ChangedParams()).To(BeZero())
			Expect(sp.Store().Particles.Phase(b.Chunks().Particles, 1)).To(Equal(b.Phase()))
			Expect(sp.Steps()).To(BeEquivalentTo(2))
		})

		It("dispatches contacts to monitoring bodies only", func() {
			quiet := newBody("quiet", &body.Model{Positions: line(2, 0)})
			loud := newBody("loud", &body.Model{Positions: line(2, 5)})
			loud.SetMonitoringPrimitivesContacts(true)

			var got []body.PrimitiveContact
			record := func(_ *body.Body, c body.PrimitiveContact) { got = append(got, c) }
			quiet.SetPrimitiveContactCallback(record)
			loud.SetPrimitiveContactCallback(record)

			sp.AddPrimitive("floor", compute.Plane{Normal: mgl32.Vec3{0, 1, 0}, Channels: 1})
			backend.contacts = []compute.Contact{
				{Particle: 0, Primitive: 0, Normal: mgl32.Vec3{0, 1, 0}},
				{Particle: 3, Primitive: 0, Normal: mgl32.Vec3{0, 1, 0}},
				{Particle: 3, Primitive: 7},
			}
			Expect(sp.Step(dt)).To(Succeed())

			Expect(got).To(HaveLen(1))
			Expect(got[0].Primitive).To(Equal("floor"))
			Expect(got[0].Particle).To(Equal(body.ParticleIndex(1)))
			Expect(backend.frames[0].Primitives).To(HaveLen(1))

			sp.RemovePrimitive("floor")
			Expect(sp.Primitives()).To(BeEmpty())
		})

		It("reports buffer usage", func() {
			newBody("A", &body.Model{Positions: line(3, 0)})
			b := newBody("B", &body.Model{Positions: line(1, 0)})
			b.RemoveParticle(0)
			Expect(sp.Step(dt)).To(Succeed())

			st := sp.Stats()
			Expect(st.Bodies).To(Equal(2))
			Expect(st.Backend).To(Equal("stub"))
			particles := st.Usage(memory.KindParticles)
			Expect(particles.Used).To(Equal(3))
			Expect(particles.Chunks).To(Equal(2))
			Expect(particles.Removed).To(BeEquivalentTo(1))
			Expect(particles.Occupancy()).To(BeNumerically(">", 0))
		})

		It("cleans up the backend on close", func() {
			sp.Close()
			Expect(backend.cleaned).To(BeTrue())
		})
	})
})
