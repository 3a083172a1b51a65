package compute

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
)

const channel0 = int32(1 << 24)

func newFrame(positions ...mgl32.Vec4) (*Frame, *memory.Chunk) {
	s := memory.NewStore(memory.Capacities{Particles: len(positions)})
	c := s.Allocator(memory.KindParticles).Allocate(len(positions))
	for i, p := range positions {
		s.Particles.SetParticle(c, i, p)
		s.Particles.SetPhase(c, i, channel0)
	}
	return &Frame{Store: s, RigidOffsets: []int32{0}}, c
}

func TestCPUBackendGravity(t *testing.T) {
	f, c := newFrame(
		memory.MakeParticle(mgl32.Vec3{0, 10, 0}, 1),
		memory.MakeParticle(mgl32.Vec3{5, 10, 0}, 0),
	)
	b := NewCPUBackend(Params{Gravity: mgl32.Vec3{0, -10, 0}, Iterations: 1})

	b.Step(f, 0.1)

	free := f.Store.Particles.Particle(c, 0)
	if free[1] >= 10 {
		t.Errorf("free particle y = %v, expected it to fall", free[1])
	}
	if v := f.Store.Particles.Velocity(c, 0); v[1] >= 0 {
		t.Errorf("free particle velocity = %v, expected downward", v)
	}
	static := f.Store.Particles.Particle(c, 1)
	if static.Vec3() != (mgl32.Vec3{5, 10, 0}) {
		t.Errorf("static particle moved to %v", static.Vec3())
	}
}

func TestCPUBackendInvalidStep(t *testing.T) {
	b := NewCPUBackend(DefaultParams())
	if got := b.Step(nil, 0.1); got != nil {
		t.Errorf("Step(nil) = %v, want nil", got)
	}
	f, c := newFrame(memory.MakeParticle(mgl32.Vec3{0, 1, 0}, 1))
	b.Step(f, 0)
	if p := f.Store.Particles.Particle(c, 0); p.Vec3() != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("zero dt moved particle to %v", p.Vec3())
	}
}

func TestCPUBackendPlaneContacts(t *testing.T) {
	f, c := newFrame(
		memory.MakeParticle(mgl32.Vec3{0, 0.01, 0}, 1),
		memory.MakeParticle(mgl32.Vec3{1, 0.01, 0}, 1),
	)
	f.Store.Particles.SetPhase(c, 1, 1<<25)
	f.Primitives = []Plane{{Normal: mgl32.Vec3{0, 1, 0}, Channels: 0x1}}

	b := NewCPUBackend(Params{Gravity: mgl32.Vec3{0, -10, 0}, Iterations: 1})
	contacts := b.Step(f, 0.1)

	if len(contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(contacts))
	}
	if contacts[0].Particle != 0 || contacts[0].Primitive != 0 {
		t.Errorf("contact = %+v, want particle 0 on primitive 0", contacts[0])
	}
	if y := f.Store.Particles.Particle(c, 0)[1]; y < 0 {
		t.Errorf("particle 0 y = %v, want >= 0", y)
	}
	if y := f.Store.Particles.Particle(c, 1)[1]; y >= 0 {
		t.Errorf("particle 1 y = %v, expected to pass through a plane on another channel", y)
	}
}

func TestCPUBackendSpringRelaxes(t *testing.T) {
	f, _ := newFrame(
		memory.MakeParticle(mgl32.Vec3{0, 0, 0}, 1),
		memory.MakeParticle(mgl32.Vec3{3, 0, 0}, 1),
	)
	springs := f.Store.Allocator(memory.KindSprings).Allocate(1)
	f.Store.Springs.SetSpring(springs, 0, memory.Spring{0, 1})
	f.Store.Springs.SetLength(springs, 0, 1)
	f.Store.Springs.SetStiffness(springs, 0, 1)

	b := NewCPUBackend(Params{Iterations: 1})
	b.Step(f, 0.01)

	p := f.Store.Particles.Positions()
	if d := p[1].Vec3().Sub(p[0].Vec3()).Len(); d > 1.01 {
		t.Errorf("spring length after step = %v, want ~1", d)
	}
}

func TestCPUBackendRigidTracksCenter(t *testing.T) {
	f, c := newFrame(
		memory.MakeParticle(mgl32.Vec3{0, 0, 0}, 1),
		memory.MakeParticle(mgl32.Vec3{2, 0, 0}, 1),
	)
	s := f.Store
	rigids := s.Allocator(memory.KindRigids).Allocate(1)
	comps := s.Allocator(memory.KindRigidComponents).Allocate(2)
	s.Rigids.SetStiffness(rigids, 0, 1)
	s.Rigids.SetOffset(rigids, 0, 2)
	s.RigidComponents.SetIndex(comps, 0, 0)
	s.RigidComponents.SetIndex(comps, 1, 1)
	s.RigidComponents.SetRest(comps, 0, mgl32.Vec3{-1, 0, 0})
	s.RigidComponents.SetRest(comps, 1, mgl32.Vec3{1, 0, 0})
	f.RigidOffsets = []int32{0, 2}

	b := NewCPUBackend(Params{Gravity: mgl32.Vec3{0, -10, 0}, Iterations: 2})
	b.Step(f, 0.1)

	center := s.Rigids.Position(rigids, 0)
	p0 := s.Particles.Particle(c, 0).Vec3()
	p1 := s.Particles.Particle(c, 1).Vec3()
	want := p0.Add(p1).Mul(0.5)
	if !center.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("rigid position = %v, want %v", center, want)
	}
	if center[1] >= 0 {
		t.Errorf("rigid did not fall: %v", center)
	}
}

func TestCPUBackendPlasticCreep(t *testing.T) {
	f, _ := newFrame(
		memory.MakeParticle(mgl32.Vec3{0, 0, 0}, 1),
		memory.MakeParticle(mgl32.Vec3{4, 0, 0}, 1),
	)
	s := f.Store
	rigids := s.Allocator(memory.KindRigids).Allocate(1)
	comps := s.Allocator(memory.KindRigidComponents).Allocate(2)
	s.Rigids.SetOffset(rigids, 0, 2)
	s.RigidComponents.SetIndex(comps, 0, 0)
	s.RigidComponents.SetIndex(comps, 1, 1)
	s.RigidComponents.SetRest(comps, 0, mgl32.Vec3{-1, 0, 0})
	s.RigidComponents.SetRest(comps, 1, mgl32.Vec3{1, 0, 0})
	f.RigidOffsets = []int32{0, 2}

	tests := []struct {
		name   string
		params Params
		want   float32
	}{
		{"disabled", Params{Iterations: 1}, 1},
		{"below threshold", Params{Iterations: 1, PlasticThreshold: 2, PlasticCreep: 0.5}, 1},
		{"creeps", Params{Iterations: 1, PlasticThreshold: 0.5, PlasticCreep: 0.5}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.RigidComponents.SetRest(comps, 0, mgl32.Vec3{-1, 0, 0})
			s.RigidComponents.SetRest(comps, 1, mgl32.Vec3{1, 0, 0})

			NewCPUBackend(tt.params).Step(f, 0.1)

			if got := s.RigidComponents.Rest(comps, 1)[0]; got != tt.want {
				t.Errorf("rest x = %v, want %v", got, tt.want)
			}
			if got := s.RigidComponents.Rest(comps, 0)[0]; got != -tt.want {
				t.Errorf("rest x = %v, want %v", got, -tt.want)
			}
		})
	}
}

func TestCPUBackendParallelMatchesSerial(t *testing.T) {
	n := parallelThreshold * 2
	positions := make([]mgl32.Vec4, n)
	for i := range positions {
		positions[i] = memory.MakeParticle(mgl32.Vec3{float32(i), 1, 0}, 1)
	}
	serialFrame, _ := newFrame(positions...)
	parallelFrame, _ := newFrame(positions...)

	NewCPUBackend(Params{Gravity: mgl32.Vec3{0, -10, 0}, Workers: 1}).Step(serialFrame, 0.05)
	NewCPUBackend(Params{Gravity: mgl32.Vec3{0, -10, 0}, Workers: 4}).Step(parallelFrame, 0.05)

	a := serialFrame.Store.Particles.Positions()
	b := parallelFrame.Store.Particles.Positions()
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			t.Fatalf("particle %d: serial %v, parallel %v", i, a[i], b[i])
		}
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"cpu", "cpu"},
		{"", "cpu"},
		{"auto", "cpu"},
		{"flex", "flex (not available)"},
	}
	for _, tt := range tests {
		b := ByName(tt.name, DefaultParams())
		if b == nil || b.Name() != tt.want {
			t.Errorf("ByName(%q) = %v, want %s", tt.name, b, tt.want)
		}
	}
	if ByName("cuda", DefaultParams()) != nil {
		t.Error("ByName(cuda) should be nil")
	}
}
