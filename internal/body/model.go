package body

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Spring connects two particles of the same body.
type Spring struct {
	A, B      ParticleIndex
	Length    float32
	Stiffness float32
}

type Triangle [3]ParticleIndex

// Rigid groups particles into a shape-matching cluster.
type Rigid struct {
	Stiffness  float32
	Components []ParticleIndex
}

// Inflatable turns a closed triangle mesh into a pressurized volume. A zero
// RestVolume is replaced by the volume the mesh encloses when loaded.
type Inflatable struct {
	RestVolume      float32
	Pressure        float32
	ConstraintScale float32
}

// Model is the initial content of a body, expressed in body-local indices.
type Model struct {
	Positions  []mgl32.Vec3
	Masses     []float32
	Springs    []Spring
	Triangles  []Triangle
	Rigids     []Rigid
	Inflatable *Inflatable
}

func (m *Model) RigidComponentCount() int {
	n := 0
	for _, r := range m.Rigids {
		n += len(r.Components)
	}
	return n
}

func (m *Model) InflatableCount() int {
	if m.Inflatable == nil {
		return 0
	}
	return 1
}

// Validate checks that every particle reference is in range.
func (m *Model) Validate() error {
	n := len(m.Positions)
	if len(m.Masses) != 0 && len(m.Masses) != n {
		return fmt.Errorf("%w: %d masses for %d particles", ErrInvalidModel, len(m.Masses), n)
	}
	valid := func(p ParticleIndex) bool { return p >= 0 && int(p) < n }
	for i, s := range m.Springs {
		if !valid(s.A) || !valid(s.B) {
			return fmt.Errorf("%w: spring %d references particle outside [0,%d)", ErrInvalidModel, i, n)
		}
	}
	for i, t := range m.Triangles {
		for _, p := range t {
			if !valid(p) {
				return fmt.Errorf("%w: triangle %d references particle outside [0,%d)", ErrInvalidModel, i, n)
			}
		}
	}
	for i, r := range m.Rigids {
		if len(r.Components) == 0 {
			return fmt.Errorf("%w: rigid %d has no components", ErrInvalidModel, i)
		}
		for _, p := range r.Components {
			if !valid(p) {
				return fmt.Errorf("%w: rigid %d references particle outside [0,%d)", ErrInvalidModel, i, n)
			}
		}
	}
	if m.Inflatable != nil && len(m.Triangles) == 0 {
		return fmt.Errorf("%w: inflatable without triangles", ErrInvalidModel)
	}
	return nil
}

// Volume returns the volume enclosed by the model's triangles.
func (m *Model) Volume() float32 {
	var v float32
	for _, t := range m.Triangles {
		p0, p1, p2 := m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]
		v += p0.Dot(p1.Cross(p2))
	}
	if v < 0 {
		v = -v
	}
	return v / 6
}

// Load writes m into the body's chunks. The space sizes the chunks to the
// model before calling it.
func (b *Body) Load(m *Model) error {
	if b.store == nil {
		return ErrNotAdmitted
	}
	if err := m.Validate(); err != nil {
		return err
	}
	want := []struct {
		kind string
		have int
		need int
	}{
		{"particles", b.ParticleCount(), len(m.Positions)},
		{"springs", b.SpringCount(), len(m.Springs)},
		{"triangles", b.TriangleCount(), len(m.Triangles)},
		{"rigids", b.RigidCount(), len(m.Rigids)},
		{"rigid components", b.RigidComponentCount(), m.RigidComponentCount()},
		{"inflatables", b.chunks.Inflatables.Size(), m.InflatableCount()},
	}
	for _, w := range want {
		if w.have != w.need {
			return fmt.Errorf("%w: body has %d %s, model needs %d", ErrInvalidModel, w.have, w.kind, w.need)
		}
	}

	for i, p := range m.Positions {
		mass := float32(1)
		if len(m.Masses) > 0 {
			mass = m.Masses[i]
		}
		b.SetParticlePositionMass(ParticleIndex(i), p, mass)
		b.SetParticleVelocity(ParticleIndex(i), mgl32.Vec3{})
	}

	for i, s := range m.Springs {
		b.ResetSpring(SpringIndex(i), s.A, s.B, s.Length, s.Stiffness)
	}

	for i, t := range m.Triangles {
		b.SetTriangle(TriangleIndex(i), t)
	}

	rigids := b.store.Rigids
	comps := b.store.RigidComponents
	offset := 0
	for r, rigid := range m.Rigids {
		for _, p := range rigid.Components {
			comps.SetIndex(b.chunks.RigidComponents, offset, int32(b.chunks.Particles.BufferIndex(int(p))))
			offset++
		}
		rigids.SetOffset(b.chunks.Rigids, r, int32(offset))
		rigids.SetRotation(b.chunks.Rigids, r, mgl32.QuatIdent())
		rigids.SetStiffness(b.chunks.Rigids, r, rigid.Stiffness)
	}
	b.ReloadRigidsCOM()

	if m.Inflatable != nil {
		rest := m.Inflatable.RestVolume
		if rest == 0 {
			rest = m.Volume()
		}
		b.SetRestVolume(rest)
		b.SetPressure(m.Inflatable.Pressure)
		b.SetConstraintScale(m.Inflatable.ConstraintScale)
		b.ReloadInflatables()
		b.SyncInflatable()
	}

	b.SyncPhase()
	b.changed |= ChangedPhase
	return nil
}
