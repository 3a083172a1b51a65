package compute

import (
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/memory"
)

// Params tunes the reference solver.
type Params struct {
	Gravity    mgl32.Vec3
	Iterations int
	// Damping is the fraction of velocity removed per second.
	Damping float32
	Workers int
	// A rigid component whose offset from its rest drifts further than
	// PlasticThreshold has its rest moved PlasticCreep of the way toward the
	// deformed shape. Zero disables plasticity.
	PlasticThreshold float32
	PlasticCreep     float32
}

func DefaultParams() Params {
	return Params{
		Gravity:    mgl32.Vec3{0, -9.8, 0},
		Iterations: 4,
		Damping:    0.01,
	}
}

// parallelThreshold is the particle count above which per-particle passes are
// split across workers.
const parallelThreshold = 256

// CPUBackend is a position-based reference solver. It integrates gravity,
// relaxes springs, volumes and rigid clusters, and pushes particles out of
// planes.
type CPUBackend struct {
	params    Params
	workers   int
	predicted []mgl32.Vec3
}

func NewCPUBackend(p Params) *CPUBackend {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if p.Iterations <= 0 {
		p.Iterations = 1
	}
	return &CPUBackend{
		params:  p,
		workers: workers,
	}
}

func (c *CPUBackend) Name() string    { return "cpu" }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        { c.predicted = nil }

func (c *CPUBackend) Params() Params { return c.params }

func (c *CPUBackend) Step(f *Frame, dt float32) []Contact {
	if f == nil || f.Store == nil || dt <= 0 {
		return nil
	}
	s := f.Store
	n := s.Used(memory.KindParticles)
	if n == 0 {
		return nil
	}
	positions := s.Particles.Positions()[:n]
	velocities := s.Particles.Velocities()[:n]

	if cap(c.predicted) < n {
		c.predicted = make([]mgl32.Vec3, n)
	}
	pred := c.predicted[:n]

	damping := 1 - c.params.Damping*dt
	if damping < 0 {
		damping = 0
	}
	c.forEach(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			x := positions[i]
			if x[3] == 0 {
				pred[i] = x.Vec3()
				continue
			}
			v := velocities[i].Add(c.params.Gravity.Mul(dt)).Mul(damping)
			velocities[i] = v
			pred[i] = x.Vec3().Add(v.Mul(dt))
		}
	})

	for it := 0; it < c.params.Iterations; it++ {
		c.projectSprings(s, positions, pred)
		c.projectVolumes(s, positions, pred)
		c.projectRigids(f, pred)
	}

	contacts := c.collide(f, positions, pred)

	inv := 1 / dt
	c.forEach(n, func(_, start, end int) {
		for i := start; i < end; i++ {
			if positions[i][3] == 0 {
				continue
			}
			velocities[i] = pred[i].Sub(positions[i].Vec3()).Mul(inv)
			positions[i] = pred[i].Vec4(positions[i][3])
		}
	})

	c.updateNormals(s, positions)
	c.updateRigids(f, positions)
	return contacts
}

func (c *CPUBackend) projectSprings(s *memory.Store, positions []mgl32.Vec4, pred []mgl32.Vec3) {
	m := s.Springs
	count := s.Used(memory.KindSprings)
	springs := m.Springs()[:count]
	lengths := m.Lengths()[:count]
	stiffness := m.Stiffnesses()[:count]

	for i, sp := range springs {
		a, b := sp[0], sp[1]
		if a < 0 || b < 0 || int(a) >= len(pred) || int(b) >= len(pred) {
			continue
		}
		wa, wb := positions[a][3], positions[b][3]
		if wa+wb == 0 {
			continue
		}
		d := pred[b].Sub(pred[a])
		l := d.Len()
		if l < 1e-6 {
			continue
		}
		corr := d.Mul(stiffness[i] * (l - lengths[i]) / (l * (wa + wb)))
		pred[a] = pred[a].Add(corr.Mul(wa))
		pred[b] = pred[b].Sub(corr.Mul(wb))
	}
}

// projectVolumes drives each inflatable toward pressure × rest volume.
func (c *CPUBackend) projectVolumes(s *memory.Store, positions []mgl32.Vec4, pred []mgl32.Vec3) {
	m := s.Inflatables
	count := s.Used(memory.KindInflatables)
	triangles := s.Triangles.Triangles()[:s.Used(memory.KindTriangles)]

	for k := 0; k < count; k++ {
		start, n := int(m.StartTriangles()[k]), int(m.TriangleCounts()[k])
		if n == 0 || start < 0 || start+n > len(triangles) {
			continue
		}
		run := triangles[start : start+n]

		var volume float32
		slot := make(map[int32]int)
		var verts []int32
		var grads []mgl32.Vec3
		add := func(p int32, g mgl32.Vec3) {
			j, ok := slot[p]
			if !ok {
				j = len(verts)
				slot[p] = j
				verts = append(verts, p)
				grads = append(grads, mgl32.Vec3{})
			}
			grads[j] = grads[j].Add(g.Mul(1.0 / 6))
		}
		for _, t := range run {
			p0, p1, p2 := pred[t[0]], pred[t[1]], pred[t[2]]
			volume += p0.Dot(p1.Cross(p2)) / 6
			add(t[0], p1.Cross(p2))
			add(t[1], p2.Cross(p0))
			add(t[2], p0.Cross(p1))
		}

		var denom float32
		for j, p := range verts {
			denom += positions[p][3] * grads[j].Dot(grads[j])
		}
		if denom < 1e-9 {
			continue
		}
		constraint := volume - m.Pressures()[k]*m.RestVolumes()[k]
		lambda := -constraint * m.ConstraintScales()[k] / denom
		for j, p := range verts {
			pred[p] = pred[p].Add(grads[j].Mul(lambda * positions[p][3]))
		}
	}
}

// projectRigids pulls each component toward its rest offset around the
// cluster's current center.
func (c *CPUBackend) projectRigids(f *Frame, pred []mgl32.Vec3) {
	s := f.Store
	indices := s.RigidComponents.Indices()
	rests := s.RigidComponents.Rests()
	stiffness := s.Rigids.Stiffnesses()

	for r := 0; r+1 < len(f.RigidOffsets); r++ {
		start, end := int(f.RigidOffsets[r]), int(f.RigidOffsets[r+1])
		if end <= start {
			continue
		}
		center := runCenter(indices[start:end], pred)
		for k := start; k < end; k++ {
			p := indices[k]
			if p < 0 || int(p) >= len(pred) {
				continue
			}
			goal := center.Add(rests[k])
			pred[p] = pred[p].Add(goal.Sub(pred[p]).Mul(stiffness[r]))
		}
	}
}

func (c *CPUBackend) updateRigids(f *Frame, positions []mgl32.Vec4) {
	s := f.Store
	indices := s.RigidComponents.Indices()
	rests := s.RigidComponents.Rests()
	rigids := s.Rigids.Positions()
	plastic := c.params.PlasticThreshold > 0 && c.params.PlasticCreep > 0
	for r := 0; r+1 < len(f.RigidOffsets); r++ {
		start, end := int(f.RigidOffsets[r]), int(f.RigidOffsets[r+1])
		if end <= start {
			continue
		}
		var center mgl32.Vec3
		n := 0
		for _, p := range indices[start:end] {
			if p >= 0 && int(p) < len(positions) {
				center = center.Add(positions[p].Vec3())
				n++
			}
		}
		if n == 0 {
			continue
		}
		center = center.Mul(1 / float32(n))
		rigids[r] = center
		if !plastic {
			continue
		}
		for k := start; k < end; k++ {
			p := indices[k]
			if p < 0 || int(p) >= len(positions) {
				continue
			}
			d := positions[p].Vec3().Sub(center).Sub(rests[k])
			if d.Len() > c.params.PlasticThreshold {
				rests[k] = rests[k].Add(d.Mul(c.params.PlasticCreep))
			}
		}
	}
}

func runCenter(indices []int32, pred []mgl32.Vec3) mgl32.Vec3 {
	var center mgl32.Vec3
	n := 0
	for _, p := range indices {
		if p >= 0 && int(p) < len(pred) {
			center = center.Add(pred[p])
			n++
		}
	}
	if n == 0 {
		return center
	}
	return center.Mul(1 / float32(n))
}

// collide projects predicted positions out of every plane whose channels
// match the particle's phase.
func (c *CPUBackend) collide(f *Frame, positions []mgl32.Vec4, pred []mgl32.Vec3) []Contact {
	if len(f.Primitives) == 0 {
		return nil
	}
	phases := f.Store.Particles.Phases()[:len(pred)]
	perWorker := make([][]Contact, c.workers)

	c.forEach(len(pred), func(worker, start, end int) {
		for i := start; i < end; i++ {
			if positions[i][3] == 0 {
				continue
			}
			channels := uint32(phases[i]) >> 24
			for k, plane := range f.Primitives {
				if plane.Channels&channels == 0 {
					continue
				}
				depth := plane.Normal.Dot(pred[i]) + plane.Offset
				if depth >= 0 {
					continue
				}
				pred[i] = pred[i].Sub(plane.Normal.Mul(depth))
				perWorker[worker] = append(perWorker[worker], Contact{
					Particle:  i,
					Primitive: k,
					Velocity:  f.Store.Particles.Velocities()[i],
					Normal:    plane.Normal,
				})
			}
		}
	})

	var contacts []Contact
	for _, cs := range perWorker {
		contacts = append(contacts, cs...)
	}
	return contacts
}

// updateNormals accumulates area-weighted triangle normals into the particle
// normal buffer.
func (c *CPUBackend) updateNormals(s *memory.Store, positions []mgl32.Vec4) {
	normals := s.Particles.Normals()[:len(positions)]
	triangles := s.Triangles.Triangles()[:s.Used(memory.KindTriangles)]
	if len(triangles) == 0 {
		return
	}
	clear(normals)
	for _, t := range triangles {
		p0, p1, p2 := positions[t[0]].Vec3(), positions[t[1]].Vec3(), positions[t[2]].Vec3()
		n := p1.Sub(p0).Cross(p2.Sub(p0)).Vec4(0)
		for _, p := range t {
			normals[p] = normals[p].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Vec3().Len(); l > 0 {
			normals[i] = n.Vec3().Mul(1 / l).Vec4(0)
		}
	}
}

// forEach splits [0, n) across workers once n is large enough to pay for
// the goroutines.
func (c *CPUBackend) forEach(n int, fn func(worker, start, end int)) {
	if n < parallelThreshold || c.workers == 1 {
		fn(0, 0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(w, start, end)
	}

	wg.Wait()
}
