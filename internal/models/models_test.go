package models

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/compute"
	"github.com/san-kum/flexsim/internal/space"
)

func TestBuildersProduceValidModels(t *testing.T) {
	builders := []Builder{NewRope(), NewCloth(), NewRigidBox(), NewFluidBlock(), NewBalloon(), NewSoftBlock()}

	for _, b := range builders {
		t.Run(b.Name(), func(t *testing.T) {
			m := b.Build()
			if err := m.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if len(m.Positions) == 0 {
				t.Error("model has no particles")
			}
		})
	}
}

func TestRopeCounts(t *testing.T) {
	r := NewRope()
	r.Segments = 4
	m := r.Build()

	if len(m.Positions) != 5 {
		t.Errorf("expected 5 particles, got %d", len(m.Positions))
	}
	if len(m.Springs) != 4+3 {
		t.Errorf("expected 7 springs, got %d", len(m.Springs))
	}
	if m.Masses[0] != 0 {
		t.Errorf("pinned rope root mass = %v, want 0", m.Masses[0])
	}
	if l := m.Springs[0].Length; math.Abs(float64(l-r.Spacing)) > 1e-6 {
		t.Errorf("stretch spring length = %v, want %v", l, r.Spacing)
	}
}

func TestClothCounts(t *testing.T) {
	c := NewCloth()
	c.Width, c.Depth = 3, 4
	m := c.Build()

	if len(m.Positions) != 12 {
		t.Errorf("expected 12 particles, got %d", len(m.Positions))
	}
	cells := (c.Width - 1) * (c.Depth - 1)
	if len(m.Triangles) != 2*cells {
		t.Errorf("expected %d triangles, got %d", 2*cells, len(m.Triangles))
	}
	stretch := (c.Width-1)*c.Depth + c.Width*(c.Depth-1)
	if len(m.Springs) != stretch+2*cells {
		t.Errorf("expected %d springs, got %d", stretch+2*cells, len(m.Springs))
	}
}

func TestRigidBoxSingleCluster(t *testing.T) {
	r := NewRigidBox()
	r.Size = 2
	m := r.Build()

	if len(m.Rigids) != 1 {
		t.Fatalf("expected 1 rigid, got %d", len(m.Rigids))
	}
	if len(m.Rigids[0].Components) != 8 {
		t.Errorf("expected 8 components, got %d", len(m.Rigids[0].Components))
	}
}

func TestFluidConfiguresPhase(t *testing.T) {
	b := body.New("water")
	NewFluidBlock().Configure(b)
	if !b.CollisionFlag(body.CollisionFlagFluid) {
		t.Error("fluid flag not set")
	}
}

func TestBalloonIsClosedAndOutward(t *testing.T) {
	bl := NewBalloon()
	m := bl.Build()

	edges := make(map[[2]body.ParticleIndex]int)
	for _, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			edges[[2]body.ParticleIndex{tri[k], tri[(k+1)%3]}]++
		}
	}
	for e, n := range edges {
		if n != 1 || edges[[2]body.ParticleIndex{e[1], e[0]}] != 1 {
			t.Fatalf("edge %v is not shared by exactly two opposed triangles", e)
		}
	}

	if len(m.Springs) != len(edges)/2 {
		t.Errorf("expected %d edge springs, got %d", len(edges)/2, len(m.Springs))
	}

	sphere := 4.0 / 3 * math.Pi * math.Pow(float64(bl.Radius), 3)
	v := float64(m.Volume())
	if v <= 0 || v > sphere {
		t.Errorf("volume = %v, want in (0, %v]", v, sphere)
	}
	if m.Inflatable == nil || m.Inflatable.Pressure != bl.Pressure {
		t.Errorf("inflatable = %+v", m.Inflatable)
	}
}

func unitSoftBlock() *SoftBlock {
	s := NewSoftBlock()
	s.Size = 3
	s.Spacing = 1
	s.Origin = mgl32.Vec3{}
	s.ClusterSpacing = 2
	s.ClusterRadius = 1.8
	s.LinkRadius = 1.01
	return s
}

func TestSoftBlockOverlappingClusters(t *testing.T) {
	m := unitSoftBlock().Build()

	if len(m.Rigids) != 8 {
		t.Fatalf("expected 8 clusters, got %d", len(m.Rigids))
	}
	covered := make([]int, len(m.Positions))
	for r, rigid := range m.Rigids {
		if len(rigid.Components) != 8 {
			t.Errorf("cluster %d has %d components, want 8", r, len(rigid.Components))
		}
		for _, p := range rigid.Components {
			covered[p]++
		}
	}
	// x*9 + y*3 + z for the lattice center (1,1,1).
	if covered[13] != 8 {
		t.Errorf("center particle is in %d clusters, want 8", covered[13])
	}
	for i, n := range covered {
		if n == 0 {
			t.Errorf("particle %d is in no cluster", i)
		}
	}

	if len(m.Springs) != 54 {
		t.Errorf("expected 54 neighbour links, got %d", len(m.Springs))
	}
	for _, s := range m.Springs {
		if math.Abs(float64(s.Length-1)) > 1e-6 {
			t.Fatalf("link %v is not between neighbours", s)
		}
	}
}

func TestSoftBlockReloadsEveryClusterCOM(t *testing.T) {
	sp := space.New()
	b := body.New("soft")
	if err := sp.AddBody(b); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	m := unitSoftBlock().Build()
	if err := sp.LoadModel(b, m); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	center := func(r int) mgl32.Vec3 {
		var c mgl32.Vec3
		for _, p := range m.Rigids[r].Components {
			c = c.Add(b.ParticlePosition(p))
		}
		return c.Mul(1 / float32(len(m.Rigids[r].Components)))
	}

	b.SetParticlePosition(13, mgl32.Vec3{1, 1.8, 1})
	b.ReloadRigidsCOM()

	for r := range m.Rigids {
		want := center(r)
		if got := b.RigidPosition(body.RigidIndex(r)); !got.ApproxEqualThreshold(want, 1e-5) {
			t.Errorf("cluster %d center = %v, want %v", r, got, want)
		}
		start, _ := b.RigidComponents(body.RigidIndex(r))
		for k, p := range m.Rigids[r].Components {
			rest := b.RigidComponentRest(start + body.RigidComponentIndex(k))
			if wantRest := b.ParticlePosition(p).Sub(want); !rest.ApproxEqualThreshold(wantRest, 1e-5) {
				t.Errorf("cluster %d component %d rest = %v, want %v", r, k, rest, wantRest)
			}
		}
	}
}

func TestSoftBlockTunesPlasticity(t *testing.T) {
	s := NewSoftBlock()
	s.PlasticThreshold, s.PlasticCreep = 0.5, 0.25

	var p compute.Params
	s.TuneSolver(&p)
	if p.PlasticCreep != 0.25 || math.Abs(float64(p.PlasticThreshold-0.5*s.Spacing)) > 1e-7 {
		t.Errorf("tuned params = %+v", p)
	}

	p = compute.Params{PlasticThreshold: 2, PlasticCreep: 0.1}
	s.TuneSolver(&p)
	if p.PlasticThreshold != 2 || p.PlasticCreep != 0.1 {
		t.Errorf("configured plasticity overwritten: %+v", p)
	}
}
