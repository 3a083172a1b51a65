package experiment

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/compute"
	"github.com/san-kum/flexsim/internal/config"
	"github.com/san-kum/flexsim/internal/memory"
	"github.com/san-kum/flexsim/internal/metrics"
	"github.com/san-kum/flexsim/internal/models"
	"github.com/san-kum/flexsim/internal/sim"
)

type Registry struct {
	models   map[string]func(config.BodyConfig) models.Builder
	backends map[string]func(compute.Params) compute.Backend
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]func(config.BodyConfig) models.Builder),
		backends: make(map[string]func(compute.Params) compute.Backend),
	}

	r.models["rope"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewRope()
		m.Segments = bc.Resolution
		m.Spacing = orDefault(bc.Spacing, m.Spacing)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.Stiffness = orDefault(bc.Stiffness, m.Stiffness)
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}
	r.models["cloth"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewCloth()
		m.Width, m.Depth = bc.Resolution, bc.Resolution
		m.Spacing = orDefault(bc.Spacing, m.Spacing)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.Stiffness = orDefault(bc.Stiffness, m.Stiffness)
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}
	r.models["rigid_box"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewRigidBox()
		m.Size = bc.Resolution
		m.Spacing = orDefault(bc.Spacing, m.Spacing)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.Stiffness = orDefault(bc.Stiffness, m.Stiffness)
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}
	// Stiffness sets the cluster stiffness; links are half as stiff.
	r.models["soft"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewSoftBlock()
		m.Size = bc.Resolution
		m.Spacing = orDefault(bc.Spacing, m.Spacing)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.ClusterStiffness = orDefault(bc.Stiffness, m.ClusterStiffness)
		m.LinkStiffness = m.ClusterStiffness / 2
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}
	r.models["fluid"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewFluidBlock()
		m.Size = bc.Resolution
		m.Spacing = orDefault(bc.Spacing, m.Spacing)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}
	// Spacing is the balloon radius.
	r.models["balloon"] = func(bc config.BodyConfig) models.Builder {
		m := models.NewBalloon()
		m.Slices = bc.Resolution
		m.Stacks = max(bc.Resolution/2, 2)
		m.Radius = orDefault(bc.Spacing, m.Radius)
		m.Mass = orDefault(bc.Mass, m.Mass)
		m.Stiffness = orDefault(bc.Stiffness, m.Stiffness)
		m.Pressure = orDefault(bc.Pressure, m.Pressure)
		m.Origin = mgl32.Vec3{0, bc.Height, 0}
		return m
	}

	r.backends["cpu"] = func(p compute.Params) compute.Backend { return compute.NewCPUBackend(p) }
	r.backends["flex"] = func(p compute.Params) compute.Backend { return compute.NewFlexBackend(p) }
	r.backends["auto"] = compute.AutoSelectBackend

	return r
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

func (r *Registry) GetModel(name string, bc config.BodyConfig) (models.Builder, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(bc), nil
}

// GetBackend returns the named backend. An empty name selects automatically.
func (r *Registry) GetBackend(name string, p compute.Params) (compute.Backend, error) {
	if name == "" {
		name = "auto"
	}
	fn, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListBackends() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(mgl32.Vec3(cfg.Solver.Gravity)),
		metrics.NewStability(100.0),
		metrics.NewOccupancy(memory.KindParticles),
		metrics.NewChurn(),
	}
}
