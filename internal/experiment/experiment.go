package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/config"
	"github.com/san-kum/flexsim/internal/models"
	"github.com/san-kum/flexsim/internal/sim"
	"github.com/san-kum/flexsim/internal/space"
)

// Experiment is one configured space holding a single model body.
type Experiment struct {
	cfg       *config.Config
	log       logr.Logger
	space     *space.Space
	body      *body.Body
	simulator *sim.Simulator
	contacts  int
}

func New(cfg *config.Config, log logr.Logger) *Experiment {
	return &Experiment{
		cfg: cfg,
		log: log,
	}
}

// Setup builds the space, the backend, the collision planes and the model
// body described by the config.
func (e *Experiment) Setup(reg *Registry, metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	builder, err := reg.GetModel(e.cfg.Model, e.cfg.Body)
	if err != nil {
		return err
	}
	params := e.cfg.SolverParams()
	if t, ok := builder.(models.SolverTuner); ok {
		t.TuneSolver(&params)
	}
	backend, err := reg.GetBackend(e.cfg.Backend, params)
	if err != nil {
		return err
	}
	if !backend.Available() {
		e.log.Info("backend not available, falling back", "backend", backend.Name())
	}

	e.space = space.New(
		space.WithLogger(e.log.WithName("space")),
		space.WithBackend(backend),
		space.WithCapacities(e.cfg.Capacities()),
	)
	for i, p := range e.cfg.Planes() {
		name := e.cfg.Solver.Planes[i].Name
		if name == "" {
			name = fmt.Sprintf("plane%d", i)
		}
		e.space.AddPrimitive(name, p)
	}

	e.body = body.New(builder.Name(), body.WithLogger(e.log.WithName("body")))
	builder.Configure(e.body)
	if e.cfg.Body.CollisionGroup != 0 {
		e.body.SetCollisionGroup(e.cfg.Body.CollisionGroup)
	}
	if e.cfg.Body.MonitorContact {
		e.body.SetMonitoringPrimitivesContacts(true)
		e.body.SetPrimitiveContactCallback(func(*body.Body, body.PrimitiveContact) {
			e.contacts++
		})
	}
	if err := e.space.AddBody(e.body); err != nil {
		return err
	}
	if err := e.space.LoadModel(e.body, builder.Build()); err != nil {
		return err
	}

	e.simulator = sim.New(e.space, e.log.WithName("sim"))
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	e.log.V(1).Info("experiment ready", "model", e.cfg.Model,
		"backend", backend.Name(), "particles", e.body.ParticleCount())
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, SimConfig(e.cfg))
}

// SimConfig derives the run configuration from cfg, keeping roughly 200
// samples per run.
func SimConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		SampleEvery:   max(cfg.Steps()/200, 1),
		ValidateState: true,
	}
}

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Space() *space.Space       { return e.space }
func (e *Experiment) Body() *body.Body          { return e.body }
func (e *Experiment) Config() *config.Config    { return e.cfg }

// Contacts is the number of primitive contacts the body received. It stays
// zero unless contact monitoring is enabled.
func (e *Experiment) Contacts() int { return e.contacts }

func (e *Experiment) Close() {
	if e.space != nil {
		e.space.Close()
	}
}
