package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/config"
	"github.com/san-kum/flexsim/internal/experiment"
	"github.com/san-kum/flexsim/internal/sim"
	"github.com/san-kum/flexsim/internal/space"
	"gopkg.in/yaml.v3"
)

var ErrUnknownAction = errors.New("automation: unknown action")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Preset selects a starting config; Body fields
// that are set override it.
type ScenarioStep struct {
	Model    string             `yaml:"model"`
	Preset   string             `yaml:"preset"`
	Backend  string             `yaml:"backend"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Body     *config.BodyConfig `yaml:"body"`
	Events   []EventSpec        `yaml:"events"`
	SaveAs   string             `yaml:"save_as"`
}

// EventSpec changes the step's body at time At.
//
// Actions: remove_particles, remove_springs, remove_triangles, remove_rigids
// and remove_rigid_components take Indices; set_pressure and
// set_collision_group take Value; remove_body takes nothing.
type EventSpec struct {
	At      float64 `yaml:"at"`
	Action  string  `yaml:"action"`
	Indices []int   `yaml:"indices"`
	Value   float64 `yaml:"value"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name     string
	Config   *config.Config
	Result   *sim.Result
	Stats    space.Stats
	Contacts int
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		for _, ev := range step.Events {
			if _, err := ev.apply(nil); errors.Is(err, ErrUnknownAction) {
				return nil, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return &scenario, nil
}

// Config resolves the step into a full run config.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("preset not found: %s/%s", s.Model, s.Preset)
		}
	}
	cfg.Model = s.Model
	if s.Backend != "" {
		cfg.Backend = s.Backend
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Body != nil {
		cfg.Body = *s.Body
	}
	return cfg, cfg.Validate()
}

// apply returns the closure that performs the action on b. A nil body only
// checks the action name.
func (e EventSpec) apply(b *body.Body) (func(*space.Space) error, error) {
	var fn func(sp *space.Space)
	switch e.Action {
	case "remove_particles":
		fn = func(*space.Space) {
			for _, i := range e.Indices {
				b.RemoveParticle(body.ParticleIndex(i))
			}
		}
	case "remove_springs":
		fn = func(*space.Space) {
			for _, i := range e.Indices {
				b.RemoveSpring(body.SpringIndex(i))
			}
		}
	case "remove_triangles":
		fn = func(*space.Space) {
			for _, i := range e.Indices {
				b.RemoveTriangle(body.TriangleIndex(i))
			}
		}
	case "remove_rigids":
		fn = func(*space.Space) {
			for _, i := range e.Indices {
				b.RemoveRigid(body.RigidIndex(i))
			}
		}
	case "remove_rigid_components":
		fn = func(*space.Space) {
			for _, i := range e.Indices {
				b.RemoveRigidComponent(body.RigidComponentIndex(i))
			}
		}
	case "set_pressure":
		fn = func(*space.Space) { b.SetPressure(float32(e.Value)) }
	case "set_collision_group":
		fn = func(*space.Space) { b.SetCollisionGroup(uint32(e.Value)) }
	case "remove_body":
		return func(sp *space.Space) error { return sp.RemoveBody(b) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	return func(sp *space.Space) error {
		if !sp.Contains(b) {
			return fmt.Errorf("%s: body %s is no longer in the space", e.Action, b.Name())
		}
		fn(sp)
		return nil
	}, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log logr.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "model", step.Model)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg, log.WithName(step.Model))
		if err := exp.Setup(registry, registry.DefaultMetrics(cfg)); err != nil {
			exp.Close()
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		for k, ev := range step.Events {
			apply, err := ev.apply(exp.Body())
			if err != nil {
				exp.Close()
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
			exp.Simulator().Schedule(sim.Event{
				At:    ev.At,
				Name:  fmt.Sprintf("%s#%d", ev.Action, k),
				Apply: apply,
			})
		}

		result, err := exp.Run(ctx)
		if err != nil {
			exp.Close()
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s_%d", step.Model, i+1)
		}
		results = append(results, StepResult{
			Name:     name,
			Config:   cfg,
			Result:   result,
			Stats:    exp.Space().Stats(),
			Contacts: exp.Contacts(),
		})
		exp.Close()
	}

	return results, nil
}

// ParameterSweep varies one body setting across a range.
type ParameterSweep struct {
	Model     string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
	Dt        float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue  float64
	FinalCenter mgl32.Vec3
	MaxEnergy   float64
	MinEnergy   float64
	Stable      bool
}

func setBodyParam(bc *config.BodyConfig, name string, v float64) error {
	switch name {
	case "stiffness":
		bc.Stiffness = float32(v)
	case "mass":
		bc.Mass = float32(v)
	case "spacing":
		bc.Spacing = float32(v)
	case "height":
		bc.Height = float32(v)
	case "pressure":
		bc.Pressure = float32(v)
	case "resolution":
		bc.Resolution = int(v)
	default:
		return fmt.Errorf("unknown body parameter: %s", name)
	}
	return nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, log logr.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := config.DefaultConfig()
		cfg.Model = sweep.Model
		cfg.Dt = sweep.Dt
		cfg.Duration = sweep.Duration
		if err := setBodyParam(&cfg.Body, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		exp := experiment.New(cfg, log)
		if err := exp.Setup(registry, nil); err != nil {
			exp.Close()
			return nil, err
		}
		result, err := exp.Run(ctx)
		exp.Close()
		if err != nil {
			return nil, err
		}

		sr := SweepResult{ParamValue: paramVal, Stable: len(result.Errors) == 0}
		if len(result.Samples) > 0 {
			sr.FinalCenter = result.Samples[len(result.Samples)-1].Center
			sr.MinEnergy, sr.MaxEnergy = math.Inf(1), math.Inf(-1)
			for _, s := range result.Samples {
				sr.MinEnergy = math.Min(sr.MinEnergy, s.KineticEnergy)
				sr.MaxEnergy = math.Max(sr.MaxEnergy, s.KineticEnergy)
			}
		}
		results = append(results, sr)

		log.V(1).Info("sweep step done", "step", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig jitters every particle of a freshly built model by up to
// Perturbation along each axis.
type MonteCarloConfig struct {
	Config       *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID     int
	FinalCenter mgl32.Vec3
	MinHeight   float32
	Stable      bool // Did simulation remain bounded?
}

// RunMonteCarlo executes the trials concurrently, one space per trial.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log logr.Logger) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	seeds := make([]int64, cfg.NumTrials)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	ensemble := sim.NewEnsemble(func(trial int) (*sim.Simulator, error) {
		exp := experiment.New(cfg.Config, log.WithValues("trial", trial))
		if err := exp.Setup(registry, nil); err != nil {
			exp.Close()
			return nil, err
		}
		perturb(exp.Body(), rand.New(rand.NewSource(seeds[trial])), float32(cfg.Perturbation))
		return exp.Simulator(), nil
	}, cfg.NumTrials)

	runs, err := ensemble.Run(ctx, experiment.SimConfig(cfg.Config))
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, 0, len(runs))
	for trial, r := range runs {
		mc := MonteCarloResult{TrialID: trial, Stable: len(r.Errors) == 0}
		if n := len(r.Samples); n > 0 {
			last := r.Samples[n-1]
			mc.FinalCenter = last.Center
			mc.MinHeight = last.MinHeight
			for _, v := range last.Center {
				if math.Abs(float64(v)) > 1e6 {
					mc.Stable = false
				}
			}
		}
		results = append(results, mc)
	}
	log.V(1).Info("monte carlo done", "trials", len(results))
	return results, nil
}

func perturb(b *body.Body, rng *rand.Rand, amount float32) {
	for i := 0; i < b.ParticleCount(); i++ {
		idx := body.ParticleIndex(i)
		if b.ParticleMass(idx) == 0 {
			continue
		}
		jitter := mgl32.Vec3{
			(rng.Float32()*2 - 1) * amount,
			(rng.Float32()*2 - 1) * amount,
			(rng.Float32()*2 - 1) * amount,
		}
		b.SetParticlePosition(idx, b.ParticlePosition(idx).Add(jitter))
	}
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
