package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/compute"
	"github.com/san-kum/flexsim/internal/memory"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 1.0 / 60
	DefaultDuration   = 5.0
	DefaultGrowth     = memory.DefaultGrowthFactor
	DefaultIterations = 4
	DefaultParticles  = 1024
	DefaultSpacing    = 0.1
	DefaultStiffness  = 0.8
	DefaultHeight     = 2.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Model     string       `yaml:"model"`
	Backend   string       `yaml:"backend"`
	Dt        float64      `yaml:"dt"`
	Duration  float64      `yaml:"duration"`
	Verbosity int          `yaml:"verbosity"`
	Space     SpaceConfig  `yaml:"space"`
	Solver    SolverConfig `yaml:"solver"`
	Body      BodyConfig   `yaml:"body"`
}

// SpaceConfig sets the initial slot count of every shared buffer.
type SpaceConfig struct {
	Particles       int     `yaml:"particles"`
	Springs         int     `yaml:"springs"`
	Triangles       int     `yaml:"triangles"`
	Rigids          int     `yaml:"rigids"`
	RigidComponents int     `yaml:"rigid_components"`
	Inflatables     int     `yaml:"inflatables"`
	Growth          float64 `yaml:"growth"`
}

type SolverConfig struct {
	Gravity          [3]float32    `yaml:"gravity"`
	Iterations       int           `yaml:"iterations"`
	Damping          float32       `yaml:"damping"`
	Workers          int           `yaml:"workers"`
	PlasticThreshold float32       `yaml:"plastic_threshold"`
	PlasticCreep     float32       `yaml:"plastic_creep"`
	Planes           []PlaneConfig `yaml:"planes"`
}

type PlaneConfig struct {
	Name     string     `yaml:"name"`
	Normal   [3]float32 `yaml:"normal"`
	Offset   float32    `yaml:"offset"`
	Channels uint32     `yaml:"channels"`
}

// BodyConfig parameterizes the model builders.
type BodyConfig struct {
	Resolution     int     `yaml:"resolution"`
	Spacing        float32 `yaml:"spacing"`
	Mass           float32 `yaml:"mass"`
	Stiffness      float32 `yaml:"stiffness"`
	Height         float32 `yaml:"height"`
	Pressure       float32 `yaml:"pressure"`
	CollisionGroup uint32  `yaml:"collision_group"`
	MonitorContact bool    `yaml:"monitor_contacts"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    "rope",
		Backend:  "auto",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Space: SpaceConfig{
			Particles:       DefaultParticles,
			Springs:         DefaultParticles,
			Triangles:       DefaultParticles,
			Rigids:          16,
			RigidComponents: DefaultParticles,
			Inflatables:     4,
			Growth:          DefaultGrowth,
		},
		Solver: SolverConfig{
			Gravity:    [3]float32{0, -9.8, 0},
			Iterations: DefaultIterations,
			Damping:    0.01,
			Planes: []PlaneConfig{
				{Name: "ground", Normal: [3]float32{0, 1, 0}, Channels: 0x1},
			},
		},
		Body: BodyConfig{
			Resolution: 10,
			Spacing:    DefaultSpacing,
			Mass:       1,
			Stiffness:  DefaultStiffness,
			Height:     DefaultHeight,
			Pressure:   1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	case c.Space.Growth != 0 && c.Space.Growth <= 1:
		return fmt.Errorf("%w: growth factor must exceed 1, got %g", ErrInvalidConfig, c.Space.Growth)
	case c.Body.Resolution < 1:
		return fmt.Errorf("%w: body resolution must be at least 1", ErrInvalidConfig)
	}
	if c.Solver.PlasticThreshold < 0 || c.Solver.PlasticCreep < 0 || c.Solver.PlasticCreep > 1 {
		return fmt.Errorf("%w: plastic creep must be in [0,1] and threshold non-negative", ErrInvalidConfig)
	}
	for _, p := range c.Solver.Planes {
		if mgl32.Vec3(p.Normal).Len() == 0 {
			return fmt.Errorf("%w: plane %q has a zero normal", ErrInvalidConfig, p.Name)
		}
	}
	return nil
}

// Steps is the number of fixed steps covering Duration.
func (c *Config) Steps() int {
	return int(c.Duration/c.Dt + 0.5)
}

func (c *Config) Capacities() memory.Capacities {
	return memory.Capacities{
		Particles:       c.Space.Particles,
		Springs:         c.Space.Springs,
		Triangles:       c.Space.Triangles,
		Rigids:          c.Space.Rigids,
		RigidComponents: c.Space.RigidComponents,
		Inflatables:     c.Space.Inflatables,
		Growth:          c.Space.Growth,
	}
}

func (c *Config) SolverParams() compute.Params {
	return compute.Params{
		Gravity:          mgl32.Vec3(c.Solver.Gravity),
		Iterations:       c.Solver.Iterations,
		Damping:          c.Solver.Damping,
		Workers:          c.Solver.Workers,
		PlasticThreshold: c.Solver.PlasticThreshold,
		PlasticCreep:     c.Solver.PlasticCreep,
	}
}

// Planes returns the configured collision planes with unit normals.
func (c *Config) Planes() []compute.Plane {
	planes := make([]compute.Plane, 0, len(c.Solver.Planes))
	for _, p := range c.Solver.Planes {
		planes = append(planes, compute.Plane{
			Normal:   mgl32.Vec3(p.Normal).Normalize(),
			Offset:   p.Offset,
			Channels: p.Channels,
		})
	}
	return planes
}
