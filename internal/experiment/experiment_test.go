package experiment

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/config"
)

func TestRegistryModels(t *testing.T) {
	reg := NewRegistry()
	want := []string{"balloon", "cloth", "fluid", "rigid_box", "rope", "soft"}
	got := reg.ListModels()
	if len(got) != len(want) {
		t.Fatalf("ListModels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListModels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	for _, name := range want {
		b, err := reg.GetModel(name, config.DefaultConfig().Body)
		if err != nil {
			t.Fatalf("GetModel(%q): %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("GetModel(%q).Name() = %q", name, b.Name())
		}
	}

	if _, err := reg.GetModel("pendulum", config.BodyConfig{}); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestRegistryBackends(t *testing.T) {
	reg := NewRegistry()
	p := config.DefaultConfig().SolverParams()

	for _, name := range []string{"", "auto", "cpu"} {
		b, err := reg.GetBackend(name, p)
		if err != nil {
			t.Fatalf("GetBackend(%q): %v", name, err)
		}
		if !b.Available() {
			t.Errorf("GetBackend(%q) is not available", name)
		}
	}
	if _, err := reg.GetBackend("cuda", p); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestExperimentRunsEveryPreset(t *testing.T) {
	reg := NewRegistry()
	for _, model := range config.ListModels() {
		for _, preset := range config.ListPresets(model) {
			t.Run(model+"/"+preset, func(t *testing.T) {
				cfg := config.GetPreset(model, preset)
				cfg.Duration = 0.1

				e := New(cfg, logr.Discard())
				defer e.Close()
				if err := e.Setup(reg, reg.DefaultMetrics(cfg)); err != nil {
					t.Fatalf("Setup: %v", err)
				}
				result, err := e.Run(context.Background())
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
				if result.StepsTaken != cfg.Steps() {
					t.Errorf("steps = %d, want %d", result.StepsTaken, cfg.Steps())
				}
				if len(result.Errors) != 0 {
					t.Errorf("errors = %v", result.Errors)
				}
				if _, ok := result.Metrics["energy_drift"]; !ok {
					t.Errorf("metrics = %v, missing energy_drift", result.Metrics)
				}
			})
		}
	}
}

func TestExperimentContacts(t *testing.T) {
	cfg := config.GetPreset("rigid_box", "drop")
	cfg.Body.Height = 0.05
	cfg.Duration = 0.5

	e := New(cfg, logr.Discard())
	defer e.Close()
	if err := e.Setup(NewRegistry(), nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Contacts() == 0 {
		t.Error("expected ground contacts for a box resting on the plane")
	}
	if got := len(e.Space().Primitives()); got != 1 {
		t.Errorf("primitives = %d, want 1", got)
	}
}

func TestExperimentNotSetup(t *testing.T) {
	e := New(config.DefaultConfig(), logr.Discard())
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
}

func TestExperimentInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dt = 0
	if err := New(cfg, logr.Discard()).Setup(NewRegistry(), nil); err == nil {
		t.Error("expected error for invalid config")
	}
}
