package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "rope" {
		t.Errorf("expected model rope, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("rope", "short")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Body.Resolution != 8 {
		t.Errorf("expected resolution 8, got %d", cfg.Body.Resolution)
	}
	if cfg.Space.Particles != DefaultParticles {
		t.Errorf("preset lost default capacities: %+v", cfg.Space)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("rope", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "short")
	if cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if diff := cmp.Diff([]string{"long", "short"}, ListPresets("rope")); diff != "" {
		t.Errorf("ListPresets(rope) (-want +got):\n%s", diff)
	}

	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestAllPresetsValid(t *testing.T) {
	for _, model := range ListModels() {
		for _, name := range ListPresets(model) {
			if err := GetPreset(model, name).Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"growth not above one", func(c *Config) { c.Space.Growth = 1 }},
		{"zero resolution", func(c *Config) { c.Body.Resolution = 0 }},
		{"zero plane normal", func(c *Config) { c.Solver.Planes[0].Normal = [3]float32{} }},
		{"plastic creep above one", func(c *Config) { c.Solver.PlasticCreep = 1.5 }},
		{"negative plastic threshold", func(c *Config) { c.Solver.PlasticThreshold = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dt = 0.01
	cfg.Duration = 1
	if got := cfg.Steps(); got != 100 {
		t.Errorf("Steps() = %d, want 100", got)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flexsim.yaml")
	cfg := GetPreset("balloon", "firm")
	cfg.Solver.Planes = append(cfg.Solver.Planes, PlaneConfig{Name: "wall", Normal: [3]float32{1, 0, 0}, Offset: 2, Channels: 0x3})

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("config changed across save/load (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPlanesNormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.Planes = []PlaneConfig{{Normal: [3]float32{0, 2, 0}, Channels: 1}}
	planes := cfg.Planes()
	if len(planes) != 1 || planes[0].Normal.Len() < 0.999 || planes[0].Normal.Len() > 1.001 {
		t.Errorf("Planes() = %+v, want unit normal", planes)
	}
}
