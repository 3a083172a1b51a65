package config

import "sort"

// Presets override the body and timing settings of DefaultConfig, keyed by
// model and preset name.
var Presets = map[string]map[string]*Config{
	"rope": {
		"short": {
			Model: "rope", Dt: DefaultDt, Duration: 3.0,
			Body: BodyConfig{Resolution: 8, Spacing: 0.1, Mass: 1, Stiffness: 1, Height: 1},
		},
		"long": {
			Model: "rope", Dt: DefaultDt, Duration: 8.0,
			Body: BodyConfig{Resolution: 64, Spacing: 0.05, Mass: 0.5, Stiffness: 0.9, Height: 4},
		},
	},
	"cloth": {
		"small": {
			Model: "cloth", Dt: DefaultDt, Duration: 4.0,
			Body: BodyConfig{Resolution: 8, Spacing: 0.1, Mass: 0.2, Stiffness: 0.8, Height: 2},
		},
		"large": {
			Model: "cloth", Dt: DefaultDt, Duration: 6.0,
			Body: BodyConfig{Resolution: 32, Spacing: 0.05, Mass: 0.1, Stiffness: 0.6, Height: 3},
		},
	},
	"rigid_box": {
		"drop": {
			Model: "rigid_box", Dt: DefaultDt, Duration: 3.0,
			Body: BodyConfig{Resolution: 3, Spacing: 0.2, Mass: 1, Stiffness: 1, Height: 3, MonitorContact: true},
		},
		"soft": {
			Model: "rigid_box", Dt: DefaultDt, Duration: 3.0,
			Body: BodyConfig{Resolution: 4, Spacing: 0.15, Mass: 1, Stiffness: 0.3, Height: 2},
		},
	},
	"soft": {
		"jelly": {
			Model: "soft", Dt: DefaultDt, Duration: 3.0,
			Body: BodyConfig{Resolution: 5, Spacing: 0.1, Mass: 0.5, Stiffness: 0.4, Height: 1.5},
		},
		"firm": {
			Model: "soft", Dt: DefaultDt, Duration: 3.0,
			Body: BodyConfig{Resolution: 4, Spacing: 0.15, Mass: 1, Stiffness: 0.9, Height: 2, MonitorContact: true},
		},
	},
	"fluid": {
		"block": {
			Model: "fluid", Dt: 1.0 / 120, Duration: 2.0,
			Body: BodyConfig{Resolution: 6, Spacing: 0.1, Mass: 0.1, Height: 1},
		},
	},
	"balloon": {
		"soft": {
			Model: "balloon", Dt: DefaultDt, Duration: 4.0,
			Body: BodyConfig{Resolution: 12, Spacing: 0.5, Mass: 0.1, Stiffness: 0.5, Height: 2, Pressure: 1},
		},
		"firm": {
			Model: "balloon", Dt: DefaultDt, Duration: 4.0,
			Body: BodyConfig{Resolution: 16, Spacing: 0.5, Mass: 0.1, Stiffness: 1, Height: 2, Pressure: 1.5},
		},
	},
}

// GetPreset returns DefaultConfig with the preset's model, timing and body
// settings applied, or nil when it does not exist.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Model = p.Model
	cfg.Dt = p.Dt
	cfg.Duration = p.Duration
	cfg.Body = p.Body
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
