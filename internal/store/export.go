package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/flexsim/internal/sim"
)

type ExportData struct {
	Model    string             `json:"model"`
	Backend  string             `json:"backend"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Samples  []ExportSample     `json:"samples"`
	Events   []string           `json:"events,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}

type ExportSample struct {
	Time          float64    `json:"t"`
	Particles     int        `json:"particles"`
	KineticEnergy float64    `json:"kinetic_energy"`
	Center        [3]float32 `json:"center"`
	MinHeight     float32    `json:"min_height"`
}

func NewExportData(info RunInfo, result *sim.Result) ExportData {
	data := ExportData{
		Model:    info.Model,
		Backend:  info.Backend,
		Dt:       info.Dt,
		Duration: info.Duration,
		Steps:    result.StepsTaken,
		Samples:  make([]ExportSample, len(result.Samples)),
		Events:   result.Events,
		Metrics:  result.Metrics,
	}
	for i, s := range result.Samples {
		data.Samples[i] = ExportSample{
			Time:          s.Time,
			Particles:     s.Particles,
			KineticEnergy: s.KineticEnergy,
			Center:        s.Center,
			MinHeight:     s.MinHeight,
		}
	}
	return data
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

func WriteJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(info, result))
}
