package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flexsim/internal/body"
	"github.com/san-kum/flexsim/internal/sim"
	"github.com/san-kum/flexsim/internal/space"
)

const (
	metadataFile  = "metadata.json"
	samplesFile   = "samples.csv"
	particlesFile = "particles.csv"
)

var samplesHeader = []string{"time", "particles", "kinetic_energy", "cx", "cy", "cz", "min_height"}

var particlesHeader = []string{"body", "index", "x", "y", "z", "mass", "vx", "vy", "vz", "phase"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo identifies how a run was configured.
type RunInfo struct {
	Model    string
	Backend  string
	Dt       float64
	Duration float64
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Backend   string             `json:"backend"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Bodies    []string           `json:"bodies"`
	Particles int                `json:"particles"`
	Events    []string           `json:"events,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes the run metadata, its samples and a snapshot of every live
// particle of sp under a new run directory.
func (s *Store) Save(info RunInfo, result *sim.Result, sp *space.Space) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Model, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     info.Model,
		Backend:   info.Backend,
		Timestamp: now,
		Dt:        info.Dt,
		Duration:  info.Duration,
		Steps:     result.StepsTaken,
		Events:    result.Events,
		Metrics:   result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	for _, b := range sp.Bodies() {
		meta.Bodies = append(meta.Bodies, b.Name())
		meta.Particles += b.ParticleCount()
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, samplesFile), samplesHeader, sampleRows(result.Samples)); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, particlesFile), particlesHeader, particleRows(sp)); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func sampleRows(samples []sim.Sample) [][]string {
	rows := make([][]string, 0, len(samples))
	for _, smp := range samples {
		rows = append(rows, []string{
			formatFloat(smp.Time),
			strconv.Itoa(smp.Particles),
			formatFloat(smp.KineticEnergy),
			formatFloat(float64(smp.Center[0])),
			formatFloat(float64(smp.Center[1])),
			formatFloat(float64(smp.Center[2])),
			formatFloat(float64(smp.MinHeight)),
		})
	}
	return rows
}

func particleRows(sp *space.Space) [][]string {
	var rows [][]string
	for _, b := range sp.Bodies() {
		for i := 0; i < b.ParticleCount(); i++ {
			idx := body.ParticleIndex(i)
			p := b.ParticlePosition(idx)
			v := b.ParticleVelocity(idx)
			rows = append(rows, []string{
				b.Name(),
				strconv.Itoa(i),
				formatFloat(float64(p[0])),
				formatFloat(float64(p[1])),
				formatFloat(float64(p[2])),
				formatFloat(float64(b.ParticleMass(idx))),
				formatFloat(float64(v[0])),
				formatFloat(float64(v[1])),
				formatFloat(float64(v[2])),
				strconv.FormatInt(int64(b.Phase()), 10),
			})
		}
	}
	return rows
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(record []string) []float64 {
	vals := make([]float64, 0, len(record))
	for _, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// LoadSamples reads back the samples of a saved run. Malformed rows are
// skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}

	samples := make([]sim.Sample, 0, len(records))
	for _, record := range records {
		vals := parseFloats(record)
		if len(vals) != len(samplesHeader) {
			continue
		}
		smp := sim.Sample{
			Time:          vals[0],
			Particles:     int(vals[1]),
			KineticEnergy: vals[2],
			MinHeight:     float32(vals[6]),
		}
		smp.Center[0], smp.Center[1], smp.Center[2] = float32(vals[3]), float32(vals[4]), float32(vals[5])
		samples = append(samples, smp)
	}
	return samples, nil
}

// ParticleRecord is one row of a particle snapshot.
type ParticleRecord struct {
	Body     string
	Index    int
	Position [3]float32
	Mass     float32
	Velocity [3]float32
	Phase    int32
}

func (s *Store) LoadParticles(runID string) ([]ParticleRecord, error) {
	records, err := readRecords(filepath.Join(s.baseDir, runID, particlesFile))
	if err != nil {
		return nil, err
	}

	particles := make([]ParticleRecord, 0, len(records))
	for _, record := range records {
		if len(record) != len(particlesHeader) {
			continue
		}
		vals := parseFloats(record[1:])
		if len(vals) != len(particlesHeader)-1 {
			continue
		}
		particles = append(particles, ParticleRecord{
			Body:     record[0],
			Index:    int(vals[0]),
			Position: [3]float32{float32(vals[1]), float32(vals[2]), float32(vals[3])},
			Mass:     float32(vals[4]),
			Velocity: [3]float32{float32(vals[5]), float32(vals[6]), float32(vals[7])},
			Phase:    int32(vals[8]),
		})
	}
	return particles, nil
}
