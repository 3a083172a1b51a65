package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/flexsim/internal/sim"
)

func TestDominantFrequency(t *testing.T) {
	const (
		n        = 256
		interval = 0.01
		freq     = 5.0
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*interval)
	}

	got := DominantFrequency(data, interval)
	binWidth := 1 / (n * interval)
	if math.Abs(got-freq) > binWidth {
		t.Errorf("DominantFrequency() = %v, want %v ± %v", got, freq, binWidth)
	}
}

func TestDominantFrequencyFlat(t *testing.T) {
	if got := DominantFrequency([]float64{1, 1, 1, 1}, 0.1); got != 0 {
		t.Errorf("flat series frequency = %v, want 0", got)
	}
	if got := DominantFrequency([]float64{1}, 0.1); got != 0 {
		t.Errorf("single sample frequency = %v, want 0", got)
	}
}

func fallingSamples() []sim.Sample {
	var samples []sim.Sample
	for i := 0; i <= 10; i++ {
		y := float32(math.Max(1-0.2*float64(i), 0))
		samples = append(samples, sim.Sample{
			Time:      float64(i) * 0.1,
			Center:    mgl32.Vec3{float32(i) * 0.1, y, 0},
			MinHeight: y,
		})
	}
	return samples
}

func TestSettleTime(t *testing.T) {
	samples := fallingSamples()
	if got := SettleTime(samples, CenterY, 1e-6); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("SettleTime() = %v, want 0.5", got)
	}
	if got := SettleTime(nil, CenterY, 1e-6); got != -1 {
		t.Errorf("SettleTime(nil) = %v, want -1", got)
	}
	if got := SampleInterval(samples); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("SampleInterval() = %v, want 0.1", got)
	}
}

func TestPathToASCII(t *testing.T) {
	path := CenterPath(fallingSamples())
	if len(path) != 11 || path[10].X != float64(float32(1.0)) {
		t.Fatalf("path = %v", path)
	}

	out := PathToASCII(path, 20, 10)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	if !strings.Contains(out, "•") || !strings.Contains(out, "│") {
		t.Errorf("missing points or axis:\n%s", out)
	}
	if PathToASCII(nil, 20, 10) != "" {
		t.Error("expected empty output for no points")
	}
}
