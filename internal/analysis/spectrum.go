package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/flexsim/internal/sim"
)

// Field selects one value of a sample.
type Field func(sim.Sample) float64

var (
	KineticEnergy Field = func(s sim.Sample) float64 { return s.KineticEnergy }
	CenterX       Field = func(s sim.Sample) float64 { return float64(s.Center[0]) }
	CenterY       Field = func(s sim.Sample) float64 { return float64(s.Center[1]) }
	MinHeight     Field = func(s sim.Sample) float64 { return float64(s.MinHeight) }
)

func Series(samples []sim.Sample, f Field) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = f(s)
	}
	return out
}

// PowerSpectrum returns the magnitude of the first half of the spectrum of
// data after removing its mean.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// bin, or 0 when data carries no oscillation. interval is the time between
// samples.
func DominantFrequency(data []float64, interval float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || interval <= 0 {
		return 0
	}
	best, bestPower := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > bestPower {
			best, bestPower = i, ps[i]
		}
	}
	if bestPower < 1e-9 {
		return 0
	}
	return float64(best) / (float64(len(data)) * interval)
}

// SampleInterval is the mean time between consecutive samples.
func SampleInterval(samples []sim.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	return (samples[len(samples)-1].Time - samples[0].Time) / float64(len(samples)-1)
}

// SettleTime is the first sample time after which f stays within tol of its
// final value, or -1 when there are no samples.
func SettleTime(samples []sim.Sample, f Field, tol float64) float64 {
	if len(samples) == 0 {
		return -1
	}
	final := f(samples[len(samples)-1])
	settled := samples[len(samples)-1].Time
	for i := len(samples) - 1; i >= 0; i-- {
		if math.Abs(f(samples[i])-final) > tol {
			break
		}
		settled = samples[i].Time
	}
	return settled
}
