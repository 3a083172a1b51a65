// Package analysis post-processes recorded runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation content of a
//     sampled series, such as the center height of a swinging rope
//   - [CenterPath] and [PathToASCII]: the XY path of a body's center
//
// Sample series are usually read back through the store package:
//
//	samples, _ := st.LoadSamples(runID)
//	f := analysis.DominantFrequency(analysis.Series(samples, analysis.CenterY), interval)
package analysis
