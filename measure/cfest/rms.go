package cfest

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// RMS estimates the center as the power-weighted centroid of the frequency
// axis:
//
//	center = nominal + sum(P[k] * f[k]) / sum(P[k])
//
// A spectrum with negligible total power yields the nominal frequency.
type RMS struct{}

// Method implements [Estimator].
func (RMS) Method() Method { return MethodRMS }

// Estimate implements [Estimator].
func (RMS) Estimate(ps spectrum.PowerSpectrum, nominal, _ float64) float64 {
	offset, ok := Centroid(ps)
	if !ok {
		return nominal
	}
	return nominal + offset
}

// Centroid returns the power-weighted mean frequency of ps relative to
// baseband. ok is false when the total power is negligible.
func Centroid(ps spectrum.PowerSpectrum) (centroid float64, ok bool) {
	if ps.Len() == 0 || len(ps.Freqs) != ps.Len() {
		return 0, false
	}

	total := floats.Sum(ps.Power)
	if !(total > negligiblePower) {
		return 0, false
	}

	return floats.Dot(ps.Power, ps.Freqs) / total, true
}
