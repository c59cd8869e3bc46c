package cfest

import (
	"math"

	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// RMSBandwidth returns the power-weighted standard deviation of frequency
// around center, where center is on the spectrum's baseband-relative axis:
//
//	bw = sqrt(sum(P[k] * (f[k] - center)^2) / sum(P[k]))
//
// It returns 0 when the total power is negligible.
func RMSBandwidth(ps spectrum.PowerSpectrum, center float64) float64 {
	if ps.Len() == 0 || len(ps.Freqs) != ps.Len() {
		return 0
	}

	total := 0.0
	weighted := 0.0
	for i, p := range ps.Power {
		d := ps.Freqs[i] - center
		total += p
		weighted += p * d * d
	}

	if !(total > negligiblePower) {
		return 0
	}

	return math.Sqrt(weighted / total)
}
