package cfest

import (
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// HalfPower estimates the center as the midpoint between the half-power
// crossings on each side of the spectral peak.
//
// Starting at the peak bin, the search walks outward to the first bin on each
// side whose power is below half the peak power. The crossing frequency is
// linearly interpolated between that bin and its inner neighbour. If either
// side has no crossing the peak frequency is used. A spectrum with negligible
// power yields the nominal frequency.
type HalfPower struct{}

// Method implements [Estimator].
func (HalfPower) Method() Method { return MethodHalfPower }

// Estimate implements [Estimator].
func (HalfPower) Estimate(ps spectrum.PowerSpectrum, nominal, _ float64) float64 {
	offset, ok := HalfPowerCenter(ps)
	if !ok {
		return nominal
	}
	return nominal + offset
}

// HalfPowerCenter returns the half-power midpoint of ps relative to baseband.
// ok is false when the spectrum is empty or its peak power is negligible.
func HalfPowerCenter(ps spectrum.PowerSpectrum) (center float64, ok bool) {
	lo, hi, peak, found := HalfPowerCrossings(ps)
	if peak < 0 || !(ps.Power[peak] > negligiblePower) {
		return 0, false
	}
	if !found {
		return ps.Freqs[peak], true
	}
	return (lo + hi) / 2, true
}

// HalfPowerCrossings returns the interpolated lower and upper half-power
// crossing frequencies around the peak bin. found is false when either side
// never drops below half the peak power; peak is -1 for an empty spectrum.
func HalfPowerCrossings(ps spectrum.PowerSpectrum) (lo, hi float64, peak int, found bool) {
	peak = ps.Peak()
	if peak < 0 || len(ps.Freqs) != ps.Len() {
		return 0, 0, -1, false
	}

	p, f := ps.Power, ps.Freqs
	half := p[peak] / 2

	foundLo := false
	for i := peak - 1; i >= 0; i-- {
		if p[i] < half {
			lo = interpolateCrossing(f[i], p[i], f[i+1], p[i+1], half)
			foundLo = true
			break
		}
	}

	foundHi := false
	for j := peak + 1; j < len(p); j++ {
		if p[j] < half {
			hi = interpolateCrossing(f[j], p[j], f[j-1], p[j-1], half)
			foundHi = true
			break
		}
	}

	return lo, hi, peak, foundLo && foundHi
}

// interpolateCrossing returns the frequency between (fBelow, pBelow) and
// (fAbove, pAbove) where the power equals level. pAbove >= level > pBelow.
func interpolateCrossing(fBelow, pBelow, fAbove, pAbove, level float64) float64 {
	t := (level - pBelow) / (pAbove - pBelow)
	return fBelow + t*(fAbove-fBelow)
}
