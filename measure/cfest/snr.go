package cfest

import (
	"math"

	"github.com/cwbudde/algo-cfest/dsp/core"
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

const (
	// DefaultSNRCeilingDB is reported when the noise estimate vanishes.
	DefaultSNRCeilingDB = 100.0

	// signalFloorRatio bounds the signal estimate from below relative to the
	// noise estimate, limiting the lowest reportable SNR to -100 dB.
	signalFloorRatio = 1e-10
)

// SNR estimates the signal-to-noise ratio in dB.
//
// Bins within bandwidth/2 of center form the in-band set; the bin nearest
// center is always in-band. The remaining bins form the out-of-band set whose
// mean power is the noise estimate. The signal estimate is the in-band mean
// minus the noise estimate, floored at a small positive fraction of the noise.
//
// When the out-of-band set is empty or the noise estimate is zero the ceiling
// is returned. Results are clamped to ceilingDB, so the value is always finite.
func SNR(ps spectrum.PowerSpectrum, center, bandwidth, ceilingDB float64) float64 {
	if ps.Len() == 0 || len(ps.Freqs) != ps.Len() {
		return ceilingDB
	}

	halfBW := math.Abs(bandwidth) / 2
	nearest := nearestBin(ps.Freqs, center)

	var inSum, outSum float64
	var inCount, outCount int
	for i, p := range ps.Power {
		if i == nearest || math.Abs(ps.Freqs[i]-center) <= halfBW {
			inSum += p
			inCount++
			continue
		}
		outSum += p
		outCount++
	}

	if outCount == 0 {
		return ceilingDB
	}

	noise := outSum / float64(outCount)
	if !(noise > 0) {
		return ceilingDB
	}

	signal := inSum/float64(inCount) - noise
	if floor := noise * signalFloorRatio; signal < floor {
		signal = floor
	}

	snr := core.LinearPowerToDB(signal / noise)
	if math.IsNaN(snr) || snr > ceilingDB {
		return ceilingDB
	}
	return snr
}

func nearestBin(freqs []float64, target float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, f := range freqs {
		if d := math.Abs(f - target); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
