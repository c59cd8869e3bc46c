package testutil

import (
	"math"
	"math/rand"
)

// ComplexTone generates a unit-phase complex exponential at freqHz.
func ComplexTone(freqHz, sampleRate, amplitude float64, length int) []complex128 {
	out := make([]complex128, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		s, c := math.Sincos(step * float64(i))
		out[i] = complex(amplitude*c, amplitude*s)
	}
	return out
}

// ComplexNoise generates complex white noise with a fixed seed for
// reproducibility. Each component is uniform in [-amplitude, amplitude).
func ComplexNoise(seed int64, amplitude float64, length int) []complex128 {
	out := make([]complex128, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		re := (rng.Float64()*2 - 1) * amplitude
		im := (rng.Float64()*2 - 1) * amplitude
		out[i] = complex(re, im)
	}
	return out
}

// AddComplex returns a + b element-wise. Both slices must have equal length.
func AddComplex(a, b []complex128) []complex128 {
	out := make([]complex128, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}
