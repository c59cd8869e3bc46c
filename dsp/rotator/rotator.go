package rotator

import (
	"fmt"
	"math"
	"math/cmplx"
)

// renormInterval is the number of samples between phasor renormalizations.
const renormInterval = 512

// Rotator multiplies samples by a complex phasor advancing at a constant
// angular rate.
type Rotator struct {
	phase     complex128
	increment complex128
	counter   int
}

// New returns a rotator advancing by phaseIncrement radians per sample,
// starting at phase zero.
func New(phaseIncrement float64) *Rotator {
	r := &Rotator{phase: 1}
	r.SetPhaseIncrement(phaseIncrement)
	return r
}

// ForOffset returns a rotator that moves a component at offsetHz to 0 Hz,
// i.e. one advancing by -2*pi*offsetHz/sampleRate radians per sample.
func ForOffset(offsetHz, sampleRate float64) (*Rotator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("rotator: sample rate must be > 0 and finite: %f", sampleRate)
	}
	if math.IsNaN(offsetHz) || math.IsInf(offsetHz, 0) {
		return nil, fmt.Errorf("rotator: offset must be finite: %f", offsetHz)
	}

	return New(-2 * math.Pi * offsetHz / sampleRate), nil
}

// SetPhaseIncrement updates the per-sample phase advance in radians.
// The current phase is kept.
func (r *Rotator) SetPhaseIncrement(radians float64) {
	r.increment = cmplx.Rect(1, radians)
}

// SetPhase sets the current phase in radians.
func (r *Rotator) SetPhase(radians float64) {
	r.phase = cmplx.Rect(1, radians)
	r.counter = 0
}

// Phase returns the current phase in radians.
func (r *Rotator) Phase() float64 {
	return cmplx.Phase(r.phase)
}

// Reset returns the phase to zero.
func (r *Rotator) Reset() {
	r.phase = 1
	r.counter = 0
}

// RotateSample rotates one sample and advances the phase.
func (r *Rotator) RotateSample(x complex128) complex128 {
	y := x * r.phase
	r.advance()
	return y
}

// RotateBlock rotates src into dst. dst may alias src.
func (r *Rotator) RotateBlock(dst, src []complex128) error {
	if len(dst) != len(src) {
		return fmt.Errorf("rotator: block length mismatch: dst=%d src=%d", len(dst), len(src))
	}

	for i, x := range src {
		dst[i] = x * r.phase
		r.advance()
	}

	return nil
}

func (r *Rotator) advance() {
	r.phase *= r.increment

	r.counter++
	if r.counter >= renormInterval {
		r.counter = 0
		r.phase /= complex(cmplx.Abs(r.phase), 0)
	}
}

// Correct returns a copy of samples shifted so that a component at offsetHz
// lands at 0 Hz. samples is not modified.
func Correct(samples []complex128, offsetHz, sampleRate float64) ([]complex128, error) {
	r, err := ForOffset(offsetHz, sampleRate)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, len(samples))
	if err := r.RotateBlock(out, samples); err != nil {
		return nil, err
	}

	return out, nil
}
