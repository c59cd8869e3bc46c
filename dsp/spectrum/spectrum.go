package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-cfest/dsp/core"
	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/dsp/window"
)

var (
	// ErrEmptyInput is returned when Build receives no samples.
	ErrEmptyInput = errors.New("spectrum: input must not be empty")
	// ErrInputTooLong is returned when the input exceeds the transform size.
	ErrInputTooLong = errors.New("spectrum: input longer than transform size")
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	buf.data = core.EnsureLen(buf.data, 2*n)
	return buf.data[:n], buf.data[n:], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// frameBuf holds pooled transform input and output frames.
type frameBuf struct {
	data []complex128
}

var framePool = sync.Pool{
	New: func() any { return &frameBuf{} },
}

func getFrame(n int) (in, out []complex128, buf *frameBuf) {
	buf = framePool.Get().(*frameBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]complex128, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

// PowerSpectrum is a centered power spectrum.
//
// Power and Freqs always have equal length and are index aligned.
type PowerSpectrum struct {
	Power      []float64 // |X[k]|^2
	Freqs      []float64 // Hz relative to baseband, ascending
	SampleRate float64
}

// Len returns the bin count.
func (p PowerSpectrum) Len() int { return len(p.Power) }

// BinWidth returns the bin spacing in Hz.
func (p PowerSpectrum) BinWidth() float64 {
	if len(p.Power) == 0 {
		return 0
	}
	return p.SampleRate / float64(len(p.Power))
}

// Total returns the summed power of all bins.
func (p PowerSpectrum) Total() float64 {
	sum := 0.0
	for _, v := range p.Power {
		sum += v
	}
	return sum
}

// Peak returns the index of the largest bin. Ties keep the lowest index.
// It returns -1 for an empty spectrum.
func (p PowerSpectrum) Peak() int {
	if len(p.Power) == 0 {
		return -1
	}

	best := 0
	for i, v := range p.Power {
		if v > p.Power[best] {
			best = i
		}
	}
	return best
}

// Build windows samples, transforms them with entry, and returns the
// magnitude-squared spectrum in FFT-shifted order.
//
// Inputs shorter than the transform are zero padded on both sides so the
// burst sits in the middle of the analysis window. The result has
// entry.Size() bins.
func Build(samples []complex128, entry *fft.Entry, sampleRate float64) (PowerSpectrum, error) {
	if len(samples) == 0 {
		return PowerSpectrum{}, ErrEmptyInput
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return PowerSpectrum{}, fmt.Errorf("spectrum: sample rate must be > 0 and finite: %f", sampleRate)
	}

	n := entry.Size()
	if len(samples) > n {
		return PowerSpectrum{}, fmt.Errorf("%w: %d > %d", ErrInputTooLong, len(samples), n)
	}

	in, out, frame := getFrame(n)
	defer framePool.Put(frame)

	clear(in)
	copy(in[(n-len(samples))/2:], samples)

	if err := window.ApplyComplex(in, in, entry.Window()); err != nil {
		return PowerSpectrum{}, err
	}

	if err := entry.Forward(out, in); err != nil {
		return PowerSpectrum{}, fmt.Errorf("spectrum: forward transform: %w", err)
	}

	re, im, buf := getScratch(n)
	half := n - n/2
	for i := range re {
		c := out[(i+half)%n]
		re[i] = real(c)
		im[i] = imag(c)
	}

	power := make([]float64, n)
	PowerFromParts(power, re, im)
	putScratch(buf)

	return PowerSpectrum{
		Power:      power,
		Freqs:      FrequencyAxis(n, sampleRate),
		SampleRate: sampleRate,
	}, nil
}

// FrequencyAxis returns n evenly spaced frequencies centered on zero, matching
// the bin order produced by [FFTShift]: (k - n/2) * sampleRate / n.
func FrequencyAxis(n int, sampleRate float64) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	step := sampleRate / float64(n)
	for i := range out {
		out[i] = float64(i-n/2) * step
	}
	return out
}

// FFTShift returns a copy of bins with the zero-frequency bin moved to the
// center, so index 0 corresponds to the most negative frequency.
func FFTShift[T any](bins []T) []T {
	n := len(bins)
	out := make([]T, n)
	half := n - n/2
	for i := range out {
		out[i] = bins[(i+half)%n]
	}
	return out
}

// Power returns |X[k]|^2 for each complex spectrum bin.
//
// This function uses SIMD-optimized implementations when available (AVX2, SSE2, NEON)
// for improved performance on large spectrum arrays. Scratch buffers are pooled
// internally, so in steady state this allocates only the output slice.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// PowerFromParts computes |X[k]|^2 = re[k]^2 + im[k]^2 into dst.
//
// This is the zero-allocation fast path for callers that already have real and
// imaginary parts in separate slices. All three slices must have the same length.
func PowerFromParts(dst, re, im []float64) {
	vecmath.Power(dst, re, im)
}
