// Package rotator shifts complex baseband signals in frequency.
//
// A [Rotator] keeps a unit phasor and advances it by a fixed complex increment
// per sample instead of evaluating exp(i*theta) for every sample. The phasor is
// renormalized periodically so rounding error in its magnitude cannot grow
// without bound.
package rotator
