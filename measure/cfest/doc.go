// Package cfest estimates the center frequency, RMS bandwidth and SNR of a
// burst from its centered power spectrum.
//
// Three interchangeable [Estimator] strategies are provided:
//
//   - [Coerce] snaps the nominal frequency to the nearest channel of a
//     configured grid without looking at the spectrum.
//   - [RMS] returns the power-weighted centroid of the frequency axis.
//   - [HalfPower] returns the midpoint between the half-power (-3 dB)
//     crossings on either side of the spectral peak.
//
// All estimates are absolute frequencies: the spectrum axis is relative to
// baseband and the nominal center frequency is added back.
package cfest
