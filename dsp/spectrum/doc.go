// Package spectrum builds centered power spectra of complex baseband bursts.
//
// A [PowerSpectrum] pairs magnitude-squared bins with a frequency axis in Hz
// relative to baseband, ascending from -sampleRate/2. Transforms and analysis
// windows come from an [fft.Entry]; this package does the windowing,
// zero padding, magnitude-squared reduction and FFT shift.
package spectrum
