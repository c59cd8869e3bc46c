// Package burst estimates and removes the carrier offset of detected signal
// bursts.
//
// A [Handler] takes one [Burst] at a time: it builds a Gaussian-windowed power
// spectrum of the samples, estimates the center frequency with the configured
// [cfest.Method], derives RMS bandwidth and SNR around that center, and
// rotates a copy of the samples so the signal sits at 0 Hz. The estimates are
// attached to the outgoing metadata under the [Key] schema.
//
// Malformed bursts are rejected with an error wrapping [ErrMalformed] and
// never abort the handler; the next burst is processed normally.
package burst
