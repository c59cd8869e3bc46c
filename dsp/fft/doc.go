// Package fft provides the FFT workspace used by burst analysis: forward
// transform plans and matching Gaussian analysis windows cached by
// power-of-two size.
//
// The package does not implement a transform itself. Plans are created by a
// [Planner]; [AlgoPlanner] (algo-fft) is the default and [GonumPlanner]
// (gonum dsp/fourier) is available as an alternate backend.
package fft
