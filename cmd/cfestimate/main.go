// Command cfestimate estimates the center frequency, bandwidth and SNR of
// signal bursts and shifts each burst to baseband.
//
// Usage:
//
//	cfestimate file --input capture.cf32.zst --sample-rate 200e3 --center-freq 915e6
//	cfestimate serve --config cfestimate.yaml
//	cfestimate synth --output trial.cf32 --offset 5e3 --snr 20
//	cfestimate window --size 1024
package main

func main() {
	Execute()
}
