package cfest

import "github.com/cwbudde/algo-cfest/dsp/spectrum"

// Result holds the estimates for one burst.
type Result struct {
	Method          Method
	CenterFrequency float64 // absolute estimate, Hz
	Offset          float64 // CenterFrequency - nominal, Hz
	Bandwidth       float64 // RMS bandwidth, Hz
	SNRDB           float64
}

// Analyze runs est on ps and derives bandwidth and SNR around the estimated
// center.
func Analyze(est Estimator, ps spectrum.PowerSpectrum, nominal, sampleRate, snrCeilingDB float64) Result {
	center := est.Estimate(ps, nominal, sampleRate)
	offset := center - nominal
	bw := RMSBandwidth(ps, offset)

	return Result{
		Method:          est.Method(),
		CenterFrequency: center,
		Offset:          offset,
		Bandwidth:       bw,
		SNRDB:           SNR(ps, offset, bw, snrCeilingDB),
	}
}
