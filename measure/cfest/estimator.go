package cfest

import (
	"fmt"

	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// negligiblePower is the total spectrum power below which weighted estimates
// are not attempted.
const negligiblePower = 1e-200

// Estimator estimates the absolute center frequency of a burst.
//
// ps is the burst's centered power spectrum, nominal the center frequency the
// burst was tuned to and sampleRate its sample rate in Hz.
type Estimator interface {
	Method() Method
	Estimate(ps spectrum.PowerSpectrum, nominal, sampleRate float64) float64
}

// New returns the estimator for method. channels is only used by
// [MethodCoerce].
func New(method Method, channels []float64) (Estimator, error) {
	switch method {
	case MethodCoerce:
		return NewCoerce(channels)
	case MethodRMS:
		return RMS{}, nil
	case MethodHalfPower:
		return HalfPower{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(method))
	}
}
