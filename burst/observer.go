package burst

import (
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
	"github.com/cwbudde/algo-cfest/measure/cfest"
)

// Observer is notified of every burst outcome. Implementations must be safe
// for concurrent use when the handler is shared.
type Observer interface {
	BurstProcessed(res cfest.Result)
	BurstDropped(reason string)
}

// DebugRecord describes the analysis of one emitted burst.
type DebugRecord struct {
	Spectrum          spectrum.PowerSpectrum
	Result            cfest.Result
	NominalFrequency  float64
	RelativeFrequency float64
	SampleRate        float64
	Samples           int
}

// DebugSink receives a [DebugRecord] for each emitted burst.
type DebugSink interface {
	Debug(rec DebugRecord)
}

// DebugSinkFunc adapts a function to [DebugSink].
type DebugSinkFunc func(rec DebugRecord)

// Debug implements [DebugSink].
func (f DebugSinkFunc) Debug(rec DebugRecord) { f(rec) }

type nopObserver struct{}

func (nopObserver) BurstProcessed(cfest.Result) {}
func (nopObserver) BurstDropped(string)         {}
