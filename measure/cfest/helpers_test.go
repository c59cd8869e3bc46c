package cfest

import (
	"testing"

	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// spectrumOf builds a centered power spectrum of samples with a default
// workspace.
func spectrumOf(t *testing.T, samples []complex128, sampleRate float64) spectrum.PowerSpectrum {
	t.Helper()

	ws, err := fft.NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace error: %v", err)
	}
	defer ws.Close()

	entry, err := ws.Prepare(len(samples))
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}

	ps, err := spectrum.Build(samples, entry, sampleRate)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	return ps
}

// syntheticSpectrum returns a spectrum with the given power values on an
// axis of 1 Hz bins centered at zero.
func syntheticSpectrum(power ...float64) spectrum.PowerSpectrum {
	return spectrum.PowerSpectrum{
		Power:      power,
		Freqs:      spectrum.FrequencyAxis(len(power), float64(len(power))),
		SampleRate: float64(len(power)),
	}
}

// singleBin returns an n-bin spectrum with all power in bin k.
func singleBin(n, k int, sampleRate float64) spectrum.PowerSpectrum {
	p := make([]float64, n)
	p[k] = 1
	return spectrum.PowerSpectrum{
		Power:      p,
		Freqs:      spectrum.FrequencyAxis(n, sampleRate),
		SampleRate: sampleRate,
	}
}
