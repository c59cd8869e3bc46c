package cfest

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-cfest/internal/testutil"
)

func TestSNRKnownRatio(t *testing.T) {
	p := []float64{1, 1, 1, 1, 101, 1, 1, 1}
	got := SNR(syntheticSpectrum(p...), 0, 0, DefaultSNRCeilingDB)

	if math.Abs(got-20) > 1e-9 {
		t.Fatalf("SNR=%v want 20", got)
	}
}

func TestSNRSingleBinReportsCeiling(t *testing.T) {
	ps := singleBin(1024, 700, 200000)
	center := ps.Freqs[700]

	for _, ceiling := range []float64{DefaultSNRCeilingDB, 60} {
		got := SNR(ps, center, RMSBandwidth(ps, center), ceiling)
		if got != ceiling {
			t.Fatalf("SNR=%v want ceiling %v", got, ceiling)
		}
	}
}

func TestSNRFullBandReportsCeiling(t *testing.T) {
	ps := syntheticSpectrum(1, 2, 3, 4)

	if got := SNR(ps, 0, 100, 50); got != 50 {
		t.Fatalf("SNR=%v want 50", got)
	}
}

func TestSNRFloorsSignal(t *testing.T) {
	got := SNR(syntheticSpectrum(1, 1, 1, 1, 1, 1, 1, 1), 0, 0, DefaultSNRCeilingDB)

	if math.Abs(got+100) > 1e-9 {
		t.Fatalf("SNR=%v want -100", got)
	}
}

func TestSNRClampedToCeiling(t *testing.T) {
	got := SNR(syntheticSpectrum(1, 1, 1e12, 1), 0, 0, 100)
	if got != 100 {
		t.Fatalf("SNR=%v want 100", got)
	}
}

func TestSNRToneInNoiseIsFinite(t *testing.T) {
	const sampleRate = 200000.0

	tone := testutil.ComplexTone(5000, sampleRate, 1, 1024)
	noise := testutil.ComplexNoise(17, 0.01, 1024)
	ps := spectrumOf(t, testutil.AddComplex(tone, noise), sampleRate)

	center, ok := Centroid(ps)
	if !ok {
		t.Fatal("Centroid not ok")
	}

	snr := SNR(ps, center, RMSBandwidth(ps, center), DefaultSNRCeilingDB)
	if math.IsNaN(snr) || math.IsInf(snr, 0) || snr <= 0 || snr > DefaultSNRCeilingDB {
		t.Fatalf("SNR=%v out of (0, ceiling]", snr)
	}
}
