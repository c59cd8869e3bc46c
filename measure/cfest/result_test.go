package cfest

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-cfest/internal/testutil"
)

func TestAnalyzeToneAllMethods(t *testing.T) {
	const (
		sampleRate = 200000.0
		n          = 1024
		nominal    = 1e6
	)

	binWidth := sampleRate / n
	ps := spectrumOf(t, testutil.ComplexTone(5000, sampleRate, 1, n), sampleRate)

	for _, method := range []Method{MethodRMS, MethodHalfPower} {
		t.Run(method.String(), func(t *testing.T) {
			est, err := New(method, nil)
			if err != nil {
				t.Fatalf("New error: %v", err)
			}

			res := Analyze(est, ps, nominal, sampleRate, DefaultSNRCeilingDB)
			if res.Method != method {
				t.Fatalf("Method=%v want %v", res.Method, method)
			}
			if math.Abs(res.CenterFrequency-1.005e6) > binWidth {
				t.Fatalf("CenterFrequency=%v", res.CenterFrequency)
			}
			if math.Abs(res.Offset-(res.CenterFrequency-nominal)) > 1e-9 {
				t.Fatalf("Offset=%v inconsistent with center %v", res.Offset, res.CenterFrequency)
			}
			if res.Bandwidth < 0 || res.Bandwidth > 2*binWidth {
				t.Fatalf("Bandwidth=%v want below two bins", res.Bandwidth)
			}
			if math.IsNaN(res.SNRDB) || res.SNRDB > DefaultSNRCeilingDB {
				t.Fatalf("SNRDB=%v", res.SNRDB)
			}
		})
	}
}

func TestAnalyzeCoerceReportsChannel(t *testing.T) {
	est, err := New(MethodCoerce, []float64{1.000e6, 1.010e6, 1.020e6})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	ps := syntheticSpectrum(0, 0, 1, 0)
	res := Analyze(est, ps, 1.004e6, 4, 100)

	if res.CenterFrequency != 1.000e6 {
		t.Fatalf("CenterFrequency=%v want 1e6", res.CenterFrequency)
	}
	if math.Abs(res.Offset+4000) > 1e-6 {
		t.Fatalf("Offset=%v want -4000", res.Offset)
	}
}

func TestNewRejectsUnknownMethod(t *testing.T) {
	if _, err := New(Method(42), nil); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
