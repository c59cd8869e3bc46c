package testutil

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestComplexTone(t *testing.T) {
	s := ComplexTone(1000, 48000, 0.5, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if s[0] != complex(0.5, 0) {
		t.Fatalf("s[0] = %v, want 0.5", s[0])
	}
	for i, v := range s {
		if math.Abs(cmplx.Abs(v)-0.5) > 1e-12 {
			t.Fatalf("|s[%d]| = %v, want 0.5", i, cmplx.Abs(v))
		}
	}
	// One full cycle at 48 samples per period.
	if cmplx.Abs(s[47]*cmplx.Rect(1, 2*math.Pi/48)-s[0]) > 1e-12 {
		t.Fatalf("phase does not wrap after one period")
	}
}

func TestComplexNoise(t *testing.T) {
	a := ComplexNoise(42, 1.0, 64)
	b := ComplexNoise(42, 1.0, 64)
	c := ComplexNoise(43, 1.0, 64)
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
		if math.Abs(real(a[i])) > 1 || math.Abs(imag(a[i])) > 1 {
			t.Fatalf("noise[%d] = %v out of range", i, a[i])
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestAddComplex(t *testing.T) {
	got := AddComplex([]complex128{1, 1i}, []complex128{2, -1i})
	if got[0] != 3 || got[1] != 0 {
		t.Fatalf("AddComplex = %v", got)
	}
}
