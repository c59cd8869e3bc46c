package spectrum

import (
	"testing"

	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/internal/testutil"
)

func BenchmarkBuild(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"256", 256},
		{"1K", 1024},
		{"4K", 4096},
		{"16K", 16384},
	}

	ws, err := fft.NewWorkspace()
	if err != nil {
		b.Fatalf("NewWorkspace error: %v", err)
	}
	defer ws.Close()

	for _, testCase := range sizes {
		b.Run(testCase.name, func(b *testing.B) {
			entry, err := ws.Prepare(testCase.size)
			if err != nil {
				b.Fatalf("Prepare error: %v", err)
			}
			in := testutil.ComplexNoise(1, 1, testCase.size)

			b.SetBytes(int64(testCase.size * 16)) // complex128 = 16 bytes
			b.ResetTimer()

			for range b.N {
				if _, err := Build(in, entry, 48000); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkPower(b *testing.B) {
	in := testutil.ComplexNoise(2, 1, 4096)

	b.SetBytes(int64(len(in) * 16))
	b.ResetTimer()

	for range b.N {
		_ = Power(in)
	}
}
