package signal_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-cfest/dsp/core"
	"github.com/cwbudde/algo-cfest/dsp/signal"
)

func ExampleGenerator_Tone() {
	g := signal.NewGenerator(core.WithSampleRate(1000))
	x, err := g.Tone(250, 1, 4)
	if err != nil {
		panic(err)
	}
	for i := range x {
		// Adding zero folds -0 into +0.
		x[i] = complex(math.Round(real(x[i]))+0, math.Round(imag(x[i]))+0)
	}

	fmt.Println(x)

	// Output:
	// [(1+0i) (0+1i) (-1+0i) (0-1i)]
}

func ExampleNormalize() {
	x, err := signal.Normalize([]complex128{-0.5, 0.25i, 1}, 0.8)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f %.2f %.2f\n", real(x[0]), imag(x[1]), real(x[2]))

	// Output:
	// -0.40 0.20 0.80
}
