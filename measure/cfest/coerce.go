package cfest

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/cwbudde/algo-cfest/dsp/spectrum"
)

// Coerce snaps the nominal frequency to the nearest configured channel.
//
// The channel list is kept sorted ascending. At an exact midpoint between two
// channels the lower one wins. With no channels the nominal frequency is
// returned unchanged.
type Coerce struct {
	channels []float64
}

// NewCoerce returns a coerce estimator over a copy of channels.
func NewCoerce(channels []float64) (*Coerce, error) {
	sorted := slices.Clone(channels)
	for i, f := range sorted {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cfest: channel %d must be finite: %f", i, f)
		}
	}
	sort.Float64s(sorted)

	return &Coerce{channels: sorted}, nil
}

// Method implements [Estimator].
func (c *Coerce) Method() Method { return MethodCoerce }

// Channels returns a copy of the sorted channel list.
func (c *Coerce) Channels() []float64 { return slices.Clone(c.channels) }

// Estimate implements [Estimator]. The spectrum is not examined.
func (c *Coerce) Estimate(_ spectrum.PowerSpectrum, nominal, _ float64) float64 {
	return c.Nearest(nominal)
}

// Nearest returns the channel closest to freq.
func (c *Coerce) Nearest(freq float64) float64 {
	n := len(c.channels)
	if n == 0 {
		return freq
	}

	i := sort.SearchFloat64s(c.channels, freq)
	switch {
	case i == 0:
		return c.channels[0]
	case i == n:
		return c.channels[n-1]
	}

	lo, hi := c.channels[i-1], c.channels[i]
	if freq-lo <= hi-freq {
		return lo
	}
	return hi
}
