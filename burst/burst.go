package burst

import "slices"

// Burst is a finite segment of complex baseband samples plus its metadata.
type Burst struct {
	Samples []complex128
	Meta    Metadata
}

// New returns a burst over samples with the given sample rate and nominal
// center frequency set.
func New(samples []complex128, sampleRate, centerFrequency float64) *Burst {
	return &Burst{
		Samples: samples,
		Meta: Metadata{
			KeySampleRate:      sampleRate,
			KeyCenterFrequency: centerFrequency,
		},
	}
}

// Clone returns a deep copy of the samples and a shallow copy of the metadata.
func (b *Burst) Clone() *Burst {
	if b == nil {
		return nil
	}
	return &Burst{
		Samples: slices.Clone(b.Samples),
		Meta:    b.Meta.Clone(),
	}
}

// Len returns the sample count.
func (b *Burst) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}
