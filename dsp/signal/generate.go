// Package signal synthesizes deterministic complex baseband bursts for tests,
// trials and the synth command.
package signal

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/cwbudde/algo-cfest/dsp/core"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg:  core.ApplyProcessorOptions(opts...),
		seed: 1,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Seed returns the noise seed.
func (g *Generator) Seed() int64 { return g.seed }

// SetSeed changes the noise seed for subsequent calls.
func (g *Generator) SetSeed(seed int64) { g.seed = seed }

// Tone generates a complex exponential at freqHz, which may be negative.
func (g *Generator) Tone(freqHz, amplitude float64, samples int) ([]complex128, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("tone samples must be > 0: %d", samples)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("tone sample rate must be > 0: %f", g.cfg.SampleRate)
	}
	out := make([]complex128, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = cmplx.Rect(amplitude, step*float64(i))
	}
	return out, nil
}

// Noise generates deterministic circular Gaussian noise with the given RMS
// magnitude, i.e. mean power rms^2 per sample.
func (g *Generator) Noise(rms float64, samples int) ([]complex128, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if rms < 0 {
		return nil, fmt.Errorf("noise rms must be >= 0: %f", rms)
	}
	out := make([]complex128, samples)
	rng := rand.New(rand.NewSource(g.seed))
	sigma := rms / math.Sqrt2
	for i := range out {
		out[i] = complex(rng.NormFloat64()*sigma, rng.NormFloat64()*sigma)
	}
	return out, nil
}

// BurstConfig describes a synthetic single-carrier burst.
type BurstConfig struct {
	OffsetHz  float64 // carrier offset from baseband
	Amplitude float64
	Samples   int
	SNRDB     float64 // carrier-to-noise power ratio; ignored when Noiseless
	Noiseless bool
}

// Burst generates a tone at cfg.OffsetHz plus noise scaled to cfg.SNRDB.
func (g *Generator) Burst(cfg BurstConfig) ([]complex128, error) {
	if cfg.Amplitude < 0 {
		return nil, fmt.Errorf("burst amplitude must be >= 0: %f", cfg.Amplitude)
	}

	out, err := g.Tone(cfg.OffsetHz, cfg.Amplitude, cfg.Samples)
	if err != nil {
		return nil, err
	}
	if cfg.Noiseless {
		return out, nil
	}
	if math.IsNaN(cfg.SNRDB) || math.IsInf(cfg.SNRDB, 0) {
		return nil, fmt.Errorf("burst SNR must be finite: %f", cfg.SNRDB)
	}

	noisePower := cfg.Amplitude * cfg.Amplitude / core.DBPowerToLinear(cfg.SNRDB)
	noise, err := g.Noise(math.Sqrt(noisePower), cfg.Samples)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] += noise[i]
	}
	return out, nil
}

// Normalize scales data to target peak magnitude and returns a new slice.
func Normalize(data []complex128, targetPeak float64) ([]complex128, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		av := cmplx.Abs(v)
		if av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]complex128, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := complex(targetPeak/maxAbs, 0)
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}
