package burst

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/measure/cfest"
)

// Option configures a [Handler].
type Option func(*config) error

type config struct {
	method    cfest.Method
	channels  []float64
	ceilingDB float64
	workspace *fft.Workspace
	fftOpts   []fft.Option
	logger    *zap.Logger
	observer  Observer
	debug     DebugSink
}

func defaultConfig() config {
	return config{
		method:    cfest.MethodRMS,
		ceilingDB: cfest.DefaultSNRCeilingDB,
		logger:    zap.NewNop(),
		observer:  nopObserver{},
	}
}

// WithMethod selects the center-frequency estimator.
func WithMethod(m cfest.Method) Option {
	return func(cfg *config) error {
		if !m.Valid() {
			return fmt.Errorf("%w: %d", cfest.ErrUnknownMethod, int(m))
		}
		cfg.method = m
		return nil
	}
}

// WithChannelFreqs sets the channel grid used by [cfest.MethodCoerce].
func WithChannelFreqs(freqs []float64) Option {
	return func(cfg *config) error {
		if err := validateChannels(freqs); err != nil {
			return err
		}
		cfg.channels = append([]float64(nil), freqs...)
		return nil
	}
}

// WithSNRCeiling sets the SNR reported when no noise estimate is available.
func WithSNRCeiling(db float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(db) || math.IsInf(db, 0) {
			return fmt.Errorf("burst: SNR ceiling must be finite: %f", db)
		}
		cfg.ceilingDB = db
		return nil
	}
}

// WithWorkspace shares an existing FFT workspace. The handler does not close
// a shared workspace.
func WithWorkspace(ws *fft.Workspace) Option {
	return func(cfg *config) error {
		if ws == nil {
			return errors.New("burst: workspace must not be nil")
		}
		cfg.workspace = ws
		return nil
	}
}

// WithFFTOptions configures the workspace the handler creates for itself.
// Ignored when [WithWorkspace] is given.
func WithFFTOptions(opts ...fft.Option) Option {
	return func(cfg *config) error {
		cfg.fftOpts = append(cfg.fftOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("burst: logger must not be nil")
		}
		cfg.logger = l
		return nil
	}
}

// WithObserver registers an observer for burst outcomes.
func WithObserver(o Observer) Option {
	return func(cfg *config) error {
		if o == nil {
			return errors.New("burst: observer must not be nil")
		}
		cfg.observer = o
		return nil
	}
}

// WithDebugSink registers a receiver for per-burst analysis records.
func WithDebugSink(s DebugSink) Option {
	return func(cfg *config) error {
		cfg.debug = s
		return nil
	}
}

func validateChannels(freqs []float64) error {
	for i, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("burst: channel %d must be finite: %f", i, f)
		}
	}
	return nil
}
