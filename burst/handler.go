package burst

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/dsp/rotator"
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
	"github.com/cwbudde/algo-cfest/measure/cfest"
)

// Handler analyzes and corrects bursts.
//
// Process may be called from several goroutines. The estimator can be
// changed at runtime with SetMethod and SetChannelFreqs; a change applies to
// bursts whose processing starts afterwards.
type Handler struct {
	ws        *fft.Workspace
	ownsWS    bool
	ceilingDB float64
	logger    *zap.Logger
	observer  Observer
	debug     DebugSink

	mu       sync.RWMutex
	method   cfest.Method
	channels []float64
	est      cfest.Estimator
}

// NewHandler creates a handler. Without options it uses the RMS estimator, a
// 100 dB SNR ceiling and its own FFT workspace.
func NewHandler(opts ...Option) (*Handler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	est, err := cfest.New(cfg.method, cfg.channels)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		ws:        cfg.workspace,
		ceilingDB: cfg.ceilingDB,
		logger:    cfg.logger,
		observer:  cfg.observer,
		debug:     cfg.debug,
		method:    cfg.method,
		channels:  cfg.channels,
		est:       est,
	}

	if h.ws == nil {
		ws, err := fft.NewWorkspace(cfg.fftOpts...)
		if err != nil {
			return nil, err
		}
		h.ws = ws
		h.ownsWS = true
	}

	return h, nil
}

// Method returns the active estimation method.
func (h *Handler) Method() cfest.Method {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.method
}

// ChannelFreqs returns a copy of the configured channel grid.
func (h *Handler) ChannelFreqs() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.channels)
}

// SetMethod switches the estimator. An unknown method is rejected and the
// current one is kept.
func (h *Handler) SetMethod(m cfest.Method) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	est, err := cfest.New(m, h.channels)
	if err != nil {
		return err
	}

	h.method = m
	h.est = est
	h.logger.Info("estimation method changed", zap.Stringer("method", m))

	return nil
}

// SetChannelFreqs replaces the channel grid used by the coerce method.
func (h *Handler) SetChannelFreqs(freqs []float64) error {
	if err := validateChannels(freqs); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	channels := slices.Clone(freqs)
	est, err := cfest.New(h.method, channels)
	if err != nil {
		return err
	}

	h.channels = channels
	h.est = est
	h.logger.Info("channel list changed", zap.Int("channels", len(channels)))

	return nil
}

// CachedFFTSizes returns the FFT sizes prepared so far.
func (h *Handler) CachedFFTSizes() []int {
	return h.ws.Sizes()
}

// Close releases the FFT workspace if the handler created it.
func (h *Handler) Close() {
	if h.ownsWS {
		h.ws.Close()
	}
}

func (h *Handler) estimator() cfest.Estimator {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.est
}

// Process analyzes b and returns a new burst holding the frequency-corrected
// samples and the estimates. b is not modified.
//
// The nominal center frequency is read from [KeyCenterFrequency]. A burst
// carrying only [KeyRelativeFrequency] is treated as nominally at 0 Hz.
// [KeySampleRate] is required.
func (h *Handler) Process(b *Burst) (*Burst, error) {
	out, err := h.process(b)
	if err != nil {
		reason := DropReason(err)
		h.observer.BurstDropped(reason)

		var sampleRate float64
		if b != nil {
			sampleRate, _ = b.Meta.Float(KeySampleRate)
		}
		h.logger.Warn("burst dropped",
			zap.String("reason", reason),
			zap.Int("samples", b.Len()),
			zap.Float64("sample_rate", sampleRate),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}

func (h *Handler) process(b *Burst) (*Burst, error) {
	if b.Len() == 0 {
		return nil, malformed(ErrEmptyBurst, "")
	}

	sampleRate, ok := b.Meta.Float(KeySampleRate)
	if !ok {
		return nil, malformed(ErrMissingMetadata, "%s", KeySampleRate)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, malformed(ErrSampleRate, "%f", sampleRate)
	}

	nominal, hasCenter := b.Meta.Float(KeyCenterFrequency)
	relative, hasRelative := b.Meta.Float(KeyRelativeFrequency)
	if !hasCenter && !hasRelative {
		return nil, malformed(ErrMissingMetadata, "%s or %s", KeyCenterFrequency, KeyRelativeFrequency)
	}
	if math.IsNaN(nominal) || math.IsInf(nominal, 0) || math.IsNaN(relative) || math.IsInf(relative, 0) {
		return nil, malformed(ErrMissingMetadata, "non-finite frequency")
	}

	for i, s := range b.Samples {
		if cmplx.IsNaN(s) || cmplx.IsInf(s) {
			return nil, malformed(ErrNonFiniteSamples, "sample %d", i)
		}
	}

	entry, err := h.ws.Prepare(b.Len())
	if err != nil {
		if errors.Is(err, fft.ErrSizeTooLarge) {
			return nil, malformed(ErrBurstTooLarge, "%d samples", b.Len())
		}
		return nil, fmt.Errorf("burst: prepare workspace: %w", err)
	}

	ps, err := spectrum.Build(b.Samples, entry, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("burst: build spectrum: %w", err)
	}

	res := cfest.Analyze(h.estimator(), ps, nominal, sampleRate, h.ceilingDB)

	corrected, err := rotator.Correct(b.Samples, res.Offset, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("burst: correct: %w", err)
	}

	meta := b.Meta.Clone()
	meta[KeyCenterFrequency] = res.CenterFrequency
	meta[KeyRelativeFrequency] = relative + res.Offset
	meta[KeyBandwidth] = res.Bandwidth
	meta[KeySNRDB] = res.SNRDB

	h.observer.BurstProcessed(res)
	if h.debug != nil {
		h.debug.Debug(DebugRecord{
			Spectrum:          ps,
			Result:            res,
			NominalFrequency:  nominal,
			RelativeFrequency: relative + res.Offset,
			SampleRate:        sampleRate,
			Samples:           b.Len(),
		})
	}

	h.logger.Debug("burst processed",
		zap.Stringer("method", res.Method),
		zap.Int("samples", b.Len()),
		zap.Int("fft_size", entry.Size()),
		zap.Float64("center_frequency", res.CenterFrequency),
		zap.Float64("relative_frequency", relative+res.Offset),
		zap.Float64("bandwidth", res.Bandwidth),
		zap.Float64("snr_db", res.SNRDB),
	)

	return &Burst{Samples: corrected, Meta: meta}, nil
}
