package burst

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/dsp/spectrum"
	"github.com/cwbudde/algo-cfest/internal/testutil"
	"github.com/cwbudde/algo-cfest/measure/cfest"
)

const (
	testSampleRate = 200000.0
	testLen        = 1024
	testNominal    = 1e6
	testBinWidth   = testSampleRate / testLen
)

type recordingObserver struct {
	mu        sync.Mutex
	processed []cfest.Result
	dropped   []string
}

func (o *recordingObserver) BurstProcessed(res cfest.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.processed = append(o.processed, res)
}

func (o *recordingObserver) BurstDropped(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped = append(o.dropped, reason)
}

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()

	h, err := NewHandler(opts...)
	if err != nil {
		t.Fatalf("NewHandler error: %v", err)
	}
	t.Cleanup(h.Close)

	return h
}

func metaFloat(t *testing.T, m Metadata, key Key) float64 {
	t.Helper()

	v, ok := m.Float(key)
	if !ok {
		t.Fatalf("metadata %q missing or not a number: %v", key, m[key])
	}
	return v
}

// peakFrequency returns the frequency of the strongest bin of samples.
func peakFrequency(t *testing.T, samples []complex128, sampleRate float64) float64 {
	t.Helper()

	ws, err := fft.NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace error: %v", err)
	}
	defer ws.Close()

	entry, err := ws.Prepare(len(samples))
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}

	ps, err := spectrum.Build(samples, entry, sampleRate)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	return ps.Freqs[ps.Peak()]
}

func TestProcessToneEndToEnd(t *testing.T) {
	h := newTestHandler(t, WithMethod(cfest.MethodRMS))

	in := New(testutil.ComplexTone(5000, testSampleRate, 1, testLen), testSampleRate, testNominal)
	out, err := h.Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if got := metaFloat(t, out.Meta, KeyCenterFrequency); math.Abs(got-1.005e6) > testBinWidth {
		t.Fatalf("center_frequency=%v want 1.005e6 +- %v", got, testBinWidth)
	}
	if got := metaFloat(t, out.Meta, KeyRelativeFrequency); math.Abs(got-5000) > testBinWidth {
		t.Fatalf("relative_frequency=%v want 5000", got)
	}
	if got := metaFloat(t, out.Meta, KeyBandwidth); got < 0 || got > testBinWidth {
		t.Fatalf("bandwidth=%v want below one bin", got)
	}
	if got := metaFloat(t, out.Meta, KeySNRDB); math.IsNaN(got) || got > cfest.DefaultSNRCeilingDB {
		t.Fatalf("snr_db=%v", got)
	}
	if got := metaFloat(t, out.Meta, KeySampleRate); got != testSampleRate {
		t.Fatalf("sample_rate=%v want %v", got, testSampleRate)
	}

	if len(out.Samples) != testLen {
		t.Fatalf("corrected length=%d want %d", len(out.Samples), testLen)
	}
	if f := peakFrequency(t, out.Samples, testSampleRate); math.Abs(f) > testBinWidth {
		t.Fatalf("corrected peak at %v Hz want about 0", f)
	}

	// Residual rotation per sample stays well below one bin's worth.
	var drift float64
	for i := 1; i < len(out.Samples); i++ {
		drift += cmplx.Phase(out.Samples[i] * cmplx.Conj(out.Samples[i-1]))
	}
	drift /= float64(len(out.Samples) - 1)
	if residualHz := drift * testSampleRate / (2 * math.Pi); math.Abs(residualHz) > testBinWidth {
		t.Fatalf("residual rotation %v Hz", residualHz)
	}
}

func TestProcessLeavesInputUntouched(t *testing.T) {
	h := newTestHandler(t)

	in := New(testutil.ComplexTone(-12000, testSampleRate, 0.5, 300), testSampleRate, 433.92e6)
	in.Meta["station"] = "north"
	orig := in.Clone()

	out, err := h.Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	testutil.RequireComplexNearlyEqual(t, in.Samples, orig.Samples, 0)
	if len(in.Meta) != len(orig.Meta) || in.Meta[KeyCenterFrequency] != orig.Meta[KeyCenterFrequency] {
		t.Fatalf("input metadata modified: %v", in.Meta)
	}
	if out.Meta["station"] != "north" {
		t.Fatalf("unknown key not passed through: %v", out.Meta)
	}
	if len(out.Samples) != 300 {
		t.Fatalf("corrected length=%d want 300", len(out.Samples))
	}
}

func TestProcessAddsToIncomingRelativeFrequency(t *testing.T) {
	h := newTestHandler(t)

	in := New(testutil.ComplexTone(5000, testSampleRate, 1, testLen), testSampleRate, testNominal)
	in.Meta[KeyRelativeFrequency] = 20000.0

	out, err := h.Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if got := metaFloat(t, out.Meta, KeyRelativeFrequency); math.Abs(got-25000) > testBinWidth {
		t.Fatalf("relative_frequency=%v want 25000", got)
	}
}

func TestProcessRelativeOnlyBurst(t *testing.T) {
	h := newTestHandler(t)

	in := &Burst{
		Samples: testutil.ComplexTone(-8000, testSampleRate, 1, testLen),
		Meta:    Metadata{KeySampleRate: int64(testSampleRate), KeyRelativeFrequency: 0.0},
	}

	out, err := h.Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if got := metaFloat(t, out.Meta, KeyCenterFrequency); math.Abs(got+8000) > testBinWidth {
		t.Fatalf("center_frequency=%v want -8000", got)
	}
}

func TestProcessCoerce(t *testing.T) {
	h := newTestHandler(t,
		WithMethod(cfest.MethodCoerce),
		WithChannelFreqs([]float64{1.000e6, 1.010e6, 1.020e6}),
	)

	in := New(testutil.ComplexTone(0, testSampleRate, 1, testLen), testSampleRate, 1.004e6)
	out, err := h.Process(in)
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if got := metaFloat(t, out.Meta, KeyCenterFrequency); got != 1.000e6 {
		t.Fatalf("center_frequency=%v want 1e6", got)
	}
	if got := metaFloat(t, out.Meta, KeyRelativeFrequency); math.Abs(got+4000) > 1e-6 {
		t.Fatalf("relative_frequency=%v want -4000", got)
	}
	// Removing -4 kHz moves the tone from 0 Hz up to +4 kHz.
	if f := peakFrequency(t, out.Samples, testSampleRate); math.Abs(f-4000) > testBinWidth {
		t.Fatalf("corrected peak at %v want 4000", f)
	}
}

func TestProcessRejectsMalformed(t *testing.T) {
	tone := testutil.ComplexTone(1000, testSampleRate, 1, 64)

	cases := []struct {
		name   string
		burst  *Burst
		reason error
		label  string
	}{
		{"nil burst", nil, ErrEmptyBurst, "empty"},
		{"no samples", New(nil, testSampleRate, testNominal), ErrEmptyBurst, "empty"},
		{"no sample rate", &Burst{Samples: tone, Meta: Metadata{KeyCenterFrequency: testNominal}}, ErrMissingMetadata, "missing_metadata"},
		{"sample rate not numeric", &Burst{Samples: tone, Meta: Metadata{KeySampleRate: "fast", KeyCenterFrequency: testNominal}}, ErrMissingMetadata, "missing_metadata"},
		{"zero sample rate", New(tone, 0, testNominal), ErrSampleRate, "sample_rate"},
		{"negative sample rate", New(tone, -1, testNominal), ErrSampleRate, "sample_rate"},
		{"NaN sample rate", New(tone, math.NaN(), testNominal), ErrSampleRate, "sample_rate"},
		{"no frequency", &Burst{Samples: tone, Meta: Metadata{KeySampleRate: testSampleRate}}, ErrMissingMetadata, "missing_metadata"},
		{"NaN sample", New([]complex128{1, complex(math.NaN(), 0)}, testSampleRate, testNominal), ErrNonFiniteSamples, "non_finite"},
		{"too large", New(make([]complex128, 100), testSampleRate, testNominal), ErrBurstTooLarge, "too_large"},
	}

	obs := &recordingObserver{}
	h := newTestHandler(t, WithObserver(obs), WithFFTOptions(fft.WithSizeLimits(16, 64)))

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := h.Process(tc.burst)
			if err == nil {
				t.Fatalf("expected error, got burst %v", out.Meta)
			}
			if out != nil {
				t.Fatal("rejected burst must not be emitted")
			}
			if !errors.Is(err, ErrMalformed) || !errors.Is(err, tc.reason) {
				t.Fatalf("error %v does not wrap %v and ErrMalformed", err, tc.reason)
			}
			if got := DropReason(err); got != tc.label {
				t.Fatalf("DropReason=%q want %q", got, tc.label)
			}
		})
	}

	if len(obs.dropped) != len(cases) {
		t.Fatalf("observer saw %d drops want %d", len(obs.dropped), len(cases))
	}

	// A rejected burst does not affect the next one.
	if _, err := h.Process(New(tone, testSampleRate, testNominal)); err != nil {
		t.Fatalf("Process after rejection: %v", err)
	}
	if len(obs.processed) != 1 {
		t.Fatalf("observer saw %d processed want 1", len(obs.processed))
	}
}

func TestNewHandlerValidation(t *testing.T) {
	cases := []struct {
		name string
		opt  Option
	}{
		{"unknown method", WithMethod(cfest.Method(7))},
		{"NaN channel", WithChannelFreqs([]float64{1, math.NaN()})},
		{"infinite ceiling", WithSNRCeiling(math.Inf(1))},
		{"nil workspace", WithWorkspace(nil)},
		{"nil logger", WithLogger(nil)},
		{"nil observer", WithObserver(nil)},
		{"bad sigma", WithFFTOptions(fft.WithSigma(0))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewHandler(tc.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := NewHandler(WithMethod(cfest.Method(7)))
	if !errors.Is(err, cfest.ErrUnknownMethod) {
		t.Fatalf("error %v does not wrap ErrUnknownMethod", err)
	}
}

func TestSetMethodAndChannels(t *testing.T) {
	h := newTestHandler(t)

	if h.Method() != cfest.MethodRMS {
		t.Fatalf("default method=%v want rms", h.Method())
	}

	if err := h.SetMethod(cfest.Method(-1)); err == nil {
		t.Fatal("expected error for unknown method")
	}
	if h.Method() != cfest.MethodRMS {
		t.Fatalf("method changed after rejected SetMethod: %v", h.Method())
	}

	if err := h.SetChannelFreqs([]float64{2e6, 1e6}); err != nil {
		t.Fatalf("SetChannelFreqs error: %v", err)
	}
	if err := h.SetMethod(cfest.MethodCoerce); err != nil {
		t.Fatalf("SetMethod error: %v", err)
	}
	if err := h.SetChannelFreqs([]float64{math.Inf(1)}); err == nil {
		t.Fatal("expected error for infinite channel")
	}

	got := h.ChannelFreqs()
	if len(got) != 2 || got[0] != 2e6 {
		t.Fatalf("ChannelFreqs=%v want unchanged [2e6 1e6]", got)
	}

	out, err := h.Process(New(testutil.ComplexTone(0, testSampleRate, 1, 128), testSampleRate, 1.2e6))
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if c := metaFloat(t, out.Meta, KeyCenterFrequency); c != 1e6 {
		t.Fatalf("center_frequency=%v want 1e6", c)
	}
}

func TestDebugSinkReceivesSpectrum(t *testing.T) {
	var records []DebugRecord
	h := newTestHandler(t, WithDebugSink(DebugSinkFunc(func(rec DebugRecord) {
		records = append(records, rec)
	})))

	if _, err := h.Process(New(testutil.ComplexTone(5000, testSampleRate, 1, 1000), testSampleRate, testNominal)); err != nil {
		t.Fatalf("Process error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("records=%d want 1", len(records))
	}

	rec := records[0]
	if rec.Spectrum.Len() != testLen || len(rec.Spectrum.Freqs) != testLen {
		t.Fatalf("spectrum length=%d/%d want %d", rec.Spectrum.Len(), len(rec.Spectrum.Freqs), testLen)
	}
	if rec.Samples != 1000 || rec.NominalFrequency != testNominal || rec.SampleRate != testSampleRate {
		t.Fatalf("unexpected record %+v", rec)
	}
	if math.Abs(rec.Result.Offset-5000) > testBinWidth {
		t.Fatalf("record offset=%v want 5000", rec.Result.Offset)
	}
}

func TestProcessLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newTestHandler(t, WithLogger(zap.New(core)))

	if _, err := h.Process(New(testutil.ComplexTone(0, testSampleRate, 1, 64), testSampleRate, testNominal)); err != nil {
		t.Fatalf("Process error: %v", err)
	}
	_, _ = h.Process(New(nil, testSampleRate, testNominal))

	if n := logs.FilterMessage("burst processed").Len(); n != 1 {
		t.Fatalf("processed log entries=%d want 1", n)
	}

	dropped := logs.FilterMessage("burst dropped").All()
	if len(dropped) != 1 {
		t.Fatalf("dropped log entries=%d want 1", len(dropped))
	}
	if dropped[0].Level != zapcore.WarnLevel {
		t.Fatalf("dropped level=%v want warn", dropped[0].Level)
	}
	if reason := dropped[0].ContextMap()["reason"]; reason != "empty" {
		t.Fatalf("reason field=%v want empty", reason)
	}
}

func TestSharedWorkspaceNotClosed(t *testing.T) {
	ws, err := fft.NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace error: %v", err)
	}
	defer ws.Close()

	h, err := NewHandler(WithWorkspace(ws))
	if err != nil {
		t.Fatalf("NewHandler error: %v", err)
	}

	if _, err := h.Process(New(make([]complex128, 200), testSampleRate, testNominal)); err != nil {
		t.Fatalf("Process error: %v", err)
	}
	h.Close()

	if sizes := ws.Sizes(); len(sizes) != 1 || sizes[0] != 256 {
		t.Fatalf("shared workspace sizes=%v want [256]", sizes)
	}
}

func TestProcessConcurrent(t *testing.T) {
	obs := &recordingObserver{}
	h := newTestHandler(t, WithObserver(obs))

	offsets := []float64{-40000, -5000, 0, 7500, 31000}

	var wg sync.WaitGroup
	errs := make(chan error, len(offsets)*8)
	for i := 0; i < 8; i++ {
		for _, off := range offsets {
			wg.Add(1)
			go func(off float64, n int) {
				defer wg.Done()
				_, err := h.Process(New(testutil.ComplexTone(off, testSampleRate, 1, n), testSampleRate, testNominal))
				if err != nil {
					errs <- err
				}
			}(off, 256<<(i%3))
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("Process error: %v", err)
	}
	if len(obs.processed) != len(offsets)*8 {
		t.Fatalf("processed=%d want %d", len(obs.processed), len(offsets)*8)
	}
	if sizes := h.CachedFFTSizes(); len(sizes) != 3 {
		t.Fatalf("cached sizes=%v want three", sizes)
	}
}
