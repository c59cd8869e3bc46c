package fft

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-cfest/dsp/window"
)

const (
	// DefaultSigma is the Gaussian window standard deviation relative to the
	// window half-length.
	DefaultSigma = 0.3

	defaultMinSize = 16
	defaultMaxSize = 1 << 20
)

// ErrSizeTooLarge is returned when a requested transform exceeds the
// workspace's maximum size.
var ErrSizeTooLarge = errors.New("fft: requested size exceeds workspace maximum")

// Option configures a [Workspace].
type Option func(*config) error

type config struct {
	planner Planner
	sigma   float64
	minSize int
	maxSize int
}

func defaultConfig() config {
	return config{
		planner: AlgoPlanner{},
		sigma:   DefaultSigma,
		minSize: defaultMinSize,
		maxSize: defaultMaxSize,
	}
}

// WithPlanner sets the plan creation policy.
func WithPlanner(p Planner) Option {
	return func(cfg *config) error {
		if p == nil {
			return errors.New("fft: planner must not be nil")
		}
		cfg.planner = p
		return nil
	}
}

// WithSigma sets the Gaussian window sigma shared by all sizes.
func WithSigma(sigma float64) Option {
	return func(cfg *config) error {
		if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
			return fmt.Errorf("fft: window sigma must be > 0 and finite: %f", sigma)
		}
		cfg.sigma = sigma
		return nil
	}
}

// WithSizeLimits bounds the transform sizes the workspace will create.
// Both limits are rounded up to powers of two.
func WithSizeLimits(minSize, maxSize int) Option {
	return func(cfg *config) error {
		if minSize <= 0 || maxSize <= 0 {
			return fmt.Errorf("fft: size limits must be > 0: min=%d max=%d", minSize, maxSize)
		}
		if minSize > maxSize {
			return fmt.Errorf("fft: min size %d exceeds max size %d", minSize, maxSize)
		}
		cfg.minSize = NextPowerOfTwo(minSize)
		cfg.maxSize = NextPowerOfTwo(maxSize)
		return nil
	}
}

// Entry is a cached plan and analysis window of one size.
//
// The window is shared and must not be modified.
type Entry struct {
	size   int
	plan   Plan
	window []float64

	mu sync.Mutex
}

// Size returns the transform length.
func (e *Entry) Size() int { return e.size }

// Window returns the analysis window. Its length equals Size.
func (e *Entry) Window() []float64 { return e.window }

// Forward runs the plan. Calls on the same entry are serialized.
func (e *Entry) Forward(dst, src []complex128) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.plan.Forward(dst, src)
}

// Workspace caches plans and windows keyed by power-of-two size.
//
// Lookups of already cached sizes are lock-free. Creation of a new size is
// serialized by a mutex and publishes a new copy of the table, so entries are
// created at most once per size. Entries live until Close.
type Workspace struct {
	cfg config

	mu      sync.Mutex
	entries atomic.Pointer[map[int]*Entry]
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(opts ...Option) (*Workspace, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	w := &Workspace{cfg: cfg}
	empty := map[int]*Entry{}
	w.entries.Store(&empty)

	return w, nil
}

// SizeFor returns the transform size used for a buffer of n samples:
// the next power of two >= n, raised to the workspace minimum.
func (w *Workspace) SizeFor(n int) int {
	size := NextPowerOfTwo(n)
	if size < w.cfg.minSize {
		size = w.cfg.minSize
	}

	return size
}

// Sigma returns the Gaussian window sigma.
func (w *Workspace) Sigma() float64 { return w.cfg.sigma }

// Prepare returns the entry for a buffer of n samples, creating it on first
// use. The returned entry stays valid until Close.
func (w *Workspace) Prepare(n int) (*Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("fft: prepare size must be > 0: %d", n)
	}

	size := w.SizeFor(n)
	if size > w.cfg.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrSizeTooLarge, size, w.cfg.maxSize)
	}

	if e, ok := (*w.entries.Load())[size]; ok {
		return e, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	current := *w.entries.Load()
	if e, ok := current[size]; ok {
		return e, nil
	}

	e, err := w.newEntry(size)
	if err != nil {
		return nil, err
	}

	next := make(map[int]*Entry, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[size] = e
	w.entries.Store(&next)

	return e, nil
}

// Sizes returns the cached sizes in ascending order.
func (w *Workspace) Sizes() []int {
	current := *w.entries.Load()

	out := make([]int, 0, len(current))
	for size := range current {
		out = append(out, size)
	}
	sort.Ints(out)

	return out
}

// Close releases all cached plans and windows.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	empty := map[int]*Entry{}
	w.entries.Store(&empty)
}

func (w *Workspace) newEntry(size int) (*Entry, error) {
	plan, err := w.cfg.planner.NewPlan(size)
	if err != nil {
		return nil, err
	}
	if plan.Len() != size {
		return nil, fmt.Errorf("fft: planner returned length %d for size %d", plan.Len(), size)
	}

	win, err := window.GaussianSigma(size, w.cfg.sigma)
	if err != nil {
		return nil, err
	}

	return &Entry{size: size, plan: plan, window: win}, nil
}

// NextPowerOfTwo returns the smallest power of two >= n. It returns 1 for n <= 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
