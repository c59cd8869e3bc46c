package fft

import (
	"fmt"
	"strings"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan is a forward complex transform of fixed length.
//
// Forward computes the unnormalized DFT X[k] = sum x[n] exp(-2*pi*i*n*k/N).
// dst and src must both have length Len().
type Plan interface {
	Len() int
	Forward(dst, src []complex128) error
}

// Planner creates plans. It is the create-if-absent policy of a [Workspace].
type Planner interface {
	NewPlan(n int) (Plan, error)
}

// PlannerFunc adapts a function to [Planner].
type PlannerFunc func(n int) (Plan, error)

// NewPlan calls f(n).
func (f PlannerFunc) NewPlan(n int) (Plan, error) { return f(n) }

// Backend names accepted by [PlannerByName].
const (
	BackendAlgoFFT = "algofft"
	BackendGonum   = "gonum"
)

// PlannerByName returns the planner registered under name.
// An empty name selects the default backend.
func PlannerByName(name string) (Planner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAlgoFFT:
		return AlgoPlanner{}, nil
	case BackendGonum:
		return GonumPlanner{}, nil
	default:
		return nil, fmt.Errorf("fft: unsupported backend: %q", name)
	}
}

// AlgoPlanner creates plans backed by algo-fft.
type AlgoPlanner struct{}

// NewPlan implements [Planner].
func (AlgoPlanner) NewPlan(n int) (Plan, error) {
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft: algofft plan %d: %w", n, err)
	}

	return &algoPlan{n: n, plan: plan}, nil
}

type algoPlan struct {
	n    int
	plan *algofft.Plan[complex128]
}

func (p *algoPlan) Len() int { return p.n }

func (p *algoPlan) Forward(dst, src []complex128) error {
	if err := checkLengths(p.n, dst, src); err != nil {
		return err
	}

	return p.plan.Forward(dst, src)
}

// GonumPlanner creates plans backed by gonum's dsp/fourier package.
type GonumPlanner struct{}

// NewPlan implements [Planner].
func (GonumPlanner) NewPlan(n int) (Plan, error) {
	if n <= 0 {
		return nil, fmt.Errorf("fft: gonum plan size must be > 0: %d", n)
	}

	return &gonumPlan{n: n, fft: fourier.NewCmplxFFT(n)}, nil
}

type gonumPlan struct {
	n   int
	fft *fourier.CmplxFFT
}

func (p *gonumPlan) Len() int { return p.n }

func (p *gonumPlan) Forward(dst, src []complex128) error {
	if err := checkLengths(p.n, dst, src); err != nil {
		return err
	}

	p.fft.Coefficients(dst, src)

	return nil
}

func checkLengths(n int, dst, src []complex128) error {
	if len(dst) != n || len(src) != n {
		return fmt.Errorf("fft: buffer length mismatch: plan=%d dst=%d src=%d", n, len(dst), len(src))
	}

	return nil
}
