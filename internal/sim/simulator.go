package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/mbdyn/internal/dynamics"
	"github.com/san-kum/mbdyn/internal/integrators"
	"github.com/san-kum/mbdyn/internal/metrics"
)

// Observer is notified after every completed step.
type Observer interface {
	OnStep(skel *dynamics.Skeleton, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

type Result struct {
	Times      []float64
	States     [][]float64
	Energies   []float64
	Metrics    map[string]float64
	Errors     []error
	StepsTaken int
}

// Simulator drives one skeleton with a stepper, feeding metrics and
// observers along the way.
type Simulator struct {
	skel      *dynamics.Skeleton
	stepper   integrators.Stepper
	metrics   []metrics.Metric
	observers []Observer
}

func New(skel *dynamics.Skeleton, stepper integrators.Stepper) *Simulator {
	return &Simulator{
		skel:    skel,
		stepper: stepper,
	}
}

func (s *Simulator) Skeleton() *dynamics.Skeleton { return s.skel }

func (s *Simulator) AddMetric(m metrics.Metric)  { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)      { s.observers = append(s.observers, o) }

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("sim: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("sim: duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func stateValid(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Run steps the skeleton for the configured duration, recording states and
// energies. It returns the partial result when the context is cancelled.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Times:    make([]float64, 0, steps+1),
		States:   make([][]float64, 0, steps+1),
		Energies: make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	result.Times = append(result.Times, t)
	result.States = append(result.States, s.skel.State())
	result.Energies = append(result.Energies, s.skel.KineticEnergy()+s.skel.PotentialEnergy())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(s.skel, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.skel, t)
		}

		s.stepper.Step(s.skel, cfg.Dt)
		t += cfg.Dt

		x := s.skel.State()
		if cfg.ValidateState && !stateValid(x) {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"})
			break
		}

		result.StepsTaken++
		result.Times = append(result.Times, t)
		result.States = append(result.States, x)
		result.Energies = append(result.Energies, s.skel.KineticEnergy()+s.skel.PotentialEnergy())
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback steps until the duration elapses or the callback returns
// false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(skel *dynamics.Skeleton, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	t := 0.0
	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.skel, t) {
			return nil
		}

		s.stepper.Step(s.skel, cfg.Dt)
		t += cfg.Dt

		if cfg.ValidateState && !stateValid(s.skel.State()) {
			return fmt.Errorf("sim: invalid state at t=%.4f", t)
		}
	}
	return nil
}
