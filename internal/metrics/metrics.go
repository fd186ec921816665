package metrics

import "github.com/san-kum/mbdyn/internal/dynamics"

// Metric accumulates a scalar over the course of a simulation run.
type Metric interface {
	Name() string
	Observe(skel *dynamics.Skeleton, t float64)
	Value() float64
	Reset()
}
