package integrators

import (
	"fmt"

	"github.com/san-kum/mbdyn/internal/dynamics"
)

// Stepper advances a skeleton by one time step.
type Stepper interface {
	Name() string
	Step(skel *dynamics.Skeleton, dt float64)
}

// New returns the stepper registered under the given name.
func New(name string) (Stepper, error) {
	switch name {
	case "semi_implicit", "":
		return NewSemiImplicitEuler(), nil
	case "rk4":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("integrators: unknown integrator %q", name)
	}
}
