package integrators

import "github.com/san-kum/mbdyn/internal/dynamics"

// SemiImplicitEuler integrates velocities with the freshly computed
// forward dynamics, then positions with the updated velocities. Symplectic
// for the mechanical systems simulated here.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Name() string { return "semi_implicit" }

func (e *SemiImplicitEuler) Step(skel *dynamics.Skeleton, dt float64) {
	skel.ComputeForwardDynamics()
	skel.IntegrateGenVels(dt)
	skel.IntegrateConfigs(dt)
	skel.ComputeForwardKinematics(true, true, false)
}
