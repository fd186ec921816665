package integrators

import "github.com/san-kum/mbdyn/internal/dynamics"

// RK4 integrates the flat state vector (positions then velocities) with
// the classic fourth order Runge-Kutta scheme. Each stage re-runs forward
// dynamics at the staged state.
type RK4 struct {
	k1, k2, k3, k4 []float64
	scratch        []float64
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make([]float64, n)
		r.k2 = make([]float64, n)
		r.k3 = make([]float64, n)
		r.k4 = make([]float64, n)
		r.scratch = make([]float64, n)
	}
}

// derivative writes [q̇; q̈] of the skeleton at the given state into out.
func (r *RK4) derivative(skel *dynamics.Skeleton, x, out []float64) {
	skel.SetState(x)
	skel.ComputeForwardDynamics()
	n := len(x) / 2
	copy(out[:n], skel.Velocities())
	copy(out[n:], skel.Accelerations())
}

func (r *RK4) Step(skel *dynamics.Skeleton, dt float64) {
	x := skel.State()
	n := len(x)
	r.ensureScratch(n)

	r.derivative(skel, x, r.k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	r.derivative(skel, r.scratch, r.k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	r.derivative(skel, r.scratch, r.k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	r.derivative(skel, r.scratch, r.k4)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	skel.SetState(r.scratch)
}
