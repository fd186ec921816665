package integrators

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/dynamics"
)

func pendulum(t *testing.T) *dynamics.Skeleton {
	t.Helper()
	body := dynamics.NewBodyNode("link", dynamics.NewRevoluteJoint("hinge", mgl64.Vec3{0, 1, 0}))
	body.SetMass(1)
	body.SetMomentOfInertia(0.1, 0.1, 0.1, 0, 0, 0)
	body.SetLocalCOM(mgl64.Vec3{0, 0, -0.5})

	skel := dynamics.NewSkeleton("pendulum")
	skel.AddBodyNode(body)
	if err := skel.Init(0.001, mgl64.Vec3{0, 0, -9.81}); err != nil {
		t.Fatalf("init: %v", err)
	}
	skel.SetPositions([]float64{1.0})
	return skel
}

func totalEnergy(skel *dynamics.Skeleton) float64 {
	return skel.KineticEnergy() + skel.PotentialEnergy()
}

func TestFactory(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"semi_implicit", "semi_implicit"},
		{"", "semi_implicit"},
		{"rk4", "rk4"},
	}
	for _, tt := range tests {
		s, err := New(tt.name)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.name, err)
		}
		if s.Name() != tt.want {
			t.Errorf("New(%q): got %s, expected %s", tt.name, s.Name(), tt.want)
		}
	}

	if _, err := New("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestSemiImplicitEulerAdvancesState(t *testing.T) {
	skel := pendulum(t)
	stepper := NewSemiImplicitEuler()

	q0 := skel.Positions()[0]
	stepper.Step(skel, 0.001)
	if skel.Positions()[0] == q0 && skel.Velocities()[0] == 0 {
		t.Error("step did not advance the state")
	}
}

func TestSemiImplicitEulerEnergyBounded(t *testing.T) {
	skel := pendulum(t)
	stepper := NewSemiImplicitEuler()

	e0 := totalEnergy(skel)
	for i := 0; i < 500; i++ {
		stepper.Step(skel, 0.001)
	}
	drift := math.Abs(totalEnergy(skel)-e0) / math.Abs(e0)
	if drift > 0.05 {
		t.Errorf("energy drift too large: %.6f", drift)
	}
}

func TestRK4ConservesEnergy(t *testing.T) {
	skel := pendulum(t)
	stepper := NewRK4()

	e0 := totalEnergy(skel)
	for i := 0; i < 500; i++ {
		stepper.Step(skel, 0.001)
	}
	drift := math.Abs(totalEnergy(skel)-e0) / math.Abs(e0)
	if drift > 1e-6 {
		t.Errorf("energy drift too large: %.9f", drift)
	}
}

func TestRK4MatchesEulerForSmallSteps(t *testing.T) {
	a := pendulum(t)
	b := pendulum(t)

	euler := NewSemiImplicitEuler()
	rk4 := NewRK4()
	for i := 0; i < 100; i++ {
		euler.Step(a, 0.0005)
		rk4.Step(b, 0.0005)
	}

	diff := math.Abs(a.Positions()[0] - b.Positions()[0])
	if diff > 1e-3 {
		t.Errorf("integrators diverged: |dq| = %.6f", diff)
	}
}
