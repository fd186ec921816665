package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/dynamics"
)

func testSkeleton(t *testing.T) *dynamics.Skeleton {
	t.Helper()
	body := dynamics.NewBodyNode("body", dynamics.NewFreeJoint("root"))
	body.SetMass(2)
	body.SetMomentOfInertia(1, 1, 1, 0, 0, 0)

	skel := dynamics.NewSkeleton("probe")
	skel.AddBodyNode(body)
	if err := skel.Init(0.001, mgl64.Vec3{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return skel
}

func TestEnergyDrift(t *testing.T) {
	skel := testSkeleton(t)
	skel.SetVelocities([]float64{0, 0, 0, 1, 0, 0})

	m := NewEnergyDrift()
	if m.Name() != "energy_drift" {
		t.Errorf("unexpected name %s", m.Name())
	}

	m.Observe(skel, 0)
	m.Observe(skel, 0.1)
	if v := m.Value(); math.Abs(v) > 1e-12 {
		t.Errorf("expected zero drift, got %.6g", v)
	}

	// Doubling the speed quadruples the kinetic energy.
	skel.SetVelocities([]float64{0, 0, 0, 2, 0, 0})
	m.Observe(skel, 0.2)
	if v := m.Value(); math.Abs(v-3) > 1e-9 {
		t.Errorf("expected drift 3.000000, got %.6f", v)
	}

	m.Reset()
	if v := m.Value(); v != 0 {
		t.Errorf("expected zero after reset, got %.6f", v)
	}
}

func TestCOMTravel(t *testing.T) {
	skel := testSkeleton(t)

	m := NewCOMTravel()
	m.Observe(skel, 0)

	q := make([]float64, 6)
	q[3] = 1
	skel.SetPositions(q)
	m.Observe(skel, 0.1)

	q[4] = 1
	skel.SetPositions(q)
	m.Observe(skel, 0.2)

	if v := m.Value(); math.Abs(v-2) > 1e-9 {
		t.Errorf("expected travel 2.000000, got %.6f", v)
	}

	m.Reset()
	if v := m.Value(); v != 0 {
		t.Errorf("expected zero after reset, got %.6f", v)
	}
}
