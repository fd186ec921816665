package dynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func weldedSoftBody(t *testing.T, kv, ke float64, nPoints int) (*Skeleton, *SoftBodyNode) {
	t.Helper()
	soft := NewSoftBodyNode("blob", NewWeldJoint("anchor"))
	soft.SetMass(1)
	soft.SetMomentOfInertia(0.1, 0.1, 0.1, 0, 0, 0)
	soft.SetVertexSpringStiffness(kv)
	soft.SetEdgeSpringStiffness(ke)

	rest := []mgl64.Vec3{{0.2, 0, 0}, {-0.2, 0, 0}, {0, 0.2, 0}, {0, -0.2, 0}}
	for i := 0; i < nPoints; i++ {
		soft.AddPointMass(NewPointMass("p", 1, rest[i]))
	}

	skel := NewSkeleton("softblob")
	skel.AddSoftBodyNode(soft)
	if err := skel.Init(0.01, mgl64.Vec3{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return skel, soft
}

func TestSoftBodyCoordinateLayout(t *testing.T) {
	soft := NewSoftBodyNode("shell", NewFreeJoint("root"))
	soft.SetMass(1)
	soft.AddPointMass(NewPointMass("p0", 0.1, mgl64.Vec3{0.1, 0, 0}))
	soft.AddPointMass(NewPointMass("p1", 0.1, mgl64.Vec3{-0.1, 0, 0}))

	skel := NewSkeleton("layout")
	skel.AddSoftBodyNode(soft)
	if err := skel.Init(0.001, mgl64.Vec3{}); err != nil {
		t.Fatalf("init: %v", err)
	}

	if got := skel.NumGenCoords(); got != 12 {
		t.Fatalf("dof count: got %d, expected 12", got)
	}
	if got := skel.NumSoftBodyNodes(); got != 1 {
		t.Fatalf("soft body count: got %d, expected 1", got)
	}

	// Particle coordinates come after every joint coordinate.
	if got := soft.PointMass(0).FirstGenCoordIndex(); got != 6 {
		t.Errorf("first particle index: got %d, expected 6", got)
	}
	if got := soft.PointMass(1).FirstGenCoordIndex(); got != 9 {
		t.Errorf("second particle index: got %d, expected 9", got)
	}

	if sb := skel.SoftBodyNodeByName("shell"); sb != soft {
		t.Errorf("SoftBodyNodeByName(shell) did not return the node")
	}
}

func TestSoftBodySpringExternalForce(t *testing.T) {
	skel, _ := weldedSoftBody(t, 10, 0, 1)

	skel.SetPositions([]float64{0.1, 0, 0})
	skel.SetVelocities([]float64{0, 0, 0})

	fext := skel.ExternalForceVector()
	want := []float64{-1, 0, 0}
	for i := range want {
		if math.Abs(fext[i]-want[i]) > 1e-9 {
			t.Errorf("fext[%d]: got %.6f, expected %.6f", i, fext[i], want[i])
		}
	}
}

func TestSoftBodyEdgeSpringCouplesNeighbors(t *testing.T) {
	skel, soft := weldedSoftBody(t, 10, 4, 2)
	p0 := soft.PointMass(0)
	p1 := soft.PointMass(1)
	p0.AddConnectedPointMass(p1)
	p1.AddConnectedPointMass(p0)

	// Displace only the first particle.
	skel.SetPositions([]float64{0.1, 0, 0, 0, 0, 0})

	fext := skel.ExternalForceVector()
	if got, want := fext[0], -(10.0+4.0)*0.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("displaced particle: got %.6f, expected %.6f", got, want)
	}
	if got, want := fext[3], 4.0*0.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("neighbor pull: got %.6f, expected %.6f", got, want)
	}
}

func TestSoftBodyForwardDynamicsImplicitSpring(t *testing.T) {
	skel, _ := weldedSoftBody(t, 10, 0, 1)

	skel.SetPositions([]float64{0.1, 0, 0})
	skel.ComputeForwardDynamics()

	// With the shell welded, the particle solves
	// (m + dt^2 kv) a = -kv q for zero velocity and damping.
	want := -10.0 * 0.1 / (1 + 0.01*0.01*10)
	got := skel.Accelerations()[0]
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("particle acceleration: got %.9f, expected %.9f", got, want)
	}
	for i := 1; i < 3; i++ {
		if a := skel.Accelerations()[i]; math.Abs(a) > 1e-12 {
			t.Errorf("acceleration[%d]: got %.9g, expected 0", i, a)
		}
	}
}

func TestSoftBodyMassMatrix(t *testing.T) {
	soft := NewSoftBodyNode("shell", NewFreeJoint("root"))
	soft.SetMass(2)
	soft.SetMomentOfInertia(0.2, 0.25, 0.3, 0.01, 0, 0)
	soft.SetVertexSpringStiffness(10)
	soft.AddPointMass(NewPointMass("p0", 0.5, mgl64.Vec3{0.1, 0.05, 0}))
	soft.AddPointMass(NewPointMass("p1", 0.5, mgl64.Vec3{-0.1, 0, 0.05}))

	skel := NewSkeleton("softmass")
	skel.AddSoftBodyNode(soft)
	if err := skel.Init(0.001, mgl64.Vec3{0, 0, -9.81}); err != nil {
		t.Fatalf("init: %v", err)
	}

	q := []float64{0.2, -0.1, 0.3, 0.05, 0.1, -0.2, 0.02, 0, -0.01, 0.01, 0.03, 0}
	skel.SetPositions(q)

	n := skel.NumGenCoords()
	m := skel.MassMatrix()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > 1e-9 {
				t.Errorf("M[%d][%d]=%.9f != M[%d][%d]=%.9f", i, j, m.At(i, j), j, i, m.At(j, i))
			}
		}
	}

	inv := skel.InvMassMatrix()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += m.At(i, k) * inv.At(k, j)
			}
			expected := 0.0
			if i == j {
				expected = 1.0
			}
			if math.Abs(sum-expected) > 1e-6 {
				t.Errorf("(M*InvM)[%d][%d]: got %.9f, expected %.1f", i, j, sum, expected)
			}
		}
	}
}

func TestSoftBodyMassColumnsMatchInverseDynamics(t *testing.T) {
	soft := NewSoftBodyNode("shell", NewFreeJoint("root"))
	soft.SetMass(1.5)
	soft.SetMomentOfInertia(0.15, 0.2, 0.1, 0, 0.01, 0)
	soft.AddPointMass(NewPointMass("p0", 0.25, mgl64.Vec3{0.1, 0, 0}))

	skel := NewSkeleton("softcol")
	skel.AddSoftBodyNode(soft)
	if err := skel.Init(0.001, mgl64.Vec3{}); err != nil {
		t.Fatalf("init: %v", err)
	}

	n := skel.NumGenCoords()
	q := []float64{0.1, -0.2, 0.15, 0.3, 0, 0.1, 0.02, -0.01, 0}
	skel.SetPositions(q)
	skel.SetVelocities(make([]float64, n))

	m := skel.MassMatrix()
	for j := 0; j < n; j++ {
		ddq := make([]float64, n)
		ddq[j] = 1
		skel.SetAccelerations(ddq)
		skel.ComputeInverseDynamics(false, false)
		tau := skel.Forces()
		for i := 0; i < n; i++ {
			if math.Abs(tau[i]-m.At(i, j)) > 1e-8 {
				t.Errorf("column %d row %d: got %.9f, expected %.9f", j, i, tau[i], m.At(i, j))
			}
		}
	}
}

func TestSoftBodyEnergies(t *testing.T) {
	skel, _ := weldedSoftBody(t, 10, 0, 1)

	skel.SetVelocities([]float64{2, 0, 0})
	if got := skel.KineticEnergy(); math.Abs(got-2) > 1e-9 {
		t.Errorf("particle kinetic energy: got %.6f, expected 2.000000", got)
	}

	// Raising the particle raises the potential energy by m*g*h.
	skel.SetGravity(mgl64.Vec3{0, 0, -9.81})
	pe0 := skel.PotentialEnergy()
	skel.SetPositions([]float64{0, 0, 0.3})
	pe1 := skel.PotentialEnergy()
	if got, want := pe1-pe0, 1.0*9.81*0.3; math.Abs(got-want) > 1e-9 {
		t.Errorf("potential energy gain: got %.6f, expected %.6f", got, want)
	}
}

func TestSoftBodyPointMassKinematics(t *testing.T) {
	soft := NewSoftBodyNode("shell", NewFreeJoint("root"))
	soft.SetMass(1)
	soft.AddPointMass(NewPointMass("p0", 0.2, mgl64.Vec3{0.1, 0, 0}))

	skel := NewSkeleton("kin")
	skel.AddSoftBodyNode(soft)
	if err := skel.Init(0.001, mgl64.Vec3{}); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Translate the shell and displace the particle.
	q := make([]float64, skel.NumGenCoords())
	q[3], q[4], q[5] = 1, 2, 3
	q[6], q[7], q[8] = 0.05, 0, -0.02
	skel.SetPositions(q)

	got := soft.PointMass(0).WorldPosition()
	want := mgl64.Vec3{1 + 0.1 + 0.05, 2, 3 - 0.02}
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("world position: got %v, expected %v", got, want)
	}
}

func TestSoftBodyPointMassImpulse(t *testing.T) {
	skel, soft := weldedSoftBody(t, 0, 0, 1)
	p := soft.PointMass(0)
	skel.ComputeForwardDynamics()

	q := skel.Positions()
	dq := skel.Velocities()

	skel.UpdateBiasImpulseForPointMass(soft, p, mgl64.Vec3{0, 0, 4})
	skel.UpdateVelocityChange()

	// Anchored shell, unit particle mass: the change is the impulse itself.
	want := []float64{0, 0, 4}
	for i := 0; i < 3; i++ {
		if dv := p.GenCoord(i).VelChange(); math.Abs(dv-want[i]) > 1e-9 {
			t.Errorf("velocity change [%d]: got %.6f, expected %.6f", i, dv, want[i])
		}
	}

	// The bias computation must not disturb the skeleton state.
	gotQ := skel.Positions()
	gotDq := skel.Velocities()
	for i := range q {
		if gotQ[i] != q[i] || gotDq[i] != dq[i] {
			t.Errorf("state[%d] disturbed: got (%.6f, %.6f), expected (%.6f, %.6f)",
				i, gotQ[i], gotDq[i], q[i], dq[i])
		}
	}
}
