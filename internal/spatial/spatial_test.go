package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func sampleTransform() Transform {
	t := Rotation(ExpMap(mgl64.Vec3{0.3, -0.7, 0.2}))
	t.P = mgl64.Vec3{1.5, -0.4, 2.0}
	return t
}

func motionClose(a, b Motion, tol float64) bool {
	d := a.Sub(b)
	return d.Angular.Len() < tol && d.Linear.Len() < tol
}

func forceClose(a, b Force, tol float64) bool {
	d := a.Sub(b)
	return d.Moment.Len() < tol && d.Force.Len() < tol
}

func TestTransformInverseRoundTrip(t *testing.T) {
	tf := sampleTransform()
	id := tf.Mul(tf.Inverse())

	p := mgl64.Vec3{0.2, -1.1, 0.7}
	got := id.ApplyPoint(p)
	if got.Sub(p).Len() > 1e-12 {
		t.Errorf("T*T^-1 moved point: got %v, expected %v", got, p)
	}
}

func TestTransformApplyPoint(t *testing.T) {
	tf := Translation(mgl64.Vec3{1, 2, 3})
	got := tf.ApplyPoint(mgl64.Vec3{0.5, 0, 0})
	want := mgl64.Vec3{1.5, 2, 3}
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("translation apply: got %v, expected %v", got, want)
	}

	if v := tf.ApplyVector(mgl64.Vec3{0.5, 0, 0}); v.Sub(mgl64.Vec3{0.5, 0, 0}).Len() > 1e-12 {
		t.Errorf("ApplyVector should ignore translation, got %v", v)
	}
}

func TestSkewMatchesCross(t *testing.T) {
	v := mgl64.Vec3{0.4, -1.2, 0.9}
	u := mgl64.Vec3{2.0, 0.3, -0.5}
	got := Skew(v).Mul3x1(u)
	want := v.Cross(u)
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("skew(v)*u: got %v, expected %v", got, want)
	}
}

func TestExpLogRoundTrip(t *testing.T) {
	for _, w := range []mgl64.Vec3{
		{0.1, 0, 0},
		{0, -0.5, 0},
		{0.3, 0.4, -0.2},
		{1.2, -0.8, 0.5},
	} {
		got := LogMap(ExpMap(w))
		if got.Sub(w).Len() > 1e-9 {
			t.Errorf("log(exp(%v)): got %v", w, got)
		}
	}
}

func TestAdInvUndoesAd(t *testing.T) {
	tf := sampleTransform()
	v := Motion{Angular: mgl64.Vec3{0.2, -0.1, 0.5}, Linear: mgl64.Vec3{1.0, 0.3, -0.7}}
	got := AdInv(tf, Ad(tf, v))
	if !motionClose(got, v, 1e-12) {
		t.Errorf("AdInv(Ad(v)): got %+v, expected %+v", got, v)
	}
}

func TestDualAdPairing(t *testing.T) {
	tf := sampleTransform()
	v := Motion{Angular: mgl64.Vec3{0.2, -0.1, 0.5}, Linear: mgl64.Vec3{1.0, 0.3, -0.7}}
	f := Force{Moment: mgl64.Vec3{-0.4, 0.9, 0.1}, Force: mgl64.Vec3{0.6, -1.3, 0.8}}

	// DualAd is the dual of Ad and DualAdInv the dual of AdInv, so power
	// is invariant under the pairing.
	lhs := DualAd(tf, f).Dot(v)
	rhs := f.Dot(Ad(tf, v))
	if math.Abs(lhs-rhs) > 1e-12 {
		t.Errorf("DualAd pairing: got %.12f, expected %.12f", lhs, rhs)
	}

	lhs = DualAdInv(tf, f).Dot(v)
	rhs = f.Dot(AdInv(tf, v))
	if math.Abs(lhs-rhs) > 1e-12 {
		t.Errorf("DualAdInv pairing: got %.12f, expected %.12f", lhs, rhs)
	}
}

func TestDualAdInvUndoesDualAd(t *testing.T) {
	tf := sampleTransform()
	f := Force{Moment: mgl64.Vec3{-0.4, 0.9, 0.1}, Force: mgl64.Vec3{0.6, -1.3, 0.8}}
	got := DualAdInv(tf, DualAd(tf, f))
	if !forceClose(got, f, 1e-12) {
		t.Errorf("DualAdInv(DualAd(f)): got %+v, expected %+v", got, f)
	}
}

func TestCrossAntisymmetric(t *testing.T) {
	a := Motion{Angular: mgl64.Vec3{0.2, -0.1, 0.5}, Linear: mgl64.Vec3{1.0, 0.3, -0.7}}
	b := Motion{Angular: mgl64.Vec3{-0.6, 0.4, 0.1}, Linear: mgl64.Vec3{0.2, -0.9, 0.3}}
	got := Cross(a, b).Add(Cross(b, a))
	if !got.IsZero() && !motionClose(got, Motion{}, 1e-12) {
		t.Errorf("cross(a,b)+cross(b,a) should vanish, got %+v", got)
	}

	if v := Cross(a, a); !motionClose(v, Motion{}, 1e-12) {
		t.Errorf("cross(a,a) should vanish, got %+v", v)
	}
}

func TestCrossForcePowerBalance(t *testing.T) {
	// d/dt <f, v> with f fixed in a moving frame obeys the dual relation
	// <ad*(v) f, u> = -<f, ad(v) u>.
	v := Motion{Angular: mgl64.Vec3{0.3, 0.1, -0.2}, Linear: mgl64.Vec3{0.5, -0.4, 0.9}}
	u := Motion{Angular: mgl64.Vec3{-0.7, 0.2, 0.6}, Linear: mgl64.Vec3{0.1, 1.1, -0.3}}
	f := Force{Moment: mgl64.Vec3{0.8, -0.5, 0.2}, Force: mgl64.Vec3{-0.1, 0.4, 0.7}}

	lhs := CrossForce(v, f).Dot(u)
	rhs := -f.Dot(Cross(v, u))
	if math.Abs(lhs-rhs) > 1e-12 {
		t.Errorf("ad* pairing: got %.12f, expected %.12f", lhs, rhs)
	}
}

func TestGravityAccel(t *testing.T) {
	g := mgl64.Vec3{0, 0, -9.81}

	a := GravityAccel(Identity(), g)
	if a.Angular.Len() > 1e-12 || a.Linear.Sub(g).Len() > 1e-12 {
		t.Errorf("identity frame gravity: got %+v", a)
	}

	tf := Rotation(ExpMap(mgl64.Vec3{math.Pi / 2, 0, 0}))
	a = GravityAccel(tf, g)
	if math.Abs(a.Linear.Len()-9.81) > 1e-9 {
		t.Errorf("rotated gravity magnitude: got %.6f, expected %.6f", a.Linear.Len(), 9.81)
	}
	if a.Angular.Len() > 1e-12 {
		t.Errorf("gravity should have no angular part, got %v", a.Angular)
	}
}

func TestInertiaApplyMatchesMat6(t *testing.T) {
	in := NewInertia(2.5, mgl64.Vec3{0.1, -0.2, 0.3}, 1.0, 2.0, 3.0, 0.1, -0.2, 0.05)
	m := in.Mat6()

	v := Motion{Angular: mgl64.Vec3{0.4, -0.9, 0.2}, Linear: mgl64.Vec3{-0.3, 0.7, 1.1}}
	got := m.Apply(v)
	want := in.Apply(v)
	if !forceClose(got, want, 1e-12) {
		t.Errorf("Mat6 apply: got %+v, expected %+v", got, want)
	}
}

func TestInertiaKineticEnergyPositive(t *testing.T) {
	in := NewInertia(1.5, mgl64.Vec3{0.2, 0, -0.1}, 0.8, 0.9, 1.1, 0, 0, 0)
	v := Motion{Angular: mgl64.Vec3{0.5, -0.3, 0.8}, Linear: mgl64.Vec3{1.2, 0.1, -0.6}}
	ke := 0.5 * in.Apply(v).Dot(v)
	if ke <= 0 {
		t.Errorf("kinetic energy must be positive, got %.6f", ke)
	}
}

func TestTransformInertiaMatchesConjugation(t *testing.T) {
	in := NewInertia(2.0, mgl64.Vec3{0.1, 0.2, -0.3}, 1.0, 1.5, 2.0, 0.05, -0.1, 0.2)
	ai := in.Mat6()
	tf := sampleTransform()

	moved := TransformInertia(tf, ai)
	v := Motion{Angular: mgl64.Vec3{0.3, -0.2, 0.7}, Linear: mgl64.Vec3{-0.5, 0.9, 0.4}}

	// dAdInv(T) * I * AdInv(T) applied explicitly.
	want := DualAdInv(tf, ai.Apply(AdInv(tf, v)))
	got := moved.Apply(v)
	if !forceClose(got, want, 1e-10) {
		t.Errorf("transformed inertia: got %+v, expected %+v", got, want)
	}
}

func TestOuterForce(t *testing.T) {
	a := Force{Moment: mgl64.Vec3{1, 2, 3}, Force: mgl64.Vec3{4, 5, 6}}
	b := Force{Moment: mgl64.Vec3{-1, 0.5, 2}, Force: mgl64.Vec3{0.1, -0.2, 0.3}}
	m := OuterForce(a, b)

	// (a b^T) v = a * (b . v) for any twist v read componentwise.
	v := Motion{Angular: mgl64.Vec3{0.2, -0.7, 0.4}, Linear: mgl64.Vec3{0.9, 0.3, -0.1}}
	got := m.Apply(v)
	want := a.Scale(b.Dot(v))
	if !forceClose(got, want, 1e-12) {
		t.Errorf("outer product apply: got %+v, expected %+v", got, want)
	}
}

func TestExpMapJacAtZero(t *testing.T) {
	j := ExpMapJac(mgl64.Vec3{})
	id := mgl64.Ident3()
	for i := 0; i < 9; i++ {
		if math.Abs(j[i]-id[i]) > 1e-12 {
			t.Errorf("ExpMapJac(0)[%d]: got %.12f, expected %.12f", i, j[i], id[i])
		}
	}
}

func TestExpMapJacDerivAtZeroRate(t *testing.T) {
	d := ExpMapJacDeriv(mgl64.Vec3{0.3, -0.1, 0.2}, mgl64.Vec3{})
	for i := 0; i < 9; i++ {
		if math.Abs(d[i]) > 1e-12 {
			t.Errorf("ExpMapJacDeriv with zero rate [%d]: got %.12f, expected 0", i, d[i])
		}
	}
}

func TestMat6Arithmetic(t *testing.T) {
	var a, b Mat6
	a[0][0], a[5][5] = 2, 3
	b[0][0], b[5][5] = 1, -1

	sum := a.Add(b)
	if sum[0][0] != 3 || sum[5][5] != 2 {
		t.Errorf("add: got %v %v", sum[0][0], sum[5][5])
	}

	diff := a.Sub(b)
	if diff[0][0] != 1 || diff[5][5] != 4 {
		t.Errorf("sub: got %v %v", diff[0][0], diff[5][5])
	}

	sc := a.Scale(0.5)
	if sc[0][0] != 1 || sc[5][5] != 1.5 {
		t.Errorf("scale: got %v %v", sc[0][0], sc[5][5])
	}

	a.AddInPlace(&b)
	if a[0][0] != 3 || a[5][5] != 2 {
		t.Errorf("add in place: got %v %v", a[0][0], a[5][5])
	}

	a.SetZero()
	if a != (Mat6{}) {
		t.Errorf("SetZero left nonzero entries")
	}
}
