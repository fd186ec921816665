package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ExpMapJac returns the left Jacobian of the exponential map at w, relating
// rates of the rotation vector to spatial angular velocity.
func ExpMapJac(w mgl64.Vec3) mgl64.Mat3 {
	theta := w.Len()
	ss := Skew(w)
	if theta < 1e-9 {
		return mgl64.Ident3().Add(ss.Mul(0.5))
	}
	c1 := (1 - math.Cos(theta)) / (theta * theta)
	c2 := (theta - math.Sin(theta)) / (theta * theta * theta)
	return mgl64.Ident3().Add(ss.Mul(c1)).Add(ss.Mul3(ss).Mul(c2))
}

// ExpMapJacDeriv returns the time derivative of ExpMapJac along w(t) with
// rate dw.
func ExpMapJacDeriv(w, dw mgl64.Vec3) mgl64.Mat3 {
	theta := w.Len()
	dss := Skew(dw)
	if theta < 1e-9 {
		return dss.Mul(0.5)
	}
	ss := Skew(w)
	ss2 := ss.Mul3(ss)
	td := w.Dot(dw)
	st, ct := math.Sin(theta), math.Cos(theta)
	t2 := theta * theta
	t3 := t2 * theta
	t4 := t3 * theta
	t5 := t4 * theta
	out := dss.Mul((1 - ct) / t2)
	out = out.Add(ss.Mul3(dss).Add(dss.Mul3(ss)).Mul((theta - st) / t3))
	out = out.Add(ss.Mul(td * (theta*st + 2*ct - 2) / t4))
	out = out.Add(ss2.Mul(td * (3*st - theta*ct - 2*theta) / t5))
	return out
}
