package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid transform on SE(3): x_parent = R*x_child + P.
type Transform struct {
	R mgl64.Mat3
	P mgl64.Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{R: mgl64.Ident3()}
}

// Translation returns a pure translation by p.
func Translation(p mgl64.Vec3) Transform {
	return Transform{R: mgl64.Ident3(), P: p}
}

// Rotation returns a pure rotation.
func Rotation(r mgl64.Mat3) Transform {
	return Transform{R: r}
}

func (t Transform) Mul(o Transform) Transform {
	return Transform{
		R: t.R.Mul3(o.R),
		P: t.R.Mul3x1(o.P).Add(t.P),
	}
}

func (t Transform) Inverse() Transform {
	rt := t.R.Transpose()
	return Transform{R: rt, P: rt.Mul3x1(t.P).Mul(-1)}
}

// ApplyPoint maps a point from the child frame into the parent frame.
func (t Transform) ApplyPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.R.Mul3x1(p).Add(t.P)
}

// ApplyVector rotates a free vector, ignoring translation.
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.R.Mul3x1(v)
}

// Skew returns the cross-product matrix of v.
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	var m mgl64.Mat3
	// column-major storage
	m[0*3+0], m[0*3+1], m[0*3+2] = 0, v[2], -v[1]
	m[1*3+0], m[1*3+1], m[1*3+2] = -v[2], 0, v[0]
	m[2*3+0], m[2*3+1], m[2*3+2] = v[1], -v[0], 0
	return m
}

// ExpMap returns the rotation matrix exp([w]) for a rotation vector w.
func ExpMap(w mgl64.Vec3) mgl64.Mat3 {
	angle := w.Len()
	if angle < 1e-12 {
		return mgl64.Ident3()
	}
	return mgl64.QuatRotate(angle, w.Mul(1/angle)).Mat4().Mat3()
}

// LogMap returns the rotation vector of a rotation matrix.
func LogMap(r mgl64.Mat3) mgl64.Vec3 {
	tr := r.At(0, 0) + r.At(1, 1) + r.At(2, 2)
	c := (tr - 1) * 0.5
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	angle := math.Acos(c)
	if angle < 1e-12 {
		return mgl64.Vec3{}
	}
	axis := mgl64.Vec3{
		r.At(2, 1) - r.At(1, 2),
		r.At(0, 2) - r.At(2, 0),
		r.At(1, 0) - r.At(0, 1),
	}
	if s := math.Sin(angle); math.Abs(s) > 1e-9 {
		return axis.Mul(angle / (2 * s))
	}
	// near pi the skew part vanishes: take the axis from the symmetric part,
	// whose column k is (1-c)*n_k*n once c is taken off the diagonal
	k := 0
	for i := 1; i < 3; i++ {
		if r.At(i, i) > r.At(k, k) {
			k = i
		}
	}
	var n mgl64.Vec3
	for i := 0; i < 3; i++ {
		n[i] = (r.At(i, k) + r.At(k, i)) * 0.5
	}
	n[k] -= c
	return n.Normalize().Mul(angle)
}
