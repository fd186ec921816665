package spatial

import "github.com/go-gl/mathgl/mgl64"

// Mat6 is a dense 6x6 operator on spatial vectors, row-major.
type Mat6 [6][6]float64

func (m *Mat6) SetZero() {
	*m = Mat6{}
}

func (m Mat6) Add(o Mat6) Mat6 {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] += o[i][j]
		}
	}
	return m
}

func (m *Mat6) AddInPlace(o *Mat6) {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] += o[i][j]
		}
	}
}

func (m Mat6) Sub(o Mat6) Mat6 {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] -= o[i][j]
		}
	}
	return m
}

func (m Mat6) Scale(s float64) Mat6 {
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			m[i][j] *= s
		}
	}
	return m
}

// Apply multiplies the operator with a twist, yielding a wrench.
func (m Mat6) Apply(v Motion) Force {
	x := [6]float64{
		v.Angular[0], v.Angular[1], v.Angular[2],
		v.Linear[0], v.Linear[1], v.Linear[2],
	}
	var y [6]float64
	for i := 0; i < 6; i++ {
		s := 0.0
		for j := 0; j < 6; j++ {
			s += m[i][j] * x[j]
		}
		y[i] = s
	}
	return Force{
		Moment: mgl64.Vec3{y[0], y[1], y[2]},
		Force:  mgl64.Vec3{y[3], y[4], y[5]},
	}
}

// OuterForce returns the rank-one operator a*b^T.
func OuterForce(a, b Force) Mat6 {
	av := [6]float64{a.Moment[0], a.Moment[1], a.Moment[2], a.Force[0], a.Force[1], a.Force[2]}
	bv := [6]float64{b.Moment[0], b.Moment[1], b.Moment[2], b.Force[0], b.Force[1], b.Force[2]}
	var out Mat6
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out[i][j] = av[i] * bv[j]
		}
	}
	return out
}

// TransformInertia maps an articulated inertia expressed in the child frame
// of t into the parent frame: Ad(t^-1)^T * ai * Ad(t^-1).
func TransformInertia(t Transform, ai Mat6) Mat6 {
	// X = Ad_{t^-1} as a 6x6 block matrix [[Rt, 0], [-Rt*skew(p), Rt]]
	rt := t.R.Transpose()
	sp := Skew(t.P)
	lower := rt.Mul3(sp).Mul(-1)

	var x Mat6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			x[i][j] = rt.At(i, j)
			x[i+3][j] = lower.At(i, j)
			x[i+3][j+3] = rt.At(i, j)
		}
	}

	var tmp Mat6 // ai * x
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			s := 0.0
			for k := 0; k < 6; k++ {
				s += ai[i][k] * x[k][j]
			}
			tmp[i][j] = s
		}
	}
	var out Mat6 // x^T * tmp
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			s := 0.0
			for k := 0; k < 6; k++ {
				s += x[k][i] * tmp[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}
