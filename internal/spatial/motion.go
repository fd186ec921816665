package spatial

import "github.com/go-gl/mathgl/mgl64"

// Motion is a spatial velocity or acceleration: angular stacked on linear.
type Motion struct {
	Angular mgl64.Vec3
	Linear  mgl64.Vec3
}

// Force is a spatial force: moment stacked on force.
type Force struct {
	Moment mgl64.Vec3
	Force  mgl64.Vec3
}

func (m Motion) Add(o Motion) Motion {
	return Motion{m.Angular.Add(o.Angular), m.Linear.Add(o.Linear)}
}

func (m Motion) Sub(o Motion) Motion {
	return Motion{m.Angular.Sub(o.Angular), m.Linear.Sub(o.Linear)}
}

func (m Motion) Scale(s float64) Motion {
	return Motion{m.Angular.Mul(s), m.Linear.Mul(s)}
}

func (m Motion) IsZero() bool {
	return m.Angular == (mgl64.Vec3{}) && m.Linear == (mgl64.Vec3{})
}

func (f Force) Add(o Force) Force {
	return Force{f.Moment.Add(o.Moment), f.Force.Add(o.Force)}
}

func (f Force) Sub(o Force) Force {
	return Force{f.Moment.Sub(o.Moment), f.Force.Sub(o.Force)}
}

func (f Force) Scale(s float64) Force {
	return Force{f.Moment.Mul(s), f.Force.Mul(s)}
}

func (f Force) IsZero() bool {
	return f.Moment == (mgl64.Vec3{}) && f.Force == (mgl64.Vec3{})
}

// Dot is the power pairing between a wrench and a twist.
func (f Force) Dot(m Motion) float64 {
	return f.Moment.Dot(m.Angular) + f.Force.Dot(m.Linear)
}

// Ad maps a twist from the child frame of t into the parent frame.
func Ad(t Transform, v Motion) Motion {
	w := t.R.Mul3x1(v.Angular)
	return Motion{
		Angular: w,
		Linear:  t.P.Cross(w).Add(t.R.Mul3x1(v.Linear)),
	}
}

// AdInv maps a twist from the parent frame of t into the child frame.
func AdInv(t Transform, v Motion) Motion {
	rt := t.R.Transpose()
	return Motion{
		Angular: rt.Mul3x1(v.Angular),
		Linear:  rt.Mul3x1(v.Linear.Sub(t.P.Cross(v.Angular))),
	}
}

// DualAdInv maps a wrench from the child frame of t into the parent frame.
// It is the dual of AdInv: DualAdInv(t, f).Dot(v) == f.Dot(AdInv(t, v)).
func DualAdInv(t Transform, f Force) Force {
	fw := t.R.Mul3x1(f.Force)
	return Force{
		Moment: t.R.Mul3x1(f.Moment).Add(t.P.Cross(fw)),
		Force:  fw,
	}
}

// DualAd maps a wrench from the parent frame of t into the child frame.
func DualAd(t Transform, f Force) Force {
	rt := t.R.Transpose()
	return Force{
		Moment: rt.Mul3x1(f.Moment.Sub(t.P.Cross(f.Force))),
		Force:  rt.Mul3x1(f.Force),
	}
}

// Cross is the spatial cross product of two twists (the ad operator).
func Cross(a, b Motion) Motion {
	return Motion{
		Angular: a.Angular.Cross(b.Angular),
		Linear:  a.Angular.Cross(b.Linear).Add(a.Linear.Cross(b.Angular)),
	}
}

// CrossForce is the dual cross product of a twist with a wrench (ad*).
func CrossForce(v Motion, f Force) Force {
	return Force{
		Moment: v.Angular.Cross(f.Moment).Add(v.Linear.Cross(f.Force)),
		Force:  v.Angular.Cross(f.Force),
	}
}

// GravityAccel expresses the world gravity vector as a spatial acceleration
// in the frame of t.
func GravityAccel(t Transform, g mgl64.Vec3) Motion {
	return Motion{Linear: t.R.Transpose().Mul3x1(g)}
}
