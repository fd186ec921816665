package spatial

import "github.com/go-gl/mathgl/mgl64"

// Inertia is the spatial inertia of a rigid body expressed at the body
// frame origin: mass m, center of mass c, rotational inertia Ic about the
// center of mass.
type Inertia struct {
	Mass   float64
	COM    mgl64.Vec3
	Moment mgl64.Mat3 // about the COM, in body axes
}

// NewInertia builds a spatial inertia from principal moments and products
// (Ixx, Iyy, Izz, Ixy, Ixz, Iyz) about the center of mass.
func NewInertia(mass float64, com mgl64.Vec3, ixx, iyy, izz, ixy, ixz, iyz float64) Inertia {
	var m mgl64.Mat3
	m[0*3+0], m[1*3+1], m[2*3+2] = ixx, iyy, izz
	m[1*3+0], m[0*3+1] = ixy, ixy
	m[2*3+0], m[0*3+2] = ixz, ixz
	m[2*3+1], m[1*3+2] = iyz, iyz
	return Inertia{Mass: mass, COM: com, Moment: m}
}

// Apply computes the spatial momentum (or force) I*v.
func (in Inertia) Apply(v Motion) Force {
	// moment about origin: Io*w + m c x v, with Io = Ic - m [c][c]
	c := in.COM
	w := v.Angular
	moment := in.Moment.Mul3x1(w).
		Add(c.Cross(c.Cross(w)).Mul(-in.Mass)).
		Add(c.Cross(v.Linear).Mul(in.Mass))
	force := v.Linear.Sub(c.Cross(w)).Mul(in.Mass)
	return Force{Moment: moment, Force: force}
}

// Mat6 expands the inertia to a dense 6x6 operator.
func (in Inertia) Mat6() Mat6 {
	var out Mat6
	basis := [6]Motion{
		{Angular: mgl64.Vec3{1, 0, 0}},
		{Angular: mgl64.Vec3{0, 1, 0}},
		{Angular: mgl64.Vec3{0, 0, 1}},
		{Linear: mgl64.Vec3{1, 0, 0}},
		{Linear: mgl64.Vec3{0, 1, 0}},
		{Linear: mgl64.Vec3{0, 0, 1}},
	}
	for j, e := range basis {
		f := in.Apply(e)
		out[0][j] = f.Moment[0]
		out[1][j] = f.Moment[1]
		out[2][j] = f.Moment[2]
		out[3][j] = f.Force[0]
		out[4][j] = f.Force[1]
		out[5][j] = f.Force[2]
	}
	return out
}
