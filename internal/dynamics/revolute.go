package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// RevoluteJoint rotates about a fixed axis expressed in the joint frame.
type RevoluteJoint struct {
	jointBase
	axis mgl64.Vec3
}

func NewRevoluteJoint(name string, axis mgl64.Vec3) *RevoluteJoint {
	return &RevoluteJoint{
		jointBase: newJointBase(name, 1),
		axis:      normalizeAxis(axis),
	}
}

func (j *RevoluteJoint) Axis() mgl64.Vec3 { return j.axis }

func (j *RevoluteJoint) SetAxis(a mgl64.Vec3) { j.axis = normalizeAxis(a) }

func (j *RevoluteJoint) updateTransform() {
	rot := spatial.Rotation(spatial.ExpMap(j.axis.Mul(j.coords[0].pos)))
	j.t = j.fromParent.Mul(rot).Mul(j.fromChild.Inverse())
}

func (j *RevoluteJoint) updateLocalJacobian() {
	j.s[0] = spatial.Ad(j.fromChild, spatial.Motion{Angular: j.axis})
}

func (j *RevoluteJoint) updateLocalJacobianTimeDeriv() {
	j.ds[0] = spatial.Motion{}
}
