package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// PrismaticJoint slides along a fixed axis expressed in the joint frame.
type PrismaticJoint struct {
	jointBase
	axis mgl64.Vec3
}

func NewPrismaticJoint(name string, axis mgl64.Vec3) *PrismaticJoint {
	return &PrismaticJoint{
		jointBase: newJointBase(name, 1),
		axis:      normalizeAxis(axis),
	}
}

func (j *PrismaticJoint) Axis() mgl64.Vec3 { return j.axis }

func (j *PrismaticJoint) SetAxis(a mgl64.Vec3) { j.axis = normalizeAxis(a) }

func (j *PrismaticJoint) updateTransform() {
	slide := spatial.Translation(j.axis.Mul(j.coords[0].pos))
	j.t = j.fromParent.Mul(slide).Mul(j.fromChild.Inverse())
}

func (j *PrismaticJoint) updateLocalJacobian() {
	j.s[0] = spatial.Ad(j.fromChild, spatial.Motion{Linear: j.axis})
}

func (j *PrismaticJoint) updateLocalJacobianTimeDeriv() {
	j.ds[0] = spatial.Motion{}
}
