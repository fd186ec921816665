package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// UniversalJoint rotates about two sequential axes: the first fixed on the
// parent side of the joint frame, the second on the child side.
type UniversalJoint struct {
	jointBase
	axis1 mgl64.Vec3
	axis2 mgl64.Vec3
}

func NewUniversalJoint(name string, axis1, axis2 mgl64.Vec3) *UniversalJoint {
	return &UniversalJoint{
		jointBase: newJointBase(name, 2),
		axis1:     normalizeAxis(axis1),
		axis2:     normalizeAxis(axis2),
	}
}

func (j *UniversalJoint) Axis1() mgl64.Vec3 { return j.axis1 }
func (j *UniversalJoint) Axis2() mgl64.Vec3 { return j.axis2 }

func (j *UniversalJoint) updateTransform() {
	r1 := spatial.Rotation(spatial.ExpMap(j.axis1.Mul(j.coords[0].pos)))
	r2 := spatial.Rotation(spatial.ExpMap(j.axis2.Mul(j.coords[1].pos)))
	j.t = j.fromParent.Mul(r1).Mul(r2).Mul(j.fromChild.Inverse())
}

func (j *UniversalJoint) updateLocalJacobian() {
	// The first axis is seen through the second rotation.
	undo2 := spatial.Rotation(spatial.ExpMap(j.axis2.Mul(-j.coords[1].pos)))
	j.s[0] = spatial.Ad(j.fromChild.Mul(undo2), spatial.Motion{Angular: j.axis1})
	j.s[1] = spatial.Ad(j.fromChild, spatial.Motion{Angular: j.axis2})
}

func (j *UniversalJoint) updateLocalJacobianTimeDeriv() {
	j.ds[0] = spatial.Cross(j.s[1].Scale(-j.coords[1].vel), j.s[0])
	j.ds[1] = spatial.Motion{}
}
