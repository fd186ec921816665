package dynamics

import (
	"github.com/san-kum/mbdyn/internal/spatial"
)

// BallJoint allows free rotation. Its three coordinates are the rotation
// vector of the relative orientation.
type BallJoint struct {
	jointBase
}

func NewBallJoint(name string) *BallJoint {
	return &BallJoint{jointBase: newJointBase(name, 3)}
}

func (j *BallJoint) updateTransform() {
	rot := spatial.Rotation(spatial.ExpMap(j.posVec3(0)))
	j.t = j.fromParent.Mul(rot).Mul(j.fromChild.Inverse())
}

func (j *BallJoint) updateLocalJacobian() {
	jac := spatial.ExpMapJac(j.posVec3(0)).Transpose()
	for i := 0; i < 3; i++ {
		j.s[i] = spatial.Ad(j.fromChild, spatial.Motion{Angular: jac.Col(i)})
	}
}

func (j *BallJoint) updateLocalJacobianTimeDeriv() {
	djac := spatial.ExpMapJacDeriv(j.posVec3(0), j.velVec3(0)).Transpose()
	for i := 0; i < 3; i++ {
		j.ds[i] = spatial.Ad(j.fromChild, spatial.Motion{Angular: djac.Col(i)})
	}
}

// IntegratePositions composes the incremental rotation on the group rather
// than adding rotation vectors componentwise.
func (j *BallJoint) IntegratePositions(dt float64) {
	r := spatial.ExpMap(j.posVec3(0)).Mul3(spatial.ExpMap(j.velVec3(0).Mul(dt)))
	q := spatial.LogMap(r)
	for i := 0; i < 3; i++ {
		j.coords[i].pos = q[i]
	}
}
