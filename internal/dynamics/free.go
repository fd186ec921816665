package dynamics

import (
	"github.com/san-kum/mbdyn/internal/spatial"
)

// FreeJoint gives a body all six degrees of freedom. Coordinates 0..2 are
// the rotation vector of the relative orientation, coordinates 3..5 the
// translation of the joint frame expressed on the parent side.
type FreeJoint struct {
	jointBase
}

func NewFreeJoint(name string) *FreeJoint {
	return &FreeJoint{jointBase: newJointBase(name, 6)}
}

func (j *FreeJoint) updateTransform() {
	motion := spatial.Transform{R: spatial.ExpMap(j.posVec3(0)), P: j.posVec3(3)}
	j.t = j.fromParent.Mul(motion).Mul(j.fromChild.Inverse())
}

func (j *FreeJoint) updateLocalJacobian() {
	jr := spatial.ExpMapJac(j.posVec3(0)).Transpose()
	rt := spatial.ExpMap(j.posVec3(0)).Transpose()
	for i := 0; i < 3; i++ {
		j.s[i] = spatial.Ad(j.fromChild, spatial.Motion{Angular: jr.Col(i)})
		j.s[3+i] = spatial.Ad(j.fromChild, spatial.Motion{Linear: rt.Col(i)})
	}
}

func (j *FreeJoint) updateLocalJacobianTimeDeriv() {
	w := j.posVec3(0)
	dw := j.velVec3(0)
	djr := spatial.ExpMapJacDeriv(w, dw).Transpose()
	// d/dt R^T = -skew(w_body) R^T with w_body the relative angular velocity.
	wb := spatial.ExpMapJac(w).Transpose().Mul3x1(dw)
	drt := spatial.Skew(wb).Mul(-1).Mul3(spatial.ExpMap(w).Transpose())
	for i := 0; i < 3; i++ {
		j.ds[i] = spatial.Ad(j.fromChild, spatial.Motion{Angular: djr.Col(i)})
		j.ds[3+i] = spatial.Ad(j.fromChild, spatial.Motion{Linear: drt.Col(i)})
	}
}

// IntegratePositions composes the incremental motion on the group: the
// orientation advances by the body-frame rotation rate, the translation by
// the rotated linear rate.
func (j *FreeJoint) IntegratePositions(dt float64) {
	r := spatial.ExpMap(j.posVec3(0))
	nr := r.Mul3(spatial.ExpMap(j.velVec3(0).Mul(dt)))
	np := j.posVec3(3).Add(r.Mul3x1(j.velVec3(3)).Mul(dt))
	q := spatial.LogMap(nr)
	for i := 0; i < 3; i++ {
		j.coords[i].pos = q[i]
		j.coords[3+i].pos = np[i]
	}
}
