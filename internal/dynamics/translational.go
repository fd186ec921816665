package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// TranslationalJoint allows free translation along the three joint frame
// axes.
type TranslationalJoint struct {
	jointBase
}

func NewTranslationalJoint(name string) *TranslationalJoint {
	return &TranslationalJoint{jointBase: newJointBase(name, 3)}
}

func (j *TranslationalJoint) updateTransform() {
	j.t = j.fromParent.Mul(spatial.Translation(j.posVec3(0))).Mul(j.fromChild.Inverse())
}

func (j *TranslationalJoint) updateLocalJacobian() {
	for i := 0; i < 3; i++ {
		var e mgl64.Vec3
		e[i] = 1
		j.s[i] = spatial.Ad(j.fromChild, spatial.Motion{Linear: e})
	}
}

func (j *TranslationalJoint) updateLocalJacobianTimeDeriv() {
	for i := 0; i < 3; i++ {
		j.ds[i] = spatial.Motion{}
	}
}
