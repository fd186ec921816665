package dynamics

// WeldJoint rigidly attaches a body to its parent. It exposes no degrees
// of freedom.
type WeldJoint struct {
	jointBase
}

func NewWeldJoint(name string) *WeldJoint {
	return &WeldJoint{jointBase: newJointBase(name, 0)}
}

func (j *WeldJoint) updateTransform() {
	j.t = j.fromParent.Mul(j.fromChild.Inverse())
}

func (j *WeldJoint) updateLocalJacobian()          {}
func (j *WeldJoint) updateLocalJacobianTimeDeriv() {}
