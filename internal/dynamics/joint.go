package dynamics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// Joint connects a body to its parent body and maps its generalized
// coordinates to the relative motion between the two. The local transform
// and Jacobian are expressed in the child body frame.
type Joint interface {
	Name() string
	SetName(string)

	NumDofs() int
	GenCoord(i int) *GenCoord

	TransformFromParentBody() spatial.Transform
	SetTransformFromParentBody(spatial.Transform)
	TransformFromChildBody() spatial.Transform
	SetTransformFromChildBody(spatial.Transform)

	SpringStiffness(i int) float64
	SetSpringStiffness(i int, k float64)
	RestPosition(i int) float64
	SetRestPosition(i int, q0 float64)
	DampingCoefficient(i int) float64
	SetDampingCoefficient(i int, d float64)

	LocalTransform() spatial.Transform
	LocalJacobian() []spatial.Motion
	LocalJacobianTimeDeriv() []spatial.Motion

	PotentialEnergy() float64

	IntegratePositions(dt float64)
	IntegrateVelocities(dt float64)

	updateTransform()
	updateLocalJacobian()
	updateLocalJacobianTimeDeriv()

	relVelocity() spatial.Motion
	relJacDotVelocity() spatial.Motion
	relAcceleration() spatial.Motion
	relVelocityChange() spatial.Motion

	updateInvProjArtInertia(ai spatial.Mat6)
	updateInvProjArtInertiaImplicit(ai spatial.Mat6, dt float64)
	addChildArtInertiaTo(parent *spatial.Mat6, childAI spatial.Mat6)
	addChildArtInertiaImplicitTo(parent *spatial.Mat6, childAI spatial.Mat6)
	addChildBiasForceTo(parent *spatial.Force, childAIImpl spatial.Mat6, childBias spatial.Force, childPartialAcc spatial.Motion)
	addChildBiasImpulseTo(parent *spatial.Force, childAI spatial.Mat6, childBiasImp spatial.Force)
	updateTotalForce(bodyForce spatial.Force, dt float64)
	updateTotalImpulse(biasImp spatial.Force)
	updateAcceleration(aiImpl spatial.Mat6, parentAcc spatial.Motion)
	updateVelocityChange(ai spatial.Mat6, parentVelChange spatial.Motion)
	updateForceID(bodyForce spatial.Force, dt float64, withDamping, withSpring bool)
	updateImpulseID(bodyImpulse spatial.Force)
	updateConstrainedTerms(dt float64)

	addChildBiasForceForInvMassMatrix(parent *spatial.Force, childAI spatial.Mat6, childBias spatial.Force)
	addChildBiasForceForInvAugMassMatrix(parent *spatial.Force, childAIImpl spatial.Mat6, childBias spatial.Force)
	updateTotalForceForInvMassMatrix(bodyForce spatial.Force)
	updateInvMassMatrixSegment(ai spatial.Mat6, parentAcc spatial.Motion)
	updateInvAugMassMatrixSegment(aiImpl spatial.Mat6, parentAcc spatial.Motion)
	writeInvMassMatrixSegmentTo(m *mat.Dense, col int)
	addInvMassMatrixSegmentTo(acc *spatial.Motion)
}

var (
	_ Joint = (*WeldJoint)(nil)
	_ Joint = (*RevoluteJoint)(nil)
	_ Joint = (*PrismaticJoint)(nil)
	_ Joint = (*UniversalJoint)(nil)
	_ Joint = (*BallJoint)(nil)
	_ Joint = (*TranslationalJoint)(nil)
	_ Joint = (*FreeJoint)(nil)
)

// jointBase carries the coordinate bookkeeping and articulated-body math
// shared by every joint type. Concrete joints supply the local transform
// and Jacobian updates.
type jointBase struct {
	name   string
	coords []*GenCoord

	fromParent spatial.Transform
	fromChild  spatial.Transform

	t  spatial.Transform
	s  []spatial.Motion
	ds []spatial.Motion

	spring  []float64
	rest    []float64
	damping []float64

	totalForce   []float64
	totalImpulse []float64
	invMassBias  []float64
	invMassAcc   []float64

	invProjAI     *mat.Dense
	invProjAIImpl *mat.Dense
}

func newJointBase(name string, n int) jointBase {
	b := jointBase{
		name:         name,
		coords:       make([]*GenCoord, n),
		fromParent:   spatial.Identity(),
		fromChild:    spatial.Identity(),
		t:            spatial.Identity(),
		s:            make([]spatial.Motion, n),
		ds:           make([]spatial.Motion, n),
		spring:       make([]float64, n),
		rest:         make([]float64, n),
		damping:      make([]float64, n),
		totalForce:   make([]float64, n),
		totalImpulse: make([]float64, n),
		invMassBias:  make([]float64, n),
		invMassAcc:   make([]float64, n),
	}
	for i := range b.coords {
		b.coords[i] = newGenCoord(fmt.Sprintf("%s_%d", name, i))
	}
	if n > 0 {
		b.invProjAI = mat.NewDense(n, n, nil)
		b.invProjAIImpl = mat.NewDense(n, n, nil)
	}
	return b
}

func (b *jointBase) Name() string     { return b.name }
func (b *jointBase) SetName(n string) { b.name = n }

func (b *jointBase) NumDofs() int           { return len(b.coords) }
func (b *jointBase) GenCoord(i int) *GenCoord { return b.coords[i] }

func (b *jointBase) TransformFromParentBody() spatial.Transform     { return b.fromParent }
func (b *jointBase) SetTransformFromParentBody(t spatial.Transform) { b.fromParent = t }
func (b *jointBase) TransformFromChildBody() spatial.Transform      { return b.fromChild }
func (b *jointBase) SetTransformFromChildBody(t spatial.Transform)  { b.fromChild = t }

func (b *jointBase) SpringStiffness(i int) float64        { return b.spring[i] }
func (b *jointBase) SetSpringStiffness(i int, k float64)  { b.spring[i] = k }
func (b *jointBase) RestPosition(i int) float64           { return b.rest[i] }
func (b *jointBase) SetRestPosition(i int, q0 float64)    { b.rest[i] = q0 }
func (b *jointBase) DampingCoefficient(i int) float64     { return b.damping[i] }
func (b *jointBase) SetDampingCoefficient(i int, d float64) { b.damping[i] = d }

func (b *jointBase) LocalTransform() spatial.Transform         { return b.t }
func (b *jointBase) LocalJacobian() []spatial.Motion           { return b.s }
func (b *jointBase) LocalJacobianTimeDeriv() []spatial.Motion  { return b.ds }

func (b *jointBase) PotentialEnergy() float64 {
	e := 0.0
	for i, gc := range b.coords {
		d := gc.pos - b.rest[i]
		e += 0.5 * b.spring[i] * d * d
	}
	return e
}

func (b *jointBase) IntegratePositions(dt float64) {
	for _, gc := range b.coords {
		gc.pos += gc.vel * dt
	}
}

func (b *jointBase) IntegrateVelocities(dt float64) {
	for _, gc := range b.coords {
		gc.vel += gc.acc * dt
	}
}

func (b *jointBase) relVelocity() spatial.Motion {
	var v spatial.Motion
	for i, gc := range b.coords {
		v = v.Add(b.s[i].Scale(gc.vel))
	}
	return v
}

func (b *jointBase) relJacDotVelocity() spatial.Motion {
	var v spatial.Motion
	for i, gc := range b.coords {
		v = v.Add(b.ds[i].Scale(gc.vel))
	}
	return v
}

func (b *jointBase) relAcceleration() spatial.Motion {
	var v spatial.Motion
	for i, gc := range b.coords {
		v = v.Add(b.s[i].Scale(gc.acc))
	}
	return v
}

func (b *jointBase) relVelocityChange() spatial.Motion {
	var v spatial.Motion
	for i, gc := range b.coords {
		v = v.Add(b.s[i].Scale(gc.velChange))
	}
	return v
}

func (b *jointBase) updateInvProjArtInertia(ai spatial.Mat6) {
	n := len(b.coords)
	if n == 0 {
		return
	}
	proj := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		fi := ai.Apply(b.s[i])
		for j := 0; j < n; j++ {
			proj.Set(i, j, fi.Dot(b.s[j]))
		}
	}
	if err := b.invProjAI.Inverse(proj); err != nil {
		panic("dynamics: projected articulated inertia is not invertible")
	}
}

func (b *jointBase) updateInvProjArtInertiaImplicit(ai spatial.Mat6, dt float64) {
	n := len(b.coords)
	if n == 0 {
		return
	}
	proj := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		fi := ai.Apply(b.s[i])
		for j := 0; j < n; j++ {
			proj.Set(i, j, fi.Dot(b.s[j]))
		}
		proj.Set(i, i, proj.At(i, i)+dt*b.damping[i]+dt*dt*b.spring[i])
	}
	if err := b.invProjAIImpl.Inverse(proj); err != nil {
		panic("dynamics: projected articulated inertia is not invertible")
	}
}

// applyInv multiplies an inverse projected inertia with a coordinate vector.
func (b *jointBase) applyInv(inv *mat.Dense, rhs []float64) []float64 {
	n := len(rhs)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += inv.At(i, j) * rhs[j]
		}
		out[i] = s
	}
	return out
}

// projectedChildInertia removes the motion freed by this joint from a child
// articulated inertia: AI - AI*S*(S^T*AI*S)^-1*S^T*AI.
func (b *jointBase) projectedChildInertia(ai spatial.Mat6, inv *mat.Dense) spatial.Mat6 {
	n := len(b.coords)
	if n == 0 {
		return ai
	}
	ais := make([]spatial.Force, n)
	for i := range ais {
		ais[i] = ai.Apply(b.s[i])
	}
	var sum spatial.Mat6
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			o := spatial.OuterForce(ais[i], ais[j]).Scale(inv.At(i, j))
			sum.AddInPlace(&o)
		}
	}
	return ai.Sub(sum)
}

func (b *jointBase) addChildArtInertiaTo(parent *spatial.Mat6, childAI spatial.Mat6) {
	pi := spatial.TransformInertia(b.t, b.projectedChildInertia(childAI, b.invProjAI))
	parent.AddInPlace(&pi)
}

func (b *jointBase) addChildArtInertiaImplicitTo(parent *spatial.Mat6, childAI spatial.Mat6) {
	pi := spatial.TransformInertia(b.t, b.projectedChildInertia(childAI, b.invProjAIImpl))
	parent.AddInPlace(&pi)
}

func (b *jointBase) addChildBiasForceTo(parent *spatial.Force, childAIImpl spatial.Mat6, childBias spatial.Force, childPartialAcc spatial.Motion) {
	v := childPartialAcc
	if n := len(b.coords); n > 0 {
		alpha := b.applyInv(b.invProjAIImpl, b.totalForce)
		for i := 0; i < n; i++ {
			v = v.Add(b.s[i].Scale(alpha[i]))
		}
	}
	beta := childBias.Add(childAIImpl.Apply(v))
	*parent = parent.Add(spatial.DualAdInv(b.t, beta))
}

func (b *jointBase) addChildBiasImpulseTo(parent *spatial.Force, childAI spatial.Mat6, childBiasImp spatial.Force) {
	beta := childBiasImp
	if n := len(b.coords); n > 0 {
		alpha := b.applyInv(b.invProjAI, b.totalImpulse)
		var v spatial.Motion
		for i := 0; i < n; i++ {
			v = v.Add(b.s[i].Scale(alpha[i]))
		}
		beta = childBiasImp.Add(childAI.Apply(v))
	}
	*parent = parent.Add(spatial.DualAdInv(b.t, beta))
}

func (b *jointBase) updateTotalForce(bodyForce spatial.Force, dt float64) {
	for i, gc := range b.coords {
		springForce := -b.spring[i] * (gc.pos - b.rest[i] + dt*gc.vel)
		dampingForce := -b.damping[i] * gc.vel
		b.totalForce[i] = gc.force + springForce + dampingForce - bodyForce.Dot(b.s[i])
	}
}

func (b *jointBase) updateTotalImpulse(biasImp spatial.Force) {
	for i, gc := range b.coords {
		b.totalImpulse[i] = gc.impulse - biasImp.Dot(b.s[i])
	}
}

func (b *jointBase) updateAcceleration(aiImpl spatial.Mat6, parentAcc spatial.Motion) {
	n := len(b.coords)
	if n == 0 {
		return
	}
	f := aiImpl.Apply(spatial.AdInv(b.t, parentAcc))
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b.totalForce[i] - f.Dot(b.s[i])
	}
	acc := b.applyInv(b.invProjAIImpl, rhs)
	for i, gc := range b.coords {
		gc.acc = acc[i]
	}
}

func (b *jointBase) updateVelocityChange(ai spatial.Mat6, parentVelChange spatial.Motion) {
	n := len(b.coords)
	if n == 0 {
		return
	}
	f := ai.Apply(spatial.AdInv(b.t, parentVelChange))
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b.totalImpulse[i] - f.Dot(b.s[i])
	}
	dv := b.applyInv(b.invProjAI, rhs)
	for i, gc := range b.coords {
		gc.velChange = dv[i]
	}
}

func (b *jointBase) updateForceID(bodyForce spatial.Force, dt float64, withDamping, withSpring bool) {
	for i, gc := range b.coords {
		f := bodyForce.Dot(b.s[i])
		if withDamping {
			f += b.damping[i] * gc.vel
		}
		if withSpring {
			f += b.spring[i] * (gc.pos - b.rest[i] + dt*gc.vel)
		}
		gc.force = f
	}
}

func (b *jointBase) updateImpulseID(bodyImpulse spatial.Force) {
	for i, gc := range b.coords {
		gc.impulse = bodyImpulse.Dot(b.s[i])
	}
}

func (b *jointBase) updateConstrainedTerms(dt float64) {
	for _, gc := range b.coords {
		gc.vel += gc.velChange
		gc.acc += gc.velChange / dt
		gc.force += gc.impulse / dt
	}
}

func (b *jointBase) updateTotalForceForInvMassMatrix(bodyForce spatial.Force) {
	for i, gc := range b.coords {
		b.invMassBias[i] = gc.force - bodyForce.Dot(b.s[i])
	}
}

func (b *jointBase) addChildBiasForceForInvMassMatrix(parent *spatial.Force, childAI spatial.Mat6, childBias spatial.Force) {
	b.addChildInvMassBias(parent, childAI, childBias, b.invProjAI)
}

func (b *jointBase) addChildBiasForceForInvAugMassMatrix(parent *spatial.Force, childAIImpl spatial.Mat6, childBias spatial.Force) {
	b.addChildInvMassBias(parent, childAIImpl, childBias, b.invProjAIImpl)
}

func (b *jointBase) addChildInvMassBias(parent *spatial.Force, ai spatial.Mat6, childBias spatial.Force, inv *mat.Dense) {
	beta := childBias
	if n := len(b.coords); n > 0 {
		alpha := b.applyInv(inv, b.invMassBias)
		var v spatial.Motion
		for i := 0; i < n; i++ {
			v = v.Add(b.s[i].Scale(alpha[i]))
		}
		beta = childBias.Add(ai.Apply(v))
	}
	*parent = parent.Add(spatial.DualAdInv(b.t, beta))
}

func (b *jointBase) updateInvMassMatrixSegment(ai spatial.Mat6, parentAcc spatial.Motion) {
	b.updateInvMassSegment(ai, parentAcc, b.invProjAI)
}

func (b *jointBase) updateInvAugMassMatrixSegment(aiImpl spatial.Mat6, parentAcc spatial.Motion) {
	b.updateInvMassSegment(aiImpl, parentAcc, b.invProjAIImpl)
}

func (b *jointBase) updateInvMassSegment(ai spatial.Mat6, parentAcc spatial.Motion, inv *mat.Dense) {
	n := len(b.coords)
	if n == 0 {
		return
	}
	f := ai.Apply(spatial.AdInv(b.t, parentAcc))
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b.invMassBias[i] - f.Dot(b.s[i])
	}
	copy(b.invMassAcc, b.applyInv(inv, rhs))
}

func (b *jointBase) writeInvMassMatrixSegmentTo(m *mat.Dense, col int) {
	for i, gc := range b.coords {
		m.Set(gc.skeletonIndex, col, b.invMassAcc[i])
	}
}

func (b *jointBase) addInvMassMatrixSegmentTo(acc *spatial.Motion) {
	for i := range b.coords {
		*acc = acc.Add(b.s[i].Scale(b.invMassAcc[i]))
	}
}

func normalizeAxis(a mgl64.Vec3) mgl64.Vec3 {
	if a.Len() == 0 {
		panic("dynamics: joint axis must be nonzero")
	}
	return a.Normalize()
}

func (b *jointBase) posVec3(off int) mgl64.Vec3 {
	return mgl64.Vec3{b.coords[off].pos, b.coords[off+1].pos, b.coords[off+2].pos}
}

func (b *jointBase) velVec3(off int) mgl64.Vec3 {
	return mgl64.Vec3{b.coords[off].vel, b.coords[off+1].vel, b.coords[off+2].vel}
}
