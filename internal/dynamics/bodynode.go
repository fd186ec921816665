package dynamics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// BodyNode is a single rigid body in a skeleton tree. It owns the joint
// that connects it to its parent and caches the spatial quantities the
// recursive dynamics passes exchange along the tree.
type BodyNode struct {
	name  string
	skel  *Skeleton
	index int
	impl  node

	parentJoint Joint
	parent      *BodyNode
	children    []*BodyNode

	inertia     spatial.Inertia
	gravityMode bool

	depIndices []int

	w   spatial.Transform
	v   spatial.Motion
	eta spatial.Motion
	a   spatial.Motion

	f        spatial.Force
	fext     spatial.Force
	fgravity spatial.Force

	artInertia     spatial.Mat6
	artInertiaImpl spatial.Mat6
	biasForce      spatial.Force

	biasImpulse   spatial.Force
	constraintImp spatial.Force
	delV          spatial.Motion
	impF          spatial.Force

	cgDV     spatial.Motion
	cgF      spatial.Force
	gF       spatial.Force
	fextF    spatial.Force
	mDV      spatial.Motion
	mF       spatial.Force
	invMU    spatial.Motion
	invMBias spatial.Force

	jac           []spatial.Motion
	jacDeriv      []spatial.Motion
	jacDirty      bool
	jacDerivDirty bool

	markers []*Marker
}

// NewBodyNode creates a body attached to its parent through the given
// joint. The body starts with unit mass and identity rotational inertia.
func NewBodyNode(name string, parentJoint Joint) *BodyNode {
	return &BodyNode{
		name:        name,
		index:       -1,
		parentJoint: parentJoint,
		inertia:     spatial.Inertia{Mass: 1, Moment: mgl64.Ident3()},
		gravityMode: true,
		w:           spatial.Identity(),
		jacDirty:    true,
		jacDerivDirty: true,
	}
}

func (b *BodyNode) Name() string        { return b.name }
func (b *BodyNode) SetName(name string) { b.name = name }

func (b *BodyNode) IndexInSkeleton() int { return b.index }
func (b *BodyNode) Skeleton() *Skeleton  { return b.skel }

func (b *BodyNode) ParentJoint() Joint          { return b.parentJoint }
func (b *BodyNode) ParentBodyNode() *BodyNode   { return b.parent }
func (b *BodyNode) NumChildBodyNodes() int      { return len(b.children) }
func (b *BodyNode) ChildBodyNode(i int) *BodyNode { return b.children[i] }

func (b *BodyNode) Mass() float64        { return b.inertia.Mass }
func (b *BodyNode) SetMass(m float64)    { b.inertia.Mass = m }
func (b *BodyNode) LocalCOM() mgl64.Vec3 { return b.inertia.COM }
func (b *BodyNode) SetLocalCOM(c mgl64.Vec3) { b.inertia.COM = c }

func (b *BodyNode) Inertia() spatial.Inertia      { return b.inertia }
func (b *BodyNode) SetInertia(in spatial.Inertia) { b.inertia = in }

func (b *BodyNode) SetMomentOfInertia(ixx, iyy, izz, ixy, ixz, iyz float64) {
	b.inertia = spatial.NewInertia(b.inertia.Mass, b.inertia.COM, ixx, iyy, izz, ixy, ixz, iyz)
}

func (b *BodyNode) GravityMode() bool       { return b.gravityMode }
func (b *BodyNode) SetGravityMode(on bool)  { b.gravityMode = on }

func (b *BodyNode) WorldTransform() spatial.Transform  { return b.w }
func (b *BodyNode) SpatialVelocity() spatial.Motion    { return b.v }
func (b *BodyNode) SpatialAcceleration() spatial.Motion { return b.a }
func (b *BodyNode) TransmittedForce() spatial.Force    { return b.f }
func (b *BodyNode) ExternalForce() spatial.Force       { return b.fext }

// COM returns the center of mass in world coordinates.
func (b *BodyNode) COM() mgl64.Vec3 {
	return b.w.ApplyPoint(b.inertia.COM)
}

// COMLinearVelocity returns the world-frame linear velocity of the center
// of mass.
func (b *BodyNode) COMLinearVelocity() mgl64.Vec3 {
	c := b.inertia.COM
	return b.w.ApplyVector(b.v.Linear.Add(b.v.Angular.Cross(c)))
}

// COMLinearAcceleration returns the world-frame linear acceleration of the
// center of mass, including the centripetal term.
func (b *BodyNode) COMLinearAcceleration() mgl64.Vec3 {
	c := b.inertia.COM
	lin := b.a.Linear.Add(b.a.Angular.Cross(c)).
		Add(b.v.Angular.Cross(b.v.Linear.Add(b.v.Angular.Cross(c))))
	return b.w.ApplyVector(lin)
}

func (b *BodyNode) base() *BodyNode { return b }

// AddChildBodyNode links a child under this body. Registration with a
// skeleton is separate and may happen in any order.
func (b *BodyNode) AddChildBodyNode(child *BodyNode) {
	child.parent = b
	b.children = append(b.children, child)
}

// init wires the body into its skeleton and records which generalized
// coordinates its world pose depends on, in tree order.
func (b *BodyNode) init(skel *Skeleton, index int) {
	b.skel = skel
	b.index = index
	b.depIndices = b.depIndices[:0]
	if b.parent != nil {
		b.depIndices = append(b.depIndices, b.parent.depIndices...)
	}
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		b.depIndices = append(b.depIndices, b.parentJoint.GenCoord(i).IndexInSkeleton())
	}
	b.jac = make([]spatial.Motion, len(b.depIndices))
	b.jacDeriv = make([]spatial.Motion, len(b.depIndices))
	b.jacDirty = true
	b.jacDerivDirty = true
}

func (b *BodyNode) NumDependentGenCoords() int        { return len(b.depIndices) }
func (b *BodyNode) DependentGenCoordIndex(i int) int  { return b.depIndices[i] }

// Markers

func (b *BodyNode) AddMarker(m *Marker)   { m.body = b; b.markers = append(b.markers, m) }
func (b *BodyNode) NumMarkers() int       { return len(b.markers) }
func (b *BodyNode) Marker(i int) *Marker  { return b.markers[i] }

// External forces

// AddExtForce accumulates a force applied at a point of the body into the
// body frame external wrench.
func (b *BodyNode) AddExtForce(force, offset mgl64.Vec3, isForceLocal, isOffsetLocal bool) {
	p := offset
	if !isOffsetLocal {
		p = b.w.Inverse().ApplyPoint(offset)
	}
	f := force
	if !isForceLocal {
		f = b.w.R.Transpose().Mul3x1(force)
	}
	b.fext.Moment = b.fext.Moment.Add(p.Cross(f))
	b.fext.Force = b.fext.Force.Add(f)
}

// SetExtForce replaces the body frame external wrench with a single force
// applied at a point of the body.
func (b *BodyNode) SetExtForce(force, offset mgl64.Vec3, isForceLocal, isOffsetLocal bool) {
	b.fext = spatial.Force{}
	b.AddExtForce(force, offset, isForceLocal, isOffsetLocal)
}

func (b *BodyNode) AddExtTorque(torque mgl64.Vec3, isLocal bool) {
	t := torque
	if !isLocal {
		t = b.w.R.Transpose().Mul3x1(torque)
	}
	b.fext.Moment = b.fext.Moment.Add(t)
}

func (b *BodyNode) SetExtTorque(torque mgl64.Vec3, isLocal bool) {
	b.fext.Moment = mgl64.Vec3{}
	b.AddExtTorque(torque, isLocal)
}

func (b *BodyNode) clearExternalForces() {
	b.fext = spatial.Force{}
}

// Constraint impulses

func (b *BodyNode) ConstraintImpulse() spatial.Force        { return b.constraintImp }
func (b *BodyNode) SetConstraintImpulse(imp spatial.Force)  { b.constraintImp = imp }
func (b *BodyNode) AddConstraintImpulse(imp spatial.Force)  { b.constraintImp = b.constraintImp.Add(imp) }
func (b *BodyNode) clearConstraintImpulse() {
	b.constraintImp = spatial.Force{}
	b.biasImpulse = spatial.Force{}
	b.delV = spatial.Motion{}
	b.impF = spatial.Force{}
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		gc := b.parentJoint.GenCoord(i)
		gc.SetVelChange(0)
		gc.SetConstraintImpulse(0)
	}
}

func (b *BodyNode) VelocityChange() spatial.Motion { return b.delV }

// Kinematics passes

func (b *BodyNode) parentWorld() spatial.Transform {
	if b.parent != nil {
		return b.parent.w
	}
	return spatial.Identity()
}

func (b *BodyNode) parentVelocity() spatial.Motion {
	if b.parent != nil {
		return b.parent.v
	}
	return spatial.Motion{}
}

func (b *BodyNode) parentAcceleration() spatial.Motion {
	if b.parent != nil {
		return b.parent.a
	}
	return spatial.Motion{}
}

func (b *BodyNode) updateTransform() {
	b.parentJoint.updateTransform()
	b.parentJoint.updateLocalJacobian()
	b.w = b.parentWorld().Mul(b.parentJoint.LocalTransform())
	b.jacDirty = true
	b.jacDerivDirty = true
}

func (b *BodyNode) updateVelocity() {
	t := b.parentJoint.LocalTransform()
	b.v = spatial.AdInv(t, b.parentVelocity()).Add(b.parentJoint.relVelocity())
	b.jacDerivDirty = true
}

func (b *BodyNode) updatePartialAcceleration() {
	b.parentJoint.updateLocalJacobianTimeDeriv()
	b.eta = spatial.Cross(b.v, b.parentJoint.relVelocity()).Add(b.parentJoint.relJacDotVelocity())
}

// updateAccelerationID propagates acceleration down the tree from the
// joint accelerations already stored on the coordinates.
func (b *BodyNode) updateAccelerationID() {
	t := b.parentJoint.LocalTransform()
	b.a = spatial.AdInv(t, b.parentAcceleration()).Add(b.eta).Add(b.parentJoint.relAcceleration())
}

// Inverse dynamics

func (b *BodyNode) updateGravityForce(g mgl64.Vec3) {
	if b.gravityMode {
		b.fgravity = b.inertia.Apply(spatial.GravityAccel(b.w, g))
	} else {
		b.fgravity = spatial.Force{}
	}
}

// updateTransmittedForceID runs the Newton-Euler backward step: the wrench
// the parent joint transmits to support the current acceleration.
func (b *BodyNode) updateTransmittedForceID(g mgl64.Vec3, withExternal bool) {
	b.updateGravityForce(g)
	iv := b.inertia.Apply(b.v)
	b.f = b.inertia.Apply(b.a).Add(spatial.CrossForce(b.v, iv)).Sub(b.fgravity)
	if withExternal {
		b.f = b.f.Sub(b.fext)
	}
	for _, c := range b.children {
		b.f = b.f.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.f))
	}
}

func (b *BodyNode) updateJointForceID(dt float64, withDamping, withSpring bool) {
	b.parentJoint.updateForceID(b.f, dt, withDamping, withSpring)
}

// Forward dynamics, backward pass

func (b *BodyNode) updateArtInertia(dt float64) {
	b.artInertia = b.inertia.Mat6()
	b.artInertiaImpl = b.artInertia
	for _, c := range b.children {
		c.parentJoint.addChildArtInertiaTo(&b.artInertia, c.artInertia)
		c.parentJoint.addChildArtInertiaImplicitTo(&b.artInertiaImpl, c.artInertiaImpl)
	}
	b.parentJoint.updateInvProjArtInertia(b.artInertia)
	b.parentJoint.updateInvProjArtInertiaImplicit(b.artInertiaImpl, dt)
}

func (b *BodyNode) updateBiasForce(g mgl64.Vec3, dt float64) {
	b.updateGravityForce(g)
	iv := b.inertia.Apply(b.v)
	b.biasForce = spatial.CrossForce(b.v, iv).Sub(b.fext).Sub(b.fgravity)
	for _, c := range b.children {
		c.parentJoint.addChildBiasForceTo(&b.biasForce, c.artInertiaImpl, c.biasForce, c.eta)
	}
	b.parentJoint.updateTotalForce(b.artInertiaImpl.Apply(b.eta).Add(b.biasForce), dt)
}

// Forward dynamics, forward pass

func (b *BodyNode) updateAccelerationFD() {
	pa := b.parentAcceleration()
	b.parentJoint.updateAcceleration(b.artInertiaImpl, pa)
	t := b.parentJoint.LocalTransform()
	b.a = spatial.AdInv(t, pa).Add(b.eta).Add(b.parentJoint.relAcceleration())
}

func (b *BodyNode) updateTransmittedForceFD() {
	b.f = b.biasForce.Add(b.artInertiaImpl.Apply(b.a))
}

// Impulse dynamics

func (b *BodyNode) updateBiasImpulse() {
	b.biasImpulse = spatial.Force{}.Sub(b.constraintImp)
	for _, c := range b.children {
		c.parentJoint.addChildBiasImpulseTo(&b.biasImpulse, c.artInertia, c.biasImpulse)
	}
	b.parentJoint.updateTotalImpulse(b.biasImpulse)
}

func (b *BodyNode) parentVelocityChange() spatial.Motion {
	if b.parent != nil {
		return b.parent.delV
	}
	return spatial.Motion{}
}

func (b *BodyNode) updateVelocityChangeFD() {
	pdv := b.parentVelocityChange()
	b.parentJoint.updateVelocityChange(b.artInertia, pdv)
	t := b.parentJoint.LocalTransform()
	b.delV = spatial.AdInv(t, pdv).Add(b.parentJoint.relVelocityChange())
}

func (b *BodyNode) updateTransmittedImpulse() {
	b.impF = b.biasImpulse.Add(b.artInertia.Apply(b.delV))
}

func (b *BodyNode) updateConstrainedTerms(dt float64) {
	b.parentJoint.updateConstrainedTerms(dt)
	b.v = b.v.Add(b.delV)
	b.a = b.a.Add(b.delV.Scale(1 / dt))
	b.f = b.f.Add(b.impF.Scale(1 / dt))
}

// Mass matrix

func (b *BodyNode) parentMassDV() spatial.Motion {
	if b.parent != nil {
		return b.parent.mDV
	}
	return spatial.Motion{}
}

func (b *BodyNode) updateMassMatrix() {
	t := b.parentJoint.LocalTransform()
	b.mDV = spatial.AdInv(t, b.parentMassDV()).Add(b.parentJoint.relAcceleration())
}

func (b *BodyNode) aggregateMassMatrix(m *mat.Dense, col int) {
	b.mF = b.inertia.Mat6().Apply(b.mDV)
	for _, c := range b.children {
		b.mF = b.mF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.mF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		gc := b.parentJoint.GenCoord(i)
		m.Set(gc.IndexInSkeleton(), col, b.mF.Dot(s[i]))
	}
}

func (b *BodyNode) aggregateAugMassMatrix(m *mat.Dense, col int, dt float64) {
	b.mF = b.inertia.Mat6().Apply(b.mDV)
	for _, c := range b.children {
		b.mF = b.mF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.mF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		gc := b.parentJoint.GenCoord(i)
		d := b.parentJoint.DampingCoefficient(i)
		k := b.parentJoint.SpringStiffness(i)
		val := b.mF.Dot(s[i]) + (dt*d+dt*dt*k)*gc.Acc()
		m.Set(gc.IndexInSkeleton(), col, val)
	}
}

// Inverse mass matrix

func (b *BodyNode) updateInvMassMatrix() {
	b.invMBias = spatial.Force{}
	for _, c := range b.children {
		c.parentJoint.addChildBiasForceForInvMassMatrix(&b.invMBias, c.artInertia, c.invMBias)
	}
	b.parentJoint.updateTotalForceForInvMassMatrix(b.invMBias)
}

func (b *BodyNode) updateInvAugMassMatrix() {
	b.invMBias = spatial.Force{}
	for _, c := range b.children {
		c.parentJoint.addChildBiasForceForInvAugMassMatrix(&b.invMBias, c.artInertiaImpl, c.invMBias)
	}
	b.parentJoint.updateTotalForceForInvMassMatrix(b.invMBias)
}

func (b *BodyNode) parentInvMassU() spatial.Motion {
	if b.parent != nil {
		return b.parent.invMU
	}
	return spatial.Motion{}
}

func (b *BodyNode) aggregateInvMassMatrix(m *mat.Dense, col int) {
	pu := b.parentInvMassU()
	b.parentJoint.updateInvMassMatrixSegment(b.artInertia, pu)
	b.parentJoint.writeInvMassMatrixSegmentTo(m, col)
	b.invMU = spatial.AdInv(b.parentJoint.LocalTransform(), pu)
	b.parentJoint.addInvMassMatrixSegmentTo(&b.invMU)
}

func (b *BodyNode) aggregateInvAugMassMatrix(m *mat.Dense, col int) {
	pu := b.parentInvMassU()
	b.parentJoint.updateInvAugMassMatrixSegment(b.artInertiaImpl, pu)
	b.parentJoint.writeInvMassMatrixSegmentTo(m, col)
	b.invMU = spatial.AdInv(b.parentJoint.LocalTransform(), pu)
	b.parentJoint.addInvMassMatrixSegmentTo(&b.invMU)
}

// Coriolis, gravity and external force vectors

func (b *BodyNode) parentCombinedDV() spatial.Motion {
	if b.parent != nil {
		return b.parent.cgDV
	}
	return spatial.Motion{}
}

func (b *BodyNode) updateCombinedVector() {
	t := b.parentJoint.LocalTransform()
	b.cgDV = spatial.AdInv(t, b.parentCombinedDV()).Add(b.eta)
}

func (b *BodyNode) aggregateCombinedVector(cg []float64, g mgl64.Vec3) {
	b.updateGravityForce(g)
	iv := b.inertia.Apply(b.v)
	b.cgF = b.inertia.Mat6().Apply(b.cgDV).
		Add(spatial.CrossForce(b.v, iv)).
		Sub(b.fgravity)
	for _, c := range b.children {
		b.cgF = b.cgF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.cgF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		cg[b.parentJoint.GenCoord(i).IndexInSkeleton()] = b.cgF.Dot(s[i])
	}
}

func (b *BodyNode) aggregateCoriolisForceVector(cvec []float64) {
	iv := b.inertia.Apply(b.v)
	b.cgF = b.inertia.Mat6().Apply(b.cgDV).Add(spatial.CrossForce(b.v, iv))
	for _, c := range b.children {
		b.cgF = b.cgF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.cgF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		cvec[b.parentJoint.GenCoord(i).IndexInSkeleton()] = b.cgF.Dot(s[i])
	}
}

func (b *BodyNode) aggregateGravityForceVector(gvec []float64, g mgl64.Vec3) {
	if b.gravityMode {
		b.gF = b.inertia.Apply(spatial.GravityAccel(b.w, g))
	} else {
		b.gF = spatial.Force{}
	}
	for _, c := range b.children {
		b.gF = b.gF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.gF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		gvec[b.parentJoint.GenCoord(i).IndexInSkeleton()] = -b.gF.Dot(s[i])
	}
}

func (b *BodyNode) aggregateExternalForces(fext []float64) {
	b.fextF = b.fext
	for _, c := range b.children {
		b.fextF = b.fextF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.fextF))
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < b.parentJoint.NumDofs(); i++ {
		fext[b.parentJoint.GenCoord(i).IndexInSkeleton()] = b.fextF.Dot(s[i])
	}
}

// Energies

func (b *BodyNode) KineticEnergy() float64 {
	return 0.5 * b.inertia.Apply(b.v).Dot(b.v)
}

func (b *BodyNode) PotentialEnergy(g mgl64.Vec3) float64 {
	return -b.inertia.Mass * b.COM().Dot(g)
}

// Jacobians

// BodyJacobian returns the body frame Jacobian over the dependent
// generalized coordinates, column i matching DependentGenCoordIndex(i).
func (b *BodyNode) BodyJacobian() []spatial.Motion {
	if b.jacDirty {
		b.updateBodyJacobian()
	}
	return b.jac
}

func (b *BodyNode) updateBodyJacobian() {
	t := b.parentJoint.LocalTransform()
	n := b.parentJoint.NumDofs()
	parentCols := len(b.depIndices) - n
	if b.parent != nil {
		pj := b.parent.BodyJacobian()
		for i := 0; i < parentCols; i++ {
			b.jac[i] = spatial.AdInv(t, pj[i])
		}
	}
	s := b.parentJoint.LocalJacobian()
	for i := 0; i < n; i++ {
		b.jac[parentCols+i] = s[i]
	}
	b.jacDirty = false
}

// BodyJacobianTimeDeriv returns the time derivative of BodyJacobian.
func (b *BodyNode) BodyJacobianTimeDeriv() []spatial.Motion {
	if b.jacDerivDirty {
		b.updateBodyJacobianTimeDeriv()
	}
	return b.jacDeriv
}

func (b *BodyNode) updateBodyJacobianTimeDeriv() {
	t := b.parentJoint.LocalTransform()
	n := b.parentJoint.NumDofs()
	parentCols := len(b.depIndices) - n
	relV := b.parentJoint.relVelocity()
	if b.parent != nil {
		pj := b.parent.BodyJacobian()
		pdj := b.parent.BodyJacobianTimeDeriv()
		for i := 0; i < parentCols; i++ {
			col := spatial.AdInv(t, pj[i])
			b.jacDeriv[i] = spatial.AdInv(t, pdj[i]).Sub(spatial.Cross(relV, col))
		}
	}
	ds := b.parentJoint.LocalJacobianTimeDeriv()
	for i := 0; i < n; i++ {
		b.jacDeriv[parentCols+i] = ds[i]
	}
	b.jacDerivDirty = false
}

// WorldJacobian returns the Jacobian of the point at the given body frame
// offset, expressed in world-aligned axes.
func (b *BodyNode) WorldJacobian(offset mgl64.Vec3) []spatial.Motion {
	bj := b.BodyJacobian()
	out := make([]spatial.Motion, len(bj))
	for i, col := range bj {
		out[i] = spatial.Motion{
			Angular: b.w.ApplyVector(col.Angular),
			Linear:  b.w.ApplyVector(col.Linear.Add(col.Angular.Cross(offset))),
		}
	}
	return out
}

// WorldJacobianTimeDeriv returns the time derivative of WorldJacobian.
func (b *BodyNode) WorldJacobianTimeDeriv(offset mgl64.Vec3) []spatial.Motion {
	bj := b.BodyJacobian()
	dbj := b.BodyJacobianTimeDeriv()
	dr := b.w.R.Mul3(spatial.Skew(b.v.Angular))
	out := make([]spatial.Motion, len(bj))
	for i := range bj {
		ang := bj[i].Angular
		lin := bj[i].Linear.Add(ang.Cross(offset))
		dang := dbj[i].Angular
		dlin := dbj[i].Linear.Add(dang.Cross(offset))
		out[i] = spatial.Motion{
			Angular: dr.Mul3x1(ang).Add(b.w.R.Mul3x1(dang)),
			Linear:  dr.Mul3x1(lin).Add(b.w.R.Mul3x1(dlin)),
		}
	}
	return out
}
