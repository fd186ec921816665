package dynamics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// PointMass is a particle carried by a soft body. Its three generalized
// coordinates are the displacement from the rest position, expressed in
// the body frame. A particle has no rotational inertia, so its articulated
// contribution to the carrying body reduces to closed form.
type PointMass struct {
	name string
	soft *SoftBodyNode

	mass    float64
	restPos mgl64.Vec3

	coords    [3]*GenCoord
	neighbors []*PointMass

	t    spatial.Transform
	v    spatial.Motion
	eta  spatial.Motion
	a    spatial.Motion
	delV spatial.Motion

	cgDV spatial.Motion
	mDV  spatial.Motion

	totalForce   mgl64.Vec3
	totalImpulse mgl64.Vec3
	denom        float64
}

func NewPointMass(name string, mass float64, restPos mgl64.Vec3) *PointMass {
	p := &PointMass{
		name:    name,
		mass:    mass,
		restPos: restPos,
		t:       spatial.Translation(restPos),
		denom:   mass,
	}
	for i := range p.coords {
		p.coords[i] = newGenCoord(fmt.Sprintf("%s_%d", name, i))
	}
	return p
}

func (p *PointMass) Name() string            { return p.name }
func (p *PointMass) Mass() float64           { return p.mass }
func (p *PointMass) SetMass(m float64)       { p.mass = m }
func (p *PointMass) RestPosition() mgl64.Vec3 { return p.restPos }
func (p *PointMass) SetRestPosition(x mgl64.Vec3) { p.restPos = x }

func (p *PointMass) GenCoord(i int) *GenCoord { return p.coords[i] }

// FirstGenCoordIndex returns the skeleton index of the particle's first
// coordinate, valid after the skeleton has been initialized.
func (p *PointMass) FirstGenCoordIndex() int { return p.coords[0].IndexInSkeleton() }

func (p *PointMass) AddConnectedPointMass(o *PointMass) { p.neighbors = append(p.neighbors, o) }
func (p *PointMass) NumConnectedPointMasses() int       { return len(p.neighbors) }
func (p *PointMass) ConnectedPointMass(i int) *PointMass { return p.neighbors[i] }

func (p *PointMass) displacement() mgl64.Vec3 {
	return mgl64.Vec3{p.coords[0].pos, p.coords[1].pos, p.coords[2].pos}
}

func (p *PointMass) dispVelocity() mgl64.Vec3 {
	return mgl64.Vec3{p.coords[0].vel, p.coords[1].vel, p.coords[2].vel}
}

// LocalPosition returns the particle position in the body frame.
func (p *PointMass) LocalPosition() mgl64.Vec3 {
	return p.restPos.Add(p.displacement())
}

// WorldPosition returns the particle position in world coordinates.
func (p *PointMass) WorldPosition() mgl64.Vec3 {
	return p.soft.WorldTransform().ApplyPoint(p.LocalPosition())
}

// WorldVelocity returns the particle velocity in world coordinates.
func (p *PointMass) WorldVelocity() mgl64.Vec3 {
	return p.soft.WorldTransform().ApplyVector(p.v.Linear)
}

func (p *PointMass) SetConstraintImpulse(imp mgl64.Vec3) {
	for i := range p.coords {
		p.coords[i].SetConstraintImpulse(imp[i])
	}
}

func (p *PointMass) ConstraintImpulse() mgl64.Vec3 {
	return mgl64.Vec3{p.coords[0].impulse, p.coords[1].impulse, p.coords[2].impulse}
}

func (p *PointMass) integratePositions(dt float64) {
	for _, gc := range p.coords {
		gc.pos += gc.vel * dt
	}
}

func (p *PointMass) integrateVelocities(dt float64) {
	for _, gc := range p.coords {
		gc.vel += gc.acc * dt
	}
}

func (p *PointMass) clearConstraintImpulse() {
	p.delV = spatial.Motion{}
	for _, gc := range p.coords {
		gc.SetVelChange(0)
		gc.SetConstraintImpulse(0)
	}
}

// momentum returns the particle's spatial momentum in its own frame.
func (p *PointMass) momentum() spatial.Force {
	return spatial.Force{Force: p.v.Linear.Mul(p.mass)}
}

func (p *PointMass) gravityForce(g mgl64.Vec3) spatial.Force {
	if !p.soft.gravityMode {
		return spatial.Force{}
	}
	local := p.soft.w.R.Transpose().Mul3x1(g)
	return spatial.Force{Force: local.Mul(p.mass)}
}

// springForce returns the implicit elastic force on the particle: the
// vertex spring pulls the displacement back, edge springs pull toward the
// displacements of connected particles.
func (p *PointMass) springForce(dt float64) mgl64.Vec3 {
	kv := p.soft.vertexStiffness
	ke := p.soft.edgeStiffness
	n := float64(len(p.neighbors))
	f := p.displacement().Add(p.dispVelocity().Mul(dt)).Mul(-(kv + n*ke))
	for _, nb := range p.neighbors {
		f = f.Add(nb.displacement().Add(nb.dispVelocity().Mul(dt)).Mul(ke))
	}
	return f
}

func (p *PointMass) dampingForce() mgl64.Vec3 {
	return p.dispVelocity().Mul(-p.soft.dampingCoeff)
}

// Kinematics

func (p *PointMass) updateTransform() {
	p.t = spatial.Translation(p.LocalPosition())
}

func (p *PointMass) updateVelocity() {
	p.v = spatial.AdInv(p.t, p.soft.v).Add(spatial.Motion{Linear: p.dispVelocity()})
}

func (p *PointMass) updatePartialAcceleration() {
	p.eta = spatial.Cross(p.v, spatial.Motion{Linear: p.dispVelocity()})
}

func (p *PointMass) updateAccelerationID() {
	acc := mgl64.Vec3{p.coords[0].acc, p.coords[1].acc, p.coords[2].acc}
	p.a = spatial.AdInv(p.t, p.soft.a).Add(p.eta).Add(spatial.Motion{Linear: acc})
}

// Inverse dynamics

func (p *PointMass) addTransmittedForceIDTo(parent *spatial.Force, g mgl64.Vec3, dt float64, withDamping, withSpring bool) {
	f := spatial.Force{Force: p.a.Linear.Mul(p.mass)}.
		Add(spatial.CrossForce(p.v, p.momentum())).
		Sub(p.gravityForce(g))
	spring := p.springForce(dt)
	for i, gc := range p.coords {
		out := f.Force[i]
		if withDamping {
			out += p.soft.dampingCoeff * gc.vel
		}
		if withSpring {
			out -= spring[i]
		}
		gc.force = out
	}
	*parent = parent.Add(spatial.DualAdInv(p.t, f))
}

// Forward dynamics

// addArtInertiaImplicitTo adds the particle's articulated inertia, with
// its own three freedoms eliminated, to the carrying body. Without the
// implicit spring and damping terms the elimination is total, so only the
// implicit operator receives a contribution.
func (p *PointMass) addArtInertiaImplicitTo(ai *spatial.Mat6, dt float64) {
	kv := p.soft.vertexStiffness
	ke := p.soft.edgeStiffness
	d := p.soft.dampingCoeff
	n := float64(len(p.neighbors))
	p.denom = p.mass + dt*d + dt*dt*(kv+n*ke)
	pi := p.mass - p.mass*p.mass/p.denom
	m6 := spatial.Inertia{Mass: pi, COM: p.LocalPosition()}.Mat6()
	ai.AddInPlace(&m6)
}

func (p *PointMass) addBiasForceTo(parent *spatial.Force, g mgl64.Vec3, dt float64) {
	bias := spatial.CrossForce(p.v, p.momentum()).Sub(p.gravityForce(g))
	spring := p.springForce(dt)
	damp := p.dampingForce()
	body := spatial.Force{Force: p.eta.Linear.Mul(p.mass)}.Add(bias)
	for i, gc := range p.coords {
		p.totalForce[i] = gc.force + spring[i] + damp[i] - body.Force[i]
	}
	beta := bias.Add(spatial.Force{
		Force: p.eta.Linear.Add(p.totalForce.Mul(1 / p.denom)).Mul(p.mass),
	})
	*parent = parent.Add(spatial.DualAdInv(p.t, beta))
}

func (p *PointMass) updateAccelerationFD() {
	carry := spatial.AdInv(p.t, p.soft.a)
	var acc mgl64.Vec3
	for i, gc := range p.coords {
		acc[i] = (p.totalForce[i] - p.mass*carry.Linear[i]) / p.denom
		gc.acc = acc[i]
	}
	p.a = carry.Add(p.eta).Add(spatial.Motion{Linear: acc})
}

// Impulse dynamics

func (p *PointMass) addBiasImpulseTo(parent *spatial.Force) {
	for i, gc := range p.coords {
		p.totalImpulse[i] = gc.impulse
	}
	*parent = parent.Add(spatial.DualAdInv(p.t, spatial.Force{Force: p.totalImpulse}))
}

func (p *PointMass) updateVelocityChangeFD() {
	carry := spatial.AdInv(p.t, p.soft.delV)
	var dv mgl64.Vec3
	for i, gc := range p.coords {
		dv[i] = (p.totalImpulse[i] - p.mass*carry.Linear[i]) / p.mass
		gc.velChange = dv[i]
	}
	p.delV = carry.Add(spatial.Motion{Linear: dv})
}

func (p *PointMass) updateConstrainedTerms(dt float64) {
	for _, gc := range p.coords {
		gc.vel += gc.velChange
		gc.acc += gc.velChange / dt
		gc.force += gc.impulse / dt
	}
	p.v = p.v.Add(p.delV)
	p.a = p.a.Add(p.delV.Scale(1 / dt))
}

// Mass matrix

func (p *PointMass) updateMassMatrix() {
	acc := mgl64.Vec3{p.coords[0].acc, p.coords[1].acc, p.coords[2].acc}
	p.mDV = spatial.AdInv(p.t, p.soft.mDV).Add(spatial.Motion{Linear: acc})
}

func (p *PointMass) aggregateMassMatrixTo(parent *spatial.Force, m *mat.Dense, col int) {
	f := spatial.Force{Force: p.mDV.Linear.Mul(p.mass)}
	*parent = parent.Add(spatial.DualAdInv(p.t, f))
	for i, gc := range p.coords {
		m.Set(gc.IndexInSkeleton(), col, f.Force[i])
	}
}

func (p *PointMass) aggregateAugMassMatrixTo(parent *spatial.Force, m *mat.Dense, col int, dt float64) {
	kv := p.soft.vertexStiffness
	ke := p.soft.edgeStiffness
	d := p.soft.dampingCoeff
	n := float64(len(p.neighbors))
	f := spatial.Force{Force: p.mDV.Linear.Mul(p.mass)}
	*parent = parent.Add(spatial.DualAdInv(p.t, f))
	for i, gc := range p.coords {
		m.Set(gc.IndexInSkeleton(), col, f.Force[i]+(dt*d+dt*dt*(kv+n*ke))*gc.acc)
	}
}

// Inverse mass matrix

func (p *PointMass) addInvMassBiasTo(parent *spatial.Force, implicit bool) {
	scale := 1.0
	if implicit {
		scale = p.mass / p.denom
	}
	f := mgl64.Vec3{p.coords[0].force, p.coords[1].force, p.coords[2].force}
	*parent = parent.Add(spatial.DualAdInv(p.t, spatial.Force{Force: f.Mul(scale)}))
}

func (p *PointMass) aggregateInvMassMatrixTo(m *mat.Dense, col int, implicit bool) {
	denom := p.mass
	if implicit {
		denom = p.denom
	}
	carry := spatial.AdInv(p.t, p.soft.invMU)
	for i, gc := range p.coords {
		m.Set(gc.IndexInSkeleton(), col, (gc.force-p.mass*carry.Linear[i])/denom)
	}
}

// Coriolis and gravity vectors

func (p *PointMass) updateCombinedVector() {
	p.cgDV = spatial.AdInv(p.t, p.soft.cgDV).Add(p.eta)
}

func (p *PointMass) aggregateCombinedVectorTo(parent *spatial.Force, cg []float64, g mgl64.Vec3, withGravity bool) {
	f := spatial.Force{Force: p.cgDV.Linear.Mul(p.mass)}.
		Add(spatial.CrossForce(p.v, p.momentum()))
	if withGravity {
		f = f.Sub(p.gravityForce(g))
	}
	*parent = parent.Add(spatial.DualAdInv(p.t, f))
	for i, gc := range p.coords {
		cg[gc.IndexInSkeleton()] = f.Force[i]
	}
}

func (p *PointMass) aggregateGravityVectorTo(parent *spatial.Force, gvec []float64, g mgl64.Vec3) {
	f := p.gravityForce(g)
	*parent = parent.Add(spatial.DualAdInv(p.t, f))
	for i, gc := range p.coords {
		gvec[gc.IndexInSkeleton()] = -f.Force[i]
	}
}

// externalSpringForce is the elastic contribution the particle scatters
// into the external force vector.
func (p *PointMass) externalSpringForce(dt float64) mgl64.Vec3 {
	return p.springForce(dt)
}

// Energies

func (p *PointMass) kineticEnergy() float64 {
	return 0.5 * p.mass * p.v.Linear.Dot(p.v.Linear)
}

func (p *PointMass) potentialEnergy(g mgl64.Vec3) float64 {
	return -p.mass * p.WorldPosition().Dot(g)
}

// SoftBodyNode is a body carrying a cloud of spring-connected point
// masses. It participates in every recursion as a rigid shell plus the
// eliminated particle freedoms.
type SoftBodyNode struct {
	BodyNode

	vertexStiffness float64
	edgeStiffness   float64
	dampingCoeff    float64

	pointMasses []*PointMass
}

func NewSoftBodyNode(name string, parentJoint Joint) *SoftBodyNode {
	return &SoftBodyNode{BodyNode: *NewBodyNode(name, parentJoint)}
}

func (s *SoftBodyNode) VertexSpringStiffness() float64      { return s.vertexStiffness }
func (s *SoftBodyNode) SetVertexSpringStiffness(k float64)  { s.vertexStiffness = k }
func (s *SoftBodyNode) EdgeSpringStiffness() float64        { return s.edgeStiffness }
func (s *SoftBodyNode) SetEdgeSpringStiffness(k float64)    { s.edgeStiffness = k }
func (s *SoftBodyNode) DampingCoefficient() float64         { return s.dampingCoeff }
func (s *SoftBodyNode) SetDampingCoefficient(d float64)     { s.dampingCoeff = d }

func (s *SoftBodyNode) AddPointMass(p *PointMass) {
	p.soft = s
	s.pointMasses = append(s.pointMasses, p)
}

func (s *SoftBodyNode) NumPointMasses() int        { return len(s.pointMasses) }
func (s *SoftBodyNode) PointMass(i int) *PointMass { return s.pointMasses[i] }

func (s *SoftBodyNode) updateTransform() {
	s.BodyNode.updateTransform()
	for _, p := range s.pointMasses {
		p.updateTransform()
	}
}

func (s *SoftBodyNode) updateVelocity() {
	s.BodyNode.updateVelocity()
	for _, p := range s.pointMasses {
		p.updateVelocity()
	}
}

func (s *SoftBodyNode) updatePartialAcceleration() {
	s.BodyNode.updatePartialAcceleration()
	for _, p := range s.pointMasses {
		p.updatePartialAcceleration()
	}
}

func (s *SoftBodyNode) updateAccelerationID() {
	s.BodyNode.updateAccelerationID()
	for _, p := range s.pointMasses {
		p.updateAccelerationID()
	}
}

func (s *SoftBodyNode) updateTransmittedForceID(g mgl64.Vec3, withExternal bool) {
	s.updateGravityForce(g)
	iv := s.inertia.Apply(s.v)
	s.f = s.inertia.Apply(s.a).Add(spatial.CrossForce(s.v, iv)).Sub(s.fgravity)
	if withExternal {
		s.f = s.f.Sub(s.fext)
	}
	for _, p := range s.pointMasses {
		p.addTransmittedForceIDTo(&s.f, g, s.skel.timeStep, false, false)
	}
	for _, c := range s.children {
		s.f = s.f.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.f))
	}
}

func (s *SoftBodyNode) updateArtInertia(dt float64) {
	s.artInertia = s.inertia.Mat6()
	s.artInertiaImpl = s.artInertia
	for _, p := range s.pointMasses {
		p.addArtInertiaImplicitTo(&s.artInertiaImpl, dt)
	}
	for _, c := range s.children {
		c.parentJoint.addChildArtInertiaTo(&s.artInertia, c.artInertia)
		c.parentJoint.addChildArtInertiaImplicitTo(&s.artInertiaImpl, c.artInertiaImpl)
	}
	s.parentJoint.updateInvProjArtInertia(s.artInertia)
	s.parentJoint.updateInvProjArtInertiaImplicit(s.artInertiaImpl, dt)
}

func (s *SoftBodyNode) updateBiasForce(g mgl64.Vec3, dt float64) {
	s.updateGravityForce(g)
	iv := s.inertia.Apply(s.v)
	s.biasForce = spatial.CrossForce(s.v, iv).Sub(s.fext).Sub(s.fgravity)
	for _, p := range s.pointMasses {
		p.addBiasForceTo(&s.biasForce, g, dt)
	}
	for _, c := range s.children {
		c.parentJoint.addChildBiasForceTo(&s.biasForce, c.artInertiaImpl, c.biasForce, c.eta)
	}
	s.parentJoint.updateTotalForce(s.artInertiaImpl.Apply(s.eta).Add(s.biasForce), dt)
}

func (s *SoftBodyNode) updateAccelerationFD() {
	s.BodyNode.updateAccelerationFD()
	for _, p := range s.pointMasses {
		p.updateAccelerationFD()
	}
}

func (s *SoftBodyNode) updateBiasImpulse() {
	s.biasImpulse = spatial.Force{}.Sub(s.constraintImp)
	for _, p := range s.pointMasses {
		p.addBiasImpulseTo(&s.biasImpulse)
	}
	for _, c := range s.children {
		c.parentJoint.addChildBiasImpulseTo(&s.biasImpulse, c.artInertia, c.biasImpulse)
	}
	s.parentJoint.updateTotalImpulse(s.biasImpulse)
}

func (s *SoftBodyNode) updateVelocityChangeFD() {
	s.BodyNode.updateVelocityChangeFD()
	for _, p := range s.pointMasses {
		p.updateVelocityChangeFD()
	}
}

func (s *SoftBodyNode) updateConstrainedTerms(dt float64) {
	s.BodyNode.updateConstrainedTerms(dt)
	for _, p := range s.pointMasses {
		p.updateConstrainedTerms(dt)
	}
}

func (s *SoftBodyNode) clearConstraintImpulse() {
	s.BodyNode.clearConstraintImpulse()
	for _, p := range s.pointMasses {
		p.clearConstraintImpulse()
	}
}

func (s *SoftBodyNode) updateMassMatrix() {
	s.BodyNode.updateMassMatrix()
	for _, p := range s.pointMasses {
		p.updateMassMatrix()
	}
}

func (s *SoftBodyNode) aggregateMassMatrix(m *mat.Dense, col int) {
	s.mF = s.inertia.Mat6().Apply(s.mDV)
	for _, p := range s.pointMasses {
		p.aggregateMassMatrixTo(&s.mF, m, col)
	}
	for _, c := range s.children {
		s.mF = s.mF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.mF))
	}
	sj := s.parentJoint.LocalJacobian()
	for i := 0; i < s.parentJoint.NumDofs(); i++ {
		gc := s.parentJoint.GenCoord(i)
		m.Set(gc.IndexInSkeleton(), col, s.mF.Dot(sj[i]))
	}
}

func (s *SoftBodyNode) aggregateAugMassMatrix(m *mat.Dense, col int, dt float64) {
	s.mF = s.inertia.Mat6().Apply(s.mDV)
	for _, p := range s.pointMasses {
		p.aggregateAugMassMatrixTo(&s.mF, m, col, dt)
	}
	for _, c := range s.children {
		s.mF = s.mF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.mF))
	}
	sj := s.parentJoint.LocalJacobian()
	for i := 0; i < s.parentJoint.NumDofs(); i++ {
		gc := s.parentJoint.GenCoord(i)
		d := s.parentJoint.DampingCoefficient(i)
		k := s.parentJoint.SpringStiffness(i)
		m.Set(gc.IndexInSkeleton(), col, s.mF.Dot(sj[i])+(dt*d+dt*dt*k)*gc.Acc())
	}
}

func (s *SoftBodyNode) updateInvMassMatrix() {
	s.invMBias = spatial.Force{}
	for _, p := range s.pointMasses {
		p.addInvMassBiasTo(&s.invMBias, false)
	}
	for _, c := range s.children {
		c.parentJoint.addChildBiasForceForInvMassMatrix(&s.invMBias, c.artInertia, c.invMBias)
	}
	s.parentJoint.updateTotalForceForInvMassMatrix(s.invMBias)
}

func (s *SoftBodyNode) updateInvAugMassMatrix() {
	s.invMBias = spatial.Force{}
	for _, p := range s.pointMasses {
		p.addInvMassBiasTo(&s.invMBias, true)
	}
	for _, c := range s.children {
		c.parentJoint.addChildBiasForceForInvAugMassMatrix(&s.invMBias, c.artInertiaImpl, c.invMBias)
	}
	s.parentJoint.updateTotalForceForInvMassMatrix(s.invMBias)
}

func (s *SoftBodyNode) aggregateInvMassMatrix(m *mat.Dense, col int) {
	s.BodyNode.aggregateInvMassMatrix(m, col)
	for _, p := range s.pointMasses {
		p.aggregateInvMassMatrixTo(m, col, false)
	}
}

func (s *SoftBodyNode) aggregateInvAugMassMatrix(m *mat.Dense, col int) {
	s.BodyNode.aggregateInvAugMassMatrix(m, col)
	for _, p := range s.pointMasses {
		p.aggregateInvMassMatrixTo(m, col, true)
	}
}

func (s *SoftBodyNode) updateCombinedVector() {
	s.BodyNode.updateCombinedVector()
	for _, p := range s.pointMasses {
		p.updateCombinedVector()
	}
}

func (s *SoftBodyNode) aggregateCombinedVector(cg []float64, g mgl64.Vec3) {
	s.updateGravityForce(g)
	iv := s.inertia.Apply(s.v)
	s.cgF = s.inertia.Mat6().Apply(s.cgDV).
		Add(spatial.CrossForce(s.v, iv)).
		Sub(s.fgravity)
	for _, p := range s.pointMasses {
		p.aggregateCombinedVectorTo(&s.cgF, cg, g, true)
	}
	for _, c := range s.children {
		s.cgF = s.cgF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.cgF))
	}
	sj := s.parentJoint.LocalJacobian()
	for i := 0; i < s.parentJoint.NumDofs(); i++ {
		cg[s.parentJoint.GenCoord(i).IndexInSkeleton()] = s.cgF.Dot(sj[i])
	}
}

func (s *SoftBodyNode) aggregateCoriolisForceVector(cvec []float64) {
	iv := s.inertia.Apply(s.v)
	s.cgF = s.inertia.Mat6().Apply(s.cgDV).Add(spatial.CrossForce(s.v, iv))
	for _, p := range s.pointMasses {
		p.aggregateCombinedVectorTo(&s.cgF, cvec, mgl64.Vec3{}, false)
	}
	for _, c := range s.children {
		s.cgF = s.cgF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.cgF))
	}
	sj := s.parentJoint.LocalJacobian()
	for i := 0; i < s.parentJoint.NumDofs(); i++ {
		cvec[s.parentJoint.GenCoord(i).IndexInSkeleton()] = s.cgF.Dot(sj[i])
	}
}

func (s *SoftBodyNode) aggregateGravityForceVector(gvec []float64, g mgl64.Vec3) {
	if s.gravityMode {
		s.gF = s.inertia.Apply(spatial.GravityAccel(s.w, g))
	} else {
		s.gF = spatial.Force{}
	}
	for _, p := range s.pointMasses {
		p.aggregateGravityVectorTo(&s.gF, gvec, g)
	}
	for _, c := range s.children {
		s.gF = s.gF.Add(spatial.DualAdInv(c.parentJoint.LocalTransform(), c.gF))
	}
	sj := s.parentJoint.LocalJacobian()
	for i := 0; i < s.parentJoint.NumDofs(); i++ {
		gvec[s.parentJoint.GenCoord(i).IndexInSkeleton()] = -s.gF.Dot(sj[i])
	}
}

func (s *SoftBodyNode) aggregateExternalForces(fext []float64) {
	s.BodyNode.aggregateExternalForces(fext)
	dt := s.skel.timeStep
	for _, p := range s.pointMasses {
		f := p.externalSpringForce(dt)
		base := p.FirstGenCoordIndex()
		for i := 0; i < 3; i++ {
			fext[base+i] = f[i]
		}
	}
}

func (s *SoftBodyNode) KineticEnergy() float64 {
	e := s.BodyNode.KineticEnergy()
	for _, p := range s.pointMasses {
		e += p.kineticEnergy()
	}
	return e
}

func (s *SoftBodyNode) PotentialEnergy(g mgl64.Vec3) float64 {
	e := s.BodyNode.PotentialEnergy(g)
	for _, p := range s.pointMasses {
		e += p.potentialEnergy(g)
	}
	return e
}
