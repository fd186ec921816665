package dynamics

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mbdyn/internal/spatial"
)

// node is the per-body recursion surface the skeleton drives. Rigid bodies
// satisfy it directly; soft bodies shadow the passes that need point-mass
// contributions.
type node interface {
	base() *BodyNode

	updateTransform()
	updateVelocity()
	updatePartialAcceleration()
	updateAccelerationID()

	updateTransmittedForceID(g mgl64.Vec3, withExternal bool)
	updateJointForceID(dt float64, withDamping, withSpring bool)

	updateArtInertia(dt float64)
	updateBiasForce(g mgl64.Vec3, dt float64)
	updateAccelerationFD()
	updateTransmittedForceFD()

	updateBiasImpulse()
	updateVelocityChangeFD()
	updateTransmittedImpulse()
	updateConstrainedTerms(dt float64)

	updateMassMatrix()
	aggregateMassMatrix(m *mat.Dense, col int)
	aggregateAugMassMatrix(m *mat.Dense, col int, dt float64)
	updateInvMassMatrix()
	updateInvAugMassMatrix()
	aggregateInvMassMatrix(m *mat.Dense, col int)
	aggregateInvAugMassMatrix(m *mat.Dense, col int)

	updateCombinedVector()
	aggregateCombinedVector(cg []float64, g mgl64.Vec3)
	aggregateCoriolisForceVector(cvec []float64)
	aggregateGravityForceVector(gvec []float64, g mgl64.Vec3)
	aggregateExternalForces(fext []float64)

	clearExternalForces()
	clearConstraintImpulse()

	KineticEnergy() float64
	PotentialEnergy(g mgl64.Vec3) float64
}

// Skeleton is an articulated tree of bodies. It owns the generalized
// coordinate vector, runs the recursive dynamics passes over the bodies in
// breadth-first order, and caches the system matrices behind dirty flags.
type Skeleton struct {
	name string

	timeStep float64
	gravity  mgl64.Vec3
	mobile   bool

	selfCollisionCheck bool
	adjacentBodyCheck  bool

	totalMass float64

	bodies        []*BodyNode
	soft          []*SoftBodyNode
	gcs           genCoordSystem
	jointDofCount int

	m       *mat.Dense
	augM    *mat.Dense
	invM    *mat.Dense
	invAugM *mat.Dense
	cvec    []float64
	gvec    []float64
	cg      []float64
	fextVec []float64
	fc      []float64
	fd      []float64

	dirtyArtInertia bool
	dirtyM          bool
	dirtyAugM       bool
	dirtyInvM       bool
	dirtyInvAugM    bool
	dirtyC          bool
	dirtyG          bool
	dirtyCg         bool
	dirtyFext       bool

	impulseApplied bool

	unionRoot *Skeleton
	unionSize int
}

// NewSkeleton creates an empty skeleton. Bodies are added with AddBodyNode
// and the tree is finalized by Init.
func NewSkeleton(name string) *Skeleton {
	s := &Skeleton{
		name:     name,
		timeStep: 0.001,
		gravity:  mgl64.Vec3{0, 0, -9.81},
		mobile:   true,
	}
	s.unionRoot = s
	s.unionSize = 1
	return s
}

func (s *Skeleton) Name() string        { return s.name }
func (s *Skeleton) SetName(name string) { s.name = name }

func (s *Skeleton) TimeStep() float64 { return s.timeStep }

// SetTimeStep invalidates every cache that folds the step size into its
// value (implicit spring and damping terms).
func (s *Skeleton) SetTimeStep(dt float64) {
	if dt <= 0 {
		panic("dynamics: time step must be positive")
	}
	s.timeStep = dt
	s.dirtyArtInertia = true
	s.dirtyAugM = true
	s.dirtyInvAugM = true
	s.dirtyFext = true
}

func (s *Skeleton) Gravity() mgl64.Vec3 { return s.gravity }

func (s *Skeleton) SetGravity(g mgl64.Vec3) {
	s.gravity = g
	s.dirtyG = true
	s.dirtyCg = true
}

func (s *Skeleton) Mass() float64 { return s.totalMass }

func (s *Skeleton) IsMobile() bool       { return s.mobile }
func (s *Skeleton) SetMobile(on bool)    { s.mobile = on }

func (s *Skeleton) EnableSelfCollisionCheck(includeAdjacent bool) {
	s.selfCollisionCheck = true
	s.adjacentBodyCheck = includeAdjacent
}

func (s *Skeleton) DisableSelfCollisionCheck() {
	s.selfCollisionCheck = false
	s.adjacentBodyCheck = false
}

func (s *Skeleton) IsEnabledSelfCollisionCheck() bool { return s.selfCollisionCheck }
func (s *Skeleton) IsEnabledAdjacentBodyCheck() bool  { return s.adjacentBodyCheck }

// Construction

// AddBodyNode registers a rigid body. Registration order is free; Init
// reorders bodies breadth first from the root.
func (s *Skeleton) AddBodyNode(b *BodyNode) {
	if b == nil {
		panic("dynamics: nil body node")
	}
	if b.impl == nil {
		b.impl = b
	}
	s.bodies = append(s.bodies, b)
}

// AddSoftBodyNode registers a deformable body. The body participates in the
// rigid recursions through its shell and contributes its point masses on
// top.
func (s *Skeleton) AddSoftBodyNode(sb *SoftBodyNode) {
	if sb == nil {
		panic("dynamics: nil soft body node")
	}
	sb.BodyNode.impl = sb
	s.bodies = append(s.bodies, &sb.BodyNode)
	s.soft = append(s.soft, sb)
}

// Init finalizes the tree: bodies are reordered breadth first from the
// root, generalized coordinates are indexed (joint coordinates in body
// order, point-mass coordinates after), buffers are allocated and one
// kinematics pass primes the caches.
func (s *Skeleton) Init(dt float64, g mgl64.Vec3) error {
	if dt <= 0 {
		return fmt.Errorf("dynamics: time step must be positive, got %g", dt)
	}
	if len(s.bodies) == 0 {
		return fmt.Errorf("dynamics: skeleton %q has no bodies", s.name)
	}
	s.timeStep = dt
	s.gravity = g

	root := s.bodies[0]
	for root.parent != nil {
		root = root.parent
	}
	ordered := make([]*BodyNode, 0, len(s.bodies))
	queue := []*BodyNode{root}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		ordered = append(ordered, b)
		queue = append(queue, b.children...)
	}
	if len(ordered) != len(s.bodies) {
		return fmt.Errorf("dynamics: skeleton %q bodies do not form a single tree", s.name)
	}
	s.bodies = ordered

	s.gcs.genCoords = s.gcs.genCoords[:0]
	for _, b := range s.bodies {
		j := b.parentJoint
		for i := 0; i < j.NumDofs(); i++ {
			gc := j.GenCoord(i)
			gc.skeletonIndex = len(s.gcs.genCoords)
			s.gcs.genCoords = append(s.gcs.genCoords, gc)
		}
	}
	s.jointDofCount = len(s.gcs.genCoords)

	s.soft = s.soft[:0]
	for _, b := range s.bodies {
		sb, ok := b.impl.(*SoftBodyNode)
		if !ok {
			continue
		}
		s.soft = append(s.soft, sb)
		for _, p := range sb.pointMasses {
			for i := 0; i < 3; i++ {
				gc := p.coords[i]
				gc.skeletonIndex = len(s.gcs.genCoords)
				s.gcs.genCoords = append(s.gcs.genCoords, gc)
			}
		}
	}

	for i, b := range s.bodies {
		b.init(s, i)
	}

	for _, b := range s.bodies {
		b.impl.updateTransform()
		b.impl.updateVelocity()
		b.impl.updatePartialAcceleration()
	}

	n := s.gcs.dof()
	if n > 0 {
		s.m = mat.NewDense(n, n, nil)
		s.augM = mat.NewDense(n, n, nil)
		s.invM = mat.NewDense(n, n, nil)
		s.invAugM = mat.NewDense(n, n, nil)
	} else {
		s.m, s.augM, s.invM, s.invAugM = nil, nil, nil, nil
	}
	s.cvec = make([]float64, n)
	s.gvec = make([]float64, n)
	s.cg = make([]float64, n)
	s.fextVec = make([]float64, n)
	s.fc = make([]float64, n)
	s.fd = make([]float64, n)

	s.ClearExternalForces()
	s.ClearInternalForces()

	s.totalMass = 0
	for _, b := range s.bodies {
		s.totalMass += b.Mass()
	}

	s.dirtyAll()
	return nil
}

func (s *Skeleton) dirtyAll() {
	s.dirtyArtInertia = true
	s.dirtyM = true
	s.dirtyAugM = true
	s.dirtyInvM = true
	s.dirtyInvAugM = true
	s.dirtyC = true
	s.dirtyG = true
	s.dirtyCg = true
	s.dirtyFext = true
	for _, b := range s.bodies {
		b.jacDirty = true
		b.jacDerivDirty = true
	}
}

// Enumeration and lookup

func (s *Skeleton) NumBodyNodes() int         { return len(s.bodies) }
func (s *Skeleton) BodyNode(i int) *BodyNode  { return s.bodies[i] }
func (s *Skeleton) NumSoftBodyNodes() int     { return len(s.soft) }
func (s *Skeleton) SoftBodyNode(i int) *SoftBodyNode { return s.soft[i] }
func (s *Skeleton) NumRigidBodyNodes() int    { return len(s.bodies) - len(s.soft) }

// RootBodyNode returns the body at the base of the tree, nil before Init.
func (s *Skeleton) RootBodyNode() *BodyNode {
	if len(s.bodies) == 0 {
		return nil
	}
	return s.bodies[0]
}

func (s *Skeleton) NumJoints() int     { return len(s.bodies) }
func (s *Skeleton) Joint(i int) Joint  { return s.bodies[i].parentJoint }

func (s *Skeleton) NumGenCoords() int          { return s.gcs.dof() }
func (s *Skeleton) GenCoord(i int) *GenCoord   { return s.gcs.genCoord(i) }

func (s *Skeleton) BodyNodeByName(name string) *BodyNode {
	for _, b := range s.bodies {
		if b.name == name {
			return b
		}
	}
	return nil
}

func (s *Skeleton) SoftBodyNodeByName(name string) *SoftBodyNode {
	for _, sb := range s.soft {
		if sb.name == name {
			return sb
		}
	}
	return nil
}

func (s *Skeleton) JointByName(name string) Joint {
	for _, b := range s.bodies {
		if b.parentJoint.Name() == name {
			return b.parentJoint
		}
	}
	return nil
}

func (s *Skeleton) MarkerByName(name string) *Marker {
	for _, b := range s.bodies {
		for _, m := range b.markers {
			if m.name == name {
				return m
			}
		}
	}
	return nil
}

// State access

func (s *Skeleton) Positions() []float64     { return s.gcs.positions() }
func (s *Skeleton) Velocities() []float64    { return s.gcs.velocities() }
func (s *Skeleton) Accelerations() []float64 { return s.gcs.accelerations() }

func (s *Skeleton) SetPositions(q []float64) {
	s.gcs.setPositions(q)
	s.ComputeForwardKinematics(true, true, true)
}

func (s *Skeleton) SetVelocities(dq []float64) {
	s.gcs.setVelocities(dq)
	s.ComputeForwardKinematics(false, true, true)
}

func (s *Skeleton) SetAccelerations(ddq []float64) {
	s.gcs.setAccelerations(ddq)
	s.ComputeForwardKinematics(false, false, true)
}

// State returns positions followed by velocities.
func (s *Skeleton) State() []float64 {
	q := s.gcs.positions()
	dq := s.gcs.velocities()
	return append(q, dq...)
}

func (s *Skeleton) SetState(x []float64) {
	if len(x)%2 != 0 {
		panic("dynamics: state vector length must be even")
	}
	n := len(x) / 2
	s.gcs.setPositions(x[:n])
	s.gcs.setVelocities(x[n:])
	s.ComputeForwardKinematics(true, true, false)
}

// ConfigSegments reads the positions of an arbitrary subset of coordinates.
func (s *Skeleton) ConfigSegments(ids []int) []float64 {
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = s.gcs.genCoord(id).Pos()
	}
	return out
}

// SetConfigSegments writes an arbitrary subset of coordinate positions and
// refreshes kinematics per the given flags.
func (s *Skeleton) SetConfigSegments(ids []int, values []float64, updT, updV, updA bool) {
	if len(ids) != len(values) {
		panic("dynamics: generalized vector length mismatch")
	}
	for i, id := range ids {
		s.gcs.genCoord(id).SetPos(values[i])
	}
	s.ComputeForwardKinematics(updT, updV, updA)
}

// IntegrateConfigs advances positions by the current velocities. No
// kinematics refresh is performed; the caller follows up with
// ComputeForwardKinematics when needed.
func (s *Skeleton) IntegrateConfigs(dt float64) {
	for _, b := range s.bodies {
		b.parentJoint.IntegratePositions(dt)
	}
	for _, sb := range s.soft {
		for _, p := range sb.pointMasses {
			p.integratePositions(dt)
		}
	}
}

// IntegrateGenVels advances velocities by the current accelerations.
func (s *Skeleton) IntegrateGenVels(dt float64) {
	for _, b := range s.bodies {
		b.parentJoint.IntegrateVelocities(dt)
	}
	for _, sb := range s.soft {
		for _, p := range sb.pointMasses {
			p.integrateVelocities(dt)
		}
	}
}

// Forces

func (s *Skeleton) Forces() []float64 { return s.gcs.forces() }

func (s *Skeleton) SetForces(tau []float64) { s.gcs.setForces(tau) }

func (s *Skeleton) InternalForceVector() []float64 { return s.gcs.forces() }

func (s *Skeleton) SetInternalForceVector(tau []float64) { s.gcs.setForces(tau) }

func (s *Skeleton) MinInternalForces() []float64 { return s.gcs.forceLowerLimits() }
func (s *Skeleton) MaxInternalForces() []float64 { return s.gcs.forceUpperLimits() }

func (s *Skeleton) SetMinInternalForceVector(min []float64) { s.gcs.setForceLowerLimits(min) }
func (s *Skeleton) SetMaxInternalForceVector(max []float64) { s.gcs.setForceUpperLimits(max) }

// ConstraintForceVector is written by an external constraint solver.
func (s *Skeleton) ConstraintForceVector() []float64 { return s.fc }

func (s *Skeleton) SetConstraintForceVector(fc []float64) {
	if len(fc) != len(s.fc) {
		panic("dynamics: generalized vector length mismatch")
	}
	copy(s.fc, fc)
}

func (s *Skeleton) ClearExternalForces() {
	for _, b := range s.bodies {
		b.impl.clearExternalForces()
	}
	s.dirtyFext = true
}

func (s *Skeleton) ClearInternalForces() {
	for _, gc := range s.gcs.genCoords {
		gc.SetForce(0)
	}
}

func (s *Skeleton) ClearConstraintImpulses() {
	for _, b := range s.bodies {
		b.impl.clearConstraintImpulse()
	}
}

// Kinematics

// ComputeForwardKinematics refreshes the selected per-body quantities in
// breadth-first order, then raises every derived-quantity cache flag.
func (s *Skeleton) ComputeForwardKinematics(updT, updV, updA bool) {
	if updT {
		for _, b := range s.bodies {
			b.impl.updateTransform()
		}
	}
	if updV {
		for _, b := range s.bodies {
			b.impl.updateVelocity()
			b.impl.updatePartialAcceleration()
		}
	}
	if updA {
		for _, b := range s.bodies {
			b.impl.updateAccelerationID()
		}
	}
	s.dirtyAll()
}

// Dynamics drivers

// ComputeForwardDynamics runs the articulated body algorithm: a kinematics
// sweep, a backward sweep building articulated inertias and bias forces,
// and a forward sweep resolving joint and body accelerations.
func (s *Skeleton) ComputeForwardDynamics() {
	for _, b := range s.bodies {
		b.impl.updateTransform()
		b.impl.updateVelocity()
		b.impl.updatePartialAcceleration()
	}
	s.dirtyAll()

	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.updateArtInertia(s.timeStep)
		s.bodies[i].impl.updateBiasForce(s.gravity, s.timeStep)
	}
	s.dirtyArtInertia = false

	for _, b := range s.bodies {
		b.impl.updateAccelerationFD()
		b.impl.updateTransmittedForceFD()
	}
}

// ComputeInverseDynamics runs the Newton-Euler recursion and stores the
// resulting generalized forces on the coordinates.
func (s *Skeleton) ComputeInverseDynamics(withExternalForces, withDampingForces bool) {
	for _, b := range s.bodies {
		b.impl.updateTransform()
		b.impl.updateVelocity()
		b.impl.updatePartialAcceleration()
		b.impl.updateAccelerationID()
	}
	s.dirtyAll()

	if s.gcs.dof() == 0 {
		return
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.updateTransmittedForceID(s.gravity, withExternalForces)
		s.bodies[i].impl.updateJointForceID(s.timeStep, withDampingForces, false)
	}
}

// ComputeHybridDynamics is declared for API parity but the algorithm is
// not available yet.
func (s *Skeleton) ComputeHybridDynamics() {
	fmt.Fprintln(os.Stderr, "mbdyn: hybrid dynamics is not implemented")
}

// Impulse dynamics

// UpdateBiasImpulse propagates the constraint impulses currently stored on
// the bodies from the given body up to the root.
func (s *Skeleton) UpdateBiasImpulse(b *BodyNode) {
	if b == nil || b.skel != s {
		panic("dynamics: body does not belong to this skeleton")
	}
	if s.gcs.dof() == 0 {
		panic("dynamics: skeleton has no degrees of freedom")
	}
	for cur := b; cur != nil; cur = cur.parent {
		cur.impl.updateBiasImpulse()
	}
}

// UpdateBiasImpulseForBody applies a single spatial impulse to the body,
// propagates it to the root and zeroes the body impulse again.
func (s *Skeleton) UpdateBiasImpulseForBody(b *BodyNode, imp spatial.Force) {
	if b == nil || b.skel != s {
		panic("dynamics: body does not belong to this skeleton")
	}
	b.constraintImp = imp
	s.UpdateBiasImpulse(b)
	b.constraintImp = spatial.Force{}
}

// UpdateBiasImpulseForPointMass applies an impulse to a point mass of a
// soft body. The particle's stored impulses are restored afterwards, so
// chained applications observe their prior values.
func (s *Skeleton) UpdateBiasImpulseForPointMass(sb *SoftBodyNode, p *PointMass, imp mgl64.Vec3) {
	if sb == nil || sb.skel != s {
		panic("dynamics: body does not belong to this skeleton")
	}
	backup := p.ConstraintImpulse()
	p.SetConstraintImpulse(imp)
	s.UpdateBiasImpulse(&sb.BodyNode)
	p.SetConstraintImpulse(backup)
}

// UpdateVelocityChange resolves the velocity changes induced by the bias
// impulses, root to leaves.
func (s *Skeleton) UpdateVelocityChange() {
	for _, b := range s.bodies {
		b.impl.updateVelocityChangeFD()
	}
}

func (s *Skeleton) SetImpulseApplied(applied bool) { s.impulseApplied = applied }
func (s *Skeleton) IsImpulseApplied() bool         { return s.impulseApplied }

// ComputeImpulseForwardDynamics folds the pending constraint impulses into
// velocities, accelerations, joint forces and transmitted forces.
func (s *Skeleton) ComputeImpulseForwardDynamics() {
	if !s.mobile || s.gcs.dof() == 0 {
		return
	}
	if s.dirtyArtInertia {
		for i := len(s.bodies) - 1; i >= 0; i-- {
			s.bodies[i].impl.updateArtInertia(s.timeStep)
			s.bodies[i].impl.updateBiasImpulse()
		}
		s.dirtyArtInertia = false
	} else {
		for i := len(s.bodies) - 1; i >= 0; i-- {
			s.bodies[i].impl.updateBiasImpulse()
		}
	}
	for _, b := range s.bodies {
		b.impl.updateVelocityChangeFD()
		b.impl.updateTransmittedImpulse()
	}
	for _, b := range s.bodies {
		b.impl.updateConstrainedTerms(s.timeStep)
	}
}

// Lazy system matrices and vectors

func (s *Skeleton) mustHaveDofs() {
	if s.gcs.dof() == 0 {
		panic("dynamics: skeleton has no degrees of freedom")
	}
	if s.m == nil {
		panic("dynamics: skeleton is not initialized")
	}
}

func (s *Skeleton) MassMatrix() *mat.Dense {
	if s.dirtyM {
		s.updateMassMatrix()
	}
	return s.m
}

func (s *Skeleton) AugMassMatrix() *mat.Dense {
	if s.dirtyAugM {
		s.updateAugMassMatrix()
	}
	return s.augM
}

func (s *Skeleton) InvMassMatrix() *mat.Dense {
	if s.dirtyInvM {
		s.updateInvMassMatrix()
	}
	return s.invM
}

func (s *Skeleton) InvAugMassMatrix() *mat.Dense {
	if s.dirtyInvAugM {
		s.updateInvAugMassMatrix()
	}
	return s.invAugM
}

func (s *Skeleton) CoriolisForceVector() []float64 {
	if s.dirtyC {
		s.updateCoriolisForceVector()
	}
	return s.cvec
}

func (s *Skeleton) GravityForceVector() []float64 {
	if s.dirtyG {
		s.updateGravityForceVector()
	}
	return s.gvec
}

func (s *Skeleton) CombinedVector() []float64 {
	if s.dirtyCg {
		s.updateCombinedVector()
	}
	return s.cg
}

func (s *Skeleton) ExternalForceVector() []float64 {
	if s.dirtyFext {
		s.updateExternalForceVector()
	}
	return s.fextVec
}

// massColumn assembles one column of the mass matrix. The backward pass
// stops early once the remaining bodies' joint coordinates all lie
// strictly left of the column; point-mass columns disable the early exit
// because their coordinates sit after every joint block.
func (s *Skeleton) massColumn(j int, aggregate func(n node)) {
	s.gcs.genCoord(j).SetAcc(1)
	for _, b := range s.bodies {
		b.impl.updateMassMatrix()
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		b := s.bodies[i]
		aggregate(b.impl)
		jt := b.parentJoint
		if l := jt.NumDofs(); j < s.jointDofCount && l > 0 {
			if jt.GenCoord(0).IndexInSkeleton()+l < j {
				break
			}
		}
	}
	s.gcs.genCoord(j).SetAcc(0)
}

func (s *Skeleton) updateMassMatrix() {
	s.mustHaveDofs()
	n := s.gcs.dof()
	backup := s.gcs.accelerations()
	for _, gc := range s.gcs.genCoords {
		gc.SetAcc(0)
	}
	s.m.Zero()
	for j := 0; j < n; j++ {
		s.massColumn(j, func(nd node) { nd.aggregateMassMatrix(s.m, j) })
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s.m.Set(i, j, s.m.At(j, i))
		}
	}
	s.gcs.setAccelerations(backup)
	s.dirtyM = false
}

func (s *Skeleton) updateAugMassMatrix() {
	s.mustHaveDofs()
	n := s.gcs.dof()
	backup := s.gcs.accelerations()
	for _, gc := range s.gcs.genCoords {
		gc.SetAcc(0)
	}
	s.augM.Zero()
	for j := 0; j < n; j++ {
		s.massColumn(j, func(nd node) { nd.aggregateAugMassMatrix(s.augM, j, s.timeStep) })
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s.augM.Set(i, j, s.augM.At(j, i))
		}
	}
	s.gcs.setAccelerations(backup)
	s.dirtyAugM = false
}

// invMassColumn assembles one column of an inverse mass matrix. The
// forward pass stops once the joint coordinate blocks pass the column.
func (s *Skeleton) invMassColumn(j int, prepare func(n node), aggregate func(n node)) {
	s.gcs.genCoord(j).SetForce(1)
	for i := len(s.bodies) - 1; i >= 0; i-- {
		prepare(s.bodies[i].impl)
	}
	for _, b := range s.bodies {
		aggregate(b.impl)
		jt := b.parentJoint
		if l := jt.NumDofs(); l > 0 {
			if jt.GenCoord(0).IndexInSkeleton()+l > j {
				break
			}
		}
	}
	s.gcs.genCoord(j).SetForce(0)
}

func (s *Skeleton) updateInvMassMatrix() {
	s.mustHaveDofs()
	n := s.gcs.dof()
	if s.dirtyArtInertia {
		for i := len(s.bodies) - 1; i >= 0; i-- {
			s.bodies[i].impl.updateArtInertia(s.timeStep)
		}
		s.dirtyArtInertia = false
	}
	backup := s.gcs.forces()
	for _, gc := range s.gcs.genCoords {
		gc.SetForce(0)
	}
	s.invM.Zero()
	for j := 0; j < n; j++ {
		s.invMassColumn(j,
			func(nd node) { nd.updateInvMassMatrix() },
			func(nd node) { nd.aggregateInvMassMatrix(s.invM, j) })
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			s.invM.Set(i, j, s.invM.At(j, i))
		}
	}
	s.gcs.setForces(backup)
	s.dirtyInvM = false
}

func (s *Skeleton) updateInvAugMassMatrix() {
	s.mustHaveDofs()
	n := s.gcs.dof()
	if s.dirtyArtInertia {
		for i := len(s.bodies) - 1; i >= 0; i-- {
			s.bodies[i].impl.updateArtInertia(s.timeStep)
		}
	}
	backup := s.gcs.forces()
	for _, gc := range s.gcs.genCoords {
		gc.SetForce(0)
	}
	s.invAugM.Zero()
	for j := 0; j < n; j++ {
		s.invMassColumn(j,
			func(nd node) { nd.updateInvAugMassMatrix() },
			func(nd node) { nd.aggregateInvAugMassMatrix(s.invAugM, j) })
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			s.invAugM.Set(i, j, s.invAugM.At(j, i))
		}
	}
	s.gcs.setForces(backup)
	s.dirtyInvAugM = false
}

func (s *Skeleton) updateCoriolisForceVector() {
	s.mustHaveDofs()
	for i := range s.cvec {
		s.cvec[i] = 0
	}
	for _, b := range s.bodies {
		b.impl.updateCombinedVector()
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.aggregateCoriolisForceVector(s.cvec)
	}
	s.dirtyC = false
}

func (s *Skeleton) updateGravityForceVector() {
	s.mustHaveDofs()
	for i := range s.gvec {
		s.gvec[i] = 0
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.aggregateGravityForceVector(s.gvec, s.gravity)
	}
	s.dirtyG = false
}

func (s *Skeleton) updateCombinedVector() {
	s.mustHaveDofs()
	for i := range s.cg {
		s.cg[i] = 0
	}
	for _, b := range s.bodies {
		b.impl.updateCombinedVector()
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.aggregateCombinedVector(s.cg, s.gravity)
	}
	s.dirtyCg = false
}

func (s *Skeleton) updateExternalForceVector() {
	s.mustHaveDofs()
	for i := range s.fextVec {
		s.fextVec[i] = 0
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		s.bodies[i].impl.aggregateExternalForces(s.fextVec)
	}
	s.dirtyFext = false
}

// Aggregate geometry

// WorldCOM returns the mass-weighted center of mass of all bodies.
func (s *Skeleton) WorldCOM() mgl64.Vec3 {
	var com mgl64.Vec3
	for _, b := range s.bodies {
		com = com.Add(b.COM().Mul(b.Mass()))
	}
	return com.Mul(1 / s.totalMass)
}

func (s *Skeleton) WorldCOMVelocity() mgl64.Vec3 {
	var v mgl64.Vec3
	for _, b := range s.bodies {
		v = v.Add(b.COMLinearVelocity().Mul(b.Mass()))
	}
	return v.Mul(1 / s.totalMass)
}

func (s *Skeleton) WorldCOMAcceleration() mgl64.Vec3 {
	var a mgl64.Vec3
	for _, b := range s.bodies {
		a = a.Add(b.COMLinearAcceleration().Mul(b.Mass()))
	}
	return a.Mul(1 / s.totalMass)
}

// WorldCOMJacobian returns the 3 x dof Jacobian of the skeleton center of
// mass, assembled by scattering each body's world Jacobian over its
// dependent coordinates.
func (s *Skeleton) WorldCOMJacobian() *mat.Dense {
	j := mat.NewDense(3, s.gcs.dof(), nil)
	for _, b := range s.bodies {
		cols := b.WorldJacobian(b.LocalCOM())
		for k, col := range cols {
			idx := b.depIndices[k]
			for r := 0; r < 3; r++ {
				j.Set(r, idx, j.At(r, idx)+b.Mass()*col.Linear[r])
			}
		}
	}
	j.Scale(1/s.totalMass, j)
	return j
}

// WorldCOMJacobianTimeDeriv returns the time derivative of
// WorldCOMJacobian.
func (s *Skeleton) WorldCOMJacobianTimeDeriv() *mat.Dense {
	j := mat.NewDense(3, s.gcs.dof(), nil)
	for _, b := range s.bodies {
		cols := b.WorldJacobianTimeDeriv(b.LocalCOM())
		for k, col := range cols {
			idx := b.depIndices[k]
			for r := 0; r < 3; r++ {
				j.Set(r, idx, j.At(r, idx)+b.Mass()*col.Linear[r])
			}
		}
	}
	j.Scale(1/s.totalMass, j)
	return j
}

// Energies

func (s *Skeleton) KineticEnergy() float64 {
	ke := 0.0
	for _, b := range s.bodies {
		ke += b.impl.KineticEnergy()
	}
	if ke < 0 {
		panic("dynamics: negative kinetic energy")
	}
	return ke
}

func (s *Skeleton) PotentialEnergy() float64 {
	pe := 0.0
	for _, b := range s.bodies {
		pe += b.impl.PotentialEnergy(s.gravity)
		pe += b.parentJoint.PotentialEnergy()
	}
	return pe
}

// Union-find over skeletons, used by constraint grouping.

func (s *Skeleton) ResetUnion() {
	s.unionRoot = s
	s.unionSize = 1
}

func (s *Skeleton) UnionRoot() *Skeleton {
	r := s
	for r.unionRoot != r {
		r.unionRoot = r.unionRoot.unionRoot
		r = r.unionRoot
	}
	return r
}

func (s *Skeleton) UnionWith(other *Skeleton) {
	a := s.UnionRoot()
	b := other.UnionRoot()
	if a == b {
		return
	}
	if a.unionSize < b.unionSize {
		a, b = b, a
	}
	b.unionRoot = a
	a.unionSize += b.unionSize
}

func (s *Skeleton) UnionSize() int { return s.UnionRoot().unionSize }
