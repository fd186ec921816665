package dynamics

import "math"

// GenCoord is a single scalar degree of freedom in the generalized
// coordinate vector of a skeleton.
type GenCoord struct {
	name          string
	skeletonIndex int

	pos   float64
	vel   float64
	acc   float64
	force float64

	posMin, posMax     float64
	velMin, velMax     float64
	accMin, accMax     float64
	forceMin, forceMax float64

	velChange float64
	impulse   float64
}

func newGenCoord(name string) *GenCoord {
	return &GenCoord{
		name:          name,
		skeletonIndex: -1,
		posMin:        math.Inf(-1), posMax: math.Inf(1),
		velMin: math.Inf(-1), velMax: math.Inf(1),
		accMin: math.Inf(-1), accMax: math.Inf(1),
		forceMin: math.Inf(-1), forceMax: math.Inf(1),
	}
}

func (g *GenCoord) Name() string         { return g.name }
func (g *GenCoord) IndexInSkeleton() int { return g.skeletonIndex }

func (g *GenCoord) Pos() float64   { return g.pos }
func (g *GenCoord) Vel() float64   { return g.vel }
func (g *GenCoord) Acc() float64   { return g.acc }
func (g *GenCoord) Force() float64 { return g.force }

func (g *GenCoord) SetPos(v float64)   { g.pos = v }
func (g *GenCoord) SetVel(v float64)   { g.vel = v }
func (g *GenCoord) SetAcc(v float64)   { g.acc = v }
func (g *GenCoord) SetForce(v float64) { g.force = v }

func (g *GenCoord) VelChange() float64     { return g.velChange }
func (g *GenCoord) SetVelChange(v float64) { g.velChange = v }

func (g *GenCoord) ConstraintImpulse() float64     { return g.impulse }
func (g *GenCoord) SetConstraintImpulse(v float64) { g.impulse = v }

// genCoordSystem is the flat vector of scalar DoFs a skeleton exposes.
// Joint DoFs come first in breadth-first body order, point-mass DoFs after.
type genCoordSystem struct {
	genCoords []*GenCoord
}

func (s *genCoordSystem) dof() int { return len(s.genCoords) }

func (s *genCoordSystem) genCoord(i int) *GenCoord { return s.genCoords[i] }

func (s *genCoordSystem) positions() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.pos
	}
	return out
}

func (s *genCoordSystem) velocities() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.vel
	}
	return out
}

func (s *genCoordSystem) accelerations() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.acc
	}
	return out
}

func (s *genCoordSystem) forces() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.force
	}
	return out
}

func (s *genCoordSystem) setPositions(q []float64) {
	s.mustMatch(len(q))
	for i, gc := range s.genCoords {
		gc.pos = q[i]
	}
}

func (s *genCoordSystem) setVelocities(dq []float64) {
	s.mustMatch(len(dq))
	for i, gc := range s.genCoords {
		gc.vel = dq[i]
	}
}

func (s *genCoordSystem) setAccelerations(ddq []float64) {
	s.mustMatch(len(ddq))
	for i, gc := range s.genCoords {
		gc.acc = ddq[i]
	}
}

func (s *genCoordSystem) setForces(tau []float64) {
	s.mustMatch(len(tau))
	for i, gc := range s.genCoords {
		gc.force = tau[i]
	}
}

func (s *genCoordSystem) forceLowerLimits() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.forceMin
	}
	return out
}

func (s *genCoordSystem) forceUpperLimits() []float64 {
	out := make([]float64, len(s.genCoords))
	for i, gc := range s.genCoords {
		out[i] = gc.forceMax
	}
	return out
}

func (s *genCoordSystem) setForceLowerLimits(min []float64) {
	s.mustMatch(len(min))
	for i, gc := range s.genCoords {
		gc.forceMin = min[i]
	}
}

func (s *genCoordSystem) setForceUpperLimits(max []float64) {
	s.mustMatch(len(max))
	for i, gc := range s.genCoords {
		gc.forceMax = max[i]
	}
}

func (s *genCoordSystem) mustMatch(n int) {
	if n != len(s.genCoords) {
		panic("dynamics: generalized vector length mismatch")
	}
}
