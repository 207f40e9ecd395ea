package physics

// DistanceJoint holds two anchor points at an exact distance apart: the
// bilateral sibling of RopeJoint (spec §4.4's "other joints follow the same
// shape"), with C enforced to zero on both sides instead of only above L.
type DistanceJoint struct {
	*Joint
	Anchor1, Anchor2 Vector
	Length           float64
}

func NewDistanceJoint(bodyA, bodyB *Body, anchor1, anchor2 Vector, length float64) *DistanceJoint {
	dj := &DistanceJoint{
		Joint:   &Joint{kind: JointDistance, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1: anchor1,
		Anchor2: anchor2,
		Length:  length,
	}
	dj.Joint.class = &JointClass{
		InitSolver:    dj.initSolver,
		SolveVelocity: dj.solveVelocity,
		SolvePosition: dj.solvePosition,
		Serialize:     dj.serialize,
	}
	return dj
}

func (dj *DistanceJoint) initSolver(dt float64, warmStarting bool) {
	j := dj.Joint
	worldAnchor1 := j.BodyA.localToWorld(dj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(dj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	sep := worldAnchor2.Sub(worldAnchor1)
	dist := sep.Len()

	var u Vector
	if dist > linearSlopDegenerate {
		u = sep.Mul(1.0 / dist)
	} else {
		u = VectorZero()
	}
	j.u = u
	j.limit = LimitEqual

	c := dist - dj.Length
	if dt > 0 {
		j.bias = c / dt
	} else {
		j.bias = 0
	}

	j.s1 = Cross(j.r1, u)
	j.s2 = Cross(j.r2, u)
	k := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*j.s1*j.s1 + j.BodyB.invMom*j.s2*j.s2
	if k > 0 {
		j.effMass = 1.0 / k
	} else {
		j.effMass = 0
	}

	if warmStarting && j.effMass != 0 {
		impulse := u.Mul(j.accum)
		applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)
	} else {
		j.accum = 0
	}
}

func (dj *DistanceJoint) solveVelocity() {
	j := dj.Joint
	if j.effMass == 0 {
		return
	}
	relVel := relativeVelocityAt(j.BodyA, j.BodyB, j.r1, j.r2)
	cdot := relVel.Dot(j.u)
	dLambda := -j.effMass * (cdot + j.bias)
	j.accum += dLambda

	impulse := j.u.Mul(dLambda)
	applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)
}

func (dj *DistanceJoint) solvePosition() bool {
	j := dj.Joint
	worldAnchor1 := j.BodyA.localToWorld(dj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(dj.Anchor2)
	sep := worldAnchor2.Sub(worldAnchor1)
	dist := sep.Len()
	if dist <= linearSlopDegenerate {
		return true
	}
	c := dist - dj.Length
	u := sep.Mul(1.0 / dist)

	r1 := worldAnchor1.Sub(j.BodyA.worldCenter())
	r2 := worldAnchor2.Sub(j.BodyB.worldCenter())
	s1 := Cross(r1, u)
	s2 := Cross(r2, u)
	k := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*s1*s1 + j.BodyB.invMom*s2*s2
	if k <= 0 {
		return true
	}

	correction := ClampF(c, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
	lambda := -correction / k
	impulse := u.Mul(lambda)
	applyPointPositionalImpulse(j.BodyA, j.BodyB, r1, r2, impulse)

	return (correction < 0 && -correction <= j.cfg.LinearSlop) || (correction >= 0 && correction <= j.cfg.LinearSlop)
}

func (dj *DistanceJoint) serialize() map[string]any {
	return map[string]any{
		"anchorA": dj.Anchor1,
		"anchorB": dj.Anchor2,
		"length":  dj.Length,
	}
}
