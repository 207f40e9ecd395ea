package physics

// PivotJoint pins a point on bodyA to a point on bodyB: C = p2+r2-p1-r1, a
// 2D vector constraint (two rows solved together through a 2x2 effective
// mass matrix), the revolute joint without angular limits or a motor
// (spec §4.4's worked example generalized to a vector C, per SPEC_FULL's
// joint family).
type PivotJoint struct {
	*Joint
	Anchor1, Anchor2 Vector

	k11, k12, k22 float64 // symmetric 2x2 matrix K, inverted on use by solve2x2
	biasV         Vector
	accumV        Vector
}

func NewPivotJoint(bodyA, bodyB *Body, anchor1, anchor2 Vector) *PivotJoint {
	pj := &PivotJoint{
		Joint:   &Joint{kind: JointPivot, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1: anchor1,
		Anchor2: anchor2,
	}
	pj.Joint.class = &JointClass{
		InitSolver:    pj.initSolver,
		SolveVelocity: pj.solveVelocity,
		SolvePosition: pj.solvePosition,
		Serialize:     pj.serialize,
		ReactionForce: func(dtInv float64) Vector { return pj.accumV.Mul(dtInv) },
	}
	return pj
}

// k2x2 builds the point-to-point matrix K (not its inverse; solve2x2 does the
// inversion) shared by every joint that solves a 2-row linear constraint
// (PivotJoint here, the linear rows of RevoluteJoint/WeldJoint).
func k2x2(bA, bB *Body, r1, r2 Vector) (k11, k12, k22 float64) {
	k11 = bA.invMass + bB.invMass + bA.invMom*r1[1]*r1[1] + bB.invMom*r2[1]*r2[1]
	k12 = -bA.invMom*r1[0]*r1[1] - bB.invMom*r2[0]*r2[1]
	k22 = bA.invMass + bB.invMass + bA.invMom*r1[0]*r1[0] + bB.invMom*r2[0]*r2[0]
	return
}

// solve2x2 solves [[k11,k12],[k12,k22]] * x = b for x, returning the zero
// vector if the matrix is singular.
func solve2x2(k11, k12, k22 float64, b Vector) Vector {
	det := k11*k22 - k12*k12
	if det == 0 {
		return VectorZero()
	}
	invDet := 1.0 / det
	return Vector{
		invDet * (k22*b[0] - k12*b[1]),
		invDet * (k11*b[1] - k12*b[0]),
	}
}

func (pj *PivotJoint) initSolver(dt float64, warmStarting bool) {
	j := pj.Joint
	worldAnchor1 := j.BodyA.localToWorld(pj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(pj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	pj.k11, pj.k12, pj.k22 = k2x2(j.BodyA, j.BodyB, j.r1, j.r2)

	c := worldAnchor2.Sub(worldAnchor1)
	if dt > 0 {
		pj.biasV = c.Mul(1.0 / dt)
	} else {
		pj.biasV = VectorZero()
	}

	if warmStarting {
		applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, pj.accumV)
	} else {
		pj.accumV = VectorZero()
	}
}

func (pj *PivotJoint) solveVelocity() {
	j := pj.Joint
	relVel := relativeVelocityAt(j.BodyA, j.BodyB, j.r1, j.r2)
	rhs := relVel.Add(pj.biasV)
	impulse := solve2x2(pj.k11, pj.k12, pj.k22, rhs)
	impulse = Neg(impulse)
	pj.accumV = pj.accumV.Add(impulse)
	applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)
}

func (pj *PivotJoint) solvePosition() bool {
	j := pj.Joint
	worldAnchor1 := j.BodyA.localToWorld(pj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(pj.Anchor2)
	c := worldAnchor2.Sub(worldAnchor1)

	r1 := worldAnchor1.Sub(j.BodyA.worldCenter())
	r2 := worldAnchor2.Sub(j.BodyB.worldCenter())
	k11, k12, k22 := k2x2(j.BodyA, j.BodyB, r1, r2)

	clen := c.Len()
	corrLen := ClampF(clen, 0, j.cfg.MaxLinearCorrection)
	var corrected Vector
	if clen > linearSlopDegenerate {
		corrected = c.Mul(corrLen / clen)
	} else {
		corrected = VectorZero()
	}
	impulse := Neg(solve2x2(k11, k12, k22, corrected))
	applyPointPositionalImpulse(j.BodyA, j.BodyB, r1, r2, impulse)

	return clen <= j.cfg.LinearSlop
}

func (pj *PivotJoint) serialize() map[string]any {
	return map[string]any{
		"anchorA": pj.Anchor1,
		"anchorB": pj.Anchor2,
	}
}
