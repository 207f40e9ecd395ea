package physics

import "math"

// WeldJoint rigidly fixes two bodies' relative pose: PivotJoint's two
// linear rows plus a third scalar row holding a2-a1-referenceAngle to zero
// (SPEC_FULL §4.5), using the same stacked-row technique as RevoluteJoint.
type WeldJoint struct {
	*Joint
	Anchor1, Anchor2 Vector
	ReferenceAngle   float64

	k11, k12, k22 float64
	biasV         Vector
	accumV        Vector

	angK     float64
	angBias  float64
	angAccum float64
}

func NewWeldJoint(bodyA, bodyB *Body, anchor1, anchor2 Vector, referenceAngle float64) *WeldJoint {
	wj := &WeldJoint{
		Joint:          &Joint{kind: JointWeld, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1:        anchor1,
		Anchor2:        anchor2,
		ReferenceAngle: referenceAngle,
	}
	wj.Joint.class = &JointClass{
		InitSolver:     wj.initSolver,
		SolveVelocity:  wj.solveVelocity,
		SolvePosition:  wj.solvePosition,
		Serialize:      wj.serialize,
		ReactionForce:  func(dtInv float64) Vector { return wj.accumV.Mul(dtInv) },
		ReactionTorque: func(dtInv float64) float64 { return wj.angAccum * dtInv },
	}
	return wj
}

func (wj *WeldJoint) relAngle() float64 {
	return wj.Joint.BodyB.angle - wj.Joint.BodyA.angle - wj.ReferenceAngle
}

func (wj *WeldJoint) initSolver(dt float64, warmStarting bool) {
	j := wj.Joint
	worldAnchor1 := j.BodyA.localToWorld(wj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(wj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	wj.k11, wj.k12, wj.k22 = k2x2(j.BodyA, j.BodyB, j.r1, j.r2)
	c := worldAnchor2.Sub(worldAnchor1)
	if dt > 0 {
		wj.biasV = c.Mul(1.0 / dt)
	} else {
		wj.biasV = VectorZero()
	}

	angK := j.BodyA.invMom + j.BodyB.invMom
	if angK > 0 {
		wj.angK = 1.0 / angK
	} else {
		wj.angK = 0
	}
	if dt > 0 {
		wj.angBias = wj.relAngle() / dt
	} else {
		wj.angBias = 0
	}

	if warmStarting {
		applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, wj.accumV)
		j.BodyA.angularVelocity -= j.BodyA.invMom * wj.angAccum
		j.BodyB.angularVelocity += j.BodyB.invMom * wj.angAccum
	} else {
		wj.accumV = VectorZero()
		wj.angAccum = 0
	}
}

func (wj *WeldJoint) solveVelocity() {
	j := wj.Joint

	relVel := relativeVelocityAt(j.BodyA, j.BodyB, j.r1, j.r2)
	rhs := relVel.Add(wj.biasV)
	impulse := Neg(solve2x2(wj.k11, wj.k12, wj.k22, rhs))
	wj.accumV = wj.accumV.Add(impulse)
	applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)

	if wj.angK != 0 {
		cdot := j.BodyB.angularVelocity - j.BodyA.angularVelocity
		dLambda := -wj.angK * (cdot + wj.angBias)
		wj.angAccum += dLambda
		j.BodyA.angularVelocity -= j.BodyA.invMom * dLambda
		j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
	}
}

func (wj *WeldJoint) solvePosition() bool {
	j := wj.Joint
	worldAnchor1 := j.BodyA.localToWorld(wj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(wj.Anchor2)
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
	ok := clen <= j.cfg.LinearSlop

	angC := wj.relAngle()
	angK := j.BodyA.invMom + j.BodyB.invMom
	if math.Abs(angC) > j.cfg.LinearSlop && angK > 0 {
		correction := ClampF(angC, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
		lambda := -correction / angK
		j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*lambda)
		j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*lambda)
		ok = false
	}

	return ok
}

func (wj *WeldJoint) serialize() map[string]any {
	return map[string]any{
		"anchorA":        wj.Anchor1,
		"anchorB":        wj.Anchor2,
		"referenceAngle": wj.ReferenceAngle,
	}
}

