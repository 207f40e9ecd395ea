package physics

// AngleJoint (a.k.a. gear/angle-ratio joint) keeps two bodies' angles in a
// fixed ratio: C = a2 - ratio*a1 - phase, a single scalar angular row with
// no limit state (SPEC_FULL §4.5), used for geared wheels.
type AngleJoint struct {
	*Joint
	Ratio float64
	Phase float64

	k float64
}

func NewAngleJoint(bodyA, bodyB *Body, ratio, phase float64) *AngleJoint {
	aj := &AngleJoint{
		Joint: &Joint{kind: JointAngle, BodyA: bodyA, BodyB: bodyB, CollideConnected: true},
		Ratio: ratio,
		Phase: phase,
	}
	aj.Joint.class = &JointClass{
		InitSolver:     aj.initSolver,
		SolveVelocity:  aj.solveVelocity,
		SolvePosition:  aj.solvePosition,
		Serialize:      aj.serialize,
		ReactionTorque: func(dtInv float64) float64 { return aj.Joint.accum * dtInv },
	}
	return aj
}

func (aj *AngleJoint) constraintValue() float64 {
	j := aj.Joint
	return j.BodyB.angle - aj.Ratio*j.BodyA.angle - aj.Phase
}

func (aj *AngleJoint) initSolver(dt float64, warmStarting bool) {
	j := aj.Joint
	k := j.BodyA.invMom*aj.Ratio*aj.Ratio + j.BodyB.invMom
	if k > 0 {
		aj.k = 1.0 / k
	} else {
		aj.k = 0
	}

	c := aj.constraintValue()
	if dt > 0 {
		j.bias = c / dt
	} else {
		j.bias = 0
	}

	if warmStarting && aj.k != 0 {
		j.BodyA.angularVelocity -= j.BodyA.invMom * aj.Ratio * j.accum
		j.BodyB.angularVelocity += j.BodyB.invMom * j.accum
	} else {
		j.accum = 0
	}
}

func (aj *AngleJoint) solveVelocity() {
	j := aj.Joint
	if aj.k == 0 {
		return
	}
	cdot := j.BodyB.angularVelocity - aj.Ratio*j.BodyA.angularVelocity
	dLambda := -aj.k * (cdot + j.bias)
	j.accum += dLambda

	j.BodyA.angularVelocity -= j.BodyA.invMom * aj.Ratio * dLambda
	j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
}

func (aj *AngleJoint) solvePosition() bool {
	j := aj.Joint
	if aj.k == 0 {
		return true
	}
	c := aj.constraintValue()
	if c < 0 {
		if -c <= j.cfg.LinearSlop {
			return true
		}
	} else if c <= j.cfg.LinearSlop {
		return true
	}

	correction := ClampF(c, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
	lambda := -correction / ((j.BodyA.invMom*aj.Ratio*aj.Ratio + j.BodyB.invMom))

	j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*aj.Ratio*lambda)
	j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*lambda)

	return false
}

func (aj *AngleJoint) serialize() map[string]any {
	return map[string]any{
		"ratio": aj.Ratio,
		"phase": aj.Phase,
	}
}
