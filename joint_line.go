package physics

// LineJoint (a.k.a. spring-loaded prismatic, used for suspension-style
// rigs) is PrismaticJoint's orthogonal-to-axis row without the angular
// lock row or a travel limit (SPEC_FULL §4.5) — bodies are free to spin
// and to slide along the axis, only the perpendicular offset is held to
// zero.
type LineJoint struct {
	*Joint
	Anchor1, Anchor2 Vector
	LocalAxis        Vector

	perpK     float64
	perpBias  float64
	perpAccum float64

	axis   Vector
	perp   Vector
	s1, s2 float64
}

func NewLineJoint(bodyA, bodyB *Body, anchor1, anchor2, localAxis Vector) *LineJoint {
	lj := &LineJoint{
		Joint:     &Joint{kind: JointLine, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1:   anchor1,
		Anchor2:   anchor2,
		LocalAxis: localAxis,
	}
	lj.Joint.class = &JointClass{
		InitSolver:    lj.initSolver,
		SolveVelocity: lj.solveVelocity,
		SolvePosition: lj.solvePosition,
		Serialize:     lj.serialize,
		ReactionForce: func(dtInv float64) Vector { return lj.perp.Mul(lj.perpAccum * dtInv) },
	}
	return lj
}

func (lj *LineJoint) initSolver(dt float64, warmStarting bool) {
	j := lj.Joint
	worldAnchor1 := j.BodyA.localToWorld(lj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(lj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	lj.axis = Rotate(lj.LocalAxis, j.BodyA.rotation)
	lj.perp = Perp(lj.axis)

	d := worldAnchor2.Sub(worldAnchor1)
	lj.s1 = Cross(d.Add(j.r1), lj.perp)
	lj.s2 = Cross(j.r2, lj.perp)

	k := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*lj.s1*lj.s1 + j.BodyB.invMom*lj.s2*lj.s2
	if k > 0 {
		lj.perpK = 1.0 / k
	} else {
		lj.perpK = 0
	}

	c := d.Dot(lj.perp)
	if dt > 0 {
		lj.perpBias = c / dt
	} else {
		lj.perpBias = 0
	}

	if warmStarting {
		lj.applyRowImpulse(lj.perpAccum)
	} else {
		lj.perpAccum = 0
	}
}

func (lj *LineJoint) applyRowImpulse(lambda float64) {
	j := lj.Joint
	impulse := lj.perp.Mul(lambda)
	j.BodyA.velocity = j.BodyA.velocity.Sub(impulse.Mul(j.BodyA.invMass))
	j.BodyA.angularVelocity -= j.BodyA.invMom * lj.s1 * lambda
	j.BodyB.velocity = j.BodyB.velocity.Add(impulse.Mul(j.BodyB.invMass))
	j.BodyB.angularVelocity += j.BodyB.invMom * lj.s2 * lambda
}

func (lj *LineJoint) solveVelocity() {
	j := lj.Joint
	if lj.perpK == 0 {
		return
	}
	vA := lj.perp.Dot(j.BodyA.velocity) - lj.s1*j.BodyA.angularVelocity
	vB := lj.perp.Dot(j.BodyB.velocity) + lj.s2*j.BodyB.angularVelocity
	cdot := vB - vA
	dLambda := -lj.perpK * (cdot + lj.perpBias)
	lj.perpAccum += dLambda
	lj.applyRowImpulse(dLambda)
}

func (lj *LineJoint) solvePosition() bool {
	j := lj.Joint
	worldAnchor1 := j.BodyA.localToWorld(lj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(lj.Anchor2)
	axis := Rotate(lj.LocalAxis, j.BodyA.rotation)
	perp := Perp(axis)
	d := worldAnchor2.Sub(worldAnchor1)

	r1 := worldAnchor1.Sub(j.BodyA.worldCenter())
	r2 := worldAnchor2.Sub(j.BodyB.worldCenter())
	s1 := Cross(d.Add(r1), perp)
	s2 := Cross(r2, perp)

	c := d.Dot(perp)
	k := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*s1*s1 + j.BodyB.invMom*s2*s2
	if k <= 0 {
		return true
	}

	correction := ClampF(c, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
	lambda := -correction / k
	impulse := perp.Mul(lambda)
	j.BodyA.position = j.BodyA.position.Sub(impulse.Mul(j.BodyA.invMass))
	j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*s1*lambda)
	j.BodyB.position = j.BodyB.position.Add(impulse.Mul(j.BodyB.invMass))
	j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*s2*lambda)

	if correction < 0 {
		correction = -correction
	}
	return correction <= j.cfg.LinearSlop
}

func (lj *LineJoint) serialize() map[string]any {
	return map[string]any{
		"anchorA": lj.Anchor1,
		"anchorB": lj.Anchor2,
		"axis":    lj.LocalAxis,
	}
}
