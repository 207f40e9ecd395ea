package physics

import "math"

// PrismaticJoint (a.k.a. slide/groove) constrains a point on bodyB to slide
// along a body-local axis anchored on bodyA: one linear row orthogonal to
// the axis, one angular row holding the relative angle fixed, and an
// optional [Min,Max] travel limit along the axis reusing RotaryLimitJoint's
// limit enum (SPEC_FULL §4.5).
type PrismaticJoint struct {
	*Joint
	Anchor1, Anchor2 Vector
	LocalAxis        Vector // in bodyA's local frame
	ReferenceAngle   float64

	HasLimit bool
	Min, Max float64

	perpK     float64
	perpBias  float64
	perpAccum float64

	angK     float64
	angBias  float64
	angAccum float64

	limitK     float64
	limitBias  float64
	limitAccum float64

	// cached per-iteration jacobian pieces
	axis   Vector
	perp   Vector
	s1, s2 float64
	a1, a2 float64
}

func NewPrismaticJoint(bodyA, bodyB *Body, anchor1, anchor2, localAxis Vector, referenceAngle float64) *PrismaticJoint {
	pj := &PrismaticJoint{
		Joint:          &Joint{kind: JointPrismatic, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1:        anchor1,
		Anchor2:        anchor2,
		LocalAxis:      localAxis,
		ReferenceAngle: referenceAngle,
	}
	pj.Joint.class = &JointClass{
		InitSolver:    pj.initSolver,
		SolveVelocity: pj.solveVelocity,
		SolvePosition: pj.solvePosition,
		Serialize:     pj.serialize,
		ReactionForce: func(dtInv float64) Vector {
			return pj.perp.Mul(pj.perpAccum).Add(pj.axis.Mul(pj.limitAccum)).Mul(dtInv)
		},
		ReactionTorque: func(dtInv float64) float64 { return pj.angAccum * dtInv },
	}
	return pj
}

func (pj *PrismaticJoint) translation() float64 {
	j := pj.Joint
	worldAnchor1 := j.BodyA.localToWorld(pj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(pj.Anchor2)
	axis := Rotate(pj.LocalAxis, j.BodyA.rotation)
	return worldAnchor2.Sub(worldAnchor1).Dot(axis)
}

func (pj *PrismaticJoint) initSolver(dt float64, warmStarting bool) {
	j := pj.Joint
	worldAnchor1 := j.BodyA.localToWorld(pj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(pj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	pj.axis = Rotate(pj.LocalAxis, j.BodyA.rotation)
	pj.perp = Perp(pj.axis)

	d := worldAnchor2.Sub(worldAnchor1)
	pj.s1 = Cross(d.Add(j.r1), pj.perp)
	pj.s2 = Cross(j.r2, pj.perp)
	pj.a1 = Cross(d.Add(j.r1), pj.axis)
	pj.a2 = Cross(j.r2, pj.axis)

	kPerp := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*pj.s1*pj.s1 + j.BodyB.invMom*pj.s2*pj.s2
	if kPerp > 0 {
		pj.perpK = 1.0 / kPerp
	} else {
		pj.perpK = 0
	}
	cPerp := d.Dot(pj.perp)
	if dt > 0 {
		pj.perpBias = cPerp / dt
	} else {
		pj.perpBias = 0
	}

	kAng := j.BodyA.invMom + j.BodyB.invMom
	if kAng > 0 {
		pj.angK = 1.0 / kAng
	} else {
		pj.angK = 0
	}
	cAng := j.BodyB.angle - j.BodyA.angle - pj.ReferenceAngle
	if dt > 0 {
		pj.angBias = cAng / dt
	} else {
		pj.angBias = 0
	}

	if pj.HasLimit {
		trans := d.Dot(pj.axis)
		clamped := ClampF(trans, pj.Min, pj.Max)
		lc := clamped - trans
		switch {
		case trans < pj.Min:
			j.limit = LimitAtLower
		case trans > pj.Max:
			j.limit = LimitAtUpper
		case pj.Min == pj.Max:
			j.limit = LimitEqual
		default:
			j.limit = LimitInactive
		}
		kLim := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*pj.a1*pj.a1 + j.BodyB.invMom*pj.a2*pj.a2
		if kLim > 0 && j.limit != LimitInactive {
			pj.limitK = 1.0 / kLim
		} else {
			pj.limitK = 0
		}
		if dt > 0 {
			pj.limitBias = -lc / dt
		} else {
			pj.limitBias = 0
		}
	} else {
		j.limit = LimitInactive
		pj.limitK = 0
	}
	if j.limit == LimitInactive {
		pj.limitAccum = 0
	}

	if warmStarting {
		pj.applyRowImpulse(pj.perp, pj.s1, pj.s2, pj.perpAccum)
		j.BodyA.angularVelocity -= j.BodyA.invMom * pj.angAccum
		j.BodyB.angularVelocity += j.BodyB.invMom * pj.angAccum
		pj.applyRowImpulse(pj.axis, pj.a1, pj.a2, pj.limitAccum)
	} else {
		pj.perpAccum = 0
		pj.angAccum = 0
		pj.limitAccum = 0
	}
}

func (pj *PrismaticJoint) applyRowImpulse(dir Vector, s1, s2, lambda float64) {
	j := pj.Joint
	impulse := dir.Mul(lambda)
	j.BodyA.velocity = j.BodyA.velocity.Sub(impulse.Mul(j.BodyA.invMass))
	j.BodyA.angularVelocity -= j.BodyA.invMom * s1 * lambda
	j.BodyB.velocity = j.BodyB.velocity.Add(impulse.Mul(j.BodyB.invMass))
	j.BodyB.angularVelocity += j.BodyB.invMom * s2 * lambda
}

func (pj *PrismaticJoint) rowVelocity(dir Vector, s1, s2 float64) float64 {
	j := pj.Joint
	vA := dir.Dot(j.BodyA.velocity) - s1*j.BodyA.angularVelocity
	vB := dir.Dot(j.BodyB.velocity) + s2*j.BodyB.angularVelocity
	return vB - vA
}

func (pj *PrismaticJoint) solveVelocity() {
	j := pj.Joint

	if pj.angK != 0 {
		cdot := j.BodyB.angularVelocity - j.BodyA.angularVelocity
		dLambda := -pj.angK * (cdot + pj.angBias)
		pj.angAccum += dLambda
		j.BodyA.angularVelocity -= j.BodyA.invMom * dLambda
		j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
	}

	if pj.perpK != 0 {
		cdot := pj.rowVelocity(pj.perp, pj.s1, pj.s2)
		dLambda := -pj.perpK * (cdot + pj.perpBias)
		pj.perpAccum += dLambda
		pj.applyRowImpulse(pj.perp, pj.s1, pj.s2, dLambda)
	}

	if pj.limitK != 0 {
		cdot := pj.rowVelocity(pj.axis, pj.a1, pj.a2)
		dLambda := -pj.limitK * (cdot + pj.limitBias)
		newAccum := pj.limitAccum + dLambda
		switch j.limit {
		case LimitAtLower:
			newAccum = math.Max(newAccum, 0)
		case LimitAtUpper:
			newAccum = math.Min(newAccum, 0)
		}
		dLambda = newAccum - pj.limitAccum
		pj.limitAccum = newAccum
		pj.applyRowImpulse(pj.axis, pj.a1, pj.a2, dLambda)
	}
}

func (pj *PrismaticJoint) solvePosition() bool {
	j := pj.Joint
	worldAnchor1 := j.BodyA.localToWorld(pj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(pj.Anchor2)
	axis := Rotate(pj.LocalAxis, j.BodyA.rotation)
	perp := Perp(axis)
	d := worldAnchor2.Sub(worldAnchor1)

	r1 := worldAnchor1.Sub(j.BodyA.worldCenter())
	r2 := worldAnchor2.Sub(j.BodyB.worldCenter())
	s1 := Cross(d.Add(r1), perp)
	s2 := Cross(r2, perp)

	cPerp := d.Dot(perp)
	kPerp := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*s1*s1 + j.BodyB.invMom*s2*s2
	ok := true
	if kPerp > 0 {
		correction := ClampF(cPerp, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
		lambda := -correction / kPerp
		pj.applyPositionalRow(perp, s1, s2, lambda)
		if math.Abs(correction) > j.cfg.LinearSlop {
			ok = false
		}
	}

	cAng := j.BodyB.angle - j.BodyA.angle - pj.ReferenceAngle
	kAng := j.BodyA.invMom + j.BodyB.invMom
	if kAng > 0 && math.Abs(cAng) > j.cfg.LinearSlop {
		correction := ClampF(cAng, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
		lambda := -correction / kAng
		j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*lambda)
		j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*lambda)
		ok = false
	}

	return ok
}

func (pj *PrismaticJoint) applyPositionalRow(dir Vector, s1, s2, lambda float64) {
	j := pj.Joint
	impulse := dir.Mul(lambda)
	j.BodyA.position = j.BodyA.position.Sub(impulse.Mul(j.BodyA.invMass))
	j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*s1*lambda)
	j.BodyB.position = j.BodyB.position.Add(impulse.Mul(j.BodyB.invMass))
	j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*s2*lambda)
}

func (pj *PrismaticJoint) serialize() map[string]any {
	m := map[string]any{
		"anchorA":        pj.Anchor1,
		"anchorB":        pj.Anchor2,
		"axis":           pj.LocalAxis,
		"referenceAngle": pj.ReferenceAngle,
	}
	if pj.HasLimit {
		m["min"] = pj.Min
		m["max"] = pj.Max
	}
	return m
}
