package physics

import "math"

// RevoluteJoint is PivotJoint's two linear rows plus an optional motor row
// and an optional angular limit row, solved in that fixed order each
// iteration (linear, then motor, then limit), mirroring the contact
// solver's "ordering is part of the contract" rule (spec §4.2) applied to a
// joint's internal rows (SPEC_FULL §4.5).
type RevoluteJoint struct {
	*Joint
	Anchor1, Anchor2 Vector

	HasLimit      bool
	MinAngle      float64
	MaxAngle      float64
	HasMotor      bool
	MotorSpeed    float64
	MaxMotorTorque float64

	k11, k12, k22 float64
	biasV         Vector
	accumV        Vector

	motorK     float64
	motorAccum float64

	limitK     float64
	limitBias  float64
	limitAccum float64
}

func NewRevoluteJoint(bodyA, bodyB *Body, anchor1, anchor2 Vector) *RevoluteJoint {
	rj := &RevoluteJoint{
		Joint:   &Joint{kind: JointRevolute, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1: anchor1,
		Anchor2: anchor2,
	}
	rj.Joint.class = &JointClass{
		InitSolver:    rj.initSolver,
		SolveVelocity: rj.solveVelocity,
		SolvePosition: rj.solvePosition,
		Serialize:     rj.serialize,
		ReactionForce: func(dtInv float64) Vector { return rj.accumV.Mul(dtInv) },
		ReactionTorque: func(dtInv float64) float64 {
			return (rj.motorAccum + rj.limitAccum) * dtInv
		},
	}
	return rj
}

func (rj *RevoluteJoint) relAngle() float64 {
	return rj.Joint.BodyB.angle - rj.Joint.BodyA.angle
}

func (rj *RevoluteJoint) initSolver(dt float64, warmStarting bool) {
	j := rj.Joint
	worldAnchor1 := j.BodyA.localToWorld(rj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(rj.Anchor2)
	j.jacobianPoints(worldAnchor1, worldAnchor2)

	rj.k11, rj.k12, rj.k22 = k2x2(j.BodyA, j.BodyB, j.r1, j.r2)
	c := worldAnchor2.Sub(worldAnchor1)
	if dt > 0 {
		rj.biasV = c.Mul(1.0 / dt)
	} else {
		rj.biasV = VectorZero()
	}

	angK := j.BodyA.invMom + j.BodyB.invMom

	if rj.HasMotor && angK > 0 {
		rj.motorK = 1.0 / angK
	} else {
		rj.motorK = 0
	}

	if rj.HasLimit {
		rel := rj.relAngle()
		clamped := ClampF(rel, rj.MinAngle, rj.MaxAngle)
		lc := clamped - rel
		switch {
		case rel < rj.MinAngle:
			j.limit = LimitAtLower
		case rel > rj.MaxAngle:
			j.limit = LimitAtUpper
		case rj.MinAngle == rj.MaxAngle:
			j.limit = LimitEqual
		default:
			j.limit = LimitInactive
		}
		if angK > 0 && j.limit != LimitInactive {
			rj.limitK = 1.0 / angK
		} else {
			rj.limitK = 0
		}
		if dt > 0 {
			rj.limitBias = -lc / dt
		} else {
			rj.limitBias = 0
		}
	} else {
		j.limit = LimitInactive
		rj.limitK = 0
	}
	if j.limit == LimitInactive {
		rj.limitAccum = 0
	}

	if warmStarting {
		applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, rj.accumV)
		j.BodyA.angularVelocity -= j.BodyA.invMom * (rj.motorAccum + rj.limitAccum)
		j.BodyB.angularVelocity += j.BodyB.invMom * (rj.motorAccum + rj.limitAccum)
	} else {
		rj.accumV = VectorZero()
		rj.motorAccum = 0
		rj.limitAccum = 0
	}
}

func (rj *RevoluteJoint) solveVelocity() {
	j := rj.Joint

	// Linear row first.
	relVel := relativeVelocityAt(j.BodyA, j.BodyB, j.r1, j.r2)
	rhs := relVel.Add(rj.biasV)
	impulse := Neg(solve2x2(rj.k11, rj.k12, rj.k22, rhs))
	rj.accumV = rj.accumV.Add(impulse)
	applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)

	// Motor row second.
	if rj.motorK != 0 {
		cdot := j.BodyB.angularVelocity - j.BodyA.angularVelocity - rj.MotorSpeed
		dLambda := -rj.motorK * cdot
		maxImpulse := rj.MaxMotorTorque
		newAccum := ClampF(rj.motorAccum+dLambda, -maxImpulse, maxImpulse)
		dLambda = newAccum - rj.motorAccum
		rj.motorAccum = newAccum
		j.BodyA.angularVelocity -= j.BodyA.invMom * dLambda
		j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
	}

	// Limit row last.
	if rj.limitK != 0 {
		cdot := j.BodyB.angularVelocity - j.BodyA.angularVelocity
		dLambda := -rj.limitK * (cdot + rj.limitBias)
		newAccum := rj.limitAccum + dLambda
		switch j.limit {
		case LimitAtLower:
			newAccum = math.Max(newAccum, 0)
		case LimitAtUpper:
			newAccum = math.Min(newAccum, 0)
		}
		dLambda = newAccum - rj.limitAccum
		rj.limitAccum = newAccum
		j.BodyA.angularVelocity -= j.BodyA.invMom * dLambda
		j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
	}
}

func (rj *RevoluteJoint) solvePosition() bool {
	j := rj.Joint
	worldAnchor1 := j.BodyA.localToWorld(rj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(rj.Anchor2)
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

	if rj.HasLimit && j.limit != LimitInactive {
		rel := rj.relAngle()
		clamped := ClampF(rel, rj.MinAngle, rj.MaxAngle)
		lc := clamped - rel
		if math.Abs(lc) > j.cfg.LinearSlop {
			angK := j.BodyA.invMom + j.BodyB.invMom
			if angK > 0 {
				correction := ClampF(lc, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
				lambda := correction / angK
				j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*lambda)
				j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*lambda)
				ok = false
			}
		}
	}

	return ok
}

func (rj *RevoluteJoint) serialize() map[string]any {
	m := map[string]any{
		"anchorA": rj.Anchor1,
		"anchorB": rj.Anchor2,
	}
	if rj.HasLimit {
		m["min"] = rj.MinAngle
		m["max"] = rj.MaxAngle
	}
	if rj.HasMotor {
		m["motorSpeed"] = rj.MotorSpeed
		m["maxMotorTorque"] = rj.MaxMotorTorque
	}
	return m
}
