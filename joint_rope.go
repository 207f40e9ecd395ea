package physics

import "math"

// RopeJoint is the worked example from spec §4.4: an upper-bound distance
// constraint, C = |p2+r2 - p1-r1| - L <= 0.
type RopeJoint struct {
	*Joint
	Anchor1, Anchor2 Vector // body-local anchors
	Length           float64
}

// NewRopeJoint creates a rope joint holding the distance between
// bodyA's Anchor1 and bodyB's Anchor2 to at most length.
func NewRopeJoint(bodyA, bodyB *Body, anchor1, anchor2 Vector, length float64) *RopeJoint {
	rj := &RopeJoint{
		Joint:   &Joint{kind: JointRope, BodyA: bodyA, BodyB: bodyB, CollideConnected: false},
		Anchor1: anchor1,
		Anchor2: anchor2,
		Length:  length,
	}
	rj.Joint.class = &JointClass{
		InitSolver:    rj.initSolver,
		SolveVelocity: rj.solveVelocity,
		SolvePosition: rj.solvePosition,
		Serialize:     rj.serialize,
	}
	return rj
}

func (rj *RopeJoint) initSolver(dt float64, warmStarting bool) {
	j := rj.Joint
	worldAnchor1 := j.BodyA.localToWorld(rj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(rj.Anchor2)
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

	c := dist - rj.Length
	if c > 0 {
		j.limit = LimitAtUpper
		j.bias = 0
	} else {
		j.limit = LimitInactive
		if dt > 0 {
			j.bias = c / dt
		} else {
			j.bias = 0
		}
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

func (rj *RopeJoint) solveVelocity() {
	j := rj.Joint
	if j.effMass == 0 {
		return
	}
	relVel := relativeVelocityAt(j.BodyA, j.BodyB, j.r1, j.r2)
	cdot := relVel.Dot(j.u)
	dLambda := -j.effMass * (cdot + j.bias)

	newAccum := math.Min(j.accum+dLambda, 0)
	dLambda = newAccum - j.accum
	j.accum = newAccum

	impulse := j.u.Mul(dLambda)
	applyPointImpulse(j.BodyA, j.BodyB, j.r1, j.r2, impulse)
}

func (rj *RopeJoint) solvePosition() bool {
	j := rj.Joint
	worldAnchor1 := j.BodyA.localToWorld(rj.Anchor1)
	worldAnchor2 := j.BodyB.localToWorld(rj.Anchor2)
	sep := worldAnchor2.Sub(worldAnchor1)
	dist := sep.Len()
	c := dist - rj.Length
	if c <= 0 {
		return true
	}
	if dist <= linearSlopDegenerate {
		return true
	}
	u := sep.Mul(1.0 / dist)

	r1 := worldAnchor1.Sub(j.BodyA.worldCenter())
	r2 := worldAnchor2.Sub(j.BodyB.worldCenter())
	s1 := Cross(r1, u)
	s2 := Cross(r2, u)
	k := j.BodyA.invMass + j.BodyB.invMass + j.BodyA.invMom*s1*s1 + j.BodyB.invMom*s2*s2
	if k <= 0 {
		return true
	}

	correction := ClampF(c, 0, j.cfg.MaxLinearCorrection)
	lambda := -correction / k
	impulse := u.Mul(lambda)
	applyPointPositionalImpulse(j.BodyA, j.BodyB, r1, r2, impulse)

	return correction <= j.cfg.LinearSlop
}

func (rj *RopeJoint) serialize() map[string]any {
	return map[string]any{
		"anchorA": rj.Anchor1,
		"anchorB": rj.Anchor2,
		"length":  rj.Length,
	}
}
