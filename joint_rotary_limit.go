package physics

import "math"

// RotaryLimitJoint constrains the relative angle a2-a1 to [Min, Max]:
// C = clamp(a2-a1, Min, Max) - (a2-a1), active only when the relative angle
// is outside the range (spec §3's LimitState enum reused here rather than
// invented fresh, per SPEC_FULL §4.5).
type RotaryLimitJoint struct {
	*Joint
	Min, Max float64

	k     float64 // effective mass (angular only)
	accum float64
}

func NewRotaryLimitJoint(bodyA, bodyB *Body, min, max float64) *RotaryLimitJoint {
	rl := &RotaryLimitJoint{
		Joint: &Joint{kind: JointRotaryLimit, BodyA: bodyA, BodyB: bodyB, CollideConnected: true},
		Min:   min,
		Max:   max,
	}
	rl.Joint.class = &JointClass{
		InitSolver:     rl.initSolver,
		SolveVelocity:  rl.solveVelocity,
		SolvePosition:  rl.solvePosition,
		Serialize:      rl.serialize,
		ReactionTorque: func(dtInv float64) float64 { return rl.accum * dtInv },
	}
	return rl
}

func (rl *RotaryLimitJoint) relAngle() float64 {
	return rl.Joint.BodyB.angle - rl.Joint.BodyA.angle
}

func (rl *RotaryLimitJoint) initSolver(dt float64, warmStarting bool) {
	j := rl.Joint
	rel := rl.relAngle()
	clamped := ClampF(rel, rl.Min, rl.Max)
	c := clamped - rel

	switch {
	case rel < rl.Min:
		j.limit = LimitAtLower
	case rel > rl.Max:
		j.limit = LimitAtUpper
	case rl.Min == rl.Max:
		j.limit = LimitEqual
	default:
		j.limit = LimitInactive
	}

	k := j.BodyA.invMom + j.BodyB.invMom
	if k > 0 && j.limit != LimitInactive {
		rl.k = 1.0 / k
	} else {
		rl.k = 0
	}

	if dt > 0 {
		j.bias = -c / dt
	} else {
		j.bias = 0
	}

	if warmStarting && rl.k != 0 {
		j.BodyA.angularVelocity -= j.BodyA.invMom * rl.accum
		j.BodyB.angularVelocity += j.BodyB.invMom * rl.accum
	} else {
		rl.accum = 0
	}
}

func (rl *RotaryLimitJoint) solveVelocity() {
	j := rl.Joint
	if rl.k == 0 {
		return
	}
	cdot := j.BodyB.angularVelocity - j.BodyA.angularVelocity
	dLambda := -rl.k * (cdot + j.bias)

	newAccum := rl.accum + dLambda
	switch j.limit {
	case LimitAtLower:
		newAccum = math.Max(newAccum, 0)
	case LimitAtUpper:
		newAccum = math.Min(newAccum, 0)
	}
	dLambda = newAccum - rl.accum
	rl.accum = newAccum

	j.BodyA.angularVelocity -= j.BodyA.invMom * dLambda
	j.BodyB.angularVelocity += j.BodyB.invMom * dLambda
}

func (rl *RotaryLimitJoint) solvePosition() bool {
	j := rl.Joint
	if j.limit == LimitInactive {
		return true
	}
	rel := rl.relAngle()
	clamped := ClampF(rel, rl.Min, rl.Max)
	c := clamped - rel
	if math.Abs(c) <= j.cfg.LinearSlop {
		return true
	}

	k := j.BodyA.invMom + j.BodyB.invMom
	if k <= 0 {
		return true
	}
	correction := ClampF(c, -j.cfg.MaxLinearCorrection, j.cfg.MaxLinearCorrection)
	lambda := correction / k

	j.BodyA.SetAngle(j.BodyA.angle - j.BodyA.invMom*lambda)
	j.BodyB.SetAngle(j.BodyB.angle + j.BodyB.invMom*lambda)

	return math.Abs(correction) <= j.cfg.LinearSlop
}

func (rl *RotaryLimitJoint) serialize() map[string]any {
	return map[string]any{
		"min": rl.Min,
		"max": rl.Max,
	}
}
