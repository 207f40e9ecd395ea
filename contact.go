package physics

import "math"

// FeatureID identifies which local features (vertex/edge indices) produced
// a contact point, so a manifold can match points across steps for warm
// starting (spec §3).
type FeatureID struct {
	A, B int32
}

// ContactPoint is one point of a contact manifold (spec §3).
type ContactPoint struct {
	Position    Vector
	Normal      Vector // from shape1 towards shape2
	Penetration float64
	Feature     FeatureID

	// Solver state, persisted across steps when Feature matches.
	normalImpulse  float64 // jn_acc
	tangentImpulse float64 // jt_acc
	bias           float64
	effMassNormal  float64 // en
	effMassTangent float64 // et

	// r1Local/r2Local are the contact point's offset from each body's
	// center of mass, expressed in that body's local frame at Init time.
	// Recomputing the world anchor each position-solve iteration from
	// these (rather than freezing a world-space r) keeps the separation
	// estimate consistent as bodies rotate during position correction.
	r1Local, r2Local Vector
	r1, r2           Vector // current world-frame offsets, refreshed by Init
}

func (cp *ContactPoint) NormalImpulse() float64  { return cp.normalImpulse }
func (cp *ContactPoint) TangentImpulse() float64 { return cp.tangentImpulse }

// ContactSolver is the persistent manifold + sequential-impulse solver for
// one shape pair (spec §3, §4.2). shape1.Kind() <= shape2.Kind() is an
// invariant maintained by whoever constructs it (Space.regenerateContacts).
type ContactSolver struct {
	shape1, shape2 *Shape
	restitution    float64 // max(e1, e2)
	friction       float64 // sqrt(u1 * u2)
	normal         Vector  // separating normal, shape1 -> shape2

	points []ContactPoint

	stamp uint // last step this manifold was touched, for GC by Space
}

// restitutionThreshold is the minimum closing speed below which no
// restitution bias is applied, matching the teacher's treatment of resting
// contacts (space.go's collisionBias damps persistent penetration, not
// impact velocity, so a hard speed cutoff keeps resting contacts silent).
const restitutionThreshold = 1.0

// NewContactSolver builds a solver for a shape pair, combining material
// properties per spec §3 ("combined e (max) and u (geometric mean)").
func NewContactSolver(s1, s2 *Shape) *ContactSolver {
	assert(s1.kind <= s2.kind, "ContactSolver requires shape1.Kind() <= shape2.Kind()")
	return &ContactSolver{
		shape1:      s1,
		shape2:      s2,
		restitution: math.Max(s1.Mat.Restitution, s2.Mat.Restitution),
		friction:    math.Sqrt(math.Max(s1.Mat.Friction*s2.Mat.Friction, 0)),
	}
}

func (cs *ContactSolver) Shapes() (*Shape, *Shape) { return cs.shape1, cs.shape2 }
func (cs *ContactSolver) Points() []ContactPoint   { return cs.points }

// Update replaces the manifold's points with newPoints, carrying forward
// accumulators from any prior point whose Feature matches (spec §3, §4.5
// "Manifold persistence").
func (cs *ContactSolver) Update(newPoints []ContactPoint, normal Vector) {
	for i := range newPoints {
		for _, old := range cs.points {
			if old.Feature == newPoints[i].Feature {
				newPoints[i].normalImpulse = old.normalImpulse
				newPoints[i].tangentImpulse = old.tangentImpulse
				break
			}
		}
	}
	cs.points = newPoints
	cs.normal = normal
}

// Init computes per-point Jacobian pieces, effective masses, and bias
// velocity (spec §4.2 "Init").
func (cs *ContactSolver) Init(cfg SolverConfig) {
	b1, b2 := cs.shape1.body, cs.shape2.body
	n := cs.normal
	t := Perp(n)

	for i := range cs.points {
		p := &cs.points[i]
		p.r1 = p.Position.Sub(b1.worldCenter())
		p.r2 = p.Position.Sub(b2.worldCenter())
		p.r1Local = Unrotate(p.r1, b1.rotation)
		p.r2Local = Unrotate(p.r2, b2.rotation)

		rn1 := Cross(p.r1, n)
		rn2 := Cross(p.r2, n)
		kn := b1.invMass + b2.invMass + b1.invMom*rn1*rn1 + b2.invMom*rn2*rn2
		if kn > 0 {
			p.effMassNormal = 1.0 / kn
		} else {
			p.effMassNormal = 0
		}

		rt1 := Cross(p.r1, t)
		rt2 := Cross(p.r2, t)
		kt := b1.invMass + b2.invMass + b1.invMom*rt1*rt1 + b2.invMom*rt2*rt2
		if kt > 0 {
			p.effMassTangent = 1.0 / kt
		} else {
			p.effMassTangent = 0
		}

		relVel := relativeVelocityAt(b1, b2, p.r1, p.r2)
		closingSpeed := -relVel.Dot(n)
		if closingSpeed > restitutionThreshold {
			p.bias = -cs.restitution * closingSpeed
		} else {
			p.bias = 0
		}
	}
}

// WarmStart applies the persisted accumulators as impulses (spec §4.2
// "Warm start"), or clears them if warm starting is disabled.
func (cs *ContactSolver) WarmStart(enabled bool) {
	b1, b2 := cs.shape1.body, cs.shape2.body
	n := cs.normal
	t := Perp(n)
	for i := range cs.points {
		p := &cs.points[i]
		if !enabled {
			p.normalImpulse = 0
			p.tangentImpulse = 0
			continue
		}
		impulse := n.Mul(p.normalImpulse).Add(t.Mul(p.tangentImpulse))
		applyPointImpulse(b1, b2, p.r1, p.r2, impulse)
	}
}

// SolveVelocity runs one sequential-impulse iteration over every point:
// tangent (friction) before normal, in manifold order, per spec §4.2's
// explicit ordering contract.
func (cs *ContactSolver) SolveVelocity() {
	b1, b2 := cs.shape1.body, cs.shape2.body
	n := cs.normal
	t := Perp(n)

	for i := range cs.points {
		p := &cs.points[i]

		// Friction (tangent) first.
		relVel := relativeVelocityAt(b1, b2, p.r1, p.r2)
		vt := relVel.Dot(t)
		dJt := -p.effMassTangent * vt
		maxJt := cs.friction * p.normalImpulse
		newJt := ClampF(p.tangentImpulse+dJt, -maxJt, maxJt)
		dJt = newJt - p.tangentImpulse
		p.tangentImpulse = newJt
		applyPointImpulse(b1, b2, p.r1, p.r2, t.Mul(dJt))

		// Normal second.
		relVel = relativeVelocityAt(b1, b2, p.r1, p.r2)
		vn := relVel.Dot(n)
		dJn := -p.effMassNormal * (vn - p.bias)
		newJn := p.normalImpulse + dJn
		if newJn < 0 {
			newJn = 0
		}
		dJn = newJn - p.normalImpulse
		p.normalImpulse = newJn
		applyPointImpulse(b1, b2, p.r1, p.r2, n.Mul(dJn))
	}
}

// SolvePosition recomputes separation from the current (post-velocity)
// poses and applies a pseudo-impulse positional correction (spec §4.2
// "Position iteration"). Returns true when the worst separation is within
// slop.
func (cs *ContactSolver) SolvePosition(cfg SolverConfig) bool {
	b1, b2 := cs.shape1.body, cs.shape2.body
	n := cs.normal
	worstSeparation := 0.0

	for i := range cs.points {
		p := &cs.points[i]

		worldP1 := b1.worldCenter().Add(Rotate(p.r1Local, b1.rotation))
		worldP2 := b2.worldCenter().Add(Rotate(p.r2Local, b2.rotation))
		separation := -p.Penetration + worldP2.Sub(worldP1).Dot(n)
		if separation < worstSeparation {
			worstSeparation = separation
		}

		correction := ClampF(separation+cfg.LinearSlop, -cfg.MaxLinearCorrection, 0)
		if correction == 0 {
			continue
		}

		r1 := worldP1.Sub(b1.worldCenter())
		r2 := worldP2.Sub(b2.worldCenter())
		rn1 := Cross(r1, n)
		rn2 := Cross(r2, n)
		k := b1.invMass + b2.invMass + b1.invMom*rn1*rn1 + b2.invMom*rn2*rn2
		if k <= 0 {
			continue
		}
		lambda := -correction / k
		if lambda < 0 {
			lambda = 0
		}
		impulse := n.Mul(lambda)
		applyPointPositionalImpulse(b1, b2, r1, r2, impulse)
	}

	return worstSeparation >= -cfg.LinearSlop
}

func relativeVelocityAt(b1, b2 *Body, r1, r2 Vector) Vector {
	v1 := b1.velocity.Add(CrossSV(b1.angularVelocity, r1))
	v2 := b2.velocity.Add(CrossSV(b2.angularVelocity, r2))
	return v2.Sub(v1)
}

func applyPointImpulse(b1, b2 *Body, r1, r2, impulse Vector) {
	b1.velocity = b1.velocity.Sub(impulse.Mul(b1.invMass))
	b1.angularVelocity -= b1.invMom * Cross(r1, impulse)
	b2.velocity = b2.velocity.Add(impulse.Mul(b2.invMass))
	b2.angularVelocity += b2.invMom * Cross(r2, impulse)
}

func applyPointPositionalImpulse(b1, b2 *Body, r1, r2, impulse Vector) {
	b1.position = b1.position.Sub(impulse.Mul(b1.invMass))
	b1.SetAngle(b1.angle - b1.invMom*Cross(r1, impulse))
	b2.position = b2.position.Add(impulse.Mul(b2.invMass))
	b2.SetAngle(b2.angle + b2.invMom*Cross(r2, impulse))
}
