package physics

// LimitState classifies a joint's current relationship to its bounds
// (spec §3 GLOSSARY).
type LimitState int

const (
	LimitInactive LimitState = iota
	LimitAtLower
	LimitAtUpper
	LimitEqual
)

// JointKind names a concrete joint variant, matching the scene JSON "type"
// field (spec §6).
type JointKind string

const (
	JointRope           JointKind = "RopeJoint"
	JointDistance       JointKind = "DistanceJoint"
	JointPivot          JointKind = "PivotJoint"
	JointRotaryLimit    JointKind = "RotaryLimitJoint"
	JointRevolute       JointKind = "RevoluteJoint"
	JointWeld           JointKind = "WeldJoint"
	JointPrismatic      JointKind = "PrismaticJoint"
	JointLine           JointKind = "LineJoint"
	JointDistanceSpring JointKind = "DistanceSpringJoint"
	JointAngle          JointKind = "AngleJoint"
)

// JointClass is the dispatch table every concrete joint installs on its
// embedded Joint base, grounded on the teacher's Constraint.Class field
// (space.go: "constraint.Class.PreStep(constraint, dt)",
// "constraint.Class.ApplyImpulse(constraint, dt)") and spec §9's "a
// dispatch table of four function pointers... is sufficient". Each concrete
// joint's constructor closes these functions over its own receiver, so the
// table holds no Joint parameter and no type assertion is needed to reach
// the concrete joint's extra fields (length, limits, motor...).
type JointClass struct {
	InitSolver    func(dt float64, warmStarting bool)
	SolveVelocity func()
	SolvePosition func() bool
	Serialize     func() map[string]any

	// ReactionForce/ReactionTorque are optional: joints whose accumulated
	// impulse lives in the shared scalar Joint.accum/u fields (rope,
	// distance, distance-spring) leave these nil and get the default
	// u*accum/zero-torque computation below. Joints with their own
	// accumulators set these: pivot, revolute, weld, prismatic and line
	// report their reaction force; revolute, weld, prismatic, rotary limit
	// and angle report their reaction torque. Rotary limit and angle joints
	// set no ReactionForce, so their reaction force reads as zero and the
	// force-based breakage check never breaks them.
	ReactionForce  func(dtInv float64) Vector
	ReactionTorque func(dtInv float64) float64
}

// Joint is the shared state every concrete joint embeds (spec §3, §4.3).
// Concrete joints (RopeJoint, PivotJoint, ...) embed *Joint and install a
// JointClass plus their own extra fields (length, limits, motor...).
type Joint struct {
	id   uint
	kind JointKind

	BodyA, BodyB     *Body
	CollideConnected bool
	MaxForce         float64
	Breakable        bool

	class *JointClass

	// Cached Jacobian pieces, shared shape across joint variants (spec §3).
	r1, r2 Vector
	u      Vector // unit constraint direction
	s1, s2 float64

	effMass float64 // em (scalar joints) — vector joints keep their own 2x2 block
	bias    float64 // cdt

	limit LimitState

	accum float64 // scalar accumulated impulse (lambda_acc), joint-specific meaning

	cfg SolverConfig // refreshed by Space before each position-solver pass

	space *Space
}

func (j *Joint) ID() uint           { return j.id }
func (j *Joint) Kind() JointKind    { return j.kind }
func (j *Joint) Limit() LimitState  { return j.limit }
func (j *Joint) Accumulator() float64 { return j.accum }

// InitSolver dispatches to the concrete joint's solver setup (spec §4.3).
func (j *Joint) InitSolver(dt float64, warmStarting bool) {
	j.class.InitSolver(dt, warmStarting)
}

// SolveVelocityConstraints dispatches to the concrete joint (spec §4.3).
func (j *Joint) SolveVelocityConstraints() {
	j.class.SolveVelocity()
}

// SolvePositionConstraints dispatches to the concrete joint, returning true
// when the joint is within slop (spec §4.3).
func (j *Joint) SolvePositionConstraints() bool {
	return j.class.SolvePosition()
}

// GetReactionForce returns the last solved impulse scaled into a force
// (impulse / dt), along the joint's cached constraint direction, per
// spec §4.3/§4.4.
func (j *Joint) GetReactionForce(dtInv float64) Vector {
	if j.class.ReactionForce != nil {
		return j.class.ReactionForce(dtInv)
	}
	return j.u.Mul(j.accum * dtInv)
}

// GetReactionTorque returns the reaction torque; scalar linear joints (rope,
// distance, distance-spring) have none, matching spec §4.4 ("reaction
// torque = 0"). Joints with an angular row install JointClass.ReactionTorque
// to report it instead.
func (j *Joint) GetReactionTorque(dtInv float64) float64 {
	if j.class.ReactionTorque != nil {
		return j.class.ReactionTorque(dtInv)
	}
	return 0
}

// Serialize dispatches to the concrete joint's field-to-map encoder, used
// by scene.go to round-trip the scene JSON (spec §4.3, §6).
func (j *Joint) Serialize() map[string]any {
	m := j.class.Serialize()
	m["type"] = string(j.kind)
	m["body1"] = j.BodyA.id
	m["body2"] = j.BodyB.id
	m["collideConnected"] = j.CollideConnected
	m["maxForce"] = j.MaxForce
	m["breakable"] = j.Breakable
	return m
}

// jacobianPoints caches r1 = anchor1-in-world - bodyA.worldCenter and
// likewise r2, the shared first step of every concrete joint's InitSolver.
func (j *Joint) jacobianPoints(anchor1, anchor2 Vector) {
	j.r1 = anchor1.Sub(j.BodyA.worldCenter())
	j.r2 = anchor2.Sub(j.BodyB.worldCenter())
}

// linearSlopDegenerate is the threshold below which a constraint direction
// is treated as degenerate (spec §4.4: "When distance is below a linear
// slop, u is taken as zero"). It is intentionally far smaller than the
// solver-wide LinearSlop tuning constant: this one only guards a division,
// it does not gate position correction.
const linearSlopDegenerate = 1e-9
