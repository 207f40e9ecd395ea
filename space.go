package physics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// PostSolveFunc is invoked once per ContactSolver at the end of every step
// (spec §4.5 step 11). It must not mutate world topology (spec §5) — Space
// enforces that with the same lock-depth guard AddBody/AddJoint use.
type PostSolveFunc func(cs *ContactSolver)

// StepStats is the per-step diagnostic record spec §6 calls "Stats
// (produced)". Populated with time.Now()/time.Since, the grounded choice
// per SPEC_FULL.md §4.7 (no repo in the retrieval pack reaches for a
// metrics library for this).
type StepStats struct {
	SpaceID uuid.UUID

	CollisionTime      time.Duration
	InitTime           time.Duration
	VelocitySolveTime  time.Duration
	PositionSolveTime  time.Duration
	PositionIterations int
	NumContacts        int
	NumBodies          int
	NumJoints          int
}

type shapePairKey struct {
	a, b uint
}

// Space is the world: it owns every Body and Joint, runs broad-phase
// pairing and manifold persistence, and drives the step pipeline (spec §3,
// §4.5). Per spec §9 the process-wide id counters the teacher's Chipmunk
// port would otherwise carry as globals are fields here instead, reset by
// Clear.
type Space struct {
	id uuid.UUID

	gravity Vector
	damping float64

	cfg SolverConfig

	collide CollideFunc
	logger  Logger

	bodies map[uint]*Body
	joints map[uint]*Joint

	contacts map[shapePairKey]*ContactSolver

	nextBodyID  uint
	nextShapeID uint
	nextJointID uint

	stepCount uint
	locked    int

	postSolve PostSolveFunc
}

// NewSpace creates an empty Space with spec §6's suggested defaults.
func NewSpace() *Space {
	return &Space{
		id:       uuid.New(),
		gravity:  VectorZero(),
		damping:  1.0,
		cfg:      DefaultSolverConfig(),
		collide:  BasicCollide,
		logger:   noopLogger{},
		bodies:   make(map[uint]*Body),
		joints:   make(map[uint]*Joint),
		contacts: make(map[shapePairKey]*ContactSolver),
	}
}

func (space *Space) ID() uuid.UUID { return space.id }

func (space *Space) SetGravity(gravity Vector) { space.gravity = gravity }
func (space *Space) Gravity() Vector           { return space.gravity }

// SetDamping installs the global linear/angular damping coefficient applied
// per step as damping^dt (spec §3).
func (space *Space) SetDamping(damping float64) { space.damping = damping }
func (space *Space) Damping() float64           { return space.damping }

func (space *Space) SetConfig(cfg SolverConfig) { space.cfg = cfg }
func (space *Space) Config() SolverConfig       { return space.cfg }

// SetCollideFunc installs the external narrow-phase kernel (spec §1, §6).
// Defaults to BasicCollide.
func (space *Space) SetCollideFunc(f CollideFunc) { space.collide = f }

func (space *Space) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	space.logger = l
}

// SetPostSolve registers the single post-solve hook (spec §4.5 step 11,
// §5).
func (space *Space) SetPostSolve(f PostSolveFunc) { space.postSolve = f }

func (space *Space) StepCount() uint { return space.stepCount }

func (space *Space) assertUnlocked(op string) {
	assert(space.locked == 0, fmt.Sprintf("physics: %s while a step is in progress", op))
}

// AddBody registers body with the space, assigning it a monotonic id and
// caching its shape geometry. Any shapes already attached via Body.AddShape
// are assigned shape ids too, so the common construction order
// (body.AddShape(shape) ... space.AddBody(body)) needs no separate
// per-shape registration call.
func (space *Space) AddBody(body *Body) *Body {
	space.assertUnlocked("AddBody")
	assert(body.space == nil, "physics: body already belongs to a Space")

	space.nextBodyID++
	body.id = space.nextBodyID
	body.space = space
	space.bodies[body.id] = body

	for _, s := range body.shapes {
		if s.id == 0 {
			space.nextShapeID++
			s.id = space.nextShapeID
		}
		s.space = space
	}
	body.CacheData()
	return body
}

// AddShape attaches shape to its body's registry (the shape's Body must
// already be set, via Body.AddShape) and assigns it an id, matching the
// teacher's two-step "body.AddShape(shape); space.AddShape(shape)"
// convention. Mass data is recomputed afterwards.
func (space *Space) AddShape(shape *Shape) *Shape {
	space.assertUnlocked("AddShape")
	assert(shape.body != nil, "physics: shape must be attached to a body (Body.AddShape) before Space.AddShape")

	if shape.id == 0 {
		space.nextShapeID++
		shape.id = space.nextShapeID
	}
	shape.space = space
	shape.body.ResetMassData()
	if shape.body.space != nil {
		shape.body.CacheData()
	}
	return shape
}

// RemoveBody unregisters body, cascading removal of every joint attached to
// it (spec §3: "Ownership: ... removal of a Body cascades removal of all
// its Joints") and dropping any live contact solver touching one of its
// shapes.
func (space *Space) RemoveBody(body *Body) {
	space.assertUnlocked("RemoveBody")

	for jid := range copyIDSet(body.jointIDs) {
		if j, ok := space.joints[jid]; ok {
			space.RemoveJoint(j)
		}
	}
	for key, cs := range space.contacts {
		s1, s2 := cs.Shapes()
		if s1.body == body || s2.body == body {
			delete(space.contacts, key)
		}
	}
	delete(space.bodies, body.id)
	body.space = nil
}

func copyIDSet(set map[uint]struct{}) map[uint]struct{} {
	out := make(map[uint]struct{}, len(set))
	for id := range set {
		out[id] = struct{}{}
	}
	return out
}

// AddJoint registers a concrete joint's embedded *Joint, assigning an id and
// waking both endpoints (spec §4.6: "adding/removing a joint wakes both
// endpoints").
func (space *Space) AddJoint(j *Joint) *Joint {
	space.assertUnlocked("AddJoint")
	assert(j.space == nil, "physics: joint already belongs to a Space")

	space.nextJointID++
	j.id = space.nextJointID
	j.space = space
	j.cfg = space.cfg
	space.joints[j.id] = j

	j.BodyA.jointIDs[j.id] = struct{}{}
	j.BodyB.jointIDs[j.id] = struct{}{}
	j.BodyA.Activate()
	j.BodyB.Activate()
	return j
}

// RemoveJoint unregisters j, waking both endpoints.
func (space *Space) RemoveJoint(j *Joint) {
	space.assertUnlocked("RemoveJoint")
	space.removeJointByID(j.id)
}

func (space *Space) removeJointByID(id uint) {
	j, ok := space.joints[id]
	if !ok {
		return
	}
	delete(space.joints, id)
	delete(j.BodyA.jointIDs, id)
	delete(j.BodyB.jointIDs, id)
	j.space = nil
	j.BodyA.Activate()
	j.BodyB.Activate()
}

// Joint looks up a joint by id; ok is false if it isn't registered (e.g. it
// broke and was removed).
func (space *Space) Joint(id uint) (*Joint, bool) {
	j, ok := space.joints[id]
	return j, ok
}

func (space *Space) Body(id uint) (*Body, bool) {
	b, ok := space.bodies[id]
	return b, ok
}

// Clear tears down every body, shape, joint, and contact solver and resets
// the id counters (spec §3: "Process-wide monotonic id counters ... are
// reset by Space.clear").
func (space *Space) Clear() {
	space.assertUnlocked("Clear")
	for _, b := range space.bodies {
		b.space = nil
	}
	for _, j := range space.joints {
		j.space = nil
	}
	space.bodies = make(map[uint]*Body)
	space.joints = make(map[uint]*Joint)
	space.contacts = make(map[shapePairKey]*ContactSolver)
	space.nextBodyID = 0
	space.nextShapeID = 0
	space.nextJointID = 0
	space.stepCount = 0
}

// EachBody invokes f for every body in stable (id-sorted) order (spec §9).
func (space *Space) EachBody(f func(*Body)) {
	for _, id := range space.sortedBodyIDs() {
		f(space.bodies[id])
	}
}

// EachJoint invokes f for every joint in stable (id-sorted) order.
func (space *Space) EachJoint(f func(*Joint)) {
	for _, id := range space.sortedJointIDs() {
		f(space.joints[id])
	}
}

func (space *Space) sortedBodyIDs() []uint {
	ids := make([]uint, 0, len(space.bodies))
	for id := range space.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (space *Space) sortedJointIDs() []uint {
	ids := make([]uint, 0, len(space.joints))
	for id := range space.joints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (space *Space) sortedContactKeys() []shapePairKey {
	keys := make([]shapePairKey, 0, len(space.contacts))
	for k := range space.contacts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	return keys
}

// wake and retypeBody are the hooks Body.Activate/Body.SetType call back
// into; Space has no per-body dirty bookkeeping to maintain beyond what
// Body itself tracks (the next Step's broad phase reads b.awake/b.kind
// directly), so both are logging points rather than state transitions.
func (space *Space) wake(b *Body) {
	space.logger.Debugf("body %d activated", b.id)
}

func (space *Space) retypeBody(b *Body) {
	space.logger.Debugf("body %d retyped to %s", b.id, b.kind)
}

// orderShapes returns (s1, s2) satisfying the manifold ordering invariant
// shape1.Kind() <= shape2.Kind() (spec §3), breaking kind ties by shape id
// so the same pair always orders the same way across steps.
func orderShapes(a, b *Shape) (*Shape, *Shape) {
	if a.kind < b.kind || (a.kind == b.kind && a.id <= b.id) {
		return a, b
	}
	return b, a
}

// bodiesCollidable implements spec §4.1's collidability rule: at least one
// dynamic body, and — for any collideConnected=false joint linking them —
// not linked by it.
func (space *Space) bodiesCollidable(a, b *Body) bool {
	if a.kind != BodyDynamic && b.kind != BodyDynamic {
		return false
	}
	for jid := range a.jointIDs {
		j, ok := space.joints[jid]
		if !ok || j.CollideConnected {
			continue
		}
		if (j.BodyA == a && j.BodyB == b) || (j.BodyA == b && j.BodyB == a) {
			return false
		}
	}
	return true
}

// bodyInactive reports whether b can be skipped as a broad-phase partner:
// asleep dynamic bodies and static bodies never need testing against each
// other (spec §4.5: "skip if both asleep-or-static").
func bodyInactive(b *Body) bool {
	return b.kind == BodyStatic || (b.kind == BodyDynamic && !b.awake)
}

// regenerateContacts is step 1 of spec §4.5: broad-phase pairing,
// narrow-phase collection, and manifold persistence. It returns the total
// number of contact points produced this step.
func (space *Space) regenerateContacts() int {
	ids := space.sortedBodyIDs()
	numContacts := 0

	for i := 0; i < len(ids); i++ {
		a := space.bodies[ids[i]]
		for k := i + 1; k < len(ids); k++ {
			b := space.bodies[ids[k]]

			if bodyInactive(a) && bodyInactive(b) {
				continue
			}
			if !space.bodiesCollidable(a, b) {
				continue
			}
			if !a.aabb.Intersects(b.aabb) {
				continue
			}

			for _, sa := range a.shapes {
				for _, sb := range b.shapes {
					if sa.Filter.Reject(sb.Filter) {
						continue
					}
					if !sa.bb.Intersects(sb.bb) {
						continue
					}

					s1, s2 := orderShapes(sa, sb)
					points := space.collide(s1, s2)
					if len(points) == 0 {
						continue
					}

					key := shapePairKey{s1.id, s2.id}
					cs, existing := space.contacts[key]
					if !existing {
						cs = NewContactSolver(s1, s2)
						space.contacts[key] = cs
						a.Activate()
						b.Activate()
						space.logger.Debugf("new contact manifold: shapes %d,%d", s1.id, s2.id)
					}
					cs.Update(points, points[0].Normal)
					cs.stamp = space.stepCount
					a.lastTouched = space.stepCount
					b.lastTouched = space.stepCount
					numContacts += len(points)
				}
			}
		}
	}

	for key, cs := range space.contacts {
		if cs.stamp != space.stepCount {
			delete(space.contacts, key)
		}
	}
	return numContacts
}

func (space *Space) propagateJointWake(jointIDs []uint) {
	for _, jid := range jointIDs {
		j := space.joints[jid]
		awakeA := j.BodyA.kind != BodyStatic && j.BodyA.awake
		awakeB := j.BodyB.kind != BodyStatic && j.BodyB.awake
		if awakeA == awakeB {
			continue
		}
		if awakeA {
			j.BodyB.Activate()
		} else {
			j.BodyA.Activate()
		}
	}
}

// Step advances the world by dt, following the twelve-step procedure of
// spec §4.5 exactly. It panics with a ContractViolation if called
// re-entrantly (e.g. from inside the postSolve hook), per spec §5/§7.
func (space *Space) Step(dt float64, velIterations, posIterations int, warmStarting, allowSleep bool) StepStats {
	space.assertUnlocked("Step")
	space.locked++
	defer func() { space.locked-- }()

	space.stepCount++
	stats := StepStats{
		SpaceID:   space.id,
		NumBodies: len(space.bodies),
		NumJoints: len(space.joints),
	}

	// 1. Regenerate contact solvers (broad phase + narrow phase + manifold
	// persistence).
	t0 := time.Now()
	stats.NumContacts = space.regenerateContacts()
	stats.CollisionTime = time.Since(t0)

	bodyIDs := space.sortedBodyIDs()
	jointIDs := space.sortedJointIDs()
	contactKeys := space.sortedContactKeys()

	dtInv := 0.0
	if dt > 0 {
		dtInv = 1.0 / dt
	}

	// 2. Init contact solvers and joints.
	t0 = time.Now()
	for _, key := range contactKeys {
		space.contacts[key].Init(space.cfg)
	}
	for _, jid := range jointIDs {
		j := space.joints[jid]
		j.cfg = space.cfg
		j.InitSolver(dt, warmStarting)
	}
	stats.InitTime = time.Since(t0)

	// 3. Warm start (or clear accumulators).
	for _, key := range contactKeys {
		space.contacts[key].WarmStart(warmStarting)
	}

	// 4. Integrate external forces into velocities, with damping scaled to dt.
	damping := math.Pow(space.damping, dt)
	for _, id := range bodyIDs {
		b := space.bodies[id]
		if b.kind == BodyDynamic && !b.awake {
			continue
		}
		b.UpdateVelocity(space.gravity, damping, dt)
	}

	// 5. Wake propagation across joints.
	space.propagateJointWake(jointIDs)

	// 6. Velocity solver: joints before contacts, every iteration (spec
	// §4.5 step 6's explicit ordering contract).
	t0 = time.Now()
	for iter := 0; iter < velIterations; iter++ {
		for _, jid := range jointIDs {
			space.joints[jid].SolveVelocityConstraints()
		}
		for _, key := range contactKeys {
			space.contacts[key].SolveVelocity()
		}
	}
	stats.VelocitySolveTime = time.Since(t0)

	// 7. Integrate velocities into positions.
	for _, id := range bodyIDs {
		b := space.bodies[id]
		if b.kind == BodyDynamic && !b.awake {
			continue
		}
		b.UpdatePosition(dt)
	}

	// 8. Breakable joints.
	var broken []uint
	for _, jid := range jointIDs {
		j := space.joints[jid]
		if !j.Breakable {
			continue
		}
		force := j.GetReactionForce(dtInv)
		if LengthSq(force) >= j.MaxForce*j.MaxForce {
			broken = append(broken, jid)
		}
	}
	for _, jid := range broken {
		j := space.joints[jid]
		space.logger.Warnf("joint %d (%s) broke: reaction force exceeded maxForce=%.4g", jid, j.kind, j.MaxForce)
		space.removeJointByID(jid)
	}
	if len(broken) > 0 {
		jointIDs = space.sortedJointIDs()
	}

	// 9. Position solver: contacts before joints, early exit when all
	// report solved.
	t0 = time.Now()
	positionSolved := false
	iterationsRun := 0
	for iterationsRun = 0; iterationsRun < posIterations; iterationsRun++ {
		allOK := true
		for _, key := range contactKeys {
			if !space.contacts[key].SolvePosition(space.cfg) {
				allOK = false
			}
		}
		for _, jid := range jointIDs {
			if !space.joints[jid].SolvePositionConstraints() {
				allOK = false
			}
		}
		if allOK {
			iterationsRun++
			positionSolved = true
			break
		}
	}
	stats.PositionIterations = iterationsRun
	stats.PositionSolveTime = time.Since(t0)

	// 10. Sync transforms and recache data for awake, non-static bodies.
	for _, id := range bodyIDs {
		b := space.bodies[id]
		if b.kind == BodyStatic {
			continue
		}
		if b.kind == BodyDynamic && !b.awake {
			continue
		}
		b.CacheData()
		b.SyncTransform()
	}

	// 11. postSolve hook, once per contact solver.
	if space.postSolve != nil {
		for _, key := range contactKeys {
			space.postSolve(space.contacts[key])
		}
	}

	// 12. Sleep accounting.
	space.updateSleep(bodyIDs, dt, allowSleep, positionSolved)

	return stats
}

// updateSleep implements spec §4.6 exactly: accumulate sleepTime on
// dynamic bodies under tolerance, reset it otherwise, and put every dynamic
// body to sleep once the position solver reports solved and the minimum
// sleepTime across awake dynamic bodies clears TimeToSleep.
func (space *Space) updateSleep(bodyIDs []uint, dt float64, allowSleep bool, positionSolved bool) {
	if !allowSleep {
		for _, id := range bodyIDs {
			space.bodies[id].sleepTime = 0
		}
		return
	}

	angTol := space.cfg.SleepAngularTolerance
	linTol := space.cfg.SleepLinearTolerance

	minSleepTime := math.Inf(1)
	anyAwakeDynamic := false
	for _, id := range bodyIDs {
		b := space.bodies[id]
		if b.kind != BodyDynamic || !b.awake {
			continue
		}
		anyAwakeDynamic = true
		if b.angularVelocity*b.angularVelocity <= angTol*angTol && LengthSq(b.velocity) <= linTol*linTol {
			b.sleepTime += dt
		} else {
			b.sleepTime = 0
		}
		if b.sleepTime < minSleepTime {
			minSleepTime = b.sleepTime
		}
	}

	if anyAwakeDynamic && positionSolved && minSleepTime >= space.cfg.TimeToSleep {
		for _, id := range bodyIDs {
			b := space.bodies[id]
			if b.kind == BodyDynamic {
				b.Sleep()
			}
		}
	}
}

// FindBodyAt returns the first body (in id order) whose cached AABB
// contains point — an authoring query per spec §4.5 ("find ... by point").
func (space *Space) FindBodyAt(point Vector) (*Body, bool) {
	for _, id := range space.sortedBodyIDs() {
		b := space.bodies[id]
		if pointInBB(point, b.aabb) {
			return b, true
		}
	}
	return nil, false
}

// FindShapeAt returns the first shape (in body id, then shape id order)
// whose cached world geometry contains point.
func (space *Space) FindShapeAt(point Vector) (*Shape, bool) {
	for _, bid := range space.sortedBodyIDs() {
		b := space.bodies[bid]
		shapes := make([]*Shape, len(b.shapes))
		copy(shapes, b.shapes)
		sort.Slice(shapes, func(i, j int) bool { return shapes[i].id < shapes[j].id })
		for _, s := range shapes {
			if shapeContainsPoint(s, point) {
				return s, true
			}
		}
	}
	return nil, false
}

// FindJointAt returns the first joint (in id order) with an endpoint anchor
// within tolerance of point.
func (space *Space) FindJointAt(point Vector, tolerance float64) (*Joint, bool) {
	for _, id := range space.sortedJointIDs() {
		j := space.joints[id]
		wa := j.BodyA.worldCenter().Add(j.r1)
		wb := j.BodyB.worldCenter().Add(j.r2)
		if wa.Sub(point).Len() <= tolerance || wb.Sub(point).Len() <= tolerance {
			return j, true
		}
	}
	return nil, false
}

func pointInBB(p Vector, bb BB) bool {
	return p[0] >= bb.L && p[0] <= bb.R && p[1] >= bb.B && p[1] <= bb.T
}

func shapeContainsPoint(s *Shape, p Vector) bool {
	switch s.kind {
	case ShapeCircle:
		c := s.worldCircle
		return c.Center.Sub(p).Len() <= c.Radius
	case ShapeSegment:
		seg := s.worldSegment
		ab := seg.B.Sub(seg.A)
		denom := ab.Dot(ab)
		if denom == 0 {
			return seg.A.Sub(p).Len() <= seg.Radius
		}
		t := Clamp01(p.Sub(seg.A).Dot(ab) / denom)
		closest := seg.A.Add(ab.Mul(t))
		return closest.Sub(p).Len() <= seg.Radius
	case ShapePoly:
		return pointInBB(p, s.bb) && pointInConvexPoly(p, s.worldPoly.Verts)
	}
	return false
}

func pointInConvexPoly(p Vector, verts []Vector) bool {
	n := len(verts)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		if Cross(b.Sub(a), p.Sub(a)) < 0 {
			return false
		}
	}
	return true
}
