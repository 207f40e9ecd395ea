package physics

// BodyType classifies how a Body participates in the simulation (spec §3).
type BodyType int

const (
	// BodyStatic bodies never move: m_inv = i_inv = 0, v = w = 0 permanently.
	BodyStatic BodyType = iota
	// BodyKinematic bodies move under their own prescribed velocity but are
	// not affected by forces or impulses.
	BodyKinematic
	// BodyDynamic bodies are fully simulated.
	BodyDynamic
)

func (t BodyType) String() string {
	switch t {
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	case BodyDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Body is a rigid body: identity, mass/inertia, pose, velocity, sleep
// bookkeeping, and the shapes attached to it (spec §3).
type Body struct {
	id   uint
	kind BodyType

	position Vector
	rotation Vector // unit complex number (cos a, sin a), cached from angle
	angle    float64

	velocity        Vector
	angularVelocity float64

	force  Vector
	torque float64

	mass    float64
	invMass float64
	moment  float64 // moment of inertia
	invMom  float64

	centroid Vector // in body-local frame

	aabb BB

	awake       bool
	sleepTime   float64
	lastTouched uint

	filter ShapeFilter

	jointIDs map[uint]struct{}
	shapes   []*Shape

	space *Space

	userData any
}

// NewBody creates a dynamic body with the given mass and moment of inertia
// and no shapes. Use
// SetType(BodyStatic) / SetType(BodyKinematic) to change its kind, and
// ResetMassData after attaching shapes to derive mass/inertia from them.
func NewBody(mass, moment float64) *Body {
	b := &Body{
		kind:     BodyDynamic,
		rotation: Vector{1, 0},
		awake:    true,
		filter:   ShapeFilterAll,
		jointIDs: make(map[uint]struct{}),
	}
	b.SetMass(mass)
	b.SetMoment(moment)
	return b
}

func (b *Body) ID() uint       { return b.id }
func (b *Body) Type() BodyType { return b.kind }

// SetType changes the body's kind, zeroing velocity and inverse mass/inertia
// for static bodies per spec §3's invariant.
func (b *Body) SetType(t BodyType) {
	b.kind = t
	if t == BodyStatic {
		b.velocity = VectorZero()
		b.angularVelocity = 0
		b.invMass = 0
		b.invMom = 0
	}
	if b.space != nil {
		b.space.retypeBody(b)
	}
}

func (b *Body) Position() Vector    { return b.position }
func (b *Body) Angle() float64      { return b.angle }
func (b *Body) Rotation() Vector    { return b.rotation }
func (b *Body) Velocity() Vector    { return b.velocity }
func (b *Body) AngularVelocity() float64 { return b.angularVelocity }
func (b *Body) InvMass() float64    { return b.invMass }
func (b *Body) InvMoment() float64  { return b.invMom }
func (b *Body) Mass() float64       { return b.mass }
func (b *Body) Moment() float64     { return b.moment }
func (b *Body) AABB() BB            { return b.aabb }
func (b *Body) IsAwake() bool       { return b.awake }
func (b *Body) SleepTime() float64  { return b.sleepTime }

func (b *Body) SetPosition(p Vector) { b.position = p }

func (b *Body) SetAngle(a float64) {
	b.angle = a
	b.rotation = ForAngle(a)
}

func (b *Body) SetVelocity(v Vector)        { b.velocity = v }
func (b *Body) SetAngularVelocity(w float64) { b.angularVelocity = w }

// SetMass sets the body's mass; zero or negative means infinite mass
// (invMass = 0), matching spec §3's "0/0 semantics".
func (b *Body) SetMass(m float64) {
	b.mass = m
	if m > 0 {
		b.invMass = 1.0 / m
	} else {
		b.invMass = 0
	}
}

// SetMoment sets the moment of inertia; zero or negative means infinite
// rotational inertia (invMom = 0).
func (b *Body) SetMoment(i float64) {
	b.moment = i
	if i > 0 {
		b.invMom = 1.0 / i
	} else {
		b.invMom = 0
	}
}

// ApplyForce applies a world-space force at a world-space point, deferred
// into velocity changes by UpdateVelocity at the next step.
func (b *Body) ApplyForce(force, worldPoint Vector) {
	if b.kind != BodyDynamic {
		return
	}
	b.force = b.force.Add(force)
	r := worldPoint.Sub(b.position)
	b.torque += Cross(r, force)
}

// ApplyImpulse applies an instantaneous impulse at a world-space point,
// directly changing velocity and angular velocity.
func (b *Body) ApplyImpulse(impulse, worldPoint Vector) {
	if b.invMass == 0 && b.invMom == 0 {
		return
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
	r := worldPoint.Sub(b.position)
	b.angularVelocity += b.invMom * Cross(r, impulse)
}

// AddShape attaches shape to the body. It does not recompute mass data; call
// ResetMassData afterwards for that.
func (b *Body) AddShape(s *Shape) {
	s.body = b
	b.shapes = append(b.shapes, s)
}

// RemoveShape detaches shape from the body.
func (b *Body) RemoveShape(s *Shape) {
	for i, sh := range b.shapes {
		if sh == s {
			b.shapes = append(b.shapes[:i], b.shapes[i+1:]...)
			s.body = nil
			return
		}
	}
}

func (b *Body) Shapes() []*Shape { return b.shapes }

// ResetMassData recomputes mass, moment, and centroid from the body's
// shapes and their densities (spec §3, §4.1), skipped for static/kinematic
// bodies which remain infinite-mass by definition.
func (b *Body) ResetMassData() {
	if b.kind != BodyDynamic {
		b.invMass = 0
		b.invMom = 0
		return
	}
	if len(b.shapes) == 0 {
		return
	}

	totalMass := 0.0
	totalMoment := 0.0
	centroid := VectorZero()

	for _, s := range b.shapes {
		info := s.MassInfo()
		totalMass += info.Mass
		centroid = centroid.Add(info.Centroid.Mul(info.Mass))
	}
	if totalMass > 0 {
		centroid = centroid.Mul(1.0 / totalMass)
	}
	for _, s := range b.shapes {
		info := s.MassInfo()
		d := info.Centroid.Sub(centroid)
		// Parallel axis theorem: shift each shape's moment to the combined centroid.
		totalMoment += info.Moment + info.Mass*LengthSq(d)
	}

	b.centroid = centroid
	b.SetMass(totalMass)
	b.SetMoment(totalMoment)
}

// UpdateVelocity integrates external forces/torque and gravity into
// velocity with exponential damping (spec §4.1):
// v <- damping*(v + dt*(gravity + f/m)), w <- damping*(w + dt*tau/i).
func (b *Body) UpdateVelocity(gravity Vector, damping, dt float64) {
	if b.kind != BodyDynamic {
		b.force = VectorZero()
		b.torque = 0
		return
	}
	v := b.velocity.Add(gravity.Add(b.force.Mul(b.invMass)).Mul(dt))
	b.velocity = v.Mul(damping)
	b.angularVelocity = (b.angularVelocity + dt*b.torque*b.invMom) * damping

	b.force = VectorZero()
	b.torque = 0
}

// UpdatePosition integrates velocity into position with semi-implicit
// Euler (spec §4.1): p <- p + dt*v, a <- a + dt*w.
func (b *Body) UpdatePosition(dt float64) {
	if b.kind == BodyStatic {
		return
	}
	b.position = b.position.Add(b.velocity.Mul(dt))
	b.SetAngle(b.angle + b.angularVelocity*dt)
}

// CacheData recomputes cached world-space shape geometry and the body's
// world AABB as the union of its shapes' AABBs (spec §3's invariant).
func (b *Body) CacheData() {
	if len(b.shapes) == 0 {
		b.aabb = BB{}
		return
	}
	for i, s := range b.shapes {
		s.Update(b.position, b.rotation)
		if i == 0 {
			b.aabb = s.bb
		} else {
			b.aabb = b.aabb.Merge(s.bb)
		}
	}
}

// SyncTransform is the hook external consumers (rendering, queries) use to
// read the body's current pose; with this data model it is a no-op beyond
// what Position()/Angle() already expose, kept for contract symmetry with
// spec §4.1.
func (b *Body) SyncTransform() {}

// Activate wakes the body, resetting its sleep timer.
func (b *Body) Activate() {
	wasAsleep := !b.awake
	b.awake = true
	b.sleepTime = 0
	if wasAsleep && b.space != nil {
		b.space.wake(b)
	}
}

// Sleep forces the body to sleep, zeroing its velocities.
func (b *Body) Sleep() {
	b.awake = false
	b.sleepTime = 0
	b.velocity = VectorZero()
	b.angularVelocity = 0
}

func (b *Body) localToWorld(p Vector) Vector {
	return Rotate(p, b.rotation).Add(b.position)
}

func (b *Body) worldCenter() Vector {
	return b.position.Add(Rotate(b.centroid, b.rotation))
}
