package physics

import "math"

// ShapeKind enumerates the geometry kinds a Shape can hold (spec §3). The
// names match the scene JSON "type" strings in spec.md §6.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeSegment
	ShapePoly
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "ShapeCircle"
	case ShapeSegment:
		return "ShapeSegment"
	case ShapePoly:
		return "ShapePoly"
	default:
		return "ShapeUnknown"
	}
}

// Material carries the per-shape physical properties used by the contact
// solver and mass computation (spec §3).
type Material struct {
	Restitution float64
	Friction    float64
	Density     float64
}

// CircleGeometry is a circle in body-local space.
type CircleGeometry struct {
	Center Vector
	Radius float64
}

// SegmentGeometry is a capsule-like line segment in body-local space.
type SegmentGeometry struct {
	A, B   Vector
	Radius float64
}

// PolyGeometry is a convex polygon (with optional rounding radius) in
// body-local space. Verts must be wound counter-clockwise.
type PolyGeometry struct {
	Verts  []Vector
	Radius float64
}

// BB is an axis-aligned bounding box.
type BB struct {
	L, B, R, T float64
}

func NewBB(l, b, r, t float64) BB { return BB{l, b, r, t} }

// Intersects reports whether bb overlaps other.
func (bb BB) Intersects(other BB) bool {
	return bb.L <= other.R && other.L <= bb.R && bb.B <= other.T && other.B <= bb.T
}

// Merge returns the union of bb and other.
func (bb BB) Merge(other BB) BB {
	return BB{
		L: math.Min(bb.L, other.L),
		B: math.Min(bb.B, other.B),
		R: math.Max(bb.R, other.R),
		T: math.Max(bb.T, other.T),
	}
}

// ShapeFilter controls which shapes may collide via bitmask group/category
// tests, the way the teacher's space.go expects QueryReject to consult
// shape.Filter.Reject.
type ShapeFilter struct {
	Group      uint
	Categories uint
	Mask       uint
}

// ShapeFilterAll collides with everything and belongs to no exclusion group.
var ShapeFilterAll = ShapeFilter{Group: 0, Categories: ^uint(0), Mask: ^uint(0)}

// Reject reports whether a and b should NOT collide based on filter bits.
// Equal non-zero groups always reject regardless of mask, matching the
// common collision-filter idiom this module's teacher-adjacent pack repos
// (akmonengine-feather's actor/shape.go) follow.
func (f ShapeFilter) Reject(other ShapeFilter) bool {
	if f.Group != 0 && f.Group == other.Group {
		return true
	}
	return f.Categories&other.Mask == 0 || other.Categories&f.Mask == 0
}

// MassInfo is the mass contribution a shape makes to its body (spec §3:
// "Derived mass contribution feeds Body.resetMassData").
type MassInfo struct {
	Mass     float64
	Moment   float64 // about the shape's own centroid
	Centroid Vector
}

// Shape is a piece of collision geometry attached to a Body (spec §3).
type Shape struct {
	id     uint
	kind   ShapeKind
	body   *Body
	Mat    Material
	Filter ShapeFilter
	sensor bool

	circle  CircleGeometry
	segment SegmentGeometry
	poly    PolyGeometry

	// cached world-space geometry, refreshed by Update/CacheData
	worldCircle  CircleGeometry
	worldSegment SegmentGeometry
	worldPoly    PolyGeometry
	bb           BB

	space *Space
}

func NewCircleShape(center Vector, radius float64, mat Material) *Shape {
	return &Shape{kind: ShapeCircle, circle: CircleGeometry{center, radius}, Mat: mat, Filter: ShapeFilterAll}
}

func NewSegmentShape(a, b Vector, radius float64, mat Material) *Shape {
	return &Shape{kind: ShapeSegment, segment: SegmentGeometry{a, b, radius}, Mat: mat, Filter: ShapeFilterAll}
}

func NewPolyShape(verts []Vector, radius float64, mat Material) *Shape {
	return &Shape{kind: ShapePoly, poly: PolyGeometry{verts, radius}, Mat: mat, Filter: ShapeFilterAll}
}

func (s *Shape) ID() uint        { return s.id }
func (s *Shape) Kind() ShapeKind { return s.kind }
func (s *Shape) Body() *Body     { return s.body }
func (s *Shape) BB() BB          { return s.bb }
func (s *Shape) SetSensor(v bool) { s.sensor = v }
func (s *Shape) IsSensor() bool  { return s.sensor }

func (s *Shape) Circle() CircleGeometry   { return s.worldCircle }
func (s *Shape) Segment() SegmentGeometry { return s.worldSegment }
func (s *Shape) Poly() PolyGeometry       { return s.worldPoly }

// Update recomputes the shape's cached world-space geometry and AABB from
// a body's pose (spec §4.1 cacheData).
func (s *Shape) Update(position, rotation Vector) {
	switch s.kind {
	case ShapeCircle:
		c := Rotate(s.circle.Center, rotation).Add(position)
		s.worldCircle = CircleGeometry{c, s.circle.Radius}
		r := s.circle.Radius
		s.bb = NewBB(c[0]-r, c[1]-r, c[0]+r, c[1]+r)
	case ShapeSegment:
		a := Rotate(s.segment.A, rotation).Add(position)
		b := Rotate(s.segment.B, rotation).Add(position)
		s.worldSegment = SegmentGeometry{a, b, s.segment.Radius}
		r := s.segment.Radius
		s.bb = NewBB(math.Min(a[0], b[0])-r, math.Min(a[1], b[1])-r, math.Max(a[0], b[0])+r, math.Max(a[1], b[1])+r)
	case ShapePoly:
		verts := make([]Vector, len(s.poly.Verts))
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for i, v := range s.poly.Verts {
			w := Rotate(v, rotation).Add(position)
			verts[i] = w
			minX, maxX = math.Min(minX, w[0]), math.Max(maxX, w[0])
			minY, maxY = math.Min(minY, w[1]), math.Max(maxY, w[1])
		}
		s.worldPoly = PolyGeometry{verts, s.poly.Radius}
		r := s.poly.Radius
		s.bb = NewBB(minX-r, minY-r, maxX+r, maxY+r)
	}
}

// MassInfo computes the shape's mass contribution from its local geometry
// and material density (spec §4.1).
func (s *Shape) MassInfo() MassInfo {
	d := s.Mat.Density
	switch s.kind {
	case ShapeCircle:
		r := s.circle.Radius
		m := d * math.Pi * r * r
		moment := m * r * r / 2
		return MassInfo{Mass: m, Moment: moment, Centroid: s.circle.Center}
	case ShapeSegment:
		a, b, r := s.segment.A, s.segment.B, s.segment.Radius
		length := b.Sub(a).Len()
		m := d * (length*2*r + math.Pi*r*r)
		// Thin-rod approximation about the midpoint, plus the end-cap
		// radius contribution; adequate for a non-goal-scope capsule.
		mid := a.Add(b).Mul(0.5)
		moment := m * (length*length + (2*r)*(2*r)) / 12
		return MassInfo{Mass: m, Moment: moment, Centroid: mid}
	case ShapePoly:
		return polyMassInfo(s.poly.Verts, d)
	}
	return MassInfo{}
}

// polyMassInfo computes area, centroid, and moment of inertia of a convex
// polygon about its own centroid, via the standard triangle-fan shoelace
// decomposition (rounding radius ignored — a non-goal-scope simplification
// noted in DESIGN.md).
func polyMassInfo(verts []Vector, density float64) MassInfo {
	if len(verts) < 3 {
		return MassInfo{}
	}
	var area, momentNum float64
	centroid := VectorZero()
	origin := verts[0]
	for i := 1; i+1 < len(verts); i++ {
		a := verts[i].Sub(origin)
		b := verts[i+1].Sub(origin)
		cross := Cross(a, b)
		triArea := cross / 2
		area += triArea
		centroid = centroid.Add(a.Add(b).Mul(triArea / 3))
		momentNum += cross * (a.Dot(a) + a.Dot(b) + b.Dot(b))
	}
	if area == 0 {
		return MassInfo{Centroid: origin}
	}
	centroid = centroid.Mul(1.0 / area)
	mass := density * math.Abs(area)
	// momentNum/12 is the moment about verts[0]; shift it to the centroid.
	moment := density*math.Abs(momentNum)/12 - mass*LengthSq(centroid)
	return MassInfo{Mass: mass, Moment: moment, Centroid: centroid.Add(origin)}
}

// CollideFunc is the external narrow-phase collision kernel seam (spec §1,
// §6): "collide(shapeA, shapeB) -> list<ContactPoint>". Space never
// implements geometric clash tests itself; it calls whatever CollideFunc is
// installed (BasicCollide by default).
type CollideFunc func(a, b *Shape) []ContactPoint

// BasicCollide is a deterministic stand-in for the external collision
// kernel spec.md places out of scope. It supports the pairings a small
// smoke-test scene needs (circle-circle, circle-segment, circle-poly) and
// silently returns no contacts for every other pairing (segment-segment,
// segment-poly, poly-poly). It is not part of the physics core's size
// budget; production users are expected to supply their own CollideFunc.
func BasicCollide(a, b *Shape) []ContactPoint {
	// Canonical order is enforced by the caller (Space), so by the time we
	// get here a.Kind() <= b.Kind().
	switch {
	case a.kind == ShapeCircle && b.kind == ShapeCircle:
		return collideCircleCircle(a, b)
	case a.kind == ShapeCircle && b.kind == ShapeSegment:
		return collideCircleSegment(a, b)
	case a.kind == ShapeCircle && b.kind == ShapePoly:
		return collideCirclePoly(a, b)
	default:
		return nil
	}
}

func collideCircleCircle(a, b *Shape) []ContactPoint {
	ca, cb := a.worldCircle, b.worldCircle
	delta := cb.Center.Sub(ca.Center)
	dist := delta.Len()
	radiusSum := ca.Radius + cb.Radius
	if dist >= radiusSum || dist == 0 && radiusSum == 0 {
		return nil
	}
	var normal Vector
	if dist > 1e-12 {
		normal = delta.Mul(1.0 / dist)
	} else {
		normal = Vector{1, 0}
	}
	pos := ca.Center.Add(normal.Mul(ca.Radius + (dist-radiusSum)*0.5))
	return []ContactPoint{{
		Position:    pos,
		Normal:      normal,
		Penetration: radiusSum - dist,
		Feature:     FeatureID{0, 0},
	}}
}

func collideCircleSegment(a, b *Shape) []ContactPoint {
	c := a.worldCircle
	seg := b.worldSegment
	ab := seg.B.Sub(seg.A)
	t := Clamp01(c.Center.Sub(seg.A).Dot(ab) / ab.Dot(ab))
	closest := seg.A.Add(ab.Mul(t))
	toCircle := c.Center.Sub(closest)
	dist := toCircle.Len()
	radiusSum := c.Radius + seg.Radius
	if dist >= radiusSum {
		return nil
	}
	var toCircleUnit Vector
	if dist > 1e-12 {
		toCircleUnit = toCircle.Mul(1.0 / dist)
	} else {
		toCircleUnit = Perp(ab.Mul(1.0 / ab.Len()))
	}
	// Normal is shape1 (circle) -> shape2 (segment), the reverse of
	// toCircleUnit.
	normal := Neg(toCircleUnit)
	pos := closest.Add(toCircleUnit.Mul(seg.Radius))
	return []ContactPoint{{
		Position:    pos,
		Normal:      normal,
		Penetration: radiusSum - dist,
		Feature:     FeatureID{0, int32(t * 2)},
	}}
}

func collideCirclePoly(a, b *Shape) []ContactPoint {
	c := a.worldCircle
	poly := b.worldPoly
	n := len(poly.Verts)
	if n < 3 {
		return nil
	}
	bestDist := math.Inf(-1)
	bestIdx := 0
	for i := 0; i < n; i++ {
		v0 := poly.Verts[i]
		v1 := poly.Verts[(i+1)%n]
		edge := v1.Sub(v0)
		outward := Vector{edge[1], -edge[0]}
		outward = outward.Mul(1.0 / outward.Len())
		d := outward.Dot(c.Center.Sub(v0))
		if d > bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	radiusSum := c.Radius + poly.Radius
	if bestDist >= radiusSum {
		return nil
	}
	v0 := poly.Verts[bestIdx]
	v1 := poly.Verts[(bestIdx+1)%n]
	edge := v1.Sub(v0)
	outward := Vector{edge[1], -edge[0]}
	outward = outward.Mul(1.0 / outward.Len())
	// outward points from the poly's edge towards the circle (shape2 ->
	// shape1); Normal must be shape1 (circle) -> shape2 (poly).
	normal := Neg(outward)
	pos := c.Center.Add(normal.Mul(c.Radius))
	return []ContactPoint{{
		Position:    pos,
		Normal:      normal,
		Penetration: radiusSum - bestDist,
		Feature:     FeatureID{int32(bestIdx), 0},
	}}
}
