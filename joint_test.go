package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func twoBodySpace() (*Space, *Body, *Body) {
	space := NewSpace()
	space.SetGravity(Vector{0, -10})

	anchor := NewBody(1, 1)
	anchor.SetType(BodyStatic)
	anchor.AddShape(NewCircleShape(VectorZero(), 0.1, Material{Density: 1}))
	space.AddBody(anchor)
	anchor.ResetMassData()

	bob := NewBody(1, 1)
	bob.AddShape(NewCircleShape(VectorZero(), 0.5, Material{Density: 1}))
	space.AddBody(bob)
	bob.ResetMassData()
	bob.SetPosition(Vector{0, -1})

	return space, anchor, bob
}

// go test -run TestRopeJoint
func TestRopeJoint(t *testing.T) {
	t.Run("never stretches beyond length plus slop", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		rope := NewRopeJoint(anchor, bob, VectorZero(), VectorZero(), 2.0)
		space.AddJoint(rope.Joint)

		for i := 0; i < 600; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}

		dist := bob.Position().Sub(anchor.Position()).Len()
		assert.LessOrEqual(t, dist, 2.0+space.Config().LinearSlop+1e-6)
	})

	t.Run("is slack below its length", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		bob.SetPosition(Vector{0, -0.5})
		rope := NewRopeJoint(anchor, bob, VectorZero(), VectorZero(), 2.0)
		space.AddJoint(rope.Joint)

		space.Step(1.0/60.0, 8, 3, true, true)
		assert.NotEqual(t, LimitState(LimitAtUpper), rope.Joint.Limit())
	})
}

// go test -run TestDistanceJoint
func TestDistanceJoint(t *testing.T) {
	t.Run("breaks when reaction force exceeds maxForce", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		bob.SetPosition(Vector{0, -5}) // far beyond rest length: huge initial correction
		dist := NewDistanceJoint(anchor, bob, VectorZero(), VectorZero(), 1.0)
		dist.Breakable = true
		dist.MaxForce = 1.0
		space.AddJoint(dist.Joint)

		broke := false
		for i := 0; i < 30; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
			if _, ok := space.Joint(dist.ID()); !ok {
				broke = true
				break
			}
		}
		assert.True(t, broke, "expected the joint to break under a large reaction force")
	})

	t.Run("holds its rest length while hanging under gravity", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		dist := NewDistanceJoint(anchor, bob, VectorZero(), VectorZero(), 1.0)
		space.AddJoint(dist.Joint)

		for i := 0; i < 300; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}
		d := bob.Position().Sub(anchor.Position()).Len()
		assert.InDelta(t, 1.0, d, space.Config().LinearSlop+1e-3)
	})
}

// go test -run TestRevoluteJoint
func TestRevoluteJoint(t *testing.T) {
	t.Run("clamps relative angle to its limit", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		bob.SetPosition(anchor.Position())
		rev := NewRevoluteJoint(anchor, bob, VectorZero(), VectorZero())
		rev.HasLimit = true
		rev.MinAngle = -0.2
		rev.MaxAngle = 0.2
		space.AddJoint(rev.Joint)

		bob.SetAngularVelocity(50) // large spin, should be arrested by the limit
		for i := 0; i < 300; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}

		rel := bob.Angle() - anchor.Angle()
		assert.LessOrEqual(t, rel, rev.MaxAngle+0.05)
		assert.GreaterOrEqual(t, rel, rev.MinAngle-0.05)
	})
}

// go test -run TestPrismaticJoint
func TestPrismaticJoint(t *testing.T) {
	t.Run("clamps travel to its limit", func(t *testing.T) {
		space, anchor, bob := twoBodySpace()
		bob.SetPosition(Vector{0, 0})
		axis := Vector{0, 1}
		pj := NewPrismaticJoint(anchor, bob, VectorZero(), VectorZero(), axis, 0)
		pj.HasLimit = true
		pj.Min = -1
		pj.Max = 1
		space.AddJoint(pj.Joint)

		bob.SetVelocity(Vector{0, -50})
		for i := 0; i < 300; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}

		trans := pj.translation()
		assert.GreaterOrEqual(t, trans, pj.Min-0.05)
		assert.LessOrEqual(t, trans, pj.Max+0.05)
	})
}

// go test -run TestAngleJoint
func TestAngleJoint(t *testing.T) {
	t.Run("holds the configured ratio between two free bodies", func(t *testing.T) {
		space := NewSpace()
		a := NewBody(1, 1)
		a.AddShape(NewCircleShape(VectorZero(), 0.5, Material{Density: 1}))
		space.AddBody(a)
		a.ResetMassData()

		b := NewBody(1, 1)
		b.AddShape(NewCircleShape(VectorZero(), 0.5, Material{Density: 1}))
		space.AddBody(b)
		b.ResetMassData()

		aj := NewAngleJoint(a, b, 2.0, 0.0)
		space.AddJoint(aj.Joint)
		a.SetAngularVelocity(1.0)

		for i := 0; i < 120; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}

		got := b.Angle() - aj.Ratio*a.Angle() - aj.Phase
		assert.InDelta(t, 0.0, got, 0.05)
	})
}

// go test -run TestJointSerialize
func TestJointSerialize(t *testing.T) {
	a := NewBody(1, 1)
	b := NewBody(1, 1)
	rope := NewRopeJoint(a, b, Vector{1, 0}, Vector{-1, 0}, 3.0)
	m := rope.Serialize()
	assert.Equal(t, "RopeJoint", m["type"])
	assert.Equal(t, 3.0, m["length"])
	assert.Equal(t, Vector{1, 0}, m["anchorA"])
}

func TestLimitStateZeroValue(t *testing.T) {
	// exercised indirectly by other tests; just confirm the zero value is
	// "inactive" so a freshly constructed joint reads sanely before Step.
	j := &Joint{}
	assert.Equal(t, LimitInactive, j.Limit())
}
