package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -run TestSleep
func TestSleep(t *testing.T) {
	t.Run("a settled body eventually sleeps", func(t *testing.T) {
		space := NewSpace()
		space.SetGravity(Vector{0, -10})

		ground := NewBody(1, 1)
		ground.SetType(BodyStatic)
		ground.AddShape(NewSegmentShape(Vector{-50, 0}, Vector{50, 0}, 0, Material{Friction: 0.8}))
		space.AddBody(ground)
		ground.ResetMassData()

		ball := NewBody(1, 1)
		ball.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1, Friction: 0.8}))
		space.AddBody(ball)
		ball.ResetMassData()
		ball.SetPosition(Vector{0, 1.001})

		asleep := false
		for i := 0; i < 600; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
			if !ball.IsAwake() {
				asleep = true
				break
			}
		}
		assert.True(t, asleep, "a body resting under tolerance should fall asleep")
		assert.Equal(t, VectorZero(), ball.Velocity())
	})

	t.Run("allowSleep=false keeps bodies perpetually awake", func(t *testing.T) {
		space := NewSpace()
		space.SetGravity(Vector{0, -10})

		ground := NewBody(1, 1)
		ground.SetType(BodyStatic)
		ground.AddShape(NewSegmentShape(Vector{-50, 0}, Vector{50, 0}, 0, Material{Friction: 0.8}))
		space.AddBody(ground)
		ground.ResetMassData()

		ball := NewBody(1, 1)
		ball.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1, Friction: 0.8}))
		space.AddBody(ball)
		ball.ResetMassData()
		ball.SetPosition(Vector{0, 1.001})

		for i := 0; i < 600; i++ {
			space.Step(1.0/60.0, 8, 3, true, false)
		}
		assert.True(t, ball.IsAwake())
	})

	t.Run("adding a joint wakes both endpoints", func(t *testing.T) {
		space := NewSpace()
		a := NewBody(1, 1)
		space.AddBody(a)
		b := NewBody(1, 1)
		space.AddBody(b)
		a.Sleep()
		b.Sleep()

		rope := NewRopeJoint(a, b, VectorZero(), VectorZero(), 1.0)
		space.AddJoint(rope.Joint)

		assert.True(t, a.IsAwake())
		assert.True(t, b.IsAwake())
	})
}

func overlappingPair(space *Space) (*Body, *Body) {
	a := NewBody(1, 1)
	a.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1}))
	space.AddBody(a)
	a.ResetMassData()

	b := NewBody(1, 1)
	b.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1}))
	space.AddBody(b)
	b.ResetMassData()
	b.SetPosition(Vector{0.5, 0})
	b.CacheData()

	return a, b
}

// go test -run TestStepReentrancy
func TestStepReentrancy(t *testing.T) {
	space := NewSpace()
	overlappingPair(space)

	space.SetPostSolve(func(cs *ContactSolver) {
		space.Step(1.0/60.0, 1, 1, true, true)
	})

	assert.Panics(t, func() {
		space.Step(1.0/60.0, 1, 1, true, true)
	})
}

// go test -run TestSpaceTopology
func TestSpaceTopology(t *testing.T) {
	t.Run("removing a body cascades joint removal", func(t *testing.T) {
		space := NewSpace()
		a := NewBody(1, 1)
		space.AddBody(a)
		b := NewBody(1, 1)
		space.AddBody(b)
		rope := NewRopeJoint(a, b, VectorZero(), VectorZero(), 1.0)
		space.AddJoint(rope.Joint)

		space.RemoveBody(a)
		_, ok := space.Joint(rope.ID())
		assert.False(t, ok, "joint should be removed when either endpoint is removed")
	})

	t.Run("Clear resets id counters", func(t *testing.T) {
		space := NewSpace()
		b1 := NewBody(1, 1)
		space.AddBody(b1)
		require.Equal(t, uint(1), b1.ID())

		space.Clear()

		b2 := NewBody(1, 1)
		space.AddBody(b2)
		assert.Equal(t, uint(1), b2.ID())
	})

	t.Run("mutating topology mid-step panics", func(t *testing.T) {
		space := NewSpace()
		overlappingPair(space)
		space.SetPostSolve(func(cs *ContactSolver) {
			space.AddBody(NewBody(1, 1))
		})
		assert.Panics(t, func() {
			space.Step(1.0/60.0, 1, 1, true, true)
		})
	})
}

// go test -run TestFindQueries
func TestFindQueries(t *testing.T) {
	space := NewSpace()
	ball := NewBody(1, 1)
	ball.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1}))
	space.AddBody(ball)
	ball.ResetMassData()

	found, ok := space.FindBodyAt(Vector{0, 0})
	require.True(t, ok)
	assert.Equal(t, ball.ID(), found.ID())

	_, ok = space.FindBodyAt(Vector{100, 100})
	assert.False(t, ok)

	shape, ok := space.FindShapeAt(Vector{0.5, 0})
	require.True(t, ok)
	assert.Equal(t, ShapeCircle, shape.Kind())
}

// go test -run TestFreeFall
func TestFreeFall(t *testing.T) {
	space := NewSpace()
	space.SetGravity(Vector{0, -10})
	b := NewBody(1, 1)
	space.AddBody(b)

	dt := 1.0 / 60.0
	steps := 30
	for i := 0; i < steps; i++ {
		space.Step(dt, 1, 1, true, true)
	}

	// Semi-implicit Euler: v_n = n*g*dt, p_n = sum_{k=1}^{n} v_k*dt.
	expectedV := -10.0 * dt * float64(steps)
	assert.InDelta(t, expectedV, b.Velocity()[1], 1e-9)
}
