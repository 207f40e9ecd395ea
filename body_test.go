package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -run TestBody
func TestBody(t *testing.T) {
	t.Run("static body never moves under gravity", func(t *testing.T) {
		space := NewSpace()
		space.SetGravity(Vector{0, -10})

		ground := NewBody(1, 1)
		ground.SetType(BodyStatic)
		ground.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1}))
		space.AddBody(ground)
		ground.ResetMassData()

		before := ground.Position()
		for i := 0; i < 60; i++ {
			space.Step(1.0/60.0, 8, 3, true, true)
		}
		assert.Equal(t, before, ground.Position(), "static body must stay fixed")
		assert.Equal(t, 0.0, ground.InvMass())
		assert.Equal(t, 0.0, ground.InvMoment())
	})

	t.Run("zero-force body is damped exactly by damping^dt", func(t *testing.T) {
		space := NewSpace()
		space.SetGravity(VectorZero())
		space.SetDamping(0.9)

		b := NewBody(1, 1)
		b.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1}))
		space.AddBody(b)
		b.ResetMassData()
		b.SetVelocity(Vector{2, 0})
		b.SetAngularVelocity(1.5)

		dt := 1.0 / 60.0
		space.Step(dt, 8, 3, false, false)

		expected := math.Pow(0.9, dt)
		assert.InDelta(t, 2*expected, b.Velocity()[0], 1e-9)
		assert.InDelta(t, 1.5*expected, b.AngularVelocity(), 1e-9)
	})

	t.Run("resetMassData derives mass and moment from shapes", func(t *testing.T) {
		b := NewBody(1, 1)
		b.AddShape(NewCircleShape(VectorZero(), 2, Material{Density: 1}))
		b.ResetMassData()

		require.Greater(t, b.Mass(), 0.0)
		require.Greater(t, b.Moment(), 0.0)
		assert.InDelta(t, 1.0/b.Mass(), b.InvMass(), 1e-12)
	})

	t.Run("ApplyImpulse on an infinite-mass body is a no-op", func(t *testing.T) {
		b := NewBody(1, 1)
		b.SetType(BodyStatic)
		before := b.Velocity()
		b.ApplyImpulse(Vector{100, 100}, VectorZero())
		assert.Equal(t, before, b.Velocity())
	})
}
