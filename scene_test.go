package physics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -run TestSceneRoundTrip
func TestSceneRoundTrip(t *testing.T) {
	space := NewSpace()

	ground := NewBody(1, 1)
	ground.SetType(BodyStatic)
	ground.AddShape(NewSegmentShape(Vector{-10, 0}, Vector{10, 0}, 0.1, Material{Friction: 0.5}))
	space.AddBody(ground)
	ground.ResetMassData()

	circle := NewBody(1, 1)
	circle.AddShape(NewCircleShape(VectorZero(), 1, Material{Density: 1, Restitution: 0.3}))
	space.AddBody(circle)
	circle.ResetMassData()
	circle.SetPosition(Vector{0, 5})

	poly := NewBody(1, 1)
	poly.AddShape(NewPolyShape([]Vector{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}, 0, Material{Density: 1}))
	space.AddBody(poly)
	poly.ResetMassData()
	poly.SetPosition(Vector{5, 5})

	rope := NewRopeJoint(circle, poly, VectorZero(), VectorZero(), 10)
	rope.Breakable = true
	rope.MaxForce = 500
	space.AddJoint(rope.Joint)

	var buf bytes.Buffer
	require.NoError(t, SaveScene(&buf, space))

	reloaded, err := LoadScene(&buf)
	require.NoError(t, err)

	assert.Equal(t, len(collectBodies(space)), len(collectBodies(reloaded)))
	assert.Equal(t, len(collectJoints(space)), len(collectJoints(reloaded)))

	var gotKinds []ShapeKind
	reloaded.EachBody(func(b *Body) {
		for _, s := range b.Shapes() {
			gotKinds = append(gotKinds, s.Kind())
		}
	})
	assert.Contains(t, gotKinds, ShapeSegment)
	assert.Contains(t, gotKinds, ShapeCircle)
	assert.Contains(t, gotKinds, ShapePoly)

	var gotJointKind JointKind
	reloaded.EachJoint(func(j *Joint) { gotJointKind = j.Kind() })
	assert.Equal(t, JointRope, gotJointKind)
}

func collectBodies(space *Space) []*Body {
	var out []*Body
	space.EachBody(func(b *Body) { out = append(out, b) })
	return out
}

func collectJoints(space *Space) []*Joint {
	var out []*Joint
	space.EachJoint(func(j *Joint) { out = append(out, j) })
	return out
}

// go test -run TestLoadSceneRejectsUnknownShape
func TestLoadSceneRejectsUnknownShape(t *testing.T) {
	doc := SceneDocument{
		Bodies: []sceneBody{
			{ID: 1, Type: "dynamic", Shapes: []sceneShape{{Type: "ShapeTriangle"}}},
		},
	}
	_, err := BuildScene(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownShapeKind)
}

// go test -run TestLoadSceneRejectsDanglingJoint
func TestLoadSceneRejectsDanglingJoint(t *testing.T) {
	doc := SceneDocument{
		Bodies: []sceneBody{
			{ID: 1, Type: "dynamic"},
		},
		Joints: []sceneJoint{
			{Type: string(JointRope), Body1: 1, Body2: 99, Length: 1},
		},
	}
	space, err := BuildScene(doc)
	require.Error(t, err)
	assert.Nil(t, space)
	assert.ErrorIs(t, err, ErrDanglingBodyRef)
}

// go test -run TestLoadSceneRejectsUnknownJoint
func TestLoadSceneRejectsUnknownJoint(t *testing.T) {
	doc := SceneDocument{
		Bodies: []sceneBody{
			{ID: 1, Type: "dynamic"},
			{ID: 2, Type: "dynamic"},
		},
		Joints: []sceneJoint{
			{Type: "NoSuchJoint", Body1: 1, Body2: 2},
		},
	}
	_, err := BuildScene(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownJointKind)
}
