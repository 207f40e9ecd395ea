package physics

import (
	"encoding/json"
	"fmt"
	"io"
)

// sceneVec is the wire shape of a 2D vector in the scene JSON format (spec
// §6: "position:{x,y}").
type sceneVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v sceneVec) vector() Vector      { return Vector{v.X, v.Y} }
func vecToSceneVec(v Vector) sceneVec { return sceneVec{v[0], v[1]} }

// sceneShape is spec §6's Shape JSON: "{type: "ShapeCircle"|"ShapeSegment"|
// "ShapePoly", ...geometry, e, u, density}".
type sceneShape struct {
	Type    string     `json:"type"`
	Center  sceneVec   `json:"center,omitempty"`
	Radius  float64    `json:"radius,omitempty"`
	A       sceneVec   `json:"a,omitempty"`
	B       sceneVec   `json:"b,omitempty"`
	Verts   []sceneVec `json:"verts,omitempty"`
	E       float64    `json:"e"`
	U       float64    `json:"u"`
	Density float64    `json:"density"`
	Sensor  bool       `json:"sensor,omitempty"`
}

// sceneBody is spec §6's Body JSON: "{type: "static"|"dynamic", position,
// angle, shapes}". ID is a document-local handle joints reference by
// body1/body2 — on save it is the Space-assigned body id, so a
// load-then-save round trip reproduces the same linkage even though a
// freshly loaded Space assigns its own ids (spec §8: "up to id
// relabeling").
type sceneBody struct {
	ID              uint         `json:"id"`
	Type            string       `json:"type"`
	Position        sceneVec     `json:"position"`
	Angle           float64      `json:"angle"`
	Velocity        sceneVec     `json:"velocity,omitempty"`
	AngularVelocity float64      `json:"angularVelocity,omitempty"`
	Shapes          []sceneShape `json:"shapes"`
}

// sceneJoint is spec §6's Joint JSON: "{type, body1, body2, ...}" where the
// union of remaining fields matches each joint kind (SPEC_FULL §4.5).
// Fields not meaningful for a given Type are left at their zero value and
// ignored by buildJoint.
type sceneJoint struct {
	Type             string   `json:"type"`
	Body1            uint     `json:"body1"`
	Body2            uint     `json:"body2"`
	Anchor1          sceneVec `json:"anchor1,omitempty"`
	Anchor2          sceneVec `json:"anchor2,omitempty"`
	Axis             sceneVec `json:"axis,omitempty"`
	Length           float64  `json:"length,omitempty"`
	Min              float64  `json:"min,omitempty"`
	Max              float64  `json:"max,omitempty"`
	HasLimit         bool     `json:"hasLimit,omitempty"`
	ReferenceAngle   float64  `json:"referenceAngle,omitempty"`
	HasMotor         bool     `json:"hasMotor,omitempty"`
	MotorSpeed       float64  `json:"motorSpeed,omitempty"`
	MaxMotorTorque   float64  `json:"maxMotorTorque,omitempty"`
	Ratio            float64  `json:"ratio,omitempty"`
	Phase            float64  `json:"phase,omitempty"`
	FrequencyHz      float64  `json:"frequencyHz,omitempty"`
	DampingRatio     float64  `json:"dampingRatio,omitempty"`
	CollideConnected bool     `json:"collideConnected,omitempty"`
	MaxForce         float64  `json:"maxForce,omitempty"`
	Breakable        bool     `json:"breakable,omitempty"`
}

// SceneDocument is the top-level scene JSON shape spec §6 names:
// "{bodies: [...], joints: [...]}".
type SceneDocument struct {
	Bodies []sceneBody  `json:"bodies"`
	Joints []sceneJoint `json:"joints"`
}

// LoadScene decodes a scene document from r and builds a populated Space.
// On failure the returned Space is nil. A decode failure wraps the JSON
// decoder's error; a build failure wraps one of the sentinel kinds in
// errors.go (spec §7: "fail scene load with a
// distinguishing error kind; leave world in the cleared state").
func LoadScene(r io.Reader) (*Space, error) {
	var doc SceneDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("physics: decode scene: %w", err)
	}
	return BuildScene(doc)
}

// BuildScene constructs a Space from an already-decoded SceneDocument, for
// callers assembling or editing a document in memory rather than reading
// raw JSON.
func BuildScene(doc SceneDocument) (*Space, error) {
	space := NewSpace()
	byID := make(map[uint]*Body, len(doc.Bodies))

	for i, sb := range doc.Bodies {
		body := NewBody(1, 1)
		switch sb.Type {
		case "static":
			body.SetType(BodyStatic)
		case "kinematic":
			body.SetType(BodyKinematic)
		case "dynamic", "":
			body.SetType(BodyDynamic)
		default:
			return nil, fmt.Errorf("physics: body %d: %w: %q", i, ErrUnknownBodyKind, sb.Type)
		}
		body.SetPosition(sb.Position.vector())
		body.SetAngle(sb.Angle)
		body.SetVelocity(sb.Velocity.vector())
		body.SetAngularVelocity(sb.AngularVelocity)

		for _, ss := range sb.Shapes {
			shape, err := buildShape(ss)
			if err != nil {
				return nil, fmt.Errorf("physics: body %d: %w", i, err)
			}
			body.AddShape(shape)
		}

		space.AddBody(body)
		body.ResetMassData()

		id := sb.ID
		if id == 0 {
			id = uint(i + 1)
		}
		byID[id] = body
	}

	for i, sj := range doc.Joints {
		joint, err := buildJoint(sj, byID)
		if err != nil {
			space.Clear()
			return nil, fmt.Errorf("physics: joint %d: %w", i, err)
		}
		space.AddJoint(joint)
	}

	return space, nil
}

func buildShape(ss sceneShape) (*Shape, error) {
	mat := Material{Restitution: ss.E, Friction: ss.U, Density: ss.Density}
	var shape *Shape
	switch ss.Type {
	case ShapeCircle.String():
		shape = NewCircleShape(ss.Center.vector(), ss.Radius, mat)
	case ShapeSegment.String():
		shape = NewSegmentShape(ss.A.vector(), ss.B.vector(), ss.Radius, mat)
	case ShapePoly.String():
		verts := make([]Vector, len(ss.Verts))
		for i, v := range ss.Verts {
			verts[i] = v.vector()
		}
		shape = NewPolyShape(verts, ss.Radius, mat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShapeKind, ss.Type)
	}
	shape.SetSensor(ss.Sensor)
	return shape, nil
}

func buildJoint(sj sceneJoint, byID map[uint]*Body) (*Joint, error) {
	bodyA, ok := byID[sj.Body1]
	if !ok {
		return nil, fmt.Errorf("%w: body1=%d", ErrDanglingBodyRef, sj.Body1)
	}
	bodyB, ok := byID[sj.Body2]
	if !ok {
		return nil, fmt.Errorf("%w: body2=%d", ErrDanglingBodyRef, sj.Body2)
	}

	var base *Joint
	switch JointKind(sj.Type) {
	case JointRope:
		base = NewRopeJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.Length).Joint
	case JointDistance:
		base = NewDistanceJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.Length).Joint
	case JointPivot:
		base = NewPivotJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector()).Joint
	case JointRotaryLimit:
		base = NewRotaryLimitJoint(bodyA, bodyB, sj.Min, sj.Max).Joint
	case JointRevolute:
		j := NewRevoluteJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector())
		if sj.HasLimit {
			j.HasLimit = true
			j.MinAngle = sj.Min
			j.MaxAngle = sj.Max
		}
		if sj.HasMotor {
			j.HasMotor = true
			j.MotorSpeed = sj.MotorSpeed
			j.MaxMotorTorque = sj.MaxMotorTorque
		}
		base = j.Joint
	case JointWeld:
		base = NewWeldJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.ReferenceAngle).Joint
	case JointPrismatic:
		j := NewPrismaticJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.Axis.vector(), sj.ReferenceAngle)
		if sj.HasLimit {
			j.HasLimit = true
			j.Min = sj.Min
			j.Max = sj.Max
		}
		base = j.Joint
	case JointLine:
		base = NewLineJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.Axis.vector()).Joint
	case JointDistanceSpring:
		base = NewDistanceSpringJoint(bodyA, bodyB, sj.Anchor1.vector(), sj.Anchor2.vector(), sj.Length, sj.FrequencyHz, sj.DampingRatio).Joint
	case JointAngle:
		base = NewAngleJoint(bodyA, bodyB, sj.Ratio, sj.Phase).Joint
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJointKind, sj.Type)
	}

	base.CollideConnected = sj.CollideConnected
	base.MaxForce = sj.MaxForce
	base.Breakable = sj.Breakable
	return base, nil
}

// SaveScene encodes space's current bodies and joints as a scene document
// (spec §6). Serialization is round-trippable: LoadScene(SaveScene(W))
// reproduces W's structure up to id relabeling (spec §8 scenario 6).
func SaveScene(w io.Writer, space *Space) error {
	var doc SceneDocument
	space.EachBody(func(b *Body) {
		sb := sceneBody{
			ID:              b.id,
			Type:            b.kind.String(),
			Position:        vecToSceneVec(b.position),
			Angle:           b.angle,
			Velocity:        vecToSceneVec(b.velocity),
			AngularVelocity: b.angularVelocity,
		}
		for _, s := range b.shapes {
			sb.Shapes = append(sb.Shapes, shapeToScene(s))
		}
		doc.Bodies = append(doc.Bodies, sb)
	})
	space.EachJoint(func(j *Joint) {
		doc.Joints = append(doc.Joints, jointToScene(j))
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func shapeToScene(s *Shape) sceneShape {
	ss := sceneShape{Type: s.kind.String(), E: s.Mat.Restitution, U: s.Mat.Friction, Density: s.Mat.Density, Sensor: s.sensor}
	switch s.kind {
	case ShapeCircle:
		ss.Center = vecToSceneVec(s.circle.Center)
		ss.Radius = s.circle.Radius
	case ShapeSegment:
		ss.A = vecToSceneVec(s.segment.A)
		ss.B = vecToSceneVec(s.segment.B)
		ss.Radius = s.segment.Radius
	case ShapePoly:
		ss.Verts = make([]sceneVec, len(s.poly.Verts))
		for i, v := range s.poly.Verts {
			ss.Verts[i] = vecToSceneVec(v)
		}
		ss.Radius = s.poly.Radius
	}
	return ss
}

// jointToScene extracts the concrete joint's fields via its existing
// Serialize() (spec §4.3) rather than a type switch over every concrete
// joint struct — Serialize() already closes over the right fields for
// whatever kind j is.
func jointToScene(j *Joint) sceneJoint {
	m := j.Serialize()
	sj := sceneJoint{
		Type:             string(j.kind),
		Body1:            j.BodyA.id,
		Body2:            j.BodyB.id,
		CollideConnected: j.CollideConnected,
		MaxForce:         j.MaxForce,
		Breakable:        j.Breakable,
	}
	if v, ok := m["anchorA"].(Vector); ok {
		sj.Anchor1 = vecToSceneVec(v)
	}
	if v, ok := m["anchorB"].(Vector); ok {
		sj.Anchor2 = vecToSceneVec(v)
	}
	if v, ok := m["axis"].(Vector); ok {
		sj.Axis = vecToSceneVec(v)
	}
	if v, ok := m["length"].(float64); ok {
		sj.Length = v
	}
	if v, ok := m["referenceAngle"].(float64); ok {
		sj.ReferenceAngle = v
	}
	if v, ok := m["ratio"].(float64); ok {
		sj.Ratio = v
	}
	if v, ok := m["phase"].(float64); ok {
		sj.Phase = v
	}
	if v, ok := m["frequencyHz"].(float64); ok {
		sj.FrequencyHz = v
	}
	if v, ok := m["dampingRatio"].(float64); ok {
		sj.DampingRatio = v
	}
	if minV, ok := m["min"].(float64); ok {
		sj.Min = minV
		if maxV, ok := m["max"].(float64); ok {
			sj.Max = maxV
		}
		sj.HasLimit = true
	}
	if speed, ok := m["motorSpeed"].(float64); ok {
		sj.MotorSpeed = speed
		if torque, ok := m["maxMotorTorque"].(float64); ok {
			sj.MaxMotorTorque = torque
		}
		sj.HasMotor = true
	}
	return sj
}
