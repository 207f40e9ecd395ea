package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector is a 2D vector. It is an alias for mgl64.Vec2 so callers get
// Add/Sub/Mul/Dot/Len/Normalize for free; the 2D-specific operations the
// solver needs (scalar cross product, perpendiculars, angle rotation) are
// free functions below, mirroring the teacher's free-function Vector API
// (space.go calls VectorZero()) rather than methods bolted onto a foreign
// type.
type Vector = mgl64.Vec2

const INFINITY = math.MaxFloat64

// VectorZero returns the zero vector.
func VectorZero() Vector {
	return Vector{0, 0}
}

// VectorNew builds a vector from components.
func VectorNew(x, y float64) Vector {
	return Vector{x, y}
}

// Cross is the 2D scalar cross product a.x*b.y - a.y*b.x.
func Cross(a, b Vector) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossVS rotates v by 90 degrees and scales it by s: cpvmult(cpvperp(v), s).
// Used to turn an angular velocity (scalar) into the linear velocity it
// induces at a lever-arm vector.
func CrossVS(v Vector, s float64) Vector {
	return Vector{-v[1] * s, v[0] * s}
}

// CrossSV is the complement of CrossVS: s × v.
func CrossSV(s float64, v Vector) Vector {
	return Vector{-s * v[1], s * v[0]}
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v Vector) Vector {
	return Vector{-v[1], v[0]}
}

// Neg returns -v.
func Neg(v Vector) Vector {
	return Vector{-v[0], -v[1]}
}

// ForAngle returns the unit vector (cos a, sin a).
func ForAngle(a float64) Vector {
	return Vector{math.Cos(a), math.Sin(a)}
}

// ToAngle returns the angle of v from the positive x-axis.
func ToAngle(v Vector) float64 {
	return math.Atan2(v[1], v[0])
}

// Rotate treats q as a unit complex number and rotates v by it: v * q.
func Rotate(v, q Vector) Vector {
	return Vector{v[0]*q[0] - v[1]*q[1], v[0]*q[1] + v[1]*q[0]}
}

// Unrotate is the inverse of Rotate: v * conj(q).
func Unrotate(v, q Vector) Vector {
	return Vector{v[0]*q[0] + v[1]*q[1], v[1]*q[0] - v[0]*q[1]}
}

// LengthSq returns the squared length of v.
func LengthSq(v Vector) float64 {
	return v.Dot(v)
}

// ClampF clamps f to [lo, hi].
func ClampF(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Clamp01 clamps f to [0, 1].
func Clamp01(f float64) float64 {
	return ClampF(f, 0, 1)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// LerpVector linearly interpolates between vectors a and b.
func LerpVector(a, b Vector, t float64) Vector {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func assert(cond bool, msg string) {
	if !cond {
		panic(ContractViolation(msg))
	}
}
