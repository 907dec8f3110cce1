// Package transform holds the yaw-only rotation math shared by the
// hierarchy engine and the interchange converter.
//
// Placement space is Y-up: X and Z span the floor and yaw turns about +Y.
// The interchange document is Z-up, so locations swap their Y and Z
// components on the way in and out, and document quaternions rotate
// about +Z.
package transform

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the vertical axis of placement space.
var Up = r3.Vec{Y: 1}

// Euler is a roll/pitch/yaw triple in radians.
type Euler struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// QuatFromYaw builds the document quaternion for a placement yaw. The
// document turns the opposite way to placement space, so the yaw is
// negated before the half-angle product.
func QuatFromYaw(rotate float32) quat.Number {
	roll := 0.0
	pitch := 0.0
	yaw := -float64(rotate)

	cy := math.Cos(yaw * 0.5)
	sy := math.Sin(yaw * 0.5)
	cp := math.Cos(pitch * 0.5)
	sp := math.Sin(pitch * 0.5)
	cr := math.Cos(roll * 0.5)
	sr := math.Sin(roll * 0.5)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// EulerFromQuat extracts roll, pitch and yaw from q. Pitch saturates at
// ±π/2 when the sine term leaves [-1, 1] through rounding.
func EulerFromQuat(q quat.Number) Euler {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag

	var e Euler

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	e.Roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1 {
		e.Pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		e.Pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	e.Yaw = math.Atan2(sinyCosp, cosyCosp)

	return e
}

// YawFromQuat is the inverse of QuatFromYaw: it undoes the document's
// sign flip and returns a normalised placement yaw.
func YawFromQuat(q quat.Number) float32 {
	return NormalizeYaw(float32(-EulerFromQuat(q).Yaw))
}

// NormalizeYaw maps any angle into (-π, π].
func NormalizeYaw(rotate float32) float32 {
	r := math.Remainder(float64(rotate), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return float32(r)
}

// RotateByYaw turns v about the vertical axis by yaw radians. The
// vertical component is unchanged.
func RotateByYaw(yaw float32, v r3.Vec) r3.Vec {
	if yaw == 0 {
		return v
	}
	return r3.NewRotation(float64(yaw), Up).Rotate(v)
}

// ToDocumentAxes reorders a placement-space (x, y, z) into the document's
// (x, z, y). The swap is its own inverse.
func ToDocumentAxes(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Z, Z: v.Y}
}

// FromDocumentAxes reorders a document location back into placement
// space.
func FromDocumentAxes(v r3.Vec) r3.Vec {
	return ToDocumentAxes(v)
}

// Scale multiplies every component of v by f.
func Scale(v r3.Vec, f float64) r3.Vec {
	return r3.Scale(f, v)
}
