package core

import "math"

// Vec3 is a position in the farm's Cartesian frame, in metres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// RotateZ rotates p by theta radians about the vertical axis through center.
// Z is left untouched.
func RotateZ(p Vec3, theta float64, center Vec3) Vec3 {
	sin, cos := math.Sincos(theta)
	dx := p.X - center.X
	dy := p.Y - center.Y
	return Vec3{
		X: dx*cos - dy*sin + center.X,
		Y: dx*sin + dy*cos + center.Y,
		Z: p.Z,
	}
}

// Coordinate is a layout position together with its image in the rotated
// (wind-aligned) frame. The primed values are only meaningful after a
// rotation; until then they mirror the originals.
type Coordinate struct {
	X, Y, Z float64

	XPrime, YPrime, ZPrime float64
}

// NewCoordinate returns a coordinate at (x, y, 0) with an identity rotation.
func NewCoordinate(x, y float64) *Coordinate {
	return &Coordinate{X: x, Y: y, XPrime: x, YPrime: y}
}

// Position returns the original coordinates.
func (c *Coordinate) Position() Vec3 {
	return Vec3{X: c.X, Y: c.Y, Z: c.Z}
}

// Rotated returns the primed coordinates.
func (c *Coordinate) Rotated() Vec3 {
	return Vec3{X: c.XPrime, Y: c.YPrime, Z: c.ZPrime}
}

// RotateZ sets the primed coordinates to the original position rotated by
// theta radians about the coordinate-system origin.
func (c *Coordinate) RotateZ(theta float64) {
	c.RotateZAbout(theta, Vec3{})
}

// RotateZAbout sets the primed coordinates to the original position rotated
// by theta radians about center. The result depends only on the original
// position, theta and center, so repeated calls with the same inputs are
// bit-for-bit identical.
func (c *Coordinate) RotateZAbout(theta float64, center Vec3) {
	r := RotateZ(c.Position(), theta, center)
	c.XPrime, c.YPrime, c.ZPrime = r.X, r.Y, r.Z
}
