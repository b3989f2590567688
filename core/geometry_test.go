package core

import (
	"math"
	"testing"
)

const geomTol = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestCoordinateRotateQuarterTurn(t *testing.T) {
	c := NewCoordinate(1, 0)
	c.RotateZ(math.Pi / 2)

	if !approxEqual(c.XPrime, 0, geomTol) || !approxEqual(c.YPrime, 1, geomTol) {
		t.Fatalf("rotated (1,0) by pi/2 = (%v,%v), want (0,1)", c.XPrime, c.YPrime)
	}
	if c.X != 1 || c.Y != 0 {
		t.Fatalf("original coordinates mutated: (%v,%v)", c.X, c.Y)
	}
}

func TestRotationPreservesRadius(t *testing.T) {
	points := []Vec3{{X: 1, Y: 0}, {X: 3, Y: 4}, {X: -1200.5, Y: 630}, {X: 0, Y: -7}, {X: 1e5, Y: -2e5}}
	angles := []float64{0, 0.1, math.Pi / 3, math.Pi, -2.5, 17 * math.Pi}

	for _, p := range points {
		for _, theta := range angles {
			c := NewCoordinate(p.X, p.Y)
			c.RotateZ(theta)
			before := math.Hypot(p.X, p.Y)
			after := math.Hypot(c.XPrime, c.YPrime)
			if !approxEqual(before, after, geomTol) {
				t.Errorf("radius of %+v rotated by %v = %v, want %v", p, theta, after, before)
			}
		}
	}
}

func TestRotationAboutCenterPreservesDistance(t *testing.T) {
	center := Vec3{X: 500, Y: -250}
	c := NewCoordinate(1130, 40)
	c.RotateZAbout(1.234, center)

	before := c.Position().DistanceTo(center)
	after := c.Rotated().DistanceTo(center)
	if !approxEqual(before, after, geomTol) {
		t.Fatalf("distance to center = %v after rotation, want %v", after, before)
	}
}

func TestRotationComposes(t *testing.T) {
	center := Vec3{X: 10, Y: 20}
	tests := []struct{ t1, t2 float64 }{
		{0.3, 0.4},
		{math.Pi / 2, math.Pi / 2},
		{-1.1, 2.7},
		{5 * math.Pi, -0.25},
	}

	for _, tt := range tests {
		first := NewCoordinate(250, -75)
		first.RotateZAbout(tt.t1, center)

		second := NewCoordinate(first.XPrime, first.YPrime)
		second.RotateZAbout(tt.t2, center)

		once := NewCoordinate(250, -75)
		once.RotateZAbout(tt.t1+tt.t2, center)

		if !approxEqual(second.XPrime, once.XPrime, geomTol) || !approxEqual(second.YPrime, once.YPrime, geomTol) {
			t.Errorf("rotate(%v) then rotate(%v) = (%v,%v), single rotation = (%v,%v)",
				tt.t1, tt.t2, second.XPrime, second.YPrime, once.XPrime, once.YPrime)
		}
	}
}

func TestRotationIsReproducible(t *testing.T) {
	c := NewCoordinate(631.2, 1890.4)
	c.RotateZ(0.7)
	x1, y1 := c.XPrime, c.YPrime

	// A different rotation in between must not leak into the next result.
	c.RotateZ(2.1)
	c.RotateZ(0.7)

	if c.XPrime != x1 || c.YPrime != y1 {
		t.Fatalf("RotateZ(0.7) not reproducible: (%v,%v) vs (%v,%v)", c.XPrime, c.YPrime, x1, y1)
	}
}

func TestRotateZKeepsHeight(t *testing.T) {
	got := RotateZ(Vec3{X: 1, Y: 1, Z: 90}, math.Pi, Vec3{})
	if got.Z != 90 {
		t.Fatalf("Z = %v, want 90", got.Z)
	}
	if !approxEqual(got.X, -1, geomTol) || !approxEqual(got.Y, -1, geomTol) {
		t.Fatalf("RotateZ by pi = %+v, want (-1,-1)", got)
	}
}
