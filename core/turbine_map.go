package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/wake-simulator/model"
)

// TurbineEntry pairs a layout coordinate with the turbine standing on it.
type TurbineEntry struct {
	Coord   *Coordinate
	Turbine *model.Turbine
}

// TurbineMap is the ordered association between layout positions and
// turbines. Iteration order is the layout order supplied at construction.
type TurbineMap struct {
	entries []TurbineEntry
}

// NewTurbineMap pairs layoutX[i], layoutY[i] with turbines[i].
func NewTurbineMap(layoutX, layoutY []float64, turbines []*model.Turbine) (*TurbineMap, error) {
	if len(layoutX) != len(layoutY) {
		return nil, fmt.Errorf("%w: layout_x has %d entries, layout_y has %d", ErrShapeMismatch, len(layoutX), len(layoutY))
	}
	if len(turbines) != len(layoutX) {
		return nil, fmt.Errorf("%w: %d layout positions for %d turbines", ErrShapeMismatch, len(layoutX), len(turbines))
	}

	entries := make([]TurbineEntry, len(layoutX))
	for i := range layoutX {
		entries[i] = TurbineEntry{
			Coord:   NewCoordinate(layoutX[i], layoutY[i]),
			Turbine: turbines[i],
		}
	}
	return &TurbineMap{entries: entries}, nil
}

// Len returns the number of turbines.
func (tm *TurbineMap) Len() int {
	return len(tm.entries)
}

// Items returns the (coordinate, turbine) pairs in layout order. The slice is
// a copy; the coordinates and turbines are shared.
func (tm *TurbineMap) Items() []TurbineEntry {
	out := make([]TurbineEntry, len(tm.entries))
	copy(out, tm.entries)
	return out
}

// Turbines returns the turbines in layout order.
func (tm *TurbineMap) Turbines() []*model.Turbine {
	out := make([]*model.Turbine, len(tm.entries))
	for i, e := range tm.entries {
		out[i] = e.Turbine
	}
	return out
}

// Coords returns the coordinates in layout order.
func (tm *TurbineMap) Coords() []*Coordinate {
	out := make([]*Coordinate, len(tm.entries))
	for i, e := range tm.entries {
		out[i] = e.Coord
	}
	return out
}

// Center returns the centroid of the original layout.
func (tm *TurbineMap) Center() Vec3 {
	if len(tm.entries) == 0 {
		return Vec3{}
	}
	var c Vec3
	for _, e := range tm.entries {
		c = c.Add(e.Coord.Position())
	}
	n := float64(len(tm.entries))
	return Vec3{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// RotatedPositions returns where every coordinate would land after rotating
// by theta about center, without touching the map.
func (tm *TurbineMap) RotatedPositions(theta float64, center Vec3) []Vec3 {
	out := make([]Vec3, len(tm.entries))
	for i, e := range tm.entries {
		out[i] = RotateZ(e.Coord.Position(), theta, center)
	}
	return out
}

// RotateZ re-expresses every coordinate rotated by theta about center.
func (tm *TurbineMap) RotateZ(theta float64, center Vec3) {
	for _, e := range tm.entries {
		e.Coord.RotateZAbout(theta, center)
	}
}

// SortedInX returns the entries ordered by rotated x, i.e. upstream first.
// Ties keep layout order.
func (tm *TurbineMap) SortedInX() []TurbineEntry {
	out := tm.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Coord.XPrime < out[j].Coord.XPrime
	})
	return out
}

// maxRotorDiameter returns the largest rotor diameter on the map.
func (tm *TurbineMap) maxRotorDiameter() float64 {
	var d float64
	for _, e := range tm.entries {
		if e.Turbine.RotorDiameter > d {
			d = e.Turbine.RotorDiameter
		}
	}
	return d
}
