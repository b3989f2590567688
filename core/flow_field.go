package core

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/signalsfoundry/wake-simulator/model"
)

// Domain padding, in rotor diameters, around the wind-aligned layout.
const (
	domainUpstreamDiameters   = 2.0
	domainDownstreamDiameters = 10.0
	domainLateralDiameters    = 2.0
	domainHeightHubHeights    = 6.0
	domainFloor               = 0.1 // metres; keeps the shear profile finite
)

// Grid is the discretised flow-field domain in the wind-aligned frame.
// U holds the freestream streamwise velocity at every grid point, laid out
// x-major: index (i*len(Y)+j)*len(Z)+k.
type Grid struct {
	Resolution model.Resolution

	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64

	X, Y, Z []float64
	U       []float64
}

// Points returns the number of grid points.
func (g *Grid) Points() int {
	return len(g.U)
}

// Index returns the flat offset of grid point (i, j, k).
func (g *Grid) Index(i, j, k int) int {
	return (i*len(g.Y)+j)*len(g.Z) + k
}

// VelocityAt returns the streamwise velocity at grid point (i, j, k).
func (g *Grid) VelocityAt(i, j, k int) float64 {
	return g.U[g.Index(i, j, k)]
}

// ReinitializeOptions carries ambient overrides; nil fields keep the current
// value.
type ReinitializeOptions struct {
	WindSpeed           *float64
	WindDirection       *float64
	WindShear           *float64
	WindVeer            *float64
	TurbulenceIntensity *float64
	AirDensity          *float64
}

func (o ReinitializeOptions) apply(a model.AmbientConditions) model.AmbientConditions {
	if o.WindSpeed != nil {
		a.WindSpeed = *o.WindSpeed
	}
	if o.WindDirection != nil {
		a.WindDirection = *o.WindDirection
	}
	if o.WindShear != nil {
		a.WindShear = *o.WindShear
	}
	if o.WindVeer != nil {
		a.WindVeer = *o.WindVeer
	}
	if o.TurbulenceIntensity != nil {
		a.TurbulenceIntensity = *o.TurbulenceIntensity
	}
	if o.AirDensity != nil {
		a.AirDensity = *o.AirDensity
	}
	return a
}

// FlowField owns the ambient conditions, the turbine map, the wake and the
// grid. The grid resolution always equals the resolution required by the
// wake's active velocity model.
type FlowField struct {
	ambient    model.AmbientConditions
	turbineMap *TurbineMap
	wake       *Wake

	// center is the layout centroid used as the rotation origin.
	center Vec3
	grid   *Grid
}

// NewFlowField rotates the turbine map into the wind-aligned frame and
// discretises the domain at the wake's current resolution.
func NewFlowField(ambient model.AmbientConditions, tm *TurbineMap, wake *Wake) (*FlowField, error) {
	if tm == nil || tm.Len() == 0 {
		return nil, fmt.Errorf("%w: layout has no turbines", ErrInvalidConfiguration)
	}
	if wake == nil {
		return nil, fmt.Errorf("%w: wake", ErrMissingField)
	}

	ff := &FlowField{
		ambient:    ambient,
		turbineMap: tm,
		wake:       wake,
		center:     tm.Center(),
	}

	theta := windAlignment(ambient.WindDirection)
	grid, err := ff.buildGrid(tm.RotatedPositions(theta, ff.center), ambient, wake.Pair().Resolution)
	if err != nil {
		return nil, err
	}
	tm.RotateZ(theta, ff.center)
	ff.grid = grid
	return ff, nil
}

// windAlignment is the rotation (radians) that brings a meteorological wind
// direction onto +x. 270 degrees, wind from the west, needs none.
func windAlignment(directionDeg float64) float64 {
	return (directionDeg - 270.0) * math.Pi / 180.0
}

// Ambient returns the current ambient conditions. The getters below read
// single fields of the same snapshot.
func (ff *FlowField) Ambient() model.AmbientConditions { return ff.ambient }

func (ff *FlowField) WindSpeed() float64           { return ff.ambient.WindSpeed }
func (ff *FlowField) WindDirection() float64       { return ff.ambient.WindDirection }
func (ff *FlowField) WindShear() float64           { return ff.ambient.WindShear }
func (ff *FlowField) WindVeer() float64            { return ff.ambient.WindVeer }
func (ff *FlowField) TurbulenceIntensity() float64 { return ff.ambient.TurbulenceIntensity }
func (ff *FlowField) AirDensity() float64          { return ff.ambient.AirDensity }

// TurbineMap returns the turbine map.
func (ff *FlowField) TurbineMap() *TurbineMap { return ff.turbineMap }

// Wake returns the wake configuration.
func (ff *FlowField) Wake() *Wake { return ff.wake }

// Grid returns the current discretisation.
func (ff *FlowField) Grid() *Grid { return ff.grid }

// Resolution returns the current grid resolution.
func (ff *FlowField) Resolution() model.Resolution { return ff.grid.Resolution }

// Reinitialize applies ambient overrides, realigns the layout with the wind
// and rebuilds the grid at the active velocity model's resolution. Nothing
// changes if the rebuild fails.
func (ff *FlowField) Reinitialize(opts ReinitializeOptions) error {
	ambient := opts.apply(ff.ambient)
	theta := windAlignment(ambient.WindDirection)

	grid, err := ff.buildGrid(ff.turbineMap.RotatedPositions(theta, ff.center), ambient, ff.wake.Pair().Resolution)
	if err != nil {
		return err
	}

	ff.turbineMap.RotateZ(theta, ff.center)
	ff.ambient = ambient
	ff.grid = grid
	return nil
}

// switchWake installs pair and the grid its velocity model requires as one
// step. The grid is built first so a failure leaves the old pair in place.
func (ff *FlowField) switchWake(pair model.WakePair) error {
	grid, err := ff.buildGrid(ff.rotatedPositions(), ff.ambient, pair.Resolution)
	if err != nil {
		return err
	}
	ff.wake.setPair(pair)
	ff.grid = grid
	return nil
}

func (ff *FlowField) rotatedPositions() []Vec3 {
	coords := ff.turbineMap.Coords()
	out := make([]Vec3, len(coords))
	for i, c := range coords {
		out[i] = c.Rotated()
	}
	return out
}

// buildGrid discretises the domain around positions without touching ff.
func (ff *FlowField) buildGrid(positions []Vec3, ambient model.AmbientConditions, res model.Resolution) (*Grid, error) {
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	hubHeight := ff.turbineMap.entries[0].Turbine.HubHeight
	if hubHeight <= 0 {
		return nil, fmt.Errorf("%w: turbine hub_height must be positive, got %v", ErrInvalidConfiguration, hubHeight)
	}

	pts := make([]geom.Point, len(positions))
	for i, p := range positions {
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: turbine %d: %v", ErrInvalidConfiguration, i, err)
		}
		pts[i] = pt
	}
	lo, hi, ok := geom.NewMultiPoint(pts).Envelope().MinMaxXYs()
	if !ok {
		return nil, fmt.Errorf("%w: layout has no turbines", ErrInvalidConfiguration)
	}

	d := ff.turbineMap.maxRotorDiameter()
	g := &Grid{
		Resolution: res,
		XMin:       lo.X - domainUpstreamDiameters*d,
		XMax:       hi.X + domainDownstreamDiameters*d,
		YMin:       lo.Y - domainLateralDiameters*d,
		YMax:       hi.Y + domainLateralDiameters*d,
		ZMin:       domainFloor,
		ZMax:       domainHeightHubHeights * hubHeight,
	}
	g.X = linspace(g.XMin, g.XMax, res.X)
	g.Y = linspace(g.YMin, g.YMax, res.Y)
	g.Z = linspace(g.ZMin, g.ZMax, res.Z)

	profile := make([]float64, len(g.Z))
	for k, z := range g.Z {
		profile[k] = ambient.WindSpeed * math.Pow(z/hubHeight, ambient.WindShear)
	}
	g.U = make([]float64, res.Points())
	for i := range g.X {
		for j := range g.Y {
			copy(g.U[g.Index(i, j, 0):], profile)
		}
	}
	return g, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
