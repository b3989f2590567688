package core

import (
	"errors"
	"math"
	"testing"
)

func TestFlowFieldWestWindKeepsLayout(t *testing.T) {
	farm := newTestFarm(t)

	for i, c := range farm.TurbineMap().Coords() {
		if !approxEqual(c.XPrime, c.X, geomTol) || !approxEqual(c.YPrime, c.Y, geomTol) {
			t.Fatalf("turbine %d rotated to (%v,%v) under a 270 degree wind, want (%v,%v)", i, c.XPrime, c.YPrime, c.X, c.Y)
		}
	}
}

func TestFlowFieldDomainBounds(t *testing.T) {
	farm := newTestFarm(t)
	g := farm.FlowField().Grid()

	const d = 126.0
	want := map[string][2]float64{
		"x": {0 - 2*d, 630 + 10*d},
		"y": {0 - 2*d, 630 + 2*d},
		"z": {0.1, 6 * 90},
	}
	got := map[string][2]float64{
		"x": {g.XMin, g.XMax},
		"y": {g.YMin, g.YMax},
		"z": {g.ZMin, g.ZMax},
	}
	for axis, w := range want {
		if !approxEqual(got[axis][0], w[0], geomTol) || !approxEqual(got[axis][1], w[1], geomTol) {
			t.Errorf("%s bounds = %v, want %v", axis, got[axis], w)
		}
	}
	if g.X[0] != g.XMin || g.X[len(g.X)-1] != g.XMax {
		t.Errorf("x axis does not span the domain: %v", g.X)
	}
	if len(g.X) != g.Resolution.X || len(g.Y) != g.Resolution.Y || len(g.Z) != g.Resolution.Z {
		t.Errorf("axis lengths %d/%d/%d do not match %v", len(g.X), len(g.Y), len(g.Z), g.Resolution)
	}
}

func TestFlowFieldShearProfile(t *testing.T) {
	farm := newTestFarm(t)
	g := farm.FlowField().Grid()

	for k, z := range g.Z {
		want := 8.0 * math.Pow(z/90.0, 0.12)
		for i := range g.X {
			for j := range g.Y {
				if got := g.VelocityAt(i, j, k); !approxEqual(got, want, 1e-12) {
					t.Fatalf("u(%d,%d,%d) = %v, want %v", i, j, k, got, want)
				}
			}
		}
	}
}

func TestFlowFieldNorthWindPutsNorthernTurbineUpstream(t *testing.T) {
	in := testInput([]float64{0, 0}, []float64{0, 630})
	in.Properties.WindDirection = f64(360)
	farm, err := NewFarm(in, testTurbine(), testWakeConfig())
	if err != nil {
		t.Fatalf("NewFarm: %v", err)
	}

	coords := farm.TurbineMap().Coords()
	south, north := coords[0], coords[1]
	if !(north.XPrime < south.XPrime) {
		t.Fatalf("north turbine x' = %v, south x' = %v; north should be upstream", north.XPrime, south.XPrime)
	}
	if !approxEqual(north.YPrime, south.YPrime, geomTol) {
		t.Fatalf("turbines aligned with the wind should share y': %v vs %v", north.YPrime, south.YPrime)
	}

	sorted := farm.TurbineMap().SortedInX()
	if sorted[0].Coord != north {
		t.Fatalf("SortedInX()[0] should be the northern turbine")
	}
}

func TestFlowFieldReinitializeRealignsAndKeepsResolution(t *testing.T) {
	farm := newTestFarm(t)
	if err := farm.SetWakeModel("jensen"); err != nil {
		t.Fatalf("SetWakeModel: %v", err)
	}

	speed, dir := 11.0, 315.0
	if err := farm.ReinitializeFlowField(ReinitializeOptions{WindSpeed: &speed, WindDirection: &dir}); err != nil {
		t.Fatalf("ReinitializeFlowField: %v", err)
	}

	if farm.WindSpeed() != speed || farm.WindDirection() != dir {
		t.Fatalf("ambient = %v/%v, want %v/%v", farm.WindSpeed(), farm.WindDirection(), speed, dir)
	}
	if farm.WindShear() != 0.12 || farm.AirDensity() != 1.225 {
		t.Fatalf("unset overrides changed ambient: %+v", farm.FlowField().Ambient())
	}
	if got, want := farm.FlowField().Resolution(), testResolutions()["jensen"]; got != want {
		t.Fatalf("resolution = %v, want %v", got, want)
	}

	center := farm.TurbineMap().Center()
	theta := (dir - 270) * math.Pi / 180
	for i, c := range farm.TurbineMap().Coords() {
		want := RotateZ(c.Position(), theta, center)
		if !approxEqual(c.XPrime, want.X, geomTol) || !approxEqual(c.YPrime, want.Y, geomTol) {
			t.Fatalf("turbine %d at (%v,%v), want (%v,%v)", i, c.XPrime, c.YPrime, want.X, want.Y)
		}
	}

	g := farm.FlowField().Grid()
	top := len(g.Z) - 1
	if want := speed * math.Pow(g.Z[top]/90.0, 0.12); !approxEqual(g.VelocityAt(0, 0, top), want, 1e-12) {
		t.Fatalf("u at top = %v, want %v", g.VelocityAt(0, 0, top), want)
	}
}

func TestFlowFieldRejectsNonFiniteWindDirection(t *testing.T) {
	for _, dir := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		farm := newTestFarm(t)
		ff := farm.FlowField()
		grid, pair, ambient := ff.Grid(), ff.Wake().Pair(), ff.Ambient()
		before := ff.rotatedPositions()

		err := farm.ReinitializeFlowField(ReinitializeOptions{WindDirection: &dir})
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("direction %v: err = %v, want ErrInvalidConfiguration", dir, err)
		}
		if ff.Grid() != grid || ff.Wake().Pair() != pair || ff.Ambient() != ambient {
			t.Fatalf("direction %v: rejected reinitialization changed the flow field", dir)
		}
		for i, p := range ff.rotatedPositions() {
			if p != before[i] {
				t.Fatalf("direction %v: turbine %d moved to %+v, want %+v", dir, i, p, before[i])
			}
		}
	}
}

func TestFlowFieldRejectsNonPositiveHubHeight(t *testing.T) {
	tb := testTurbine()
	tb.HubHeight = 0
	_, err := NewFarm(testInput([]float64{0}, []float64{0}), tb, testWakeConfig())
	if err == nil {
		t.Fatalf("expected hub height error")
	}
}

func TestLinspaceEndpoints(t *testing.T) {
	got := linspace(-1, 1, 5)
	want := []float64{-1, -0.5, 0, 0.5, 1}
	for i := range want {
		if !approxEqual(got[i], want[i], geomTol) {
			t.Fatalf("linspace = %v, want %v", got, want)
		}
	}
}
