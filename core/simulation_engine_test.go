package core

import (
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/wake-simulator/model"
)

func TestSimulationEngineAppliesCasesInOrder(t *testing.T) {
	farm := newTestFarm(t)
	engine := NewSimulationEngine(farm, nil)

	var seen []int
	engine.RegisterCaseListener(func(i int, _ Case) { seen = append(seen, i) })

	cases := []Case{
		{Name: "baseline"},
		{Name: "north", WindDirection: f64(0), WindSpeed: f64(10), WakeModel: "curl"},
		{WakeModel: "jensen", Yaw: f64(20)},
		{YawAngles: []float64{0, 5, 10, 15}},
	}
	if err := engine.Run(context.Background(), cases); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(seen) != len(cases) {
		t.Fatalf("listener saw %v, want %d cases", seen, len(cases))
	}
	if farm.WindDirection() != 0 || farm.WindSpeed() != 10 {
		t.Fatalf("ambient = %v/%v, want 0/10", farm.WindDirection(), farm.WindSpeed())
	}
	if farm.WakeModel() != model.WakeModelJensen {
		t.Fatalf("wake model = %v, want jensen", farm.WakeModel())
	}
	if got, want := farm.FlowField().Resolution(), testResolutions()["jensen"]; got != want {
		t.Fatalf("resolution = %v, want %v", got, want)
	}
	for i, want := range []float64{0, 5, 10, 15} {
		if got := farm.Turbines()[i].YawAngle; got != want {
			t.Fatalf("turbine %d yaw = %v, want %v", i, got, want)
		}
	}
}

func TestSimulationEngineRejectsBeforeMutation(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want error
	}{
		{"both yaw forms", Case{Yaw: f64(1), YawAngles: []float64{1, 2, 3, 4}}, ErrInvalidConfiguration},
		{"unknown model", Case{WindDirection: f64(90), WakeModel: "Gauss"}, ErrInvalidConfiguration},
		{"short yaw list", Case{WindSpeed: f64(12), YawAngles: []float64{1, 2}}, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			farm := newTestFarm(t)
			engine := NewSimulationEngine(farm, nil)
			before := farm.FlowField().Grid()

			err := engine.Run(context.Background(), []Case{tt.c})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if farm.FlowField().Grid() != before {
				t.Fatalf("grid rebuilt by a rejected case")
			}
			if farm.WindDirection() != 270 || farm.WindSpeed() != 8 {
				t.Fatalf("ambient changed by a rejected case")
			}
			if farm.WakeModel() != model.WakeModelGauss {
				t.Fatalf("wake model changed by a rejected case")
			}
		})
	}
}

func TestSimulationEngineStopsAtFirstFailure(t *testing.T) {
	farm := newTestFarm(t)
	engine := NewSimulationEngine(farm, nil)

	calls := 0
	engine.RegisterCaseListener(func(int, Case) { calls++ })

	err := engine.Run(context.Background(), []Case{
		{WakeModel: "floris"},
		{WakeModel: "nope"},
		{WakeModel: "curl"},
	})
	if err == nil {
		t.Fatalf("expected failure on the second case")
	}
	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
	if farm.WakeModel() != model.WakeModelFloris {
		t.Fatalf("wake model = %v, want floris", farm.WakeModel())
	}
}

func TestSimulationEngineHonoursCancellation(t *testing.T) {
	engine := NewSimulationEngine(newTestFarm(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := engine.Run(ctx, []Case{{WakeModel: "curl"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
