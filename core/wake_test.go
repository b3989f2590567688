package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/wake-simulator/model"
)

func TestNewWakeSelectsPairedModels(t *testing.T) {
	w, err := NewWake(WakeConfig{Name: "wake_default", VelocityModel: "curl"})
	if err != nil {
		t.Fatalf("NewWake: %v", err)
	}
	p := w.Pair()
	if p.Model != model.WakeModelCurl || p.Velocity != model.VelocityCurl || p.Deflection != model.DeflectionCurl {
		t.Fatalf("pair = %+v, want curl/curl", p)
	}
	if p.Resolution != model.WakeModelCurl.DefaultResolution() {
		t.Fatalf("resolution = %v, want curl default", p.Resolution)
	}
	if w.CombinationModel() != model.CombinationSOSFS {
		t.Fatalf("combination = %q, want sosfs", w.CombinationModel())
	}
	if w.Name() != "wake_default" {
		t.Fatalf("Name() = %q", w.Name())
	}
}

func TestNewWakeResolutionOverride(t *testing.T) {
	w, err := NewWake(WakeConfig{
		VelocityModel: "jensen",
		Resolutions:   map[string]model.Resolution{"curl": {X: 30, Y: 20, Z: 10}},
	})
	if err != nil {
		t.Fatalf("NewWake: %v", err)
	}
	if got := w.ResolutionFor(model.WakeModelCurl); got != (model.Resolution{X: 30, Y: 20, Z: 10}) {
		t.Fatalf("curl resolution = %v", got)
	}
	if got := w.ResolutionFor(model.WakeModelJensen); got != model.WakeModelJensen.DefaultResolution() {
		t.Fatalf("jensen resolution = %v, want default", got)
	}
}

func TestNewWakeRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  WakeConfig
		want error
	}{
		{"missing velocity", WakeConfig{}, ErrMissingField},
		{"unknown velocity", WakeConfig{VelocityModel: "park"}, ErrInvalidConfiguration},
		{"wrong deflection", WakeConfig{VelocityModel: "gauss", DeflectionModel: "jimenez"}, ErrInvalidConfiguration},
		{"unknown combination", WakeConfig{VelocityModel: "gauss", CombinationModel: "max"}, ErrInvalidConfiguration},
		{"resolution for unknown model", WakeConfig{
			VelocityModel: "gauss",
			Resolutions:   map[string]model.Resolution{"park": {X: 4, Y: 4, Z: 4}},
		}, ErrInvalidConfiguration},
		{"degenerate resolution", WakeConfig{
			VelocityModel: "gauss",
			Resolutions:   map[string]model.Resolution{"gauss": {X: 4, Y: 1, Z: 4}},
		}, ErrInvalidConfiguration},
		{"oversized resolution", WakeConfig{
			VelocityModel: "gauss",
			Resolutions:   map[string]model.Resolution{"curl": {X: 1 << 21, Y: 1 << 21, Z: 1 << 21}},
		}, ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWake(tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInvalidWakeModelListsOptions(t *testing.T) {
	err := invalidWakeModel("Gauss")
	for _, name := range []string{"jensen", "floris", "gauss", "curl"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not list %q", err, name)
		}
	}
}
