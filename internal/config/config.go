// Package config reads a simulation input document: the farm, the turbine
// template, the wake configuration and an optional list of cases.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/wake-simulator/core"
	"github.com/signalsfoundry/wake-simulator/internal/layout"
	"github.com/signalsfoundry/wake-simulator/model"
)

// Input is a fully decoded simulation input.
type Input struct {
	Description string

	Farm    core.FarmInput
	Turbine *model.Turbine
	Wake    core.WakeConfig
	Cases   []core.Case
}

type document struct {
	Description string     `mapstructure:"description"`
	Farm        farmDoc    `mapstructure:"farm"`
	Turbine     turbineDoc `mapstructure:"turbine"`
	Wake        wakeDoc    `mapstructure:"wake"`
	Cases       []caseDoc  `mapstructure:"cases"`
}

type farmDoc struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Properties  struct {
		WindSpeed           float64   `mapstructure:"wind_speed"`
		WindDirection       float64   `mapstructure:"wind_direction"`
		WindShear           float64   `mapstructure:"wind_shear"`
		WindVeer            float64   `mapstructure:"wind_veer"`
		TurbulenceIntensity float64   `mapstructure:"turbulence_intensity"`
		AirDensity          float64   `mapstructure:"air_density"`
		LayoutX             []float64 `mapstructure:"layout_x"`
		LayoutY             []float64 `mapstructure:"layout_y"`
		LayoutLon           []float64 `mapstructure:"layout_lon"`
		LayoutLat           []float64 `mapstructure:"layout_lat"`
	} `mapstructure:"properties"`
}

type turbineDoc struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Properties  struct {
		RotorDiameter       float64 `mapstructure:"rotor_diameter"`
		HubHeight           float64 `mapstructure:"hub_height"`
		BladeCount          int     `mapstructure:"blade_count"`
		PP                  float64 `mapstructure:"pp"`
		PT                  float64 `mapstructure:"pt"`
		GeneratorEfficiency float64 `mapstructure:"generator_efficiency"`
		TSR                 float64 `mapstructure:"tsr"`
		BladePitch          float64 `mapstructure:"blade_pitch"`
		YawAngle            float64 `mapstructure:"yaw_angle"`
		TiltAngle           float64 `mapstructure:"tilt_angle"`
		PowerThrustTable    struct {
			Power     []float64 `mapstructure:"power"`
			Thrust    []float64 `mapstructure:"thrust"`
			WindSpeed []float64 `mapstructure:"wind_speed"`
		} `mapstructure:"power_thrust_table"`
	} `mapstructure:"properties"`
}

type wakeDoc struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Properties  struct {
		VelocityModel    string `mapstructure:"velocity_model"`
		DeflectionModel  string `mapstructure:"deflection_model"`
		CombinationModel string `mapstructure:"combination_model"`
		Parameters       map[string]struct {
			ModelGridResolution []int `mapstructure:"model_grid_resolution"`
		} `mapstructure:"parameters"`
	} `mapstructure:"properties"`
}

type caseDoc struct {
	Name          string    `mapstructure:"name"`
	WakeModel     string    `mapstructure:"wake_model"`
	Yaw           *float64  `mapstructure:"yaw"`
	YawAngles     []float64 `mapstructure:"yaw_angles"`
	WindSpeed     *float64  `mapstructure:"wind_speed"`
	WindDirection *float64  `mapstructure:"wind_direction"`
}

// Keys that must be present in every input, in the order they are checked.
var requiredKeys = []string{
	"farm.description",
	"farm.properties.wind_speed",
	"farm.properties.wind_direction",
	"farm.properties.wind_shear",
	"farm.properties.wind_veer",
	"farm.properties.turbulence_intensity",
	"farm.properties.air_density",
	"turbine.properties.rotor_diameter",
	"turbine.properties.hub_height",
	"wake.properties.velocity_model",
}

// Load reads the JSON input document at path.
func Load(path string) (*Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	return parse(raw)
}

// Read decodes a JSON input document from r.
func Read(r io.Reader) (*Input, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Input, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, missing(key)
		}
	}
	// viper folds key case, so model names are checked against the raw document.
	if err := checkParameterKeys(raw); err != nil {
		return nil, err
	}
	return decode(v)
}

// checkParameterKeys rejects wake.properties.parameters entries that are not
// wake model names, matched case-sensitively.
func checkParameterKeys(raw []byte) error {
	var doc struct {
		Wake struct {
			Properties struct {
				Parameters map[string]json.RawMessage `json:"parameters"`
			} `json:"properties"`
		} `json:"wake"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfiguration, err)
	}
	for name := range doc.Wake.Properties.Parameters {
		if _, ok := model.ParseWakeModel(name); !ok {
			return fmt.Errorf("%w: wake.properties.parameters.%s is not a wake model; valid options include: %s",
				core.ErrInvalidConfiguration, name, strings.Join(model.WakeModelNames(), ", "))
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("wake.properties.combination_model", string(model.CombinationSOSFS))
	return v
}

func decode(v *viper.Viper) (*Input, error) {
	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidConfiguration, err)
	}

	layoutX, layoutY, err := resolveLayout(v, &doc.Farm)
	if err != nil {
		return nil, err
	}

	wake, err := wakeConfig(&doc.Wake)
	if err != nil {
		return nil, err
	}

	fp := doc.Farm.Properties
	in := &Input{
		Description: doc.Description,
		Farm: core.FarmInput{
			Description: &doc.Farm.Description,
			Properties: &core.FarmProperties{
				WindSpeed:           &fp.WindSpeed,
				WindDirection:       &fp.WindDirection,
				WindShear:           &fp.WindShear,
				WindVeer:            &fp.WindVeer,
				TurbulenceIntensity: &fp.TurbulenceIntensity,
				AirDensity:          &fp.AirDensity,
				LayoutX:             layoutX,
				LayoutY:             layoutY,
			},
		},
		Turbine: turbine(&doc.Turbine),
		Wake:    wake,
	}
	for _, c := range doc.Cases {
		in.Cases = append(in.Cases, core.Case{
			Name:          c.Name,
			WindSpeed:     c.WindSpeed,
			WindDirection: c.WindDirection,
			WakeModel:     c.WakeModel,
			Yaw:           c.Yaw,
			YawAngles:     c.YawAngles,
		})
	}
	return in, nil
}

// resolveLayout prefers layout_x/layout_y and falls back to projecting
// layout_lon/layout_lat.
func resolveLayout(v *viper.Viper, f *farmDoc) (x, y []float64, err error) {
	p := f.Properties
	if v.IsSet("farm.properties.layout_x") || v.IsSet("farm.properties.layout_y") {
		if !v.IsSet("farm.properties.layout_x") {
			return nil, nil, missing("farm.properties.layout_x")
		}
		if !v.IsSet("farm.properties.layout_y") {
			return nil, nil, missing("farm.properties.layout_y")
		}
		return p.LayoutX, p.LayoutY, nil
	}

	if !v.IsSet("farm.properties.layout_lon") || !v.IsSet("farm.properties.layout_lat") {
		return nil, nil, missing("farm.properties.layout_x")
	}
	x, y, err = layout.FromGeographic(p.LayoutLon, p.LayoutLat)
	switch {
	case errors.Is(err, layout.ErrShapeMismatch):
		return nil, nil, fmt.Errorf("%w: %w", core.ErrShapeMismatch, err)
	case err != nil:
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInvalidConfiguration, err)
	}
	return x, y, nil
}

func wakeConfig(w *wakeDoc) (core.WakeConfig, error) {
	cfg := core.WakeConfig{
		Name:             w.Name,
		Description:      w.Description,
		VelocityModel:    w.Properties.VelocityModel,
		DeflectionModel:  w.Properties.DeflectionModel,
		CombinationModel: w.Properties.CombinationModel,
	}
	for name, params := range w.Properties.Parameters {
		r := params.ModelGridResolution
		if r == nil {
			continue
		}
		if len(r) != 3 {
			return core.WakeConfig{}, fmt.Errorf("%w: wake.properties.parameters.%s.model_grid_resolution needs 3 values, got %d",
				core.ErrInvalidConfiguration, name, len(r))
		}
		if cfg.Resolutions == nil {
			cfg.Resolutions = make(map[string]model.Resolution)
		}
		cfg.Resolutions[name] = model.Resolution{X: r[0], Y: r[1], Z: r[2]}
	}
	return cfg, nil
}

func turbine(t *turbineDoc) *model.Turbine {
	p := t.Properties
	return &model.Turbine{
		Name:                t.Name,
		Description:         t.Description,
		RotorDiameter:       p.RotorDiameter,
		HubHeight:           p.HubHeight,
		BladeCount:          p.BladeCount,
		PP:                  p.PP,
		PT:                  p.PT,
		GeneratorEfficiency: p.GeneratorEfficiency,
		TSR:                 p.TSR,
		PowerThrustTable: model.PowerThrustTable{
			Power:     p.PowerThrustTable.Power,
			Thrust:    p.PowerThrustTable.Thrust,
			WindSpeed: p.PowerThrustTable.WindSpeed,
		},
		BladePitch: p.BladePitch,
		YawAngle:   p.YawAngle,
		TiltAngle:  p.TiltAngle,
	}
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", core.ErrMissingField, key)
}
