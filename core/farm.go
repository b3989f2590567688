package core

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/signalsfoundry/wake-simulator/model"
)

// FarmProperties is the properties section of a farm input. Pointer and nil
// slice fields mark keys that were not supplied.
type FarmProperties struct {
	WindSpeed           *float64
	WindDirection       *float64
	WindShear           *float64
	WindVeer            *float64
	TurbulenceIntensity *float64
	AirDensity          *float64

	LayoutX []float64
	LayoutY []float64
}

// FarmInput is the farm section of a simulation input.
type FarmInput struct {
	Description *string
	Properties  *FarmProperties
}

// ambient checks that every required key is present and returns the ambient
// conditions. Key names follow the input file.
func (in FarmInput) ambient() (model.AmbientConditions, error) {
	if in.Description == nil {
		return model.AmbientConditions{}, missing("description")
	}
	p := in.Properties
	if p == nil {
		return model.AmbientConditions{}, missing("properties")
	}
	required := []struct {
		key string
		val *float64
	}{
		{"wind_speed", p.WindSpeed},
		{"wind_direction", p.WindDirection},
		{"wind_shear", p.WindShear},
		{"wind_veer", p.WindVeer},
		{"turbulence_intensity", p.TurbulenceIntensity},
		{"air_density", p.AirDensity},
	}
	for _, r := range required {
		if r.val == nil {
			return model.AmbientConditions{}, missing("properties." + r.key)
		}
	}
	if p.LayoutX == nil {
		return model.AmbientConditions{}, missing("properties.layout_x")
	}
	if p.LayoutY == nil {
		return model.AmbientConditions{}, missing("properties.layout_y")
	}

	return model.AmbientConditions{
		WindSpeed:           *p.WindSpeed,
		WindDirection:       *p.WindDirection,
		WindShear:           *p.WindShear,
		WindVeer:            *p.WindVeer,
		TurbulenceIntensity: *p.TurbulenceIntensity,
		AirDensity:          *p.AirDensity,
	}, nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, key)
}

// FarmMetricsRecorder receives farm-level updates. Implementations must be
// cheap; they run inline with the farm operation.
type FarmMetricsRecorder interface {
	SetTurbineCount(n int)
	SetGridPoints(n int)
	WakeModelSwitched(wakeModel string)
	YawAnglesAssigned()
	FlowFieldReinitialized()
}

// FarmOption customises a Farm at construction.
type FarmOption func(*Farm)

// WithID overrides the generated farm id.
func WithID(id string) FarmOption {
	return func(f *Farm) {
		if id != "" {
			f.id = id
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m FarmMetricsRecorder) FarmOption {
	return func(f *Farm) {
		f.metrics = m
	}
}

// Farm assembles a flow field from a farm input and keeps the derived state
// consistent when the wake model or the yaw angles change.
//
// A Farm is not safe for concurrent use; callers serialise access.
type Farm struct {
	id          string
	description string
	flowField   *FlowField

	metrics   FarmMetricsRecorder
	subs      []subscriber
	nextSubID int
}

// NewFarm builds a farm with one independent copy of template per layout
// position. Inputs are validated before any turbine is created.
func NewFarm(in FarmInput, template *model.Turbine, wakeCfg WakeConfig, opts ...FarmOption) (*Farm, error) {
	ambient, err := in.ambient()
	if err != nil {
		return nil, err
	}
	layoutX, layoutY := in.Properties.LayoutX, in.Properties.LayoutY
	if len(layoutX) != len(layoutY) {
		return nil, fmt.Errorf("%w: layout_x has %d entries, layout_y has %d", ErrShapeMismatch, len(layoutX), len(layoutY))
	}
	if template == nil {
		return nil, missing("turbine")
	}
	wake, err := NewWake(wakeCfg)
	if err != nil {
		return nil, err
	}

	turbines := make([]*model.Turbine, len(layoutX))
	for i := range turbines {
		turbines[i] = template.Clone()
	}
	tm, err := NewTurbineMap(layoutX, layoutY, turbines)
	if err != nil {
		return nil, err
	}
	ff, err := NewFlowField(ambient, tm, wake)
	if err != nil {
		return nil, err
	}

	f := &Farm{
		id:          uuid.NewString(),
		description: *in.Description,
		flowField:   ff,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.metrics != nil {
		f.metrics.SetTurbineCount(tm.Len())
		f.metrics.SetGridPoints(ff.grid.Points())
	}
	return f, nil
}

// SetWakeModel switches the velocity and deflection models to the pair named
// by wakeModel and re-discretises the flow field at the resolution the new
// velocity model requires. Unknown names are rejected without any change.
func (f *Farm) SetWakeModel(wakeModel string) error {
	m, ok := model.ParseWakeModel(wakeModel)
	if !ok {
		return invalidWakeModel(wakeModel)
	}
	if err := f.flowField.switchWake(f.flowField.wake.pairFor(m)); err != nil {
		return err
	}

	if f.metrics != nil {
		f.metrics.WakeModelSwitched(m.String())
		f.metrics.SetGridPoints(f.flowField.grid.Points())
	}
	f.emit(EventWakeModelChanged)
	return nil
}

// SetYawAngle sets every turbine's yaw angle to deg. The flow field is not
// recomputed.
func (f *Farm) SetYawAngle(deg float64) {
	for _, t := range f.flowField.turbineMap.Turbines() {
		t.YawAngle = deg
	}
	f.yawAssigned()
}

// SetYawAngles assigns angles[i] to the i-th turbine in turbine-map order.
// The length must equal the turbine count. The flow field is not recomputed.
func (f *Farm) SetYawAngles(angles []float64) error {
	turbines := f.flowField.turbineMap.Turbines()
	if len(angles) != len(turbines) {
		return fmt.Errorf("%w: %d yaw angles for %d turbines", ErrShapeMismatch, len(angles), len(turbines))
	}
	for i, t := range turbines {
		t.YawAngle = angles[i]
	}
	f.yawAssigned()
	return nil
}

func (f *Farm) yawAssigned() {
	if f.metrics != nil {
		f.metrics.YawAnglesAssigned()
	}
	f.emit(EventYawAnglesSet)
}

// ReinitializeFlowField applies ambient overrides to the flow field; a new
// wind direction realigns the layout. The grid keeps the active model's
// resolution.
func (f *Farm) ReinitializeFlowField(opts ReinitializeOptions) error {
	if err := f.flowField.Reinitialize(opts); err != nil {
		return err
	}
	if f.metrics != nil {
		f.metrics.FlowFieldReinitialized()
		f.metrics.SetGridPoints(f.flowField.grid.Points())
	}
	f.emit(EventFlowFieldReinitialized)
	return nil
}

// YawAngles returns the yaw angle of every turbine in turbine-map order.
func (f *Farm) YawAngles() []float64 {
	turbines := f.flowField.turbineMap.Turbines()
	out := make([]float64, len(turbines))
	for i, t := range turbines {
		out[i] = t.YawAngle
	}
	return out
}

// ID returns the farm identifier, a random UUID unless WithID was given.
func (f *Farm) ID() string { return f.id }

// Description returns the farm description from the input document.
func (f *Farm) Description() string { return f.description }

// FlowField returns the flow field the farm drives.
func (f *Farm) FlowField() *FlowField { return f.flowField }

// WindSpeed returns the hub-height wind speed in m/s.
func (f *Farm) WindSpeed() float64 { return f.flowField.WindSpeed() }

// WindDirection returns the meteorological wind direction in degrees.
func (f *Farm) WindDirection() float64 { return f.flowField.WindDirection() }

// WindShear returns the power-law shear exponent.
func (f *Farm) WindShear() float64 { return f.flowField.WindShear() }

// WindVeer returns the wind veer in degrees.
func (f *Farm) WindVeer() float64 { return f.flowField.WindVeer() }

// TurbulenceIntensity returns the ambient turbulence intensity.
func (f *Farm) TurbulenceIntensity() float64 { return f.flowField.TurbulenceIntensity() }

// AirDensity returns the air density in kg/m^3.
func (f *Farm) AirDensity() float64 { return f.flowField.AirDensity() }

// TurbineMap returns the farm's turbine map.
func (f *Farm) TurbineMap() *TurbineMap { return f.flowField.turbineMap }

// Turbines returns the farm's turbines in turbine-map order.
func (f *Farm) Turbines() []*model.Turbine {
	return f.flowField.turbineMap.Turbines()
}

// WakeModel returns the active wake model family.
func (f *Farm) WakeModel() model.WakeModel { return f.flowField.wake.Model() }

// VelocityModel returns the active velocity sub-model.
func (f *Farm) VelocityModel() model.VelocityModel { return f.flowField.wake.VelocityModel() }

// DeflectionModel returns the active deflection sub-model.
func (f *Farm) DeflectionModel() model.DeflectionModel { return f.flowField.wake.DeflectionModel() }

// String summarises the description and the active sub-models.
func (f *Farm) String() string {
	pair := f.flowField.wake.Pair()
	return fmt.Sprintf("Description: %s\nWake Model: %s\nDeflection Model: %s\n",
		f.description, pair.Velocity, pair.Deflection)
}
