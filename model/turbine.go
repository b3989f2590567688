package model

// PowerThrustTable holds the tabulated power and thrust coefficients of a
// turbine, indexed by hub-height wind speed (m/s).
type PowerThrustTable struct {
	Power     []float64
	Thrust    []float64
	WindSpeed []float64
}

// Turbine describes a single wind turbine: rotor geometry, the performance
// table and the operating angles that the farm layer assigns.
type Turbine struct {
	Name        string
	Description string

	RotorDiameter float64 // metres
	HubHeight     float64 // metres
	BladeCount    int

	PP                  float64 // cosine exponent applied to power under yaw
	PT                  float64 // cosine exponent applied to thrust under yaw
	GeneratorEfficiency float64
	TSR                 float64

	PowerThrustTable PowerThrustTable

	BladePitch float64 // degrees
	YawAngle   float64 // degrees, relative to the incoming wind
	TiltAngle  float64 // degrees
}

// RotorRadius returns half the rotor diameter.
func (t *Turbine) RotorRadius() float64 {
	return t.RotorDiameter / 2.0
}

// Clone returns a deep copy of t. The copy shares no slices with the
// original, so mutating one turbine never leaks into another.
func (t *Turbine) Clone() *Turbine {
	if t == nil {
		return nil
	}
	out := *t
	out.PowerThrustTable = PowerThrustTable{
		Power:     cloneFloats(t.PowerThrustTable.Power),
		Thrust:    cloneFloats(t.PowerThrustTable.Thrust),
		WindSpeed: cloneFloats(t.PowerThrustTable.WindSpeed),
	}
	return &out
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
