package model

// AmbientConditions are the freestream wind properties of a farm.
type AmbientConditions struct {
	WindSpeed           float64 // m/s at hub height
	WindDirection       float64 // degrees, meteorological (270 = from the west)
	WindShear           float64 // power-law exponent
	WindVeer            float64 // degrees across the rotor
	TurbulenceIntensity float64 // decimal fraction
	AirDensity          float64 // kg/m^3
}
