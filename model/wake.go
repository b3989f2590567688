package model

import "fmt"

// VelocityModel names a velocity-deficit sub-model.
type VelocityModel string

// DeflectionModel names a wake-deflection sub-model.
type DeflectionModel string

// CombinationModel names the rule used to superpose overlapping wakes.
type CombinationModel string

const (
	VelocityJensen VelocityModel = "jensen"
	VelocityFloris VelocityModel = "floris"
	VelocityGauss  VelocityModel = "gauss"
	VelocityCurl   VelocityModel = "curl"
)

const (
	DeflectionJimenez DeflectionModel = "jimenez"
	DeflectionFloris  DeflectionModel = "floris"
	DeflectionGauss   DeflectionModel = "gauss_deflection"
	DeflectionCurl    DeflectionModel = "curl"
)

const (
	// CombinationFLS is freestream linear superposition.
	CombinationFLS CombinationModel = "fls"
	// CombinationSOSFS is sum of squares freestream superposition.
	CombinationSOSFS CombinationModel = "sosfs"
)

// ParseCombinationModel validates a combination model name.
func ParseCombinationModel(name string) (CombinationModel, bool) {
	switch CombinationModel(name) {
	case CombinationFLS, CombinationSOSFS:
		return CombinationModel(name), true
	}
	return "", false
}

// MaxGridPoints caps X*Y*Z. One float64 per point puts the largest grid at
// 512 MiB.
const MaxGridPoints = 1 << 26

// Resolution is the number of flow-field grid points along x, y and z.
type Resolution struct {
	X, Y, Z int
}

// Points returns the total number of grid points.
func (r Resolution) Points() int {
	return r.X * r.Y * r.Z
}

// Validate reports an error unless every axis has at least two points and
// the grid holds at most MaxGridPoints.
func (r Resolution) Validate() error {
	if r.X < 2 || r.Y < 2 || r.Z < 2 {
		return fmt.Errorf("resolution %s needs at least 2 points per axis", r)
	}
	// Divide rather than multiply so the check cannot overflow.
	if r.X > MaxGridPoints/r.Y || r.X*r.Y > MaxGridPoints/r.Z {
		return fmt.Errorf("resolution %s exceeds %d grid points", r, MaxGridPoints)
	}
	return nil
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%dx%d", r.X, r.Y, r.Z)
}

// WakeModel is the closed set of supported wake model families. Each member
// fixes both the velocity and the deflection sub-model.
type WakeModel int

const (
	WakeModelJensen WakeModel = iota + 1
	WakeModelFloris
	WakeModelGauss
	WakeModelCurl
)

type wakeModelInfo struct {
	name       string
	velocity   VelocityModel
	deflection DeflectionModel
	resolution Resolution
}

var wakeModelTable = map[WakeModel]wakeModelInfo{
	WakeModelJensen: {"jensen", VelocityJensen, DeflectionJimenez, Resolution{X: 200, Y: 100, Z: 7}},
	WakeModelFloris: {"floris", VelocityFloris, DeflectionFloris, Resolution{X: 200, Y: 100, Z: 7}},
	WakeModelGauss:  {"gauss", VelocityGauss, DeflectionGauss, Resolution{X: 200, Y: 100, Z: 7}},
	WakeModelCurl:   {"curl", VelocityCurl, DeflectionCurl, Resolution{X: 250, Y: 100, Z: 75}},
}

// WakeModels lists every supported wake model in declaration order.
func WakeModels() []WakeModel {
	return []WakeModel{WakeModelJensen, WakeModelFloris, WakeModelGauss, WakeModelCurl}
}

// WakeModelNames lists the accepted wake model identifiers.
func WakeModelNames() []string {
	models := WakeModels()
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.String())
	}
	return names
}

// ParseWakeModel maps a case-sensitive identifier to its WakeModel.
func ParseWakeModel(name string) (WakeModel, bool) {
	for m, info := range wakeModelTable {
		if info.name == name {
			return m, true
		}
	}
	return 0, false
}

// WakeModelForVelocity returns the wake model whose velocity sub-model is v.
func WakeModelForVelocity(v VelocityModel) (WakeModel, bool) {
	for m, info := range wakeModelTable {
		if info.velocity == v {
			return m, true
		}
	}
	return 0, false
}

// Valid reports whether m is a member of the closed set.
func (m WakeModel) Valid() bool {
	_, ok := wakeModelTable[m]
	return ok
}

func (m WakeModel) String() string {
	if info, ok := wakeModelTable[m]; ok {
		return info.name
	}
	return fmt.Sprintf("WakeModel(%d)", int(m))
}

// Velocity returns the velocity sub-model of m.
func (m WakeModel) Velocity() VelocityModel {
	return wakeModelTable[m].velocity
}

// Deflection returns the only deflection sub-model paired with m.
func (m WakeModel) Deflection() DeflectionModel {
	return wakeModelTable[m].deflection
}

// DefaultResolution is the grid resolution m's velocity model asks for when
// no override is configured.
func (m WakeModel) DefaultResolution() Resolution {
	return wakeModelTable[m].resolution
}

// WakePair is an immutable snapshot of the selected sub-models together with
// the grid resolution the velocity model requires.
type WakePair struct {
	Model      WakeModel
	Velocity   VelocityModel
	Deflection DeflectionModel
	Resolution Resolution
}

// NewWakePair builds the pair for m with the given required resolution.
func NewWakePair(m WakeModel, res Resolution) WakePair {
	return WakePair{
		Model:      m,
		Velocity:   m.Velocity(),
		Deflection: m.Deflection(),
		Resolution: res,
	}
}
