package core

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/signalsfoundry/wake-simulator/model"
)

// WakeConfig is the wake section of a farm input.
type WakeConfig struct {
	Name        string
	Description string

	VelocityModel    string
	DeflectionModel  string // optional; must match the velocity model's pair when set
	CombinationModel string // optional; defaults to sosfs

	// Resolutions overrides the grid resolution requested by a velocity
	// model, keyed by velocity model name.
	Resolutions map[string]model.Resolution
}

// Wake holds the active velocity/deflection pair of a flow field. The pair is
// swapped as one value, so readers never observe a velocity model next to a
// deflection model from a different family.
type Wake struct {
	name        string
	description string
	combination model.CombinationModel
	resolutions map[model.VelocityModel]model.Resolution

	pair atomic.Pointer[model.WakePair]
}

// NewWake validates cfg and selects its initial pair.
func NewWake(cfg WakeConfig) (*Wake, error) {
	if cfg.VelocityModel == "" {
		return nil, fmt.Errorf("%w: wake velocity_model", ErrMissingField)
	}
	m, ok := model.WakeModelForVelocity(model.VelocityModel(cfg.VelocityModel))
	if !ok {
		return nil, invalidWakeModel(cfg.VelocityModel)
	}
	if cfg.DeflectionModel != "" && model.DeflectionModel(cfg.DeflectionModel) != m.Deflection() {
		return nil, fmt.Errorf("%w: deflection model %q cannot be paired with velocity model %q (expected %q)",
			ErrInvalidConfiguration, cfg.DeflectionModel, cfg.VelocityModel, m.Deflection())
	}

	combination := model.CombinationSOSFS
	if cfg.CombinationModel != "" {
		c, ok := model.ParseCombinationModel(cfg.CombinationModel)
		if !ok {
			return nil, fmt.Errorf("%w: unknown combination model %q", ErrInvalidConfiguration, cfg.CombinationModel)
		}
		combination = c
	}

	resolutions := make(map[model.VelocityModel]model.Resolution, len(cfg.Resolutions))
	for name, res := range cfg.Resolutions {
		if _, ok := model.WakeModelForVelocity(model.VelocityModel(name)); !ok {
			return nil, fmt.Errorf("%w: resolution given for unknown velocity model %q", ErrInvalidConfiguration, name)
		}
		if err := res.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, name, err)
		}
		resolutions[model.VelocityModel(name)] = res
	}

	w := &Wake{
		name:        cfg.Name,
		description: cfg.Description,
		combination: combination,
		resolutions: resolutions,
	}
	pair := w.pairFor(m)
	w.pair.Store(&pair)
	return w, nil
}

// Name returns the configured wake name.
func (w *Wake) Name() string { return w.name }

// Description returns the configured wake description.
func (w *Wake) Description() string { return w.description }

// CombinationModel returns the wake superposition rule.
func (w *Wake) CombinationModel() model.CombinationModel { return w.combination }

// Pair returns a snapshot of the active pair.
func (w *Wake) Pair() model.WakePair {
	return *w.pair.Load()
}

// Model returns the active wake model family.
func (w *Wake) Model() model.WakeModel { return w.Pair().Model }

// VelocityModel returns the active velocity sub-model.
func (w *Wake) VelocityModel() model.VelocityModel { return w.Pair().Velocity }

// DeflectionModel returns the active deflection sub-model.
func (w *Wake) DeflectionModel() model.DeflectionModel { return w.Pair().Deflection }

// ResolutionFor returns the grid resolution m's velocity model requires.
func (w *Wake) ResolutionFor(m model.WakeModel) model.Resolution {
	if res, ok := w.resolutions[m.Velocity()]; ok {
		return res
	}
	return m.DefaultResolution()
}

func (w *Wake) pairFor(m model.WakeModel) model.WakePair {
	return model.NewWakePair(m, w.ResolutionFor(m))
}

// setPair is only called by the flow field, together with the grid rebuild.
func (w *Wake) setPair(p model.WakePair) {
	w.pair.Store(&p)
}

func invalidWakeModel(name string) error {
	return fmt.Errorf("%w: invalid wake model %q; valid options include: %s",
		ErrInvalidConfiguration, name, strings.Join(model.WakeModelNames(), ", "))
}
