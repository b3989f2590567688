package core

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/wake-simulator/internal/logging"
	"github.com/signalsfoundry/wake-simulator/model"
)

const tracerName = "github.com/signalsfoundry/wake-simulator/core"

// Case is one set of operating conditions applied to a farm. Unset fields
// leave the farm as the previous case left it.
type Case struct {
	Name string

	WindSpeed     *float64
	WindDirection *float64

	WakeModel string

	// Yaw is broadcast to every turbine; YawAngles is per turbine. At most
	// one of the two may be set.
	Yaw       *float64
	YawAngles []float64
}

// Label returns the case name, or "case-<i>" for an unnamed case at index i.
func (c Case) Label(i int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("case-%d", i)
}

// SimulationEngine applies a sequence of cases to a farm.
type SimulationEngine struct {
	Farm *Farm

	log           logging.Logger
	caseListeners []func(int, Case)
}

func NewSimulationEngine(farm *Farm, log logging.Logger) *SimulationEngine {
	if log == nil {
		log = logging.Noop()
	}
	return &SimulationEngine{
		Farm: farm,
		log:  log.With(logging.String("farm_id", farm.ID())),
	}
}

// RegisterCaseListener registers fn to run after every applied case.
func (se *SimulationEngine) RegisterCaseListener(fn func(int, Case)) {
	se.caseListeners = append(se.caseListeners, fn)
}

// Run applies cases in order and stops at the first failure.
func (se *SimulationEngine) Run(ctx context.Context, cases []Case) error {
	tracer := otel.Tracer(tracerName)

	for i, c := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := se.runCase(ctx, tracer, i, c); err != nil {
			return fmt.Errorf("case %d (%s): %w", i, c.Label(i), err)
		}
		for _, fn := range se.caseListeners {
			fn(i, c)
		}
	}
	return nil
}

func (se *SimulationEngine) runCase(ctx context.Context, tracer trace.Tracer, i int, c Case) (err error) {
	ctx, span := tracer.Start(ctx, "farm.case", trace.WithAttributes(
		attribute.Int("case.index", i),
		attribute.String("case.name", c.Label(i)),
		attribute.String("farm.id", se.Farm.ID()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			se.log.Warn(ctx, "case rejected", logging.String("case", c.Label(i)), logging.Err(err))
		}
		span.End()
	}()

	if err := se.validate(c); err != nil {
		return err
	}

	if c.WindSpeed != nil || c.WindDirection != nil {
		if err := se.Farm.ReinitializeFlowField(ReinitializeOptions{
			WindSpeed:     c.WindSpeed,
			WindDirection: c.WindDirection,
		}); err != nil {
			return err
		}
	}
	if c.WakeModel != "" {
		if err := se.Farm.SetWakeModel(c.WakeModel); err != nil {
			return err
		}
	}
	switch {
	case c.Yaw != nil:
		se.Farm.SetYawAngle(*c.Yaw)
	case c.YawAngles != nil:
		if err := se.Farm.SetYawAngles(c.YawAngles); err != nil {
			return err
		}
	}

	pair := se.Farm.FlowField().Wake().Pair()
	span.SetAttributes(
		attribute.String("wake.velocity_model", string(pair.Velocity)),
		attribute.String("wake.deflection_model", string(pair.Deflection)),
		attribute.Int("grid.points", se.Farm.FlowField().Grid().Points()),
	)
	se.log.Info(ctx, "case applied",
		logging.String("case", c.Label(i)),
		logging.String("wake_model", pair.Model.String()),
		logging.String("resolution", pair.Resolution.String()),
		logging.Float64("wind_direction", se.Farm.WindDirection()),
		logging.Float64("wind_speed", se.Farm.WindSpeed()),
	)
	return nil
}

// validate rejects a malformed case before it touches the farm.
func (se *SimulationEngine) validate(c Case) error {
	if c.Yaw != nil && c.YawAngles != nil {
		return fmt.Errorf("%w: case sets both yaw and yaw_angles", ErrInvalidConfiguration)
	}
	if c.WakeModel != "" {
		if _, ok := model.ParseWakeModel(c.WakeModel); !ok {
			return invalidWakeModel(c.WakeModel)
		}
	}
	if c.YawAngles != nil && len(c.YawAngles) != se.Farm.TurbineMap().Len() {
		return fmt.Errorf("%w: %d yaw angles for %d turbines", ErrShapeMismatch, len(c.YawAngles), se.Farm.TurbineMap().Len())
	}
	return nil
}
