package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FarmCollector bundles Prometheus metrics for a simulated farm and exposes
// them over HTTP. It satisfies core.FarmMetricsRecorder.
type FarmCollector struct {
	gatherer prometheus.Gatherer

	Turbines   prometheus.Gauge
	GridPoints prometheus.Gauge

	WakeModelSwitches *prometheus.CounterVec
	YawUpdates        prometheus.Counter
	FlowFieldReinits  prometheus.Counter
}

// NewFarmCollector registers farm metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewFarmCollector(reg prometheus.Registerer) (*FarmCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	turbines, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wakesim_farm_turbines",
		Help: "Number of turbines in the farm layout.",
	}), "wakesim_farm_turbines")
	if err != nil {
		return nil, err
	}
	gridPoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wakesim_flow_field_grid_points",
		Help: "Number of points in the current flow-field grid.",
	}), "wakesim_flow_field_grid_points")
	if err != nil {
		return nil, err
	}

	switches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wakesim_wake_model_switches_total",
		Help: "Wake model switches, labeled by the model switched to.",
	}, []string{"model"})
	switches, err = registerCounterVec(reg, switches, "wakesim_wake_model_switches_total")
	if err != nil {
		return nil, err
	}

	yaw, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wakesim_yaw_updates_total",
		Help: "Yaw angle assignments applied to the farm.",
	}), "wakesim_yaw_updates_total")
	if err != nil {
		return nil, err
	}
	reinits, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wakesim_flow_field_reinitializations_total",
		Help: "Flow-field reinitializations after ambient changes.",
	}), "wakesim_flow_field_reinitializations_total")
	if err != nil {
		return nil, err
	}

	return &FarmCollector{
		gatherer:          gatherer,
		Turbines:          turbines,
		GridPoints:        gridPoints,
		WakeModelSwitches: switches,
		YawUpdates:        yaw,
		FlowFieldReinits:  reinits,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *FarmCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetTurbineCount records the number of turbines in the layout.
func (c *FarmCollector) SetTurbineCount(n int) {
	if c == nil || c.Turbines == nil {
		return
	}
	c.Turbines.Set(float64(n))
}

// SetGridPoints records the size of the current flow-field grid.
func (c *FarmCollector) SetGridPoints(n int) {
	if c == nil || c.GridPoints == nil {
		return
	}
	c.GridPoints.Set(float64(n))
}

// WakeModelSwitched counts a switch to wakeModel.
func (c *FarmCollector) WakeModelSwitched(wakeModel string) {
	if c == nil || c.WakeModelSwitches == nil {
		return
	}
	c.WakeModelSwitches.WithLabelValues(wakeModel).Inc()
}

// YawAnglesAssigned counts a yaw assignment.
func (c *FarmCollector) YawAnglesAssigned() {
	if c == nil || c.YawUpdates == nil {
		return
	}
	c.YawUpdates.Inc()
}

// FlowFieldReinitialized counts a flow-field rebuild after an ambient change.
func (c *FarmCollector) FlowFieldReinitialized() {
	if c == nil || c.FlowFieldReinits == nil {
		return
	}
	c.FlowFieldReinits.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
