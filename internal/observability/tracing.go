package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/wake-simulator/internal/logging"
)

const (
	serviceName      = "wake-simulator"
	serviceNamespace = "wakesim"

	defaultOTLPEndpoint = "localhost:4317"
)

// Resource attribute keys identifying one simulator run.
const (
	AttrRunID = attribute.Key("wakesim.run.id")
	AttrInput = attribute.Key("wakesim.input")
)

// Exporter names a span exporter.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

// ParseExporter maps a case-insensitive name to an Exporter. Empty means
// stdout.
func ParseExporter(name string) (Exporter, error) {
	switch e := Exporter(strings.ToLower(strings.TrimSpace(name))); e {
	case "":
		return ExporterStdout, nil
	case ExporterStdout, ExporterOTLP:
		return e, nil
	default:
		return "", fmt.Errorf("unsupported tracing exporter %q (want stdout or otlp)", name)
	}
}

// TracingConfig governs tracing for one simulator run. Every span carries
// RunID and Input as resource attributes.
type TracingConfig struct {
	Enabled     bool
	Exporter    Exporter
	Endpoint    string // otlp collector, host:port
	SampleRatio float64

	// RunID defaults to the run id on the InitTracing context.
	RunID string
	// Input is the path of the simulation input document.
	Input string

	// Output receives stdout spans; nil means os.Stderr.
	Output io.Writer
}

// TracingConfigFromEnv reads WAKESIM_TRACING_ENABLED, WAKESIM_TRACING_EXPORTER,
// WAKESIM_TRACING_SAMPLE_RATIO and WAKESIM_OTLP_ENDPOINT. Malformed values
// are errors.
func TracingConfigFromEnv() (TracingConfig, error) {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv("WAKESIM_TRACING_ENABLED"), "true"),
		Endpoint:    os.Getenv("WAKESIM_OTLP_ENDPOINT"),
		SampleRatio: 1,
	}

	exp, err := ParseExporter(os.Getenv("WAKESIM_TRACING_EXPORTER"))
	if err != nil {
		return TracingConfig{}, err
	}
	cfg.Exporter = exp

	if raw := os.Getenv("WAKESIM_TRACING_SAMPLE_RATIO"); raw != "" {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return TracingConfig{}, fmt.Errorf("WAKESIM_TRACING_SAMPLE_RATIO must be in [0, 1], got %q", raw)
		}
		cfg.SampleRatio = ratio
	}
	return cfg, nil
}

// InitTracing installs the global tracer provider for a run and returns the
// function that flushes it. Disabled tracing installs a noop provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := runResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", string(cfg.Exporter)),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp.Shutdown, nil
}

// runResource describes the simulator process and the run it serves.
func runResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	runID := cfg.RunID
	if runID == "" {
		runID = logging.RunIDFromContext(ctx)
	}
	attrs := []attribute.KeyValue{
		attribute.String("service.name", serviceName),
		attribute.String("service.namespace", serviceNamespace),
	}
	if runID != "" {
		attrs = append(attrs, AttrRunID.String(runID))
	}
	if cfg.Input != "" {
		attrs = append(attrs, AttrInput.String(cfg.Input))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("create tracing resource: %w", err)
	}
	return res, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout, "":
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(out),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// ShutdownWithTimeout flushes spans within five seconds and logs, rather than
// returns, a failure.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
