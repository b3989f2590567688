package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/wake-simulator/core"
	"github.com/signalsfoundry/wake-simulator/internal/config"
	"github.com/signalsfoundry/wake-simulator/internal/events"
	"github.com/signalsfoundry/wake-simulator/internal/logging"
	"github.com/signalsfoundry/wake-simulator/internal/observability"
)

type options struct {
	input       string
	envFile     string
	wakeModel   string
	yaw         *float64
	metricsAddr string
	natsURL     string
	serve       bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("simulator", flag.ContinueOnError)
	fs.StringVar(&opts.input, "input", "configs/example_input.json", "path to the JSON simulation input")
	fs.StringVar(&opts.envFile, "env-file", "", "dotenv file to load before start-up (default .env when present)")
	fs.StringVar(&opts.wakeModel, "wake-model", "", "wake model to switch to after the input cases (jensen, floris, gauss, curl)")
	fs.Func("yaw", "yaw angle in degrees applied to every turbine after the input cases", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		opts.yaw = &v
		return nil
	})
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables")
	fs.StringVar(&opts.natsURL, "nats-url", "", "NATS server URL farm events are published to; empty disables")
	fs.BoolVar(&opts.serve, "serve", false, "keep serving /metrics after the run until interrupted")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.serve && opts.metricsAddr == "" {
		return options{}, errors.New("-serve requires -metrics-addr")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	envErr := loadEnv(opts.envFile)

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if envErr != nil {
		log.Error(ctx, "failed to load env file", logging.String("path", opts.envFile), logging.Err(envErr))
		os.Exit(1)
	}

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// loadEnv loads path, or .env when path is empty. Only an explicitly named
// file is required to exist.
func loadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	return godotenv.Load(path)
}

func run(ctx context.Context, opts options, log logging.Logger, stdout io.Writer) error {
	ctx, _ = logging.EnsureRunID(ctx)

	tracingCfg, err := observability.TracingConfigFromEnv()
	if err != nil {
		return fmt.Errorf("tracing config: %w", err)
	}
	tracingCfg.Input = opts.input
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	in, err := config.Load(opts.input)
	if err != nil {
		return err
	}

	collector, err := observability.NewFarmCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	farm, err := core.NewFarm(in.Farm, in.Turbine, in.Wake, core.WithMetricsRecorder(collector))
	if err != nil {
		return fmt.Errorf("build farm: %w", err)
	}
	log = log.With(logging.String("farm_id", farm.ID()))
	log.Info(ctx, "farm assembled",
		logging.String("input", opts.input),
		logging.Int("turbines", farm.TurbineMap().Len()),
		logging.String("wake_model", farm.WakeModel().String()),
		logging.String("resolution", farm.FlowField().Resolution().String()),
	)

	if opts.natsURL != "" {
		pub, err := events.Connect(opts.natsURL, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn(ctx, "flush farm events", logging.Err(err))
			}
		}()
		farm.Subscribe(pub.Handle)
	}

	var metricsSrv *http.Server
	if opts.metricsAddr != "" {
		metricsSrv = serveMetrics(opts.metricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	cases := in.Cases
	if opts.wakeModel != "" || opts.yaw != nil {
		cases = append(cases, core.Case{Name: "command-line", WakeModel: opts.wakeModel, Yaw: opts.yaw})
	}

	engine := core.NewSimulationEngine(farm, log)
	engine.RegisterCaseListener(func(i int, c core.Case) {
		pair := farm.FlowField().Wake().Pair()
		fmt.Fprintf(stdout, "[case %d] %-16s wake=%-7s grid=%-10s wind=%5.2f m/s @ %5.1f deg\n",
			i, c.Label(i), pair.Model, pair.Resolution, farm.WindSpeed(), farm.WindDirection())
	})
	if err := engine.Run(ctx, cases); err != nil {
		return err
	}

	printReport(stdout, farm)

	if opts.serve && metricsSrv != nil {
		log.Info(ctx, "run complete; serving metrics until interrupted")
		<-ctx.Done()
	}
	return nil
}

func printReport(w io.Writer, farm *core.Farm) {
	fmt.Fprintln(w)
	fmt.Fprint(w, farm.String())
	fmt.Fprintf(w, "Farm ID: %s\n", farm.ID())
	fmt.Fprintf(w, "Wind: %.2f m/s from %.1f deg, shear %.3f, TI %.3f\n",
		farm.WindSpeed(), farm.WindDirection(), farm.WindShear(), farm.TurbulenceIntensity())
	grid := farm.FlowField().Grid()
	fmt.Fprintf(w, "Grid: %s (%d points) x[%.1f, %.1f] y[%.1f, %.1f] z[%.1f, %.1f]\n",
		grid.Resolution, grid.Points(), grid.XMin, grid.XMax, grid.YMin, grid.YMax, grid.ZMin, grid.ZMax)

	fmt.Fprintf(w, "%-6s %10s %10s %10s %10s %8s\n", "turb", "x", "y", "x'", "y'", "yaw")
	for i, e := range farm.TurbineMap().Items() {
		fmt.Fprintf(w, "%-6s %10.1f %10.1f %10.1f %10.1f %8.2f\n",
			fmt.Sprintf("T%d", i), e.Coord.X, e.Coord.Y, e.Coord.XPrime, e.Coord.YPrime, e.Turbine.YawAngle)
	}
}

func serveMetrics(addr string, collector *observability.FarmCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
