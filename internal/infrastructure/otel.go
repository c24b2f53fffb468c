package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"battcli/internal/config"
)

// InstrumentationName names the tracer and meter used across battcli.
const InstrumentationName = "battcli"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// InitializeOTel configures global tracing and metrics providers from cfg.
// Trace output goes to traceOut when the stdout exporter is selected.
func InitializeOTel(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*OTelProviders, error) {
	ctx := context.Background()
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableTracing {
		if err := initializeTracing(cfg, traceOut, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))

	return providers, nil
}

func initializeTracing(cfg config.TelemetryConfig, out io.Writer, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "none":
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if out == nil {
		out = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "none":
		return nil
	case "prometheus":
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.MeterProvider = mp
	providers.Registry = reg
	otel.SetMeterProvider(mp)
	return nil
}

// WriteMetrics dumps the current metric values to path in the Prometheus
// text exposition format, suitable for the node_exporter textfile collector.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p == nil || p.Registry == nil {
		return errors.New("metrics are not enabled")
	}
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops all providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// AnalysisMetrics contains the instruments recorded during loading and analysis
type AnalysisMetrics struct {
	RunsTotal     metric.Int64Counter
	PhaseDuration metric.Float64Histogram
	CyclesLoaded  metric.Int64Counter
	CyclesSkipped metric.Int64Counter
}

var (
	analysisMetrics     *AnalysisMetrics
	analysisMetricsOnce sync.Once
)

// NewAnalysisMetrics creates the analysis instruments on meter
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	runs, err := meter.Int64Counter("analysis_runs_total",
		metric.WithDescription("Analyzer runs by analyzer and outcome"))
	if err != nil {
		return nil, err
	}
	phase, err := meter.Float64Histogram("analysis_phase_duration_seconds",
		metric.WithDescription("Duration of analyzer phases"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	loaded, err := meter.Int64Counter("cycles_loaded_total",
		metric.WithDescription("Cycles loaded into containers"))
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter("cycles_skipped_total",
		metric.WithDescription("Cycles skipped because no data was found"))
	if err != nil {
		return nil, err
	}
	return &AnalysisMetrics{
		RunsTotal:     runs,
		PhaseDuration: phase,
		CyclesLoaded:  loaded,
		CyclesSkipped: skipped,
	}, nil
}

// Metrics returns the process-wide analysis instruments. They are created on
// the global meter, which forwards to the provider installed by InitializeOTel
// even when that happens later.
func Metrics() *AnalysisMetrics {
	analysisMetricsOnce.Do(func() {
		m, err := NewAnalysisMetrics(otel.Meter(InstrumentationName))
		if err != nil {
			GetLogger().Warn("failed to create analysis metrics", slog.String("error", err.Error()))
			m, _ = NewAnalysisMetrics(noop.NewMeterProvider().Meter(InstrumentationName))
		}
		analysisMetrics = m
	})
	return analysisMetrics
}

// Tracer returns the battcli tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
