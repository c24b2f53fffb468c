package analysis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	apperrors "battcli/internal/errors"
	"battcli/internal/infrastructure"
)

func traceRun(ctx context.Context, report *RunReport) (context.Context, trace.Span) {
	return infrastructure.Tracer().Start(ctx, "analysis.run."+report.Analyzer,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("analysis.run_id", report.ID),
			attribute.String("analysis.analyzer", report.Analyzer),
			attribute.String("analysis.trace_id", report.TraceID),
		),
	)
}

func runPhase(ctx context.Context, report *RunReport, phase Phase, fn func(context.Context) error) (time.Duration, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "analysis.phase."+string(phase),
		trace.WithAttributes(
			attribute.String("analysis.analyzer", report.Analyzer),
			attribute.String("analysis.phase", string(phase)),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", string(apperrors.TypeOf(err))))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	infrastructure.Metrics().PhaseDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(
			attribute.String("analyzer", report.Analyzer),
			attribute.String("phase", string(phase)),
			attribute.String("status", status),
		),
	)
	return elapsed, err
}

func recordRunEnd(ctx context.Context, span trace.Span, report *RunReport, err error) {
	span.SetAttributes(
		attribute.String("analysis.status", string(report.Status)),
		attribute.Float64("analysis.duration_seconds", report.Duration.Seconds()),
	)
	if err != nil {
		span.SetAttributes(attribute.String("analysis.failed_in", string(report.FailedIn)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	infrastructure.Metrics().RunsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("analyzer", report.Analyzer),
			attribute.String("status", string(report.Status)),
		),
	)
}
