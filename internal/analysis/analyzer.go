package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	apperrors "battcli/internal/errors"
	"battcli/internal/infrastructure"
)

// Phase names one stage of an analyzer run
type Phase string

const (
	PhasePrepare     Phase = "prepare"
	PhaseAnalyze     Phase = "analyze"
	PhasePostprocess Phase = "postprocess"
)

// RunStatus is the outcome of a run
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Results is the output of an analyzer
type Results interface {
	Empty() bool
}

// Analyzer is a three-phase analysis over loaded cycle data.
// Prepare, Analyze and Postprocess are called once each, in that order, by Run.
type Analyzer interface {
	// Name returns the analyzer identifier used in logs, spans and metrics
	Name() string

	// Prepare validates configuration and inputs
	Prepare(ctx context.Context) error

	// Analyze populates the results
	Analyze(ctx context.Context) error

	// Postprocess adds aggregates and fails on empty results
	Postprocess(ctx context.Context) error

	// Results returns what the run produced so far
	Results() Results
}

// RunReport describes one completed or failed run
type RunReport struct {
	ID         string                  `json:"id"`
	Analyzer   string                  `json:"analyzer"`
	TraceID    string                  `json:"trace_id"`
	Status     RunStatus               `json:"status"`
	FailedIn   Phase                   `json:"failed_in,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	Duration   time.Duration           `json:"duration"`
	PhaseTimes map[Phase]time.Duration `json:"phase_times"`
}

// Run executes the phases of a in order and stops at the first failure.
// The returned report is non-nil even when err is set.
func Run(ctx context.Context, a Analyzer) (*RunReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	report := &RunReport{
		ID:         uuid.NewString(),
		Analyzer:   a.Name(),
		TraceID:    infrastructure.GetTraceID(ctx),
		StartedAt:  time.Now(),
		PhaseTimes: make(map[Phase]time.Duration, 3),
	}

	ctx, span := traceRun(ctx, report)
	defer span.End()
	logger := infrastructure.GetLogger()
	logger.InfoContext(ctx, "analysis started",
		slog.String("analyzer", report.Analyzer),
		slog.String("run_id", report.ID))

	phases := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{PhasePrepare, a.Prepare},
		{PhaseAnalyze, a.Analyze},
		{PhasePostprocess, a.Postprocess},
	}
	for _, p := range phases {
		elapsed, err := runPhase(ctx, report, p.phase, p.fn)
		report.PhaseTimes[p.phase] = elapsed
		if err != nil {
			report.Status = RunStatusFailed
			report.FailedIn = p.phase
			report.Duration = time.Since(report.StartedAt)
			recordRunEnd(ctx, span, report, err)
			logger.ErrorContext(ctx, "analysis failed",
				slog.String("analyzer", report.Analyzer),
				slog.String("phase", string(p.phase)),
				slog.String("error", err.Error()))
			return report, fmt.Errorf("%s %s: %w", report.Analyzer, p.phase, err)
		}
	}

	report.Status = RunStatusCompleted
	report.Duration = time.Since(report.StartedAt)
	recordRunEnd(ctx, span, report, nil)
	logger.InfoContext(ctx, "analysis completed",
		slog.String("analyzer", report.Analyzer),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// Option configures an analyzer
type Option func(*base)

// WithLogger sets the analyzer logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithCapacity supplies the capacity resolved by a loader. It is used as
// the basis in auto mode; manual mode ignores it.
func WithCapacity(mAh float64) Option {
	return func(b *base) {
		b.resolved = mAh
	}
}

// base carries what every analyzer shares
type base struct {
	name     string
	cfg      *config.Analysis
	resolved float64
	logger   *slog.Logger
}

func newBase(name string, cfg *config.Analysis, opts []Option) base {
	b := base{name: name, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With(slog.String("analyzer", name))
	return b
}

// Name returns the analyzer identifier
func (b *base) Name() string { return b.name }

func (b *base) basis() float64 {
	return b.cfg.CapacityBasis(b.resolved)
}

func (b *base) validateConfig() error {
	if b.cfg == nil {
		return apperrors.NewConfigError("analysis configuration is required", nil)
	}
	return b.cfg.Validate()
}

// prepareContainer runs the checks shared by single-source analyzers
func (b *base) prepareContainer(c *cycledata.Container) error {
	if err := b.validateConfig(); err != nil {
		return err
	}
	if c == nil || c.Len() == 0 {
		source := "container"
		if c != nil && c.Source() != "" {
			source = c.Source()
		}
		return apperrors.NewEmptyContainerError(source)
	}
	return nil
}

func (b *base) checkResults(r Results) error {
	if r == nil || r.Empty() {
		return apperrors.NewEmptyResultError(b.name)
	}
	return nil
}
