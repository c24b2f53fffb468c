package analysis

import (
	"context"
	"log/slog"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	"battcli/pkg/contracts/domain"
)

// ReliabilityName identifies the reliability analyzer
const ReliabilityName = "reliability"

// eolFraction is the share of initial capacity that marks end of life
const eolFraction = 0.8

// gradeBand is the upper bound on relative fade and CV for a grade
type gradeBand struct {
	grade   domain.ReliabilityGrade
	maxFade float64
	maxCV   float64
}

var gradeBands = []gradeBand{
	{domain.GradeExcellent, 5, 2},
	{domain.GradeGood, 10, 5},
	{domain.GradeFair, 20, 10},
}

// Reliability derives fade, capacity statistics and an end-of-life
// projection from one source
type Reliability struct {
	base
	container *cycledata.Container
	results   *domain.ReliabilityResults
}

// NewReliability creates a reliability analyzer. It uses the configured
// cycle numbers, or every loaded cycle when none are configured.
func NewReliability(cfg *config.Analysis, container *cycledata.Container, opts ...Option) *Reliability {
	return &Reliability{
		base:      newBase(ReliabilityName, cfg, opts),
		container: container,
	}
}

// Prepare validates the configuration and the container
func (a *Reliability) Prepare(ctx context.Context) error {
	return a.prepareContainer(a.container)
}

// Analyze computes the capacity rows, fade, statistics and lifecycle
func (a *Reliability) Analyze(ctx context.Context) error {
	cycles := a.cfg.CycleNumbers()
	if len(cycles) == 0 {
		cycles = a.container.LoadedCycleNumbers()
	}

	res := &domain.ReliabilityResults{}
	basis := a.basis()
	for _, n := range cycles {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := a.container.Cycle(n)
		if err != nil {
			a.logger.DebugContext(ctx, "requested cycle not loaded", slog.Int("cycle", n))
			continue
		}
		c := CycleCapacity(t, basis)
		res.Capacity = append(res.Capacity, domain.CapacityRow{
			Cycle:      n,
			Discharge:  c.Discharge,
			Charge:     c.Charge,
			Efficiency: c.Efficiency,
		})
	}

	res.Fade = FadeOf(res.Capacity)
	res.Statistics = StatisticsOf(res.Capacity)
	res.Lifecycle = PredictLifecycle(res.Capacity, res.Fade)
	a.results = res
	return nil
}

// Postprocess assigns the reliability grade
func (a *Reliability) Postprocess(ctx context.Context) error {
	if err := a.checkResults(a.results); err != nil {
		return err
	}
	a.results.Grade = Grade(a.results.Fade.RelativeFade, a.results.Statistics.CoefficientOfVariation)
	a.logger.InfoContext(ctx, "reliability graded",
		slog.String("grade", string(a.results.Grade)),
		slog.Float64("relative_fade", a.results.Fade.RelativeFade),
		slog.Float64("cv", a.results.Statistics.CoefficientOfVariation))
	return nil
}

// Results returns the analysis output
func (a *Reliability) Results() Results {
	if a.results == nil {
		return nil
	}
	return a.results
}

// Report returns the typed analysis output, nil before Analyze
func (a *Reliability) Report() *domain.ReliabilityResults {
	return a.results
}

// FadeCurve returns discharge capacity per cycle with the capacity
// normalized to the first analyzed cycle
func (a *Reliability) FadeCurve() []domain.FadePoint {
	if a.results == nil {
		return nil
	}
	initial := a.results.Fade.InitialCapacity
	out := make([]domain.FadePoint, len(a.results.Capacity))
	for i, r := range a.results.Capacity {
		norm := 0.0
		if initial > 0 {
			norm = r.Discharge / initial * 100
		}
		out[i] = domain.FadePoint{Cycle: r.Cycle, DischargeCapacity: r.Discharge, CapacityNormalized: norm}
	}
	return out
}

// SummaryReport renders the results as a fixed plain-text report
func (a *Reliability) SummaryReport() string {
	if a.results == nil {
		return ""
	}
	return RenderReliabilityReport(a.results)
}

// FadeOf measures capacity loss between the first and last rows and fits a
// line through discharge capacity by cycle number. Fewer than two rows
// give a zero result.
func FadeOf(rows []domain.CapacityRow) domain.FadeAnalysis {
	if len(rows) < 2 {
		return domain.FadeAnalysis{}
	}
	initial := rows[0].Discharge
	final := rows[len(rows)-1].Discharge

	f := domain.FadeAnalysis{
		InitialCapacity: initial,
		FinalCapacity:   final,
		AbsoluteFade:    initial - final,
	}
	if initial > 0 {
		f.RelativeFade = (initial - final) / initial * 100
	}
	f.FadePerCycle = f.RelativeFade / float64(len(rows))

	x := make([]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = float64(r.Cycle)
		y[i] = r.Discharge
	}
	fit := LinearFit(x, y)
	f.Slope = fit.Slope
	f.Intercept = fit.Intercept
	f.RSquared = fit.RSquared
	f.PValue = fit.PValue
	return f
}

// StatisticsOf summarizes discharge capacity and efficiency
func StatisticsOf(rows []domain.CapacityRow) domain.CapacityStatistics {
	discharge := make([]float64, len(rows))
	eff := make([]float64, len(rows))
	for i, r := range rows {
		discharge[i] = r.Discharge
		eff[i] = r.Efficiency
	}

	var s domain.CapacityStatistics
	s.MeanCapacity, s.StdCapacity = popMeanStd(discharge)
	s.MinCapacity, s.MaxCapacity = minMax(discharge)
	if s.MeanCapacity > 0 {
		s.CoefficientOfVariation = s.StdCapacity / s.MeanCapacity * 100
	}
	s.MeanEfficiency, s.StdEfficiency = popMeanStd(eff)

	if len(discharge) > 1 {
		ci := meanInterval(discharge)
		s.ConfidenceInterval = &ci
	}
	return s
}

// PredictLifecycle projects the fade line to 80% of the initial capacity.
// The prediction is all zero when the initial capacity is not positive or
// the capacity does not decline.
func PredictLifecycle(rows []domain.CapacityRow, fade domain.FadeAnalysis) domain.LifecyclePrediction {
	if fade.InitialCapacity <= 0 || fade.Slope >= 0 {
		return domain.LifecyclePrediction{}
	}
	eol := eolFraction * fade.InitialCapacity
	predicted := int((eol - fade.InitialCapacity) / fade.Slope)
	current := rows[len(rows)-1].Cycle
	return domain.LifecyclePrediction{
		EOLCapacity:       eol,
		PredictedEOLCycle: predicted,
		CurrentCycle:      current,
		RemainingCycles:   max(0, predicted-current),
	}
}

// Grade rates a cell from its relative fade and coefficient of variation,
// both in percent
func Grade(relativeFade, cv float64) domain.ReliabilityGrade {
	for _, b := range gradeBands {
		if relativeFade < b.maxFade && cv < b.maxCV {
			return b.grade
		}
	}
	return domain.GradePoor
}
