package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	apperrors "battcli/internal/errors"
	"battcli/pkg/contracts/domain"
)

// IndividualName identifies the individual cycle analyzer
const IndividualName = "individual"

// Individual analyzes a fixed list of cycles from one source
type Individual struct {
	base
	container *cycledata.Container
	cycles    []int
	results   *domain.IndividualResults
}

// NewIndividual creates an individual cycle analyzer. cfg must name the
// cycles to analyze.
func NewIndividual(cfg *config.Analysis, container *cycledata.Container, opts ...Option) (*Individual, error) {
	if cfg == nil || len(cfg.CycleNumbers()) == 0 {
		return nil, apperrors.NewConfigError("individual analysis requires cycle numbers", nil)
	}
	return &Individual{
		base:      newBase(IndividualName, cfg, opts),
		container: container,
		cycles:    append([]int(nil), cfg.CycleNumbers()...),
	}, nil
}

// Prepare validates the configuration and the container
func (a *Individual) Prepare(ctx context.Context) error {
	return a.prepareContainer(a.container)
}

// Analyze computes one summary row and one voltage profile per requested
// cycle present in the container
func (a *Individual) Analyze(ctx context.Context) error {
	res := &domain.IndividualResults{Profiles: make(map[int]domain.VoltageProfile)}
	basis := a.basis()

	for _, n := range a.cycles {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := a.container.Cycle(n)
		if err != nil {
			a.logger.DebugContext(ctx, "requested cycle not loaded", slog.Int("cycle", n))
			continue
		}
		res.Summary = append(res.Summary, Summarize(n, t, basis))
		res.Profiles[n] = Profile(t)
	}

	a.results = res
	return nil
}

// Postprocess computes the summary statistics
func (a *Individual) Postprocess(ctx context.Context) error {
	if err := a.checkResults(a.results); err != nil {
		return err
	}

	rows := a.results.Summary
	discharge := make([]float64, len(rows))
	charge := make([]float64, len(rows))
	eff := make([]float64, len(rows))
	dcir := make([]float64, len(rows))
	for i, r := range rows {
		discharge[i] = r.DischargeCapacity
		charge[i] = r.ChargeCapacity
		eff[i] = r.Efficiency
		dcir[i] = r.DCIR
	}

	stats := domain.IndividualStats{
		MeanDischargeCapacity: mean(discharge),
		MeanChargeCapacity:    mean(charge),
		MeanEfficiency:        mean(eff),
		MeanDCIR:              mean(dcir),
		StdDCIR:               sampleStd(dcir),
	}
	if len(rows) > 1 {
		fade := 0.0
		first, last := discharge[0], discharge[len(discharge)-1]
		if first > 0 {
			fade = (first - last) / first * 100
		}
		stats.CapacityFadeRate = &fade
	}
	a.results.Stats = stats
	return nil
}

// Results returns the analysis output
func (a *Individual) Results() Results {
	if a.results == nil {
		return nil
	}
	return a.results
}

// Summary returns the per-cycle summary rows
func (a *Individual) Summary() []domain.CycleSummary {
	if a.results == nil {
		return nil
	}
	return append([]domain.CycleSummary(nil), a.results.Summary...)
}

// VoltageProfile returns one leg of the profile of cycle n
func (a *Individual) VoltageProfile(n int, leg domain.Leg) ([]domain.ProfilePoint, error) {
	if a.results == nil {
		return nil, apperrors.NewMissingCyclesError([]int{n})
	}
	p, ok := a.results.Profiles[n]
	if !ok {
		return nil, apperrors.NewMissingCyclesError([]int{n})
	}
	points, ok := p.Leg(leg)
	if !ok {
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown profile leg %q", leg), nil).
			WithContext("supported", []domain.Leg{domain.LegDischarge, domain.LegCharge})
	}
	return points, nil
}
