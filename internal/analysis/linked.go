package analysis

import (
	"context"
	"log/slog"
	"sort"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	apperrors "battcli/internal/errors"
	"battcli/pkg/contracts/domain"
)

// LinkedName identifies the multi-path analyzer
const LinkedName = "linked"

// Linked joins the cycles of several sources listed in a manifest onto one
// global cycle axis
type Linked struct {
	base
	containers map[string]*cycledata.Container
	manifest   []ManifestEntry
	results    *domain.LinkedResults
}

// NewLinked creates a multi-path analyzer. cfg must select manifest mode
// with a manifest file. containers is keyed by manifest path.
func NewLinked(cfg *config.Analysis, containers map[string]*cycledata.Container, opts ...Option) (*Linked, error) {
	if cfg == nil || !cfg.Path.UseManifest || cfg.Path.ManifestFile == "" {
		return nil, apperrors.NewConfigError("linked analysis requires a manifest file", nil)
	}
	return &Linked{
		base:       newBase(LinkedName, cfg, opts),
		containers: containers,
	}, nil
}

// Prepare validates the configuration and loads the manifest
func (a *Linked) Prepare(ctx context.Context) error {
	if err := a.validateConfig(); err != nil {
		return err
	}
	if len(a.containers) == 0 {
		return apperrors.NewEmptyContainerError("linked sources")
	}
	entries, err := ReadManifest(a.cfg.Path.ManifestFile)
	if err != nil {
		return err
	}
	a.manifest = entries
	a.logger.InfoContext(ctx, "manifest loaded",
		slog.String("file", a.cfg.Path.ManifestFile),
		slog.Int("paths", len(entries)))
	return nil
}

// Analyze walks the manifest in order and numbers every loaded cycle on the
// global axis. The offset after each path is the larger of the previous
// offset and that path's highest local cycle.
func (a *Linked) Analyze(ctx context.Context) error {
	res := &domain.LinkedResults{Profiles: make(map[string]map[int]domain.VoltageProfile)}
	basis := a.basis()
	offset := 0

	for _, entry := range a.manifest {
		if err := ctx.Err(); err != nil {
			return err
		}
		container, ok := a.containers[entry.Path]
		if !ok {
			a.logger.WarnContext(ctx, "manifest path has no loaded data, skipping",
				slog.String("path", entry.Path),
				slog.String("name", entry.Name))
			continue
		}

		cycles := container.LoadedCycleNumbers()
		profiles := make(map[int]domain.VoltageProfile, len(cycles))
		for _, n := range cycles {
			t, err := container.Cycle(n)
			if err != nil {
				return err
			}
			s := Summarize(n, t, basis)
			res.Rows = append(res.Rows, domain.LinkedRow{
				Path:              entry.Path,
				PathName:          entry.Name,
				LocalCycle:        n,
				GlobalCycle:       offset + n,
				DischargeCapacity: s.DischargeCapacity,
				ChargeCapacity:    s.ChargeCapacity,
				Efficiency:        s.Efficiency,
				DCIR:              s.DCIR,
			})
			profiles[n] = Profile(t)
		}
		res.Profiles[entry.Path] = profiles

		if len(cycles) > 0 {
			offset = max(offset, cycles[len(cycles)-1])
		}
	}

	a.results = res
	return nil
}

// Postprocess aggregates totals and per-path statistics
func (a *Linked) Postprocess(ctx context.Context) error {
	if err := a.checkResults(a.results); err != nil {
		return err
	}

	rows := a.results.Rows
	var discharge, eff, dcir []float64
	byPath := make(map[string][]domain.LinkedRow)
	for _, r := range rows {
		discharge = append(discharge, r.DischargeCapacity)
		eff = append(eff, r.Efficiency)
		dcir = append(dcir, r.DCIR)
		byPath[r.Path] = append(byPath[r.Path], r)
	}

	paths := make(map[string]domain.PathStats, len(byPath))
	for p, pr := range byPath {
		var d, e []float64
		for _, r := range pr {
			d = append(d, r.DischargeCapacity)
			e = append(e, r.Efficiency)
		}
		paths[p] = domain.PathStats{
			CycleCount:            len(pr),
			MeanDischargeCapacity: mean(d),
			MeanEfficiency:        mean(e),
		}
	}

	a.results.Stats = domain.LinkedStats{
		TotalPaths:            len(a.manifest),
		TotalCycles:           len(rows),
		MeanDischargeCapacity: mean(discharge),
		MeanEfficiency:        mean(eff),
		MeanDCIR:              mean(dcir),
		Paths:                 paths,
	}
	return nil
}

// Results returns the analysis output
func (a *Linked) Results() Results {
	if a.results == nil {
		return nil
	}
	return a.results
}

// Manifest returns the loaded manifest entries
func (a *Linked) Manifest() []ManifestEntry {
	return append([]ManifestEntry(nil), a.manifest...)
}

// PathSummary returns the rows contributed by path
func (a *Linked) PathSummary(path string) ([]domain.LinkedRow, error) {
	var out []domain.LinkedRow
	if a.results != nil {
		for _, r := range a.results.Rows {
			if r.Path == path {
				out = append(out, r)
			}
		}
	}
	if len(out) == 0 {
		return nil, apperrors.NewNotFoundError("path " + path)
	}
	return out, nil
}

// CumulativeSummary returns every row ordered by global cycle
func (a *Linked) CumulativeSummary() []domain.LinkedRow {
	if a.results == nil {
		return nil
	}
	out := append([]domain.LinkedRow(nil), a.results.Rows...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GlobalCycle < out[j].GlobalCycle
	})
	return out
}
