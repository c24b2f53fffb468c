package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"battcli/internal/analysis"
	"battcli/internal/config"
	"battcli/internal/cycledata"
	"battcli/internal/cycler"
	apperrors "battcli/internal/errors"
	"battcli/pkg/contracts/domain"
)

// detection is one row of the detect command
type detection struct {
	Path   string            `json:"path"`
	Cycler cycler.CyclerType `json:"cycler"`
}

// cycleSpan is one row of the cycles command
type cycleSpan struct {
	Path   string            `json:"path"`
	Cycler cycler.CyclerType `json:"cycler"`
	First  int               `json:"first_cycle"`
	Last   int               `json:"last_cycle"`
}

// runOutput is the JSON document written for an analysis command
type runOutput struct {
	Run       *analysis.RunReport `json:"run"`
	Results   analysis.Results    `json:"results"`
	FadeCurve []domain.FadePoint  `json:"fade_curve,omitempty"`
	Report    string              `json:"report,omitempty"`
}

func newDetectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect PATH...",
		Short: "Detect the cycler format of data directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				rows := make([]detection, 0, len(args))
				for _, p := range args {
					rows = append(rows, detection{Path: p, Cycler: cycler.Detect(p)})
				}
				return a.emit(rows, func() string { return renderDetections(rows) })
			})
		},
	}
}

func newCyclesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cycles PATH...",
		Short: "Show the range of cycle numbers available in data directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				rows := make([]cycleSpan, 0, len(args))
				for _, p := range args {
					loader, err := a.loaderFor(p)
					if err != nil {
						return err
					}
					first, last, err := loader.CycleSpan(p)
					if err != nil {
						return fmt.Errorf("failed to read cycles of %s: %w", p, err)
					}
					rows = append(rows, cycleSpan{Path: p, Cycler: loader.Type(), First: first, Last: last})
				}
				return a.emit(rows, func() string { return renderCycleSpans(rows) })
			})
		},
	}
}

func newIndividualCmd(flags *globalFlags) *cobra.Command {
	var cycles string
	cmd := &cobra.Command{
		Use:   "individual PATH",
		Short: "Summarize selected cycles of one cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				path := args[0]
				cfg, err := a.analysisConfig(cmd, cycles, "", []string{path})
				if err != nil {
					return err
				}

				src, err := a.loadOne(ctx, path, spanOf(cfg.CycleNumbers()))
				if err != nil {
					return err
				}
				an, err := analysis.NewIndividual(cfg, src.Container,
					analysis.WithLogger(a.logger),
					analysis.WithCapacity(resolveCapacity(cfg, src)))
				if err != nil {
					return err
				}

				report, err := analysis.Run(ctx, an)
				if err != nil {
					return err
				}
				res := an.Results().(*domain.IndividualResults)
				return a.emit(runOutput{Run: report, Results: res}, func() string {
					return renderIndividual(res)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&cycles, "cycles", "c", "", `cycles to analyze, e.g. "1 50 100" or "1-10"`)
	return cmd
}

func newLinkedCmd(flags *globalFlags) *cobra.Command {
	var manifest string
	cmd := &cobra.Command{
		Use:   "linked",
		Short: "Join several data directories listed in a manifest onto one cycle axis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				cfg, err := a.analysisConfig(cmd, "", manifest, nil)
				if err != nil {
					return err
				}
				entries, err := analysis.ReadManifest(cfg.Path.ManifestFile)
				if err != nil {
					return err
				}
				paths := analysis.ManifestPaths(entries)

				sources, err := cycledata.LoadSources(ctx, paths, a.loadOptions(nil, true))
				if err != nil {
					return err
				}

				var capacity float64
				for _, p := range paths {
					if src, ok := sources[p]; ok {
						capacity = resolveCapacity(cfg, src)
						break
					}
				}

				an, err := analysis.NewLinked(cfg, cycledata.Containers(sources),
					analysis.WithLogger(a.logger),
					analysis.WithCapacity(capacity))
				if err != nil {
					return err
				}
				report, err := analysis.Run(ctx, an)
				if err != nil {
					return err
				}
				res := an.Results().(*domain.LinkedResults)
				return a.emit(runOutput{Run: report, Results: res}, func() string {
					return renderLinked(an.CumulativeSummary(), res.Stats)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "tab-separated manifest with cyclepath and cyclename columns")
	return cmd
}

func newReliabilityCmd(flags *globalFlags) *cobra.Command {
	var cycles string
	cmd := &cobra.Command{
		Use:   "reliability PATH",
		Short: "Analyze capacity fade and predict end of life for one cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				path := args[0]
				cfg, err := a.analysisConfig(cmd, cycles, "", []string{path})
				if err != nil {
					return err
				}

				src, err := a.loadOne(ctx, path, spanOf(cfg.CycleNumbers()))
				if err != nil {
					return err
				}
				an := analysis.NewReliability(cfg, src.Container,
					analysis.WithLogger(a.logger),
					analysis.WithCapacity(resolveCapacity(cfg, src)))

				report, err := analysis.Run(ctx, an)
				if err != nil {
					return err
				}
				out := runOutput{
					Run:       report,
					Results:   an.Report(),
					FadeCurve: an.FadeCurve(),
					Report:    an.SummaryReport(),
				}
				return a.emit(out, func() string {
					return renderReliability(an.Report(), out.FadeCurve, out.Report)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&cycles, "cycles", "c", "", "cycles to include; every loaded cycle when empty")
	return cmd
}

// analysisConfig builds the analysis configuration from the --analysis file,
// when given, and the flags set on the command line
func (a *app) analysisConfig(cmd *cobra.Command, cycles, manifest string, paths []string) (*config.Analysis, error) {
	seed := config.DefaultAnalysis()
	fromFile := a.flags.analysisFile != ""
	if fromFile {
		loaded, err := config.LoadAnalysis(a.flags.analysisFile)
		if err != nil {
			return nil, err
		}
		seed = *loaded
	}

	b := config.NewBuilderFrom(seed)
	changed := cmd.Flags().Changed
	if !fromFile || changed("manual-capacity") || changed("crate") {
		if a.flags.manualCapacity > 0 {
			b.WithManualCapacity(a.flags.manualCapacity)
		} else {
			b.WithAutoCapacity(a.flags.cRate)
		}
	}
	switch {
	case manifest != "":
		b.WithManifest(manifest)
	case len(paths) > 0:
		b.WithPaths(paths...)
	}
	if cycles != "" {
		b.WithCycleInput(cycles)
	}
	return b.Build()
}

func (a *app) loaderFor(path string) (cycler.Loader, error) {
	if a.flags.cyclerType != "" {
		return cycler.NewLoaderByType(a.flags.cyclerType, a.logger)
	}
	return cycler.NewLoader(path, a.logger), nil
}

func (a *app) loadOptions(r *config.CycleRange, skipFailed bool) cycledata.LoadOptions {
	return cycledata.LoadOptions{
		Parallelism: a.cfg.Loading.Parallelism,
		CyclerType:  a.flags.cyclerType,
		Range:       r,
		SkipFailed:  skipFailed,
		Logger:      a.logger,
	}
}

func (a *app) loadOne(ctx context.Context, path string, r *config.CycleRange) (*cycledata.Source, error) {
	sources, err := cycledata.LoadSources(ctx, []string{path}, a.loadOptions(r, false))
	if err != nil {
		return nil, err
	}
	src, ok := sources[path]
	if !ok {
		return nil, apperrors.NewNotFoundError("data path " + path)
	}
	return src, nil
}

// emit writes v as JSON when --json is set and the rendered text otherwise,
// to --out when given and to stdout when not
func (a *app) emit(v any, render func() string) error {
	var data []byte
	if a.flags.jsonOut {
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		data = append(encoded, '\n')
	} else {
		data = []byte(render())
	}

	if a.flags.outFile != "" {
		path, err := a.files.WriteFile(a.flags.outFile, data)
		if err != nil {
			return apperrors.NewStorageError("write output", err)
		}
		a.logger.Info("output written", slog.String("path", path))
		return nil
	}
	_, err := a.out.Write(data)
	return err
}

// resolveCapacity asks the loader for the cell capacity in auto mode, using
// the first loaded cycle. Manual mode needs no resolution. A Toyo estimate
// without a mAh name suffix is a raw A·min integral, not mAh.
func resolveCapacity(cfg *config.Analysis, src *cycledata.Source) float64 {
	if cfg.Capacity.Mode == config.CapacityModeManual {
		return 0
	}
	cycles := src.Container.LoadedCycleNumbers()
	if len(cycles) == 0 {
		return 0
	}
	return src.Loader.Capacity(src.Path, cycles[0], cfg.Capacity.CRate)
}

// spanOf returns the smallest range covering numbers, nil when empty
func spanOf(numbers []int) *config.CycleRange {
	if len(numbers) == 0 {
		return nil
	}
	return &config.CycleRange{Start: slices.Min(numbers), End: slices.Max(numbers)}
}
