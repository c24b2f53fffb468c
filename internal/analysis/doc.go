// Package analysis derives capacity, internal resistance and reliability
// metrics from loaded cycle data.
//
// Every analyzer implements Analyzer and is executed through Run, which calls
// Prepare, Analyze and Postprocess in order inside a traced, metered run:
//
//	a, err := analysis.NewIndividual(cfg, container, analysis.WithCapacity(mAh))
//	if err != nil {
//		return err
//	}
//	report, err := analysis.Run(ctx, a)
//
// Three analyzers are provided:
//
//   - Individual summarizes an explicit list of cycles from one source and
//     extracts normalized voltage profiles.
//   - Linked joins several sources listed in a manifest onto one global cycle
//     axis.
//   - Reliability fits the capacity fade, summarizes the capacity
//     distribution, projects end of life and grades the cell.
//
// The capacity, DCIR and curve routines in numeric.go are shared by all of
// them. Degenerate inputs such as a zero charge capacity resolve to 0 rather
// than to an error.
package analysis
