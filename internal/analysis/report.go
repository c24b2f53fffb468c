package analysis

import (
	"fmt"
	"strings"

	"battcli/pkg/contracts/domain"
)

// RenderReliabilityReport formats reliability results as plain text
func RenderReliabilityReport(r *domain.ReliabilityResults) string {
	var b strings.Builder
	f, s, l := r.Fade, r.Statistics, r.Lifecycle

	b.WriteString("\n=== Reliability Analysis Report ===\n\n")

	b.WriteString("Capacity Fade:\n")
	fmt.Fprintf(&b, "  - Initial Capacity: %.2f mAh\n", f.InitialCapacity)
	fmt.Fprintf(&b, "  - Final Capacity: %.2f mAh\n", f.FinalCapacity)
	fmt.Fprintf(&b, "  - Relative Fade: %.2f %%\n", f.RelativeFade)
	fmt.Fprintf(&b, "  - Fade per Cycle: %.4f %%/cycle\n\n", f.FadePerCycle)

	b.WriteString("Statistical Metrics:\n")
	fmt.Fprintf(&b, "  - Mean Capacity: %.2f mAh\n", s.MeanCapacity)
	fmt.Fprintf(&b, "  - Std Dev: %.2f mAh\n", s.StdCapacity)
	fmt.Fprintf(&b, "  - Coefficient of Variation: %.2f %%\n", s.CoefficientOfVariation)
	fmt.Fprintf(&b, "  - Mean Efficiency: %.2f %%\n\n", s.MeanEfficiency)

	b.WriteString("Lifecycle Prediction:\n")
	fmt.Fprintf(&b, "  - EOL Capacity (80%%): %.2f mAh\n", l.EOLCapacity)
	fmt.Fprintf(&b, "  - Predicted EOL Cycle: %d\n", l.PredictedEOLCycle)
	fmt.Fprintf(&b, "  - Current Cycle: %d\n", l.CurrentCycle)
	fmt.Fprintf(&b, "  - Remaining Cycles: %d\n\n", l.RemainingCycles)

	fmt.Fprintf(&b, "Reliability Grade: %s\n", gradeOrDash(r.Grade))
	return b.String()
}

func gradeOrDash(g domain.ReliabilityGrade) string {
	if g == "" {
		return "-"
	}
	return string(g)
}
