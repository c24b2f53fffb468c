package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"battcli/pkg/contracts/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0")).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	gradeStyles = map[domain.ReliabilityGrade]lipgloss.Style{
		domain.GradeExcellent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#52C41A")),
		domain.GradeGood:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1890FF")),
		domain.GradeFair:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A")),
		domain.GradePoor:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF4D4F")),
	}
)

func newTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func section(title, body string) string {
	return titleStyle.Render(title) + "\n" + body + "\n"
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func renderDetections(rows []detection) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Path, string(r.Cycler)}
	}
	return newTable([]string{"Path", "Cycler"}, data) + "\n"
}

func renderCycleSpans(rows []cycleSpan) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Path, string(r.Cycler), strconv.Itoa(r.First), strconv.Itoa(r.Last)}
	}
	return newTable([]string{"Path", "Cycler", "First", "Last"}, data) + "\n"
}

func renderIndividual(res *domain.IndividualResults) string {
	data := make([][]string, len(res.Summary))
	for i, s := range res.Summary {
		data[i] = []string{
			strconv.Itoa(s.Cycle),
			f2(s.DischargeCapacity),
			f2(s.ChargeCapacity),
			f2(s.Efficiency),
			f2(s.DCIR),
		}
	}

	st := res.Stats
	stats := [][]string{
		{"Mean discharge capacity (mAh)", f2(st.MeanDischargeCapacity)},
		{"Mean charge capacity (mAh)", f2(st.MeanChargeCapacity)},
		{"Mean efficiency (%)", f2(st.MeanEfficiency)},
		{"Mean DCIR (mΩ)", f2(st.MeanDCIR)},
		{"DCIR std (mΩ)", f2(st.StdDCIR)},
	}
	if st.CapacityFadeRate != nil {
		stats = append(stats, []string{"Capacity fade (%)", f2(*st.CapacityFadeRate)})
	}

	var b strings.Builder
	b.WriteString(section("Cycle summary", newTable(
		[]string{"Cycle", "Discharge (mAh)", "Charge (mAh)", "Efficiency (%)", "DCIR (mΩ)"}, data)))
	b.WriteString(section("Statistics", newTable([]string{"Metric", "Value"}, stats)))
	return b.String()
}

func renderLinked(rows []domain.LinkedRow, st domain.LinkedStats) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{
			strconv.Itoa(r.GlobalCycle),
			r.PathName,
			strconv.Itoa(r.LocalCycle),
			f2(r.DischargeCapacity),
			f2(r.Efficiency),
			f2(r.DCIR),
		}
	}

	paths := make([]string, 0, len(st.Paths))
	for p := range st.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	pathRows := make([][]string, len(paths))
	for i, p := range paths {
		ps := st.Paths[p]
		pathRows[i] = []string{p, strconv.Itoa(ps.CycleCount), f2(ps.MeanDischargeCapacity), f2(ps.MeanEfficiency)}
	}

	var b strings.Builder
	b.WriteString(section("Cumulative summary", newTable(
		[]string{"Global", "Name", "Local", "Discharge (mAh)", "Efficiency (%)", "DCIR (mΩ)"}, data)))
	b.WriteString(section("Paths", newTable(
		[]string{"Path", "Cycles", "Mean discharge (mAh)", "Mean efficiency (%)"}, pathRows)))
	b.WriteString(section("Totals", newTable([]string{"Metric", "Value"}, [][]string{
		{"Paths in manifest", strconv.Itoa(st.TotalPaths)},
		{"Cycles", strconv.Itoa(st.TotalCycles)},
		{"Mean discharge capacity (mAh)", f2(st.MeanDischargeCapacity)},
		{"Mean efficiency (%)", f2(st.MeanEfficiency)},
		{"Mean DCIR (mΩ)", f2(st.MeanDCIR)},
	})))
	return b.String()
}

func renderReliability(res *domain.ReliabilityResults, curve []domain.FadePoint, report string) string {
	data := make([][]string, len(curve))
	for i, p := range curve {
		data[i] = []string{strconv.Itoa(p.Cycle), f2(p.DischargeCapacity), f2(p.CapacityNormalized)}
	}

	var b strings.Builder
	b.WriteString(report)
	b.WriteString(section("Fade curve", newTable([]string{"Cycle", "Discharge (mAh)", "Retention (%)"}, data)))

	style, ok := gradeStyles[res.Grade]
	if !ok {
		style = cellStyle
	}
	fmt.Fprintf(&b, "\nGrade: %s\n", style.Render(string(res.Grade)))
	return b.String()
}
