package analysis

import (
	"math"
	"sort"

	"battcli/internal/cycler"
	"battcli/pkg/contracts/domain"
)

const (
	// pulseQuantile selects the C-rate steps treated as pulse edges
	pulseQuantile = 0.95
	// pulseWindow is the number of rows after the pulse start used for ΔV/ΔI
	pulseWindow = 10
	// minCurrentStep is the smallest |ΔI| that yields a resistance
	minCurrentStep = 0.01
)

// Capacity holds the charge throughput of one cycle in mAh
type Capacity struct {
	Discharge  float64
	Charge     float64
	Efficiency float64
}

// CycleCapacity integrates |CRate| over the discharge and charge rows of t
// and scales by basis. Time steps come from the whole cycle before the rows
// are split by direction.
func CycleCapacity(t *cycler.Table, basis float64) Capacity {
	discharge, charge := t.LegThroughput()
	c := Capacity{
		Discharge: discharge * basis,
		Charge:    charge * basis,
	}
	c.Efficiency = Efficiency(c.Discharge, c.Charge)
	return c
}

// Efficiency returns discharge/charge in percent, 0 when charge is 0
func Efficiency(discharge, charge float64) float64 {
	if charge == 0 {
		return 0
	}
	return discharge / charge * 100
}

// DCIR estimates the DC internal resistance in mΩ from the first current
// pulse in t. It returns 0 when no pulse can be located or the current
// step is too small.
func DCIR(t *cycler.Table) float64 {
	n := t.Len()
	if n < 2 {
		return 0
	}

	steps := make([]float64, n-1)
	for i := 1; i < n; i++ {
		steps[i-1] = math.Abs(t.Samples[i].CRate - t.Samples[i-1].CRate)
	}
	threshold := percentile(steps, pulseQuantile)

	var candidates []int
	for i := 1; i < n; i++ {
		if steps[i-1] > threshold {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < 2 {
		return 0
	}

	start := candidates[0]
	end := min(start+pulseWindow, n-1)

	dV := t.Samples[end].Voltage - t.Samples[start].Voltage
	dI := t.Samples[end].CRate - t.Samples[start].CRate
	if math.Abs(dI) < minCurrentStep {
		return 0
	}
	return math.Abs(dV/dI) * 1000
}

// NormalizedCurve returns the cumulative |CRate| integral of leg as a
// percentage of its final value. Time steps are taken between consecutive
// rows of leg. A leg with no throughput maps to all zeros.
func NormalizedCurve(leg *cycler.Table) []float64 {
	n := leg.Len()
	if n == 0 {
		return nil
	}

	curve := make([]float64, n)
	for i := 1; i < n; i++ {
		dt := leg.Samples[i].TimeMin - leg.Samples[i-1].TimeMin
		curve[i] = curve[i-1] + math.Abs(leg.Samples[i].CRate*dt)
	}

	total := 0.0
	for _, v := range curve {
		total = math.Max(total, v)
	}
	if total == 0 {
		return make([]float64, n)
	}
	for i := range curve {
		curve[i] = curve[i] / total * 100
	}
	return curve
}

// Profile builds the voltage profile of one cycle
func Profile(t *cycler.Table) domain.VoltageProfile {
	return domain.VoltageProfile{
		Discharge: profileLeg(t.Discharge()),
		Charge:    profileLeg(t.Charge()),
	}
}

func profileLeg(leg *cycler.Table) []domain.ProfilePoint {
	curve := NormalizedCurve(leg)
	points := make([]domain.ProfilePoint, len(curve))
	for i, s := range leg.Samples {
		points[i] = domain.ProfilePoint{
			TimeMin:            s.TimeMin,
			Voltage:            s.Voltage,
			CapacityNormalized: curve[i],
		}
	}
	return points
}

// Summarize derives the summary row of cycle n
func Summarize(n int, t *cycler.Table, basis float64) domain.CycleSummary {
	c := CycleCapacity(t, basis)
	return domain.CycleSummary{
		Cycle:             n,
		DischargeCapacity: c.Discharge,
		ChargeCapacity:    c.Charge,
		Efficiency:        c.Efficiency,
		DCIR:              DCIR(t),
	}
}

// percentile returns the q-quantile of xs, interpolating linearly between
// the closest ranks at position q*(n-1).
func percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
