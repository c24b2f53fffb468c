package cycler

import (
	"math"
	"sort"
)

// Standard column names shared by every cycler format after mapping
const (
	ColTimeMin = "TimeMin"
	ColVoltage = "Vol"
	ColCRate   = "Crate"
	ColTemp    = "Temp"
)

// RequiredColumns must be present in every cycle table
var RequiredColumns = []string{ColTimeMin, ColVoltage, ColCRate}

// Sample is one row of a cycle record. Null values are NaN.
type Sample struct {
	TimeMin     float64 `json:"time_min"`
	Voltage     float64 `json:"voltage"`
	CRate       float64 `json:"crate"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Table is the time series of one cycle, ordered by elapsed time
type Table struct {
	Samples        []Sample `json:"samples"`
	HasTemperature bool     `json:"has_temperature"`
}

// Len returns the number of samples
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Samples)
}

// Clone returns an independent copy of t
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	samples := make([]Sample, len(t.Samples))
	copy(samples, t.Samples)
	return &Table{Samples: samples, HasTemperature: t.HasTemperature}
}

// Filter returns the samples matching keep, in order
func (t *Table) Filter(keep func(Sample) bool) *Table {
	out := &Table{HasTemperature: t.HasTemperature}
	for _, s := range t.Samples {
		if keep(s) {
			out.Samples = append(out.Samples, s)
		}
	}
	return out
}

// Discharge returns the rows with a negative C-rate
func (t *Table) Discharge() *Table {
	return t.Filter(func(s Sample) bool { return s.CRate < 0 })
}

// Charge returns the rows with a positive C-rate
func (t *Table) Charge() *Table {
	return t.Filter(func(s Sample) bool { return s.CRate > 0 })
}

// Throughput integrates |CRate| over time across consecutive rows of t
// itself. The first row contributes nothing. Use LegThroughput for cycle
// capacities, where steps must come from the unfiltered table.
func (t *Table) Throughput() float64 {
	var total float64
	for i := 1; i < len(t.Samples); i++ {
		dt := t.Samples[i].TimeMin - t.Samples[i-1].TimeMin
		total += math.Abs(t.Samples[i].CRate * dt)
	}
	return total
}

// LegThroughput integrates |CRate| of the discharge and charge rows of t.
// Each row's time step is measured from the row before it in t, whatever
// that row's direction, so a rest inside a leg is not billed at the leg's
// current.
func (t *Table) LegThroughput() (discharge, charge float64) {
	for i := 1; i < len(t.Samples); i++ {
		s := t.Samples[i]
		step := math.Abs(s.CRate * (s.TimeMin - t.Samples[i-1].TimeMin))
		switch {
		case s.CRate < 0:
			discharge += step
		case s.CRate > 0:
			charge += step
		}
	}
	return discharge, charge
}

// MeanCRate returns the arithmetic mean of the C-rate column, 0 when empty
func (t *Table) MeanCRate() float64 {
	if len(t.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range t.Samples {
		sum += s.CRate
	}
	return sum / float64(len(t.Samples))
}

// MaxTime returns the largest elapsed time, 0 when empty
func (t *Table) MaxTime() float64 {
	var m float64
	for i, s := range t.Samples {
		if i == 0 || s.TimeMin > m {
			m = s.TimeMin
		}
	}
	return m
}

// Preprocess sorts rows by elapsed time, keeping the original order of ties,
// and drops rows whose time, voltage or C-rate is null.
func Preprocess(t *Table) *Table {
	out := &Table{HasTemperature: t.HasTemperature}
	for _, s := range t.Samples {
		if math.IsNaN(s.TimeMin) || math.IsNaN(s.Voltage) || math.IsNaN(s.CRate) {
			continue
		}
		out.Samples = append(out.Samples, s)
	}
	sort.SliceStable(out.Samples, func(i, j int) bool {
		return out.Samples[i].TimeMin < out.Samples[j].TimeMin
	})
	return out
}

// Concat joins tables end to end. Each table is shifted by the largest time
// seen so far, so the joined time axis never decreases.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	var offset float64
	for _, t := range tables {
		if t.Len() == 0 {
			continue
		}
		out.HasTemperature = out.HasTemperature || t.HasTemperature
		shift := offset
		for _, s := range t.Samples {
			s.TimeMin += shift
			out.Samples = append(out.Samples, s)
		}
		if end := shift + t.MaxTime(); end > offset {
			offset = end
		}
	}
	return out
}
