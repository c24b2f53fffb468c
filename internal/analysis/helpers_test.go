package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"battcli/internal/config"
	"battcli/internal/cycledata"
	"battcli/internal/cycler"
	"battcli/pkg/contracts/domain"
)

// cycleTable builds a cycle that charges at 1C for chargeMin minutes and
// then discharges at 1C for dischargeMin minutes. The switch happens within
// the same minute so the cycle holds exactly chargeMin and dischargeMin
// C-minutes.
func cycleTable(chargeMin, dischargeMin float64) *cycler.Table {
	return &cycler.Table{Samples: []cycler.Sample{
		{TimeMin: 0, Voltage: 3.6, CRate: 1},
		{TimeMin: chargeMin, Voltage: 4.2, CRate: 1},
		{TimeMin: chargeMin, Voltage: 4.1, CRate: -1},
		{TimeMin: chargeMin + dischargeMin, Voltage: 3.0, CRate: -1},
	}}
}

// pointsCapacity extracts the normalized capacity axis of a profile leg
func pointsCapacity(points []domain.ProfilePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.CapacityNormalized
	}
	return out
}

// containerOf fills a container with one cycle per discharge duration,
// numbered from first
func containerOf(first int, dischargeMin ...float64) *cycledata.Container {
	c := cycledata.NewContainer(nil)
	for i, d := range dischargeMin {
		c.Put(first+i, cycleTable(10, d))
	}
	return c
}

func directConfig(t *testing.T, cycles string) *config.Analysis {
	t.Helper()
	b := config.NewBuilder().WithPaths("/data/cell").WithManualCapacity(10)
	if cycles != "" {
		b = b.WithCycleInput(cycles)
	}
	cfg, err := b.Build()
	require.NoError(t, err)
	return cfg
}

// pulseTable has 42 rows with a 1C discharge pulse on rows 10-14
func pulseTable() *cycler.Table {
	t := &cycler.Table{}
	for i := 0; i < 42; i++ {
		s := cycler.Sample{TimeMin: float64(i), Voltage: 4.0}
		switch {
		case i >= 10 && i < 15:
			s.CRate, s.Voltage = -1, 3.8
		case i >= 15:
			s.Voltage = 3.95
		}
		t.Samples = append(t.Samples, s)
	}
	return t
}
