package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearFit(t *testing.T) {
	tests := []struct {
		name          string
		x, y          []float64
		wantSlope     float64
		wantIntercept float64
		wantR2        float64
		wantP         float64
	}{
		{
			name:          "two points",
			x:             []float64{1, 2},
			y:             []float64{100, 90},
			wantSlope:     -10,
			wantIntercept: 110,
			wantR2:        1,
			wantP:         0,
		},
		{
			name:          "perfect line",
			x:             []float64{1, 2, 3, 4, 5},
			y:             []float64{98, 96, 94, 92, 90},
			wantSlope:     -2,
			wantIntercept: 100,
			wantR2:        1,
			wantP:         0,
		},
		{
			name:          "flat series",
			x:             []float64{1, 2, 3},
			y:             []float64{50, 50, 50},
			wantSlope:     0,
			wantIntercept: 50,
			wantR2:        0,
			wantP:         1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit := LinearFit(tt.x, tt.y)
			assert.InDelta(t, tt.wantSlope, fit.Slope, 1e-9)
			assert.InDelta(t, tt.wantIntercept, fit.Intercept, 1e-9)
			assert.InDelta(t, tt.wantR2, fit.RSquared, 1e-9)
			assert.InDelta(t, tt.wantP, fit.PValue, 1e-9)
		})
	}
}

func TestLinearFitNoisy(t *testing.T) {
	fit := LinearFit([]float64{1, 2, 3, 4, 5}, []float64{10, 12, 9, 13, 11})
	assert.InDelta(t, 0.3, fit.Slope, 1e-9)
	assert.InDelta(t, 10.1, fit.Intercept, 1e-9)
	assert.Greater(t, fit.PValue, 0.05)
	assert.Less(t, fit.PValue, 1.0)
	assert.Greater(t, fit.RSquared, 0.0)
	assert.Less(t, fit.RSquared, 1.0)
}

func TestMeanInterval(t *testing.T) {
	// mean 95, standard error 5, t(0.975, 1) = 12.7062
	ci := meanInterval([]float64{100, 90})
	assert.InDelta(t, 95-63.531, ci.Lower, 1e-2)
	assert.InDelta(t, 95+63.531, ci.Upper, 1e-2)

	same := meanInterval([]float64{7, 7, 7})
	assert.Equal(t, 7.0, same.Lower)
	assert.Equal(t, 7.0, same.Upper)
}

func TestDescriptiveHelpers(t *testing.T) {
	m, s := popMeanStd([]float64{100, 90})
	assert.InDelta(t, 95, m, 1e-9)
	assert.InDelta(t, 5, s, 1e-9)

	assert.InDelta(t, 7.0710678, sampleStd([]float64{100, 90}), 1e-6)
	assert.Equal(t, 0.0, sampleStd([]float64{3}))
	assert.Equal(t, 0.0, mean(nil))

	lo, hi := minMax([]float64{3, -1, 8})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 8.0, hi)
}
