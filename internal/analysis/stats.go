package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"battcli/pkg/contracts/domain"
)

// tiny keeps the t statistic finite for a perfect fit
const tiny = 1.0e-20

// mean returns the arithmetic mean, 0 for no values
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// sampleStd returns the standard deviation with n-1 in the denominator,
// 0 for fewer than two values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// popMeanStd returns the mean and the population standard deviation
func popMeanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(xs, nil)
}

// Regression is an ordinary least-squares fit of y on x
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	// PValue is the two-sided p-value for a zero slope
	PValue float64
}

// LinearFit fits y = Intercept + Slope*x. x and y must have the same length
// of at least two, and x must not be constant.
func LinearFit(x, y []float64) Regression {
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := Regression{Slope: slope, Intercept: intercept}

	_, sy := popMeanStd(y)
	if sy == 0 {
		fit.PValue = 1
		return fit
	}
	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	fit.RSquared = r * r

	n := len(x)
	if n == 2 {
		// exactly determined line
		fit.PValue = 0
		return fit
	}
	df := float64(n - 2)
	tstat := r * math.Sqrt(df/((1-r+tiny)*(1+r+tiny)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.PValue = 2 * dist.Survival(math.Abs(tstat))
	return fit
}

// meanInterval returns the 95% Student-t confidence interval on the mean of
// xs using the sample standard error. xs needs at least two values.
func meanInterval(xs []float64) domain.Interval {
	m := stat.Mean(xs, nil)
	sem := stat.StdErr(stat.StdDev(xs, nil), float64(len(xs)))
	if sem == 0 || math.IsNaN(sem) {
		return domain.Interval{Lower: m, Upper: m}
	}
	dist := distuv.StudentsT{Mu: m, Sigma: sem, Nu: float64(len(xs) - 1)}
	return domain.Interval{
		Lower: dist.Quantile(0.025),
		Upper: dist.Quantile(0.975),
	}
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
