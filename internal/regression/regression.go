// Package regression fits single-predictor ordinary least squares models.
package regression

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DegenerateError is returned when the predictor has fewer than two distinct values,
// leaving the slope undefined.
type DegenerateError struct {
	N        int
	Distinct int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("regression needs at least 2 distinct predictor values (got %d over %d points)", e.Distinct, e.N)
}

// Result holds the fitted line and its statistics.
type Result struct {
	N         int
	Slope     float64
	Intercept float64
	RSquared  float64
	// PValue is the two-sided p-value for slope = 0. NaN when N <= 2.
	PValue float64
	// StdErr is the standard error of the slope. NaN when N <= 2.
	StdErr float64
}

// Fit regresses ys on xs: y = Intercept + Slope*x.
func Fit(xs, ys []float64) (*Result, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("regression: length mismatch: %d predictors, %d responses", len(xs), len(ys))
	}
	if d := distinct(xs); d < 2 {
		return nil, &DegenerateError{N: len(xs), Distinct: d}
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	res := &Result{
		N:         len(xs),
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		PValue:    math.NaN(),
		StdErr:    math.NaN(),
	}
	dof := float64(len(xs) - 2)
	if dof <= 0 {
		return res, nil
	}

	meanX := stat.Mean(xs, nil)
	var ssr, sxx float64
	for i, x := range xs {
		r := ys[i] - (alpha + beta*x)
		ssr += r * r
		sxx += (x - meanX) * (x - meanX)
	}
	res.StdErr = math.Sqrt(ssr / dof / sxx)
	switch {
	case res.StdErr == 0 && beta == 0:
		res.PValue = math.NaN()
	case res.StdErr == 0:
		res.PValue = 0
	default:
		t := math.Abs(beta / res.StdErr)
		tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}
		res.PValue = 2 * tdist.Survival(t)
	}
	return res, nil
}

// Predict evaluates the fitted line at x.
func (r *Result) Predict(x float64) float64 { return r.Intercept + r.Slope*x }

// Precision sets the number of decimals used when rendering each statistic.
type Precision struct {
	Slope     int
	Intercept int
	RSquared  int
	PValue    int
}

// DefaultPrecision shows three decimals and ten for p-values, so tiny p-values do
// not collapse to zero.
var DefaultPrecision = Precision{Slope: 3, Intercept: 3, RSquared: 3, PValue: 10}

// Formatted holds rendered statistics.
type Formatted struct {
	Slope     string `json:"slope"`
	Intercept string `json:"intercept"`
	RSquared  string `json:"r_squared"`
	PValue    string `json:"p_value"`
}

// Format renders the statistics as fixed-point strings.
func (r *Result) Format(p Precision) Formatted {
	return Formatted{
		Slope:     fixed(r.Slope, p.Slope),
		Intercept: fixed(r.Intercept, p.Intercept),
		RSquared:  fixed(r.RSquared, p.RSquared),
		PValue:    fixed(r.PValue, p.PValue),
	}
}

func fixed(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	// avoid "-0.000"
	if z := strconv.FormatFloat(0, 'f', decimals, 64); s == "-"+z {
		return z
	}
	return s
}

func distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
		if len(seen) > 1 {
			return len(seen)
		}
	}
	return len(seen)
}
