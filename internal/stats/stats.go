// Package stats computes the statistical primitives used by the workflow
// analyses: descriptive moments, OLS regression with significance, growth
// metrics, and rolling variance. All functions are pure; no I/O. Results
// match textbook formulas to 1e-6 relative tolerance.
package stats

import (
	"math"
	"sort"
)

// ─── Descriptive ──────────────────────────────────────────────────────────────

// Mean returns the arithmetic mean; NaN for empty input.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

// Std returns the sample standard deviation (n-1 denominator).
// Zero for fewer than two values.
func Std(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := Mean(vals)
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}

// Median returns the 50th percentile.
func Median(vals []float64) float64 {
	return Percentile(vals, 50)
}

// Percentile computes the p-th percentile (0..100) by linear interpolation.
// The input does not need to be sorted.
func Percentile(vals []float64, p float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)

	idx := p / 100 * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// CoefficientOfVariation returns std/|mean|; NaN when the mean is zero.
func CoefficientOfVariation(vals []float64) float64 {
	m := Mean(vals)
	if m == 0 || math.IsNaN(m) {
		return math.NaN()
	}
	return Std(vals) / math.Abs(m)
}

// ─── Regression ───────────────────────────────────────────────────────────────

// Regression holds an OLS fit of y on x with significance statistics.
// PValue is the two-sided p-value of the slope (t-test, n-2 df).
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
	PValue    float64 `json:"p_value"`
	N         int     `json:"n"`
}

// LinearRegression fits y = intercept + slope*x by ordinary least squares.
// Needs at least 3 points for a p-value; with fewer, PValue is NaN.
func LinearRegression(xs, ys []float64) Regression {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), R2: math.NaN(), PValue: math.NaN(), N: n}
	}
	nf := float64(n)
	var xSum, ySum, xySum, x2Sum float64
	for i := range xs {
		xSum += xs[i]
		ySum += ys[i]
		xySum += xs[i] * ys[i]
		x2Sum += xs[i] * xs[i]
	}
	denom := nf*x2Sum - xSum*xSum
	r := Regression{N: n}
	if denom == 0 {
		r.Slope = 0
		r.Intercept = ySum / nf
		r.R2 = 0
		r.PValue = math.NaN()
		return r
	}
	r.Slope = (nf*xySum - xSum*ySum) / denom
	r.Intercept = (ySum - r.Slope*xSum) / nf

	yMean := ySum / nf
	var ssTot, ssRes, sxx float64
	xMean := xSum / nf
	for i := range xs {
		pred := r.Slope*xs[i] + r.Intercept
		ssTot += (ys[i] - yMean) * (ys[i] - yMean)
		ssRes += (ys[i] - pred) * (ys[i] - pred)
		sxx += (xs[i] - xMean) * (xs[i] - xMean)
	}
	if ssTot == 0 {
		r.R2 = 1
	} else {
		r.R2 = 1 - ssRes/ssTot
	}

	df := nf - 2
	if df < 1 || sxx == 0 {
		r.PValue = math.NaN()
		return r
	}
	se := math.Sqrt(ssRes / df / sxx)
	if se == 0 {
		r.PValue = 0
		return r
	}
	t := r.Slope / se
	r.PValue = 2 * (1 - studentTCDF(math.Abs(t), df))
	return r
}

// ─── Growth metrics ───────────────────────────────────────────────────────────

// GrowthRates computes period-over-period percent changes:
// g[i] = (v[i+1]/v[i] - 1) * 100. Output has len(vals)-1 entries; pairs with
// a zero or NaN denominator yield NaN.
func GrowthRates(vals []float64) []float64 {
	if len(vals) < 2 {
		return nil
	}
	out := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		prev, curr := vals[i-1], vals[i]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(curr) {
			out[i-1] = math.NaN()
		} else {
			out[i-1] = (curr/prev - 1) * 100
		}
	}
	return out
}

// CAGR returns the compound annual growth rate in percent over years.
// NaN when inputs are non-positive or years is zero.
func CAGR(first, last, years float64) float64 {
	if first <= 0 || last <= 0 || years <= 0 {
		return math.NaN()
	}
	return (math.Pow(last/first, 1/years) - 1) * 100
}

// Volatility is the sample standard deviation of period growth rates,
// ignoring NaN entries.
func Volatility(vals []float64) float64 {
	growth := GrowthRates(vals)
	var clean []float64
	for _, g := range growth {
		if !math.IsNaN(g) {
			clean = append(clean, g)
		}
	}
	return Std(clean)
}

// StabilityIndex maps volatility into (0, 1]: 1 / (1 + volatility).
func StabilityIndex(volatility float64) float64 {
	if math.IsNaN(volatility) || volatility < 0 {
		return math.NaN()
	}
	return 1 / (1 + volatility)
}

// RollingVariance computes the population variance over each consecutive
// window of the given size. Output index i covers vals[i : i+window].
func RollingVariance(vals []float64, window int) []float64 {
	if window < 2 || len(vals) < window {
		return nil
	}
	out := make([]float64, 0, len(vals)-window+1)
	for i := 0; i+window <= len(vals); i++ {
		seg := vals[i : i+window]
		m := Mean(seg)
		var sq float64
		for _, v := range seg {
			d := v - m
			sq += d * d
		}
		out = append(out, sq/float64(window))
	}
	return out
}

// ─── Student's t distribution ─────────────────────────────────────────────────

// studentTCDF returns P(T <= t) for Student's t with df degrees of freedom,
// via the regularized incomplete beta function.
func studentTCDF(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}
	x := df / (df + t*t)
	p := 0.5 * regIncBeta(df/2, 0.5, x)
	if t > 0 {
		return 1 - p
	}
	return p
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued fraction expansion (Lentz's method).
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lnBeta := lgamma(a+b) - lgamma(a) - lgamma(b)
	front := math.Exp(math.Log(x)*a + math.Log(1-x)*b + lnBeta)
	// Use the symmetry relation for faster convergence.
	if x > (a+1)/(a+b+2) {
		return 1 - regIncBeta(b, a, 1-x)
	}
	const (
		maxIter = 200
		eps     = 1e-14
		tiny    = 1e-30
	)
	f, c, d := 1.0, 1.0, 0.0
	for i := 0; i <= maxIter; i++ {
		m := i / 2
		var numerator float64
		switch {
		case i == 0:
			numerator = 1
		case i%2 == 0:
			numerator = float64(m) * (b - float64(m)) * x / ((a + 2*float64(m) - 1) * (a + 2*float64(m)))
		default:
			numerator = -(a + float64(m)) * (a + b + float64(m)) * x / ((a + 2*float64(m)) * (a + 2*float64(m) + 1))
		}
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		cd := c * d
		f *= cd
		if math.Abs(1-cd) < eps {
			break
		}
	}
	return front * (f - 1) / a
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
