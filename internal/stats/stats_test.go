package stats_test

import (
	"math"
	"testing"

	"github.com/derickschaefer/fredmcp/internal/stats"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Descriptive ──────────────────────────────────────────────────────────────

func TestMeanAndStd(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	if got := stats.Mean(vals); !approxEqual(got, 3, 1e-12) {
		t.Errorf("Mean: expected 3, got %g", got)
	}
	// Sample std of 1..5 is sqrt(2.5).
	if got := stats.Std(vals); !approxEqual(got, math.Sqrt(2.5), 1e-12) {
		t.Errorf("Std: expected %g, got %g", math.Sqrt(2.5), got)
	}
	if !math.IsNaN(stats.Mean(nil)) {
		t.Error("Mean of empty input should be NaN")
	}
	if got := stats.Std([]float64{7}); got != 0 {
		t.Errorf("Std of single value: expected 0, got %g", got)
	}
}

func TestPercentileInterpolates(t *testing.T) {
	vals := []float64{10, 20, 30, 40}
	if got := stats.Percentile(vals, 50); !approxEqual(got, 25, 1e-12) {
		t.Errorf("P50: expected 25, got %g", got)
	}
	if got := stats.Percentile(vals, 0); !approxEqual(got, 10, 1e-12) {
		t.Errorf("P0: expected 10, got %g", got)
	}
	if got := stats.Percentile(vals, 100); !approxEqual(got, 40, 1e-12) {
		t.Errorf("P100: expected 40, got %g", got)
	}
	// Input order must not matter.
	if got := stats.Median([]float64{30, 10, 40, 20}); !approxEqual(got, 25, 1e-12) {
		t.Errorf("Median of unsorted input: expected 25, got %g", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	vals := []float64{90, 100, 110}
	want := stats.Std(vals) / 100
	if got := stats.CoefficientOfVariation(vals); !approxEqual(got, want, 1e-12) {
		t.Errorf("CV: expected %g, got %g", want, got)
	}
	if !math.IsNaN(stats.CoefficientOfVariation([]float64{-1, 0, 1})) {
		t.Error("CV with zero mean should be NaN")
	}
}

// ─── Regression ───────────────────────────────────────────────────────────────

func TestLinearRegressionPerfectLine(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{1, 3, 5, 7, 9} // y = 2x + 1
	r := stats.LinearRegression(xs, ys)

	if !approxEqual(r.Slope, 2, 1e-9) {
		t.Errorf("Slope: expected 2, got %g", r.Slope)
	}
	if !approxEqual(r.Intercept, 1, 1e-9) {
		t.Errorf("Intercept: expected 1, got %g", r.Intercept)
	}
	if !approxEqual(r.R2, 1, 1e-9) {
		t.Errorf("R2: expected 1, got %g", r.R2)
	}
	// Zero residuals: the slope is exactly significant.
	if r.PValue != 0 {
		t.Errorf("PValue: expected 0 for a perfect fit, got %g", r.PValue)
	}
}

func TestLinearRegressionNoisySlope(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ys := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.2, 13.8, 16.1}
	r := stats.LinearRegression(xs, ys)

	if !approxEqual(r.Slope, 2, 0.05) {
		t.Errorf("Slope: expected ~2, got %g", r.Slope)
	}
	if r.R2 < 0.99 {
		t.Errorf("R2: expected > 0.99, got %g", r.R2)
	}
	if !(r.PValue < 0.001) {
		t.Errorf("PValue: expected < 0.001 for a strong trend, got %g", r.PValue)
	}
}

func TestLinearRegressionFlatData(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6}
	ys := []float64{4.8, 5.3, 4.9, 5.1, 5.2, 4.7}
	r := stats.LinearRegression(xs, ys)

	if !(r.PValue > 0.05) {
		t.Errorf("PValue: expected > 0.05 for noise around a constant, got %g", r.PValue)
	}
}

func TestLinearRegressionDegenerate(t *testing.T) {
	r := stats.LinearRegression([]float64{1}, []float64{2})
	if !math.IsNaN(r.Slope) {
		t.Errorf("single point: expected NaN slope, got %g", r.Slope)
	}
	// All x equal: slope defined as 0, intercept at the mean.
	r = stats.LinearRegression([]float64{3, 3, 3}, []float64{1, 2, 3})
	if r.Slope != 0 {
		t.Errorf("constant x: expected slope 0, got %g", r.Slope)
	}
	if !approxEqual(r.Intercept, 2, 1e-12) {
		t.Errorf("constant x: expected intercept 2, got %g", r.Intercept)
	}
}

// ─── Growth metrics ───────────────────────────────────────────────────────────

func TestGrowthRates(t *testing.T) {
	got := stats.GrowthRates([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("expected 2 growth rates, got %d", len(got))
	}
	if !approxEqual(got[0], 10, 1e-9) {
		t.Errorf("first rate: expected 10, got %g", got[0])
	}
	if !approxEqual(got[1], -10, 1e-9) {
		t.Errorf("second rate: expected -10, got %g", got[1])
	}
}

func TestGrowthRatesNaNPropagation(t *testing.T) {
	got := stats.GrowthRates([]float64{100, math.NaN(), 120, 0, 130})
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Error("pairs touching NaN should yield NaN")
	}
	if !approxEqual(got[2], -100, 1e-9) {
		t.Errorf("drop to zero: expected -100, got %g", got[2])
	}
	if !math.IsNaN(got[3]) {
		t.Error("zero denominator should yield NaN")
	}
}

func TestCAGR(t *testing.T) {
	// 100 -> 200 over 10 years is ~7.177%.
	if got := stats.CAGR(100, 200, 10); !approxEqual(got, 7.177346, 1e-4) {
		t.Errorf("CAGR: expected ~7.177, got %g", got)
	}
	if !math.IsNaN(stats.CAGR(0, 200, 10)) {
		t.Error("non-positive start should yield NaN")
	}
	if !math.IsNaN(stats.CAGR(100, 200, 0)) {
		t.Error("zero years should yield NaN")
	}
}

func TestVolatilityAndStability(t *testing.T) {
	// Constant growth: zero volatility, stability 1.
	vol := stats.Volatility([]float64{100, 110, 121, 133.1})
	if !approxEqual(vol, 0, 1e-9) {
		t.Errorf("constant growth volatility: expected 0, got %g", vol)
	}
	if got := stats.StabilityIndex(vol); !approxEqual(got, 1, 1e-9) {
		t.Errorf("stability: expected 1, got %g", got)
	}
	if got := stats.StabilityIndex(1); !approxEqual(got, 0.5, 1e-12) {
		t.Errorf("stability at volatility 1: expected 0.5, got %g", got)
	}
	if !math.IsNaN(stats.StabilityIndex(math.NaN())) {
		t.Error("NaN volatility should yield NaN stability")
	}
}

func TestRollingVariance(t *testing.T) {
	vals := []float64{1, 1, 1, 5, 5, 5}
	got := stats.RollingVariance(vals, 3)
	if len(got) != 4 {
		t.Fatalf("expected 4 windows, got %d", len(got))
	}
	if !approxEqual(got[0], 0, 1e-12) {
		t.Errorf("first window: expected variance 0, got %g", got[0])
	}
	if !approxEqual(got[3], 0, 1e-12) {
		t.Errorf("last window: expected variance 0, got %g", got[3])
	}
	// Middle windows straddle the level shift.
	if got[1] <= 0 || got[2] <= 0 {
		t.Error("straddling windows should have positive variance")
	}
	if stats.RollingVariance(vals, 10) != nil {
		t.Error("window larger than input should yield nil")
	}
}
