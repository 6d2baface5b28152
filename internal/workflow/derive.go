package workflow

import (
	"math"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/model"
)

// Derivations over observation slices. All inputs are assumed date-ascending
// (FetchObservations guarantees it); outputs preserve that order.

// DeriveGrowthRate computes period-over-period percent change. The first
// output point carries the date of the second input point. Pairs with a
// missing or zero base yield a missing value.
func DeriveGrowthRate(obs []model.Observation) []model.Observation {
	if len(obs) < 2 {
		return nil
	}
	out := make([]model.Observation, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev, curr := obs[i-1].Value, obs[i].Value
		v := math.NaN()
		if prev != 0 && !math.IsNaN(prev) && !math.IsNaN(curr) {
			v = (curr/prev - 1) * 100
		}
		out = append(out, model.Observation{Date: obs[i].Date, Value: v})
	}
	return out
}

// DerivePerCapita divides a total by population, joining on date. FRED totals
// carry unit strings like "Billions of U.S. Dollars"; the scale factor brings
// them back to dollars before the division.
func DerivePerCapita(total, population []model.Observation, totalUnits string) []model.Observation {
	scale := unitScale(totalUnits)
	pop := make(map[string]float64, len(population))
	for _, o := range population {
		if !math.IsNaN(o.Value) && o.Value > 0 {
			pop[model.FormatDate(o.Date)] = o.Value
		}
	}
	var out []model.Observation
	for _, o := range total {
		if math.IsNaN(o.Value) {
			continue
		}
		p, ok := pop[model.FormatDate(o.Date)]
		if !ok {
			continue
		}
		out = append(out, model.Observation{Date: o.Date, Value: o.Value * scale / p})
	}
	return out
}

func unitScale(units string) float64 {
	u := strings.ToLower(units)
	switch {
	case strings.Contains(u, "billion"):
		return 1e9
	case strings.Contains(u, "million"):
		return 1e6
	case strings.Contains(u, "thousand"):
		return 1e3
	default:
		return 1
	}
}

// IndexToBase rescales a column so the value at baseDate becomes 100. When
// baseDate is absent the first non-missing value anchors the index, and the
// caller is told via the second return.
func IndexToBase(dates []string, vals []float64, baseDate string) (out []float64, usedBase string) {
	base := math.NaN()
	usedBase = baseDate
	for i, d := range dates {
		if strings.HasPrefix(d, baseDate) && !math.IsNaN(vals[i]) {
			base = vals[i]
			usedBase = d
			break
		}
	}
	if math.IsNaN(base) {
		for i, v := range vals {
			if !math.IsNaN(v) {
				base = v
				usedBase = dates[i]
				break
			}
		}
	}
	out = make([]float64, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsNaN(base) || base == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = v / base * 100
		}
	}
	return out, usedBase
}

// RelativeToBenchmark divides every column of the panel by the benchmark
// column, expressed as a ratio. The benchmark itself becomes 1.0 everywhere
// it has data.
func RelativeToBenchmark(p Panel, benchmark string) (Panel, bool) {
	bench, ok := p.Values[benchmark]
	if !ok {
		return p, false
	}
	out := Panel{Dates: p.Dates, Values: make(map[string][]float64, len(p.Values))}
	for k, col := range p.Values {
		ratio := make([]float64, len(col))
		for i, v := range col {
			b := bench[i]
			if math.IsNaN(v) || math.IsNaN(b) || b == 0 {
				ratio[i] = math.NaN()
			} else {
				ratio[i] = v / b
			}
		}
		out.Values[k] = ratio
	}
	return out, true
}
