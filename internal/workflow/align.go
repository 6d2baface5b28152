package workflow

import (
	"math"
	"sort"

	"github.com/derickschaefer/fredmcp/internal/model"
)

// Panel is a set of series joined on a shared date axis. Values[key][i]
// corresponds to Dates[i]; NaN marks a gap left by an outer join.
type Panel struct {
	Dates  []string
	Values map[string][]float64
}

// Keys returns the panel's series keys, sorted.
func (p Panel) Keys() []string {
	keys := make([]string, 0, len(p.Values))
	for k := range p.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Column returns the values for one key with NaN rows removed, paired with
// their dates.
func (p Panel) Column(key string) (dates []string, vals []float64) {
	col, ok := p.Values[key]
	if !ok {
		return nil, nil
	}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		dates = append(dates, p.Dates[i])
		vals = append(vals, v)
	}
	return dates, vals
}

// Tail truncates the panel to its n most recent dates.
func (p Panel) Tail(n int) Panel {
	if n <= 0 || len(p.Dates) <= n {
		return p
	}
	cut := len(p.Dates) - n
	out := Panel{Dates: p.Dates[cut:], Values: make(map[string][]float64, len(p.Values))}
	for k, col := range p.Values {
		out.Values[k] = col[cut:]
	}
	return out
}

// AlignSeries joins the series on their date axis. method "inner" keeps only
// dates where every series has a non-missing value; "outer" keeps the union
// and leaves NaN gaps for FillMissing to resolve.
func AlignSeries(series map[string][]model.Observation, method string) Panel {
	byDate := make(map[string]map[string]float64)
	for key, obs := range series {
		for _, o := range obs {
			if math.IsNaN(o.Value) {
				continue
			}
			date := model.FormatDate(o.Date)
			if byDate[date] == nil {
				byDate[date] = make(map[string]float64, len(series))
			}
			byDate[date][key] = o.Value
		}
	}

	dates := make([]string, 0, len(byDate))
	for date, row := range byDate {
		if method == "inner" && len(row) < len(series) {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	p := Panel{Dates: dates, Values: make(map[string][]float64, len(series))}
	for key := range series {
		col := make([]float64, len(dates))
		for i, date := range dates {
			if v, ok := byDate[date][key]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		p.Values[key] = col
	}
	return p
}

// FillMissing resolves NaN gaps after an outer join. "interpolate" fills
// interior gaps linearly, "forward" carries the last value, "drop" removes
// dates where any series is still missing. Leading gaps survive interpolate
// and forward; drop is applied last in all modes so no NaN leaks downstream.
func FillMissing(p Panel, mode string) Panel {
	switch mode {
	case "interpolate":
		for _, col := range p.Values {
			interpolateGaps(col)
		}
	case "forward":
		for _, col := range p.Values {
			forwardFill(col)
		}
	}
	return dropGaps(p)
}

func interpolateGaps(col []float64) {
	prev := -1
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			span := float64(i - prev)
			step := (col[i] - col[prev]) / span
			for j := prev + 1; j < i; j++ {
				col[j] = col[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}

func forwardFill(col []float64) {
	last := math.NaN()
	for i, v := range col {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				col[i] = last
			}
			continue
		}
		last = v
	}
}

func dropGaps(p Panel) Panel {
	keep := make([]int, 0, len(p.Dates))
	for i := range p.Dates {
		full := true
		for _, col := range p.Values {
			if math.IsNaN(col[i]) {
				full = false
				break
			}
		}
		if full {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(p.Dates) {
		return p
	}
	out := Panel{Dates: make([]string, len(keep)), Values: make(map[string][]float64, len(p.Values))}
	for k := range p.Values {
		out.Values[k] = make([]float64, len(keep))
	}
	for j, i := range keep {
		out.Dates[j] = p.Dates[i]
		for k, col := range p.Values {
			out.Values[k][j] = col[i]
		}
	}
	return out
}
