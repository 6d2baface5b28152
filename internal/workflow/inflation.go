package workflow

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/model"
	"github.com/derickschaefer/fredmcp/internal/stats"
	"github.com/derickschaefer/fredmcp/internal/tools"
)

// Inflation workflow tunables.
const (
	inflationTailPoints = 24  // aligned points kept in the response
	targetBandPP        = 0.5 // |distance| within which a region is "at" target
	stickyThresholdPct  = 3.0
	stickyLookback      = 6
	baseEffectDropPP    = 1.5
	baseEffectDropSpan  = 2
	baseEffectRiseSpan  = 6
	trendFlatSlope      = 0.05 // pp per period below which a trend is flat
)

// InflationMetrics are the analysis levels of the inflation workflow.
var InflationMetrics = []string{"latest", "trend", "all"}

type regionSeries struct {
	info RegionInflation
	obs  []model.Observation
}

// CompareInflation implements compare_inflation_across_regions: expand the
// region list, fetch each region's year-over-year inflation in parallel,
// inner-join on dates, and run the requested analyses.
func CompareInflation(ctx context.Context, d *tools.Deps, args map[string]any) *model.ToolResponse {
	const tool = "compare_inflation_across_regions"

	regions := tools.ArgList(args, "regions", ",")
	if len(regions) == 0 {
		return tools.ErrorResponse(tool, tools.ValidationErr("regions", "is required"))
	}
	startDate := tools.ArgString(args, "start_date")
	endDate := tools.ArgString(args, "end_date")
	metric := tools.ArgString(args, "metric")
	if metric == "" {
		metric = "latest"
	}
	if err := tools.CheckDate("start_date", startDate); err != nil {
		return tools.ErrorResponse(tool, err)
	}
	if err := tools.CheckDate("end_date", endDate); err != nil {
		return tools.ErrorResponse(tool, err)
	}
	if startDate != "" && endDate != "" && startDate > endDate {
		return tools.ErrorResponse(tool, tools.ValidationErr("start_date", "%s is after end_date %s", startDate, endDate))
	}
	if err := tools.CheckEnum("metric", metric, InflationMetrics); err != nil {
		return tools.ErrorResponse(tool, err)
	}

	codes, warnings := Expand(regions, "inflation", d.Config.MaxRegions)

	var selected []RegionInflation
	for _, code := range codes {
		info, ok := LookupRegionInflation(code)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no inflation series mapping for %q; dropped", code))
			continue
		}
		selected = append(selected, info)
	}
	if len(selected) == 0 {
		return tools.ErrorResponse(tool, tools.ValidationErr("regions", "no region resolved to a known inflation series"))
	}

	fetched, fetchWarnings, err := fetchInflation(ctx, d, selected, startDate, endDate)
	if err != nil {
		return tools.ErrorResponse(tool, err)
	}
	warnings = append(warnings, fetchWarnings...)
	if len(fetched) == 0 {
		return tools.ErrorResponse(tool, fredclient.NewError(fredclient.KindNoDataFetched,
			"no inflation data fetched for any requested region"))
	}

	series := make(map[string][]model.Observation, len(fetched))
	for _, rs := range fetched {
		series[rs.info.RegionCode] = rs.obs
	}
	panel := AlignSeries(series, "inner")
	if len(fetched) < 2 || len(panel.Dates) == 0 {
		return tools.ErrorResponse(tool, fredclient.NewError(fredclient.KindNoCommonDates,
			"fewer than 2 regions share observation dates in the requested window"))
	}
	panel = panel.Tail(inflationTailPoints)

	comparison := map[string]any{
		"latest_snapshot": latestSnapshot(panel, fetched),
		"target_analysis": targetAnalysis(panel, fetched),
		"base_effects":    baseEffects(panel),
		"series":          panelView(panel),
	}
	if metric == "trend" || metric == "all" {
		comparison["trends"] = inflationTrends(panel)
	}
	if metric == "all" {
		comparison["convergence"] = inflationConvergence(panel)
	}

	used := make([]map[string]any, 0, len(fetched))
	for _, rs := range fetched {
		used = append(used, map[string]any{
			"region":     rs.info.RegionCode,
			"series_id":  rs.info.SeriesID,
			"index_type": string(rs.info.IndexType),
		})
	}

	resp := model.NewResponse(tool)
	resp.Echo("metric", metric).
		Echo("start_date", startDate).
		Echo("end_date", endDate)
	resp.Metadata["series_used"] = used
	if len(warnings) > 0 {
		resp.Metadata["warnings"] = warnings
	}
	resp.Data = map[string]any{
		"comparison":             comparison,
		"comparability_warnings": comparabilityWarnings(fetched),
		"limitations": []string{
			"Indices differ in methodology across regions; levels are not strictly comparable.",
			"Year-over-year rates smooth over intra-year dynamics.",
		},
		"suggestions": []string{
			"Use metric=all for trend and convergence analysis.",
			"Narrow the date window to isolate recent regimes.",
		},
	}
	return resp
}

// fetchInflation runs the bounded parallel fetch. Per-region failures become
// warnings; only a context error aborts the whole workflow.
func fetchInflation(ctx context.Context, d *tools.Deps, selected []RegionInflation, startDate, endDate string) ([]regionSeries, []string, error) {
	results := make([]*regionSeries, len(selected))
	failures := make([]string, len(selected))

	sem := semaphore.NewWeighted(int64(d.Config.InflationFanout))
	g, gctx := errgroup.WithContext(ctx)
	for i, info := range selected {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			data, _, err := tools.FetchObservations(gctx, d, tools.ObsArgs{
				SeriesID:         info.SeriesID,
				Units:            "pc1",
				ObservationStart: startDate,
				ObservationEnd:   endDate,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures[i] = fmt.Sprintf("fetch failed for %s (%s): %v", info.RegionCode, info.SeriesID, err)
				return nil
			}
			if len(data.Obs) == 0 {
				failures[i] = fmt.Sprintf("no observations for %s (%s) in the requested window", info.RegionCode, info.SeriesID)
				return nil
			}
			results[i] = &regionSeries{info: info, obs: data.Obs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var fetched []regionSeries
	var warnings []string
	for i := range selected {
		if results[i] != nil {
			fetched = append(fetched, *results[i])
		} else if failures[i] != "" {
			warnings = append(warnings, failures[i])
		}
	}
	return fetched, warnings, nil
}

// ─── Analyses ─────────────────────────────────────────────────────────────────

func latestSnapshot(p Panel, fetched []regionSeries) map[string]any {
	last := len(p.Dates) - 1
	type entry struct {
		Region    string  `json:"region"`
		SeriesID  string  `json:"series_id"`
		IndexType string  `json:"index_type"`
		Value     float64 `json:"value"`
	}
	entries := make([]entry, 0, len(fetched))
	for _, rs := range fetched {
		col := p.Values[rs.info.RegionCode]
		entries = append(entries, entry{
			Region:    rs.info.RegionCode,
			SeriesID:  rs.info.SeriesID,
			IndexType: string(rs.info.IndexType),
			Value:     round2(col[last]),
		})
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].Value < entries[b].Value })

	ranking := make([]map[string]any, len(entries))
	for i, e := range entries {
		ranking[i] = map[string]any{
			"rank": i + 1, "region": e.Region, "series_id": e.SeriesID,
			"index_type": e.IndexType, "value": e.Value,
		}
	}
	return map[string]any{"date": p.Dates[last], "ranking": ranking}
}

func targetAnalysis(p Panel, fetched []regionSeries) map[string]any {
	out := make(map[string]any, len(fetched))
	last := len(p.Dates) - 1
	for _, rs := range fetched {
		if rs.info.CentralBankTarget == nil {
			continue
		}
		col := p.Values[rs.info.RegionCode]
		value := col[last]
		distance := value - *rs.info.CentralBankTarget
		status := "above"
		switch {
		case math.Abs(distance) <= targetBandPP:
			status = "at"
		case distance < 0:
			status = "below"
		}
		entry := map[string]any{
			"target":               *rs.info.CentralBankTarget,
			"value":                round2(value),
			"distance_from_target": round2(distance),
			"status":               status,
			"sticky_inflation":     stickyInflation(col),
		}
		if rs.info.Notes != "" {
			entry["notes"] = rs.info.Notes
		}
		out[rs.info.RegionCode] = entry
	}
	return out
}

// stickyInflation is true when inflation exceeded the threshold in each of
// the most recent aligned observations.
func stickyInflation(col []float64) bool {
	if len(col) < stickyLookback {
		return false
	}
	for _, v := range col[len(col)-stickyLookback:] {
		if !(v > stickyThresholdPct) {
			return false
		}
	}
	return true
}

// baseEffects flags regions whose series shows a sharp drop followed by a
// rebound: the year-ago comparison base, not current prices, drives the
// headline rate around such episodes.
func baseEffects(p Panel) map[string]any {
	out := make(map[string]any, len(p.Values))
	for region, col := range p.Values {
		flagged, dropDate, reboundDate := detectBaseEffect(p.Dates, col)
		entry := map[string]any{"detected": flagged}
		if flagged {
			entry["drop_date"] = dropDate
			entry["rebound_date"] = reboundDate
		}
		out[region] = entry
	}
	return out
}

func detectBaseEffect(dates []string, col []float64) (bool, string, string) {
	for i := 0; i < len(col); i++ {
		for j := i + 1; j <= i+baseEffectDropSpan && j < len(col); j++ {
			if col[i]-col[j] < baseEffectDropPP {
				continue
			}
			for k := j + 1; k <= j+baseEffectRiseSpan && k < len(col); k++ {
				if col[k]-col[j] >= baseEffectDropPP {
					return true, dates[j], dates[k]
				}
			}
		}
	}
	return false, "", ""
}

func inflationTrends(p Panel) map[string]any {
	xs := timeIndex(len(p.Dates))
	out := make(map[string]any, len(p.Values))
	for region, col := range p.Values {
		reg := stats.LinearRegression(xs, col)
		direction := "flat"
		switch {
		case reg.Slope > trendFlatSlope:
			direction = "increasing"
		case reg.Slope < -trendFlatSlope:
			direction = "decreasing"
		}
		out[region] = map[string]any{
			"slope":               num(round4(reg.Slope)),
			"direction":           direction,
			"velocity_per_period": num(round4(reg.Slope)),
			"r2":                  num(round4(reg.R2)),
		}
	}
	return out
}

// inflationConvergence regresses cross-region dispersion (CV) on time.
func inflationConvergence(p Panel) map[string]any {
	cvs := make([]float64, len(p.Dates))
	for i := range p.Dates {
		row := make([]float64, 0, len(p.Values))
		for _, col := range p.Values {
			row = append(row, col[i])
		}
		cvs[i] = stats.CoefficientOfVariation(row)
	}
	var xs, ys []float64
	for i, cv := range cvs {
		if !math.IsNaN(cv) {
			xs = append(xs, float64(i))
			ys = append(ys, cv)
		}
	}
	reg := stats.LinearRegression(xs, ys)
	status := "stable"
	if !math.IsNaN(reg.PValue) && reg.PValue < 0.05 {
		if reg.Slope < 0 {
			status = "converging"
		} else if reg.Slope > 0 {
			status = "diverging"
		}
	}
	return map[string]any{
		"status":  status,
		"slope":   num(round4(reg.Slope)),
		"r2":      num(round4(reg.R2)),
		"p_value": num(round4(reg.PValue)),
	}
}

// comparabilityWarnings derive deterministically from the selected series
// set, independent of the fetched data.
func comparabilityWarnings(fetched []regionSeries) []string {
	var warnings []string

	indexTypes := map[IndexType]bool{}
	frequencies := map[string]bool{}
	owner := map[bool][]string{}
	for _, rs := range fetched {
		indexTypes[rs.info.IndexType] = true
		frequencies[rs.info.Frequency] = true
		owner[rs.info.IncludesOwnerHousing] = append(owner[rs.info.IncludesOwnerHousing], rs.info.RegionCode)
	}

	if len(indexTypes) > 1 {
		warnings = append(warnings, "Mixed index types (HICP vs CPI): methodologies differ in coverage and weighting.")
	}
	if len(owner[true]) > 0 && len(owner[false]) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Owner-occupied housing treatment differs: included for %v, excluded for %v.",
			owner[true], owner[false]))
	}
	if len(frequencies) > 1 {
		warnings = append(warnings, "Frequency mismatch: some regions report quarterly, others monthly; aligned dates are sparse.")
	}
	for _, rs := range fetched {
		switch rs.info.RegionCode {
		case "CAN":
			warnings = append(warnings, "Canadian CPI includes mortgage interest cost, which amplifies rate-hike pass-through.")
		case "USA":
			warnings = append(warnings, "USA series is CPI; the Fed targets 2% PCE (not CPI), which typically runs lower.")
		}
	}
	return warnings
}

// ─── Shared small helpers ─────────────────────────────────────────────────────

func panelView(p Panel) map[string]any {
	series := make(map[string][]any, len(p.Values))
	for k, col := range p.Values {
		vals := make([]any, len(col))
		for i, v := range col {
			if math.IsNaN(v) {
				vals[i] = nil
			} else {
				vals[i] = round2(v)
			}
		}
		series[k] = vals
	}
	return map[string]any{"dates": p.Dates, "values": series}
}

func timeIndex(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// num makes a float JSON-safe: NaN and infinities become null.
func num(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func round2(v float64) float64 { return roundN(v, 100) }
func round4(v float64) float64 { return roundN(v, 10000) }

func roundN(v, scale float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*scale) / scale
}
