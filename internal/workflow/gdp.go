package workflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/model"
	"github.com/derickschaefer/fredmcp/internal/stats"
	"github.com/derickschaefer/fredmcp/internal/tools"
)

// GDP workflow tunables.
const (
	defaultGDPStart    = "1960-01-01"
	breakWindow        = 12  // observations per rolling-variance window
	breakRatioHigh     = 2.0 // later/earlier variance ratio flagging an increase
	breakRatioLow      = 0.5
	convergenceMinN    = 3 // countries needed for convergence analysis
	convergenceMinObs  = 5 // overlapping observations needed
	significanceAlpha  = 0.05
	daysPerYearAverage = 365.25
)

// Closed argument sets of the GDP workflow.
var (
	ComparisonModes = []string{"absolute", "indexed", "per_capita", "growth_rates", "ppp", "relative_to_benchmark"}
	OutputFormats   = []string{"analysis", "dataset", "summary", "both"}
	FillModes       = []string{"interpolate", "forward", "drop"}
	AlignMethods    = []string{"inner", "outer"}
)

type gdpArgs struct {
	Countries      []string
	Variants       []GDPVariant
	StartDate      string
	EndDate        string
	ComparisonMode string
	BaseYear       int
	Benchmark      string
	OutputFormat   string
	FillMissing    string
	AlignMethod    string

	IncludePopulation     bool
	IncludeRankings       bool
	IncludeConvergence    bool
	IncludeGrowthAnalysis bool
	DetectBreaks          bool
}

func parseGDPArgs(args map[string]any) (gdpArgs, error) {
	a := gdpArgs{
		Countries:      tools.ArgList(args, "countries", ","),
		StartDate:      tools.ArgString(args, "start_date"),
		EndDate:        tools.ArgString(args, "end_date"),
		ComparisonMode: tools.ArgString(args, "comparison_mode"),
		BaseYear:       tools.ArgInt(args, "base_year", 0),
		Benchmark:      tools.ArgString(args, "benchmark_against"),
		OutputFormat:   tools.ArgString(args, "output_format"),
		FillMissing:    tools.ArgString(args, "fill_missing"),
		AlignMethod:    tools.ArgString(args, "align_method"),

		IncludePopulation:     tools.ArgBool(args, "include_population", true),
		IncludeRankings:       tools.ArgBool(args, "include_rankings", true),
		IncludeConvergence:    tools.ArgBool(args, "include_convergence", true),
		IncludeGrowthAnalysis: tools.ArgBool(args, "include_growth_analysis", true),
		DetectBreaks:          tools.ArgBool(args, "detect_structural_breaks", true),
	}
	if len(a.Countries) == 0 {
		return a, tools.ValidationErr("countries", "is required")
	}
	if a.StartDate == "" {
		a.StartDate = defaultGDPStart
	}
	if a.ComparisonMode == "" {
		a.ComparisonMode = "absolute"
	}
	if a.OutputFormat == "" {
		a.OutputFormat = "analysis"
	}
	if a.FillMissing == "" {
		a.FillMissing = "interpolate"
	}
	if a.AlignMethod == "" {
		a.AlignMethod = "inner"
	}

	variants := tools.ArgList(args, "gdp_variants", ",")
	if len(variants) == 0 {
		variants = []string{string(VariantPerCapitaConstant)}
	}
	for _, v := range variants {
		if err := tools.CheckEnum("gdp_variants", v, GDPVariants); err != nil {
			return a, err
		}
		a.Variants = append(a.Variants, GDPVariant(v))
	}

	if err := tools.CheckDate("start_date", a.StartDate); err != nil {
		return a, err
	}
	if err := tools.CheckDate("end_date", a.EndDate); err != nil {
		return a, err
	}
	if a.EndDate != "" && a.StartDate > a.EndDate {
		return a, tools.ValidationErr("start_date", "%s is after end_date %s", a.StartDate, a.EndDate)
	}
	if err := tools.CheckEnum("comparison_mode", a.ComparisonMode, ComparisonModes); err != nil {
		return a, err
	}
	if err := tools.CheckEnum("output_format", a.OutputFormat, OutputFormats); err != nil {
		return a, err
	}
	if err := tools.CheckEnum("fill_missing", a.FillMissing, FillModes); err != nil {
		return a, err
	}
	if err := tools.CheckEnum("align_method", a.AlignMethod, AlignMethods); err != nil {
		return a, err
	}
	if a.ComparisonMode == "relative_to_benchmark" && a.Benchmark == "" {
		return a, tools.ValidationErr("benchmark_against", "is required when comparison_mode=relative_to_benchmark")
	}
	return a, nil
}

// AnalyzeGDP implements analyze_gdp_cross_country. The workflow runs as a
// pipeline: validate, fetch, derive, align, analyze, format; any phase can
// short-circuit into an error envelope.
func AnalyzeGDP(ctx context.Context, d *tools.Deps, args map[string]any) *model.ToolResponse {
	const tool = "analyze_gdp_cross_country"

	a, err := parseGDPArgs(args)
	if err != nil {
		return tools.ErrorResponse(tool, err)
	}

	codes, warnings := Expand(a.Countries, "gdp", d.Config.MaxRegions)
	var countries []string
	for _, code := range codes {
		if !KnownCountry(code) {
			warnings = append(warnings, fmt.Sprintf("unknown country code %q; dropped", code))
			continue
		}
		countries = append(countries, code)
	}
	if a.Benchmark != "" {
		a.Benchmark = strings.ToUpper(a.Benchmark)
		if !KnownCountry(a.Benchmark) {
			return tools.ErrorResponse(tool, tools.ValidationErr("benchmark_against", "unknown country code %q", a.Benchmark))
		}
		if !contains(countries, a.Benchmark) {
			countries = append(countries, a.Benchmark)
			warnings = append(warnings, fmt.Sprintf("benchmark %s added to the country set", a.Benchmark))
		}
	}
	if len(countries) == 0 {
		return tools.ErrorResponse(tool, tools.ValidationErr("countries", "no country resolved to a known GDP mapping"))
	}

	plan := planVariants(a.Variants, a.IncludePopulation)

	fetched, fetchWarnings, err := fetchGDP(ctx, d, countries, plan, a.StartDate, a.EndDate)
	if err != nil {
		return tools.ErrorResponse(tool, err)
	}
	warnings = append(warnings, fetchWarnings...)
	if countriesWithData(fetched) == 0 {
		return tools.ErrorResponse(tool, fredclient.NewError(fredclient.KindNoDataFetched,
			"no GDP data fetched for any requested country"))
	}

	byVariant, deriveWarnings := deriveGDP(fetched, a.Variants)
	warnings = append(warnings, deriveWarnings...)

	variants := make(map[string]any, len(a.Variants))
	for _, variant := range a.Variants {
		block, vWarnings := analyzeVariant(a, variant, byVariant[variant])
		warnings = append(warnings, vWarnings...)
		variants[string(variant)] = block
	}

	resp := model.NewResponse(tool)
	resp.Echo("comparison_mode", a.ComparisonMode).
		Echo("output_format", a.OutputFormat).
		Echo("align_method", a.AlignMethod).
		Echo("fill_missing", a.FillMissing).
		Echo("start_date", a.StartDate).
		Echo("end_date", a.EndDate).
		Echo("benchmark_against", a.Benchmark)
	if a.BaseYear > 0 {
		resp.Echo("base_year", a.BaseYear)
	}
	if len(warnings) > 0 {
		resp.Metadata["warnings"] = warnings
	}
	resp.Data = map[string]any{
		"countries": countries,
		"variants":  variants,
	}
	return resp
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ─── Fetch phase ──────────────────────────────────────────────────────────────

type gdpFetchKey struct {
	country string
	variant GDPVariant
}

// fetchGDP pulls every (country, direct variant) pair with bounded fanout.
// Individual failures become warnings; a context error aborts.
func fetchGDP(ctx context.Context, d *tools.Deps, countries []string, plan variantPlan, startDate, endDate string) (map[gdpFetchKey][]model.Observation, []string, error) {
	type task struct {
		key      gdpFetchKey
		seriesID string
	}
	var tasks []task
	var warnings []string
	for _, country := range countries {
		for _, variant := range plan.direct {
			id, err := GDPSeriesID(country, variant)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("no %s series for %s: %v", variant, country, err))
				continue
			}
			tasks = append(tasks, task{key: gdpFetchKey{country, variant}, seriesID: id})
		}
	}

	results := make([][]model.Observation, len(tasks))
	failures := make([]string, len(tasks))
	sem := semaphore.NewWeighted(int64(d.Config.GDPFanout))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			data, _, err := tools.FetchObservations(gctx, d, tools.ObsArgs{
				SeriesID:         t.seriesID,
				ObservationStart: startDate,
				ObservationEnd:   endDate,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures[i] = fmt.Sprintf("fetch failed for %s %s (%s): %v", t.key.country, t.key.variant, t.seriesID, err)
				return nil
			}
			results[i] = data.Obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	fetched := make(map[gdpFetchKey][]model.Observation, len(tasks))
	for i, t := range tasks {
		if failures[i] != "" {
			warnings = append(warnings, failures[i])
			continue
		}
		if len(results[i]) > 0 {
			fetched[t.key] = results[i]
		}
	}
	return fetched, warnings, nil
}

func countriesWithData(fetched map[gdpFetchKey][]model.Observation) int {
	seen := map[string]bool{}
	for key, obs := range fetched {
		if len(obs) > 0 {
			seen[key.country] = true
		}
	}
	return len(seen)
}

// ─── Derive phase ─────────────────────────────────────────────────────────────

// deriveGDP resolves each requested variant per country: direct data where
// fetched, growth rates from constant_2010, and per-capita fallbacks from the
// matching total and population.
func deriveGDP(fetched map[gdpFetchKey][]model.Observation, requested []GDPVariant) (map[GDPVariant]map[string][]model.Observation, []string) {
	countries := map[string]bool{}
	for key := range fetched {
		countries[key.country] = true
	}

	var warnings []string
	out := make(map[GDPVariant]map[string][]model.Observation, len(requested))
	for _, variant := range requested {
		perCountry := make(map[string][]model.Observation, len(countries))
		for country := range countries {
			obs := resolveVariant(fetched, country, variant, &warnings)
			if len(obs) > 0 {
				perCountry[country] = obs
			}
		}
		out[variant] = perCountry
	}
	return out, warnings
}

func resolveVariant(fetched map[gdpFetchKey][]model.Observation, country string, variant GDPVariant, warnings *[]string) []model.Observation {
	switch variant {
	case VariantGrowthRate:
		base := fetched[gdpFetchKey{country, VariantConstant2010}]
		if len(base) < 2 {
			*warnings = append(*warnings, fmt.Sprintf("cannot derive growth_rate for %s: constant_2010 has %d observations", country, len(base)))
			return nil
		}
		return DeriveGrowthRate(base)
	case VariantPerCapitaConstant, VariantPerCapitaPPP:
		if obs := fetched[gdpFetchKey{country, variant}]; len(obs) > 0 {
			return obs
		}
		base, _ := perCapitaBase(variant)
		total := fetched[gdpFetchKey{country, base}]
		pop := fetched[gdpFetchKey{country, VariantPopulation}]
		if len(total) == 0 || len(pop) == 0 {
			*warnings = append(*warnings, fmt.Sprintf("no direct %s series for %s and the %s/population fallback is incomplete", variant, country, base))
			return nil
		}
		derived := DerivePerCapita(total, pop, variantUnits(base))
		if len(derived) > 0 {
			*warnings = append(*warnings, fmt.Sprintf("%s for %s derived from %s divided by population", variant, country, base))
		}
		return derived
	default:
		return fetched[gdpFetchKey{country, variant}]
	}
}

// variantUnits gives the unit string of each fetchable variant, used for
// scale-correct per-capita division.
func variantUnits(v GDPVariant) string {
	switch v {
	case VariantNominalUSD:
		return "Current U.S. Dollars"
	case VariantConstant2010:
		return "Constant 2010 U.S. Dollars"
	case VariantPPPAdjusted:
		return "Constant 2017 International Dollars"
	case VariantPopulation:
		return "Persons"
	default:
		return "U.S. Dollars"
	}
}

// ─── Analyze and format phases ────────────────────────────────────────────────

// analyzeVariant aligns one variant's panel, applies the comparison mode, and
// assembles the per-variant output block in the requested format.
func analyzeVariant(a gdpArgs, variant GDPVariant, series map[string][]model.Observation) (map[string]any, []string) {
	var warnings []string
	if len(series) == 0 {
		return map[string]any{"note": "no data available for this variant"}, warnings
	}

	panel := AlignSeries(series, a.AlignMethod)
	if a.AlignMethod == "outer" {
		panel = FillMissing(panel, a.FillMissing)
	}
	if len(panel.Dates) == 0 {
		return map[string]any{"note": "no overlapping observations after alignment"}, warnings
	}

	panel, modeWarnings := applyComparisonMode(a, panel)
	warnings = append(warnings, modeWarnings...)

	block := map[string]any{}
	wantAnalysis := a.OutputFormat == "analysis" || a.OutputFormat == "both"
	wantDataset := a.OutputFormat == "dataset" || a.OutputFormat == "both"

	perCountry := map[string]countryMetrics{}
	for _, country := range panel.Keys() {
		dates, vals := panel.Column(country)
		perCountry[country] = computeCountryMetrics(dates, vals, a.DetectBreaks)
	}

	if wantAnalysis || a.OutputFormat == "summary" {
		analysis := map[string]any{}
		if a.IncludeGrowthAnalysis {
			analysis["per_country"] = perCountryView(perCountry)
		}
		analysis["cross_country"] = crossCountry(panel, perCountry, a.IncludeConvergence)
		if a.IncludeRankings {
			analysis["rankings"] = rankings(perCountry)
		}
		if a.OutputFormat == "summary" {
			block["summary"] = summarize(panel, perCountry, analysis)
		} else {
			block["analysis"] = analysis
		}
	}
	if wantDataset {
		block["dataset"] = panelView(panel)
	}
	return block, warnings
}

func applyComparisonMode(a gdpArgs, panel Panel) (Panel, []string) {
	var warnings []string
	switch a.ComparisonMode {
	case "indexed":
		baseYear := a.BaseYear
		if baseYear == 0 && len(panel.Dates) > 0 {
			baseYear, _ = strconv.Atoi(panel.Dates[0][:4])
			warnings = append(warnings, fmt.Sprintf("base_year not set; using first aligned year %d", baseYear))
		}
		basePrefix := strconv.Itoa(baseYear)
		out := Panel{Dates: panel.Dates, Values: make(map[string][]float64, len(panel.Values))}
		for country := range panel.Values {
			indexed, used := IndexToBase(panel.Dates, panel.Values[country], basePrefix)
			out.Values[country] = indexed
			if used[:4] != basePrefix {
				warnings = append(warnings, fmt.Sprintf("%s has no observation in %d; indexed to %s instead", country, baseYear, used))
			}
		}
		return out, warnings
	case "relative_to_benchmark":
		out, ok := RelativeToBenchmark(panel, a.Benchmark)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("benchmark %s has no data for this variant; ratios skipped", a.Benchmark))
			return panel, warnings
		}
		return out, warnings
	default:
		// absolute, per_capita, growth_rates and ppp select data via the
		// variant list; the panel passes through unchanged.
		return panel, warnings
	}
}

// countryMetrics are the per-country statistics of one aligned column.
type countryMetrics struct {
	Count          int
	FirstDate      string
	LastDate       string
	Min            float64
	Max            float64
	Mean           float64
	First          float64
	Last           float64
	CAGR           float64
	Volatility     float64
	StabilityIndex float64
	Breaks         []breakEvent
}

type breakEvent struct {
	Date  string  `json:"date"`
	Type  string  `json:"type"`
	Ratio float64 `json:"ratio"`
}

func computeCountryMetrics(dates []string, vals []float64, detectBreaks bool) countryMetrics {
	m := countryMetrics{Count: len(vals)}
	if len(vals) == 0 {
		return m
	}
	m.FirstDate, m.LastDate = dates[0], dates[len(dates)-1]
	m.First, m.Last = vals[0], vals[len(vals)-1]
	m.Min, m.Max = vals[0], vals[0]
	for _, v := range vals {
		if v < m.Min {
			m.Min = v
		}
		if v > m.Max {
			m.Max = v
		}
	}
	m.Mean = stats.Mean(vals)
	m.CAGR = stats.CAGR(m.First, m.Last, yearsBetween(m.FirstDate, m.LastDate))
	m.Volatility = stats.Volatility(vals)
	m.StabilityIndex = stats.StabilityIndex(m.Volatility)
	if detectBreaks {
		m.Breaks = detectStructuralBreaks(dates, vals)
	}
	return m
}

func yearsBetween(first, last string) float64 {
	a, errA := model.ParseDate(first)
	b, errB := model.ParseDate(last)
	if errA != nil || errB != nil {
		return 0
	}
	return b.Sub(a).Hours() / 24 / daysPerYearAverage
}

// detectStructuralBreaks compares consecutive rolling-variance windows and
// flags jumps where the later/earlier ratio crosses the thresholds. The event
// date is the last date covered by the later window.
func detectStructuralBreaks(dates []string, vals []float64) []breakEvent {
	variances := stats.RollingVariance(vals, breakWindow)
	var events []breakEvent
	for i := 1; i < len(variances); i++ {
		prev, curr := variances[i-1], variances[i]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(curr) {
			continue
		}
		ratio := curr / prev
		var kind string
		switch {
		case ratio >= breakRatioHigh:
			kind = "variance_increase"
		case ratio <= breakRatioLow:
			kind = "variance_decrease"
		default:
			continue
		}
		// Window i covers vals[i : i+breakWindow].
		events = append(events, breakEvent{
			Date:  dates[i+breakWindow-1],
			Type:  kind,
			Ratio: round4(ratio),
		})
	}
	return events
}

func perCountryView(perCountry map[string]countryMetrics) map[string]any {
	out := make(map[string]any, len(perCountry))
	for country, m := range perCountry {
		entry := map[string]any{
			"observations":    m.Count,
			"first_date":      m.FirstDate,
			"last_date":       m.LastDate,
			"min":             num(round4(m.Min)),
			"max":             num(round4(m.Max)),
			"mean":            num(round4(m.Mean)),
			"cagr":            num(round4(m.CAGR)),
			"volatility":      num(round4(m.Volatility)),
			"stability_index": num(round4(m.StabilityIndex)),
		}
		if m.Breaks != nil {
			entry["structural_breaks"] = m.Breaks
		}
		out[country] = entry
	}
	return out
}

// crossCountry computes latest-date dispersion plus sigma and beta
// convergence when the preconditions hold.
func crossCountry(p Panel, perCountry map[string]countryMetrics, includeConvergence bool) map[string]any {
	last := len(p.Dates) - 1
	var latest []float64
	for _, col := range p.Values {
		if !math.IsNaN(col[last]) {
			latest = append(latest, col[last])
		}
	}
	dispersion := map[string]any{
		"date":   p.Dates[last],
		"mean":   num(round4(stats.Mean(latest))),
		"median": num(round4(stats.Median(latest))),
		"std":    num(round4(stats.Std(latest))),
		"cv":     num(round4(stats.CoefficientOfVariation(latest))),
		"min":    num(round4(minOf(latest))),
		"max":    num(round4(maxOf(latest))),
	}
	out := map[string]any{"dispersion": dispersion}
	if includeConvergence {
		out["convergence"] = convergence(p, perCountry)
	}
	return out
}

func convergence(p Panel, perCountry map[string]countryMetrics) map[string]any {
	if len(p.Values) < convergenceMinN || len(p.Dates) < convergenceMinObs {
		return map[string]any{"sigma": nil, "beta": nil, "note": "Insufficient overlapping data"}
	}

	// Sigma: dispersion over time.
	var xs, cvs []float64
	for i := range p.Dates {
		row := make([]float64, 0, len(p.Values))
		for _, col := range p.Values {
			if !math.IsNaN(col[i]) {
				row = append(row, col[i])
			}
		}
		cv := stats.CoefficientOfVariation(row)
		if !math.IsNaN(cv) {
			xs = append(xs, float64(i))
			cvs = append(cvs, cv)
		}
	}
	sigmaReg := stats.LinearRegression(xs, cvs)
	sigmaStatus := "stable"
	if !math.IsNaN(sigmaReg.PValue) && sigmaReg.PValue < significanceAlpha {
		if sigmaReg.Slope < 0 {
			sigmaStatus = "converging"
		} else if sigmaReg.Slope > 0 {
			sigmaStatus = "diverging"
		}
	}

	// Beta: growth against (log) starting level.
	var logInit, growth []float64
	for _, m := range perCountry {
		if m.First > 0 && !math.IsNaN(m.CAGR) {
			logInit = append(logInit, math.Log(m.First))
			growth = append(growth, m.CAGR)
		}
	}
	betaReg := stats.LinearRegression(logInit, growth)
	betaSignificant := !math.IsNaN(betaReg.PValue) && betaReg.PValue < significanceAlpha
	interpretation := "none"
	if betaSignificant {
		if betaReg.Slope < 0 {
			interpretation = "catch-up growth"
		} else {
			interpretation = "rich grow faster"
		}
	}

	return map[string]any{
		"sigma": map[string]any{
			"slope":   num(round4(sigmaReg.Slope)),
			"r2":      num(round4(sigmaReg.R2)),
			"p_value": num(round4(sigmaReg.PValue)),
			"status":  sigmaStatus,
		},
		"beta": map[string]any{
			"coefficient":    num(round4(betaReg.Slope)),
			"r2":             num(round4(betaReg.R2)),
			"p_value":        num(round4(betaReg.PValue)),
			"significant":    betaSignificant,
			"interpretation": interpretation,
		},
	}
}

func rankings(perCountry map[string]countryMetrics) map[string]any {
	return map[string]any{
		"by_latest_level": rankBy(perCountry, func(m countryMetrics) float64 { return m.Last }, true),
		"by_cagr":         rankBy(perCountry, func(m countryMetrics) float64 { return m.CAGR }, true),
		"by_stability":    rankBy(perCountry, func(m countryMetrics) float64 { return m.StabilityIndex }, true),
	}
}

func rankBy(perCountry map[string]countryMetrics, metric func(countryMetrics) float64, descending bool) []map[string]any {
	type entry struct {
		country string
		value   float64
	}
	var entries []entry
	for country, m := range perCountry {
		v := metric(m)
		if !math.IsNaN(v) {
			entries = append(entries, entry{country, v})
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		if descending {
			return entries[a].value > entries[b].value
		}
		return entries[a].value < entries[b].value
	})
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{"rank": i + 1, "country": e.country, "value": round4(e.value)}
	}
	return out
}

// summarize condenses the analysis for output_format=summary: window, top
// rankings, and the convergence verdict only.
func summarize(p Panel, perCountry map[string]countryMetrics, analysis map[string]any) map[string]any {
	out := map[string]any{
		"countries":    len(perCountry),
		"observations": len(p.Dates),
	}
	if len(p.Dates) > 0 {
		out["window"] = map[string]string{"first": p.Dates[0], "last": p.Dates[len(p.Dates)-1]}
	}
	if r, ok := analysis["rankings"]; ok {
		out["rankings"] = r
	}
	if cc, ok := analysis["cross_country"].(map[string]any); ok {
		if conv, ok := cc["convergence"]; ok {
			out["convergence"] = conv
		}
	}
	return out
}

func minOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
