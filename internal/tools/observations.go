package tools

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// ObsArgs are the validated arguments of get_fred_series_observations.
type ObsArgs struct {
	SeriesID          string
	ObservationStart  string
	ObservationEnd    string
	Units             string
	Frequency         string
	AggregationMethod string
	SortOrder         string
	Limit             int
}

// ParseObsArgs validates the raw arguments for the observations tool.
// Workflows reuse it for their internal fetches.
func ParseObsArgs(args map[string]any) (ObsArgs, error) {
	a := ObsArgs{
		SeriesID:          strings.ToUpper(ArgString(args, "series_id")),
		ObservationStart:  ArgString(args, "observation_start"),
		ObservationEnd:    ArgString(args, "observation_end"),
		Units:             strings.ToLower(ArgString(args, "units")),
		Frequency:         strings.ToLower(ArgString(args, "frequency")),
		AggregationMethod: strings.ToLower(ArgString(args, "aggregation_method")),
		SortOrder:         strings.ToLower(ArgString(args, "sort_order")),
		Limit:             ArgInt(args, "limit", 0),
	}
	if a.SeriesID == "" {
		return a, ValidationErr("series_id", "is required")
	}
	if err := CheckDate("observation_start", a.ObservationStart); err != nil {
		return a, err
	}
	if err := CheckDate("observation_end", a.ObservationEnd); err != nil {
		return a, err
	}
	if a.ObservationStart != "" && a.ObservationEnd != "" {
		start, _ := model.ParseDate(a.ObservationStart)
		end, _ := model.ParseDate(a.ObservationEnd)
		if start.After(end) {
			return a, ValidationErr("observation_start", "%s is after observation_end %s",
				a.ObservationStart, a.ObservationEnd)
		}
	}
	if err := CheckEnum("units", a.Units, Units); err != nil {
		return a, err
	}
	if err := CheckEnum("frequency", a.Frequency, Frequencies); err != nil {
		return a, err
	}
	if err := CheckEnum("aggregation_method", a.AggregationMethod, Aggregations); err != nil {
		return a, err
	}
	if err := CheckEnum("sort_order", a.SortOrder, SortOrders); err != nil {
		return a, err
	}
	if a.AggregationMethod != "" && a.Frequency == "" {
		return a, ValidationErr("aggregation_method", "requires frequency to be set")
	}
	return a, nil
}

func (a ObsArgs) params() url.Values {
	params := url.Values{}
	params.Set("series_id", a.SeriesID)
	if a.ObservationStart != "" {
		params.Set("observation_start", a.ObservationStart)
	}
	if a.ObservationEnd != "" {
		params.Set("observation_end", a.ObservationEnd)
	}
	if a.Units != "" {
		params.Set("units", a.Units)
	}
	if a.Frequency != "" {
		params.Set("frequency", a.Frequency)
	}
	if a.AggregationMethod != "" {
		params.Set("aggregation_method", a.AggregationMethod)
	}
	if a.SortOrder != "" {
		params.Set("sort_order", a.SortOrder)
	}
	if a.Limit > 0 {
		params.Set("limit", strconv.Itoa(a.Limit))
	}
	return params
}

// FetchObservations performs the validated observations call and returns the
// decoded series. Dates arrive strictly ascending regardless of upstream
// order. Workflows call this directly.
func FetchObservations(ctx context.Context, d *Deps, a ObsArgs) (model.SeriesData, fredclient.CallMeta, error) {
	var raw struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	meta, err := d.Client.GetDecoded(ctx, "get_fred_series_observations", "series/observations", a.params(), cache.NSObservations, &raw)
	if err != nil {
		return model.SeriesData{}, meta, err
	}

	obs := make([]model.Observation, 0, len(raw.Observations))
	for _, o := range raw.Observations {
		date, err := model.ParseDate(o.Date)
		if err != nil {
			continue // skip malformed dates
		}
		obs = append(obs, model.Observation{
			Date:     date,
			Value:    model.ParseObsValue(o.Value),
			ValueRaw: o.Value,
		})
	}
	sortObsAscending(obs)
	return model.SeriesData{SeriesID: a.SeriesID, Obs: obs}, meta, nil
}

// GetSeriesObservations implements get_fred_series_observations.
func GetSeriesObservations(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_series_observations"

	a, err := ParseObsArgs(args)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	data, meta, err := FetchObservations(ctx, d, a)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("series_id", a.SeriesID).
		Echo("observation_start", a.ObservationStart).
		Echo("observation_end", a.ObservationEnd).
		Echo("units", a.Units).
		Echo("frequency", a.Frequency).
		Echo("aggregation_method", a.AggregationMethod).
		Echo("sort_order", a.SortOrder)
	if a.Limit > 0 {
		resp.Echo("limit", a.Limit)
	}
	resp.Data = map[string]any{
		"series_id":    a.SeriesID,
		"count":        len(data.Obs),
		"observations": model.ToPoints(data.Obs),
	}
	return resp
}

// sortObsAscending orders observations by date. FRED returns ascending order
// by default but sort_order=desc and cached permutations must not leak
// through to analysis.
func sortObsAscending(obs []model.Observation) {
	for i := 1; i < len(obs); i++ {
		if obs[i].Date.Before(obs[i-1].Date) {
			sort.Slice(obs, func(a, b int) bool { return obs[a].Date.Before(obs[b].Date) })
			return
		}
	}
}
