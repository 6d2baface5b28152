package tools

import (
	"context"
	"net/url"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// GetSeries implements get_fred_series: metadata for one series.
func GetSeries(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_series"

	seriesID := strings.ToUpper(ArgString(args, "series_id"))
	if seriesID == "" {
		return ErrorResponse(tool, ValidationErr("series_id", "is required"))
	}

	params := url.Values{}
	params.Set("series_id", seriesID)

	var payload seriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "series", params, cache.NSMetadata, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}
	if len(payload.Seriess) == 0 {
		return ErrorResponse(tool, fredclient.NewError(fredclient.KindUpstream4xx,
			"series not found: %s", seriesID))
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("series_id", seriesID)
	resp.Data = payload.Seriess[0].toMeta()
	return resp
}

// GetSeriesCategories implements get_fred_series_categories: the categories
// a series belongs to.
func GetSeriesCategories(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_series_categories"

	seriesID := strings.ToUpper(ArgString(args, "series_id"))
	if seriesID == "" {
		return ErrorResponse(tool, ValidationErr("series_id", "is required"))
	}

	params := url.Values{}
	params.Set("series_id", seriesID)

	var payload categoriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "series/categories", params, cache.NSMetadata, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("series_id", seriesID)
	resp.Data = map[string]any{"categories": categoriesOf(payload)}
	return resp
}
