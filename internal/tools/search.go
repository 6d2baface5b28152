package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// SearchSeries implements search_fred_series: full-text or series-id search
// with filter, tag, and ordering parameters.
func SearchSeries(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "search_fred_series"

	searchText := ArgString(args, "search_text")
	if searchText == "" {
		return ErrorResponse(tool, ValidationErr("search_text", "is required"))
	}
	searchType := ArgString(args, "search_type")
	if searchType == "" {
		searchType = "full_text"
	}
	orderBy := ArgString(args, "order_by")
	sortOrder := ArgString(args, "sort_order")
	filterVariable := ArgString(args, "filter_variable")
	filterValue := ArgString(args, "filter_value")
	tagNames := ArgList(args, "tag_names", ";")
	excludeTags := ArgList(args, "exclude_tag_names", ";")
	limit := clampLimit(args, DefaultLimit)
	offset := ArgInt(args, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	for _, check := range []error{
		CheckEnum("search_type", searchType, SearchTypes),
		CheckEnum("order_by", orderBy, SearchOrderBy),
		CheckEnum("sort_order", sortOrder, SortOrders),
	} {
		if check != nil {
			return ErrorResponse(tool, check)
		}
	}
	if filterVariable != "" && filterValue == "" {
		return ErrorResponse(tool, ValidationErr("filter_value", "is required when filter_variable is set"))
	}

	params := url.Values{}
	params.Set("search_text", searchText)
	params.Set("search_type", searchType)
	params.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if orderBy != "" {
		params.Set("order_by", orderBy)
	}
	if sortOrder != "" {
		params.Set("sort_order", sortOrder)
	}
	if filterVariable != "" {
		params.Set("filter_variable", filterVariable)
		params.Set("filter_value", filterValue)
	}
	if len(tagNames) > 0 {
		params.Set("tag_names", strings.Join(tagNames, ";"))
	}
	if len(excludeTags) > 0 {
		params.Set("exclude_tag_names", strings.Join(excludeTags, ";"))
	}

	var payload seriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "series/search", params, cache.NSSearch, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("search_text", searchText).
		Echo("search_type", searchType).
		Echo("limit", limit).
		Echo("order_by", orderBy).
		Echo("sort_order", sortOrder)
	if offset > 0 {
		resp.Echo("offset", offset)
		resp.Metadata["next_offset"] = offset + len(payload.Seriess)
	} else if totalCount(payload.Count, len(payload.Seriess)) > limit {
		resp.Metadata["next_offset"] = limit
	}
	resp.Data = map[string]any{
		"count":  totalCount(payload.Count, len(payload.Seriess)),
		"series": metasOf(payload),
	}
	return resp
}
