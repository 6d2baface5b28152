package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// Tag discovery and filtering tools. tag_names and exclude_tag_names are
// semicolon-delimited on the wire.

// GetSeriesTags implements get_fred_series_tags: the tags attached to one
// series.
func GetSeriesTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_series_tags"

	seriesID := strings.ToUpper(ArgString(args, "series_id"))
	if seriesID == "" {
		return ErrorResponse(tool, ValidationErr("series_id", "is required"))
	}
	orderBy := ArgString(args, "order_by")
	sortOrder := ArgString(args, "sort_order")
	if err := CheckEnum("order_by", orderBy, TagOrderBy); err != nil {
		return ErrorResponse(tool, err)
	}
	if err := CheckEnum("sort_order", sortOrder, SortOrders); err != nil {
		return ErrorResponse(tool, err)
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	if orderBy != "" {
		params.Set("order_by", orderBy)
	}
	if sortOrder != "" {
		params.Set("sort_order", sortOrder)
	}

	var payload tagsPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "series/tags", params, cache.NSTags, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("series_id", seriesID).Echo("order_by", orderBy).Echo("sort_order", sortOrder)
	resp.Data = map[string]any{
		"count": totalCount(payload.Count, len(payload.Tags)),
		"tags":  tagsOf(payload),
	}
	return resp
}

// SearchSeriesTags implements search_fred_series_tags: tags for the series
// matching a search, optionally filtered by a tag search.
func SearchSeriesTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "search_fred_series_tags"
	return seriesSearchTags(ctx, d, args, tool, "series/search/tags", false)
}

// SearchSeriesRelatedTags implements search_fred_series_related_tags: tags
// related to the given tag set within a series search.
func SearchSeriesRelatedTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "search_fred_series_related_tags"
	return seriesSearchTags(ctx, d, args, tool, "series/search/related_tags", true)
}

// seriesSearchTags handles the shared shape of the two series-search tag
// endpoints; requireTags marks tag_names mandatory (related_tags).
func seriesSearchTags(ctx context.Context, d *Deps, args map[string]any, tool, endpoint string, requireTags bool) *model.ToolResponse {
	searchText := ArgString(args, "series_search_text")
	if searchText == "" {
		return ErrorResponse(tool, ValidationErr("series_search_text", "is required"))
	}
	tagNames := ArgList(args, "tag_names", ";")
	if requireTags && len(tagNames) == 0 {
		return ErrorResponse(tool, ValidationErr("tag_names", "is required"))
	}
	excludeTags := ArgList(args, "exclude_tag_names", ";")
	tagSearch := ArgString(args, "tag_search_text")
	groupID := ArgString(args, "tag_group_id")
	limit := clampLimit(args, DefaultLimit)

	if groupID != "" && !model.ValidTagGroup(groupID) {
		return ErrorResponse(tool, ValidationErr("tag_group_id",
			"invalid group %q, expected one of %s", groupID, strings.Join(model.TagGroups, ", ")))
	}

	params := url.Values{}
	params.Set("series_search_text", searchText)
	params.Set("limit", strconv.Itoa(limit))
	if len(tagNames) > 0 {
		params.Set("tag_names", strings.Join(tagNames, ";"))
	}
	if len(excludeTags) > 0 {
		params.Set("exclude_tag_names", strings.Join(excludeTags, ";"))
	}
	if tagSearch != "" {
		params.Set("tag_search_text", tagSearch)
	}
	if groupID != "" {
		params.Set("tag_group_id", groupID)
	}

	var payload tagsPayload
	meta, err := d.Client.GetDecoded(ctx, tool, endpoint, params, cache.NSTags, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("series_search_text", searchText).
		Echo("tag_names", strings.Join(tagNames, ";")).
		Echo("tag_group_id", groupID).
		Echo("limit", limit)
	resp.Data = map[string]any{
		"count": totalCount(payload.Count, len(payload.Tags)),
		"tags":  tagsOf(payload),
	}
	return resp
}

// GetRelatedTags implements get_fred_related_tags: tags co-occurring with
// the given tag set across all of FRED.
func GetRelatedTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_related_tags"

	tagNames := ArgList(args, "tag_names", ";")
	if len(tagNames) == 0 {
		return ErrorResponse(tool, ValidationErr("tag_names", "is required"))
	}
	excludeTags := ArgList(args, "exclude_tag_names", ";")
	groupID := ArgString(args, "tag_group_id")
	searchText := ArgString(args, "search_text")
	limit := clampLimit(args, DefaultLimit)

	if groupID != "" && !model.ValidTagGroup(groupID) {
		return ErrorResponse(tool, ValidationErr("tag_group_id",
			"invalid group %q, expected one of %s", groupID, strings.Join(model.TagGroups, ", ")))
	}

	params := url.Values{}
	params.Set("tag_names", strings.Join(tagNames, ";"))
	params.Set("limit", strconv.Itoa(limit))
	if len(excludeTags) > 0 {
		params.Set("exclude_tag_names", strings.Join(excludeTags, ";"))
	}
	if groupID != "" {
		params.Set("tag_group_id", groupID)
	}
	if searchText != "" {
		params.Set("search_text", searchText)
	}

	var payload tagsPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "related_tags", params, cache.NSTags, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("tag_names", strings.Join(tagNames, ";")).
		Echo("tag_group_id", groupID).
		Echo("limit", limit)
	resp.Data = map[string]any{
		"count": totalCount(payload.Count, len(payload.Tags)),
		"tags":  tagsOf(payload),
	}
	return resp
}

// GetTags implements get_fred_tags: list or search all FRED tags.
func GetTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_tags"

	tagNames := ArgList(args, "tag_names", ";")
	groupID := ArgString(args, "tag_group_id")
	searchText := ArgString(args, "search_text")
	orderBy := ArgString(args, "order_by")
	sortOrder := ArgString(args, "sort_order")
	limit := clampLimit(args, DefaultLimit)

	if groupID != "" && !model.ValidTagGroup(groupID) {
		return ErrorResponse(tool, ValidationErr("tag_group_id",
			"invalid group %q, expected one of %s", groupID, strings.Join(model.TagGroups, ", ")))
	}
	if err := CheckEnum("order_by", orderBy, TagOrderBy); err != nil {
		return ErrorResponse(tool, err)
	}
	if err := CheckEnum("sort_order", sortOrder, SortOrders); err != nil {
		return ErrorResponse(tool, err)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if len(tagNames) > 0 {
		params.Set("tag_names", strings.Join(tagNames, ";"))
	}
	if groupID != "" {
		params.Set("tag_group_id", groupID)
	}
	if searchText != "" {
		params.Set("search_text", searchText)
	}
	if orderBy != "" {
		params.Set("order_by", orderBy)
	}
	if sortOrder != "" {
		params.Set("sort_order", sortOrder)
	}

	var payload tagsPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "tags", params, cache.NSTags, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("tag_names", strings.Join(tagNames, ";")).
		Echo("tag_group_id", groupID).
		Echo("search_text", searchText).
		Echo("limit", limit)
	resp.Data = map[string]any{
		"count": totalCount(payload.Count, len(payload.Tags)),
		"tags":  tagsOf(payload),
	}
	return resp
}

// GetSeriesByTags implements get_fred_series_by_tags: the series matching
// all of the given tags.
func GetSeriesByTags(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_series_by_tags"

	tagNames := ArgList(args, "tag_names", ";")
	if len(tagNames) == 0 {
		return ErrorResponse(tool, ValidationErr("tag_names", "is required"))
	}
	excludeTags := ArgList(args, "exclude_tag_names", ";")
	orderBy := ArgString(args, "order_by")
	sortOrder := ArgString(args, "sort_order")
	limit := clampLimit(args, DefaultLimit)

	if err := CheckEnum("order_by", orderBy, SeriesOrderBy); err != nil {
		return ErrorResponse(tool, err)
	}
	if err := CheckEnum("sort_order", sortOrder, SortOrders); err != nil {
		return ErrorResponse(tool, err)
	}

	params := url.Values{}
	params.Set("tag_names", strings.Join(tagNames, ";"))
	params.Set("limit", strconv.Itoa(limit))
	if len(excludeTags) > 0 {
		params.Set("exclude_tag_names", strings.Join(excludeTags, ";"))
	}
	if orderBy != "" {
		params.Set("order_by", orderBy)
	}
	if sortOrder != "" {
		params.Set("sort_order", sortOrder)
	}

	var payload seriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "tags/series", params, cache.NSTags, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Echo("tag_names", strings.Join(tagNames, ";")).
		Echo("exclude_tag_names", strings.Join(excludeTags, ";")).
		Echo("limit", limit)
	resp.Data = map[string]any{
		"count":  totalCount(payload.Count, len(payload.Seriess)),
		"series": metasOf(payload),
	}
	return resp
}
