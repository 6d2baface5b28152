package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// Category navigation tools. The category tree is rooted at id 0.

type categoriesPayload struct {
	Categories []rawCategory `json:"categories"`
}

func categoriesOf(p categoriesPayload) []model.Category {
	out := make([]model.Category, len(p.Categories))
	for i, c := range p.Categories {
		out[i] = c.toCategory()
	}
	return out
}

// GetCategory implements get_fred_category.
func GetCategory(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_category"

	id := ArgInt(args, "category_id", 0)
	if id < 0 {
		return ErrorResponse(tool, ValidationErr("category_id", "must be >= 0, got %d", id))
	}

	params := url.Values{}
	params.Set("category_id", strconv.Itoa(id))

	var payload categoriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "category", params, cache.NSCategories, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Metadata["category_id"] = id
	resp.Data = map[string]any{"categories": categoriesOf(payload)}
	return resp
}

// GetCategoryChildren implements get_fred_category_children.
func GetCategoryChildren(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_category_children"

	id := ArgInt(args, "category_id", 0)
	if id < 0 {
		return ErrorResponse(tool, ValidationErr("category_id", "must be >= 0, got %d", id))
	}

	params := url.Values{}
	params.Set("category_id", strconv.Itoa(id))

	var payload categoriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "category/children", params, cache.NSCategories, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Metadata["category_id"] = id
	resp.Data = map[string]any{"categories": categoriesOf(payload)}
	return resp
}

// GetCategorySeries implements get_fred_category_series: the series a
// category owns.
func GetCategorySeries(ctx context.Context, d *Deps, args map[string]any) *model.ToolResponse {
	const tool = "get_fred_category_series"

	id := ArgInt(args, "category_id", -1)
	if id < 0 {
		return ErrorResponse(tool, ValidationErr("category_id", "is required and must be >= 0"))
	}
	orderBy := ArgString(args, "order_by")
	sortOrder := ArgString(args, "sort_order")
	limit := clampLimit(args, DefaultLimit)
	offset := ArgInt(args, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	if err := CheckEnum("order_by", orderBy, SeriesOrderBy); err != nil {
		return ErrorResponse(tool, err)
	}
	if err := CheckEnum("sort_order", sortOrder, SortOrders); err != nil {
		return ErrorResponse(tool, err)
	}

	params := url.Values{}
	params.Set("category_id", strconv.Itoa(id))
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

	var payload seriesPayload
	meta, err := d.Client.GetDecoded(ctx, tool, "category/series", params, cache.NSCategories, &payload)
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool).SetCacheHit(meta.CacheHit)
	resp.Metadata["category_id"] = id
	resp.Echo("order_by", orderBy).Echo("sort_order", sortOrder).Echo("limit", limit)
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
