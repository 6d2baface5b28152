package server

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/derickschaefer/fredmcp/internal/model"
	"github.com/derickschaefer/fredmcp/internal/tools"
	"github.com/derickschaefer/fredmcp/internal/workflow"
)

// registerTools declares every tool schema and binds its orchestrator. The
// descriptions are written for LLM clients: terse, with the delimiter and
// date conventions spelled out.
func (s *Server) registerTools() {
	s.registerSearch()
	s.registerSeries()
	s.registerTags()
	s.registerCategories()
	s.registerWorkflows()

	s.mcp.AddTool(
		mcp.NewTool("system_health",
			mcp.WithDescription("Reports cache statistics, rate-limiter state, telemetry counters and latency quantiles, server version and uptime."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
		),
		s.handle(tools.SystemHealth),
	)
}

func (s *Server) registerSearch() {
	s.mcp.AddTool(
		mcp.NewTool("search_fred_series",
			mcp.WithDescription("Searches FRED economic data series by text. Returns series metadata ordered by search rank; use next_offset from metadata to page."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("search_text",
				mcp.Required(),
				mcp.Description("Words to match against series titles and descriptions"),
			),
			mcp.WithString("search_type",
				mcp.Description("full_text matches words anywhere; series_id matches id prefixes"),
				mcp.Enum(tools.SearchTypes...),
			),
			mcp.WithString("order_by", mcp.Enum(tools.SearchOrderBy...)),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
			mcp.WithString("filter_variable",
				mcp.Description("Metadata field to filter on (frequency, units, seasonal_adjustment); requires filter_value"),
			),
			mcp.WithString("filter_value", mcp.Description("Value for filter_variable")),
			mcp.WithString("tag_names", mcp.Description("Semicolon-delimited tags every result must carry")),
			mcp.WithString("exclude_tag_names", mcp.Description("Semicolon-delimited tags no result may carry")),
			mcp.WithNumber("limit", mcp.Description("Maximum results, 1-1000 (default 20)")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset")),
		),
		s.handle(tools.SearchSeries),
	)
}

func (s *Server) registerSeries() {
	s.mcp.AddTool(
		mcp.NewTool("get_fred_series",
			mcp.WithDescription("Fetches metadata for one FRED series: title, frequency, units, seasonal adjustment, observation window, popularity, notes."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id, e.g. GDP or CPIAUCSL")),
		),
		s.handle(tools.GetSeries),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_series_observations",
			mcp.WithDescription("Fetches observations for a series. Dates are YYYY-MM-DD; values may be null for missing periods. Observations return in ascending date order."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id")),
			mcp.WithString("observation_start", mcp.Description("Start date YYYY-MM-DD")),
			mcp.WithString("observation_end", mcp.Description("End date YYYY-MM-DD")),
			mcp.WithString("units",
				mcp.Description("Transformation: lin=levels, pc1=percent change from year ago, pch=percent change, log=natural log"),
				mcp.Enum(tools.Units...),
			),
			mcp.WithString("frequency",
				mcp.Description("Downsample frequency: d, w, bw, m, q, sa, a"),
				mcp.Enum(tools.Frequencies...),
			),
			mcp.WithString("aggregation_method",
				mcp.Description("How to aggregate when downsampling; requires frequency"),
				mcp.Enum(tools.Aggregations...),
			),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
			mcp.WithNumber("limit", mcp.Description("Maximum observations to return")),
		),
		s.handle(tools.GetSeriesObservations),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_series_categories",
			mcp.WithDescription("Lists the categories a series belongs to."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id")),
		),
		s.handle(tools.GetSeriesCategories),
	)
}

func (s *Server) registerTags() {
	tagGroups := strings.Join(model.TagGroups, ", ")

	s.mcp.AddTool(
		mcp.NewTool("get_fred_series_tags",
			mcp.WithDescription("Lists the tags attached to one series."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_id", mcp.Required(), mcp.Description("FRED series id")),
			mcp.WithString("order_by", mcp.Enum(tools.TagOrderBy...)),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
		),
		s.handle(tools.GetSeriesTags),
	)
	s.mcp.AddTool(
		mcp.NewTool("search_fred_series_tags",
			mcp.WithDescription("Lists the tags of the series matching a text search, optionally narrowed by a tag search."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_search_text", mcp.Required(), mcp.Description("Series search words")),
			mcp.WithString("tag_names", mcp.Description("Semicolon-delimited tags to require")),
			mcp.WithString("exclude_tag_names", mcp.Description("Semicolon-delimited tags to exclude")),
			mcp.WithString("tag_search_text", mcp.Description("Words to match against tag names")),
			mcp.WithString("tag_group_id", mcp.Description("Tag group filter: "+tagGroups)),
			mcp.WithNumber("limit", mcp.Description("Maximum tags, 1-1000 (default 20)")),
		),
		s.handle(tools.SearchSeriesTags),
	)
	s.mcp.AddTool(
		mcp.NewTool("search_fred_series_related_tags",
			mcp.WithDescription("Lists tags related to the given tag set within the series matching a text search."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("series_search_text", mcp.Required(), mcp.Description("Series search words")),
			mcp.WithString("tag_names", mcp.Required(), mcp.Description("Semicolon-delimited tags to relate against")),
			mcp.WithString("exclude_tag_names", mcp.Description("Semicolon-delimited tags to exclude")),
			mcp.WithString("tag_search_text", mcp.Description("Words to match against tag names")),
			mcp.WithString("tag_group_id", mcp.Description("Tag group filter: "+tagGroups)),
			mcp.WithNumber("limit", mcp.Description("Maximum tags, 1-1000 (default 20)")),
		),
		s.handle(tools.SearchSeriesRelatedTags),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_related_tags",
			mcp.WithDescription("Lists tags co-occurring with the given tag set across all of FRED."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("tag_names", mcp.Required(), mcp.Description("Semicolon-delimited tags")),
			mcp.WithString("exclude_tag_names", mcp.Description("Semicolon-delimited tags to exclude")),
			mcp.WithString("tag_group_id", mcp.Description("Tag group filter: "+tagGroups)),
			mcp.WithString("search_text", mcp.Description("Words to match against related tag names")),
			mcp.WithNumber("limit", mcp.Description("Maximum tags, 1-1000 (default 20)")),
		),
		s.handle(tools.GetRelatedTags),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_tags",
			mcp.WithDescription("Lists or searches all FRED tags."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("tag_names", mcp.Description("Semicolon-delimited tag names to look up")),
			mcp.WithString("tag_group_id", mcp.Description("Tag group filter: "+tagGroups)),
			mcp.WithString("search_text", mcp.Description("Words to match against tag names")),
			mcp.WithString("order_by", mcp.Enum(tools.TagOrderBy...)),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
			mcp.WithNumber("limit", mcp.Description("Maximum tags, 1-1000 (default 20)")),
		),
		s.handle(tools.GetTags),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_series_by_tags",
			mcp.WithDescription("Lists the series matching all of the given tags."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("tag_names", mcp.Required(), mcp.Description("Semicolon-delimited tags every series must carry")),
			mcp.WithString("exclude_tag_names", mcp.Description("Semicolon-delimited tags to exclude")),
			mcp.WithString("order_by", mcp.Enum(tools.SeriesOrderBy...)),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
			mcp.WithNumber("limit", mcp.Description("Maximum series, 1-1000 (default 20)")),
		),
		s.handle(tools.GetSeriesByTags),
	)
}

func (s *Server) registerCategories() {
	s.mcp.AddTool(
		mcp.NewTool("get_fred_category",
			mcp.WithDescription("Fetches one category. The tree is rooted at id 0."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithNumber("category_id", mcp.Description("Category id (default 0, the root)")),
		),
		s.handle(tools.GetCategory),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_category_children",
			mcp.WithDescription("Lists the child categories of a category."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithNumber("category_id", mcp.Description("Parent category id (default 0, the root)")),
		),
		s.handle(tools.GetCategoryChildren),
	)
	s.mcp.AddTool(
		mcp.NewTool("get_fred_category_series",
			mcp.WithDescription("Lists the series in a category, with pagination."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithNumber("category_id", mcp.Required(), mcp.Description("Category id")),
			mcp.WithString("order_by", mcp.Enum(tools.SeriesOrderBy...)),
			mcp.WithString("sort_order", mcp.Enum(tools.SortOrders...)),
			mcp.WithNumber("limit", mcp.Description("Maximum series, 1-1000 (default 20)")),
			mcp.WithNumber("offset", mcp.Description("Pagination offset")),
		),
		s.handle(tools.GetCategorySeries),
	)
}

func (s *Server) registerWorkflows() {
	s.mcp.AddTool(
		mcp.NewTool("compare_inflation_across_regions",
			mcp.WithDescription("Compares year-over-year inflation across regions using verified index series (HICP for Europe, CPI elsewhere). Handles region presets ("+strings.Join(workflow.PresetNames("inflation"), ", ")+"), aligns on common dates, and reports rankings, central-bank target distances, base effects, trends and comparability caveats."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("regions",
				mcp.Required(),
				mcp.Description("Comma-delimited ISO3 codes and/or preset names, e.g. 'g7' or 'USA,DEU,JPN'"),
			),
			mcp.WithString("start_date", mcp.Description("Window start YYYY-MM-DD")),
			mcp.WithString("end_date", mcp.Description("Window end YYYY-MM-DD")),
			mcp.WithString("metric",
				mcp.Description("latest = snapshot only; trend adds per-region regressions; all adds convergence"),
				mcp.Enum(workflow.InflationMetrics...),
			),
		),
		s.handle(workflow.CompareInflation),
	)
	s.mcp.AddTool(
		mcp.NewTool("analyze_gdp_cross_country",
			mcp.WithDescription("Cross-country GDP analysis over World Bank series in FRED: per-country growth metrics, structural breaks, sigma/beta convergence, rankings. Accepts country presets ("+strings.Join(workflow.PresetNames("gdp"), ", ")+")."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("countries",
				mcp.Required(),
				mcp.Description("Comma-delimited ISO3 codes and/or preset names"),
			),
			mcp.WithString("gdp_variants",
				mcp.Description("Comma-delimited variants (default per_capita_constant): "+strings.Join(workflow.GDPVariants, ", ")),
			),
			mcp.WithString("start_date", mcp.Description("Window start YYYY-MM-DD (default 1960-01-01)")),
			mcp.WithString("end_date", mcp.Description("Window end YYYY-MM-DD")),
			mcp.WithString("comparison_mode",
				mcp.Description("indexed rebases each country to 100 at base_year; relative_to_benchmark divides by benchmark_against"),
				mcp.Enum(workflow.ComparisonModes...),
			),
			mcp.WithNumber("base_year", mcp.Description("Base year for comparison_mode=indexed")),
			mcp.WithString("benchmark_against", mcp.Description("ISO3 code for comparison_mode=relative_to_benchmark")),
			mcp.WithString("output_format",
				mcp.Description("analysis, dataset, summary, or both"),
				mcp.Enum(workflow.OutputFormats...),
			),
			mcp.WithString("fill_missing",
				mcp.Description("Gap handling after an outer join"),
				mcp.Enum(workflow.FillModes...),
			),
			mcp.WithString("align_method", mcp.Enum(workflow.AlignMethods...)),
			mcp.WithBoolean("include_population", mcp.Description("Fetch population alongside (default true)")),
			mcp.WithBoolean("include_rankings", mcp.Description("Rank countries by level, growth and stability (default true)")),
			mcp.WithBoolean("include_convergence", mcp.Description("Sigma and beta convergence (default true)")),
			mcp.WithBoolean("include_growth_analysis", mcp.Description("Per-country metrics (default true)")),
			mcp.WithBoolean("detect_structural_breaks", mcp.Description("Rolling-variance break detection (default true)")),
		),
		s.handle(workflow.AnalyzeGDP),
	)
}
