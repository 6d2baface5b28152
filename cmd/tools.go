package cmd

import (
	"github.com/spf13/cobra"
)

// toolCatalog mirrors the MCP registration in internal/server. Kept as a
// static table so listing tools does not require an API key.
var toolCatalog = [][2]string{
	{"search_fred_series", "Search series by text, tags and filters"},
	{"get_fred_series", "Series metadata"},
	{"get_fred_series_observations", "Series observations with transformations"},
	{"get_fred_series_categories", "Categories a series belongs to"},
	{"get_fred_series_tags", "Tags attached to a series"},
	{"search_fred_series_tags", "Tags of series matching a search"},
	{"search_fred_series_related_tags", "Related tags within a series search"},
	{"get_fred_related_tags", "Tags co-occurring with a tag set"},
	{"get_fred_tags", "List or search all tags"},
	{"get_fred_series_by_tags", "Series matching a tag set"},
	{"get_fred_category", "One category (root id 0)"},
	{"get_fred_category_children", "Child categories"},
	{"get_fred_category_series", "Series in a category"},
	{"compare_inflation_across_regions", "Cross-region inflation comparison workflow"},
	{"analyze_gdp_cross_country", "Cross-country GDP analysis workflow"},
	{"system_health", "Cache, limiter and telemetry snapshot"},
}

var toolsCmd = &cobra.Command{
	Use:     "tools",
	Short:   "List the MCP tools this server exposes",
	Example: `  fredmcp tools`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printSimpleTable(cmd.OutOrStdout(), []string{"TOOL", "DESCRIPTION"}, func(add func(...string)) {
			for _, t := range toolCatalog {
				add(t[0], t[1])
			}
		})
		return nil
	},
}
