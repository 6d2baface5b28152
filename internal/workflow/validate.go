package workflow

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/tools"
)

// ValidateTables probes FRED for every series id in the inflation table and
// for one representative country per GDP variant, confirming each id exists
// and refers to an index-level series rather than a pre-computed growth rate.
// Growth-rate units sneaking into the tables would silently double-transform
// everything downstream.
func ValidateTables(ctx context.Context, d *tools.Deps) []string {
	var issues []string

	regions := RegionInflationTable()
	sort.Slice(regions, func(a, b int) bool { return regions[a].RegionCode < regions[b].RegionCode })
	for _, r := range regions {
		if issue := probeSeries(ctx, d, r.SeriesID, fmt.Sprintf("inflation[%s]", r.RegionCode)); issue != "" {
			issues = append(issues, issue)
		}
	}

	// The GDP ids are pattern-generated; one country per variant exercises
	// each pattern without a fetch per (country, variant) pair.
	const sample = "USA"
	for _, v := range []GDPVariant{
		VariantNominalUSD, VariantConstant2010, VariantPerCapitaConstant,
		VariantPerCapitaPPP, VariantPPPAdjusted, VariantPopulation,
	} {
		id, err := GDPSeriesID(sample, v)
		if err != nil {
			issues = append(issues, fmt.Sprintf("gdp[%s/%s]: %v", sample, v, err))
			continue
		}
		if issue := probeSeries(ctx, d, id, fmt.Sprintf("gdp[%s/%s]", sample, v)); issue != "" {
			issues = append(issues, issue)
		}
	}
	return issues
}

func probeSeries(ctx context.Context, d *tools.Deps, seriesID, label string) string {
	params := url.Values{}
	params.Set("series_id", seriesID)

	var payload struct {
		Seriess []struct {
			ID    string `json:"id"`
			Units string `json:"units"`
		} `json:"seriess"`
	}
	_, err := d.Client.GetDecoded(ctx, "validate_tables", "series", params, cache.NSMetadata, &payload)
	if err != nil {
		return fmt.Sprintf("%s: probe of %s failed: %v", label, seriesID, err)
	}
	if len(payload.Seriess) == 0 {
		return fmt.Sprintf("%s: series %s not found", label, seriesID)
	}
	units := strings.ToLower(payload.Seriess[0].Units)
	if strings.Contains(units, "percent change") || strings.Contains(units, "growth rate") {
		return fmt.Sprintf("%s: series %s has units %q, expected an index level", label, seriesID, payload.Seriess[0].Units)
	}
	return ""
}
