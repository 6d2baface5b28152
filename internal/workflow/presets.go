// Package workflow implements the cross-country orchestrators: the inflation
// comparison and GDP analysis tools. A workflow expands its region/country
// arguments, fans out FRED calls with a bounded concurrency, aligns the
// resulting series, and runs the statistical analyses on the joined panel.
package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// Presets expand to fixed, ordered country lists (ISO3 codes). Preset names
// are case-insensitive on the wire.
var presets = map[string][]string{
	"g7":    {"USA", "CAN", "GBR", "DEU", "FRA", "ITA", "JPN"},
	"g20":   {"USA", "CAN", "GBR", "DEU", "FRA", "ITA", "JPN", "AUS", "BRA", "CHN", "IND", "IDN", "KOR", "MEX", "RUS", "SAU", "ZAF", "TUR", "ARG"},
	"brics": {"BRA", "RUS", "IND", "CHN", "ZAF"},
	"oecd": {"USA", "CAN", "GBR", "DEU", "FRA", "ITA", "JPN", "AUS", "AUT", "BEL",
		"CHE", "DNK", "ESP", "FIN", "GRC", "IRL", "ISL", "KOR", "MEX", "NLD",
		"NOR", "NZL", "PRT", "SWE", "TUR"},
	"eurozone_core":      {"DEU", "FRA", "NLD", "BEL", "AUT", "FIN"},
	"eurozone_periphery": {"ITA", "ESP", "PRT", "GRC", "IRL"},
	"nordic":             {"SWE", "NOR", "DNK", "FIN", "ISL"},
	"north_america":      {"USA", "CAN", "MEX"},
	"asia_pacific":       {"JPN", "KOR", "AUS", "NZL", "CHN", "IND"},
	"europe_major":       {"DEU", "FRA", "GBR", "ITA", "ESP"},
	"east_asia":          {"CHN", "JPN", "KOR"},
	"southeast_asia":     {"IDN", "THA", "MYS", "PHL", "VNM", "SGP"},
	"middle_east":        {"SAU", "ARE", "ISR", "TUR", "EGY"},
	"latam":              {"BRA", "MEX", "ARG", "CHL", "COL", "PER"},
	"africa":             {"ZAF", "NGA", "EGY", "KEN", "MAR"},
	"emerging":           {"BRA", "CHN", "IND", "IDN", "MEX", "RUS", "TUR", "ZAF"},
	"developed":          {"USA", "CAN", "GBR", "DEU", "FRA", "ITA", "JPN", "AUS", "CHE", "SWE", "NLD", "KOR"},
}

// inflationPresets is the subset of presets accepted by the inflation
// workflow; the GDP workflow accepts all of them.
var inflationPresets = map[string]bool{
	"g7": true, "brics": true, "eurozone_core": true, "eurozone_periphery": true,
	"nordic": true, "north_america": true, "asia_pacific": true, "europe_major": true,
}

// PresetNames returns the sorted preset names accepted by kind ("inflation"
// or "gdp"), for tool descriptions.
func PresetNames(kind string) []string {
	var names []string
	for name := range presets {
		if kind == "inflation" && !inflationPresets[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand resolves a mixed list of codes and preset names into an ordered,
// deduplicated code list, clamped to max. It returns the expansion plus
// warnings for anything dropped.
func Expand(inputs []string, kind string, max int) (codes []string, warnings []string) {
	seen := map[string]bool{}
	add := func(code string) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}

	for _, in := range inputs {
		key := strings.ToLower(strings.TrimSpace(in))
		if list, ok := presets[key]; ok {
			if kind == "inflation" && !inflationPresets[key] {
				warnings = append(warnings, fmt.Sprintf("preset %q is not available for inflation comparison; skipped", key))
				continue
			}
			for _, c := range list {
				add(c)
			}
			continue
		}
		add(in)
	}

	if max > 0 && len(codes) > max {
		warnings = append(warnings, fmt.Sprintf("request expanded to %d entries; clamped to the configured maximum of %d", len(codes), max))
		codes = codes[:max]
	}
	return codes, warnings
}
