package workflow

import "fmt"

// GDPVariant names one of the GDP measures the workflow can serve.
type GDPVariant string

const (
	VariantNominalUSD        GDPVariant = "nominal_usd"
	VariantConstant2010      GDPVariant = "constant_2010"
	VariantPerCapitaConstant GDPVariant = "per_capita_constant"
	VariantPerCapitaPPP      GDPVariant = "per_capita_ppp"
	VariantPPPAdjusted       GDPVariant = "ppp_adjusted"
	VariantPopulation        GDPVariant = "population"
	VariantGrowthRate        GDPVariant = "growth_rate"
)

// GDPVariants lists the variants accepted on the wire, in schema order.
var GDPVariants = []string{
	string(VariantNominalUSD), string(VariantConstant2010),
	string(VariantPerCapitaConstant), string(VariantPerCapitaPPP),
	string(VariantPPPAdjusted), string(VariantGrowthRate),
	string(VariantPopulation),
}

// countryNames covers every ISO3 code reachable through the presets.
// A code absent here is dropped with a warning during expansion.
var countryNames = map[string]string{
	"USA": "United States", "CAN": "Canada", "GBR": "United Kingdom",
	"DEU": "Germany", "FRA": "France", "ITA": "Italy", "JPN": "Japan",
	"AUS": "Australia", "BRA": "Brazil", "CHN": "China", "IND": "India",
	"IDN": "Indonesia", "KOR": "South Korea", "MEX": "Mexico",
	"RUS": "Russia", "SAU": "Saudi Arabia", "ZAF": "South Africa",
	"TUR": "Turkey", "ARG": "Argentina", "AUT": "Austria", "BEL": "Belgium",
	"CHE": "Switzerland", "DNK": "Denmark", "ESP": "Spain", "FIN": "Finland",
	"GRC": "Greece", "IRL": "Ireland", "ISL": "Iceland",
	"NLD": "Netherlands", "NOR": "Norway", "NZL": "New Zealand",
	"PRT": "Portugal", "SWE": "Sweden", "THA": "Thailand",
	"MYS": "Malaysia", "PHL": "Philippines", "VNM": "Vietnam",
	"SGP": "Singapore", "ARE": "United Arab Emirates", "ISR": "Israel",
	"EGY": "Egypt", "CHL": "Chile", "COL": "Colombia", "PER": "Peru",
	"NGA": "Nigeria", "KEN": "Kenya", "MAR": "Morocco",
}

// CountryName returns the display name for an ISO3 code.
func CountryName(code string) (string, bool) {
	n, ok := countryNames[code]
	return n, ok
}

// KnownCountry reports whether the workflow has a series mapping for code.
func KnownCountry(code string) bool {
	_, ok := countryNames[code]
	return ok
}

// GDPSeriesID builds the FRED series id for a fetchable variant. The ids
// follow the World Development Indicators naming FRED mirrors: an indicator
// stem plus the ISO3 code (plus a WDI release suffix for the 646/647 sets).
// growth_rate has no direct series; it derives from constant_2010.
func GDPSeriesID(code string, variant GDPVariant) (string, error) {
	if !KnownCountry(code) {
		return "", fmt.Errorf("unknown country code %q", code)
	}
	switch variant {
	case VariantNominalUSD:
		return "MKTGDP" + code + "646NWDB", nil
	case VariantConstant2010:
		return "NYGDPMKTPKD" + code, nil
	case VariantPerCapitaConstant:
		return "NYGDPPCAPKD" + code, nil
	case VariantPerCapitaPPP:
		return "NYGDPPCAPPPKD" + code, nil
	case VariantPPPAdjusted:
		return "NYGDPMKTPPPKD" + code, nil
	case VariantPopulation:
		return "POPTOT" + code + "647NWDB", nil
	case VariantGrowthRate:
		return "", fmt.Errorf("growth_rate is derived, not fetched")
	default:
		return "", fmt.Errorf("unknown gdp variant %q", variant)
	}
}

// perCapitaBase maps a per-capita variant to the total it can be derived
// from when the direct per-capita series has no data.
func perCapitaBase(variant GDPVariant) (GDPVariant, bool) {
	switch variant {
	case VariantPerCapitaConstant:
		return VariantConstant2010, true
	case VariantPerCapitaPPP:
		return VariantPPPAdjusted, true
	default:
		return "", false
	}
}

// variantPlan splits the requested variants into direct fetches and derived
// computations, auto-adding dependencies: growth_rate needs constant_2010;
// per-capita fallbacks and include_population need population.
type variantPlan struct {
	direct  []GDPVariant
	derived []GDPVariant
}

func planVariants(requested []GDPVariant, includePopulation bool) variantPlan {
	var p variantPlan
	need := map[GDPVariant]bool{}
	add := func(v GDPVariant) {
		if !need[v] {
			need[v] = true
			p.direct = append(p.direct, v)
		}
	}
	for _, v := range requested {
		switch v {
		case VariantGrowthRate:
			p.derived = append(p.derived, v)
			add(VariantConstant2010)
		case VariantPerCapitaConstant, VariantPerCapitaPPP:
			add(v)
			// Fallback path: total / population when direct fetch is empty.
			if base, ok := perCapitaBase(v); ok {
				add(base)
			}
			add(VariantPopulation)
		default:
			add(v)
		}
	}
	if includePopulation {
		add(VariantPopulation)
	}
	return p
}
