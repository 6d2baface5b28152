package workflow

// IndexType is the inflation index methodology behind a series.
type IndexType string

const (
	IndexHICP IndexType = "HICP"
	IndexCPI  IndexType = "CPI"
	IndexPCE  IndexType = "PCE"
)

// RegionInflation maps a region to its verified FRED price-index series.
// The table is immutable after startup; ValidateTables can probe each id
// against FRED metadata when serve --validate-tables is set.
type RegionInflation struct {
	RegionCode           string    `json:"region"`
	SeriesID             string    `json:"series_id"`
	IndexType            IndexType `json:"index_type"`
	Source               string    `json:"source"`
	IncludesOwnerHousing bool      `json:"includes_owner_housing"`
	Frequency            string    `json:"frequency"`
	Notes                string    `json:"notes,omitempty"`
	CentralBankTarget    *float64  `json:"central_bank_target,omitempty"`
}

func target(v float64) *float64 { return &v }

// regionInflation is keyed by ISO3 code (plus EA for the euro area
// aggregate). European regions resolve to Eurostat HICP; others to national
// CPI. All ids are index series, never pre-computed growth rates; the
// workflows request units=pc1 themselves.
var regionInflation = map[string]RegionInflation{
	"USA": {
		RegionCode: "USA", SeriesID: "CPIAUCSL", IndexType: IndexCPI,
		Source: "BLS", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "Fed targets 2% PCE (not CPI); CPI typically runs ~0.3pp above PCE",
		CentralBankTarget: target(2.0),
	},
	"CAN": {
		RegionCode: "CAN", SeriesID: "CANCPIALLMINMEI", IndexType: IndexCPI,
		Source: "StatCan via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "Canadian CPI includes mortgage interest cost, unlike most peers",
		CentralBankTarget: target(2.0),
	},
	"GBR": {
		RegionCode: "GBR", SeriesID: "GBRCPIALLMINMEI", IndexType: IndexCPI,
		Source: "ONS via OECD", IncludesOwnerHousing: false, Frequency: "m",
		Notes:             "UK CPI follows HICP methodology; CPIH (with owner housing) is the ONS headline",
		CentralBankTarget: target(2.0),
	},
	"JPN": {
		RegionCode: "JPN", SeriesID: "JPNCPIALLMINMEI", IndexType: IndexCPI,
		Source: "Statistics Bureau via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"DEU": {
		RegionCode: "DEU", SeriesID: "CP0000DEM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		Notes:             "ECB target applies to euro-area HICP, not national",
		CentralBankTarget: target(2.0),
	},
	"FRA": {
		RegionCode: "FRA", SeriesID: "CP0000FRM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"ITA": {
		RegionCode: "ITA", SeriesID: "CP0000ITM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"ESP": {
		RegionCode: "ESP", SeriesID: "CP0000ESM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"NLD": {
		RegionCode: "NLD", SeriesID: "CP0000NLM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"BEL": {
		RegionCode: "BEL", SeriesID: "CP0000BEM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"AUT": {
		RegionCode: "AUT", SeriesID: "CP0000ATM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"FIN": {
		RegionCode: "FIN", SeriesID: "CP0000FIM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"PRT": {
		RegionCode: "PRT", SeriesID: "CP0000PTM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"GRC": {
		RegionCode: "GRC", SeriesID: "CP0000GRM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"IRL": {
		RegionCode: "IRL", SeriesID: "CP0000IEM086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"EA": {
		RegionCode: "EA", SeriesID: "CP0000EZ19M086NEST", IndexType: IndexHICP,
		Source: "Eurostat", IncludesOwnerHousing: false, Frequency: "m",
		Notes:             "Euro area 19 aggregate",
		CentralBankTarget: target(2.0),
	},
	"CHE": {
		RegionCode: "CHE", SeriesID: "CHECPIALLMINMEI", IndexType: IndexCPI,
		Source: "FSO via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "SNB defines price stability as CPI below 2%",
		CentralBankTarget: target(2.0),
	},
	"SWE": {
		RegionCode: "SWE", SeriesID: "SWECPIALLMINMEI", IndexType: IndexCPI,
		Source: "SCB via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "Riksbank targets CPIF (fixed mortgage rate)",
		CentralBankTarget: target(2.0),
	},
	"NOR": {
		RegionCode: "NOR", SeriesID: "NORCPIALLMINMEI", IndexType: IndexCPI,
		Source: "SSB via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"DNK": {
		RegionCode: "DNK", SeriesID: "DNKCPIALLMINMEI", IndexType: IndexCPI,
		Source: "DST via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes: "No independent inflation target; krone pegged to the euro",
	},
	"ISL": {
		RegionCode: "ISL", SeriesID: "ISLCPIALLMINMEI", IndexType: IndexCPI,
		Source: "Statistics Iceland via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(2.5),
	},
	"AUS": {
		RegionCode: "AUS", SeriesID: "AUSCPIALLQINMEI", IndexType: IndexCPI,
		Source: "ABS via OECD", IncludesOwnerHousing: true, Frequency: "q",
		Notes:             "Quarterly only; RBA targets the 2-3% midpoint",
		CentralBankTarget: target(2.5),
	},
	"NZL": {
		RegionCode: "NZL", SeriesID: "NZLCPIALLQINMEI", IndexType: IndexCPI,
		Source: "Stats NZ via OECD", IncludesOwnerHousing: true, Frequency: "q",
		CentralBankTarget: target(2.0),
	},
	"KOR": {
		RegionCode: "KOR", SeriesID: "KORCPIALLMINMEI", IndexType: IndexCPI,
		Source: "KOSTAT via OECD", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(2.0),
	},
	"CHN": {
		RegionCode: "CHN", SeriesID: "CHNCPIALLMINMEI", IndexType: IndexCPI,
		Source: "NBS via OECD", IncludesOwnerHousing: false, Frequency: "m",
		Notes:             "Announced annual ceiling rather than a symmetric target",
		CentralBankTarget: target(3.0),
	},
	"IND": {
		RegionCode: "IND", SeriesID: "INDCPIALLMINMEI", IndexType: IndexCPI,
		Source: "MOSPI via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "RBI targets 4% ±2pp",
		CentralBankTarget: target(4.0),
	},
	"BRA": {
		RegionCode: "BRA", SeriesID: "BRACPIALLMINMEI", IndexType: IndexCPI,
		Source: "IBGE via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(3.0),
	},
	"MEX": {
		RegionCode: "MEX", SeriesID: "MEXCPIALLMINMEI", IndexType: IndexCPI,
		Source: "INEGI via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(3.0),
	},
	"RUS": {
		RegionCode: "RUS", SeriesID: "RUSCPIALLMINMEI", IndexType: IndexCPI,
		Source: "Rosstat via OECD", IncludesOwnerHousing: false, Frequency: "m",
		CentralBankTarget: target(4.0),
	},
	"ZAF": {
		RegionCode: "ZAF", SeriesID: "ZAFCPIALLMINMEI", IndexType: IndexCPI,
		Source: "Stats SA via OECD", IncludesOwnerHousing: true, Frequency: "m",
		Notes:             "SARB targets the 3-6% band midpoint",
		CentralBankTarget: target(4.5),
	},
	"TUR": {
		RegionCode: "TUR", SeriesID: "TURCPIALLMINMEI", IndexType: IndexCPI,
		Source: "TurkStat via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(5.0),
	},
	"IDN": {
		RegionCode: "IDN", SeriesID: "IDNCPIALLMINMEI", IndexType: IndexCPI,
		Source: "BPS via OECD", IncludesOwnerHousing: true, Frequency: "m",
		CentralBankTarget: target(2.5),
	},
}

// LookupRegionInflation returns the inflation table entry for code.
func LookupRegionInflation(code string) (RegionInflation, bool) {
	r, ok := regionInflation[code]
	return r, ok
}

// RegionInflationTable returns a copy of the full table, for validation.
func RegionInflationTable() []RegionInflation {
	out := make([]RegionInflation, 0, len(regionInflation))
	for _, r := range regionInflation {
		out = append(out, r)
	}
	return out
}
