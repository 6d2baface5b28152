// Package model defines the canonical data types used throughout fredmcp.
// These types are the single source of truth for all FRED API entities and
// the response envelope that every tool returns.
package model

import (
	"math"
	"time"
)

// ─── FRED Entity Types ────────────────────────────────────────────────────────

// Category represents a FRED data category node in the hierarchy.
// The tree is rooted at category id 0.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"`
}

// SeriesMeta holds metadata for a single FRED data series.
type SeriesMeta struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	ObservationStart        string    `json:"observation_start"`
	ObservationEnd          string    `json:"observation_end"`
	Frequency               string    `json:"frequency"`
	FrequencyShort          string    `json:"frequency_short"`
	Units                   string    `json:"units"`
	UnitsShort              string    `json:"units_short"`
	SeasonalAdjustment      string    `json:"seasonal_adjustment"`
	SeasonalAdjustmentShort string    `json:"seasonal_adjustment_short"`
	LastUpdated             string    `json:"last_updated"`
	Popularity              int       `json:"popularity"`
	Notes                   string    `json:"notes,omitempty"`
	FetchedAt               time.Time `json:"fetched_at,omitempty"`
}

// Tag represents a FRED tag that can be applied to series.
// GroupID is one of the closed set: freq, gen, geo, geot, rls, seas, src, cc.
type Tag struct {
	Name        string `json:"name"`
	GroupID     string `json:"group_id"`
	Notes       string `json:"notes,omitempty"`
	Created     string `json:"created"`
	Popularity  int    `json:"popularity"`
	SeriesCount int    `json:"series_count"`
}

// TagGroups is the closed set of valid FRED tag group ids.
var TagGroups = []string{"freq", "gen", "geo", "geot", "rls", "seas", "src", "cc"}

// ValidTagGroup reports whether g is a known tag group id.
func ValidTagGroup(g string) bool {
	for _, v := range TagGroups {
		if v == g {
			return true
		}
	}
	return false
}

// ─── Time Series Types ────────────────────────────────────────────────────────

// Observation is a single data point in a time series.
// Value is NaN when the raw value is "." or empty (missing data).
// ValueRaw preserves the original string from the API response.
type Observation struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	ValueRaw string    `json:"value_raw,omitempty"`
}

// IsMissing returns true if the observation value is NaN (missing data).
func (o Observation) IsMissing() bool {
	return math.IsNaN(o.Value)
}

// SeriesData bundles observations with optional metadata for a single series.
// Observations are ordered by strictly ascending date.
type SeriesData struct {
	SeriesID string        `json:"series_id"`
	Meta     *SeriesMeta   `json:"meta,omitempty"`
	Obs      []Observation `json:"observations"`
}

// ObsPoint is the wire representation of an observation in tool responses.
// Value is a *float64 so that missing values (NaN) serialize as JSON null.
type ObsPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// ToPoints converts observations into wire points (NaN → null).
func ToPoints(obs []Observation) []ObsPoint {
	pts := make([]ObsPoint, len(obs))
	for i, o := range obs {
		pts[i] = ObsPoint{Date: o.Date.Format("2006-01-02")}
		if !o.IsMissing() {
			v := o.Value
			pts[i].Value = &v
		}
	}
	return pts
}
