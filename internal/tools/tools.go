// Package tools implements the tool orchestrators exposed over MCP: one per
// FRED endpoint plus the system_health tool. Each orchestrator validates its
// arguments, calls the FRED client, and shapes a compact ToolResponse. Errors
// never escape as Go errors; they are folded into the response envelope.
package tools

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/limiter"
	"github.com/derickschaefer/fredmcp/internal/model"
	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

// Deps holds the shared subsystems injected into every tool. These are
// process-wide singletons built at bootstrap, passed explicitly so tests can
// substitute fresh instances.
type Deps struct {
	Config    *config.Config
	Client    *fredclient.Client
	Cache     *cache.Cache
	Limiter   *limiter.Limiter
	Telemetry *telemetry.Registry
	Logger    *slog.Logger
	StartedAt time.Time
}

// Limit bounds for list-returning endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// Closed argument sets. Strings on the wire, checked here.
var (
	Units        = []string{"lin", "chg", "ch1", "pch", "pc1", "pca", "cch", "cca", "log"}
	Frequencies  = []string{"d", "w", "bw", "m", "q", "sa", "a"}
	Aggregations = []string{"avg", "sum", "eop"}
	SortOrders   = []string{"asc", "desc"}
	SearchTypes  = []string{"full_text", "series_id"}

	SearchOrderBy = []string{
		"search_rank", "series_id", "title", "units", "frequency",
		"seasonal_adjustment", "realtime_start", "realtime_end", "last_updated",
		"observation_start", "observation_end", "popularity", "group_popularity",
	}
	TagOrderBy    = []string{"series_count", "popularity", "created", "name", "group_id"}
	SeriesOrderBy = []string{
		"series_id", "title", "units", "frequency", "seasonal_adjustment",
		"realtime_start", "realtime_end", "last_updated",
		"observation_start", "observation_end", "popularity", "group_popularity",
	}
)

// ─── Argument extraction ──────────────────────────────────────────────────────

// ArgString reads a string argument; missing or mistyped values yield "".
func ArgString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ArgInt reads an integer argument. JSON numbers decode as float64.
func ArgInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// ArgFloat reads a numeric argument.
func ArgFloat(args map[string]any, key string, def float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

// ArgBool reads a boolean argument.
func ArgBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// ArgList reads a list argument that may arrive as a JSON array or as a
// delimited string (semicolons for tags, commas for regions/countries).
func ArgList(args map[string]any, key, delim string) []string {
	var raw []string
	switch v := args[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(v, delim)
	}
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ─── Validation helpers ───────────────────────────────────────────────────────

// ValidationErr builds a VALIDATION error naming the offending field.
func ValidationErr(field, format string, args ...any) error {
	return fredclient.Validation(field, format, args...)
}

// CheckDate validates a YYYY-MM-DD argument, returning a VALIDATION error
// naming the field.
func CheckDate(field, s string) error {
	if s == "" {
		return nil
	}
	if _, err := model.ParseDate(s); err != nil {
		return fredclient.Validation(field, "invalid date %q, expected YYYY-MM-DD", s)
	}
	return nil
}

// CheckEnum validates a closed-set argument.
func CheckEnum(field, val string, allowed []string) error {
	if val == "" {
		return nil
	}
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return fredclient.Validation(field, "invalid value %q, expected one of %s", val, strings.Join(allowed, ", "))
}

// clampLimit applies the documented bounds: 0 clamps to 1, values above
// MaxLimit clamp to MaxLimit, absent uses the default.
func clampLimit(args map[string]any, def int) int {
	n := ArgInt(args, "limit", def)
	if n < 1 {
		return 1
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// ErrorResponse folds a typed error into the envelope. RATE_LIMITED errors
// carry a retry_after_ms hint.
func ErrorResponse(tool string, err error) *model.ToolResponse {
	kind := fredclient.KindOf(err)
	resp := model.NewErrorResponse(tool, string(kind), err.Error())
	var fe *fredclient.Error
	if errors.As(err, &fe) {
		if fe.RetryAfterMS > 0 {
			resp.Metadata["retry_after_ms"] = fe.RetryAfterMS
		}
		if fe.RetryCount > 0 {
			resp.Metadata["retry_count"] = fe.RetryCount
		}
	}
	return resp
}

// truncateNotes caps free-text notes so responses stay token-cheap.
func truncateNotes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// ─── Raw FRED wire types ──────────────────────────────────────────────────────

type rawSeriesMeta struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	ObservationStart        string `json:"observation_start"`
	ObservationEnd          string `json:"observation_end"`
	Frequency               string `json:"frequency"`
	FrequencyShort          string `json:"frequency_short"`
	Units                   string `json:"units"`
	UnitsShort              string `json:"units_short"`
	SeasonalAdjustment      string `json:"seasonal_adjustment"`
	SeasonalAdjustmentShort string `json:"seasonal_adjustment_short"`
	LastUpdated             string `json:"last_updated"`
	Popularity              int    `json:"popularity"`
	Notes                   string `json:"notes"`
}

func (r rawSeriesMeta) toMeta() model.SeriesMeta {
	return model.SeriesMeta{
		ID:                      r.ID,
		Title:                   r.Title,
		ObservationStart:        r.ObservationStart,
		ObservationEnd:          r.ObservationEnd,
		Frequency:               r.Frequency,
		FrequencyShort:          r.FrequencyShort,
		Units:                   r.Units,
		UnitsShort:              r.UnitsShort,
		SeasonalAdjustment:      r.SeasonalAdjustment,
		SeasonalAdjustmentShort: r.SeasonalAdjustmentShort,
		LastUpdated:             r.LastUpdated,
		Popularity:              r.Popularity,
		Notes:                   truncateNotes(r.Notes, 300),
	}
}

type rawTag struct {
	Name        string `json:"name"`
	GroupID     string `json:"group_id"`
	Notes       string `json:"notes"`
	Created     string `json:"created"`
	Popularity  int    `json:"popularity"`
	SeriesCount int    `json:"series_count"`
}

func (r rawTag) toTag() model.Tag {
	return model.Tag{
		Name:        r.Name,
		GroupID:     r.GroupID,
		Notes:       truncateNotes(r.Notes, 200),
		Created:     r.Created,
		Popularity:  r.Popularity,
		SeriesCount: r.SeriesCount,
	}
}

type rawCategory struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID int    `json:"parent_id"`
}

func (r rawCategory) toCategory() model.Category {
	return model.Category{ID: r.ID, Name: r.Name, ParentID: r.ParentID}
}

// tagsPayload and seriesPayload are shared FRED response bodies.
type tagsPayload struct {
	Count int      `json:"count"`
	Tags  []rawTag `json:"tags"`
}

type seriesPayload struct {
	Count   int             `json:"count"`
	Seriess []rawSeriesMeta `json:"seriess"`
}

func metasOf(p seriesPayload) []model.SeriesMeta {
	out := make([]model.SeriesMeta, len(p.Seriess))
	for i, s := range p.Seriess {
		out[i] = s.toMeta()
	}
	return out
}

func tagsOf(p tagsPayload) []model.Tag {
	out := make([]model.Tag, len(p.Tags))
	for i, t := range p.Tags {
		out[i] = t.toTag()
	}
	return out
}

// totalCount prefers FRED's count field, falling back to the page length.
func totalCount(count, pageLen int) int {
	if count > 0 {
		return count
	}
	return pageLen
}
