package tools

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/limiter"
)

func testDeps(t *testing.T, handler http.HandlerFunc) *Deps {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIKey:    "test-key",
		BaseURL:   srv.URL,
		UserAgent: "fredmcp-test/0",
		Timeout:   5 * time.Second,
	}
	c := cache.NewWithBackend(cache.NewMemoryBackend(), 600, nil, nil)
	l := limiter.New(100, time.Minute, nil)
	return &Deps{
		Config:    cfg,
		Client:    fredclient.New(cfg, c, l, nil, nil),
		Cache:     c,
		Limiter:   l,
		StartedAt: time.Now(),
	}
}

// ─── Argument extraction ──────────────────────────────────────────────────────

func TestArgExtraction(t *testing.T) {
	args := map[string]any{
		"s":       "  GDP  ",
		"n":       float64(25), // JSON numbers decode as float64
		"f":       2.5,
		"b":       true,
		"mistype": 7,
	}
	if got := ArgString(args, "s"); got != "GDP" {
		t.Errorf("ArgString: %q", got)
	}
	if got := ArgString(args, "mistype"); got != "" {
		t.Errorf("mistyped string: %q", got)
	}
	if got := ArgInt(args, "n", 0); got != 25 {
		t.Errorf("ArgInt: %d", got)
	}
	if got := ArgInt(args, "missing", 20); got != 20 {
		t.Errorf("ArgInt default: %d", got)
	}
	if got := ArgFloat(args, "f", 0); got != 2.5 {
		t.Errorf("ArgFloat: %g", got)
	}
	if got := ArgBool(args, "b", false); !got {
		t.Error("ArgBool: expected true")
	}
	if got := ArgBool(args, "missing", true); !got {
		t.Error("ArgBool default: expected true")
	}
}

func TestArgList(t *testing.T) {
	// JSON array form.
	got := ArgList(map[string]any{"tags": []any{"gdp", " inflation ", ""}}, "tags", ";")
	if len(got) != 2 || got[0] != "gdp" || got[1] != "inflation" {
		t.Errorf("array form: %v", got)
	}
	// Delimited string form.
	got = ArgList(map[string]any{"tags": "usa;quarterly; sa"}, "tags", ";")
	if len(got) != 3 || got[2] != "sa" {
		t.Errorf("delimited form: %v", got)
	}
	if got := ArgList(map[string]any{}, "tags", ";"); got != nil {
		t.Errorf("missing key: %v", got)
	}
}

// ─── Validation ───────────────────────────────────────────────────────────────

func TestCheckDate(t *testing.T) {
	if err := CheckDate("observation_start", ""); err != nil {
		t.Errorf("empty is allowed: %v", err)
	}
	if err := CheckDate("observation_start", "2024-01-31"); err != nil {
		t.Errorf("valid date: %v", err)
	}
	err := CheckDate("observation_start", "01/31/2024")
	if err == nil {
		t.Fatal("bad date should fail")
	}
	if fredclient.KindOf(err) != fredclient.KindValidation {
		t.Errorf("kind: %s", fredclient.KindOf(err))
	}
}

func TestCheckEnum(t *testing.T) {
	if err := CheckEnum("units", "pc1", Units); err != nil {
		t.Errorf("valid enum: %v", err)
	}
	if err := CheckEnum("units", "", Units); err != nil {
		t.Errorf("empty is allowed: %v", err)
	}
	if err := CheckEnum("units", "percent", Units); err == nil {
		t.Error("unknown enum value should fail")
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{nil, DefaultLimit},
		{float64(50), 50},
		{float64(0), 1},
		{float64(-3), 1},
		{float64(5000), MaxLimit},
	}
	for _, tc := range cases {
		args := map[string]any{}
		if tc.in != nil {
			args["limit"] = tc.in
		}
		if got := clampLimit(args, DefaultLimit); got != tc.want {
			t.Errorf("clampLimit(%v): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestParseObsArgs(t *testing.T) {
	a, err := ParseObsArgs(map[string]any{
		"series_id": "gdp", "units": "PC1", "frequency": "q",
		"aggregation_method": "avg", "observation_start": "2020-01-01",
		"observation_end": "2024-12-31", "sort_order": "desc", "limit": float64(100),
	})
	if err != nil {
		t.Fatalf("valid args: %v", err)
	}
	// Series ids uppercase, enums lowercase on the wire.
	if a.SeriesID != "GDP" || a.Units != "pc1" {
		t.Errorf("normalization: %+v", a)
	}

	bad := []map[string]any{
		{},                                              // series_id required
		{"series_id": "GDP", "observation_start": "x"},  // bad date
		{"series_id": "GDP", "units": "percent"},        // bad enum
		{"series_id": "GDP", "aggregation_method": "avg"}, // aggregation without frequency
		{"series_id": "GDP", "observation_start": "2024-01-01", "observation_end": "2020-01-01"}, // inverted range
	}
	for i, args := range bad {
		_, err := ParseObsArgs(args)
		if err == nil {
			t.Errorf("case %d should fail validation: %v", i, args)
			continue
		}
		if fredclient.KindOf(err) != fredclient.KindValidation {
			t.Errorf("case %d kind: %s", i, fredclient.KindOf(err))
		}
	}
}

// ─── Response shaping ─────────────────────────────────────────────────────────

func TestErrorResponseCarriesRetryHints(t *testing.T) {
	err := &fredclient.Error{
		Kind: fredclient.KindRateLimited, Message: "after 3 attempts: HTTP 429",
		Status: 429, RetryCount: 3, RetryAfterMS: 2000,
	}
	resp := ErrorResponse("get_fred_series_observations", err)
	if !resp.IsError() {
		t.Fatal("expected an error envelope")
	}
	if resp.Metadata["error_kind"] != string(fredclient.KindRateLimited) {
		t.Errorf("error_kind: %v", resp.Metadata["error_kind"])
	}
	if resp.Metadata["retry_after_ms"] != int64(2000) {
		t.Errorf("retry_after_ms: %v", resp.Metadata["retry_after_ms"])
	}
	if resp.Metadata["retry_count"] != 3 {
		t.Errorf("retry_count: %v", resp.Metadata["retry_count"])
	}
}

func TestTruncateNotes(t *testing.T) {
	if got := truncateNotes("short", 300); got != "short" {
		t.Errorf("short notes: %q", got)
	}
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateNotes(string(long), 300)
	if len([]rune(got)) != 301 {
		t.Errorf("truncated length: %d", len([]rune(got)))
	}
}

func TestTotalCount(t *testing.T) {
	if got := totalCount(500, 20); got != 500 {
		t.Errorf("count field wins: %d", got)
	}
	if got := totalCount(0, 20); got != 20 {
		t.Errorf("fallback to page length: %d", got)
	}
}

// ─── Orchestration ────────────────────────────────────────────────────────────

func TestValidationShortCircuitsBeforeHTTP(t *testing.T) {
	d := testDeps(t, func(http.ResponseWriter, *http.Request) {
		t.Error("invalid arguments must not reach the FRED API")
	})

	resp := GetSeriesObservations(context.Background(), d, map[string]any{})
	if !resp.IsError() {
		t.Fatal("expected a validation error envelope")
	}
	if resp.Metadata["error_kind"] != string(fredclient.KindValidation) {
		t.Errorf("error_kind: %v", resp.Metadata["error_kind"])
	}
}

func TestFetchObservationsSortsAndParses(t *testing.T) {
	d := testDeps(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"observations":[
			{"date":"2024-03-01","value":"102.5"},
			{"date":"2024-01-01","value":"100.0"},
			{"date":"2024-02-01","value":"."},
			{"date":"garbage","value":"1"}
		]}`))
	})

	a, err := ParseObsArgs(map[string]any{"series_id": "TEST"})
	if err != nil {
		t.Fatalf("ParseObsArgs: %v", err)
	}
	data, _, err := FetchObservations(context.Background(), d, a)
	if err != nil {
		t.Fatalf("FetchObservations: %v", err)
	}
	// Malformed dates are dropped; the rest arrive ascending.
	if len(data.Obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(data.Obs))
	}
	for i := 1; i < len(data.Obs); i++ {
		if data.Obs[i].Date.Before(data.Obs[i-1].Date) {
			t.Fatal("observations must be ascending by date")
		}
	}
	if !math.IsNaN(data.Obs[1].Value) {
		t.Errorf("missing value should parse as NaN, got %g", data.Obs[1].Value)
	}
	if data.Obs[1].ValueRaw != "." {
		t.Errorf("raw value preserved: %q", data.Obs[1].ValueRaw)
	}
}

func TestGetSeriesObservationsEnvelope(t *testing.T) {
	d := testDeps(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"observations":[{"date":"2024-01-01","value":"100.0"}]}`))
	})

	resp := GetSeriesObservations(context.Background(), d, map[string]any{
		"series_id": "unrate", "units": "pc1",
	})
	if resp.IsError() {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.Metadata["series_id"] != "UNRATE" || resp.Metadata["units"] != "pc1" {
		t.Errorf("echo: %v", resp.Metadata)
	}
	if resp.Metadata["cache_hit"] != false {
		t.Errorf("cache_hit: %v", resp.Metadata["cache_hit"])
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data shape: %T", resp.Data)
	}
	if data["count"] != 1 {
		t.Errorf("count: %v", data["count"])
	}
}
