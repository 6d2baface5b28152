package model_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/fredmcp/internal/model"
)

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	old := model.Clock
	model.Clock = func() time.Time { return at }
	t.Cleanup(func() { model.Clock = old })
}

// ─── Envelope ─────────────────────────────────────────────────────────────────

func TestNewResponseStampsFetchDate(t *testing.T) {
	pinClock(t, time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC))

	r := model.NewResponse("search_series")
	if r.Tool != "search_series" {
		t.Errorf("tool: %q", r.Tool)
	}
	if got := r.Metadata["fetch_date"]; got != "2026-03-15T12:30:00Z" {
		t.Errorf("fetch_date: %v", got)
	}
	if r.IsError() {
		t.Error("fresh response should not be an error")
	}
}

func TestErrorResponseExclusivity(t *testing.T) {
	r := model.NewErrorResponse("get_series", "VALIDATION", "series_id is required")
	if !r.IsError() {
		t.Fatal("error envelope should report IsError")
	}
	if r.Data != nil {
		t.Error("error envelope must not carry data")
	}
	if r.Metadata["error_kind"] != "VALIDATION" {
		t.Errorf("error_kind: %v", r.Metadata["error_kind"])
	}

	out, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if _, ok := decoded["data"]; ok {
		t.Error("data key should be omitted from error envelopes")
	}
	if decoded["error"] != "series_id is required" {
		t.Errorf("error: %v", decoded["error"])
	}
}

func TestEchoSkipsZeroValues(t *testing.T) {
	r := model.NewResponse("t")
	r.Echo("series_id", "GDP").
		Echo("units", "").
		Echo("limit", 20).
		Echo("tag_names", nil)

	if r.Metadata["series_id"] != "GDP" {
		t.Errorf("series_id: %v", r.Metadata["series_id"])
	}
	if _, ok := r.Metadata["units"]; ok {
		t.Error("empty string should not be echoed")
	}
	if _, ok := r.Metadata["tag_names"]; ok {
		t.Error("nil should not be echoed")
	}
	if r.Metadata["limit"] != 20 {
		t.Errorf("limit: %v", r.Metadata["limit"])
	}
}

func TestEncodeCompact(t *testing.T) {
	pinClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	r := model.NewResponse("t")
	r.Data = map[string]string{"url": "https://fred.stlouisfed.org/?a=1&b=2"}
	out, err := r.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("encoded envelope must not end with a newline")
	}
	if strings.Contains(out, "\n") || strings.Contains(out, "  ") {
		t.Error("encoded envelope must be compact")
	}
	// Ampersands survive: no HTML escaping.
	if !strings.Contains(out, "a=1&b=2") {
		t.Errorf("HTML escaping applied: %s", out)
	}
}

func TestSetCacheHit(t *testing.T) {
	r := model.NewResponse("t").SetCacheHit(true)
	if r.Metadata["cache_hit"] != true {
		t.Errorf("cache_hit: %v", r.Metadata["cache_hit"])
	}
}

// ─── Wire parsing ─────────────────────────────────────────────────────────────

func TestParseDate(t *testing.T) {
	d, err := model.ParseDate("2024-06-30")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if model.FormatDate(d) != "2024-06-30" {
		t.Errorf("round trip: %s", model.FormatDate(d))
	}
	for _, bad := range []string{"2024-6-30", "06/30/2024", "2024-06-30T00:00:00Z", ""} {
		if _, err := model.ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestParseObsValue(t *testing.T) {
	if got := model.ParseObsValue("3.14"); got != 3.14 {
		t.Errorf("numeric: %g", got)
	}
	if got := model.ParseObsValue(" -0.5 "); got != -0.5 {
		t.Errorf("padded negative: %g", got)
	}
	for _, missing := range []string{".", "", "  ", "n/a"} {
		if !math.IsNaN(model.ParseObsValue(missing)) {
			t.Errorf("ParseObsValue(%q) should be NaN", missing)
		}
	}
}

func TestFormatValue(t *testing.T) {
	if got := model.FormatValue(2.5); got != "2.5" {
		t.Errorf("FormatValue(2.5): %s", got)
	}
	if got := model.FormatValue(math.NaN()); got != "." {
		t.Errorf("FormatValue(NaN): %s", got)
	}
}
