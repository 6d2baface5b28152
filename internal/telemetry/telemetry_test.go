package telemetry_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Registry ─────────────────────────────────────────────────────────────────

func TestCountersAppearInSnapshot(t *testing.T) {
	r := telemetry.New()
	r.RecordRequest("get_series", "ok")
	r.RecordRequest("get_series", "ok")
	r.RecordRequest("get_series", "error")
	r.CacheHit("fred:search")
	r.CacheMiss("fred:search")
	r.CacheMiss("fred:search")
	r.RateLimitBlocked()
	r.Retry("get_series")

	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := map[string]float64{
		`fred_requests_total{status=ok,tool=get_series}`:    2,
		`fred_requests_total{status=error,tool=get_series}`: 1,
		`cache_hits_total{namespace=fred:search}`:           1,
		`cache_misses_total{namespace=fred:search}`:         2,
		`rate_limit_blocks_total`:                           1,
		`retries_total{tool=get_series}`:                    1,
	}
	for key, v := range want {
		if got := snap.Counters[key]; got != v {
			t.Errorf("%s: expected %g, got %g", key, v, got)
		}
	}
}

func TestGaugesAppearInSnapshot(t *testing.T) {
	r := telemetry.New()
	r.SetCacheSize("fred:observations", 17)
	r.SetPenalty(2000)

	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := snap.Gauges[`cache_size{namespace=fred:observations}`]; got != 17 {
		t.Errorf("cache_size: %g", got)
	}
	if got := snap.Gauges[`limiter_active_penalty_ms`]; got != 2000 {
		t.Errorf("penalty gauge: %g", got)
	}

	// Gauges overwrite, counters accumulate.
	r.SetPenalty(0)
	snap, _ = r.Snapshot()
	if got := snap.Gauges[`limiter_active_penalty_ms`]; got != 0 {
		t.Errorf("penalty gauge after reset: %g", got)
	}
}

func TestHistogramQuantiles(t *testing.T) {
	r := telemetry.New()
	// 100 observations spread evenly through the 50..100 bucket.
	for i := 0; i < 100; i++ {
		r.ObserveRequestDuration("t", 75)
	}
	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	h, ok := snap.Histograms[`fred_request_duration_ms{tool=t}`]
	if !ok {
		t.Fatal("histogram series missing from snapshot")
	}
	if h.Count != 100 {
		t.Errorf("count: %d", h.Count)
	}
	if !approxEqual(h.Sum, 7500, 1e-6) {
		t.Errorf("sum: %g", h.Sum)
	}
	// All samples land in (50,100]; interpolation stays inside that bucket.
	if h.P50 <= 50 || h.P50 > 100 {
		t.Errorf("p50 outside bucket: %g", h.P50)
	}
	if h.P99 <= 50 || h.P99 > 100 {
		t.Errorf("p99 outside bucket: %g", h.P99)
	}
}

func TestHistogramOverflowBucket(t *testing.T) {
	r := telemetry.New()
	// Beyond the largest finite bucket (2500ms).
	r.ObserveRequestDuration("slow", 9000)
	r.ObserveRequestDuration("slow", 9500)

	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	h := snap.Histograms[`fred_request_duration_ms{tool=slow}`]
	// +Inf overflow reports the largest finite bound, never infinity.
	if math.IsInf(h.P99, 1) || math.IsNaN(h.P99) {
		t.Fatalf("p99 must be finite: %g", h.P99)
	}
	if h.P99 != 2500 {
		t.Errorf("p99: expected 2500 (largest finite bound), got %g", h.P99)
	}
}

func TestCacheOpHistogram(t *testing.T) {
	r := telemetry.New()
	r.ObserveCacheOp("fred:search", 1)
	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	h := snap.Histograms[`cache_op_duration_ms{namespace=fred:search}`]
	if h.Count != 1 {
		t.Errorf("count: %d", h.Count)
	}
}

func TestSnapshotIsSerializable(t *testing.T) {
	r := telemetry.New()
	r.RecordRequest("t", "ok")
	r.ObserveRequestDuration("t", 120)

	snap, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := json.Marshal(snap); err != nil {
		t.Errorf("snapshot must marshal cleanly: %v", err)
	}
}

// ─── Logging ──────────────────────────────────────────────────────────────────

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.NewLogger(&buf, "INFO", "json")
	l.Info("hello", "k", "v")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json log record: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("record: %v", rec)
	}

	buf.Reset()
	l = telemetry.NewLogger(&buf, "info", "plain")
	l.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("plain record: %s", buf.String())
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.NewLogger(&buf, "WARN", "plain")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("INFO should be filtered at WARN: %s", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Error("WARN should pass the filter")
	}
}

func TestLogRequest(t *testing.T) {
	var buf bytes.Buffer
	l := telemetry.NewLogger(&buf, "INFO", "json")

	telemetry.LogRequest(l, telemetry.RequestLog{
		Tool: "get_series", RequestID: "ab12cd34", DurationMS: 42, Status: 200, CacheHit: true,
	})
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec["tool"] != "get_series" || rec["cache_hit"] != true {
		t.Errorf("record fields: %v", rec)
	}
	if rec["level"] != "INFO" {
		t.Errorf("level: %v", rec["level"])
	}

	// Errors log at ERROR with the message attached.
	buf.Reset()
	telemetry.LogRequest(l, telemetry.RequestLog{
		Tool: "get_series", Status: 502, Err: errors.New("after 3 attempts: HTTP 502"),
	})
	rec = map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("error record: %v", err)
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level: %v", rec["level"])
	}
	if !strings.Contains(rec["error"].(string), "HTTP 502") {
		t.Errorf("error attr: %v", rec["error"])
	}

	// Nil logger is a no-op, not a panic.
	telemetry.LogRequest(nil, telemetry.RequestLog{Tool: "t"})
}
