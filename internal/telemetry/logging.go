package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a slog.Logger writing to w. Format is "plain" or "json";
// level is one of DEBUG, INFO, WARN, ERROR (case-insensitive).
//
// The logger must write to stderr in the server: stdout carries the MCP
// JSON-RPC framing.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLog carries the fields of the single structured record emitted for
// every FRED call.
type RequestLog struct {
	Tool       string
	RequestID  string
	DurationMS int64
	Status     int
	CacheHit   bool
	RetryCount int
	Err        error
}

// LogRequest emits the per-call record at INFO (ERROR when Err is set).
func LogRequest(l *slog.Logger, rl RequestLog) {
	if l == nil {
		return
	}
	attrs := []any{
		"tool", rl.Tool,
		"request_id", rl.RequestID,
		"duration_ms", rl.DurationMS,
		"status", rl.Status,
		"cache_hit", rl.CacheHit,
		"retry_count", rl.RetryCount,
	}
	if rl.Err != nil {
		attrs = append(attrs, "error", rl.Err.Error())
		l.Error("fred request", attrs...)
		return
	}
	l.Info("fred request", attrs...)
}
