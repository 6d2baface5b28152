package tools

import (
	"context"
	"time"

	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/model"
)

// SystemHealth implements system_health: the only externally observable view
// of the cache, limiter, and telemetry registry.
func SystemHealth(ctx context.Context, d *Deps, _ map[string]any) *model.ToolResponse {
	const tool = "system_health"

	metrics, err := d.Telemetry.Snapshot()
	if err != nil {
		return ErrorResponse(tool, err)
	}

	resp := model.NewResponse(tool)
	resp.Data = map[string]any{
		"cache":          d.Cache.Snapshot(ctx),
		"rate_limiter":   d.Limiter.Snapshot(),
		"metrics":        metrics,
		"version":        config.Version,
		"uptime_seconds": int64(time.Since(d.StartedAt) / time.Second),
	}
	return resp
}
