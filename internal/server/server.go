// Package server wires the subsystems together and exposes them as an MCP
// server on stdio. stdout carries JSON-RPC framing; all logging goes to
// stderr.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/derickschaefer/fredmcp/internal/cache"
	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/fredclient"
	"github.com/derickschaefer/fredmcp/internal/limiter"
	"github.com/derickschaefer/fredmcp/internal/model"
	"github.com/derickschaefer/fredmcp/internal/telemetry"
	"github.com/derickschaefer/fredmcp/internal/tools"
	"github.com/derickschaefer/fredmcp/internal/workflow"
)

// Server owns the subsystem graph and the MCP server instance.
type Server struct {
	deps *tools.Deps
	mcp  *mcpserver.MCPServer
}

// New builds the full subsystem graph from configuration: telemetry, cache,
// limiter, FRED client, then the MCP server with every tool registered.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tel := telemetry.New()

	c, err := cache.New(cfg, tel, logger)
	if err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}
	lim := limiter.New(cfg.RateLimitMax, cfg.RateLimitWindow, tel)
	client := fredclient.New(cfg, c, lim, tel, logger)

	s := &Server{
		deps: &tools.Deps{
			Config:    cfg,
			Client:    client,
			Cache:     c,
			Limiter:   lim,
			Telemetry: tel,
			Logger:    logger,
			StartedAt: time.Now(),
		},
		mcp: mcpserver.NewMCPServer("fredmcp", config.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	return s, nil
}

// Deps exposes the wired dependency set for the ops CLI, which reuses the
// same graph without serving MCP.
func (s *Server) Deps() *tools.Deps { return s.deps }

// ValidateTables probes FRED for the inflation and GDP lookup tables and
// logs each problem found. It returns the number of issues.
func (s *Server) ValidateTables(ctx context.Context) int {
	issues := workflow.ValidateTables(ctx, s.deps)
	for _, issue := range issues {
		s.deps.Logger.Warn("series table validation", "issue", issue)
	}
	return len(issues)
}

// Serve blocks reading MCP JSON-RPC from stdin until EOF or a fatal
// transport error.
func (s *Server) Serve() error {
	s.deps.Logger.Info("serving MCP on stdio",
		"version", config.Version,
		"cache_backend", s.deps.Config.CacheBackend,
		"rate_limit", s.deps.Config.RateLimitMax,
	)
	return mcpserver.ServeStdio(s.mcp)
}

// toolFunc is the shared shape of every orchestrator.
type toolFunc func(ctx context.Context, d *tools.Deps, args map[string]any) *model.ToolResponse

// handle adapts an orchestrator to the MCP handler contract. Tool-level
// failures ride inside the envelope; only encoding failures surface as
// protocol errors.
func (s *Server) handle(fn toolFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp := fn(ctx, s.deps, req.GetArguments())
		body, err := resp.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode response: %w", err)
		}
		return mcp.NewToolResultText(body), nil
	}
}
