// Package cmd implements the fredmcp command tree. `serve` is the MCP entry
// point; the rest is ops tooling for operators running the server locally.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fredmcp/internal/config"
	"github.com/derickschaefer/fredmcp/internal/server"
	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

// rootCmd is the base command. Running `fredmcp` with no subcommand prints
// help.
var rootCmd = &cobra.Command{
	Use:   "fredmcp",
	Short: "fredmcp — Federal Reserve Economic Data (FRED) MCP server",
	Long: `fredmcp exposes the FRED® API to MCP clients over stdio: series search,
observations, tags, categories, plus cross-country inflation and GDP
analysis workflows.

Data sourced from FRED®, Federal Reserve Bank of St. Louis;
https://fred.stlouisfed.org/

Get a free API key at: https://fred.stlouisfed.org/docs/api/api_key.html

Quick start:
  export FRED_API_KEY=YOUR_KEY
  fredmcp config check         # verify configuration
  fredmcp serve                # start the MCP server on stdio`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildServer loads configuration and wires the full subsystem graph.
// Logging always goes to stderr: stdout belongs to the MCP transport.
func buildServer() (*server.Server, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := telemetry.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	srv, err := server.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return srv, cfg, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}
