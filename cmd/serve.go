package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serveValidateTables bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server. The process reads JSON-RPC from stdin and writes
responses to stdout; logs go to stderr.

With --validate-tables, every series id in the built-in inflation and GDP
lookup tables is probed against FRED before serving. Problems are logged
and the server refuses to start, so a stale table cannot silently feed
wrong data to clients.`,
	Example: `  fredmcp serve
  fredmcp serve --validate-tables`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, _, err := buildServer()
		if err != nil {
			return err
		}
		if serveValidateTables {
			if n := srv.ValidateTables(cmd.Context()); n > 0 {
				return fmt.Errorf("series table validation found %d issue(s); see log", n)
			}
		}
		return srv.Serve()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveValidateTables, "validate-tables", false,
		"probe FRED for every built-in series id before serving")
}
