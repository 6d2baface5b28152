package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fredmcp/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fredmcp version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fredmcp %s\n", config.Version)
		fmt.Fprintf(out, "go      %s\n", runtime.Version())
		fmt.Fprintf(out, "os      %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}
