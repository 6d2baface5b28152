package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fredmcp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Check and bootstrap configuration",
}

// ─── config check ─────────────────────────────────────────────────────────────

var configCheckCmd = &cobra.Command{
	Use:     "check",
	Short:   "Validate the resolved configuration and print it",
	Example: `  fredmcp config check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printSimpleTable(out, []string{"SETTING", "VALUE"}, func(add func(...string)) {
			add("FRED_API_KEY", cfg.RedactedAPIKey())
			add("FRED_BASE_URL", cfg.BaseURL)
			add("FRED_USER_AGENT", cfg.UserAgent)
			add("FRED_TIMEOUT_SECONDS", fmt.Sprintf("%d", int(cfg.Timeout.Seconds())))
			add("CACHE_BACKEND", cfg.CacheBackend)
			add("CACHE_DEFAULT_TTL", fmt.Sprintf("%d", cfg.CacheDefaultTTL))
			add("CACHE_DIR", cfg.CacheDir)
			add("RATE_LIMIT_MAX", fmt.Sprintf("%d", cfg.RateLimitMax))
			add("RATE_LIMIT_WINDOW_SECONDS", fmt.Sprintf("%d", int(cfg.RateLimitWindow.Seconds())))
			add("LOG_LEVEL", cfg.LogLevel)
			add("LOG_FORMAT", cfg.LogFormat)
			add("WORKFLOW_INFLATION_FANOUT", fmt.Sprintf("%d", cfg.InflationFanout))
			add("WORKFLOW_GDP_FANOUT", fmt.Sprintf("%d", cfg.GDPFanout))
			add("WORKFLOW_MAX_REGIONS", fmt.Sprintf("%d", cfg.MaxRegions))
		})
		fmt.Fprintln(out, "\nConfiguration OK.")
		return nil
	},
}

// ─── config init ──────────────────────────────────────────────────────────────

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:     "init",
	Short:   "Write a template .env file in the current directory",
	Example: `  fredmcp config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = ".env"
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}

		template := `# fredmcp configuration. Environment variables override these values.
FRED_API_KEY=YOUR_KEY_HERE

# CACHE_BACKEND=memory         # memory | disk | external
# CACHE_DEFAULT_TTL=300        # seconds
# CACHE_DIR=~/.fredmcp/cache   # disk backend location
# CACHE_EXTERNAL_URL=redis://localhost:6379/0

# RATE_LIMIT_MAX=120
# RATE_LIMIT_WINDOW_SECONDS=60

# LOG_LEVEL=INFO               # DEBUG | INFO | WARN | ERROR
# LOG_FORMAT=plain             # plain | json

# WORKFLOW_INFLATION_FANOUT=8
# WORKFLOW_GDP_FANOUT=10
# WORKFLOW_MAX_REGIONS=10
`
		if err := os.WriteFile(path, []byte(template), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Fill in FRED_API_KEY before serving.\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing .env")
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configInitCmd)
}
