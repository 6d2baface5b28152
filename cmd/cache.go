package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the response cache",
	Long: `Commands for inspecting and clearing the configured cache backend.

The cache holds FRED API responses keyed by endpoint and canonical
parameters, with per-namespace TTLs. Entries expire on their own; clearing
is only needed after upstream revisions or when testing.`,
}

// ─── cache stats ──────────────────────────────────────────────────────────────

var cacheStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show hit/miss counts and entry totals per namespace",
	Example: `  fredmcp cache stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, _, err := buildServer()
		if err != nil {
			return err
		}
		defer srv.Deps().Cache.Close()

		snap := srv.Deps().Cache.Snapshot(cmd.Context())

		names := make([]string, 0, len(snap.Namespaces))
		for ns := range snap.Namespaces {
			names = append(names, ns)
		}
		sort.Strings(names)

		fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s (connected: %v)\n\n", snap.Backend, snap.Connected)
		printSimpleTable(cmd.OutOrStdout(), []string{"NAMESPACE", "TTL", "HITS", "MISSES", "ENTRIES"}, func(add func(...string)) {
			for _, ns := range names {
				s := snap.Namespaces[ns]
				add(ns,
					fmt.Sprintf("%ds", s.TTLSeconds),
					fmt.Sprintf("%d", s.Hits),
					fmt.Sprintf("%d", s.Misses),
					fmt.Sprintf("%d", s.Entries),
				)
			}
		})
		return nil
	},
}

// ─── cache clear ──────────────────────────────────────────────────────────────

var cacheClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove every cached FRED response",
	Example: `  fredmcp cache clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, _, err := buildServer()
		if err != nil {
			return err
		}
		defer srv.Deps().Cache.Close()

		if err := srv.Deps().Cache.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
