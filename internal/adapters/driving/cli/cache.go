package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the query cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the query cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stats := queryService.CacheStats(commandContext(cmd))
	cmd.Printf("Backend:    %s\n", stats.Backend)
	cmd.Printf("Available:  %t\n", stats.Available)
	cmd.Printf("Entries:    %d", stats.Entries)
	if stats.MaxEntries > 0 {
		cmd.Printf(" / %d", stats.MaxEntries)
	}
	cmd.Println()
	cmd.Printf("Hits:       %d\n", stats.Hits)
	cmd.Printf("Misses:     %d\n", stats.Misses)
	cmd.Printf("Hit rate:   %.1f%%\n", stats.HitRate()*100)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	if err := queryService.ClearCache(commandContext(cmd)); err != nil {
		return fmt.Errorf("clear cache failed: %w", err)
	}
	cmd.Println("Cache cleared.")
	return nil
}
