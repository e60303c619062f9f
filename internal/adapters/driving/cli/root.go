// Package cli implements the tableqa command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sift-labs/tableqa/internal/core/ports/driving"
	"github.com/sift-labs/tableqa/internal/logger"
)

// Injected services. Commands nil-check these so running an unwired
// binary fails with a clear message instead of a panic.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
)

// serveFunc starts the HTTP API; injected by main alongside the services.
var serveFunc func(addr string) error

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tableqa",
	Short: "Table-aware question answering over PDF documents",
	Long: `tableqa ingests PDF documents, routing extracted tables into a
structured store and narrative text into a vector index, then answers
questions by combining semantic search with exact table lookups.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the core services before Execute.
func SetServices(ingest driving.IngestService, query driving.QueryService) {
	ingestService = ingest
	queryService = query
}

// SetServeFunc injects the HTTP server starter used by the serve command.
func SetServeFunc(fn func(addr string) error) {
	serveFunc = fn
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// commandContext returns the command's context so cancellation reaches the
// services, falling back to Background for commands built without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
