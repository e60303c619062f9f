package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one retrieval stage directly",
	Long:  `Runs vector or table retrieval on its own, without answer generation.`,
}

var searchVectorsCmd = &cobra.Command{
	Use:   "vectors [query]",
	Short: "Semantic search over narrative text chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearchVectors,
}

var searchTablesCmd = &cobra.Command{
	Use:   "tables [filename]",
	Short: "List stored tables, optionally scoped to one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearchTables,
}

func init() {
	searchCmd.PersistentFlags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.PersistentFlags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.AddCommand(searchVectorsCmd)
	searchCmd.AddCommand(searchTablesCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearchVectors(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	hits, err := queryService.SearchVectors(commandContext(cmd), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("vector search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}
	if len(hits) == 0 {
		cmd.Println("No matching chunks.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("  [%d] %.3f %s: %s\n", i+1, hit.Score, hit.Payload.SourceFilename, hit.Payload.Text)
	}
	return nil
}

func runSearchTables(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	var filter string
	if len(args) == 1 {
		filter = args[0]
	}

	records, err := queryService.SearchTables(commandContext(cmd), filter, searchLimit)
	if err != nil {
		return fmt.Errorf("table search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println("No matching tables.")
		return nil
	}
	for i, record := range records {
		cmd.Printf("  [%d] %s from %s (%s, page %d)\n",
			i+1, record.TableID, record.SourceFilename, record.ContentType, record.Metadata.PageNumber)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
